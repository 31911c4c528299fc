package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// ObjectCache is a content-addressed store of rendered blob pages.
// Entries live at objects/<2-hex-prefix>/<hash>, are written once and
// never mutated, and are attached into commit directories by hard link
// so storage grows with distinct content only.
type ObjectCache struct {
	root string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewObjectCache(root string) *ObjectCache {
	return &ObjectCache{
		root:  root,
		locks: make(map[string]*sync.Mutex),
	}
}

func (c *ObjectCache) entryPath(hash string) string {
	return filepath.Join(c.root, hash[:2], hash)
}

func (c *ObjectCache) lockFor(hash string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	lk, ok := c.locks[hash]
	if !ok {
		lk = &sync.Mutex{}
		c.locks[hash] = lk
	}
	return lk
}

// GetOrRender returns the path of the entry for hash, invoking render
// only if no entry exists yet. Render runs at most once per hash, also
// under concurrent callers. The entry is staged in a temp file and
// published with an atomic rename so a reader never observes a partial
// entry.
func (c *ObjectCache) GetOrRender(hash string, render func() ([]byte, error)) (string, error) {
	if len(hash) < 2 {
		return "", fmt.Errorf("object cache: invalid hash %q", hash)
	}

	lk := c.lockFor(hash)
	lk.Lock()
	defer lk.Unlock()

	fp := c.entryPath(hash)
	if _, err := os.Stat(fp); err == nil {
		return fp, nil
	}

	body, err := render()
	if err != nil {
		return "", fmt.Errorf("object cache: render %s: %w", hash, err)
	}

	dir := filepath.Dir(fp)
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return "", fmt.Errorf("object cache: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".obj-*")
	if err != nil {
		return "", fmt.Errorf("object cache: %w", err)
	}
	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("object cache: write %s: %w", hash, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("object cache: write %s: %w", hash, err)
	}
	if err := os.Rename(tmp.Name(), fp); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("object cache: publish %s: %w", hash, err)
	}
	return fp, nil
}

// Link attaches the entry for hash at dst. Hard link when possible,
// byte copy when the link fails (e.g. dst on another device).
func (c *ObjectCache) Link(hash, dst string) error {
	src := c.entryPath(hash)
	if err := os.MkdirAll(filepath.Dir(dst), os.ModePerm); err != nil {
		return err
	}
	if err := os.Link(src, dst); err == nil {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("object cache: attach %s: %w", hash, err)
	}
	defer in.Close()
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("object cache: attach %s: %w", hash, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("object cache: attach %s: %w", hash, err)
	}
	return out.Close()
}
