package main

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const configFileName = "histweb.yml"

var (
	// ErrNoRepository means no source repository is known: neither the
	// persisted configuration nor the flags named one.
	ErrNoRepository = errors.New("no source repository configured (pass --repo on the first run)")
	// ErrRepoNotFound means the configured local source repository path
	// does not exist.
	ErrRepoNotFound = errors.New("source repository does not exist")
)

// RunConfig is the immutable, fully resolved configuration for one run.
// It is constructed once at startup (persisted file defaults overridden
// by explicit flags) and passed down; nothing reads shared configuration
// state after this point.
type RunConfig struct {
	Outdir     string
	Project    string
	Desc       string
	Repository string
	CloneURL   string
	Branches   []string
	MaxCommits int
	Quiet      bool

	// Rebuild forces invalidation of everything generated: set by
	// --force or by a generator fingerprint change.
	Rebuild bool

	// Fingerprint identifies the embedded templates and stylesheets of
	// this build of the generator.
	Fingerprint string
}

// Overrides carries the explicitly supplied CLI values. Zero values mean
// "not supplied"; supplied values win over the persisted configuration.
type Overrides struct {
	Project    string
	Desc       string
	Repository string
	CloneURL   string
	Branches   []string
	MaxCommits int
	Quiet      bool
	Force      bool
}

// LoadRunConfig reads the persisted configuration beside the output
// tree, merges the overrides, validates the result, rewrites the file,
// and returns the frozen config.
func LoadRunConfig(outdir string, ov Overrides) (*RunConfig, error) {
	path := filepath.Join(outdir, configFileName)

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := &RunConfig{
		Outdir:     outdir,
		Project:    v.GetString("project"),
		Desc:       v.GetString("description"),
		Repository: v.GetString("repository"),
		CloneURL:   v.GetString("clone_url"),
		Branches:   v.GetStringSlice("branches"),
		MaxCommits: v.GetInt("max_commits"),
		Quiet:      ov.Quiet,
	}
	if ov.Project != "" {
		cfg.Project = ov.Project
	}
	if ov.Desc != "" {
		cfg.Desc = ov.Desc
	}
	if ov.Repository != "" {
		cfg.Repository = ov.Repository
	}
	if ov.CloneURL != "" {
		cfg.CloneURL = ov.CloneURL
	}
	if len(ov.Branches) > 0 {
		cfg.Branches = ov.Branches
	}
	if ov.MaxCommits > 0 {
		cfg.MaxCommits = ov.MaxCommits
	}

	if cfg.Repository == "" {
		return nil, ErrNoRepository
	}
	if isLocalPath(cfg.Repository) {
		abs, err := filepath.Abs(cfg.Repository)
		if err != nil {
			return nil, err
		}
		cfg.Repository = abs
		if _, err := os.Stat(abs); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrRepoNotFound, abs)
		}
	}
	if cfg.Project == "" {
		cfg.Project = repoName(cfg.Repository)
	}

	cfg.Fingerprint = assetFingerprint()
	stored := v.GetString("fingerprint")
	cfg.Rebuild = ov.Force || (stored != "" && stored != cfg.Fingerprint)

	if err := os.MkdirAll(outdir, os.ModePerm); err != nil {
		return nil, err
	}
	v.Set("project", cfg.Project)
	v.Set("description", cfg.Desc)
	v.Set("repository", cfg.Repository)
	v.Set("clone_url", cfg.CloneURL)
	v.Set("branches", cfg.Branches)
	v.Set("max_commits", cfg.MaxCommits)
	v.Set("fingerprint", cfg.Fingerprint)
	if err := v.WriteConfigAs(path); err != nil {
		return nil, fmt.Errorf("write config %s: %w", path, err)
	}

	return cfg, nil
}

// isLocalPath reports whether a repository location is a local path
// rather than a URL or scp-style remote.
func isLocalPath(loc string) bool {
	if strings.Contains(loc, "://") {
		return false
	}
	// user@host:path
	if at := strings.IndexByte(loc, '@'); at != -1 && strings.IndexByte(loc[at:], ':') != -1 {
		return false
	}
	return true
}

func repoName(root string) string {
	name := strings.TrimSuffix(filepath.Base(root), ".git")
	if name == "." || name == string(filepath.Separator) {
		return "repository"
	}
	return name
}

// assetFingerprint hashes the embedded templates and stylesheets. When
// it changes between runs, every generated page is stale and the whole
// cache is invalidated.
func assetFingerprint() string {
	h := sha256.New()
	fs.WalkDir(efs, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		b, err := fs.ReadFile(efs, p)
		if err != nil {
			return err
		}
		h.Write([]byte(p))
		h.Write(b)
		return nil
	})
	h.Write(mainCss)
	h.Write(syntaxCss)
	return hex.EncodeToString(h.Sum(nil))
}

// Generated output locations inside the output tree.

func (c *RunConfig) commitsDir() string  { return filepath.Join(c.Outdir, "commits") }
func (c *RunConfig) objectsDir() string  { return filepath.Join(c.Outdir, "objects") }
func (c *RunConfig) branchesDir() string { return filepath.Join(c.Outdir, "branches") }
func (c *RunConfig) mirrorDir() string   { return filepath.Join(c.Outdir, "repository") }
