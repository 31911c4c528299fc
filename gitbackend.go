package main

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	git "github.com/gogs/git-module"
)

// EntryKind classifies a tree entry for rendering purposes.
type EntryKind int

const (
	KindFile EntryKind = iota
	KindExec
	KindSymlink
	KindSubmodule
)

// FileEntry is one (path, blob, kind) row of a commit's tree.
type FileEntry struct {
	Path   string
	BlobID string
	Kind   EntryKind
	Size   int64
}

// Commit is the structured record the pipeline consumes. It is populated
// by a single parse of the backend's output and never mutated afterwards.
type Commit struct {
	ID      string
	Parents []string
	Author  string
	When    time.Time
	Summary string
	Message string
}

func (c *Commit) ShortID() string {
	return getShortID(c.ID)
}

// DiffStat is one per-file row of a two-revision comparison summary.
type DiffStat struct {
	Path    string
	Added   int
	Deleted int
	Binary  bool
}

// Backend wraps the mirrored repository. Everything the pipeline knows
// about git goes through here.
type Backend struct {
	path string
	repo *git.Repository
}

// SyncMirror clones source as a bare mirror at mirrorPath on first run,
// or fetches (with prune) into the existing mirror.
func SyncMirror(source, mirrorPath string) (*Backend, error) {
	if _, err := git.Open(mirrorPath); err != nil {
		err := git.Clone(source, mirrorPath, git.CloneOptions{
			Mirror: true,
			Bare:   true,
			Quiet:  true,
		})
		if err != nil {
			return nil, fmt.Errorf("clone mirror: %w", err)
		}
	}

	repo, err := git.Open(mirrorPath)
	if err != nil {
		return nil, fmt.Errorf("open mirror: %w", err)
	}
	if err := repo.Fetch(git.FetchOptions{Prune: true}); err != nil {
		return nil, fmt.Errorf("fetch mirror: %w", err)
	}
	return &Backend{path: mirrorPath, repo: repo}, nil
}

// Branches lists the short names of all heads in the mirror.
func (b *Backend) Branches() ([]string, error) {
	refs, err := b.repo.ShowRef(git.ShowRefOptions{Heads: true})
	if err != nil {
		return nil, fmt.Errorf("show-ref: %w", err)
	}
	names := make([]string, 0, len(refs))
	for _, ref := range refs {
		names = append(names, git.RefShortName(ref.Refspec))
	}
	return names, nil
}

// Commits walks the branch in topological order, newest first, and
// converts each commit into the pipeline's structured record.
func (b *Backend) Commits(branch string, max int) ([]*Commit, error) {
	if max == 0 {
		max = 5000
	}
	raw, err := b.repo.Log(branch, git.LogOptions{
		MaxCount:       max,
		CommandOptions: git.CommandOptions{Args: []string{"--topo-order"}},
	})
	if err != nil {
		return nil, fmt.Errorf("log %s: %w", branch, err)
	}

	commits := make([]*Commit, 0, len(raw))
	for _, rc := range raw {
		parents := make([]string, 0, rc.ParentsCount())
		for i := 0; i < rc.ParentsCount(); i++ {
			pid, err := rc.ParentID(i)
			if err != nil {
				return nil, fmt.Errorf("parent of %s: %w", rc.ID, err)
			}
			parents = append(parents, pid.String())
		}
		commits = append(commits, &Commit{
			ID:      rc.ID.String(),
			Parents: parents,
			Author:  fmt.Sprintf("%s <%s>", rc.Author.Name, rc.Author.Email),
			When:    rc.Author.When,
			Summary: rc.Summary(),
			Message: strings.TrimSpace(rc.Message),
		})
	}
	return commits, nil
}

// FileEntries lists the full tree of a commit as flat slash-separated
// paths via `ls-tree -r -l -z`.
func (b *Backend) FileEntries(commitID string) ([]FileEntry, error) {
	out, err := git.NewCommand("ls-tree", "-r", "-l", "-z", commitID).RunInDir(b.path)
	if err != nil {
		return nil, fmt.Errorf("ls-tree %s: %w", commitID, err)
	}
	return parseLsTree(out)
}

// Blob returns the raw bytes of a blob.
func (b *Backend) Blob(blobID string) ([]byte, error) {
	out, err := git.NewCommand("cat-file", "blob", blobID).RunInDir(b.path)
	if err != nil {
		return nil, fmt.Errorf("cat-file %s: %w", blobID, err)
	}
	return out, nil
}

// Diff returns the raw unified diff text between a parent and a commit.
func (b *Backend) Diff(parentID, commitID string) (string, error) {
	out, err := git.NewCommand("diff", "--no-color", "--no-renames", parentID, commitID).RunInDir(b.path)
	if err != nil {
		return "", fmt.Errorf("diff %s..%s: %w", getShortID(parentID), getShortID(commitID), err)
	}
	return string(out), nil
}

// DiffStats returns the per-file numstat summary between a parent and a
// commit.
func (b *Backend) DiffStats(parentID, commitID string) ([]DiffStat, error) {
	out, err := git.NewCommand("diff", "--numstat", "--no-renames", parentID, commitID).RunInDir(b.path)
	if err != nil {
		return nil, fmt.Errorf("numstat %s..%s: %w", getShortID(parentID), getShortID(commitID), err)
	}
	return parseNumstat(out)
}

// parseLsTree parses NUL-separated `ls-tree -r -l -z` records of the
// form "<mode> <type> <id> <size>\t<path>".
func parseLsTree(out []byte) ([]FileEntry, error) {
	entries := []FileEntry{}
	for _, rec := range bytes.Split(out, []byte{0x00}) {
		if len(rec) == 0 {
			continue
		}
		tab := bytes.IndexByte(rec, '\t')
		if tab == -1 {
			return nil, fmt.Errorf("unexpected ls-tree record: %q", rec)
		}
		meta := strings.Fields(string(rec[:tab]))
		if len(meta) != 4 {
			return nil, fmt.Errorf("unexpected ls-tree meta: %q", rec[:tab])
		}
		mode, typ, id, sizeStr := meta[0], meta[1], meta[2], meta[3]

		kind := KindFile
		switch {
		case typ == "commit" || mode == "160000":
			kind = KindSubmodule
		case mode == "120000":
			kind = KindSymlink
		case mode == "100755":
			kind = KindExec
		}

		var size int64
		if sizeStr != "-" {
			n, err := strconv.ParseInt(sizeStr, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("unexpected ls-tree size %q: %w", sizeStr, err)
			}
			size = n
		}

		entries = append(entries, FileEntry{
			Path:   string(rec[tab+1:]),
			BlobID: id,
			Kind:   kind,
			Size:   size,
		})
	}
	return entries, nil
}

// parseNumstat parses `diff --numstat` lines of the form
// "<added>\t<deleted>\t<path>". Binary files report "-" counts.
func parseNumstat(out []byte) ([]DiffStat, error) {
	stats := []DiffStat{}
	for _, line := range strings.Split(string(out), "\n") {
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "\t", 3)
		if len(parts) != 3 {
			return nil, fmt.Errorf("unexpected numstat line: %q", line)
		}
		st := DiffStat{Path: unquoteGitPath(parts[2])}
		if parts[0] == "-" || parts[1] == "-" {
			st.Binary = true
		} else {
			added, err := strconv.Atoi(parts[0])
			if err != nil {
				return nil, fmt.Errorf("unexpected numstat count %q: %w", parts[0], err)
			}
			deleted, err := strconv.Atoi(parts[1])
			if err != nil {
				return nil, fmt.Errorf("unexpected numstat count %q: %w", parts[1], err)
			}
			st.Added, st.Deleted = added, deleted
		}
		stats = append(stats, st)
	}
	return stats, nil
}

// unquoteGitPath undoes git's C-style quoting of unusual path names.
func unquoteGitPath(p string) string {
	if len(p) < 2 || p[0] != '"' || p[len(p)-1] != '"' {
		return p
	}
	if unq, err := strconv.Unquote(p); err == nil {
		return unq
	}
	return p
}

func getShortID(id string) string {
	if len(id) <= 7 {
		return id
	}
	return id[:7]
}
