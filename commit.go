package main

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"
)

const stagePrefix = ".stage-"

// repoSource is the slice of the backend the commit renderer needs.
type repoSource interface {
	FileEntries(commitID string) ([]FileEntry, error)
	Blob(blobID string) ([]byte, error)
	Diff(parentID, commitID string) (string, error)
	DiffStats(parentID, commitID string) ([]DiffStat, error)
}

type ParentLink struct {
	ShortID string
	URL     template.URL
	DiffURL template.URL
}

type CommitPageData struct {
	*SitePage
	Commit   *Commit
	ShortID  string
	WhenStr  string
	Tree     template.HTML
	Parents  []*ParentLink
	NumFiles int
}

type DiffPageData struct {
	*SitePage
	Commit        *Commit
	ShortID       string
	ParentShortID string
	CommitURL     template.URL
	Diff          *DiffPage
}

// CommitRenderer materializes one directory per commit. A commit's
// directory is immutable once published, so its existence is the
// completeness signal for incremental skips; everything is staged in a
// private directory and published with a single rename so a failed build
// never leaves a directory that would be mistaken for a finished commit.
type CommitRenderer struct {
	site *Site
	src  repoSource
}

// Render builds the commit's output directory. It reports built=false
// when the directory already exists (already built on a previous run or
// via another branch).
func (r *CommitRenderer) Render(c *Commit) (built bool, err error) {
	cfg := r.site.cfg
	finalDir := filepath.Join(cfg.commitsDir(), c.ID)
	if _, err := os.Stat(finalDir); err == nil {
		r.site.logger.Infof("(%s) already built, skipping", c.ShortID())
		return false, nil
	}

	stageName := stagePrefix + c.ID
	stageDir := filepath.Join(cfg.commitsDir(), stageName)
	if err := os.RemoveAll(stageDir); err != nil {
		return false, err
	}
	if err := os.MkdirAll(stageDir, os.ModePerm); err != nil {
		return false, err
	}
	defer func() {
		if !built {
			os.RemoveAll(stageDir)
		}
	}()

	r.site.logger.Infof("(%s) building commit", c.ShortID())

	entries, err := r.src.FileEntries(c.ID)
	if err != nil {
		return false, err
	}
	if err := r.writeFiles(c, stageDir, entries); err != nil {
		return false, err
	}
	if err := r.writeDiffs(c, stageName); err != nil {
		return false, err
	}
	if err := r.writeSummary(c, stageName, entries); err != nil {
		return false, err
	}

	if err := os.Rename(stageDir, finalDir); err != nil {
		return false, fmt.Errorf("publish commit %s: %w", c.ShortID(), err)
	}
	return true, nil
}

// writeFiles populates the raw bytes and the cached rendered page for
// every file entry. Submodule entries point at another repository's
// commit, have no blob, and are excluded from content rendering.
func (r *CommitRenderer) writeFiles(c *Commit, stageDir string, entries []FileEntry) error {
	for _, e := range entries {
		if e.Kind == KindSubmodule {
			continue
		}

		content, err := r.src.Blob(e.BlobID)
		if err != nil {
			return err
		}

		_, err = r.site.cache.GetOrRender(e.BlobID, func() ([]byte, error) {
			return renderBlobPage(content)
		})
		if err != nil {
			return err
		}
		if err := r.site.cache.Link(e.BlobID, filepath.Join(stageDir, e.Path+".raw.html")); err != nil {
			return err
		}

		raw := filepath.Join(stageDir, e.Path)
		if err := os.MkdirAll(filepath.Dir(raw), os.ModePerm); err != nil {
			return err
		}
		if err := os.WriteFile(raw, content, 0644); err != nil {
			return err
		}
	}
	return nil
}

// writeDiffs renders one diff page per parent, each independently
// anchored and line-numbered from 1.
func (r *CommitRenderer) writeDiffs(c *Commit, stageName string) error {
	for _, pid := range c.Parents {
		rawDiff, err := r.src.Diff(pid, c.ID)
		if err != nil {
			return err
		}
		stats, err := r.src.DiffStats(pid, c.ID)
		if err != nil {
			return err
		}

		err = r.site.writeHtml(&WriteData{
			Template: "html/diff.page.tmpl",
			Subdir:   filepath.Join("commits", stageName),
			Filename: fmt.Sprintf("diff-to-%s.html", pid),
			Data: &DiffPageData{
				SitePage:      r.site.page(),
				Commit:        c,
				ShortID:       c.ShortID(),
				ParentShortID: getShortID(pid),
				CommitURL:     getCommitURL(c.ID),
				Diff:          renderDiff(rawDiff, stats, c.ID, pid),
			},
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *CommitRenderer) writeSummary(c *Commit, stageName string, entries []FileEntry) error {
	tree := buildTreeListing(entries, func(e FileEntry) (template.URL, template.URL) {
		return rawFileURL(c.ID, e.Path), rawBytesURL(c.ID, e.Path)
	})

	parents := make([]*ParentLink, 0, len(c.Parents))
	for _, pid := range c.Parents {
		parents = append(parents, &ParentLink{
			ShortID: getShortID(pid),
			URL:     getCommitURL(pid),
			DiffURL: getDiffURL(c.ID, pid),
		})
	}

	return r.site.writeHtml(&WriteData{
		Template: "html/commit.page.tmpl",
		Subdir:   filepath.Join("commits", stageName),
		Filename: "index.html",
		Data: &CommitPageData{
			SitePage: r.site.page(),
			Commit:   c,
			ShortID:  c.ShortID(),
			WhenStr:  c.When.Format("02 Jan 06 15:04"),
			Tree:     tree,
			Parents:  parents,
			NumFiles: len(entries),
		},
	})
}
