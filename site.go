package main

import (
	"embed"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"
)

//go:embed static/main.css
var mainCss []byte

//go:embed static/syntax.css
var syntaxCss []byte

//go:embed html/*.tmpl
var efs embed.FS

// SitePage is the chrome every page shares.
type SitePage struct {
	Project  string
	CloneURL template.URL
	IndexURL template.URL
}

type IndexPageData struct {
	*SitePage
	Desc     string
	Branches []*BranchSummary
}

type WriteData struct {
	Template string
	Filename string
	Subdir   string
	Data     interface{}
}

// runState drives the orchestrator. A run is strictly
// SYNC -> ENUMERATE -> WALK -> INDEX -> DONE, terminating on the first
// hard failure in any state.
type runState int

const (
	stateSync runState = iota
	stateEnumerate
	stateWalk
	stateIndex
	stateDone
)

// Site is the top-level driver owning the mirror, the object cache, and
// the page writers.
type Site struct {
	cfg     *RunConfig
	logger  *zap.SugaredLogger
	cache   *ObjectCache
	backend *Backend
}

func NewSite(cfg *RunConfig, logger *zap.SugaredLogger) *Site {
	return &Site{
		cfg:    cfg,
		logger: logger,
		cache:  NewObjectCache(cfg.objectsDir()),
	}
}

func (s *Site) Run() error {
	var branches []string
	var summaries []*BranchSummary

	for state := stateSync; state != stateDone; {
		var err error
		switch state {
		case stateSync:
			err = s.sync()
			state = stateEnumerate
		case stateEnumerate:
			branches, err = s.enumerate()
			state = stateWalk
		case stateWalk:
			summaries, err = s.walk(branches)
			state = stateIndex
		case stateIndex:
			err = s.index(summaries)
			state = stateDone
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Site) sync() error {
	if s.cfg.Rebuild {
		s.logger.Infof("(%s) generator changed or rebuild forced, invalidating generated pages", s.cfg.Project)
		if err := s.clearGenerated(); err != nil {
			return err
		}
	}
	if err := s.sweepStages(); err != nil {
		return err
	}

	s.logger.Infof("syncing mirror of (%s)", s.cfg.Repository)
	backend, err := SyncMirror(s.cfg.Repository, s.cfg.mirrorDir())
	if err != nil {
		return err
	}
	s.backend = backend
	return nil
}

func (s *Site) enumerate() ([]string, error) {
	branches := s.cfg.Branches
	if len(branches) == 0 {
		discovered, err := s.backend.Branches()
		if err != nil {
			return nil, err
		}
		branches = discovered
	}
	if len(branches) == 0 {
		return nil, fmt.Errorf("repository has no branches to process")
	}
	sort.Strings(branches)
	return branches, nil
}

func (s *Site) walk(branches []string) ([]*BranchSummary, error) {
	renderer := &CommitRenderer{site: s, src: s.backend}
	walker := &BranchWalker{site: s, history: s.backend, renderer: renderer}

	summaries := []*BranchSummary{}
	for _, name := range branches {
		summary, err := walker.Walk(name)
		if err != nil {
			return nil, fmt.Errorf("branch %s: %w", name, err)
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func (s *Site) index(summaries []*BranchSummary) error {
	err := s.writeHtml(&WriteData{
		Filename: "index.html",
		Template: "html/index.page.tmpl",
		Data: &IndexPageData{
			SitePage: s.page(),
			Desc:     s.cfg.Desc,
			Branches: summaries,
		},
	})
	if err != nil {
		return err
	}

	if err := s.copyStatic(filepath.Join(s.cfg.Outdir, "main.css"), mainCss); err != nil {
		return err
	}
	return s.copyStatic(filepath.Join(s.cfg.Outdir, "syntax.css"), syntaxCss)
}

func (s *Site) page() *SitePage {
	return &SitePage{
		Project:  s.cfg.Project,
		CloneURL: template.URL(s.cfg.CloneURL),
		IndexURL: "/index.html",
	}
}

// clearGenerated removes everything derived from the templates: commit
// directories, the object cache, and branch pages. The mirror and the
// configuration survive.
func (s *Site) clearGenerated() error {
	for _, dir := range []string{s.cfg.commitsDir(), s.cfg.objectsDir(), s.cfg.branchesDir()} {
		if err := os.RemoveAll(dir); err != nil {
			return err
		}
	}
	return nil
}

// sweepStages removes leftover stage directories from a previous run
// that failed mid-commit. Only fully published commit directories count
// as built.
func (s *Site) sweepStages() error {
	matches, err := filepath.Glob(filepath.Join(s.cfg.commitsDir(), stagePrefix+"*"))
	if err != nil {
		return err
	}
	for _, m := range matches {
		s.logger.Infof("removing stale stage (%s)", m)
		if err := os.RemoveAll(m); err != nil {
			return err
		}
	}
	return nil
}

func (s *Site) writeHtml(writeData *WriteData) error {
	ts, err := template.ParseFS(
		efs,
		writeData.Template,
		"html/header.partial.tmpl",
		"html/footer.partial.tmpl",
		"html/base.layout.tmpl",
	)
	if err != nil {
		return err
	}

	fp := filepath.Join(s.cfg.Outdir, writeData.Subdir, writeData.Filename)
	if err := os.MkdirAll(filepath.Dir(fp), os.ModePerm); err != nil {
		return err
	}
	s.logger.Infof("writing (%s)", fp)

	w, err := os.OpenFile(fp, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer w.Close()

	return ts.Execute(w, writeData.Data)
}

func (s *Site) copyStatic(dst string, data []byte) error {
	s.logger.Infof("writing (%s)", dst)
	return os.WriteFile(dst, data, 0644)
}

// Root-relative URLs for the fixed output layout.

func getCommitURL(commitID string) template.URL {
	return template.URL(fmt.Sprintf("/commits/%s/index.html", commitID))
}

func getDiffURL(commitID, parentID string) template.URL {
	return template.URL(fmt.Sprintf("/commits/%s/diff-to-%s.html", commitID, parentID))
}

func rawFileURL(commitID, path string) template.URL {
	return template.URL(filepath.Join("/", "commits", commitID, path+".raw.html"))
}

func rawBytesURL(commitID, path string) template.URL {
	return template.URL(filepath.Join("/", "commits", commitID, path))
}

func getBranchURL(name string) template.URL {
	return template.URL(filepath.Join("/", "branches", name+".html"))
}
