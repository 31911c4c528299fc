package main

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mergestat/timediff"
)

// historySource is the slice of the backend the branch walker needs.
type historySource interface {
	Commits(branch string, max int) ([]*Commit, error)
}

type commitBuilder interface {
	Render(c *Commit) (bool, error)
}

// LogRow is one row of a branch log page: a commit row, or a pure-graph
// row carrying only lane structure.
type LogRow struct {
	Graph      template.HTML
	Commit     *Commit
	ShortID    string
	URL        template.URL
	SummaryStr string
	AuthorStr  string
	WhenStr    string
	AgoStr     string
}

type BranchSummary struct {
	Name        string
	HeadShortID string
	URL         template.URL
	NumCommits  int
}

type LogPageData struct {
	*SitePage
	Branch string
	Rows   []*LogRow
}

// BranchWalker renders a branch: walks its commits newest first in
// topological order, delegates each commit to the renderer (skips still
// contribute a row), and always rebuilds the branch's log page, since
// new commits or reordering can change which rows appear and where.
type BranchWalker struct {
	site     *Site
	history  historySource
	renderer commitBuilder
}

func (w *BranchWalker) Walk(name string) (*BranchSummary, error) {
	w.site.logger.Infof("compiling (%s) branch (%s)", w.site.cfg.Project, name)

	commits, err := w.history.Commits(name, w.site.cfg.MaxCommits)
	if err != nil {
		return nil, err
	}
	if len(commits) == 0 {
		return nil, fmt.Errorf("branch has no commits")
	}

	// the newest commit is the branch head
	if err := w.writeHeadRecord(name, commits[0].ID); err != nil {
		return nil, err
	}

	rows := []*LogRow{}
	for _, gr := range buildGraph(commits) {
		if gr.Commit != nil {
			if _, err := w.renderer.Render(gr.Commit); err != nil {
				return nil, err
			}
		}
		rows = append(rows, makeLogRow(gr, commits[0].When))
	}

	err = w.site.writeHtml(&WriteData{
		Template: "html/log.page.tmpl",
		Subdir:   "branches",
		Filename: name + ".html",
		Data: &LogPageData{
			SitePage: w.site.page(),
			Branch:   name,
			Rows:     rows,
		},
	})
	if err != nil {
		return nil, err
	}

	return &BranchSummary{
		Name:        name,
		HeadShortID: commits[0].ShortID(),
		URL:         getBranchURL(name),
		NumCommits:  len(commits),
	}, nil
}

// writeHeadRecord keeps branches/<name> pointing at the branch's current
// head commit id: a plain-text indirection record resolved by lookup
// rather than a filesystem symlink.
func (w *BranchWalker) writeHeadRecord(name, headID string) error {
	fp := filepath.Join(w.site.cfg.branchesDir(), name)
	if err := os.MkdirAll(filepath.Dir(fp), os.ModePerm); err != nil {
		return err
	}
	return os.WriteFile(fp, []byte(headID+"\n"), 0644)
}

// makeLogRow formats one log row. Relative dates are computed against
// the branch head rather than the wall clock, so an unchanged branch
// always renders to the same bytes.
func makeLogRow(gr *GraphRow, head time.Time) *LogRow {
	row := &LogRow{Graph: graphCellsHTML(gr.Cells)}
	if c := gr.Commit; c != nil {
		row.Commit = c
		row.ShortID = c.ShortID()
		row.URL = getCommitURL(c.ID)
		row.SummaryStr = c.Summary
		row.AuthorStr = c.Author
		row.WhenStr = c.When.Format("02 Jan 06")
		row.AgoStr = timediff.TimeDiff(c.When, timediff.WithStartTime(head))
	}
	return row
}

func graphCellsHTML(cells []CellKind) template.HTML {
	var b strings.Builder
	for _, cell := range cells {
		class, glyph := "e", " "
		switch cell {
		case CellLine:
			class, glyph = "l", "│"
		case CellNode:
			class, glyph = "n", "●"
		case CellBranch:
			class, glyph = "b", "╮"
		case CellMerge:
			class, glyph = "m", "╯"
		case CellJoin:
			class, glyph = "j", "╯"
		}
		fmt.Fprintf(&b, "<span class=\"g %s\">%s</span>", class, glyph)
	}
	return template.HTML(b.String())
}
