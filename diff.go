package main

import (
	"fmt"
	"html/template"
	"strings"
)

// DiffPage is the rendered form of one (commit, parent) comparison.
type DiffPage struct {
	Body         template.HTML
	Stats        []*DiffStatRow
	NumFiles     int
	TotalAdded   int
	TotalDeleted int
}

// DiffStatRow is one file's line in the stats table, linked to the
// file's anchor in the diff body and to its rendered content before and
// after the change.
type DiffStatRow struct {
	Path      string
	Added     int
	Deleted   int
	Binary    bool
	AnchorURL template.URL
	BeforeURL template.URL // empty for added files
	AfterURL  template.URL // empty for deleted files
}

type diffFileInfo struct {
	anchor  string
	added   bool // no content before the change
	deleted bool // no content after the change
}

// renderDiff turns the raw unified diff between parentID and commitID,
// plus its numstat summary, into an escaped, colorized, line-numbered
// body with a stable anchor at every file header, and the linked stats
// table. Lines are classified by prefix: added, removed, hunk header,
// file header, otherwise context. Numbering starts at 1 per page.
func renderDiff(raw string, stats []DiffStat, commitID, parentID string) *DiffPage {
	var b strings.Builder
	files := map[string]*diffFileInfo{}

	lines := strings.Split(raw, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}

	b.WriteString("<pre class=\"diff\">\n")
	var cur *diffFileInfo
	// meta lines only appear between a file header and its first hunk;
	// inside a hunk a leading `---` is content (a removed line)
	inHunk := false
	for i, line := range lines {
		num := i + 1
		class := "ctx"
		switch {
		case strings.HasPrefix(line, "diff --git "):
			class = "hdr"
			inHunk = false
			path := diffHeaderPath(line)
			cur = &diffFileInfo{anchor: fileAnchor(path)}
			files[path] = cur
			fmt.Fprintf(&b, "<a id=\"%s\"></a>", cur.anchor)
		case strings.HasPrefix(line, "@@"):
			class = "hunk"
			inHunk = true
		case !inHunk && isDiffMetaLine(line):
			class = "hdr"
			if cur != nil {
				if strings.HasPrefix(line, "--- /dev/null") {
					cur.added = true
				}
				if strings.HasPrefix(line, "+++ /dev/null") {
					cur.deleted = true
				}
			}
		case strings.HasPrefix(line, "+"):
			class = "add"
		case strings.HasPrefix(line, "-"):
			class = "del"
		}
		fmt.Fprintf(
			&b,
			"<span id=\"n%d\" class=\"l %s\"><a class=\"ln\" href=\"#n%d\">%d</a>%s</span>\n",
			num, class, num, num, escape(line),
		)
	}
	b.WriteString("</pre>\n")

	page := &DiffPage{
		Body:     template.HTML(b.String()),
		NumFiles: len(stats),
	}
	for _, st := range stats {
		row := &DiffStatRow{
			Path:    st.Path,
			Added:   st.Added,
			Deleted: st.Deleted,
			Binary:  st.Binary,
		}
		info := files[st.Path]
		if info != nil {
			row.AnchorURL = template.URL("#" + info.anchor)
		}
		if info == nil || !info.added {
			row.BeforeURL = rawFileURL(parentID, st.Path)
		}
		if info == nil || !info.deleted {
			row.AfterURL = rawFileURL(commitID, st.Path)
		}
		page.TotalAdded += st.Added
		page.TotalDeleted += st.Deleted
		page.Stats = append(page.Stats, row)
	}
	return page
}

// diffHeaderPath extracts the post-image path from a
// `diff --git a/old b/new` header line. Unusual paths are C-quoted by
// git (`diff --git "a/f\303\263o" "b/f\303\263o"`), so the quoted form
// is checked first.
func diffHeaderPath(line string) string {
	if idx := strings.Index(line, ` "b/`); idx != -1 {
		return strings.TrimPrefix(unquoteGitPath(line[idx+1:]), "b/")
	}
	if idx := strings.Index(line, " b/"); idx != -1 {
		return unquoteGitPath(line[idx+3:])
	}
	return ""
}

var diffMetaPrefixes = []string{
	"index ",
	"--- ",
	"+++ ",
	"old mode",
	"new mode",
	"deleted file",
	"new file",
	"similarity ",
	"dissimilarity ",
	"rename ",
	"copy ",
	"Binary files",
	"GIT binary patch",
}

func isDiffMetaLine(line string) bool {
	for _, p := range diffMetaPrefixes {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	return false
}

// fileAnchor derives a stable fragment id from a path.
func fileAnchor(path string) string {
	var b strings.Builder
	b.WriteString("f-")
	for _, r := range path {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	return b.String()
}
