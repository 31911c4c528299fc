package main

import (
	"fmt"
	"html/template"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
)

// fileLinker resolves a file entry to its rendered page URL and its raw
// bytes URL, both relative to wherever the listing is embedded.
type fileLinker func(e FileEntry) (rendered, raw template.URL)

// buildTreeListing turns a commit's flat file list into nested listing
// markup. Within a directory files are listed before sub-directories
// (lexical tie-break otherwise) and every directory is opened and closed
// exactly once: the entries are sorted so that a directory's files
// precede its subdirectories, then a single scan maintains a stack of
// open directory groups. An empty file list produces an empty listing.
func buildTreeListing(entries []FileEntry, link fileLinker) template.HTML {
	if len(entries) == 0 {
		return ""
	}

	sorted := make([]FileEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		return treePathLess(
			strings.Split(sorted[i].Path, "/"),
			strings.Split(sorted[j].Path, "/"),
		)
	})

	var b strings.Builder
	b.WriteString("<ul class=\"tree\">\n")

	stack := []string{}
	for _, e := range sorted {
		comps := strings.Split(e.Path, "/")
		dir := comps[:len(comps)-1]
		name := comps[len(comps)-1]

		common := 0
		for common < len(stack) && common < len(dir) && stack[common] == dir[common] {
			common++
		}
		for len(stack) > common {
			b.WriteString("</ul>\n</li>\n")
			stack = stack[:len(stack)-1]
		}
		for _, d := range dir[common:] {
			fmt.Fprintf(&b, "<li class=\"entry dir\"><span class=\"dirname\">%s/</span>\n<ul>\n", escape(d))
			stack = append(stack, d)
		}

		writeTreeLeaf(&b, e, name, link)
	}
	for range stack {
		b.WriteString("</ul>\n</li>\n")
	}
	b.WriteString("</ul>\n")

	return template.HTML(b.String())
}

func writeTreeLeaf(b *strings.Builder, e FileEntry, name string, link fileLinker) {
	if e.Kind == KindSubmodule {
		fmt.Fprintf(
			b,
			"<li class=\"entry submodule\">%s @ %s</li>\n",
			escape(name),
			escape(getShortID(e.BlobID)),
		)
		return
	}

	class := "file"
	switch e.Kind {
	case KindExec:
		class = "file exec"
	case KindSymlink:
		class = "file symlink"
	}

	rendered, raw := link(e)
	fmt.Fprintf(
		b,
		"<li class=\"entry %s\"><a href=\"%s\">%s</a> <a class=\"raw\" href=\"%s\">raw</a> <span class=\"size\">%s</span></li>\n",
		class,
		template.HTMLEscapeString(string(rendered)),
		escape(name),
		template.HTMLEscapeString(string(raw)),
		humanize.Bytes(uint64(e.Size)),
	)
}

// treePathLess orders path component lists so that, at each level, leaf
// entries sort before entries that descend further (directories), with a
// lexical tie-break.
func treePathLess(a, b []string) bool {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		aDir := i < len(a)-1
		bDir := i < len(b)-1
		if a[i] == b[i] {
			if aDir == bDir {
				continue
			}
			return !aDir
		}
		if aDir != bDir {
			return !aDir
		}
		return a[i] < b[i]
	}
	return len(a) < len(b)
}
