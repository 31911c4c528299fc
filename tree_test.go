package main

import (
	"html/template"
	"strings"
	"testing"
)

func testLinker(e FileEntry) (template.URL, template.URL) {
	return template.URL("/r/" + e.Path), template.URL("/b/" + e.Path)
}

func TestBuildTreeListingEmpty(t *testing.T) {
	if got := buildTreeListing(nil, testLinker); got != "" {
		t.Fatalf("expected empty listing, got %q", got)
	}
}

func TestBuildTreeListingHierarchy(t *testing.T) {
	entries := []FileEntry{
		{Path: "a/d/e.txt", BlobID: "e1", Size: 1},
		{Path: "f.txt", BlobID: "f1", Size: 2},
		{Path: "a/c.txt", BlobID: "c1", Size: 3},
		{Path: "a/b.txt", BlobID: "b1", Size: 4},
	}
	out := string(buildTreeListing(entries, testLinker))

	// top-level file before the a/ directory
	fIdx := strings.Index(out, ">f.txt</a>")
	aIdx := strings.Index(out, ">a/</span>")
	if fIdx == -1 || aIdx == -1 {
		t.Fatalf("missing expected entries in listing:\n%s", out)
	}
	if fIdx > aIdx {
		t.Errorf("top-level file should precede directory a/:\n%s", out)
	}

	// within a/, files b.txt and c.txt before subdirectory d/
	bIdx := strings.Index(out, ">b.txt</a>")
	cIdx := strings.Index(out, ">c.txt</a>")
	dIdx := strings.Index(out, ">d/</span>")
	eIdx := strings.Index(out, ">e.txt</a>")
	if bIdx == -1 || cIdx == -1 || dIdx == -1 || eIdx == -1 {
		t.Fatalf("missing nested entries in listing:\n%s", out)
	}
	if !(bIdx < cIdx && cIdx < dIdx && dIdx < eIdx) {
		t.Errorf("expected order b.txt < c.txt < d/ < e.txt:\n%s", out)
	}

	// exactly one open/close pair per directory: root + a + d
	if got := strings.Count(out, "<ul"); got != 3 {
		t.Errorf("expected 3 <ul> groups, got %d:\n%s", got, out)
	}
	if got := strings.Count(out, "</ul>"); got != 3 {
		t.Errorf("expected 3 </ul> closers, got %d:\n%s", got, out)
	}
	if got := strings.Count(out, ">a/</span>"); got != 1 {
		t.Errorf("directory a/ should appear exactly once, got %d", got)
	}
}

func TestBuildTreeListingSubmodule(t *testing.T) {
	entries := []FileEntry{
		{Path: "vendor/dep", BlobID: "0123456789abcdef0123456789abcdef01234567", Kind: KindSubmodule},
		{Path: "main.go", BlobID: "m1", Size: 10},
	}
	out := string(buildTreeListing(entries, testLinker))

	if !strings.Contains(out, "dep @ 0123456") {
		t.Errorf("submodule entry should be labeled with its short id:\n%s", out)
	}
	if strings.Contains(out, "/r/vendor/dep") {
		t.Errorf("submodule entry must not link to rendered content:\n%s", out)
	}
}

func TestBuildTreeListingEscapes(t *testing.T) {
	entries := []FileEntry{
		{Path: "<script>.txt", BlobID: "x1", Size: 1},
	}
	out := string(buildTreeListing(entries, testLinker))
	if strings.Contains(out, "<script>.txt") {
		t.Errorf("file name must be escaped:\n%s", out)
	}
	if !strings.Contains(out, "&lt;script&gt;.txt") {
		t.Errorf("expected escaped file name:\n%s", out)
	}
	if !strings.Contains(out, `href="/r/&lt;script&gt;.txt"`) {
		t.Errorf("expected escaped href value:\n%s", out)
	}
}

func TestBuildTreeListingEscapesAttributeQuotes(t *testing.T) {
	entries := []FileEntry{
		{Path: `a".txt`, BlobID: "q1", Size: 1},
	}
	out := string(buildTreeListing(entries, testLinker))

	// a quote in the path must not terminate the href attribute
	if strings.Contains(out, `href="/r/a".txt"`) {
		t.Errorf("quote in path breaks out of the href attribute:\n%s", out)
	}
	if !strings.Contains(out, "/r/a&#34;.txt") {
		t.Errorf("expected escaped quote in href value:\n%s", out)
	}
}

func TestTreePathLess(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"f.txt", "a/b.txt", true},    // file before directory
		{"a/b.txt", "f.txt", false},   // symmetric
		{"a/b.txt", "a/d/e.txt", true} /* file before subdirectory */,
		{"a/b.txt", "a/c.txt", true}, // lexical among files
		{"a/c.txt", "a/b.txt", false},
		{"a/x.txt", "b/x.txt", true}, // lexical among directories
	}
	for _, tc := range tests {
		got := treePathLess(strings.Split(tc.a, "/"), strings.Split(tc.b, "/"))
		if got != tc.want {
			t.Errorf("treePathLess(%q, %q) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}
