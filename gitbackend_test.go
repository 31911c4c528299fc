package main

import "testing"

func TestParseLsTree(t *testing.T) {
	out := []byte(
		"100644 blob 83baae61804e65cc73a7201a7252750c76066a30      21\tREADME.md\x00" +
			"100755 blob 5716ca5987cbf97d6bb54920bea6adde242d87e6      10\tbin/run.sh\x00" +
			"120000 blob 3bf4a3e6f7c72bd817ec4c91c85e077d5e0a5eae       9\tlink\x00" +
			"160000 commit deadbeefdeadbeefdeadbeefdeadbeefdeadbeef       -\tvendor/dep\x00",
	)
	entries, err := parseLsTree(out)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(entries))
	}

	tests := []struct {
		path string
		kind EntryKind
		size int64
	}{
		{"README.md", KindFile, 21},
		{"bin/run.sh", KindExec, 10},
		{"link", KindSymlink, 9},
		{"vendor/dep", KindSubmodule, 0},
	}
	for i, tc := range tests {
		e := entries[i]
		if e.Path != tc.path || e.Kind != tc.kind || e.Size != tc.size {
			t.Errorf("entry %d = %+v, want %+v", i, e, tc)
		}
	}
	if entries[0].BlobID != "83baae61804e65cc73a7201a7252750c76066a30" {
		t.Errorf("unexpected blob id %q", entries[0].BlobID)
	}
}

func TestParseLsTreeMalformed(t *testing.T) {
	if _, err := parseLsTree([]byte("not a record\x00")); err == nil {
		t.Error("expected error for malformed record")
	}
}

func TestParseLsTreeEmpty(t *testing.T) {
	entries, err := parseLsTree(nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no entries, got %d", len(entries))
	}
}

func TestParseNumstat(t *testing.T) {
	out := []byte("3\t1\tfile.txt\n-\t-\timg.png\n0\t4\tdir/other.go\n")
	stats, err := parseNumstat(out)
	if err != nil {
		t.Fatal(err)
	}
	if len(stats) != 3 {
		t.Fatalf("expected 3 stats, got %d", len(stats))
	}

	if stats[0].Path != "file.txt" || stats[0].Added != 3 || stats[0].Deleted != 1 || stats[0].Binary {
		t.Errorf("unexpected stat %+v", stats[0])
	}
	if !stats[1].Binary || stats[1].Path != "img.png" {
		t.Errorf("binary stat not recognized: %+v", stats[1])
	}
	if stats[2].Added != 0 || stats[2].Deleted != 4 {
		t.Errorf("unexpected stat %+v", stats[2])
	}
}

func TestParseNumstatMalformed(t *testing.T) {
	if _, err := parseNumstat([]byte("nonsense\n")); err == nil {
		t.Error("expected error for malformed numstat line")
	}
}

func TestUnquoteGitPath(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain.txt", "plain.txt"},
		{`"sp ace.txt"`, "sp ace.txt"},
		{`"tab\there"`, "tab\there"},
	}
	for _, tc := range tests {
		if got := unquoteGitPath(tc.in); got != tc.want {
			t.Errorf("unquoteGitPath(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestGetShortID(t *testing.T) {
	if got := getShortID("0123456789abcdef"); got != "0123456" {
		t.Errorf("getShortID = %q", got)
	}
	if got := getShortID("abc"); got != "abc" {
		t.Errorf("short input must pass through, got %q", got)
	}
}
