package main

import "testing"

func linearCommits(ids ...string) []*Commit {
	commits := make([]*Commit, len(ids))
	for i, id := range ids {
		c := &Commit{ID: id}
		if i < len(ids)-1 {
			c.Parents = []string{ids[i+1]}
		}
		commits[i] = c
	}
	return commits
}

func TestBuildGraphLinear(t *testing.T) {
	rows := buildGraph(linearCommits("c3", "c2", "c1"))

	if len(rows) != 3 {
		t.Fatalf("expected 3 rows for linear history, got %d", len(rows))
	}
	for i, row := range rows {
		if row.Commit == nil {
			t.Fatalf("row %d: linear history must have no graph-only rows", i)
		}
		if len(row.Cells) != 1 || row.Cells[0] != CellNode {
			t.Errorf("row %d: expected a single node cell, got %v", i, row.Cells)
		}
	}
}

func TestBuildGraphMergeAndJoin(t *testing.T) {
	// M merges B into A; both descend from root R.
	commits := []*Commit{
		{ID: "M", Parents: []string{"A", "B"}},
		{ID: "A", Parents: []string{"R"}},
		{ID: "B", Parents: []string{"R"}},
		{ID: "R"},
	}
	rows := buildGraph(commits)

	if len(rows) != 5 {
		t.Fatalf("expected 5 rows (4 commits + 1 join), got %d", len(rows))
	}

	m := rows[0]
	if m.Commit == nil || m.Commit.ID != "M" {
		t.Fatal("first row must be the merge commit")
	}
	if len(m.Cells) != 2 || m.Cells[0] != CellNode || m.Cells[1] != CellBranch {
		t.Errorf("merge row should open a second lane: %v", m.Cells)
	}

	b := rows[2]
	if b.Commit == nil || b.Commit.ID != "B" {
		t.Fatalf("third row should be commit B, got %+v", b.Commit)
	}
	if b.Cells[0] != CellLine || b.Cells[1] != CellNode {
		t.Errorf("commit B should sit on the second lane: %v", b.Cells)
	}

	join := rows[3]
	if join.Commit != nil {
		t.Fatal("fourth row must be a pure-graph join row")
	}
	if join.Cells[0] != CellLine || join.Cells[1] != CellJoin {
		t.Errorf("join row cells: %v", join.Cells)
	}

	r := rows[4]
	if r.Commit == nil || r.Commit.ID != "R" {
		t.Fatal("last row must be the root commit")
	}
	if len(r.Cells) != 1 || r.Cells[0] != CellNode {
		t.Errorf("root row should collapse back to one lane: %v", r.Cells)
	}
}

func TestBuildGraphMergeIntoExistingLane(t *testing.T) {
	// Octopus-free: two tips, the second merges a commit already on the
	// first lane's ancestry.
	commits := []*Commit{
		{ID: "M", Parents: []string{"A", "B"}},
		{ID: "B", Parents: []string{"A"}},
		{ID: "A"},
	}
	rows := buildGraph(commits)

	// M opens lane for B, B collapses back into A's lane via a join.
	var joins int
	for _, row := range rows {
		if row.Commit == nil {
			joins++
		}
	}
	if joins != 1 {
		t.Errorf("expected exactly 1 join row, got %d", joins)
	}
	last := rows[len(rows)-1]
	if last.Commit == nil || last.Commit.ID != "A" {
		t.Errorf("walk should end at A")
	}
}

func TestBuildGraphEmpty(t *testing.T) {
	if rows := buildGraph(nil); len(rows) != 0 {
		t.Errorf("expected no rows for empty walk, got %d", len(rows))
	}
}
