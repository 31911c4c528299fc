package main

// CellKind is the visual classification of one lane cell in a log-graph
// row.
type CellKind int

const (
	CellEmpty CellKind = iota
	CellLine           // lane passing through
	CellNode           // the row's commit
	CellBranch         // a new lane opening (extra parent of a merge)
	CellMerge          // merge edge into an existing lane
	CellJoin           // two lanes converging on the same commit
)

// GraphRow is one row of the branch log. Commit is nil for pure-graph
// rows that only carry line structure (lane joins).
type GraphRow struct {
	Cells  []CellKind
	Commit *Commit
}

// buildGraph assigns lanes to a topologically ordered (newest first)
// commit walk and produces one row per commit plus one row per lane
// join. Each lane tracks the commit id it expects next.
func buildGraph(commits []*Commit) []*GraphRow {
	rows := []*GraphRow{}
	lanes := []string{}

	for _, c := range commits {
		col := laneIndex(lanes, c.ID)
		if col == -1 {
			lanes = append(lanes, c.ID)
			col = len(lanes) - 1
		}

		cells := make([]CellKind, len(lanes))
		for i, expect := range lanes {
			switch {
			case i == col:
				cells[i] = CellNode
			case expect != "":
				cells[i] = CellLine
			}
		}

		if len(c.Parents) == 0 {
			lanes[col] = ""
		} else {
			lanes[col] = c.Parents[0]
			for _, p := range c.Parents[1:] {
				if existing := laneIndex(lanes, p); existing != -1 && existing != col {
					cells[existing] = CellMerge
					continue
				}
				lanes = append(lanes, p)
				cells = append(cells, CellBranch)
			}
		}
		rows = append(rows, &GraphRow{Cells: cells, Commit: c})

		rows = collapseLanes(rows, &lanes)
		lanes = trimLanes(lanes)
	}
	return rows
}

// collapseLanes emits a graph-only row for every pair of lanes that now
// expect the same commit and removes the right-hand duplicate.
func collapseLanes(rows []*GraphRow, lanes *[]string) []*GraphRow {
	for {
		i, j := findDuplicateLanes(*lanes)
		if j == -1 {
			return rows
		}
		cells := make([]CellKind, len(*lanes))
		for k, expect := range *lanes {
			switch {
			case k == j:
				cells[k] = CellJoin
			case expect != "":
				cells[k] = CellLine
			}
		}
		cells[i] = CellLine
		rows = append(rows, &GraphRow{Cells: cells})
		*lanes = append((*lanes)[:j], (*lanes)[j+1:]...)
	}
}

func findDuplicateLanes(lanes []string) (int, int) {
	for i := 0; i < len(lanes); i++ {
		if lanes[i] == "" {
			continue
		}
		for j := i + 1; j < len(lanes); j++ {
			if lanes[j] == lanes[i] {
				return i, j
			}
		}
	}
	return -1, -1
}

func laneIndex(lanes []string, id string) int {
	for i, expect := range lanes {
		if expect == id {
			return i
		}
	}
	return -1
}

func trimLanes(lanes []string) []string {
	for len(lanes) > 0 && lanes[len(lanes)-1] == "" {
		lanes = lanes[:len(lanes)-1]
	}
	return lanes
}
