package menu

import (
	"fmt"
	"strings"

	"cardapio/internal/util"
)

// Table is one raw table as produced by an extractor: irregular rows of
// nullable cells.
type Table [][]*string

type Page struct {
	Number int
	Tables []Table
}

// Grid is a sequence of rows of cleaned cell text.
type Grid [][]string

func (g Grid) Width() int {
	w := 0
	for _, row := range g {
		if len(row) > w {
			w = len(row)
		}
	}
	return w
}

func (g Grid) Clone() Grid {
	out := make(Grid, len(g))
	for i, row := range g {
		out[i] = append([]string(nil), row...)
	}
	return out
}

// TableFromStrings wraps plain rows, mapping empty strings to nil cells.
func TableFromStrings(rows [][]string) Table {
	out := make(Table, 0, len(rows))
	for _, row := range rows {
		cells := make([]*string, len(row))
		for j, v := range row {
			if v != "" {
				cells[j] = util.StringPtr(v)
			}
		}
		out = append(out, cells)
	}
	return out
}

// cleanTable converts nullable cells to cleaned strings and drops rows with
// no content at all.
func cleanTable(t Table) Grid {
	out := make(Grid, 0, len(t))
	for _, raw := range t {
		row := make([]string, len(raw))
		empty := true
		for j, cell := range raw {
			if cell == nil {
				continue
			}
			row[j] = util.CleanMultiline(*cell)
			if row[j] != "" {
				empty = false
			}
		}
		if !empty {
			out = append(out, row)
		}
	}
	return out
}

// rectangular pads or truncates every row to width.
func rectangular(rows Grid, width int) Grid {
	out := make(Grid, len(rows))
	for i, row := range rows {
		fixed := make([]string, width)
		copy(fixed, row)
		out[i] = fixed
	}
	return out
}

func sentinelRow(prefix string, page, width int) []string {
	if width < 1 {
		width = 1
	}
	row := make([]string, width)
	row[0] = fmt.Sprintf("%s%d", prefix, page)
	return row
}

func isSentinel(row []string, prefix string) bool {
	return len(row) > 0 && strings.HasPrefix(row[0], prefix)
}

// splitBlocks cuts grid at sentinel rows. Empty blocks are skipped.
func splitBlocks(grid Grid, prefix string) []Grid {
	var blocks []Grid
	var current Grid
	for _, row := range grid {
		if isSentinel(row, prefix) {
			if len(current) > 0 {
				blocks = append(blocks, current)
			}
			current = nil
			continue
		}
		current = append(current, row)
	}
	if len(current) > 0 {
		blocks = append(blocks, current)
	}
	return blocks
}

// trimTrailingColumns drops right-hand columns that are empty in every row.
func trimTrailingColumns(rows Grid) Grid {
	width := 0
	for _, row := range rows {
		for j := len(row) - 1; j >= width; j-- {
			if strings.TrimSpace(row[j]) != "" {
				width = j + 1
				break
			}
		}
	}
	return rectangular(rows, width)
}

// dateColumns returns the positions of date-bearing cells in row.
func dateColumns(row []string) []int {
	var out []int
	for j, cell := range row {
		if datePattern.MatchString(cell) {
			out = append(out, j)
		}
	}
	return out
}

// RealignDateGaps repairs tables whose date columns are spread with gaps.
// The first of the leading scanRows rows carrying at least two dates is the
// date row; when two consecutive dates are more than one column apart every
// row has its date-position values moved to consecutive columns starting at
// the first date. A moved empty value never overwrites existing text.
func RealignDateGaps(rows Grid, scanRows int) Grid {
	if len(rows) < 2 {
		return rows
	}
	var positions []int
	for i := 0; i < len(rows) && i < scanRows; i++ {
		if cols := dateColumns(rows[i]); len(cols) >= 2 {
			positions = cols
			break
		}
	}
	if len(positions) < 2 {
		return rows
	}
	gap := false
	for i := 1; i < len(positions); i++ {
		if positions[i]-positions[i-1] > 1 {
			gap = true
			break
		}
	}
	if !gap {
		return rows
	}

	out := make(Grid, len(rows))
	for r, row := range rows {
		fixed := append([]string(nil), row...)
		for _, p := range positions {
			if p < len(fixed) {
				fixed[p] = ""
			}
		}
		for k, p := range positions {
			target := positions[0] + k
			if p >= len(row) || target >= len(fixed) {
				continue
			}
			if row[p] != "" || fixed[target] == "" {
				fixed[target] = row[p]
			}
		}
		out[r] = fixed
	}
	return out
}
