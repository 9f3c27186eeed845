package menu

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

type RepairOptions struct {
	TitleMarker string
	MaxPasses   int
	SampleRows  int
	Logger      *zap.Logger
}

// RepairedGrid is a rectangular block whose header cells are either ISO dates
// or opaque labels. Headerless blocks carry synthesized col_N labels.
type RepairedGrid struct {
	Header     []string
	Body       Grid
	Headerless bool
}

func RepairHeader(rows Grid, opts RepairOptions) RepairedGrid {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	width := rows.Width()
	rows = rectangular(rows, width)

	stripped, found := StripTitleRows(rows, opts.TitleMarker)
	if !found {
		header := make([]string, width)
		for j := range header {
			header[j] = fmt.Sprintf("col_%d", j+1)
		}
		return RepairedGrid{Header: header, Body: rows, Headerless: true}
	}
	if dropped := len(rows) - len(stripped); dropped > 0 {
		logger.Debug("title rows stripped", zap.Int("rows", dropped))
	}

	header := append([]string(nil), stripped[0]...)
	body := stripped[1:]

	header = FillNearest(header)
	aligned := AlignHeaders(header, body, opts.MaxPasses, opts.SampleRows)
	if !equalStrings(aligned, header) {
		logger.Debug("date headers realigned", zap.Strings("before", header), zap.Strings("after", aligned))
	}
	header, body = DropEmptyColumns(aligned, body)
	header, body = CollapseDuplicateHeaders(header, body)

	for j, h := range header {
		if iso, ok := ISODate(h); ok {
			header[j] = iso
		}
	}
	return RepairedGrid{Header: header, Body: rectangular(body, len(header))}
}

// StripTitleRows drops every row above the first one whose first cell
// contains marker. It reports false when no such row exists.
func StripTitleRows(rows Grid, marker string) (Grid, bool) {
	upper := strings.ToUpper(marker)
	for i, row := range rows {
		if len(row) > 0 && strings.Contains(strings.ToUpper(row[0]), upper) {
			return rows[i:], true
		}
	}
	return rows, false
}

// FillNearest gives every empty header the value of its closest non-empty
// neighbour, the right one winning ties.
func FillNearest(headers []string) []string {
	filled := append([]string(nil), headers...)
	for i, h := range headers {
		if !blank(h) {
			continue
		}
		left, right := -1, -1
		for j := i - 1; j >= 0; j-- {
			if !blank(headers[j]) {
				left = j
				break
			}
		}
		for j := i + 1; j < len(headers); j++ {
			if !blank(headers[j]) {
				right = j
				break
			}
		}
		switch {
		case left < 0 && right < 0:
		case left < 0:
			filled[i] = headers[right]
		case right < 0:
			filled[i] = headers[left]
		case right-i <= i-left:
			filled[i] = headers[right]
		default:
			filled[i] = headers[left]
		}
	}
	return filled
}

// AlignHeaders pulls a date header one column to the left when that column
// holds more body values than the date's own column and its current header
// is empty or not a date. Column 0 is never touched.
func AlignHeaders(headers []string, body Grid, maxPasses, sampleRows int) []string {
	hdr := append([]string(nil), headers...)
	for pass := 0; pass < maxPasses; pass++ {
		changed := false
		for j := 2; j < len(hdr); j++ {
			if blank(hdr[j]) {
				continue
			}
			if _, ok := ParseDate(hdr[j]); !ok {
				continue
			}
			left := hdr[j-1]
			_, leftIsDate := ParseDate(left)
			if countNonEmpty(body, j-1, sampleRows) > countNonEmpty(body, j, sampleRows) && (blank(left) || !leftIsDate) {
				hdr[j-1], hdr[j] = hdr[j], hdr[j-1]
				changed = true
			}
		}
		if !changed {
			break
		}
	}
	return hdr
}

func countNonEmpty(body Grid, col, sampleRows int) int {
	n := 0
	for i := 0; i < len(body) && i < sampleRows; i++ {
		if col < len(body[i]) && !blank(body[i][col]) {
			n++
		}
	}
	return n
}

// DropEmptyColumns removes columns with an empty header and no body value.
func DropEmptyColumns(headers []string, body Grid) ([]string, Grid) {
	keep := make([]int, 0, len(headers))
	for j, h := range headers {
		if !blank(h) || countNonEmpty(body, j, len(body)) > 0 {
			keep = append(keep, j)
		}
	}
	return selectColumns(headers, body, keep)
}

// CollapseDuplicateHeaders merges columns sharing a header into the position
// of the first one, space-joining their values in column order.
func CollapseDuplicateHeaders(headers []string, body Grid) ([]string, Grid) {
	order := make([]string, 0, len(headers))
	groups := map[string][]int{}
	for j, h := range headers {
		if _, ok := groups[h]; !ok {
			order = append(order, h)
		}
		groups[h] = append(groups[h], j)
	}

	newBody := make(Grid, len(body))
	for i, row := range body {
		merged := make([]string, len(order))
		for k, h := range order {
			parts := make([]string, 0, len(groups[h]))
			for _, j := range groups[h] {
				if j < len(row) && row[j] != "" {
					parts = append(parts, row[j])
				}
			}
			merged[k] = strings.TrimSpace(strings.Join(parts, " "))
		}
		newBody[i] = merged
	}
	return order, newBody
}

func selectColumns(headers []string, body Grid, idx []int) ([]string, Grid) {
	h := make([]string, len(idx))
	for k, j := range idx {
		h[k] = headers[j]
	}
	b := make(Grid, len(body))
	for i, row := range body {
		out := make([]string, len(idx))
		for k, j := range idx {
			if j < len(row) {
				out[k] = row[j]
			}
		}
		b[i] = out
	}
	return h, b
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
