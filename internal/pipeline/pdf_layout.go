package pipeline

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"cardapio/internal/menu"
	"cardapio/internal/util"
)

const (
	lineTolerance    = 2.0
	joinGapFactor    = 0.15
	spaceGapFactor   = 1.0
	minColumnSpacing = 6.0
	continuationGap  = 1.6
)

// ParsePDF rebuilds one table per page from the positioned glyphs of the
// text layer. Pages that cannot be decoded are skipped, and when every
// page fails the first page error is returned.
func ParsePDF(content []byte) ([]menu.Page, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, err
	}

	var pages []menu.Page
	var firstErr error
	for i := 1; i <= r.NumPage(); i++ {
		table, err := pdfPageTable(r, i)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if len(table) == 0 {
			continue
		}
		pages = append(pages, menu.Page{Number: i, Tables: []menu.Table{table}})
	}
	if len(pages) == 0 && firstErr != nil {
		return nil, firstErr
	}
	return pages, nil
}

func pdfPageTable(r *pdf.Reader, n int) (table menu.Table, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			table, err = nil, fmt.Errorf("page %d: %v", n, rec)
		}
	}()
	p := r.Page(n)
	if p.V.IsNull() {
		return nil, nil
	}
	return layoutTable(p.Content().Text), nil
}

type segment struct {
	x0, x1 float64
	y      float64
	size   float64
	text   string
}

type textLine struct {
	y        float64
	size     float64
	segments []segment
}

// layoutTable groups glyphs into lines, lines into runs of text separated by
// wide gaps, and runs into columns anchored on their left edges.
func layoutTable(glyphs []pdf.Text) menu.Table {
	lines := groupLines(glyphs)
	if len(lines) == 0 {
		return nil
	}
	anchors := columnAnchors(lines)

	var rows [][]string
	var last *textLine
	for i := range lines {
		line := &lines[i]
		cells := make([]string, len(anchors))
		for _, seg := range line.segments {
			col := anchorIndex(anchors, seg.x0)
			if cells[col] != "" {
				cells[col] += " "
			}
			cells[col] += seg.text
		}

		if last != nil && len(rows) > 0 && cells[0] == "" && last.y-line.y <= continuationGap*math.Max(line.size, last.size) {
			prev := rows[len(rows)-1]
			for j, v := range cells {
				if v == "" {
					continue
				}
				if prev[j] != "" {
					prev[j] += "\n"
				}
				prev[j] += v
			}
		} else {
			rows = append(rows, cells)
		}
		last = line
	}

	for _, row := range rows {
		for j := range row {
			row[j] = util.CleanMultiline(row[j])
		}
	}
	return menu.TableFromStrings(rows)
}

func groupLines(glyphs []pdf.Text) []textLine {
	sorted := make([]pdf.Text, 0, len(glyphs))
	for _, g := range glyphs {
		if g.S == "" {
			continue
		}
		sorted = append(sorted, g)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if math.Abs(sorted[i].Y-sorted[j].Y) > lineTolerance {
			return sorted[i].Y > sorted[j].Y
		}
		return sorted[i].X < sorted[j].X
	})

	var lines []textLine
	var current []pdf.Text
	flush := func() {
		if len(current) == 0 {
			return
		}
		sort.SliceStable(current, func(i, j int) bool { return current[i].X < current[j].X })
		if line, ok := buildLine(current); ok {
			lines = append(lines, line)
		}
		current = nil
	}
	for _, g := range sorted {
		if len(current) > 0 && math.Abs(current[0].Y-g.Y) > lineTolerance {
			flush()
		}
		current = append(current, g)
	}
	flush()
	return lines
}

func buildLine(glyphs []pdf.Text) (textLine, bool) {
	line := textLine{y: glyphs[0].Y}
	var seg *segment
	var b strings.Builder
	closeSeg := func() {
		if seg == nil {
			return
		}
		seg.text = strings.TrimSpace(b.String())
		if seg.text != "" {
			line.segments = append(line.segments, *seg)
		}
		seg = nil
		b.Reset()
	}

	for _, g := range glyphs {
		size := g.FontSize
		if size <= 0 {
			size = 10
		}
		if size > line.size {
			line.size = size
		}
		if seg != nil {
			gap := g.X - seg.x1
			switch {
			case gap <= joinGapFactor*size:
			case gap <= spaceGapFactor*size:
				b.WriteByte(' ')
			default:
				closeSeg()
			}
		}
		if seg == nil {
			if strings.TrimSpace(g.S) == "" {
				continue
			}
			seg = &segment{x0: g.X, y: g.Y, size: size}
		}
		b.WriteString(g.S)
		seg.x1 = g.X + g.W
	}
	closeSeg()
	return line, len(line.segments) > 0
}

// columnAnchors clusters the left edges of all segments. Edges closer than
// the tolerance to a cluster's first edge join it.
func columnAnchors(lines []textLine) []float64 {
	var xs, sizes []float64
	for _, l := range lines {
		for _, s := range l.segments {
			xs = append(xs, s.x0)
			sizes = append(sizes, s.size)
		}
	}
	sort.Float64s(xs)
	tol := math.Max(minColumnSpacing, 1.5*median(sizes))

	var anchors []float64
	for _, x := range xs {
		if len(anchors) == 0 || x-anchors[len(anchors)-1] > tol {
			anchors = append(anchors, x)
		}
	}
	return anchors
}

func anchorIndex(anchors []float64, x float64) int {
	best := 0
	for i, a := range anchors {
		if a <= x+minColumnSpacing {
			best = i
		}
	}
	return best
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	s := append([]float64(nil), values...)
	sort.Float64s(s)
	return s[len(s)/2]
}
