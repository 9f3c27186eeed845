package menu

import (
	"go.uber.org/zap"
)

// PageMarkerStrategy walks a grid built by concatenating the main table of
// every page, each closed by a sentinel row. The date map is rebuilt at the
// top of every page block.
type PageMarkerStrategy struct {
	toolkit
}

func NewPageMarkerStrategy(opts Options) *PageMarkerStrategy {
	return &PageMarkerStrategy{toolkit: newToolkit(opts)}
}

func (s *PageMarkerStrategy) Mode() Mode { return ModePageMarker }

// Assemble keeps the first table of every page, repairs spread-out date
// columns and appends a sentinel row after it.
func (s *PageMarkerStrategy) Assemble(pages []Page) Grid {
	var grid Grid
	for _, page := range pages {
		if len(page.Tables) == 0 {
			continue
		}
		rows := cleanTable(page.Tables[0])
		if len(rows) == 0 {
			continue
		}
		rows = rectangular(rows, rows.Width())
		rows = RealignDateGaps(rows, s.opts.HeaderScanRows)
		grid = append(grid, rows...)
		grid = append(grid, sentinelRow(s.vocab.SentinelPrefix, page.Number, rows.Width()))
	}
	return rectangular(grid, grid.Width())
}

type markerState int

const (
	collectingHeader markerState = iota
	collectingBody
)

// pageWalk is the per-call state of MapRows.
type pageWalk struct {
	state      markerState
	dates      map[int]string
	blockStart int
	blockEnd   int
}

func (w *pageWalk) reset(start, end int) {
	w.state = collectingHeader
	w.dates = map[int]string{}
	w.blockStart = start
	w.blockEnd = end
}

func (s *PageMarkerStrategy) MapRows(grid Grid) []MenuEntry {
	var entries []MenuEntry
	walk := &pageWalk{}
	walk.reset(0, s.nextSentinel(grid, 0))

	for i, row := range grid {
		if isSentinel(row, s.vocab.SentinelPrefix) {
			s.log.Debug("page block closed", zap.String("marker", row[0]), zap.Int("dates", len(walk.dates)))
			walk.reset(i+1, s.nextSentinel(grid, i+1))
			continue
		}

		if walk.state == collectingHeader {
			if found := s.headerDates(row); len(found) > 0 {
				walk.dates = found
				walk.state = collectingBody
				continue
			}
		}

		if len(row) < 2 || blank(row[0]) || s.isTitle(row[0]) {
			continue
		}
		entries = append(entries, s.mapRow(grid, i, walk)...)
	}
	return entries
}

func (s *PageMarkerStrategy) mapRow(grid Grid, i int, walk *pageWalk) []MenuEntry {
	row := grid[i]
	class := s.shifts.Classify(row[0], s.shifts.Primary())
	shifts := class.Shifts
	if s.opts.PadPrimaryShifts {
		shifts = s.shifts.PadPrimary(shifts)
	}

	var entries []MenuEntry
	for j := 1; j < len(row); j++ {
		cell := row[j]
		if blank(cell) {
			continue
		}
		item, ok := s.splitter.ExtractSingle(joinLines(cell))
		if !ok {
			continue
		}
		date, mapped := walk.dates[j]
		if !mapped {
			date = recoverDate(grid, i, walk.blockStart, walk.blockEnd, s.opts.ContextWindow, cell)
		}
		for _, shift := range shifts {
			entries = append(entries, MenuEntry{
				Date:       date,
				Shift:      shift,
				Week:       class.Week,
				ItemRecord: item,
				RawText:    cell,
			})
		}
	}
	return entries
}

func (s *PageMarkerStrategy) nextSentinel(grid Grid, from int) int {
	for i := from; i < len(grid); i++ {
		if isSentinel(grid[i], s.vocab.SentinelPrefix) {
			return i
		}
	}
	return len(grid)
}

// headerDates maps every column j >= 1 of row holding a date and no item
// code to its ISO date.
func (s *PageMarkerStrategy) headerDates(row []string) map[int]string {
	found := map[int]string{}
	for j := 1; j < len(row); j++ {
		if s.splitter.HasCode(row[j]) {
			continue
		}
		if iso, ok := ISODate(row[j]); ok {
			found[j] = iso
		}
	}
	return found
}
