package menu

import (
	"strings"

	"go.uber.org/zap"
)

// HeaderDateStrategy reads dates from a repaired header row. Every table of a
// page is kept and closed by a sentinel row so each one gets its own header.
type HeaderDateStrategy struct {
	toolkit
}

func NewHeaderDateStrategy(opts Options) *HeaderDateStrategy {
	return &HeaderDateStrategy{toolkit: newToolkit(opts)}
}

func (s *HeaderDateStrategy) Mode() Mode { return ModeHeaderDate }

func (s *HeaderDateStrategy) Assemble(pages []Page) Grid {
	var grid Grid
	for _, page := range pages {
		for _, table := range page.Tables {
			rows := cleanTable(table)
			if len(rows) == 0 {
				continue
			}
			grid = append(grid, rows...)
			grid = append(grid, sentinelRow(s.vocab.SentinelPrefix, page.Number, 1))
		}
	}
	return rectangular(grid, grid.Width())
}

func (s *HeaderDateStrategy) MapRows(grid Grid) []MenuEntry {
	var entries []MenuEntry
	for n, block := range splitBlocks(grid, s.vocab.SentinelPrefix) {
		block = trimTrailingColumns(block)
		if block.Width() == 0 {
			continue
		}
		repaired := RepairHeader(block, RepairOptions{
			TitleMarker: s.vocab.TitleMarker,
			MaxPasses:   s.opts.AlignMaxPasses,
			SampleRows:  s.opts.AlignSampleRows,
			Logger:      s.log,
		})
		if repaired.Headerless {
			s.log.Debug("block has no title row", zap.Int("block", n), zap.Int("rows", len(block)))
		}
		entries = append(entries, s.mapBlock(repaired)...)
	}
	return entries
}

func (s *HeaderDateStrategy) mapBlock(g RepairedGrid) []MenuEntry {
	var entries []MenuEntry
	for i, row := range g.Body {
		if len(row) < 2 || s.isTitle(row[0]) {
			continue
		}
		class := s.shifts.Classify(row[0], s.fallbackShifts(row[0]))
		for j := 1; j < len(row); j++ {
			cell := row[j]
			if blank(cell) || (g.Headerless && isDateLabel(cell)) {
				continue
			}
			date, ok := s.columnDate(g, i, j)
			if !ok {
				continue
			}
			items := s.splitter.Split(cell)
			for _, shift := range class.Shifts {
				seen := map[string]struct{}{}
				for _, item := range items {
					key := contentKey(item, "")
					if _, dup := seen[key]; dup {
						continue
					}
					seen[key] = struct{}{}
					entries = append(entries, MenuEntry{
						Date:       date,
						Shift:      shift,
						Week:       class.Week,
						ItemRecord: item,
						RawText:    cell,
					})
				}
			}
		}
	}
	return entries
}

// columnDate resolves the date governing body cell (i, j). Repaired headers
// name it directly; synthesized headers fall back to recovery from the cell
// and its neighbourhood.
func (s *HeaderDateStrategy) columnDate(g RepairedGrid, i, j int) (string, bool) {
	if g.Headerless {
		return recoverDate(g.Body, i, 0, len(g.Body), s.opts.ContextWindow, g.Body[i][j]), true
	}
	h := g.Header[j]
	if blank(h) || s.isTitle(h) {
		return "", false
	}
	if _, err := parseISO(h); err != nil {
		return "", false
	}
	return h, true
}

// fallbackShifts keeps an unrecognized label verbatim; only an empty cell
// falls back to the primary shifts.
func (s *HeaderDateStrategy) fallbackShifts(cell string) []ShiftName {
	if label := strings.TrimSpace(cell); label != "" {
		return []ShiftName{ShiftName(label)}
	}
	return s.shifts.Primary()
}
