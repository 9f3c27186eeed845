package menu

import (
	"strings"

	"go.uber.org/zap"
)

// Strategy is one ingestion mode: how extracted pages are joined into a single
// grid and how that grid is walked into entries. Implementations hold only
// read-only collaborators, so one value serves any number of parse calls.
type Strategy interface {
	Mode() Mode
	Assemble(pages []Page) Grid
	MapRows(grid Grid) []MenuEntry
}

// toolkit bundles the collaborators both strategies share.
type toolkit struct {
	vocab    Vocabulary
	shifts   *ShiftClassifier
	splitter *ItemSplitter
	opts     Options
	log      *zap.Logger
}

func newToolkit(opts Options) toolkit {
	return toolkit{
		vocab:    opts.Vocabulary.clone(),
		shifts:   NewShiftClassifier(opts.Vocabulary),
		splitter: NewItemSplitter(),
		opts:     opts,
		log:      opts.Logger,
	}
}

func (t toolkit) isTitle(cell string) bool {
	return strings.Contains(strings.ToUpper(cell), strings.ToUpper(t.vocab.TitleMarker))
}

// recoverDate looks for a date in the cell itself and then in any cell of the
// rows within window of row, limited to [lo, hi).
func recoverDate(rows Grid, row, lo, hi, window int, cell string) string {
	if iso, ok := ISODate(cell); ok {
		return iso
	}
	for off := -window; off <= window; off++ {
		i := row + off
		if i < lo || i >= hi {
			continue
		}
		for _, c := range rows[i] {
			if iso, ok := ISODate(c); ok {
				return iso
			}
		}
	}
	return UnidentifiedDate
}

func joinLines(cell string) string {
	return strings.ReplaceAll(cell, "\n", " ")
}
