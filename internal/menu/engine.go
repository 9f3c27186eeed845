package menu

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"cardapio/internal/util"
)

type Options struct {
	Mode       Mode
	Vocabulary Vocabulary
	// AlignMaxPasses bounds the date-header alignment passes.
	AlignMaxPasses int
	// AlignSampleRows is how many leading body rows alignment counts.
	AlignSampleRows int
	// HeaderScanRows is how many leading rows of a page table are searched
	// for spread-out date columns.
	HeaderScanRows int
	// ContextWindow is the row distance searched when a column has no date.
	ContextWindow int
	// PadPrimaryShifts completes a page-marker row that names fewer shifts
	// than the primary set with the missing primary shifts.
	PadPrimaryShifts bool
	IncludeRawGrid   bool
	Logger           *zap.Logger
	Now              func() time.Time
}

func DefaultOptions() Options {
	return Options{
		Mode:             ModePageMarker,
		Vocabulary:       DefaultVocabulary(),
		AlignMaxPasses:   2,
		AlignSampleRows:  6,
		HeaderScanRows:   3,
		ContextWindow:    2,
		PadPrimaryShifts: true,
		IncludeRawGrid:   true,
	}
}

// Engine runs the normalization pipeline. It keeps no per-call state and may
// be shared between goroutines.
type Engine struct {
	opts       Options
	strategies map[Mode]Strategy
}

func NewEngine(opts Options) (*Engine, error) {
	def := DefaultOptions()
	if opts.Mode == "" {
		opts.Mode = def.Mode
	}
	if opts.AlignMaxPasses <= 0 {
		opts.AlignMaxPasses = def.AlignMaxPasses
	}
	if opts.AlignSampleRows <= 0 {
		opts.AlignSampleRows = def.AlignSampleRows
	}
	if opts.HeaderScanRows <= 0 {
		opts.HeaderScanRows = def.HeaderScanRows
	}
	if opts.ContextWindow < 0 {
		opts.ContextWindow = def.ContextWindow
	}
	if opts.Vocabulary.TitleMarker == "" && len(opts.Vocabulary.ShiftRules) == 0 {
		opts.Vocabulary = def.Vocabulary
	}
	if err := opts.Vocabulary.Validate(); err != nil {
		return nil, fmt.Errorf("vocabulary: %w", err)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	opts.Vocabulary = opts.Vocabulary.clone()

	e := &Engine{opts: opts, strategies: map[Mode]Strategy{}}
	for _, s := range []Strategy{NewHeaderDateStrategy(opts), NewPageMarkerStrategy(opts)} {
		e.strategies[s.Mode()] = s
	}
	if _, ok := e.strategies[opts.Mode]; !ok {
		return nil, fmt.Errorf("unknown mode %q", opts.Mode)
	}
	return e, nil
}

func (e *Engine) Mode() Mode { return e.opts.Mode }

// ParseMode validates a mode name, empty meaning the engine default.
func (e *Engine) ParseMode(name string) (Mode, error) {
	if name == "" {
		return e.opts.Mode, nil
	}
	m := Mode(name)
	if _, ok := e.strategies[m]; !ok {
		return "", fmt.Errorf("unknown mode %q", name)
	}
	return m, nil
}

// Parse normalizes the pages of one document with the engine's default mode.
func (e *Engine) Parse(source string, pages []Page) Result {
	res, _ := e.ParseWith(e.opts.Mode, source, pages)
	return res
}

func (e *Engine) ParseWith(mode Mode, source string, pages []Page) (Result, error) {
	s, ok := e.strategies[mode]
	if !ok {
		return Result{}, fmt.Errorf("unknown mode %q", mode)
	}
	return e.run(s, source, s.Assemble(pages)), nil
}

// Failed reports a document that could not be turned into pages.
func (e *Engine) Failed(source string, mode Mode, err error) Result {
	return FailedResult(source, mode, e.opts.Now(), err)
}

// ParseGrid runs an already assembled grid, sentinel rows included.
func (e *Engine) ParseGrid(mode Mode, source string, grid Grid) (Result, error) {
	s, ok := e.strategies[mode]
	if !ok {
		return Result{}, fmt.Errorf("unknown mode %q", mode)
	}
	g := make(Grid, 0, len(grid))
	for _, row := range grid {
		cleaned := make([]string, len(row))
		for j, v := range row {
			cleaned[j] = util.CleanMultiline(v)
		}
		g = append(g, cleaned)
	}
	return e.run(s, source, rectangular(g, g.Width())), nil
}

func (e *Engine) run(s Strategy, source string, grid Grid) Result {
	now := e.opts.Now()
	if len(grid) == 0 || grid.Width() == 0 {
		e.opts.Logger.Warn("no grid extracted", zap.String("source", source), zap.String("mode", string(s.Mode())))
		return FailedResult(source, s.Mode(), now, ErrNoTables)
	}

	raw := s.MapRows(grid)
	entries := Deduplicate(raw)
	if entries == nil {
		entries = []MenuEntry{}
	}
	byDate := GroupByDate(entries)
	e.opts.Logger.Debug("grid mapped",
		zap.String("source", source),
		zap.String("mode", string(s.Mode())),
		zap.Int("rows", len(grid)),
		zap.Int("mapped", len(raw)),
		zap.Int("entries", len(entries)),
	)

	res := Result{
		Success:      true,
		TotalEntries: len(entries),
		TotalDays:    byDate.Len(),
		Entries:      entries,
		ByDate:       byDate,
		Meta: Meta{
			SourceFileName: source,
			ProcessedAt:    now,
			Mode:           s.Mode(),
			RowCount:       len(grid),
			ColumnCount:    grid.Width(),
		},
	}
	if e.opts.IncludeRawGrid {
		res.RawGrid = grid.Clone()
	}
	return res
}
