package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cardapio/internal"
	"cardapio/internal/menu"
)

var ErrRunNotFound = errors.New("run not found")

// ResultStore keeps finished parse runs and their entries.
type ResultStore interface {
	SaveRun(ctx context.Context, run internal.RunRow, entries []menu.MenuEntry) error
	GetRun(ctx context.Context, id string) (internal.RunRow, error)
	GetRunEntries(ctx context.Context, id string) ([]menu.MenuEntry, error)
	ListRuns(ctx context.Context, limit int) ([]internal.RunRow, error)
}

// OpenResultStore picks Postgres when dsn is set and the SQLite database
// otherwise. The returned func releases what this call opened.
func OpenResultStore(ctx context.Context, dsn string, sqlite *DB) (ResultStore, func(), error) {
	if strings.TrimSpace(dsn) == "" {
		if sqlite == nil {
			return nil, nil, errors.New("no result store configured")
		}
		return sqlite, func() {}, nil
	}
	pg, err := OpenPostgres(ctx, dsn)
	if err != nil {
		return nil, nil, err
	}
	return pg, pg.Close, nil
}

func RunFromResult(id string, emailID *int, res menu.Result, archiveKey *string) internal.RunRow {
	run := internal.RunRow{
		ID:           id,
		EmailID:      emailID,
		Source:       res.Meta.SourceFileName,
		Mode:         string(res.Meta.Mode),
		Success:      res.Success,
		TotalEntries: res.TotalEntries,
		TotalDays:    res.TotalDays,
		RowCount:     res.Meta.RowCount,
		ColumnCount:  res.Meta.ColumnCount,
		ArchiveKey:   archiveKey,
		ProcessedAt:  res.Meta.ProcessedAt.UTC().Format(time.RFC3339Nano),
	}
	if res.Error != "" {
		msg := res.Error
		run.Error = &msg
	}
	return run
}

// LoadResult rebuilds the result object of a stored run. The raw grid is not
// stored and comes back empty.
func LoadResult(ctx context.Context, store ResultStore, id string) (internal.RunRow, menu.Result, error) {
	run, err := store.GetRun(ctx, id)
	if err != nil {
		return internal.RunRow{}, menu.Result{}, err
	}
	entries, err := store.GetRunEntries(ctx, id)
	if err != nil {
		return internal.RunRow{}, menu.Result{}, fmt.Errorf("entries of run %s: %w", id, err)
	}
	processedAt, _ := time.Parse(time.RFC3339Nano, run.ProcessedAt)
	byDate := menu.GroupByDate(entries)
	res := menu.Result{
		Success:      run.Success,
		TotalEntries: len(entries),
		TotalDays:    byDate.Len(),
		Entries:      entries,
		ByDate:       byDate,
		Meta: menu.Meta{
			SourceFileName: run.Source,
			ProcessedAt:    processedAt,
			Mode:           menu.Mode(run.Mode),
			RowCount:       run.RowCount,
			ColumnCount:    run.ColumnCount,
		},
	}
	if run.Error != nil {
		res.Error = *run.Error
	}
	return run, res, nil
}
