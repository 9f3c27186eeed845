package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"cardapio/internal"
	"cardapio/internal/menu"
)

type Postgres struct {
	db *pgxpool.Pool
}

func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse DATABASE_URL: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 1
	config.MaxConnLifetime = time.Hour

	db, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres connection failed: %w", err)
	}

	p := &Postgres{db: db}
	if err := p.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return p, nil
}

func (p *Postgres) Close() {
	p.db.Close()
}

func (p *Postgres) initSchema(ctx context.Context) error {
	runsSQL := `
		CREATE TABLE IF NOT EXISTS parse_runs (
			id UUID PRIMARY KEY,
			email_id INTEGER NULL,
			source TEXT NOT NULL,
			mode VARCHAR(32) NOT NULL,
			success BOOLEAN NOT NULL,
			error TEXT NULL,
			total_entries INTEGER NOT NULL,
			total_days INTEGER NOT NULL,
			row_count INTEGER NOT NULL,
			column_count INTEGER NOT NULL,
			archive_key TEXT NULL,
			processed_at TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ DEFAULT now()
		)
	`
	if _, err := p.db.Exec(ctx, runsSQL); err != nil {
		return err
	}

	entriesSQL := `
		CREATE TABLE IF NOT EXISTS menu_entries (
			run_id UUID NOT NULL REFERENCES parse_runs(id) ON DELETE CASCADE,
			seq INTEGER NOT NULL,
			menu_date VARCHAR(32) NOT NULL,
			shift TEXT NOT NULL,
			week TEXT NULL,
			code VARCHAR(16) NULL,
			description TEXT NOT NULL,
			incomplete BOOLEAN NOT NULL DEFAULT FALSE,
			raw_text TEXT NOT NULL,
			PRIMARY KEY (run_id, seq)
		);
		CREATE INDEX IF NOT EXISTS idx_menu_entries_date ON menu_entries(menu_date);
	`
	_, err := p.db.Exec(ctx, entriesSQL)
	return err
}

func (p *Postgres) SaveRun(ctx context.Context, run internal.RunRow, entries []menu.MenuEntry) error {
	processedAt, err := time.Parse(time.RFC3339Nano, run.ProcessedAt)
	if err != nil {
		return fmt.Errorf("run %s processedAt: %w", run.ID, err)
	}

	tx, err := p.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO parse_runs (
			id, email_id, source, mode, success, error,
			total_entries, total_days, row_count, column_count, archive_key, processed_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			email_id = EXCLUDED.email_id,
			source = EXCLUDED.source,
			mode = EXCLUDED.mode,
			success = EXCLUDED.success,
			error = EXCLUDED.error,
			total_entries = EXCLUDED.total_entries,
			total_days = EXCLUDED.total_days,
			row_count = EXCLUDED.row_count,
			column_count = EXCLUDED.column_count,
			archive_key = EXCLUDED.archive_key,
			processed_at = EXCLUDED.processed_at
	`, run.ID, run.EmailID, run.Source, run.Mode, run.Success, run.Error,
		run.TotalEntries, run.TotalDays, run.RowCount, run.ColumnCount, run.ArchiveKey, processedAt)
	if err != nil {
		return fmt.Errorf("save run %s: %w", run.ID, err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM menu_entries WHERE run_id = $1`, run.ID); err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for i, e := range entries {
		batch.Queue(`
			INSERT INTO menu_entries (run_id, seq, menu_date, shift, week, code, description, incomplete, raw_text)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, run.ID, i, e.Date, string(e.Shift), nullable(e.Week), e.Code, e.Description, e.Incomplete, e.RawText)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("save entries of run %s: %w", run.ID, err)
		}
	}

	return tx.Commit(ctx)
}

const pgRunColumns = `
	id::text, email_id, source, mode, success, error,
	total_entries, total_days, row_count, column_count, archive_key, processed_at
`

func scanPgRun(row pgx.Row) (internal.RunRow, error) {
	var r internal.RunRow
	var processedAt time.Time
	err := row.Scan(&r.ID, &r.EmailID, &r.Source, &r.Mode, &r.Success, &r.Error,
		&r.TotalEntries, &r.TotalDays, &r.RowCount, &r.ColumnCount, &r.ArchiveKey, &processedAt)
	if err != nil {
		return internal.RunRow{}, err
	}
	r.ProcessedAt = processedAt.UTC().Format(time.RFC3339Nano)
	return r, nil
}

func (p *Postgres) GetRun(ctx context.Context, id string) (internal.RunRow, error) {
	run, err := scanPgRun(p.db.QueryRow(ctx, `SELECT `+pgRunColumns+` FROM parse_runs WHERE id::text = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return internal.RunRow{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
		}
		return internal.RunRow{}, err
	}
	return run, nil
}

func (p *Postgres) GetRunEntries(ctx context.Context, id string) ([]menu.MenuEntry, error) {
	rows, err := p.db.Query(ctx, `
		SELECT menu_date, shift, week, code, description, incomplete, raw_text
		FROM menu_entries
		WHERE run_id::text = $1
		ORDER BY seq ASC
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []menu.MenuEntry{}
	for rows.Next() {
		var e menu.MenuEntry
		var shift string
		var week *string
		if err := rows.Scan(&e.Date, &shift, &week, &e.Code, &e.Description, &e.Incomplete, &e.RawText); err != nil {
			return nil, err
		}
		e.Shift = menu.ShiftName(shift)
		if week != nil {
			e.Week = *week
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (p *Postgres) ListRuns(ctx context.Context, limit int) ([]internal.RunRow, error) {
	rows, err := p.db.Query(ctx, `SELECT `+pgRunColumns+` FROM parse_runs ORDER BY processed_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.RunRow
	for rows.Next() {
		run, err := scanPgRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}
