package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"cardapio/internal"
	"cardapio/internal/menu"
)

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}
	if _, err := conn.Exec(`PRAGMA busy_timeout = 5000;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS emails (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  provider TEXT NOT NULL,
  messageId TEXT NOT NULL,
  subject TEXT,
  sender TEXT,
  receivedAt TEXT,
  hash TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'fetched',
  rawRef TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(provider, messageId)
);

CREATE TABLE IF NOT EXISTS parse_runs (
  id TEXT PRIMARY KEY,
  emailId INTEGER,
  source TEXT NOT NULL,
  mode TEXT NOT NULL,
  success INTEGER NOT NULL,
  error TEXT,
  totalEntries INTEGER NOT NULL,
  totalDays INTEGER NOT NULL,
  rowCount INTEGER NOT NULL,
  columnCount INTEGER NOT NULL,
  archiveKey TEXT,
  processedAt TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  FOREIGN KEY(emailId) REFERENCES emails(id)
);
CREATE INDEX IF NOT EXISTS idx_parse_runs_email ON parse_runs(emailId);

CREATE TABLE IF NOT EXISTS menu_entries (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  runId TEXT NOT NULL,
  seq INTEGER NOT NULL,
  date TEXT NOT NULL,
  shift TEXT NOT NULL,
  week TEXT,
  code TEXT,
  description TEXT NOT NULL,
  incomplete INTEGER NOT NULL DEFAULT 0,
  rawText TEXT NOT NULL,
  UNIQUE(runId, seq),
  FOREIGN KEY(runId) REFERENCES parse_runs(id)
);
CREATE INDEX IF NOT EXISTS idx_menu_entries_date ON menu_entries(date);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

func (d *DB) UpsertEmail(provider, messageID, subject, sender, receivedAt, hash, rawRef, status string) (internal.EmailRow, error) {
	_, err := d.conn.Exec(`
INSERT INTO emails (provider, messageId, subject, sender, receivedAt, hash, status, rawRef)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(provider, messageId) DO UPDATE SET
  subject=excluded.subject,
  sender=excluded.sender,
  receivedAt=excluded.receivedAt,
  hash=excluded.hash,
  rawRef=excluded.rawRef,
  updatedAt=CURRENT_TIMESTAMP
`, provider, messageID, subject, sender, receivedAt, hash, status, rawRef)
	if err != nil {
		return internal.EmailRow{}, err
	}

	row, err := d.GetEmailByProviderMessageID(provider, messageID)
	if err != nil {
		return internal.EmailRow{}, err
	}
	if row == nil {
		return internal.EmailRow{}, errors.New("failed to upsert email")
	}
	return *row, nil
}

const emailColumns = `id, provider, messageId, subject, sender, receivedAt, hash, status, rawRef`

func scanEmail(s interface{ Scan(...any) error }) (internal.EmailRow, error) {
	var row internal.EmailRow
	err := s.Scan(&row.ID, &row.Provider, &row.MessageID, &row.Subject, &row.Sender, &row.ReceivedAt, &row.Hash, &row.Status, &row.RawRef)
	return row, err
}

func (d *DB) GetEmailByProviderMessageID(provider, messageID string) (*internal.EmailRow, error) {
	row, err := scanEmail(d.conn.QueryRow(`SELECT `+emailColumns+` FROM emails WHERE provider = ? AND messageId = ?`, provider, messageID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (d *DB) GetEmailByID(id int) (*internal.EmailRow, error) {
	row, err := scanEmail(d.conn.QueryRow(`SELECT `+emailColumns+` FROM emails WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (d *DB) ListEmailsByStatus(status string, limit int) ([]internal.EmailRow, error) {
	rows, err := d.conn.Query(`SELECT `+emailColumns+` FROM emails WHERE status = ? ORDER BY receivedAt ASC LIMIT ?`, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.EmailRow
	for rows.Next() {
		row, err := scanEmail(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (d *DB) UpdateEmailStatus(emailID int, status string) error {
	_, err := d.conn.Exec(`UPDATE emails SET status = ?, updatedAt = CURRENT_TIMESTAMP WHERE id = ?`, status, emailID)
	return err
}

// ClearEmailRuns removes the runs stored for an e-mail so it can be parsed
// again from scratch.
func (d *DB) ClearEmailRuns(emailID int) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM menu_entries WHERE runId IN (SELECT id FROM parse_runs WHERE emailId = ?)`, emailID); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM parse_runs WHERE emailId = ?`, emailID); err != nil {
		return err
	}
	return tx.Commit()
}

func (d *DB) SaveRun(ctx context.Context, run internal.RunRow, entries []menu.MenuEntry) error {
	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
INSERT INTO parse_runs (id, emailId, source, mode, success, error, totalEntries, totalDays, rowCount, columnCount, archiveKey, processedAt)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  emailId=excluded.emailId,
  source=excluded.source,
  mode=excluded.mode,
  success=excluded.success,
  error=excluded.error,
  totalEntries=excluded.totalEntries,
  totalDays=excluded.totalDays,
  rowCount=excluded.rowCount,
  columnCount=excluded.columnCount,
  archiveKey=excluded.archiveKey,
  processedAt=excluded.processedAt
`, run.ID, run.EmailID, run.Source, run.Mode, run.Success, run.Error, run.TotalEntries, run.TotalDays,
		run.RowCount, run.ColumnCount, run.ArchiveKey, run.ProcessedAt); err != nil {
		return fmt.Errorf("save run %s: %w", run.ID, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM menu_entries WHERE runId = ?`, run.ID); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO menu_entries (runId, seq, date, shift, week, code, description, incomplete, rawText)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, e := range entries {
		if _, err := stmt.ExecContext(ctx, run.ID, i, e.Date, string(e.Shift), nullable(e.Week), e.Code, e.Description, e.Incomplete, e.RawText); err != nil {
			return fmt.Errorf("save entry %d of run %s: %w", i, run.ID, err)
		}
	}

	return tx.Commit()
}

const runColumns = `id, emailId, source, mode, success, error, totalEntries, totalDays, rowCount, columnCount, archiveKey, processedAt`

func scanRun(s interface{ Scan(...any) error }) (internal.RunRow, error) {
	var r internal.RunRow
	err := s.Scan(&r.ID, &r.EmailID, &r.Source, &r.Mode, &r.Success, &r.Error, &r.TotalEntries, &r.TotalDays,
		&r.RowCount, &r.ColumnCount, &r.ArchiveKey, &r.ProcessedAt)
	return r, err
}

func (d *DB) GetRun(ctx context.Context, id string) (internal.RunRow, error) {
	run, err := scanRun(d.conn.QueryRowContext(ctx, `SELECT `+runColumns+` FROM parse_runs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return internal.RunRow{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return run, err
}

func (d *DB) GetRunEntries(ctx context.Context, id string) ([]menu.MenuEntry, error) {
	rows, err := d.conn.QueryContext(ctx, `
SELECT date, shift, week, code, description, incomplete, rawText
FROM menu_entries WHERE runId = ? ORDER BY seq ASC
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

func (d *DB) ListRuns(ctx context.Context, limit int) ([]internal.RunRow, error) {
	rows, err := d.conn.QueryContext(ctx, `SELECT `+runColumns+` FROM parse_runs ORDER BY processedAt DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.RunRow
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

func (d *DB) ListRunsByEmail(emailID int) ([]internal.RunRow, error) {
	rows, err := d.conn.Query(`SELECT `+runColumns+` FROM parse_runs WHERE emailId = ? ORDER BY createdAt ASC`, emailID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.RunRow
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

func (d *DB) SetMetadata(key, value string) error {
	_, err := d.conn.Exec(`
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, key, value)
	return err
}

func (d *DB) GetMetadata(key string) (*string, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}

func (d *DB) MustEmailByProviderMessageID(provider, messageID string) (internal.EmailRow, error) {
	row, err := d.GetEmailByProviderMessageID(provider, messageID)
	if err != nil {
		return internal.EmailRow{}, err
	}
	if row == nil {
		return internal.EmailRow{}, fmt.Errorf("email not found: provider=%s messageId=%s", provider, messageID)
	}
	return *row, nil
}

func nullable(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
