package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	mdwerror "github.com/msto63/gridwerk/foundation/core/error"
	"github.com/msto63/gridwerk/internal/sheet"
)

// SQLiteStore implements Store using SQLite
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// SQLiteConfig holds configuration for the SQLite store
type SQLiteConfig struct {
	Path string
}

// DefaultSQLiteConfig returns default configuration
func DefaultSQLiteConfig() SQLiteConfig {
	return SQLiteConfig{
		Path: "./data/sheets.sqlite",
	}
}

// NewSQLiteStore opens (and if needed creates) a SQLite sheet store
func NewSQLiteStore(cfg SQLiteConfig) (*SQLiteStore, error) {
	dir := filepath.Dir(cfg.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	// WAL mode with enforced foreign keys
	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteStore{db: db}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates the necessary tables
func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sheets (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL DEFAULT '',
		row_count INTEGER NOT NULL DEFAULT 0,
		column_count INTEGER NOT NULL DEFAULT 0,
		snapshot TEXT NOT NULL,
		version INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		sheet_id TEXT NOT NULL,
		command TEXT NOT NULL,
		result TEXT NOT NULL DEFAULT '',
		error TEXT NOT NULL DEFAULT '',
		error_code TEXT NOT NULL DEFAULT '',
		success INTEGER NOT NULL DEFAULT 0,
		executed INTEGER NOT NULL DEFAULT 0,
		source TEXT NOT NULL DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (sheet_id) REFERENCES sheets(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_history_sheet ON history(sheet_id, id DESC);
	CREATE INDEX IF NOT EXISTS idx_sheets_updated ON sheets(updated_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// CreateSheet inserts a new sheet
func (s *SQLiteStore) CreateSheet(ctx context.Context, sh *Sheet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sh.ID == "" {
		return mdwerror.New("sheet ID is required").WithCode(mdwerror.CodeInvalidInput)
	}

	snapshotJSON, err := encodeSnapshot(sh.Snapshot)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if sh.CreatedAt.IsZero() {
		sh.CreatedAt = now
	}
	sh.UpdatedAt = now
	sh.Version = 1

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sheets (id, title, row_count, column_count, snapshot, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, sh.ID, sh.Title, sh.Snapshot.RowCount(), sh.Snapshot.ColumnCount(), snapshotJSON, sh.Version, sh.CreatedAt, sh.UpdatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return duplicate(sh.ID)
		}
		return dbError(err, "create sheet")
	}
	return nil
}

// GetSheet loads a sheet by ID
func (s *SQLiteStore) GetSheet(ctx context.Context, id string) (*Sheet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, snapshot, version, created_at, updated_at
		FROM sheets WHERE id = ?
	`, id)

	var sh Sheet
	var snapshotJSON string
	err := row.Scan(&sh.ID, &sh.Title, &snapshotJSON, &sh.Version, &sh.CreatedAt, &sh.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, notFound(id)
		}
		return nil, dbError(err, "get sheet")
	}

	if sh.Snapshot, err = decodeSnapshot([]byte(snapshotJSON)); err != nil {
		return nil, err
	}
	return &sh, nil
}

// SaveSheet stores a new snapshot for an existing sheet
func (s *SQLiteStore) SaveSheet(ctx context.Context, sh *Sheet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshotJSON, err := encodeSnapshot(sh.Snapshot)
	if err != nil {
		return err
	}
	sh.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE sheets
		SET title = ?, row_count = ?, column_count = ?, snapshot = ?, version = version + 1, updated_at = ?
		WHERE id = ?
	`, sh.Title, sh.Snapshot.RowCount(), sh.Snapshot.ColumnCount(), snapshotJSON, sh.UpdatedAt, sh.ID)
	if err != nil {
		return dbError(err, "save sheet")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return notFound(sh.ID)
	}
	sh.Version++
	return nil
}

// DeleteSheet removes a sheet and its history
func (s *SQLiteStore) DeleteSheet(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return dbError(err, "delete sheet")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM history WHERE sheet_id = ?`, id); err != nil {
		return dbError(err, "delete history")
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM sheets WHERE id = ?`, id)
	if err != nil {
		return dbError(err, "delete sheet")
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return notFound(id)
	}
	if err := tx.Commit(); err != nil {
		return dbError(err, "delete sheet")
	}
	return nil
}

// ListSheets returns all sheets, most recently updated first
func (s *SQLiteStore) ListSheets(ctx context.Context) ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, row_count, column_count, version, updated_at
		FROM sheets ORDER BY updated_at DESC, id
	`)
	if err != nil {
		return nil, dbError(err, "list sheets")
	}
	defer rows.Close()

	var sheets []Summary
	for rows.Next() {
		var sum Summary
		if err := rows.Scan(&sum.ID, &sum.Title, &sum.Rows, &sum.Columns, &sum.Version, &sum.UpdatedAt); err != nil {
			return nil, dbError(err, "scan sheet")
		}
		sheets = append(sheets, sum)
	}
	return sheets, rows.Err()
}

// AppendHistory records a command run
func (s *SQLiteStore) AppendHistory(ctx context.Context, e *HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO history (sheet_id, command, result, error, error_code, success, executed, source, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.SheetID, e.Command, e.Result, e.Error, e.ErrorCode, e.Success, e.Executed, e.Source, e.CreatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
			return notFound(e.SheetID)
		}
		return dbError(err, "append history")
	}

	e.ID, _ = result.LastInsertId()
	return nil
}

// History returns the newest entries of a sheet first
func (s *SQLiteStore) History(ctx context.Context, sheetID string, limit int) ([]HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, sheet_id, command, result, error, error_code, success, executed, source, created_at
		FROM history WHERE sheet_id = ? ORDER BY id DESC`
	args := []interface{}{sheetID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbError(err, "get history")
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		if err := rows.Scan(&e.ID, &e.SheetID, &e.Command, &e.Result, &e.Error, &e.ErrorCode, &e.Success, &e.Executed, &e.Source, &e.CreatedAt); err != nil {
			return nil, dbError(err, "scan history")
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Ping checks the database connection
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func encodeSnapshot(snap sheet.Snapshot) ([]byte, error) {
	data, err := json.Marshal(snap.Data())
	if err != nil {
		return nil, mdwerror.Wrap(err, "failed to encode snapshot").WithCode(mdwerror.CodeInternal)
	}
	return data, nil
}

func decodeSnapshot(data []byte) (sheet.Snapshot, error) {
	var d sheet.Data
	if err := json.Unmarshal(data, &d); err != nil {
		return sheet.Snapshot{}, mdwerror.Wrap(err, "failed to decode snapshot").WithCode(mdwerror.CodeDataCorruption)
	}
	snap, err := sheet.FromData(d)
	if err != nil {
		return sheet.Snapshot{}, mdwerror.Wrap(err, "stored snapshot is invalid").WithCode(mdwerror.CodeDataCorruption)
	}
	return snap, nil
}
