// Package store persists sheets and their command history.
package store

import (
	"context"
	"fmt"
	"time"

	mdwerror "github.com/msto63/gridwerk/foundation/core/error"
	"github.com/msto63/gridwerk/internal/sheet"
)

// Sheet is a stored spreadsheet
type Sheet struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	Snapshot  sheet.Snapshot `json:"-"`
	Version   int64          `json:"version"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Summary is the list view of a sheet
type Summary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Rows      int       `json:"rows"`
	Columns   int       `json:"columns"`
	Version   int64     `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HistoryEntry records one command run against a sheet
type HistoryEntry struct {
	ID        int64     `json:"id"`
	SheetID   string    `json:"sheet_id"`
	Command   string    `json:"command"`
	Result    string    `json:"result"`
	Error     string    `json:"error,omitempty"`
	ErrorCode string    `json:"error_code,omitempty"`
	Success   bool      `json:"success"`
	Executed  int       `json:"executed"`
	Source    string    `json:"source"` // http, grpc, ws, assistant
	CreatedAt time.Time `json:"created_at"`
}

// Store defines sheet persistence
type Store interface {
	CreateSheet(ctx context.Context, s *Sheet) error
	GetSheet(ctx context.Context, id string) (*Sheet, error)
	// SaveSheet replaces title and snapshot and bumps the version
	SaveSheet(ctx context.Context, s *Sheet) error
	DeleteSheet(ctx context.Context, id string) error
	ListSheets(ctx context.Context) ([]Summary, error)

	AppendHistory(ctx context.Context, e *HistoryEntry) error
	// History returns the newest entries first, at most limit (0 means all)
	History(ctx context.Context, sheetID string, limit int) ([]HistoryEntry, error)

	Ping(ctx context.Context) error
	Close() error
}

// Open opens the store for driver ("sqlite" or "bolt") at path
func Open(driver, path string) (Store, error) {
	switch driver {
	case "sqlite", "":
		s, err := NewSQLiteStore(SQLiteConfig{Path: path})
		if err != nil {
			return nil, err
		}
		return s, nil
	case "bolt":
		s, err := NewBoltStore(BoltConfig{Path: path})
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, mdwerror.Newf("unknown store driver %q", driver).
			WithCode(mdwerror.CodeInvalidConfig)
	}
}

func notFound(id string) error {
	return mdwerror.Newf("sheet not found: %s", id).
		WithCode(mdwerror.CodeNotFound).
		WithDetail("sheet_id", id)
}

func duplicate(id string) error {
	return mdwerror.Newf("sheet already exists: %s", id).
		WithCode(mdwerror.CodeDuplicateEntry).
		WithDetail("sheet_id", id)
}

func dbError(err error, op string) error {
	return mdwerror.Wrap(err, fmt.Sprintf("failed to %s", op)).
		WithCode(mdwerror.CodeDatabaseError).
		WithOperation(op)
}

func summarize(s *Sheet) Summary {
	return Summary{
		ID:        s.ID,
		Title:     s.Title,
		Rows:      s.Snapshot.RowCount(),
		Columns:   s.Snapshot.ColumnCount(),
		Version:   s.Version,
		UpdatedAt: s.UpdatedAt,
	}
}
