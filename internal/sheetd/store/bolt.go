package store

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.etcd.io/bbolt"

	mdwerror "github.com/msto63/gridwerk/foundation/core/error"
	"github.com/msto63/gridwerk/internal/sheet"
)

var (
	sheetsBucket  = []byte("sheets")
	historyBucket = []byte("history")
)

// BoltStore implements Store on an embedded bbolt file. Sheets live in one
// bucket keyed by ID, history in one sub-bucket per sheet keyed by sequence.
type BoltStore struct {
	db *bbolt.DB
}

// BoltConfig holds configuration for the bbolt store
type BoltConfig struct {
	Path    string
	Timeout time.Duration
}

type boltRecord struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Version   int64      `json:"version"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	Snapshot  sheet.Data `json:"snapshot"`
}

// NewBoltStore opens (and if needed creates) a bbolt sheet store
func NewBoltStore(cfg BoltConfig) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = time.Second
	}

	db, err := bbolt.Open(cfg.Path, 0600, &bbolt.Options{Timeout: cfg.Timeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(sheetsBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(historyBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize buckets: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// CreateSheet inserts a new sheet
func (s *BoltStore) CreateSheet(ctx context.Context, sh *Sheet) error {
	if sh.ID == "" {
		return mdwerror.New("sheet ID is required").WithCode(mdwerror.CodeInvalidInput)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	now := time.Now().UTC()
	if sh.CreatedAt.IsZero() {
		sh.CreatedAt = now
	}
	sh.UpdatedAt = now
	sh.Version = 1

	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(sheetsBucket)
		if b.Get([]byte(sh.ID)) != nil {
			return duplicate(sh.ID)
		}
		return putRecord(b, sh)
	})
}

// GetSheet loads a sheet by ID
func (s *BoltStore) GetSheet(ctx context.Context, id string) (*Sheet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var sh *Sheet
	err := s.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(sheetsBucket).Get([]byte(id))
		if raw == nil {
			return notFound(id)
		}
		var err error
		sh, err = decodeRecord(raw)
		return err
	})
	return sh, err
}

// SaveSheet stores a new snapshot for an existing sheet
func (s *BoltStore) SaveSheet(ctx context.Context, sh *Sheet) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(sheetsBucket)
		raw := b.Get([]byte(sh.ID))
		if raw == nil {
			return notFound(sh.ID)
		}
		current, err := decodeRecord(raw)
		if err != nil {
			return err
		}

		sh.CreatedAt = current.CreatedAt
		sh.Version = current.Version + 1
		sh.UpdatedAt = time.Now().UTC()
		return putRecord(b, sh)
	})
}

// DeleteSheet removes a sheet and its history
func (s *BoltStore) DeleteSheet(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(sheetsBucket)
		if b.Get([]byte(id)) == nil {
			return notFound(id)
		}
		if err := b.Delete([]byte(id)); err != nil {
			return dbError(err, "delete sheet")
		}
		h := tx.Bucket(historyBucket)
		if h.Bucket([]byte(id)) != nil {
			if err := h.DeleteBucket([]byte(id)); err != nil {
				return dbError(err, "delete history")
			}
		}
		return nil
	})
}

// ListSheets returns all sheets, most recently updated first
func (s *BoltStore) ListSheets(ctx context.Context) ([]Summary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var sheets []Summary
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(sheetsBucket).ForEach(func(_, v []byte) error {
			sh, err := decodeRecord(v)
			if err != nil {
				return err
			}
			sheets = append(sheets, summarize(sh))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(sheets, func(i, j int) bool {
		if !sheets[i].UpdatedAt.Equal(sheets[j].UpdatedAt) {
			return sheets[i].UpdatedAt.After(sheets[j].UpdatedAt)
		}
		return sheets[i].ID < sheets[j].ID
	})
	return sheets, nil
}

// AppendHistory records a command run
func (s *BoltStore) AppendHistory(ctx context.Context, e *HistoryEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		if tx.Bucket(sheetsBucket).Get([]byte(e.SheetID)) == nil {
			return notFound(e.SheetID)
		}
		b, err := tx.Bucket(historyBucket).CreateBucketIfNotExists([]byte(e.SheetID))
		if err != nil {
			return dbError(err, "append history")
		}

		seq, err := b.NextSequence()
		if err != nil {
			return dbError(err, "append history")
		}
		e.ID = int64(seq)

		data, err := json.Marshal(e)
		if err != nil {
			return dbError(err, "append history")
		}
		return b.Put(sequenceKey(seq), data)
	})
}

// History returns the newest entries of a sheet first
func (s *BoltStore) History(ctx context.Context, sheetID string, limit int) ([]HistoryEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var entries []HistoryEntry
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(historyBucket).Bucket([]byte(sheetID))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(entries) >= limit {
				break
			}
			var e HistoryEntry
			if err := json.Unmarshal(v, &e); err != nil {
				return mdwerror.Wrap(err, "failed to decode history entry").WithCode(mdwerror.CodeDataCorruption)
			}
			entries = append(entries, e)
		}
		return nil
	})
	return entries, err
}

// Ping checks that the database file is open and readable
func (s *BoltStore) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(func(tx *bbolt.Tx) error {
		if tx.Bucket(sheetsBucket) == nil {
			return mdwerror.New("sheets bucket missing").WithCode(mdwerror.CodeDataCorruption)
		}
		return nil
	})
}

// Close closes the database
func (s *BoltStore) Close() error {
	return s.db.Close()
}

func putRecord(b *bbolt.Bucket, sh *Sheet) error {
	data, err := json.Marshal(boltRecord{
		ID:        sh.ID,
		Title:     sh.Title,
		Version:   sh.Version,
		CreatedAt: sh.CreatedAt,
		UpdatedAt: sh.UpdatedAt,
		Snapshot:  sh.Snapshot.Data(),
	})
	if err != nil {
		return mdwerror.Wrap(err, "failed to encode sheet").WithCode(mdwerror.CodeInternal)
	}
	return b.Put([]byte(sh.ID), data)
}

func decodeRecord(raw []byte) (*Sheet, error) {
	var rec boltRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, mdwerror.Wrap(err, "failed to decode sheet").WithCode(mdwerror.CodeDataCorruption)
	}
	snap, err := sheet.FromData(rec.Snapshot)
	if err != nil {
		return nil, mdwerror.Wrap(err, "stored snapshot is invalid").WithCode(mdwerror.CodeDataCorruption)
	}
	return &Sheet{
		ID:        rec.ID,
		Title:     rec.Title,
		Snapshot:  snap,
		Version:   rec.Version,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}, nil
}

func sequenceKey(seq uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, seq)
	return b
}
