package store

import (
	"context"
	"path/filepath"
	"testing"

	mdwerror "github.com/msto63/gridwerk/foundation/core/error"
	"github.com/msto63/gridwerk/internal/sheet"
)

// openStores returns one store per driver, each in its own temp directory
func openStores(t *testing.T) map[string]Store {
	t.Helper()

	sqlite, err := NewSQLiteStore(SQLiteConfig{Path: filepath.Join(t.TempDir(), "sheets.sqlite")})
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	bolt, err := NewBoltStore(BoltConfig{Path: filepath.Join(t.TempDir(), "sheets.db")})
	if err != nil {
		t.Fatalf("NewBoltStore() error = %v", err)
	}

	stores := map[string]Store{"sqlite": sqlite, "bolt": bolt}
	t.Cleanup(func() {
		for _, s := range stores {
			s.Close()
		}
	})
	return stores
}

func sampleSnapshot() sheet.Snapshot {
	b := sheet.New(3, 2).Mutate()
	b.SetValue(sheet.Key{Column: "A", Row: 1}, "5")
	b.Set(sheet.Key{Column: "B", Row: 2}, sheet.Cell{Value: "x", Style: &sheet.Style{FontWeight: "bold"}})
	return b.Freeze()
}

func TestStore_SheetLifecycle(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			sh := &Sheet{ID: "s1", Title: "Budget", Snapshot: sampleSnapshot()}
			if err := s.CreateSheet(ctx, sh); err != nil {
				t.Fatalf("CreateSheet() error = %v", err)
			}
			if sh.Version != 1 || sh.CreatedAt.IsZero() {
				t.Errorf("Version = %d, CreatedAt = %v", sh.Version, sh.CreatedAt)
			}

			err := s.CreateSheet(ctx, &Sheet{ID: "s1", Snapshot: sheet.New(1, 1)})
			if !mdwerror.HasCode(err, mdwerror.CodeDuplicateEntry) {
				t.Errorf("CreateSheet(duplicate) error = %v, want %s", err, mdwerror.CodeDuplicateEntry)
			}

			got, err := s.GetSheet(ctx, "s1")
			if err != nil {
				t.Fatalf("GetSheet() error = %v", err)
			}
			if got.Title != "Budget" || got.Snapshot.RowCount() != 3 || got.Snapshot.ColumnCount() != 2 {
				t.Errorf("GetSheet() = %+v", got)
			}
			if v := got.Snapshot.Value(sheet.Key{Column: "A", Row: 1}); v != "5" {
				t.Errorf("A1 = %q, want 5", v)
			}
			c, ok := got.Snapshot.Cell(sheet.Key{Column: "B", Row: 2})
			if !ok || c.Style == nil || c.Style.FontWeight != "bold" {
				t.Errorf("B2 = %+v, want styled cell", c)
			}

			b := got.Snapshot.Mutate()
			b.AddColumn()
			got.Snapshot = b.Freeze()
			got.Title = "Budget 2"
			if err := s.SaveSheet(ctx, got); err != nil {
				t.Fatalf("SaveSheet() error = %v", err)
			}
			if got.Version != 2 {
				t.Errorf("Version after save = %d, want 2", got.Version)
			}

			reloaded, _ := s.GetSheet(ctx, "s1")
			if reloaded.Snapshot.ColumnCount() != 3 || reloaded.Title != "Budget 2" || reloaded.Version != 2 {
				t.Errorf("reloaded = %+v", reloaded)
			}

			list, err := s.ListSheets(ctx)
			if err != nil || len(list) != 1 {
				t.Fatalf("ListSheets() = %v, %v", list, err)
			}
			if list[0].Columns != 3 || list[0].Rows != 3 {
				t.Errorf("Summary = %+v", list[0])
			}

			if err := s.DeleteSheet(ctx, "s1"); err != nil {
				t.Fatalf("DeleteSheet() error = %v", err)
			}
			if _, err := s.GetSheet(ctx, "s1"); !mdwerror.HasCode(err, mdwerror.CodeNotFound) {
				t.Errorf("GetSheet(deleted) error = %v, want %s", err, mdwerror.CodeNotFound)
			}
			if err := s.DeleteSheet(ctx, "s1"); !mdwerror.HasCode(err, mdwerror.CodeNotFound) {
				t.Errorf("DeleteSheet(deleted) error = %v, want %s", err, mdwerror.CodeNotFound)
			}
		})
	}
}

func TestStore_SaveUnknownSheet(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			err := s.SaveSheet(context.Background(), &Sheet{ID: "missing", Snapshot: sheet.New(1, 1)})
			if !mdwerror.HasCode(err, mdwerror.CodeNotFound) {
				t.Errorf("SaveSheet() error = %v, want %s", err, mdwerror.CodeNotFound)
			}
		})
	}
}

func TestStore_History(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if err := s.CreateSheet(ctx, &Sheet{ID: "h1", Snapshot: sheet.New(2, 2)}); err != nil {
				t.Fatalf("CreateSheet() error = %v", err)
			}

			commands := []string{"add_row()", "add_col()", "foo()"}
			for i, cmd := range commands {
				e := &HistoryEntry{SheetID: "h1", Command: cmd, Success: i < 2, Executed: 1, Source: "http"}
				if i == 2 {
					e.Error, e.ErrorCode, e.Executed = `unknown function "foo"`, "UNKNOWN_FUNCTION", 0
				}
				if err := s.AppendHistory(ctx, e); err != nil {
					t.Fatalf("AppendHistory() error = %v", err)
				}
				if e.ID == 0 {
					t.Error("AppendHistory() did not assign an ID")
				}
			}

			all, err := s.History(ctx, "h1", 0)
			if err != nil {
				t.Fatalf("History() error = %v", err)
			}
			if len(all) != 3 || all[0].Command != "foo()" || all[2].Command != "add_row()" {
				t.Fatalf("History() = %+v, want newest first", all)
			}
			if all[0].Success || all[0].ErrorCode != "UNKNOWN_FUNCTION" || !all[1].Success {
				t.Errorf("success flags or codes not preserved: %+v", all)
			}

			limited, _ := s.History(ctx, "h1", 2)
			if len(limited) != 2 || limited[1].Command != "add_col()" {
				t.Errorf("History(limit 2) = %+v", limited)
			}

			err = s.AppendHistory(ctx, &HistoryEntry{SheetID: "nope", Command: "add_row()"})
			if !mdwerror.HasCode(err, mdwerror.CodeNotFound) {
				t.Errorf("AppendHistory(unknown sheet) error = %v, want %s", err, mdwerror.CodeNotFound)
			}

			if err := s.DeleteSheet(ctx, "h1"); err != nil {
				t.Fatalf("DeleteSheet() error = %v", err)
			}
			if gone, _ := s.History(ctx, "h1", 0); len(gone) != 0 {
				t.Errorf("History after delete = %+v, want empty", gone)
			}
		})
	}
}

func TestStore_Ping(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.Ping(context.Background()); err != nil {
				t.Errorf("Ping() error = %v", err)
			}
		})
	}
}

func TestOpen(t *testing.T) {
	tests := []struct {
		driver  string
		wantErr bool
	}{
		{"sqlite", false},
		{"bolt", false},
		{"", false},
		{"csv", true},
	}

	for _, tt := range tests {
		t.Run("driver "+tt.driver, func(t *testing.T) {
			s, err := Open(tt.driver, filepath.Join(t.TempDir(), "db"))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Open() error = %v, wantErr %v", err, tt.wantErr)
			}
			if s != nil {
				s.Close()
			}
		})
	}
}
