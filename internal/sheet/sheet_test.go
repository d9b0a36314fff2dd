package sheet

import (
	"math"
	"reflect"
	"testing"

	mdwerror "github.com/msto63/gridwerk/foundation/core/error"
)

func TestDefaultLabel(t *testing.T) {
	tests := []struct {
		index int
		want  string
	}{
		{0, "A"},
		{25, "Z"},
		{26, "AA"},
		{51, "AZ"},
		{52, "BA"},
		{701, "ZZ"},
		{702, "AAA"},
		{-1, ""},
	}

	for _, tt := range tests {
		if got := DefaultLabel(tt.index); got != tt.want {
			t.Errorf("DefaultLabel(%d) = %q, want %q", tt.index, got, tt.want)
		}
	}
}

func TestSnapshot_ResolveColumn(t *testing.T) {
	b := New(3, 4).Mutate()
	if err := b.RenameColumn(1, "Total"); err != nil {
		t.Fatalf("RenameColumn() error = %v", err)
	}
	s := b.Freeze()

	tests := []struct {
		ref    string
		want   int
		wantOK bool
	}{
		{"A", 0, true},
		{"a", 0, true},
		{"Total", 1, true},
		{"B", -1, false}, // slot 1 was renamed
		{"C", 2, true},
		{"E", -1, false}, // beyond the column count
		{"AA", -1, false},
		{"", -1, false},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			got, ok := s.ResolveColumn(tt.ref)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ResolveColumn(%q) = %d, %v, want %d, %v", tt.ref, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestSnapshot_MutateLeavesOriginalUntouched(t *testing.T) {
	orig := New(2, 2)
	b := orig.Mutate()
	b.Set(Key{"A", 1}, Cell{Value: "x"})
	b.AddRow()
	b.AddColumn()
	next := b.Freeze()

	if orig.Len() != 0 || orig.RowCount() != 2 || orig.ColumnCount() != 2 {
		t.Errorf("original changed: len=%d rows=%d cols=%d", orig.Len(), orig.RowCount(), orig.ColumnCount())
	}
	if next.Value(Key{"A", 1}) != "x" || next.RowCount() != 3 || next.ColumnCount() != 3 {
		t.Errorf("new snapshot missing changes: %+v", next.Data())
	}

	labels := next.Labels()
	labels[0] = "mutated"
	if next.Label(0) != "A" {
		t.Error("Labels() exposed internal state")
	}
}

func TestBuilder_SetValueKeepsStyle(t *testing.T) {
	style := &Style{FontWeight: "bold"}
	b := New(1, 1).Mutate()
	b.Set(Key{"A", 1}, Cell{Value: "old", Style: style})
	b.SetValue(Key{"A", 1}, "new")
	s := b.Freeze()

	c, _ := s.Cell(Key{"A", 1})
	if c.Value != "new" || c.Style != style {
		t.Errorf("Cell() = %+v, want value new with original style", c)
	}
}

func TestBuilder_DeleteColumn(t *testing.T) {
	tests := []struct {
		name       string
		cols       int
		rename     map[int]string
		cells      map[Key]string
		delete     int
		wantLabels []string
		wantCells  map[string]string
	}{
		{
			name:       "default labels shift",
			cols:       3,
			cells:      map[Key]string{{"A", 1}: "5", {"B", 1}: "10", {"C", 2}: "x"},
			delete:     0,
			wantLabels: []string{"A", "B"},
			wantCells:  map[string]string{"A1": "10", "B2": "x"},
		},
		{
			name:       "renamed label travels",
			cols:       3,
			rename:     map[int]string{2: "Total"},
			cells:      map[Key]string{{"A", 1}: "1", {"Total", 1}: "9"},
			delete:     1,
			wantLabels: []string{"A", "Total"},
			wantCells:  map[string]string{"A1": "1", "Total1": "9"},
		},
		{
			name:       "regenerated label avoids renamed one",
			cols:       4,
			rename:     map[int]string{1: "C", 2: "Q"},
			cells:      map[Key]string{{"D", 1}: "d"},
			delete:     0,
			wantLabels: []string{"C", "Q", "C_2"},
			wantCells:  map[string]string{"C_21": "d"},
		},
		{
			name:       "last column",
			cols:       2,
			cells:      map[Key]string{{"A", 1}: "a", {"B", 1}: "b"},
			delete:     1,
			wantLabels: []string{"A"},
			wantCells:  map[string]string{"A1": "a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New(2, tt.cols).Mutate()
			// park renamed slots first so targets like B->C are free
			for i := range tt.rename {
				if err := b.RenameColumn(i, "tmp"+DefaultLabel(i)); err != nil {
					t.Fatalf("RenameColumn() error = %v", err)
				}
			}
			for i, l := range tt.rename {
				if err := b.RenameColumn(i, l); err != nil {
					t.Fatalf("RenameColumn(%d, %q) error = %v", i, l, err)
				}
			}
			for k, v := range tt.cells {
				b.Set(k, Cell{Value: v})
			}
			b.DeleteColumn(tt.delete)
			s := b.Freeze()

			if !reflect.DeepEqual(s.Labels(), tt.wantLabels) {
				t.Errorf("Labels() = %v, want %v", s.Labels(), tt.wantLabels)
			}
			if s.ColumnCount() != len(tt.wantLabels) {
				t.Errorf("ColumnCount() = %d, want %d", s.ColumnCount(), len(tt.wantLabels))
			}
			got := map[string]string{}
			for k, c := range s.Data().Cells {
				got[k] = c.Value
			}
			if !reflect.DeepEqual(got, tt.wantCells) {
				t.Errorf("cells = %v, want %v", got, tt.wantCells)
			}
		})
	}
}

func TestBuilder_AddColumnAvoidsCollision(t *testing.T) {
	b := New(1, 2).Mutate()
	if err := b.RenameColumn(0, "C"); err != nil {
		t.Fatalf("RenameColumn() error = %v", err)
	}
	got := b.AddColumn()
	if got != "C_2" {
		t.Errorf("AddColumn() = %q, want C_2", got)
	}
	if got := b.AddColumn(); got != "D" {
		t.Errorf("AddColumn() = %q, want D", got)
	}
}

func TestBuilder_DeleteRow(t *testing.T) {
	b := New(3, 1).Mutate()
	b.Set(Key{"A", 1}, Cell{Value: "1"})
	b.Set(Key{"A", 2}, Cell{Value: "2"})
	b.Set(Key{"A", 3}, Cell{Value: "3"})
	b.DeleteRow(2)
	s := b.Freeze()

	if s.RowCount() != 2 {
		t.Errorf("RowCount() = %d, want 2", s.RowCount())
	}
	if s.Value(Key{"A", 1}) != "1" || s.Value(Key{"A", 2}) != "3" {
		t.Errorf("unexpected cells: %v", s.Data().Cells)
	}
	if _, ok := s.Cell(Key{"A", 3}); ok {
		t.Error("row 3 should be empty after the shift")
	}
}

func TestBuilder_RenameColumn(t *testing.T) {
	tests := []struct {
		name     string
		index    int
		label    string
		wantCode mdwerror.Code
	}{
		{"valid", 0, "Price", ""},
		{"same label", 0, "A", ""},
		{"empty", 0, "  ", mdwerror.CodeInvalidInput},
		{"trailing digit", 0, "Q1", mdwerror.CodeInvalidInput},
		{"taken", 0, "B", mdwerror.CodeConflict},
		{"out of range", 5, "X", mdwerror.CodeOutOfBounds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New(1, 2).Mutate()
			b.Set(Key{"A", 1}, Cell{Value: "v"})
			err := b.RenameColumn(tt.index, tt.label)
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("RenameColumn() error = %v", err)
				}
				s := b.Freeze()
				if s.Value(Key{tt.label, 1}) != "v" {
					t.Errorf("cell did not follow the rename: %v", s.Data().Cells)
				}
				return
			}
			if !mdwerror.HasCode(err, tt.wantCode) {
				t.Errorf("RenameColumn() error = %v, want code %s", err, tt.wantCode)
			}
		})
	}
}

func TestSnapshot_Keys(t *testing.T) {
	b := New(2, 3).Mutate()
	for _, k := range []Key{{"C", 1}, {"A", 2}, {"A", 1}, {"B", 2}} {
		b.Set(k, Cell{Value: k.String()})
	}
	s := b.Freeze()

	var got []string
	for _, k := range s.Keys() {
		got = append(got, k.String())
	}
	want := []string{"A1", "C1", "A2", "B2"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Keys() = %v, want %v", got, want)
	}
}

func TestFromData(t *testing.T) {
	tests := []struct {
		name    string
		data    Data
		wantErr bool
		check   func(t *testing.T, s Snapshot)
	}{
		{
			name: "valid",
			data: Data{
				Cells:        map[string]Cell{"B2": {Value: "x"}, "Total1": {Value: "9"}},
				RowCount:     2,
				ColumnCount:  2,
				ColumnLabels: []string{"Total", "B"},
			},
			check: func(t *testing.T, s Snapshot) {
				if s.Value(Key{"B", 2}) != "x" || s.Value(Key{"Total", 1}) != "9" {
					t.Errorf("cells not decoded: %v", s.Data().Cells)
				}
			},
		},
		{
			name: "labels default when omitted",
			data: Data{RowCount: 1, ColumnCount: 3},
			check: func(t *testing.T, s Snapshot) {
				if !reflect.DeepEqual(s.Labels(), []string{"A", "B", "C"}) {
					t.Errorf("Labels() = %v", s.Labels())
				}
			},
		},
		{
			name: "longest label prefix wins",
			data: Data{
				Cells:        map[string]Cell{"AB3": {Value: "ab"}},
				RowCount:     3,
				ColumnCount:  2,
				ColumnLabels: []string{"A", "AB"},
			},
			check: func(t *testing.T, s Snapshot) {
				if s.Value(Key{"AB", 3}) != "ab" {
					t.Errorf("cells = %v", s.Data().Cells)
				}
			},
		},
		{name: "label count mismatch", data: Data{ColumnCount: 2, ColumnLabels: []string{"A"}}, wantErr: true},
		{name: "duplicate labels", data: Data{ColumnCount: 2, ColumnLabels: []string{"A", "A"}}, wantErr: true},
		{name: "row outside grid", data: Data{RowCount: 1, ColumnCount: 1, Cells: map[string]Cell{"A2": {}}}, wantErr: true},
		{name: "unknown column", data: Data{RowCount: 1, ColumnCount: 1, Cells: map[string]Cell{"Z1": {}}}, wantErr: true},
		{name: "negative count", data: Data{RowCount: -1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := FromData(tt.data)
			if (err != nil) != tt.wantErr {
				t.Fatalf("FromData() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !mdwerror.HasCode(err, mdwerror.CodeInvalidFormat) {
					t.Errorf("FromData() error code = %s, want %s", mdwerror.GetCode(err), mdwerror.CodeInvalidFormat)
				}
				return
			}
			if tt.check != nil {
				tt.check(t, s)
			}
		})
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{15, "15"},
		{-2.5, "-2.5"},
		{0.1 + 0.2, "0.30000000000000004"},
		{1e21, "1e+21"},
		{1e-7, "1e-7"},
		{123456789012, "123456789012"},
		{math.Copysign(0, -1), "0"},
		{math.Inf(1), "Infinity"},
		{math.Inf(-1), "-Infinity"},
	}

	for _, tt := range tests {
		if got := FormatNumber(tt.in); got != tt.want {
			t.Errorf("FormatNumber(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		wantOK bool
	}{
		{"5", 5, true},
		{" -1.5 ", -1.5, true},
		{"1e3", 1000, true},
		{"", 0, false},
		{"12abc", 0, false},
		{"Infinity", 0, false},
		{"NaN", 0, false},
	}

	for _, tt := range tests {
		got, ok := ParseNumber(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseNumber(%q) = %v, %v, want %v, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}
