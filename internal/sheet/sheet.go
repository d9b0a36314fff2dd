// Package sheet holds the grid snapshot the command interpreter works on.
//
// A Snapshot is immutable. Every change goes through a Builder obtained from
// Mutate, which works on a private copy and hands back a new Snapshot on
// Freeze. Callers can therefore keep older snapshots around (history,
// rollback) without them being changed underneath.
package sheet

import (
	"sort"
	"strconv"
)

// Style carries presentation attributes. The interpreter never reads them,
// it only keeps them attached to their cell.
type Style struct {
	FontWeight      string `json:"fontWeight,omitempty" yaml:"fontWeight,omitempty"`
	FontStyle       string `json:"fontStyle,omitempty" yaml:"fontStyle,omitempty"`
	Color           string `json:"color,omitempty" yaml:"color,omitempty"`
	BackgroundColor string `json:"backgroundColor,omitempty" yaml:"backgroundColor,omitempty"`
	TextAlign       string `json:"textAlign,omitempty" yaml:"textAlign,omitempty"`
}

// Cell is a single grid entry. Style values are shared between snapshots
// and must not be modified in place.
type Cell struct {
	Value string `json:"value" yaml:"value"`
	Style *Style `json:"style,omitempty" yaml:"style,omitempty"`
}

// Key addresses a cell by column label and 1-based row
type Key struct {
	Column string
	Row    int
}

// String renders the key in its external form, e.g. "C3"
func (k Key) String() string {
	return k.Column + strconv.Itoa(k.Row)
}

// Snapshot is an immutable grid state
type Snapshot struct {
	cells  map[Key]Cell
	rows   int
	cols   int
	labels []string
}

// New creates an empty grid with default column labels
func New(rows, cols int) Snapshot {
	if rows < 0 {
		rows = 0
	}
	if cols < 0 {
		cols = 0
	}
	labels := make([]string, cols)
	for i := range labels {
		labels[i] = DefaultLabel(i)
	}
	return Snapshot{
		cells:  make(map[Key]Cell),
		rows:   rows,
		cols:   cols,
		labels: labels,
	}
}

// RowCount returns the number of rows
func (s Snapshot) RowCount() int { return s.rows }

// ColumnCount returns the number of columns
func (s Snapshot) ColumnCount() int { return s.cols }

// Labels returns a copy of the column labels in positional order
func (s Snapshot) Labels() []string {
	out := make([]string, len(s.labels))
	copy(out, s.labels)
	return out
}

// Label returns the label at a column index, or "" when out of range
func (s Snapshot) Label(index int) string {
	if index < 0 || index >= len(s.labels) {
		return ""
	}
	return s.labels[index]
}

// LabelIndex returns the index of the first label equal to label, or -1
func (s Snapshot) LabelIndex(label string) int {
	for i, l := range s.labels {
		if l == label {
			return i
		}
	}
	return -1
}

// Cell returns the cell stored under k
func (s Snapshot) Cell(k Key) (Cell, bool) {
	c, ok := s.cells[k]
	return c, ok
}

// Value returns the value stored under k, or "" for an empty cell
func (s Snapshot) Value(k Key) string {
	return s.cells[k].Value
}

// Len returns the number of stored cells
func (s Snapshot) Len() int { return len(s.cells) }

// Keys returns all stored keys in row-major order, columns in label order
func (s Snapshot) Keys() []Key {
	keys := make([]Key, 0, len(s.cells))
	for k := range s.cells {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Row != keys[j].Row {
			return keys[i].Row < keys[j].Row
		}
		return s.LabelIndex(keys[i].Column) < s.LabelIndex(keys[j].Column)
	})
	return keys
}

// Mutate returns a builder working on a private copy of the snapshot
func (s Snapshot) Mutate() *Builder {
	cells := make(map[Key]Cell, len(s.cells))
	for k, c := range s.cells {
		cells[k] = c
	}
	return &Builder{
		cells:  cells,
		rows:   s.rows,
		cols:   s.cols,
		labels: s.Labels(),
	}
}

// Builder collects changes for a new snapshot. It is single use.
type Builder struct {
	cells  map[Key]Cell
	rows   int
	cols   int
	labels []string
}

// Cell returns the cell currently stored under k
func (b *Builder) Cell(k Key) (Cell, bool) {
	c, ok := b.cells[k]
	return c, ok
}

// Set stores c under k
func (b *Builder) Set(k Key, c Cell) {
	b.cells[k] = c
}

// SetValue rewrites the value under k and keeps an existing style
func (b *Builder) SetValue(k Key, value string) {
	c := b.cells[k]
	c.Value = value
	b.cells[k] = c
}

// Delete removes the cell under k
func (b *Builder) Delete(k Key) {
	delete(b.cells, k)
}

// Clear removes every cell
func (b *Builder) Clear() {
	b.cells = make(map[Key]Cell)
}

// Each calls fn for every stored cell. fn may call SetValue or Delete.
func (b *Builder) Each(fn func(Key, Cell)) {
	keys := make([]Key, 0, len(b.cells))
	for k := range b.cells {
		keys = append(keys, k)
	}
	for _, k := range keys {
		fn(k, b.cells[k])
	}
}

// Freeze returns the new snapshot. The builder must not be used afterwards.
func (b *Builder) Freeze() Snapshot {
	s := Snapshot{
		cells:  b.cells,
		rows:   b.rows,
		cols:   b.cols,
		labels: b.labels,
	}
	b.cells = nil
	b.labels = nil
	return s
}
