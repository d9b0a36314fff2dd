package sheet

import (
	"strconv"
	"strings"

	mdwerror "github.com/msto63/gridwerk/foundation/core/error"
)

// Data is the external form of a snapshot used by the API, the stores and
// snapshot files. Cells are keyed by their string key, e.g. "C3".
type Data struct {
	Cells        map[string]Cell `json:"cells" yaml:"cells"`
	RowCount     int             `json:"rowCount" yaml:"rowCount"`
	ColumnCount  int             `json:"columnCount" yaml:"columnCount"`
	ColumnLabels []string        `json:"columnLabels" yaml:"columnLabels"`
}

// Data returns the external form of the snapshot
func (s Snapshot) Data() Data {
	cells := make(map[string]Cell, len(s.cells))
	for k, c := range s.cells {
		cells[k.String()] = c
	}
	return Data{
		Cells:        cells,
		RowCount:     s.rows,
		ColumnCount:  s.cols,
		ColumnLabels: s.Labels(),
	}
}

// FromData validates d and builds a snapshot from it
func FromData(d Data) (Snapshot, error) {
	if d.RowCount < 0 || d.ColumnCount < 0 {
		return Snapshot{}, invalidData("row and column counts must not be negative")
	}

	labels := d.ColumnLabels
	if labels == nil && d.ColumnCount > 0 {
		labels = New(0, d.ColumnCount).labels
	}
	if len(labels) != d.ColumnCount {
		return Snapshot{}, invalidData("expected %d column labels, got %d", d.ColumnCount, len(labels))
	}

	seen := make(map[string]bool, len(labels))
	for _, l := range labels {
		if l == "" {
			return Snapshot{}, invalidData("column labels must not be empty")
		}
		if seen[l] {
			return Snapshot{}, invalidData("duplicate column label %q", l)
		}
		seen[l] = true
	}

	s := Snapshot{
		cells:  make(map[Key]Cell, len(d.Cells)),
		rows:   d.RowCount,
		cols:   d.ColumnCount,
		labels: append([]string(nil), labels...),
	}
	for raw, c := range d.Cells {
		k, err := s.ParseKey(raw)
		if err != nil {
			return Snapshot{}, err
		}
		s.cells[k] = c
	}
	return s, nil
}

// ParseKey decodes an external cell key against the snapshot's labels. The
// longest label that prefixes the key and leaves a valid row number wins.
func (s Snapshot) ParseKey(raw string) (Key, error) {
	best := -1
	for i, l := range s.labels {
		if !strings.HasPrefix(raw, l) || len(l) == len(raw) {
			continue
		}
		if best >= 0 && len(s.labels[best]) >= len(l) {
			continue
		}
		if _, err := strconv.Atoi(raw[len(l):]); err != nil {
			continue
		}
		best = i
	}
	if best < 0 {
		return Key{}, invalidData("cell key %q does not match any column", raw)
	}

	label := s.labels[best]
	row, _ := strconv.Atoi(raw[len(label):])
	if row < 1 || row > s.rows || raw[len(label)] == '+' || raw[len(label)] == '-' {
		return Key{}, invalidData("cell key %q is outside the grid", raw)
	}
	return Key{Column: label, Row: row}, nil
}

func invalidData(format string, args ...interface{}) error {
	return mdwerror.Newf(format, args...).WithCode(mdwerror.CodeInvalidFormat)
}
