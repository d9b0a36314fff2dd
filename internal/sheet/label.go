package sheet

import (
	"strconv"
	"strings"

	mdwerror "github.com/msto63/gridwerk/foundation/core/error"
)

// DefaultLabel returns the positional label for a 0-based column index:
// A..Z, AA..AZ, BA and so on.
func DefaultLabel(index int) string {
	if index < 0 {
		return ""
	}
	var b []byte
	for n := index + 1; n > 0; n /= 26 {
		n--
		b = append([]byte{byte('A' + n%26)}, b...)
	}
	return string(b)
}

// ResolveColumn maps a column reference to its index. The first exact label
// match wins. A single letter falls back to its alphabet position, but only
// while that slot still carries its default label.
func (s Snapshot) ResolveColumn(ref string) (int, bool) {
	if i := s.LabelIndex(ref); i >= 0 {
		return i, true
	}
	if len(ref) != 1 {
		return -1, false
	}
	letter := strings.ToUpper(ref)[0]
	if letter < 'A' || letter > 'Z' {
		return -1, false
	}
	i := int(letter - 'A')
	if i >= s.cols || s.labels[i] != DefaultLabel(i) {
		return -1, false
	}
	return i, true
}

func uniqueLabel(base string, taken func(string) bool) string {
	if !taken(base) {
		return base
	}
	for n := 2; ; n++ {
		candidate := base + "_" + strconv.Itoa(n)
		if !taken(candidate) {
			return candidate
		}
	}
}

// AddRow appends an empty row
func (b *Builder) AddRow() {
	b.rows++
}

// DeleteRow drops every cell of row and moves the rows below it up by one
func (b *Builder) DeleteRow(row int) {
	cells := make(map[Key]Cell, len(b.cells))
	for k, c := range b.cells {
		switch {
		case k.Row < row:
			cells[k] = c
		case k.Row > row:
			cells[Key{Column: k.Column, Row: k.Row - 1}] = c
		}
	}
	b.cells = cells
	b.rows--
}

// AddColumn appends a column labelled with the default label for the new
// position, suffixed with _2, _3... while that label is already in use.
func (b *Builder) AddColumn() string {
	label := uniqueLabel(DefaultLabel(b.cols), b.hasLabel)
	b.labels = append(b.labels, label)
	b.cols++
	return label
}

// DeleteColumn removes the column at index together with its label and
// cells. Columns to the right move one slot left. A moved column that still
// carried its default label takes the default label of its new slot, a
// renamed column keeps its name. Cells follow their column.
func (b *Builder) DeleteColumn(index int) {
	old := b.labels

	fixed := make(map[string]bool, len(old))
	for j, l := range old {
		if j != index && (j < index || l != DefaultLabel(j)) {
			fixed[l] = true
		}
	}

	labels := make([]string, 0, len(old)-1)
	assigned := make(map[string]bool, len(old))
	rename := make(map[string]string, len(old))
	for j, l := range old {
		if j == index {
			continue
		}
		next := l
		if !fixed[l] {
			next = uniqueLabel(DefaultLabel(len(labels)), func(c string) bool {
				return fixed[c] || assigned[c]
			})
		}
		assigned[next] = true
		rename[l] = next
		labels = append(labels, next)
	}

	deleted := old[index]
	cells := make(map[Key]Cell, len(b.cells))
	for k, c := range b.cells {
		if k.Column == deleted {
			continue
		}
		if to, ok := rename[k.Column]; ok {
			cells[Key{Column: to, Row: k.Row}] = c
		}
	}

	b.cells = cells
	b.labels = labels
	b.cols--
}

// RenameColumn gives the column at index a new label and moves its cells
func (b *Builder) RenameColumn(index int, label string) error {
	label = strings.TrimSpace(label)
	if label == "" {
		return mdwerror.New("column label cannot be empty").WithCode(mdwerror.CodeInvalidInput)
	}
	if index < 0 || index >= b.cols {
		return mdwerror.Newf("column index %d is out of bounds", index).
			WithCode(mdwerror.CodeOutOfBounds).
			WithDetail("coordinate", strconv.Itoa(index))
	}
	// "Q1" next to "Q" would make the external key "Q11" ambiguous
	if strings.TrimRightFunc(label, isDigit) != label {
		return mdwerror.Newf("column label %q cannot end with a digit", label).
			WithCode(mdwerror.CodeInvalidInput)
	}
	old := b.labels[index]
	if old == label {
		return nil
	}
	if b.hasLabel(label) {
		return mdwerror.Newf("column label %q is already in use", label).WithCode(mdwerror.CodeConflict)
	}

	cells := make(map[Key]Cell, len(b.cells))
	for k, c := range b.cells {
		if k.Column == old {
			k.Column = label
		}
		cells[k] = c
	}
	b.cells = cells
	b.labels[index] = label
	return nil
}

func (b *Builder) hasLabel(label string) bool {
	for _, l := range b.labels {
		if l == label {
			return true
		}
	}
	return false
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
