package executor

import (
	"math"
	"strconv"
	"strings"

	mdwerror "github.com/msto63/gridwerk/foundation/core/error"
	"github.com/msto63/gridwerk/internal/command/ast"
	"github.com/msto63/gridwerk/internal/sheet"
)

// column resolves a column argument to its index and current label
func column(s sheet.Snapshot, arg ast.Arg) (int, string, error) {
	ref := arg.Text()
	i, ok := s.ResolveColumn(ref)
	if !ok {
		return 0, "", outOfBounds(ref, "column %s is out of bounds (%d columns)", ref, s.ColumnCount())
	}
	return i, s.Label(i), nil
}

// row checks a row argument against the row count. Arity checks have
// already made sure it is an integer.
func row(s sheet.Snapshot, arg ast.Arg) (int, error) {
	n := arg.(ast.NumberArg).Value
	if n < 1 || n > float64(s.RowCount()) {
		ref := arg.(ast.NumberArg).Literal
		if ref == "" {
			ref = sheet.FormatNumber(n)
		}
		return 0, outOfBounds(ref, "row %s is out of bounds (%d rows)", ref, s.RowCount())
	}
	return int(n), nil
}

func cellKey(s sheet.Snapshot, colArg, rowArg ast.Arg) (sheet.Key, error) {
	_, label, err := column(s, colArg)
	if err != nil {
		return sheet.Key{}, err
	}
	r, err := row(s, rowArg)
	if err != nil {
		return sheet.Key{}, err
	}
	return sheet.Key{Column: label, Row: r}, nil
}

func outOfBounds(coordinate, format string, args ...interface{}) error {
	return mdwerror.Newf(format, args...).
		WithCode(mdwerror.CodeOutOfBounds).
		WithDetail("coordinate", coordinate)
}

func updateCell(s sheet.Snapshot, args []ast.Arg) (sheet.Snapshot, string, error) {
	k, err := cellKey(s, args[0], args[1])
	if err != nil {
		return s, "", err
	}
	b := s.Mutate()
	b.SetValue(k, args[2].Text())
	return b.Freeze(), "Cell " + k.String() + " updated.", nil
}

func removeCell(s sheet.Snapshot, args []ast.Arg) (sheet.Snapshot, string, error) {
	k, err := cellKey(s, args[0], args[1])
	if err != nil {
		return s, "", err
	}
	msg := "Cell " + k.String() + " cleared."
	if _, ok := s.Cell(k); !ok {
		return s, msg, nil
	}
	b := s.Mutate()
	b.SetValue(k, "")
	return b.Freeze(), msg, nil
}

func getCell(s sheet.Snapshot, args []ast.Arg) (sheet.Snapshot, string, error) {
	k, err := cellKey(s, args[0], args[1])
	if err != nil {
		return s, "", err
	}
	return s, s.Value(k), nil
}

func addColumn(s sheet.Snapshot, _ []ast.Arg) (sheet.Snapshot, string, error) {
	b := s.Mutate()
	b.AddColumn()
	return b.Freeze(), "Column added.", nil
}

func deleteColumn(s sheet.Snapshot, args []ast.Arg) (sheet.Snapshot, string, error) {
	i, label, err := column(s, args[0])
	if err != nil {
		return s, "", err
	}
	b := s.Mutate()
	b.DeleteColumn(i)
	return b.Freeze(), "Column " + label + " deleted.", nil
}

func addRow(s sheet.Snapshot, _ []ast.Arg) (sheet.Snapshot, string, error) {
	b := s.Mutate()
	b.AddRow()
	return b.Freeze(), "Row added.", nil
}

func deleteRow(s sheet.Snapshot, args []ast.Arg) (sheet.Snapshot, string, error) {
	r, err := row(s, args[0])
	if err != nil {
		return s, "", err
	}
	b := s.Mutate()
	b.DeleteRow(r)
	return b.Freeze(), "Row " + strconv.Itoa(r) + " deleted.", nil
}

type aggregator func(values []string) string

func columnAggregate(agg aggregator) operation {
	return func(s sheet.Snapshot, args []ast.Arg) (sheet.Snapshot, string, error) {
		_, label, err := column(s, args[0])
		if err != nil {
			return s, "", err
		}
		values := make([]string, 0, s.RowCount())
		for r := 1; r <= s.RowCount(); r++ {
			values = append(values, s.Value(sheet.Key{Column: label, Row: r}))
		}
		return s, agg(values), nil
	}
}

func rowAggregate(agg aggregator) operation {
	return func(s sheet.Snapshot, args []ast.Arg) (sheet.Snapshot, string, error) {
		r, err := row(s, args[0])
		if err != nil {
			return s, "", err
		}
		values := make([]string, 0, s.ColumnCount())
		for i := 0; i < s.ColumnCount(); i++ {
			values = append(values, s.Value(sheet.Key{Column: s.Label(i), Row: r}))
		}
		return s, agg(values), nil
	}
}

type region struct {
	c1, r1, c2, r2 int
}

// keys lists the keys of the rectangle. A reversed rectangle is empty.
func (rg region) keys(s sheet.Snapshot) []sheet.Key {
	if rg.c1 > rg.c2 || rg.r1 > rg.r2 {
		return nil
	}
	keys := make([]sheet.Key, 0, (rg.c2-rg.c1+1)*(rg.r2-rg.r1+1))
	for r := rg.r1; r <= rg.r2; r++ {
		for c := rg.c1; c <= rg.c2; c++ {
			keys = append(keys, sheet.Key{Column: s.Label(c), Row: r})
		}
	}
	return keys
}

func decodeRegion(s sheet.Snapshot, args []ast.Arg) (region, error) {
	c1, _, err := column(s, args[0])
	if err != nil {
		return region{}, err
	}
	r1, err := row(s, args[1])
	if err != nil {
		return region{}, err
	}
	c2, _, err := column(s, args[2])
	if err != nil {
		return region{}, err
	}
	r2, err := row(s, args[3])
	if err != nil {
		return region{}, err
	}
	return region{c1: c1, r1: r1, c2: c2, r2: r2}, nil
}

func rangeAggregate(agg aggregator) operation {
	return func(s sheet.Snapshot, args []ast.Arg) (sheet.Snapshot, string, error) {
		rg, err := decodeRegion(s, args)
		if err != nil {
			return s, "", err
		}
		keys := rg.keys(s)
		values := make([]string, len(keys))
		for i, k := range keys {
			values[i] = s.Value(k)
		}
		return s, agg(values), nil
	}
}

func clearRange(s sheet.Snapshot, args []ast.Arg) (sheet.Snapshot, string, error) {
	rg, err := decodeRegion(s, args)
	if err != nil {
		return s, "", err
	}
	keys := rg.keys(s)
	if len(keys) == 0 {
		return s, "Range cleared.", nil
	}
	b := s.Mutate()
	for _, k := range keys {
		if _, ok := b.Cell(k); ok {
			b.SetValue(k, "")
		}
	}
	return b.Freeze(), "Range cleared.", nil
}

func clearAll(s sheet.Snapshot, _ []ast.Arg) (sheet.Snapshot, string, error) {
	b := s.Mutate()
	b.Clear()
	return b.Freeze(), "Spreadsheet cleared.", nil
}

func findCell(s sheet.Snapshot, args []ast.Arg) (sheet.Snapshot, string, error) {
	target := args[0].Text()
	var found []string
	for _, k := range s.Keys() {
		if s.Value(k) == target {
			found = append(found, k.String())
		}
	}
	if len(found) == 0 {
		return s, "Value not found.", nil
	}
	return s, strings.Join(found, ", "), nil
}

func replaceAll(s sheet.Snapshot, args []ast.Arg) (sheet.Snapshot, string, error) {
	oldValue, newValue := args[0].Text(), args[1].Text()
	b := s.Mutate()
	n := 0
	b.Each(func(k sheet.Key, c sheet.Cell) {
		if c.Value == oldValue {
			b.SetValue(k, newValue)
			n++
		}
	})
	return b.Freeze(), "Replaced " + strconv.Itoa(n) + " instances.", nil
}

func numbers(values []string) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if f, ok := sheet.ParseNumber(v); ok {
			out = append(out, f)
		}
	}
	return out
}

func sum(values []string) string {
	total := 0.0
	for _, f := range numbers(values) {
		total += f
	}
	return sheet.FormatNumber(total)
}

func avg(values []string) string {
	nums := numbers(values)
	if len(nums) == 0 {
		return "0"
	}
	total := 0.0
	for _, f := range nums {
		total += f
	}
	return sheet.FormatNumber(total / float64(len(nums)))
}

func count(values []string) string {
	return strconv.Itoa(len(numbers(values)))
}

// maximum yields -Infinity when there is nothing numeric to compare
func maximum(values []string) string {
	best := math.Inf(-1)
	for _, f := range numbers(values) {
		best = math.Max(best, f)
	}
	return sheet.FormatNumber(best)
}

// minimum yields Infinity when there is nothing numeric to compare
func minimum(values []string) string {
	best := math.Inf(1)
	for _, f := range numbers(values) {
		best = math.Min(best, f)
	}
	return sheet.FormatNumber(best)
}
