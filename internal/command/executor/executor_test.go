// File: executor_test.go
// Title: Grid Command Executor Tests
// Description: Tests for every catalog operation, the fold semantics and
//              the documented edge cases of aggregates and ranges.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-15
// Modified: 2026-10-15
//
// Change History:
// - 2026-10-15 v0.1.0: Initial executor test suite

package executor

import (
	"reflect"
	"strings"
	"testing"

	mdwerror "github.com/msto63/gridwerk/foundation/core/error"
	"github.com/msto63/gridwerk/internal/command/parser"
	"github.com/msto63/gridwerk/internal/sheet"
)

func run(t *testing.T, snap sheet.Snapshot, input string) (Outcome, error) {
	t.Helper()
	cmds, err := parser.Parse(input)
	if err != nil {
		t.Fatalf("Parse(%q) error = %v", input, err)
	}
	return New(nil).Execute(cmds, snap)
}

func mustRun(t *testing.T, snap sheet.Snapshot, input string) Outcome {
	t.Helper()
	out, err := run(t, snap, input)
	if err != nil {
		t.Fatalf("Execute(%q) error = %v", input, err)
	}
	return out
}

func lastResult(out Outcome) string {
	if len(out.Lines) == 0 {
		return ""
	}
	return out.Lines[len(out.Lines)-1].Result
}

func grid(t *testing.T, rows, cols int, values map[string]string) sheet.Snapshot {
	t.Helper()
	cells := make(map[string]sheet.Cell, len(values))
	for k, v := range values {
		cells[k] = sheet.Cell{Value: v}
	}
	s, err := sheet.FromData(sheet.Data{Cells: cells, RowCount: rows, ColumnCount: cols})
	if err != nil {
		t.Fatalf("FromData() error = %v", err)
	}
	return s
}

func TestExecute_Scenario(t *testing.T) {
	snap := sheet.New(3, 3)

	out := mustRun(t, snap, `update_cell(A,1,"5"), update_cell(B,1,"10"), sum_row(1)`)
	wantText := "update_cell(A,1,\"5\"): Cell A1 updated.\n" +
		"update_cell(B,1,\"10\"): Cell B1 updated.\n" +
		"sum_row(1): 15"
	if out.Text() != wantText {
		t.Errorf("Text() = %q, want %q", out.Text(), wantText)
	}

	out = mustRun(t, out.Snapshot, "del_col(A), get_cell(A,1)")
	if got := lastResult(out); got != "10" {
		t.Errorf("get_cell(A,1) = %q, want 10", got)
	}
	if out.Lines[0].Result != "Column A deleted." {
		t.Errorf("del_col result = %q", out.Lines[0].Result)
	}
	if out.Snapshot.ColumnCount() != 2 {
		t.Errorf("ColumnCount() = %d, want 2", out.Snapshot.ColumnCount())
	}

	if snap.Len() != 0 {
		t.Error("the input snapshot was modified")
	}
}

func TestExecute_Errors(t *testing.T) {
	tests := []struct {
		name     string
		snap     sheet.Snapshot
		input    string
		wantCode mdwerror.Code
		mention  []string
	}{
		{
			name:     "column beyond count",
			snap:     sheet.New(3, 5),
			input:    "sum_col(Z)",
			wantCode: mdwerror.CodeOutOfBounds,
			mention:  []string{"sum_col(Z)", "Z"},
		},
		{
			name:     "unknown function",
			snap:     sheet.New(3, 3),
			input:    "foo(1,2)",
			wantCode: mdwerror.CodeUnknownFunction,
			mention:  []string{"foo"},
		},
		{
			name:     "row beyond count",
			snap:     sheet.New(3, 3),
			input:    "get_cell(A,4)",
			wantCode: mdwerror.CodeOutOfBounds,
			mention:  []string{"row 4"},
		},
		{
			name:     "row zero",
			snap:     sheet.New(3, 3),
			input:    "del_row(0)",
			wantCode: mdwerror.CodeOutOfBounds,
		},
		{
			name:     "wrong arity",
			snap:     sheet.New(3, 3),
			input:    "update_cell(A,1)",
			wantCode: mdwerror.CodeInvalidArguments,
			mention:  []string{"update_cell(col: string, row: integer, value: string|number)"},
		},
		{
			name:     "numeric column",
			snap:     sheet.New(3, 3),
			input:    "get_cell(1,1)",
			wantCode: mdwerror.CodeInvalidArguments,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.snap, tt.input)
			if !mdwerror.HasCode(err, tt.wantCode) {
				t.Fatalf("Execute() error = %v, want code %s", err, tt.wantCode)
			}
			for _, m := range tt.mention {
				if !strings.Contains(err.Error(), m) {
					t.Errorf("error %q does not mention %q", err.Error(), m)
				}
			}
		})
	}
}

func TestExecute_StopsAtFirstErrorKeepingPartialSnapshot(t *testing.T) {
	out, err := run(t, sheet.New(2, 2), "update_cell(A,1,x), get_cell(C,1), update_cell(B,1,y)")
	if !mdwerror.HasCode(err, mdwerror.CodeOutOfBounds) {
		t.Fatalf("Execute() error = %v, want out of bounds", err)
	}
	if len(out.Lines) != 1 {
		t.Errorf("got %d lines, want 1", len(out.Lines))
	}
	if out.Snapshot.Value(sheet.Key{Column: "A", Row: 1}) != "x" {
		t.Error("partial snapshot lost the first update")
	}
	if out.Snapshot.Value(sheet.Key{Column: "B", Row: 1}) != "" {
		t.Error("command after the failure was executed")
	}

	mdwErr, ok := mdwerror.As(err)
	if !ok {
		t.Fatal("error is not a foundation error")
	}
	if idx, _ := mdwErr.Detail("index"); idx != 1 {
		t.Errorf("Detail(index) = %v, want 1", idx)
	}
}

func TestExecute_RoundTrip(t *testing.T) {
	for _, v := range []string{"hello", "3.14", "", "a, b"} {
		out := mustRun(t, sheet.New(2, 2), `update_cell(B,2,"`+v+`"), get_cell(B,2)`)
		if got := lastResult(out); got != v {
			t.Errorf("get_cell after update_cell(%q) = %q", v, got)
		}
	}
}

func TestExecute_CellOperations(t *testing.T) {
	style := &sheet.Style{FontWeight: "bold"}
	b := sheet.New(2, 2).Mutate()
	b.Set(sheet.Key{Column: "A", Row: 1}, sheet.Cell{Value: "old", Style: style})
	snap := b.Freeze()

	tests := []struct {
		name  string
		input string
		check func(t *testing.T, out Outcome)
	}{
		{
			name:  "update keeps style",
			input: "update_cell(A,1,new)",
			check: func(t *testing.T, out Outcome) {
				c, _ := out.Snapshot.Cell(sheet.Key{Column: "A", Row: 1})
				if c.Value != "new" || c.Style != style {
					t.Errorf("cell = %+v, want new value with style", c)
				}
			},
		},
		{
			name:  "numeric value is stored in canonical form",
			input: "update_cell(A,2,5.50)",
			check: func(t *testing.T, out Outcome) {
				if got := out.Snapshot.Value(sheet.Key{Column: "A", Row: 2}); got != "5.5" {
					t.Errorf("value = %q, want 5.5", got)
				}
			},
		},
		{
			name:  "remove blanks in place",
			input: "remove_cell(A,1)",
			check: func(t *testing.T, out Outcome) {
				c, ok := out.Snapshot.Cell(sheet.Key{Column: "A", Row: 1})
				if !ok || c.Value != "" || c.Style != style {
					t.Errorf("cell = %+v, %v, want blank styled cell", c, ok)
				}
				if lastResult(out) != "Cell A1 cleared." {
					t.Errorf("result = %q", lastResult(out))
				}
			},
		},
		{
			name:  "remove of empty cell creates nothing",
			input: "remove_cell(B,2)",
			check: func(t *testing.T, out Outcome) {
				if _, ok := out.Snapshot.Cell(sheet.Key{Column: "B", Row: 2}); ok {
					t.Error("remove_cell created a cell")
				}
			},
		},
		{
			name:  "get of empty cell",
			input: "get_cell(B,2)",
			check: func(t *testing.T, out Outcome) {
				if lastResult(out) != "" {
					t.Errorf("result = %q, want empty", lastResult(out))
				}
			},
		},
		{
			name:  "lowercase column letter",
			input: "get_cell(a,1)",
			check: func(t *testing.T, out Outcome) {
				if lastResult(out) != "old" {
					t.Errorf("result = %q, want old", lastResult(out))
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, mustRun(t, snap, tt.input))
		})
	}
}

func TestExecute_Aggregates(t *testing.T) {
	snap := grid(t, 3, 3, map[string]string{
		"A1": "5", "A2": "x", "A3": "-2.5",
		"B1": "10", "B2": "", "B3": "1e2",
		"C1": "abc",
	})

	tests := []struct {
		input string
		want  string
	}{
		{"sum_col(A)", "2.5"},
		{"avg_col(A)", "1.25"},
		{"count_col(A)", "2"},
		{"max_col(A)", "5"},
		{"min_col(A)", "-2.5"},
		{"sum_col(C)", "0"},
		{"avg_col(C)", "0"},
		{"count_col(C)", "0"},
		{"max_col(C)", "-Infinity"},
		{"min_col(C)", "Infinity"},
		{"sum_row(1)", "15"},
		{"avg_row(1)", "7.5"},
		{"count_row(3)", "2"},
		{"max_row(3)", "100"},
		{"min_row(2)", "Infinity"},
		{"sum_range(A,1,B,3)", "112.5"},
		{"avg_range(A,1,B,1)", "7.5"},
		{"sum_range(C,1,C,3)", "0"},
		{"avg_range(C,1,C,3)", "0"},
		{"sum_range(B,3,A,1)", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := lastResult(mustRun(t, snap, tt.input)); got != tt.want {
				t.Errorf("%s = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestExecute_Structure(t *testing.T) {
	tests := []struct {
		name  string
		input string
		check func(t *testing.T, out Outcome)
	}{
		{
			name:  "add_row",
			input: "add_row()",
			check: func(t *testing.T, out Outcome) {
				if out.Snapshot.RowCount() != 3 || lastResult(out) != "Row added." {
					t.Errorf("rows = %d, result = %q", out.Snapshot.RowCount(), lastResult(out))
				}
			},
		},
		{
			name:  "del_row shifts rows up",
			input: "del_row(1)",
			check: func(t *testing.T, out Outcome) {
				s := out.Snapshot
				if s.RowCount() != 1 || s.Value(sheet.Key{Column: "A", Row: 1}) != "a2" {
					t.Errorf("unexpected grid: %+v", s.Data())
				}
				if lastResult(out) != "Row 1 deleted." {
					t.Errorf("result = %q", lastResult(out))
				}
			},
		},
		{
			name:  "add_col",
			input: "add_col()",
			check: func(t *testing.T, out Outcome) {
				if !reflect.DeepEqual(out.Snapshot.Labels(), []string{"A", "B", "C"}) {
					t.Errorf("Labels() = %v", out.Snapshot.Labels())
				}
				if lastResult(out) != "Column added." {
					t.Errorf("result = %q", lastResult(out))
				}
			},
		},
		{
			name:  "del_col then add_col does not resurrect",
			input: "del_col(B), add_col(), get_cell(B,1), get_cell(B,2)",
			check: func(t *testing.T, out Outcome) {
				for _, l := range out.Lines[2:] {
					if l.Result != "" {
						t.Errorf("%s = %q, want empty", l.Command.Source, l.Result)
					}
				}
			},
		},
		{
			name:  "clear_range blanks the rectangle",
			input: "clear_range(A,1,A,2)",
			check: func(t *testing.T, out Outcome) {
				s := out.Snapshot
				if s.Value(sheet.Key{Column: "A", Row: 1}) != "" || s.Value(sheet.Key{Column: "A", Row: 2}) != "" {
					t.Errorf("column A not cleared: %+v", s.Data())
				}
				if s.Value(sheet.Key{Column: "B", Row: 1}) != "b1" {
					t.Error("clear_range touched a cell outside the rectangle")
				}
				if lastResult(out) != "Range cleared." {
					t.Errorf("result = %q", lastResult(out))
				}
			},
		},
		{
			name:  "reversed clear_range is a no-op",
			input: "clear_range(B,2,A,1)",
			check: func(t *testing.T, out Outcome) {
				if out.Snapshot.Value(sheet.Key{Column: "A", Row: 1}) != "a1" {
					t.Error("reversed range cleared cells")
				}
			},
		},
		{
			name:  "clear_all keeps the shape",
			input: "clear_all()",
			check: func(t *testing.T, out Outcome) {
				s := out.Snapshot
				if s.Len() != 0 || s.RowCount() != 2 || s.ColumnCount() != 2 {
					t.Errorf("unexpected grid: %+v", s.Data())
				}
				if lastResult(out) != "Spreadsheet cleared." {
					t.Errorf("result = %q", lastResult(out))
				}
			},
		},
	}

	base := grid(t, 2, 2, map[string]string{"A1": "a1", "A2": "a2", "B1": "b1", "B2": "b2"})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, mustRun(t, base, tt.input))
		})
	}
}

func TestExecute_FindCell(t *testing.T) {
	snap := grid(t, 3, 3, map[string]string{"C1": "x", "A2": "x", "B1": "x", "A3": "y", "C3": "5"})

	tests := []struct {
		input string
		want  string
	}{
		{"find_cell(x)", "B1, C1, A2"},
		{"find_cell(5)", "C3"},
		{`find_cell("z")`, "Value not found."},
	}

	for _, tt := range tests {
		if got := lastResult(mustRun(t, snap, tt.input)); got != tt.want {
			t.Errorf("%s = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestExecute_ReplaceAll(t *testing.T) {
	style := &sheet.Style{Color: "red"}
	b := grid(t, 2, 2, map[string]string{"A1": "n/a", "B2": "n/a", "B1": "ok"}).Mutate()
	b.Set(sheet.Key{Column: "A", Row: 2}, sheet.Cell{Value: "n/a", Style: style})
	snap := b.Freeze()

	out := mustRun(t, snap, `replace_all("n/a", 0), replace_all("n/a", 0)`)
	if out.Lines[0].Result != "Replaced 3 instances." {
		t.Errorf("first replace = %q", out.Lines[0].Result)
	}
	if out.Lines[1].Result != "Replaced 0 instances." {
		t.Errorf("second replace = %q", out.Lines[1].Result)
	}
	c, _ := out.Snapshot.Cell(sheet.Key{Column: "A", Row: 2})
	if c.Value != "0" || c.Style != style {
		t.Errorf("A2 = %+v, want 0 with style kept", c)
	}
	if out.Snapshot.Value(sheet.Key{Column: "B", Row: 1}) != "ok" {
		t.Error("replace_all touched a non-matching cell")
	}
}

func TestOutcome_Changed(t *testing.T) {
	snap := sheet.New(2, 2)
	if mustRun(t, snap, "get_cell(A,1), sum_row(1)").Changed(snap) {
		t.Error("read-only commands reported a change")
	}
	if !mustRun(t, snap, "add_row()").Changed(snap) {
		t.Error("add_row did not report a change")
	}
}
