// File: executor.go
// Title: Grid Command Executor
// Description: Applies parsed commands to a grid snapshot as a left fold.
//              Each step validates the call against the catalog, runs the
//              operation on the current snapshot and threads the resulting
//              snapshot into the next step. The first failure stops the
//              fold and the outcome keeps the partial snapshot.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-15
// Modified: 2026-10-15
//
// Change History:
// - 2026-10-15 v0.1.0: Initial implementation

package executor

import (
	"strings"

	mdwerror "github.com/msto63/gridwerk/foundation/core/error"
	"github.com/msto63/gridwerk/internal/command/ast"
	"github.com/msto63/gridwerk/internal/command/registry"
	"github.com/msto63/gridwerk/internal/sheet"
)

// Line is the result of one executed call
type Line struct {
	Command ast.ParsedCommand
	Result  string
}

// String renders the line as "<call text>: <result>"
func (l Line) String() string {
	return l.Command.Source + ": " + l.Result
}

// Outcome is the accumulated state of a fold
type Outcome struct {
	Snapshot sheet.Snapshot
	Lines    []Line
}

// Text joins all result lines with newlines
func (o Outcome) Text() string {
	parts := make([]string, len(o.Lines))
	for i, l := range o.Lines {
		parts[i] = l.String()
	}
	return strings.Join(parts, "\n")
}

// Changed reports whether any executed call produced a new snapshot
func (o Outcome) Changed(from sheet.Snapshot) bool {
	return !sameSnapshot(o.Snapshot, from)
}

type operation func(s sheet.Snapshot, args []ast.Arg) (sheet.Snapshot, string, error)

// Executor runs catalog functions against snapshots. It holds no grid state
// and is safe for concurrent use.
type Executor struct {
	registry   *registry.Registry
	operations map[string]operation
}

// New creates an executor for the given catalog. A nil registry means the
// built-in catalog.
func New(reg *registry.Registry) *Executor {
	if reg == nil {
		reg = registry.Default()
	}
	e := &Executor{registry: reg}
	e.operations = map[string]operation{
		"update_cell": updateCell,
		"remove_cell": removeCell,
		"get_cell":    getCell,

		"sum_col":   columnAggregate(sum),
		"avg_col":   columnAggregate(avg),
		"count_col": columnAggregate(count),
		"max_col":   columnAggregate(maximum),
		"min_col":   columnAggregate(minimum),
		"add_col":   addColumn,
		"del_col":   deleteColumn,

		"sum_row":   rowAggregate(sum),
		"avg_row":   rowAggregate(avg),
		"count_row": rowAggregate(count),
		"max_row":   rowAggregate(maximum),
		"min_row":   rowAggregate(minimum),
		"add_row":   addRow,
		"del_row":   deleteRow,

		"sum_range":   rangeAggregate(sum),
		"avg_range":   rangeAggregate(avg),
		"clear_range": clearRange,

		"clear_all":   clearAll,
		"find_cell":   findCell,
		"replace_all": replaceAll,
	}
	return e
}

// Execute folds commands over snap. On error the returned outcome holds
// the snapshot and lines produced before the failing call, and the error
// is prefixed with that call's text.
func (e *Executor) Execute(commands []ast.ParsedCommand, snap sheet.Snapshot) (Outcome, error) {
	out := Outcome{Snapshot: snap}
	for i, cmd := range commands {
		next, result, err := e.Step(cmd, out.Snapshot)
		if err != nil {
			return out, mdwerror.Wrap(err, cmd.Source).
				WithOperation(cmd.Name).
				WithDetail("index", i)
		}
		out.Snapshot = next
		out.Lines = append(out.Lines, Line{Command: cmd, Result: result})
	}
	return out, nil
}

// Step executes a single call
func (e *Executor) Step(cmd ast.ParsedCommand, snap sheet.Snapshot) (sheet.Snapshot, string, error) {
	if _, err := e.registry.Validate(cmd); err != nil {
		return snap, "", err
	}
	op, ok := e.operations[cmd.Name]
	if !ok {
		return snap, "", mdwerror.Newf("function %q has no implementation", cmd.Name).
			WithCode(mdwerror.CodeUnknownFunction).
			WithDetail("function", cmd.Name)
	}
	return op(snap, cmd.Args)
}

func sameSnapshot(a, b sheet.Snapshot) bool {
	if a.RowCount() != b.RowCount() || a.ColumnCount() != b.ColumnCount() || a.Len() != b.Len() {
		return false
	}
	for i := 0; i < a.ColumnCount(); i++ {
		if a.Label(i) != b.Label(i) {
			return false
		}
	}
	for _, k := range a.Keys() {
		ca, _ := a.Cell(k)
		cb, ok := b.Cell(k)
		if !ok || ca.Value != cb.Value || ca.Style != cb.Style {
			return false
		}
	}
	return true
}
