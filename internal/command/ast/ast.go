// File: ast.go
// Title: Command Syntax Tree
// Description: Parsed form of a spreadsheet command: the function name, its
//              literal arguments and the source text it was cut from.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-15
// Modified: 2026-10-15
//
// Change History:
// - 2026-10-15 v0.1.0: Initial implementation

package ast

import (
	"math"
	"strings"

	"github.com/msto63/gridwerk/internal/sheet"
)

// Arg is a literal call argument: NumberArg or StringArg
type Arg interface {
	isArg()

	// Text returns the argument as the interpreter stores or compares it
	Text() string
}

// NumberArg is an unquoted token that reads as a number literal
type NumberArg struct {
	Value   float64
	Literal string
}

func (NumberArg) isArg() {}

// Text returns the canonical rendering of the number
func (a NumberArg) Text() string { return sheet.FormatNumber(a.Value) }

// IsInteger reports whether the number has no fractional part
func (a NumberArg) IsInteger() bool {
	return !math.IsInf(a.Value, 0) && a.Value == math.Trunc(a.Value)
}

// StringArg is a quoted string or a bare token
type StringArg struct {
	Value  string
	Quoted bool
}

func (StringArg) isArg() {}

// Text returns the string without quotes
func (a StringArg) Text() string { return a.Value }

// ParsedCommand is one function call found in the input
type ParsedCommand struct {
	Name   string
	Args   []Arg
	Source string // call text as written, used to prefix result lines
	Pos    int    // byte offset of the call in the input
}

// String renders the command in canonical form
func (c ParsedCommand) String() string {
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		switch v := a.(type) {
		case NumberArg:
			parts[i] = v.Literal
		case StringArg:
			if v.Quoted {
				parts[i] = `"` + v.Value + `"`
			} else {
				parts[i] = v.Value
			}
		}
	}
	return c.Name + "(" + strings.Join(parts, ", ") + ")"
}

// Kind names the argument type for error messages
func Kind(a Arg) string {
	switch a.(type) {
	case NumberArg:
		return "number"
	case StringArg:
		return "string"
	default:
		return "unknown"
	}
}
