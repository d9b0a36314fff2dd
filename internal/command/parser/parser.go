// File: parser.go
// Title: Command Parser
// Description: Splits raw input into function calls of the form
//              name(arg, ...) and classifies each argument as a number,
//              a quoted string or a bare token. The parser is pure and
//              never looks at grid state.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-15
// Modified: 2026-10-15
//
// Change History:
// - 2026-10-15 v0.1.0: Initial implementation

package parser

import (
	"regexp"
	"strconv"
	"strings"

	mdwerror "github.com/msto63/gridwerk/foundation/core/error"
	"github.com/msto63/gridwerk/internal/command/ast"
)

var numberLiteral = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

// Parse extracts every call from input in order of appearance. Calls may be
// separated by whitespace, ';' or ','. Any other text is a syntax error.
func Parse(input string) ([]ast.ParsedCommand, error) {
	var commands []ast.ParsedCommand

	pos := 0
	for {
		pos = skipSeparators(input, pos)
		if pos >= len(input) {
			break
		}

		cmd, next, err := parseCall(input, pos)
		if err != nil {
			return nil, err
		}
		commands = append(commands, cmd)
		pos = next
	}

	if len(commands) == 0 {
		return nil, syntaxError(0, "no function call found in %q", input)
	}
	return commands, nil
}

// parseCall reads one call starting at pos and returns the offset after it
func parseCall(input string, pos int) (ast.ParsedCommand, int, error) {
	start := pos
	for pos < len(input) && isIdentChar(input[pos], pos == start) {
		pos++
	}
	if pos == start {
		return ast.ParsedCommand{}, 0, syntaxError(start, "unexpected %q at position %d", excerpt(input, start), start)
	}
	name := input[start:pos]

	if pos >= len(input) || input[pos] != '(' {
		return ast.ParsedCommand{}, 0, syntaxError(start, "expected '(' after %q", name)
	}

	open := pos
	var quote byte
	for pos++; pos < len(input); pos++ {
		c := input[pos]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == ')':
			args, err := splitArgs(input[open+1:pos], open+1)
			if err != nil {
				return ast.ParsedCommand{}, 0, err
			}
			return ast.ParsedCommand{
				Name:   name,
				Args:   args,
				Source: input[start : pos+1],
				Pos:    start,
			}, pos + 1, nil
		}
	}

	if quote != 0 {
		return ast.ParsedCommand{}, 0, syntaxError(start, "unterminated quote in %q", input[start:])
	}
	return ast.ParsedCommand{}, 0, syntaxError(start, "missing ')' in %q", input[start:])
}

// splitArgs splits on commas outside quotes and classifies each token
func splitArgs(text string, offset int) ([]ast.Arg, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	var args []ast.Arg
	var quote byte
	tokenStart := 0
	for i := 0; i <= len(text); i++ {
		if i < len(text) {
			c := text[i]
			if quote != 0 {
				if c == quote {
					quote = 0
				}
				continue
			}
			if c == '"' || c == '\'' {
				quote = c
				continue
			}
			if c != ',' {
				continue
			}
		}

		token := strings.TrimSpace(text[tokenStart:i])
		if token == "" {
			return nil, syntaxError(offset+tokenStart, "empty argument at position %d", offset+tokenStart)
		}
		args = append(args, classify(token))
		tokenStart = i + 1
	}
	return args, nil
}

func classify(token string) ast.Arg {
	if numberLiteral.MatchString(token) {
		if f, err := strconv.ParseFloat(token, 64); err == nil {
			return ast.NumberArg{Value: f, Literal: token}
		}
	}
	if len(token) >= 2 {
		first, last := token[0], token[len(token)-1]
		if (first == '"' || first == '\'') && first == last {
			return ast.StringArg{Value: token[1 : len(token)-1], Quoted: true}
		}
	}
	return ast.StringArg{Value: token}
}

func skipSeparators(input string, pos int) int {
	for pos < len(input) {
		switch input[pos] {
		case ' ', '\t', '\n', '\r', ';', ',':
			pos++
		default:
			return pos
		}
	}
	return pos
}

func isIdentChar(c byte, first bool) bool {
	switch {
	case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		return true
	case c >= '0' && c <= '9':
		return !first
	}
	return false
}

func excerpt(input string, pos int) string {
	end := pos + 12
	if end > len(input) {
		end = len(input)
	}
	return input[pos:end]
}

func syntaxError(pos int, format string, args ...interface{}) error {
	return mdwerror.Newf(format, args...).
		WithCode(mdwerror.CodeInvalidSyntax).
		WithOperation("parse").
		WithDetail("position", pos)
}
