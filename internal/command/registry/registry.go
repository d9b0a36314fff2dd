// File: registry.go
// Title: Function Catalog
// Description: The fixed catalog of spreadsheet functions with their
//              parameter shapes. Validates call arity and argument kinds and
//              renders signatures for error messages, the API, the CLI and
//              the assistant prompt.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-15
// Modified: 2026-10-15
//
// Change History:
// - 2026-10-15 v0.1.0: Initial implementation

package registry

import (
	"strings"

	mdwerror "github.com/msto63/gridwerk/foundation/core/error"
	"github.com/msto63/gridwerk/internal/command/ast"
)

// ParamKind describes what an argument position accepts
type ParamKind int

const (
	// KindColumn is a column label, given as a string
	KindColumn ParamKind = iota

	// KindRow is a 1-based row number, given as an integer
	KindRow

	// KindValue is any literal, string or number
	KindValue
)

// String returns the type name shown in signatures
func (k ParamKind) String() string {
	switch k {
	case KindColumn:
		return "string"
	case KindRow:
		return "integer"
	case KindValue:
		return "string|number"
	default:
		return "unknown"
	}
}

// Accepts reports whether arg fits this kind
func (k ParamKind) Accepts(arg ast.Arg) bool {
	switch a := arg.(type) {
	case ast.StringArg:
		return k == KindColumn || k == KindValue
	case ast.NumberArg:
		return k == KindValue || (k == KindRow && a.IsInteger())
	}
	return false
}

// Param is one named parameter of a function
type Param struct {
	Name string    `json:"name"`
	Kind ParamKind `json:"-"`
}

// Signature describes one catalog function
type Signature struct {
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Params      []Param `json:"params"`
	Description string  `json:"description"`
	Example     string  `json:"example"`
}

// String renders the signature, e.g. "update_cell(col: string, row: integer, value: string|number)"
func (s Signature) String() string {
	parts := make([]string, len(s.Params))
	for i, p := range s.Params {
		parts[i] = p.Name + ": " + p.Kind.String()
	}
	return s.Name + "(" + strings.Join(parts, ", ") + ")"
}

// Usage renders the short call form, e.g. "update_cell(col, row, value)"
func (s Signature) Usage() string {
	parts := make([]string, len(s.Params))
	for i, p := range s.Params {
		parts[i] = p.Name
	}
	return s.Name + "(" + strings.Join(parts, ", ") + ")"
}

// Registry holds the catalog in presentation order
type Registry struct {
	order      []string
	signatures map[string]Signature
}

// New builds a registry from the given signatures
func New(signatures ...Signature) *Registry {
	r := &Registry{signatures: make(map[string]Signature, len(signatures))}
	for _, s := range signatures {
		if _, dup := r.signatures[s.Name]; !dup {
			r.order = append(r.order, s.Name)
		}
		r.signatures[s.Name] = s
	}
	return r
}

var defaultRegistry = New(Catalog()...)

// Default returns the registry holding the built-in catalog
func Default() *Registry {
	return defaultRegistry
}

// Lookup returns the signature for name
func (r *Registry) Lookup(name string) (Signature, bool) {
	s, ok := r.signatures[name]
	return s, ok
}

// Signatures returns all signatures in catalog order
func (r *Registry) Signatures() []Signature {
	out := make([]Signature, len(r.order))
	for i, name := range r.order {
		out[i] = r.signatures[name]
	}
	return out
}

// Names returns all function names in catalog order
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Validate checks that cmd names a catalog function and that its arguments
// match the signature.
func (r *Registry) Validate(cmd ast.ParsedCommand) (Signature, error) {
	sig, ok := r.signatures[cmd.Name]
	if !ok {
		return Signature{}, mdwerror.Newf("unknown function %q", cmd.Name).
			WithCode(mdwerror.CodeUnknownFunction).
			WithDetail("function", cmd.Name)
	}

	if len(cmd.Args) != len(sig.Params) {
		return sig, invalidArguments(sig, "expected %d argument(s), got %d", len(sig.Params), len(cmd.Args))
	}
	for i, p := range sig.Params {
		if !p.Kind.Accepts(cmd.Args[i]) {
			return sig, invalidArguments(sig, "argument %q must be %s, got %s %q",
				p.Name, p.Kind, ast.Kind(cmd.Args[i]), cmd.Args[i].Text())
		}
	}
	return sig, nil
}

func invalidArguments(sig Signature, format string, args ...interface{}) error {
	return mdwerror.Newf("invalid arguments, expected "+sig.String()+": "+format, args...).
		WithCode(mdwerror.CodeInvalidArguments).
		WithDetail("signature", sig.String())
}
