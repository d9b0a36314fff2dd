// Package error provides structured error handling for gridwerk.
//
// Package: error
// Title: gridwerk Error Handling
// Description: Errors carry a Code, a Severity, details and the failing
//              operation. Transport layers translate codes into HTTP and gRPC
//              status codes; the logger maps severities to log levels.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-15
//
// Usage:
//
//	import mdwerror "github.com/msto63/gridwerk/foundation/core/error"
//
//	err := mdwerror.New("column Z is out of bounds").
//		WithCode(mdwerror.CodeOutOfBounds).
//		WithDetail("coordinate", "Z")
//
//	wrapped := mdwerror.Wrap(err, "sum_col(Z)")
//	if mdwerror.HasCode(wrapped, mdwerror.CodeOutOfBounds) {
//		// report to the user
//	}
package error
