// File: severity.go
// Title: Error Severity Levels
// Description: Defines severity levels for errors. The logger maps severities
//              to log levels when it records a structured error.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-15
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with severity levels
// - 2026-10-15 v0.2.0: Severity mapping for command and storage codes

package error

// Severity represents the severity level of an error
type Severity int

const (
	// SeverityLow covers user input problems such as a malformed command
	SeverityLow Severity = iota

	// SeverityMedium covers failures with a workaround
	SeverityMedium

	// SeverityHigh covers storage and service failures
	SeverityHigh

	// SeverityCritical covers corrupted state
	SeverityCritical
)

var severityNames = [...]string{"low", "medium", "high", "critical"}

func (s Severity) String() string {
	if s < 0 || int(s) >= len(severityNames) {
		return "unknown"
	}
	return severityNames[s]
}

// GetSeverityFromCode determines the default severity for a code
func GetSeverityFromCode(code Code) Severity {
	switch code {
	case CodeDataCorruption:
		return SeverityCritical

	case CodeDatabaseError, CodeConnectionFailed, CodeServiceInitialization, CodeServiceUnavailable:
		return SeverityHigh

	case CodeInvalidSyntax, CodeUnknownFunction, CodeInvalidArguments, CodeOutOfBounds,
		CodeInvalidInput, CodeNotFound, CodeValidationFailed, CodeInvalidFormat, CodeInvalidLength,
		CodeConflict, CodeDuplicateEntry:
		return SeverityLow

	default:
		return SeverityMedium
	}
}
