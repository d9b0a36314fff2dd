// File: codes.go
// Title: Error Code Definitions
// Description: Defines the error codes used across gridwerk. Codes classify
//              errors for API responses, gRPC status mapping and logging.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-15
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with core error codes
// - 2026-10-15 v0.2.0: Command interpreter codes, unused business codes removed

package error

import "net/http"

// Code represents a structured error code for categorizing errors
type Code string

const (
	// Generic codes
	CodeUnknown      Code = "UNKNOWN"
	CodeInternal     Code = "INTERNAL"
	CodeNotFound     Code = "NOT_FOUND"
	CodeInvalidInput Code = "INVALID_INPUT"
	CodeTimeout      Code = "TIMEOUT"
	CodeConflict     Code = "CONFLICT"

	// Command interpreter
	CodeInvalidSyntax    Code = "INVALID_SYNTAX"
	CodeUnknownFunction  Code = "UNKNOWN_FUNCTION"
	CodeInvalidArguments Code = "INVALID_ARGUMENTS"
	CodeOutOfBounds      Code = "OUT_OF_BOUNDS"

	// Storage
	CodeDatabaseError    Code = "DATABASE_ERROR"
	CodeConnectionFailed Code = "CONNECTION_FAILED"
	CodeDataCorruption   Code = "DATA_CORRUPTION"
	CodeDuplicateEntry   Code = "DUPLICATE_ENTRY"

	// Service and network
	CodeServiceUnavailable    Code = "SERVICE_UNAVAILABLE"
	CodeServiceInitialization Code = "SERVICE_INITIALIZATION"
	CodeExternalServiceError  Code = "EXTERNAL_SERVICE_ERROR"

	// Configuration
	CodeConfigError   Code = "CONFIG_ERROR"
	CodeInvalidConfig Code = "INVALID_CONFIG"

	// Validation
	CodeValidationFailed Code = "VALIDATION_FAILED"
	CodeInvalidFormat    Code = "INVALID_FORMAT"
	CodeInvalidLength    Code = "INVALID_LENGTH"
)

// String returns the string representation of the error code
func (c Code) String() string {
	return string(c)
}

// IsValid checks if the error code is a known code
func (c Code) IsValid() bool {
	switch c {
	case CodeUnknown, CodeInternal, CodeNotFound, CodeInvalidInput, CodeTimeout, CodeConflict,
		CodeInvalidSyntax, CodeUnknownFunction, CodeInvalidArguments, CodeOutOfBounds,
		CodeDatabaseError, CodeConnectionFailed, CodeDataCorruption, CodeDuplicateEntry,
		CodeServiceUnavailable, CodeServiceInitialization, CodeExternalServiceError,
		CodeConfigError, CodeInvalidConfig,
		CodeValidationFailed, CodeInvalidFormat, CodeInvalidLength:
		return true
	default:
		return false
	}
}

// IsCommandError reports whether the code belongs to the command interpreter
func (c Code) IsCommandError() bool {
	return c.Category() == "command"
}

// Category returns the high-level category of the error code
func (c Code) Category() string {
	switch c {
	case CodeInvalidSyntax, CodeUnknownFunction, CodeInvalidArguments, CodeOutOfBounds:
		return "command"
	case CodeDatabaseError, CodeConnectionFailed, CodeDataCorruption, CodeDuplicateEntry:
		return "database"
	case CodeServiceUnavailable, CodeServiceInitialization, CodeExternalServiceError:
		return "service"
	case CodeConfigError, CodeInvalidConfig:
		return "configuration"
	case CodeValidationFailed, CodeInvalidFormat, CodeInvalidLength, CodeInvalidInput:
		return "validation"
	default:
		return "generic"
	}
}

// HTTPStatus returns the HTTP status code for this error code
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeInvalidInput, CodeValidationFailed, CodeInvalidFormat, CodeInvalidLength,
		CodeInvalidSyntax, CodeUnknownFunction, CodeInvalidArguments:
		return http.StatusBadRequest
	case CodeOutOfBounds:
		return http.StatusUnprocessableEntity
	case CodeConflict, CodeDuplicateEntry:
		return http.StatusConflict
	case CodeTimeout:
		return http.StatusGatewayTimeout
	case CodeServiceUnavailable, CodeDatabaseError, CodeConnectionFailed, CodeExternalServiceError:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
