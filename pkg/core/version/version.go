// ============================================================================
// gridwerk - Spreadsheet Command Service
// ============================================================================
//
// Package:     version
// Description: Central version management for server and CLI
// Author:      Mike Stoffels
// Created:     2025-12-06
// License:     MIT
// ============================================================================

package version

import (
	"fmt"
	"runtime"
)

// Version constants for all gridwerk components
const (
	// Platform version
	Platform = "1.0.0"

	// Component versions
	Server    = "1.0.0"
	CLI       = "1.0.0"
	Assistant = "0.9.0"

	// Protocol is the version of the gRPC and HTTP API surface
	Protocol = "v1"
)

// Build metadata, set via -ldflags "-X ...=..."
var (
	Commit    = "dev"
	BuildDate = "unknown"
)

// ComponentVersion returns the version for a given component name
func ComponentVersion(name string) string {
	switch name {
	case "server":
		return Server
	case "cli":
		return CLI
	case "assistant":
		return Assistant
	default:
		return Platform
	}
}

// String returns a one-line version summary
func String(component string) string {
	return fmt.Sprintf("gridwerk %s %s (api %s, commit %s, built %s, %s)",
		component, ComponentVersion(component), Protocol, Commit, BuildDate, runtime.Version())
}
