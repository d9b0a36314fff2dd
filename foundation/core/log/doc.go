// Package log provides structured logging for gridwerk.
//
// Package: log
// Title: gridwerk Structured Logging
// Description: Leveled, structured logging with contextual fields, several
//              output formats and operation timers. Loggers are immutable:
//              every With* call returns a derived logger, so a component can
//              hand out request-scoped loggers without locking.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-15
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with structured logging and error integration
// - 2026-10-15 v0.2.0: Async buffering and user/correlation context removed
//
// Usage:
//
//	import mdwlog "github.com/msto63/gridwerk/foundation/core/log"
//
//	logger := mdwlog.New().WithField("component", "sheet-service")
//	logger.Info("Sheet created", mdwlog.Fields{"sheet_id": id})
//
//	timer := logger.StartTimer("execute_commands")
//	defer timer.Stop()
package log
