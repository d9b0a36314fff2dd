// File: audit.go
// Title: Command Audit Log
// Description: AuditLogger that writes one audit-level record per run
//              through the structured logger.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-15
// Modified: 2026-10-15
//
// Change History:
// - 2026-10-15 v0.1.0: Initial implementation

package command

import (
	"context"

	mdwerror "github.com/msto63/gridwerk/foundation/core/error"
	mdwlog "github.com/msto63/gridwerk/foundation/core/log"
	mdwstringx "github.com/msto63/gridwerk/foundation/utils/stringx"
)

// LogAuditor records every run as an audit entry. Audit entries bypass the
// logger's level, so they are written even when info logging is off.
type LogAuditor struct {
	logger    *mdwlog.Logger
	requestID func(ctx context.Context) string
}

// NewLogAuditor creates an auditor. requestID may be nil.
func NewLogAuditor(logger *mdwlog.Logger, requestID func(ctx context.Context) string) *LogAuditor {
	if logger == nil {
		logger = mdwlog.GetDefault()
	}
	return &LogAuditor{logger: logger.WithField("component", "command-audit"), requestID: requestID}
}

// LogExecution implements AuditLogger
func (a *LogAuditor) LogExecution(ctx context.Context, input string, result *Result, err error) {
	logger := a.logger
	if a.requestID != nil {
		if id := a.requestID(ctx); id != "" {
			logger = logger.WithRequestID(id)
		}
	}

	fields := mdwlog.Fields{
		"input":       mdwstringx.Truncate(input, 200, "..."),
		"executed":    result.Executed,
		"changed":     result.Changed,
		"duration_ms": result.ExecutionTime.Milliseconds(),
	}
	if result.Commands != nil {
		fields["total"] = len(result.Commands)
	}
	if err != nil {
		fields["error_code"] = string(mdwerror.GetCode(err))
		logger.Audit("Command run rejected", fields)
		return
	}
	logger.Audit("Command run", fields)
}
