// File: engine.go
// Title: Command Engine
// Description: High-level entry point of the interpreter. Validates raw
//              input, parses it into calls and folds them over a snapshot,
//              with timing, structured logging and an optional audit hook.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-15
// Modified: 2026-10-15
//
// Change History:
// - 2026-10-15 v0.1.0: Initial engine implementation

package command

import (
	"context"
	"time"

	mdwerror "github.com/msto63/gridwerk/foundation/core/error"
	mdwlog "github.com/msto63/gridwerk/foundation/core/log"
	mdwstringx "github.com/msto63/gridwerk/foundation/utils/stringx"
	"github.com/msto63/gridwerk/internal/command/ast"
	"github.com/msto63/gridwerk/internal/command/executor"
	"github.com/msto63/gridwerk/internal/command/parser"
	"github.com/msto63/gridwerk/internal/command/registry"
	"github.com/msto63/gridwerk/internal/sheet"
)

// DefaultMaxCommandLength limits the raw input accepted by Run
const DefaultMaxCommandLength = 4096

// Engine coordinates parsing and execution
type Engine struct {
	registry *registry.Registry
	executor *executor.Executor
	logger   *mdwlog.Logger
	options  Options
}

// Options configures the engine
type Options struct {
	// Logger for engine operations (optional, defaults to the default logger)
	Logger *mdwlog.Logger

	// MaxCommandLength limits input length in bytes (default: 4096)
	MaxCommandLength int

	// Registry overrides the built-in function catalog
	Registry *registry.Registry

	// AuditLogger receives every run, successful or not
	AuditLogger AuditLogger

	// RequestID extracts a request ID from the context for log correlation
	RequestID func(ctx context.Context) string
}

// AuditLogger records command runs
type AuditLogger interface {
	LogExecution(ctx context.Context, input string, result *Result, err error)
}

// Result is the outcome of one Run
type Result struct {
	executor.Outcome

	// Input is the raw command text
	Input string

	// Commands are the parsed calls, nil when parsing failed
	Commands []ast.ParsedCommand

	// Executed is the number of calls that completed
	Executed int

	// Changed reports whether the snapshot differs from the input snapshot
	Changed bool

	ExecutionTime time.Duration
}

// NewEngine creates an engine with the given options
func NewEngine(opts ...Options) *Engine {
	options := Options{
		Logger:           mdwlog.GetDefault(),
		MaxCommandLength: DefaultMaxCommandLength,
		Registry:         registry.Default(),
	}
	if len(opts) > 0 {
		provided := opts[0]
		if provided.Logger != nil {
			options.Logger = provided.Logger
		}
		if provided.MaxCommandLength > 0 {
			options.MaxCommandLength = provided.MaxCommandLength
		}
		if provided.Registry != nil {
			options.Registry = provided.Registry
		}
		options.AuditLogger = provided.AuditLogger
		options.RequestID = provided.RequestID
	}

	return &Engine{
		registry: options.Registry,
		executor: executor.New(options.Registry),
		logger:   options.Logger.WithField("component", "command-engine"),
		options:  options,
	}
}

// Registry returns the function catalog used by the engine
func (e *Engine) Registry() *registry.Registry {
	return e.registry
}

// Parse validates and parses input without executing it
func (e *Engine) Parse(input string) ([]ast.ParsedCommand, error) {
	if err := e.validateInput(input); err != nil {
		return nil, err
	}
	return parser.Parse(input)
}

// Run parses input and folds the calls over snap. The result is never nil:
// on error it carries the partial snapshot and the lines produced before
// the failure.
func (e *Engine) Run(ctx context.Context, input string, snap sheet.Snapshot) (*Result, error) {
	logger := e.logger
	if e.options.RequestID != nil {
		if id := e.options.RequestID(ctx); id != "" {
			logger = logger.WithRequestID(id)
		}
	}

	timer := logger.StartTimer("command_run")
	result := &Result{Outcome: executor.Outcome{Snapshot: snap}, Input: input}

	finish := func(err error) (*Result, error) {
		result.ExecutionTime = time.Since(timer.StartTime())
		result.Executed = len(result.Lines)
		result.Changed = result.Outcome.Changed(snap)
		if err != nil {
			timer.Fail(err, failureLevel(err))
		} else {
			timer.Stop()
		}
		if e.options.AuditLogger != nil {
			e.options.AuditLogger.LogExecution(ctx, input, result, err)
		}
		return result, err
	}

	if err := ctx.Err(); err != nil {
		return finish(mdwerror.Wrap(err, "command run cancelled").WithCode(mdwerror.CodeTimeout))
	}

	if err := e.validateInput(input); err != nil {
		return finish(err)
	}
	timer.Checkpoint("input_validated")

	cmds, err := parser.Parse(input)
	if err != nil {
		logger.Debug("Command parsing failed", mdwlog.Fields{
			"input": mdwstringx.Truncate(input, 120, "..."),
			"error": err.Error(),
		})
		return finish(err)
	}
	result.Commands = cmds
	timer.Checkpoint("commands_parsed", mdwlog.Fields{"count": len(cmds)})

	outcome, err := e.executor.Execute(cmds, snap)
	result.Outcome = outcome
	if err != nil {
		logger.Info("Command run stopped", mdwlog.Fields{
			"executed":   len(outcome.Lines),
			"total":      len(cmds),
			"error_code": string(mdwerror.GetCode(err)),
			"error":      err.Error(),
		})
		return finish(err)
	}

	logger.Debug("Command run completed", mdwlog.Fields{"executed": len(cmds)})
	return finish(nil)
}

// failureLevel logs rejected input at info and everything else as an error
func failureLevel(err error) mdwlog.Level {
	if mdwerror.GetSeverity(err) == mdwerror.SeverityLow {
		return mdwlog.LevelInfo
	}
	return mdwlog.LevelError
}

func (e *Engine) validateInput(input string) error {
	if mdwstringx.IsBlank(input) {
		return mdwerror.New("command input cannot be empty").
			WithCode(mdwerror.CodeInvalidSyntax)
	}
	if len(input) > e.options.MaxCommandLength {
		return mdwerror.Newf("command input exceeds maximum length: %d > %d", len(input), e.options.MaxCommandLength).
			WithCode(mdwerror.CodeInvalidLength)
	}
	return nil
}
