// File: timer.go
// Title: Performance Timer
// Description: Measures operation duration and logs it through the owning
//              logger on completion, failure and intermediate checkpoints.
// Author: msto63
// Version: v0.3.0
// Created: 2025-01-24
// Modified: 2026-10-15
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with performance timing
// - 2026-10-15 v0.2.0: Duration carried on the entry, shared level dispatch
// - 2026-10-15 v0.3.0: Fail with caller-chosen level, dropped unused variants

package log

import (
	"time"
)

// Timer measures the duration of one operation. Only the first Stop, Fail
// or StopWithError logs; later calls return 0.
type Timer struct {
	logger    *Logger
	operation string
	startTime time.Time
	fields    Fields
	level     Level
	stopped   bool
}

// NewTimer creates a new timer for the given operation
func NewTimer(logger *Logger, operation string) *Timer {
	return &Timer{
		logger:    logger,
		operation: operation,
		startTime: time.Now(),
		fields:    Fields{"operation": operation},
		level:     LevelDebug,
	}
}

// WithLevel sets the log level for the completion message
func (t *Timer) WithLevel(level Level) *Timer {
	t.level = level
	return t
}

// WithField adds a field to every message of the timer
func (t *Timer) WithField(key string, value interface{}) *Timer {
	t.fields[key] = value
	return t
}

// StartTime returns the time when the timer was started
func (t *Timer) StartTime() time.Time {
	return t.startTime
}

// Stop logs the elapsed time at the timer's level
func (t *Timer) Stop() time.Duration {
	return t.finish(t.level, t.operation+" completed", nil)
}

// StopWithError logs the failure at error level
func (t *Timer) StopWithError(err error) time.Duration {
	return t.Fail(err, LevelError)
}

// Fail logs the failure at level. Use it for failures caused by the
// caller's input, which are not errors of the service itself.
func (t *Timer) Fail(err error, level Level) time.Duration {
	t.fields["success"] = false
	return t.finish(level, t.operation+" failed", err)
}

func (t *Timer) finish(level Level, msg string, err error) time.Duration {
	if t.stopped {
		return 0
	}
	t.stopped = true
	elapsed := time.Since(t.startTime)
	if t.logger != nil {
		t.logger.logDuration(level, msg, err, elapsed, t.fields)
	}
	return elapsed
}

// Checkpoint logs an intermediate timing at debug level
func (t *Timer) Checkpoint(name string, fields ...Fields) {
	if t.stopped || t.logger == nil {
		return
	}
	combined := t.fields.Merge(Fields{"checkpoint": name})
	for _, f := range fields {
		combined = combined.Merge(f)
	}
	t.logger.logDuration(LevelDebug, t.operation+" checkpoint: "+name, nil, time.Since(t.startTime), combined)
}
