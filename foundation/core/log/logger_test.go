// File: logger_test.go
// Title: Logger Tests
// Description: Tests for level filtering, derived loggers, formatters,
//              error integration and timers.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-15
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with comprehensive test coverage
// - 2026-10-15 v0.2.0: Rewritten for the trimmed entry and timer durations

package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	mdwerror "github.com/msto63/gridwerk/foundation/core/error"
)

func newTestLogger(format Format, level Level) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewWithConfig(Config{Level: level, Format: format, Output: &buf}), &buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]interface{}
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("invalid JSON line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{" WARNING ", LevelWarn, false},
		{"err", LevelError, false},
		{"audit", LevelAudit, false},
		{"verbose", LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	logger, buf := newTestLogger(FormatJSON, LevelWarn)

	logger.Debug("hidden")
	logger.Info("hidden")
	logger.Warn("shown")
	logger.Audit("always")

	lines := decodeLines(t, buf)
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %s", len(lines), buf.String())
	}
	if lines[0]["message"] != "shown" || lines[1]["level"] != "audit" {
		t.Errorf("unexpected entries: %v", lines)
	}
}

func TestLogger_DerivedLoggersAreIndependent(t *testing.T) {
	base, buf := newTestLogger(FormatJSON, LevelInfo)
	child := base.WithName("sheet-service").WithField("sheet_id", "s1").WithRequestID("req-7")

	base.Info("from base")
	child.Info("from child", Fields{"count": 3})

	lines := decodeLines(t, buf)
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if _, ok := lines[0]["sheet_id"]; ok {
		t.Error("base logger picked up a field from the derived logger")
	}
	if lines[1]["logger"] != "sheet-service" {
		t.Errorf("logger = %v, want sheet-service", lines[1]["logger"])
	}
	if lines[1]["sheet_id"] != "s1" || lines[1]["request_id"] != "req-7" {
		t.Errorf("context missing: %v", lines[1])
	}
	if lines[1]["count"] != float64(3) {
		t.Errorf("count = %v, want 3", lines[1]["count"])
	}
}

func TestFormatters(t *testing.T) {
	entry := NewEntry(LevelInfo, "Sheet created")
	entry.Timestamp = time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)
	entry.Fields["rows"] = 10
	entry.Fields["name"] = "budget"

	tests := []struct {
		name      string
		formatter Formatter
		contains  []string
	}{
		{"text", NewTextFormatter(), []string{"09:30:00", "[INF]", "Sheet created", "[name=budget rows=10]"}},
		{"logfmt", NewLogfmtFormatter(), []string{"level=info", `message="Sheet created"`, `name="budget"`, "rows=10"}},
		{"console", NewConsoleFormatter(), []string{"\033[32m", "Sheet created", "\033[0m"}},
		{"json", NewJSONFormatter(), []string{`"message":"Sheet created"`, `"rows":10`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := tt.formatter.Format(entry)
			if err != nil {
				t.Fatalf("Format() error = %v", err)
			}
			for _, want := range tt.contains {
				if !strings.Contains(string(out), want) {
					t.Errorf("Format() = %q, missing %q", out, want)
				}
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	for _, name := range []string{"json", "text", "console", "logfmt"} {
		f, err := ParseFormat(name)
		if err != nil {
			t.Errorf("ParseFormat(%q) error = %v", name, err)
		}
		if f.String() != name {
			t.Errorf("ParseFormat(%q).String() = %q", name, f.String())
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("ParseFormat(xml) should fail")
	}
}

func TestLogger_LogError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantLevel string
		wantCode  string
	}{
		{
			name:      "command error logs at info",
			err:       mdwerror.New("unknown function foo").WithCode(mdwerror.CodeUnknownFunction),
			wantLevel: "info",
			wantCode:  "UNKNOWN_FUNCTION",
		},
		{
			name:      "database error logs at error",
			err:       mdwerror.New("locked").WithCode(mdwerror.CodeDatabaseError),
			wantLevel: "error",
			wantCode:  "DATABASE_ERROR",
		},
		{
			name:      "plain error logs at error",
			err:       errors.New("boom"),
			wantLevel: "error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, buf := newTestLogger(FormatJSON, LevelTrace)
			logger.LogError(tt.err)

			lines := decodeLines(t, buf)
			if len(lines) != 1 {
				t.Fatalf("got %d lines, want 1", len(lines))
			}
			if lines[0]["level"] != tt.wantLevel {
				t.Errorf("level = %v, want %v", lines[0]["level"], tt.wantLevel)
			}
			if tt.wantCode != "" && lines[0]["error_code"] != tt.wantCode {
				t.Errorf("error_code = %v, want %v", lines[0]["error_code"], tt.wantCode)
			}
		})
	}
}

func TestTimer(t *testing.T) {
	logger, buf := newTestLogger(FormatJSON, LevelDebug)

	timer := logger.StartTimer("execute").WithField("commands", 2)
	timer.Checkpoint("parsed")
	timer.StopWithError(errors.New("out of bounds"))
	if d := timer.Stop(); d != 0 {
		t.Errorf("second Stop() = %v, want 0", d)
	}

	lines := decodeLines(t, buf)
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %s", len(lines), buf.String())
	}
	if lines[0]["checkpoint"] != "parsed" {
		t.Errorf("checkpoint = %v, want parsed", lines[0]["checkpoint"])
	}
	if lines[1]["message"] != "execute failed" || lines[1]["level"] != "error" {
		t.Errorf("unexpected stop entry: %v", lines[1])
	}
	if lines[1]["commands"] != float64(2) || lines[1]["success"] != false {
		t.Errorf("timer fields missing: %v", lines[1])
	}
	if _, ok := lines[1]["duration_ms"]; !ok {
		t.Error("duration_ms missing from stop entry")
	}
}

func TestTimer_Fail(t *testing.T) {
	logger, buf := newTestLogger(FormatJSON, LevelDebug)

	d := logger.StartTimer("command_run").Fail(errors.New("column Z is out of bounds"), LevelInfo)
	if d <= 0 {
		t.Errorf("Fail() = %v, want elapsed time", d)
	}

	lines := decodeLines(t, buf)
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	if lines[0]["level"] != "info" || lines[0]["operation"] != "command_run" {
		t.Errorf("entry = %v, want info level with operation", lines[0])
	}
}
