package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	mdwerror "github.com/msto63/gridwerk/foundation/core/error"
	"github.com/msto63/gridwerk/internal/sheet"
	"github.com/msto63/gridwerk/internal/sheetfile"
	"github.com/msto63/gridwerk/pkg/core/config"
)

func TestExecLocal(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		onError  string
		wantOut  string
		wantCode mdwerror.Code
		wantA1   string
	}{
		{
			name:    "saves changes",
			input:   "update_cell(A, 1, 42), get_cell(A, 1)",
			onError: config.OnErrorKeep,
			wantOut: "update_cell(A, 1, 42): Cell A1 updated.\nget_cell(A, 1): 42\n",
			wantA1:  "42",
		},
		{
			name:     "keeps partial result",
			input:    "update_cell(A, 1, 7), del_col(Z)",
			onError:  config.OnErrorKeep,
			wantOut:  "update_cell(A, 1, 7): Cell A1 updated.\n",
			wantCode: mdwerror.CodeOutOfBounds,
			wantA1:   "7",
		},
		{
			name:     "rollback discards partial result",
			input:    "update_cell(A, 1, 7), del_col(Z)",
			onError:  config.OnErrorRollback,
			wantOut:  "update_cell(A, 1, 7): Cell A1 updated.\n",
			wantCode: mdwerror.CodeOutOfBounds,
			wantA1:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			execFile = filepath.Join(t.TempDir(), "sheet.yaml")
			execRows, execCols, execDryRun = 0, 0, false
			defer func() { execFile = "" }()

			cfg := config.Default()
			cfg.Interpreter.OnError = tt.onError
			cfg.Interpreter.DefaultRows = 3
			cfg.Interpreter.DefaultColumns = 2

			var out bytes.Buffer
			err := execLocal(context.Background(), &out, cfg, tt.input)
			if tt.wantCode == "" && err != nil {
				t.Fatalf("execLocal() error = %v", err)
			}
			if tt.wantCode != "" && !mdwerror.HasCode(err, tt.wantCode) {
				t.Fatalf("execLocal() error = %v, want code %s", err, tt.wantCode)
			}
			if out.String() != tt.wantOut {
				t.Errorf("output = %q, want %q", out.String(), tt.wantOut)
			}

			snap, err := sheetfile.LoadOrNew(execFile, 3, 2)
			if err != nil {
				t.Fatalf("LoadOrNew() error = %v", err)
			}
			if got := snap.Value(sheet.Key{Column: "A", Row: 1}); got != tt.wantA1 {
				t.Errorf("A1 = %q, want %q", got, tt.wantA1)
			}
		})
	}
}

func TestReadCommands(t *testing.T) {
	tests := []struct {
		name    string
		stdin   string
		args    []string
		want    string
		wantErr bool
	}{
		{name: "argument", args: []string{"add_row()"}, want: "add_row()"},
		{name: "stdin", stdin: "  add_col()\n", want: "add_col()"},
		{name: "dash reads stdin", stdin: "clear_all()", args: []string{"-"}, want: "clear_all()"},
		{name: "script with comments", stdin: "# Monat\r\nadd_row()\n\n  # leer\nsum_col(A)\n", want: "add_row()\nsum_col(A)"},
		{name: "empty stdin", stdin: "\n", wantErr: true},
		{name: "only comments", stdin: "# nichts\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := readCommands(strings.NewReader(tt.stdin), tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("readCommands() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("readCommands() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFunctionsCommand(t *testing.T) {
	var out bytes.Buffer
	functionsCmd.SetOut(&out)
	functionsCategory = ""
	functionsJSON = false
	if err := runFunctions(functionsCmd, nil); err != nil {
		t.Fatalf("runFunctions() error = %v", err)
	}
	for _, want := range []string{"update_cell(", "replace_all(", "23 Funktionen"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q", want)
		}
	}
}
