package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	mdwerror "github.com/msto63/gridwerk/foundation/core/error"
	mdwstringx "github.com/msto63/gridwerk/foundation/utils/stringx"
	"github.com/msto63/gridwerk/internal/command"
	"github.com/msto63/gridwerk/internal/sheetfile"
	"github.com/msto63/gridwerk/pkg/core/config"
)

var (
	execFile    string
	execRows    int
	execCols    int
	execDryRun  bool
	execRemote  string
	execSheet   string
	execTimeout time.Duration
)

var execCmd = &cobra.Command{
	Use:   "exec [befehle]",
	Short: "Führt Befehle auf einer Tabelle aus",
	Long: `Führt eine Befehlsfolge auf einer Tabelle aus und gibt pro Aufruf
eine Zeile "<aufruf>: <ergebnis>" aus.

Ohne Argument (oder mit "-") werden die Befehle von stdin gelesen,
eine Befehlsfolge pro Zeile; Zeilen mit # sind Kommentare.
Die Ausführung stoppt beim ersten Fehler. Exit-Code 2 bedeutet, dass
ein Befehl abgelehnt wurde, 1 steht für alle anderen Fehler.

Lokal:   Die Tabelle wird aus --file gelesen und bei Änderungen dorthin
         zurückgeschrieben (.yaml, .yml oder .json).
Remote:  Mit --remote und --sheet wird ein Sheet auf einem gridwerk
         Server per gRPC bearbeitet.

Beispiele:
  gridwerk exec --file budget.yaml "update_cell(A, 1, 42), sum_col(A)"
  gridwerk exec --file budget.yaml < monatsabschluss.txt
  gridwerk exec --remote localhost:9300 --sheet <id> "get_cell(A, 1)"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExec,
}

func init() {
	rootCmd.AddCommand(execCmd)
	execCmd.Flags().StringVarP(&execFile, "file", "f", "", "Tabellendatei (leer: leere Tabelle im Speicher)")
	execCmd.Flags().IntVar(&execRows, "rows", 0, "Zeilen einer neuen Tabelle (default aus Config)")
	execCmd.Flags().IntVar(&execCols, "cols", 0, "Spalten einer neuen Tabelle (default aus Config)")
	execCmd.Flags().BoolVar(&execDryRun, "dry-run", false, "Änderungen nicht speichern")
	execCmd.Flags().StringVar(&execRemote, "remote", "", "gRPC-Adresse eines gridwerk Servers")
	execCmd.Flags().StringVar(&execSheet, "sheet", "", "Sheet-ID auf dem Server")
	execCmd.Flags().DurationVar(&execTimeout, "timeout", 30*time.Second, "Timeout für die Ausführung")
}

func runExec(cmd *cobra.Command, args []string) error {
	input, err := readCommands(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), execTimeout)
	defer cancel()

	if execRemote != "" {
		return execRemoteCommands(ctx, cmd.OutOrStdout(), input)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	return execLocal(ctx, cmd.OutOrStdout(), cfg, input)
}

func readCommands(r io.Reader, args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		return args[0], nil
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("stdin konnte nicht gelesen werden: %w", err)
	}
	var lines []string
	for _, line := range mdwstringx.SplitLines(string(raw)) {
		if mdwstringx.IsBlank(line) || strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		lines = append(lines, strings.TrimSpace(line))
	}
	input := strings.Join(lines, "\n")
	if input == "" {
		return "", mdwerror.New("keine Befehle angegeben").WithCode(mdwerror.CodeInvalidSyntax)
	}
	return input, nil
}

func execLocal(ctx context.Context, out io.Writer, cfg *config.Config, input string) error {
	rows, cols := execRows, execCols
	if rows == 0 {
		rows = cfg.Interpreter.DefaultRows
	}
	if cols == 0 {
		cols = cfg.Interpreter.DefaultColumns
	}

	snap, err := sheetfile.LoadOrNew(execFile, rows, cols)
	if err != nil {
		return err
	}

	engine := command.NewEngine(command.Options{
		Logger:           cliLogger(cfg),
		MaxCommandLength: cfg.Interpreter.MaxCommandLength,
	})
	result, runErr := engine.Run(ctx, input, snap)
	if text := result.Text(); text != "" {
		fmt.Fprintln(out, text)
	}

	keep := runErr == nil || cfg.Interpreter.OnError == config.OnErrorKeep
	if execFile != "" && !execDryRun && result.Changed && keep {
		if err := sheetfile.Save(execFile, result.Snapshot); err != nil {
			return err
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "Gespeichert: %s\n", execFile)
		}
	}
	return runErr
}

func execRemoteCommands(ctx context.Context, out io.Writer, input string) error {
	if execSheet == "" {
		return mdwerror.New("--sheet ist für --remote erforderlich").WithCode(mdwerror.CodeInvalidInput)
	}
	client, closeFn, err := dialRemote(execRemote)
	if err != nil {
		return err
	}
	defer closeFn()

	reply, err := client.Execute(ctx, execSheet, input)
	if err != nil {
		return err
	}
	if reply.Text != "" {
		fmt.Fprintln(out, reply.Text)
	}
	if reply.Error != nil {
		return mdwerror.New(reply.Error.Message).WithCode(mdwerror.Code(reply.Error.Code))
	}
	return nil
}
