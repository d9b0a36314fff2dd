package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/msto63/gridwerk/internal/command"
	"github.com/msto63/gridwerk/internal/sheetfile"
	"github.com/msto63/gridwerk/internal/tui"
	"github.com/msto63/gridwerk/pkg/core/logging"
)

var (
	tuiFile string
	tuiRows int
	tuiCols int
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Startet den interaktiven Editor",
	Long: `Startet den interaktiven Terminal-Editor.

Befehle werden unten eingegeben und mit Enter ausgeführt. Die Tabelle
wird oben angezeigt, die Ergebnisse im Protokoll darunter.

Tastenkürzel:
  Enter        Befehl ausführen
  ↑/↓          Befehlshistorie
  Tab          Spalten blättern
  PgUp/PgDn    Zeilen blättern
  Ctrl+S       Speichern (mit --file)
  Ctrl+L       Protokoll leeren
  Esc          Beenden`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
	tuiCmd.Flags().StringVarP(&tuiFile, "file", "f", "", "Tabellendatei (.yaml, .yml oder .json)")
	tuiCmd.Flags().IntVar(&tuiRows, "rows", 0, "Zeilen einer neuen Tabelle (default aus Config)")
	tuiCmd.Flags().IntVar(&tuiCols, "cols", 0, "Spalten einer neuen Tabelle (default aus Config)")
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	rows, cols := tuiRows, tuiCols
	if rows == 0 {
		rows = cfg.Interpreter.DefaultRows
	}
	if cols == 0 {
		cols = cfg.Interpreter.DefaultColumns
	}

	snap, err := sheetfile.LoadOrNew(tuiFile, rows, cols)
	if err != nil {
		return err
	}

	// the TUI owns the terminal; engine logs would tear the layout
	logger, err := logging.NewLogger(logging.LoggerConfig{
		ServiceName: cfg.General.Name,
		Level:       "error",
		Output:      io.Discard,
	})
	if err != nil {
		return err
	}
	engine := command.NewEngine(command.Options{
		Logger:           logger,
		MaxCommandLength: cfg.Interpreter.MaxCommandLength,
	})

	if _, err := tui.Run(tui.Config{Engine: engine, Snapshot: snap, Path: tuiFile}); err != nil {
		return fmt.Errorf("TUI Fehler: %w", err)
	}
	return nil
}
