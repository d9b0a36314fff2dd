package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	mdwerror "github.com/msto63/gridwerk/foundation/core/error"
	mdwlog "github.com/msto63/gridwerk/foundation/core/log"
	"github.com/msto63/gridwerk/pkg/core/config"
	"github.com/msto63/gridwerk/pkg/core/logging"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "gridwerk",
	Short: "gridwerk - Tabellen per Befehl bearbeiten",
	Long: `gridwerk führt Funktionsaufrufe wie update_cell(A, 1, 42) auf einer
Tabelle aus und liefert zu jedem Aufruf eine Ergebniszeile.

Befehle:
  serve      - HTTP-, WebSocket- und gRPC-Server starten
  exec       - Befehle auf einer Datei oder einem entfernten Sheet ausführen
  sheets     - Sheets auf einem Server verwalten
  functions  - Verfügbare Funktionen anzeigen
  tui        - Interaktiven Editor starten`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		printError(err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config-Datei (default: ./configs/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose Output")
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadOrDefault(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("Config konnte nicht geladen werden: %w", err)
	}
	return cfg, nil
}

// cliLogger writes to stderr; quiet unless --verbose
func cliLogger(cfg *config.Config) *mdwlog.Logger {
	level := "warn"
	if verbose {
		level = "debug"
	}
	logger, err := logging.NewLogger(logging.LoggerConfig{
		ServiceName: cfg.General.Name,
		Level:       level,
		Format:      "console",
		Output:      os.Stderr,
	})
	if err != nil {
		return mdwlog.GetDefault()
	}
	return logger
}

func printError(err error) {
	if e, ok := mdwerror.As(err); ok {
		fmt.Fprintf(os.Stderr, "Fehler [%s]: %s\n", mdwerror.GetCode(err), e.Message())
		return
	}
	fmt.Fprintf(os.Stderr, "Fehler: %v\n", err)
}
