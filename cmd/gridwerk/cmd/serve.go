package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/msto63/gridwerk/internal/sheetd/server"
)

var (
	serveDriver  string
	serveStore   string
	serveTimeout time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Startet den Sheet-Server",
	Long: `Startet den gridwerk Sheet-Server.

Der Server stellt bereit:
  HTTP API   - REST-Endpunkte unter /api/v1 (default :8080)
  WebSocket  - Live-Updates unter /api/v1/sheets/{id}/ws
  gRPC       - gridwerk.v1.SheetService (default :9300)

Beispiele:
  gridwerk serve
  gridwerk serve --driver bolt --store ./data/sheets.db
  gridwerk serve --config ./configs/config.toml`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveDriver, "driver", "", "Store-Treiber (sqlite oder bolt)")
	serveCmd.Flags().StringVar(&serveStore, "store", "", "Pfad der Store-Datei")
	serveCmd.Flags().DurationVar(&serveTimeout, "shutdown-timeout", 10*time.Second, "Wartezeit beim Herunterfahren")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveDriver != "" {
		cfg.Store.Driver = serveDriver
		if serveStore == "" {
			cfg.Store.Path = ""
		}
	}
	if serveStore != "" {
		cfg.Store.Path = serveStore
	}
	if serveDriver != "" || serveStore != "" {
		cfg.ApplyDefaults()
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	if verbose {
		cfg.General.LogLevel = "debug"
	}

	srv, err := server.New(cfg, nil)
	if err != nil {
		return fmt.Errorf("Server konnte nicht erstellt werden: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	fmt.Printf("gridwerk läuft: HTTP %s, gRPC %s (Store: %s %s)\n",
		cfg.HTTPAddress(), cfg.GRPCAddress(), cfg.Store.Driver, cfg.Store.Path)
	fmt.Println("Beenden mit Ctrl+C")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var runErr error
	select {
	case sig := <-sigCh:
		fmt.Printf("\nSignal %v empfangen, fahre herunter...\n", sig)
	case runErr = <-errCh:
	}

	ctx, cancel := context.WithTimeout(context.Background(), serveTimeout)
	defer cancel()
	if err := srv.Stop(ctx); err != nil && runErr == nil {
		runErr = err
	}
	if runErr != nil {
		return fmt.Errorf("Server beendet mit Fehler: %w", runErr)
	}
	fmt.Println("Server gestoppt")
	return nil
}
