package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/msto63/gridwerk/internal/sheetd/grpcapi"
	"github.com/msto63/gridwerk/internal/sheetfile"
	coregrpc "github.com/msto63/gridwerk/pkg/core/grpc"
)

var (
	sheetsRemote string
	sheetsTitle  string
	sheetsRows   int
	sheetsCols   int
	sheetsFrom   string
)

var sheetsCmd = &cobra.Command{
	Use:   "sheets",
	Short: "Verwaltet Sheets auf einem Server",
	Long: `Listet, erstellt und löscht Sheets auf einem gridwerk Server (gRPC).

Beispiele:
  gridwerk sheets list
  gridwerk sheets create --title Budget --rows 10 --cols 4
  gridwerk sheets create --title Import --from budget.yaml
  gridwerk sheets delete <id>`,
}

var sheetsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Listet alle Sheets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, client *grpcapi.Client) error {
			reply, err := client.ListSheets(ctx)
			if err != nil {
				return err
			}
			if len(reply.Sheets) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Keine Sheets vorhanden")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITEL\tGRÖSSE\tVERSION\tGEÄNDERT")
			for _, s := range reply.Sheets {
				fmt.Fprintf(w, "%s\t%s\t%dx%d\t%d\t%s\n",
					s.ID, s.Title, s.Rows, s.Columns, s.Version, s.UpdatedAt.Local().Format("2006-01-02 15:04"))
			}
			return w.Flush()
		})
	},
}

var sheetsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Erstellt ein Sheet",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		req := grpcapi.CreateSheetRequest{Title: sheetsTitle, Rows: sheetsRows, Columns: sheetsCols}
		if sheetsFrom != "" {
			snap, err := sheetfile.Load(sheetsFrom)
			if err != nil {
				return err
			}
			data := snap.Data()
			req.Data = &data
		}
		return withClient(cmd, func(ctx context.Context, client *grpcapi.Client) error {
			view, err := client.CreateSheet(ctx, req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sheet erstellt: %s (%dx%d)\n",
				view.ID, view.Data.RowCount, view.Data.ColumnCount)
			return nil
		})
	},
}

var sheetsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Löscht ein Sheet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, client *grpcapi.Client) error {
			if err := client.DeleteSheet(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sheet gelöscht: %s\n", args[0])
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(sheetsCmd)
	sheetsCmd.AddCommand(sheetsListCmd, sheetsCreateCmd, sheetsDeleteCmd)
	sheetsCmd.PersistentFlags().StringVar(&sheetsRemote, "remote", "localhost:9300", "gRPC-Adresse des Servers")
	sheetsCreateCmd.Flags().StringVar(&sheetsTitle, "title", "", "Titel des Sheets")
	sheetsCreateCmd.Flags().IntVar(&sheetsRows, "rows", 0, "Anzahl Zeilen")
	sheetsCreateCmd.Flags().IntVar(&sheetsCols, "cols", 0, "Anzahl Spalten")
	sheetsCreateCmd.Flags().StringVar(&sheetsFrom, "from", "", "Inhalt aus einer Tabellendatei übernehmen")
}

func withClient(cmd *cobra.Command, fn func(ctx context.Context, client *grpcapi.Client) error) error {
	client, closeFn, err := dialRemote(sheetsRemote)
	if err != nil {
		return err
	}
	defer closeFn()

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()
	return fn(ctx, client)
}

func dialRemote(addr string) (*grpcapi.Client, func(), error) {
	conn, err := coregrpc.DialSimple(addr)
	if err != nil {
		return nil, nil, fmt.Errorf("Verbindung zu %s fehlgeschlagen: %w", addr, err)
	}
	return grpcapi.NewClient(conn), func() { conn.Close() }, nil
}
