package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/msto63/gridwerk/internal/command/registry"
)

var (
	functionsJSON     bool
	functionsCategory string
)

var functionsCmd = &cobra.Command{
	Use:     "functions",
	Aliases: []string{"funcs"},
	Short:   "Zeigt die verfügbaren Funktionen",
	Long: `Zeigt alle Funktionen, die in Befehlen aufgerufen werden können,
mit Signatur und Beispiel.

Beispiele:
  gridwerk functions
  gridwerk functions --category range
  gridwerk functions --json`,
	Args: cobra.NoArgs,
	RunE: runFunctions,
}

func init() {
	rootCmd.AddCommand(functionsCmd)
	functionsCmd.Flags().BoolVar(&functionsJSON, "json", false, "Ausgabe als JSON")
	functionsCmd.Flags().StringVar(&functionsCategory, "category", "", "Nur Funktionen dieser Kategorie")
}

func runFunctions(cmd *cobra.Command, args []string) error {
	var sigs []registry.Signature
	for _, sig := range registry.Default().Signatures() {
		if functionsCategory == "" || sig.Category == functionsCategory {
			sigs = append(sigs, sig)
		}
	}

	out := cmd.OutOrStdout()
	if functionsJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(sigs)
	}

	if len(sigs) == 0 {
		fmt.Fprintf(out, "Keine Funktionen in Kategorie %q\n", functionsCategory)
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KATEGORIE\tSIGNATUR\tBESCHREIBUNG")
	for _, sig := range sigs {
		fmt.Fprintf(w, "%s\t%s\t%s\n", sig.Category, sig.String(), sig.Description)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "\n%d Funktionen\n", len(sigs))
	return nil
}
