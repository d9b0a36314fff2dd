package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/msto63/gridwerk/pkg/core/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Zeigt Versionsinformationen",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		if !verbose {
			fmt.Fprintln(out, version.String("cli"))
			return
		}
		fmt.Fprintf(out, "gridwerk %s\n", version.Platform)
		fmt.Fprintf(out, "  CLI:       %s\n", version.CLI)
		fmt.Fprintf(out, "  Server:    %s\n", version.Server)
		fmt.Fprintf(out, "  API:       %s\n", version.Protocol)
		fmt.Fprintf(out, "  Commit:    %s\n", version.Commit)
		fmt.Fprintf(out, "  Build:     %s\n", version.BuildDate)
		fmt.Fprintf(out, "  Go:        %s\n", runtime.Version())
		fmt.Fprintf(out, "  OS/Arch:   %s/%s\n", runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
