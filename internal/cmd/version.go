package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marketmux/marketmux/internal/output"
	"github.com/marketmux/marketmux/internal/server/handlers"
)

var extended bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  "Print version information. Use --extended for full details including Crucible and Go versions.",
	RunE: func(cmd *cobra.Command, args []string) error {
		info := handlers.CurrentVersion()
		w := cmd.OutOrStdout()

		format, err := resolveOutputFormat(cmd)
		if err != nil {
			return err
		}
		if format == output.FormatJSON {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(info)
		}

		fmt.Fprintf(w, "%s %s\n", info.App.Name, info.App.Version)
		if !extended {
			return nil
		}
		fmt.Fprintf(w, "Commit: %s\n", info.App.Commit)
		fmt.Fprintf(w, "Built: %s\n", info.App.BuildDate)
		fmt.Fprintf(w, "Go: %s (%s)\n", info.App.GoVersion, info.Runtime.Platform)
		fmt.Fprintf(w, "\n")
		fmt.Fprintf(w, "Gofulmen: %s\n", info.Dependencies.Gofulmen)
		fmt.Fprintf(w, "Crucible: %s\n", info.Dependencies.Crucible)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolVarP(&extended, "extended", "e", false, "show extended version information")
}
