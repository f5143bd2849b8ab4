package cmd

import (
	"github.com/spf13/cobra"

	"github.com/marketmux/marketmux/internal/core/engine"
	"github.com/marketmux/marketmux/internal/output"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show provider chain health",
	Long: `Probe every provider in every domain chain and print its health,
probe latency and capabilities. Use --remote to ask a running server instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		remote, err := cmd.Flags().GetString("remote")
		if err != nil {
			return err
		}

		var chains []engine.ChainStatus
		if remote != "" {
			chains, err = newRemoteClient(remote).Status(cmd.Context())
		} else {
			chains, err = localStatus(cmd)
		}
		if err != nil {
			return err
		}
		return render(cmd, "status", func(f output.Formatter) (string, error) {
			return f.FormatStatus(chains)
		})
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().String("remote", "", "Base URL of a running marketmux server")
}

func localStatus(cmd *cobra.Command) ([]engine.ChainStatus, error) {
	svc, _, err := newService()
	if err != nil {
		return nil, err
	}
	return svc.Status(cmd.Context()), nil
}
