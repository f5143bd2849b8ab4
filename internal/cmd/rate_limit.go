package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marketmux/marketmux/internal/core"
	"github.com/marketmux/marketmux/internal/output"
)

var rateLimitCmd = &cobra.Command{
	Use:     "rate-limit",
	Aliases: []string{"limits"},
	Short:   "Inspect and reset provider rate limit state",
}

var rateLimitListCmd = &cobra.Command{
	Use:   "list",
	Short: "List rate limit usage per source",
	Long: `List request counts against each source's per-minute and per-day
budget. Without --remote this shows the configured limits of a fresh process.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		remote, err := cmd.Flags().GetString("remote")
		if err != nil {
			return err
		}

		var limits []core.RateLimitStatus
		if remote != "" {
			limits, err = newRemoteClient(remote).RateLimits(cmd.Context())
			if err != nil {
				return err
			}
		} else {
			svc, _, err := newService()
			if err != nil {
				return err
			}
			limits = svc.RateLimits()
		}

		return render(cmd, "rate-limit.list", func(f output.Formatter) (string, error) {
			return f.FormatRateLimits(limits)
		})
	},
}

var rateLimitResetCmd = &cobra.Command{
	Use:   "reset [source]",
	Short: "Reset rate limit state on a running server",
	Long: `Clear recorded requests for one source, or for every source with --all.
Rate limit state lives in the server process, so --remote is required.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		remote, err := cmd.Flags().GetString("remote")
		if err != nil {
			return err
		}
		all, err := cmd.Flags().GetBool("all")
		if err != nil {
			return err
		}
		if remote == "" {
			return errors.New("--remote is required: rate limit state lives in the server process")
		}

		var source string
		switch {
		case len(args) == 1 && all:
			return errors.New("pass a source or --all, not both")
		case len(args) == 1:
			source = args[0]
		case !all:
			return errors.New("a source is required (or use --all)")
		}

		reset, err := newRemoteClient(remote).ResetRateLimit(cmd.Context(), source)
		if err != nil {
			return err
		}
		label := source
		if label == "" {
			label = "all sources"
		}
		if !reset {
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "No rate limit state for %s\n", label)
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "Reset rate limit state for %s\n", label)
		return err
	},
}

func init() {
	rateLimitCmd.PersistentFlags().String("remote", "", "Base URL of a running marketmux server")
	rateLimitResetCmd.Flags().Bool("all", false, "Reset every source")

	rateLimitCmd.AddCommand(rateLimitListCmd)
	rateLimitCmd.AddCommand(rateLimitResetCmd)
	rootCmd.AddCommand(rateLimitCmd)
}
