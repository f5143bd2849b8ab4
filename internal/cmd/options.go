package cmd

import (
	"github.com/spf13/cobra"

	"github.com/marketmux/marketmux/internal/output"
)

var optionsCmd = &cobra.Command{
	Use:   "options <symbol>",
	Short: "Fetch an options chain",
	Long: `Fetch the options chain for a symbol. By default the chain is curated:
contracts are kept near the money and above the liquidity floors, and the
busiest expirations are kept. Use --raw for the provider's full chain.`,
	Example: `  marketmux options SPY
  marketmux options SPY --expiration 2025-01-17 --raw`,
	Args: cobra.ExactArgs(1),
	RunE: runOptions,
}

func init() {
	rootCmd.AddCommand(optionsCmd)

	optionsCmd.Flags().String("expiration", "", "Only this expiration date (YYYY-MM-DD)")
	optionsCmd.Flags().Bool("raw", false, "Skip curation and print the full chain")
}

func runOptions(cmd *cobra.Command, args []string) error {
	expiration, err := cmd.Flags().GetString("expiration")
	if err != nil {
		return err
	}
	raw, err := cmd.Flags().GetBool("raw")
	if err != nil {
		return err
	}

	svc, _, err := newService()
	if err != nil {
		return err
	}
	resp, err := svc.OptionsChain(cmd.Context(), args[0], expiration, raw)
	if err != nil {
		return err
	}

	return render(cmd, "options."+args[0], func(f output.Formatter) (string, error) {
		return f.FormatResponse("", resp)
	})
}
