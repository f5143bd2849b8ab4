package cmd

import (
	"github.com/spf13/cobra"

	"github.com/marketmux/marketmux/internal/output"
)

var fundamentalsCmd = &cobra.Command{
	Use:   "fundamentals <symbol>",
	Short: "Fetch company fundamentals",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, err := newService()
		if err != nil {
			return err
		}
		resp, err := svc.Fundamentals(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return render(cmd, "fundamentals."+args[0], func(f output.Formatter) (string, error) {
			return f.FormatResponse("", resp)
		})
	},
}

var historicalCmd = &cobra.Command{
	Use:     "historical <symbol>",
	Aliases: []string{"history"},
	Short:   "Fetch daily price history",
	Example: `  marketmux historical AAPL --period 3mo`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		period, err := cmd.Flags().GetString("period")
		if err != nil {
			return err
		}
		svc, _, err := newService()
		if err != nil {
			return err
		}
		resp, err := svc.Historical(cmd.Context(), args[0], period)
		if err != nil {
			return err
		}
		return render(cmd, "historical."+args[0], func(f output.Formatter) (string, error) {
			return f.FormatResponse("", resp)
		})
	},
}

func init() {
	rootCmd.AddCommand(fundamentalsCmd)
	rootCmd.AddCommand(historicalCmd)

	historicalCmd.Flags().String("period", "1mo", "History window: 5d, 1mo, 3mo, 6mo, 1y, 2y, 5y")
}
