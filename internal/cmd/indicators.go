package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marketmux/marketmux/internal/market"
	"github.com/marketmux/marketmux/internal/output"
)

var indicatorCmd = &cobra.Command{
	Use:     "indicator <symbol> [rsi|macd|bollinger|all]",
	Aliases: []string{"indicators"},
	Short:   "Fetch curated technical indicators",
	Long: `Fetch RSI, MACD or Bollinger Bands for a symbol, reduced to the most
recent points plus a short signal summary. With "all" (the default) the three
are fetched concurrently and the command fails only if all of them fail.`,
	Example: `  marketmux indicator AAPL
  marketmux indicator AAPL rsi --period 21`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runIndicator,
}

func init() {
	rootCmd.AddCommand(indicatorCmd)

	indicatorCmd.Flags().Int("period", 0, "Indicator window (0 uses the provider default)")
}

func runIndicator(cmd *cobra.Command, args []string) error {
	period, err := cmd.Flags().GetInt("period")
	if err != nil {
		return err
	}
	name := "all"
	if len(args) == 2 {
		name = strings.ToLower(strings.TrimSpace(args[1]))
	}

	svc, _, err := newService()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	symbol := args[0]
	outName := "indicator." + symbol + "." + name

	if name == "all" {
		set, err := svc.Indicators(ctx, symbol)
		if err != nil {
			return err
		}
		return render(cmd, outName, func(f output.Formatter) (string, error) {
			return f.FormatIndicators(set)
		})
	}

	var resp *market.Response
	switch name {
	case "rsi":
		resp, err = svc.RSI(ctx, symbol, period)
	case "macd":
		resp, err = svc.MACD(ctx, symbol)
	case "bollinger", "bbands":
		resp, err = svc.Bollinger(ctx, symbol, period)
	default:
		return fmt.Errorf("%w: unknown indicator %q (want rsi, macd, bollinger or all)", market.ErrInvalidArgument, args[1])
	}
	if err != nil {
		return err
	}
	return render(cmd, outName, func(f output.Formatter) (string, error) {
		return f.FormatResponse("", resp)
	})
}
