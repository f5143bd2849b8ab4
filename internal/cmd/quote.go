package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/marketmux/marketmux/internal/market"
	"github.com/marketmux/marketmux/internal/output"
)

var quoteCmd = &cobra.Command{
	Use:   "quote <symbol> [symbol...]",
	Short: "Fetch real-time quotes",
	Long: `Fetch the latest quote for one or more symbols. Several symbols are
requested as a single batch; symbols no provider could price are listed as
missing.`,
	Example: `  marketmux quote AAPL
  marketmux quote AAPL MSFT NVDA -o json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuote,
}

func init() {
	rootCmd.AddCommand(quoteCmd)
}

func runQuote(cmd *cobra.Command, args []string) error {
	svc, _, err := newService()
	if err != nil {
		return err
	}

	var resp *market.Response
	if len(args) == 1 && !strings.Contains(args[0], ",") {
		resp, err = svc.Quote(cmd.Context(), args[0])
	} else {
		resp, err = svc.Quotes(cmd.Context(), args)
	}
	if err != nil {
		return err
	}

	return render(cmd, "quote."+strings.Join(args, "-"), func(f output.Formatter) (string, error) {
		return f.FormatResponse("", resp)
	})
}
