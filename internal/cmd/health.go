package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	apperrors "github.com/marketmux/marketmux/internal/errors"
	"github.com/marketmux/marketmux/internal/observability"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Run self-health check",
	Long: `Run a self-health check: load configuration, build every provider
chain and probe the quotes chain, exactly as "serve" would at startup.`,
	Run: func(cmd *cobra.Command, args []string) {
		observability.CLILogger.Info("Running health check...")

		svc, cfg, err := newService()
		if err != nil {
			ExitWithCode(observability.CLILogger, ExitCodeFor(err), "Configuration check failed",
				apperrors.FromDomainError(cmd.Context(), err))
			return
		}
		observability.CLILogger.Info("✅ Configuration loaded",
			zap.Strings("providers", cfg.EnabledProviders()))

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()
		if err := svc.CheckHealth(ctx); err != nil {
			ExitWithCode(observability.CLILogger, foundry.ExitExternalServiceUnavailable, "Quotes chain unhealthy",
				apperrors.Wrap(ctx, apperrors.CodeServiceUnavailable, err, err.Error()))
			return
		}
		observability.CLILogger.Info("✅ Quotes chain healthy")

		for _, chain := range svc.Status(ctx) {
			observability.CLILogger.Info(fmt.Sprintf("   %s: %d/%d providers healthy",
				chain.Chain, chain.HealthyProviders, chain.TotalProviders))
		}

		observability.CLILogger.Info("")
		observability.CLILogger.Info("✅ All health checks passed")
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
