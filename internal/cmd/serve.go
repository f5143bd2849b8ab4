package cmd

import (
	"context"
	"errors"
	"time"

	"github.com/fulmenhq/gofulmen/signals"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/marketmux/marketmux/internal/config"
	apperrors "github.com/marketmux/marketmux/internal/errors"
	"github.com/marketmux/marketmux/internal/market"
	"github.com/marketmux/marketmux/internal/metrics"
	"github.com/marketmux/marketmux/internal/observability"
	"github.com/marketmux/marketmux/internal/server"
	"github.com/marketmux/marketmux/internal/server/handlers"
)

// telemetryHealthChecker ensures telemetry system and exporter are available
type telemetryHealthChecker struct{}

func (telemetryHealthChecker) CheckHealth(ctx context.Context) error {
	if observability.TelemetrySystem == nil || observability.PrometheusExporter == nil {
		return errors.New("telemetry system not initialized")
	}
	return nil
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the HTTP API with graceful shutdown support.

Signal Handling:
  • Ctrl+C (SIGINT) or SIGTERM: Graceful shutdown
  • Ctrl+C twice within 2s: Force quit
  • SIGHUP: Re-validate the config file (restart to apply provider changes)

The server will cleanly shut down the HTTP server and flush logs on shutdown.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("host", "", "server host (overrides server.host)")
	serveCmd.Flags().IntP("port", "p", 0, "server port (overrides server.port)")
}

// serveOverrides turns explicitly set flags into config overrides.
func serveOverrides(cmd *cobra.Command) (map[string]any, error) {
	overrides := map[string]any{}
	if cmd.Flags().Changed("host") {
		host, err := cmd.Flags().GetString("host")
		if err != nil {
			return nil, err
		}
		overrides["server"] = map[string]any{"host": host}
	}
	if cmd.Flags().Changed("port") {
		port, err := cmd.Flags().GetInt("port")
		if err != nil {
			return nil, err
		}
		serverOverrides, _ := overrides["server"].(map[string]any)
		if serverOverrides == nil {
			serverOverrides = map[string]any{}
			overrides["server"] = serverOverrides
		}
		serverOverrides["port"] = port
	}
	return overrides, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	overrides, err := serveOverrides(cmd)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(overrides)
	if err != nil {
		return err
	}

	observability.InitServerLogger(config.AppName, cfg.Logging.Level, config.AppName)
	log := observability.ServerLogger

	if err := observability.InitMetrics(config.AppName, cfg.Metrics, config.AppName); err != nil {
		log.Error("Failed to initialize metrics", zap.Error(err))
		return apperrors.Wrap(cmd.Context(), apperrors.CodeInternal, err, "metrics initialization failed")
	}

	svc, err := market.New(cfg, market.Deps{
		Logger:   log,
		Recorder: metrics.NewEngineRecorder(),
	})
	if err != nil {
		return err
	}

	hm := handlers.NewHealthManager(versionInfo.Version)
	if cfg.Metrics.Enabled {
		hm.RegisterChecker("telemetry", telemetryHealthChecker{})
	}
	srv := server.New(cfg, svc, hm)

	log.Info("Initializing server",
		zap.String("service", config.AppName),
		zap.String("version", versionInfo.Version),
		zap.String("addr", srv.Addr()),
		zap.Bool("metrics_enabled", cfg.Metrics.Enabled),
		zap.Int("metrics_port", observability.GetMetricsPort()),
		zap.Strings("providers", cfg.EnabledProviders()))

	shutdownTimeout := cfg.Server.ShutdownTimeout
	if shutdownTimeout == 0 {
		shutdownTimeout = 10 * time.Second
	}

	// Shutdown handlers run LIFO: the HTTP server stops before the logger flushes.
	signals.OnShutdown(func(ctx context.Context) error {
		log.Info("Flushing logger...")
		if err := log.Sync(); err != nil {
			// Sync errors are often benign (stdout/stderr already closed)
			log.Warn("Logger sync returned error (may be benign)", zap.Error(err))
		}
		return nil
	})
	signals.OnShutdown(func(ctx context.Context) error {
		log.Info("Shutting down HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return apperrors.Wrap(ctx, apperrors.CodeInternal, err, "server shutdown failed")
		}
		log.Info("HTTP server stopped gracefully")
		return nil
	})

	signals.OnReload(func(ctx context.Context) error {
		log.Info("Received SIGHUP: validating configuration")
		reloaded, err := config.Load(cfgFile, overrides)
		if err != nil {
			log.Error("Config reload failed", zap.Error(err))
			return apperrors.Wrap(ctx, apperrors.CodeConfigInvalid, err, "config reload failed")
		}
		// TODO: rebuild the market service and swap it into the router so
		// provider and chain edits apply without a restart.
		log.Info("Configuration is valid; restart to apply provider changes",
			zap.Strings("providers", reloaded.EnabledProviders()))
		return nil
	})

	if err := signals.EnableDoubleTap(signals.DoubleTapConfig{
		Window:  2 * time.Second,
		Message: "Press Ctrl+C again within 2 seconds to force quit",
	}); err != nil {
		log.Warn("Failed to enable double-tap force quit", zap.Error(err))
	}

	errChan := make(chan error, 2)
	go func() {
		log.Info("Starting HTTP server...", zap.String("addr", srv.Addr()))
		metrics.SetServerStartTime(time.Now())
		errChan <- srv.Start()
	}()

	go func() {
		if err := signals.Listen(cmd.Context()); err != nil {
			log.Error("Signal handler error", zap.Error(err))
			errChan <- err
		}
	}()

	if err := <-errChan; err != nil {
		return apperrors.Wrap(cmd.Context(), apperrors.CodeInternal, err, "server error")
	}
	return nil
}
