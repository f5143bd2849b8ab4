package cmd

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/fulmenhq/gofulmen/crucible"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/marketmux/marketmux/internal/config"
	"github.com/marketmux/marketmux/internal/core"
	"github.com/marketmux/marketmux/internal/market"
	"github.com/marketmux/marketmux/internal/observability"
)

var envInfoCmd = &cobra.Command{
	Use:   "envinfo",
	Short: "Display environment information",
	Long:  "Display version, runtime, effective configuration and provider chain information.",
	Run: func(cmd *cobra.Command, args []string) {
		version := crucible.GetVersion()
		log := observability.CLILogger

		log.Info("=== marketmux Environment Information ===")
		log.Info("")

		log.Info("Application:")
		log.Info("  Version:    " + versionInfo.Version)
		log.Info("  Commit:     " + versionInfo.Commit)
		log.Info("  Built:      " + versionInfo.BuildDate)
		log.Info("")

		log.Info("SSOT:")
		log.Info("  Gofulmen:   "+version.Gofulmen, zap.String("gofulmen_version", version.Gofulmen))
		log.Info("  Crucible:   "+version.Crucible, zap.String("crucible_version", version.Crucible))
		log.Info("")

		log.Info("Runtime:")
		log.Info("  Go Version: "+runtime.Version(), zap.String("go_version", runtime.Version()))
		log.Info("  GOOS:       "+runtime.GOOS, zap.String("goos", runtime.GOOS))
		log.Info("  GOARCH:     "+runtime.GOARCH, zap.String("goarch", runtime.GOARCH))
		log.Info(fmt.Sprintf("  NumCPU:     %d", runtime.NumCPU()), zap.Int("num_cpu", runtime.NumCPU()))
		log.Info("")

		cfg, err := loadConfig()
		if err != nil {
			log.Warn("Config load failed", zap.Error(err))
			return
		}
		log = observability.CLILogger

		log.Info("Configuration:")
		log.Info("  Config File:    "+configFileLabel(), zap.String("config_file", configFileLabel()))
		log.Info("  Server:         " + fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port))
		log.Info("  Log Level:      "+cfg.Logging.Level, zap.String("log_level", cfg.Logging.Level))
		log.Info(fmt.Sprintf("  Metrics:        %t (port %d)", cfg.Metrics.Enabled, cfg.Metrics.Port))
		log.Info(fmt.Sprintf("  Margin:         %.2f", cfg.RateLimitMargin))
		log.Info("  Limit Timeout:  " + cfg.RateLimitTimeout.String())
		log.Info("  Fallback Delay: " + cfg.FallbackDelay.String())
		log.Info("")

		log.Info("Providers:")
		for _, name := range core.SortedKeys(cfg.Providers) {
			p := cfg.Providers[name]
			log.Info(fmt.Sprintf("  %s: type=%s enabled=%t", name, p.Type, p.IsEnabled()))
		}
		log.Info("")

		log.Info("Chains:")
		for _, domain := range market.Domains {
			names := cfg.ChainFor(string(domain))
			log.Info(fmt.Sprintf("  %-13s %s", string(domain)+":", strings.Join(names, " -> ")))
		}
		log.Info("")

		log.Info("Environment:")
		for _, b := range config.EnvBindings() {
			state := "(not set)"
			if _, ok := os.LookupEnv(b.Name); ok {
				state = "(set)"
			}
			log.Info(fmt.Sprintf("  %s -> %s %s", b.Name, b.Path, state))
		}
		log.Info("")

		log.Info("=== End Environment Information ===")
	},
}

func configFileLabel() string {
	if cfgFile != "" {
		return cfgFile
	}
	if path := config.DefaultConfigPath(); path != "" {
		return path + " (default)"
	}
	return "(none)"
}

func init() {
	rootCmd.AddCommand(envInfoCmd)
}
