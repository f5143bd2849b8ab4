package cmd

import (
	"github.com/fulmenhq/gofulmen/telemetry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/marketmux/marketmux/internal/config"
	"github.com/marketmux/marketmux/internal/market"
	"github.com/marketmux/marketmux/internal/metrics"
	"github.com/marketmux/marketmux/internal/observability"
	"github.com/marketmux/marketmux/internal/output"
)

var (
	cfgFile string
	verbose bool

	// Version info set by main package
	versionInfo struct {
		Version   string
		Commit    string
		BuildDate string
	}
)

// SetVersionInfo is called by main package to set version information
func SetVersionInfo(version, commit, buildDate string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
	versionInfo.BuildDate = buildDate
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   config.AppName,
	Short: "Market data aggregation with provider fallback",
	Long: `marketmux fetches quotes, options chains, fundamentals, price history
and technical indicators through ordered provider chains, falling back to the
next provider when one is rate limited, unhealthy or failing.

Run a single lookup from the command line or start the HTTP API with "serve".`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Disable global telemetry early to prevent config loading from emitting
	// metrics to stdout. Server mode will initialize proper telemetry later.
	disabledConfig := &telemetry.Config{Enabled: false}
	if sys, err := telemetry.NewSystem(disabledConfig); err == nil {
		telemetry.SetGlobalSystem(sys)
	}

	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/marketmux/config.yaml or ./marketmux.yaml)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "verbose output (sets log level to debug)")
	flags.StringP("output-format", "o", string(output.FormatTable), "Output format: table, json, markdown")
	flags.String("out", "", "Write output to a file (default stdout)")
	flags.String("out-dir", "", "Write output to a directory")
}

// initConfig brings up the CLI logger before any command runs. Commands load
// configuration themselves so that flag overrides can be applied.
func initConfig() {
	observability.InitCLILogger(config.AppName, verbose)
}

// loadConfig reads the layered configuration and re-levels the CLI logger
// from it.
func loadConfig(overrides ...map[string]any) (*config.Config, error) {
	cfg, err := config.Load(cfgFile, overrides...)
	if err != nil {
		return nil, err
	}
	observability.InitCLILogger(config.AppName, verbose, cfg.Logging.Level)
	observability.CLILogger.Debug("Configuration loaded",
		zap.String("config_file", cfgFile),
		zap.Strings("providers", cfg.EnabledProviders()))
	return cfg, nil
}

// newService builds the market service for one CLI invocation.
func newService(overrides ...map[string]any) (*market.Service, *config.Config, error) {
	cfg, err := loadConfig(overrides...)
	if err != nil {
		return nil, nil, err
	}
	svc, err := market.New(cfg, market.Deps{
		Logger:   observability.Logger(),
		Recorder: metrics.NewEngineRecorder(),
	})
	if err != nil {
		return nil, nil, err
	}
	return svc, cfg, nil
}
