// Package config provides centralized configuration management for marketmux.
// Values are layered with viper, lowest precedence first:
// Layer 1: built-in defaults
// Layer 2: a YAML config file (explicit path or discovered)
// Layer 3: MARKETMUX_ environment variables
// Layer 4: runtime overrides
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	gfconfig "github.com/fulmenhq/gofulmen/config"
	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/marketmux/marketmux/internal/core"
	"github.com/marketmux/marketmux/internal/core/curate"
)

const (
	// AppName names the config directory and default file.
	AppName = "marketmux"
	// EnvPrefix prefixes every environment override.
	EnvPrefix = "MARKETMUX"
	// DefaultProviderName is the provider created when none are configured.
	DefaultProviderName = "synthetic"
)

var (
	// appConfig holds the current application configuration
	appConfig *Config
	configMu  sync.RWMutex
)

// EnvBinding maps one environment variable to a config path.
type EnvBinding struct {
	Name string
	Path string
}

// Load reads configuration from path (or a discovered file when path is
// empty), applies environment and runtime overrides, and validates the
// result.
//
// This function is safe to call multiple times (e.g., for config reload)
func Load(path string, runtimeOverrides ...map[string]any) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, b := range EnvBindings() {
		if err := v.BindEnv(b.Path, b.Name); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", b.Name, err)
		}
	}

	if path == "" {
		path = discoverConfigFile()
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	for key, value := range dynamicEnvOverrides(os.Environ()) {
		v.Set(key, value)
	}
	for _, overrides := range runtimeOverrides {
		flat := map[string]any{}
		flatten("", overrides, flat)
		for key, value := range flat {
			v.Set(key, value)
		}
	}

	cfg, err := decode(v.AllSettings())
	if err != nil {
		return nil, err
	}
	applyDerivedDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}

	setConfig(cfg)
	return cfg, nil
}

func decode(settings map[string]any) (*Config, error) {
	cfg := &Config{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
			mapstructure.StringToFloat64HookFunc(),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.profile", "SIMPLE")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("health.enabled", true)
	v.SetDefault("debug.enabled", false)
	v.SetDefault("debug.pprof_enabled", false)

	v.SetDefault("rate_limit_margin", 1.0)
	v.SetDefault("rate_limit_timeout", "30s")
	v.SetDefault("fallback_delay", "100ms")

	policy := curate.DefaultPolicy()
	v.SetDefault("curation.moneyness_band", policy.MoneynessBand)
	v.SetDefault("curation.min_volume", policy.MinVolume)
	v.SetDefault("curation.min_open_interest", policy.MinOpenInterest)
	v.SetDefault("curation.max_per_side", policy.MaxPerSide)
	v.SetDefault("curation.min_expiration_volume", policy.MinExpirationVolume)
	v.SetDefault("curation.max_expirations", policy.MaxExpirations)
	v.SetDefault("curation.signal_points", policy.SignalPoints)
	v.SetDefault("curation.display_points", policy.DisplayPoints)
}

// applyDerivedDefaults fills sections that cannot be expressed as viper
// defaults without being merged into user-provided maps.
func applyDerivedDefaults(cfg *Config) {
	if len(cfg.Providers) == 0 {
		cfg.Providers = map[string]ProviderConfig{
			DefaultProviderName: {Type: DefaultProviderName},
		}
	}
	if cfg.Chains == nil {
		cfg.Chains = map[string][]string{}
	}
	// viper lower-cases map keys, so provider references follow suit.
	for domain, names := range cfg.Chains {
		normalized := make([]string, 0, len(names))
		for _, name := range names {
			if name = strings.ToLower(strings.TrimSpace(name)); name != "" {
				normalized = append(normalized, name)
			}
		}
		cfg.Chains[domain] = normalized
	}
	if cfg.RateLimits == nil {
		cfg.RateLimits = map[string]core.RateLimitConfig{}
	}
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validate checks field bounds and that every chain names a configured
// provider.
func Validate(cfg *Config) error {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	if err := validate.Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("invalid config: %w", err)
		}
		parts := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			parts = append(parts, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
		}
		return fmt.Errorf("invalid config: %s", strings.Join(parts, ", "))
	}

	for _, domain := range core.SortedKeys(cfg.Chains) {
		for _, name := range cfg.Chains[domain] {
			if _, ok := cfg.Providers[name]; !ok {
				return core.NewConfigurationError(domain, "chain references unknown provider %q", name)
			}
		}
	}
	return nil
}

// GetConfig returns the current application configuration (thread-safe)
func GetConfig() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return appConfig
}

// setConfig updates the current configuration (thread-safe)
func setConfig(cfg *Config) {
	configMu.Lock()
	defer configMu.Unlock()
	appConfig = cfg
}

// EnvBindings returns the fixed environment variable mappings.
func EnvBindings() []EnvBinding {
	prefix := EnvPrefix + "_"
	return []EnvBinding{
		// Server config
		{Name: prefix + "HOST", Path: "server.host"},
		{Name: prefix + "PORT", Path: "server.port"},
		// Duration fields are parsed as strings and converted by mapstructure decode hook
		{Name: prefix + "READ_TIMEOUT", Path: "server.read_timeout"},
		{Name: prefix + "WRITE_TIMEOUT", Path: "server.write_timeout"},
		{Name: prefix + "IDLE_TIMEOUT", Path: "server.idle_timeout"},
		{Name: prefix + "SHUTDOWN_TIMEOUT", Path: "server.shutdown_timeout"},

		{Name: prefix + "LOG_LEVEL", Path: "logging.level"},
		{Name: prefix + "LOG_PROFILE", Path: "logging.profile"},

		{Name: prefix + "METRICS_ENABLED", Path: "metrics.enabled"},
		{Name: prefix + "METRICS_PORT", Path: "metrics.port"},
		{Name: prefix + "HEALTH_ENABLED", Path: "health.enabled"},
		{Name: prefix + "DEBUG_ENABLED", Path: "debug.enabled"},
		{Name: prefix + "DEBUG_PPROF_ENABLED", Path: "debug.pprof_enabled"},

		{Name: prefix + "RATE_LIMIT_MARGIN", Path: "rate_limit_margin"},
		{Name: prefix + "RATE_LIMIT_TIMEOUT", Path: "rate_limit_timeout"},
		{Name: prefix + "FALLBACK_DELAY", Path: "fallback_delay"},
	}
}

var rateLimitFields = []string{"requests_per_minute", "requests_per_day", "burst_size"}

// dynamicEnvOverrides maps keyed variables whose names embed a map key:
//
//	MARKETMUX_CHAINS_<DOMAIN>=a,b
//	MARKETMUX_PROVIDERS_<NAME>_ENABLED=false
//	MARKETMUX_RATE_LIMITS_<SOURCE>_<REQUESTS_PER_MINUTE|REQUESTS_PER_DAY|BURST_SIZE>=n
func dynamicEnvOverrides(environ []string) map[string]any {
	prefix := EnvPrefix + "_"
	out := map[string]any{}
	for _, item := range environ {
		key, value, ok := strings.Cut(item, "=")
		if !ok || strings.TrimSpace(value) == "" || !strings.HasPrefix(key, prefix) {
			continue
		}
		rest := strings.ToLower(key[len(prefix):])
		value = strings.TrimSpace(value)

		switch {
		case strings.HasPrefix(rest, "chains_"):
			if domain := rest[len("chains_"):]; domain != "" {
				out["chains."+domain] = value
			}
		case strings.HasPrefix(rest, "providers_") && strings.HasSuffix(rest, "_enabled"):
			name := strings.TrimSuffix(rest[len("providers_"):], "_enabled")
			if name != "" {
				out["providers."+name+".enabled"] = strings.EqualFold(value, "true")
			}
		case strings.HasPrefix(rest, "rate_limits_"):
			spec := rest[len("rate_limits_"):]
			for _, field := range rateLimitFields {
				if source, ok := strings.CutSuffix(spec, "_"+field); ok && source != "" {
					out["rate_limits."+source+"."+field] = value
					break
				}
			}
		}
	}
	return out
}

// flatten turns nested override maps into dotted viper keys.
func flatten(prefix string, in map[string]any, out map[string]any) {
	for key, value := range in {
		path := strings.ToLower(key)
		if prefix != "" {
			path = prefix + "." + path
		}
		if nested, ok := value.(map[string]any); ok && len(nested) > 0 {
			flatten(path, nested, out)
			continue
		}
		out[path] = value
	}
}

// DefaultConfigPath returns the XDG-compliant path to the user config file.
func DefaultConfigPath() string {
	configDir := gfconfig.GetAppConfigDir(AppName)
	if strings.TrimSpace(configDir) == "" {
		return ""
	}
	return filepath.Join(configDir, "config.yaml")
}

// discoverConfigFile returns the first existing candidate: $MARKETMUX_CONFIG,
// the user config file, then ./marketmux.yaml.
func discoverConfigFile() string {
	candidates := []string{
		strings.TrimSpace(os.Getenv(EnvPrefix + "_CONFIG")),
		DefaultConfigPath(),
		AppName + ".yaml",
	}
	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		if st, err := os.Stat(candidate); err == nil && !st.IsDir() {
			return candidate
		}
	}
	return ""
}
