package config

import (
	"strings"
	"time"

	"github.com/marketmux/marketmux/internal/core"
	"github.com/marketmux/marketmux/internal/core/curate"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig              `mapstructure:"server"`
	Logging   LoggingConfig             `mapstructure:"logging"`
	Metrics   MetricsConfig             `mapstructure:"metrics"`
	Health    HealthConfig              `mapstructure:"health"`
	Debug     DebugConfig               `mapstructure:"debug"`
	Providers map[string]ProviderConfig `mapstructure:"providers" validate:"dive"`
	// Chains maps a data domain to its provider order.
	Chains map[string][]string `mapstructure:"chains"`

	RateLimits       map[string]core.RateLimitConfig `mapstructure:"rate_limits" validate:"dive"`
	RateLimitMargin  float64                         `mapstructure:"rate_limit_margin" validate:"gt=0,lte=1"`
	RateLimitTimeout time.Duration                   `mapstructure:"rate_limit_timeout" validate:"gte=0"`
	// FallbackDelay is the pause between failed attempts. Negative disables it.
	FallbackDelay time.Duration `mapstructure:"fallback_delay"`

	Curation curate.Policy `mapstructure:"curation"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port" validate:"gte=0,lte=65535"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level   string `mapstructure:"level" validate:"omitempty,oneof=trace debug info warn error"`
	Profile string `mapstructure:"profile"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port" validate:"gte=0,lte=65535"`
}

// HealthConfig holds health check configuration
type HealthConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// DebugConfig holds debug configuration
type DebugConfig struct {
	Enabled      bool `mapstructure:"enabled"`
	PprofEnabled bool `mapstructure:"pprof_enabled"`
}

// ProviderConfig declares one provider instance. Options are handed to the
// constructor registered for Type.
type ProviderConfig struct {
	Type    string         `mapstructure:"type" validate:"required"`
	Enabled *bool          `mapstructure:"enabled"`
	Options map[string]any `mapstructure:"options"`
}

// IsEnabled reports whether the provider should be built. Providers are
// enabled unless explicitly disabled.
func (p ProviderConfig) IsEnabled() bool {
	return p.Enabled == nil || *p.Enabled
}

// EnabledProviders returns enabled provider names in lexical order.
func (c *Config) EnabledProviders() []string {
	var names []string
	for _, name := range core.SortedKeys(c.Providers) {
		if c.Providers[name].IsEnabled() {
			names = append(names, name)
		}
	}
	return names
}

// ChainFor returns the configured provider order for domain, or every
// enabled provider when the domain has no explicit chain.
func (c *Config) ChainFor(domain string) []string {
	if names, ok := c.Chains[strings.ToLower(domain)]; ok {
		return names
	}
	return c.EnabledProviders()
}
