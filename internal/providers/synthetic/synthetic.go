// Package synthetic implements a deterministic in-process market data
// provider. Every value is derived from the symbol and the provider seed, so
// repeated calls return the same data for the same clock.
package synthetic

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"go.uber.org/atomic"

	"github.com/marketmux/marketmux/internal/core"
	"github.com/marketmux/marketmux/internal/core/provider"
)

// TypeName is the registry name for this provider type.
const TypeName = "synthetic"

// Options configures a synthetic provider.
type Options struct {
	Name           string        `mapstructure:"name"`
	Capabilities   []string      `mapstructure:"capabilities"`
	SeedPrice      float64       `mapstructure:"seed_price"`
	Healthy        bool          `mapstructure:"healthy"`
	FailOperations []string      `mapstructure:"fail_operations"`
	Latency        time.Duration `mapstructure:"latency"`
	Expirations    int           `mapstructure:"expirations"`
	Points         int           `mapstructure:"points"`

	Clock func() time.Time `mapstructure:"-"`
}

// DefaultOptions returns a healthy provider that serves every operation.
func DefaultOptions() Options {
	return Options{
		Name:        TypeName,
		Healthy:     true,
		Expirations: 4,
		Points:      60,
	}
}

// DefaultCapabilities is declared when Options.Capabilities is empty.
var DefaultCapabilities = core.NewCapabilitySet(
	core.CapabilityRealTimeQuotes,
	core.CapabilityBatchQuotes,
	core.CapabilityOptionsChain,
	core.CapabilityFundamentals,
	core.CapabilityHistorical,
	core.CapabilityTechnicalIndicators,
	core.CapabilityUnlimitedRate,
)

// Provider serves generated market data.
type Provider struct {
	opts Options
	caps core.CapabilitySet
	fail map[provider.Operation]struct{}

	healthy  *atomic.Bool
	calls    *atomic.Int64
	failures *atomic.Int64
}

// New builds a provider from opts.
func New(opts Options) (*Provider, error) {
	opts.Name = strings.TrimSpace(opts.Name)
	if opts.Name == "" {
		opts.Name = TypeName
	}
	if opts.SeedPrice < 0 {
		return nil, fmt.Errorf("seed_price must not be negative")
	}
	if opts.Expirations <= 0 {
		opts.Expirations = DefaultOptions().Expirations
	}
	if opts.Points <= 0 {
		opts.Points = DefaultOptions().Points
	}

	caps := DefaultCapabilities
	if len(opts.Capabilities) > 0 {
		parsed, err := core.ParseCapabilitySet(opts.Capabilities)
		if err != nil {
			return nil, err
		}
		caps = parsed
	}

	fail := make(map[provider.Operation]struct{}, len(opts.FailOperations))
	for _, name := range opts.FailOperations {
		if strings.TrimSpace(name) == "" {
			continue
		}
		op, err := provider.ParseOperation(name)
		if err != nil {
			return nil, err
		}
		fail[op] = struct{}{}
	}

	return &Provider{
		opts:     opts,
		caps:     caps,
		fail:     fail,
		healthy:  atomic.NewBool(opts.Healthy),
		calls:    atomic.NewInt64(0),
		failures: atomic.NewInt64(0),
	}, nil
}

// NewFromArgs is the registry constructor.
func NewFromArgs(args provider.Args) (provider.Provider, error) {
	opts := DefaultOptions()
	if err := args.Decode(&opts); err != nil {
		return nil, err
	}
	return New(opts)
}

func (p *Provider) Name() string                     { return p.opts.Name }
func (p *Provider) Capabilities() core.CapabilitySet { return p.caps }

func (p *Provider) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !p.healthy.Load() {
		return fmt.Errorf("%w: %s is marked unhealthy", core.ErrUnhealthy, p.opts.Name)
	}
	return nil
}

// SetHealthy toggles the health probe result.
func (p *Provider) SetHealthy(healthy bool) { p.healthy.Store(healthy) }

// Calls returns how many operations were invoked.
func (p *Provider) Calls() int64 { return p.calls.Load() }

func (p *Provider) Metadata() map[string]any {
	return map[string]any{
		"type":     TypeName,
		"calls":    p.calls.Load(),
		"failures": p.failures.Load(),
		"latency":  p.opts.Latency.String(),
	}
}

// begin runs the shared preamble for every operation.
func (p *Provider) begin(ctx context.Context, op provider.Operation) error {
	p.calls.Inc()
	if !p.caps.Has(op.Capability()) {
		return fmt.Errorf("%w: %s does not declare %s", core.ErrUnsupported, p.opts.Name, op.Capability())
	}
	if p.opts.Latency > 0 {
		timer := time.NewTimer(p.opts.Latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	if _, ok := p.fail[op]; ok {
		p.failures.Inc()
		return fmt.Errorf("synthetic %s failure injected for %s", op, p.opts.Name)
	}
	return ctx.Err()
}

func (p *Provider) now() time.Time {
	if p.opts.Clock != nil {
		return p.opts.Clock().UTC()
	}
	return time.Now().UTC()
}

func normalizeSymbol(symbol string) (string, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return "", fmt.Errorf("symbol is required")
	}
	return symbol, nil
}

// seed returns a stable per-symbol value in [0,1).
func seed(symbol string) float64 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(symbol))
	return float64(h.Sum32()%10000) / 10000
}

func (p *Provider) basePrice(symbol string) float64 {
	if p.opts.SeedPrice > 0 {
		return p.opts.SeedPrice
	}
	return core.Round(20+seed(symbol)*480, 2)
}
