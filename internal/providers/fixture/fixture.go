// Package fixture serves market data from a YAML snapshot. Sections absent
// from the snapshot are reported as unsupported.
package fixture

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/marketmux/marketmux/internal/core"
	"github.com/marketmux/marketmux/internal/core/provider"
)

// TypeName is the registry name for this provider type.
const TypeName = "fixture"

// Snapshot is the on-disk document.
type Snapshot struct {
	Name         string                                     `yaml:"name"`
	Capabilities []string                                   `yaml:"capabilities"`
	Healthy      *bool                                      `yaml:"healthy"`
	Quotes       map[string]core.Quote                      `yaml:"quotes"`
	Options      map[string]core.OptionsChain               `yaml:"options"`
	Fundamentals map[string]core.Fundamentals               `yaml:"fundamentals"`
	Historical   map[string]core.HistoricalSeries           `yaml:"historical"`
	Indicators   map[string]map[string]core.IndicatorSeries `yaml:"indicators"`
}

// Options configures a fixture provider. Name and Capabilities override the
// snapshot values when set.
type Options struct {
	Path         string   `mapstructure:"path"`
	Name         string   `mapstructure:"name"`
	Capabilities []string `mapstructure:"capabilities"`
}

// Provider answers from a loaded Snapshot.
type Provider struct {
	name    string
	caps    core.CapabilitySet
	healthy bool
	path    string
	snap    Snapshot
}

// Load reads a snapshot file.
func Load(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read fixture %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a snapshot document.
func Parse(data []byte) (Snapshot, error) {
	var snap Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("parse fixture: %w", err)
	}
	return snap, nil
}

// New builds a provider over snap.
func New(snap Snapshot, opts Options) (*Provider, error) {
	name := firstNonEmpty(opts.Name, snap.Name, TypeName)

	declared := opts.Capabilities
	if len(declared) == 0 {
		declared = snap.Capabilities
	}
	var caps core.CapabilitySet
	if len(declared) > 0 {
		parsed, err := core.ParseCapabilitySet(declared)
		if err != nil {
			return nil, err
		}
		caps = parsed
	} else {
		caps = snap.derivedCapabilities()
	}

	healthy := true
	if snap.Healthy != nil {
		healthy = *snap.Healthy
	}
	return &Provider{name: name, caps: caps, healthy: healthy, path: opts.Path, snap: normalize(snap)}, nil
}

// NewFromArgs is the registry constructor. It requires a path option.
func NewFromArgs(args provider.Args) (provider.Provider, error) {
	var opts Options
	if err := args.Decode(&opts); err != nil {
		return nil, err
	}
	if strings.TrimSpace(opts.Path) == "" {
		return nil, fmt.Errorf("fixture provider requires a path")
	}
	snap, err := Load(opts.Path)
	if err != nil {
		return nil, err
	}
	return New(snap, opts)
}

func (s Snapshot) derivedCapabilities() core.CapabilitySet {
	var caps []core.Capability
	if len(s.Quotes) > 0 {
		caps = append(caps, core.CapabilityRealTimeQuotes, core.CapabilityBatchQuotes)
	}
	if len(s.Options) > 0 {
		caps = append(caps, core.CapabilityOptionsChain)
	}
	if len(s.Fundamentals) > 0 {
		caps = append(caps, core.CapabilityFundamentals)
	}
	if len(s.Historical) > 0 {
		caps = append(caps, core.CapabilityHistorical)
	}
	if len(s.Indicators) > 0 {
		caps = append(caps, core.CapabilityTechnicalIndicators)
	}
	caps = append(caps, core.CapabilityUnlimitedRate)
	return core.NewCapabilitySet(caps...)
}

// normalize upper-cases symbol keys.
func normalize(s Snapshot) Snapshot {
	s.Quotes = upperKeys(s.Quotes)
	s.Options = upperKeys(s.Options)
	s.Fundamentals = upperKeys(s.Fundamentals)
	s.Historical = upperKeys(s.Historical)
	s.Indicators = upperKeys(s.Indicators)
	return s
}

func upperKeys[V any](m map[string]V) map[string]V {
	if m == nil {
		return nil
	}
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[strings.ToUpper(strings.TrimSpace(k))] = v
	}
	return out
}

func (p *Provider) Name() string                     { return p.name }
func (p *Provider) Capabilities() core.CapabilitySet { return p.caps }

func (p *Provider) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !p.healthy {
		return fmt.Errorf("%w: fixture %s is marked unhealthy", core.ErrUnhealthy, p.name)
	}
	return nil
}

func (p *Provider) Metadata() map[string]any {
	meta := map[string]any{"type": TypeName, "symbols": len(p.symbols())}
	if p.path != "" {
		meta["path"] = p.path
	}
	return meta
}

func (p *Provider) symbols() map[string]struct{} {
	out := make(map[string]struct{})
	for k := range p.snap.Quotes {
		out[k] = struct{}{}
	}
	for k := range p.snap.Options {
		out[k] = struct{}{}
	}
	for k := range p.snap.Fundamentals {
		out[k] = struct{}{}
	}
	for k := range p.snap.Historical {
		out[k] = struct{}{}
	}
	for k := range p.snap.Indicators {
		out[k] = struct{}{}
	}
	return out
}

// lookup resolves symbol in section. A nil section means the snapshot does
// not carry that data at all.
func lookup[V any](ctx context.Context, p *Provider, op provider.Operation, section map[string]V, symbol string) (V, error) {
	var zero V
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	if section == nil || !p.caps.Has(op.Capability()) {
		return zero, fmt.Errorf("%w: fixture %s has no %s data", core.ErrUnsupported, p.name, op)
	}
	key := strings.ToUpper(strings.TrimSpace(symbol))
	v, ok := section[key]
	if !ok {
		return zero, fmt.Errorf("fixture %s has no %s data for %s", p.name, op, key)
	}
	return v, nil
}

func (p *Provider) Quote(ctx context.Context, symbol string) (*core.Quote, error) {
	q, err := lookup(ctx, p, provider.OpQuote, p.snap.Quotes, symbol)
	if err != nil {
		return nil, err
	}
	q.Symbol = firstNonEmpty(q.Symbol, strings.ToUpper(symbol))
	return &q, nil
}

func (p *Provider) Quotes(ctx context.Context, symbols []string) (*core.QuoteBatch, error) {
	if len(symbols) == 0 {
		return nil, fmt.Errorf("at least one symbol is required")
	}
	batch := &core.QuoteBatch{}
	for _, symbol := range symbols {
		q, err := lookup(ctx, p, provider.OpBatchQuote, p.snap.Quotes, symbol)
		if err != nil {
			if ctx.Err() != nil || p.snap.Quotes == nil || !p.caps.Has(core.CapabilityBatchQuotes) {
				return nil, err
			}
			batch.Missing = append(batch.Missing, symbol)
			continue
		}
		q.Symbol = firstNonEmpty(q.Symbol, strings.ToUpper(symbol))
		batch.Quotes = append(batch.Quotes, q)
	}
	if len(batch.Quotes) == 0 {
		return nil, fmt.Errorf("fixture %s has no quotes for %s", p.name, strings.Join(symbols, ","))
	}
	return batch, nil
}

func (p *Provider) OptionsChain(ctx context.Context, symbol, expiration string) (*core.OptionsChain, error) {
	chain, err := lookup(ctx, p, provider.OpOptionsChain, p.snap.Options, symbol)
	if err != nil {
		return nil, err
	}
	out := chain
	out.Symbol = firstNonEmpty(chain.Symbol, strings.ToUpper(symbol))
	out.Contracts = nil
	expiration = strings.TrimSpace(expiration)
	for _, c := range chain.Contracts {
		if expiration == "" || c.Expiration == expiration {
			out.Contracts = append(out.Contracts, c)
		}
	}
	if expiration != "" && len(out.Contracts) == 0 {
		return nil, fmt.Errorf("fixture %s has no %s options expiring %s", p.name, out.Symbol, expiration)
	}
	return &out, nil
}

func (p *Provider) Fundamentals(ctx context.Context, symbol string) (*core.Fundamentals, error) {
	f, err := lookup(ctx, p, provider.OpFundamentals, p.snap.Fundamentals, symbol)
	if err != nil {
		return nil, err
	}
	f.Symbol = firstNonEmpty(f.Symbol, strings.ToUpper(symbol))
	return &f, nil
}

func (p *Provider) Historical(ctx context.Context, symbol, period string) (*core.HistoricalSeries, error) {
	h, err := lookup(ctx, p, provider.OpHistorical, p.snap.Historical, symbol)
	if err != nil {
		return nil, err
	}
	if period != "" && h.Period != "" && !strings.EqualFold(period, h.Period) {
		return nil, fmt.Errorf("fixture %s only has %s history for %s", p.name, h.Period, symbol)
	}
	h.Symbol = firstNonEmpty(h.Symbol, strings.ToUpper(symbol))
	h.Bars = append([]core.Bar(nil), h.Bars...)
	return &h, nil
}

func (p *Provider) indicator(ctx context.Context, op provider.Operation, symbol, name string) (*core.IndicatorSeries, error) {
	byName, err := lookup(ctx, p, op, p.snap.Indicators, symbol)
	if err != nil {
		return nil, err
	}
	series, ok := byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: fixture %s has no %s series", core.ErrUnsupported, p.name, name)
	}
	series.Symbol = firstNonEmpty(series.Symbol, strings.ToUpper(symbol))
	series.Indicator = name
	return &series, nil
}

func (p *Provider) RSI(ctx context.Context, symbol string, period int) (*core.IndicatorSeries, error) {
	return p.indicator(ctx, provider.OpRSI, symbol, core.IndicatorRSI)
}

func (p *Provider) MACD(ctx context.Context, symbol string) (*core.IndicatorSeries, error) {
	return p.indicator(ctx, provider.OpMACD, symbol, core.IndicatorMACD)
}

func (p *Provider) Bollinger(ctx context.Context, symbol string, period int) (*core.IndicatorSeries, error) {
	return p.indicator(ctx, provider.OpBollinger, symbol, core.IndicatorBBands)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
