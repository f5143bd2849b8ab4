// Package provider defines the capability-tagged provider contract and the
// registry that constructs and caches provider instances.
package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/marketmux/marketmux/internal/core"
)

//go:generate mockgen -destination=providermock/provider_mock.go -package=providermock github.com/marketmux/marketmux/internal/core/provider Provider,QuoteProvider,OptionsProvider,RSIProvider

// Provider is the minimal contract every data source satisfies. Domain
// operations are exposed through the optional per-operation interfaces below;
// a provider that does not implement one does not expose that operation.
type Provider interface {
	// Name is unique and stable for the life of the instance.
	Name() string
	// Capabilities is fixed at construction.
	Capabilities() core.CapabilitySet
	// HealthCheck is a cheap probe. A nil error means healthy.
	HealthCheck(ctx context.Context) error
}

// QuoteProvider serves real-time quotes for a single symbol.
type QuoteProvider interface {
	Provider
	Quote(ctx context.Context, symbol string) (*core.Quote, error)
}

// BatchQuoteProvider serves quotes for several symbols in one call.
type BatchQuoteProvider interface {
	Provider
	Quotes(ctx context.Context, symbols []string) (*core.QuoteBatch, error)
}

// OptionsProvider serves option chains, optionally for one expiration.
type OptionsProvider interface {
	Provider
	OptionsChain(ctx context.Context, symbol, expiration string) (*core.OptionsChain, error)
}

// FundamentalsProvider serves company fundamentals.
type FundamentalsProvider interface {
	Provider
	Fundamentals(ctx context.Context, symbol string) (*core.Fundamentals, error)
}

// HistoricalProvider serves daily bars for a period such as "1mo".
type HistoricalProvider interface {
	Provider
	Historical(ctx context.Context, symbol, period string) (*core.HistoricalSeries, error)
}

// RSIProvider serves a date-indexed RSI series.
type RSIProvider interface {
	Provider
	RSI(ctx context.Context, symbol string, period int) (*core.IndicatorSeries, error)
}

// MACDProvider serves a date-indexed MACD line, signal and histogram.
type MACDProvider interface {
	Provider
	MACD(ctx context.Context, symbol string) (*core.IndicatorSeries, error)
}

// BollingerProvider serves date-indexed Bollinger bands.
type BollingerProvider interface {
	Provider
	Bollinger(ctx context.Context, symbol string, period int) (*core.IndicatorSeries, error)
}

// MetadataProvider is implemented by providers that report extra status
// metadata.
type MetadataProvider interface {
	Metadata() map[string]any
}

// Operation names a domain operation a chain can execute.
type Operation string

const (
	OpQuote        Operation = "quote"
	OpBatchQuote   Operation = "batch_quote"
	OpOptionsChain Operation = "options_chain"
	OpFundamentals Operation = "fundamentals"
	OpHistorical   Operation = "historical"
	OpRSI          Operation = "rsi"
	OpMACD         Operation = "macd"
	OpBollinger    Operation = "bollinger"
)

// Operations lists every operation.
var Operations = []Operation{
	OpQuote, OpBatchQuote, OpOptionsChain, OpFundamentals,
	OpHistorical, OpRSI, OpMACD, OpBollinger,
}

// ParseOperation resolves an operation name.
func ParseOperation(value string) (Operation, error) {
	normalized := Operation(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(value)), "-", "_"))
	if normalized == "bbands" {
		return OpBollinger, nil
	}
	for _, op := range Operations {
		if op == normalized {
			return op, nil
		}
	}
	return "", fmt.Errorf("unknown operation %q", value)
}

// Capability returns the capability a provider must declare to serve op.
func (op Operation) Capability() core.Capability {
	switch op {
	case OpQuote:
		return core.CapabilityRealTimeQuotes
	case OpBatchQuote:
		return core.CapabilityBatchQuotes
	case OpOptionsChain:
		return core.CapabilityOptionsChain
	case OpFundamentals:
		return core.CapabilityFundamentals
	case OpHistorical:
		return core.CapabilityHistorical
	case OpRSI, OpMACD, OpBollinger:
		return core.CapabilityTechnicalIndicators
	default:
		return 0
	}
}

// Request carries operation arguments. Each operation reads only the fields
// it needs.
type Request struct {
	Symbol     string
	Symbols    []string
	Expiration string
	Period     string
	Window     int
}

// Supports reports whether p exposes op.
func Supports(p Provider, op Operation) bool {
	switch op {
	case OpQuote:
		_, ok := p.(QuoteProvider)
		return ok
	case OpBatchQuote:
		_, ok := p.(BatchQuoteProvider)
		return ok
	case OpOptionsChain:
		_, ok := p.(OptionsProvider)
		return ok
	case OpFundamentals:
		_, ok := p.(FundamentalsProvider)
		return ok
	case OpHistorical:
		_, ok := p.(HistoricalProvider)
		return ok
	case OpRSI:
		_, ok := p.(RSIProvider)
		return ok
	case OpMACD:
		_, ok := p.(MACDProvider)
		return ok
	case OpBollinger:
		_, ok := p.(BollingerProvider)
		return ok
	default:
		return false
	}
}

// Invoke dispatches op on p. It returns an error wrapping core.ErrUnsupported
// when p does not expose op.
func Invoke(ctx context.Context, p Provider, op Operation, req Request) (any, error) {
	switch op {
	case OpQuote:
		if qp, ok := p.(QuoteProvider); ok {
			return nilIfEmpty(qp.Quote(ctx, req.Symbol))
		}
	case OpBatchQuote:
		if bp, ok := p.(BatchQuoteProvider); ok {
			return nilIfEmpty(bp.Quotes(ctx, req.Symbols))
		}
	case OpOptionsChain:
		if cp, ok := p.(OptionsProvider); ok {
			return nilIfEmpty(cp.OptionsChain(ctx, req.Symbol, req.Expiration))
		}
	case OpFundamentals:
		if fp, ok := p.(FundamentalsProvider); ok {
			return nilIfEmpty(fp.Fundamentals(ctx, req.Symbol))
		}
	case OpHistorical:
		if hp, ok := p.(HistoricalProvider); ok {
			return nilIfEmpty(hp.Historical(ctx, req.Symbol, req.Period))
		}
	case OpRSI:
		if rp, ok := p.(RSIProvider); ok {
			return nilIfEmpty(rp.RSI(ctx, req.Symbol, windowOr(req.Window, core.DefaultRSIPeriod)))
		}
	case OpMACD:
		if mp, ok := p.(MACDProvider); ok {
			return nilIfEmpty(mp.MACD(ctx, req.Symbol))
		}
	case OpBollinger:
		if bp, ok := p.(BollingerProvider); ok {
			return nilIfEmpty(bp.Bollinger(ctx, req.Symbol, windowOr(req.Window, core.DefaultBBPeriod)))
		}
	default:
		return nil, fmt.Errorf("%w: unknown operation %q", core.ErrUnsupported, op)
	}
	return nil, fmt.Errorf("%w: %s does not implement %s", core.ErrUnsupported, p.Name(), op)
}

// nilIfEmpty turns a typed nil payload into an explicit error so callers never
// receive an empty success.
func nilIfEmpty[T any](v *T, err error) (any, error) {
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, fmt.Errorf("provider returned no data")
	}
	return v, nil
}

func windowOr(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}

// Descriptor summarizes a provider for status reports.
type Descriptor struct {
	Name         string             `json:"name"`
	Type         string             `json:"type"`
	Capabilities core.CapabilitySet `json:"capabilities"`
	Operations   []Operation        `json:"operations"`
	Metadata     map[string]any     `json:"metadata,omitempty"`
}

// Describe builds a Descriptor for p.
func Describe(p Provider) Descriptor {
	d := Descriptor{
		Name:         p.Name(),
		Type:         fmt.Sprintf("%T", p),
		Capabilities: p.Capabilities(),
	}
	for _, op := range Operations {
		if Supports(p, op) {
			d.Operations = append(d.Operations, op)
		}
	}
	if mp, ok := p.(MetadataProvider); ok {
		d.Metadata = mp.Metadata()
	}
	return d
}
