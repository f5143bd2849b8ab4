// Package market is the caller-facing layer over the provider chains. It
// builds one chain per data domain from config, runs operations through the
// chain for their domain, and curates successful payloads.
package market

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/marketmux/marketmux/internal/config"
	"github.com/marketmux/marketmux/internal/core"
	"github.com/marketmux/marketmux/internal/core/curate"
	"github.com/marketmux/marketmux/internal/core/engine"
	"github.com/marketmux/marketmux/internal/core/provider"
)

// ErrInvalidArgument marks a request rejected before any provider is called.
var ErrInvalidArgument = errors.New("invalid argument")

// Deps carries optional collaborators. A nil Registry gets a fresh one.
type Deps struct {
	Registry *provider.Registry
	Limiter  *engine.RateLimiter
	Logger   engine.Logger
	Recorder engine.Recorder
}

// Service answers market data requests through per-domain chains.
type Service struct {
	registry *provider.Registry
	limiter  *engine.RateLimiter
	chains   map[Domain]*engine.Chain
	policy   curate.Policy
	logger   engine.Logger
}

// Response is a chain result with provenance and optional curation output.
type Response struct {
	Data            any             `json:"data"`
	Provider        string          `json:"provider"`
	FallbackUsed    bool            `json:"fallback_used"`
	FailedProviders []core.Failure  `json:"failed_providers,omitempty"`
	Analysis        string          `json:"analysis,omitempty"`
	Optimization    *curate.Summary `json:"optimization,omitempty"`
}

// New builds the registry, the shared rate limiter and every domain chain
// described by cfg.
func New(cfg *config.Config, deps Deps) (*Service, error) {
	if cfg == nil {
		return nil, core.NewConfigurationError("", "config is required")
	}
	if err := cfg.Curation.Validate(); err != nil {
		return nil, err
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	registry := deps.Registry
	if registry == nil {
		registry = provider.NewRegistry()
	}
	known := registry.List()
	for _, name := range cfg.EnabledProviders() {
		if slices.Contains(known, name) {
			continue
		}
		ctor, err := typeConstructor(name, cfg.Providers[name].Type)
		if err != nil {
			return nil, err
		}
		if err := registry.Register(name, ctor); err != nil {
			return nil, err
		}
	}

	limiter := deps.Limiter
	if limiter == nil {
		limiter = engine.NewRateLimiter(cfg.RateLimits)
		if cfg.RateLimitMargin > 0 && cfg.RateLimitMargin < 1 {
			limiter.ApplySafetyMargin(cfg.RateLimitMargin)
		}
		limiter.Logger = logger
		limiter.Recorder = deps.Recorder
	}

	for domain := range cfg.Chains {
		if _, err := ParseDomain(domain); err != nil {
			return nil, err
		}
	}

	s := &Service{
		registry: registry,
		limiter:  limiter,
		chains:   make(map[Domain]*engine.Chain, len(Domains)),
		policy:   cfg.Curation,
		logger:   logger,
	}
	for _, domain := range Domains {
		chain := engine.NewChain(string(domain))
		chain.Limiter = limiter
		chain.LimitTimeout = cfg.RateLimitTimeout
		chain.Delay = cfg.FallbackDelay
		chain.Logger = logger
		chain.Recorder = deps.Recorder

		for _, name := range cfg.ChainFor(string(domain)) {
			if pc, ok := cfg.Providers[name]; ok && !pc.IsEnabled() {
				continue
			}
			p, err := registry.GetOrCreate(name, provider.Args(cfg.Providers[name].Options))
			if err != nil {
				return nil, fmt.Errorf("build %s chain: %w", domain, err)
			}
			chain.Add(p)
		}
		s.chains[domain] = chain
		logger.Debug("Chain configured",
			zap.String("domain", string(domain)),
			zap.Strings("providers", chain.Names()))
	}

	// Enabled providers outside every chain are still built once so bad
	// options fail at startup.
	for _, name := range cfg.EnabledProviders() {
		if registry.Cached(name) {
			continue
		}
		caps, err := registry.CapabilitiesOf(name, provider.Args(cfg.Providers[name].Options))
		if err != nil {
			return nil, err
		}
		logger.Warn("Provider is not in any chain",
			zap.String("provider", name),
			zap.Strings("capabilities", caps.Strings()))
	}
	return s, nil
}

// Registry returns the provider registry backing the service.
func (s *Service) Registry() *provider.Registry { return s.registry }

// Limiter returns the shared rate limiter.
func (s *Service) Limiter() *engine.RateLimiter { return s.limiter }

// Policy returns the curation policy.
func (s *Service) Policy() curate.Policy { return s.policy }

// Chain returns the chain for domain.
func (s *Service) Chain(domain Domain) (*engine.Chain, error) {
	chain, ok := s.chains[domain]
	if !ok {
		return nil, core.NewConfigurationError(string(domain), "unknown domain")
	}
	return chain, nil
}

func (s *Service) execute(ctx context.Context, op provider.Operation, req provider.Request) (*engine.Result, error) {
	chain, err := s.Chain(DomainFor(op))
	if err != nil {
		return nil, err
	}
	return chain.ExecuteWithCapability(ctx, op, op.Capability(), req)
}

func respond(result *engine.Result, data any) *Response {
	return &Response{
		Data:            data,
		Provider:        result.Provider,
		FallbackUsed:    result.FallbackUsed,
		FailedProviders: result.FailedProviders,
	}
}

func normalizeSymbol(symbol string) (string, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return "", fmt.Errorf("%w: symbol is required", ErrInvalidArgument)
	}
	return symbol, nil
}

// Quote returns the latest quote for symbol.
func (s *Service) Quote(ctx context.Context, symbol string) (*Response, error) {
	symbol, err := normalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	result, err := s.execute(ctx, provider.OpQuote, provider.Request{Symbol: symbol})
	if err != nil {
		return nil, err
	}
	return respond(result, result.Payload), nil
}

// Quotes returns quotes for several symbols in one provider call.
func (s *Service) Quotes(ctx context.Context, symbols []string) (*Response, error) {
	cleaned := make([]string, 0, len(symbols))
	for _, raw := range symbols {
		for _, part := range strings.Split(raw, ",") {
			if symbol, err := normalizeSymbol(part); err == nil && !slices.Contains(cleaned, symbol) {
				cleaned = append(cleaned, symbol)
			}
		}
	}
	if len(cleaned) == 0 {
		return nil, fmt.Errorf("%w: at least one symbol is required", ErrInvalidArgument)
	}
	result, err := s.execute(ctx, provider.OpBatchQuote, provider.Request{Symbols: cleaned})
	if err != nil {
		return nil, err
	}
	return respond(result, result.Payload), nil
}

// OptionsChain returns the options chain for symbol, curated unless raw is
// set. An empty expiration means every expiration.
func (s *Service) OptionsChain(ctx context.Context, symbol, expiration string, raw bool) (*Response, error) {
	symbol, err := normalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	result, err := s.execute(ctx, provider.OpOptionsChain, provider.Request{Symbol: symbol, Expiration: strings.TrimSpace(expiration)})
	if err != nil {
		return nil, err
	}
	chain := result.Payload.(*core.OptionsChain)
	if raw {
		return respond(result, chain), nil
	}

	curated, err := curate.Options(chain, s.policy)
	if err != nil {
		return nil, fmt.Errorf("curate %s options from %s: %w", symbol, result.Provider, err)
	}
	resp := respond(result, curated)
	resp.Optimization = &curated.Summary
	resp.Analysis = describeOptions(curated)
	return resp, nil
}

// Fundamentals returns company fundamentals for symbol.
func (s *Service) Fundamentals(ctx context.Context, symbol string) (*Response, error) {
	symbol, err := normalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	result, err := s.execute(ctx, provider.OpFundamentals, provider.Request{Symbol: symbol})
	if err != nil {
		return nil, err
	}
	return respond(result, result.Payload), nil
}

// Historical returns daily bars for symbol over period.
func (s *Service) Historical(ctx context.Context, symbol, period string) (*Response, error) {
	symbol, err := normalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	result, err := s.execute(ctx, provider.OpHistorical, provider.Request{Symbol: symbol, Period: strings.TrimSpace(period)})
	if err != nil {
		return nil, err
	}
	return respond(result, result.Payload), nil
}

// RSI returns a curated RSI analysis. Zero period means the provider default.
func (s *Service) RSI(ctx context.Context, symbol string, period int) (*Response, error) {
	result, series, err := s.indicator(ctx, provider.OpRSI, symbol, period)
	if err != nil {
		return nil, err
	}
	analysis, err := curate.RSI(series, s.policy)
	if err != nil {
		return nil, fmt.Errorf("curate %s rsi from %s: %w", series.Symbol, result.Provider, err)
	}
	resp := respond(result, analysis)
	resp.Optimization = &analysis.Summary
	resp.Analysis = fmt.Sprintf("RSI %.2f is %s, trend %s", analysis.Latest, analysis.Signal, analysis.Trend)
	return resp, nil
}

// MACD returns a curated MACD analysis.
func (s *Service) MACD(ctx context.Context, symbol string) (*Response, error) {
	result, series, err := s.indicator(ctx, provider.OpMACD, symbol, 0)
	if err != nil {
		return nil, err
	}
	analysis, err := curate.MACD(series, s.policy)
	if err != nil {
		return nil, fmt.Errorf("curate %s macd from %s: %w", series.Symbol, result.Provider, err)
	}
	resp := respond(result, analysis)
	resp.Optimization = &analysis.Summary
	resp.Analysis = fmt.Sprintf("MACD %s, histogram %s", analysis.Crossover, analysis.HistogramTrend)
	return resp, nil
}

// Bollinger returns a curated Bollinger Bands analysis.
func (s *Service) Bollinger(ctx context.Context, symbol string, period int) (*Response, error) {
	result, series, err := s.indicator(ctx, provider.OpBollinger, symbol, period)
	if err != nil {
		return nil, err
	}
	analysis, err := curate.Bollinger(series, s.policy)
	if err != nil {
		return nil, fmt.Errorf("curate %s bollinger from %s: %w", series.Symbol, result.Provider, err)
	}
	resp := respond(result, analysis)
	resp.Optimization = &analysis.Summary
	resp.Analysis = fmt.Sprintf("Bands %s, width %s", analysis.Squeeze, analysis.WidthTrend)
	return resp, nil
}

func (s *Service) indicator(ctx context.Context, op provider.Operation, symbol string, period int) (*engine.Result, *core.IndicatorSeries, error) {
	symbol, err := normalizeSymbol(symbol)
	if err != nil {
		return nil, nil, err
	}
	if period < 0 {
		return nil, nil, fmt.Errorf("%w: period must not be negative", ErrInvalidArgument)
	}
	result, err := s.execute(ctx, op, provider.Request{Symbol: symbol, Window: period})
	if err != nil {
		return nil, nil, err
	}
	return result, result.Payload.(*core.IndicatorSeries), nil
}

func describeOptions(r *curate.OptionsResult) string {
	if len(r.Expirations) == 0 {
		return fmt.Sprintf("No liquid contracts within the moneyness band around %.2f", r.UnderlyingPrice)
	}
	return fmt.Sprintf("%d contracts across %d expirations, ATM strike %.2f",
		r.Summary.CuratedCount, len(r.Expirations), r.ATMStrike)
}
