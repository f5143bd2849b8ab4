package market

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/marketmux/marketmux/internal/core"
	"github.com/marketmux/marketmux/internal/core/engine"
	"github.com/marketmux/marketmux/internal/core/provider"
)

// IndicatorSet holds the three curated indicators for one symbol. An
// indicator that failed is absent and its error is listed in Errors.
type IndicatorSet struct {
	Symbol    string            `json:"symbol"`
	RSI       *Response         `json:"rsi,omitempty"`
	MACD      *Response         `json:"macd,omitempty"`
	Bollinger *Response         `json:"bollinger,omitempty"`
	Errors    map[string]string `json:"errors,omitempty"`
}

// Indicators fetches RSI, MACD and Bollinger Bands concurrently. It fails
// only when all three fail.
func (s *Service) Indicators(ctx context.Context, symbol string) (*IndicatorSet, error) {
	symbol, err := normalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	set := &IndicatorSet{Symbol: symbol}

	var (
		mu   sync.Mutex
		errs = map[string]error{}
	)
	capture := func(name string, resp *Response, err error, dst **Response) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			errs[name] = err
			return
		}
		*dst = resp
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		resp, err := s.RSI(gctx, symbol, 0)
		capture(string(provider.OpRSI), resp, err, &set.RSI)
		return nil
	})
	g.Go(func() error {
		resp, err := s.MACD(gctx, symbol)
		capture(string(provider.OpMACD), resp, err, &set.MACD)
		return nil
	})
	g.Go(func() error {
		resp, err := s.Bollinger(gctx, symbol, 0)
		capture(string(provider.OpBollinger), resp, err, &set.Bollinger)
		return nil
	})
	_ = g.Wait()

	if len(errs) == 0 {
		return set, nil
	}
	set.Errors = make(map[string]string, len(errs))
	joined := make([]error, 0, len(errs))
	for _, name := range core.SortedKeys(errs) {
		set.Errors[name] = errs[name].Error()
		joined = append(joined, fmt.Errorf("%s: %w", name, errs[name]))
		s.logger.Warn("Indicator unavailable", zap.String("symbol", symbol), zap.String("indicator", name), zap.Error(errs[name]))
	}
	if len(errs) == 3 {
		return nil, errors.Join(joined...)
	}
	return set, nil
}

// Status probes every domain chain.
func (s *Service) Status(ctx context.Context) []engine.ChainStatus {
	out := make([]engine.ChainStatus, 0, len(Domains))
	for _, domain := range Domains {
		out = append(out, s.chains[domain].Status(ctx))
	}
	return out
}

// RateLimits reports every configured rate-limit source.
func (s *Service) RateLimits() []core.RateLimitStatus {
	return s.limiter.Statuses()
}

// ResetRateLimit clears recorded requests for source, or for every source
// when source is empty. It reports whether anything was reset.
func (s *Service) ResetRateLimit(source string) bool {
	return s.limiter.Reset(source)
}

// Reorder moves the named providers to the front of domain's chain and
// returns the resulting order.
func (s *Service) Reorder(domain string, names ...string) ([]string, error) {
	d, err := ParseDomain(domain)
	if err != nil {
		return nil, err
	}
	chain := s.chains[d]
	chain.ReorderByPriority(names...)
	order := chain.Names()
	s.logger.Info("Chain reordered", zap.String("domain", string(d)), zap.Strings("providers", order))
	return order, nil
}

// Capabilities describes the providers in domain's chain, in chain order.
func (s *Service) Capabilities(domain string) ([]provider.Descriptor, error) {
	d, err := ParseDomain(domain)
	if err != nil {
		return nil, err
	}
	providers := s.chains[d].Providers()
	out := make([]provider.Descriptor, 0, len(providers))
	for _, p := range providers {
		out = append(out, provider.Describe(p))
	}
	return out, nil
}

// ErrNoHealthyProviders is returned by CheckHealth when the quotes chain has
// no provider passing its health probe.
var ErrNoHealthyProviders = errors.New("no healthy quote providers")

// CheckHealth reports whether the quotes chain can serve requests.
func (s *Service) CheckHealth(ctx context.Context) error {
	status := s.chains[DomainQuotes].Status(ctx)
	if status.TotalProviders > 0 && status.HealthyProviders == 0 {
		return fmt.Errorf("%w: %d configured", ErrNoHealthyProviders, status.TotalProviders)
	}
	return nil
}
