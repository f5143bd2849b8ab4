package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/marketmux/marketmux/internal/core"
	"github.com/marketmux/marketmux/internal/core/provider"
)

// DefaultFallbackDelay is the pause between a failed provider call and the
// next attempt.
const DefaultFallbackDelay = 100 * time.Millisecond

const tracerName = "github.com/marketmux/marketmux/internal/core/engine"

// Chain tries providers in order until one succeeds. Providers are shared
// handles; a Chain never copies or owns them.
type Chain struct {
	Name string

	// Limiter gates each attempt by provider name when set.
	Limiter      *RateLimiter
	LimitTimeout time.Duration

	// Delay overrides DefaultFallbackDelay. Negative disables the pause.
	Delay time.Duration
	Sleep func(ctx context.Context, d time.Duration) error

	Logger   Logger
	Recorder Recorder
	Tracer   trace.Tracer
	Clock    func() time.Time

	mu        sync.RWMutex
	providers []provider.Provider
}

// Result is a successful chain outcome with provenance.
type Result struct {
	Operation       provider.Operation `json:"operation"`
	Payload         any                `json:"payload"`
	Provider        string             `json:"provider"`
	FallbackUsed    bool               `json:"fallback_used"`
	FailedProviders []core.Failure     `json:"failed_providers,omitempty"`
	TotalProviders  int                `json:"total_providers"`
}

// ProviderStatus is one provider's entry in a chain status report.
type ProviderStatus struct {
	Name         string             `json:"name"`
	Healthy      bool               `json:"healthy"`
	Error        string             `json:"error,omitempty"`
	Capabilities core.CapabilitySet `json:"capabilities"`
	Metadata     map[string]any     `json:"metadata,omitempty"`
	Latency      time.Duration      `json:"latency"`
}

// ChainStatus aggregates health probes for every provider in a chain.
type ChainStatus struct {
	Chain            string           `json:"chain"`
	Providers        []ProviderStatus `json:"providers"`
	TotalProviders   int              `json:"total_providers"`
	HealthyProviders int              `json:"healthy_providers"`
}

// NewChain builds a chain over providers in the given order.
func NewChain(name string, providers ...provider.Provider) *Chain {
	c := &Chain{Name: name}
	for _, p := range providers {
		if p != nil {
			c.providers = append(c.providers, p)
		}
	}
	return c
}

// Add appends a provider.
func (c *Chain) Add(p provider.Provider) {
	if p == nil {
		return
	}
	c.mu.Lock()
	c.providers = append(c.providers, p)
	c.mu.Unlock()
}

// Providers returns a snapshot of the current order.
func (c *Chain) Providers() []provider.Provider {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]provider.Provider(nil), c.providers...)
}

// Names returns provider names in chain order.
func (c *Chain) Names() []string {
	return names(c.Providers())
}

// Execute runs op against each provider in order and returns the first
// success. When every provider fails the error is *core.AllProvidersFailedError.
func (c *Chain) Execute(ctx context.Context, op provider.Operation, req provider.Request) (*Result, error) {
	return c.run(ctx, op, c.Providers(), req)
}

// ExecuteWithCapability runs op against only the providers that declare
// capability, keeping their relative order. When none do it returns
// *core.NoCapableProviderError without contacting any provider.
func (c *Chain) ExecuteWithCapability(ctx context.Context, op provider.Operation, capability core.Capability, req provider.Request) (*Result, error) {
	all := c.Providers()
	eligible := make([]provider.Provider, 0, len(all))
	for _, p := range all {
		if p.Capabilities().Has(capability) {
			eligible = append(eligible, p)
		}
	}
	if len(eligible) == 0 {
		return nil, &core.NoCapableProviderError{
			Operation:          string(op),
			Capability:         capability,
			AvailableProviders: names(all),
		}
	}
	return c.run(ctx, op, eligible, req)
}

func (c *Chain) run(ctx context.Context, op provider.Operation, providers []provider.Provider, req provider.Request) (result *Result, err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	start := c.now()
	log := loggerOrNop(c.Logger)

	ctx, span := c.tracer().Start(ctx, "chain.execute."+string(op),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("chain.name", c.Name),
			attribute.String("chain.operation", string(op)),
			attribute.Int("chain.providers", len(providers)),
		))
	defer func() {
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			span.RecordError(err)
		} else {
			span.SetAttributes(
				attribute.String("chain.provider", result.Provider),
				attribute.Bool("chain.fallback_used", result.FallbackUsed),
			)
			span.SetStatus(codes.Ok, "")
		}
		span.End()
		if c.Recorder != nil {
			c.Recorder.ChainCompleted(c.Name, op, err == nil, err == nil && result.FallbackUsed, c.now().Sub(start))
		}
	}()

	failures := make([]core.Failure, 0, len(providers))
	fail := func(p provider.Provider, kind core.FailureKind, reason string, elapsed time.Duration) {
		failures = append(failures, core.Failure{Provider: p.Name(), Kind: kind, Reason: reason})
		c.recordAttempt(op, p.Name(), string(kind), elapsed)
		log.Debug("provider attempt failed",
			zap.String("chain", c.Name),
			zap.String("operation", string(op)),
			zap.String("provider", p.Name()),
			zap.String("kind", string(kind)),
			zap.String("reason", reason))
	}

	for i, p := range providers {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, c.canceled(op, failures, len(providers), ctxErr)
		}

		name := p.Name()
		if !provider.Supports(p, op) {
			fail(p, core.FailureUnsupported, "unsupported", 0)
			continue
		}

		if c.Limiter != nil {
			granted, limitErr := c.Limiter.Acquire(ctx, name, c.LimitTimeout)
			if limitErr != nil {
				return nil, c.canceled(op, failures, len(providers), limitErr)
			}
			if !granted {
				fail(p, core.FailureRateLimitTimeout, core.ErrRateLimitTimeout.Error(), 0)
				continue
			}
		}

		if healthErr := p.HealthCheck(ctx); healthErr != nil {
			fail(p, core.FailureUnhealthy, unhealthyReason(healthErr), 0)
			continue
		}

		attemptStart := c.now()
		payload, opErr := provider.Invoke(ctx, p, op, req)
		elapsed := c.now().Sub(attemptStart)
		if opErr == nil {
			c.recordAttempt(op, name, OutcomeSuccess, elapsed)
			if i > 0 {
				log.Info("fallback provider succeeded",
					zap.String("chain", c.Name),
					zap.String("operation", string(op)),
					zap.String("provider", name),
					zap.Strings("failed_providers", core.FailedProviderNames(failures)))
			}
			return &Result{
				Operation:       op,
				Payload:         payload,
				Provider:        name,
				FallbackUsed:    i > 0,
				FailedProviders: failures,
				TotalProviders:  len(providers),
			}, nil
		}

		if errors.Is(opErr, core.ErrUnsupported) {
			fail(p, core.FailureUnsupported, "unsupported", elapsed)
			continue
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			fail(p, core.FailureCanceled, opErr.Error(), elapsed)
			return nil, c.canceled(op, failures, len(providers), ctxErr)
		}

		provErr := &core.ProviderError{Provider: name, Operation: string(op), Err: opErr}
		fail(p, core.FailureProvider, opErr.Error(), elapsed)
		log.Warn("provider failed", zap.String("chain", c.Name), zap.Error(provErr))

		if i < len(providers)-1 {
			if sleepErr := c.pause(ctx); sleepErr != nil {
				return nil, c.canceled(op, failures, len(providers), sleepErr)
			}
		}
	}

	return nil, &core.AllProvidersFailedError{
		Operation:      string(op),
		Failures:       failures,
		TotalProviders: len(providers),
	}
}

// Status probes every provider concurrently. Probe failures, including
// panics, mark only that provider unhealthy.
func (c *Chain) Status(ctx context.Context) ChainStatus {
	if ctx == nil {
		ctx = context.Background()
	}
	providers := c.Providers()
	statuses := make([]ProviderStatus, len(providers))

	g, gctx := errgroup.WithContext(ctx)
	for i, p := range providers {
		g.Go(func() error {
			statuses[i] = c.probe(gctx, p)
			return nil
		})
	}
	_ = g.Wait()

	out := ChainStatus{Chain: c.Name, Providers: statuses, TotalProviders: len(providers)}
	for _, s := range statuses {
		if s.Healthy {
			out.HealthyProviders++
		}
	}
	return out
}

func (c *Chain) probe(ctx context.Context, p provider.Provider) (status ProviderStatus) {
	status = ProviderStatus{Name: p.Name(), Capabilities: p.Capabilities()}
	if mp, ok := p.(provider.MetadataProvider); ok {
		status.Metadata = mp.Metadata()
	}
	start := c.now()
	defer func() {
		status.Latency = c.now().Sub(start)
		if r := recover(); r != nil {
			status.Healthy = false
			status.Error = fmt.Sprintf("health check panicked: %v", r)
		}
	}()

	if err := p.HealthCheck(ctx); err != nil {
		status.Error = err.Error()
		return status
	}
	status.Healthy = true
	return status
}

// ReorderByPriority moves the named providers to the front in the given
// order. Everything else keeps its relative order after them. Unknown names
// are ignored.
func (c *Chain) ReorderByPriority(priority ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	byName := make(map[string]provider.Provider, len(c.providers))
	for _, p := range c.providers {
		byName[p.Name()] = p
	}

	ordered := make([]provider.Provider, 0, len(c.providers))
	moved := make(map[string]struct{}, len(priority))
	for _, name := range priority {
		name = strings.TrimSpace(name)
		p, ok := byName[name]
		if !ok {
			continue
		}
		if _, dup := moved[name]; dup {
			continue
		}
		moved[name] = struct{}{}
		ordered = append(ordered, p)
	}
	for _, p := range c.providers {
		if _, ok := moved[p.Name()]; !ok {
			ordered = append(ordered, p)
		}
	}
	c.providers = ordered
}

func (c *Chain) canceled(op provider.Operation, failures []core.Failure, total int, cause error) error {
	return fmt.Errorf("%s canceled after %d of %d providers: %w", op, len(failures), total, cause)
}

func (c *Chain) pause(ctx context.Context) error {
	delay := c.Delay
	if delay == 0 {
		delay = DefaultFallbackDelay
	}
	if delay < 0 {
		return ctx.Err()
	}
	if c.Sleep != nil {
		return c.Sleep(ctx, delay)
	}
	return sleepContext(ctx, delay)
}

func (c *Chain) recordAttempt(op provider.Operation, name, outcome string, elapsed time.Duration) {
	if c.Recorder != nil {
		c.Recorder.ProviderAttempt(op, name, outcome, elapsed)
	}
}

func (c *Chain) tracer() trace.Tracer {
	if c.Tracer != nil {
		return c.Tracer
	}
	return otel.Tracer(tracerName)
}

func (c *Chain) now() time.Time {
	if c.Clock != nil {
		return c.Clock()
	}
	return time.Now()
}

func unhealthyReason(err error) string {
	if errors.Is(err, core.ErrUnhealthy) {
		return err.Error()
	}
	return fmt.Sprintf("%s: %v", core.ErrUnhealthy, err)
}

func names(providers []provider.Provider) []string {
	out := make([]string, len(providers))
	for i, p := range providers {
		out[i] = p.Name()
	}
	return out
}
