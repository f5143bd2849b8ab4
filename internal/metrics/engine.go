package metrics

import (
	"strconv"
	"time"

	"github.com/marketmux/marketmux/internal/core/engine"
	"github.com/marketmux/marketmux/internal/core/provider"
)

// Engine metric names
const (
	ProviderAttemptsTotal    = "provider_attempts_total"
	ProviderAttemptDuration  = "provider_attempt_duration_ms"
	ChainExecutionsTotal     = "chain_executions_total"
	ChainExecutionDuration   = "chain_execution_duration_ms"
	RateLimitDecisionsTotal  = "ratelimit_decisions_total"
	RateLimitEstimatedWaitMs = "ratelimit_estimated_wait_ms"
)

// EngineRecorder emits chain and rate limiter events. A nil Sink uses
// Default.
type EngineRecorder struct {
	Sink Sink
}

var _ engine.Recorder = (*EngineRecorder)(nil)

// NewEngineRecorder returns a recorder backed by the telemetry system.
func NewEngineRecorder() *EngineRecorder {
	return &EngineRecorder{}
}

func (r *EngineRecorder) sink() Sink {
	if r == nil || r.Sink == nil {
		return Default
	}
	return r.Sink
}

func (r *EngineRecorder) ProviderAttempt(op provider.Operation, providerName string, outcome string, elapsed time.Duration) {
	s := r.sink()
	s.Count(ProviderAttemptsTotal, map[string]string{
		"operation": string(op),
		"provider":  providerName,
		"outcome":   outcome,
	})
	s.Observe(ProviderAttemptDuration, elapsed, map[string]string{
		"operation": string(op),
		"provider":  providerName,
	})
}

func (r *EngineRecorder) ChainCompleted(chain string, op provider.Operation, succeeded, fallbackUsed bool, elapsed time.Duration) {
	status := "success"
	if !succeeded {
		status = "failure"
	}
	s := r.sink()
	s.Count(ChainExecutionsTotal, map[string]string{
		"chain":     chain,
		"operation": string(op),
		"status":    status,
		"fallback":  strconv.FormatBool(fallbackUsed),
	})
	s.Observe(ChainExecutionDuration, elapsed, map[string]string{
		"chain":     chain,
		"operation": string(op),
	})
}

func (r *EngineRecorder) RateLimitDecision(source string, granted bool, wait time.Duration) {
	decision := "granted"
	if !granted {
		decision = "denied"
	}
	s := r.sink()
	s.Count(RateLimitDecisionsTotal, map[string]string{
		"source":   source,
		"decision": decision,
	})
	if !granted {
		s.Set(RateLimitEstimatedWaitMs, float64(wait.Milliseconds()), map[string]string{"source": source})
	}
}
