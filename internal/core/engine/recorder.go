package engine

import (
	"time"

	"github.com/marketmux/marketmux/internal/core/provider"
)

// Recorder receives engine events for metrics. Implementations must be safe
// for concurrent use.
type Recorder interface {
	ProviderAttempt(op provider.Operation, providerName string, outcome string, elapsed time.Duration)
	ChainCompleted(chain string, op provider.Operation, succeeded, fallbackUsed bool, elapsed time.Duration)
	RateLimitDecision(source string, granted bool, wait time.Duration)
}

// OutcomeSuccess is the attempt outcome for a successful provider call.
// Failed attempts report their core.FailureKind.
const OutcomeSuccess = "success"
