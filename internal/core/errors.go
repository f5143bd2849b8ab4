package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnsupported marks an operation or capability a provider does not offer.
	ErrUnsupported = errors.New("unsupported")

	// ErrUnhealthy marks a provider that failed its health probe.
	ErrUnhealthy = errors.New("unhealthy")

	// ErrRateLimitTimeout marks an admission that could not be granted before
	// the caller's deadline.
	ErrRateLimitTimeout = errors.New("rate limit timeout")
)

// FailureKind classifies a single provider attempt failure.
type FailureKind string

const (
	FailureUnsupported      FailureKind = "unsupported"
	FailureUnhealthy        FailureKind = "unhealthy"
	FailureProvider         FailureKind = "provider_failure"
	FailureRateLimitTimeout FailureKind = "rate_limit_timeout"
	FailureCanceled         FailureKind = "canceled"
)

// Failure records why one provider did not produce a result.
type Failure struct {
	Provider string      `json:"provider"`
	Kind     FailureKind `json:"kind"`
	Reason   string      `json:"reason"`
}

// ProviderError wraps an opaque error returned by a provider operation.
type ProviderError struct {
	Provider  string
	Operation string
	Err       error
}

func (e *ProviderError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("provider %s: %s failed", e.Provider, e.Operation)
	}
	return fmt.Sprintf("provider %s: %s: %v", e.Provider, e.Operation, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// AllProvidersFailedError is the terminal outcome when every provider in a
// chain was attempted without success.
type AllProvidersFailedError struct {
	Operation      string
	Failures       []Failure
	TotalProviders int
}

func (e *AllProvidersFailedError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Provider, f.Reason))
	}
	return fmt.Sprintf("all providers failed for %s (%d attempted): %s",
		e.Operation, e.TotalProviders, strings.Join(parts, "; "))
}

// PerProvider returns the failure reasons keyed by provider name.
func (e *AllProvidersFailedError) PerProvider() map[string]string {
	out := make(map[string]string, len(e.Failures))
	for _, f := range e.Failures {
		out[f.Provider] = f.Reason
	}
	return out
}

// NoCapableProviderError is returned when a capability filter leaves no
// eligible provider. No provider is contacted in that case.
type NoCapableProviderError struct {
	Operation          string
	Capability         Capability
	AvailableProviders []string
}

func (e *NoCapableProviderError) Error() string {
	return fmt.Sprintf("no providers support capability %s", e.Capability)
}

// ConfigurationError reports registry or wiring misuse.
type ConfigurationError struct {
	Name   string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Name == "" {
		return "configuration error: " + e.Reason
	}
	return fmt.Sprintf("configuration error for %q: %s", e.Name, e.Reason)
}

// NewConfigurationError builds a ConfigurationError with a formatted reason.
func NewConfigurationError(name, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Name: name, Reason: fmt.Sprintf(format, args...)}
}

// IsConfigurationError reports whether err is, or wraps, a ConfigurationError.
func IsConfigurationError(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}

// FailedProviderNames returns failure provider names in attempt order with
// duplicates removed.
func FailedProviderNames(failures []Failure) []string {
	seen := make(map[string]struct{}, len(failures))
	out := make([]string, 0, len(failures))
	for _, f := range failures {
		if _, ok := seen[f.Provider]; ok {
			continue
		}
		seen[f.Provider] = struct{}{}
		out = append(out, f.Provider)
	}
	return out
}
