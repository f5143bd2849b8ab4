package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	gferrors "github.com/fulmenhq/gofulmen/errors"
	"github.com/stretchr/testify/require"

	"github.com/marketmux/marketmux/internal/core"
	"github.com/marketmux/marketmux/internal/core/curate"
	"github.com/marketmux/marketmux/internal/market"
	"github.com/marketmux/marketmux/internal/server/middleware"
)

func withRequestID(id string) context.Context {
	return context.WithValue(context.Background(), middleware.RequestIDContextKey, id)
}

func TestFromDomainError(t *testing.T) {
	ctx := withRequestID("req-42")

	tests := []struct {
		name   string
		err    error
		code   string
		status int
	}{
		{"invalid argument", fmt.Errorf("%w: symbol is required", market.ErrInvalidArgument), CodeInvalidInput, http.StatusBadRequest},
		{"no capable provider", &core.NoCapableProviderError{Operation: "fundamentals", Capability: core.CapabilityFundamentals}, CodeNoCapableProvider, http.StatusNotImplemented},
		{"all providers failed", &core.AllProvidersFailedError{
			Operation:      "quote",
			TotalProviders: 2,
			Failures: []core.Failure{
				{Provider: "alpha", Kind: core.FailureProvider, Reason: "timeout"},
				{Provider: "beta", Kind: core.FailureRateLimitTimeout, Reason: "rate limit timeout"},
			},
		}, CodeAllProvidersFailed, http.StatusBadGateway},
		{"only rate limited", &core.AllProvidersFailedError{
			Operation:      "quote",
			TotalProviders: 1,
			Failures:       []core.Failure{{Provider: "beta", Kind: core.FailureRateLimitTimeout}},
		}, CodeRateLimited, http.StatusTooManyRequests},
		{"deadline", fmt.Errorf("chain: %w", context.DeadlineExceeded), CodeTimeout, http.StatusGatewayTimeout},
		{"canceled", context.Canceled, CodeCanceled, http.StatusRequestTimeout},
		{"configuration", core.NewConfigurationError("quotes", "chain references unknown provider %q", "ghost"), CodeConfigInvalid, http.StatusInternalServerError},
		{"curation", fmt.Errorf("curate: %w", curate.ErrNoIndicatorData), CodeDataProcessing, http.StatusBadGateway},
		{"unknown", stderrors.New("boom"), CodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := FromDomainError(ctx, tt.err)
			require.Equal(t, tt.code, env.Code)
			require.Equal(t, tt.status, HTTPStatusFromEnvelope(env))
		})
	}
}

func TestFromDomainErrorCarriesFailureDetails(t *testing.T) {
	err := fmt.Errorf("rsi: %w", &core.AllProvidersFailedError{
		Operation:      "rsi",
		TotalProviders: 2,
		Failures: []core.Failure{
			{Provider: "alpha", Kind: core.FailureProvider, Reason: "upstream 503"},
			{Provider: "beta", Kind: core.FailureUnsupported, Reason: "unsupported"},
		},
	})

	env := FromDomainError(withRequestID("req-7"), err)
	require.Equal(t, "req-7", env.CorrelationID)
	require.Equal(t, gferrors.SeverityMedium, env.Severity)

	rec := httptest.NewRecorder()
	RespondWithEnvelope(rec, nil, env)
	require.Equal(t, http.StatusBadGateway, rec.Code)

	var body struct {
		Error struct {
			Code      string         `json:"code"`
			Details   map[string]any `json:"details"`
			RequestID string         `json:"request_id"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(t, CodeAllProvidersFailed, body.Error.Code)
	require.Equal(t, "req-7", body.Error.RequestID)
	require.Equal(t, "rsi", body.Error.Details["operation"])
	require.EqualValues(t, 2, body.Error.Details["total_providers"])
	require.Equal(t, map[string]any{"alpha": "upstream 503", "beta": "unsupported"}, body.Error.Details["failed_providers"])
}

func TestFromDomainErrorKeepsEnvelopes(t *testing.T) {
	env := NewNotFoundError("missing")
	require.Same(t, env, FromDomainError(context.Background(), env))
}

func TestEnsureCorrelationID(t *testing.T) {
	env := EnsureCorrelationID(NewInvalidInputError("bad"), withRequestID("abc"))
	require.Equal(t, "abc", env.CorrelationID)

	env = EnsureCorrelationID(NewInvalidInputError("bad"), context.Background())
	require.Contains(t, env.CorrelationID, "fallback-")

	require.Nil(t, EnsureCorrelationID(nil, context.Background()))
}

func TestRespondWithError(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/quotes/AAPL", nil)
	req = req.WithContext(withRequestID("req-99"))
	rec := httptest.NewRecorder()

	RespondWithError(rec, req, fmt.Errorf("%w: symbol is required", market.ErrInvalidArgument))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body HTTPErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(t, CodeInvalidInput, body.Error.Code)
	require.Equal(t, "invalid argument: symbol is required", body.Error.Message)
	require.Equal(t, "req-99", body.Error.RequestID)
}

func TestEnsureEnvelopeNil(t *testing.T) {
	env := EnsureEnvelope(nil)
	require.Equal(t, CodeInternal, env.Code)
	require.Equal(t, gferrors.SeverityCritical, env.Severity)
}
