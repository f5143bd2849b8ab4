package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/marketmux/marketmux/internal/config"
	"github.com/marketmux/marketmux/internal/core"
	"github.com/marketmux/marketmux/internal/core/curate"
	apperrors "github.com/marketmux/marketmux/internal/errors"
	"github.com/marketmux/marketmux/internal/market"
	"github.com/marketmux/marketmux/internal/server/handlers"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Host: "127.0.0.1", Port: 0, ReadTimeout: time.Second, WriteTimeout: time.Second},
		Health: config.HealthConfig{Enabled: true},
		Providers: map[string]config.ProviderConfig{
			"flaky":  {Type: "synthetic", Options: map[string]any{"fail_operations": "quote,rsi,macd,bollinger"}},
			"backup": {Type: "synthetic", Options: map[string]any{"seed_price": 120}},
			"quotes-only": {Type: "synthetic", Options: map[string]any{
				"capabilities": "real_time_quotes",
			}},
		},
		Chains: map[string][]string{
			"quotes":       {"flaky", "backup"},
			"fundamentals": {"quotes-only"},
			"technical":    {"flaky"},
		},
		RateLimits:    map[string]core.RateLimitConfig{},
		FallbackDelay: -1,
		Curation:      curate.DefaultPolicy(),
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	svc, err := market.New(cfg, market.Deps{Logger: zaptest.NewLogger(t)})
	require.NoError(t, err)
	return New(cfg, svc, handlers.NewHealthManager("test"))
}

func serve(t *testing.T, srv *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) apperrors.HTTPErrorResponse {
	t.Helper()
	var body apperrors.HTTPErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestServerUsesStandardErrorHandlers(t *testing.T) {
	srv := newTestServer(t, testConfig())

	rec := serve(t, srv, http.MethodGet, "/does-not-exist", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "NOT_FOUND", decodeError(t, rec).Error.Code)

	rec = serve(t, srv, http.MethodPost, "/v1/quotes/AAPL", "")
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	require.Equal(t, "METHOD_NOT_ALLOWED", decodeError(t, rec).Error.Code)
}

func TestQuoteRouteReportsFallback(t *testing.T) {
	srv := newTestServer(t, testConfig())

	rec := serve(t, srv, http.MethodGet, "/v1/quotes/aapl", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var body struct {
		Data            core.Quote     `json:"data"`
		Provider        string         `json:"provider"`
		FallbackUsed    bool           `json:"fallback_used"`
		FailedProviders []core.Failure `json:"failed_providers"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(t, "AAPL", body.Data.Symbol)
	require.Equal(t, 120.0, body.Data.Price)
	require.Equal(t, "backup", body.Provider)
	require.True(t, body.FallbackUsed)
	require.Len(t, body.FailedProviders, 1)
	require.Equal(t, "flaky", body.FailedProviders[0].Provider)
}

func TestBatchQuotesRoute(t *testing.T) {
	srv := newTestServer(t, testConfig())

	rec := serve(t, srv, http.MethodGet, "/v1/quotes?symbols=aapl,msft", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data core.QuoteBatch `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Len(t, body.Data.Quotes, 2)

	rec = serve(t, srv, http.MethodGet, "/v1/quotes", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, apperrors.CodeInvalidInput, decodeError(t, rec).Error.Code)
}

func TestOptionsRouteCurates(t *testing.T) {
	srv := newTestServer(t, testConfig())

	rec := serve(t, srv, http.MethodGet, "/v1/options/SPY", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data         curate.OptionsResult `json:"data"`
		Optimization *curate.Summary      `json:"optimization"`
		Analysis     string               `json:"analysis"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.NotNil(t, body.Optimization)
	require.LessOrEqual(t, body.Optimization.CuratedCount, body.Optimization.OriginalCount)
	require.Contains(t, body.Analysis, "ATM strike")

	rec = serve(t, srv, http.MethodGet, "/v1/options/SPY?raw=maybe", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNoCapableProviderMapsToNotImplemented(t *testing.T) {
	srv := newTestServer(t, testConfig())

	rec := serve(t, srv, http.MethodGet, "/v1/fundamentals/AAPL", "")
	require.Equal(t, http.StatusNotImplemented, rec.Code)

	body := decodeError(t, rec)
	require.Equal(t, apperrors.CodeNoCapableProvider, body.Error.Code)
	require.Equal(t, "fundamentals", body.Error.Details["capability"])
}

func TestAllProvidersFailedMapsToBadGateway(t *testing.T) {
	srv := newTestServer(t, testConfig())

	rec := serve(t, srv, http.MethodGet, "/v1/indicators/AAPL/rsi", "")
	require.Equal(t, http.StatusBadGateway, rec.Code)

	body := decodeError(t, rec)
	require.Equal(t, apperrors.CodeAllProvidersFailed, body.Error.Code)
	failed, ok := body.Error.Details["failed_providers"].(map[string]any)
	require.True(t, ok)
	require.Contains(t, failed, "flaky")
	require.NotEmpty(t, body.Error.RequestID)

	rec = serve(t, srv, http.MethodGet, "/v1/indicators/AAPL", "")
	require.Equal(t, http.StatusBadGateway, rec.Code)

	rec = serve(t, srv, http.MethodGet, "/v1/indicators/AAPL/stochastic", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestIndicatorRoutesWithHealthyChain(t *testing.T) {
	cfg := testConfig()
	cfg.Chains["technical"] = []string{"backup"}
	srv := newTestServer(t, cfg)

	rec := serve(t, srv, http.MethodGet, "/v1/indicators/MSFT", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var set struct {
		Symbol    string          `json:"symbol"`
		RSI       json.RawMessage `json:"rsi"`
		MACD      json.RawMessage `json:"macd"`
		Bollinger json.RawMessage `json:"bollinger"`
		Errors    map[string]any  `json:"errors"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&set))
	require.Equal(t, "MSFT", set.Symbol)
	require.NotEmpty(t, set.RSI)
	require.NotEmpty(t, set.MACD)
	require.NotEmpty(t, set.Bollinger)
	require.Empty(t, set.Errors)

	rec = serve(t, srv, http.MethodGet, "/v1/indicators/MSFT/rsi?period=-3", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(t, srv, http.MethodGet, "/v1/indicators/MSFT/bollinger?period=20", "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHistoricalRoute(t *testing.T) {
	srv := newTestServer(t, testConfig())

	rec := serve(t, srv, http.MethodGet, "/v1/historical/MSFT?period=5d", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data core.HistoricalSeries `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Len(t, body.Data.Bars, 5)
}

func TestProviderAdminRoutes(t *testing.T) {
	srv := newTestServer(t, testConfig())

	rec := serve(t, srv, http.MethodGet, "/v1/providers/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var status handlers.StatusResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&status))
	require.Len(t, status.Chains, len(market.Domains))
	require.Equal(t, "quotes", status.Chains[0].Chain)

	rec = serve(t, srv, http.MethodPut, "/v1/providers/quotes/order", `{"providers":["backup"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `["backup","flaky"]`)

	rec = serve(t, srv, http.MethodGet, "/v1/quotes/AAPL", "")
	require.Contains(t, rec.Body.String(), `"fallback_used":false`)

	rec = serve(t, srv, http.MethodPut, "/v1/providers/crypto/order", `{"providers":["backup"]}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, apperrors.CodeNotFound, decodeError(t, rec).Error.Code)

	rec = serve(t, srv, http.MethodPut, "/v1/providers/quotes/order", `not json`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(t, srv, http.MethodGet, "/v1/providers/fundamentals", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"quotes-only"`)
}

func TestRateLimitRoutes(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimits["backup"] = core.RateLimitConfig{RequestsPerMinute: 1}
	srv := newTestServer(t, cfg)

	serve(t, srv, http.MethodGet, "/v1/quotes/AAPL", "")

	rec := serve(t, srv, http.MethodGet, "/v1/ratelimits", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var limits handlers.RateLimitsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&limits))

	var backup *core.RateLimitStatus
	for i := range limits.Sources {
		if limits.Sources[i].Source == "backup" {
			backup = &limits.Sources[i]
		}
	}
	require.NotNil(t, backup)
	require.Equal(t, 1, backup.MinuteRequests)
	require.False(t, backup.CanRequest)

	rec = serve(t, srv, http.MethodDelete, "/v1/ratelimits/backup", "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = serve(t, srv, http.MethodDelete, "/v1/ratelimits/nobody", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthRoutesUseMarketChecker(t *testing.T) {
	cfg := testConfig()
	cfg.Providers["flaky"] = config.ProviderConfig{Type: "synthetic", Options: map[string]any{"healthy": false}}
	cfg.Providers["backup"] = config.ProviderConfig{Type: "synthetic", Options: map[string]any{"healthy": false}}
	srv := newTestServer(t, cfg)

	rec := serve(t, srv, http.MethodGet, "/health/live", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = serve(t, srv, http.MethodGet, "/health/ready", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	healthy := newTestServer(t, testConfig())
	rec = serve(t, healthy, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"market":"healthy"`)
}

func TestAdminEndpointRequiresToken(t *testing.T) {
	t.Setenv(AdminTokenEnv, "")
	srv := newTestServer(t, testConfig())

	rec := serve(t, srv, http.MethodPost, "/admin/signal", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServeAndShutdown(t *testing.T) {
	srv := newTestServer(t, testConfig())

	done := make(chan error, 1)
	go func() { done <- srv.Start() }()

	require.Eventually(t, func() bool { return srv.ListenAddr() != "" }, 2*time.Second, 10*time.Millisecond)

	resp, err := http.Get("http://" + srv.ListenAddr() + "/version")
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, srv.Shutdown(t.Context()))
	require.NoError(t, <-done)
}
