package server

import (
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/marketmux/marketmux/internal/config"
	"github.com/marketmux/marketmux/internal/market"
	"github.com/marketmux/marketmux/internal/metrics"
	"github.com/marketmux/marketmux/internal/observability"
	"github.com/marketmux/marketmux/internal/server/handlers"
)

// isPermissionError normalizes OS-specific permission errors so we can skip
// when loopback sockets are blocked.
func isPermissionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, os.ErrPermission) || errors.Is(err, syscall.EACCES) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, fragment := range []string{"permission denied", "operation not permitted", "not permitted"} {
		if strings.Contains(msg, fragment) {
			return true
		}
	}
	return false
}

// initMetricsOrSkip starts a real Prometheus exporter on a free port and
// tears the global telemetry state down afterwards.
func initMetricsOrSkip(t *testing.T) {
	t.Helper()

	err := observability.InitMetrics("test", config.MetricsConfig{Enabled: true, Port: 0}, "test")
	t.Cleanup(func() {
		if observability.PrometheusExporter != nil {
			_ = observability.PrometheusExporter.Stop()
			observability.PrometheusExporter = nil
		}
		observability.TelemetrySystem = nil
	})
	if err != nil {
		if isPermissionError(err) {
			t.Skipf("skipping metrics tests due to sandbox permissions: %v", err)
		}
		require.NoError(t, err)
	}
}

// startLoopback serves srv on IPv4 loopback, skipping when sockets are refused.
func startLoopback(t *testing.T, srv *Server) (*httptest.Server, *http.Client) {
	t.Helper()
	listener, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		if isPermissionError(err) {
			t.Skipf("skipping server setup: %v", err)
		}
		require.NoError(t, err)
	}

	ts := &httptest.Server{
		Listener: listener,
		Config:   &http.Server{Handler: srv.Handler()},
	}
	ts.Start()
	t.Cleanup(ts.Close)
	return ts, ts.Client()
}

func TestMetricsEndpointAfterMarketTraffic(t *testing.T) {
	observability.InitServerLogger("test", "warn")
	t.Cleanup(func() { observability.ServerLogger = nil })
	initMetricsOrSkip(t)

	cfg := testConfig()
	cfg.Metrics = config.MetricsConfig{Enabled: true, Port: observability.GetMetricsPort()}
	svc, err := market.New(cfg, market.Deps{
		Logger:   zaptest.NewLogger(t),
		Recorder: metrics.NewEngineRecorder(),
	})
	require.NoError(t, err)
	ts, client := startLoopback(t, New(cfg, svc, handlers.NewHealthManager("test")))

	paths := []string{
		"/v1/quotes/AAPL",
		"/v1/quotes?symbols=AAPL,MSFT",
		"/v1/indicators/AAPL/rsi",
		"/health/live",
	}

	const numRequests = 40
	const numWorkers = 8
	requests := make(chan int, numRequests)
	for i := range numRequests {
		requests <- i
	}
	close(requests)

	start := time.Now()
	var wg sync.WaitGroup
	wg.Add(numWorkers)
	for range numWorkers {
		go func() {
			defer wg.Done()
			for n := range requests {
				resp, err := client.Get(ts.URL + paths[n%len(paths)])
				if err == nil {
					_ = resp.Body.Close()
				}
			}
		}()
	}
	wg.Wait()
	elapsed := time.Since(start)

	resp, err := client.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	body, readErr := io.ReadAll(resp.Body)
	require.NoError(t, resp.Body.Close())
	require.NoError(t, readErr)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	content := string(body)
	assert.Contains(t, content, "test_http_requests_total")
	assert.Contains(t, content, "test_http_request_duration_ms")
	assert.Contains(t, content, "test_provider_attempts_total")
	assert.Contains(t, content, "test_chain_executions_total")
	assert.Less(t, elapsed, 5*time.Second)
	t.Logf("served %d requests in %v", numRequests, elapsed)
}
