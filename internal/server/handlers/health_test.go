package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type stubChecker struct {
	err error
}

func (s stubChecker) CheckHealth(ctx context.Context) error {
	return s.err
}

type slowChecker struct{}

func (slowChecker) CheckHealth(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

type errorBody struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func TestHealthHandlerReturnsHealthyStatus(t *testing.T) {
	manager := NewHealthManager("1.2.3")
	manager.RegisterChecker("market", stubChecker{})

	rec := httptest.NewRecorder()
	manager.HealthHandler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, "healthy", resp.Status)
	require.Equal(t, "1.2.3", resp.Version)
	require.Equal(t, "healthy", resp.Checks["market"])
}

func TestHealthHandlerReturnsServiceUnavailableWhenUnhealthy(t *testing.T) {
	manager := NewHealthManager("1.2.3")
	manager.RegisterChecker("market", stubChecker{err: errors.New("no healthy quote providers")})

	rec := httptest.NewRecorder()
	manager.HealthHandler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp errorBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, "SERVICE_UNAVAILABLE", resp.Error.Code)

	checks, ok := resp.Error.Details["checks"].(map[string]any)
	require.True(t, ok, "expected checks in error details")
	require.Equal(t, "unhealthy", checks["market"])
}

func TestProbes(t *testing.T) {
	manager := NewHealthManager("dev")
	manager.RegisterChecker("market", stubChecker{err: errors.New("down")})

	t.Run("liveness ignores checkers", func(t *testing.T) {
		rec := httptest.NewRecorder()
		manager.LivenessHandler(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("readiness fails with the checker", func(t *testing.T) {
		rec := httptest.NewRecorder()
		manager.ReadinessHandler(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)

		var resp errorBody
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		require.Equal(t, "ready probe failed", resp.Error.Message)
		require.Equal(t, "ready", resp.Error.Details["probe"])
	})
}

func TestRunHealthChecksMarksTimeouts(t *testing.T) {
	manager := NewHealthManager("dev")
	manager.RegisterChecker("slow", slowChecker{})
	manager.RegisterChecker("fast", stubChecker{})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	checks := manager.runHealthChecks(ctx)
	require.Equal(t, map[string]string{"slow": "timeout", "fast": "healthy"}, checks)
	require.Equal(t, "degraded", manager.determineOverallStatus(checks))
}
