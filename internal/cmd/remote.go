package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/marketmux/marketmux/internal/core"
	"github.com/marketmux/marketmux/internal/core/engine"
	apperrors "github.com/marketmux/marketmux/internal/errors"
	"github.com/marketmux/marketmux/internal/server/handlers"
)

// remoteClient talks to the admin routes of a running server.
type remoteClient struct {
	baseURL string
	http    *http.Client
}

func newRemoteClient(baseURL string) *remoteClient {
	return &remoteClient{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *remoteClient) Status(ctx context.Context) ([]engine.ChainStatus, error) {
	var body handlers.StatusResponse
	if err := c.do(ctx, http.MethodGet, "/v1/providers/status", &body); err != nil {
		return nil, err
	}
	return body.Chains, nil
}

func (c *remoteClient) RateLimits(ctx context.Context) ([]core.RateLimitStatus, error) {
	var body handlers.RateLimitsResponse
	if err := c.do(ctx, http.MethodGet, "/v1/ratelimits", &body); err != nil {
		return nil, err
	}
	return body.Sources, nil
}

// ResetRateLimit resets source on the server, or every source when empty.
// It reports false when the server had nothing to reset.
func (c *remoteClient) ResetRateLimit(ctx context.Context, source string) (bool, error) {
	path := "/v1/ratelimits"
	if source != "" {
		path += "/" + url.PathEscape(source)
	}
	err := c.do(ctx, http.MethodDelete, path, nil)
	var remoteErr *remoteError
	if errors.As(err, &remoteErr) && remoteErr.Status == http.StatusNotFound {
		return false, nil
	}
	return err == nil, err
}

// remoteError is an error envelope returned by the server.
type remoteError struct {
	Status int
	Detail apperrors.HTTPErrorDetail
}

func (e *remoteError) Error() string {
	return fmt.Sprintf("server returned %d %s: %s", e.Status, e.Detail.Code, e.Detail.Message)
}

func (c *remoteClient) do(ctx context.Context, method, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		var envelope apperrors.HTTPErrorResponse
		if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&envelope); err != nil {
			envelope.Error = apperrors.HTTPErrorDetail{Code: http.StatusText(resp.StatusCode)}
		}
		return &remoteError{Status: resp.StatusCode, Detail: envelope.Error}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
