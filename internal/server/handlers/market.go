package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/marketmux/marketmux/internal/core"
	"github.com/marketmux/marketmux/internal/core/engine"
	"github.com/marketmux/marketmux/internal/core/provider"
	apperrors "github.com/marketmux/marketmux/internal/errors"
	"github.com/marketmux/marketmux/internal/market"
)

// MarketService is the part of market.Service the HTTP routes use.
type MarketService interface {
	Quote(ctx context.Context, symbol string) (*market.Response, error)
	Quotes(ctx context.Context, symbols []string) (*market.Response, error)
	OptionsChain(ctx context.Context, symbol, expiration string, raw bool) (*market.Response, error)
	Fundamentals(ctx context.Context, symbol string) (*market.Response, error)
	Historical(ctx context.Context, symbol, period string) (*market.Response, error)
	RSI(ctx context.Context, symbol string, period int) (*market.Response, error)
	MACD(ctx context.Context, symbol string) (*market.Response, error)
	Bollinger(ctx context.Context, symbol string, period int) (*market.Response, error)
	Indicators(ctx context.Context, symbol string) (*market.IndicatorSet, error)
	Status(ctx context.Context) []engine.ChainStatus
	RateLimits() []core.RateLimitStatus
	ResetRateLimit(source string) bool
	Reorder(domain string, names ...string) ([]string, error)
	Capabilities(domain string) ([]provider.Descriptor, error)
}

var _ MarketService = (*market.Service)(nil)

// MarketHandler serves the /v1 market data routes.
type MarketHandler struct {
	svc MarketService
}

func NewMarketHandler(svc MarketService) *MarketHandler {
	return &MarketHandler{svc: svc}
}

// Routes mounts the handlers on r.
func (h *MarketHandler) Routes(r chi.Router) {
	r.Get("/quotes", h.Quotes)
	r.Get("/quotes/{symbol}", h.Quote)
	r.Get("/options/{symbol}", h.Options)
	r.Get("/fundamentals/{symbol}", h.Fundamentals)
	r.Get("/historical/{symbol}", h.Historical)
	r.Get("/indicators/{symbol}", h.Indicators)
	r.Get("/indicators/{symbol}/{indicator}", h.Indicator)
	r.Get("/providers/status", h.Status)
	r.Get("/providers/{domain}", h.Capabilities)
	r.Put("/providers/{domain}/order", h.Reorder)
	r.Get("/ratelimits", h.RateLimits)
	r.Delete("/ratelimits", h.ResetRateLimit)
	r.Delete("/ratelimits/{source}", h.ResetRateLimit)
}

func (h *MarketHandler) Quote(w http.ResponseWriter, r *http.Request) {
	resp, err := h.svc.Quote(r.Context(), chi.URLParam(r, "symbol"))
	h.reply(w, r, resp, err)
}

func (h *MarketHandler) Quotes(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(r.URL.Query().Get("symbols"))
	if raw == "" {
		respondWithError(w, r, apperrors.NewInvalidInputError("symbols query parameter is required"))
		return
	}
	resp, err := h.svc.Quotes(r.Context(), strings.Split(raw, ","))
	h.reply(w, r, resp, err)
}

func (h *MarketHandler) Options(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	raw, err := boolParam(q.Get("raw"))
	if err != nil {
		respondWithError(w, r, apperrors.NewInvalidInputError("raw must be a boolean"))
		return
	}
	resp, err := h.svc.OptionsChain(r.Context(), chi.URLParam(r, "symbol"), q.Get("expiration"), raw)
	h.reply(w, r, resp, err)
}

func (h *MarketHandler) Fundamentals(w http.ResponseWriter, r *http.Request) {
	resp, err := h.svc.Fundamentals(r.Context(), chi.URLParam(r, "symbol"))
	h.reply(w, r, resp, err)
}

func (h *MarketHandler) Historical(w http.ResponseWriter, r *http.Request) {
	resp, err := h.svc.Historical(r.Context(), chi.URLParam(r, "symbol"), r.URL.Query().Get("period"))
	h.reply(w, r, resp, err)
}

func (h *MarketHandler) Indicators(w http.ResponseWriter, r *http.Request) {
	set, err := h.svc.Indicators(r.Context(), chi.URLParam(r, "symbol"))
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, set)
}

// Indicator serves a single indicator: rsi, macd or bollinger.
func (h *MarketHandler) Indicator(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	period, err := intParam(r.URL.Query().Get("period"))
	if err != nil {
		respondWithError(w, r, apperrors.NewInvalidInputError("period must be an integer"))
		return
	}

	var resp *market.Response
	switch strings.ToLower(chi.URLParam(r, "indicator")) {
	case "rsi":
		resp, err = h.svc.RSI(r.Context(), symbol, period)
	case "macd":
		resp, err = h.svc.MACD(r.Context(), symbol)
	case "bollinger", "bbands":
		resp, err = h.svc.Bollinger(r.Context(), symbol, period)
	default:
		respondWithError(w, r, apperrors.NewNotFoundError(
			fmt.Sprintf("unknown indicator %q", chi.URLParam(r, "indicator"))))
		return
	}
	h.reply(w, r, resp, err)
}

// StatusResponse lists chain health per domain.
type StatusResponse struct {
	Chains []engine.ChainStatus `json:"chains"`
}

func (h *MarketHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{Chains: h.svc.Status(r.Context())})
}

func (h *MarketHandler) Capabilities(w http.ResponseWriter, r *http.Request) {
	domain, ok := domainParam(w, r)
	if !ok {
		return
	}
	descriptors, err := h.svc.Capabilities(domain)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"domain":    domain,
		"providers": descriptors,
	})
}

// ReorderRequest is the body of PUT /v1/providers/{domain}/order.
type ReorderRequest struct {
	Providers []string `json:"providers"`
}

func (h *MarketHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	domain, ok := domainParam(w, r)
	if !ok {
		return
	}
	var body ReorderRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&body); err != nil {
		respondWithError(w, r, apperrors.NewInvalidInputError("request body must be JSON with a providers list"))
		return
	}
	if len(body.Providers) == 0 {
		respondWithError(w, r, apperrors.NewInvalidInputError("providers must not be empty"))
		return
	}
	order, err := h.svc.Reorder(domain, body.Providers...)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"domain":    domain,
		"providers": order,
	})
}

// RateLimitsResponse lists limiter state per source.
type RateLimitsResponse struct {
	Sources []core.RateLimitStatus `json:"sources"`
}

func (h *MarketHandler) RateLimits(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, RateLimitsResponse{Sources: h.svc.RateLimits()})
}

// ResetRateLimit clears one source, or every source when none is named.
func (h *MarketHandler) ResetRateLimit(w http.ResponseWriter, r *http.Request) {
	source := chi.URLParam(r, "source")
	if !h.svc.ResetRateLimit(source) {
		respondWithError(w, r, apperrors.NewNotFoundError(
			fmt.Sprintf("no rate limit state for source %q", source)))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *MarketHandler) reply(w http.ResponseWriter, r *http.Request, resp *market.Response, err error) {
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// domainParam resolves {domain}, answering 404 for unknown domains.
func domainParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	domain, err := market.ParseDomain(chi.URLParam(r, "domain"))
	if err != nil {
		respondWithError(w, r, apperrors.NewNotFoundError(err.Error()))
		return "", false
	}
	return string(domain), true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func boolParam(v string) (bool, error) {
	if v == "" {
		return false, nil
	}
	return strconv.ParseBool(v)
}

func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}
