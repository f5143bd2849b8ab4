package engine

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/marketmux/marketmux/internal/core"
)

const (
	minuteWindow = time.Minute
	dayWindow    = 24 * time.Hour
)

// DefaultLimits are the published free-tier limits for known vendors.
var DefaultLimits = map[string]core.RateLimitConfig{
	"alpha_vantage": {RequestsPerMinute: 5, RequestsPerDay: 25},
	"finnhub":       {RequestsPerMinute: 60},
	"robinhood":     {RequestsPerMinute: 120},
}

// RateLimiter enforces per-source sliding windows. Sources without a
// registered configuration are not throttled.
type RateLimiter struct {
	Clock    func() time.Time
	Sleep    func(ctx context.Context, d time.Duration) error
	Logger   Logger
	Recorder Recorder

	mu      sync.Mutex
	margin  float64
	sources map[string]*window
}

type window struct {
	mu     sync.Mutex
	config core.RateLimitConfig
	minute []time.Time
	day    []time.Time
}

// NewRateLimiter seeds DefaultLimits and then applies overrides.
func NewRateLimiter(overrides map[string]core.RateLimitConfig) *RateLimiter {
	r := &RateLimiter{sources: make(map[string]*window, len(DefaultLimits)+len(overrides))}
	for source, cfg := range DefaultLimits {
		r.Configure(source, cfg)
	}
	for source, cfg := range overrides {
		r.Configure(source, cfg)
	}
	return r
}

// Configure registers or replaces the limits for source. Recorded admissions
// are kept.
func (r *RateLimiter) Configure(source string, cfg core.RateLimitConfig) {
	source = strings.TrimSpace(source)
	if r == nil || source == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sources == nil {
		r.sources = make(map[string]*window)
	}
	if w, ok := r.sources[source]; ok {
		w.mu.Lock()
		w.config = cfg
		w.mu.Unlock()
		return
	}
	r.sources[source] = &window{config: cfg}
}

// ApplySafetyMargin scales every cap by a ratio in (0,1].
func (r *RateLimiter) ApplySafetyMargin(margin float64) {
	if r == nil || margin <= 0 || margin > 1 {
		return
	}
	r.mu.Lock()
	r.margin = margin
	r.mu.Unlock()
}

// Sources lists configured sources in lexical order.
func (r *RateLimiter) Sources() []string {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.sources))
	for name := range r.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Acquire admits one request for source, waiting up to timeout for capacity.
// The wait is also bounded by the ctx deadline. It returns false without error
// when the wait would exceed either bound, and the context error when ctx is
// canceled while waiting. A denied or canceled call leaves the window untouched.
func (r *RateLimiter) Acquire(ctx context.Context, source string, timeout time.Duration) (bool, error) {
	if r == nil {
		return true, nil
	}
	w, margin := r.lookup(source)
	if w == nil {
		return true, nil
	}

	if ctxDeadline, ok := ctx.Deadline(); ok {
		timeout = min(timeout, time.Until(ctxDeadline))
	}
	deadline := r.now().Add(timeout)
	for {
		if err := ctx.Err(); err != nil {
			return false, err
		}

		now := r.now()
		w.mu.Lock()
		w.prune(now)
		minuteCap, dayCap := w.caps(margin)
		if w.hasRoom(minuteCap, dayCap) {
			w.minute = append(w.minute, now)
			w.day = append(w.day, now)
			w.mu.Unlock()
			r.record(source, true, 0)
			return true, nil
		}
		wait := w.waitFor(now, minuteCap, dayCap)
		w.mu.Unlock()

		if wait > deadline.Sub(now) {
			loggerOrNop(r.Logger).Debug("rate limit denied",
				zap.String("source", source),
				zap.Duration("wait", wait),
				zap.Duration("timeout", timeout))
			r.record(source, false, wait)
			return false, nil
		}

		loggerOrNop(r.Logger).Debug("rate limit waiting",
			zap.String("source", source),
			zap.Duration("wait", wait))
		if err := r.sleep(ctx, wait); err != nil {
			return false, err
		}
	}
}

// Status reports window counts without mutating anything beyond pruning.
func (r *RateLimiter) Status(source string) core.RateLimitStatus {
	status := core.RateLimitStatus{Source: source, CanRequest: true}
	if r == nil {
		return status
	}
	w, margin := r.lookup(source)
	if w == nil {
		return status
	}

	now := r.now()
	w.mu.Lock()
	defer w.mu.Unlock()
	w.prune(now)
	minuteCap, dayCap := w.caps(margin)

	status.Configured = true
	status.MinuteRequests = len(w.minute)
	status.MinuteLimit = minuteCap
	status.DailyRequests = len(w.day)
	status.DailyLimit = dayCap
	status.Burst = w.config.Burst()
	status.CanRequest = w.hasRoom(minuteCap, dayCap)
	if !status.CanRequest {
		status.EstimatedWait = w.waitFor(now, minuteCap, dayCap)
	}
	return status
}

// Statuses reports every configured source.
func (r *RateLimiter) Statuses() []core.RateLimitStatus {
	sources := r.Sources()
	out := make([]core.RateLimitStatus, 0, len(sources))
	for _, source := range sources {
		out = append(out, r.Status(source))
	}
	return out
}

// Reset clears recorded admissions for source, or for every source when
// source is empty. It reports whether anything was reset.
func (r *RateLimiter) Reset(source string) bool {
	if r == nil {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	reset := false
	for name, w := range r.sources {
		if source != "" && name != source {
			continue
		}
		w.mu.Lock()
		w.minute = nil
		w.day = nil
		w.mu.Unlock()
		reset = true
	}
	return reset
}

func (r *RateLimiter) lookup(source string) (*window, float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sources[source], r.margin
}

func (r *RateLimiter) now() time.Time {
	if r != nil && r.Clock != nil {
		return r.Clock()
	}
	return time.Now()
}

func (r *RateLimiter) sleep(ctx context.Context, d time.Duration) error {
	if r.Sleep != nil {
		return r.Sleep(ctx, d)
	}
	return sleepContext(ctx, d)
}

func (r *RateLimiter) record(source string, granted bool, wait time.Duration) {
	if r.Recorder != nil {
		r.Recorder.RateLimitDecision(source, granted, wait)
	}
}

func (w *window) prune(now time.Time) {
	w.minute = pruneBefore(w.minute, now.Add(-minuteWindow))
	w.day = pruneBefore(w.day, now.Add(-dayWindow))
}

func (w *window) caps(margin float64) (int, int) {
	return applyMargin(w.config.RequestsPerMinute, margin), applyMargin(w.config.RequestsPerDay, margin)
}

func (w *window) hasRoom(minuteCap, dayCap int) bool {
	if minuteCap > 0 && len(w.minute) >= minuteCap {
		return false
	}
	if dayCap > 0 && len(w.day) >= dayCap {
		return false
	}
	return true
}

// waitFor returns how long until every full window has room again.
func (w *window) waitFor(now time.Time, minuteCap, dayCap int) time.Duration {
	var wait time.Duration
	if minuteCap > 0 && len(w.minute) >= minuteCap {
		wait = max(wait, w.minute[len(w.minute)-minuteCap].Add(minuteWindow).Sub(now))
	}
	if dayCap > 0 && len(w.day) >= dayCap {
		wait = max(wait, w.day[len(w.day)-dayCap].Add(dayWindow).Sub(now))
	}
	return wait
}

// pruneBefore drops timestamps at or before cutoff. Entries are appended in
// order so the slice stays sorted.
func pruneBefore(stamps []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(stamps) && !stamps[i].After(cutoff) {
		i++
	}
	if i == 0 {
		return stamps
	}
	return append(stamps[:0:0], stamps[i:]...)
}

func applyMargin(limit int, margin float64) int {
	if limit <= 0 || margin <= 0 || margin > 1 {
		return limit
	}
	adjusted := int(math.Floor(float64(limit) * margin))
	if adjusted < 1 {
		adjusted = 1
	}
	return adjusted
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
