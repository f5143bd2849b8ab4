package metrics

import (
	"time"

	"github.com/marketmux/marketmux/internal/observability"
)

// Sink receives emitted metrics.
type Sink interface {
	Count(name string, labels map[string]string)
	Observe(name string, d time.Duration, labels map[string]string)
	Set(name string, value float64, labels map[string]string)
}

// TelemetrySink forwards to observability.TelemetrySystem, dropping
// everything while it is nil.
type TelemetrySink struct{}

func (TelemetrySink) Count(name string, labels map[string]string) {
	if sys := observability.TelemetrySystem; sys != nil {
		_ = sys.Counter(name, 1, labels)
	}
}

func (TelemetrySink) Observe(name string, d time.Duration, labels map[string]string) {
	if sys := observability.TelemetrySystem; sys != nil {
		_ = sys.Histogram(name, d, labels)
	}
}

func (TelemetrySink) Set(name string, value float64, labels map[string]string) {
	if sys := observability.TelemetrySystem; sys != nil {
		_ = sys.Gauge(name, value, labels)
	}
}

// Default is the sink used by the package-level helpers.
var Default Sink = TelemetrySink{}
