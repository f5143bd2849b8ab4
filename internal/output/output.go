// Package output renders market data for the CLI as tables, markdown or JSON.
package output

import (
	"fmt"
	"strings"

	"github.com/marketmux/marketmux/internal/core"
	"github.com/marketmux/marketmux/internal/core/engine"
	"github.com/marketmux/marketmux/internal/market"
)

// Format represents an output format.
type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// Formatter renders service results.
type Formatter interface {
	FormatResponse(title string, resp *market.Response) (string, error)
	FormatIndicators(set *market.IndicatorSet) (string, error)
	FormatStatus(statuses []engine.ChainStatus) (string, error)
	FormatRateLimits(limits []core.RateLimitStatus) (string, error)
}

// ParseFormat validates and normalizes a format string.
func ParseFormat(value string) (Format, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch normalized {
	case "", string(FormatTable):
		return FormatTable, nil
	case string(FormatJSON):
		return FormatJSON, nil
	case string(FormatMarkdown), "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", value)
	}
}

// NewFormatter returns a formatter for the requested format.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: true}
	case FormatMarkdown:
		return reportFormatter{render: renderMarkdown}
	default:
		return reportFormatter{render: renderTable}
	}
}

// reportFormatter turns results into reports and hands them to render.
type reportFormatter struct {
	render func(reports []report) string
}

func (f reportFormatter) FormatResponse(title string, resp *market.Response) (string, error) {
	if resp == nil {
		return "", nil
	}
	return f.render([]report{responseReport(title, resp)}), nil
}

func (f reportFormatter) FormatIndicators(set *market.IndicatorSet) (string, error) {
	if set == nil {
		return "", nil
	}
	return f.render(indicatorReports(set)), nil
}

func (f reportFormatter) FormatStatus(statuses []engine.ChainStatus) (string, error) {
	return f.render([]report{statusReport(statuses)}), nil
}

func (f reportFormatter) FormatRateLimits(limits []core.RateLimitStatus) (string, error) {
	return f.render([]report{rateLimitReport(limits)}), nil
}
