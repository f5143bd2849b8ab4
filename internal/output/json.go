package output

import (
	"encoding/json"

	"github.com/marketmux/marketmux/internal/core"
	"github.com/marketmux/marketmux/internal/core/engine"
	"github.com/marketmux/marketmux/internal/market"
)

// JSONFormatter renders results as JSON.
type JSONFormatter struct {
	Indent bool
}

func (f *JSONFormatter) FormatResponse(_ string, resp *market.Response) (string, error) {
	if resp == nil {
		return "", nil
	}
	return f.marshal(resp)
}

func (f *JSONFormatter) FormatIndicators(set *market.IndicatorSet) (string, error) {
	if set == nil {
		return "", nil
	}
	return f.marshal(set)
}

func (f *JSONFormatter) FormatStatus(statuses []engine.ChainStatus) (string, error) {
	return f.marshal(map[string]any{"chains": statuses})
}

func (f *JSONFormatter) FormatRateLimits(limits []core.RateLimitStatus) (string, error) {
	return f.marshal(map[string]any{"sources": limits})
}

func (f *JSONFormatter) marshal(v any) (string, error) {
	var (
		data []byte
		err  error
	)

	if f.Indent {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return "", err
	}

	return string(data), nil
}
