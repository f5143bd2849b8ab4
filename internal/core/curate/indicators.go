package curate

import (
	"errors"
	"math"
	"sort"

	"github.com/marketmux/marketmux/internal/core"
)

// ErrNoIndicatorData is returned when a series has no point carrying the
// required fields.
var ErrNoIndicatorData = errors.New("indicator series has no usable points")

// Signal and trend labels.
const (
	SignalOverbought       = "OVERBOUGHT"
	SignalOversold         = "OVERSOLD"
	SignalBullish          = "BULLISH"
	SignalBearish          = "BEARISH"
	SignalBullishCrossover = "BULLISH_CROSSOVER"
	SignalBearishCrossover = "BEARISH_CROSSOVER"
	SignalNeutral          = "NEUTRAL"

	TrendRising           = "RISING"
	TrendFalling          = "FALLING"
	TrendSideways         = "SIDEWAYS"
	TrendInsufficientData = "INSUFFICIENT_DATA"
	TrendStrengthening    = "STRENGTHENING"
	TrendWeakening        = "WEAKENING"

	BandsSqueeze     = "SQUEEZE"
	BandsExpansion   = "EXPANSION"
	BandsNormal      = "NORMAL"
	WidthExpanding   = "EXPANDING"
	WidthContracting = "CONTRACTING"
	WidthStable      = "STABLE"
)

const (
	rsiOverbought = 70.0
	rsiOversold   = 30.0
	rsiMidline    = 50.0

	squeezeRatio   = 0.7
	expansionRatio = 1.3
	squeezePoints  = 5
	trendPoints    = 3
)

type point struct {
	date   string
	values map[string]float64
}

// newestFirst returns the points carrying every field, most recent first.
func newestFirst(series *core.IndicatorSeries, fields ...string) []point {
	if series == nil {
		return nil
	}
	out := make([]point, 0, len(series.Points))
	for date, values := range series.Points {
		if !hasFields(values, fields) {
			continue
		}
		out = append(out, point{date: date, values: values})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].date > out[j].date })
	return out
}

func hasFields(values map[string]float64, fields []string) bool {
	for _, f := range fields {
		v, ok := values[f]
		if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func firstN[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}

// strictTrend reports +1 when values strictly decrease by index (newest is
// largest), -1 when they strictly increase, and 0 otherwise.
func strictTrend(values []float64) int {
	if len(values) < 2 {
		return 0
	}
	down, up := true, true
	for i := 0; i+1 < len(values); i++ {
		if !(values[i] > values[i+1]) {
			down = false
		}
		if !(values[i] < values[i+1]) {
			up = false
		}
	}
	switch {
	case down:
		return 1
	case up:
		return -1
	default:
		return 0
	}
}

// RSIReading is one dated RSI value.
type RSIReading struct {
	Date  string  `json:"date"`
	Value float64 `json:"rsi"`
}

// RSIAnalysis is a curated RSI series.
type RSIAnalysis struct {
	Symbol  string       `json:"symbol"`
	Period  int          `json:"period"`
	Latest  float64      `json:"latest_rsi"`
	Signal  string       `json:"signal"`
	Trend   string       `json:"trend_direction"`
	Recent  []RSIReading `json:"recent_values"`
	History []RSIReading `json:"history"`
	Summary Summary      `json:"optimization_summary"`
}

// ClassifyRSI labels a single RSI reading.
func ClassifyRSI(v float64) string {
	switch {
	case v >= rsiOverbought:
		return SignalOverbought
	case v <= rsiOversold:
		return SignalOversold
	case v > rsiMidline:
		return SignalBullish
	default:
		return SignalBearish
	}
}

// RSITrend classifies the first three newest-first values.
func RSITrend(newestFirst []float64) string {
	if len(newestFirst) < trendPoints {
		return TrendInsufficientData
	}
	switch strictTrend(newestFirst[:trendPoints]) {
	case 1:
		return TrendRising
	case -1:
		return TrendFalling
	default:
		return TrendSideways
	}
}

// RSI curates an RSI series.
func RSI(series *core.IndicatorSeries, policy Policy) (*RSIAnalysis, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	points := newestFirst(series, core.FieldRSI)
	if len(points) == 0 {
		return nil, ErrNoIndicatorData
	}

	readings := make([]RSIReading, len(points))
	for i, p := range points {
		readings[i] = RSIReading{Date: p.date, Value: p.values[core.FieldRSI]}
	}
	recent := firstN(readings, policy.SignalPoints)
	values := make([]float64, len(recent))
	for i, r := range recent {
		values[i] = r.Value
	}

	history := firstN(readings, policy.DisplayPoints)
	return &RSIAnalysis{
		Symbol:  series.Symbol,
		Period:  series.Period,
		Latest:  recent[0].Value,
		Signal:  ClassifyRSI(recent[0].Value),
		Trend:   RSITrend(values),
		Recent:  recent,
		History: history,
		Summary: newSummary(len(series.Points), len(history), policy),
	}, nil
}

// MACDReading is one dated MACD point.
type MACDReading struct {
	Date      string  `json:"date"`
	MACD      float64 `json:"macd"`
	Signal    float64 `json:"signal"`
	Histogram float64 `json:"histogram"`
}

// MACDAnalysis is a curated MACD series.
type MACDAnalysis struct {
	Symbol          string        `json:"symbol"`
	LatestMACD      float64       `json:"latest_macd"`
	LatestSignal    float64       `json:"latest_signal"`
	LatestHistogram float64       `json:"latest_histogram"`
	Crossover       string        `json:"crossover_signal"`
	HistogramTrend  string        `json:"histogram_trend"`
	Recent          []MACDReading `json:"recent_values"`
	History         []MACDReading `json:"history"`
	Summary         Summary       `json:"optimization_summary"`
}

// MACDCrossover classifies the two most recent readings, newest first.
func MACDCrossover(newestFirst []MACDReading) string {
	if len(newestFirst) < 2 {
		return SignalNeutral
	}
	cur := newestFirst[0].MACD - newestFirst[0].Signal
	prev := newestFirst[1].MACD - newestFirst[1].Signal
	switch {
	case cur > 0 && prev <= 0:
		return SignalBullishCrossover
	case cur < 0 && prev >= 0:
		return SignalBearishCrossover
	case cur > 0:
		return SignalBullish
	default:
		return SignalBearish
	}
}

// HistogramTrend classifies the first three newest-first histogram values.
func HistogramTrend(newestFirst []float64) string {
	if len(newestFirst) < trendPoints {
		return SignalNeutral
	}
	switch strictTrend(newestFirst[:trendPoints]) {
	case 1:
		return TrendStrengthening
	case -1:
		return TrendWeakening
	default:
		return SignalNeutral
	}
}

// MACD curates a MACD series.
func MACD(series *core.IndicatorSeries, policy Policy) (*MACDAnalysis, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	points := newestFirst(series, core.FieldMACD, core.FieldMACDSignal, core.FieldMACDHist)
	if len(points) == 0 {
		return nil, ErrNoIndicatorData
	}

	readings := make([]MACDReading, len(points))
	for i, p := range points {
		readings[i] = MACDReading{
			Date:      p.date,
			MACD:      p.values[core.FieldMACD],
			Signal:    p.values[core.FieldMACDSignal],
			Histogram: p.values[core.FieldMACDHist],
		}
	}
	recent := firstN(readings, policy.SignalPoints)
	hist := make([]float64, len(recent))
	for i, r := range recent {
		hist[i] = r.Histogram
	}

	history := firstN(readings, policy.DisplayPoints)
	latest := recent[0]
	return &MACDAnalysis{
		Symbol:          series.Symbol,
		LatestMACD:      latest.MACD,
		LatestSignal:    latest.Signal,
		LatestHistogram: latest.Histogram,
		Crossover:       MACDCrossover(recent),
		HistogramTrend:  HistogramTrend(hist),
		Recent:          recent,
		History:         history,
		Summary:         newSummary(len(series.Points), len(history), policy),
	}, nil
}

// BandReading is one dated Bollinger point.
type BandReading struct {
	Date   string  `json:"date"`
	Upper  float64 `json:"upper_band"`
	Middle float64 `json:"middle_band"`
	Lower  float64 `json:"lower_band"`
}

// Width is the band width relative to the middle band, in percent.
func (b BandReading) Width() float64 {
	return (b.Upper - b.Lower) / b.Middle * 100
}

// BollingerAnalysis is a curated Bollinger Bands series.
type BollingerAnalysis struct {
	Symbol       string        `json:"symbol"`
	Period       int           `json:"period"`
	LatestUpper  float64       `json:"latest_upper"`
	LatestMiddle float64       `json:"latest_middle"`
	LatestLower  float64       `json:"latest_lower"`
	Squeeze      string        `json:"squeeze_condition"`
	WidthTrend   string        `json:"width_trend"`
	Recent       []BandReading `json:"recent_values"`
	History      []BandReading `json:"history"`
	Summary      Summary       `json:"optimization_summary"`
}

// SqueezeCondition compares the newest width with the average of widths.
// It needs at least five widths.
func SqueezeCondition(newestFirst []float64) string {
	if len(newestFirst) < squeezePoints {
		return BandsNormal
	}
	var sum float64
	for _, w := range newestFirst {
		sum += w
	}
	avg := sum / float64(len(newestFirst))
	switch current := newestFirst[0]; {
	case current < avg*squeezeRatio:
		return BandsSqueeze
	case current > avg*expansionRatio:
		return BandsExpansion
	default:
		return BandsNormal
	}
}

// WidthTrend classifies the first three newest-first widths.
func WidthTrend(newestFirst []float64) string {
	if len(newestFirst) < trendPoints {
		return WidthStable
	}
	switch strictTrend(newestFirst[:trendPoints]) {
	case 1:
		return WidthExpanding
	case -1:
		return WidthContracting
	default:
		return WidthStable
	}
}

// Bollinger curates a Bollinger Bands series. Points with a zero middle band
// are skipped.
func Bollinger(series *core.IndicatorSeries, policy Policy) (*BollingerAnalysis, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	points := newestFirst(series, core.FieldUpperBand, core.FieldMiddleBand, core.FieldLowerBand)

	readings := make([]BandReading, 0, len(points))
	for _, p := range points {
		if p.values[core.FieldMiddleBand] == 0 {
			continue
		}
		readings = append(readings, BandReading{
			Date:   p.date,
			Upper:  p.values[core.FieldUpperBand],
			Middle: p.values[core.FieldMiddleBand],
			Lower:  p.values[core.FieldLowerBand],
		})
	}
	if len(readings) == 0 {
		return nil, ErrNoIndicatorData
	}

	recent := firstN(readings, policy.SignalPoints)
	widths := make([]float64, len(recent))
	for i, r := range recent {
		widths[i] = r.Width()
	}

	history := firstN(readings, policy.DisplayPoints)
	latest := recent[0]
	return &BollingerAnalysis{
		Symbol:       series.Symbol,
		Period:       series.Period,
		LatestUpper:  latest.Upper,
		LatestMiddle: latest.Middle,
		LatestLower:  latest.Lower,
		Squeeze:      SqueezeCondition(widths),
		WidthTrend:   WidthTrend(widths),
		Recent:       recent,
		History:      history,
		Summary:      newSummary(len(series.Points), len(history), policy),
	}, nil
}
