package curate

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/marketmux/marketmux/internal/core"
)

// series builds a daily series from chronological (oldest first) points.
func series(indicator string, points ...map[string]float64) *core.IndicatorSeries {
	s := &core.IndicatorSeries{Symbol: "XYZ", Indicator: indicator, Period: 14, Points: map[string]map[string]float64{}}
	for i, p := range points {
		s.Points[fmt.Sprintf("2025-01-%02d", i+1)] = p
	}
	return s
}

func rsiSeries(values ...float64) *core.IndicatorSeries {
	points := make([]map[string]float64, len(values))
	for i, v := range values {
		points[i] = map[string]float64{core.FieldRSI: v}
	}
	return series(core.IndicatorRSI, points...)
}

func TestRSIOverboughtRising(t *testing.T) {
	analysis, err := RSI(rsiSeries(55, 68, 72), DefaultPolicy())
	require.NoError(t, err)
	require.Equal(t, 72.0, analysis.Latest)
	require.Equal(t, SignalOverbought, analysis.Signal)
	require.Equal(t, TrendRising, analysis.Trend)
	require.Equal(t, "2025-01-03", analysis.Recent[0].Date)
}

func TestClassifyRSI(t *testing.T) {
	require.Equal(t, SignalOverbought, ClassifyRSI(70))
	require.Equal(t, SignalOversold, ClassifyRSI(30))
	require.Equal(t, SignalBullish, ClassifyRSI(50.1))
	require.Equal(t, SignalBearish, ClassifyRSI(50))
	require.Equal(t, SignalBearish, ClassifyRSI(31))
}

func TestRSITrend(t *testing.T) {
	require.Equal(t, TrendFalling, RSITrend([]float64{40, 45, 50}))
	require.Equal(t, TrendSideways, RSITrend([]float64{50, 50, 40}))
	require.Equal(t, TrendInsufficientData, RSITrend([]float64{50, 40}))
}

func TestRSIWindows(t *testing.T) {
	values := make([]float64, 80)
	for i := range values {
		values[i] = 40 + float64(i%20)
	}
	s := rsiSeries(values...)

	analysis, err := RSI(s, DefaultPolicy())
	require.NoError(t, err)
	require.Len(t, analysis.Recent, 5)
	require.Len(t, analysis.History, 50)
	require.Equal(t, 80, analysis.Summary.OriginalCount)
	require.Equal(t, 37.5, analysis.Summary.ReductionPercent)
	require.Len(t, s.Points, 80)
}

func TestRSISkipsIncompletePoints(t *testing.T) {
	s := rsiSeries(20, 25)
	s.Points["2025-01-03"] = map[string]float64{"other": 1}

	analysis, err := RSI(s, DefaultPolicy())
	require.NoError(t, err)
	require.Equal(t, 25.0, analysis.Latest)
	require.Equal(t, SignalOversold, analysis.Signal)
	require.Equal(t, TrendInsufficientData, analysis.Trend)

	_, err = RSI(&core.IndicatorSeries{}, DefaultPolicy())
	require.ErrorIs(t, err, ErrNoIndicatorData)
	_, err = RSI(nil, DefaultPolicy())
	require.ErrorIs(t, err, ErrNoIndicatorData)
}

func macdPoint(line, signal, hist float64) map[string]float64 {
	return map[string]float64{core.FieldMACD: line, core.FieldMACDSignal: signal, core.FieldMACDHist: hist}
}

func TestMACDBullishCrossoverStrengthening(t *testing.T) {
	s := series(core.IndicatorMACD,
		macdPoint(0.8, 1.0, -0.2),
		macdPoint(0.9, 1.0, -0.1),
		macdPoint(1.2, 1.0, 0.2),
	)
	analysis, err := MACD(s, DefaultPolicy())
	require.NoError(t, err)
	require.Equal(t, SignalBullishCrossover, analysis.Crossover)
	require.Equal(t, TrendStrengthening, analysis.HistogramTrend)
	require.Equal(t, 1.2, analysis.LatestMACD)
}

func TestMACDCrossover(t *testing.T) {
	require.Equal(t, SignalNeutral, MACDCrossover([]MACDReading{{MACD: 1}}))
	require.Equal(t, SignalBearishCrossover, MACDCrossover([]MACDReading{{MACD: 0.5, Signal: 1}, {MACD: 1, Signal: 1}}))
	require.Equal(t, SignalBullish, MACDCrossover([]MACDReading{{MACD: 2, Signal: 1}, {MACD: 2, Signal: 1}}))
	require.Equal(t, SignalBearish, MACDCrossover([]MACDReading{{MACD: 1, Signal: 1}, {MACD: 1, Signal: 2}}))
}

func TestHistogramTrend(t *testing.T) {
	require.Equal(t, TrendWeakening, HistogramTrend([]float64{0.1, 0.2, 0.3}))
	require.Equal(t, SignalNeutral, HistogramTrend([]float64{0.1, 0.3, 0.2}))
	require.Equal(t, SignalNeutral, HistogramTrend([]float64{0.3, 0.2}))
}

func bandPoint(upper, middle, lower float64) map[string]float64 {
	return map[string]float64{core.FieldUpperBand: upper, core.FieldMiddleBand: middle, core.FieldLowerBand: lower}
}

func TestBollingerSqueeze(t *testing.T) {
	// Widths oldest to newest: 20, 20, 20, 12, 4 percent.
	s := series(core.IndicatorBBands,
		bandPoint(110, 100, 90),
		bandPoint(110, 100, 90),
		bandPoint(110, 100, 90),
		bandPoint(106, 100, 94),
		bandPoint(102, 100, 98),
	)
	analysis, err := Bollinger(s, DefaultPolicy())
	require.NoError(t, err)
	require.Equal(t, BandsSqueeze, analysis.Squeeze)
	require.Equal(t, WidthContracting, analysis.WidthTrend)
	require.Equal(t, 102.0, analysis.LatestUpper)
}

func TestBollingerNeedsFivePointsForSqueeze(t *testing.T) {
	s := series(core.IndicatorBBands,
		bandPoint(101, 100, 99),
		bandPoint(105, 100, 95),
		bandPoint(130, 100, 70),
	)
	analysis, err := Bollinger(s, DefaultPolicy())
	require.NoError(t, err)
	require.Equal(t, BandsNormal, analysis.Squeeze)
	require.Equal(t, WidthExpanding, analysis.WidthTrend)
}

func TestSqueezeCondition(t *testing.T) {
	require.Equal(t, BandsExpansion, SqueezeCondition([]float64{40, 10, 10, 10, 10}))
	require.Equal(t, BandsNormal, SqueezeCondition([]float64{10, 10, 10, 10, 10}))
	require.Equal(t, WidthStable, WidthTrend([]float64{10, 10, 10}))
}

func TestBollingerSkipsZeroMiddleBand(t *testing.T) {
	s := series(core.IndicatorBBands, bandPoint(1, 0, -1))
	_, err := Bollinger(s, DefaultPolicy())
	require.ErrorIs(t, err, ErrNoIndicatorData)
}
