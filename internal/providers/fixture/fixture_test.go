package fixture

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/marketmux/marketmux/internal/core"
	"github.com/marketmux/marketmux/internal/core/curate"
	"github.com/marketmux/marketmux/internal/core/provider"
)

func loadTestProvider(t *testing.T) *Provider {
	t.Helper()
	snap, err := Load(filepath.Join("testdata", "snapshot.yaml"))
	require.NoError(t, err)
	p, err := New(snap, Options{})
	require.NoError(t, err)
	return p
}

func TestDerivedCapabilities(t *testing.T) {
	p := loadTestProvider(t)
	require.Equal(t, "snapshot", p.Name())
	require.True(t, p.Capabilities().Has(core.CapabilityRealTimeQuotes))
	require.True(t, p.Capabilities().Has(core.CapabilityOptionsChain))
	require.True(t, p.Capabilities().Has(core.CapabilityTechnicalIndicators))
	require.False(t, p.Capabilities().Has(core.CapabilityFundamentals))
}

func TestQuoteLookupIsCaseInsensitive(t *testing.T) {
	p := loadTestProvider(t)

	q, err := p.Quote(context.Background(), "aapl")
	require.NoError(t, err)
	require.Equal(t, "AAPL", q.Symbol)
	require.Equal(t, 175.43, q.Price)
	require.Equal(t, 2025, q.Timestamp.Year())

	_, err = p.Quote(context.Background(), "TSLA")
	require.Error(t, err)
	require.NotErrorIs(t, err, core.ErrUnsupported)
}

func TestQuotesReportsMissing(t *testing.T) {
	p := loadTestProvider(t)
	batch, err := p.Quotes(context.Background(), []string{"AAPL", "TSLA", "MSFT"})
	require.NoError(t, err)
	require.Len(t, batch.Quotes, 2)
	require.Equal(t, []string{"TSLA"}, batch.Missing)
}

func TestMissingSectionIsUnsupported(t *testing.T) {
	p := loadTestProvider(t)

	_, err := p.Fundamentals(context.Background(), "AAPL")
	require.ErrorIs(t, err, core.ErrUnsupported)

	_, err = provider.Invoke(context.Background(), p, provider.OpMACD, provider.Request{Symbol: "AAPL"})
	require.ErrorIs(t, err, core.ErrUnsupported)
}

func TestOptionsChainFiltersExpiration(t *testing.T) {
	p := loadTestProvider(t)

	chain, err := p.OptionsChain(context.Background(), "xyz", "2025-01-24")
	require.NoError(t, err)
	require.Len(t, chain.Contracts, 1)
	require.Len(t, p.snap.Options["XYZ"].Contracts, 6)

	_, err = p.OptionsChain(context.Background(), "XYZ", "2026-01-01")
	require.Error(t, err)
}

func TestSnapshotCuratesLikeLiveData(t *testing.T) {
	p := loadTestProvider(t)

	chain, err := p.OptionsChain(context.Background(), "XYZ", "")
	require.NoError(t, err)
	result, err := curate.Options(chain, curate.DefaultPolicy())
	require.NoError(t, err)
	require.Len(t, result.Expirations, 1)
	require.Equal(t, "2025-01-17", result.Expirations[0].Date)
	require.Len(t, result.Expirations[0].Calls, 2)
	require.Len(t, result.Expirations[0].Puts, 1)

	series, err := p.RSI(context.Background(), "AAPL", 14)
	require.NoError(t, err)
	analysis, err := curate.RSI(series, curate.DefaultPolicy())
	require.NoError(t, err)
	require.Equal(t, curate.SignalOverbought, analysis.Signal)
	require.Equal(t, curate.TrendRising, analysis.Trend)
}

func TestNewFromArgs(t *testing.T) {
	p, err := NewFromArgs(provider.Args{
		"path":         filepath.Join("testdata", "snapshot.yaml"),
		"name":         "replay",
		"capabilities": "real_time_quotes",
	})
	require.NoError(t, err)
	require.Equal(t, "replay", p.Name())
	require.False(t, p.Capabilities().Has(core.CapabilityOptionsChain))

	_, err = NewFromArgs(provider.Args{})
	require.Error(t, err)
	_, err = NewFromArgs(provider.Args{"path": filepath.Join("testdata", "missing.yaml")})
	require.Error(t, err)
}

func TestUnhealthySnapshot(t *testing.T) {
	snap, err := Parse([]byte("name: down\nhealthy: false\nquotes: {AAPL: {price: 1}}\n"))
	require.NoError(t, err)
	p, err := New(snap, Options{})
	require.NoError(t, err)
	require.ErrorIs(t, p.HealthCheck(context.Background()), core.ErrUnhealthy)
}
