package curate

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/marketmux/marketmux/internal/core"
)

func ptr(v float64) *float64 { return &v }

func contract(exp string, side core.OptionSide, strike float64, volume, oi int64) core.OptionContract {
	return core.OptionContract{Expiration: exp, Side: side, Strike: strike, Volume: volume, OpenInterest: oi}
}

func strikes(contracts []Contract) []float64 {
	out := make([]float64, len(contracts))
	for i, c := range contracts {
		out[i] = c.Strike
	}
	return out
}

func TestOptionsBandAndLiquidity(t *testing.T) {
	illiquid := contract("2025-01-17", core.OptionCall, 130, 0, 10)
	illiquid.Bid = ptr(1.2)

	chain := &core.OptionsChain{
		Symbol:          "XYZ",
		UnderlyingPrice: 120,
		Contracts: []core.OptionContract{
			contract("2025-01-17", core.OptionCall, 100, 500, 1000),
			contract("2025-01-17", core.OptionCall, 110, 40, 0),
			contract("2025-01-17", core.OptionCall, 120, 0, 11),
			illiquid,
			contract("2025-01-17", core.OptionCall, 140, 500, 1000),
		},
	}

	policy := DefaultPolicy()
	policy.MinExpirationVolume = 0
	result, err := Options(chain, policy)
	require.NoError(t, err)
	require.Len(t, result.Expirations, 1)

	exp := result.Expirations[0]
	require.Equal(t, []float64{110, 120}, strikes(exp.Calls))
	require.Empty(t, exp.Puts)
	require.Equal(t, 120.0, exp.ATMStrike)
	require.Equal(t, 120.0, result.ATMStrike)
	require.Equal(t, 8.33, exp.Calls[0].Moneyness)

	require.Equal(t, 5, result.Summary.OriginalCount)
	require.Equal(t, 2, result.Summary.CuratedCount)
	require.Equal(t, 60.0, result.Summary.ReductionPercent)
}

func TestOptionsTwoSidedQuoteCountsAsLiquid(t *testing.T) {
	quoted := contract("2025-01-17", core.OptionPut, 118, 0, 0)
	quoted.Bid, quoted.Ask = ptr(2.1), ptr(2.3)
	zeroBid := contract("2025-01-17", core.OptionPut, 122, 0, 0)
	zeroBid.Bid, zeroBid.Ask = ptr(0), ptr(2.3)

	chain := &core.OptionsChain{UnderlyingPrice: 120, Contracts: []core.OptionContract{quoted, zeroBid}}
	policy := DefaultPolicy()
	policy.MinExpirationVolume = 0

	result, err := Options(chain, policy)
	require.NoError(t, err)
	require.Equal(t, []float64{118}, strikes(result.Expirations[0].Puts))
}

func TestOptionsPerSideCap(t *testing.T) {
	chain := &core.OptionsChain{UnderlyingPrice: 100}
	for i := 0; i < 60; i++ {
		chain.Contracts = append(chain.Contracts,
			contract("2025-02-21", core.OptionCall, 95+float64(i)/10, int64(i+1), 0),
			contract("2025-02-21", core.OptionPut, 95+float64(i)/10, int64(i+1), 0),
		)
	}

	policy := DefaultPolicy()
	policy.MaxPerSide = 8
	result, err := Options(chain, policy)
	require.NoError(t, err)

	exp := result.Expirations[0]
	require.Len(t, exp.Calls, 8)
	require.Len(t, exp.Puts, 8)
	require.Equal(t, int64(60), exp.Calls[0].Volume)
	require.Equal(t, int64(53), exp.Calls[7].Volume)
	require.Equal(t, 16, result.Summary.CuratedCount)
}

func TestOptionsExpirationFloorAndOrdering(t *testing.T) {
	chain := &core.OptionsChain{UnderlyingPrice: 50}
	chain.Contracts = append(chain.Contracts,
		contract("2025-01-17", core.OptionCall, 50, 30, 0),
		contract("2025-02-21", core.OptionCall, 50, 400, 0),
		contract("2025-03-21", core.OptionPut, 50, 90, 0),
		contract("2025-04-17", core.OptionPut, 50, 90, 0),
	)

	policy := DefaultPolicy()
	policy.MaxExpirations = 2
	result, err := Options(chain, policy)
	require.NoError(t, err)

	dates := make([]string, len(result.Expirations))
	for i, e := range result.Expirations {
		dates[i] = e.Date
	}
	require.Equal(t, []string{"2025-02-21", "2025-03-21"}, dates)
}

func TestOptionsDoesNotMutateInput(t *testing.T) {
	chain := &core.OptionsChain{UnderlyingPrice: 10}
	for i := 0; i < 30; i++ {
		chain.Contracts = append(chain.Contracts, contract(fmt.Sprintf("2025-0%d-01", i%3+1), core.OptionCall, float64(5+i%10), int64(30-i), 0))
	}
	before := append([]core.OptionContract(nil), chain.Contracts...)

	_, err := Options(chain, DefaultPolicy())
	require.NoError(t, err)
	require.Equal(t, before, chain.Contracts)
}

func TestOptionsErrors(t *testing.T) {
	_, err := Options(&core.OptionsChain{}, DefaultPolicy())
	require.ErrorIs(t, err, ErrNoUnderlyingPrice)

	_, err = Options(nil, DefaultPolicy())
	require.Error(t, err)

	bad := DefaultPolicy()
	bad.MaxPerSide = 0
	_, err = Options(&core.OptionsChain{UnderlyingPrice: 1}, bad)
	require.ErrorContains(t, err, "MaxPerSide")
}

func TestOptionsEmptyChain(t *testing.T) {
	result, err := Options(&core.OptionsChain{Symbol: "EMPTY", UnderlyingPrice: 10}, DefaultPolicy())
	require.NoError(t, err)
	require.Empty(t, result.Expirations)
	require.Zero(t, result.Summary.ReductionPercent)
}

func TestATMStrike(t *testing.T) {
	contracts := []core.OptionContract{{Strike: 115}, {Strike: 125}, {Strike: 130}}
	require.Equal(t, 115.0, ATMStrike(contracts, 120))
	require.Equal(t, 125.0, ATMStrike(contracts, 123))
	require.Zero(t, ATMStrike(nil, 120))
}

func TestReductionPercentRounding(t *testing.T) {
	require.Equal(t, 66.7, reductionPercent(3, 1))
	require.Equal(t, 0.0, reductionPercent(0, 0))
	require.Equal(t, 100.0, reductionPercent(7, 0))
}

func TestPolicyValidation(t *testing.T) {
	require.NoError(t, DefaultPolicy().Validate())

	p := DefaultPolicy()
	p.DisplayPoints = 2
	require.ErrorContains(t, p.Validate(), "DisplayPoints")

	p = DefaultPolicy()
	p.MoneynessBand = 0
	require.ErrorContains(t, p.Validate(), "MoneynessBand")
}
