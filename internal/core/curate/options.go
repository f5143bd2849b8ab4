package curate

import (
	"errors"
	"math"
	"slices"
	"strings"

	"github.com/marketmux/marketmux/internal/core"
)

// ErrNoUnderlyingPrice is returned when a chain has no usable price to
// measure moneyness against.
var ErrNoUnderlyingPrice = errors.New("options chain has no underlying price")

// Contract is a curated option contract annotated with its distance from the
// underlying price.
type Contract struct {
	core.OptionContract
	Moneyness float64 `json:"moneyness"`
}

// Expiration groups the curated contracts for one expiration date.
type Expiration struct {
	Date        string     `json:"date"`
	ATMStrike   float64    `json:"atm_strike"`
	TotalVolume int64      `json:"total_volume"`
	Calls       []Contract `json:"calls"`
	Puts        []Contract `json:"puts"`
}

// OptionsResult is a curated options chain.
type OptionsResult struct {
	Symbol          string       `json:"symbol"`
	UnderlyingPrice float64      `json:"underlying_price"`
	ATMStrike       float64      `json:"atm_strike"`
	Expirations     []Expiration `json:"expirations"`
	Summary         Summary      `json:"optimization_summary"`
}

// Options filters a raw chain to liquid contracts near the money. The input
// chain is not modified.
func Options(chain *core.OptionsChain, policy Policy) (*OptionsResult, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	if chain == nil {
		return nil, errors.New("options chain is nil")
	}
	price := chain.UnderlyingPrice
	if price <= 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return nil, ErrNoUnderlyingPrice
	}

	result := &OptionsResult{
		Symbol:          chain.Symbol,
		UnderlyingPrice: price,
		ATMStrike:       ATMStrike(chain.Contracts, price),
		Expirations:     []Expiration{},
	}

	groups := make(map[string][]core.OptionContract)
	order := make([]string, 0)
	for _, c := range chain.Contracts {
		date := strings.TrimSpace(c.Expiration)
		if date == "" {
			continue
		}
		if _, ok := groups[date]; !ok {
			order = append(order, date)
		}
		groups[date] = append(groups[date], c)
	}

	for _, date := range order {
		contracts := groups[date]
		exp := Expiration{Date: date, ATMStrike: ATMStrike(contracts, price)}
		var calls, puts []Contract
		for _, c := range contracts {
			m := Moneyness(c.Strike, price)
			if m > policy.MoneynessBand || !policy.liquid(c) {
				continue
			}
			curated := Contract{OptionContract: c, Moneyness: core.Round(m, 2)}
			exp.TotalVolume += c.Volume
			switch c.Side {
			case core.OptionCall:
				calls = append(calls, curated)
			case core.OptionPut:
				puts = append(puts, curated)
			}
		}
		if exp.TotalVolume < policy.MinExpirationVolume {
			continue
		}
		exp.Calls = topByVolume(calls, policy.MaxPerSide)
		exp.Puts = topByVolume(puts, policy.MaxPerSide)
		result.Expirations = append(result.Expirations, exp)
	}

	slices.SortStableFunc(result.Expirations, func(a, b Expiration) int {
		switch {
		case a.TotalVolume > b.TotalVolume:
			return -1
		case a.TotalVolume < b.TotalVolume:
			return 1
		default:
			return strings.Compare(a.Date, b.Date)
		}
	})
	if len(result.Expirations) > policy.MaxExpirations {
		result.Expirations = result.Expirations[:policy.MaxExpirations]
	}

	curated := 0
	for _, exp := range result.Expirations {
		curated += len(exp.Calls) + len(exp.Puts)
	}
	result.Summary = newSummary(len(chain.Contracts), curated, policy)
	return result, nil
}

// Moneyness is the absolute distance of strike from price, in percent.
func Moneyness(strike, price float64) float64 {
	if price == 0 {
		return math.Inf(1)
	}
	return math.Abs(strike-price) / price * 100
}

// ATMStrike returns the strike nearest price. Ties go to the lower strike.
// It returns 0 when contracts is empty.
func ATMStrike(contracts []core.OptionContract, price float64) float64 {
	best, bestDist := 0.0, math.Inf(1)
	for _, c := range contracts {
		d := math.Abs(c.Strike - price)
		if d < bestDist || (d == bestDist && c.Strike < best) {
			best, bestDist = c.Strike, d
		}
	}
	return best
}

func (p Policy) liquid(c core.OptionContract) bool {
	return c.Volume > p.MinVolume || c.OpenInterest > p.MinOpenInterest || c.HasQuote()
}

func topByVolume(contracts []Contract, limit int) []Contract {
	out := slices.Clone(contracts)
	if out == nil {
		out = []Contract{}
	}
	slices.SortStableFunc(out, func(a, b Contract) int {
		switch {
		case a.Volume > b.Volume:
			return -1
		case a.Volume < b.Volume:
			return 1
		default:
			return 0
		}
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
