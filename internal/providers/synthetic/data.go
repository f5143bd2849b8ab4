package synthetic

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/marketmux/marketmux/internal/core"
	"github.com/marketmux/marketmux/internal/core/provider"
)

const dateLayout = "2006-01-02"

func (p *Provider) Quote(ctx context.Context, symbol string) (*core.Quote, error) {
	if err := p.begin(ctx, provider.OpQuote); err != nil {
		return nil, err
	}
	symbol, err := normalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	q := p.quote(symbol)
	return &q, nil
}

func (p *Provider) quote(symbol string) core.Quote {
	price := p.basePrice(symbol)
	s := seed(symbol)
	changePct := core.Round((s-0.5)*4, 2)
	prev := core.Round(price/(1+changePct/100), 2)
	return core.Quote{
		Symbol:        symbol,
		Price:         price,
		Change:        core.Round(price-prev, 2),
		ChangePercent: changePct,
		Volume:        int64(5_000_000 + s*50_000_000),
		High:          core.Round(price*1.008, 2),
		Low:           core.Round(price*0.99, 2),
		Open:          core.Round(prev*1.002, 2),
		PreviousClose: prev,
		Timestamp:     p.now(),
	}
}

func (p *Provider) Quotes(ctx context.Context, symbols []string) (*core.QuoteBatch, error) {
	if err := p.begin(ctx, provider.OpBatchQuote); err != nil {
		return nil, err
	}
	if len(symbols) == 0 {
		return nil, fmt.Errorf("at least one symbol is required")
	}
	batch := &core.QuoteBatch{Quotes: make([]core.Quote, 0, len(symbols))}
	for _, raw := range symbols {
		symbol, err := normalizeSymbol(raw)
		if err != nil {
			batch.Missing = append(batch.Missing, raw)
			continue
		}
		batch.Quotes = append(batch.Quotes, p.quote(symbol))
	}
	return batch, nil
}

func (p *Provider) OptionsChain(ctx context.Context, symbol, expiration string) (*core.OptionsChain, error) {
	if err := p.begin(ctx, provider.OpOptionsChain); err != nil {
		return nil, err
	}
	symbol, err := normalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}

	price := p.basePrice(symbol)
	step := strikeStep(price)
	lo := math.Floor(price*0.7/step) * step
	hi := math.Ceil(price*1.3/step) * step
	expiration = strings.TrimSpace(expiration)

	chain := &core.OptionsChain{Symbol: symbol, UnderlyingPrice: price}
	found := expiration == ""
	for i, date := range p.expirations() {
		if expiration != "" && date != expiration {
			continue
		}
		found = true
		decay := 1 / float64(i+1)
		for raw := lo; raw <= hi+step/2; raw += step {
			strike := core.Round(raw, 2)
			for _, side := range []core.OptionSide{core.OptionCall, core.OptionPut} {
				chain.Contracts = append(chain.Contracts, contractFor(symbol, date, side, strike, price, decay))
			}
		}
	}
	if !found {
		return nil, fmt.Errorf("no %s options expire on %s", symbol, expiration)
	}
	return chain, nil
}

func contractFor(symbol, date string, side core.OptionSide, strike, price, decay float64) core.OptionContract {
	distance := (strike - price) / price
	activity := math.Exp(-distance * distance * 60)
	volume := int64(2000 * activity * decay)
	intrinsic := math.Max(price-strike, 0)
	delta := 0.5 - distance*2.5
	if side == core.OptionPut {
		intrinsic = math.Max(strike-price, 0)
		delta -= 1
	}
	delta = math.Max(-1, math.Min(1, delta))

	c := core.OptionContract{
		Symbol:            fmt.Sprintf("%s-%s-%s-%.2f", symbol, date, strings.ToUpper(string(side[:1])), strike),
		Expiration:        date,
		Side:              side,
		Strike:            strike,
		Volume:            volume,
		OpenInterest:      int64(float64(volume) * 3.5),
		ImpliedVolatility: core.Round(0.25+math.Abs(distance)*0.4, 4),
		Delta:             core.Round(delta, 4),
		Gamma:             core.Round(activity*0.05, 4),
		Theta:             core.Round(-activity*0.08*decay, 4),
		Vega:              core.Round(activity*0.12, 4),
	}
	if volume > 0 {
		mid := intrinsic + price*0.02*activity*decay + 0.05
		bid, ask := core.Round(mid*0.97, 2), core.Round(mid*1.03, 2)
		c.Bid, c.Ask, c.Last = &bid, &ask, core.Round(mid, 2)
	}
	return c
}

// expirations returns the next weekly Friday expirations.
func (p *Provider) expirations() []string {
	now := p.now()
	offset := (int(time.Friday) - int(now.Weekday()) + 7) % 7
	if offset == 0 {
		offset = 7
	}
	first := now.AddDate(0, 0, offset)
	out := make([]string, p.opts.Expirations)
	for i := range out {
		out[i] = first.AddDate(0, 0, 7*i).Format(dateLayout)
	}
	return out
}

func strikeStep(price float64) float64 {
	switch {
	case price < 25:
		return 1
	case price < 200:
		return 2.5
	default:
		return 5
	}
}

func (p *Provider) Fundamentals(ctx context.Context, symbol string) (*core.Fundamentals, error) {
	if err := p.begin(ctx, provider.OpFundamentals); err != nil {
		return nil, err
	}
	symbol, err := normalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	price := p.basePrice(symbol)
	s := seed(symbol)
	shares := int64(500_000_000 + s*15_000_000_000)
	eps := core.Round(price/(12+s*30), 2)
	return &core.Fundamentals{
		Symbol:            symbol,
		CompanyName:       symbol + " Holdings Inc.",
		Sector:            sectors[int(s*float64(len(sectors)))%len(sectors)],
		MarketCap:         core.Round(price*float64(shares), 0),
		PERatio:           core.Round(price/eps, 2),
		EPS:               eps,
		DividendYield:     core.Round(s*3, 2),
		Beta:              core.Round(0.6+s, 2),
		High52Week:        core.Round(price*1.22, 2),
		Low52Week:         core.Round(price*0.78, 2),
		AverageVolume:     int64(4_000_000 + s*40_000_000),
		SharesOutstanding: shares,
	}, nil
}

var sectors = []string{"Technology", "Healthcare", "Financials", "Energy", "Industrials", "Consumer Discretionary"}

// PeriodDays maps a period label to trading days.
func PeriodDays(period string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(period)) {
	case "5d":
		return 5, nil
	case "", "1mo":
		return 21, nil
	case "3mo":
		return 63, nil
	case "6mo":
		return 126, nil
	case "1y":
		return 252, nil
	case "2y":
		return 504, nil
	case "5y":
		return 1260, nil
	default:
		return 0, fmt.Errorf("unsupported period %q", period)
	}
}

func (p *Provider) Historical(ctx context.Context, symbol, period string) (*core.HistoricalSeries, error) {
	if err := p.begin(ctx, provider.OpHistorical); err != nil {
		return nil, err
	}
	symbol, err := normalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	days, err := PeriodDays(period)
	if err != nil {
		return nil, err
	}
	if period == "" {
		period = "1mo"
	}

	price := p.basePrice(symbol)
	phase := seed(symbol) * math.Pi * 2
	dates := p.tradingDays(days)
	series := &core.HistoricalSeries{Symbol: symbol, Period: period, Bars: make([]core.Bar, len(dates))}
	for i, date := range dates {
		back := float64(len(dates) - 1 - i)
		closeP := price * (1 + 0.08*math.Sin(phase+back/9) - 0.002*back/10)
		openP := closeP * (1 - 0.004*math.Cos(phase+back))
		series.Bars[i] = core.Bar{
			Date:   date,
			Open:   core.Round(openP, 2),
			High:   core.Round(math.Max(openP, closeP)*1.01, 2),
			Low:    core.Round(math.Min(openP, closeP)*0.99, 2),
			Close:  core.Round(closeP, 2),
			Volume: int64(3_000_000 + 2_000_000*math.Abs(math.Sin(phase+back))),
		}
	}
	return series, nil
}

// tradingDays returns n weekday dates ending today, oldest first.
func (p *Provider) tradingDays(n int) []string {
	out := make([]string, 0, n)
	day := p.now()
	for len(out) < n {
		if wd := day.Weekday(); wd != time.Saturday && wd != time.Sunday {
			out = append(out, day.Format(dateLayout))
		}
		day = day.AddDate(0, 0, -1)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

func (p *Provider) indicatorSeries(symbol, indicator string, period int, point func(back float64, phase float64) map[string]float64) *core.IndicatorSeries {
	phase := seed(symbol) * math.Pi * 2
	dates := p.tradingDays(p.opts.Points)
	series := &core.IndicatorSeries{
		Symbol:    symbol,
		Indicator: indicator,
		Period:    period,
		Points:    make(map[string]map[string]float64, len(dates)),
	}
	for i, date := range dates {
		series.Points[date] = point(float64(len(dates)-1-i), phase)
	}
	return series
}

func (p *Provider) RSI(ctx context.Context, symbol string, period int) (*core.IndicatorSeries, error) {
	if err := p.begin(ctx, provider.OpRSI); err != nil {
		return nil, err
	}
	symbol, err := normalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	return p.indicatorSeries(symbol, core.IndicatorRSI, period, func(back, phase float64) map[string]float64 {
		return map[string]float64{core.FieldRSI: core.Round(50+28*math.Sin(phase+back/4), 4)}
	}), nil
}

func (p *Provider) MACD(ctx context.Context, symbol string) (*core.IndicatorSeries, error) {
	if err := p.begin(ctx, provider.OpMACD); err != nil {
		return nil, err
	}
	symbol, err := normalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	scale := p.basePrice(symbol) / 100
	return p.indicatorSeries(symbol, core.IndicatorMACD, 0, func(back, phase float64) map[string]float64 {
		line := scale * math.Sin(phase+back/6)
		signal := scale * math.Sin(phase+(back+2)/6)
		return map[string]float64{
			core.FieldMACD:       core.Round(line, 4),
			core.FieldMACDSignal: core.Round(signal, 4),
			core.FieldMACDHist:   core.Round(line-signal, 4),
		}
	}), nil
}

func (p *Provider) Bollinger(ctx context.Context, symbol string, period int) (*core.IndicatorSeries, error) {
	if err := p.begin(ctx, provider.OpBollinger); err != nil {
		return nil, err
	}
	symbol, err := normalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	price := p.basePrice(symbol)
	return p.indicatorSeries(symbol, core.IndicatorBBands, period, func(back, phase float64) map[string]float64 {
		middle := price * (1 + 0.05*math.Sin(phase+back/9))
		half := middle * (0.03 + 0.02*math.Sin(phase+back/5))
		return map[string]float64{
			core.FieldUpperBand:  core.Round(middle+half, 4),
			core.FieldMiddleBand: core.Round(middle, 4),
			core.FieldLowerBand:  core.Round(middle-half, 4),
		}
	}), nil
}
