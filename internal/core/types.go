package core

import "time"

// OptionSide identifies a call or put contract.
type OptionSide string

const (
	OptionCall OptionSide = "call"
	OptionPut  OptionSide = "put"
)

// Quote is a real-time quote for a single symbol.
type Quote struct {
	Symbol        string    `json:"symbol" yaml:"symbol"`
	Price         float64   `json:"price" yaml:"price"`
	Change        float64   `json:"change" yaml:"change"`
	ChangePercent float64   `json:"change_percent" yaml:"change_percent"`
	Volume        int64     `json:"volume" yaml:"volume"`
	High          float64   `json:"high,omitempty" yaml:"high"`
	Low           float64   `json:"low,omitempty" yaml:"low"`
	Open          float64   `json:"open,omitempty" yaml:"open"`
	PreviousClose float64   `json:"previous_close,omitempty" yaml:"previous_close"`
	Timestamp     time.Time `json:"timestamp" yaml:"timestamp"`
}

// QuoteBatch holds quotes for several symbols. Missing lists symbols the
// provider could not resolve.
type QuoteBatch struct {
	Quotes  []Quote  `json:"quotes"`
	Missing []string `json:"missing,omitempty"`
}

// OptionContract is a single listed option.
type OptionContract struct {
	Symbol            string     `json:"symbol,omitempty" yaml:"symbol"`
	Expiration        string     `json:"expiration" yaml:"expiration"`
	Side              OptionSide `json:"side" yaml:"side"`
	Strike            float64    `json:"strike" yaml:"strike"`
	Volume            int64      `json:"volume" yaml:"volume"`
	OpenInterest      int64      `json:"open_interest" yaml:"open_interest"`
	Bid               *float64   `json:"bid,omitempty" yaml:"bid"`
	Ask               *float64   `json:"ask,omitempty" yaml:"ask"`
	Last              float64    `json:"last,omitempty" yaml:"last"`
	ImpliedVolatility float64    `json:"implied_volatility,omitempty" yaml:"implied_volatility"`
	Delta             float64    `json:"delta,omitempty" yaml:"delta"`
	Gamma             float64    `json:"gamma,omitempty" yaml:"gamma"`
	Theta             float64    `json:"theta,omitempty" yaml:"theta"`
	Vega              float64    `json:"vega,omitempty" yaml:"vega"`
}

// HasQuote reports whether both bid and ask are present and positive.
func (c OptionContract) HasQuote() bool {
	return c.Bid != nil && c.Ask != nil && *c.Bid > 0 && *c.Ask > 0
}

// OptionsChain is the raw contract list for an underlying.
type OptionsChain struct {
	Symbol          string           `json:"symbol" yaml:"symbol"`
	UnderlyingPrice float64          `json:"underlying_price" yaml:"underlying_price"`
	Contracts       []OptionContract `json:"contracts" yaml:"contracts"`
}

// Fundamentals holds company fundamentals.
type Fundamentals struct {
	Symbol            string  `json:"symbol" yaml:"symbol"`
	CompanyName       string  `json:"company_name,omitempty" yaml:"company_name"`
	Sector            string  `json:"sector,omitempty" yaml:"sector"`
	MarketCap         float64 `json:"market_cap,omitempty" yaml:"market_cap"`
	PERatio           float64 `json:"pe_ratio,omitempty" yaml:"pe_ratio"`
	EPS               float64 `json:"eps,omitempty" yaml:"eps"`
	DividendYield     float64 `json:"dividend_yield,omitempty" yaml:"dividend_yield"`
	Beta              float64 `json:"beta,omitempty" yaml:"beta"`
	High52Week        float64 `json:"fifty_two_week_high,omitempty" yaml:"fifty_two_week_high"`
	Low52Week         float64 `json:"fifty_two_week_low,omitempty" yaml:"fifty_two_week_low"`
	AverageVolume     int64   `json:"average_volume,omitempty" yaml:"average_volume"`
	SharesOutstanding int64   `json:"shares_outstanding,omitempty" yaml:"shares_outstanding"`
}

// Bar is one OHLCV period.
type Bar struct {
	Date   string  `json:"date" yaml:"date"`
	Open   float64 `json:"open" yaml:"open"`
	High   float64 `json:"high" yaml:"high"`
	Low    float64 `json:"low" yaml:"low"`
	Close  float64 `json:"close" yaml:"close"`
	Volume int64   `json:"volume" yaml:"volume"`
}

// HistoricalSeries is a price history in chronological order.
type HistoricalSeries struct {
	Symbol string `json:"symbol" yaml:"symbol"`
	Period string `json:"period" yaml:"period"`
	Bars   []Bar  `json:"bars" yaml:"bars"`
}

// Indicator field keys used in IndicatorSeries points.
const (
	FieldRSI         = "RSI"
	FieldMACD        = "MACD"
	FieldMACDSignal  = "MACD_Signal"
	FieldMACDHist    = "MACD_Hist"
	FieldUpperBand   = "Real Upper Band"
	FieldMiddleBand  = "Real Middle Band"
	FieldLowerBand   = "Real Lower Band"
	IndicatorRSI     = "RSI"
	IndicatorMACD    = "MACD"
	IndicatorBBands  = "BBANDS"
	DefaultRSIPeriod = 14
	DefaultBBPeriod  = 20
)

// IndicatorSeries is a date-indexed technical indicator series as returned by
// indicator vendors. Keys of Points are dates; values map field names to
// readings.
type IndicatorSeries struct {
	Symbol    string                        `json:"symbol" yaml:"symbol"`
	Indicator string                        `json:"indicator" yaml:"indicator"`
	Period    int                           `json:"period,omitempty" yaml:"period"`
	Points    map[string]map[string]float64 `json:"points" yaml:"points"`
}
