package output

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/marketmux/marketmux/internal/core"
	"github.com/marketmux/marketmux/internal/core/curate"
	"github.com/marketmux/marketmux/internal/core/engine"
	"github.com/marketmux/marketmux/internal/market"
)

// report is a format-neutral table with trailing note sections.
type report struct {
	Title    string
	Header   []string
	Rows     [][]string
	Footer   string
	Sections []section
}

type section struct {
	Title string
	Lines []string
}

func renderSections(sections []section, markdown bool) string {
	if len(sections) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, s := range sections {
		if len(s.Lines) == 0 {
			continue
		}
		if markdown {
			sb.WriteString(fmt.Sprintf("\n### %s\n\n", s.Title))
			for _, line := range s.Lines {
				sb.WriteString("- " + line + "\n")
			}
			continue
		}
		sb.WriteString("\n\n" + s.Title + ":")
		for _, line := range s.Lines {
			sb.WriteString("\n  " + line)
		}
	}
	return sb.String()
}

func responseReport(title string, resp *market.Response) report {
	r := dataReport(resp.Data)
	if title != "" {
		r.Title = title
	}
	r.Sections = append(r.Sections, provenance(resp))
	return r
}

// provenance describes who served the data and what curation did.
func provenance(resp *market.Response) section {
	s := section{Title: "Source"}
	s.Lines = append(s.Lines, "provider: "+resp.Provider)
	if resp.FallbackUsed {
		s.Lines = append(s.Lines, "fallback used: yes")
	}
	for _, f := range resp.FailedProviders {
		s.Lines = append(s.Lines, fmt.Sprintf("skipped %s (%s): %s", f.Provider, f.Kind, f.Reason))
	}
	if resp.Analysis != "" {
		s.Lines = append(s.Lines, "analysis: "+resp.Analysis)
	}
	if o := resp.Optimization; o != nil {
		s.Lines = append(s.Lines, fmt.Sprintf("curated %d of %d points (%.1f%% reduction)",
			o.CuratedCount, o.OriginalCount, o.ReductionPercent))
	}
	return s
}

func dataReport(data any) report {
	switch v := data.(type) {
	case *core.Quote:
		return quoteReport([]core.Quote{*v}, nil)
	case *core.QuoteBatch:
		return quoteReport(v.Quotes, v.Missing)
	case *core.OptionsChain:
		return rawOptionsReport(v)
	case *curate.OptionsResult:
		return optionsReport(v)
	case *core.Fundamentals:
		return fundamentalsReport(v)
	case *core.HistoricalSeries:
		return historicalReport(v)
	case *curate.RSIAnalysis:
		return rsiReport(v)
	case *curate.MACDAnalysis:
		return macdReport(v)
	case *curate.BollingerAnalysis:
		return bollingerReport(v)
	default:
		return report{Header: []string{"Value"}, Rows: [][]string{{fmt.Sprintf("%v", v)}}}
	}
}

func quoteReport(quotes []core.Quote, missing []string) report {
	r := report{
		Title:  "Quotes",
		Header: []string{"Symbol", "Price", "Change", "Change %", "Volume"},
	}
	for _, q := range quotes {
		r.Rows = append(r.Rows, []string{
			q.Symbol, money(q.Price), signed(q.Change), signed(q.ChangePercent) + "%", count(q.Volume),
		})
	}
	if len(missing) > 0 {
		r.Footer = "missing: " + strings.Join(missing, ", ")
	}
	return r
}

func rawOptionsReport(chain *core.OptionsChain) report {
	r := report{
		Title:  fmt.Sprintf("%s options @ %s", chain.Symbol, money(chain.UnderlyingPrice)),
		Header: []string{"Expiration", "Side", "Strike", "Bid", "Ask", "Volume", "Open Interest"},
	}
	for _, c := range chain.Contracts {
		r.Rows = append(r.Rows, []string{
			c.Expiration, string(c.Side), money(c.Strike), optional(c.Bid), optional(c.Ask),
			count(c.Volume), count(c.OpenInterest),
		})
	}
	r.Footer = fmt.Sprintf("%d contracts", len(chain.Contracts))
	return r
}

func optionsReport(result *curate.OptionsResult) report {
	r := report{
		Title:  fmt.Sprintf("%s options @ %s (ATM %s)", result.Symbol, money(result.UnderlyingPrice), money(result.ATMStrike)),
		Header: []string{"Expiration", "Side", "Strike", "Moneyness", "Volume", "Open Interest"},
	}
	var lines []string
	for _, exp := range result.Expirations {
		for _, c := range append(append([]curate.Contract{}, exp.Calls...), exp.Puts...) {
			r.Rows = append(r.Rows, []string{
				exp.Date, string(c.Side), money(c.Strike), signed(c.Moneyness) + "%",
				count(c.Volume), count(c.OpenInterest),
			})
		}
		lines = append(lines, fmt.Sprintf("%s: ATM %s, volume %s, %d calls, %d puts",
			exp.Date, money(exp.ATMStrike), count(exp.TotalVolume), len(exp.Calls), len(exp.Puts)))
	}
	r.Sections = append(r.Sections, section{Title: "Expirations", Lines: lines})
	return r
}

func fundamentalsReport(f *core.Fundamentals) report {
	r := report{Title: f.Symbol + " fundamentals", Header: []string{"Field", "Value"}}
	add := func(name, value string) {
		if value != "" && value != "0" && value != "0.00" {
			r.Rows = append(r.Rows, []string{name, value})
		}
	}
	add("Company", f.CompanyName)
	add("Sector", f.Sector)
	add("Market Cap", money(f.MarketCap))
	add("P/E", money(f.PERatio))
	add("EPS", money(f.EPS))
	add("Dividend Yield", money(f.DividendYield))
	add("Beta", money(f.Beta))
	add("52w High", money(f.High52Week))
	add("52w Low", money(f.Low52Week))
	add("Avg Volume", count(f.AverageVolume))
	add("Shares Outstanding", count(f.SharesOutstanding))
	return r
}

func historicalReport(h *core.HistoricalSeries) report {
	r := report{
		Title:  fmt.Sprintf("%s history (%s)", h.Symbol, h.Period),
		Header: []string{"Date", "Open", "High", "Low", "Close", "Volume"},
	}
	for _, b := range h.Bars {
		r.Rows = append(r.Rows, []string{b.Date, money(b.Open), money(b.High), money(b.Low), money(b.Close), count(b.Volume)})
	}
	r.Footer = fmt.Sprintf("%d bars", len(h.Bars))
	return r
}

func rsiReport(a *curate.RSIAnalysis) report {
	r := report{
		Title:  fmt.Sprintf("%s RSI(%d)", a.Symbol, a.Period),
		Header: []string{"Date", "RSI"},
		Footer: fmt.Sprintf("%s, %s", a.Signal, a.Trend),
	}
	for _, p := range a.Recent {
		r.Rows = append(r.Rows, []string{p.Date, money(p.Value)})
	}
	return r
}

func macdReport(a *curate.MACDAnalysis) report {
	r := report{
		Title:  a.Symbol + " MACD",
		Header: []string{"Date", "MACD", "Signal", "Histogram"},
		Footer: fmt.Sprintf("%s, histogram %s", a.Crossover, a.HistogramTrend),
	}
	for _, p := range a.Recent {
		r.Rows = append(r.Rows, []string{p.Date, decimal4(p.MACD), decimal4(p.Signal), decimal4(p.Histogram)})
	}
	return r
}

func bollingerReport(a *curate.BollingerAnalysis) report {
	r := report{
		Title:  fmt.Sprintf("%s Bollinger Bands(%d)", a.Symbol, a.Period),
		Header: []string{"Date", "Upper", "Middle", "Lower", "Width %"},
		Footer: fmt.Sprintf("%s, width %s", a.Squeeze, a.WidthTrend),
	}
	for _, p := range a.Recent {
		r.Rows = append(r.Rows, []string{p.Date, money(p.Upper), money(p.Middle), money(p.Lower), money(p.Width())})
	}
	return r
}

func indicatorReports(set *market.IndicatorSet) []report {
	var reports []report
	for _, resp := range []*market.Response{set.RSI, set.MACD, set.Bollinger} {
		if resp != nil {
			reports = append(reports, responseReport("", resp))
		}
	}
	if len(set.Errors) > 0 {
		names := make([]string, 0, len(set.Errors))
		for name := range set.Errors {
			names = append(names, name)
		}
		sort.Strings(names)
		r := report{Title: set.Symbol + " unavailable indicators", Header: []string{"Indicator", "Error"}}
		for _, name := range names {
			r.Rows = append(r.Rows, []string{name, set.Errors[name]})
		}
		reports = append(reports, r)
	}
	return reports
}

func statusReport(statuses []engine.ChainStatus) report {
	r := report{
		Title:  "Provider status",
		Header: []string{"Chain", "Provider", "Healthy", "Latency", "Capabilities", "Error"},
	}
	healthy, total := 0, 0
	for _, chain := range statuses {
		healthy += chain.HealthyProviders
		total += chain.TotalProviders
		if len(chain.Providers) == 0 {
			r.Rows = append(r.Rows, []string{chain.Chain, "-", "-", "", "", "no providers configured"})
			continue
		}
		for _, p := range chain.Providers {
			r.Rows = append(r.Rows, []string{
				chain.Chain, p.Name, yesNo(p.Healthy), p.Latency.Round(time.Microsecond).String(),
				strings.Join(p.Capabilities.Strings(), ", "), p.Error,
			})
		}
	}
	r.Footer = fmt.Sprintf("%d/%d healthy", healthy, total)
	return r
}

func rateLimitReport(limits []core.RateLimitStatus) report {
	r := report{
		Title:  "Rate limits",
		Header: []string{"Source", "Minute", "Day", "Burst", "Can Request", "Wait"},
	}
	for _, l := range limits {
		wait := ""
		if l.EstimatedWait > 0 {
			wait = l.EstimatedWait.Round(time.Second).String()
		}
		r.Rows = append(r.Rows, []string{
			l.Source, usage(l.MinuteRequests, l.MinuteLimit), usage(l.DailyRequests, l.DailyLimit),
			strconv.Itoa(l.Burst), yesNo(l.CanRequest), wait,
		})
	}
	return r
}

func usage(used, limit int) string {
	if limit <= 0 {
		return strconv.Itoa(used) + "/unlimited"
	}
	return fmt.Sprintf("%d/%d", used, limit)
}

func money(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }

func decimal4(v float64) string { return strconv.FormatFloat(v, 'f', 4, 64) }

func signed(v float64) string {
	if v > 0 {
		return "+" + money(v)
	}
	return money(v)
}

func count(v int64) string { return strconv.FormatInt(v, 10) }

func optional(v *float64) string {
	if v == nil {
		return "-"
	}
	return money(*v)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
