// Package analyzer runs the normalisation and scoring pipeline for one
// company, or for many in parallel.
package analyzer

import (
	"strings"

	"github.com/seenimoa/fundalens/internal/analysis/scoring"
	"github.com/seenimoa/fundalens/internal/analysis/trend"
	"github.com/seenimoa/fundalens/internal/statement"
	"github.com/seenimoa/fundalens/pkg/models"
	"github.com/seenimoa/fundalens/pkg/utils"
)

// Headline ratio names as screener.in prints them.
const (
	ratioMarketCap     = "Market Cap"
	ratioCurrentPrice  = "Current Price"
	ratioHighLow       = "High / Low"
	ratioPE            = "Stock P/E"
	ratioBookValue     = "Book Value"
	ratioDividendYield = "Dividend Yield"
	ratioROCE          = "ROCE"
	ratioROE           = "ROE"
	ratioFaceValue     = "Face Value"
)

// Analyze turns raw statements into the full analysis. It never fails:
// absent statements leave their analyses nil and their rules unscored.
func Analyze(data *models.CompanyData) *models.AnalysisResult {
	market := ParseMarket(data.TopRatios)
	growth := ParseGrowth(data.CompoundedGrowth)

	res := &models.AnalysisResult{
		Ticker:       data.Ticker,
		Name:         data.Name,
		Consolidated: data.Consolidated,
		Schema:       statement.Classify(data.ProfitLoss, trend.AnnualPeriods).Schema,
		Growth:       growth,
		ProfitLoss:   trend.ProfitLoss(data.ProfitLoss),
		Quarterly:    trend.Quarterly(data.Quarterly),
		BalanceSheet: trend.BalanceSheet(data.BalanceSheet),
		CashFlow:     trend.CashFlow(data.CashFlow),
		Shareholding: trend.Shareholding(data.Shareholding),
		Pros:         data.Pros,
		Cons:         data.Cons,
	}
	if market != nil {
		res.Market = *market
	}

	res.AnnualRecords = statement.DeriveRecords(data.ProfitLoss, models.PeriodAnnual, res.Schema,
		statement.ParseBreakdown(data.ExpenseBreakdown))
	res.QuarterlyRecords = statement.DeriveRecords(data.Quarterly, models.PeriodQuarterly,
		statement.Classify(data.Quarterly, trend.QuarterPeriods).Schema, nil)

	for _, st := range statement.Statements {
		res.Completeness = append(res.Completeness, statement.Completeness(st, data.Section(st)))
	}

	in := scoring.Collect(scoring.Sources{
		Market:       market,
		Growth:       growth,
		ProfitLoss:   res.ProfitLoss,
		Quarterly:    res.Quarterly,
		BalanceSheet: res.BalanceSheet,
		CashFlow:     res.CashFlow,
		Shareholding: res.Shareholding,
	})
	res.Valuation = scoring.Valuation(in)
	res.Quality = scoring.Quality(in)
	res.Technical = scoring.Technical(in)
	res.Flags = scoring.Flags(in)
	return res
}

// ParseMarket reads the headline ratios. It returns nil when the page
// had none. Ratios that are absent or unparseable are listed in Missing.
// P/B is derived from price and book value.
func ParseMarket(ratios map[string]string) *models.MarketSnapshot {
	if len(ratios) == 0 {
		return nil
	}
	m := &models.MarketSnapshot{}
	num := func(name, key string) float64 {
		v, ok := utils.LookupNumber(ratios[name])
		if !ok {
			m.Missing = append(m.Missing, key)
		}
		return v
	}

	m.MarketCap = num(ratioMarketCap, models.RatioMarketCap)
	m.CurrentPrice = num(ratioCurrentPrice, models.RatioCurrentPrice)
	m.PE = num(ratioPE, models.RatioPE)
	m.BookValue = num(ratioBookValue, models.RatioBookValue)
	m.DividendYield = num(ratioDividendYield, models.RatioDividendYield)
	m.ROCE = num(ratioROCE, models.RatioROCE)
	m.ROE = num(ratioROE, models.RatioROE)
	m.FaceValue = num(ratioFaceValue, models.RatioFaceValue)

	var ok bool
	m.High52W, m.Low52W, ok = parseHighLow(ratios[ratioHighLow])
	if !ok {
		m.Missing = append(m.Missing, models.RatioHighLow)
	}
	if m.BookValue > 0 && m.Has(models.RatioCurrentPrice) {
		m.PB = m.CurrentPrice / m.BookValue
	} else {
		m.Missing = append(m.Missing, models.RatioPB)
	}
	return m
}

// parseHighLow splits "₹ 1,300 / 900" into its two figures.
func parseHighLow(raw string) (high, low float64, ok bool) {
	parts := strings.SplitN(strings.ReplaceAll(raw, "₹", ""), "/", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	high, okHigh := utils.LookupNumber(parts[0])
	low, okLow := utils.LookupNumber(parts[1])
	if !okHigh || !okLow {
		return 0, 0, false
	}
	return high, low, true
}

// ParseGrowth converts the compounded-growth tables to numbers.
func ParseGrowth(raw map[string]map[string]string) map[string]map[string]float64 {
	if len(raw) == 0 {
		return nil
	}
	out := make(map[string]map[string]float64, len(raw))
	for category, periods := range raw {
		values := make(map[string]float64, len(periods))
		for period, v := range periods {
			values[period] = utils.ParseNumber(v)
		}
		out[category] = values
	}
	return out
}
