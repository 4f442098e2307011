package scoring

import (
	"strings"

	"github.com/seenimoa/fundalens/pkg/models"
)

// Sources are the analyses Collect draws from. Any of them may be nil.
type Sources struct {
	Market       *models.MarketSnapshot
	Growth       map[string]map[string]float64
	ProfitLoss   *models.PLAnalysis
	Quarterly    *models.QuarterlyAnalysis
	BalanceSheet *models.BalanceSheetAnalysis
	CashFlow     *models.CashFlowAnalysis
	Shareholding *models.ShareholdingAnalysis
}

// minFallbackYears is the shortest series a 3-year CAGR is read from
// when the compounded-growth table has no 3-year figure.
const minFallbackYears = 4

// Collect flattens the analyses into table inputs. A nil source leaves
// its metrics out entirely, so the rules reading them are skipped
// instead of scoring a zero.
func Collect(src Sources) Inputs {
	in := NewInputs()
	m := in.Metrics

	if mk := src.Market; mk != nil {
		for _, r := range []struct {
			key    string
			metric Metric
			value  float64
		}{
			{models.RatioPE, MetricPE, mk.PE},
			{models.RatioPB, MetricPB, mk.PB},
			{models.RatioDividendYield, MetricDividendYield, mk.DividendYield},
			{models.RatioROE, MetricROE, mk.ROE},
			{models.RatioROCE, MetricROCE, mk.ROCE},
		} {
			if mk.Has(r.key) {
				m[r.metric] = r.value
			}
		}
		if mk.Has(models.RatioCurrentPrice) && mk.Has(models.RatioHighLow) &&
			mk.CurrentPrice > 0 && mk.High52W > 0 && mk.Low52W > 0 {
			m[MetricPrice] = mk.CurrentPrice
			m[MetricHigh52W] = mk.High52W
			m[MetricLow52W] = mk.Low52W
			m[MetricRangePosition] = rangePosition(mk.CurrentPrice, mk.High52W, mk.Low52W)
		}
	}

	pl := src.ProfitLoss
	if g, ok := growth3Y(src.Growth, "Sales", pl, func(a *models.PLAnalysis) ([]float64, float64) {
		return a.SalesHistory, a.SalesCAGR3Y
	}); ok {
		m[MetricSalesGrowth3Y] = g
	}
	profit3Y, hasProfit3Y := growth3Y(src.Growth, "Profit", pl, func(a *models.PLAnalysis) ([]float64, float64) {
		return a.ProfitHistory, a.ProfitCAGR3Y
	})
	if hasProfit3Y {
		m[MetricProfitGrowth3Y] = profit3Y
	}
	if pe, ok := m[MetricPE]; ok && pe > 0 && hasProfit3Y && profit3Y > 0 {
		m[MetricPEG] = pe / profit3Y
	}

	if pl != nil {
		m[MetricSalesCAGR5Y] = pl.SalesCAGR5Y
		m[MetricProfitCAGR5Y] = pl.ProfitCAGR5Y
		m[MetricConsistency] = pl.Consistency
		m[MetricOPM] = pl.OPMLatest
		in.Labels[LabelMarginTrend] = pl.MarginTrend
	}

	if q := src.Quarterly; q != nil {
		m[MetricQuarterProfitYoY] = q.ProfitYoY
		in.Labels[LabelQuarterlyMargins] = MarginsFlat
		if q.ImprovingMargins {
			in.Labels[LabelQuarterlyMargins] = MarginsImproving
		}
	}

	if bs := src.BalanceSheet; bs != nil {
		if bs.HasDebtToEquity {
			m[MetricDebtToEquity] = bs.DebtToEquity
		}
		in.Labels[LabelDebtTrend] = bs.DebtTrend
	}

	if cf := src.CashFlow; cf != nil && cf.TotalYears > 0 {
		m[MetricCFOConsistency] = cf.CFOConsistency
		m[MetricFCFPositiveRatio] = float64(cf.FCFPositiveYears) / float64(cf.TotalYears)
		if len(cf.FCFHistory) > 0 {
			m[MetricFCFLatest] = cf.FCFLatest
		}
	}

	if sh := src.Shareholding; sh != nil {
		if len(sh.PromoterHistory) > 0 {
			m[MetricPromoter] = sh.PromoterLatest
		}
		in.Labels[LabelPromoterTrend] = sh.PromoterTrend
		in.Labels[LabelFIITrend] = sh.FIITrend
		in.Labels[LabelDIITrend] = sh.DIITrend
	}
	return in
}

// growth3Y reads the 3-year compounded growth for "Sales" or "Profit"
// from the growth table, falling back to the annual series.
func growth3Y(table map[string]map[string]float64, kind string, pl *models.PLAnalysis,
	series func(*models.PLAnalysis) ([]float64, float64)) (float64, bool) {
	for category, periods := range table {
		if !strings.Contains(strings.ToLower(category), strings.ToLower(kind)+" growth") {
			continue
		}
		for period, v := range periods {
			if strings.HasPrefix(strings.TrimSpace(period), "3 Year") {
				return v, true
			}
		}
	}
	if pl == nil {
		return 0, false
	}
	values, cagr := series(pl)
	if len(values) < minFallbackYears {
		return 0, false
	}
	return cagr, true
}

// rangePosition places price in [low, high] as a fraction. A degenerate
// range sits in the middle.
func rangePosition(price, high, low float64) float64 {
	if high <= low {
		return 0.5
	}
	return (price - low) / (high - low)
}
