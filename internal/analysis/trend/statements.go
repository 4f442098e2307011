package trend

import (
	"github.com/seenimoa/fundalens/internal/statement"
	"github.com/seenimoa/fundalens/pkg/models"
)

// Number of trailing periods each analysis looks at.
const (
	AnnualPeriods   = 12
	QuarterPeriods  = 8
	BalancePeriods  = 5
	CashFlowPeriods = 5
	HoldingHistory  = 8
)

var (
	rowNetProfit      = statement.Like("Net Profit")
	rowEPS            = statement.Like("EPS")
	rowInterest       = statement.Is("Interest")
	rowDepreciation   = statement.Like("Depreciation")
	rowDividendPayout = statement.Like("Dividend Payout")

	rowEquityCapital = statement.Like("Equity Capital")
	rowReserves      = statement.Like("Reserves")
	rowBorrowings    = statement.Like("Borrowings")
	rowTotalAssets   = statement.Like("Total Assets")
	rowFixedAssets   = statement.Like("Fixed Assets")
	rowCWIP          = statement.Like("CWIP")
	rowInvestments   = statement.Like("Investments")

	rowCFO   = statement.Like("Operating Activity")
	rowCFI   = statement.Like("Investing Activity")
	rowCFF   = statement.Like("Financing Activity")
	rowNetCF = statement.Like("Net Cash Flow")

	rowPromoter     = statement.Like("Promoter")
	rowFII          = statement.Like("FII")
	rowDII          = statement.Like("DII")
	rowPublic       = statement.Like("Public")
	rowShareholders = statement.Like("No. of Shareholders")
)

func noPeriods(s *models.TableSection) bool {
	return s.IsEmpty() || len(s.Periods) == 0
}

// ProfitLoss analyses up to twelve years of annual results. It returns
// nil when the section has no periods.
func ProfitLoss(section *models.TableSection) *models.PLAnalysis {
	if noPeriods(section) {
		return nil
	}
	c := statement.Classify(section, AnnualPeriods)
	sales := c.TopLineValues
	net := statement.ResolveLookup(section, rowNetProfit, AnnualPeriods)
	profitYoY := YoY(net)

	a := &models.PLAnalysis{
		Schema:             c.Schema,
		SalesLatest:        last(sales),
		NetProfitLatest:    last(net),
		EPSLatest:          last(statement.ResolveLookup(section, rowEPS, AnnualPeriods)),
		OPMLatest:          last(c.MarginValues),
		SalesYoY:           YoY(sales),
		ProfitYoY:          profitYoY,
		SalesCAGR3Y:        CAGRFromSeries(sales, 3),
		SalesCAGR5Y:        CAGRFromSeries(sales, 5),
		ProfitCAGR3Y:       CAGRFromSeries(net, 3),
		ProfitCAGR5Y:       CAGRFromSeries(net, 5),
		MarginTrend:        MarginTrend(c.MarginValues),
		Consistency:        Consistency(profitYoY),
		Periods:            tail(section.Periods, AnnualPeriods),
		SalesHistory:       sales,
		ProfitHistory:      net,
		OPMHistory:         c.MarginValues,
		EPSHistory:         statement.ResolveLookup(section, rowEPS, AnnualPeriods),
		DividendPayout:     statement.ResolveLookup(section, rowDividendPayout, AnnualPeriods),
		InterestLatest:     last(statement.ResolveLookup(section, rowInterest, AnnualPeriods)),
		DepreciationLatest: last(statement.ResolveLookup(section, rowDepreciation, AnnualPeriods)),
	}
	if len(net) > 0 && last(sales) > 0 {
		a.NPMLatest = last(net) * 100 / last(sales)
	}
	return a
}

// Quarterly analyses the last eight quarters.
func Quarterly(section *models.TableSection) *models.QuarterlyAnalysis {
	if noPeriods(section) {
		return nil
	}
	c := statement.Classify(section, QuarterPeriods)
	sales := c.TopLineValues
	net := statement.ResolveLookup(section, rowNetProfit, QuarterPeriods)

	return &models.QuarterlyAnalysis{
		SalesLatest:      last(sales),
		ProfitLatest:     last(net),
		OPMLatest:        last(c.MarginValues),
		SalesYoY:         SameQuarterYoY(sales),
		ProfitYoY:        SameQuarterYoY(net),
		SalesQoQ:         YoY(sales),
		ProfitQoQ:        YoY(net),
		Periods:          tail(section.Periods, QuarterPeriods),
		SalesHistory:     sales,
		ProfitHistory:    net,
		ImprovingMargins: ImprovingMargins(c.MarginValues),
	}
}

// BalanceSheet analyses leverage over the last five balance sheets.
// Shareholder equity is equity capital plus reserves.
func BalanceSheet(section *models.TableSection) *models.BalanceSheetAnalysis {
	if noPeriods(section) {
		return nil
	}
	resolve := func(l statement.Lookup) []float64 {
		return statement.ResolveLookup(section, l, BalancePeriods)
	}
	equity := resolve(rowEquityCapital)
	reserves := resolve(rowReserves)
	borrowings := resolve(rowBorrowings)

	a := &models.BalanceSheetAnalysis{
		ShareholderEquity: last(equity) + last(reserves),
		Borrowings:        last(borrowings),
		TotalAssets:       last(resolve(rowTotalAssets)),
		DebtTrend:         DebtTrend(borrowings),
		BorrowingsHistory: borrowings,
		CWIPLatest:        last(resolve(rowCWIP)),
		InvestmentsLatest: last(resolve(rowInvestments)),
		FixedAssetsLatest: last(resolve(rowFixedAssets)),
	}
	// D/E is undefined without positive equity.
	if a.ShareholderEquity > 0 {
		a.DebtToEquity = a.Borrowings / a.ShareholderEquity
		a.HasDebtToEquity = true
	}
	if len(equity) > 0 && len(equity) == len(reserves) {
		a.EquityHistory = make([]float64, len(equity))
		for i := range equity {
			a.EquityHistory[i] = equity[i] + reserves[i]
		}
	}
	return a
}

// CashFlow analyses operating and free cash flow. Free cash flow is
// operating plus investing cash flow, per period.
func CashFlow(section *models.TableSection) *models.CashFlowAnalysis {
	if noPeriods(section) {
		return nil
	}
	resolve := func(l statement.Lookup) []float64 {
		return statement.ResolveLookup(section, l, CashFlowPeriods)
	}
	cfo := resolve(rowCFO)
	cfi := resolve(rowCFI)

	var fcf []float64
	if len(cfo) > 0 && len(cfo) == len(cfi) {
		fcf = make([]float64, len(cfo))
		for i := range cfo {
			fcf[i] = cfo[i] + cfi[i]
		}
	}

	return &models.CashFlowAnalysis{
		CFOLatest:        last(cfo),
		CFILatest:        last(cfi),
		CFFLatest:        last(resolve(rowCFF)),
		FCFLatest:        last(fcf),
		NetLatest:        last(resolve(rowNetCF)),
		CFOHistory:       cfo,
		FCFHistory:       fcf,
		CFOConsistency:   PositiveRatio(cfo),
		FCFPositiveYears: PositiveCount(fcf),
		TotalYears:       len(cfo),
	}
}

// Shareholding analyses ownership across every reported quarter and
// keeps the last eight for display.
func Shareholding(section *models.TableSection) *models.ShareholdingAnalysis {
	if noPeriods(section) {
		return nil
	}
	resolve := func(l statement.Lookup) []float64 {
		return statement.ResolveLookup(section, l, 0)
	}
	promoter := resolve(rowPromoter)
	fii := resolve(rowFII)
	dii := resolve(rowDII)

	return &models.ShareholdingAnalysis{
		PromoterLatest:     last(promoter),
		FIILatest:          last(fii),
		DIILatest:          last(dii),
		PublicLatest:       last(resolve(rowPublic)),
		PromoterTrend:      HoldingTrend(promoter),
		FIITrend:           HoldingTrend(fii),
		DIITrend:           HoldingTrend(dii),
		ShareholdersLatest: last(resolve(rowShareholders)),
		PromoterHistory:    tail(promoter, HoldingHistory),
		FIIHistory:         tail(fii, HoldingHistory),
		DIIHistory:         tail(dii, HoldingHistory),
		Periods:            tail(section.Periods, HoldingHistory),
	}
}
