package statement

import (
	"math"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/seenimoa/fundalens/pkg/models"
	"github.com/seenimoa/fundalens/pkg/utils"
)

// Rows read by the deriver.
var (
	rowSales           = Like("Sales")
	rowExpenses        = Like("Expenses")
	rowOperatingProfit = Like("Operating Profit")
	rowFinancingProfit = Like("Financing Profit")
	rowOtherIncome     = Like("Other Income")
	rowInterest        = Is("Interest")
	rowDepreciation    = Like("Depreciation")
	rowPBT             = Like("Profit before tax")
	rowTaxPct          = Is("Tax %")
	rowNetProfit       = Like("Net Profit")
	rowEPS             = Like("EPS")
	rowDividendPayout  = Like("Dividend Payout")

	bankRevenueChain = []Lookup{Is("Revenue"), Like("Revenue"), Like("Total Income")}
)

// minorityTolerance is the gap in crores between implied and reported
// net profit below which no minority interest is inferred.
const minorityTolerance = 1.0

// DeriveRecords builds one canonical record per period of a profit and
// loss (or quarterly results) section, oldest first. breakdown maps
// expense category to percent of sales and is applied to the latest
// period of an ordinary company. An empty section yields nil.
func DeriveRecords(section *models.TableSection, kind models.PeriodKind, schema models.Schema, breakdown map[string]float64) []models.PeriodRecord {
	if section.IsEmpty() || len(section.Periods) == 0 {
		return nil
	}

	records := make([]models.PeriodRecord, len(section.Periods))
	var prev *models.PeriodRecord
	for i := range section.Periods {
		records[i] = derivePeriod(section, i, kind, schema, prev)
		prev = &records[i]
	}

	latest := &records[len(records)-1]
	if latest.Ordinary != nil && len(breakdown) > 0 {
		latest.Ordinary.ExpenseBreakdown = RescaleExpenses(latest.Ordinary.Sales, latest.Ordinary.Expenses, breakdown)
	}
	return records
}

// DerivePeriod builds the record for a single period index, including
// its change against the period before.
func DerivePeriod(section *models.TableSection, idx int, kind models.PeriodKind, schema models.Schema) models.PeriodRecord {
	if section.IsEmpty() || idx < 0 || idx >= len(section.Periods) {
		return models.PeriodRecord{Kind: kind, Schema: schema}
	}
	var prev *models.PeriodRecord
	if idx > 0 {
		p := derivePeriod(section, idx-1, kind, schema, nil)
		prev = &p
	}
	return derivePeriod(section, idx, kind, schema, prev)
}

func derivePeriod(section *models.TableSection, idx int, kind models.PeriodKind, schema models.Schema, prev *models.PeriodRecord) models.PeriodRecord {
	at := func(l Lookup) float64 { return ValueAt(section, l, idx) }

	rec := models.PeriodRecord{
		Period:         section.Periods[idx],
		Kind:           kind,
		Schema:         schema,
		OtherIncome:    at(rowOtherIncome),
		Depreciation:   at(rowDepreciation),
		Interest:       at(rowInterest),
		PBT:            at(rowPBT),
		TaxPct:         at(rowTaxPct),
		NetProfit:      at(rowNetProfit),
		EPS:            at(rowEPS),
		DividendPayout: at(rowDividendPayout),
	}

	var computedPBT float64
	switch schema {
	case models.SchemaBank:
		b := deriveBank(section, idx, rec.OtherIncome, rec.Interest)
		rec.Bank = &b
		computedPBT = b.OperatingProfit - rec.Depreciation
	default:
		o := deriveOrdinary(at(rowSales), at(rowExpenses), at(rowOperatingProfit))
		rec.Ordinary = &o
		computedPBT = o.OperatingProfit - rec.Depreciation - rec.Interest + rec.OtherIncome
	}

	rec.EBIT = rec.OperatingProfit() - rec.Depreciation
	rec.Reconciliation.ComputedPBT = computedPBT
	if rec.PBT == 0 && computedPBT != 0 {
		rec.PBT = computedPBT
		rec.Reconciliation.PBTDerived = true
	}
	rec.Reconciliation.Gap = rec.PBT - computedPBT

	rec.Tax = TaxAmount(rec.PBT, rec.TaxPct, rec.NetProfit)
	rec.MinorityInterest = MinorityInterest(rec.PBT, rec.Tax, rec.NetProfit)
	if rec.NetProfit == 0 && rec.PBT > 0 {
		rec.NetProfit = rec.PBT - rec.Tax - rec.MinorityInterest
		rec.Reconciliation.NetDerived = true
	}

	if top := rec.TopLine(); top > 0 {
		rec.NPM = rec.NetProfit * 100 / top
	}
	if prev != nil {
		rec.YoYRevenue = change(prev.TopLine(), rec.TopLine())
		rec.YoYProfit = change(prev.NetProfit, rec.NetProfit)
	}
	return rec
}

// deriveOrdinary fills whichever of operating profit and expenses is
// missing from the other and sales, then recomputes OPM.
func deriveOrdinary(sales, expenses, op float64) models.OrdinaryStatement {
	if op == 0 && sales > 0 && expenses > 0 {
		op = sales - expenses
	}
	if expenses == 0 && sales > 0 && op > 0 {
		expenses = sales - op
	}
	var opm float64
	if sales > 0 {
		opm = op * 100 / sales
	}
	return models.OrdinaryStatement{
		Sales:           sales,
		Expenses:        expenses,
		OperatingProfit: op,
		OPM:             opm,
	}
}

// deriveBank rebuilds a lender's income: revenue is interest earned,
// the exact "Interest" row is interest expended.
func deriveBank(section *models.TableSection, idx int, otherIncome, interestPaid float64) models.BankStatement {
	revenue := FirstValueAt(section, idx, bankRevenueChain...)
	expenses := ValueAt(section, rowExpenses, idx)

	b := models.BankStatement{
		Revenue:           revenue,
		InterestPaid:      interestPaid,
		NetInterestIncome: revenue - interestPaid,
		TotalIncome:       revenue + otherIncome,
		Expenses:          expenses,
		FinancingProfit:   ValueAt(section, rowFinancingProfit, idx),
	}
	if b.FinancingProfit == 0 {
		b.FinancingProfit = revenue - interestPaid - expenses
	}
	b.OperatingProfit = b.NetInterestIncome + otherIncome - expenses
	if b.TotalIncome > 0 {
		b.Margin = b.OperatingProfit * 100 / b.TotalIncome
	}
	return b
}

// TaxAmount prefers the reported effective rate over the residual
// between PBT and net profit.
func TaxAmount(pbt, taxPct, netProfit float64) float64 {
	switch {
	case pbt > 0 && taxPct > 0:
		return pbt * taxPct / 100
	case pbt > 0 && netProfit > 0:
		return pbt - netProfit
	}
	return 0
}

// MinorityInterest is the part of post-tax profit that does not reach
// shareholders of the parent. Gaps within a crore are rounding.
func MinorityInterest(pbt, tax, netProfit float64) float64 {
	if pbt <= 0 || netProfit <= 0 {
		return 0
	}
	gap := (pbt - tax) - netProfit
	if math.Abs(gap) > minorityTolerance {
		return gap
	}
	return 0
}

// RescaleExpenses converts a percent-of-sales expense schedule into
// amounts. With two or more categories the amounts are scaled so they
// sum to total expenses exactly while keeping their proportions; any
// rounding remainder goes to the largest category. Result is sorted by
// amount, largest first.
func RescaleExpenses(sales, expenses float64, pcts map[string]float64) []models.ExpenseCategory {
	if len(pcts) == 0 {
		return nil
	}

	type cat struct {
		name   string
		pct    float64
		amount decimal.Decimal
	}
	dSales := decimal.NewFromFloat(sales)
	hundred := decimal.NewFromInt(100)

	cats := make([]cat, 0, len(pcts))
	sum := decimal.Zero
	for name, pct := range pcts {
		amt := dSales.Mul(decimal.NewFromFloat(pct)).Div(hundred)
		cats = append(cats, cat{name: name, pct: pct, amount: amt})
		sum = sum.Add(amt)
	}
	sort.Slice(cats, func(i, j int) bool {
		if !cats[i].amount.Equal(cats[j].amount) {
			return cats[i].amount.GreaterThan(cats[j].amount)
		}
		return cats[i].name < cats[j].name
	})

	dExpenses := decimal.NewFromFloat(expenses)
	if len(cats) >= 2 && sum.IsPositive() && dExpenses.IsPositive() {
		scaled := decimal.Zero
		for i := range cats {
			cats[i].amount = cats[i].amount.Mul(dExpenses).Div(sum)
			scaled = scaled.Add(cats[i].amount)
		}
		cats[0].amount = cats[0].amount.Add(dExpenses.Sub(scaled))
	}

	out := make([]models.ExpenseCategory, len(cats))
	for i, c := range cats {
		amt, _ := c.amount.Float64()
		out[i] = models.ExpenseCategory{Name: c.name, PctOfSales: c.pct, Amount: amt}
	}
	return out
}

// ParseBreakdown converts the scraped schedule ("Employee Cost" ->
// "18.5 %") into percentages, dropping non-positive entries.
func ParseBreakdown(raw map[string]string) map[string]float64 {
	if len(raw) == 0 {
		return nil
	}
	out := make(map[string]float64, len(raw))
	for name, v := range raw {
		name = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(name), "+"))
		if pct := utils.ParseNumber(v); pct > 0 && name != "" {
			out[name] = pct
		}
	}
	return out
}

// change is the percent change from prev to cur, 0 when prev is not
// positive.
func change(prev, cur float64) float64 {
	if prev <= 0 {
		return 0
	}
	return (cur/prev - 1) * 100
}
