package report

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/seenimoa/fundalens/internal/statement"
	"github.com/seenimoa/fundalens/pkg/models"
)

// ════════════════════════════════════════════════════════════════════
// Income flow (Sankey) and waterfall
// ════════════════════════════════════════════════════════════════════

var (
	// ErrNoStatement is returned when the requested statement has no periods.
	ErrNoStatement = errors.New("statement has no periods")
	// ErrPeriodNotFound is returned when no period header matches.
	ErrPeriodNotFound = errors.New("period not found")
)

// Node colours.
const (
	colorRevenue      = "#2563EB"
	colorExpenses     = "#DC2626"
	colorOpProfit     = "#16A34A"
	colorDepreciation = "#EA580C"
	colorInterest     = "#B91C1C"
	colorOtherIncome  = "#0891B2"
	colorPBT          = "#16A34A"
	colorTax          = "#DC2626"
	colorNetProfit    = "#15803D"
	colorMinority     = "#9333EA"
	colorNII          = "#0D9488"
	colorOtherCost    = "#6B7280"

	linkOpacity = 0.35

	// minorityFloor is the smallest minority interest, in crores, that
	// gets its own node and waterfall row.
	minorityFloor = 1.0
)

var segmentColors = []string{
	"#2563EB", "#7C3AED", "#059669", "#D97706", "#DC2626",
	"#0891B2", "#4F46E5", "#BE185D", "#15803D", "#92400E",
}

var expenseColors = map[string]string{
	"Material Cost":      "#B91C1C",
	"Employee Cost":      "#9333EA",
	"Manufacturing Cost": "#EA580C",
	"Other Cost":         colorOtherCost,
}

var expenseLabels = map[string]string{
	"Material Cost":      "Materials",
	"Employee Cost":      "Employee",
	"Manufacturing Cost": "Manufacturing",
	"Other Cost":         "Other Costs",
}

// BuildFlow derives one period of the profit and loss (or quarterly
// results) and lays it out as flow nodes, links and waterfall rows.
// period is matched against the column headers by substring; empty
// means the latest period.
func BuildFlow(data *models.CompanyData, period string, quarterly bool) (*models.FlowDiagram, error) {
	section, kind := data.ProfitLoss, models.PeriodAnnual
	if quarterly {
		section, kind = data.Quarterly, models.PeriodQuarterly
	}
	if section.IsEmpty() || len(section.Periods) == 0 {
		return nil, fmt.Errorf("%s %s: %w", data.Ticker, kind, ErrNoStatement)
	}

	idx := len(section.Periods) - 1
	if period != "" {
		if idx = section.PeriodIndex(period); idx < 0 {
			return nil, fmt.Errorf("%s %q: %w", data.Ticker, period, ErrPeriodNotFound)
		}
	}

	schema := statement.Classify(section, 0).Schema
	rec := statement.DerivePeriod(section, idx, kind, schema)
	if rec.Ordinary != nil && !quarterly && idx == len(section.Periods)-1 {
		rec.Ordinary.ExpenseBreakdown = statement.RescaleExpenses(
			rec.Ordinary.Sales, rec.Ordinary.Expenses, statement.ParseBreakdown(data.ExpenseBreakdown))
	}

	fb := newFlowBuilder(rec.TopLine())
	if rec.IsBank() {
		fb.bank(rec)
	} else {
		fb.ordinary(rec, data.Segments)
	}

	return &models.FlowDiagram{
		Ticker:    data.Ticker,
		Name:      data.Name,
		Period:    rec.Period,
		Kind:      kind,
		Schema:    schema,
		Nodes:     fb.nodes,
		Links:     fb.links,
		Waterfall: Waterfall(rec),
		Record:    rec,
	}, nil
}

type flowBuilder struct {
	revenue float64
	nodes   []models.FlowNode
	links   []models.FlowLink
	index   map[string]int
}

func newFlowBuilder(revenue float64) *flowBuilder {
	return &flowBuilder{revenue: revenue, index: make(map[string]int)}
}

func (fb *flowBuilder) node(id, label string, value float64, color string) {
	n := models.FlowNode{ID: id, Label: label, Value: value, Color: color}
	if fb.revenue > 0 {
		n.PctOfRevenue = value * 100 / fb.revenue
	}
	fb.index[id] = len(fb.nodes)
	fb.nodes = append(fb.nodes, n)
}

// link adds a flow when it carries a positive amount between two
// existing nodes.
func (fb *flowBuilder) link(src, dst string, value float64, color string) {
	if value <= 0 {
		return
	}
	if _, ok := fb.index[src]; !ok {
		return
	}
	if _, ok := fb.index[dst]; !ok {
		return
	}
	fb.links = append(fb.links, models.FlowLink{Source: src, Target: dst, Value: value, Color: rgba(color, linkOpacity)})
}

func (fb *flowBuilder) ordinary(rec models.PeriodRecord, segments []string) {
	o := rec.Ordinary

	fb.node("Revenue", "Revenue", o.Sales, colorRevenue)
	if len(segments) >= 2 {
		share := o.Sales / float64(len(segments))
		for i, name := range segments {
			fb.node(segmentID(i), name, share, segmentColors[i%len(segmentColors)])
			fb.link(segmentID(i), "Revenue", share, segmentColors[i%len(segmentColors)])
		}
	}
	fb.node("EBITDA", "Operating Profit", o.OperatingProfit, colorOpProfit)
	fb.node("OpEx", "Operating Expenses", o.Expenses, colorExpenses)

	breakdown := o.ExpenseBreakdown
	if len(breakdown) < 2 {
		breakdown = nil
	}
	for i, c := range breakdown {
		fb.node(expenseID(i), expenseLabel(c.Name), c.Amount, expenseColor(c.Name))
	}
	if rec.Depreciation > 0 {
		fb.node("Dep", "Depreciation", rec.Depreciation, colorDepreciation)
	}
	if rec.Interest > 0 {
		fb.node("Interest", "Interest", rec.Interest, colorInterest)
	}
	if rec.OtherIncome > 0 {
		fb.node("OtherInc", "Other Income", rec.OtherIncome, colorOtherIncome)
	}
	fb.node("PBT", "Profit Before Tax", rec.PBT, colorPBT)
	fb.node("Tax", "Tax", rec.Tax, colorTax)
	fb.node("PAT", "Net Profit", rec.NetProfit, colorNetProfit)
	if rec.MinorityInterest > minorityFloor {
		fb.node("Minority", "Minority Interest", rec.MinorityInterest, colorMinority)
	}

	fb.link("Revenue", "EBITDA", o.OperatingProfit, colorOpProfit)
	fb.link("Revenue", "OpEx", o.Expenses, colorExpenses)
	for i, c := range breakdown {
		fb.link("OpEx", expenseID(i), c.Amount, expenseColor(c.Name))
	}
	fb.link("EBITDA", "Dep", rec.Depreciation, colorDepreciation)
	fb.link("EBITDA", "Interest", rec.Interest, colorInterest)
	fb.link("EBITDA", "PBT", o.OperatingProfit-rec.Depreciation-rec.Interest, colorOpProfit)
	fb.link("OtherInc", "PBT", rec.OtherIncome, colorOtherIncome)
	fb.link("PBT", "Tax", rec.Tax, colorTax)
	fb.link("PBT", "PAT", rec.NetProfit, colorNetProfit)
	fb.link("PBT", "Minority", rec.MinorityInterest, colorMinority)
}

// bank routes interest income through net interest income. Operating
// expenses are paid from NII first and from other income for any
// shortfall; whatever is left of either reaches PBT.
func (fb *flowBuilder) bank(rec models.PeriodRecord) {
	b := rec.Bank

	fb.node("IntIncome", "Interest Income", b.Revenue, colorRevenue)
	fb.node("IntPaid", "Interest Paid", b.InterestPaid, colorInterest)
	fb.node("NII", "Net Interest Income", b.NetInterestIncome, colorNII)
	if rec.OtherIncome > 0 {
		fb.node("OtherInc", "Other Income", rec.OtherIncome, colorOtherIncome)
	}
	fb.node("OpEx", "Operating Expenses", b.Expenses, colorExpenses)
	if rec.Depreciation > 0 {
		fb.node("Dep", "Depreciation", rec.Depreciation, colorDepreciation)
	}
	fb.node("PBT", "Profit Before Tax", rec.PBT, colorPBT)
	fb.node("Tax", "Tax", rec.Tax, colorTax)
	fb.node("PAT", "Net Profit", rec.NetProfit, colorNetProfit)
	if rec.MinorityInterest > minorityFloor {
		fb.node("Minority", "Minority Interest", rec.MinorityInterest, colorMinority)
	}

	nii := b.NetInterestIncome
	fb.link("IntIncome", "IntPaid", b.InterestPaid, colorInterest)
	fb.link("IntIncome", "NII", nii, colorOpProfit)
	fb.link("NII", "OpEx", min(nii, b.Expenses), colorExpenses)
	if rec.OtherIncome > 0 {
		fromOther := max(0, b.Expenses-nii)
		fb.link("OtherInc", "OpEx", fromOther, colorExpenses)
		fb.link("OtherInc", "PBT", rec.OtherIncome-fromOther, colorOtherIncome)
	}
	fb.link("NII", "PBT", max(0, nii-b.Expenses), colorOpProfit)
	fb.link("NII", "Dep", min(rec.Depreciation, max(0, nii-b.Expenses)), colorDepreciation)
	fb.link("PBT", "Tax", rec.Tax, colorTax)
	fb.link("PBT", "PAT", rec.NetProfit, colorNetProfit)
	fb.link("PBT", "Minority", rec.MinorityInterest, colorMinority)
}

// Waterfall bridges revenue to net profit. Deductions are negative and
// subtotals are marked Total. A bank's bridge starts from total income
// and deducts interest expended before operating expenses, so every
// subtotal equals the sum of the rows above it.
func Waterfall(rec models.PeriodRecord) []models.WaterfallRow {
	var rows []models.WaterfallRow
	if b := rec.Bank; b != nil {
		rows = []models.WaterfallRow{
			{Label: "Total Income", Value: b.TotalIncome},
			{Label: "Interest Expended", Value: -b.InterestPaid},
			{Label: "Operating Expenses", Value: -b.Expenses},
			{Label: "Operating Profit", Value: b.OperatingProfit, Total: true},
			{Label: "Depreciation", Value: -rec.Depreciation},
		}
	} else {
		rows = []models.WaterfallRow{
			{Label: "Revenue", Value: rec.TopLine()},
			{Label: "Operating Expenses", Value: -rec.Expenses()},
			{Label: "Operating Profit (EBITDA)", Value: rec.OperatingProfit(), Total: true},
			{Label: "Depreciation", Value: -rec.Depreciation},
			{Label: "Interest", Value: -rec.Interest},
			{Label: "Other Income", Value: rec.OtherIncome},
		}
	}
	rows = append(rows,
		models.WaterfallRow{Label: "Profit Before Tax", Value: rec.PBT, Total: true},
		models.WaterfallRow{Label: "Tax", Value: -rec.Tax},
	)
	if abs(rec.MinorityInterest) > minorityFloor {
		rows = append(rows, models.WaterfallRow{Label: "Minority Interest", Value: -rec.MinorityInterest})
	}
	rows = append(rows, models.WaterfallRow{Label: "Net Profit (PAT)", Value: rec.NetProfit, Total: true})

	if top := rec.TopLine(); top > 0 {
		for i := range rows {
			rows[i].PctOfRevenue = abs(rows[i].Value) * 100 / top
		}
	}
	return rows
}

func segmentID(i int) string { return "seg_" + strconv.Itoa(i) }
func expenseID(i int) string { return "exp_" + strconv.Itoa(i) }

func expenseColor(name string) string {
	if c, ok := expenseColors[name]; ok {
		return c
	}
	return colorOtherCost
}

func expenseLabel(name string) string {
	if l, ok := expenseLabels[name]; ok {
		return l
	}
	return name
}

// rgba converts #RRGGBB to an rgba() string with the given opacity.
func rgba(hex string, alpha float64) string {
	if len(hex) != 7 || hex[0] != '#' {
		return hex
	}
	v, err := strconv.ParseUint(hex[1:], 16, 32)
	if err != nil {
		return hex
	}
	return fmt.Sprintf("rgba(%d,%d,%d,%.2f)", v>>16&0xff, v>>8&0xff, v&0xff, alpha)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
