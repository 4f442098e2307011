package models

// Schema is the statement layout a company reports in.
type Schema string

const (
	SchemaOrdinary Schema = "ordinary"
	SchemaBank     Schema = "bank" // banks and NBFCs
)

// PeriodKind distinguishes annual from quarterly records.
type PeriodKind string

const (
	PeriodAnnual    PeriodKind = "annual"
	PeriodQuarterly PeriodKind = "quarterly"
)

// OrdinaryStatement holds the figures only a sales-based company reports.
type OrdinaryStatement struct {
	Sales            float64           `json:"sales"`
	Expenses         float64           `json:"expenses"`
	OperatingProfit  float64           `json:"operating_profit"`
	OPM              float64           `json:"opm"` // %
	ExpenseBreakdown []ExpenseCategory `json:"expense_breakdown,omitempty"`
}

// BankStatement holds the figures only a bank or NBFC reports.
type BankStatement struct {
	Revenue           float64 `json:"revenue"`       // interest earned
	InterestPaid      float64 `json:"interest_paid"` // interest expended
	NetInterestIncome float64 `json:"net_interest_income"`
	TotalIncome       float64 `json:"total_income"` // revenue + other income
	Expenses          float64 `json:"expenses"`     // operating expenses
	FinancingProfit   float64 `json:"financing_profit"`
	OperatingProfit   float64 `json:"operating_profit"` // pre-provision proxy
	Margin            float64 `json:"margin"`           // % of total income
}

// ExpenseCategory is one line of the expense schedule in crores.
type ExpenseCategory struct {
	Name       string  `json:"name"`
	PctOfSales float64 `json:"pct_of_sales"`
	Amount     float64 `json:"amount"`
}

// Reconciliation records how far the reported PBT is from the one the
// operating figures imply.
type Reconciliation struct {
	ComputedPBT float64 `json:"computed_pbt"`
	Gap         float64 `json:"gap"` // reported - computed
	PBTDerived  bool    `json:"pbt_derived,omitempty"`
	NetDerived  bool    `json:"net_derived,omitempty"`
}

// PeriodRecord is the canonical statement for one period. Exactly one
// of Ordinary or Bank is set, matching Schema.
type PeriodRecord struct {
	Period string     `json:"period"`
	Kind   PeriodKind `json:"kind"`
	Schema Schema     `json:"schema"`

	Ordinary *OrdinaryStatement `json:"ordinary,omitempty"`
	Bank     *BankStatement     `json:"bank,omitempty"`

	OtherIncome      float64 `json:"other_income"`
	Depreciation     float64 `json:"depreciation"`
	Interest         float64 `json:"interest"`
	EBIT             float64 `json:"ebit"`
	PBT              float64 `json:"pbt"`
	TaxPct           float64 `json:"tax_pct"`
	Tax              float64 `json:"tax"`
	MinorityInterest float64 `json:"minority_interest"`
	NetProfit        float64 `json:"net_profit"`
	EPS              float64 `json:"eps"`
	NPM              float64 `json:"npm"`
	DividendPayout   float64 `json:"dividend_payout"`
	YoYRevenue       float64 `json:"yoy_revenue"`
	YoYProfit        float64 `json:"yoy_profit"`

	Reconciliation Reconciliation `json:"reconciliation"`
}

// TopLine is sales for an ordinary company, total income for a bank.
func (r PeriodRecord) TopLine() float64 {
	switch {
	case r.Ordinary != nil:
		return r.Ordinary.Sales
	case r.Bank != nil:
		return r.Bank.TotalIncome
	}
	return 0
}

// OperatingProfit is EBITDA, or the pre-provision proxy for a bank.
func (r PeriodRecord) OperatingProfit() float64 {
	switch {
	case r.Ordinary != nil:
		return r.Ordinary.OperatingProfit
	case r.Bank != nil:
		return r.Bank.OperatingProfit
	}
	return 0
}

// Expenses is operating expenses under either schema.
func (r PeriodRecord) Expenses() float64 {
	switch {
	case r.Ordinary != nil:
		return r.Ordinary.Expenses
	case r.Bank != nil:
		return r.Bank.Expenses
	}
	return 0
}

// Margin is OPM or the bank operating margin, in percent.
func (r PeriodRecord) Margin() float64 {
	switch {
	case r.Ordinary != nil:
		return r.Ordinary.OPM
	case r.Bank != nil:
		return r.Bank.Margin
	}
	return 0
}

// IsBank reports whether the record uses the bank layout.
func (r PeriodRecord) IsBank() bool {
	return r.Bank != nil
}
