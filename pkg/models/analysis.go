package models

import "slices"

// Trend labels shared by margin, debt and shareholding trends.
const (
	TrendExpanding        = "expanding"
	TrendContracting      = "contracting"
	TrendStable           = "stable"
	TrendIncreasing       = "increasing"
	TrendDecreasing       = "decreasing"
	TrendInsufficientData = "insufficient_data"
)

// PLAnalysis summarises the annual profit and loss statement.
type PLAnalysis struct {
	Schema             Schema    `json:"schema"`
	SalesLatest        float64   `json:"sales_latest"`
	NetProfitLatest    float64   `json:"net_profit_latest"`
	EPSLatest          float64   `json:"eps_latest"`
	OPMLatest          float64   `json:"opm_latest"`
	NPMLatest          float64   `json:"npm_latest"`
	SalesYoY           []float64 `json:"sales_yoy"`
	ProfitYoY          []float64 `json:"profit_yoy"`
	SalesCAGR3Y        float64   `json:"sales_cagr_3y"`
	SalesCAGR5Y        float64   `json:"sales_cagr_5y"`
	ProfitCAGR3Y       float64   `json:"profit_cagr_3y"`
	ProfitCAGR5Y       float64   `json:"profit_cagr_5y"`
	MarginTrend        string    `json:"margin_trend"`
	Consistency        float64   `json:"consistency"` // share of years with profit growth
	Periods            []string  `json:"periods"`
	SalesHistory       []float64 `json:"sales_history"`
	ProfitHistory      []float64 `json:"profit_history"`
	OPMHistory         []float64 `json:"opm_history"`
	EPSHistory         []float64 `json:"eps_history"`
	DividendPayout     []float64 `json:"dividend_payout"`
	InterestLatest     float64   `json:"interest_latest"`
	DepreciationLatest float64   `json:"depreciation_latest"`
}

// QuarterlyAnalysis summarises the last eight quarters.
type QuarterlyAnalysis struct {
	SalesLatest      float64   `json:"sales_latest"`
	ProfitLatest     float64   `json:"profit_latest"`
	OPMLatest        float64   `json:"opm_latest"`
	SalesYoY         float64   `json:"sales_yoy"`  // vs the same quarter a year back
	ProfitYoY        float64   `json:"profit_yoy"` // vs the same quarter a year back
	SalesQoQ         []float64 `json:"sales_qoq"`
	ProfitQoQ        []float64 `json:"profit_qoq"`
	Periods          []string  `json:"periods"`
	SalesHistory     []float64 `json:"sales_history"`
	ProfitHistory    []float64 `json:"profit_history"`
	ImprovingMargins bool      `json:"improving_margins"`
}

// BalanceSheetAnalysis summarises leverage and asset build-up.
type BalanceSheetAnalysis struct {
	ShareholderEquity float64   `json:"shareholder_equity"`
	Borrowings        float64   `json:"borrowings"`
	TotalAssets       float64   `json:"total_assets"`
	DebtToEquity      float64   `json:"de_ratio"`
	HasDebtToEquity   bool      `json:"has_de_ratio"`
	DebtTrend         string    `json:"debt_trend"`
	BorrowingsHistory []float64 `json:"borrowings_history"`
	EquityHistory     []float64 `json:"equity_history"`
	CWIPLatest        float64   `json:"cwip_latest"`
	InvestmentsLatest float64   `json:"investments_latest"`
	FixedAssetsLatest float64   `json:"fixed_assets_latest"`
}

// CashFlowAnalysis summarises operating and free cash flow.
type CashFlowAnalysis struct {
	CFOLatest        float64   `json:"cfo_latest"`
	CFILatest        float64   `json:"cfi_latest"`
	CFFLatest        float64   `json:"cff_latest"`
	FCFLatest        float64   `json:"fcf_latest"`
	NetLatest        float64   `json:"net_latest"`
	CFOHistory       []float64 `json:"cfo_history"`
	FCFHistory       []float64 `json:"fcf_history"`
	CFOConsistency   float64   `json:"cfo_consistency"` // share of positive CFO years
	FCFPositiveYears int       `json:"fcf_positive_years"`
	TotalYears       int       `json:"total_years"`
}

// ShareholdingAnalysis summarises ownership and its direction.
type ShareholdingAnalysis struct {
	PromoterLatest     float64   `json:"promoter_latest"`
	FIILatest          float64   `json:"fii_latest"`
	DIILatest          float64   `json:"dii_latest"`
	PublicLatest       float64   `json:"public_latest"`
	PromoterTrend      string    `json:"promoter_trend"`
	FIITrend           string    `json:"fii_trend"`
	DIITrend           string    `json:"dii_trend"`
	ShareholdersLatest float64   `json:"shareholders_latest"`
	PromoterHistory    []float64 `json:"promoter_history"`
	FIIHistory         []float64 `json:"fii_history"`
	DIIHistory         []float64 `json:"dii_history"`
	Periods            []string  `json:"periods"`
}

// Tone is the direction a signal points.
type Tone string

const (
	ToneBullish Tone = "bullish"
	ToneNeutral Tone = "neutral"
	ToneBearish Tone = "bearish"
	ToneCaution Tone = "caution"
	ToneInfo    Tone = "info"
)

// Signal is one scored observation with its direction.
type Signal struct {
	Tone    Tone   `json:"tone"`
	Message string `json:"message"`
}

// ValuationAssessment is the 0-100 valuation score and verdict.
type ValuationAssessment struct {
	Score   float64  `json:"score"`
	Verdict string   `json:"verdict"`
	Signals []Signal `json:"signals"`
}

// QualityAssessment is the 0-100 business quality score and grade.
type QualityAssessment struct {
	Score   float64  `json:"score"`
	Grade   string   `json:"grade"`
	Details []string `json:"details"`
}

// TechnicalAssessment places the price in its 52-week range and reads
// institutional flows.
type TechnicalAssessment struct {
	PosIn52WRange float64  `json:"pos_in_52w_range"`
	PctFromHigh   float64  `json:"pct_from_high"`
	PctFromLow    float64  `json:"pct_from_low"`
	Signals       []Signal `json:"signals"`
}

// Flag is one categorised observation. Evidence carries the metric
// value that triggered it, when there is one.
type Flag struct {
	Message  string   `json:"message"`
	Evidence *float64 `json:"evidence,omitempty"`
}

// Flags are the three disjoint flag lists.
type Flags struct {
	Green []Flag `json:"green"`
	Amber []Flag `json:"amber"`
	Red   []Flag `json:"red"`
}

// Messages returns the messages of a flag list.
func Messages(flags []Flag) []string {
	out := make([]string, len(flags))
	for i, f := range flags {
		out[i] = f.Message
	}
	return out
}

// Headline ratio keys, as used in MarketSnapshot.Missing.
const (
	RatioMarketCap     = "market_cap"
	RatioCurrentPrice  = "current_price"
	RatioPE            = "pe"
	RatioPB            = "pb"
	RatioBookValue     = "book_value"
	RatioDividendYield = "div_yield"
	RatioROCE          = "roce"
	RatioROE           = "roe"
	RatioFaceValue     = "face_value"
	RatioHighLow       = "high_low"
)

// MarketSnapshot is the parsed headline ratios block. Missing lists the
// ratios the page did not report; their fields are zero.
type MarketSnapshot struct {
	MarketCap     float64  `json:"market_cap"`
	CurrentPrice  float64  `json:"current_price"`
	PE            float64  `json:"pe"`
	PB            float64  `json:"pb"`
	BookValue     float64  `json:"book_value"`
	DividendYield float64  `json:"div_yield"`
	ROCE          float64  `json:"roce"`
	ROE           float64  `json:"roe"`
	FaceValue     float64  `json:"face_value"`
	High52W       float64  `json:"high_52w"`
	Low52W        float64  `json:"low_52w"`
	Missing       []string `json:"missing,omitempty"`
}

// Has reports whether the ratio with the given key was reported.
func (m MarketSnapshot) Has(key string) bool {
	return !slices.Contains(m.Missing, key)
}

// DataCompleteness reports how much of a statement could be resolved.
type DataCompleteness struct {
	Statement    Statement `json:"statement"`
	Periods      int       `json:"periods"`
	RowsFound    int       `json:"rows_found"`
	RowsExpected int       `json:"rows_expected"`
	Ratio        float64   `json:"ratio"`
}

// AnalysisResult is the full output for one company. It is built once
// and never mutated.
type AnalysisResult struct {
	Ticker       string         `json:"ticker"`
	Name         string         `json:"name"`
	Consolidated bool           `json:"consolidated"`
	Schema       Schema         `json:"schema"`
	Market       MarketSnapshot `json:"market"`

	// Category -> period -> percent.
	Growth map[string]map[string]float64 `json:"growth,omitempty"`

	ProfitLoss   *PLAnalysis           `json:"profit_loss,omitempty"`
	Quarterly    *QuarterlyAnalysis    `json:"quarterly,omitempty"`
	BalanceSheet *BalanceSheetAnalysis `json:"balance_sheet,omitempty"`
	CashFlow     *CashFlowAnalysis     `json:"cash_flow,omitempty"`
	Shareholding *ShareholdingAnalysis `json:"shareholding,omitempty"`

	AnnualRecords    []PeriodRecord `json:"annual_records,omitempty"`
	QuarterlyRecords []PeriodRecord `json:"quarterly_records,omitempty"`

	Valuation ValuationAssessment `json:"valuation"`
	Quality   QualityAssessment   `json:"quality"`
	Technical TechnicalAssessment `json:"technical"`
	Flags     Flags               `json:"flags"`

	Completeness []DataCompleteness `json:"completeness"`

	Pros []string `json:"pros,omitempty"`
	Cons []string `json:"cons,omitempty"`
}

// BatchItem is one ticker's outcome in a multi-company run.
type BatchItem struct {
	Ticker string          `json:"ticker"`
	Result *AnalysisResult `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}
