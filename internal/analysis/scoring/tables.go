package scoring

import "github.com/seenimoa/fundalens/pkg/models"

// Score tables and the flag table use their own cut-offs: a P/E of 12
// is "reasonably valued" for the score and "low" for the flags.

// ValuationBase is the neutral valuation score every company starts at.
const ValuationBase = 50

// ValuationTable scores price against earnings, book, yield, growth and
// returns.
var ValuationTable = []Rule{
	{Metric: MetricPE, When: []Cond{gt(0)}, Bands: []Band{
		{If: lt(10), Points: 15, Tone: models.ToneBullish, Text: "PE < 10 - Deep value"},
		{If: lt(20), Points: 8, Tone: models.ToneBullish, Text: "PE 10-20 - Reasonably valued"},
		{If: lt(35), Tone: models.ToneNeutral, Text: "PE 20-35 - Growth premium"},
		{If: lt(60), Points: -10, Tone: models.ToneBearish, Text: "PE 35-60 - Expensive"},
		{If: otherwise, Points: -15, Tone: models.ToneBearish, Text: "PE > 60 - Very expensive"},
	}},
	{Metric: MetricPB, When: []Cond{gt(0)}, Bands: []Band{
		{If: lt(1), Points: 10, Tone: models.ToneBullish, Text: "P/B < 1 - Below book value"},
		{If: lt(3), Tone: models.ToneNeutral, Text: "P/B 1-3 - Fair"},
		{If: gt(6), Points: -5, Tone: models.ToneBearish, Text: "P/B > 6 - Premium valuation"},
	}},
	{Metric: MetricDividendYield, Bands: []Band{
		{If: gt(3), Points: 5, Tone: models.ToneBullish, Text: "Div Yield %.1f%% - Income stock", WithValue: true},
		{If: gt(1), Tone: models.ToneNeutral, Text: "Div Yield %.1f%%", WithValue: true},
	}},
	{Metric: MetricPEG, When: []Cond{gt(0)}, Bands: []Band{
		{If: lt(1), Points: 10, Tone: models.ToneBullish, Text: "PEG %.1f - Growth at reasonable price", WithValue: true},
		{If: lt(2), Tone: models.ToneNeutral, Text: "PEG %.1f - Fairly priced for growth", WithValue: true},
		{If: otherwise, Points: -5, Tone: models.ToneBearish, Text: "PEG %.1f - Overpriced for growth", WithValue: true},
	}},
	{Metric: MetricROE, Bands: []Band{
		{If: gt(20), Points: 8, Tone: models.ToneBullish, Text: "ROE %.1f%% - Excellent capital efficiency", WithValue: true},
		{If: gt(15), Points: 4, Tone: models.ToneBullish, Text: "ROE %.1f%% - Good", WithValue: true},
		{If: lt(8), Points: -8, Tone: models.ToneBearish, Text: "ROE %.1f%% - Below cost of equity", WithValue: true},
	}},
}

// VerdictCutoffs are checked in order against the clamped valuation score.
var VerdictCutoffs = []Cutoff{
	{If: gte(70), Name: "Undervalued"},
	{If: gte(60), Name: "Attractively Valued"},
	{If: lte(30), Name: "Overvalued"},
	{If: lte(40), Name: "Expensive"},
}

// DefaultVerdict applies when no cutoff matches.
const DefaultVerdict = "Fairly Valued"

// QualityTable scores returns, growth, margins, leverage and cash
// generation. A company starts at zero.
var QualityTable = []Rule{
	{Metric: MetricROE, Bands: []Band{
		{If: gt(20), Points: 15, Text: "Excellent ROE (>20%)"},
		{If: gt(15), Points: 10, Text: "Good ROE (>15%)"},
		{If: gt(10), Points: 5, Text: "Moderate ROE"},
		{If: otherwise, Text: "Low ROE (<10%)"},
	}},
	{Metric: MetricROCE, Bands: []Band{
		{If: gt(20), Points: 15, Text: "Excellent ROCE (>20%)"},
		{If: gt(15), Points: 10, Text: "Good ROCE (>15%)"},
		{If: gt(10), Points: 5},
		{If: otherwise, Text: "Low ROCE (<10%)"},
	}},
	{Metric: MetricSalesCAGR5Y, Bands: []Band{
		{If: gt(15), Points: 10, Text: "Strong 5Y revenue CAGR >15%"},
		{If: gt(10), Points: 7},
	}},
	{Metric: MetricProfitCAGR5Y, Bands: []Band{
		{If: gt(15), Points: 10, Text: "Strong 5Y profit CAGR >15%"},
		{If: gt(10), Points: 7},
	}},
	{Label: LabelMarginTrend, Bands: []Band{
		{Is: models.TrendExpanding, Points: 8, Text: "Margins expanding"},
		{Is: models.TrendContracting, Points: -5, Text: "Margins contracting"},
	}},
	{Metric: MetricConsistency, Bands: []Band{
		{If: gt(0.8), Points: 10, Text: "Highly consistent profits"},
		{If: gt(0.6), Points: 5},
	}},
	{Metric: MetricDebtToEquity, Bands: []Band{
		{If: lt(0.3), Points: 10, Text: "Very low debt"},
		{If: lt(1), Points: 5},
		{If: gt(2), Points: -10, Text: "High debt (D/E > 2)"},
	}},
	{Metric: MetricCFOConsistency, Bands: []Band{
		{If: gte(1), Points: 10, Text: "100% CFO positive years"},
		{If: gte(0.8), Points: 5},
	}},
	{Metric: MetricFCFPositiveRatio, Bands: []Band{
		{If: gte(0.8), Points: 5, Text: "Strong free cash flow generator"},
	}},
}

// GradeCutoffs map the quality score to a letter grade.
var GradeCutoffs = []Cutoff{
	{If: gte(80), Name: "A+"},
	{If: gte(65), Name: "A"},
	{If: gte(50), Name: "B+"},
	{If: gte(40), Name: "B"},
	{If: gte(25), Name: "C"},
}

// DefaultGrade applies below the lowest cutoff.
const DefaultGrade = "D"

// TechnicalTable reads the 52-week range position and institutional
// flows.
var TechnicalTable = []Rule{
	{Metric: MetricRangePosition, Bands: []Band{
		{If: gt(0.9), Tone: models.ToneBullish, Text: "Near 52W High - Momentum strong"},
		{If: gt(0.7), Tone: models.ToneBullish, Text: "Upper 52W range - Positive trend"},
		{If: lt(0.2), Tone: models.ToneCaution, Text: "Near 52W Low - Potential value or distress"},
		{If: lt(0.35), Tone: models.ToneNeutral, Text: "Lower 52W range - Watch for reversal"},
	}},
	{Label: LabelFIITrend, Bands: []Band{
		{Is: models.TrendIncreasing, Tone: models.ToneBullish, Text: "FII increasing - Institutional confidence"},
		{Is: models.TrendDecreasing, Tone: models.ToneBearish, Text: "FII decreasing - Institutional selling"},
	}},
	{Label: LabelDIITrend, Bands: []Band{
		{Is: models.TrendIncreasing, Tone: models.ToneBullish, Text: "DII increasing - Domestic institutional buying"},
	}},
	{Label: LabelPromoterTrend, Bands: []Band{
		{Is: models.TrendDecreasing, Tone: models.ToneCaution, Text: "Promoter stake declining - Watch"},
		{Is: models.TrendIncreasing, Tone: models.ToneBullish, Text: "Promoter stake increasing - Confidence signal"},
	}},
}

// FlagTable sorts observations into green, amber and red.
var FlagTable = []Rule{
	{Metric: MetricPE, When: []Cond{gt(0)}, Bands: []Band{
		{If: lt(15), Color: Green, Text: "Low PE (%.1f)", WithValue: true},
		{If: gt(50), Color: Red, Text: "Very high PE (%.1f)", WithValue: true},
	}},
	{Metric: MetricPB, When: []Cond{gt(0)}, Bands: []Band{
		{If: lt(1.5), Color: Green, Text: "Low P/B (%.1f)", WithValue: true},
		{If: gt(8), Color: Red, Text: "Very high P/B (%.1f)", WithValue: true},
	}},
	{Metric: MetricROE, When: []Cond{gt(0)}, Bands: []Band{
		{If: gt(20), Color: Green, Text: "High ROE (%.1f%%)", WithValue: true},
		{If: lt(8), Color: Red, Text: "Low ROE (%.1f%%)", WithValue: true},
	}},
	{Metric: MetricROCE, When: []Cond{gt(0)}, Bands: []Band{
		{If: gt(20), Color: Green, Text: "High ROCE (%.1f%%)", WithValue: true},
		{If: lt(8), Color: Red, Text: "Low ROCE (%.1f%%)", WithValue: true},
	}},
	{Metric: MetricSalesGrowth3Y, Bands: []Band{
		{If: gt(20), Color: Green, Text: "Strong 3Y sales CAGR (%.0f%%)", WithValue: true},
		{If: lt(0), Color: Red, Text: "Sales declining (%.0f%%)", WithValue: true},
		{If: lt(5), Color: Amber, Text: "Slow sales growth (%.0f%%)", WithValue: true},
	}},
	{Metric: MetricProfitGrowth3Y, Bands: []Band{
		{If: gt(20), Color: Green, Text: "Strong 3Y profit CAGR (%.0f%%)", WithValue: true},
		{If: lt(0), Color: Red, Text: "Profits declining (%.0f%%)", WithValue: true},
	}},
	{Label: LabelMarginTrend, Bands: []Band{
		{Is: models.TrendExpanding, Color: Green, Text: "Operating margins expanding"},
		{Is: models.TrendContracting, Color: Red, Text: "Operating margins contracting"},
	}},
	{Metric: MetricOPM, When: []Cond{gt(0)}, Bands: []Band{
		{If: gt(25), Color: Green, Text: "High operating margin (%.0f%%)", WithValue: true},
		{If: lt(8), Color: Amber, Text: "Thin operating margin (%.0f%%)", WithValue: true},
	}},
	{Metric: MetricDebtToEquity, Bands: []Band{
		{If: lt(0.1), Color: Green, Text: "Virtually debt-free"},
		{If: lt(0.5), Color: Green, Text: "Low debt (D/E %.2f)", WithValue: true},
		{If: gt(2), Color: Red, Text: "High debt (D/E %.2f)", WithValue: true},
	}},
	{Label: LabelDebtTrend, Bands: []Band{
		{Is: models.TrendIncreasing, Color: Amber, Text: "Debt increasing over time"},
		{Is: models.TrendDecreasing, Color: Green, Text: "Debt reducing"},
	}},
	{Metric: MetricCFOConsistency, Bands: []Band{
		{If: gte(1), Color: Green, Text: "Positive operating cash flow every year"},
		{If: lt(0.6), Color: Red, Text: "Inconsistent operating cash flow"},
	}},
	{Metric: MetricFCFLatest, Bands: []Band{
		{If: gt(0), Color: Green, Text: "Positive free cash flow"},
		{If: lt(0), Color: Amber, Text: "Negative free cash flow"},
	}},
	{Metric: MetricDividendYield, Bands: []Band{
		{If: gt(3), Color: Green, Text: "Attractive dividend yield (%.1f%%)", WithValue: true},
	}},
	{Metric: MetricPromoter, Bands: []Band{
		{If: gt(60), Color: Green, Text: "High promoter holding (%.1f%%)", WithValue: true},
		{If: lt(25), Color: Amber, Text: "Low promoter holding (%.1f%%)", WithValue: true},
	}},
	{Label: LabelFIITrend, Bands: []Band{
		{Is: models.TrendIncreasing, Color: Green, Text: "FIIs increasing stake"},
		{Is: models.TrendDecreasing, Color: Amber, Text: "FIIs reducing stake"},
	}},
	{Label: LabelPromoterTrend, Bands: []Band{
		{Is: models.TrendDecreasing, Color: Red, Text: "Promoter stake declining"},
	}},
	{Label: LabelQuarterlyMargins, Bands: []Band{
		{Is: MarginsImproving, Color: Green, Text: "Quarterly margins improving"},
	}},
	{Metric: MetricQuarterProfitYoY, Bands: []Band{
		{If: gt(20), Color: Green, Text: "Latest quarter profit up %.0f%% YoY", WithValue: true},
		{If: lt(-15), Color: Red, Text: "Latest quarter profit %+.0f%% YoY", WithValue: true},
	}},
}
