// Package scoring turns analysed metrics into a valuation verdict, a
// quality grade, technical signals and green/amber/red flags. Every
// threshold lives in a table in tables.go; the evaluators here only
// walk those tables.
package scoring

import (
	"fmt"

	"github.com/seenimoa/fundalens/pkg/models"
)

// Metric names a numeric input to the tables.
type Metric string

const (
	MetricPE               Metric = "pe"
	MetricPB               Metric = "pb"
	MetricDividendYield    Metric = "div_yield"
	MetricPEG              Metric = "peg"
	MetricROE              Metric = "roe"
	MetricROCE             Metric = "roce"
	MetricSalesCAGR5Y      Metric = "sales_cagr_5y"
	MetricProfitCAGR5Y     Metric = "profit_cagr_5y"
	MetricSalesGrowth3Y    Metric = "sales_growth_3y"
	MetricProfitGrowth3Y   Metric = "profit_growth_3y"
	MetricConsistency      Metric = "consistency"
	MetricOPM              Metric = "opm"
	MetricDebtToEquity     Metric = "de_ratio"
	MetricCFOConsistency   Metric = "cfo_consistency"
	MetricFCFPositiveRatio Metric = "fcf_positive_ratio"
	MetricFCFLatest        Metric = "fcf_latest"
	MetricPromoter         Metric = "promoter"
	MetricQuarterProfitYoY Metric = "quarter_profit_yoy"
	MetricRangePosition    Metric = "range_position"
	MetricPrice            Metric = "price"
	MetricHigh52W          Metric = "high_52w"
	MetricLow52W           Metric = "low_52w"
)

// Label names a categorical input, usually a trend.
type Label string

const (
	LabelMarginTrend      Label = "margin_trend"
	LabelDebtTrend        Label = "debt_trend"
	LabelPromoterTrend    Label = "promoter_trend"
	LabelFIITrend         Label = "fii_trend"
	LabelDIITrend         Label = "dii_trend"
	LabelQuarterlyMargins Label = "quarterly_margins"
)

// Values of LabelQuarterlyMargins.
const (
	MarginsImproving = "improving"
	MarginsFlat      = "flat"
)

// Inputs are the facts a company offers the tables. A metric or label
// missing from its map means the statement behind it was absent, and
// every rule reading it is skipped.
type Inputs struct {
	Metrics map[Metric]float64
	Labels  map[Label]string
}

// NewInputs returns empty Inputs ready to fill.
func NewInputs() Inputs {
	return Inputs{Metrics: make(map[Metric]float64), Labels: make(map[Label]string)}
}

// Op is a comparison against a limit.
type Op int

const (
	Always Op = iota // matches any value
	Above            // v > limit
	AtLeast          // v >= limit
	Below            // v < limit
	AtMost           // v <= limit
)

// Cond is one comparison.
type Cond struct {
	Op    Op
	Limit float64
}

func gt(x float64) Cond { return Cond{Above, x} }
func gte(x float64) Cond { return Cond{AtLeast, x} }
func lt(x float64) Cond { return Cond{Below, x} }
func lte(x float64) Cond { return Cond{AtMost, x} }

var otherwise = Cond{Op: Always}

func (c Cond) holds(v float64) bool {
	switch c.Op {
	case Above:
		return v > c.Limit
	case AtLeast:
		return v >= c.Limit
	case Below:
		return v < c.Limit
	case AtMost:
		return v <= c.Limit
	}
	return true
}

// Color is a flag category.
type Color string

const (
	Green Color = "green"
	Amber Color = "amber"
	Red   Color = "red"
)

// Band is one outcome of a rule. Numeric rules test If, label rules
// compare Is. Score tables use Points and Tone, flag tables use Color.
// With WithValue set, Text is a format string receiving the metric.
type Band struct {
	If        Cond
	Is        string
	Points    float64
	Tone      models.Tone
	Color     Color
	Text      string
	WithValue bool
}

// Rule is an ordered band chain over one metric or one label. The first
// matching band fires; When guards must all hold for the rule to apply.
type Rule struct {
	Metric Metric
	Label  Label
	When   []Cond
	Bands  []Band
}

// Cutoff maps a score range to a verdict or grade.
type Cutoff struct {
	If   Cond
	Name string
}

// hit is a fired band with the metric value that triggered it.
type hit struct {
	Band
	value    float64
	hasValue bool
}

func (h hit) text() string {
	if h.WithValue {
		return fmt.Sprintf(h.Text, h.value)
	}
	return h.Text
}

func (h hit) evidence() *float64 {
	if !h.hasValue {
		return nil
	}
	v := h.value
	return &v
}

// eval returns the band a rule fires for the given inputs, if any.
func (r Rule) eval(in Inputs) (hit, bool) {
	if r.Label != "" {
		s, ok := in.Labels[r.Label]
		if !ok {
			return hit{}, false
		}
		for _, b := range r.Bands {
			if b.Is == s {
				return hit{Band: b}, true
			}
		}
		return hit{}, false
	}

	v, ok := in.Metrics[r.Metric]
	if !ok {
		return hit{}, false
	}
	for _, c := range r.When {
		if !c.holds(v) {
			return hit{}, false
		}
	}
	for _, b := range r.Bands {
		if b.If.holds(v) {
			return hit{Band: b, value: v, hasValue: true}, true
		}
	}
	return hit{}, false
}

// run evaluates a table in order.
func run(table []Rule, in Inputs) []hit {
	var hits []hit
	for _, r := range table {
		if h, ok := r.eval(in); ok {
			hits = append(hits, h)
		}
	}
	return hits
}

func pick(cutoffs []Cutoff, fallback string, score float64) string {
	for _, c := range cutoffs {
		if c.If.holds(score) {
			return c.Name
		}
	}
	return fallback
}

func clamp(score float64) float64 {
	switch {
	case score < 0:
		return 0
	case score > 100:
		return 100
	}
	return score
}
