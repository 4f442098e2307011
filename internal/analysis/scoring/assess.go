package scoring

import (
	"fmt"

	"github.com/seenimoa/fundalens/pkg/models"
)

// Valuation starts at ValuationBase, adds the points of every fired band
// and names a verdict from the clamped score.
func Valuation(in Inputs) models.ValuationAssessment {
	score := float64(ValuationBase)
	signals := []models.Signal{}
	for _, h := range run(ValuationTable, in) {
		score += h.Points
		if h.Text != "" {
			signals = append(signals, models.Signal{Tone: h.Tone, Message: h.text()})
		}
	}
	score = clamp(score)
	return models.ValuationAssessment{
		Score:   score,
		Verdict: pick(VerdictCutoffs, DefaultVerdict, score),
		Signals: signals,
	}
}

// Quality sums the quality points from zero and grades the result.
func Quality(in Inputs) models.QualityAssessment {
	var score float64
	details := []string{}
	for _, h := range run(QualityTable, in) {
		score += h.Points
		if h.Text != "" {
			details = append(details, h.text())
		}
	}
	score = clamp(score)
	return models.QualityAssessment{
		Score:   score,
		Grade:   pick(GradeCutoffs, DefaultGrade, score),
		Details: details,
	}
}

// Technical reports the 52-week range position and the ownership flow
// signals. Without a price and a range only the flow signals remain and
// the position stays at the middle of the range.
func Technical(in Inputs) models.TechnicalAssessment {
	t := models.TechnicalAssessment{PosIn52WRange: 0.5, Signals: []models.Signal{}}

	price, hasPrice := in.Metrics[MetricPrice]
	if hasPrice {
		high, low := in.Metrics[MetricHigh52W], in.Metrics[MetricLow52W]
		t.PosIn52WRange = in.Metrics[MetricRangePosition]
		t.PctFromHigh = (price/high - 1) * 100
		t.PctFromLow = (price/low - 1) * 100
	}

	for _, rule := range TechnicalTable {
		if h, ok := rule.eval(in); ok {
			t.Signals = append(t.Signals, models.Signal{Tone: h.Tone, Message: h.text()})
		}
		// The distance from the range ends follows the range band.
		if hasPrice && rule.Metric == MetricRangePosition {
			t.Signals = append(t.Signals, models.Signal{
				Tone:    models.ToneInfo,
				Message: fmt.Sprintf("%+.1f%% from 52W High, %+.1f%% from 52W Low", t.PctFromHigh, t.PctFromLow),
			})
		}
	}
	return t
}

// Flags sorts every fired flag band by color. Each list is non-nil so
// it encodes as an empty array.
func Flags(in Inputs) models.Flags {
	f := models.Flags{Green: []models.Flag{}, Amber: []models.Flag{}, Red: []models.Flag{}}
	for _, h := range run(FlagTable, in) {
		flag := models.Flag{Message: h.text(), Evidence: h.evidence()}
		switch h.Color {
		case Green:
			f.Green = append(f.Green, flag)
		case Amber:
			f.Amber = append(f.Amber, flag)
		case Red:
			f.Red = append(f.Red, flag)
		}
	}
	return f
}
