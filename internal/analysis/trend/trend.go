// Package trend computes growth, consistency and direction metrics over
// period series (oldest value first) and summarises each statement.
package trend

import (
	"math"

	"github.com/seenimoa/fundalens/pkg/models"
)

// Window sizes for the direction heuristics.
const (
	debtWindow    = 3 // latest vs two periods back
	holdingWindow = 4 // latest vs first of the last four quarters

	marginBand  = 2.0 // percentage points
	holdingBand = 0.5 // percentage points

	debtRiseFactor = 1.2
	debtFallFactor = 0.8

	quarterLag = 4 // same quarter a year earlier
)

// CAGR is the compound annual growth rate in percent. Any non-positive
// input yields 0.
func CAGR(start, end, years float64) float64 {
	if start <= 0 || end <= 0 || years <= 0 {
		return 0
	}
	return (math.Pow(end/start, 1/years) - 1) * 100
}

// YoY returns the percent change of each value over the one before it.
// The result has len(values)-1 entries; a non-positive previous value
// gives 0.
func YoY(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}
	out := make([]float64, len(values)-1)
	for i := 1; i < len(values); i++ {
		if values[i-1] > 0 {
			out[i-1] = (values[i]/values[i-1] - 1) * 100
		}
	}
	return out
}

// CAGRFromSeries is the CAGR between the value years back from the end
// and the last value. Series too short for the span give 0.
func CAGRFromSeries(values []float64, years int) float64 {
	if years <= 0 || len(values) < years+1 {
		return 0
	}
	return CAGR(values[len(values)-1-years], values[len(values)-1], float64(years))
}

// MarginTrend compares the mean of the last two margins with the mean
// of the two before them (or the first margin when fewer than four are
// known). It needs three values.
func MarginTrend(margins []float64) string {
	n := len(margins)
	if n < 3 {
		return models.TrendStable
	}
	recent := (margins[n-1] + margins[n-2]) / 2
	older := margins[0]
	if n >= 4 {
		older = (margins[n-3] + margins[n-4]) / 2
	}
	switch {
	case recent > older+marginBand:
		return models.TrendExpanding
	case recent < older-marginBand:
		return models.TrendContracting
	}
	return models.TrendStable
}

// ImprovingMargins reports whether the last two margins average above
// the two before them.
func ImprovingMargins(margins []float64) bool {
	n := len(margins)
	if n < 4 {
		return false
	}
	return (margins[n-1]+margins[n-2])/2 > (margins[n-3]+margins[n-4])/2
}

// Consistency is the fraction of positive changes, 0 for none.
func Consistency(changes []float64) float64 {
	return PositiveRatio(changes)
}

// PositiveRatio is the fraction of strictly positive values.
func PositiveRatio(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return float64(PositiveCount(values)) / float64(len(values))
}

// PositiveCount counts strictly positive values.
func PositiveCount(values []float64) int {
	var n int
	for _, v := range values {
		if v > 0 {
			n++
		}
	}
	return n
}

// DebtTrend compares the latest borrowings with the figure two periods
// earlier: more than 20% higher is increasing, more than 20% lower is
// decreasing.
func DebtTrend(borrowings []float64) string {
	n := len(borrowings)
	if n < debtWindow {
		return models.TrendInsufficientData
	}
	latest, base := borrowings[n-1], borrowings[n-debtWindow]
	switch {
	case latest > base*debtRiseFactor:
		return models.TrendIncreasing
	case latest < base*debtFallFactor:
		return models.TrendDecreasing
	}
	return models.TrendStable
}

// HoldingTrend compares the latest holding with the first of the last
// four quarters; moves within half a point are stable.
func HoldingTrend(values []float64) string {
	if len(values) < holdingWindow {
		return models.TrendInsufficientData
	}
	recent := values[len(values)-holdingWindow:]
	first, last := recent[0], recent[len(recent)-1]
	switch {
	case last > first+holdingBand:
		return models.TrendIncreasing
	case last < first-holdingBand:
		return models.TrendDecreasing
	}
	return models.TrendStable
}

// SameQuarterYoY compares the latest quarter with the same quarter a
// year earlier. Fewer than five quarters, or a non-positive base, give 0.
func SameQuarterYoY(values []float64) float64 {
	n := len(values)
	if n <= quarterLag {
		return 0
	}
	base := values[n-1-quarterLag]
	if base <= 0 {
		return 0
	}
	return (values[n-1]/base - 1) * 100
}

func tail[T any](values []T, n int) []T {
	if len(values) > n {
		return values[len(values)-n:]
	}
	return values
}

func last(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return values[len(values)-1]
}
