// Package utils provides number parsing, formatting and ticker helpers
// shared across fundalens.
package utils

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// NA is the placeholder rendered for absent or zero-valued metrics.
const NA = "N/A"

// missingCells are the sentinels screener.in uses for blank cells.
var missingCells = map[string]bool{
	"":    true,
	"-":   true,
	"—":   true,
	"–":   true,
	"N/A": true,
	"NA":  true,
}

var cellReplacer = strings.NewReplacer(",", "", "%", "", "₹", "", "Rs.", "", " ", "", "\u00a0", "")

// ParseNumber parses a scraped statement cell ("1,23,456.7", "18%",
// "₹ 2,847") into a float. Missing sentinels and anything unparseable
// become 0; it never fails.
func ParseNumber(raw string) float64 {
	f, _ := LookupNumber(raw)
	return f
}

// LookupNumber is ParseNumber that also reports whether the cell held a
// number at all.
func LookupNumber(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if missingCells[strings.ToUpper(s)] {
		return 0, false
	}
	s = cellReplacer.Replace(s)
	if s == "" {
		return 0, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, false
	}
	f, _ := d.Float64()
	return f, true
}

// ParseNumbers parses every cell of a row.
func ParseNumbers(cells []string) []float64 {
	if len(cells) == 0 {
		return nil
	}
	out := make([]float64, len(cells))
	for i, c := range cells {
		out[i] = ParseNumber(c)
	}
	return out
}

// FormatINR formats a number in Indian Rupee format (₹12,34,567.89).
// Uses the Indian numbering system: last 3 digits, then groups of 2.
func FormatINR(amount float64) string {
	negative := amount < 0
	amount = math.Abs(amount)

	intPart := int64(amount)
	decPart := amount - float64(intPart)

	formatted := formatIndianNumber(intPart)

	if decPart > 0 {
		decStr := fmt.Sprintf("%.2f", decPart)
		formatted += decStr[1:]
	} else {
		formatted += ".00"
	}

	if negative {
		return "-₹" + formatted
	}
	return "₹" + formatted
}

// FormatCrores formats a figure already expressed in crores, the unit
// statements are published in. e.g., 123456.4 → "₹1,23,456 Cr".
// Zero renders as N/A.
func FormatCrores(crores float64) string {
	if crores == 0 {
		return NA
	}
	prefix := "₹"
	if crores < 0 {
		prefix = "-₹"
	}
	return prefix + formatIndianNumber(int64(math.Round(math.Abs(crores)))) + " Cr"
}

// FormatPct formats a percentage value with sign and suffix.
// e.g., 2.45 → "+2.45%", -1.23 → "-1.23%"
func FormatPct(pct float64) string {
	if pct >= 0 {
		return fmt.Sprintf("+%.2f%%", pct)
	}
	return fmt.Sprintf("%.2f%%", pct)
}

// FormatPctOrNA is FormatPct with the N/A placeholder for zero.
func FormatPctOrNA(pct float64) string {
	if pct == 0 {
		return NA
	}
	return FormatPct(pct)
}

// FormatRatio formats a plain multiple such as P/E or D/E.
func FormatRatio(v float64) string {
	if v == 0 {
		return NA
	}
	return formatWithDecimals(v)
}

// formatIndianNumber formats an integer with Indian grouping (last 3, then 2s).
func formatIndianNumber(n int64) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}

	s := fmt.Sprintf("%d", n)
	result := s[len(s)-3:]
	remaining := s[:len(s)-3]

	for len(remaining) > 2 {
		result = remaining[len(remaining)-2:] + "," + result
		remaining = remaining[:len(remaining)-2]
	}
	if remaining != "" {
		result = remaining + "," + result
	}
	return result
}

// formatWithDecimals formats a number with up to 2 decimal places,
// removing trailing zeros.
func formatWithDecimals(n float64) string {
	s := fmt.Sprintf("%.2f", n)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	return s
}
