// Package statement turns raw scraped statement tables into canonical
// period records: it resolves line items by label, classifies the
// reporting schema and derives the figures the page leaves out.
//
// Nothing in this package returns an error. Missing rows resolve to an
// empty series and malformed cells to zero.
package statement

import (
	"strings"

	"github.com/seenimoa/fundalens/pkg/models"
	"github.com/seenimoa/fundalens/pkg/utils"
)

// MatchMode selects how a row label is compared with the target.
type MatchMode int

const (
	// Contains matches when the row label contains the target,
	// case-insensitively. "Sales" finds "Sales +".
	Contains MatchMode = iota
	// Exact matches the trimmed row label case-insensitively. Needed
	// where a contains match is ambiguous ("Interest" vs "Other Interest").
	Exact
)

func (m MatchMode) String() string {
	if m == Exact {
		return "exact"
	}
	return "contains"
}

// Lookup names one row to try.
type Lookup struct {
	Label string
	Mode  MatchMode
}

// Like is a contains lookup.
func Like(label string) Lookup { return Lookup{Label: label, Mode: Contains} }

// Is is an exact lookup.
func Is(label string) Lookup { return Lookup{Label: label, Mode: Exact} }

func (l Lookup) matches(rowLabel string) bool {
	key := strings.ToLower(strings.TrimSpace(rowLabel))
	want := strings.ToLower(strings.TrimSpace(l.Label))
	if l.Mode == Exact {
		return key == want
	}
	return strings.Contains(key, want)
}

func (l Lookup) String() string {
	return l.Mode.String() + ":" + l.Label
}

// FindRow returns the first row label, in page order, matching l.
func FindRow(section *models.TableSection, l Lookup) (string, bool) {
	if section.IsEmpty() {
		return "", false
	}
	for _, label := range section.OrderedLabels() {
		if l.matches(label) {
			return label, true
		}
	}
	return "", false
}

// Resolve returns the last n values (all of them when n <= 0) of the
// first row matching label under mode. No match yields nil.
func Resolve(section *models.TableSection, label string, mode MatchMode, n int) []float64 {
	return ResolveLookup(section, Lookup{Label: label, Mode: mode}, n)
}

// ResolveLookup is Resolve for a prepared Lookup.
func ResolveLookup(section *models.TableSection, l Lookup, n int) []float64 {
	row, ok := FindRow(section, l)
	if !ok {
		return nil
	}
	cells := section.Rows[row]
	if n > 0 && len(cells) > n {
		cells = cells[len(cells)-n:]
	}
	return utils.ParseNumbers(cells)
}

// ResolveFirst walks a fallback chain and returns the first series with
// at least one non-zero value, along with the lookup that produced it.
// When every candidate is empty or all zero it returns the last
// non-empty series seen and ok=false.
func ResolveFirst(section *models.TableSection, n int, chain ...Lookup) (values []float64, used Lookup, ok bool) {
	var last []float64
	for _, l := range chain {
		vals := ResolveLookup(section, l, n)
		if HasSignal(vals) {
			return vals, l, true
		}
		if len(vals) > 0 {
			last = vals
		}
	}
	return last, Lookup{}, false
}

// ValueAt returns the cell at period index idx of the first row matching
// l that reaches that far. Out of range resolves to 0.
func ValueAt(section *models.TableSection, l Lookup, idx int) float64 {
	if section.IsEmpty() || idx < 0 {
		return 0
	}
	for _, label := range section.OrderedLabels() {
		if !l.matches(label) {
			continue
		}
		if cells := section.Rows[label]; idx < len(cells) {
			return utils.ParseNumber(cells[idx])
		}
	}
	return 0
}

// FirstValueAt returns the first non-zero ValueAt across a chain.
func FirstValueAt(section *models.TableSection, idx int, chain ...Lookup) float64 {
	for _, l := range chain {
		if v := ValueAt(section, l, idx); v != 0 {
			return v
		}
	}
	return 0
}

// HasSignal reports whether a series carries any non-zero value.
func HasSignal(values []float64) bool {
	for _, v := range values {
		if v != 0 {
			return true
		}
	}
	return false
}

// Last returns the final value of a series, 0 when empty.
func Last(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return values[len(values)-1]
}
