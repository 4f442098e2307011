package statement

import "github.com/seenimoa/fundalens/pkg/models"

// Fallback chains for the rows whose label depends on the schema.
var (
	TopLineChain         = []Lookup{Like("Sales"), Is("Revenue"), Like("Total Income")}
	MarginChain          = []Lookup{Like("OPM"), Like("Financing Margin")}
	OperatingProfitChain = []Lookup{Like("Operating Profit"), Like("Financing Profit")}
)

// Classification is the outcome of schema detection for one section.
type Classification struct {
	Schema        models.Schema
	TopLine       Lookup // zero when no candidate matched
	TopLineValues []float64
	Margin        Lookup
	MarginValues  []float64
}

// Classify decides whether a profit and loss section is laid out like
// an ordinary company or a bank. A section that needs the Revenue or
// Total Income fallback for its top line, or that reports Financing
// Margin instead of OPM, is a bank. The last n periods are returned.
func Classify(section *models.TableSection, n int) Classification {
	c := Classification{Schema: models.SchemaOrdinary}
	if section.IsEmpty() {
		return c
	}

	c.TopLineValues, c.TopLine, _ = ResolveFirst(section, n, TopLineChain...)
	c.MarginValues, c.Margin, _ = ResolveFirst(section, n, MarginChain...)

	sales := ResolveLookup(section, TopLineChain[0], n)
	if !HasSignal(sales) || c.Margin == MarginChain[1] {
		c.Schema = models.SchemaBank
	}
	return c
}
