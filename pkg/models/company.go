package models

import (
	"sort"
	"strings"
	"time"
)

// Statement names a scraped table section.
type Statement string

const (
	StatementProfitLoss   Statement = "profit_loss"
	StatementQuarterly    Statement = "quarterly"
	StatementBalanceSheet Statement = "balance_sheet"
	StatementCashFlow     Statement = "cash_flow"
	StatementRatios       Statement = "ratios"
	StatementShareholding Statement = "shareholding"
)

// TableSection is one raw statement table as scraped: column headers
// (oldest first) and row label to cell strings. Cells are aligned to
// Periods by index but rows may be short.
type TableSection struct {
	Periods []string            `json:"periods"`
	Labels  []string            `json:"labels,omitempty"` // row labels in page order
	Rows    map[string][]string `json:"rows"`
}

// NewTableSection creates an empty section for the given periods.
func NewTableSection(periods ...string) *TableSection {
	return &TableSection{
		Periods: periods,
		Rows:    make(map[string][]string),
	}
}

// AddRow records a row. A repeated label replaces the earlier cells but
// keeps its original position.
func (s *TableSection) AddRow(label string, cells ...string) {
	if s.Rows == nil {
		s.Rows = make(map[string][]string)
	}
	if _, ok := s.Rows[label]; !ok {
		s.Labels = append(s.Labels, label)
	}
	s.Rows[label] = cells
}

// IsEmpty reports whether the section carries no data at all.
func (s *TableSection) IsEmpty() bool {
	return s == nil || (len(s.Periods) == 0 && len(s.Rows) == 0)
}

// OrderedLabels returns row labels in page order. Sections decoded from
// JSON without a label list fall back to sorted keys.
func (s *TableSection) OrderedLabels() []string {
	if s == nil {
		return nil
	}
	if len(s.Labels) == len(s.Rows) {
		return s.Labels
	}
	labels := make([]string, 0, len(s.Rows))
	seen := make(map[string]bool, len(s.Rows))
	for _, l := range s.Labels {
		if _, ok := s.Rows[l]; ok && !seen[l] {
			labels = append(labels, l)
			seen[l] = true
		}
	}
	var rest []string
	for l := range s.Rows {
		if !seen[l] {
			rest = append(rest, l)
		}
	}
	sort.Strings(rest)
	return append(labels, rest...)
}

// PeriodIndex returns the index of the first period whose header
// contains label (case-insensitive), or -1.
func (s *TableSection) PeriodIndex(label string) int {
	if s == nil {
		return -1
	}
	want := strings.ToLower(strings.TrimSpace(label))
	for i, p := range s.Periods {
		if strings.Contains(strings.ToLower(p), want) {
			return i
		}
	}
	return -1
}

// CompanyData is everything scraped for one company, before any
// normalisation.
type CompanyData struct {
	Ticker       string    `json:"ticker"`
	Name         string    `json:"name"`
	Consolidated bool      `json:"consolidated"`
	URL          string    `json:"url,omitempty"`
	CompanyID    string    `json:"company_id,omitempty"`
	FetchedAt    time.Time `json:"fetched_at"`

	// "Market Cap", "Current Price", "High / Low", "Stock P/E",
	// "Book Value", "Dividend Yield", "ROCE", "ROE", "Face Value".
	TopRatios map[string]string `json:"top_ratios,omitempty"`
	// "Compounded Sales Growth" -> "3 Years" -> "18%".
	CompoundedGrowth map[string]map[string]string `json:"compounded_growth,omitempty"`

	ProfitLoss   *TableSection `json:"profit_loss,omitempty"`
	Quarterly    *TableSection `json:"quarterly,omitempty"`
	BalanceSheet *TableSection `json:"balance_sheet,omitempty"`
	CashFlow     *TableSection `json:"cash_flow,omitempty"`
	Ratios       *TableSection `json:"ratios,omitempty"`
	Shareholding *TableSection `json:"shareholding,omitempty"`

	// Category -> percent of revenue for the latest annual period.
	ExpenseBreakdown map[string]string `json:"expense_breakdown,omitempty"`
	Segments         []string          `json:"segments,omitempty"`

	Pros  []string `json:"pros,omitempty"`
	Cons  []string `json:"cons,omitempty"`
	Peers []Peer   `json:"peers,omitempty"`
}

// Section returns the table for a statement, nil when absent.
func (c *CompanyData) Section(st Statement) *TableSection {
	switch st {
	case StatementProfitLoss:
		return c.ProfitLoss
	case StatementQuarterly:
		return c.Quarterly
	case StatementBalanceSheet:
		return c.BalanceSheet
	case StatementCashFlow:
		return c.CashFlow
	case StatementRatios:
		return c.Ratios
	case StatementShareholding:
		return c.Shareholding
	}
	return nil
}

// Peer is one row of the peer comparison table.
type Peer struct {
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	PE        float64 `json:"pe"`
	MarketCap float64 `json:"market_cap"`
	ROCE      float64 `json:"roce"`
}
