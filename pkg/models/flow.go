package models

// FlowNode is one box of an income flow (Sankey) diagram.
type FlowNode struct {
	ID           string  `json:"id"`
	Label        string  `json:"label"`
	Value        float64 `json:"value"`
	PctOfRevenue float64 `json:"pct_of_revenue"`
	Color        string  `json:"color"`
}

// FlowLink moves Value crores from one node to another.
type FlowLink struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Value  float64 `json:"value"`
	Color  string  `json:"color"`
}

// WaterfallRow is one line of the revenue to net profit bridge.
// Negative values are deductions.
type WaterfallRow struct {
	Label        string  `json:"label"`
	Value        float64 `json:"value"`
	PctOfRevenue float64 `json:"pct_of_revenue"`
	Total        bool    `json:"total"`
}

// FlowDiagram is the income flow for one period.
type FlowDiagram struct {
	Ticker    string         `json:"ticker"`
	Name      string         `json:"name"`
	Period    string         `json:"period"`
	Kind      PeriodKind     `json:"kind"`
	Schema    Schema         `json:"schema"`
	Nodes     []FlowNode     `json:"nodes"`
	Links     []FlowLink     `json:"links"`
	Waterfall []WaterfallRow `json:"waterfall"`
	Record    PeriodRecord   `json:"record"`
}
