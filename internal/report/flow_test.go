package report

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/seenimoa/fundalens/pkg/models"
)

func flowCompany() *models.CompanyData {
	pl := models.NewTableSection("Mar 2023", "Mar 2024")
	pl.AddRow("Sales +", "900", "1,000")
	pl.AddRow("Expenses +", "650", "700")
	pl.AddRow("Operating Profit", "250", "300")
	pl.AddRow("OPM %", "28%", "30%")
	pl.AddRow("Other Income +", "15", "20")
	pl.AddRow("Interest", "10", "20")
	pl.AddRow("Depreciation", "40", "50")
	pl.AddRow("Profit before tax", "215", "250")
	pl.AddRow("Tax %", "25%", "25%")
	pl.AddRow("Net Profit +", "160", "180")

	q := models.NewTableSection("Dec 2023", "Mar 2024")
	q.AddRow("Sales", "240", "260")
	q.AddRow("Expenses", "170", "180")
	q.AddRow("Net Profit", "45", "50")

	return &models.CompanyData{
		Ticker:     "ACME",
		Name:       "Acme Industries Ltd",
		ProfitLoss: pl,
		Quarterly:  q,
		ExpenseBreakdown: map[string]string{
			"Material Cost": "45%",
			"Employee Cost": "15%",
			"Other Cost":    "10%",
		},
		Segments: []string{"Chemicals", "Textiles"},
	}
}

func bankCompany() *models.CompanyData {
	pl := models.NewTableSection("Mar 2024")
	pl.AddRow("Revenue", "1000")
	pl.AddRow("Interest", "600")
	pl.AddRow("Expenses +", "250")
	pl.AddRow("Financing Profit", "150")
	pl.AddRow("Financing Margin %", "15%")
	pl.AddRow("Other Income +", "100")
	pl.AddRow("Depreciation", "10")
	pl.AddRow("Profit before tax", "240")
	pl.AddRow("Tax %", "25%")
	pl.AddRow("Net Profit +", "180")
	return &models.CompanyData{Ticker: "LENDER", ProfitLoss: pl}
}

type edge struct {
	From, To string
	Value    float64
}

func edges(d *models.FlowDiagram) []edge {
	out := make([]edge, len(d.Links))
	for i, l := range d.Links {
		out[i] = edge{l.Source, l.Target, math.Round(l.Value*100) / 100}
	}
	return out
}

func TestBuildFlow_Ordinary(t *testing.T) {
	d, err := BuildFlow(flowCompany(), "", false)
	if err != nil {
		t.Fatalf("BuildFlow: %v", err)
	}
	if d.Period != "Mar 2024" || d.Schema != models.SchemaOrdinary || d.Kind != models.PeriodAnnual {
		t.Fatalf("period/schema/kind = %s/%s/%s", d.Period, d.Schema, d.Kind)
	}

	want := []edge{
		{"seg_0", "Revenue", 500},
		{"seg_1", "Revenue", 500},
		{"Revenue", "EBITDA", 300},
		{"Revenue", "OpEx", 700},
		{"OpEx", "exp_0", 450},
		{"OpEx", "exp_1", 150},
		{"OpEx", "exp_2", 100},
		{"EBITDA", "Dep", 50},
		{"EBITDA", "Interest", 20},
		{"EBITDA", "PBT", 230},
		{"OtherInc", "PBT", 20},
		{"PBT", "Tax", 62.5},
		{"PBT", "PAT", 180},
		{"PBT", "Minority", 7.5},
	}
	if diff := cmp.Diff(want, edges(d)); diff != "" {
		t.Errorf("links mismatch (-want +got):\n%s", diff)
	}

	nodes := make(map[string]models.FlowNode)
	for _, n := range d.Nodes {
		nodes[n.ID] = n
	}
	if n := nodes["exp_0"]; n.Label != "Materials" || n.Color != "#B91C1C" {
		t.Errorf("largest expense node = %+v", n)
	}
	if n := nodes["OpEx"]; n.PctOfRevenue != 70 {
		t.Errorf("OpEx share = %v, want 70", n.PctOfRevenue)
	}
	if d.Links[0].Color != "rgba(37,99,235,0.35)" {
		t.Errorf("segment link colour = %s", d.Links[0].Color)
	}
}

func TestBuildFlow_Conservation(t *testing.T) {
	d, err := BuildFlow(flowCompany(), "", false)
	if err != nil {
		t.Fatalf("BuildFlow: %v", err)
	}
	in := make(map[string]float64)
	out := make(map[string]float64)
	for _, l := range d.Links {
		out[l.Source] += l.Value
		in[l.Target] += l.Value
	}
	for _, id := range []string{"Revenue", "EBITDA", "OpEx", "PBT"} {
		if math.Abs(in[id]-out[id]) > 1e-6 {
			t.Errorf("%s: in %.2f out %.2f", id, in[id], out[id])
		}
	}
}

func TestBuildFlow_Bank(t *testing.T) {
	d, err := BuildFlow(bankCompany(), "", false)
	if err != nil {
		t.Fatalf("BuildFlow: %v", err)
	}
	if d.Schema != models.SchemaBank {
		t.Fatalf("Schema = %s, want bank", d.Schema)
	}
	want := []edge{
		{"IntIncome", "IntPaid", 600},
		{"IntIncome", "NII", 400},
		{"NII", "OpEx", 250},
		{"OtherInc", "PBT", 100},
		{"NII", "PBT", 150},
		{"NII", "Dep", 10},
		{"PBT", "Tax", 60},
		{"PBT", "PAT", 180},
	}
	if diff := cmp.Diff(want, edges(d)); diff != "" {
		t.Errorf("links mismatch (-want +got):\n%s", diff)
	}
	for _, n := range d.Nodes {
		if n.ID == "Minority" {
			t.Error("no minority node expected when PAT reconciles")
		}
	}
}

func TestBuildFlow_PeriodSelection(t *testing.T) {
	d, err := BuildFlow(flowCompany(), "2023", false)
	if err != nil {
		t.Fatalf("BuildFlow: %v", err)
	}
	if d.Period != "Mar 2023" {
		t.Errorf("Period = %s, want Mar 2023", d.Period)
	}
	for _, n := range d.Nodes {
		if n.ID == "exp_0" {
			t.Error("expense schedule belongs to the latest period only")
		}
	}

	if _, err := BuildFlow(flowCompany(), "Jun 2019", false); !errors.Is(err, ErrPeriodNotFound) {
		t.Errorf("err = %v, want ErrPeriodNotFound", err)
	}
}

func TestBuildFlow_Quarterly(t *testing.T) {
	d, err := BuildFlow(flowCompany(), "", true)
	if err != nil {
		t.Fatalf("BuildFlow: %v", err)
	}
	if d.Kind != models.PeriodQuarterly || d.Period != "Mar 2024" {
		t.Errorf("kind/period = %s/%s", d.Kind, d.Period)
	}
	if got := d.Record.OperatingProfit(); got != 80 {
		t.Errorf("derived operating profit = %v, want 80", got)
	}
}

func TestBuildFlow_NoStatement(t *testing.T) {
	_, err := BuildFlow(&models.CompanyData{Ticker: "EMPTY"}, "", false)
	if !errors.Is(err, ErrNoStatement) {
		t.Errorf("err = %v, want ErrNoStatement", err)
	}
}

func TestWaterfall(t *testing.T) {
	tests := []struct {
		name string
		data *models.CompanyData
		want []string
	}{
		{
			name: "ordinary with minority",
			data: flowCompany(),
			want: []string{
				"Revenue", "Operating Expenses", "Operating Profit (EBITDA)", "Depreciation", "Interest",
				"Other Income", "Profit Before Tax", "Tax", "Minority Interest", "Net Profit (PAT)",
			},
		},
		{
			name: "bank",
			data: bankCompany(),
			want: []string{
				"Total Income", "Interest Expended", "Operating Expenses", "Operating Profit", "Depreciation",
				"Profit Before Tax", "Tax", "Net Profit (PAT)",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := BuildFlow(tt.data, "", false)
			if err != nil {
				t.Fatalf("BuildFlow: %v", err)
			}
			labels := make([]string, len(d.Waterfall))
			for i, r := range d.Waterfall {
				labels[i] = r.Label
			}
			if diff := cmp.Diff(tt.want, labels); diff != "" {
				t.Errorf("rows mismatch (-want +got):\n%s", diff)
			}

			// Every subtotal is the running sum of the rows before it.
			running := 0.0
			for i, r := range d.Waterfall {
				if r.Total {
					if math.Abs(running-r.Value) > 1e-6 {
						t.Errorf("%s = %.2f, rows above sum to %.2f", r.Label, r.Value, running)
					}
					continue
				}
				if i == 0 {
					running = r.Value
					continue
				}
				running += r.Value
			}
		})
	}
}
