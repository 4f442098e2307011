package statement

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/seenimoa/fundalens/pkg/models"
)

const tolerance = 1e-9

func approx(a, b float64) bool { return math.Abs(a-b) <= tolerance*math.Max(1, math.Abs(b)) }

// ordinaryProfitLoss is a five-year statement whose figures satisfy
// every accounting identity exactly.
func ordinaryProfitLoss() *models.TableSection {
	s := models.NewTableSection("Mar 2020", "Mar 2021", "Mar 2022", "Mar 2023", "Mar 2024")
	s.AddRow("Sales", "800", "850", "900", "950", "1,000")
	s.AddRow("Expenses", "560", "595", "630", "665", "700")
	s.AddRow("Operating Profit", "240", "255", "270", "285", "300")
	s.AddRow("OPM %", "30%", "30%", "30%", "30%", "30%")
	s.AddRow("Other Income", "20", "20", "20", "20", "20")
	s.AddRow("Interest", "10", "10", "10", "10", "10")
	s.AddRow("Depreciation", "30", "30", "30", "30", "30")
	s.AddRow("Profit before tax", "220", "235", "250", "265", "280")
	s.AddRow("Tax %", "25%", "25%", "25%", "25%", "25%")
	s.AddRow("Net Profit", "165", "176.25", "187.5", "198.75", "210")
	s.AddRow("EPS in Rs", "16.5", "17.6", "18.8", "19.9", "21")
	return s
}

func bankProfitLoss() *models.TableSection {
	s := models.NewTableSection("Mar 2023", "Mar 2024")
	s.AddRow("Revenue", "900", "1,000")
	s.AddRow("Interest", "550", "600")
	s.AddRow("Expenses", "180", "200")
	s.AddRow("Financing Profit", "170", "200")
	s.AddRow("Financing Margin %", "19%", "20%")
	s.AddRow("Other Income", "90", "100")
	s.AddRow("Depreciation", "10", "10")
	s.AddRow("Profit before tax", "250", "290")
	s.AddRow("Tax %", "25%", "25%")
	s.AddRow("Net Profit", "187.5", "217.5")
	return s
}

func TestResolveMatchModes(t *testing.T) {
	s := models.NewTableSection("Mar 2023", "Mar 2024")
	s.AddRow("Other Interest", "4", "5")
	s.AddRow("Interest", "9", "10")

	tests := []struct {
		name  string
		label string
		mode  MatchMode
		want  []float64
	}{
		{"contains takes first row in page order", "interest", Contains, []float64{4, 5}},
		{"exact skips the longer label", "Interest", Exact, []float64{9, 10}},
		{"exact is case insensitive", "INTEREST", Exact, []float64{9, 10}},
		{"missing row", "Borrowings", Contains, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(s, tt.label, tt.mode, 0)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Resolve(%q, %v) mismatch (-want +got):\n%s", tt.label, tt.mode, diff)
			}
		})
	}
}

func TestResolveLastN(t *testing.T) {
	got := Resolve(ordinaryProfitLoss(), "Sales", Contains, 3)
	if diff := cmp.Diff([]float64{900, 950, 1000}, got); diff != "" {
		t.Errorf("Resolve last 3 mismatch (-want +got):\n%s", diff)
	}
	if got := Resolve(nil, "Sales", Contains, 3); got != nil {
		t.Errorf("Resolve on nil section = %v, want nil", got)
	}
}

func TestResolveFirstFallsBack(t *testing.T) {
	s := models.NewTableSection("Mar 2024")
	s.AddRow("Sales", "0")
	s.AddRow("Total Income", "450")

	vals, used, ok := ResolveFirst(s, 0, TopLineChain...)
	if !ok {
		t.Fatal("expected a match")
	}
	if used != Like("Total Income") {
		t.Errorf("used = %v, want contains:Total Income", used)
	}
	if diff := cmp.Diff([]float64{450}, vals); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}

	empty := models.NewTableSection("Mar 2024")
	empty.AddRow("Sales", "-")
	vals, _, ok = ResolveFirst(empty, 0, TopLineChain...)
	if ok {
		t.Error("all-zero chain should not report ok")
	}
	if diff := cmp.Diff([]float64{0}, vals); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestValueAt(t *testing.T) {
	s := models.NewTableSection("Mar 2023", "Mar 2024")
	s.AddRow("Net Profit (short)", "12")
	s.AddRow("Net Profit", "12", "15")

	if got := ValueAt(s, Like("Net Profit"), 1); got != 15 {
		t.Errorf("ValueAt = %f, want 15 from the row reaching index 1", got)
	}
	if got := ValueAt(s, Like("Net Profit"), 5); got != 0 {
		t.Errorf("ValueAt out of range = %f, want 0", got)
	}
}

func TestClassify(t *testing.T) {
	revenueOnly := models.NewTableSection("Mar 2024")
	revenueOnly.AddRow("Revenue", "1000")
	revenueOnly.AddRow("OPM %", "20%")

	both := models.NewTableSection("Mar 2024")
	both.AddRow("Sales", "1000")
	both.AddRow("Revenue", "1000")
	both.AddRow("OPM %", "20%")

	financingMargin := models.NewTableSection("Mar 2024")
	financingMargin.AddRow("Sales", "1000")
	financingMargin.AddRow("Financing Margin %", "12%")

	tests := []struct {
		name    string
		section *models.TableSection
		want    models.Schema
		topLine Lookup
	}{
		{"revenue without sales is a bank", revenueOnly, models.SchemaBank, Is("Revenue")},
		{"sales and revenue is ordinary", both, models.SchemaOrdinary, Like("Sales")},
		{"financing margin is a bank", financingMargin, models.SchemaBank, Like("Sales")},
		{"bank fixture", bankProfitLoss(), models.SchemaBank, Is("Revenue")},
		{"ordinary fixture", ordinaryProfitLoss(), models.SchemaOrdinary, Like("Sales")},
		{"empty section", nil, models.SchemaOrdinary, Lookup{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Classify(tt.section, 12)
			if c.Schema != tt.want {
				t.Errorf("Schema = %s, want %s", c.Schema, tt.want)
			}
			if c.TopLine != tt.topLine {
				t.Errorf("TopLine = %v, want %v", c.TopLine, tt.topLine)
			}
		})
	}
}

func TestDerivePeriodOperatingProfitFromExpenses(t *testing.T) {
	s := models.NewTableSection("Mar 2024")
	s.AddRow("Sales", "1000")
	s.AddRow("Expenses", "700")

	rec := DerivePeriod(s, 0, models.PeriodAnnual, models.SchemaOrdinary)
	if rec.Ordinary == nil || rec.Bank != nil {
		t.Fatalf("expected ordinary variant, got %+v", rec)
	}
	if rec.Ordinary.OperatingProfit != 300 {
		t.Errorf("OperatingProfit = %f, want 300", rec.Ordinary.OperatingProfit)
	}
	if rec.Ordinary.OPM != 30 {
		t.Errorf("OPM = %f, want 30", rec.Ordinary.OPM)
	}
}

func TestDerivePeriodExpensesFromOperatingProfit(t *testing.T) {
	s := models.NewTableSection("Mar 2024")
	s.AddRow("Sales", "1000")
	s.AddRow("Operating Profit", "250")

	rec := DerivePeriod(s, 0, models.PeriodAnnual, models.SchemaOrdinary)
	if rec.Ordinary.Expenses != 750 {
		t.Errorf("Expenses = %f, want 750", rec.Ordinary.Expenses)
	}
	if rec.Ordinary.OPM != 25 {
		t.Errorf("OPM = %f, want 25", rec.Ordinary.OPM)
	}
}

func TestTaxAmount(t *testing.T) {
	tests := []struct {
		name             string
		pbt, taxPct, net float64
		want             float64
	}{
		{"rate preferred over residual", 100, 25, 70, 25},
		{"residual without rate", 100, 0, 70, 30},
		{"loss year", -50, 25, -40, 0},
		{"nothing reported", 100, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TaxAmount(tt.pbt, tt.taxPct, tt.net); !approx(got, tt.want) {
				t.Errorf("TaxAmount(%v, %v, %v) = %f, want %f", tt.pbt, tt.taxPct, tt.net, got, tt.want)
			}
		})
	}
}

func TestMinorityInterest(t *testing.T) {
	tests := []struct {
		name          string
		pbt, tax, net float64
		want          float64
	}{
		{"gap beyond tolerance", 100, 25, 70, 5},
		{"rounding gap", 100, 25, 74.5, 0},
		{"loss", -10, 0, -10, 0},
		{"negative gap", 100, 25, 80, -5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MinorityInterest(tt.pbt, tt.tax, tt.net); !approx(got, tt.want) {
				t.Errorf("MinorityInterest = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestDeriveRecordsIdentities(t *testing.T) {
	records := DeriveRecords(ordinaryProfitLoss(), models.PeriodAnnual, models.SchemaOrdinary, nil)
	if len(records) != 5 {
		t.Fatalf("len(records) = %d, want 5", len(records))
	}
	for _, r := range records {
		t.Run(r.Period, func(t *testing.T) {
			o := r.Ordinary
			if !approx(o.Sales, o.Expenses+o.OperatingProfit) {
				t.Errorf("sales %f != expenses %f + op %f", o.Sales, o.Expenses, o.OperatingProfit)
			}
			if !approx(o.OperatingProfit-r.Depreciation-r.Interest+r.OtherIncome, r.PBT) {
				t.Errorf("op - dep - interest + other != pbt %f", r.PBT)
			}
			if !approx(r.PBT-r.Tax-r.MinorityInterest, r.NetProfit) {
				t.Errorf("pbt - tax - minority != net %f", r.NetProfit)
			}
			if !approx(r.Reconciliation.Gap, 0) {
				t.Errorf("Gap = %f, want 0", r.Reconciliation.Gap)
			}
			if !approx(r.EBIT, o.OperatingProfit-r.Depreciation) {
				t.Errorf("EBIT = %f", r.EBIT)
			}
		})
	}

	latest := records[4]
	if !approx(latest.YoYRevenue, (1000.0/950-1)*100) {
		t.Errorf("YoYRevenue = %f", latest.YoYRevenue)
	}
	if !approx(latest.NPM, 21) {
		t.Errorf("NPM = %f, want 21", latest.NPM)
	}
	if records[0].YoYRevenue != 0 {
		t.Errorf("first period YoYRevenue = %f, want 0", records[0].YoYRevenue)
	}
}

func TestDeriveRecordsMinorityGap(t *testing.T) {
	s := models.NewTableSection("Mar 2024")
	s.AddRow("Sales", "1000")
	s.AddRow("Expenses", "700")
	s.AddRow("Profit before tax", "280")
	s.AddRow("Tax %", "25%")
	s.AddRow("Net Profit", "200")

	rec := DeriveRecords(s, models.PeriodAnnual, models.SchemaOrdinary, nil)[0]
	if !approx(rec.Tax, 70) {
		t.Errorf("Tax = %f, want 70", rec.Tax)
	}
	if !approx(rec.MinorityInterest, 10) {
		t.Errorf("MinorityInterest = %f, want 10", rec.MinorityInterest)
	}
	if !approx(rec.PBT-rec.Tax-rec.MinorityInterest, rec.NetProfit) {
		t.Error("pbt - tax - minority should equal net profit")
	}
}

func TestDeriveRecordsFillsMissingPBTAndNet(t *testing.T) {
	s := models.NewTableSection("Mar 2024")
	s.AddRow("Sales", "1000")
	s.AddRow("Expenses", "700")
	s.AddRow("Other Income", "20")
	s.AddRow("Interest", "10")
	s.AddRow("Depreciation", "30")
	s.AddRow("Tax %", "25%")

	rec := DeriveRecords(s, models.PeriodAnnual, models.SchemaOrdinary, nil)[0]
	if !rec.Reconciliation.PBTDerived || !approx(rec.PBT, 280) {
		t.Errorf("PBT = %f derived=%v, want 280 derived", rec.PBT, rec.Reconciliation.PBTDerived)
	}
	if !rec.Reconciliation.NetDerived || !approx(rec.NetProfit, 210) {
		t.Errorf("NetProfit = %f derived=%v, want 210 derived", rec.NetProfit, rec.Reconciliation.NetDerived)
	}
}

func TestDeriveRecordsBank(t *testing.T) {
	records := DeriveRecords(bankProfitLoss(), models.PeriodAnnual, models.SchemaBank, map[string]float64{"Employee Cost": 10, "Other": 5})
	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(records))
	}
	rec := records[1]
	if rec.Ordinary != nil || rec.Bank == nil {
		t.Fatalf("expected bank variant, got %+v", rec)
	}

	want := models.BankStatement{
		Revenue:           1000,
		InterestPaid:      600,
		NetInterestIncome: 400,
		TotalIncome:       1100,
		Expenses:          200,
		FinancingProfit:   200,
		OperatingProfit:   300,
		Margin:            300.0 * 100 / 1100,
	}
	if diff := cmp.Diff(want, *rec.Bank, cmpopts.EquateApprox(0, tolerance)); diff != "" {
		t.Errorf("bank statement mismatch (-want +got):\n%s", diff)
	}
	if !approx(rec.Reconciliation.ComputedPBT, 290) {
		t.Errorf("ComputedPBT = %f, want 290", rec.Reconciliation.ComputedPBT)
	}
	if !approx(rec.YoYRevenue, (1100.0/990-1)*100) {
		t.Errorf("YoYRevenue = %f, want growth in total income", rec.YoYRevenue)
	}
	if !approx(rec.Tax, 72.5) || rec.MinorityInterest != 0 {
		t.Errorf("Tax = %f, MinorityInterest = %f", rec.Tax, rec.MinorityInterest)
	}
}

func TestDeriveRecordsEmpty(t *testing.T) {
	if got := DeriveRecords(nil, models.PeriodAnnual, models.SchemaOrdinary, nil); got != nil {
		t.Errorf("DeriveRecords(nil) = %v, want nil", got)
	}
	if got := DeriveRecords(&models.TableSection{}, models.PeriodQuarterly, models.SchemaOrdinary, nil); got != nil {
		t.Errorf("DeriveRecords(empty) = %v, want nil", got)
	}
}

func TestDeriveRecordsAttachesBreakdownToLatest(t *testing.T) {
	records := DeriveRecords(ordinaryProfitLoss(), models.PeriodAnnual, models.SchemaOrdinary,
		map[string]float64{"Material Cost": 40, "Employee Cost": 20, "Other Cost": 10})

	if len(records[0].Ordinary.ExpenseBreakdown) != 0 {
		t.Error("breakdown should only be attached to the latest period")
	}
	cats := records[4].Ordinary.ExpenseBreakdown
	if len(cats) != 3 {
		t.Fatalf("len(breakdown) = %d, want 3", len(cats))
	}
	var sum float64
	for _, c := range cats {
		sum += c.Amount
	}
	if !approx(sum, 700) {
		t.Errorf("breakdown sum = %f, want 700", sum)
	}
	if cats[0].Name != "Material Cost" {
		t.Errorf("largest category = %s, want Material Cost", cats[0].Name)
	}
}

func TestRescaleExpenses(t *testing.T) {
	pcts := map[string]float64{"Raw Material": 50, "Employee Cost": 30, "Other": 15}
	cats := RescaleExpenses(1000, 200, pcts)

	if len(cats) != 3 {
		t.Fatalf("len = %d, want 3", len(cats))
	}
	var sum float64
	byName := map[string]float64{}
	for _, c := range cats {
		sum += c.Amount
		byName[c.Name] = c.Amount
	}
	if !approx(sum, 200) {
		t.Errorf("sum = %.12f, want 200", sum)
	}
	if !approx(byName["Raw Material"]/byName["Employee Cost"], 50.0/30) {
		t.Errorf("ratio raw/employee = %f, want %f", byName["Raw Material"]/byName["Employee Cost"], 50.0/30)
	}
	if !approx(byName["Employee Cost"]/byName["Other"], 2) {
		t.Errorf("ratio employee/other = %f, want 2", byName["Employee Cost"]/byName["Other"])
	}
	for i := 1; i < len(cats); i++ {
		if cats[i].Amount > cats[i-1].Amount {
			t.Errorf("not sorted by amount: %v", cats)
		}
	}
}

func TestRescaleExpensesSingleCategory(t *testing.T) {
	cats := RescaleExpenses(1000, 200, map[string]float64{"Employee Cost": 15})
	if len(cats) != 1 || !approx(cats[0].Amount, 150) {
		t.Errorf("single category should not be rescaled: %+v", cats)
	}
	if got := RescaleExpenses(1000, 200, nil); got != nil {
		t.Errorf("RescaleExpenses(nil) = %v, want nil", got)
	}
}

func TestParseBreakdown(t *testing.T) {
	got := ParseBreakdown(map[string]string{
		"Material Cost %": "42.5 %",
		"Employee Cost %": "18",
		"Manufacturing +": "0",
		"Power and Fuel":  "",
	})
	want := map[string]float64{"Material Cost %": 42.5, "Employee Cost %": 18}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseBreakdown mismatch (-want +got):\n%s", diff)
	}
}

func TestCompleteness(t *testing.T) {
	pl := Completeness(models.StatementProfitLoss, ordinaryProfitLoss())
	if pl.RowsFound != pl.RowsExpected || pl.Ratio != 1 || pl.Periods != 5 {
		t.Errorf("profit loss completeness = %+v, want full", pl)
	}

	cf := Completeness(models.StatementCashFlow, &models.TableSection{})
	want := models.DataCompleteness{Statement: models.StatementCashFlow, RowsExpected: 4}
	if diff := cmp.Diff(want, cf); diff != "" {
		t.Errorf("empty cash flow completeness mismatch (-want +got):\n%s", diff)
	}

	partial := models.NewTableSection("Mar 2024")
	partial.AddRow("Cash from Operating Activity", "120")
	partial.AddRow("Net Cash Flow", "0")
	got := Completeness(models.StatementCashFlow, partial)
	if got.RowsFound != 1 || got.Ratio != 0.25 {
		t.Errorf("partial completeness = %+v, want 1 of 4", got)
	}
}
