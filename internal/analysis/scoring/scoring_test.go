package scoring

import (
	"math"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/seenimoa/fundalens/pkg/models"
)

func healthyCompany() Sources {
	return Sources{
		Market: &models.MarketSnapshot{
			CurrentPrice:  1200,
			PE:            12,
			PB:            2.5,
			DividendYield: 3.5,
			ROE:           22,
			ROCE:          18,
			High52W:       1300,
			Low52W:        900,
		},
		Growth: map[string]map[string]float64{
			"Compounded Sales Growth":  {"3 Years": 16},
			"Compounded Profit Growth": {"3 Years": 18},
		},
		ProfitLoss: &models.PLAnalysis{
			SalesCAGR5Y:  18,
			ProfitCAGR5Y: 20,
			Consistency:  1,
			OPMLatest:    22,
			MarginTrend:  models.TrendStable,
		},
		Quarterly: &models.QuarterlyAnalysis{ProfitYoY: 12},
		BalanceSheet: &models.BalanceSheetAnalysis{
			DebtToEquity:    0.05,
			HasDebtToEquity: true,
			DebtTrend:       models.TrendDecreasing,
		},
		CashFlow: &models.CashFlowAnalysis{
			CFOConsistency:   1,
			FCFPositiveYears: 5,
			TotalYears:       5,
			FCFHistory:       []float64{10, 20, 30, 40, 50},
			FCFLatest:        50,
		},
		Shareholding: &models.ShareholdingAnalysis{
			PromoterLatest:  55,
			PromoterHistory: []float64{55},
			PromoterTrend:   models.TrendStable,
			FIITrend:        models.TrendIncreasing,
			DIITrend:        models.TrendStable,
		},
	}
}

func TestHealthyCompany(t *testing.T) {
	in := Collect(healthyCompany())

	v := Valuation(in)
	if v.Score != 81 {
		t.Errorf("valuation score = %f, want 81", v.Score)
	}
	if v.Verdict != "Undervalued" {
		t.Errorf("verdict = %q, want Undervalued", v.Verdict)
	}

	q := Quality(in)
	if q.Score != 80 || q.Grade != "A+" {
		t.Errorf("quality = %f %q, want 80 A+", q.Score, q.Grade)
	}

	flags := Flags(in)
	green := models.Messages(flags.Green)
	for _, want := range []string{"Low PE (12.0)", "High ROE (22.0%)", "Virtually debt-free"} {
		if !slices.Contains(green, want) {
			t.Errorf("green flags %v missing %q", green, want)
		}
	}
	if len(flags.Red) != 0 {
		t.Errorf("red flags = %v, want none", models.Messages(flags.Red))
	}
}

func TestFlagsAreDisjoint(t *testing.T) {
	f := Flags(Collect(healthyCompany()))
	seen := map[string]string{}
	for color, list := range map[string][]models.Flag{"green": f.Green, "amber": f.Amber, "red": f.Red} {
		for _, fl := range list {
			if prev, ok := seen[fl.Message]; ok {
				t.Errorf("%q in both %s and %s", fl.Message, prev, color)
			}
			seen[fl.Message] = color
		}
	}
}

func TestFlagEvidence(t *testing.T) {
	f := Flags(Collect(healthyCompany()))
	for _, fl := range f.Green {
		if fl.Message == "Low PE (12.0)" {
			if fl.Evidence == nil || *fl.Evidence != 12 {
				t.Errorf("evidence = %v, want 12", fl.Evidence)
			}
			return
		}
	}
	t.Error("Low PE flag not found")
}

func TestQualityWithoutCashFlow(t *testing.T) {
	src := healthyCompany()
	src.CashFlow = nil
	in := Collect(src)
	if _, ok := in.Metrics[MetricCFOConsistency]; ok {
		t.Fatal("cash flow metric present without a cash flow statement")
	}
	q := Quality(in)
	if q.Score != 65 || q.Grade != "A" {
		t.Errorf("quality = %f %q, want 65 A", q.Score, q.Grade)
	}
}

func TestMissingInputsSkipRules(t *testing.T) {
	in := NewInputs()
	v := Valuation(in)
	if v.Score != ValuationBase || v.Verdict != DefaultVerdict {
		t.Errorf("valuation = %f %q, want base and default verdict", v.Score, v.Verdict)
	}
	q := Quality(in)
	if q.Score != 0 || q.Grade != DefaultGrade || len(q.Details) != 0 {
		t.Errorf("quality = %+v", q)
	}
	f := Flags(in)
	if len(f.Green)+len(f.Amber)+len(f.Red) != 0 {
		t.Errorf("flags = %+v, want none", f)
	}
	if tech := Technical(in); len(tech.Signals) != 0 || tech.PosIn52WRange != 0.5 {
		t.Errorf("technical = %+v", tech)
	}
}

func TestValuationPEBands(t *testing.T) {
	tests := []struct {
		pe     float64
		points float64
		text   string
	}{
		{8, 15, "PE < 10 - Deep value"},
		{10, 8, "PE 10-20 - Reasonably valued"},
		{25, 0, "PE 20-35 - Growth premium"},
		{40, -10, "PE 35-60 - Expensive"},
		{75, -15, "PE > 60 - Very expensive"},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			in := NewInputs()
			in.Metrics[MetricPE] = tt.pe
			v := Valuation(in)
			if v.Score != ValuationBase+tt.points {
				t.Errorf("score = %f, want %f", v.Score, ValuationBase+tt.points)
			}
			want := []models.Signal{{Tone: v.Signals[0].Tone, Message: tt.text}}
			if diff := cmp.Diff(want, v.Signals); diff != "" {
				t.Errorf("signals mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNonPositivePEIsIgnored(t *testing.T) {
	in := NewInputs()
	in.Metrics[MetricPE] = -4
	if v := Valuation(in); v.Score != ValuationBase || len(v.Signals) != 0 {
		t.Errorf("valuation = %+v, want untouched", v)
	}
}

func TestVerdictCutoffs(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{100, "Undervalued"},
		{70, "Undervalued"},
		{65, "Attractively Valued"},
		{60, "Attractively Valued"},
		{50, "Fairly Valued"},
		{40, "Expensive"},
		{31, "Expensive"},
		{30, "Overvalued"},
		{0, "Overvalued"},
	}
	for _, tt := range tests {
		if got := pick(VerdictCutoffs, DefaultVerdict, tt.score); got != tt.want {
			t.Errorf("verdict(%v) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestGradeCutoffs(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{80, "A+"},
		{79, "A"},
		{65, "A"},
		{50, "B+"},
		{40, "B"},
		{25, "C"},
		{24.9, "D"},
		{0, "D"},
	}
	for _, tt := range tests {
		if got := pick(GradeCutoffs, DefaultGrade, tt.score); got != tt.want {
			t.Errorf("grade(%v) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestScoresAreClamped(t *testing.T) {
	in := NewInputs()
	in.Metrics[MetricPE] = 90
	in.Metrics[MetricPB] = 9
	in.Metrics[MetricPEG] = 4
	in.Metrics[MetricROE] = 2
	in.Metrics[MetricDebtToEquity] = 3
	in.Labels[LabelMarginTrend] = models.TrendContracting

	if v := Valuation(in); v.Score != 17 {
		t.Errorf("valuation = %f, want 17", v.Score)
	}
	if q := Quality(in); q.Score != 0 {
		t.Errorf("quality = %f, want clamped to 0", q.Score)
	}
}

func TestTechnical(t *testing.T) {
	in := Collect(Sources{
		Market:       &models.MarketSnapshot{CurrentPrice: 1280, High52W: 1300, Low52W: 900},
		Shareholding: &models.ShareholdingAnalysis{FIITrend: models.TrendDecreasing, PromoterTrend: models.TrendIncreasing},
	})
	tech := Technical(in)
	if math.Abs(tech.PosIn52WRange-0.95) > 1e-9 {
		t.Errorf("PosIn52WRange = %f, want 0.95", tech.PosIn52WRange)
	}
	var messages []string
	for _, s := range tech.Signals {
		messages = append(messages, s.Message)
	}
	want := []string{
		"Near 52W High - Momentum strong",
		"-1.5% from 52W High, +42.2% from 52W Low",
		"FII decreasing - Institutional selling",
		"Promoter stake increasing - Confidence signal",
	}
	if diff := cmp.Diff(want, messages); diff != "" {
		t.Errorf("signals mismatch (-want +got):\n%s", diff)
	}
}

func TestRangePositionDegenerate(t *testing.T) {
	if got := rangePosition(100, 100, 100); got != 0.5 {
		t.Errorf("rangePosition = %f, want 0.5", got)
	}
}

func TestGrowthFallsBackToSeries(t *testing.T) {
	pl := &models.PLAnalysis{
		ProfitHistory: []float64{50, 60, 70, 80},
		ProfitCAGR3Y:  16.96,
		SalesHistory:  []float64{100, 110, 120},
		SalesCAGR3Y:   0,
	}
	in := Collect(Sources{ProfitLoss: pl, Market: &models.MarketSnapshot{PE: 17}})
	if got := in.Metrics[MetricProfitGrowth3Y]; got != 16.96 {
		t.Errorf("profit growth = %f, want 16.96", got)
	}
	if _, ok := in.Metrics[MetricSalesGrowth3Y]; ok {
		t.Error("sales growth set from a three-year series")
	}
	if got := in.Metrics[MetricPEG]; math.Abs(got-17/16.96) > 1e-9 {
		t.Errorf("PEG = %f", got)
	}
}

func TestTechnicalWithoutRange(t *testing.T) {
	in := Collect(Sources{
		Market:       &models.MarketSnapshot{PE: 20, Missing: []string{models.RatioCurrentPrice, models.RatioHighLow}},
		Shareholding: &models.ShareholdingAnalysis{FIITrend: models.TrendIncreasing},
	})
	tech := Technical(in)
	if tech.PosIn52WRange != 0.5 {
		t.Errorf("PosIn52WRange = %f, want 0.5", tech.PosIn52WRange)
	}
	want := []string{"FII increasing - Institutional confidence"}
	var messages []string
	for _, s := range tech.Signals {
		messages = append(messages, s.Message)
	}
	if diff := cmp.Diff(want, messages); diff != "" {
		t.Errorf("signals mismatch (-want +got):\n%s", diff)
	}
}

func TestCollectSkipsMissingRatios(t *testing.T) {
	in := Collect(Sources{Market: &models.MarketSnapshot{
		PE: 25,
		Missing: []string{
			models.RatioPB, models.RatioDividendYield, models.RatioROE,
			models.RatioROCE, models.RatioCurrentPrice, models.RatioHighLow,
		},
	}})
	for _, metric := range []Metric{MetricPB, MetricDividendYield, MetricROE, MetricROCE, MetricPrice, MetricRangePosition} {
		if v, ok := in.Metrics[metric]; ok {
			t.Errorf("metric %s = %f, want absent", metric, v)
		}
	}
	if got := in.Metrics[MetricPE]; got != 25 {
		t.Errorf("PE = %f, want 25", got)
	}

	v := Valuation(in)
	for _, s := range v.Signals {
		if strings.Contains(s.Message, "ROE") {
			t.Errorf("valuation scored a missing ROE: %q", s.Message)
		}
	}
	if q := Quality(in); len(q.Details) != 0 {
		t.Errorf("quality details = %v, want none", q.Details)
	}
}

func TestCollectSkipsUndefinedDebtToEquity(t *testing.T) {
	in := Collect(Sources{BalanceSheet: &models.BalanceSheetAnalysis{
		ShareholderEquity: -800,
		Borrowings:        5000,
		DebtTrend:         models.TrendStable,
	}})
	if _, ok := in.Metrics[MetricDebtToEquity]; ok {
		t.Fatal("D/E collected without positive equity")
	}
	if q := Quality(in); q.Score != 0 || len(q.Details) != 0 {
		t.Errorf("quality = %+v, want no debt rule", q)
	}
	f := Flags(in)
	for _, flag := range f.Green {
		if strings.Contains(flag.Message, "debt") {
			t.Errorf("green flag %q for a company without equity", flag.Message)
		}
	}
}
