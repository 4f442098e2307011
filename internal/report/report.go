// Package report renders an analysis for people: a terminal report, an
// HTML scorecard with SVG charts, a multi-company summary table and the
// income flow model. Absent metrics always print as N/A.
package report

import (
	"bytes"
	"fmt"
	"html/template"
	"math"
	"sort"
	"strings"

	"github.com/seenimoa/fundalens/internal/statement"
	"github.com/seenimoa/fundalens/pkg/models"
	"github.com/seenimoa/fundalens/pkg/utils"
)

// ════════════════════════════════════════════════════════════════════
// Configuration
// ════════════════════════════════════════════════════════════════════

// ReportConfig controls report generation.
type ReportConfig struct {
	Brief    bool        // text report: scorecard, metrics and flags only
	Title    string      // HTML title (default: "<Name> (<Ticker>) scorecard")
	ChartCfg ChartConfig // chart size for the HTML scorecard
}

// DefaultReportConfig returns the full report with default charts.
func DefaultReportConfig() ReportConfig {
	return ReportConfig{ChartCfg: DefaultChartConfig()}
}

const (
	textWidth      = 64
	quarterColumns = 6
	ratioColumns   = 4
	peerRows       = 8
)

// Rows printed in the key ratios block.
var keyRatioRows = []string{
	"Debtor Days",
	"Inventory Days",
	"Days Payable",
	"Cash Conversion Cycle",
	"Working Capital Days",
	"ROCE %",
}

// ════════════════════════════════════════════════════════════════════
// Text report
// ════════════════════════════════════════════════════════════════════

// GenerateText renders the terminal report. data is optional and adds
// the sections that only the raw scrape carries (key ratios, segments,
// peers, source URL).
func GenerateText(res *models.AnalysisResult, data *models.CompanyData, cfg ReportConfig) (string, error) {
	if res == nil {
		return "", fmt.Errorf("analysis is nil")
	}
	if data == nil {
		data = &models.CompanyData{}
	}

	w := &textWriter{}
	line := strings.Repeat("═", textWidth)

	basis := "Standalone"
	if res.Consolidated {
		basis = "Consolidated"
	}
	w.raw("\n" + line + "\n")
	w.linef("%s (%s)", nonEmpty(res.Name, res.Ticker), res.Ticker)
	w.linef("%s | %s", basis, ReportTimestamp())
	w.raw(line + "\n")

	w.section("SCORECARD")
	w.linef("Quality   : %-4s %3.0f/100  %s", res.Quality.Grade, res.Quality.Score, scoreBar(res.Quality.Score))
	w.linef("Valuation : %-20s %3.0f/100  %s", res.Valuation.Verdict, res.Valuation.Score, scoreBar(res.Valuation.Score))

	writeKeyMetrics(w, res)

	if cfg.Brief {
		writeFlags(w, res.Flags)
		writeFooter(w, data, line)
		return w.String(), nil
	}

	writeProfitLoss(w, res)
	writeGrowth(w, res.Growth)
	writeQuarterly(w, res.QuarterlyRecords)
	writeBalanceSheet(w, res.BalanceSheet)
	writeCashFlow(w, res.CashFlow)
	writeShareholding(w, res.Shareholding)
	if len(data.Segments) > 0 {
		w.section("BUSINESS SEGMENTS")
		for _, s := range data.Segments {
			w.linef("• %s", s)
		}
	}
	writeKeyRatios(w, data.Ratios)
	writeCompleteness(w, res.Completeness)
	writeSignals(w, "VALUATION SIGNALS", res.Valuation.Signals)
	writeSignals(w, "TECHNICAL SIGNALS", res.Technical.Signals)
	if len(res.Quality.Details) > 0 {
		w.section("QUALITY DRIVERS")
		for _, d := range res.Quality.Details {
			w.linef("• %s", d)
		}
	}
	writeFlags(w, res.Flags)
	writeProsCons(w, res.Pros, res.Cons)
	writePeers(w, data.Peers)
	writeFooter(w, data, line)
	return w.String(), nil
}

type textWriter struct {
	strings.Builder
}

func (w *textWriter) raw(s string) { w.WriteString(s) }

func (w *textWriter) linef(format string, args ...any) {
	w.WriteString("  ")
	fmt.Fprintf(w, format, args...)
	w.WriteString("\n")
}

func (w *textWriter) section(title string) {
	w.WriteString("\n  ■ " + title + "\n")
	w.WriteString("  " + strings.Repeat("─", textWidth-2) + "\n")
}

func writeKeyMetrics(w *textWriter, res *models.AnalysisResult) {
	m := res.Market
	w.section("KEY METRICS")
	left := [][2]string{
		{"Market Cap", utils.FormatCrores(m.MarketCap)},
		{"Price", inr(m.CurrentPrice)},
		{"52W High / Low", highLow(m.High52W, m.Low52W)},
		{"P/E", utils.FormatRatio(m.PE)},
		{"P/B", utils.FormatRatio(m.PB)},
	}
	right := [][2]string{
		{"Book Value", inr(m.BookValue)},
		{"Div Yield", pctPlain(m.DividendYield)},
		{"Face Value", inr(m.FaceValue)},
		{"ROCE", pctPlain(m.ROCE)},
		{"ROE", pctPlain(m.ROE)},
	}
	for i := range left {
		w.linef("%-15s %-18s %-12s %s", left[i][0], left[i][1], right[i][0], right[i][1])
	}
	if m.CurrentPrice > 0 && m.High52W > m.Low52W && m.Low52W > 0 {
		w.linef("52W range  %s [%s] %s  (%.0f%%)",
			inr(m.Low52W), RangeBar(res.Technical.PosIn52WRange, 30), inr(m.High52W), res.Technical.PosIn52WRange*100)
	}
}

func writeProfitLoss(w *textWriter, res *models.AnalysisResult) {
	pl := res.ProfitLoss
	if pl == nil {
		return
	}
	marginLabel := "OPM"
	if pl.Schema == models.SchemaBank {
		marginLabel = "Financing Margin"
	}
	w.section("PROFIT & LOSS")
	w.linef("%-18s %-18s %s", "Sales", utils.FormatCrores(pl.SalesLatest), Sparkline(pl.SalesHistory))
	w.linef("%-18s %-18s %s", "Net Profit", utils.FormatCrores(pl.NetProfitLatest), Sparkline(pl.ProfitHistory))
	w.linef("%-18s %-18s %s", marginLabel, pctPlain(pl.OPMLatest), Sparkline(pl.OPMHistory))
	w.linef("%-18s %s", "NPM", pctPlain(pl.NPMLatest))
	w.linef("%-18s %s", "EPS", inr(pl.EPSLatest))
	w.linef("%-18s 3Y %-10s 5Y %s", "Sales CAGR", utils.FormatPctOrNA(pl.SalesCAGR3Y), utils.FormatPctOrNA(pl.SalesCAGR5Y))
	w.linef("%-18s 3Y %-10s 5Y %s", "Profit CAGR", utils.FormatPctOrNA(pl.ProfitCAGR3Y), utils.FormatPctOrNA(pl.ProfitCAGR5Y))
	w.linef("%-18s %s", "Margin trend", pl.MarginTrend)
	w.linef("%-18s %.0f%% of years", "Profit growth", pl.Consistency*100)

	if n := len(res.AnnualRecords); n > 0 {
		if gap := res.AnnualRecords[n-1].Reconciliation.Gap; math.Abs(gap) > 1 {
			w.linef("%-18s %s vs operating figures", "PBT gap", utils.FormatCrores(gap))
		}
	}
}

func writeGrowth(w *textWriter, growth map[string]map[string]float64) {
	if len(growth) == 0 {
		return
	}
	w.section("GROWTH")
	for _, cat := range sortedKeys(growth) {
		periods := growth[cat]
		parts := make([]string, 0, len(periods))
		for _, p := range sortedKeys(periods) {
			parts = append(parts, fmt.Sprintf("%s %s", p, pctPlain(periods[p])))
		}
		w.linef("%-28s %s", cat, strings.Join(parts, " | "))
	}
}

func writeQuarterly(w *textWriter, records []models.PeriodRecord) {
	if len(records) == 0 {
		return
	}
	if len(records) > quarterColumns {
		records = records[len(records)-quarterColumns:]
	}
	w.section("QUARTERLY TREND")
	w.linef("%-10s %14s %14s %8s %9s", "Quarter", "Revenue", "Net Profit", "Margin", "Profit Δ")
	for _, r := range records {
		chg := utils.NA
		if r.YoYProfit != 0 {
			chg = fmt.Sprintf("%+.0f%%", r.YoYProfit)
		}
		w.linef("%-10s %14s %14s %8s %9s", r.Period, utils.FormatCrores(r.TopLine()),
			utils.FormatCrores(r.NetProfit), pctPlain(r.Margin()), chg)
	}
}

func writeBalanceSheet(w *textWriter, bs *models.BalanceSheetAnalysis) {
	if bs == nil {
		return
	}
	w.section("BALANCE SHEET")
	w.linef("%-18s %s", "Equity", utils.FormatCrores(bs.ShareholderEquity))
	w.linef("%-18s %-18s %s", "Borrowings", utils.FormatCrores(bs.Borrowings), Sparkline(bs.BorrowingsHistory))
	de := utils.NA
	if bs.HasDebtToEquity {
		de = utils.FormatRatio(bs.DebtToEquity)
	}
	w.linef("%-18s %s (%s)", "Debt / Equity", de, bs.DebtTrend)
	w.linef("%-18s %s", "Total Assets", utils.FormatCrores(bs.TotalAssets))
	w.linef("%-18s %s", "Fixed Assets", utils.FormatCrores(bs.FixedAssetsLatest))
	w.linef("%-18s %s", "CWIP", utils.FormatCrores(bs.CWIPLatest))
	w.linef("%-18s %s", "Investments", utils.FormatCrores(bs.InvestmentsLatest))
}

func writeCashFlow(w *textWriter, cf *models.CashFlowAnalysis) {
	if cf == nil {
		return
	}
	w.section("CASH FLOW")
	w.linef("%-18s %-18s %s", "Operating (CFO)", utils.FormatCrores(cf.CFOLatest), Sparkline(cf.CFOHistory))
	w.linef("%-18s %s", "Investing (CFI)", utils.FormatCrores(cf.CFILatest))
	w.linef("%-18s %s", "Financing (CFF)", utils.FormatCrores(cf.CFFLatest))
	w.linef("%-18s %-18s %s", "Free Cash Flow", utils.FormatCrores(cf.FCFLatest), Sparkline(cf.FCFHistory))
	w.linef("%-18s %.0f%% of years", "CFO positive", cf.CFOConsistency*100)
	w.linef("%-18s %d of %d years", "FCF positive", cf.FCFPositiveYears, cf.TotalYears)
}

func writeShareholding(w *textWriter, sh *models.ShareholdingAnalysis) {
	if sh == nil || sh.PromoterLatest <= 0 {
		return
	}
	w.section("SHAREHOLDING")
	w.linef("%-12s %7s  %-18s %s", "Promoters", pctPlain(sh.PromoterLatest), sh.PromoterTrend, Sparkline(sh.PromoterHistory))
	w.linef("%-12s %7s  %-18s %s", "FIIs", pctPlain(sh.FIILatest), sh.FIITrend, Sparkline(sh.FIIHistory))
	w.linef("%-12s %7s  %-18s %s", "DIIs", pctPlain(sh.DIILatest), sh.DIITrend, Sparkline(sh.DIIHistory))
	w.linef("%-12s %7s", "Public", pctPlain(sh.PublicLatest))
	if sh.ShareholdersLatest > 0 {
		w.linef("%-12s %.0f", "Holders", sh.ShareholdersLatest)
	}
}

func writeKeyRatios(w *textWriter, ratios *models.TableSection) {
	if ratios.IsEmpty() || len(ratios.Periods) == 0 {
		return
	}
	periods := ratios.Periods
	if len(periods) > ratioColumns {
		periods = periods[len(periods)-ratioColumns:]
	}

	var rows []string
	for _, label := range keyRatioRows {
		values := statement.ResolveLookup(ratios, statement.Like(label), ratioColumns)
		if !statement.HasSignal(values) {
			continue
		}
		cells := make([]string, len(periods))
		offset := len(periods) - len(values)
		for i := range cells {
			cells[i] = utils.NA
			if j := i - offset; j >= 0 && values[j] != 0 {
				cells[i] = utils.FormatRatio(values[j])
			}
		}
		rows = append(rows, fmt.Sprintf("%-24s", label)+padCells(cells))
	}
	if len(rows) == 0 {
		return
	}

	w.section("KEY RATIOS")
	w.linef("%-24s%s", "", padCells(periods))
	for _, r := range rows {
		w.linef("%s", r)
	}
}

func writeCompleteness(w *textWriter, items []models.DataCompleteness) {
	if len(items) == 0 {
		return
	}
	w.section("DATA COMPLETENESS")
	for _, c := range items {
		w.linef("%-15s %2d periods  %2d/%-2d rows  %s", c.Statement, c.Periods, c.RowsFound, c.RowsExpected, RangeBar(c.Ratio, 10))
	}
}

func writeSignals(w *textWriter, title string, signals []models.Signal) {
	if len(signals) == 0 {
		return
	}
	w.section(title)
	for _, s := range signals {
		w.linef("%s %s", toneGlyph(s.Tone), s.Message)
	}
}

func writeFlags(w *textWriter, f models.Flags) {
	w.section("FLAGS")
	w.linef("GREEN")
	if len(f.Green) == 0 {
		w.linef("  None")
	}
	for _, fl := range f.Green {
		w.linef("  ✔ %s", fl.Message)
	}
	if len(f.Amber) > 0 {
		w.linef("AMBER")
		for _, fl := range f.Amber {
			w.linef("  ● %s", fl.Message)
		}
	}
	w.linef("RED")
	if len(f.Red) == 0 {
		w.linef("  None")
	}
	for _, fl := range f.Red {
		w.linef("  ✘ %s", fl.Message)
	}
}

func writeProsCons(w *textWriter, pros, cons []string) {
	if len(pros) == 0 && len(cons) == 0 {
		return
	}
	w.section("PROS & CONS")
	for _, p := range pros {
		w.linef("+ %s", p)
	}
	for _, c := range cons {
		w.linef("- %s", c)
	}
}

func writePeers(w *textWriter, peers []models.Peer) {
	if len(peers) == 0 {
		return
	}
	if len(peers) > peerRows {
		peers = peers[:peerRows]
	}
	w.section("PEER COMPARISON")
	w.linef("%-24s %10s %8s %16s %8s", "Name", "CMP", "P/E", "Mkt Cap", "ROCE")
	for _, p := range peers {
		w.linef("%-24s %10s %8s %16s %8s", truncate(p.Name, 24), utils.FormatRatio(p.Price),
			utils.FormatRatio(p.PE), utils.FormatCrores(p.MarketCap), pctPlain(p.ROCE))
	}
}

func writeFooter(w *textWriter, data *models.CompanyData, line string) {
	w.raw("\n" + line + "\n")
	if data.URL != "" {
		w.linef("Source: %s", data.URL)
	}
	if !data.FetchedAt.IsZero() {
		w.linef("Fetched: %s", utils.FormatDateTimeIST(data.FetchedAt))
	}
	w.linef("Generated: %s", ReportTimestamp())
	w.raw(line + "\n")
}

// ════════════════════════════════════════════════════════════════════
// Batch summary
// ════════════════════════════════════════════════════════════════════

// SummaryTable renders one row per ticker of a multi-company run.
func SummaryTable(items []models.BatchItem) string {
	var sb strings.Builder
	header := fmt.Sprintf("%-14s %-5s %7s  %-20s %9s %5s %5s %5s", "Ticker", "Grade", "Quality", "Verdict", "Valuation", "G", "A", "R")
	sb.WriteString(header + "\n")
	sb.WriteString(strings.Repeat("─", len([]rune(header))) + "\n")
	for _, it := range items {
		if it.Result == nil {
			fmt.Fprintf(&sb, "%-14s ERROR: %s\n", it.Ticker, it.Error)
			continue
		}
		r := it.Result
		fmt.Fprintf(&sb, "%-14s %-5s %7.0f  %-20s %9.0f %5d %5d %5d\n",
			it.Ticker, r.Quality.Grade, r.Quality.Score, r.Valuation.Verdict, r.Valuation.Score,
			len(r.Flags.Green), len(r.Flags.Amber), len(r.Flags.Red))
	}
	return sb.String()
}

// ════════════════════════════════════════════════════════════════════
// HTML scorecard
// ════════════════════════════════════════════════════════════════════

// ReportData is the template model for the HTML scorecard.
type ReportData struct {
	Title       string
	Ticker      string
	CompanyName string
	Basis       string
	GeneratedAt string
	SourceURL   string

	Grade        string
	QualityScore string
	Verdict      string
	ValueScore   string

	Metrics      []RatioRow
	ValSignals   []SignalRow
	TechSignals  []SignalRow
	Details      []string
	Green        []string
	Amber        []string
	Red          []string
	Pros         []string
	Cons         []string
	Completeness []RatioRow

	QualityGauge   template.HTML
	ValuationGauge template.HTML
	HistoryChart   template.HTML
	WaterfallChart template.HTML
	ExpenseChart   template.HTML
}

// SignalRow is a signal flattened for the template.
type SignalRow struct {
	Tone    string
	Message string
}

// RatioRow is a label and its formatted value.
type RatioRow struct {
	Label string
	Value string
}

// GenerateHTML renders the scorecard as a standalone HTML page.
func GenerateHTML(res *models.AnalysisResult, data *models.CompanyData, cfg ReportConfig) (string, error) {
	if res == nil {
		return "", fmt.Errorf("analysis is nil")
	}

	tmpl, err := template.New("scorecard").Parse(ReportTemplate)
	if err != nil {
		return "", fmt.Errorf("parsing template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, buildReportData(res, data, cfg)); err != nil {
		return "", fmt.Errorf("executing template: %w", err)
	}
	return buf.String(), nil
}

func buildReportData(res *models.AnalysisResult, data *models.CompanyData, cfg ReportConfig) ReportData {
	m := res.Market
	d := ReportData{
		Title:        cfg.Title,
		Ticker:       res.Ticker,
		CompanyName:  nonEmpty(res.Name, res.Ticker),
		Basis:        "Standalone",
		GeneratedAt:  ReportTimestamp(),
		Grade:        nonEmpty(res.Quality.Grade, utils.NA),
		QualityScore: fmt.Sprintf("%.0f", res.Quality.Score),
		Verdict:      nonEmpty(res.Valuation.Verdict, utils.NA),
		ValueScore:   fmt.Sprintf("%.0f", res.Valuation.Score),
		Metrics: []RatioRow{
			{"Market Cap", utils.FormatCrores(m.MarketCap)},
			{"Price", inr(m.CurrentPrice)},
			{"52W High / Low", highLow(m.High52W, m.Low52W)},
			{"P/E", utils.FormatRatio(m.PE)},
			{"P/B", utils.FormatRatio(m.PB)},
			{"Book Value", inr(m.BookValue)},
			{"Dividend Yield", pctPlain(m.DividendYield)},
			{"ROCE", pctPlain(m.ROCE)},
			{"ROE", pctPlain(m.ROE)},
		},
		ValSignals:  signalRows(res.Valuation.Signals),
		TechSignals: signalRows(res.Technical.Signals),
		Details:     res.Quality.Details,
		Green:       models.Messages(res.Flags.Green),
		Amber:       models.Messages(res.Flags.Amber),
		Red:         models.Messages(res.Flags.Red),
		Pros:        res.Pros,
		Cons:        res.Cons,
	}
	if res.Consolidated {
		d.Basis = "Consolidated"
	}
	if d.Title == "" {
		d.Title = fmt.Sprintf("%s (%s) scorecard", d.CompanyName, res.Ticker)
	}
	if data != nil {
		d.SourceURL = data.URL
	}
	for _, c := range res.Completeness {
		d.Completeness = append(d.Completeness, RatioRow{
			Label: string(c.Statement),
			Value: fmt.Sprintf("%d periods, %d/%d rows", c.Periods, c.RowsFound, c.RowsExpected),
		})
	}

	d.QualityGauge = template.HTML(GaugeChart(res.Quality.Score, "Quality "+d.Grade, 200))
	d.ValuationGauge = template.HTML(GaugeChart(res.Valuation.Score, d.Verdict, 200))

	chartCfg := cfg.ChartCfg
	if pl := res.ProfitLoss; pl != nil && len(pl.SalesHistory) > 0 {
		hc := chartCfg
		hc.Title = "Sales and Net Profit (₹ Cr)"
		d.HistoryChart = template.HTML(LineChart([]Series{
			{Name: "Sales", Values: pl.SalesHistory, Color: colorRevenue},
			{Name: "Net Profit", Values: pl.ProfitHistory, Color: colorNetProfit},
		}, pl.Periods, hc))
	}
	if n := len(res.AnnualRecords); n > 0 {
		latest := res.AnnualRecords[n-1]
		wc := chartCfg
		wc.Title = "Revenue to Net Profit, " + latest.Period
		d.WaterfallChart = template.HTML(HorizontalBarChart(WaterfallBars(Waterfall(latest)), wc))

		if latest.Ordinary != nil && len(latest.Ordinary.ExpenseBreakdown) >= 2 {
			items := make([]BarItem, len(latest.Ordinary.ExpenseBreakdown))
			for i, c := range latest.Ordinary.ExpenseBreakdown {
				items[i] = BarItem{Label: expenseLabel(c.Name), Value: c.Amount, Color: expenseColor(c.Name)}
			}
			ec := chartCfg
			ec.Title = "Expense Breakdown (₹ Cr)"
			d.ExpenseChart = template.HTML(HorizontalBarChart(items, ec))
		}
	}
	return d
}

func signalRows(signals []models.Signal) []SignalRow {
	rows := make([]SignalRow, len(signals))
	for i, s := range signals {
		rows[i] = SignalRow{Tone: string(s.Tone), Message: s.Message}
	}
	return rows
}

// ════════════════════════════════════════════════════════════════════
// Formatting helpers
// ════════════════════════════════════════════════════════════════════

// ReportTimestamp returns current IST time formatted for report headers.
func ReportTimestamp() string {
	return utils.NowIST().Format("02 Jan 2006, 03:04 PM IST")
}

func inr(v float64) string {
	if v == 0 {
		return utils.NA
	}
	return utils.FormatINR(v)
}

func pctPlain(v float64) string {
	if v == 0 {
		return utils.NA
	}
	return fmt.Sprintf("%.1f%%", v)
}

func highLow(high, low float64) string {
	if high == 0 && low == 0 {
		return utils.NA
	}
	return fmt.Sprintf("%s / %s", utils.FormatRatio(high), utils.FormatRatio(low))
}

func scoreBar(score float64) string {
	return RangeBar(score/100, 20)
}

func toneGlyph(t models.Tone) string {
	switch t {
	case models.ToneBullish:
		return "▲"
	case models.ToneBearish:
		return "▼"
	case models.ToneCaution:
		return "!"
	case models.ToneInfo:
		return "i"
	}
	return "•"
}

func padCells(cells []string) string {
	var sb strings.Builder
	for _, c := range cells {
		fmt.Fprintf(&sb, "%10s", c)
	}
	return sb.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func nonEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
