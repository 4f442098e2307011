package report

// ReportTemplate is the HTML scorecard. It is a Go constant so the
// binary needs no template files.
const ReportTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<style>
  :root {
    --bg: #ffffff;
    --text: #1a1a2e;
    --muted: #6b7280;
    --border: #e5e7eb;
    --accent: #2563eb;
    --green: #16a34a;
    --amber: #d97706;
    --red: #dc2626;
    --section-bg: #f8fafc;
  }
  * { margin: 0; padding: 0; box-sizing: border-box; }
  body {
    font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
    color: var(--text);
    background: var(--bg);
    line-height: 1.6;
    max-width: 960px;
    margin: 0 auto;
    padding: 20px;
  }
  h1 { font-size: 1.5rem; color: var(--accent); }
  h2 { font-size: 1.15rem; margin: 24px 0 12px; padding-bottom: 6px; border-bottom: 2px solid var(--accent); }
  .muted { color: var(--muted); font-size: 0.85rem; }

  .header {
    display: flex;
    justify-content: space-between;
    align-items: flex-start;
    border-bottom: 3px solid var(--accent);
    padding-bottom: 12px;
    margin-bottom: 16px;
  }
  .ticker-badge {
    display: inline-block;
    background: var(--accent);
    color: white;
    padding: 2px 12px;
    border-radius: 4px;
    font-weight: 700;
    margin-right: 8px;
  }

  .scorecard { display: grid; grid-template-columns: 1fr 1fr; gap: 16px; }
  .score-box { background: var(--section-bg); border-radius: 8px; padding: 12px; text-align: center; }
  .score-box .label { font-size: 0.75rem; color: var(--muted); text-transform: uppercase; }
  .score-box .value { font-size: 1.3rem; font-weight: 700; }

  .metric-grid {
    display: grid;
    grid-template-columns: repeat(auto-fill, minmax(170px, 1fr));
    gap: 8px;
  }
  .metric-card { background: var(--section-bg); padding: 8px 12px; border-radius: 6px; }
  .metric-card .label { display: block; font-size: 0.75rem; color: var(--muted); }
  .metric-card .value { font-weight: 600; }

  table { width: 100%; border-collapse: collapse; margin: 8px 0 16px; font-size: 0.9rem; }
  td { padding: 6px 8px; border-bottom: 1px solid var(--border); }
  .tone { display: inline-block; padding: 1px 8px; border-radius: 3px; font-size: 0.8rem; font-weight: 600; }
  .tone.bullish { background: #dcfce7; color: var(--green); }
  .tone.bearish { background: #fef2f2; color: var(--red); }
  .tone.caution { background: #fffbeb; color: var(--amber); }
  .tone.neutral, .tone.info { background: #f3f4f6; color: var(--muted); }

  .flags { display: grid; grid-template-columns: repeat(3, 1fr); gap: 12px; }
  .flag-list { border-radius: 8px; padding: 10px 14px; }
  .flag-list.green { background: #ecfdf5; border-left: 5px solid var(--green); }
  .flag-list.amber { background: #fffbeb; border-left: 5px solid var(--amber); }
  .flag-list.red { background: #fef2f2; border-left: 5px solid var(--red); }
  .flag-list ul { padding-left: 18px; }

  .chart-container { text-align: center; margin: 12px 0; }
  .chart-container svg { max-width: 100%; height: auto; }
  .footer { margin-top: 32px; padding-top: 12px; border-top: 1px solid var(--border); font-size: 0.8rem; color: var(--muted); }
</style>
</head>
<body>

<div class="header">
  <div>
    <h1>{{.CompanyName}}</h1>
    <span class="ticker-badge">{{.Ticker}}</span><span class="muted">{{.Basis}}</span>
  </div>
  <div class="muted">{{.GeneratedAt}}</div>
</div>

<!-- ═══════ SCORECARD ═══════ -->
<div class="scorecard">
  <div class="score-box">
    {{.QualityGauge}}
    <div class="label">Quality grade</div>
    <div class="value">{{.Grade}} <span class="muted">({{.QualityScore}}/100)</span></div>
  </div>
  <div class="score-box">
    {{.ValuationGauge}}
    <div class="label">Valuation</div>
    <div class="value">{{.Verdict}} <span class="muted">({{.ValueScore}}/100)</span></div>
  </div>
</div>

<h2>Key Metrics</h2>
<div class="metric-grid">
  {{range .Metrics}}
  <div class="metric-card"><span class="label">{{.Label}}</span><span class="value">{{.Value}}</span></div>
  {{end}}
</div>

<!-- ═══════ FLAGS ═══════ -->
<h2>Flags</h2>
<div class="flags">
  <div class="flag-list green"><strong>Green</strong>
    <ul>{{range .Green}}<li>{{.}}</li>{{else}}<li>None</li>{{end}}</ul>
  </div>
  <div class="flag-list amber"><strong>Amber</strong>
    <ul>{{range .Amber}}<li>{{.}}</li>{{else}}<li>None</li>{{end}}</ul>
  </div>
  <div class="flag-list red"><strong>Red</strong>
    <ul>{{range .Red}}<li>{{.}}</li>{{else}}<li>None</li>{{end}}</ul>
  </div>
</div>

<!-- ═══════ FINANCIALS ═══════ -->
{{if .HistoryChart}}
<h2>Financial History</h2>
<div class="chart-container">{{.HistoryChart}}</div>
{{end}}
{{if .WaterfallChart}}
<div class="chart-container">{{.WaterfallChart}}</div>
{{end}}
{{if .ExpenseChart}}
<div class="chart-container">{{.ExpenseChart}}</div>
{{end}}

<!-- ═══════ SIGNALS ═══════ -->
{{if .ValSignals}}
<h2>Valuation Signals</h2>
<table>
  {{range .ValSignals}}<tr><td><span class="tone {{.Tone}}">{{.Tone}}</span></td><td>{{.Message}}</td></tr>{{end}}
</table>
{{end}}
{{if .TechSignals}}
<h2>Technical Signals</h2>
<table>
  {{range .TechSignals}}<tr><td><span class="tone {{.Tone}}">{{.Tone}}</span></td><td>{{.Message}}</td></tr>{{end}}
</table>
{{end}}
{{if .Details}}
<h2>Quality Drivers</h2>
<ul>{{range .Details}}<li>{{.}}</li>{{end}}</ul>
{{end}}

{{if or .Pros .Cons}}
<h2>Pros &amp; Cons</h2>
<table>
  {{range .Pros}}<tr><td class="tone bullish">+</td><td>{{.}}</td></tr>{{end}}
  {{range .Cons}}<tr><td class="tone bearish">-</td><td>{{.}}</td></tr>{{end}}
</table>
{{end}}

{{if .Completeness}}
<h2>Data Completeness</h2>
<table>
  {{range .Completeness}}<tr><td>{{.Label}}</td><td>{{.Value}}</td></tr>{{end}}
</table>
{{end}}

<div class="footer">
  {{if .SourceURL}}<p>Source: <a href="{{.SourceURL}}">{{.SourceURL}}</a></p>{{end}}
  <p>Generated on {{.GeneratedAt}}. Figures in ₹ crores unless stated. Not investment advice.</p>
</div>

</body>
</html>`
