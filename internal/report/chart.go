package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/seenimoa/fundalens/pkg/models"
)

// ════════════════════════════════════════════════════════════════════
// SVG charts for the HTML scorecard
// ════════════════════════════════════════════════════════════════════

// ChartConfig holds rendering parameters for SVG charts.
type ChartConfig struct {
	Width        int
	Height       int
	MarginTop    int
	MarginRight  int
	MarginBottom int
	MarginLeft   int
	BgColor      string
	GridColor    string
	TextColor    string
	FontSize     int
	Title        string
}

// DefaultChartConfig returns the scorecard chart size.
func DefaultChartConfig() ChartConfig {
	return ChartConfig{
		Width:        640,
		Height:       280,
		MarginTop:    40,
		MarginRight:  30,
		MarginBottom: 40,
		MarginLeft:   70,
		BgColor:      "#ffffff",
		GridColor:    "#e8e8e8",
		TextColor:    "#333333",
		FontSize:     11,
	}
}

func (c ChartConfig) plotArea() (x, y, w, h int) {
	return c.MarginLeft, c.MarginTop,
		c.Width - c.MarginLeft - c.MarginRight,
		c.Height - c.MarginTop - c.MarginBottom
}

// withDefaults fills a zero config and keeps the caller's title.
func (c ChartConfig) withDefaults(title string) ChartConfig {
	if c.Width == 0 {
		t := c.Title
		c = DefaultChartConfig()
		c.Title = t
	}
	if c.Title == "" {
		c.Title = title
	}
	return c
}

// ════════════════════════════════════════════════════════════════════
// Line chart
// ════════════════════════════════════════════════════════════════════

// Series is one named line.
type Series struct {
	Name   string
	Values []float64
	Color  string // auto-assigned when empty
}

var seriesColors = []string{"#2563EB", "#16A34A", "#EA580C", "#9333EA", "#0891B2", "#DC2626"}

// LineChart plots one or more series over shared period labels.
func LineChart(series []Series, labels []string, cfg ChartConfig) string {
	cfg = cfg.withDefaults("History")

	minVal, maxVal := math.MaxFloat64, -math.MaxFloat64
	points := 0
	for _, s := range series {
		points = max(points, len(s.Values))
		for _, v := range s.Values {
			minVal = math.Min(minVal, v)
			maxVal = math.Max(maxVal, v)
		}
	}
	if points == 0 {
		return emptySVG(cfg, "No data")
	}

	vRange := maxVal - minVal
	if vRange < 0.001 {
		vRange = math.Max(math.Abs(maxVal), 1)
	}
	minVal -= vRange * 0.05
	maxVal += vRange * 0.05
	vRange = maxVal - minVal

	px, py, pw, ph := cfg.plotArea()
	xAt := func(i int) float64 {
		if points == 1 {
			return float64(px) + float64(pw)/2
		}
		return float64(px) + float64(i)*float64(pw)/float64(points-1)
	}
	yAt := func(v float64) float64 {
		return float64(py+ph) - (v-minVal)/vRange*float64(ph)
	}

	var sb strings.Builder
	sb.WriteString(svgHeader(cfg))
	sb.WriteString(background(cfg))

	const gridLines = 4
	for i := 0; i <= gridLines; i++ {
		val := minVal + vRange*float64(i)/gridLines
		y := yAt(val)
		fmt.Fprintf(&sb, `<line x1="%d" y1="%.1f" x2="%d" y2="%.1f" stroke="%s" stroke-dasharray="3,3"/>`,
			px, y, px+pw, y, cfg.GridColor)
		fmt.Fprintf(&sb, `<text x="%d" y="%.1f" font-size="%d" fill="%s" text-anchor="end">%s</text>`,
			px-5, y+4, cfg.FontSize, cfg.TextColor, axisNumber(val))
	}

	for si, s := range series {
		color := s.Color
		if color == "" {
			color = seriesColors[si%len(seriesColors)]
		}
		parts := make([]string, 0, len(s.Values))
		for i, v := range s.Values {
			cmd := "L"
			if i == 0 {
				cmd = "M"
			}
			parts = append(parts, fmt.Sprintf("%s%.1f,%.1f", cmd, xAt(i), yAt(v)))
		}
		if len(parts) > 1 {
			fmt.Fprintf(&sb, `<path d="%s" fill="none" stroke="%s" stroke-width="2"/>`, strings.Join(parts, " "), color)
		}
		for i, v := range s.Values {
			fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="3" fill="%s"/>`, xAt(i), yAt(v), color)
		}

		ly := py + 6 + si*16
		fmt.Fprintf(&sb, `<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="%s" stroke-width="2"/>`,
			px+10, ly, px+30, ly, color)
		fmt.Fprintf(&sb, `<text x="%d" y="%d" font-size="10" fill="%s">%s</text>`,
			px+35, ly+4, cfg.TextColor, escapeXML(s.Name))
	}

	interval := max(points/6, 1)
	for i := 0; i < len(labels) && i < points; i += interval {
		fmt.Fprintf(&sb, `<text x="%.1f" y="%d" font-size="%d" fill="%s" text-anchor="middle">%s</text>`,
			xAt(i), py+ph+18, cfg.FontSize-1, cfg.TextColor, escapeXML(labels[i]))
	}

	sb.WriteString("</svg>")
	return sb.String()
}

// ════════════════════════════════════════════════════════════════════
// Horizontal bars
// ════════════════════════════════════════════════════════════════════

// BarItem is one bar.
type BarItem struct {
	Label string
	Value float64
	Color string // green or red by sign when empty
}

// HorizontalBarChart draws signed bars around a zero line. Used for the
// expense breakdown and the profit waterfall.
func HorizontalBarChart(items []BarItem, cfg ChartConfig) string {
	cfg = cfg.withDefaults("Comparison")
	if len(items) == 0 {
		return emptySVG(cfg, "No data")
	}
	cfg.MarginLeft = 170

	px, py, pw, ph := cfg.plotArea()

	maxVal, minVal := 0.0, 0.0
	for _, item := range items {
		maxVal = math.Max(maxVal, item.Value)
		minVal = math.Min(minVal, item.Value)
	}
	valRange := maxVal - minVal
	if valRange < 0.001 {
		valRange = 1
	}
	zeroX := float64(px) + (-minVal/valRange)*float64(pw)

	barH := math.Min(float64(ph)/float64(len(items))*0.7, 24)
	gap := (float64(ph) - barH*float64(len(items))) / float64(len(items)+1)

	var sb strings.Builder
	sb.WriteString(svgHeader(cfg))
	sb.WriteString(background(cfg))
	if minVal < 0 {
		fmt.Fprintf(&sb, `<line x1="%.1f" y1="%d" x2="%.1f" y2="%d" stroke="#999" stroke-width="1"/>`,
			zeroX, py, zeroX, py+ph)
	}

	for i, item := range items {
		by := float64(py) + gap + float64(i)*(barH+gap)
		color := item.Color
		if color == "" {
			color = "#16A34A"
			if item.Value < 0 {
				color = "#DC2626"
			}
		}
		bw := math.Abs(item.Value) / valRange * float64(pw)
		bx := zeroX
		if item.Value < 0 {
			bx = zeroX - bw
		}
		fmt.Fprintf(&sb, `<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s" rx="2"/>`,
			bx, by, bw, barH, color)
		fmt.Fprintf(&sb, `<text x="%d" y="%.1f" font-size="%d" fill="%s" text-anchor="end">%s</text>`,
			px-5, by+barH/2+4, cfg.FontSize, cfg.TextColor, escapeXML(item.Label))
		fmt.Fprintf(&sb, `<text x="%.1f" y="%.1f" font-size="%d" fill="%s">%s</text>`,
			math.Max(bx+bw, zeroX)+5, by+barH/2+4, cfg.FontSize, cfg.TextColor, axisNumber(item.Value))
	}

	sb.WriteString("</svg>")
	return sb.String()
}

// WaterfallBars turns waterfall rows into bars. Subtotals take the
// revenue colour.
func WaterfallBars(rows []models.WaterfallRow) []BarItem {
	items := make([]BarItem, len(rows))
	for i, r := range rows {
		items[i] = BarItem{Label: r.Label, Value: r.Value}
		if r.Total || i == 0 {
			items[i].Color = "#2563EB"
		}
	}
	return items
}

// ════════════════════════════════════════════════════════════════════
// Score gauge
// ════════════════════════════════════════════════════════════════════

// GaugeChart draws a semicircular 0-100 gauge for the valuation and
// quality scores.
func GaugeChart(value float64, label string, width int) string {
	if width == 0 {
		width = 200
	}
	height := width/2 + 30
	value = math.Max(0, math.Min(100, value))

	cx := float64(width) / 2
	cy := float64(width)/2 - 10
	radius := float64(width)/2 - 20

	angle := math.Pi - (value/100)*math.Pi
	needleX := cx + radius*0.85*math.Cos(angle)
	needleY := cy - radius*0.85*math.Sin(angle)
	endX := cx + radius*math.Cos(angle)
	endY := cy - radius*math.Sin(angle)
	largeArc := 0
	if value > 50 {
		largeArc = 1
	}
	color := scoreColor(value)

	var sb strings.Builder
	fmt.Fprintf(&sb, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" font-family="sans-serif">`,
		width, height, width, height)
	fmt.Fprintf(&sb, `<rect width="%d" height="%d" fill="white"/>`, width, height)
	fmt.Fprintf(&sb, `<path d="M%.1f,%.1f A%.1f,%.1f 0 0,1 %.1f,%.1f" fill="none" stroke="#e0e0e0" stroke-width="12" stroke-linecap="round"/>`,
		cx-radius, cy, radius, radius, cx+radius, cy)
	fmt.Fprintf(&sb, `<path d="M%.1f,%.1f A%.1f,%.1f 0 %d,1 %.1f,%.1f" fill="none" stroke="%s" stroke-width="12" stroke-linecap="round"/>`,
		cx-radius, cy, radius, radius, largeArc, endX, endY, color)
	fmt.Fprintf(&sb, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#333" stroke-width="2"/>`,
		cx, cy, needleX, needleY)
	fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="5" fill="#333"/>`, cx, cy)
	fmt.Fprintf(&sb, `<text x="%.1f" y="%.1f" font-size="22" font-weight="bold" fill="%s" text-anchor="middle">%.0f</text>`,
		cx, cy+25, color, value)
	fmt.Fprintf(&sb, `<text x="%.1f" y="%d" font-size="11" fill="#666" text-anchor="middle">%s</text>`,
		cx, height-5, escapeXML(label))
	sb.WriteString("</svg>")
	return sb.String()
}

// scoreColor bands a 0-100 score: red below 30, orange below 50, yellow
// below 70, green above.
func scoreColor(v float64) string {
	switch {
	case v < 30:
		return "#DC2626"
	case v < 50:
		return "#EA580C"
	case v < 70:
		return "#D97706"
	}
	return "#16A34A"
}

// ════════════════════════════════════════════════════════════════════
// Terminal glyphs
// ════════════════════════════════════════════════════════════════════

var sparkBlocks = []rune(" ▁▂▃▄▅▆▇█")

// Sparkline renders values as one row of block glyphs scaled between
// the series minimum and maximum.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	span := hi - lo
	top := len(sparkBlocks) - 1

	var sb strings.Builder
	for _, v := range values {
		idx := top / 2
		if span > 0 {
			idx = int(math.Round((v - lo) / span * float64(top)))
		}
		sb.WriteRune(sparkBlocks[max(1, min(idx, top))])
	}
	return sb.String()
}

// RangeBar marks pos (0..1) on a bar of width cells.
func RangeBar(pos float64, width int) string {
	pos = math.Max(0, math.Min(1, pos))
	filled := int(math.Round(pos * float64(width)))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// ════════════════════════════════════════════════════════════════════
// SVG helpers
// ════════════════════════════════════════════════════════════════════

func svgHeader(cfg ChartConfig) string {
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" font-family="sans-serif">`,
		cfg.Width, cfg.Height, cfg.Width, cfg.Height)
}

func background(cfg ChartConfig) string {
	return fmt.Sprintf(`<rect x="0" y="0" width="%d" height="%d" fill="%s"/>`, cfg.Width, cfg.Height, cfg.BgColor) +
		fmt.Sprintf(`<text x="%d" y="20" font-size="14" font-weight="bold" fill="%s" text-anchor="middle">%s</text>`,
			cfg.Width/2, cfg.TextColor, escapeXML(cfg.Title))
}

func emptySVG(cfg ChartConfig, msg string) string {
	if cfg.Width == 0 {
		cfg.Width = 400
	}
	if cfg.Height == 0 {
		cfg.Height = 200
	}
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d"><rect width="%d" height="%d" fill="#f5f5f5"/><text x="%d" y="%d" text-anchor="middle" fill="#999" font-size="14">%s</text></svg>`,
		cfg.Width, cfg.Height, cfg.Width, cfg.Height, cfg.Width/2, cfg.Height/2, escapeXML(msg))
}

func axisNumber(v float64) string {
	if math.Abs(v) >= 1000 {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.1f", v)
}

func escapeXML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, `"`, "&quot;")
	return s
}
