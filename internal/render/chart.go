package render

import (
	"fmt"
	"math"
	"strings"

	"github.com/seenimoa/cryptodash/pkg/models"
	"github.com/seenimoa/cryptodash/pkg/utils"
)

// ════════════════════════════════════════════════════════════════════
// SVG Chart Generator
// ════════════════════════════════════════════════════════════════════

// ChartConfig holds rendering parameters for SVG charts.
type ChartConfig struct {
	Width        int    // SVG width in pixels (default: 960)
	Height       int    // SVG height in pixels (default: 400)
	MarginTop    int    // top margin (default: 20)
	MarginRight  int    // right margin (default: 30)
	MarginBottom int    // bottom margin (default: 50)
	MarginLeft   int    // left margin (default: 90)
	BgColor      string // background color (default: "#ffffff")
	GridColor    string // grid line color (default: "#e5e7eb")
	TextColor    string // axis label color (default: "#6b7280")
	LineColor    string // line series color (default: "#3b82f6")
	FontSize     int    // axis label font size (default: 12)
	XLabels      int    // approximate number of x-axis labels (default: 8)
	Title        string // optional chart title
}

// DefaultChartConfig returns sensible defaults for chart rendering.
func DefaultChartConfig() ChartConfig {
	return ChartConfig{
		Width:        960,
		Height:       400,
		MarginTop:    20,
		MarginRight:  30,
		MarginBottom: 50,
		MarginLeft:   90,
		BgColor:      "#ffffff",
		GridColor:    "#e5e7eb",
		TextColor:    "#6b7280",
		LineColor:    "#3b82f6",
		FontSize:     12,
		XLabels:      8,
	}
}

const (
	bullColor = "#26a69a"
	bearColor = "#ef5350"
)

// plotArea returns the usable drawing area dimensions.
func (c ChartConfig) plotArea() (x, y, w, h int) {
	return c.MarginLeft, c.MarginTop,
		c.Width - c.MarginLeft - c.MarginRight,
		c.Height - c.MarginTop - c.MarginBottom
}

// withDefaults fills zero fields from DefaultChartConfig.
func (c ChartConfig) withDefaults() ChartConfig {
	d := DefaultChartConfig()
	if c.Width == 0 {
		title := c.Title
		c = d
		c.Title = title
	}
	if c.XLabels <= 0 {
		c.XLabels = d.XLabels
	}
	if c.LineColor == "" {
		c.LineColor = d.LineColor
	}
	if c.FontSize == 0 {
		c.FontSize = d.FontSize
	}
	return c
}

// yScale maps prices into the plot area with 5% padding on both sides.
type yScale struct {
	min, rng float64
	top, h   int
}

func newYScale(lo, hi float64, top, h int) yScale {
	rng := hi - lo
	if rng <= 0 || math.IsNaN(rng) || math.IsInf(rng, 0) {
		rng = math.Max(math.Abs(hi)*0.1, 1e-6)
	}
	lo -= rng * 0.05
	hi += rng * 0.05
	return yScale{min: lo, rng: hi - lo, top: top, h: h}
}

func (s yScale) y(p float64) float64 {
	return float64(s.top+s.h) - (p-s.min)/s.rng*float64(s.h)
}

func (s yScale) at(frac float64) float64 {
	return s.min + s.rng*frac
}

// ════════════════════════════════════════════════════════════════════
// Line Chart
// ════════════════════════════════════════════════════════════════════

// LineChart renders points as an SVG price line.
func LineChart(points []models.ChartPoint, cfg ChartConfig) string {
	cfg = cfg.withDefaults()
	if len(points) == 0 {
		return emptySVG(cfg, "No chart data")
	}

	px, py, pw, ph := cfg.plotArea()

	lo, hi := points[0].Price, points[0].Price
	for _, p := range points {
		lo = math.Min(lo, p.Price)
		hi = math.Max(hi, p.Price)
	}
	ys := newYScale(lo, hi, py, ph)

	var sb strings.Builder
	sb.WriteString(svgHeader(cfg, "line"))
	writeFrame(&sb, cfg, ys)

	n := len(points)
	xAt := func(i int) float64 {
		if n == 1 {
			return float64(px) + float64(pw)/2
		}
		return float64(px) + float64(i)*float64(pw)/float64(n-1)
	}

	pathParts := make([]string, 0, n)
	for i, p := range points {
		cmd := "L"
		if i == 0 {
			cmd = "M"
		}
		pathParts = append(pathParts, fmt.Sprintf("%s%.1f,%.1f", cmd, xAt(i), ys.y(p.Price)))
	}
	sb.WriteString(fmt.Sprintf(`<path class="price-line" d="%s" fill="none" stroke="%s" stroke-width="2"/>`,
		strings.Join(pathParts, " "), cfg.LineColor))

	// Hover targets carry the tooltip text.
	for i, p := range points {
		sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="3" fill="transparent"><title>%s</title></circle>`,
			xAt(i), ys.y(p.Price), escapeXML(p.Date+" "+p.Time+"\nPrice: "+utils.FormatPrice(p.Price))))
	}

	writeXLabels(&sb, cfg, points, xAt, py+ph)

	sb.WriteString("</svg>")
	return sb.String()
}

// ════════════════════════════════════════════════════════════════════
// Candlestick Chart
// ════════════════════════════════════════════════════════════════════

// CandlestickChart renders OHLC points as SVG candles. Points without OHLC
// values are drawn as flat candles at their price.
func CandlestickChart(points []models.ChartPoint, cfg ChartConfig) string {
	cfg = cfg.withDefaults()
	if len(points) == 0 {
		return emptySVG(cfg, "No chart data")
	}

	px, py, pw, ph := cfg.plotArea()

	type candle struct{ open, high, low, close float64 }
	candles := make([]candle, len(points))
	for i, p := range points {
		c := candle{p.Price, p.Price, p.Price, p.Price}
		if p.HasOHLC() {
			c = candle{*p.Open, *p.High, *p.Low, *p.Close}
		}
		candles[i] = c
	}

	lo, hi := candles[0].low, candles[0].high
	for _, c := range candles {
		lo = math.Min(lo, c.low)
		hi = math.Max(hi, c.high)
	}
	ys := newYScale(lo, hi, py, ph)

	n := len(points)
	slot := float64(pw) / float64(n)
	bodyWidth := math.Min(slot*0.7, 12)
	xAt := func(i int) float64 {
		return float64(px) + float64(i)*slot + slot/2
	}

	var sb strings.Builder
	sb.WriteString(svgHeader(cfg, "candlestick"))
	writeFrame(&sb, cfg, ys)

	for i, c := range candles {
		cx := xAt(i)
		color := bullColor
		if c.close < c.open {
			color = bearColor
		}

		sb.WriteString(fmt.Sprintf(`<g class="candle"><title>%s</title>`, escapeXML(candleTitle(points[i], c.open, c.high, c.low, c.close))))

		// Wick (high to low)
		sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s" stroke-width="1"/>`,
			cx, ys.y(c.high), cx, ys.y(c.low), color))

		// Body (open to close)
		top := math.Min(ys.y(c.open), ys.y(c.close))
		bodyH := math.Abs(ys.y(c.open) - ys.y(c.close))
		if bodyH < 1 {
			bodyH = 1
		}
		sb.WriteString(fmt.Sprintf(`<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s"/></g>`,
			cx-bodyWidth/2, top, bodyWidth, bodyH, color))
	}

	writeXLabels(&sb, cfg, points, xAt, py+ph)

	sb.WriteString("</svg>")
	return sb.String()
}

func candleTitle(p models.ChartPoint, open, high, low, close float64) string {
	return p.Date + " " + p.Time +
		"\nOpen: " + utils.FormatPrice(open) +
		"\nHigh: " + utils.FormatPrice(high) +
		"\nLow: " + utils.FormatPrice(low) +
		"\nClose: " + utils.FormatPrice(close)
}

// ════════════════════════════════════════════════════════════════════
// SVG Helpers
// ════════════════════════════════════════════════════════════════════

const yGridLines = 5

// writeFrame draws the background, optional title, y grid and y labels.
func writeFrame(sb *strings.Builder, cfg ChartConfig, ys yScale) {
	px, py, pw, ph := cfg.plotArea()

	sb.WriteString(fmt.Sprintf(`<rect x="0" y="0" width="%d" height="%d" fill="%s"/>`,
		cfg.Width, cfg.Height, cfg.BgColor))

	if cfg.Title != "" {
		sb.WriteString(fmt.Sprintf(`<text x="%d" y="14" font-size="14" font-weight="bold" fill="%s" text-anchor="middle">%s</text>`,
			cfg.Width/2, cfg.TextColor, escapeXML(cfg.Title)))
	}

	for i := 0; i <= yGridLines; i++ {
		frac := float64(i) / yGridLines
		y := float64(py+ph) - frac*float64(ph)
		sb.WriteString(fmt.Sprintf(`<line x1="%d" y1="%.1f" x2="%d" y2="%.1f" stroke="%s" stroke-dasharray="3,3"/>`,
			px, y, px+pw, y, cfg.GridColor))
		sb.WriteString(fmt.Sprintf(`<text class="y-label" x="%d" y="%.1f" font-size="%d" fill="%s" text-anchor="end">%s</text>`,
			px-6, y+4, cfg.FontSize, cfg.TextColor, escapeXML(utils.FormatPrice(ys.at(frac)))))
	}
}

// writeXLabels labels about cfg.XLabels evenly spaced points with their time.
func writeXLabels(sb *strings.Builder, cfg ChartConfig, points []models.ChartPoint, xAt func(int) float64, baseY int) {
	for _, i := range labelIndexes(len(points), cfg.XLabels) {
		cx := xAt(i)
		sb.WriteString(fmt.Sprintf(`<text class="x-label" x="%.1f" y="%d" font-size="%d" fill="%s" text-anchor="middle">%s</text>`,
			cx, baseY+18, cfg.FontSize, cfg.TextColor, escapeXML(points[i].Time)))
	}
}

// labelIndexes picks every n/want-th index, starting at 0.
func labelIndexes(n, want int) []int {
	if n == 0 || want <= 0 {
		return nil
	}
	step := n / want
	if step < 1 {
		step = 1
	}
	idx := make([]int, 0, want+1)
	for i := 0; i < n; i += step {
		idx = append(idx, i)
	}
	return idx
}

func svgHeader(cfg ChartConfig, kind string) string {
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" class="chart chart-%s" width="100%%" height="%d" viewBox="0 0 %d %d" preserveAspectRatio="none" font-family="sans-serif">`,
		kind, cfg.Height, cfg.Width, cfg.Height)
}

func emptySVG(cfg ChartConfig, msg string) string {
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" class="chart chart-empty" width="100%%" height="%d" viewBox="0 0 %d %d"><rect width="%d" height="%d" fill="#f5f5f5"/><text x="%d" y="%d" text-anchor="middle" fill="#999" font-size="14">%s</text></svg>`,
		cfg.Height, cfg.Width, cfg.Height, cfg.Width, cfg.Height, cfg.Width/2, cfg.Height/2, escapeXML(msg))
}

func escapeXML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, `"`, "&quot;")
	return s
}
