// Package render turns dashboard view state into HTML. Charts are inline
// SVG generated in Go; the page is a single html/template.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/seenimoa/cryptodash/internal/dashboard"
	"github.com/seenimoa/cryptodash/pkg/models"
	"github.com/seenimoa/cryptodash/pkg/utils"
)

// SkeletonCards is the number of placeholder cards shown while the list loads.
const SkeletonCards = 12

// PlaceholderImage is used for assets without an image URL.
const PlaceholderImage = "/static/placeholder.svg"

// Options controls page rendering.
type Options struct {
	Title string
	Chart ChartConfig
}

// DefaultOptions returns the standard page options.
func DefaultOptions() Options {
	return Options{
		Title: "Crypto Dashboard",
		Chart: DefaultChartConfig(),
	}
}

// AssetView is one asset formatted for display.
type AssetView struct {
	ID        string
	Name      string
	Symbol    string
	Image     string
	Rank      int
	Price     string
	Change    string
	Up        bool
	MarketCap string
	Volume    string
	Selected  bool
}

// PageData is the template input.
type PageData struct {
	Title        string
	Version      uint64
	ListError    string
	ListLoading  bool
	LastUpdated  string
	Selected     *AssetView
	Mode         string
	ShowNotice   bool
	ChartLoading bool
	ChartSource  string
	ChartSVG     template.HTML
	Cards        []AssetView
	Skeletons    []int
}

var pageTmpl = template.Must(template.New("page").Parse(PageTemplate))

// Page renders the full dashboard page for s.
func Page(s dashboard.State, opts Options) (string, error) {
	data := BuildPageData(s, opts)

	var buf bytes.Buffer
	if err := pageTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing template: %w", err)
	}
	return buf.String(), nil
}

// BuildPageData formats s for the page template.
func BuildPageData(s dashboard.State, opts Options) PageData {
	if opts.Title == "" {
		opts.Title = DefaultOptions().Title
	}

	d := PageData{
		Title:        opts.Title,
		Version:      s.Version,
		ListError:    s.ListError,
		ListLoading:  s.ListLoading(),
		Mode:         string(s.Mode),
		ShowNotice:   s.ShowNotice(),
		ChartLoading: s.ChartLoading(),
		ChartSource:  string(s.ChartSource),
	}
	if s.LastUpdated != nil {
		d.LastUpdated = utils.FormatClock(*s.LastUpdated)
	}

	d.Cards = make([]AssetView, 0, len(s.Assets))
	for _, a := range s.Assets {
		v := NewAssetView(a)
		v.Selected = a.ID == s.SelectedID
		d.Cards = append(d.Cards, v)
	}
	if a, ok := s.Selected(); ok {
		v := NewAssetView(a)
		v.Selected = true
		d.Selected = &v
	}
	if d.ListLoading {
		d.Skeletons = make([]int, SkeletonCards)
	}

	if !d.ChartLoading {
		// Chart output is built from numbers and escaped labels only.
		d.ChartSVG = template.HTML(Chart(s.Chart, s.Mode, opts.Chart))
	}
	return d
}

// Chart renders points in the given mode.
func Chart(points []models.ChartPoint, mode models.ChartMode, cfg ChartConfig) string {
	if mode == models.ChartModeCandlestick {
		return CandlestickChart(points, cfg)
	}
	return LineChart(points, cfg)
}

// NewAssetView formats a for display.
func NewAssetView(a models.Asset) AssetView {
	img := a.Image
	if img == "" {
		img = PlaceholderImage
	}
	return AssetView{
		ID:        a.ID,
		Name:      a.Name,
		Symbol:    strings.ToUpper(a.Symbol),
		Image:     img,
		Rank:      a.MarketCapRank,
		Price:     utils.FormatPrice(a.CurrentPrice),
		Change:    utils.FormatPercentage(a.PriceChangePercent24h),
		Up:        a.PriceChangePercent24h >= 0,
		MarketCap: utils.FormatMarketCap(a.MarketCap),
		Volume:    utils.FormatVolume(a.TotalVolume24h),
	}
}
