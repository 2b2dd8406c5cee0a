// Package models defines the core data structures shared by the dashboard.
package models

import (
	"fmt"
	"strings"
)

// Asset is one ranked entry of the market overview.
// The whole collection is replaced on every successful list fetch.
type Asset struct {
	ID                    string    `json:"id"`     // provider identifier, e.g. "bitcoin"
	Name                  string    `json:"name"`   // e.g. "Bitcoin"
	Symbol                string    `json:"symbol"` // e.g. "btc"
	Image                 string    `json:"image"`
	CurrentPrice          float64   `json:"current_price"`
	PriceChangePercent24h float64   `json:"price_change_percentage_24h"`
	MarketCapRank         int       `json:"market_cap_rank"`
	MarketCap             float64   `json:"market_cap"`
	TotalVolume24h        float64   `json:"total_volume"`
	Sparkline7d           []float64 `json:"sparkline_7d,omitempty"` // oldest first
}

// HasSparkline reports whether the asset carries a usable 7-day price sample.
func (a Asset) HasSparkline() bool {
	return len(a.Sparkline7d) > 0
}

// FindAsset returns the asset with the given id.
func FindAsset(assets []Asset, id string) (Asset, bool) {
	for _, a := range assets {
		if a.ID == id {
			return a, true
		}
	}
	return Asset{}, false
}

// ChartPoint is one point of a price chart.
// OHLC fields are nil for line-only data; when all four are set,
// Low <= min(Open, Close) <= max(Open, Close) <= High.
type ChartPoint struct {
	Timestamp int64    `json:"timestamp"` // epoch millis
	Date      string   `json:"date"`      // display date
	Time      string   `json:"time"`      // display time
	Price     float64  `json:"price"`
	Open      *float64 `json:"open,omitempty"`
	High      *float64 `json:"high,omitempty"`
	Low       *float64 `json:"low,omitempty"`
	Close     *float64 `json:"close,omitempty"`
}

// HasOHLC reports whether all four OHLC values are present.
func (p ChartPoint) HasOHLC() bool {
	return p.Open != nil && p.High != nil && p.Low != nil && p.Close != nil
}

// SetOHLC fills the four OHLC fields.
func (p *ChartPoint) SetOHLC(open, high, low, close float64) {
	p.Open, p.High, p.Low, p.Close = &open, &high, &low, &close
}

// ChartMode selects how the chart renders the series.
type ChartMode string

const (
	ChartModeLine        ChartMode = "line"
	ChartModeCandlestick ChartMode = "candlestick"
)

// ParseChartMode converts user input to a ChartMode.
func ParseChartMode(s string) (ChartMode, error) {
	switch ChartMode(strings.ToLower(strings.TrimSpace(s))) {
	case ChartModeLine:
		return ChartModeLine, nil
	case ChartModeCandlestick:
		return ChartModeCandlestick, nil
	}
	return "", fmt.Errorf("unknown chart mode %q (want line or candlestick)", s)
}

// ChartSource records where a chart series came from.
type ChartSource string

const (
	ChartSourceNone      ChartSource = ""
	ChartSourceSparkline ChartSource = "sparkline" // derived from the list's 7-day sample
	ChartSourceProvider  ChartSource = "provider"  // fetched from the market data provider
	ChartSourceFallback  ChartSource = "fallback"  // simulated from the current price
)

// IsSimulated reports whether the series was synthesized rather than
// taken as-is from the provider.
func (s ChartSource) IsSimulated() bool {
	return s == ChartSourceFallback
}
