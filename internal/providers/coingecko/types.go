package coingecko

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/seenimoa/cryptodash/internal/series"
	"github.com/seenimoa/cryptodash/pkg/models"
)

// ---------------------------------------------------------------------------
// Wire types. These mirror CoinGecko v3 responses and never leave the package.
// ---------------------------------------------------------------------------

// cgMarket is one element of GET /coins/markets.
// Numeric fields are pointers because CoinGecko sends null for freshly
// listed or delisted coins.
type cgMarket struct {
	ID                       string       `json:"id"`
	Symbol                   string       `json:"symbol"`
	Name                     string       `json:"name"`
	Image                    string       `json:"image"`
	CurrentPrice             *float64     `json:"current_price"`
	MarketCap                *float64     `json:"market_cap"`
	MarketCapRank            *int         `json:"market_cap_rank"`
	TotalVolume              *float64     `json:"total_volume"`
	PriceChangePercentage24h *float64     `json:"price_change_percentage_24h"`
	SparklineIn7d            *cgSparkline `json:"sparkline_in_7d"`
}

type cgSparkline struct {
	Price []float64 `json:"price"`
}

// cgMarketChart is the body of GET /coins/{id}/market_chart.
// Each entry is [timestamp_ms, value].
type cgMarketChart struct {
	Prices       [][]float64 `json:"prices"`
	MarketCaps   [][]float64 `json:"market_caps"`
	TotalVolumes [][]float64 `json:"total_volumes"`
}

// GET /coins/{id}/ohlc returns [[timestamp_ms, open, high, low, close], ...].
type cgOHLCRow []float64

// cgPing is the body of GET /ping.
type cgPing struct {
	GeckoSays string `json:"gecko_says"`
}

// ---------------------------------------------------------------------------
// Decoding and mapping into pkg/models.
// ---------------------------------------------------------------------------

// parseMarkets decodes a /coins/markets body into assets, preserving order.
func parseMarkets(raw []byte) ([]models.Asset, error) {
	var rows []cgMarket
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("%w: markets: %v", ErrUnexpectedShape, err)
	}

	assets := make([]models.Asset, 0, len(rows))
	for i, r := range rows {
		if r.ID == "" {
			return nil, fmt.Errorf("%w: markets: row %d has no id", ErrUnexpectedShape, i)
		}
		a := models.Asset{
			ID:                    r.ID,
			Name:                  r.Name,
			Symbol:                r.Symbol,
			Image:                 r.Image,
			CurrentPrice:          deref(r.CurrentPrice),
			PriceChangePercent24h: deref(r.PriceChangePercentage24h),
			MarketCap:             deref(r.MarketCap),
			TotalVolume24h:        deref(r.TotalVolume),
			MarketCapRank:         i + 1,
		}
		if r.MarketCapRank != nil {
			a.MarketCapRank = *r.MarketCapRank
		}
		if r.SparklineIn7d != nil && len(r.SparklineIn7d.Price) > 0 {
			a.Sparkline7d = r.SparklineIn7d.Price
		}
		assets = append(assets, a)
	}
	return assets, nil
}

// parseMarketChart decodes a /market_chart body into price-only points.
func parseMarketChart(raw []byte) ([]models.ChartPoint, error) {
	var body cgMarketChart
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("%w: market_chart: %v", ErrUnexpectedShape, err)
	}
	if len(body.Prices) == 0 {
		return nil, fmt.Errorf("%w: market_chart: no prices", ErrUnexpectedShape)
	}

	points := make([]models.ChartPoint, 0, len(body.Prices))
	for i, row := range body.Prices {
		if len(row) < 2 {
			return nil, fmt.Errorf("%w: market_chart: price row %d has %d fields", ErrUnexpectedShape, i, len(row))
		}
		points = append(points, series.NewPoint(int64(row[0]), row[1]))
	}
	return points, nil
}

// parseOHLC decodes an /ohlc body into candle points with price = close.
func parseOHLC(raw []byte) ([]models.ChartPoint, error) {
	var rows []cgOHLCRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("%w: ohlc: %v", ErrUnexpectedShape, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: ohlc: no candles", ErrUnexpectedShape)
	}

	points := make([]models.ChartPoint, 0, len(rows))
	for i, row := range rows {
		if len(row) != 5 {
			return nil, fmt.Errorf("%w: ohlc: row %d has %d fields", ErrUnexpectedShape, i, len(row))
		}
		open, high, low, close := row[1], row[2], row[3], row[4]
		p := series.NewPoint(int64(row[0]), close)
		p.SetOHLC(open, high, low, close)
		points = append(points, p)
	}
	return points, nil
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// isPingHealthy reports whether a /ping body looks like CoinGecko's.
func isPingHealthy(raw []byte) bool {
	var p cgPing
	if err := json.Unmarshal(raw, &p); err != nil {
		return false
	}
	return strings.TrimSpace(p.GeckoSays) != ""
}
