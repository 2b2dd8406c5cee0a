// Package market is the dashboard's data access layer. It routes list and
// chart requests through the provider registry and resolves a chart series
// for an asset from, in order, its cached sparkline, the provider's history
// endpoint for the chart mode, or a simulated fallback.
package market

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/seenimoa/cryptodash/internal/provider"
	"github.com/seenimoa/cryptodash/internal/series"
	"github.com/seenimoa/cryptodash/pkg/models"
)

// ErrNoChartData is returned when a provider answers a chart request with
// an empty series.
var ErrNoChartData = errors.New("market: provider returned no chart data")

// ErrUnexpectedData is returned when a fetch result carries the wrong type.
var ErrUnexpectedData = errors.New("market: unexpected result data type")

// Series is a resolved chart series. Err is set when the provider request
// failed; Points then holds the fallback series, or nothing when the asset
// is unknown.
type Series struct {
	Points []models.ChartPoint `json:"points"`
	Source models.ChartSource  `json:"source"`
	Err    error               `json:"-"`
}

// Client fetches market data through a provider registry.
type Client struct {
	registry *provider.Registry
	gen      *series.Generator
	logger   *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithGenerator sets the synthetic series generator.
func WithGenerator(g *series.Generator) Option {
	return func(c *Client) { c.gen = g }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a Client over reg.
func NewClient(reg *provider.Registry, opts ...Option) *Client {
	c := &Client{registry: reg}
	for _, o := range opts {
		o(c)
	}
	if c.gen == nil {
		c.gen = series.NewGenerator()
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Registry returns the provider registry used by this client.
func (c *Client) Registry() *provider.Registry {
	return c.registry
}

// FetchAssetList fetches the ranked asset page in one request.
func (c *Client) FetchAssetList(ctx context.Context) ([]models.Asset, error) {
	result, err := c.registry.Fetch(ctx, provider.ModelCryptoMarkets, provider.QueryParams{})
	if err != nil {
		return nil, fmt.Errorf("fetch asset list: %w", err)
	}
	assets, ok := result.Data.([]models.Asset)
	if !ok {
		return nil, fmt.Errorf("fetch asset list: %w: %T", ErrUnexpectedData, result.Data)
	}
	c.logger.Debug("asset list fetched", "provider", result.Provider, "count", len(assets))
	return assets, nil
}

// FetchChartSeries resolves the chart series for id.
//
// A sparkline on the matching asset is used directly with no request.
// Otherwise the mode decides the request: price history for line, OHLC
// candles for candlestick. When that request fails the returned Series
// carries the error and a fallback built from the asset's current price.
// An unknown id with a failed request yields no points.
func (c *Client) FetchChartSeries(ctx context.Context, assets []models.Asset, id string, mode models.ChartMode) Series {
	asset, known := models.FindAsset(assets, id)
	if known && asset.HasSparkline() {
		return Series{
			Points: c.gen.FromSparkline(asset.Sparkline7d),
			Source: models.ChartSourceSparkline,
		}
	}

	points, err := c.fetchHistory(ctx, id, mode)
	if err == nil {
		return Series{Points: points, Source: models.ChartSourceProvider}
	}

	c.logger.Warn("chart fetch failed", "asset", id, "mode", mode, "error", err)
	if !known {
		return Series{Source: models.ChartSourceNone, Err: err}
	}
	return Series{
		Points: c.gen.Fallback(asset.CurrentPrice),
		Source: models.ChartSourceFallback,
		Err:    err,
	}
}

func (c *Client) fetchHistory(ctx context.Context, id string, mode models.ChartMode) ([]models.ChartPoint, error) {
	model := provider.ModelCryptoPriceHistory
	if mode == models.ChartModeCandlestick {
		model = provider.ModelCryptoOHLC
	}

	result, err := c.registry.Fetch(ctx, model, provider.QueryParams{provider.ParamCoinID: id})
	if err != nil {
		return nil, err
	}
	points, ok := result.Data.([]models.ChartPoint)
	if !ok {
		return nil, fmt.Errorf("%s %s: %w: %T", model, id, ErrUnexpectedData, result.Data)
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("%s %s: %w", model, id, ErrNoChartData)
	}
	return points, nil
}
