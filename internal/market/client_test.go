package market

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/cryptodash/internal/infra"
	"github.com/seenimoa/cryptodash/internal/provider"
	"github.com/seenimoa/cryptodash/internal/providers/coingecko"
	"github.com/seenimoa/cryptodash/internal/series"
	"github.com/seenimoa/cryptodash/pkg/models"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// upstream is a fake CoinGecko that records which paths were requested.
type upstream struct {
	mu     sync.Mutex
	paths  []string
	status int
	bodies map[string]string
}

func (u *upstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	u.mu.Lock()
	u.paths = append(u.paths, r.URL.Path)
	status := u.status
	body, ok := u.bodies[r.URL.Path]
	u.mu.Unlock()

	if status != 0 {
		http.Error(w, "upstream down", status)
		return
	}
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(body))
}

func (u *upstream) requested() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.paths...)
}

func newTestClient(t *testing.T, u *upstream) *Client {
	t.Helper()
	srv := httptest.NewServer(u)
	t.Cleanup(srv.Close)

	reg := provider.NewRegistry()
	cg := coingecko.New(coingecko.Options{BaseURL: srv.URL, Client: infra.NewClient(2*time.Second, nil)})
	require.NoError(t, cg.Init(nil))
	require.NoError(t, reg.Register(cg))

	gen := series.NewGenerator(series.WithRand(series.NewRand(1)), series.WithClock(func() time.Time { return fixedNow }))
	return NewClient(reg, WithGenerator(gen))
}

var (
	withSparkline = models.Asset{ID: "bitcoin", Name: "Bitcoin", Symbol: "btc", CurrentPrice: 67000, Sparkline7d: []float64{65000, 66000, 67000}}
	noSparkline   = models.Asset{ID: "solana", Name: "Solana", Symbol: "sol", CurrentPrice: 150}
	testAssets    = []models.Asset{withSparkline, noSparkline}
)

func TestFetchAssetList(t *testing.T) {
	u := &upstream{bodies: map[string]string{
		"/coins/markets": `[{"id":"bitcoin","symbol":"btc","name":"Bitcoin","current_price":1,"market_cap_rank":1}]`,
	}}
	c := newTestClient(t, u)

	assets, err := c.FetchAssetList(context.Background())
	require.NoError(t, err)
	require.Len(t, assets, 1)
	assert.Equal(t, "bitcoin", assets[0].ID)
	assert.Equal(t, []string{"/coins/markets"}, u.requested())
}

func TestFetchAssetListError(t *testing.T) {
	u := &upstream{status: http.StatusServiceUnavailable}
	c := newTestClient(t, u)

	_, err := c.FetchAssetList(context.Background())
	var httpErr *infra.ErrHTTP
	require.True(t, errors.As(err, &httpErr), "got %v", err)
	assert.Equal(t, http.StatusServiceUnavailable, httpErr.StatusCode)
	assert.Len(t, u.requested(), 1, "exactly one attempt")
}

func TestFetchChartSeriesSparklineMakesNoRequest(t *testing.T) {
	u := &upstream{status: http.StatusInternalServerError}
	c := newTestClient(t, u)

	for _, mode := range []models.ChartMode{models.ChartModeLine, models.ChartModeCandlestick} {
		s := c.FetchChartSeries(context.Background(), testAssets, "bitcoin", mode)
		require.NoError(t, s.Err)
		assert.Equal(t, models.ChartSourceSparkline, s.Source)
		require.Len(t, s.Points, 3)
		assert.Equal(t, 67000.0, *s.Points[2].Close)
	}
	assert.Empty(t, u.requested())
}

func TestFetchChartSeriesLineUsesMarketChart(t *testing.T) {
	u := &upstream{bodies: map[string]string{
		"/coins/solana/market_chart": `{"prices":[[1714564800000,149],[1714568400000,150]]}`,
	}}
	c := newTestClient(t, u)

	s := c.FetchChartSeries(context.Background(), testAssets, "solana", models.ChartModeLine)
	require.NoError(t, s.Err)
	assert.Equal(t, models.ChartSourceProvider, s.Source)
	require.Len(t, s.Points, 2)
	assert.False(t, s.Points[0].HasOHLC())
	assert.Equal(t, []string{"/coins/solana/market_chart"}, u.requested())
}

func TestFetchChartSeriesCandlestickUsesOnlyOHLC(t *testing.T) {
	u := &upstream{bodies: map[string]string{
		"/coins/solana/ohlc": `[[1714564800000,148,152,147,150]]`,
	}}
	c := newTestClient(t, u)

	s := c.FetchChartSeries(context.Background(), testAssets, "solana", models.ChartModeCandlestick)
	require.NoError(t, s.Err)
	require.Len(t, s.Points, 1)
	assert.True(t, s.Points[0].HasOHLC())
	assert.Equal(t, 150.0, s.Points[0].Price)
	assert.Equal(t, []string{"/coins/solana/ohlc"}, u.requested(), "market_chart must never be requested")
}

func TestFetchChartSeriesFallbackOnFailure(t *testing.T) {
	u := &upstream{status: http.StatusTooManyRequests}
	c := newTestClient(t, u)

	s := c.FetchChartSeries(context.Background(), testAssets, "solana", models.ChartModeLine)
	require.Error(t, s.Err)
	assert.Equal(t, models.ChartSourceFallback, s.Source)
	require.Len(t, s.Points, series.FallbackPoints)
	assert.Equal(t, -1, series.Validate(s.Points))
	assert.Equal(t, 150.0, *s.Points[0].Close, "first fallback point sits on the current price")
}

func TestFetchChartSeriesFallbackOnBadShape(t *testing.T) {
	u := &upstream{bodies: map[string]string{
		"/coins/solana/ohlc": `{"prices":[]}`,
	}}
	c := newTestClient(t, u)

	s := c.FetchChartSeries(context.Background(), testAssets, "solana", models.ChartModeCandlestick)
	assert.ErrorIs(t, s.Err, coingecko.ErrUnexpectedShape)
	assert.Len(t, s.Points, series.FallbackPoints)
}

func TestFetchChartSeriesUnknownAsset(t *testing.T) {
	u := &upstream{status: http.StatusNotFound}
	c := newTestClient(t, u)

	s := c.FetchChartSeries(context.Background(), testAssets, "dogecoin", models.ChartModeLine)
	require.Error(t, s.Err)
	assert.Empty(t, s.Points)
	assert.Equal(t, models.ChartSourceNone, s.Source)
}

func TestFetchChartSeriesUnknownAssetProviderSuccess(t *testing.T) {
	u := &upstream{bodies: map[string]string{
		"/coins/dogecoin/market_chart": `{"prices":[[1714564800000,0.15]]}`,
	}}
	c := newTestClient(t, u)

	s := c.FetchChartSeries(context.Background(), nil, "dogecoin", models.ChartModeLine)
	require.NoError(t, s.Err)
	assert.Len(t, s.Points, 1)
}

// emptyProvider answers chart requests with an empty slice.
type emptyProvider struct {
	provider.BaseProvider
}

type emptyFetcher struct {
	provider.BaseFetcher
}

func (f *emptyFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	return provider.NewResult([]models.ChartPoint{}), nil
}

func TestFetchChartSeriesEmptyResultFallsBack(t *testing.T) {
	p := &emptyProvider{BaseProvider: provider.NewBaseProvider("empty", "", "", nil)}
	p.RegisterFetcher(&emptyFetcher{BaseFetcher: provider.NewBaseFetcher(provider.ModelCryptoPriceHistory, "", []string{provider.ParamCoinID}, nil)})
	reg := provider.NewRegistry()
	require.NoError(t, reg.Register(p))

	c := NewClient(reg)
	s := c.FetchChartSeries(context.Background(), testAssets, "solana", models.ChartModeLine)
	assert.ErrorIs(t, s.Err, ErrNoChartData)
	assert.Len(t, s.Points, series.FallbackPoints)
	assert.Same(t, reg, c.Registry())
}

// Every asset the list returns gets a non-empty chart whatever the provider does.
func TestFetchChartSeriesNeverEmptyForListedAssets(t *testing.T) {
	u := &upstream{status: http.StatusBadGateway}
	c := newTestClient(t, u)

	for _, a := range testAssets {
		for _, mode := range []models.ChartMode{models.ChartModeLine, models.ChartModeCandlestick} {
			s := c.FetchChartSeries(context.Background(), testAssets, a.ID, mode)
			assert.NotEmpty(t, s.Points, "%s/%s", a.ID, mode)
		}
	}
}
