package coingecko

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/cryptodash/internal/infra"
	"github.com/seenimoa/cryptodash/internal/provider"
	"github.com/seenimoa/cryptodash/pkg/models"
)

const marketsBody = `[
  {"id":"bitcoin","symbol":"btc","name":"Bitcoin","image":"https://img/btc.png",
   "current_price":67234.12,"market_cap":1320000000000,"market_cap_rank":1,
   "total_volume":28000000000,"price_change_percentage_24h":2.41,
   "sparkline_in_7d":{"price":[66000,66500,67234.12]}},
  {"id":"ethereum","symbol":"eth","name":"Ethereum","image":"https://img/eth.png",
   "current_price":3500.5,"market_cap":420000000000,"market_cap_rank":2,
   "total_volume":15000000000,"price_change_percentage_24h":-1.2,
   "sparkline_in_7d":null},
  {"id":"newcoin","symbol":"new","name":"New Coin","image":"",
   "current_price":null,"market_cap":null,"market_cap_rank":null,
   "total_volume":null,"price_change_percentage_24h":null}
]`

// ---------------------------------------------------------------------------
// Provider-level tests
// ---------------------------------------------------------------------------

func TestProviderInfo(t *testing.T) {
	p := New(Options{})
	info := p.Info()
	if info.Name != "coingecko" {
		t.Errorf("expected name coingecko, got %s", info.Name)
	}
	if info.Website == "" {
		t.Error("expected non-empty website")
	}
	if len(info.Credentials) != 1 || info.Credentials[0].Required {
		t.Errorf("expected one optional credential, got %+v", info.Credentials)
	}
}

func TestProviderInit(t *testing.T) {
	p := New(Options{})
	if err := p.Init(nil); err != nil {
		t.Errorf("Init with nil: %v", err)
	}
	if err := p.Init(map[string]string{"api_key": "demo"}); err != nil {
		t.Errorf("Init with key: %v", err)
	}
}

func TestProviderSupportedModels(t *testing.T) {
	p := New(Options{})
	got := p.SupportedModels()
	assert.ElementsMatch(t, provider.AllModels(), got)
}

func TestFetcherRequiredParams(t *testing.T) {
	p := New(Options{})

	tests := []struct {
		model    provider.ModelType
		required []string
	}{
		{provider.ModelCryptoMarkets, nil},
		{provider.ModelCryptoPriceHistory, []string{"coin_id"}},
		{provider.ModelCryptoOHLC, []string{"coin_id"}},
	}

	for _, tt := range tests {
		f := p.Fetcher(tt.model)
		require.NotNil(t, f, "no fetcher for %s", tt.model)
		assert.Equal(t, tt.required, f.RequiredParams(), "model %s", tt.model)
		assert.NotEmpty(t, f.Description())
	}
}

// ---------------------------------------------------------------------------
// Fetcher tests against a fake CoinGecko
// ---------------------------------------------------------------------------

type fakeGecko struct {
	t       *testing.T
	srv     *httptest.Server
	hits    map[string]*int32
	handler map[string]http.HandlerFunc
}

func newFakeGecko(t *testing.T) *fakeGecko {
	t.Helper()
	fg := &fakeGecko{t: t, hits: map[string]*int32{}, handler: map[string]http.HandlerFunc{}}
	fg.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if n, ok := fg.hits[r.URL.Path]; ok {
			atomic.AddInt32(n, 1)
		}
		h, ok := fg.handler[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		h(w, r)
	}))
	t.Cleanup(fg.srv.Close)
	return fg
}

func (fg *fakeGecko) on(path string, h http.HandlerFunc) {
	var n int32
	fg.hits[path] = &n
	fg.handler[path] = h
}

func (fg *fakeGecko) count(path string) int32 {
	if n, ok := fg.hits[path]; ok {
		return atomic.LoadInt32(n)
	}
	return 0
}

func (fg *fakeGecko) provider() *Provider {
	return New(Options{BaseURL: fg.srv.URL, Client: infra.NewClient(2*time.Second, nil)})
}

func body(s string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(s))
	}
}

func TestMarketsFetch(t *testing.T) {
	fg := newFakeGecko(t)
	fg.on("/coins/markets", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "usd", q.Get("vs_currency"))
		assert.Equal(t, "market_cap_desc", q.Get("order"))
		assert.Equal(t, "12", q.Get("per_page"))
		assert.Equal(t, "1", q.Get("page"))
		assert.Equal(t, "true", q.Get("sparkline"))
		assert.Equal(t, "24h", q.Get("price_change_percentage"))
		body(marketsBody)(w, r)
	})

	p := fg.provider()
	res, err := p.Fetcher(provider.ModelCryptoMarkets).Fetch(context.Background(), provider.QueryParams{})
	require.NoError(t, err)

	assets, ok := res.Data.([]models.Asset)
	require.True(t, ok, "data type %T", res.Data)
	require.Len(t, assets, 3)

	btc := assets[0]
	assert.Equal(t, "bitcoin", btc.ID)
	assert.Equal(t, "btc", btc.Symbol)
	assert.Equal(t, 67234.12, btc.CurrentPrice)
	assert.Equal(t, 1, btc.MarketCapRank)
	assert.Equal(t, 2.41, btc.PriceChangePercent24h)
	assert.Equal(t, []float64{66000, 66500, 67234.12}, btc.Sparkline7d)

	assert.False(t, assets[1].HasSparkline())
	assert.Equal(t, -1.2, assets[1].PriceChangePercent24h)

	// Null fields become zero; missing rank falls back to list position.
	assert.Equal(t, 0.0, assets[2].CurrentPrice)
	assert.Equal(t, 3, assets[2].MarketCapRank)
}

func TestMarketsFetchSendsAPIKey(t *testing.T) {
	fg := newFakeGecko(t)
	fg.on("/coins/markets", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "demo-key", r.Header.Get("x-cg-demo-api-key"))
		body("[]")(w, r)
	})

	p := fg.provider()
	require.NoError(t, p.Init(map[string]string{"api_key": "demo-key"}))
	_, err := p.Fetcher(provider.ModelCryptoMarkets).Fetch(context.Background(), nil)
	require.NoError(t, err)
}

func TestMarketsFetchHTTPError(t *testing.T) {
	fg := newFakeGecko(t)
	fg.on("/coins/markets", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"status":{"error_code":429}}`, http.StatusTooManyRequests)
	})

	_, err := fg.provider().Fetcher(provider.ModelCryptoMarkets).Fetch(context.Background(), nil)
	require.Error(t, err)
	var httpErr *infra.ErrHTTP
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusTooManyRequests, httpErr.StatusCode)
	assert.Equal(t, int32(1), fg.count("/coins/markets"), "no retries")
}

func TestMarketsFetchBadShape(t *testing.T) {
	fg := newFakeGecko(t)
	fg.on("/coins/markets", body(`{"error":"nope"}`))

	_, err := fg.provider().Fetcher(provider.ModelCryptoMarkets).Fetch(context.Background(), nil)
	assert.ErrorIs(t, err, ErrUnexpectedShape)
}

func TestPriceHistoryFetch(t *testing.T) {
	fg := newFakeGecko(t)
	fg.on("/coins/solana/market_chart", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "usd", q.Get("vs_currency"))
		assert.Equal(t, "7", q.Get("days"))
		assert.Equal(t, "hourly", q.Get("interval"))
		body(`{"prices":[[1700000000000,150.5],[1700003600000,151.25]],"market_caps":[],"total_volumes":[]}`)(w, r)
	})

	res, err := fg.provider().Fetcher(provider.ModelCryptoPriceHistory).
		Fetch(context.Background(), provider.QueryParams{provider.ParamCoinID: "solana"})
	require.NoError(t, err)

	points := res.Data.([]models.ChartPoint)
	require.Len(t, points, 2)
	assert.Equal(t, int64(1700000000000), points[0].Timestamp)
	assert.Equal(t, 151.25, points[1].Price)
	assert.False(t, points[0].HasOHLC())
	assert.NotEmpty(t, points[0].Date)
	assert.NotEmpty(t, points[0].Time)
}

func TestPriceHistoryBadShapes(t *testing.T) {
	bodies := map[string]string{
		"array":     `[[1,2,3,4,5]]`,
		"no prices": `{"market_caps":[]}`,
		"empty":     `{"prices":[]}`,
		"short row": `{"prices":[[1700000000000]]}`,
	}
	for name, b := range bodies {
		t.Run(name, func(t *testing.T) {
			fg := newFakeGecko(t)
			fg.on("/coins/bitcoin/market_chart", body(b))
			_, err := fg.provider().Fetcher(provider.ModelCryptoPriceHistory).
				Fetch(context.Background(), provider.QueryParams{provider.ParamCoinID: "bitcoin"})
			assert.ErrorIs(t, err, ErrUnexpectedShape)
		})
	}
}

func TestOHLCFetch(t *testing.T) {
	fg := newFakeGecko(t)
	fg.on("/coins/bitcoin/ohlc", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "7", q.Get("days"))
		assert.Empty(t, q.Get("interval"))
		body(`[[1700000000000,100,110,95,105],[1700014400000,105,108,101,102]]`)(w, r)
	})

	res, err := fg.provider().Fetcher(provider.ModelCryptoOHLC).
		Fetch(context.Background(), provider.QueryParams{provider.ParamCoinID: "bitcoin"})
	require.NoError(t, err)

	points := res.Data.([]models.ChartPoint)
	require.Len(t, points, 2)
	p := points[0]
	require.True(t, p.HasOHLC())
	assert.Equal(t, 105.0, p.Price, "price is the close")
	assert.Equal(t, 100.0, *p.Open)
	assert.Equal(t, 110.0, *p.High)
	assert.Equal(t, 95.0, *p.Low)
	assert.Equal(t, 105.0, *p.Close)
}

func TestOHLCBadShapes(t *testing.T) {
	bodies := map[string]string{
		"object":    `{"prices":[[1,2]]}`,
		"empty":     `[]`,
		"short row": `[[1700000000000,1,2,3]]`,
	}
	for name, b := range bodies {
		t.Run(name, func(t *testing.T) {
			fg := newFakeGecko(t)
			fg.on("/coins/bitcoin/ohlc", body(b))
			_, err := fg.provider().Fetcher(provider.ModelCryptoOHLC).
				Fetch(context.Background(), provider.QueryParams{provider.ParamCoinID: "bitcoin"})
			assert.ErrorIs(t, err, ErrUnexpectedShape)
		})
	}
}

func TestFetchMissingCoinID(t *testing.T) {
	p := New(Options{})
	for _, m := range []provider.ModelType{provider.ModelCryptoPriceHistory, provider.ModelCryptoOHLC} {
		_, err := p.Fetcher(m).Fetch(context.Background(), provider.QueryParams{})
		var missing *provider.ErrMissingParam
		if !errors.As(err, &missing) {
			t.Errorf("%s: expected ErrMissingParam, got %v", m, err)
		}
	}
}

func TestCoinPathEscapesID(t *testing.T) {
	got := coinPath("weird/id", "ohlc")
	if !strings.Contains(got, "weird%2Fid") {
		t.Errorf("coinPath = %s", got)
	}
}

func TestPing(t *testing.T) {
	fg := newFakeGecko(t)
	fg.on("/ping", body(`{"gecko_says":"(V3) To the Moon!"}`))
	assert.NoError(t, fg.provider().Ping(context.Background()))

	bad := newFakeGecko(t)
	bad.on("/ping", body(`{}`))
	assert.ErrorIs(t, bad.provider().Ping(context.Background()), ErrUnexpectedShape)
}

func TestOptionsOverrideDefaults(t *testing.T) {
	fg := newFakeGecko(t)
	fg.on("/coins/markets", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "25", r.URL.Query().Get("per_page"))
		body("[]")(w, r)
	})
	fg.on("/coins/bitcoin/ohlc", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "14", r.URL.Query().Get("days"))
		body(`[[1,1,1,1,1]]`)(w, r)
	})

	p := New(Options{BaseURL: fg.srv.URL + "/", PerPage: 25, Days: 14})
	_, err := p.Fetcher(provider.ModelCryptoMarkets).Fetch(context.Background(), nil)
	require.NoError(t, err)
	_, err = p.Fetcher(provider.ModelCryptoOHLC).Fetch(context.Background(), provider.QueryParams{provider.ParamCoinID: "bitcoin"})
	require.NoError(t, err)
}
