package coingecko

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/seenimoa/cryptodash/internal/provider"
)

// ---------------------------------------------------------------------------
// CryptoMarkets: ranked market overview.
// URL: /coins/markets?vs_currency=usd&order=market_cap_desc&per_page=12&page=1
//      &sparkline=true&price_change_percentage=24h
// ---------------------------------------------------------------------------

type marketsFetcher struct {
	provider.BaseFetcher
	prov *Provider
}

func newMarketsFetcher(p *Provider) *marketsFetcher {
	return &marketsFetcher{
		BaseFetcher: provider.NewBaseFetcher(
			provider.ModelCryptoMarkets,
			"CoinGecko market overview ranked by market cap, with 7-day sparklines",
			nil,
			[]string{provider.ParamCurrency, provider.ParamPerPage, provider.ParamPage},
		),
		prov: p,
	}
}

func (f *marketsFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	perPage := f.prov.perPage
	if n, err := strconv.Atoi(params[provider.ParamPerPage]); err == nil && n > 0 {
		perPage = n
	}
	page := 1
	if n, err := strconv.Atoi(params[provider.ParamPage]); err == nil && n > 0 {
		page = n
	}

	q := url.Values{}
	q.Set("vs_currency", f.prov.currencyParam(params))
	q.Set("order", "market_cap_desc")
	q.Set("per_page", strconv.Itoa(perPage))
	q.Set("page", strconv.Itoa(page))
	q.Set("sparkline", "true")
	q.Set("price_change_percentage", "24h")

	raw, err := f.prov.get(ctx, "/coins/markets", q)
	if err != nil {
		return nil, fmt.Errorf("coingecko markets: %w", err)
	}

	assets, err := parseMarkets(raw)
	if err != nil {
		return nil, err
	}
	return provider.NewResult(assets), nil
}

// ---------------------------------------------------------------------------
// CryptoPriceHistory: hourly price history.
// URL: /coins/{id}/market_chart?vs_currency=usd&days=7&interval=hourly
// ---------------------------------------------------------------------------

type priceHistoryFetcher struct {
	provider.BaseFetcher
	prov *Provider
}

func newPriceHistoryFetcher(p *Provider) *priceHistoryFetcher {
	return &priceHistoryFetcher{
		BaseFetcher: provider.NewBaseFetcher(
			provider.ModelCryptoPriceHistory,
			"CoinGecko hourly price history",
			[]string{provider.ParamCoinID},
			[]string{provider.ParamCurrency, provider.ParamDays},
		),
		prov: p,
	}
}

func (f *priceHistoryFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	id := params[provider.ParamCoinID]
	if id == "" {
		return nil, &provider.ErrMissingParam{Param: provider.ParamCoinID}
	}

	q := url.Values{}
	q.Set("vs_currency", f.prov.currencyParam(params))
	q.Set("days", f.prov.daysParam(params))
	q.Set("interval", "hourly")

	raw, err := f.prov.get(ctx, coinPath(id, "market_chart"), q)
	if err != nil {
		return nil, fmt.Errorf("coingecko market_chart %s: %w", id, err)
	}

	points, err := parseMarketChart(raw)
	if err != nil {
		return nil, err
	}
	return provider.NewResult(points), nil
}

// ---------------------------------------------------------------------------
// CryptoOHLC: OHLC candles.
// URL: /coins/{id}/ohlc?vs_currency=usd&days=7
// ---------------------------------------------------------------------------

type ohlcFetcher struct {
	provider.BaseFetcher
	prov *Provider
}

func newOHLCFetcher(p *Provider) *ohlcFetcher {
	return &ohlcFetcher{
		BaseFetcher: provider.NewBaseFetcher(
			provider.ModelCryptoOHLC,
			"CoinGecko OHLC candles",
			[]string{provider.ParamCoinID},
			[]string{provider.ParamCurrency, provider.ParamDays},
		),
		prov: p,
	}
}

func (f *ohlcFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	id := params[provider.ParamCoinID]
	if id == "" {
		return nil, &provider.ErrMissingParam{Param: provider.ParamCoinID}
	}

	q := url.Values{}
	q.Set("vs_currency", f.prov.currencyParam(params))
	q.Set("days", f.prov.daysParam(params))

	raw, err := f.prov.get(ctx, coinPath(id, "ohlc"), q)
	if err != nil {
		return nil, fmt.Errorf("coingecko ohlc %s: %w", id, err)
	}

	points, err := parseOHLC(raw)
	if err != nil {
		return nil, err
	}
	return provider.NewResult(points), nil
}
