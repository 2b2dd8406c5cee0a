// Package coingecko implements the CoinGecko market data provider.
// The public v3 API needs no key; a demo key raises the rate ceiling and is
// sent as a header when configured.
// Coverage: ranked market overview with 7-day sparklines, hourly price
// history and OHLC candles.
package coingecko

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/seenimoa/cryptodash/internal/infra"
	"github.com/seenimoa/cryptodash/internal/provider"
)

const (
	providerName = "coingecko"

	// DefaultBaseURL is the public CoinGecko v3 API root.
	DefaultBaseURL = "https://api.coingecko.com/api/v3"

	DefaultCurrency = "usd"
	DefaultPerPage  = 12
	DefaultDays     = 7

	// apiKeyHeader carries the demo API key.
	apiKeyHeader = "x-cg-demo-api-key"

	credAPIKey = "api_key"
)

// ErrUnexpectedShape is returned when a response body does not match the
// structure expected for the endpoint.
var ErrUnexpectedShape = errors.New("coingecko: unexpected response shape")

// Options configures the provider.
type Options struct {
	BaseURL  string
	Currency string
	PerPage  int
	Days     int
	Client   *infra.Client
}

// Provider is the CoinGecko data provider.
type Provider struct {
	provider.BaseProvider

	baseURL  string
	currency string
	perPage  int
	days     int
	client   *infra.Client
}

// New creates a CoinGecko provider and registers all fetchers.
// Zero-valued options fall back to the public API defaults.
func New(opts Options) *Provider {
	p := &Provider{
		BaseProvider: provider.NewBaseProvider(
			providerName,
			"CoinGecko - public crypto market data API",
			"https://www.coingecko.com",
			[]provider.ProviderCredential{{
				Name:        credAPIKey,
				Description: "CoinGecko demo API key (optional)",
				Required:    false,
				EnvVar:      "CRYPTODASH_PROVIDER_API_KEY",
			}},
		),
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		currency: strings.ToLower(opts.Currency),
		perPage:  opts.PerPage,
		days:     opts.Days,
		client:   opts.Client,
	}
	if p.baseURL == "" {
		p.baseURL = DefaultBaseURL
	}
	if p.currency == "" {
		p.currency = DefaultCurrency
	}
	if p.perPage <= 0 {
		p.perPage = DefaultPerPage
	}
	if p.days <= 0 {
		p.days = DefaultDays
	}
	if p.client == nil {
		p.client = infra.NewClient(infra.DefaultTimeout, nil)
	}

	p.RegisterFetcher(newMarketsFetcher(p))
	p.RegisterFetcher(newPriceHistoryFetcher(p))
	p.RegisterFetcher(newOHLCFetcher(p))

	return p
}

// Ping checks the /ping endpoint.
func (p *Provider) Ping(ctx context.Context) error {
	raw, err := p.get(ctx, "/ping", nil)
	if err != nil {
		return fmt.Errorf("coingecko ping: %w", err)
	}
	if !isPingHealthy(raw) {
		return fmt.Errorf("coingecko ping: %w", ErrUnexpectedShape)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Request helpers.
// ---------------------------------------------------------------------------

// get issues a GET against path with the given query and returns the body.
func (p *Provider) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	u := p.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var headers map[string]string
	if key := p.Credential(credAPIKey); key != "" {
		headers = map[string]string{apiKeyHeader: key}
	}
	return p.client.Get(ctx, u, headers)
}

// coinPath builds /coins/{id}/{endpoint} with the id escaped.
func coinPath(id, endpoint string) string {
	return "/coins/" + url.PathEscape(id) + "/" + endpoint
}

// currencyParam returns params[vs_currency] or the provider default.
func (p *Provider) currencyParam(params provider.QueryParams) string {
	if c := params[provider.ParamCurrency]; c != "" {
		return strings.ToLower(c)
	}
	return p.currency
}

// daysParam returns params[days] or the provider default.
func (p *Provider) daysParam(params provider.QueryParams) string {
	if d, err := strconv.Atoi(params[provider.ParamDays]); err == nil && d > 0 {
		return strconv.Itoa(d)
	}
	return strconv.Itoa(p.days)
}
