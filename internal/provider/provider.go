// Package provider implements the market data adapter layer.
// It defines a Provider interface, a Fetcher interface, and a registry
// that routes data requests to the appropriate provider by model type.
// Providers translate their wire formats into pkg/models types; nothing
// above this layer sees provider-specific field names.
package provider

import (
	"context"
	"fmt"
	"time"
)

// ProviderCredential describes a credential a provider can use.
type ProviderCredential struct {
	Name        string `json:"name"`        // e.g., "api_key"
	Description string `json:"description"` // e.g., "CoinGecko demo API key"
	Required    bool   `json:"required"`
	EnvVar      string `json:"env_var"` // e.g., "CRYPTODASH_PROVIDER_API_KEY"
}

// ProviderInfo holds metadata about a registered provider.
type ProviderInfo struct {
	Name        string               `json:"name"`        // e.g., "coingecko"
	Description string               `json:"description"` // human-readable description
	Website     string               `json:"website"`
	Credentials []ProviderCredential `json:"credentials"`
	Models      []ModelType          `json:"models"`
}

// Provider is the interface that all market data providers implement.
type Provider interface {
	// Info returns metadata about this provider.
	Info() ProviderInfo

	// Init configures the provider with credentials. Returns an error if a
	// required credential is missing.
	Init(credentials map[string]string) error

	// Fetcher returns the fetcher for the given model type, or nil if unsupported.
	Fetcher(model ModelType) Fetcher

	// SupportedModels returns all model types this provider can fetch.
	SupportedModels() []ModelType

	// Ping verifies the provider is reachable.
	Ping(ctx context.Context) error
}

// QueryParams is the generic query parameter map passed to fetchers.
//   - "coin_id"     : provider asset id (e.g., "bitcoin")
//   - "vs_currency" : quote currency, always "usd" here
//   - "days"        : history window in days
//   - "per_page"    : page size of the market list
//   - "page"        : 1-based page number
//   - "provider"    : override provider name
type QueryParams map[string]string

const (
	ParamCoinID   = "coin_id"
	ParamCurrency = "vs_currency"
	ParamDays     = "days"
	ParamPerPage  = "per_page"
	ParamPage     = "page"
	ParamProvider = "provider"
)

// FetchResult wraps a fetcher result with metadata.
type FetchResult struct {
	Provider  string    `json:"provider"`
	Model     ModelType `json:"model"`
	Data      any       `json:"data"` // typed per model, see Fetcher.Fetch
	FetchedAt time.Time `json:"fetched_at"`
}

// Fetcher fetches a single model type.
type Fetcher interface {
	ModelType() ModelType
	Description() string
	RequiredParams() []string
	OptionalParams() []string

	// Fetch retrieves data for the given query parameters.
	//   - CryptoMarkets      → []models.Asset
	//   - CryptoPriceHistory → []models.ChartPoint (price only)
	//   - CryptoOHLC         → []models.ChartPoint (price = close, OHLC set)
	Fetch(ctx context.Context, params QueryParams) (*FetchResult, error)
}

// ErrProviderNotFound is returned when a requested provider is not registered.
type ErrProviderNotFound struct {
	Name string
}

func (e *ErrProviderNotFound) Error() string {
	return fmt.Sprintf("provider %q not found", e.Name)
}

// ErrModelNotSupported is returned when a provider doesn't support a model type.
type ErrModelNotSupported struct {
	Provider string
	Model    ModelType
}

func (e *ErrModelNotSupported) Error() string {
	return fmt.Sprintf("provider %q does not support model %q", e.Provider, e.Model)
}

// ErrMissingParam is returned when a required query parameter is missing.
type ErrMissingParam struct {
	Param string
}

func (e *ErrMissingParam) Error() string {
	return fmt.Sprintf("missing required parameter %q", e.Param)
}

// ErrInvalidCredentials is returned when provider credentials are invalid.
type ErrInvalidCredentials struct {
	Provider string
	Detail   string
}

func (e *ErrInvalidCredentials) Error() string {
	return fmt.Sprintf("invalid credentials for provider %q: %s", e.Provider, e.Detail)
}

// ValidateParams checks that all required parameters are present in params.
func ValidateParams(params QueryParams, required []string) error {
	for _, key := range required {
		if v, ok := params[key]; !ok || v == "" {
			return &ErrMissingParam{Param: key}
		}
	}
	return nil
}
