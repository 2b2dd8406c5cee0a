package provider

// ModelType names a standard data model a provider can serve.
type ModelType string

const (
	// ModelCryptoMarkets is the ranked market overview page (with 7-day sparklines).
	ModelCryptoMarkets ModelType = "CryptoMarkets"
	// ModelCryptoPriceHistory is an hourly price history for one asset.
	ModelCryptoPriceHistory ModelType = "CryptoPriceHistory"
	// ModelCryptoOHLC is an OHLC candle history for one asset.
	ModelCryptoOHLC ModelType = "CryptoOHLC"
)

// AllModels returns every model type in display order.
func AllModels() []ModelType {
	return []ModelType{
		ModelCryptoMarkets,
		ModelCryptoPriceHistory,
		ModelCryptoOHLC,
	}
}
