// Package providers initializes and registers the concrete market data
// providers with a provider registry.
package providers

import (
	"fmt"
	"log/slog"

	"github.com/seenimoa/cryptodash/internal/config"
	"github.com/seenimoa/cryptodash/internal/infra"
	"github.com/seenimoa/cryptodash/internal/provider"
	"github.com/seenimoa/cryptodash/internal/providers/coingecko"
)

// Names lists the providers this build can construct.
func Names() []string {
	return []string{"coingecko"}
}

// RegisterAllTo creates every available provider from cfg, registers it with
// reg, and makes cfg.Name the default for the models it serves.
func RegisterAllTo(reg *provider.Registry, cfg config.ProviderConfig, logger *slog.Logger) error {
	client := infra.NewClient(cfg.Timeout(), logger)

	// --- CoinGecko (free, optional demo key) ---
	cg := coingecko.New(coingecko.Options{
		BaseURL:  cfg.BaseURL,
		Currency: cfg.Currency,
		PerPage:  cfg.PerPage,
		Days:     cfg.ChartDays,
		Client:   client,
	})
	creds := map[string]string{}
	if cfg.APIKey != "" {
		creds["api_key"] = cfg.APIKey
	}
	if err := cg.Init(creds); err != nil {
		return err
	}
	if err := reg.Register(cg); err != nil {
		return err
	}

	name := cfg.Name
	if name == "" {
		name = "coingecko"
	}
	if err := reg.SetDefault(name); err != nil {
		return fmt.Errorf("provider.name: %w", err)
	}
	return nil
}
