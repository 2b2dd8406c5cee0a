package main

import (
	"fmt"
	"log/slog"

	"github.com/seenimoa/cryptodash/internal/config"
	"github.com/seenimoa/cryptodash/internal/dashboard"
	"github.com/seenimoa/cryptodash/internal/market"
	"github.com/seenimoa/cryptodash/internal/provider"
	"github.com/seenimoa/cryptodash/internal/providers"
	"github.com/seenimoa/cryptodash/pkg/models"
)

// app is the wired object graph shared by the commands.
type app struct {
	logger   *slog.Logger
	registry *provider.Registry
	market   *market.Client
	model    *dashboard.Model
}

func newApp(cfg *config.Config, logger *slog.Logger) (*app, error) {
	slog.SetDefault(logger)

	reg := provider.NewRegistry()
	if err := providers.RegisterAllTo(reg, cfg.Provider, logger); err != nil {
		return nil, fmt.Errorf("registering providers: %w", err)
	}

	client := market.NewClient(reg, market.WithLogger(logger))
	model := dashboard.New(client, dashboard.Options{
		DefaultAsset: cfg.Dashboard.DefaultAsset,
		DefaultMode:  models.ChartMode(cfg.Dashboard.DefaultMode),
		Logger:       logger,
	})

	return &app{
		logger:   logger,
		registry: reg,
		market:   client,
		model:    model,
	}, nil
}
