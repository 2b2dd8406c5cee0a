// Crypto Dashboard: live cryptocurrency prices and charts.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/seenimoa/cryptodash/api"
	"github.com/seenimoa/cryptodash/internal/config"
	"github.com/seenimoa/cryptodash/internal/infra"
	"github.com/seenimoa/cryptodash/pkg/models"
	"github.com/seenimoa/cryptodash/pkg/utils"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config
var cfg *config.Config

// simulatedNotice is shown whenever a chart was synthesized.
const simulatedNotice = "Chart data unavailable from API. Showing simulated data based on current price."

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "cryptodash",
	Short: "Crypto Dashboard: live cryptocurrency prices and charts",
	Long: `Crypto Dashboard
Serves a web dashboard of the top cryptocurrencies by market cap with a
7-day price chart for the selected asset, backed by the CoinGecko API.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			cfg.Logging.Level = strings.ToLower(lvl)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		if err := utils.SetDisplayLocation(cfg.Dashboard.DisplayTimezone); err != nil {
			return fmt.Errorf("display timezone: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(marketsCmd)
	rootCmd.AddCommand(chartCmd)
	rootCmd.AddCommand(statusCmd)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "cryptodash %s\n", version)
		fmt.Fprintf(out, "  commit:  %s\n", commit)
		fmt.Fprintf(out, "  built:   %s\n", date)
	},
}

// --- Serve Command ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cfg, infra.NewLogger(os.Stderr, cfg.Logging.Level, cfg.Logging.Format))
		if err != nil {
			return err
		}

		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = cfg.API.Addr()
		}

		// The page shows a failed first load; the server still starts.
		ctx, cancel := context.WithTimeout(cmd.Context(), 2*cfg.Provider.Timeout())
		if err := app.model.Refresh(ctx); err != nil {
			app.logger.Warn("initial load failed", "error", err)
		}
		cancel()

		srv := api.NewServer(api.Deps{
			Config:   cfg,
			Model:    app.model,
			Registry: app.registry,
			Logger:   app.logger,
			Version:  version,
		})
		return srv.ListenAndServe(addr)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default: api.host:api.port from config)")
}

// --- Markets Command ---

var marketsCmd = &cobra.Command{
	Use:   "markets",
	Short: "Print the top assets by market cap",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cfg, infra.NewLogger(os.Stderr, cfg.Logging.Level, cfg.Logging.Format))
		if err != nil {
			return err
		}

		assets, err := app.market.FetchAssetList(cmd.Context())
		if err != nil {
			return fmt.Errorf("fetching markets: %w", err)
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintln(tw, "#\tNAME\tSYMBOL\tPRICE\t24H\tMARKET CAP\tVOLUME\t")
		for _, a := range assets {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
				a.MarketCapRank,
				a.Name,
				strings.ToUpper(a.Symbol),
				utils.FormatPrice(a.CurrentPrice),
				utils.FormatPercentage(a.PriceChangePercent24h),
				utils.FormatMarketCap(a.MarketCap),
				utils.FormatVolume(a.TotalVolume24h),
			)
		}
		return tw.Flush()
	},
}

// --- Chart Command ---

var chartCmd = &cobra.Command{
	Use:   "chart [asset-id]",
	Short: "Summarize the 7-day chart series for an asset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		modeFlag, _ := cmd.Flags().GetString("mode")
		mode, err := models.ParseChartMode(modeFlag)
		if err != nil {
			return err
		}

		app, err := newApp(cfg, infra.NewLogger(os.Stderr, cfg.Logging.Level, cfg.Logging.Format))
		if err != nil {
			return err
		}

		assets, err := app.market.FetchAssetList(cmd.Context())
		if err != nil {
			return fmt.Errorf("fetching markets: %w", err)
		}

		id := strings.ToLower(args[0])
		s := app.market.FetchChartSeries(cmd.Context(), assets, id, mode)
		out := cmd.OutOrStdout()
		if len(s.Points) == 0 {
			if s.Err != nil {
				return fmt.Errorf("no chart data for %q: %w", id, s.Err)
			}
			return fmt.Errorf("no chart data for %q", id)
		}

		fmt.Fprintf(out, "Asset:   %s\n", id)
		fmt.Fprintf(out, "Mode:    %s\n", mode)
		fmt.Fprintf(out, "Source:  %s\n", s.Source)
		fmt.Fprintf(out, "Points:  %d\n", len(s.Points))

		first, last := s.Points[0], s.Points[len(s.Points)-1]
		lo, hi := first.Price, first.Price
		for _, p := range s.Points {
			lo = min(lo, p.Price)
			hi = max(hi, p.Price)
		}
		fmt.Fprintf(out, "From:    %s %s  %s\n", first.Date, first.Time, utils.FormatPrice(first.Price))
		fmt.Fprintf(out, "To:      %s %s  %s\n", last.Date, last.Time, utils.FormatPrice(last.Price))
		fmt.Fprintf(out, "Range:   %s - %s\n", utils.FormatPrice(lo), utils.FormatPrice(hi))
		if s.Source.IsSimulated() {
			fmt.Fprintf(out, "\n%s\n", simulatedNotice)
		}
		return nil
	},
}

func init() {
	chartCmd.Flags().String("mode", "line", "chart mode (line, candlestick)")
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration and provider reachability",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cfg, infra.NewLogger(os.Stderr, cfg.Logging.Level, cfg.Logging.Format))
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "═══════════════════════════════════════")
		fmt.Fprintln(out, "  Crypto Dashboard: System Status")
		fmt.Fprintln(out, "═══════════════════════════════════════")
		fmt.Fprintf(out, "  Version:       %s (%s)\n", version, commit)
		fmt.Fprintf(out, "  Time:          %s\n", utils.FormatClock(time.Now()))
		fmt.Fprintln(out)

		fmt.Fprintln(out, "  Configuration:")
		fmt.Fprintf(out, "    Provider:      %s (%s)\n", cfg.Provider.Name, cfg.Provider.BaseURL)
		fmt.Fprintf(out, "    Assets:        top %d in %s\n", cfg.Provider.PerPage, strings.ToUpper(cfg.Provider.Currency))
		fmt.Fprintf(out, "    Default:       %s (%s)\n", cfg.Dashboard.DefaultAsset, cfg.Dashboard.DefaultMode)
		fmt.Fprintf(out, "    Web Server:    %s\n", cfg.API.Addr())
		fmt.Fprintln(out)

		fmt.Fprintln(out, "  API Keys:")
		for _, k := range config.CheckAPIKeys(cfg) {
			status := "not set"
			if k.IsSet {
				status = fmt.Sprintf("set (%s: %s)", k.Source, k.Masked)
			}
			fmt.Fprintf(out, "    %-25s %s\n", k.Name+":", status)
		}
		fmt.Fprintln(out)

		fmt.Fprintln(out, "  Providers:")
		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Provider.Timeout())
		defer cancel()
		for _, p := range app.registry.PingAll(ctx) {
			status := fmt.Sprintf("reachable (%s)", p.Latency.Round(time.Millisecond))
			if !p.OK {
				status = "unreachable: " + p.Error
			}
			fmt.Fprintf(out, "    %-25s %s\n", p.Provider+":", status)
		}

		fmt.Fprintln(out, "═══════════════════════════════════════")
		return nil
	},
}
