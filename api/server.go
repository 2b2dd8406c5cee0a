// Package api serves the dashboard page, its form actions and the REST and
// WebSocket API built on the same dashboard.Model.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/seenimoa/cryptodash/internal/config"
	"github.com/seenimoa/cryptodash/internal/dashboard"
	"github.com/seenimoa/cryptodash/internal/provider"
	"github.com/seenimoa/cryptodash/internal/render"
	"github.com/seenimoa/cryptodash/pkg/models"
	"github.com/seenimoa/cryptodash/pkg/utils"
	"github.com/seenimoa/cryptodash/web"
)

// actionTimeout bounds one user action (refresh, select, mode switch).
// Actions are detached from the request so a closed tab does not abort a
// fetch that other viewers are waiting on.
const actionTimeout = 60 * time.Second

// Deps are the collaborators a Server needs.
type Deps struct {
	Config   *config.Config
	Model    *dashboard.Model
	Registry *provider.Registry
	Logger   *slog.Logger
	Render   render.Options
	Version  string
}

// Server is the HTTP server for the dashboard.
type Server struct {
	router   chi.Router
	cfg      *config.Config
	model    *dashboard.Model
	registry *provider.Registry
	wsHub    *WSHub
	logger   *slog.Logger
	render   render.Options
	version  string
}

// NewServer creates the server and its routes. Call Start (or
// ListenAndServe) to run the WebSocket hub.
func NewServer(d Deps) *Server {
	if d.Config == nil {
		d.Config = config.Default()
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Render.Title == "" {
		d.Render = render.DefaultOptions()
	}
	if d.Version == "" {
		d.Version = "dev"
	}

	s := &Server{
		cfg:      d.Config,
		model:    d.Model,
		registry: d.Registry,
		wsHub:    NewWSHub(),
		logger:   d.Logger,
		render:   d.Render,
		version:  d.Version,
	}
	s.router = s.buildRouter()
	return s
}

// Router returns the chi router (useful for testing).
func (s *Server) Router() chi.Router {
	return s.router
}

// Hub returns the WebSocket hub.
func (s *Server) Hub() *WSHub {
	return s.wsHub
}

// Start runs the WebSocket hub and forwards model changes to it until ctx
// is done.
func (s *Server) Start(ctx context.Context) {
	go s.wsHub.Run(ctx)
	go s.forwardState(ctx)
}

// ListenAndServe starts the HTTP server and blocks until SIGINT or SIGTERM,
// then shuts down gracefully.
func (s *Server) ListenAndServe(addr string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)

	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("dashboard listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case sig := <-quit:
		s.logger.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	return srv.Shutdown(shutdownCtx)
}

// ════════════════════════════════════════════════════════════════════
// Router
// ════════════════════════════════════════════════════════════════════

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	origins := s.cfg.API.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Page and form actions
	r.Get("/", s.handlePage)
	r.Post("/refresh", s.handleRefreshForm)
	r.Post("/select/{id}", s.handleSelectForm)
	r.Post("/mode/{mode}", s.handleModeForm)
	r.Post("/notice/dismiss", s.handleDismissForm)
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(web.StaticFS())))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Get("/state", s.handleState)
		r.Get("/assets", s.handleAssets)
		r.Get("/chart", s.handleChart)
		r.Post("/refresh", s.handleRefresh)
		r.Put("/selection", s.handleSelect)
		r.Put("/mode", s.handleMode)
		r.Post("/notice/dismiss", s.handleDismiss)

		r.Get("/providers", s.handleProviders)

		r.Get("/config", s.handleGetConfig)
		r.Get("/config/keys", s.handleGetConfigKeys)

		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// requestLogger logs one line per request through slog.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Debug("http request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration", time.Since(start),
					"request_id", middleware.GetReqID(r.Context()),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

// ════════════════════════════════════════════════════════════════════
// Request / Response Types
// ════════════════════════════════════════════════════════════════════

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// SelectRequest is the body for PUT /api/v1/selection.
type SelectRequest struct {
	ID string `json:"id"`
}

// ModeRequest is the body for PUT /api/v1/mode.
type ModeRequest struct {
	Mode string `json:"mode"`
}

// AssetEntry is an asset with its display strings.
type AssetEntry struct {
	models.Asset
	Selected  bool          `json:"selected"`
	Formatted FormattedView `json:"formatted"`
}

// FormattedView holds the display strings for an asset.
type FormattedView struct {
	Price     string `json:"price"`
	Change    string `json:"change"`
	MarketCap string `json:"market_cap"`
	Volume    string `json:"volume"`
}

// ChartResponse is the body of GET /api/v1/chart.
type ChartResponse struct {
	AssetID   string              `json:"asset_id"`
	Mode      models.ChartMode    `json:"mode"`
	Status    dashboard.Status    `json:"status"`
	Source    models.ChartSource  `json:"source"`
	Simulated bool                `json:"simulated"`
	Error     string              `json:"error,omitempty"`
	Points    []models.ChartPoint `json:"points"`
}

// ════════════════════════════════════════════════════════════════════
// Page Handlers
// ════════════════════════════════════════════════════════════════════

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	html, err := render.Page(s.model.Snapshot(), s.render)
	if err != nil {
		s.logger.Error("render page", "error", err)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write([]byte(html))
}

func (s *Server) handleRefreshForm(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := actionContext(r)
	defer cancel()
	// A failed refresh is shown on the page itself.
	_ = s.model.Refresh(ctx)
	redirectHome(w, r)
}

func (s *Server) handleSelectForm(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := actionContext(r)
	defer cancel()
	if err := s.model.Select(ctx, chi.URLParam(r, "id")); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	redirectHome(w, r)
}

func (s *Server) handleModeForm(w http.ResponseWriter, r *http.Request) {
	mode, err := models.ParseChartMode(chi.URLParam(r, "mode"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	ctx, cancel := actionContext(r)
	defer cancel()
	if err := s.model.SetMode(ctx, mode); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	redirectHome(w, r)
}

func (s *Server) handleDismissForm(w http.ResponseWriter, r *http.Request) {
	s.model.DismissNotice()
	redirectHome(w, r)
}

func redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func actionContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(r.Context()), actionTimeout)
}

// ════════════════════════════════════════════════════════════════════
// API Handlers
// ════════════════════════════════════════════════════════════════════

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	st := s.model.Snapshot()
	data := map[string]interface{}{
		"status":     "ok",
		"version":    s.version,
		"time":       utils.FormatClock(time.Now()),
		"state":      st.Version,
		"ws_clients": s.wsHub.ClientCount(),
	}
	if s.registry != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		pings := s.registry.PingAll(ctx)
		for _, p := range pings {
			if !p.OK {
				data["status"] = "degraded"
			}
		}
		data["providers"] = pings
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: data})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: s.model.Snapshot()})
}

func (s *Server) handleAssets(w http.ResponseWriter, r *http.Request) {
	st := s.model.Snapshot()
	entries := make([]AssetEntry, 0, len(st.Assets))
	for _, a := range st.Assets {
		entries = append(entries, AssetEntry{
			Asset:    a,
			Selected: a.ID == st.SelectedID,
			Formatted: FormattedView{
				Price:     utils.FormatPrice(a.CurrentPrice),
				Change:    utils.FormatPercentage(a.PriceChangePercent24h),
				MarketCap: utils.FormatMarketCap(a.MarketCap),
				Volume:    utils.FormatVolume(a.TotalVolume24h),
			},
		})
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: entries})
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	st := s.model.Snapshot()
	points := st.Chart
	if points == nil {
		points = []models.ChartPoint{}
	}
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: ChartResponse{
			AssetID:   st.SelectedID,
			Mode:      st.Mode,
			Status:    st.ChartStatus,
			Source:    st.ChartSource,
			Simulated: st.ChartSource.IsSimulated(),
			Error:     st.ChartError,
			Points:    points,
		},
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := actionContext(r)
	defer cancel()
	if err := s.model.Refresh(ctx); err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: s.model.Snapshot()})
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req SelectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ID == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	ctx, cancel := actionContext(r)
	defer cancel()
	if err := s.model.Select(ctx, req.ID); err != nil {
		if errors.Is(err, dashboard.ErrUnknownAsset) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: s.model.Snapshot()})
}

func (s *Server) handleMode(w http.ResponseWriter, r *http.Request) {
	var req ModeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	mode, err := models.ParseChartMode(req.Mode)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := actionContext(r)
	defer cancel()
	if err := s.model.SetMode(ctx, mode); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: s.model.Snapshot()})
}

func (s *Server) handleDismiss(w http.ResponseWriter, r *http.Request) {
	s.model.DismissNotice()
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: s.model.Snapshot()})
}

func (s *Server) handleProviders(w http.ResponseWriter, r *http.Request) {
	if s.registry == nil {
		writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: []provider.ProviderInfo{}})
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"providers": s.registry.List(),
			"coverage":  s.registry.ModelCoverage(),
		},
	})
}

// ════════════════════════════════════════════════════════════════════
// Helpers
// ════════════════════════════════════════════════════════════════════

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("JSON encode error", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}
