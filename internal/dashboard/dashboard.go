// Package dashboard owns the dashboard's view state.
//
// A Model holds the asset list, the selection, the chart mode and the
// derived chart series. Every mutation goes through Model methods under one
// mutex, bumps State.Version and is published to subscribers. The list and
// chart state machines are independent: a failed list refresh never touches
// the chart and a failed chart fetch never touches the list.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/seenimoa/cryptodash/internal/market"
	"github.com/seenimoa/cryptodash/pkg/models"
)

// DefaultAsset is selected when nothing else is.
const DefaultAsset = "bitcoin"

// ErrUnknownAsset is returned by Select for an id that is not in the list.
var ErrUnknownAsset = errors.New("dashboard: unknown asset")

// MarketData is the data source the Model reads from.
// *market.Client implements it.
type MarketData interface {
	FetchAssetList(ctx context.Context) ([]models.Asset, error)
	FetchChartSeries(ctx context.Context, assets []models.Asset, id string, mode models.ChartMode) market.Series
}

// Options configures a Model.
type Options struct {
	DefaultAsset string
	DefaultMode  models.ChartMode
	Logger       *slog.Logger
	Now          func() time.Time
}

// Model is the view-state owner.
type Model struct {
	data   MarketData
	logger *slog.Logger
	now    func() time.Time

	defaultAsset string

	mu       sync.Mutex
	state    State
	chartGen uint64
	subs     map[uuid.UUID]chan State

	refreshes singleflight.Group
}

// New creates a Model in its initial state. No data is fetched until
// Refresh is called.
func New(data MarketData, opts Options) *Model {
	if opts.DefaultAsset == "" {
		opts.DefaultAsset = DefaultAsset
	}
	if opts.DefaultMode == "" {
		opts.DefaultMode = models.ChartModeLine
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Model{
		data:         data,
		logger:       opts.Logger,
		now:          opts.Now,
		defaultAsset: opts.DefaultAsset,
		state: State{
			SelectedID:  opts.DefaultAsset,
			Mode:        opts.DefaultMode,
			ListStatus:  StatusIdle,
			ChartStatus: StatusIdle,
		},
		subs: make(map[uuid.UUID]chan State),
	}
}

// Snapshot returns the current state.
func (m *Model) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Subscribe registers a listener. The channel holds at most one pending
// state; a slow reader only ever sees the latest one.
func (m *Model) Subscribe() (uuid.UUID, <-chan State) {
	id := uuid.New()
	ch := make(chan State, 1)

	m.mu.Lock()
	m.subs[id] = ch
	m.mu.Unlock()
	return id, ch
}

// Unsubscribe removes a listener and closes its channel.
func (m *Model) Unsubscribe(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ch, ok := m.subs[id]; ok {
		delete(m.subs, id)
		close(ch)
	}
}

// Subscribers returns the number of registered listeners.
func (m *Model) Subscribers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subs)
}

// Refresh fetches the asset list. Concurrent calls share one request.
//
// On success the list is replaced, the list error cleared, LastUpdated
// stamped and the chart re-derived for the selection. On failure the error
// is recorded and the previous list is kept.
func (m *Model) Refresh(ctx context.Context) error {
	_, err, shared := m.refreshes.Do("list", func() (any, error) {
		return nil, m.refresh(ctx)
	})
	if shared {
		m.logger.Debug("refresh coalesced")
	}
	return err
}

func (m *Model) refresh(ctx context.Context) error {
	m.update(func(s *State) {
		s.ListStatus = StatusLoading
	})

	assets, err := m.data.FetchAssetList(ctx)
	if err != nil {
		m.logger.Warn("asset list refresh failed", "error", err)
		m.update(func(s *State) {
			s.ListStatus = StatusErrored
			s.ListError = err.Error()
		})
		return err
	}

	now := m.now()
	m.update(func(s *State) {
		s.Assets = assets
		s.ListStatus = StatusReady
		s.ListError = ""
		s.LastUpdated = &now
		s.SelectedID = m.reconcileSelection(assets, s.SelectedID)
	})
	m.logger.Info("asset list refreshed", "count", len(assets))

	m.runChart(ctx)
	return nil
}

// reconcileSelection keeps id if it is listed, else falls back to the
// default asset, else to the first asset.
func (m *Model) reconcileSelection(assets []models.Asset, id string) string {
	if len(assets) == 0 {
		return id
	}
	if _, ok := models.FindAsset(assets, id); ok {
		return id
	}
	if _, ok := models.FindAsset(assets, m.defaultAsset); ok {
		return m.defaultAsset
	}
	return assets[0].ID
}

// Select makes id the selected asset and re-derives the chart.
func (m *Model) Select(ctx context.Context, id string) error {
	m.mu.Lock()
	if _, ok := models.FindAsset(m.state.Assets, id); !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrUnknownAsset, id)
	}
	m.mutateLocked(func(s *State) { s.SelectedID = id })
	m.mu.Unlock()

	m.runChart(ctx)
	return nil
}

// SetMode switches the chart mode and re-derives the chart.
func (m *Model) SetMode(ctx context.Context, mode models.ChartMode) error {
	if _, err := models.ParseChartMode(string(mode)); err != nil {
		return err
	}
	m.update(func(s *State) { s.Mode = mode })
	m.runChart(ctx)
	return nil
}

// DismissNotice hides the simulated-data notice until the next chart run.
func (m *Model) DismissNotice() {
	m.update(func(s *State) { s.NoticeDismissed = true })
}

// runChart derives the chart for the current selection and mode. Only the
// most recently started run may write its result.
func (m *Model) runChart(ctx context.Context) {
	m.mu.Lock()
	if len(m.state.Assets) == 0 {
		m.mu.Unlock()
		return
	}
	m.chartGen++
	gen := m.chartGen
	assets, id, mode := m.state.Assets, m.state.SelectedID, m.state.Mode
	m.mutateLocked(func(s *State) {
		s.ChartStatus = StatusLoading
		s.ChartError = ""
		s.NoticeDismissed = false
	})
	m.mu.Unlock()

	result := m.data.FetchChartSeries(ctx, assets, id, mode)

	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.chartGen {
		m.logger.Debug("discarding stale chart result", "asset", id, "mode", mode, "generation", gen)
		return
	}
	m.mutateLocked(func(s *State) {
		s.Chart = result.Points
		s.ChartSource = result.Source
		if result.Err != nil {
			s.ChartStatus = StatusErrored
			s.ChartError = result.Err.Error()
			return
		}
		s.ChartStatus = StatusReady
	})
}

// update applies fn under the lock.
func (m *Model) update(fn func(*State)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mutateLocked(fn)
}

// mutateLocked applies fn, bumps the version and publishes. m.mu must be held.
func (m *Model) mutateLocked(fn func(*State)) {
	fn(&m.state)
	m.state.Version++
	snap := m.state
	for _, ch := range m.subs {
		select {
		case ch <- snap:
		default:
			// Drop the pending state so the reader gets the latest.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}
