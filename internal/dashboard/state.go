package dashboard

import (
	"time"

	"github.com/seenimoa/cryptodash/pkg/models"
)

// Status is the phase of one of the view's state machines.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusErrored Status = "errored"
)

// State is an immutable snapshot of the view. Slices are never mutated
// after a snapshot is published.
type State struct {
	Assets     []models.Asset   `json:"assets"`
	SelectedID string           `json:"selected_id"`
	Mode       models.ChartMode `json:"mode"`

	ListStatus Status `json:"list_status"`
	ListError  string `json:"list_error,omitempty"`

	ChartStatus     Status              `json:"chart_status"`
	ChartError      string              `json:"chart_error,omitempty"`
	Chart           []models.ChartPoint `json:"chart"`
	ChartSource     models.ChartSource  `json:"chart_source"`
	NoticeDismissed bool                `json:"notice_dismissed"`

	LastUpdated *time.Time `json:"last_updated,omitempty"`
	Version     uint64     `json:"version"`
}

// ListLoading reports whether the asset list is being fetched.
func (s State) ListLoading() bool { return s.ListStatus == StatusLoading }

// ChartLoading reports whether chart data is being derived.
func (s State) ChartLoading() bool { return s.ChartStatus == StatusLoading }

// Selected returns the selected asset if it is in the current list.
func (s State) Selected() (models.Asset, bool) {
	return models.FindAsset(s.Assets, s.SelectedID)
}

// ShowNotice reports whether the simulated-data notice should be shown.
func (s State) ShowNotice() bool {
	return s.ChartError != "" && !s.NoticeDismissed
}
