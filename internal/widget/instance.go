package widget

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/AndersM123/MagicMirror/internal/forecast"
	"github.com/AndersM123/MagicMirror/internal/reconcile"
)

// Location is the coordinate a widget instance is registered for.
type Location struct {
	Lat      float64
	Lon      float64
	Altitude *float64
}

// DisplayHints are pass-through rendering parameters; the backend never
// interprets them, clients drawing the bars do.
type DisplayHints struct {
	LabelEvery      int     `json:"label_every"`
	MaxBarHeight    float64 `json:"max_bar_height"`
	MinNonZeroBar   float64 `json:"min_non_zero_bar"`
	ShowProbability bool    `json:"show_probability"`
}

// Instance is one running widget: its correlation token, coordinate, and the
// reconciliation state machine that owns its displayed series. All mutation
// happens under mu, driven by the manager.
type Instance struct {
	id  string
	loc Location

	mu        sync.Mutex
	policy    *reconcile.Policy
	limiter   *rate.Limiter
	lastError string
	updatedAt time.Time
}

// ID returns the instance-correlation token.
func (i *Instance) ID() string { return i.id }

// Snapshot is a point-in-time copy of an instance's display state, safe to
// serialize for rendering clients.
type Snapshot struct {
	InstanceID string           `json:"instance_id"`
	Lat        float64          `json:"lat"`
	Lon        float64          `json:"lon"`
	State      string           `json:"state"`
	Series     []forecast.Point `json:"series,omitempty"`
	Error      string           `json:"error,omitempty"`
	UpdatedAt  time.Time        `json:"updated_at"`
	Display    DisplayHints     `json:"display"`
}

// snapshotLocked builds a Snapshot; callers hold i.mu.
func (i *Instance) snapshotLocked(hints DisplayHints) Snapshot {
	current := i.policy.Current()
	return Snapshot{
		InstanceID: i.id,
		Lat:        i.loc.Lat,
		Lon:        i.loc.Lon,
		State:      current.State.String(),
		Series:     current.Series,
		Error:      i.lastError,
		UpdatedAt:  i.updatedAt,
		Display:    hints,
	}
}
