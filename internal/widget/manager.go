package widget

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"

	"github.com/AndersM123/MagicMirror/internal/forecast"
	"github.com/AndersM123/MagicMirror/internal/observability"
	"github.com/AndersM123/MagicMirror/internal/reconcile"
)

// limiterGrace keeps the per-instance rate limiter from skipping a legitimate
// scheduler tick that arrives a moment early.
const limiterGrace = 15 * time.Second

// Settings are the per-service knobs shared by every instance.
type Settings struct {
	Hours          int
	DebugSample    bool
	APIVersion     string
	UserAgent      string
	UpdateInterval time.Duration
	Display        DisplayHints
}

// Manager owns the widget instances: registration, fetch-cycle orchestration,
// correlation-token checking, reconciliation, and fan-out to notifiers.
type Manager struct {
	fetcher   Fetcher
	settings  Settings
	notifiers []Notifier
	logger    *slog.Logger
	metrics   *observability.Metrics
	clock     clockwork.Clock

	mu        sync.RWMutex
	instances map[string]*Instance
	ready     atomic.Bool
}

// NewManager creates a Manager with no registered instances.
func NewManager(fetcher Fetcher, settings Settings, logger *slog.Logger, metrics *observability.Metrics, clock clockwork.Clock, notifiers ...Notifier) *Manager {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Manager{
		fetcher:   fetcher,
		settings:  settings,
		notifiers: notifiers,
		logger:    logger,
		metrics:   metrics,
		clock:     clock,
		instances: make(map[string]*Instance),
	}
}

// Register creates a widget instance for a location and returns its
// correlation token. Instances never share mutable state; each gets its own
// policy and its own provider rate limiter.
func (m *Manager) Register(loc Location) string {
	spacing := m.settings.UpdateInterval - limiterGrace
	if spacing <= 0 {
		spacing = m.settings.UpdateInterval
	}

	inst := &Instance{
		id:      uuid.NewString(),
		loc:     loc,
		policy:  reconcile.New(m.settings.DebugSample, m.settings.Hours, m.clock),
		limiter: rate.NewLimiter(rate.Every(spacing), 1),
	}

	m.mu.Lock()
	m.instances[inst.id] = inst
	m.mu.Unlock()

	m.logger.Info("instance registered", "instance_id", inst.id, "lat", loc.Lat, "lon", loc.Lon)
	return inst.id
}

// CheckReadiness returns nil once at least one fetch outcome has been
// reconciled, or an error describing why the service is not yet ready.
func (m *Manager) CheckReadiness(_ context.Context) error {
	if !m.ready.Load() {
		return errors.New("no fetch cycle has completed yet")
	}
	return nil
}

// RunAll runs one fetch cycle for every registered instance. Cycles are
// sequential; the scheduler guarantees at most one RunAll in flight.
func (m *Manager) RunAll(ctx context.Context) {
	for _, inst := range m.instanceList() {
		if ctx.Err() != nil {
			return
		}
		m.runCycle(ctx, inst)
	}
}

func (m *Manager) instanceList() []*Instance {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Instance, 0, len(m.instances))
	for _, inst := range m.instances {
		out = append(out, inst)
	}
	return out
}

// runCycle issues one fetch for an instance and applies the outcome. The
// limiter enforces the provider-mandated minimum spacing even if the
// scheduler misfires.
func (m *Manager) runCycle(ctx context.Context, inst *Instance) {
	if !inst.limiter.Allow() {
		m.metrics.FetchesTotal.WithLabelValues("rate_limited").Inc()
		m.logger.Debug("fetch skipped by provider rate limit", "instance_id", inst.id)
		return
	}

	req := FetchRequest{
		Token:      inst.id,
		Lat:        inst.loc.Lat,
		Lon:        inst.loc.Lon,
		Altitude:   inst.loc.Altitude,
		Hours:      m.settings.Hours,
		APIVersion: m.settings.APIVersion,
		UserAgent:  m.settings.UserAgent,
	}

	start := time.Now()
	result := m.fetcher.Fetch(ctx, req)
	m.metrics.FetchDuration.Observe(time.Since(start).Seconds())

	m.Apply(ctx, result)
}

// Apply reconciles one fetch result. The result's correlation token must
// match a registered instance; anything else is discarded without touching
// any state, which prevents cross-talk between instances running side by
// side.
func (m *Manager) Apply(ctx context.Context, result FetchResult) {
	m.mu.RLock()
	inst, ok := m.instances[result.Token]
	m.mu.RUnlock()
	if !ok {
		m.metrics.ResponsesDiscarded.Inc()
		m.logger.Warn("discarding response with unknown correlation token", "token", result.Token)
		return
	}

	inst.mu.Lock()
	prev := inst.policy.State()

	var decision reconcile.Decision
	if result.Err != nil {
		m.metrics.FetchesTotal.WithLabelValues(errorOutcome(result.Err)).Inc()
		m.logger.Warn("fetch failed", "instance_id", inst.id, "error", result.Err)
		decision = inst.policy.OnFailure(result.Err.Error())
	} else {
		m.metrics.FetchesTotal.WithLabelValues("success").Inc()
		series := forecast.BuildSeries(result.Doc, m.settings.Hours, m.clock.Now())
		m.metrics.SeriesPoints.Observe(float64(len(series)))
		decision = inst.policy.OnSuccess(series)
	}

	inst.lastError = decision.Reason
	inst.updatedAt = m.clock.Now()
	inst.mu.Unlock()

	m.metrics.ReconcileTransitions.WithLabelValues(decision.State.String()).Inc()
	m.trackSampleGauge(prev, decision.State)
	m.ready.Store(true)

	m.notify(ctx, inst.id, decision)
}

func (m *Manager) notify(ctx context.Context, instanceID string, decision reconcile.Decision) {
	for _, n := range m.notifiers {
		var err error
		if decision.State == reconcile.ShowingError {
			err = n.FetchFailed(ctx, instanceID, decision.Reason)
		} else {
			err = n.DataReady(ctx, instanceID, decision.Series)
		}
		if err != nil {
			m.logger.Warn("notifier failed", "instance_id", instanceID, "error", err)
		}
	}
}

func (m *Manager) trackSampleGauge(prev, next reconcile.State) {
	switch {
	case prev != reconcile.ShowingSample && next == reconcile.ShowingSample:
		m.metrics.InstancesOnSample.Inc()
	case prev == reconcile.ShowingSample && next != reconcile.ShowingSample:
		m.metrics.InstancesOnSample.Dec()
	}
}

// Snapshot returns the display state of one instance.
func (m *Manager) Snapshot(instanceID string) (Snapshot, bool) {
	m.mu.RLock()
	inst, ok := m.instances[instanceID]
	m.mu.RUnlock()
	if !ok {
		return Snapshot{}, false
	}

	inst.mu.Lock()
	defer inst.mu.Unlock()
	return inst.snapshotLocked(m.settings.Display), true
}

// Snapshots returns the display state of every instance.
func (m *Manager) Snapshots() []Snapshot {
	out := make([]Snapshot, 0)
	for _, inst := range m.instanceList() {
		inst.mu.Lock()
		out = append(out, inst.snapshotLocked(m.settings.Display))
		inst.mu.Unlock()
	}
	return out
}

func errorOutcome(err error) string {
	switch {
	case errors.Is(err, ErrMalformed):
		return "malformed"
	case errors.Is(err, ErrTransport):
		return "transport_error"
	default:
		return "error"
	}
}
