package widget_test

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AndersM123/MagicMirror/internal/forecast"
	"github.com/AndersM123/MagicMirror/internal/observability"
	"github.com/AndersM123/MagicMirror/internal/widget"
)

// --- mocks ---

type mockFetcher struct {
	requests []widget.FetchRequest
	doc      forecast.Document
	err      error
}

func (m *mockFetcher) Fetch(_ context.Context, req widget.FetchRequest) widget.FetchResult {
	m.requests = append(m.requests, req)
	return widget.FetchResult{Token: req.Token, Doc: m.doc, Err: m.err}
}

type notification struct {
	instanceID string
	series     []forecast.Point
	reason     string
}

type mockNotifier struct {
	dataReady []notification
	failed    []notification
}

func (m *mockNotifier) DataReady(_ context.Context, id string, series []forecast.Point) error {
	m.dataReady = append(m.dataReady, notification{instanceID: id, series: series})
	return nil
}

func (m *mockNotifier) FetchFailed(_ context.Context, id, reason string) error {
	m.failed = append(m.failed, notification{instanceID: id, reason: reason})
	return nil
}

// --- helpers ---

func wetDocument(now time.Time) forecast.Document {
	var doc forecast.Document
	for i := 1; i <= 3; i++ {
		var slot forecast.TimeSlot
		slot.Time = now.Add(time.Duration(i) * time.Hour)
		w := &forecast.Window{}
		amount := 0.5 * float64(i)
		w.Details.PrecipitationAmount = &amount
		slot.Data.Next1Hours = w
		doc.Properties.Timeseries = append(doc.Properties.Timeseries, slot)
	}
	return doc
}

func newTestManager(t *testing.T, fetcher widget.Fetcher, debugSample bool, notifiers ...widget.Notifier) (*widget.Manager, clockwork.Clock) {
	t.Helper()
	clock := clockwork.NewFakeClockAt(time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC))
	settings := widget.Settings{
		Hours:          24,
		DebugSample:    debugSample,
		APIVersion:     "2.0",
		UserAgent:      "test-agent/1.0",
		UpdateInterval: 10 * time.Minute,
		Display:        widget.DisplayHints{LabelEvery: 3, MaxBarHeight: 60, MinNonZeroBar: 2, ShowProbability: true},
	}
	return widget.NewManager(fetcher, settings, slog.Default(), observability.NewMetricsForTesting(), clock, notifiers...), clock
}

// --- tests ---

func TestManager_SuccessfulCycleNotifiesLiveSeries(t *testing.T) {
	notifier := &mockNotifier{}
	fetcher := &mockFetcher{}
	m, clock := newTestManager(t, fetcher, false, notifier)
	fetcher.doc = wetDocument(clock.Now())

	id := m.Register(widget.Location{Lat: 63.4, Lon: 10.4})
	m.RunAll(context.Background())

	require.Len(t, fetcher.requests, 1)
	assert.Equal(t, id, fetcher.requests[0].Token)
	assert.Equal(t, 63.4, fetcher.requests[0].Lat)
	assert.Equal(t, "test-agent/1.0", fetcher.requests[0].UserAgent)

	require.Len(t, notifier.dataReady, 1)
	assert.Equal(t, id, notifier.dataReady[0].instanceID)
	assert.Len(t, notifier.dataReady[0].series, 3)
	assert.Empty(t, notifier.failed)

	snap, ok := m.Snapshot(id)
	require.True(t, ok)
	assert.Equal(t, "showing_live", snap.State)
	assert.Len(t, snap.Series, 3)
	assert.Empty(t, snap.Error)
	assert.Equal(t, clock.Now(), snap.UpdatedAt)
	assert.Equal(t, 3, snap.Display.LabelEvery)

	require.NoError(t, m.CheckReadiness(context.Background()))
}

func TestManager_FailureSurfacesError(t *testing.T) {
	notifier := &mockNotifier{}
	fetcher := &mockFetcher{err: fmt.Errorf("%w: HTTP 503", widget.ErrTransport)}
	m, _ := newTestManager(t, fetcher, false, notifier)

	id := m.Register(widget.Location{Lat: 63.4, Lon: 10.4})
	m.RunAll(context.Background())

	require.Len(t, notifier.failed, 1)
	assert.Equal(t, id, notifier.failed[0].instanceID)
	assert.Contains(t, notifier.failed[0].reason, "HTTP 503")
	assert.Empty(t, notifier.dataReady)

	snap, _ := m.Snapshot(id)
	assert.Equal(t, "showing_error", snap.State)
	assert.Empty(t, snap.Series)
	assert.Contains(t, snap.Error, "HTTP 503")
}

func TestManager_DebugModeFailureShowsSample(t *testing.T) {
	notifier := &mockNotifier{}
	fetcher := &mockFetcher{err: fmt.Errorf("%w: connection refused", widget.ErrTransport)}
	m, _ := newTestManager(t, fetcher, true, notifier)

	id := m.Register(widget.Location{Lat: 63.4, Lon: 10.4})
	m.RunAll(context.Background())

	require.Len(t, notifier.dataReady, 1)
	assert.NotEmpty(t, notifier.dataReady[0].series)
	assert.Empty(t, notifier.failed, "demo mode swallows errors")

	snap, _ := m.Snapshot(id)
	assert.Equal(t, "showing_sample", snap.State)
}

func TestManager_MismatchedTokenIsDiscarded(t *testing.T) {
	notifier := &mockNotifier{}
	fetcher := &mockFetcher{}
	m, clock := newTestManager(t, fetcher, false, notifier)
	id := m.Register(widget.Location{Lat: 63.4, Lon: 10.4})

	m.Apply(context.Background(), widget.FetchResult{
		Token: "someone-else",
		Doc:   wetDocument(clock.Now()),
	})

	assert.Empty(t, notifier.dataReady)
	assert.Empty(t, notifier.failed)

	snap, _ := m.Snapshot(id)
	assert.Equal(t, "awaiting_first_fetch", snap.State, "no state transition for any instance")
	assert.Error(t, m.CheckReadiness(context.Background()))
}

func TestManager_ProviderRateLimitSkipsBackToBackCycles(t *testing.T) {
	fetcher := &mockFetcher{}
	m, clock := newTestManager(t, fetcher, false)
	fetcher.doc = wetDocument(clock.Now())
	m.Register(widget.Location{Lat: 63.4, Lon: 10.4})

	m.RunAll(context.Background())
	m.RunAll(context.Background())

	assert.Len(t, fetcher.requests, 1, "second immediate cycle must not hit the provider")
}

func TestManager_InstancesAreIsolated(t *testing.T) {
	notifier := &mockNotifier{}
	fetcher := &mockFetcher{}
	m, clock := newTestManager(t, fetcher, false, notifier)
	fetcher.doc = wetDocument(clock.Now())

	idA := m.Register(widget.Location{Lat: 63.4, Lon: 10.4})
	idB := m.Register(widget.Location{Lat: 59.9, Lon: 10.7})
	require.NotEqual(t, idA, idB)

	m.RunAll(context.Background())

	assert.Len(t, fetcher.requests, 2)
	assert.Len(t, notifier.dataReady, 2)
	assert.Len(t, m.Snapshots(), 2)

	tokens := map[string]bool{}
	for _, req := range fetcher.requests {
		tokens[req.Token] = true
	}
	assert.True(t, tokens[idA])
	assert.True(t, tokens[idB])
}

func TestManager_SnapshotUnknownInstance(t *testing.T) {
	m, _ := newTestManager(t, &mockFetcher{}, false)
	_, ok := m.Snapshot("nope")
	assert.False(t, ok)
}
