package reconcile

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AndersM123/MagicMirror/internal/forecast"
)

func fp(v float64) *float64 { return &v }

func wetSeries(now time.Time) []forecast.Point {
	return []forecast.Point{
		{Time: now.Add(time.Hour), Rate: 0.5, Probability: fp(60), Type: forecast.TypeRain},
		{Time: now.Add(2 * time.Hour), Rate: 1.2, Probability: fp(80), Type: forecast.TypeRain},
	}
}

func drySeries(now time.Time) []forecast.Point {
	return []forecast.Point{
		{Time: now.Add(time.Hour), Rate: 0},
		{Time: now.Add(2 * time.Hour), Rate: 0},
	}
}

func newTestPolicy(t *testing.T, debugSample bool) (*Policy, clockwork.Clock) {
	t.Helper()
	clock := clockwork.NewFakeClockAt(time.Date(2025, 3, 14, 12, 30, 0, 0, time.UTC))
	return New(debugSample, 24, clock), clock
}

func TestPolicy_LiveMode_SuccessAlwaysWins(t *testing.T) {
	p, clock := newTestPolicy(t, false)
	live := wetSeries(clock.Now())

	d := p.OnSuccess(live)
	assert.Equal(t, ShowingLive, d.State)
	assert.Equal(t, live, d.Series)

	// Even an all-zero series is shown verbatim outside demo mode.
	dry := drySeries(clock.Now())
	d = p.OnSuccess(dry)
	assert.Equal(t, ShowingLive, d.State)
	assert.Equal(t, dry, d.Series)
}

func TestPolicy_LiveMode_FailureSurfacesError(t *testing.T) {
	p, clock := newTestPolicy(t, false)

	t.Run("from awaiting first fetch", func(t *testing.T) {
		d := p.OnFailure("HTTP 503")
		assert.Equal(t, ShowingError, d.State)
		assert.Nil(t, d.Series)
		assert.Equal(t, "HTTP 503", d.Reason)
	})

	t.Run("from showing live, cached series is not reused", func(t *testing.T) {
		p.OnSuccess(wetSeries(clock.Now()))
		d := p.OnFailure("connection refused")
		assert.Equal(t, ShowingError, d.State)
		assert.Nil(t, d.Series)
		assert.Equal(t, "connection refused", d.Reason)
	})
}

func TestPolicy_DebugMode_FirstFailureSynthesizesSample(t *testing.T) {
	p, _ := newTestPolicy(t, true)

	d := p.OnFailure("HTTP 500")
	require.Equal(t, ShowingSample, d.State)
	require.NotEmpty(t, d.Series)
	assert.Empty(t, d.Reason)

	var zeros, snow int
	for _, pt := range d.Series {
		if pt.Rate == 0 {
			zeros++
		}
		if pt.Type == forecast.TypeSnow {
			snow++
		}
	}
	assert.Greater(t, zeros, 0)
	assert.Greater(t, snow, 0)
}

func TestPolicy_DebugMode_AllZeroSuccessKeepsSample(t *testing.T) {
	p, clock := newTestPolicy(t, true)

	first := p.OnFailure("boom")
	require.Equal(t, ShowingSample, first.State)

	d := p.OnSuccess(drySeries(clock.Now()))
	assert.Equal(t, ShowingSample, d.State)
	assert.Equal(t, first.Series, d.Series, "displayed series must not be replaced")
}

func TestPolicy_DebugMode_AllZeroFirstSuccessSynthesizesSample(t *testing.T) {
	p, clock := newTestPolicy(t, true)

	d := p.OnSuccess(drySeries(clock.Now()))
	assert.Equal(t, ShowingSample, d.State)
	assert.NotEmpty(t, d.Series)
}

func TestPolicy_DebugMode_RealPrecipitationReplacesSample(t *testing.T) {
	p, clock := newTestPolicy(t, true)
	p.OnFailure("boom")

	live := wetSeries(clock.Now())
	d := p.OnSuccess(live)
	assert.Equal(t, ShowingLive, d.State)
	assert.Equal(t, live, d.Series)
}

func TestPolicy_DebugMode_FailuresAreSwallowedOnceShowing(t *testing.T) {
	p, clock := newTestPolicy(t, true)

	live := wetSeries(clock.Now())
	p.OnSuccess(live)

	d := p.OnFailure("transient outage")
	assert.Equal(t, ShowingLive, d.State, "state is unchanged")
	assert.Equal(t, live, d.Series, "cached series keeps showing")
	assert.Empty(t, d.Reason)
}

func TestPolicy_SampleIsDeterministicPerClock(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 3, 14, 12, 30, 0, 0, time.UTC))
	a := New(true, 24, clock).OnFailure("x")
	b := New(true, 24, clock).OnFailure("y")
	assert.Equal(t, a.Series, b.Series)
}

func TestPolicy_InitialState(t *testing.T) {
	p, _ := newTestPolicy(t, false)
	assert.Equal(t, AwaitingFirstFetch, p.State())
	assert.Empty(t, p.Current().Series)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "awaiting_first_fetch", AwaitingFirstFetch.String())
	assert.Equal(t, "showing_sample", ShowingSample.String())
	assert.Equal(t, "showing_live", ShowingLive.String())
	assert.Equal(t, "showing_error", ShowingError.String())
}
