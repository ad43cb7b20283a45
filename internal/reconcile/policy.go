// Package reconcile decides which series a widget instance actually shows:
// the freshly fetched result, a cached one, a synthesized sample, or an error.
package reconcile

import (
	"github.com/jonboulle/clockwork"

	"github.com/AndersM123/MagicMirror/internal/forecast"
)

// State is the display state of one widget instance.
type State int

const (
	// AwaitingFirstFetch is the initial state before any fetch outcome.
	AwaitingFirstFetch State = iota
	// ShowingSample means the synthesized demonstration series is displayed.
	ShowingSample
	// ShowingLive means the last fetched series is displayed verbatim.
	ShowingLive
	// ShowingError means no series is displayed and the error is surfaced.
	ShowingError
)

func (s State) String() string {
	switch s {
	case AwaitingFirstFetch:
		return "awaiting_first_fetch"
	case ShowingSample:
		return "showing_sample"
	case ShowingLive:
		return "showing_live"
	case ShowingError:
		return "showing_error"
	default:
		return "unknown"
	}
}

// Decision is the outcome of applying one fetch result: the new state, the
// series to display (nil in the error state), and the surfaced error text.
type Decision struct {
	State  State
	Series []forecast.Point
	Reason string
}

// Policy is the per-instance reconciliation state machine. It owns the single
// piece of session state the widget has: the current display state and the
// series currently shown. Not safe for concurrent use; each instance's policy
// is driven from that instance's fetch cycle only.
//
// Demo mode (debugSample) must never flash an error or an empty chart once it
// has something to show; live mode must never silently mask a provider
// outage. A live series with no precipitation at all does not replace the
// sample in demo mode: a genuinely dry forecast is indistinguishable from a
// stalled feed on screen, and the sample is more informative for a demo.
type Policy struct {
	debugSample bool
	hours       int
	clock       clockwork.Clock

	state  State
	series []forecast.Point
}

// New creates a policy in AwaitingFirstFetch.
func New(debugSample bool, hours int, clock clockwork.Clock) *Policy {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Policy{
		debugSample: debugSample,
		hours:       hours,
		clock:       clock,
		state:       AwaitingFirstFetch,
	}
}

// State returns the current display state.
func (p *Policy) State() State { return p.state }

// Current returns the decision currently in effect without applying an event.
func (p *Policy) Current() Decision {
	return Decision{State: p.state, Series: p.series}
}

// OnSuccess applies a successful fetch carrying the candidate series.
func (p *Policy) OnSuccess(series []forecast.Point) Decision {
	if !p.debugSample || forecast.HasPrecipitation(series) {
		p.state = ShowingLive
		p.series = series
		return p.Current()
	}

	// Demo mode and the live series is empty or all-zero: keep the sample.
	if len(p.series) == 0 {
		p.series = forecast.SynthesizeSample(p.hours, p.clock.Now())
	}
	p.state = ShowingSample
	return p.Current()
}

// OnFailure applies a failed fetch. In demo mode errors are swallowed as long
// as something is on screen; otherwise the error is surfaced and any cached
// series is dropped.
func (p *Policy) OnFailure(reason string) Decision {
	if p.debugSample {
		if len(p.series) == 0 {
			p.series = forecast.SynthesizeSample(p.hours, p.clock.Now())
			p.state = ShowingSample
		}
		return p.Current()
	}

	p.state = ShowingError
	p.series = nil
	return Decision{State: ShowingError, Reason: reason}
}
