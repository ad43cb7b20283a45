package forecast

import (
	"math"
	"time"
)

// Document is the MET Norway locationforecast "compact" payload, reduced to
// the fields the timeline needs. Everything precipitation-related is pointer
// typed so a missing or null field is distinguishable from a literal zero.
type Document struct {
	Properties struct {
		Timeseries []TimeSlot `json:"timeseries"`
	} `json:"properties"`
}

// TimeSlot is one element of properties.timeseries: an absolute timestamp,
// the instantaneous conditions, and up to three precipitation windows of
// differing spans.
type TimeSlot struct {
	Time time.Time `json:"time"`
	Data struct {
		Instant struct {
			Details InstantDetails `json:"details"`
		} `json:"instant"`
		Next1Hours  *Window `json:"next_1_hours,omitempty"`
		Next6Hours  *Window `json:"next_6_hours,omitempty"`
		Next12Hours *Window `json:"next_12_hours,omitempty"`
	} `json:"data"`
}

// InstantDetails carries the point-in-time measurements.
type InstantDetails struct {
	AirTemperature *float64 `json:"air_temperature,omitempty"`
}

// Window is an aggregate forecast bucket (next_1_hours, next_6_hours or
// next_12_hours).
type Window struct {
	Summary struct {
		SymbolCode string `json:"symbol_code"`
	} `json:"summary"`
	Details struct {
		PrecipitationAmount        *float64 `json:"precipitation_amount,omitempty"`
		ProbabilityOfPrecipitation *float64 `json:"probability_of_precipitation,omitempty"`
	} `json:"details"`
}

// Slots returns the time-slot sequence, which may be empty or nil.
func (d Document) Slots() []TimeSlot {
	return d.Properties.Timeseries
}

// finite dereferences an optional numeric field, reporting false when the
// field is missing or not a finite number. Missing means absent, not zero.
func finite(v *float64) (float64, bool) {
	if v == nil {
		return 0, false
	}
	if math.IsNaN(*v) || math.IsInf(*v, 0) {
		return 0, false
	}
	return *v, true
}
