package forecast

import "time"

// PrecipType is the coarse precipitation classification shown on a bar.
type PrecipType string

const (
	TypeRain PrecipType = "rain"
	TypeSnow PrecipType = "snow"
	TypeMix  PrecipType = "mix"

	// TypeUnknown means neither the symbol code nor the temperature gave a
	// usable signal. Marshals as an absent "type" field.
	TypeUnknown PrecipType = ""
)

// Point is one hour of the timeline. Rate is precipitation in mm per hour,
// normalized from whichever window resolution was available. Probability is
// nil when the source window carried none. The JSON field names match what
// the rendering clients expect.
type Point struct {
	Time        time.Time  `json:"time"`
	Rate        float64    `json:"mm"`
	Probability *float64   `json:"prob"`
	Type        PrecipType `json:"type,omitempty"`
}

// BuildSeries is the single entry point of the transformation pipeline: it
// normalizes the document into future-only hourly observations and classifies
// each point from its symbol code and ambient temperature. The result is
// ordered, strictly increasing in time, and never longer than hours.
func BuildSeries(doc Document, hours int, now time.Time) []Point {
	observations := Normalize(doc, hours, now)

	series := make([]Point, 0, len(observations))
	for _, obs := range observations {
		point := obs.Point
		point.Type = Classify(obs.Symbol, obs.Temperature)
		series = append(series, point)
	}

	// Normalize already stops at the horizon; re-slice anyway so a buggy
	// document walk can never hand the renderer an oversized series.
	if hours >= 0 && len(series) > hours {
		series = series[:hours]
	}
	return series
}

// HasPrecipitation reports whether any point carries a positive rate.
func HasPrecipitation(series []Point) bool {
	for _, p := range series {
		if p.Rate > 0 {
			return true
		}
	}
	return false
}
