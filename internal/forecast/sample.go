package forecast

import "time"

// sampleProbability is the fixed probability attached to every demo point.
const sampleProbability = 70.0

// SynthesizeSample builds a deterministic demonstration series used before
// live data exists (and, in debug mode, instead of dry live data). The shape
// exercises every render path: a ramp of light rain in the early hours, one
// heavy shower, a multi-hour snow block, a later steady band, and dry hours
// in between. No randomness; calling it twice gives identical output.
func SynthesizeSample(hours int, start time.Time) []Point {
	start = start.Truncate(time.Hour)

	out := make([]Point, 0, max(hours, 0))
	for i := 0; i < hours; i++ {
		var rate float64
		switch {
		case i >= 1 && i <= 4:
			rate = 0.4 + float64(i)*0.2 // ramp up to ~1.2 mm/h
		case i == 5:
			rate = 3.0 // heavy shower
		case i >= 9 && i <= 12:
			rate = 0.6 // steady block, rendered as snow
		case i >= 15 && i <= 18:
			rate = 0.8 // later band
		}

		precipType := TypeRain
		if i >= 9 && i <= 12 {
			precipType = TypeSnow
		}

		probability := sampleProbability
		out = append(out, Point{
			Time:        start.Add(time.Duration(i) * time.Hour),
			Rate:        rate,
			Probability: &probability,
			Type:        precipType,
		})
	}
	return out
}
