package forecast

import "time"

// Observation pairs a normalized (still unclassified) point with the signals
// the classifier needs: the symbol code of the window that was selected and
// the slot's instantaneous air temperature.
type Observation struct {
	Point       Point
	Symbol      string
	Temperature *float64
}

// rateWindow is one step of the window-priority chain. Each step knows how to
// pick its window out of a slot and how many hours that window spans, so an
// aggregate amount divides down to an hourly rate.
type rateWindow struct {
	span   float64
	window func(TimeSlot) *Window
}

// rateWindows is tried in order: a 1-hour amount beats a 6-hour amount beats
// a 12-hour amount. The order is load-bearing and covered by tests.
var rateWindows = []rateWindow{
	{span: 1, window: func(s TimeSlot) *Window { return s.Data.Next1Hours }},
	{span: 6, window: func(s TimeSlot) *Window { return s.Data.Next6Hours }},
	{span: 12, window: func(s TimeSlot) *Window { return s.Data.Next12Hours }},
}

// Normalize walks the document's time slots in their given order and produces
// at most horizon future-only observations. Slots strictly before now are
// skipped; the walk stops as soon as the horizon is filled. A slot with no
// usable precipitation window yields rate 0 with no probability. An empty or
// missing time-slot sequence yields an empty result, not an error.
func Normalize(doc Document, horizon int, now time.Time) []Observation {
	out := make([]Observation, 0, min(max(horizon, 0), len(doc.Slots())))

	for _, slot := range doc.Slots() {
		if slot.Time.Before(now) {
			continue
		}
		if len(out) >= horizon {
			break
		}

		rate, probability, chosen := extractRate(slot)
		temperature, hasTemp := finite(slot.Data.Instant.Details.AirTemperature)

		obs := Observation{
			Point: Point{
				Time:        slot.Time,
				Rate:        rate,
				Probability: probability,
			},
			Symbol: pickSymbol(slot, chosen),
		}
		if hasTemp {
			t := temperature
			obs.Temperature = &t
		}
		out = append(out, obs)
	}

	return out
}

// extractRate tries each window in priority order and returns the first one
// carrying a finite precipitation amount, normalized to mm per hour, together
// with that window's probability (verbatim, nil when it has none) and the
// window itself. When no window is usable the rate defaults to 0.
func extractRate(slot TimeSlot) (float64, *float64, *Window) {
	for _, rw := range rateWindows {
		w := rw.window(slot)
		if w == nil {
			continue
		}
		amount, ok := finite(w.Details.PrecipitationAmount)
		if !ok {
			continue
		}

		var probability *float64
		if p, ok := finite(w.Details.ProbabilityOfPrecipitation); ok {
			probability = &p
		}
		return amount / rw.span, probability, w
	}
	return 0, nil, nil
}

// pickSymbol returns the symbol code of the window that supplied the amount,
// falling back through 1h, 6h, 12h when that window has no symbol (or no
// window supplied an amount at all).
func pickSymbol(slot TimeSlot, chosen *Window) string {
	if chosen != nil && chosen.Summary.SymbolCode != "" {
		return chosen.Summary.SymbolCode
	}
	for _, rw := range rateWindows {
		if w := rw.window(slot); w != nil && w.Summary.SymbolCode != "" {
			return w.Summary.SymbolCode
		}
	}
	return ""
}
