// Package forecast turns a MET Norway locationforecast document into a
// bounded hourly precipitation timeline.
//
// # Data Source
//
// Documents come from the locationforecast "compact" product at
// https://api.met.no/weatherapi/locationforecast/2.0/documentation. The
// provider publishes a timeseries whose elements carry precipitation at mixed
// resolutions: near-term slots have a next_1_hours window, further out only
// next_6_hours or next_12_hours aggregates are present.
//
// # Normalization Conventions
//
// Window priority:
//
//	next_1_hours beats next_6_hours beats next_12_hours. Aggregate amounts
//	divide down by the window span, so a 6-hour amount of 12 mm becomes
//	2 mm/h. Probability is copied verbatim from the window that supplied the
//	amount; probabilities are never interpolated across windows.
//
// Absent fields:
//
//	A missing, null, or non-finite numeric field is treated as absent, not
//	zero. Only the final rate defaults to 0 when no window is usable. A
//	window struct with no usable numbers counts the same as no window.
//
// Classification:
//
//	Symbol codes ("lightsnowshowers_day", "sleet", ...) override the
//	temperature signal; temperature at or below 0°C means snow otherwise.
//	See [Classify].
//
// The transformation never fails: malformed documents degrade to empty or
// partial series, and the only failure surface is upstream transport/parse,
// handled by the reconciliation policy.
package forecast
