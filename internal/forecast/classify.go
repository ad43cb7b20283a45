package forecast

import "strings"

// Classify derives a precipitation type from a provider symbol code and the
// ambient temperature. The symbol text wins over temperature: met.no codes
// like "partlycloudy_snowshowers" already encode the phase, and sleet at a
// couple of degrees above zero would otherwise be mislabelled as rain.
//
// Precedence: symbol contains "snow" -> snow; symbol contains "sleet" -> mix;
// otherwise temperature decides (rain above 0°C, snow at or below); with no
// temperature and no matching symbol the type is unknown.
func Classify(symbolCode string, temperatureC *float64) PrecipType {
	sym := strings.ToLower(symbolCode)

	switch {
	case strings.Contains(sym, "snow"):
		return TypeSnow
	case strings.Contains(sym, "sleet"):
		return TypeMix
	}

	if t, ok := finite(temperatureC); ok {
		if t > 0 {
			return TypeRain
		}
		return TypeSnow
	}
	return TypeUnknown
}
