package forecast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSeries_TwoSlotScenario(t *testing.T) {
	past := withWindow(slotAt(testNow.Add(-time.Hour)), 1, fp(5), nil, "rain")

	future := withWindow(slotAt(testNow.Add(time.Hour)), 1, fp(1.0), fp(80), "rain")
	future.Data.Instant.Details.AirTemperature = fp(8)

	series := BuildSeries(docOf(past, future), 5, testNow)

	require.Len(t, series, 1)
	assert.Equal(t, testNow.Add(time.Hour), series[0].Time)
	assert.Equal(t, 1.0, series[0].Rate)
	require.NotNil(t, series[0].Probability)
	assert.Equal(t, 80.0, *series[0].Probability)
	assert.Equal(t, TypeRain, series[0].Type)
}

func TestBuildSeries_ClassifiesPerPoint(t *testing.T) {
	cold := withWindow(slotAt(testNow.Add(time.Hour)), 1, fp(0.3), nil, "")
	cold.Data.Instant.Details.AirTemperature = fp(-1)

	symbolic := withWindow(slotAt(testNow.Add(2*time.Hour)), 6, fp(6), nil, "sleetshowers")
	symbolic.Data.Instant.Details.AirTemperature = fp(4)

	unknowable := withWindow(slotAt(testNow.Add(3*time.Hour)), 1, fp(0.1), nil, "cloudy")

	series := BuildSeries(docOf(cold, symbolic, unknowable), 24, testNow)

	require.Len(t, series, 3)
	assert.Equal(t, TypeSnow, series[0].Type)
	assert.Equal(t, TypeMix, series[1].Type)
	assert.Equal(t, TypeUnknown, series[2].Type)
}

func TestBuildSeries_BoundedByHours(t *testing.T) {
	slots := make([]TimeSlot, 0, 40)
	for i := 0; i < 40; i++ {
		slots = append(slots, withWindow(slotAt(testNow.Add(time.Duration(i)*time.Hour)), 1, fp(0.2), nil, ""))
	}

	series := BuildSeries(docOf(slots...), 12, testNow)
	assert.Len(t, series, 12)
}

func TestBuildSeries_EmptyDocument(t *testing.T) {
	series := BuildSeries(Document{}, 24, testNow)
	assert.Empty(t, series)
}

func TestHasPrecipitation(t *testing.T) {
	assert.False(t, HasPrecipitation(nil))
	assert.False(t, HasPrecipitation([]Point{{Rate: 0}, {Rate: 0}}))
	assert.True(t, HasPrecipitation([]Point{{Rate: 0}, {Rate: 0.1}}))
}
