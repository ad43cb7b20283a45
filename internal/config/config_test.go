package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.Len(t, cfg.Locations, 1)
	assert.InDelta(t, 63.4087, cfg.Locations[0].Lat, 0.001)
	assert.InDelta(t, 10.3576, cfg.Locations[0].Lon, 0.001)
	assert.Nil(t, cfg.Locations[0].Altitude)

	assert.Equal(t, 24, cfg.Hours)
	assert.Equal(t, 10*time.Minute, cfg.UpdateInterval)
	assert.False(t, cfg.IntervalClamped)
	assert.Equal(t, "2.0", cfg.ForecastAPIVersion)
	assert.Contains(t, cfg.UserAgent, "PrecipTimeline")
	assert.False(t, cfg.DebugSample)

	assert.Equal(t, 3, cfg.LabelEvery)
	assert.Equal(t, 60.0, cfg.MaxBarHeight)
	assert.Equal(t, 2.0, cfg.MinNonZeroBar)
	assert.True(t, cfg.ShowProbability)

	assert.Equal(t, "https://api.met.no", cfg.MetBaseURL)
	assert.Equal(t, 10*time.Second, cfg.MetTimeout)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)

	assert.False(t, cfg.KafkaEnabled)
	assert.False(t, cfg.TransitEnabled())
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("LOCATIONS", "59.91,10.75,25; 63.43,10.39")
	t.Setenv("HOURS", "12")
	t.Setenv("UPDATE_INTERVAL", "30m")
	t.Setenv("DEBUG_SAMPLE", "true")
	t.Setenv("LABEL_EVERY", "4")
	t.Setenv("SHOW_PROBABILITY", "false")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("TRANSIT_STOP_ID", "16011376")
	t.Setenv("TRANSIT_LINES", "1,22")

	cfg, err := Load()
	require.NoError(t, err)

	require.Len(t, cfg.Locations, 2)
	assert.Equal(t, 59.91, cfg.Locations[0].Lat)
	require.NotNil(t, cfg.Locations[0].Altitude)
	assert.Equal(t, 25.0, *cfg.Locations[0].Altitude)
	assert.Nil(t, cfg.Locations[1].Altitude)

	assert.Equal(t, 12, cfg.Hours)
	assert.Equal(t, 30*time.Minute, cfg.UpdateInterval)
	assert.False(t, cfg.IntervalClamped)
	assert.True(t, cfg.DebugSample)
	assert.Equal(t, 4, cfg.LabelEvery)
	assert.False(t, cfg.ShowProbability)
	assert.Equal(t, "text", cfg.LogFormat)

	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)

	assert.True(t, cfg.TransitEnabled())
	assert.Equal(t, []string{"1", "22"}, cfg.TransitLines)
	assert.Equal(t, 8, cfg.TransitMax)
}

func TestLoad_IntervalClampedNotRejected(t *testing.T) {
	t.Setenv("UPDATE_INTERVAL", "1m")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, MinUpdateInterval, cfg.UpdateInterval)
	assert.True(t, cfg.IntervalClamped)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"empty locations", "LOCATIONS", "  "},
		{"malformed location", "LOCATIONS", "63.4"},
		{"latitude out of range", "LOCATIONS", "91,10"},
		{"longitude out of range", "LOCATIONS", "60,181"},
		{"non-numeric latitude", "LOCATIONS", "abc,10"},
		{"zero hours", "HOURS", "0"},
		{"label every below one", "LABEL_EVERY", "0"},
		{"bad interval", "UPDATE_INTERVAL", "soon"},
		{"negative min bar", "MIN_NONZERO_BAR", "-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_KafkaEnabledRequiresBrokers(t *testing.T) {
	t.Setenv("KAFKA_ENABLED", "true")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_BROKERS")
}
