package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// MinUpdateInterval is the refresh floor mandated by MET Norway. Configured
// intervals below it are silently raised, never rejected.
const MinUpdateInterval = 10 * time.Minute

// Location is one forecast coordinate, driving one widget instance.
type Location struct {
	Lat      float64
	Lon      float64
	Altitude *float64 // meters, optional
}

// Config holds all service settings, populated from environment variables.
type Config struct {
	Locations []Location

	Hours              int
	UpdateInterval     time.Duration
	IntervalClamped    bool // true when UPDATE_INTERVAL was raised to the floor
	ForecastAPIVersion string
	UserAgent          string
	DebugSample        bool

	// Display hints passed through to rendering clients.
	LabelEvery      int
	MaxBarHeight    float64
	MinNonZeroBar   float64
	ShowProbability bool

	MetBaseURL string
	MetTimeout time.Duration

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Kafka announcer configuration.
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string

	// Transit board configuration (enabled when a stop id is set).
	TransitStopID   string
	TransitLines    []string
	TransitMax      int
	TransitBaseURL  string
	TransitInterval time.Duration
}

// TransitEnabled reports whether the departures board should run.
func (c *Config) TransitEnabled() bool { return c.TransitStopID != "" }

// Load reads configuration from environment variables, applying defaults
// where unset. A .env file in the working directory is honored when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	updateInterval, err := envDuration("UPDATE_INTERVAL", MinUpdateInterval)
	if err != nil {
		return nil, err
	}
	clamped := false
	if updateInterval < MinUpdateInterval {
		updateInterval = MinUpdateInterval
		clamped = true
	}

	metTimeout, err := envDuration("MET_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	shutdownTimeout, err := envDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	transitInterval, err := envDuration("TRANSIT_INTERVAL", time.Minute)
	if err != nil {
		return nil, err
	}

	locations, err := parseLocations(envOrDefault("LOCATIONS", "63.40872600624022,10.357577977528827"))
	if err != nil {
		return nil, err
	}

	kafkaBrokers := splitNonEmpty(os.Getenv("KAFKA_BROKERS"), ",")
	kafkaEnabled := envBool("KAFKA_ENABLED", false)

	cfg := &Config{
		Locations: locations,

		Hours:              envInt("HOURS", 24),
		UpdateInterval:     updateInterval,
		IntervalClamped:    clamped,
		ForecastAPIVersion: envOrDefault("FORECAST_API_VERSION", "2.0"),
		UserAgent:          envOrDefault("USER_AGENT", "MagicMirror-PrecipTimeline/1.0 (set-your-contact@example.com)"),
		DebugSample:        envBool("DEBUG_SAMPLE", false),

		LabelEvery:      envInt("LABEL_EVERY", 3),
		MaxBarHeight:    envFloat("MAX_BAR_HEIGHT", 60),
		MinNonZeroBar:   envFloat("MIN_NONZERO_BAR", 2),
		ShowProbability: envBool("SHOW_PROBABILITY", true),

		MetBaseURL: envOrDefault("MET_BASE_URL", "https://api.met.no"),
		MetTimeout: metTimeout,

		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		KafkaEnabled: kafkaEnabled,
		KafkaBrokers: kafkaBrokers,
		KafkaTopic:   envOrDefault("KAFKA_TOPIC", "precip-timeline-updates"),

		TransitStopID:   os.Getenv("TRANSIT_STOP_ID"),
		TransitLines:    splitNonEmpty(os.Getenv("TRANSIT_LINES"), ","),
		TransitMax:      envInt("TRANSIT_MAX", 8),
		TransitBaseURL:  envOrDefault("TRANSIT_BASE_URL", "https://mpolden.no/atb/v2"),
		TransitInterval: transitInterval,
	}

	if len(cfg.Locations) == 0 {
		return nil, errors.New("LOCATIONS is required")
	}
	if cfg.Hours <= 0 {
		return nil, errors.New("HOURS must be positive")
	}
	if cfg.LabelEvery < 1 {
		return nil, errors.New("LABEL_EVERY must be at least 1")
	}
	if cfg.MaxBarHeight <= 0 {
		return nil, errors.New("MAX_BAR_HEIGHT must be positive")
	}
	if cfg.MinNonZeroBar < 0 {
		return nil, errors.New("MIN_NONZERO_BAR must not be negative")
	}
	if cfg.UserAgent == "" {
		return nil, errors.New("USER_AGENT is required by the forecast provider")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}

	return cfg, nil
}

// parseLocations parses a semicolon-separated list of "lat,lon" or
// "lat,lon,altitude" entries.
func parseLocations(raw string) ([]Location, error) {
	var out []Location
	for _, entry := range splitNonEmpty(raw, ";") {
		parts := strings.Split(entry, ",")
		if len(parts) != 2 && len(parts) != 3 {
			return nil, fmt.Errorf("invalid location %q: want lat,lon[,altitude]", entry)
		}

		lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid latitude in %q: %w", entry, err)
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid longitude in %q: %w", entry, err)
		}
		if lat < -90 || lat > 90 {
			return nil, fmt.Errorf("latitude %v out of range", lat)
		}
		if lon < -180 || lon > 180 {
			return nil, fmt.Errorf("longitude %v out of range", lon)
		}

		loc := Location{Lat: lat, Lon: lon}
		if len(parts) == 3 {
			alt, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
			if err != nil {
				return nil, fmt.Errorf("invalid altitude in %q: %w", entry, err)
			}
			loc.Altitude = &alt
		}
		out = append(out, loc)
	}
	return out, nil
}

func splitNonEmpty(raw, sep string) []string {
	var out []string
	for _, part := range strings.Split(raw, sep) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if s := os.Getenv(key); s != "" {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if s := os.Getenv(key); s != "" {
		return s == "true" || s == "1"
	}
	return def
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}
