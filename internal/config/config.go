package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/octobees/estate-pipeline/internal/entity"
)

// RateLimitConfig indicates how many requests are allowed within a given interval.
type RateLimitConfig struct {
	Requests int
	Interval time.Duration
}

// GeocodeConfig groups the lookup-service tunables.
type GeocodeConfig struct {
	BaseURL      string
	UserAgent    string
	MinDelay     time.Duration
	MaxRetries   int
	BatchSize    int
	MaxAddresses int
	BatchPause   time.Duration
}

// Config aggregates application-wide configuration values.
type Config struct {
	DatabaseURL         string
	Port                string
	SimilarityThreshold float64
	TextScoringDisabled bool
	SourcePriority      []entity.Source
	ListingsPageSize    int
	BoundingBox         entity.BoundingBox
	Geocode             GeocodeConfig
	RateLimitRuns       RateLimitConfig
}

// Load reads configuration from environment variables and applies sane defaults.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		Port:                getEnv("PORT", "8080"),
		SimilarityThreshold: parseFloat(getEnv("SIMILARITY_THRESHOLD", "75"), 75),
		TextScoringDisabled: parseBool(getEnv("SIMILARITY_TEXT_DISABLED", "false")),
		ListingsPageSize:    parseInt(getEnv("LISTINGS_PAGE_SIZE", "1000"), 1000),
		Geocode: GeocodeConfig{
			BaseURL:      getEnv("GEOCODE_BASE_URL", "https://nominatim.openstreetmap.org/search"),
			UserAgent:    getEnv("GEOCODE_USER_AGENT", "estate-pipeline/1.0"),
			MinDelay:     parseDuration(getEnv("GEOCODE_MIN_DELAY", "1.1s"), 1100*time.Millisecond),
			MaxRetries:   parseInt(getEnv("GEOCODE_MAX_RETRIES", "3"), 3),
			BatchSize:    parseInt(getEnv("GEOCODE_BATCH_SIZE", "50"), 50),
			MaxAddresses: parseInt(getEnv("GEOCODE_MAX_ADDRESSES", "0"), 0),
			BatchPause:   parseDuration(getEnv("GEOCODE_BATCH_PAUSE", "5s"), 5*time.Second),
		},
	}

	priority, err := parseSourcePriority(getEnv("SOURCE_PRIORITY", ""))
	if err != nil {
		return nil, fmt.Errorf("invalid SOURCE_PRIORITY value: %w", err)
	}
	cfg.SourcePriority = priority

	box, err := parseBoundingBox(getEnv("BOUNDING_BOX", ""))
	if err != nil {
		return nil, fmt.Errorf("invalid BOUNDING_BOX value: %w", err)
	}
	cfg.BoundingBox = box

	rl, err := parseRateLimit(getEnv("RATE_LIMIT_RUNS", "5/min"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_RUNS value: %w", err)
	}
	cfg.RateLimitRuns = rl

	return cfg, nil
}

func parseSourcePriority(value string) ([]entity.Source, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return entity.DefaultSourcePriority, nil
	}

	var priority []entity.Source
	for _, raw := range strings.Split(value, ",") {
		source, ok := entity.ParseSource(raw)
		if !ok {
			return nil, fmt.Errorf("unknown source %q", strings.TrimSpace(raw))
		}
		priority = append(priority, source)
	}
	return priority, nil
}

func parseBoundingBox(value string) (entity.BoundingBox, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return entity.PolandBoundingBox, nil
	}

	parts := strings.Split(value, ",")
	if len(parts) != 4 {
		return entity.BoundingBox{}, fmt.Errorf("expected format minLat,maxLat,minLon,maxLon, got %q", value)
	}

	coords := make([]float64, 4)
	for i, part := range parts {
		coord, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return entity.BoundingBox{}, fmt.Errorf("invalid coordinate %q", part)
		}
		coords[i] = coord
	}

	box := entity.BoundingBox{MinLat: coords[0], MaxLat: coords[1], MinLon: coords[2], MaxLon: coords[3]}
	if box.MinLat >= box.MaxLat || box.MinLon >= box.MaxLon {
		return entity.BoundingBox{}, fmt.Errorf("degenerate bounding box %q", value)
	}
	return box, nil
}

func parseRateLimit(value string) (RateLimitConfig, error) {
	parts := strings.Split(value, "/")
	if len(parts) != 2 {
		return RateLimitConfig{}, fmt.Errorf("expected format <requests>/<interval>, got %q", value)
	}

	requests, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || requests <= 0 {
		return RateLimitConfig{}, fmt.Errorf("invalid request count: %v", parts[0])
	}

	unit := strings.ToLower(strings.TrimSpace(parts[1]))
	var interval time.Duration
	switch unit {
	case "s", "sec", "second", "seconds":
		interval = time.Second
	case "m", "min", "minute", "minutes":
		interval = time.Minute
	case "h", "hr", "hour", "hours":
		interval = time.Hour
	default:
		return RateLimitConfig{}, fmt.Errorf("unsupported interval unit: %s", unit)
	}

	return RateLimitConfig{Requests: requests, Interval: interval}, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}

func parseDuration(input string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(input)
	if err != nil {
		return fallback
	}
	return d
}

func parseInt(input string, fallback int) int {
	value, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		return fallback
	}
	return value
}

func parseFloat(input string, fallback float64) float64 {
	value, err := strconv.ParseFloat(strings.TrimSpace(input), 64)
	if err != nil {
		return fallback
	}
	return value
}

func parseBool(input string) bool {
	value, err := strconv.ParseBool(strings.TrimSpace(input))
	return err == nil && value
}
