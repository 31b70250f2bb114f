// Package config loads service settings from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Weather data source.
	WeatherBaseURL string
	WeatherTimeout time.Duration

	// Mapbox geocoding configuration.
	GeocoderBaseURL   string
	GeocoderToken     string
	GeocoderTimeout   time.Duration
	GeocoderCacheSize int

	// Verification record storage.
	SQLitePath string

	// Optional Kafka audit trail.
	KafkaEnabled    bool
	KafkaBrokers    []string
	KafkaAuditTopic string

	// Pipeline tuning.
	FetchConcurrency     int
	TopN                 int
	MinWindMPH           float64
	MaxHailDistanceMiles float64
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	weatherTimeout, err := parseDuration("WEATHER_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	geocoderTimeout, err := parseDuration("GEOCODER_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		WeatherBaseURL: envOrDefault("WEATHER_BASE_URL", "https://api.weather.example.com/v1"),
		WeatherTimeout: weatherTimeout,

		GeocoderBaseURL:   envOrDefault("GEOCODER_BASE_URL", "https://api.mapbox.com/geocoding/v5/mapbox.places"),
		GeocoderToken:     os.Getenv("GEOCODER_TOKEN"),
		GeocoderTimeout:   geocoderTimeout,
		GeocoderCacheSize: parsePositiveInt("GEOCODER_CACHE_SIZE", 1000),

		SQLitePath: envOrDefault("SQLITE_PATH", "data/verifications.db"),

		KafkaEnabled:    os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:    parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaAuditTopic: envOrDefault("KAFKA_AUDIT_TOPIC", "dol-verification-audit"),

		FetchConcurrency:     parsePositiveInt("FETCH_CONCURRENCY", 4),
		TopN:                 parsePositiveInt("TOP_N", 5),
		MinWindMPH:           parsePositiveFloat("MIN_WIND_MPH", 30),
		MaxHailDistanceMiles: parsePositiveFloat("MAX_HAIL_DISTANCE_MILES", 25),
	}

	if cfg.GeocoderToken == "" {
		return nil, errors.New("GEOCODER_TOKEN is required")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.KafkaEnabled && cfg.KafkaAuditTopic == "" {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_AUDIT_TOPIC is not set")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveInt(key string, fallback int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func parsePositiveFloat(key string, fallback float64) float64 {
	if s := os.Getenv(key); s != "" {
		if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
			return f
		}
	}
	return fallback
}

func parseBrokers(raw string) []string {
	var brokers []string
	for _, b := range strings.Split(raw, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
