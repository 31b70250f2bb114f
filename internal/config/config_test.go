package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testGeocoderToken = "pk.test-token"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GEOCODER_TOKEN", testGeocoderToken)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 10*time.Second, cfg.WeatherTimeout)
	assert.Equal(t, testGeocoderToken, cfg.GeocoderToken)
	assert.Equal(t, 5*time.Second, cfg.GeocoderTimeout)
	assert.Equal(t, 1000, cfg.GeocoderCacheSize)
	assert.Equal(t, "data/verifications.db", cfg.SQLitePath)
	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "dol-verification-audit", cfg.KafkaAuditTopic)
	assert.Equal(t, 4, cfg.FetchConcurrency)
	assert.Equal(t, 5, cfg.TopN)
	assert.Equal(t, 30.0, cfg.MinWindMPH)
	assert.Equal(t, 25.0, cfg.MaxHailDistanceMiles)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("WEATHER_BASE_URL", "http://weather.internal:8081/v1")
	t.Setenv("WEATHER_TIMEOUT", "20s")
	t.Setenv("GEOCODER_TOKEN", testGeocoderToken)
	t.Setenv("GEOCODER_TIMEOUT", "3s")
	t.Setenv("GEOCODER_CACHE_SIZE", "500")
	t.Setenv("SQLITE_PATH", "/tmp/dol.db")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_AUDIT_TOPIC", "custom-audit")
	t.Setenv("FETCH_CONCURRENCY", "8")
	t.Setenv("TOP_N", "3")
	t.Setenv("MIN_WIND_MPH", "40")
	t.Setenv("MAX_HAIL_DISTANCE_MILES", "15")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "http://weather.internal:8081/v1", cfg.WeatherBaseURL)
	assert.Equal(t, 20*time.Second, cfg.WeatherTimeout)
	assert.Equal(t, 3*time.Second, cfg.GeocoderTimeout)
	assert.Equal(t, 500, cfg.GeocoderCacheSize)
	assert.Equal(t, "/tmp/dol.db", cfg.SQLitePath)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-audit", cfg.KafkaAuditTopic)
	assert.Equal(t, 8, cfg.FetchConcurrency)
	assert.Equal(t, 3, cfg.TopN)
	assert.Equal(t, 40.0, cfg.MinWindMPH)
	assert.Equal(t, 15.0, cfg.MaxHailDistanceMiles)
}

func TestLoad_MissingGeocoderToken(t *testing.T) {
	t.Setenv("GEOCODER_TOKEN", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEOCODER_TOKEN")
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("GEOCODER_TOKEN", testGeocoderToken)
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_NegativeWeatherTimeout(t *testing.T) {
	t.Setenv("GEOCODER_TOKEN", testGeocoderToken)
	t.Setenv("WEATHER_TIMEOUT", "-5s")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WEATHER_TIMEOUT")
}

func TestLoad_KafkaEnabledWithoutBrokers(t *testing.T) {
	t.Setenv("GEOCODER_TOKEN", testGeocoderToken)
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", " ")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_BROKERS")
}

func TestLoad_InvalidNumericFallsBackToDefault(t *testing.T) {
	t.Setenv("GEOCODER_TOKEN", testGeocoderToken)
	t.Setenv("TOP_N", "-2")
	t.Setenv("MIN_WIND_MPH", "zero")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.TopN)
	assert.Equal(t, 30.0, cfg.MinWindMPH)
}
