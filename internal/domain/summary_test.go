package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarizeStationQuality(t *testing.T) {
	station := StationMetadata{StationID: "KAAA", StationName: "Alpha Field", DistanceMiles: 1.1}

	t.Run("empty observation list", func(t *testing.T) {
		summary := SummarizeStationQuality(station, nil)

		assert.Equal(t, "KAAA", summary.StationID)
		assert.Equal(t, "Alpha Field", summary.StationName)
		assert.Equal(t, 1.1, summary.DistanceMiles)
		assert.Zero(t, summary.ObservationCount)
		assert.Zero(t, summary.MaxWindMPH)
		assert.Zero(t, summary.AvgQCScore)
		assert.Empty(t, summary.QCFlags)
	})

	t.Run("averages scores and takes max wind across fields", func(t *testing.T) {
		observations := []Observation{
			{Timestamp: "2026-01-12 14:00", WindSpeedMPH: f64(30), WindGustMPH: f64(45)},
			{Timestamp: "2026-01-12 15:00", PeakWindGustMPH: f64(52)},
			{Timestamp: "2026-01-12 16:00"}, // no wind values: 0.55
		}

		summary := SummarizeStationQuality(station, observations)

		assert.Equal(t, 3, summary.ObservationCount)
		assert.Equal(t, 52.0, summary.MaxWindMPH)
		assert.InDelta(t, (1.0+1.0+0.55)/3, summary.AvgQCScore, 1e-4)
		assert.Equal(t, []string{FlagNoWindValues}, summary.QCFlags)
	})

	t.Run("flags are a sorted deduplicated union", func(t *testing.T) {
		observations := []Observation{
			{Timestamp: "bad"},
			{Timestamp: "also bad"},
			{Timestamp: "2026-01-12 14:00", WindSpeedMPH: f64(-2)},
		}

		summary := SummarizeStationQuality(station, observations)

		assert.Equal(t, []string{
			"implausible_wind_speed_mph",
			FlagMissingOrInvalidTimestamp,
			FlagNoWindValues,
		}, summary.QCFlags)
	})

	t.Run("deterministic", func(t *testing.T) {
		observations := []Observation{
			{Timestamp: "2026-01-12 14:00", WindGustMPH: f64(41)},
			{Timestamp: "junk", WindSpeedMPH: f64(999)},
		}

		assert.Equal(t,
			SummarizeStationQuality(station, observations),
			SummarizeStationQuality(station, observations),
		)
	})
}
