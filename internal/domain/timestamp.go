package domain

import (
	"math"
	"strings"
	"time"
)

// observationTimeLayouts are the accepted feed timestamp formats, tried in order.
// time.RFC3339 also accepts fractional seconds.
var observationTimeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// ParseObservationTimestamp parses a raw feed timestamp. The second return
// value is false when the string is empty or matches none of the supported
// formats.
func ParseObservationTimestamp(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range observationTimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Day is a civil calendar date in YYYY-MM-DD form, the bucketing key for
// candidate events.
type Day string

// DayOf maps a parsed timestamp to its candidate day. The date is taken from
// the timestamp exactly as the feed reported it; no timezone conversion is
// applied (feeds carry no zone metadata to normalize against).
func DayOf(t time.Time) Day {
	return Day(t.Format("2006-01-02"))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
