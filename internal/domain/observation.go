package domain

import "time"

// Observation is a single raw weather observation from a station feed.
// Wind fields are nil when the station did not report them.
type Observation struct {
	StationID       string   `json:"station_id"`
	Timestamp       string   `json:"timestamp"`
	WindSpeedMPH    *float64 `json:"wind_speed_mph,omitempty"`
	WindGustMPH     *float64 `json:"wind_gust_mph,omitempty"`
	PeakWindGustMPH *float64 `json:"peak_wind_gust_mph,omitempty"`
	WeatherCodes    []string `json:"weather_codes,omitempty"`
	RawSourceText   string   `json:"raw_source_text,omitempty"`
}

// StationMetadata describes a station returned by the station locator,
// with its distance from the loss address. Read-only for this engine.
type StationMetadata struct {
	StationID     string  `json:"station_id"`
	StationName   string  `json:"station_name"`
	DistanceMiles float64 `json:"distance_miles"`
}

// HailReport is a point hail report near the loss address.
// DistanceMiles and MagnitudeInches are nil when unreported.
type HailReport struct {
	DistanceMiles   *float64 `json:"distance_miles,omitempty"`
	Timestamp       string   `json:"timestamp"`
	MagnitudeInches *float64 `json:"magnitude_inches,omitempty"`
	SourceReport    string   `json:"source_report,omitempty"`
}

// Location is a geocoded loss address.
type Location struct {
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	MatchedAddress string  `json:"matched_address,omitempty"`
	County         string  `json:"county,omitempty"`
}

// VerificationRecord is the persisted audit artifact of a verify call.
// It is written once and never mutated.
type VerificationRecord struct {
	ID             string              `json:"id"`
	Location       Location            `json:"location"`
	EventType      string              `json:"event_type"`
	WindCandidates []WindCandidate     `json:"wind_candidates,omitempty"`
	HailCandidates []HailCandidate     `json:"hail_candidates,omitempty"`
	Evidence       *AggregatedEvidence `json:"evidence,omitempty"`
	VerifiedDOL    Day                 `json:"verified_dol,omitempty"`
	Confidence     Confidence          `json:"confidence"`
	CreatedAt      time.Time           `json:"created_at"`
}

// windValue returns the largest wind measurement present on the observation,
// treating missing fields as zero.
func windValue(obs Observation) float64 {
	v := 0.0
	for _, f := range []*float64{obs.WindSpeedMPH, obs.WindGustMPH, obs.PeakWindGustMPH} {
		if f != nil && *f > v {
			v = *f
		}
	}
	return v
}
