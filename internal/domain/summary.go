package domain

import "sort"

// StationQualitySummary aggregates one station's observation list into a
// quality and peak-value summary.
type StationQualitySummary struct {
	StationID        string   `json:"station_id"`
	StationName      string   `json:"station_name"`
	DistanceMiles    float64  `json:"distance_miles"`
	ObservationCount int      `json:"observation_count"`
	MaxWindMPH       float64  `json:"max_wind_mph"`
	AvgQCScore       float64  `json:"avg_qc_score"`
	QCFlags          []string `json:"qc_flags,omitempty"`
}

// SummarizeStationQuality runs the QC scorer over every observation and
// reduces the results to a per-station summary. AvgQCScore is 0 for an
// empty list, and QCFlags is the sorted union of all per-observation flags.
func SummarizeStationQuality(station StationMetadata, observations []Observation) StationQualitySummary {
	summary := StationQualitySummary{
		StationID:        station.StationID,
		StationName:      station.StationName,
		DistanceMiles:    station.DistanceMiles,
		ObservationCount: len(observations),
	}

	if len(observations) == 0 {
		return summary
	}

	var scoreSum float64
	flagSet := make(map[string]struct{})
	for _, obs := range observations {
		qc := ScoreObservationQC(obs)
		scoreSum += qc.Score
		for _, flag := range qc.Flags {
			flagSet[flag] = struct{}{}
		}
		if v := windValue(obs); v > summary.MaxWindMPH {
			summary.MaxWindMPH = v
		}
	}

	summary.AvgQCScore = round4(scoreSum / float64(len(observations)))
	if len(flagSet) > 0 {
		flags := make([]string, 0, len(flagSet))
		for flag := range flagSet {
			flags = append(flags, flag)
		}
		sort.Strings(flags)
		summary.QCFlags = flags
	}
	return summary
}
