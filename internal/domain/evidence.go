package domain

import "math"

// Station rejection reasons recorded in the evidence trace.
const (
	RejectNoUsableWindData = "no_usable_wind_data"
	RejectLowQC            = "low_qc"
)

// minUsableQCScore is the average QC score below which a station's data is
// considered too unreliable to contribute evidence.
const minUsableQCScore = 0.2

// UsableStation is one station's contribution to the aggregated evidence.
type UsableStation struct {
	StationID        string  `json:"station_id"`
	DistanceMiles    float64 `json:"distance_miles"`
	MaxWindMPH       float64 `json:"max_wind_mph"`
	AvgQCScore       float64 `json:"avg_qc_score"`
	RawWeight        float64 `json:"raw_weight"`
	NormalizedWeight float64 `json:"normalized_weight"`
}

// RejectedStation records why a station was excluded from aggregation.
type RejectedStation struct {
	StationID     string  `json:"station_id"`
	DistanceMiles float64 `json:"distance_miles"`
	RejectReason  string  `json:"reject_reason"`
}

// EvidenceTrace explains which stations fed the aggregate and which did not.
type EvidenceTrace struct {
	Usable   []UsableStation   `json:"usable"`
	Rejected []RejectedStation `json:"rejected"`
}

// AggregatedEvidence fuses multiple station summaries into one weighted
// peak-wind estimate with a one-sigma confidence interval. When no station
// is usable, every numeric field is zero and SupportingStationCount is 0.
type AggregatedEvidence struct {
	WeightedPeakWindMPH    float64       `json:"weighted_peak_wind_mph"`
	ConfidenceLowMPH       float64       `json:"confidence_low_mph"`
	ConfidenceHighMPH      float64       `json:"confidence_high_mph"`
	OverallQCScore         float64       `json:"overall_qc_score"`
	SupportingStationCount int           `json:"supporting_station_count"`
	Trace                  EvidenceTrace `json:"trace"`
}

// AggregateStationEvidence combines station summaries using distance,
// quality, and sample-count weighting:
//
//	weight = 1/(1+distance) * (0.5 + 0.5*avg_qc) * ln(1+observations)
//
// The peak-wind estimate is the weighted mean of each station's max wind,
// and the confidence interval is one weighted population standard deviation
// around it, floored at zero.
func AggregateStationEvidence(summaries []StationQualitySummary) AggregatedEvidence {
	var usable []StationQualitySummary
	var rejected []RejectedStation

	for _, s := range summaries {
		switch {
		case s.ObservationCount <= 0 || s.MaxWindMPH <= 0:
			rejected = append(rejected, RejectedStation{
				StationID:     s.StationID,
				DistanceMiles: s.DistanceMiles,
				RejectReason:  RejectNoUsableWindData,
			})
		case s.AvgQCScore < minUsableQCScore:
			rejected = append(rejected, RejectedStation{
				StationID:     s.StationID,
				DistanceMiles: s.DistanceMiles,
				RejectReason:  RejectLowQC,
			})
		default:
			usable = append(usable, s)
		}
	}

	if len(usable) == 0 {
		return AggregatedEvidence{Trace: EvidenceTrace{Rejected: rejected}}
	}

	weights := make([]float64, len(usable))
	var weightSum float64
	for i, s := range usable {
		weights[i] = stationWeight(s)
		weightSum += weights[i]
	}

	var mean, qcMean float64
	for i, s := range usable {
		mean += weights[i] / weightSum * s.MaxWindMPH
		qcMean += weights[i] / weightSum * s.AvgQCScore
	}

	var variance float64
	for i, s := range usable {
		d := s.MaxWindMPH - mean
		variance += weights[i] / weightSum * d * d
	}
	std := math.Sqrt(variance)

	trace := EvidenceTrace{Rejected: rejected}
	for i, s := range usable {
		trace.Usable = append(trace.Usable, UsableStation{
			StationID:        s.StationID,
			DistanceMiles:    s.DistanceMiles,
			MaxWindMPH:       s.MaxWindMPH,
			AvgQCScore:       s.AvgQCScore,
			RawWeight:        round4(weights[i]),
			NormalizedWeight: round4(weights[i] / weightSum),
		})
	}

	return AggregatedEvidence{
		WeightedPeakWindMPH:    round2(mean),
		ConfidenceLowMPH:       round2(math.Max(0, mean-std)),
		ConfidenceHighMPH:      round2(mean + std),
		OverallQCScore:         round4(qcMean),
		SupportingStationCount: len(usable),
		Trace:                  trace,
	}
}

// stationWeight favors close, high-quality stations with many observations.
// Distance is clamped to ≥0 so a bad feed value cannot produce a negative
// weight.
func stationWeight(s StationQualitySummary) float64 {
	distance := math.Max(0, s.DistanceMiles)
	return 1 / (1 + distance) * (0.5 + 0.5*s.AvgQCScore) * math.Log1p(float64(s.ObservationCount))
}
