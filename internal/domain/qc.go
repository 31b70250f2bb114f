package domain

import "strings"

// MaxPlausibleWindMPH is the ceiling for a believable surface wind
// measurement. The strongest surface gust ever recorded (Barrow Island,
// 1996) was 253 mph in a tropical cyclone; anything above 180 mph from a
// routine station feed is treated as a sensor or transcription error.
const MaxPlausibleWindMPH = 180.0

// QC penalty and bonus magnitudes.
const (
	qcPenaltyBadTimestamp = 0.35
	qcPenaltyNoWindValues = 0.45
	qcPenaltyImplausible  = 0.55
	qcBonusRawSource      = 0.05
)

// QC flag names. Implausible-value flags are derived per field:
// "implausible_wind_speed_mph" etc.
const (
	FlagMissingOrInvalidTimestamp = "missing_or_invalid_timestamp"
	FlagNoWindValues              = "no_wind_values"
)

// QCResult is the quality-control outcome for a single observation.
// Score is in [0,1], rounded to 4 decimals; Flags explain every deduction.
type QCResult struct {
	Score float64  `json:"score"`
	Flags []string `json:"flags,omitempty"`
}

// ScoreObservationQC scores one observation for trustworthiness. Malformed
// input degrades the score instead of producing an error.
func ScoreObservationQC(obs Observation) QCResult {
	score := 1.0
	var flags []string

	if _, ok := ParseObservationTimestamp(obs.Timestamp); !ok {
		flags = append(flags, FlagMissingOrInvalidTimestamp)
		score -= qcPenaltyBadTimestamp
	}

	if obs.WindSpeedMPH == nil && obs.WindGustMPH == nil && obs.PeakWindGustMPH == nil {
		flags = append(flags, FlagNoWindValues)
		score -= qcPenaltyNoWindValues
	}

	// Only the first implausible field is penalized, so a single garbled
	// report is not punished three times over.
	windFields := []struct {
		name  string
		value *float64
	}{
		{"wind_speed_mph", obs.WindSpeedMPH},
		{"wind_gust_mph", obs.WindGustMPH},
		{"peak_wind_gust_mph", obs.PeakWindGustMPH},
	}
	for _, f := range windFields {
		if f.value != nil && (*f.value < 0 || *f.value > MaxPlausibleWindMPH) {
			flags = append(flags, "implausible_"+f.name)
			score -= qcPenaltyImplausible
			break
		}
	}

	if strings.TrimSpace(obs.RawSourceText) != "" {
		score += qcBonusRawSource
	}

	return QCResult{Score: round4(clamp01(score)), Flags: flags}
}
