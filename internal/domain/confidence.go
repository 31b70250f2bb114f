package domain

// Confidence is a discrete label summarizing how strongly multiple sources
// corroborate a candidate event.
type Confidence string

const (
	ConfidenceUnverified Confidence = "unverified"
	ConfidenceLow        Confidence = "low"
	ConfidenceMedium     Confidence = "medium"
	ConfidenceHigh       Confidence = "high"
	ConfidenceConfirmed  Confidence = "confirmed"
)

var confidenceRanks = map[Confidence]int{
	ConfidenceUnverified: 0,
	ConfidenceLow:        1,
	ConfidenceMedium:     2,
	ConfidenceHigh:       3,
	ConfidenceConfirmed:  4,
}

// Rank orders tiers from unverified (0) to confirmed (4).
func (c Confidence) Rank() int {
	return confidenceRanks[c]
}
