package domain

import (
	"sort"
	"strings"
	"time"
)

// DefaultMaxHailDistanceMiles is the default search radius for hail reports.
const DefaultMaxHailDistanceMiles = 25.0

// Hail confidence tier thresholds (see package doc).
const (
	hailConfirmedReports       = 3
	hailConfirmedDistanceMiles = 10.0
	hailConfirmedSizeInches    = 1.0
	hailHighReports            = 2
	hailHighDistanceMiles      = 15.0
	hailMediumDistanceMiles    = 25.0
)

// Hail rank-score weightings.
const (
	hailRankReportWeight   = 18.0
	hailRankSizeWeight     = 22.0
	hailRankDistancePenalty = 0.35
)

// HailCandidate is a hypothesized hail event on one calendar day.
type HailCandidate struct {
	CandidateDate    Day        `json:"candidate_date"`
	PeakWindowStart  string     `json:"peak_window_start"`
	PeakWindowEnd    string     `json:"peak_window_end"`
	ReportCount      int        `json:"report_count"`
	MaxHailInches    float64    `json:"max_hail_inches"`
	MinDistanceMiles float64    `json:"min_distance_miles"`
	Confidence       Confidence `json:"confidence"`
	Score            float64    `json:"score"`
	SourceReports    []string   `json:"source_reports,omitempty"`
}

type hailBucket struct {
	reports []bucketedHailReport
}

type bucketedHailReport struct {
	report HailReport
	time   time.Time
}

// BuildHailCandidates groups point hail reports by calendar day into ranked,
// confidence-tiered candidates. Reports with a missing or negative distance,
// a distance beyond maxDistanceMiles, or an unparsable timestamp are
// discarded. Output is sorted descending by (score, report count, max size).
func BuildHailCandidates(reports []HailReport, maxDistanceMiles float64) []HailCandidate {
	buckets := make(map[Day]*hailBucket)

	for _, r := range reports {
		if r.DistanceMiles == nil || *r.DistanceMiles < 0 || *r.DistanceMiles > maxDistanceMiles {
			continue
		}
		ts, ok := ParseObservationTimestamp(r.Timestamp)
		if !ok {
			continue
		}
		day := DayOf(ts)
		b, exists := buckets[day]
		if !exists {
			b = &hailBucket{}
			buckets[day] = b
		}
		b.reports = append(b.reports, bucketedHailReport{report: r, time: ts})
	}

	candidates := make([]HailCandidate, 0, len(buckets))
	for day, b := range buckets {
		sort.Slice(b.reports, func(i, j int) bool {
			if !b.reports[i].time.Equal(b.reports[j].time) {
				return b.reports[i].time.Before(b.reports[j].time)
			}
			return b.reports[i].report.SourceReport < b.reports[j].report.SourceReport
		})

		var maxInches float64
		minDistance := *b.reports[0].report.DistanceMiles
		sources := make([]string, 0, len(b.reports))
		for _, br := range b.reports {
			if br.report.MagnitudeInches != nil && *br.report.MagnitudeInches > maxInches {
				maxInches = *br.report.MagnitudeInches
			}
			if *br.report.DistanceMiles < minDistance {
				minDistance = *br.report.DistanceMiles
			}
			if br.report.SourceReport != "" {
				sources = append(sources, br.report.SourceReport)
			}
		}

		count := len(b.reports)
		candidates = append(candidates, HailCandidate{
			CandidateDate:    day,
			PeakWindowStart:  b.reports[0].report.Timestamp,
			PeakWindowEnd:    b.reports[count-1].report.Timestamp,
			ReportCount:      count,
			MaxHailInches:    maxInches,
			MinDistanceMiles: round2(minDistance),
			Confidence:       hailConfidence(count, minDistance, maxInches),
			Score:            round2(hailRankScore(count, maxInches, minDistance)),
			SourceReports:    sources,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		if candidates[i].ReportCount != candidates[j].ReportCount {
			return candidates[i].ReportCount > candidates[j].ReportCount
		}
		if candidates[i].MaxHailInches != candidates[j].MaxHailInches {
			return candidates[i].MaxHailInches > candidates[j].MaxHailInches
		}
		return candidates[i].CandidateDate < candidates[j].CandidateDate
	})
	return candidates
}

func hailConfidence(reportCount int, minDistanceMiles, maxInches float64) Confidence {
	switch {
	case reportCount >= hailConfirmedReports && minDistanceMiles <= hailConfirmedDistanceMiles && maxInches >= hailConfirmedSizeInches:
		return ConfidenceConfirmed
	case reportCount >= hailHighReports && minDistanceMiles <= hailHighDistanceMiles:
		return ConfidenceHigh
	case reportCount >= 1 && minDistanceMiles <= hailMediumDistanceMiles:
		return ConfidenceMedium
	case reportCount >= 1:
		return ConfidenceLow
	default:
		return ConfidenceUnverified
	}
}

func hailRankScore(reportCount int, maxInches, minDistanceMiles float64) float64 {
	return hailRankReportWeight*float64(reportCount) + hailRankSizeWeight*maxInches - hailRankDistancePenalty*minDistanceMiles
}

// HailReportsFromObservations derives point hail reports from a station's
// METAR observations. An observation counts as one report when any of its
// present-weather codes carries the GR (hail) token; GS (small hail/graupel)
// does not qualify. METAR codes carry no stone size, so MagnitudeInches is
// left nil.
func HailReportsFromObservations(station StationMetadata, observations []Observation) []HailReport {
	var reports []HailReport
	for _, obs := range observations {
		code, ok := hailCode(obs.WeatherCodes)
		if !ok {
			continue
		}
		source := obs.RawSourceText
		if source == "" {
			source = strings.TrimSpace(station.StationID + " " + code)
		}
		distance := station.DistanceMiles
		reports = append(reports, HailReport{
			DistanceMiles: &distance,
			Timestamp:     obs.Timestamp,
			SourceReport:  source,
		})
	}
	return reports
}

func hailCode(codes []string) (string, bool) {
	for _, code := range codes {
		c := strings.ToUpper(strings.TrimSpace(code))
		if strings.Contains(c, "GR") {
			return c, true
		}
	}
	return "", false
}
