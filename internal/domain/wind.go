package domain

import (
	"sort"
	"time"
)

// DefaultMinWindMPH is the qualifying threshold below which an observation
// does not contribute to a wind candidate.
const DefaultMinWindMPH = 30.0

// Wind confidence tier thresholds (see package doc).
const (
	windConfirmedPeakMPH   = 58.0
	windConfirmedSupport   = 0.18
	windHighPeakMPH        = 45.0
	windHighSupport        = 0.12
	windMediumPeakMPH      = 35.0
	windLowPeakMPH         = 25.0
	windMultiStationCount  = 2
	windSingleStationCount = 1
)

// Wind rank-score weightings.
const (
	windRankPeakWeight    = 0.65
	windRankStationWeight = 12.0
	windRankSupportWeight = 40.0
)

// StationRef identifies a station that contributed to a candidate.
// StationName is empty and DistanceMiles nil when the station is not in the
// supplied metadata.
type StationRef struct {
	StationID     string   `json:"station_id"`
	StationName   string   `json:"station_name,omitempty"`
	DistanceMiles *float64 `json:"distance_miles,omitempty"`
}

// WindCandidate is a hypothesized wind event on one calendar day.
type WindCandidate struct {
	CandidateDate        Day          `json:"candidate_date"`
	PeakWindowStart      string       `json:"peak_window_start"`
	PeakWindowEnd        string       `json:"peak_window_end"`
	PeakWindMPH          float64      `json:"peak_wind_mph"`
	StationCount         int          `json:"station_count"`
	ObservationCount     int          `json:"observation_count"`
	WeightedSupportScore float64      `json:"weighted_support_score"`
	Confidence           Confidence   `json:"confidence"`
	StationsUsed         []StationRef `json:"stations_used"`
	Score                float64      `json:"score"`
}

type windBucket struct {
	peakMPH    float64
	startRaw   string
	startTime  time.Time
	endRaw     string
	endTime    time.Time
	obsCount   int
	stationIDs map[string]struct{}
}

// BuildWindCandidates groups qualifying wind observations across stations by
// calendar day into ranked, confidence-tiered candidates. stationWeights may
// be nil, in which case every station contributes zero support. Output is
// sorted descending by (score, peak wind).
func BuildWindCandidates(
	observationsByStation map[string][]Observation,
	stations []StationMetadata,
	stationWeights map[string]float64,
	minWindMPH float64,
) []WindCandidate {
	buckets := make(map[Day]*windBucket)

	// Stations are walked in sorted order so window boundaries and station
	// sets are deterministic regardless of map layout.
	stationIDs := make([]string, 0, len(observationsByStation))
	for id := range observationsByStation {
		stationIDs = append(stationIDs, id)
	}
	sort.Strings(stationIDs)

	for _, stationID := range stationIDs {
		for _, obs := range observationsByStation[stationID] {
			ts, ok := ParseObservationTimestamp(obs.Timestamp)
			if !ok {
				continue
			}
			v := windValue(obs)
			if v < minWindMPH {
				continue
			}

			day := DayOf(ts)
			b, exists := buckets[day]
			if !exists {
				b = &windBucket{
					startRaw: obs.Timestamp, startTime: ts,
					endRaw: obs.Timestamp, endTime: ts,
					stationIDs: make(map[string]struct{}),
				}
				buckets[day] = b
			}
			if v > b.peakMPH {
				b.peakMPH = v
			}
			if ts.Before(b.startTime) || (ts.Equal(b.startTime) && obs.Timestamp < b.startRaw) {
				b.startTime, b.startRaw = ts, obs.Timestamp
			}
			if ts.After(b.endTime) || (ts.Equal(b.endTime) && obs.Timestamp > b.endRaw) {
				b.endTime, b.endRaw = ts, obs.Timestamp
			}
			b.obsCount++
			b.stationIDs[stationID] = struct{}{}
		}
	}

	metadata := make(map[string]StationMetadata, len(stations))
	for _, s := range stations {
		metadata[s.StationID] = s
	}

	candidates := make([]WindCandidate, 0, len(buckets))
	for day, b := range buckets {
		contributing := make([]string, 0, len(b.stationIDs))
		for id := range b.stationIDs {
			contributing = append(contributing, id)
		}
		sort.Strings(contributing)

		var support float64
		refs := make([]StationRef, 0, len(contributing))
		for _, id := range contributing {
			support += stationWeights[id]
			ref := StationRef{StationID: id}
			if meta, ok := metadata[id]; ok {
				ref.StationName = meta.StationName
				d := meta.DistanceMiles
				ref.DistanceMiles = &d
			}
			refs = append(refs, ref)
		}
		support = round4(support)

		candidates = append(candidates, WindCandidate{
			CandidateDate:        day,
			PeakWindowStart:      b.startRaw,
			PeakWindowEnd:        b.endRaw,
			PeakWindMPH:          b.peakMPH,
			StationCount:         len(contributing),
			ObservationCount:     b.obsCount,
			WeightedSupportScore: support,
			Confidence:           windConfidence(len(contributing), b.peakMPH, support),
			StationsUsed:         refs,
			Score:                round2(windRankScore(b.peakMPH, len(contributing), support)),
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		if candidates[i].PeakWindMPH != candidates[j].PeakWindMPH {
			return candidates[i].PeakWindMPH > candidates[j].PeakWindMPH
		}
		return candidates[i].CandidateDate < candidates[j].CandidateDate
	})
	return candidates
}

// windConfidence evaluates the tier ladder top down; first match wins.
func windConfidence(stationCount int, peakMPH, support float64) Confidence {
	switch {
	case stationCount >= windMultiStationCount && peakMPH >= windConfirmedPeakMPH && support >= windConfirmedSupport:
		return ConfidenceConfirmed
	case stationCount >= windMultiStationCount && peakMPH >= windHighPeakMPH && support >= windHighSupport:
		return ConfidenceHigh
	case stationCount >= windSingleStationCount && peakMPH >= windMediumPeakMPH:
		return ConfidenceMedium
	case peakMPH >= windLowPeakMPH:
		return ConfidenceLow
	default:
		return ConfidenceUnverified
	}
}

func windRankScore(peakMPH float64, stationCount int, support float64) float64 {
	return windRankPeakWeight*peakMPH + windRankStationWeight*float64(stationCount) + windRankSupportWeight*support
}
