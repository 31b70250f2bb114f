// Command genfixtures generates deterministic synthetic METAR observation
// fixtures for the test suites. It runs the actual domain pipeline over the
// generated observations so the candidate fixtures match real engine
// behavior.
//
// Usage:
//
//	go run ./cmd/genfixtures \
//	  -obs-out data/fixtures/observations.json \
//	  -candidates-out data/fixtures/wind_candidates.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/claimsight/dol-evidence/internal/domain"
)

// Fixed seed keeps fixtures reproducible across runs.
const fixtureSeed = 20260110

var stormDay = time.Date(2026, time.January, 10, 0, 0, 0, 0, time.UTC)

type stationDef struct {
	id       string
	name     string
	distance float64
	// peakMPH is the storm-day gust ceiling for this station. Quiet-day
	// winds stay well below it.
	peakMPH float64
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	obsOut := flag.String("obs-out", "", "output path for the observation fixture")
	candOut := flag.String("candidates-out", "", "output path for the wind candidate fixture")
	days := flag.Int("days", 7, "number of days of observations, centered on the storm day")
	flag.Parse()

	if *obsOut == "" || *candOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -obs-out, -candidates-out")
	}

	stations := []stationDef{
		{id: "KAAA", name: "Miami Intl", distance: 1.1, peakMPH: 52},
		{id: "KBBB", name: "Opa-locka Exec", distance: 2.2, peakMPH: 47},
		{id: "KCCC", name: "Kendall-Tamiami", distance: 8.4, peakMPH: 41},
		{id: "KDDD", name: "Fort Lauderdale Exec", distance: 19.6, peakMPH: 36},
	}

	rng := rand.New(rand.NewSource(fixtureSeed))

	byStation := map[string][]domain.Observation{}
	var meta []domain.StationMetadata
	for _, s := range stations {
		meta = append(meta, domain.StationMetadata{
			StationID:     s.id,
			StationName:   s.name,
			DistanceMiles: s.distance,
		})
		byStation[s.id] = generateObservations(rng, s, *days)
	}

	if err := writeJSON(*obsOut, byStation); err != nil {
		return fmt.Errorf("writing observation fixture: %w", err)
	}
	log.Printf("wrote observation fixture: %s", *obsOut)

	// Run the actual scoring and candidate pipeline.
	weights := map[string]float64{}
	var summaries []domain.StationQualitySummary
	for i, s := range stations {
		summary := domain.SummarizeStationQuality(meta[i], byStation[s.id])
		summaries = append(summaries, summary)
	}
	evidence := domain.AggregateStationEvidence(summaries)
	for _, u := range evidence.Trace.Usable {
		weights[u.StationID] = u.NormalizedWeight
	}

	candidates := domain.BuildWindCandidates(byStation, meta, weights, domain.DefaultMinWindMPH)

	if err := writeJSON(*candOut, candidates); err != nil {
		return fmt.Errorf("writing candidate fixture: %w", err)
	}
	log.Printf("wrote candidate fixture: %s", *candOut)

	printStats(byStation, evidence, candidates)
	return nil
}

// generateObservations emits hourly observations for each day in the window.
// The storm day ramps winds toward the station's peak in the afternoon;
// other days stay calm. A few observations carry deliberate quality defects
// so QC scoring has something to chew on.
func generateObservations(rng *rand.Rand, s stationDef, days int) []domain.Observation {
	var obs []domain.Observation
	start := stormDay.AddDate(0, 0, -days/2)

	for d := 0; d < days; d++ {
		day := start.AddDate(0, 0, d)
		isStormDay := day.Equal(stormDay)

		for hour := 0; hour < 24; hour++ {
			ts := day.Add(time.Duration(hour) * time.Hour)

			base := 5 + rng.Float64()*10
			if isStormDay {
				// Ramp toward the peak between 13:00 and 17:00.
				if hour >= 13 && hour <= 17 {
					base = s.peakMPH - rng.Float64()*6
				} else {
					base = 12 + rng.Float64()*15
				}
			}

			speed := round1(base)
			o := domain.Observation{
				StationID:     s.id,
				Timestamp:     ts.Format("2006-01-02 15:04:05"),
				WindSpeedMPH:  &speed,
				RawSourceText: fmt.Sprintf("%s %sZ AUTO %03d%02.0fKT", s.id, ts.Format("021504"), rng.Intn(360), speed/1.15),
			}
			if isStormDay && hour >= 13 && hour <= 17 {
				gust := round1(speed + 3 + rng.Float64()*4)
				o.WindGustMPH = &gust
			}

			// One malformed timestamp and one wind-less report per
			// station per window.
			switch {
			case d == 0 && hour == 3:
				o.Timestamp = "garbled"
			case d == 1 && hour == 4:
				o.WindSpeedMPH = nil
				o.WindGustMPH = nil
			}

			obs = append(obs, o)
		}
	}
	return obs
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

func printStats(byStation map[string][]domain.Observation, evidence domain.AggregatedEvidence, candidates []domain.WindCandidate) {
	fmt.Println("\n=== Stats for updating test assertions ===")

	total := 0
	for _, obs := range byStation {
		total += len(obs)
	}
	fmt.Printf("Total observations: %d across %d stations\n", total, len(byStation))

	fmt.Printf("Evidence: peak=%.2f mph, CI=[%.2f, %.2f], qc=%.4f, stations=%d\n",
		evidence.WeightedPeakWindMPH,
		evidence.ConfidenceLowMPH, evidence.ConfidenceHighMPH,
		evidence.OverallQCScore, evidence.SupportingStationCount)

	fmt.Printf("Candidates: %d\n", len(candidates))
	for i, c := range candidates {
		fmt.Printf("  %d. %s peak=%.1f stations=%d score=%.2f confidence=%s\n",
			i+1, c.CandidateDate, c.PeakWindMPH, c.StationCount, c.Score, c.Confidence)
	}
}
