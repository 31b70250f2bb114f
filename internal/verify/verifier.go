// Package verify orchestrates the date-of-loss verification pipeline:
// geocoding, station discovery, observation retrieval, candidate building,
// and persistence of the verified pick.
package verify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/claimsight/dol-evidence/internal/domain"
	"github.com/claimsight/dol-evidence/internal/observability"
)

// Event types accepted by the orchestrator.
const (
	EventTypeWind = "wind"
	EventTypeHail = "hail"
)

// Request describes one verification or discovery call.
type Request struct {
	Address          string  `json:"address"`
	City             string  `json:"city"`
	State            string  `json:"state"`
	ZipCode          string  `json:"zip_code"`
	StartDate        string  `json:"start_date"`
	EndDate          string  `json:"end_date"`
	EventType        string  `json:"event_type"`
	TopN             int     `json:"top_n,omitempty"`
	MaxDistanceMiles float64 `json:"max_distance_miles,omitempty"`
	MinWindMPH       float64 `json:"min_wind_mph,omitempty"`
}

// DiscoveryResult is the full ranked candidate list for a request.
type DiscoveryResult struct {
	Location       domain.Location            `json:"location"`
	EventType      string                     `json:"event_type"`
	WindCandidates []domain.WindCandidate     `json:"wind_candidates,omitempty"`
	HailCandidates []domain.HailCandidate     `json:"hail_candidates,omitempty"`
	Evidence       *domain.AggregatedEvidence `json:"evidence,omitempty"`
}

// GeocodeResult is the raw geocoder answer. Nil coordinates mean the address
// did not resolve; that is a valid result, not a collaborator error.
type GeocodeResult struct {
	Latitude       *float64
	Longitude      *float64
	MatchedAddress string
}

// Geocoder resolves a postal address to coordinates.
type Geocoder interface {
	GeocodeAddress(ctx context.Context, address, city, state, zip string) (GeocodeResult, error)
}

// StationLocator finds observation stations near a coordinate.
type StationLocator interface {
	NearbyStations(ctx context.Context, lat, lng float64) ([]domain.StationMetadata, error)
}

// ObservationSource fetches a station's raw observations over a date range.
type ObservationSource interface {
	StationObservations(ctx context.Context, stationID, startDate, endDate string) ([]domain.Observation, error)
}

// PointInfo is contextual metadata about a coordinate.
type PointInfo struct {
	County string
}

// PointInfoSource supplies contextual point metadata; it never affects scoring.
type PointInfoSource interface {
	PointInfo(ctx context.Context, lat, lng float64) (PointInfo, error)
}

// RecordStore persists verification records. Records are append-only.
type RecordStore interface {
	SaveVerification(ctx context.Context, rec domain.VerificationRecord) error
	Ping(ctx context.Context) error
}

// AuditPublisher streams verification records to downstream consumers.
type AuditPublisher interface {
	PublishVerification(ctx context.Context, rec domain.VerificationRecord) error
}

// Dependencies are the external collaborators of the pipeline. Points and
// Audit are optional; Store is required only for Verify.
type Dependencies struct {
	Geocoder     Geocoder
	Stations     StationLocator
	Observations ObservationSource
	Points       PointInfoSource
	Store        RecordStore
	Audit        AuditPublisher
}

// Options are the per-deployment defaults, overridable per request.
type Options struct {
	TopN             int
	MinWindMPH       float64
	MaxDistanceMiles float64
	FetchConcurrency int
}

// Verifier drives the verification pipeline. Safe for concurrent use.
type Verifier struct {
	deps    Dependencies
	opts    Options
	logger  *slog.Logger
	metrics *observability.Metrics
	clock   clockwork.Clock
}

// New creates a Verifier. Zero-valued options fall back to engine defaults.
func New(deps Dependencies, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Verifier {
	if opts.TopN <= 0 {
		opts.TopN = 5
	}
	if opts.MinWindMPH <= 0 {
		opts.MinWindMPH = domain.DefaultMinWindMPH
	}
	if opts.MaxDistanceMiles <= 0 {
		opts.MaxDistanceMiles = domain.DefaultMaxHailDistanceMiles
	}
	if opts.FetchConcurrency <= 0 {
		opts.FetchConcurrency = 4
	}
	return &Verifier{
		deps:    deps,
		opts:    opts,
		logger:  logger,
		metrics: metrics,
		clock:   clockwork.NewRealClock(),
	}
}

// SetClock swaps the time source used for record timestamps. Tests inject a
// fake clock; pass nil to reset to real time.
func (v *Verifier) SetClock(c clockwork.Clock) {
	if c == nil {
		v.clock = clockwork.NewRealClock()
		return
	}
	v.clock = c
}

// CheckReadiness reports whether the verifier can serve traffic.
func (v *Verifier) CheckReadiness(ctx context.Context) error {
	if v.deps.Store == nil {
		return nil
	}
	if err := v.deps.Store.Ping(ctx); err != nil {
		return fmt.Errorf("record store not reachable: %w", err)
	}
	return nil
}

// Discover runs the pipeline up to candidate building and returns all ranked
// candidates (capped at top_n) alongside the resolved location. Nothing is
// persisted.
func (v *Verifier) Discover(ctx context.Context, req Request) (DiscoveryResult, error) {
	start := time.Now()
	result, err := v.discover(ctx, req)
	v.observe(req.EventType, "discover", err, time.Since(start))
	return result, err
}

// Verify runs the full pipeline, picks the top-ranked candidate's date as
// the verified date of loss, and persists an audit record. With no
// qualifying candidates the record is still written, with an empty date and
// unverified confidence, so callers can distinguish "searched and found
// nothing" from "failed to search".
func (v *Verifier) Verify(ctx context.Context, req Request) (domain.VerificationRecord, error) {
	start := time.Now()
	rec, err := v.verify(ctx, req)
	v.observe(req.EventType, "verify", err, time.Since(start))
	return rec, err
}

func (v *Verifier) verify(ctx context.Context, req Request) (domain.VerificationRecord, error) {
	discovery, err := v.discover(ctx, req)
	if err != nil {
		return domain.VerificationRecord{}, err
	}

	rec := domain.VerificationRecord{
		ID:             uuid.NewString(),
		Location:       discovery.Location,
		EventType:      discovery.EventType,
		WindCandidates: discovery.WindCandidates,
		HailCandidates: discovery.HailCandidates,
		Evidence:       discovery.Evidence,
		Confidence:     domain.ConfidenceUnverified,
		CreatedAt:      v.clock.Now().UTC(),
	}
	switch {
	case len(discovery.WindCandidates) > 0:
		rec.VerifiedDOL = discovery.WindCandidates[0].CandidateDate
		rec.Confidence = discovery.WindCandidates[0].Confidence
	case len(discovery.HailCandidates) > 0:
		rec.VerifiedDOL = discovery.HailCandidates[0].CandidateDate
		rec.Confidence = discovery.HailCandidates[0].Confidence
	}

	if v.deps.Store != nil {
		if err := v.deps.Store.SaveVerification(ctx, rec); err != nil {
			return domain.VerificationRecord{}, fmt.Errorf("persist verification record: %w", err)
		}
		v.metrics.RecordsPersisted.Inc()
	}

	// Audit publishing is best-effort; a broken stream must not fail the
	// verification that was already persisted.
	if v.deps.Audit != nil {
		if err := v.deps.Audit.PublishVerification(ctx, rec); err != nil {
			v.logger.Warn("audit publish failed", "record_id", rec.ID, "error", err)
			v.metrics.AuditPublished.WithLabelValues("error").Inc()
		} else {
			v.metrics.AuditPublished.WithLabelValues("success").Inc()
		}
	}

	return rec, nil
}

func (v *Verifier) discover(ctx context.Context, req Request) (DiscoveryResult, error) {
	if req.EventType != EventTypeWind && req.EventType != EventTypeHail {
		return DiscoveryResult{}, ErrUnknownEventType
	}

	location, err := v.geocode(ctx, req)
	if err != nil {
		return DiscoveryResult{}, err
	}

	stations, err := v.deps.Stations.NearbyStations(ctx, location.Latitude, location.Longitude)
	if err != nil {
		return DiscoveryResult{}, fmt.Errorf("nearby station lookup: %w", err)
	}
	if len(stations) == 0 {
		v.logger.Warn("no stations near location",
			"lat", location.Latitude, "lng", location.Longitude)
	}

	if v.deps.Points != nil {
		if info, err := v.deps.Points.PointInfo(ctx, location.Latitude, location.Longitude); err != nil {
			v.logger.Warn("point info lookup failed", "error", err)
		} else {
			location.County = info.County
		}
	}

	observationsByStation := v.fetchObservations(ctx, stations, req.StartDate, req.EndDate)

	result := DiscoveryResult{Location: location, EventType: req.EventType}
	switch req.EventType {
	case EventTypeWind:
		result.WindCandidates, result.Evidence = v.buildWind(observationsByStation, stations, req)
	case EventTypeHail:
		result.HailCandidates = v.buildHail(observationsByStation, stations, req)
	}
	return result, nil
}

func (v *Verifier) geocode(ctx context.Context, req Request) (domain.Location, error) {
	geo, err := v.deps.Geocoder.GeocodeAddress(ctx, req.Address, req.City, req.State, req.ZipCode)
	if err != nil {
		v.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return domain.Location{}, fmt.Errorf("geocode address: %w", err)
	}
	if geo.Latitude == nil || geo.Longitude == nil {
		v.metrics.GeocodeRequests.WithLabelValues("empty").Inc()
		v.logger.Warn("address did not geocode",
			"city", req.City, "state", req.State, "zip", req.ZipCode)
		return domain.Location{}, ErrGeocodeFailed
	}
	v.metrics.GeocodeRequests.WithLabelValues("success").Inc()
	return domain.Location{
		Latitude:       *geo.Latitude,
		Longitude:      *geo.Longitude,
		MatchedAddress: geo.MatchedAddress,
	}, nil
}

// fetchObservations retrieves each station's series concurrently and joins
// the results before candidate building, which is order-independent. A
// failed station fetch degrades evidence rather than failing the request.
func (v *Verifier) fetchObservations(ctx context.Context, stations []domain.StationMetadata, startDate, endDate string) map[string][]domain.Observation {
	out := make(map[string][]domain.Observation, len(stations))

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, v.opts.FetchConcurrency)
	)
	for _, station := range stations {
		wg.Add(1)
		go func(station domain.StationMetadata) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			start := time.Now()
			observations, err := v.deps.Observations.StationObservations(ctx, station.StationID, startDate, endDate)
			v.metrics.StationFetchDuration.Observe(time.Since(start).Seconds())
			if err != nil {
				v.metrics.StationFetchErrors.Inc()
				v.logger.Warn("station observation fetch failed",
					"station_id", station.StationID, "error", err)
				return
			}

			mu.Lock()
			out[station.StationID] = observations
			mu.Unlock()
		}(station)
	}
	wg.Wait()

	return out
}

func (v *Verifier) buildWind(observationsByStation map[string][]domain.Observation, stations []domain.StationMetadata, req Request) ([]domain.WindCandidate, *domain.AggregatedEvidence) {
	summaries := make([]domain.StationQualitySummary, 0, len(stations))
	for _, station := range stations {
		summaries = append(summaries, domain.SummarizeStationQuality(station, observationsByStation[station.StationID]))
	}
	evidence := domain.AggregateStationEvidence(summaries)

	weights := make(map[string]float64, len(evidence.Trace.Usable))
	for _, usable := range evidence.Trace.Usable {
		weights[usable.StationID] = usable.NormalizedWeight
	}

	minWind := req.MinWindMPH
	if minWind <= 0 {
		minWind = v.opts.MinWindMPH
	}

	candidates := domain.BuildWindCandidates(observationsByStation, stations, weights, minWind)
	candidates = truncate(candidates, req.TopN, v.opts.TopN)
	v.metrics.CandidatesBuilt.WithLabelValues(EventTypeWind).Observe(float64(len(candidates)))
	return candidates, &evidence
}

func (v *Verifier) buildHail(observationsByStation map[string][]domain.Observation, stations []domain.StationMetadata, req Request) []domain.HailCandidate {
	var reports []domain.HailReport
	for _, station := range stations {
		reports = append(reports, domain.HailReportsFromObservations(station, observationsByStation[station.StationID])...)
	}

	maxDistance := req.MaxDistanceMiles
	if maxDistance <= 0 {
		maxDistance = v.opts.MaxDistanceMiles
	}

	candidates := domain.BuildHailCandidates(reports, maxDistance)
	candidates = truncate(candidates, req.TopN, v.opts.TopN)
	v.metrics.CandidatesBuilt.WithLabelValues(EventTypeHail).Observe(float64(len(candidates)))
	return candidates
}

func truncate[T any](candidates []T, topN, defaultTopN int) []T {
	if topN <= 0 {
		topN = defaultTopN
	}
	if len(candidates) > topN {
		return candidates[:topN]
	}
	return candidates
}

func (v *Verifier) observe(eventType, operation string, err error, elapsed time.Duration) {
	outcome := "success"
	var clientErr *ClientError
	switch {
	case errors.As(err, &clientErr):
		outcome = "client_error"
	case err != nil:
		outcome = "error"
	}
	v.metrics.Verifications.WithLabelValues(eventType, operation, outcome).Inc()
	v.metrics.VerificationDuration.Observe(elapsed.Seconds())
}
