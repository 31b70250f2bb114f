package verify_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/claimsight/dol-evidence/internal/domain"
	"github.com/claimsight/dol-evidence/internal/observability"
	"github.com/claimsight/dol-evidence/internal/verify"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func f64(v float64) *float64 { return &v }

// --- mocks ---

type mockGeocoder struct {
	result verify.GeocodeResult
	err    error
}

func (m *mockGeocoder) GeocodeAddress(_ context.Context, _, _, _, _ string) (verify.GeocodeResult, error) {
	return m.result, m.err
}

type mockLocator struct {
	stations []domain.StationMetadata
	err      error
}

func (m *mockLocator) NearbyStations(_ context.Context, _, _ float64) ([]domain.StationMetadata, error) {
	return m.stations, m.err
}

type mockObservations struct {
	mu         sync.Mutex
	byStation  map[string][]domain.Observation
	errStation string
	calls      []string
}

func (m *mockObservations) StationObservations(_ context.Context, stationID, _, _ string) ([]domain.Observation, error) {
	m.mu.Lock()
	m.calls = append(m.calls, stationID)
	m.mu.Unlock()
	if stationID == m.errStation {
		return nil, errors.New("feed unavailable")
	}
	return m.byStation[stationID], nil
}

type mockPoints struct {
	county string
	err    error
}

func (m *mockPoints) PointInfo(_ context.Context, _, _ float64) (verify.PointInfo, error) {
	return verify.PointInfo{County: m.county}, m.err
}

type mockStore struct {
	mu    sync.Mutex
	saved []domain.VerificationRecord
	err   error
}

func (m *mockStore) SaveVerification(_ context.Context, rec domain.VerificationRecord) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	m.saved = append(m.saved, rec)
	m.mu.Unlock()
	return nil
}

func (m *mockStore) Ping(_ context.Context) error { return m.err }

type mockAudit struct {
	published []domain.VerificationRecord
	err       error
}

func (m *mockAudit) PublishVerification(_ context.Context, rec domain.VerificationRecord) error {
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, rec)
	return nil
}

// --- helpers ---

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func geocodeAt(lat, lng float64) *mockGeocoder {
	return &mockGeocoder{result: verify.GeocodeResult{
		Latitude:       f64(lat),
		Longitude:      f64(lng),
		MatchedAddress: "123 Main St, Miami, FL 33101",
	}}
}

func newVerifier(t *testing.T, deps verify.Dependencies) *verify.Verifier {
	t.Helper()
	return verify.New(deps, verify.Options{}, testLogger(), observability.NewMetricsForTesting())
}

// --- tests ---

func TestDiscover_WindEndToEnd(t *testing.T) {
	stations := []domain.StationMetadata{
		{StationID: "KAAA", StationName: "Alpha Field", DistanceMiles: 1.0},
		{StationID: "KBBB", StationName: "Bravo Muni", DistanceMiles: 3.0},
	}
	observations := &mockObservations{byStation: map[string][]domain.Observation{
		"KAAA": {{StationID: "KAAA", Timestamp: "2026-01-10 14:00", WindGustMPH: f64(44)}},
		"KBBB": {{StationID: "KBBB", Timestamp: "2026-01-10 15:00", WindGustMPH: f64(38)}},
	}}

	v := newVerifier(t, verify.Dependencies{
		Geocoder:     geocodeAt(25.95, -80.30),
		Stations:     &mockLocator{stations: stations},
		Observations: observations,
		Points:       &mockPoints{county: "Miami-Dade"},
	})

	result, err := v.Discover(context.Background(), verify.Request{
		EventType: "wind",
		StartDate: "2026-01-01",
		EndDate:   "2026-01-31",
	})
	require.NoError(t, err)

	assert.Equal(t, 25.95, result.Location.Latitude)
	assert.Equal(t, -80.30, result.Location.Longitude)
	assert.Equal(t, "Miami-Dade", result.Location.County)

	require.NotEmpty(t, result.WindCandidates)
	top := result.WindCandidates[0]
	assert.Equal(t, domain.Day("2026-01-10"), top.CandidateDate)
	assert.GreaterOrEqual(t, top.PeakWindMPH, 38.0)
	assert.Equal(t, 2, top.StationCount)
	assert.Greater(t, top.WeightedSupportScore, 0.0)

	require.NotNil(t, result.Evidence)
	assert.Equal(t, 2, result.Evidence.SupportingStationCount)
}

func TestDiscover_HailEndToEnd(t *testing.T) {
	stations := []domain.StationMetadata{
		{StationID: "KAAA", StationName: "Alpha Field", DistanceMiles: 4.0},
	}
	observations := &mockObservations{byStation: map[string][]domain.Observation{
		"KAAA": {
			{StationID: "KAAA", Timestamp: "2026-02-01 15:10", WeatherCodes: []string{"TSGR"}},
			{StationID: "KAAA", Timestamp: "2026-02-01 15:40", WeatherCodes: []string{"GR"}},
		},
	}}

	v := newVerifier(t, verify.Dependencies{
		Geocoder:     geocodeAt(25.95, -80.30),
		Stations:     &mockLocator{stations: stations},
		Observations: observations,
	})

	result, err := v.Discover(context.Background(), verify.Request{EventType: "hail"})
	require.NoError(t, err)

	require.Len(t, result.HailCandidates, 1)
	assert.Equal(t, domain.Day("2026-02-01"), result.HailCandidates[0].CandidateDate)
	assert.Equal(t, 2, result.HailCandidates[0].ReportCount)
	assert.Nil(t, result.Evidence)
}

func TestVerify_PersistsHailPick(t *testing.T) {
	stations := []domain.StationMetadata{
		{StationID: "KAAA", StationName: "Alpha Field", DistanceMiles: 4.0},
	}
	observations := &mockObservations{byStation: map[string][]domain.Observation{
		"KAAA": {
			{StationID: "KAAA", Timestamp: "2026-02-05 15:10", WeatherCodes: []string{"TSGR"}},
			{StationID: "KAAA", Timestamp: "2026-02-05 15:40", WeatherCodes: []string{"GR"}},
		},
	}}
	store := &mockStore{}
	audit := &mockAudit{}

	v := newVerifier(t, verify.Dependencies{
		Geocoder:     geocodeAt(25.95, -80.30),
		Stations:     &mockLocator{stations: stations},
		Observations: observations,
		Store:        store,
		Audit:        audit,
	})

	frozen := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	v.SetClock(clockwork.NewFakeClockAt(frozen))

	rec, err := v.Verify(context.Background(), verify.Request{EventType: "hail"})
	require.NoError(t, err)

	assert.Equal(t, domain.Day("2026-02-05"), rec.VerifiedDOL)
	assert.Contains(t, []domain.Confidence{
		domain.ConfidenceLow, domain.ConfidenceMedium, domain.ConfidenceHigh,
	}, rec.Confidence)
	assert.Equal(t, 25.95, rec.Location.Latitude)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, frozen, rec.CreatedAt)

	require.Len(t, store.saved, 1)
	assert.Equal(t, rec.ID, store.saved[0].ID)
	require.Len(t, audit.published, 1)
	assert.Equal(t, rec.ID, audit.published[0].ID)
}

func TestVerify_GeocodeFailureIsClientError(t *testing.T) {
	store := &mockStore{}
	v := newVerifier(t, verify.Dependencies{
		Geocoder:     &mockGeocoder{result: verify.GeocodeResult{}},
		Stations:     &mockLocator{},
		Observations: &mockObservations{},
		Store:        store,
	})

	_, err := v.Verify(context.Background(), verify.Request{EventType: "wind"})

	var clientErr *verify.ClientError
	require.ErrorAs(t, err, &clientErr)
	assert.Equal(t, "DOL_GEOCODE_FAILED", clientErr.Code)
	assert.Equal(t, 400, clientErr.Status)
	assert.Empty(t, store.saved, "nothing may be persisted on geocode failure")
}

func TestVerify_UnknownEventType(t *testing.T) {
	v := newVerifier(t, verify.Dependencies{
		Geocoder:     geocodeAt(25.95, -80.30),
		Stations:     &mockLocator{},
		Observations: &mockObservations{},
	})

	_, err := v.Verify(context.Background(), verify.Request{EventType: "flood"})

	var clientErr *verify.ClientError
	require.ErrorAs(t, err, &clientErr)
	assert.Equal(t, "DOL_UNKNOWN_EVENT_TYPE", clientErr.Code)
}

func TestVerify_NoEvidenceStillPersistsRecord(t *testing.T) {
	store := &mockStore{}
	v := newVerifier(t, verify.Dependencies{
		Geocoder:     geocodeAt(25.95, -80.30),
		Stations:     &mockLocator{stations: []domain.StationMetadata{{StationID: "KAAA"}}},
		Observations: &mockObservations{},
		Store:        store,
	})

	rec, err := v.Verify(context.Background(), verify.Request{EventType: "wind"})
	require.NoError(t, err)

	assert.Empty(t, rec.VerifiedDOL)
	assert.Equal(t, domain.ConfidenceUnverified, rec.Confidence)
	assert.Empty(t, rec.WindCandidates)
	require.Len(t, store.saved, 1)
}

func TestDiscover_StationFetchFailureDegrades(t *testing.T) {
	stations := []domain.StationMetadata{
		{StationID: "KAAA", StationName: "Alpha Field", DistanceMiles: 1.0},
		{StationID: "KBBB", StationName: "Bravo Muni", DistanceMiles: 3.0},
	}
	observations := &mockObservations{
		byStation: map[string][]domain.Observation{
			"KAAA": {{StationID: "KAAA", Timestamp: "2026-01-10 14:00", WindGustMPH: f64(44)}},
		},
		errStation: "KBBB",
	}

	v := newVerifier(t, verify.Dependencies{
		Geocoder:     geocodeAt(25.95, -80.30),
		Stations:     &mockLocator{stations: stations},
		Observations: observations,
	})

	result, err := v.Discover(context.Background(), verify.Request{EventType: "wind"})
	require.NoError(t, err)

	require.Len(t, result.WindCandidates, 1)
	assert.Equal(t, 1, result.WindCandidates[0].StationCount)
}

func TestDiscover_FetchesAllStations(t *testing.T) {
	stations := make([]domain.StationMetadata, 0, 9)
	byStation := make(map[string][]domain.Observation)
	for _, id := range []string{"K01", "K02", "K03", "K04", "K05", "K06", "K07", "K08", "K09"} {
		stations = append(stations, domain.StationMetadata{StationID: id, DistanceMiles: 2.0})
		byStation[id] = []domain.Observation{
			{StationID: id, Timestamp: "2026-01-10 14:00", WindGustMPH: f64(40)},
		}
	}
	observations := &mockObservations{byStation: byStation}

	v := newVerifier(t, verify.Dependencies{
		Geocoder:     geocodeAt(25.95, -80.30),
		Stations:     &mockLocator{stations: stations},
		Observations: observations,
	})

	result, err := v.Discover(context.Background(), verify.Request{EventType: "wind"})
	require.NoError(t, err)

	assert.Len(t, observations.calls, 9)
	require.Len(t, result.WindCandidates, 1)
	assert.Equal(t, 9, result.WindCandidates[0].StationCount)
}

func TestDiscover_TopNLimit(t *testing.T) {
	byStation := map[string][]domain.Observation{"KAAA": {}}
	for day := 10; day <= 16; day++ {
		byStation["KAAA"] = append(byStation["KAAA"], domain.Observation{
			StationID: "KAAA",
			Timestamp: time.Date(2026, 1, day, 14, 0, 0, 0, time.UTC).Format("2006-01-02 15:04"),
			WindGustMPH: f64(float64(30 + day)),
		})
	}

	v := newVerifier(t, verify.Dependencies{
		Geocoder:     geocodeAt(25.95, -80.30),
		Stations:     &mockLocator{stations: []domain.StationMetadata{{StationID: "KAAA", DistanceMiles: 1.0}}},
		Observations: &mockObservations{byStation: byStation},
	})

	result, err := v.Discover(context.Background(), verify.Request{EventType: "wind", TopN: 2})
	require.NoError(t, err)

	require.Len(t, result.WindCandidates, 2)
	// Highest winds rank first.
	assert.Equal(t, domain.Day("2026-01-16"), result.WindCandidates[0].CandidateDate)
	assert.Equal(t, domain.Day("2026-01-15"), result.WindCandidates[1].CandidateDate)
}

func TestVerify_StoreFailureIsServerError(t *testing.T) {
	v := newVerifier(t, verify.Dependencies{
		Geocoder:     geocodeAt(25.95, -80.30),
		Stations:     &mockLocator{},
		Observations: &mockObservations{},
		Store:        &mockStore{err: errors.New("disk full")},
	})

	_, err := v.Verify(context.Background(), verify.Request{EventType: "wind"})

	require.Error(t, err)
	var clientErr *verify.ClientError
	assert.False(t, errors.As(err, &clientErr))
}

func TestVerify_AuditFailureIsAbsorbed(t *testing.T) {
	store := &mockStore{}
	v := newVerifier(t, verify.Dependencies{
		Geocoder:     geocodeAt(25.95, -80.30),
		Stations:     &mockLocator{},
		Observations: &mockObservations{},
		Store:        store,
		Audit:        &mockAudit{err: errors.New("broker down")},
	})

	_, err := v.Verify(context.Background(), verify.Request{EventType: "wind"})

	require.NoError(t, err)
	assert.Len(t, store.saved, 1)
}

func TestCheckReadiness(t *testing.T) {
	t.Run("ready when store pings", func(t *testing.T) {
		v := newVerifier(t, verify.Dependencies{Store: &mockStore{}})
		assert.NoError(t, v.CheckReadiness(context.Background()))
	})

	t.Run("not ready when store is down", func(t *testing.T) {
		v := newVerifier(t, verify.Dependencies{Store: &mockStore{err: errors.New("no db")}})
		assert.Error(t, v.CheckReadiness(context.Background()))
	})
}
