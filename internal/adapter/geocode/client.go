// Package geocode implements verify.Geocoder against a Mapbox-style forward
// geocoding API, with an optional in-memory LRU cache decorator.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/claimsight/dol-evidence/internal/verify"
)

// Client implements verify.Geocoder using a Mapbox-style places API.
type Client struct {
	token      string
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates a geocoding client.
func NewClient(baseURL, token string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		token: token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		logger:  logger,
	}
}

// GeocodeAddress resolves a postal address to coordinates. An address the
// provider cannot match returns nil coordinates with a nil error; only
// transport and API failures are errors.
func (c *Client) GeocodeAddress(ctx context.Context, address, city, state, zip string) (verify.GeocodeResult, error) {
	query := buildQuery(address, city, state, zip)
	if query == "" {
		return verify.GeocodeResult{}, nil
	}

	u := fmt.Sprintf("%s/%s.json", c.baseURL, url.PathEscape(query))
	params := url.Values{
		"access_token": {c.token},
		"limit":        {"1"},
		"types":        {"address,place"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u+"?"+params.Encode(), nil)
	if err != nil {
		return verify.GeocodeResult{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return verify.GeocodeResult{}, fmt.Errorf("geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return verify.GeocodeResult{}, fmt.Errorf("geocoding API error: status %d: %s", resp.StatusCode, body)
	}

	var apiResp response
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return verify.GeocodeResult{}, fmt.Errorf("decode response: %w", err)
	}

	if len(apiResp.Features) == 0 {
		return verify.GeocodeResult{}, nil
	}

	f := apiResp.Features[0]
	result := verify.GeocodeResult{MatchedAddress: f.PlaceName}
	if len(f.Center) == 2 {
		lng, lat := f.Center[0], f.Center[1]
		result.Longitude = &lng
		result.Latitude = &lat
	}
	return result, nil
}

// buildQuery joins the non-empty address parts into one provider query,
// e.g. "123 Main St, Miami, FL 33101".
func buildQuery(address, city, state, zip string) string {
	var parts []string
	for _, p := range []string{address, city} {
		if s := strings.TrimSpace(p); s != "" {
			parts = append(parts, s)
		}
	}
	tail := strings.TrimSpace(strings.TrimSpace(state) + " " + strings.TrimSpace(zip))
	if tail != "" {
		parts = append(parts, tail)
	}
	return strings.Join(parts, ", ")
}

// Geocoding API response types.

type response struct {
	Features []feature `json:"features"`
}

type feature struct {
	Center    []float64 `json:"center"` // [lng, lat]
	PlaceName string    `json:"place_name"`
	Relevance float64   `json:"relevance"`
}
