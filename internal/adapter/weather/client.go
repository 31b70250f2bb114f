// Package weather implements the station locator, observation source, and
// point-info collaborators against the upstream weather data API.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/claimsight/dol-evidence/internal/domain"
	"github.com/claimsight/dol-evidence/internal/verify"
)

// Client talks to the weather data API. It implements verify.StationLocator,
// verify.ObservationSource, and verify.PointInfoSource.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates a weather API client.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		logger:  logger,
	}
}

// NearbyStations returns observation stations close to a coordinate, nearest
// first, with distances in miles.
func (c *Client) NearbyStations(ctx context.Context, lat, lng float64) ([]domain.StationMetadata, error) {
	params := url.Values{
		"lat": {formatCoord(lat)},
		"lng": {formatCoord(lng)},
	}

	var resp stationsResponse
	if err := c.getJSON(ctx, c.baseURL+"/stations?"+params.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("nearby stations: %w", err)
	}

	stations := make([]domain.StationMetadata, 0, len(resp.Stations))
	for _, s := range resp.Stations {
		stations = append(stations, domain.StationMetadata{
			StationID:     s.StationID,
			StationName:   s.StationName,
			DistanceMiles: s.DistanceMiles,
		})
	}
	return stations, nil
}

// StationObservations fetches a station's METAR time series over the
// inclusive [startDate, endDate] range (YYYY-MM-DD).
func (c *Client) StationObservations(ctx context.Context, stationID, startDate, endDate string) ([]domain.Observation, error) {
	params := url.Values{
		"start": {startDate},
		"end":   {endDate},
	}

	var resp observationsResponse
	u := fmt.Sprintf("%s/metar/%s?%s", c.baseURL, url.PathEscape(stationID), params.Encode())
	if err := c.getJSON(ctx, u, &resp); err != nil {
		return nil, fmt.Errorf("station %s observations: %w", stationID, err)
	}

	observations := make([]domain.Observation, 0, len(resp.Observations))
	for _, o := range resp.Observations {
		observations = append(observations, domain.Observation{
			StationID:       stationID,
			Timestamp:       o.Timestamp,
			WindSpeedMPH:    o.WindSpeedMPH,
			WindGustMPH:     o.WindGustMPH,
			PeakWindGustMPH: o.PeakWindGustMPH,
			WeatherCodes:    o.WeatherCodes,
			RawSourceText:   o.RawText,
		})
	}
	return observations, nil
}

// PointInfo returns contextual metadata for a coordinate.
func (c *Client) PointInfo(ctx context.Context, lat, lng float64) (verify.PointInfo, error) {
	params := url.Values{
		"lat": {formatCoord(lat)},
		"lng": {formatCoord(lng)},
	}

	var resp pointResponse
	if err := c.getJSON(ctx, c.baseURL+"/points?"+params.Encode(), &resp); err != nil {
		return verify.PointInfo{}, fmt.Errorf("point info: %w", err)
	}
	return verify.PointInfo{County: resp.County}, nil
}

func (c *Client) getJSON(ctx context.Context, fullURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("weather API error: status %d: %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

// Weather API response types.

type stationsResponse struct {
	Stations []stationRecord `json:"stations"`
}

type stationRecord struct {
	StationID     string  `json:"station_id"`
	StationName   string  `json:"station_name"`
	DistanceMiles float64 `json:"distance_miles"`
}

type observationsResponse struct {
	Observations []observationRecord `json:"observations"`
}

type observationRecord struct {
	Timestamp       string   `json:"timestamp"`
	WindSpeedMPH    *float64 `json:"wind_speed_mph"`
	WindGustMPH     *float64 `json:"wind_gust_mph"`
	PeakWindGustMPH *float64 `json:"peak_wind_gust_mph"`
	WeatherCodes    []string `json:"weather_codes"`
	RawText         string   `json:"raw_text"`
}

type pointResponse struct {
	County string `json:"county"`
}
