package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// ErrSourceUnavailable marks a source that is configured off or down
var ErrSourceUnavailable = errors.New("source unavailable")

// HTTPWeatherSource fetches current conditions from an open-meteo style
// JSON endpoint
type HTTPWeatherSource struct {
	baseURL string
	client  *http.Client
}

// NewHTTPWeatherSource creates a weather source against the given base URL
func NewHTTPWeatherSource(baseURL string) *HTTPWeatherSource {
	return &HTTPWeatherSource{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type weatherResponse struct {
	Current struct {
		Temperature float64 `json:"temperature_2m"`
		Humidity    float64 `json:"relative_humidity_2m"`
		Rainfall    float64 `json:"precipitation"`
		Time        string  `json:"time"`
	} `json:"current"`
	Timezone string `json:"timezone"`
}

// Fetch pulls current conditions for a coordinate
func (s *HTTPWeatherSource) Fetch(ctx context.Context, lat, lon float64) (WeatherObservation, error) {
	q := url.Values{}
	q.Set("latitude", fmt.Sprintf("%.4f", lat))
	q.Set("longitude", fmt.Sprintf("%.4f", lon))
	q.Set("current", "temperature_2m,relative_humidity_2m,precipitation")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return WeatherObservation{}, fmt.Errorf("failed to build weather request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return WeatherObservation{}, fmt.Errorf("weather request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return WeatherObservation{}, fmt.Errorf("weather API returned status %d", resp.StatusCode)
	}

	var body weatherResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return WeatherObservation{}, fmt.Errorf("failed to decode weather response: %w", err)
	}

	ts, err := time.Parse("2006-01-02T15:04", body.Current.Time)
	if err != nil {
		ts = time.Now().UTC()
	}

	return WeatherObservation{
		Temperature:   body.Current.Temperature,
		Humidity:      body.Current.Humidity,
		Rainfall:      body.Current.Rainfall,
		Timestamp:     ts,
		LocationLabel: body.Timezone,
	}, nil
}

// HTTPSoilSource fetches the latest soil-moisture reading from a sensor
// gateway endpoint. An empty URL means no sensor is deployed; every fetch
// then fails with ErrSourceUnavailable and the pipeline estimates instead.
type HTTPSoilSource struct {
	endpoint string
	client   *http.Client
}

// NewHTTPSoilSource creates a soil source against the given endpoint
func NewHTTPSoilSource(endpoint string) *HTTPSoilSource {
	return &HTTPSoilSource{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

type soilResponse struct {
	SoilMoisture float64 `json:"soil_moisture"`
	Timestamp    string  `json:"timestamp"`
}

// Fetch pulls the latest soil-moisture observation
func (s *HTTPSoilSource) Fetch(ctx context.Context) (SoilObservation, error) {
	if s.endpoint == "" {
		return SoilObservation{}, ErrSourceUnavailable
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint, nil)
	if err != nil {
		return SoilObservation{}, fmt.Errorf("failed to build soil request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return SoilObservation{}, fmt.Errorf("soil sensor request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return SoilObservation{}, fmt.Errorf("soil sensor returned status %d", resp.StatusCode)
	}

	var body soilResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return SoilObservation{}, fmt.Errorf("failed to decode soil response: %w", err)
	}

	ts, err := time.Parse(time.RFC3339, body.Timestamp)
	if err != nil {
		ts = time.Now().UTC()
	}

	return SoilObservation{
		SoilMoisture: body.SoilMoisture,
		Timestamp:    ts,
	}, nil
}
