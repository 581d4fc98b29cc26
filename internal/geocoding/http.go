package geocoding

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/UnknownOlympus/hestia/internal/models"
	"github.com/goccy/go-json"
)

// requestTimeout bounds every outbound geocoding call.
const requestTimeout = 10 * time.Second

// HTTPClient defines the interface for making HTTP requests.
// This allows for easy mocking in tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: requestTimeout}
}

// jsonRequest describes one GET call against a provider API.
type jsonRequest struct {
	provider string
	baseURL  string
	params   url.Values
	headers  map[string]string
}

// getJSON executes req and decodes a 200 response body into out. Any other status is an error
// carrying the response body.
func getJSON(ctx context.Context, client HTTPClient, log *slog.Logger, req jsonRequest, out any) error {
	reqURL, err := url.Parse(req.baseURL)
	if err != nil {
		return fmt.Errorf("failed to parse base URL: %w", err)
	}
	query := reqURL.Query()
	for key, values := range req.params {
		query[key] = values
	}
	reqURL.RawQuery = query.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	for key, value := range req.headers {
		httpReq.Header.Set(key, value)
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to execute geocoding request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		log.ErrorContext(ctx, "Geocoding API error", "provider", req.provider, "status", resp.StatusCode, "body", string(body))
		return fmt.Errorf("%s API returned status %d: %s", req.provider, resp.StatusCode, string(body))
	}

	if err = json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", req.provider, err)
	}

	return nil
}

// parseCoordinates converts the string pair most geocoding APIs return. invalid wraps parse failures.
func parseCoordinates(lat, lng string, invalid error) (*models.Coordinates, error) {
	latitude, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid latitude: %q", invalid, lat)
	}
	longitude, err := strconv.ParseFloat(lng, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid longitude: %q", invalid, lng)
	}

	return &models.Coordinates{Latitude: latitude, Longitude: longitude}, nil
}
