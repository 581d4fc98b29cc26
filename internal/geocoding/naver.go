package geocoding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/UnknownOlympus/hestia/internal/models"
)

// NaverGeocodeURL is the NCP Maps geocoding endpoint.
const NaverGeocodeURL = "https://naveropenapi.apigw.ntruss.com/map-geocode/v2/geocode"

// Common errors for the Naver provider.
var (
	ErrMissingCredentials = errors.New("naver maps client id or secret is not configured")
	ErrNaverEmptyResponse = errors.New("naver geocode API returned no addresses")
	ErrNaverStatus        = errors.New("naver geocode API returned non-OK status")
	ErrNaverInvalidCoords = errors.New("naver geocode API returned invalid coordinates")
)

// NaverProvider implements the Provider interface using the Naver Cloud Platform geocoding API.
type NaverProvider struct {
	client       HTTPClient
	baseURL      string
	clientID     string
	clientSecret string
	log          *slog.Logger
}

type naverResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"errorMessage"`
	Addresses    []struct {
		RoadAddress  string `json:"roadAddress"`
		JibunAddress string `json:"jibunAddress"`
		X            string `json:"x"` // longitude
		Y            string `json:"y"` // latitude
	} `json:"addresses"`
}

// NewNaverProvider creates a Naver provider with a 10 second HTTP timeout.
func NewNaverProvider(clientID, clientSecret string, log *slog.Logger) *NaverProvider {
	return NewNaverProviderWithClient(newHTTPClient(), clientID, clientSecret, log)
}

// NewNaverProviderWithClient creates a Naver provider with a custom HTTP client.
func NewNaverProviderWithClient(client HTTPClient, clientID, clientSecret string, log *slog.Logger) *NaverProvider {
	return &NaverProvider{
		client:       client,
		baseURL:      NaverGeocodeURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		log:          log,
	}
}

// Enabled reports whether both credentials are present.
func (np *NaverProvider) Enabled() bool {
	return np.clientID != "" && np.clientSecret != ""
}

// Geocode resolves an address to the first match returned by Naver.
// Without credentials no request is made and ErrMissingCredentials is returned.
func (np *NaverProvider) Geocode(ctx context.Context, address string) (*models.Coordinates, error) {
	if !np.Enabled() {
		return nil, ErrMissingCredentials
	}

	np.log.DebugContext(ctx, "Geocoding using Naver", "address", address)

	var result naverResponse
	err := getJSON(ctx, np.client, np.log, jsonRequest{
		provider: "naver",
		baseURL:  np.baseURL,
		params:   url.Values{"query": {address}, "coordinate": {"latlng"}},
		headers: map[string]string{
			"X-NCP-APIGW-API-KEY-ID": np.clientID,
			"X-NCP-APIGW-API-KEY":    np.clientSecret,
			"Accept":                 "application/json",
		},
	}, &result)
	if err != nil {
		return nil, err
	}

	if result.Status != "OK" {
		return nil, fmt.Errorf("%w: %s %s", ErrNaverStatus, result.Status, result.ErrorMessage)
	}
	if len(result.Addresses) == 0 {
		return nil, ErrNaverEmptyResponse
	}

	first := result.Addresses[0]
	coords, err := parseCoordinates(first.Y, first.X, ErrNaverInvalidCoords)
	if err != nil {
		return nil, err
	}

	np.log.DebugContext(ctx, "Naver found result", "road_address", first.RoadAddress,
		"lat", coords.Latitude, "lng", coords.Longitude)

	return coords, nil
}
