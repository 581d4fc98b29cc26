package geocoding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/UnknownOlympus/hestia/internal/models"
	"googlemaps.github.io/maps"
)

// GoogleProvider is a struct that holds the client for Google Maps API
// and a logger for logging purposes. It is used to interact with the
// Google Maps geocoding services.
type GoogleProvider struct {
	client GoogleAPIClient // client is the Google Maps API client
	log    *slog.Logger    // log is the logger for logging operations
}

type GoogleAPIClient interface {
	Geocode(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
}

const (
	googleRegion   = "kr"
	googleLanguage = "ko"
	googleCountry  = "KR"
)

// ErrEmptyResponse is returned when the Google Maps API responds with an empty result.
var ErrEmptyResponse = errors.New("get empty response from Google Maps API")

// NewGoogleProvider initializes a new GoogleProvider around an existing Maps client.
func NewGoogleProvider(client GoogleAPIClient, log *slog.Logger) *GoogleProvider {
	return &GoogleProvider{client: client, log: log}
}

// Geocode returns the coordinates of the first Google Maps result for address.
// Results are restricted to South Korea and requested in Korean. Partial matches are accepted
// and logged.
func (gp *GoogleProvider) Geocode(ctx context.Context, address string) (*models.Coordinates, error) {
	gp.log.DebugContext(ctx, "Geocoding using Google Maps", "address", address)

	req := newGoogleRequest(address)
	geocodeResponse, err := gp.client.Geocode(ctx, &req)
	if err != nil {
		return nil, fmt.Errorf("failed to geocode address: %w", err)
	}

	if len(geocodeResponse) == 0 {
		return nil, ErrEmptyResponse
	}
	best := geocodeResponse[0]
	if best.PartialMatch {
		gp.log.DebugContext(ctx, "Google returned a partial match", "address", address,
			"formatted_address", best.FormattedAddress, "location_type", best.Geometry.LocationType)
	}
	coords := best.Geometry.Location

	return &models.Coordinates{Longitude: coords.Lng, Latitude: coords.Lat}, nil
}

func newGoogleRequest(address string) maps.GeocodingRequest {
	return maps.GeocodingRequest{
		Address:    address,
		Region:     googleRegion,
		Language:   googleLanguage,
		Components: map[maps.Component]string{maps.ComponentCountry: googleCountry},
	}
}
