package geocoding

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"

	"github.com/UnknownOlympus/hestia/internal/models"
)

// NominatimProvider implements the Provider interface using OpenStreetMap's Nominatim API,
// restricted to South Korea. Usage is limited to 1 request/second for fair use.
type NominatimProvider struct {
	client  HTTPClient
	baseURL string
	log     *slog.Logger
}

type nominatimResponse struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Common errors for Nominatim provider.
var (
	ErrNominatimEmptyResponse = errors.New("nominatim API returned empty response")
	ErrNominatimInvalidCoords = errors.New("nominatim API returned invalid coordinates")
)

const (
	nominatimBaseURL = "https://nominatim.openstreetmap.org/search"
	// https://operations.osmfoundation.org/policies/nominatim/
	nominatimUserAgent = "Hestia-Listing-Service/1.0 (https://github.com/UnknownOlympus/hestia)"
	// maxDroppedWords bounds how many trailing words a fallback query may lose.
	maxDroppedWords = 2
	// minQueryWords keeps fallbacks from collapsing to a bare province name.
	minQueryWords = 2
)

// NewNominatimProvider creates a new Nominatim geocoding provider.
// Uses the public Nominatim API endpoint by default.
func NewNominatimProvider(log *slog.Logger) *NominatimProvider {
	return NewNominatimProviderWithClient(newHTTPClient(), log)
}

// NewNominatimProviderWithClient creates a Nominatim provider with a custom HTTP client.
// Useful for testing with mocked HTTP clients.
func NewNominatimProviderWithClient(client HTTPClient, log *slog.Logger) *NominatimProvider {
	return &NominatimProvider{client: client, baseURL: nominatimBaseURL, log: log}
}

// Geocode converts an address to geographic coordinates using the Nominatim API.
//
// OSM coverage of Korean lot numbers is sparse, so an empty result is retried with the
// trailing words dropped: "서울 강남구 역삼동 123-4", then "서울 강남구 역삼동", then "서울 강남구".
// Any other error stops the chain.
func (np *NominatimProvider) Geocode(ctx context.Context, address string) (*models.Coordinates, error) {
	np.log.DebugContext(ctx, "Geocoding using Nominatim", "address", address)

	queries := addressFallbacks(address)
	for level, query := range queries {
		coords, err := np.search(ctx, query)
		switch {
		case err == nil:
			if level > 0 {
				np.log.InfoContext(ctx, "Geocoded using fallback address",
					"original", address, "fallback", query, "fallback_level", level)
			}
			return coords, nil
		case !errors.Is(err, ErrNominatimEmptyResponse):
			return nil, err
		}
		np.log.DebugContext(ctx, "No results, trying a shorter address", "query", query, "fallback_level", level)
	}

	np.log.WarnContext(ctx, "All address fallbacks exhausted", "address", address, "variations_tried", len(queries))

	return nil, ErrNominatimEmptyResponse
}

// addressFallbacks returns address followed by up to maxDroppedWords shorter variants, never
// shorter than minQueryWords words.
func addressFallbacks(address string) []string {
	words := strings.Fields(address)
	if len(words) == 0 {
		return []string{address}
	}

	variations := []string{strings.Join(words, " ")}
	for dropped := 1; dropped <= maxDroppedWords && len(words)-dropped >= minQueryWords; dropped++ {
		variations = append(variations, strings.Join(words[:len(words)-dropped], " "))
	}

	return variations
}

func (np *NominatimProvider) search(ctx context.Context, query string) (*models.Coordinates, error) {
	var results []nominatimResponse
	err := getJSON(ctx, np.client, np.log, jsonRequest{
		provider: "nominatim",
		baseURL:  np.baseURL,
		params: url.Values{
			"q":               {query},
			"format":          {"json"},
			"limit":           {"1"},
			"countrycodes":    {"kr"},
			"accept-language": {"ko,en"},
		},
		headers: map[string]string{
			"User-Agent":      nominatimUserAgent,
			"Accept-Language": "ko,en",
		},
	}, &results)
	if err != nil {
		return nil, err
	}

	if len(results) == 0 {
		return nil, ErrNominatimEmptyResponse
	}

	return parseCoordinates(results[0].Lat, results[0].Lon, ErrNominatimInvalidCoords)
}
