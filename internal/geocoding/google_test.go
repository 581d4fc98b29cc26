package geocoding_test

import (
	"log/slog"
	"testing"

	"github.com/UnknownOlympus/hestia/internal/geocoding"
	"github.com/UnknownOlympus/hestia/test/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"googlemaps.github.io/maps"
)

func TestGeocode(t *testing.T) {
	mockClient := mocks.NewGoogleAPIClient(t)
	provider := geocoding.NewGoogleProvider(mockClient, slog.Default())
	ctx := t.Context()

	t.Run("api returns error", func(t *testing.T) {
		address := "없는 곳"
		req := koreanRequest(address)

		mockClient.On("Geocode", ctx, req).Return(nil, assert.AnError).Once()

		_, err := provider.Geocode(ctx, address)

		require.Error(t, err)
		require.ErrorIs(t, err, assert.AnError)
		mockClient.AssertExpectations(t)
	})

	t.Run("api return empty response", func(t *testing.T) {
		address := "없는 곳"
		req := koreanRequest(address)

		mockClient.On("Geocode", ctx, req).Return(nil, nil).Once()

		coords, err := provider.Geocode(ctx, address)

		require.Nil(t, coords)
		require.ErrorIs(t, err, geocoding.ErrEmptyResponse)
		mockClient.AssertExpectations(t)
	})

	t.Run("successful geocoding", func(t *testing.T) {
		address := "서울 강남구 역삼동 737"
		req := koreanRequest(address)
		mockResponse := []maps.GeocodingResult{
			{Geometry: maps.AddressGeometry{Location: maps.LatLng{Lat: 37.50, Lng: 127.03}}},
		}

		mockClient.On("Geocode", ctx, req).Return(mockResponse, nil).Once()

		coords, err := provider.Geocode(ctx, address)

		require.NoError(t, err)
		require.NotNil(t, coords)
		require.InEpsilon(t, 37.50, coords.Latitude, 0.01)
		require.InEpsilon(t, 127.03, coords.Longitude, 0.01)
		mockClient.AssertExpectations(t)
	})

	t.Run("partial match is accepted", func(t *testing.T) {
		address := "서울 강남구 역삼동 99999"
		mockResponse := []maps.GeocodingResult{{
			PartialMatch:     true,
			FormattedAddress: "대한민국 서울특별시 강남구 역삼동",
			Geometry: maps.AddressGeometry{
				Location:     maps.LatLng{Lat: 37.49, Lng: 127.04},
				LocationType: "APPROXIMATE",
			},
		}}

		mockClient.On("Geocode", ctx, koreanRequest(address)).Return(mockResponse, nil).Once()

		coords, err := provider.Geocode(ctx, address)

		require.NoError(t, err)
		require.InEpsilon(t, 37.49, coords.Latitude, 0.01)
	})
}

func koreanRequest(address string) *maps.GeocodingRequest {
	return &maps.GeocodingRequest{
		Address:    address,
		Region:     "kr",
		Language:   "ko",
		Components: map[maps.Component]string{maps.ComponentCountry: "KR"},
	}
}
