package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/UnknownOlympus/hestia/internal/listing"
	"github.com/UnknownOlympus/hestia/internal/models"
)

// RowReader returns the raw rows of a mirror file, header first.
type RowReader interface {
	ReadRows(ctx context.Context, mirrorPath string, forceReload bool) ([][]string, error)
}

// ListingReader returns the normalized listings of the hot mirror.
type ListingReader interface {
	ReadListings(ctx context.Context, forceReload bool) ([]models.Listing, error)
}

// CoordinateLoader returns the persisted address to coordinate mapping.
type CoordinateLoader interface {
	Load(ctx context.Context) (map[string]models.Coordinates, error)
}

// MirrorListings normalizes the rows of one mirror file.
type MirrorListings struct {
	rows       RowReader
	path       string
	normalizer *listing.Normalizer
}

// NewMirrorListings creates a ListingReader over the mirror at path.
func NewMirrorListings(rows RowReader, path string, normalizer *listing.Normalizer) *MirrorListings {
	return &MirrorListings{rows: rows, path: path, normalizer: normalizer}
}

// ReadListings reads the mirror and normalizes every row, dropping rows without an address.
func (m *MirrorListings) ReadListings(ctx context.Context, forceReload bool) ([]models.Listing, error) {
	rows, err := m.rows.ReadRows(ctx, m.path, forceReload)
	if err != nil {
		return nil, fmt.Errorf("failed to read listings: %w", err)
	}

	return m.normalizer.NormalizeAll(rows), nil
}

// ListingService is the read path consumed by the web layer.
type ListingService struct {
	log    *slog.Logger
	reader ListingReader
	coords CoordinateLoader
}

// NewListingService creates a ListingService.
func NewListingService(log *slog.Logger, reader ListingReader, coords CoordinateLoader) *ListingService {
	return &ListingService{log: log, reader: reader, coords: coords}
}

// GetListings returns the normalized listings and their count. Active listings whose address is
// in the coordinate cache carry coordinates; every other listing has none. A coordinate cache
// that cannot be read only drops the coordinates.
func (s *ListingService) GetListings(ctx context.Context, forceReload bool) ([]models.Listing, int, error) {
	listings, err := s.reader.ReadListings(ctx, forceReload)
	if err != nil {
		return nil, 0, err
	}

	coords, err := s.coords.Load(ctx)
	if err != nil {
		s.log.WarnContext(ctx, "Coordinate cache unavailable, serving listings without coordinates", "error", err)
		coords = nil
	}

	attached := 0
	for idx := range listings {
		listings[idx].Coords = nil
		if !listing.IsActive(listings[idx].Status) {
			continue
		}
		if point, ok := coords[listings[idx].Address]; ok {
			listings[idx].Coords = &point
			attached++
		}
	}

	s.log.DebugContext(ctx, "Listings served", "total", len(listings), "with_coords", attached)

	return listings, len(listings), nil
}

// ActiveAddresses returns the distinct addresses of active listings in first-seen order.
func ActiveAddresses(listings []models.Listing) []string {
	seen := make(map[string]struct{}, len(listings))
	addresses := make([]string, 0, len(listings))
	for _, item := range listings {
		if !listing.IsActive(item.Status) || item.Address == "" {
			continue
		}
		if _, ok := seen[item.Address]; ok {
			continue
		}
		seen[item.Address] = struct{}{}
		addresses = append(addresses, item.Address)
	}

	return addresses
}
