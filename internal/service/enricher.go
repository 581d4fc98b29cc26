package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/UnknownOlympus/hestia/internal/coordcache"
	"github.com/UnknownOlympus/hestia/internal/geocoding"
	"github.com/UnknownOlympus/hestia/internal/metrics"
	"github.com/UnknownOlympus/hestia/internal/models"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// ErrOutOfBounds is returned when a geocoded point lies outside the service region.
var ErrOutOfBounds = errors.New("geocoded coordinates are outside the service region")

// CoordinateStore is the persisted coordinate cache written by the enricher.
type CoordinateStore interface {
	CoordinateLoader
	Merge(ctx context.Context, entries map[string]models.Coordinates) (coordcache.MergeResult, error)
}

// FailureJournal records addresses the provider could not resolve.
type FailureJournal interface {
	RecordFailure(ctx context.Context, address, reason string) error
	ClearFailure(ctx context.Context, address string) error
}

// EnricherConfig tunes an Enricher.
type EnricherConfig struct {
	ProviderName  string             // Provider name for metrics labeling
	Delay         time.Duration      // Minimum spacing between provider calls
	Bounds        models.BoundingBox // Accepted region for geocoded points
	AddressPrefix string             // Prepended to the provider query, never to the cache key
}

// Enricher geocodes the addresses of active listings that are not yet in the coordinate cache.
type Enricher struct {
	log      *slog.Logger
	listings ListingReader
	store    CoordinateStore
	provider geocoding.Provider
	journal  FailureJournal
	metrics  *metrics.Metrics
	cfg      EnricherConfig
	limiter  *rate.Limiter
	group    singleflight.Group
}

// NewEnricher creates an Enricher. journal may be nil.
func NewEnricher(
	log *slog.Logger,
	listings ListingReader,
	store CoordinateStore,
	provider geocoding.Provider,
	journal FailureJournal,
	metrics *metrics.Metrics,
	cfg EnricherConfig,
) *Enricher {
	limit := rate.Inf
	if cfg.Delay > 0 {
		limit = rate.Every(cfg.Delay)
	}

	return &Enricher{
		log:      log,
		listings: listings,
		store:    store,
		provider: provider,
		journal:  journal,
		metrics:  metrics,
		cfg:      cfg,
		limiter:  rate.NewLimiter(limit, 1),
	}
}

// RunUpdate geocodes every active address missing from the coordinate cache and merges the
// successes. Cached addresses are never re-geocoded and Updated stays zero. Rows that were on
// disk but unreadable are geocoded again and count as New. Concurrent calls share a single pass.
func (e *Enricher) RunUpdate(ctx context.Context) (models.UpdateResult, error) {
	return e.share(ctx, "update", e.runUpdate)
}

// share runs pass once per key for all concurrent callers. The pass is detached from every
// caller's cancellation: a caller whose ctx ends stops waiting and gets ctx.Err(), while the
// pass finishes for the callers still waiting.
func (e *Enricher) share(
	ctx context.Context,
	key string,
	pass func(ctx context.Context) (models.UpdateResult, error),
) (models.UpdateResult, error) {
	passCtx := context.WithoutCancel(ctx)
	results := e.group.DoChan(key, func() (any, error) {
		return pass(passCtx)
	})

	select {
	case res := <-results:
		if res.Shared {
			e.log.DebugContext(ctx, "Joined a geocoding pass already in progress", "pass", key)
		}
		result, _ := res.Val.(models.UpdateResult)
		return result, res.Err
	case <-ctx.Done():
		e.log.WarnContext(ctx, "Stopped waiting for geocoding pass, it keeps running", "pass", key)
		return models.UpdateResult{}, ctx.Err()
	}
}

func (e *Enricher) runUpdate(ctx context.Context) (models.UpdateResult, error) {
	var result models.UpdateResult

	listings, err := e.listings.ReadListings(ctx, false)
	if err != nil {
		return result, err
	}
	addresses := ActiveAddresses(listings)
	result.Total = len(addresses)

	cached, err := e.store.Load(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to load coordinate cache: %w", err)
	}

	candidates := make([]string, 0, len(addresses))
	for _, address := range addresses {
		if _, ok := cached[address]; !ok {
			candidates = append(candidates, address)
		}
	}
	if len(candidates) == 0 {
		e.log.InfoContext(ctx, "No new addresses to geocode", "total", result.Total)
		return result, nil
	}

	e.log.InfoContext(ctx, "Geocoding new addresses", "candidates", len(candidates), "total", result.Total)

	found := make(map[string]models.Coordinates, len(candidates))
	for idx, address := range candidates {
		if err = e.limiter.Wait(ctx); err != nil {
			result.Failed += len(candidates) - idx
			e.log.WarnContext(ctx, "Geocoding pass interrupted", "remaining", len(candidates)-idx, "error", err)
			break
		}

		point, errGeo := e.geocode(ctx, address)
		if errGeo != nil {
			result.Failed++
			continue
		}
		found[address] = *point
	}

	if len(found) > 0 {
		merged, errMerge := e.store.Merge(ctx, found)
		if errMerge != nil {
			return result, fmt.Errorf("failed to merge geocoded addresses: %w", errMerge)
		}
		// Rows rewritten here were unreadable on load, so they count as new.
		result.New = merged.Added + merged.Updated
	}

	e.log.InfoContext(ctx, "Geocoding pass finished",
		"total", result.Total, "new", result.New, "failed", result.Failed)

	return result, nil
}

// Regeocode geocodes one address and overwrites its cache entry, whether or not it was cached.
func (e *Enricher) Regeocode(ctx context.Context, address string) (models.UpdateResult, error) {
	address = strings.TrimSpace(address)

	return e.share(ctx, "regeocode:"+address, func(ctx context.Context) (models.UpdateResult, error) {
		result := models.UpdateResult{Total: 1}

		if err := e.limiter.Wait(ctx); err != nil {
			result.Failed = 1
			return result, err
		}
		point, err := e.geocode(ctx, address)
		if err != nil {
			result.Failed = 1
			return result, err
		}

		merged, err := e.store.Merge(ctx, map[string]models.Coordinates{address: *point})
		if err != nil {
			return result, fmt.Errorf("failed to merge geocoded address: %w", err)
		}
		result.New, result.Updated = merged.Added, merged.Updated

		return result, nil
	})
}

// geocode resolves one address and applies the bounding box. Failures are logged, counted and
// journaled here.
func (e *Enricher) geocode(ctx context.Context, address string) (*models.Coordinates, error) {
	start := time.Now()
	point, err := e.provider.Geocode(ctx, e.cfg.AddressPrefix+address)
	e.metrics.RequestSeconds.WithLabelValues(e.cfg.ProviderName).Observe(time.Since(start).Seconds())

	if err == nil && point == nil {
		err = geocoding.ErrEmptyResponse
	}
	if err != nil {
		e.metrics.APIErrors.Inc()
	} else if !e.cfg.Bounds.Contains(*point) {
		err = fmt.Errorf("%w: lat=%f lng=%f", ErrOutOfBounds, point.Latitude, point.Longitude)
	}

	if err != nil {
		e.metrics.AddressesProcessed.WithLabelValues("failure").Inc()
		e.log.WarnContext(ctx, "Failed to geocode address", "address", address, "error", err)
		e.journalFailure(ctx, address, err)
		return nil, err
	}

	e.metrics.AddressesProcessed.WithLabelValues("success").Inc()
	e.log.DebugContext(ctx, "Address geocoded", "address", address, "lat", point.Latitude, "lng", point.Longitude)
	if e.journal != nil {
		if errJournal := e.journal.ClearFailure(ctx, address); errJournal != nil {
			e.log.ErrorContext(ctx, "Could not clear geocoding failure", "address", address, "error", errJournal)
		}
	}

	return point, nil
}

func (e *Enricher) journalFailure(ctx context.Context, address string, cause error) {
	if e.journal == nil {
		return
	}
	if err := e.journal.RecordFailure(ctx, address, cause.Error()); err != nil {
		e.log.ErrorContext(ctx, "Could not record geocoding failure", "address", address, "error", err)
	}
}
