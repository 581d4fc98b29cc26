package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/UnknownOlympus/hestia/internal/metrics"
	"github.com/UnknownOlympus/hestia/internal/models"
	"github.com/UnknownOlympus/hestia/internal/scheduler"
	"github.com/UnknownOlympus/hestia/internal/sheets"
)

// Scheduler names used in logs, metrics and status output.
const (
	SheetJobName     = "sheet_sync"
	GeocodingJobName = "geocoding_sync"
)

// SheetSyncer mirrors the remote spreadsheet to local files.
type SheetSyncer interface {
	Sync(ctx context.Context) (sheets.SyncResult, error)
	DownloadAll(ctx context.Context) map[string]bool
	LastDownloadTime() time.Time
}

// GeocodingUpdater enriches the coordinate cache.
type GeocodingUpdater interface {
	RunUpdate(ctx context.Context) (models.UpdateResult, error)
	Regeocode(ctx context.Context, address string) (models.UpdateResult, error)
}

// ListingProvider is the read path for normalized listings.
type ListingProvider interface {
	GetListings(ctx context.Context, forceReload bool) ([]models.Listing, int, error)
}

// MirrorClearer drops the parsed snapshot of a mirror file.
type MirrorClearer interface {
	Clear(mirrorPath string) (bool, error)
}

// Config holds the schedules and the hot mirror path.
type Config struct {
	ListingPath     string
	SheetInterval   time.Duration
	SheetCooldown   time.Duration
	GeocodeInterval time.Duration
	GeocodeCooldown time.Duration
}

// Core owns both background schedulers and is the only handle the web layer holds.
type Core struct {
	log         *slog.Logger
	syncer      SheetSyncer
	updater     GeocodingUpdater
	listings    ListingProvider
	mirror      MirrorClearer
	listingPath string

	sheetSync     *scheduler.Scheduler[sheets.SyncResult]
	geocodingSync *scheduler.Scheduler[models.UpdateResult]
}

// NewCore wires the schedulers around syncer and updater. Nothing runs until Start.
func NewCore(
	log *slog.Logger,
	syncer SheetSyncer,
	updater GeocodingUpdater,
	listings ListingProvider,
	mirror MirrorClearer,
	metrics *metrics.Metrics,
	cfg Config,
) *Core {
	return &Core{
		log:         log,
		syncer:      syncer,
		updater:     updater,
		listings:    listings,
		mirror:      mirror,
		listingPath: cfg.ListingPath,
		sheetSync: scheduler.New(
			SheetJobName, cfg.SheetInterval, cfg.SheetCooldown, syncer.Sync, log, metrics,
		),
		geocodingSync: scheduler.New(
			GeocodingJobName, cfg.GeocodeInterval, cfg.GeocodeCooldown, updater.RunUpdate, log, metrics,
		),
	}
}

// Start launches both schedulers.
func (c *Core) Start() {
	c.sheetSync.Start()
	c.geocodingSync.Start()
}

// Stop stops both schedulers. In-flight runs are allowed to finish in the background.
func (c *Core) Stop() {
	c.sheetSync.Stop()
	c.geocodingSync.Stop()
}

// GetListings returns the current listings and their count.
func (c *Core) GetListings(ctx context.Context, forceReload bool) ([]models.Listing, int, error) {
	return c.listings.GetListings(ctx, forceReload)
}

// SheetSyncStatus returns a snapshot of the sheet sync scheduler.
func (c *Core) SheetSyncStatus() scheduler.Status[sheets.SyncResult] {
	return c.sheetSync.Status()
}

// GeocodingSyncStatus returns a snapshot of the geocoding scheduler.
func (c *Core) GeocodingSyncStatus() scheduler.Status[models.UpdateResult] {
	return c.geocodingSync.Status()
}

// ChangeSheetInterval reschedules the sheet sync.
func (c *Core) ChangeSheetInterval(interval time.Duration) error {
	return c.sheetSync.ChangeInterval(interval)
}

// ChangeGeocodingInterval reschedules the geocoding sync.
func (c *Core) ChangeGeocodingInterval(interval time.Duration) error {
	return c.geocodingSync.ChangeInterval(interval)
}

// RunGeocodingNow runs a geocoding pass on the caller's goroutine.
func (c *Core) RunGeocodingNow(ctx context.Context) (models.UpdateResult, error) {
	return c.geocodingSync.RunNow(ctx)
}

// Regeocode refreshes the cached coordinates of one address.
func (c *Core) Regeocode(ctx context.Context, address string) (models.UpdateResult, error) {
	return c.updater.Regeocode(ctx, address)
}

// ForceSheetDownload downloads every sheet immediately and reports whether all of them succeeded.
func (c *Core) ForceSheetDownload(ctx context.Context) bool {
	results := c.syncer.DownloadAll(ctx)

	succeeded := 0
	for _, ok := range results {
		if ok {
			succeeded++
		}
	}
	c.log.InfoContext(ctx, "Forced sheet download finished", "succeeded", succeeded, "total", len(results))

	return len(results) > 0 && succeeded == len(results)
}

// ClearMirrorCache drops the parsed snapshot of the listing mirror. It returns false only when the
// snapshot could not be removed.
func (c *Core) ClearMirrorCache() bool {
	removed, err := c.mirror.Clear(c.listingPath)
	if err != nil {
		c.log.Error("Failed to clear mirror cache", "path", c.listingPath, "error", err)
		return false
	}
	c.log.Info("Mirror cache cleared", "path", c.listingPath, "removed", removed)

	return true
}

// LastDownloadTime is the newest modification time across the mirror files.
func (c *Core) LastDownloadTime() time.Time {
	return c.syncer.LastDownloadTime()
}
