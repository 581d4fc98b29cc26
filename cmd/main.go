package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/UnknownOlympus/hestia/internal/app"
	"github.com/UnknownOlympus/hestia/internal/config"
	"github.com/UnknownOlympus/hestia/internal/coordcache"
	"github.com/UnknownOlympus/hestia/internal/geocoding"
	"github.com/UnknownOlympus/hestia/internal/listing"
	"github.com/UnknownOlympus/hestia/internal/metrics"
	"github.com/UnknownOlympus/hestia/internal/mirror"
	"github.com/UnknownOlympus/hestia/internal/repository"
	"github.com/UnknownOlympus/hestia/internal/service"
	"github.com/UnknownOlympus/hestia/internal/sheets"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Constants for different environment types.
const (
	envLocal = "local"
	envDev   = "development"
	envProd  = "production"
)

// main is the entry point of the application.
func main() {
	// Create a context that will be canceled when an interrupt signal is received.
	// This allows for graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load application configuration.
	cfg := config.MustLoad()

	// Set up the logger based on the environment.
	logger := setupLogger(cfg.Env)

	// Create a separate registry for metrics with exemplar
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.NewMetrics(reg)

	// The failure journal is optional. Without DB_HOST failures are only logged and counted.
	var (
		journal service.FailureJournal
		monitor monitoring
	)
	if cfg.Database.Enabled() {
		dtb, store, err := openJournal(ctx, cfg.Database, logger)
		if err != nil {
			log.Fatalf("Failed to prepare failure journal: %v", err)
		}
		defer dtb.Close()

		journal = store
		monitor.db = dtb
		monitor.failures = store
	} else {
		logger.WarnContext(ctx, "Database is not configured, geocoding failures will not be journaled")
	}

	// Create geocoding provider using factory pattern based on configuration.
	geoProvider, err := geocoding.NewProvider(geocoding.ProviderConfig{
		Type:         geocoding.ProviderType(cfg.Geocoding.ProviderType),
		APIKey:       cfg.Geocoding.APIKey,
		ClientID:     cfg.Geocoding.ClientID,
		ClientSecret: cfg.Geocoding.ClientSecret,
		RateLimit:    max(int(time.Second/cfg.Geocoding.Delay), 1),
		Logger:       logger,
	})
	if err != nil {
		log.Fatalf("Failed to create geocoding provider: %v", err)
	}
	logger.InfoContext(ctx, "Geocoding provider initialized", "type", cfg.Geocoding.ProviderType)

	sheetClient := sheets.NewClient(
		newSheetsAPI(ctx, logger, cfg.Sheets),
		cfg.Sheets.SpreadsheetID,
		cfg.MirrorDir,
		sheets.DefaultSheets,
		logger,
		appMetrics,
	)

	mirrorCache := mirror.NewCache(logger, cfg.CacheDir, appMetrics)
	coordinates := coordcache.NewCache(logger, cfg.MapCachePath(), appMetrics)
	reader := service.NewMirrorListings(mirrorCache, cfg.ListingPath(), listing.NewNormalizer(logger))

	enricher := service.NewEnricher(
		logger,
		reader,
		coordinates,
		geoProvider,
		journal,
		appMetrics,
		service.EnricherConfig{
			ProviderName:  cfg.Geocoding.ProviderType,
			Delay:         cfg.Geocoding.Delay,
			Bounds:        cfg.Geocoding.Bounds,
			AddressPrefix: cfg.Geocoding.AddrPrefix,
		},
	)

	core := app.NewCore(
		logger,
		sheetClient,
		enricher,
		service.NewListingService(logger, reader, coordinates),
		mirrorCache,
		appMetrics,
		app.Config{
			ListingPath:     cfg.ListingPath(),
			SheetInterval:   cfg.Sheets.Interval,
			SheetCooldown:   cfg.Sheets.Cooldown,
			GeocodeInterval: cfg.Geocoding.Interval,
			GeocodeCooldown: cfg.Geocoding.Cooldown,
		},
	)
	monitor.core = core

	// Log that the application has started.
	logger.InfoContext(ctx, "Application started. Press Ctrl+C to stop.")

	// Start the monitoring server in a goroutine to allow main to listen for signals.
	go startMonitoringServer(ctx, logger, reg, monitor, cfg.Port)

	core.Start()

	// Wait for the context to be canceled (e.g., by Ctrl+C).
	<-ctx.Done()

	// Log that a shutdown signal has been received.
	logger.InfoContext(ctx, "Shutdown signal received. Stopping application...")

	core.Stop()

	// Log graceful shutdown completion.
	logger.InfoContext(ctx, "Application stopped gracefully.")
}

// openJournal connects to Postgres and makes sure the failure journal table exists.
func openJournal(
	ctx context.Context,
	cfg config.PostgresConfig,
	log *slog.Logger,
) (*pgxpool.Pool, repository.Interface, error) {
	dtb, err := repository.NewDatabase(ctx, cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to DB: %w", err)
	}

	repo := repository.NewRepository(dtb, log)
	if err = repo.Migrate(ctx); err != nil {
		dtb.Close()
		return nil, nil, fmt.Errorf("failed to migrate DB: %w", err)
	}

	return dtb, repo, nil
}

// newSheetsAPI builds the Google Sheets client from the service account file. When the file is
// missing or invalid every sync fails with that error instead of preventing startup.
func newSheetsAPI(ctx context.Context, log *slog.Logger, cfg config.SheetsConfig) sheets.API {
	if cfg.SpreadsheetID == "" {
		log.WarnContext(ctx, "SPREADSHEET_ID is not configured, sheet sync will fail")
	}

	credentials, err := os.ReadFile(cfg.ServiceAccountFile)
	if err != nil {
		log.WarnContext(ctx, "Service account file is not readable, sheet sync is disabled",
			"path", cfg.ServiceAccountFile, "error", err)
		return sheets.Unavailable(err)
	}

	api, err := sheets.NewGoogleAPI(ctx, credentials)
	if err != nil {
		log.WarnContext(ctx, "Failed to initialize Google Sheets client, sheet sync is disabled", "error", err)
		return sheets.Unavailable(err)
	}

	return api
}

// setupLogger initializes and returns a logger based on the environment provided.
func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelDebug,
				AddSource: true,
			}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelInfo,
				AddSource: false,
			}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:       slog.LevelWarn,
				AddSource:   false,
				ReplaceAttr: dropTime,
			}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:       slog.LevelError,
				AddSource:   false,
				ReplaceAttr: dropTime,
			}),
		)

		log.Error(
			"The env parameter was not specified or was invalid. Logging will be minimal, by default.",
			slog.String("available_envs", "local, development, production"))
	}

	return log
}

func dropTime(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.TimeKey {
		return slog.Attr{}
	}
	return a
}
