package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/UnknownOlympus/hestia/internal/models"
	"github.com/UnknownOlympus/hestia/internal/scheduler"
	"github.com/UnknownOlympus/hestia/internal/sheets"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// failureListLimit caps the journal entries returned by /status.
const failureListLimit = 50

type pinger interface {
	Ping(ctx context.Context) error
}

type statusSource interface {
	SheetSyncStatus() scheduler.Status[sheets.SyncResult]
	GeocodingSyncStatus() scheduler.Status[models.UpdateResult]
	LastDownloadTime() time.Time
}

type failureLister interface {
	ListFailures(ctx context.Context, limit int) ([]models.GeocodeFailure, error)
}

// monitoring groups what the monitoring endpoints read. db and failures are nil without a database.
type monitoring struct {
	core     statusSource
	db       pinger
	failures failureLister
}

type schedulerReport struct {
	Name            string     `json:"name"`
	IsRunning       bool       `json:"is_running"`
	IntervalMinutes float64    `json:"interval_minutes"`
	LastRunTime     *time.Time `json:"last_run_time"`
	RunCount        int        `json:"run_count"`
	NextRunIn       float64    `json:"next_run_in"`
	LastError       string     `json:"last_error,omitempty"`
	LastResult      any        `json:"last_result"`
}

type statusReport struct {
	SheetSync        schedulerReport         `json:"sheet_sync"`
	GeocodingSync    schedulerReport         `json:"geocoding_sync"`
	LastDownloadTime *time.Time              `json:"last_download_time"`
	Failures         []models.GeocodeFailure `json:"geocoding_failures,omitempty"`
}

func newSchedulerReport[T any](status scheduler.Status[T]) schedulerReport {
	report := schedulerReport{
		Name:            status.Name,
		IsRunning:       status.IsRunning,
		IntervalMinutes: status.Interval.Minutes(),
		LastRunTime:     timeOrNil(status.LastRunTime),
		RunCount:        status.RunCount,
		NextRunIn:       status.NextRunIn.Seconds(),
		LastError:       status.LastError,
	}
	if status.LastResult != nil {
		report.LastResult = *status.LastResult
	}

	return report
}

func timeOrNil(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// newMonitoringHandler builds the mux serving /healthz, /metrics and /status.
func newMonitoringHandler(log *slog.Logger, reg *prometheus.Registry, mon monitoring) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(writer http.ResponseWriter, req *http.Request) {
		ctx := req.Context()
		log.DebugContext(ctx, "Performing health checks...")
		status, body := http.StatusOK, "OK"
		if mon.db != nil {
			if err := mon.db.Ping(ctx); err != nil {
				status, body = http.StatusServiceUnavailable, "DB ping failed"
			}
		}
		writer.WriteHeader(status)
		if _, err := writer.Write([]byte(body)); err != nil {
			log.ErrorContext(ctx, "failed to write reply", "error", err)
		}

		log.DebugContext(ctx, "Health checks completed", "status", status)
	})

	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	mux.HandleFunc("/status", func(writer http.ResponseWriter, req *http.Request) {
		ctx := req.Context()
		report := statusReport{
			SheetSync:        newSchedulerReport(mon.core.SheetSyncStatus()),
			GeocodingSync:    newSchedulerReport(mon.core.GeocodingSyncStatus()),
			LastDownloadTime: timeOrNil(mon.core.LastDownloadTime()),
		}
		if mon.failures != nil {
			failures, err := mon.failures.ListFailures(ctx, failureListLimit)
			if err != nil {
				log.WarnContext(ctx, "Failed to list geocoding failures", "error", err)
			}
			report.Failures = failures
		}

		body, err := json.Marshal(report)
		if err != nil {
			log.ErrorContext(ctx, "failed to encode status", "error", err)
			http.Error(writer, "failed to encode status", http.StatusInternalServerError)
			return
		}
		writer.Header().Set("Content-Type", "application/json")
		if _, err = writer.Write(body); err != nil {
			log.ErrorContext(ctx, "failed to write reply", "error", err)
		}
	})

	return mux
}

// startMonitoringServer starts an HTTP server that provides health check, metrics and scheduler
// status endpoints. It listens on the specified port and logs the server's status and any errors
// encountered.
//
// Parameters:
// - ctx: A context.Context for managing cancellation and timeouts.
// - log: A logger for logging server events and errors.
// - reg: A registry with Prometheus collectors.
// - mon: Scheduler state and the optional database handles.
// - port: The port number on which the server will listen.
func startMonitoringServer(
	ctx context.Context,
	log *slog.Logger,
	reg *prometheus.Registry,
	mon monitoring,
	port int,
) {
	log.InfoContext(ctx, "Starting monitoring server", "port", port)
	readTimeout := 5
	writeTimeout := 10
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      newMonitoringHandler(log, reg, mon),
		ReadTimeout:  time.Duration(readTimeout) * time.Second,
		WriteTimeout: time.Duration(writeTimeout) * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Duration(readTimeout)*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.ErrorContext(shutdownCtx, "Monitoring server shutdown failed", "error", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.ErrorContext(ctx, "Monitoring server failed", "error", err)
	}
}
