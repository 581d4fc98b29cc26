package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	AddressesProcessed *prometheus.CounterVec
	APIErrors          prometheus.Counter
	RequestSeconds     *prometheus.HistogramVec
	CacheReads         *prometheus.CounterVec
	SheetDownloads     *prometheus.CounterVec
	SchedulerRuns      *prometheus.CounterVec
	CoordinateEntries  prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		AddressesProcessed: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "geocoding_addresses_processed_total",
			Help: "Total number of addresses sent to the geocoding provider, by outcome.",
		}, []string{"status"}),
		APIErrors: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "geocoding_provider_api_errors_total",
			Help: "Total number of errors received from the geocoding provider API.",
		}),
		RequestSeconds: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "geocoding_provider_request_duration_seconds",
			Help:    "Duration of requests to the geocoding provider API.",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),
		CacheReads: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "mirror_cache_reads_total",
			Help: "Total number of mirror cache reads, by result (hit, miss, forced).",
		}, []string{"result"}),
		SheetDownloads: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "sheet_downloads_total",
			Help: "Total number of remote sheet downloads, by sheet and status.",
		}, []string{"sheet", "status"}),
		SchedulerRuns: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "scheduler_runs_total",
			Help: "Total number of scheduled job executions, by job and status.",
		}, []string{"job", "status"}),
		CoordinateEntries: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "coordinate_cache_entries",
			Help: "Number of valid entries in the coordinate cache after the last load.",
		}),
	}
}
