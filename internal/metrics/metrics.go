package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	SyncRuns = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "airsync_runs_total", Help: "Total sync pipeline runs started"},
	)
	DroppedTicks = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "airsync_dropped_ticks_total", Help: "Timer ticks dropped because a run was already active"},
	)
	RecordsSynced = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "airsync_records_synced_total", Help: "Total records upserted into the mirror"},
		[]string{"entity"},
	)
	RecordsSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "airsync_records_skipped_total", Help: "Total records dropped by validation (missing email, orphaned reference)"},
		[]string{"entity"},
	)
	SyncErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "airsync_errors_total", Help: "Total step and batch failures"},
		[]string{"entity"},
	)
	RunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "airsync_run_duration_seconds",
			Help:    "Full pipeline run duration",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		},
	)
	Running = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "airsync_running", Help: "1 while a sync pipeline is executing"},
	)
	CacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "airsync_cache_hits_total", Help: "Read-through cache hits"},
	)
	CacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "airsync_cache_misses_total", Help: "Read-through cache misses"},
	)
)

func Register() {
	prometheus.MustRegister(
		SyncRuns, DroppedTicks, RecordsSynced, RecordsSkipped, SyncErrors,
		RunDuration, Running, CacheHits, CacheMisses,
	)
}
