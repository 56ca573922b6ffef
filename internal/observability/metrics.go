package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	summaryDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "progress_service",
		Subsystem: "analytics",
		Name:      "summary_duration_seconds",
		Help:      "Time spent fetching records and computing a progress summary.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"summary", "result"})

	cacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "progress_service",
		Subsystem: "cache",
		Name:      "lookups_total",
		Help:      "Summary cache lookups grouped by summary and outcome.",
	}, []string{"summary", "outcome"})

	cacheInvalidations = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "progress_service",
		Subsystem: "cache",
		Name:      "invalidations_total",
		Help:      "Number of per-user cache invalidations.",
	})

	datasourceReadGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "progress_service",
		Subsystem: "persistence",
		Name:      "last_read_timestamp_seconds",
		Help:      "Unix timestamp of the most recent successful data source read.",
	})
)

func init() {
	prometheus.MustRegister(summaryDuration, cacheLookups, cacheInvalidations, datasourceReadGauge)
}

// ObserveSummary records how long a summary took to build.
func ObserveSummary(summary string, started time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	summaryDuration.WithLabelValues(summary, result).Observe(time.Since(started).Seconds())
}

// RecordCacheLookup counts a cache hit or miss.
func RecordCacheLookup(summary string, hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	cacheLookups.WithLabelValues(summary, outcome).Inc()
}

// RecordCacheInvalidation counts a per-user invalidation.
func RecordCacheInvalidation() {
	cacheInvalidations.Inc()
}

// RecordDataSourceRead updates the read watermark.
func RecordDataSourceRead(ts time.Time) {
	if ts.IsZero() {
		return
	}
	datasourceReadGauge.Set(float64(ts.Unix()))
}
