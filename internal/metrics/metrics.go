// Package metrics holds the Prometheus collectors for NewsPulse.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	sourceFetches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "newspulse",
		Name:      "source_fetches_total",
		Help:      "Source adapter fetches by source and status",
	}, []string{"source", "status"})

	sourceItems = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "newspulse",
		Name:      "source_items",
		Help:      "Items returned by the last fetch of each source",
	}, []string{"source"})

	sourceDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "newspulse",
		Name:      "source_fetch_duration_seconds",
		Help:      "Time spent fetching a single source",
		Buckets:   prometheus.DefBuckets,
	}, []string{"source"})

	dedupDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "newspulse",
		Name:      "aggregate_duplicates_dropped_total",
		Help:      "Items discarded by title dedup",
	})

	headlinesCache = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "newspulse",
		Name:      "headlines_cache_requests_total",
		Help:      "Top-headlines requests by outcome (hit, miss, bypass, error)",
	}, []string{"outcome"})

	timelineResults = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "newspulse",
		Name:      "timeline_results_total",
		Help:      "Timeline syntheses by result kind",
	}, []string{"kind"})

	digestRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "newspulse",
		Name:      "digests_total",
		Help:      "Per-reader digest outcomes (generated, skipped, failed, delivered)",
	}, []string{"outcome"})

	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "newspulse",
		Name:      "http_requests_total",
		Help:      "API requests by route and status code",
	}, []string{"route", "code"})

	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "newspulse",
		Name:      "http_request_duration_seconds",
		Help:      "API request latency by route",
		Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
	}, []string{"route"})
)

func init() {
	prometheus.MustRegister(
		sourceFetches, sourceItems, sourceDuration,
		dedupDropped, headlinesCache, timelineResults,
		digestRuns, httpRequests, httpDuration,
	)
}

// ObserveSourceFetch records one adapter call.
func ObserveSourceFetch(source string, items int, took time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	sourceFetches.WithLabelValues(source, status).Inc()
	sourceItems.WithLabelValues(source).Set(float64(items))
	sourceDuration.WithLabelValues(source).Observe(took.Seconds())
}

// AddDuplicatesDropped counts items removed by dedup.
func AddDuplicatesDropped(n int) {
	if n > 0 {
		dedupDropped.Add(float64(n))
	}
}

// ObserveHeadlines records a top-headlines cache outcome.
func ObserveHeadlines(outcome string) {
	headlinesCache.WithLabelValues(outcome).Inc()
}

// ObserveTimeline records whether a timeline was parsed or built by fallback.
func ObserveTimeline(kind string) {
	timelineResults.WithLabelValues(kind).Inc()
}

// AddDigests counts n per-reader digest outcomes.
func AddDigests(outcome string, n int) {
	if n > 0 {
		digestRuns.WithLabelValues(outcome).Add(float64(n))
	}
}

// ObserveHTTP records one API request. route is the mux pattern, not the
// raw path.
func ObserveHTTP(route string, code int, took time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	httpDuration.WithLabelValues(route).Observe(took.Seconds())
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
