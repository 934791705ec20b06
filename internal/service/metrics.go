package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Zereker/skyroute/internal/domain"
)

var (
	// mutationTotal counts registrations and resets by operation and result
	mutationTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skyroute_mutation_total",
		Help: "Total store mutations by operation and result",
	}, []string{"operation", "result"})

	// searchDuration tracks route search latency, cache hits included
	searchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "skyroute_search_duration_seconds",
		Help:    "Route search duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14), // 0.1ms to ~800ms
	}, []string{"result"})

	// searchRoutes tracks the number of routes returned per search
	searchRoutes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "skyroute_search_routes",
		Help:    "Number of routes returned per search",
		Buckets: []float64{0, 1, 2, 5, 10, 50, 100, 1000},
	})

	// cacheLookups counts route cache lookups by outcome
	cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skyroute_route_cache_lookups_total",
		Help: "Route cache lookups by outcome",
	}, []string{"outcome"})
)

// resultLabel maps an error to a bounded label value.
func resultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	if kind := domain.KindOf(err); kind != domain.KindUnknown {
		return string(kind)
	}
	return "error"
}
