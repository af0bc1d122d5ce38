// Package metrics registers the Prometheus metrics exported by goRawrBooks.
// They describe the backing sources and the RPC surface; the cache itself
// exports no hit/miss statistics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SourceLookups counts lookups that reached a backing source, labelled by
	// source name and outcome ("success", "not_found", "invalid", "error").
	SourceLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rawrbooks_source_lookups_total",
			Help: "Total lookups that reached a backing book source.",
		},
		[]string{"source", "outcome"},
	)

	// SourceLookupDuration observes backing source latency in seconds.
	SourceLookupDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rawrbooks_source_lookup_duration_seconds",
			Help:    "Backing book source lookup duration in seconds.",
			Buckets: []float64{.005, .01, .05, .1, .5, 1, 2.5, 5, 10},
		},
		[]string{"source"},
	)

	// RPCRequests counts handled RPCs labelled by full method and gRPC code.
	RPCRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rawrbooks_rpc_requests_total",
			Help: "Total RPCs handled by the book service.",
		},
		[]string{"method", "code"},
	)

	// RateLimitRejections counts RPCs rejected by rate limiting, per method.
	RateLimitRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rawrbooks_rate_limit_rejections_total",
			Help: "Total RPCs rejected by rate limiting.",
		},
		[]string{"method"},
	)
)
