package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SearchesTotal      = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ride_offers", Name: "searches_total", Help: "Place searches issued after debounce"})
	SearchCacheHits    = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ride_offers", Name: "search_cache_hits_total", Help: "Place lookups served from the Redis cache"})
	SearchStaleDropped = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ride_offers", Name: "search_stale_dropped_total", Help: "Search responses discarded for arriving out of order"})

	OffersSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "ride_offers", Name: "offers_submitted_total", Help: "Offers accepted by the API"},
		[]string{"status"},
	)
	OffersCancelled = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ride_offers", Name: "offers_cancelled_total", Help: "Offers cancelled by their driver"})

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "ride_offers", Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ride_offers",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
