// Package metrics exposes the Prometheus instrumentation for the
// service, scraped at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ItineraryGenerations counts LLM generation attempts by outcome
	// (success, error).
	ItineraryGenerations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "planviaje_itinerary_generations_total",
		Help: "Itinerary generation attempts by outcome.",
	}, []string{"outcome"})

	// GenerationLatency observes LLM round-trip latency in seconds.
	GenerationLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "planviaje_generation_latency_seconds",
		Help:    "LLM generation round-trip latency.",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 8),
	})

	// ExpiryNotifications counts notifier outcomes per link.
	ExpiryNotifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "planviaje_expiry_notifications_total",
		Help: "Link-expiry notifier per-link outcomes.",
	}, []string{"status"})

	// PhotoCacheLookups counts photo cache gate decisions.
	PhotoCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "planviaje_photo_cache_lookups_total",
		Help: "Photo cache lookups by result (hit, refetch, miss, error).",
	}, []string{"result"})
)
