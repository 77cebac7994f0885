// Package metrics exposes Prometheus collectors for the resolution
// pipeline. Everything is registered on the default registry and served
// from /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ResolvesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tunely_catalog_resolves_total",
			Help: "Catalog resolve attempts by status",
		},
		[]string{"status"},
	)

	CacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tunely_audio_cache_hits_total",
			Help: "Audio URL cache hits",
		},
	)

	CacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tunely_audio_cache_misses_total",
			Help: "Audio URL cache misses",
		},
	)

	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tunely_audio_cache_entries",
			Help: "Physically stored audio cache entries",
		},
	)

	ExtractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tunely_extractions_total",
			Help: "Audio URL extractions by status",
		},
		[]string{"status"},
	)

	ExtractionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tunely_extraction_duration_seconds",
			Help:    "Time spent extracting direct audio URLs",
			Buckets: []float64{1, 2.5, 5, 10, 15, 20, 30, 45, 60},
		},
	)

	RoomClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tunely_room_clients",
			Help: "Connected listening-room websocket clients",
		},
	)
)
