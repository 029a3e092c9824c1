package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "musicsearch",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests by method, path and status code.",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "musicsearch",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds.",
		Buckets:   []float64{0.05, 0.1, 0.3, 0.5, 1, 2, 5, 10, 20},
	}, []string{"method", "path"})

	ProviderRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "musicsearch",
		Name:      "provider_requests_total",
		Help:      "Total requests to music providers by provider name and result status.",
	}, []string{"provider", "status"})

	ProviderRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "musicsearch",
		Name:      "provider_request_duration_seconds",
		Help:      "Music provider request duration in seconds.",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 20, 30},
	}, []string{"provider"})

	ProviderAvailable = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "musicsearch",
		Name:      "provider_available",
		Help:      "Whether a provider is available (1) or blocked by circuit breaker (0).",
	}, []string{"provider"})

	DuplicatesDroppedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "musicsearch",
		Name:      "duplicates_dropped_total",
		Help:      "Total near-duplicate tracks dropped while merging provider results.",
	})

	SessionHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "musicsearch",
		Name:      "session_hits_total",
		Help:      "Total session store reads that found a live session.",
	})

	SessionMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "musicsearch",
		Name:      "session_misses_total",
		Help:      "Total session store reads with no live session.",
	})

	SessionsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "musicsearch",
		Name:      "sessions_active",
		Help:      "Search sessions currently held in the in-memory store.",
	})

	AudioProxyBytesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "musicsearch",
		Name:      "audio_proxy_bytes_total",
		Help:      "Total audio bytes streamed through the proxy endpoint.",
	})
)

func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		ProviderRequestsTotal,
		ProviderRequestDuration,
		ProviderAvailable,
		DuplicatesDroppedTotal,
		SessionHitsTotal,
		SessionMissesTotal,
		SessionsActive,
		AudioProxyBytesTotal,
	)
}
