package recall

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusObserver implements Observer using Prometheus metrics.
//
// Example:
//
//	observer := recall.NewPrometheusObserver("my_service", prometheus.DefaultRegisterer)
//	fetch, err := recall.NewExpiringCache(rdb, 10*time.Second, getPage, recall.WithObserver(observer))
type PrometheusObserver struct {
	calls             *prometheus.CounterVec
	callErrors        *prometheus.CounterVec
	callDuration      *prometheus.HistogramVec
	cacheHits         prometheus.Counter
	cacheMisses       prometheus.Counter
	cacheCheckLatency prometheus.Histogram
	flushes           *prometheus.CounterVec
}

// NewPrometheusObserver creates a Prometheus observer with the given namespace.
// All metrics will be prefixed with "{namespace}_recall_".
func NewPrometheusObserver(namespace string, registerer prometheus.Registerer) *PrometheusObserver {
	if namespace == "" {
		namespace = "recall"
	}

	calls := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "recall",
			Name:      "calls_total",
			Help:      "Total number of instrumented calls",
		},
		[]string{"identity", "wrapper"},
	)

	callErrors := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "recall",
			Name:      "call_errors_total",
			Help:      "Total number of instrumented calls that returned an error",
		},
		[]string{"identity", "wrapper"},
	)

	callDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "recall",
			Name:      "call_duration_seconds",
			Help:      "Duration of instrumented calls in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"identity", "wrapper"},
	)

	cacheHits := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "recall",
			Name:      "cache_hits_total",
			Help:      "Total number of expiring cache hits",
		},
	)

	cacheMisses := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "recall",
			Name:      "cache_misses_total",
			Help:      "Total number of expiring cache misses",
		},
	)

	cacheCheckLatency := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "recall",
			Name:      "cache_check_latency_seconds",
			Help:      "Latency of cache lookups in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
	)

	flushes := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "recall",
			Name:      "flushes_total",
			Help:      "Total number of store flushes performed by the cache facade",
		},
		[]string{"mode", "status"},
	)

	registerer.MustRegister(
		calls,
		callErrors,
		callDuration,
		cacheHits,
		cacheMisses,
		cacheCheckLatency,
		flushes,
	)

	return &PrometheusObserver{
		calls:             calls,
		callErrors:        callErrors,
		callDuration:      callDuration,
		cacheHits:         cacheHits,
		cacheMisses:       cacheMisses,
		cacheCheckLatency: cacheCheckLatency,
		flushes:           flushes,
	}
}

func (o *PrometheusObserver) OnCall(ctx context.Context, event *CallEvent) {
	o.calls.WithLabelValues(event.Identity, event.Wrapper).Inc()
	o.callDuration.WithLabelValues(event.Identity, event.Wrapper).Observe(event.Duration.Seconds())
	if event.Error != nil {
		o.callErrors.WithLabelValues(event.Identity, event.Wrapper).Inc()
	}
}

func (o *PrometheusObserver) OnCacheCheck(ctx context.Context, event *CacheCheckEvent) {
	// Failed lookups are neither hits nor misses
	if event.Error != nil {
		return
	}
	if event.Hit {
		o.cacheHits.Inc()
	} else {
		o.cacheMisses.Inc()
	}
	o.cacheCheckLatency.Observe(event.Latency.Seconds())
}

func (o *PrometheusObserver) OnFlush(ctx context.Context, event *FlushEvent) {
	status := "success"
	if event.Error != nil {
		status = "error"
	}
	o.flushes.WithLabelValues(event.Mode.String(), status).Inc()
}
