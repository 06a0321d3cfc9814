// Package metrics holds the process-wide Prometheus collectors of the sync
// layer.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "chronos"

// Remote call results.
const (
	ResultOK      = "ok"
	ResultAbsent  = "absent"
	ResultDenied  = "denied"
	ResultError   = "error"
	ResultSkipped = "skipped"
)

var (
	remoteCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "remote",
			Name:      "calls_total",
			Help:      "Remote store calls by operation and result",
		},
		[]string{"op", "result"},
	)

	breakerTrips = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "breaker",
			Name:      "trips_total",
			Help:      "Times the remote circuit breaker tripped",
		},
	)

	breakerOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "breaker",
			Name:      "tripped",
			Help:      "1 while remote calls are disabled",
		},
	)

	cacheWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "writes_total",
			Help:      "Local cache blob writes by result",
		},
		[]string{"result"},
	)

	hydratedEntries = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "hydrated_entries_total",
			Help:      "Entries pulled into the local cache by bulk hydration",
		},
	)

	schedulerFlushes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "flushes_total",
			Help:      "Debounced writes by final save status",
		},
		[]string{"status"},
	)

	schedulerCoalesced = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "coalesced_total",
			Help:      "Edits folded into an already pending write",
		},
	)
)

// RemoteCall counts one remote store call.
func RemoteCall(op, result string) {
	remoteCalls.WithLabelValues(op, result).Inc()
}

// BreakerChanged records a breaker trip or reset.
func BreakerChanged(tripped bool) {
	if tripped {
		breakerTrips.Inc()
		breakerOpen.Set(1)
		return
	}
	breakerOpen.Set(0)
}

// CacheWrite counts a local cache write.
func CacheWrite(ok bool) {
	if ok {
		cacheWrites.WithLabelValues(ResultOK).Inc()
		return
	}
	cacheWrites.WithLabelValues(ResultError).Inc()
}

// Hydrated adds n entries pulled by bulk hydration.
func Hydrated(n int) {
	hydratedEntries.Add(float64(n))
}

// Flushed counts a debounced write that finished with status.
func Flushed(status string) {
	schedulerFlushes.WithLabelValues(status).Inc()
}

// Coalesced counts an edit that replaced a pending snapshot.
func Coalesced() {
	schedulerCoalesced.Inc()
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
