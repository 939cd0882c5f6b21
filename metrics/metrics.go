// Package metrics exposes Prometheus collectors for action dispatch,
// action failure, work queue depth, and live entity population.
// Grounded on the Namespace/Subsystem/Name collector shape used
// throughout the pack's own service-layer metrics packages.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every collector this package registers. Callers
// that already run their own prometheus.Registry can register these
// collectors there instead by calling MustRegisterOn.
var Registry = prometheus.NewRegistry()

var (
	actionsDispatched = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jalse",
			Subsystem: "actions",
			Name:      "dispatched_total",
			Help:      "Total number of action performs dispatched, by engine backing.",
		},
		[]string{"engine"},
	)

	actionsFailed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jalse",
			Subsystem: "actions",
			Name:      "failed_total",
			Help:      "Total number of action performs that returned a non-cancellation error, by engine backing.",
		},
		[]string{"engine"},
	)

	workQueueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "jalse",
			Subsystem: "engine",
			Name:      "work_queue_depth",
			Help:      "Current number of waiting action contexts, by engine backing.",
		},
		[]string{"engine"},
	)

	entitiesAlive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "jalse",
			Subsystem: "entity",
			Name:      "entities_alive",
			Help:      "Current number of live entities across all tracked factories.",
		},
	)
)

func init() {
	Registry.MustRegister(actionsDispatched, actionsFailed, workQueueDepth, entitiesAlive)
}

// MustRegisterOn registers every collector this package owns onto reg
// as well, for callers that want them folded into a process-wide
// registry rather than Registry alone.
func MustRegisterOn(reg prometheus.Registerer) {
	reg.MustRegister(actionsDispatched, actionsFailed, workQueueDepth, entitiesAlive)
}

// Handler returns an http.Handler serving Registry in the Prometheus
// exposition format, for mounting at a path such as "/metrics".
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
