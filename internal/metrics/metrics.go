package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Transitions counts committed status changes per entity.
	Transitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nomi",
		Name:      "lifecycle_transitions_total",
		Help:      "Committed status transitions by entity, source and target status.",
	}, []string{"entity", "from", "to"})

	// OperationErrors counts rejected lifecycle operations by error kind.
	OperationErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nomi",
		Name:      "lifecycle_operation_errors_total",
		Help:      "Lifecycle operations that failed, by operation and error kind.",
	}, []string{"operation", "kind"})

	// NotificationFailures counts notifications that could not be delivered.
	NotificationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nomi",
		Name:      "notification_failures_total",
		Help:      "Notifications that failed to reach a sink.",
	}, []string{"type"})

	// ItemCacheLookups counts item cache reads by result (hit, miss, error).
	ItemCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nomi",
		Name:      "item_cache_lookups_total",
		Help:      "Item cache lookups by result.",
	}, []string{"result"})
)

// Transition records one committed status change.
func Transition(entity, from, to string) {
	Transitions.WithLabelValues(entity, from, to).Inc()
}

// OperationError records one failed operation.
func OperationError(operation, kind string) {
	OperationErrors.WithLabelValues(operation, kind).Inc()
}
