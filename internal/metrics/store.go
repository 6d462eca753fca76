package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Store Prometheus metrics.
var (
	StoreOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "minicompass",
			Name:      "store_operations_total",
			Help:      "Total number of document store operations",
		},
		[]string{"driver", "op", "status"}, // status: ok / not_found / error
	)

	StoreOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "minicompass",
			Name:      "store_operation_duration_seconds",
			Help:      "Document store operation duration in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"driver", "op"},
	)
)

var registerStoreOnce sync.Once

// RegisterStoreMetrics registers the store metrics on the default registry.
// Later calls are no-ops.
func RegisterStoreMetrics() {
	registerStoreOnce.Do(func() {
		prometheus.MustRegister(StoreOperationsTotal)
		prometheus.MustRegister(StoreOperationDuration)
	})
}
