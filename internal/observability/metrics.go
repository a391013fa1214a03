package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus registry and the bridge's meters.
type Metrics struct {
	Registry          *prometheus.Registry
	OperationDuration *prometheus.HistogramVec
	OperationTotal    *prometheus.CounterVec
	TransferBytes     *prometheus.CounterVec
	FramesSent        *prometheus.CounterVec
	ErrorsTotal       *prometheus.CounterVec
}

// NewMetrics creates a custom Prometheus registry with the idb meters.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	opDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "idb_operation_duration_seconds",
		Help:    "Duration of companion operations in seconds.",
		Buckets: []float64{.01, .05, .1, .5, 1, 5, 15, 60, 300},
	}, []string{"operation", "status"})

	opTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "idb_operation_total",
		Help: "Total number of companion operations.",
	}, []string{"operation", "status"})

	transferBytes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "idb_transfer_bytes_total",
		Help: "Payload bytes streamed to or from the companion.",
	}, []string{"operation", "direction"})

	framesSent := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "idb_frames_sent_total",
		Help: "Request frames sent on transfer streams.",
	}, []string{"operation", "kind"})

	errorsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "idb_errors_total",
		Help: "Total number of failed operations by error kind.",
	}, []string{"operation", "kind"})

	reg.MustRegister(opDuration, opTotal, transferBytes, framesSent, errorsTotal)

	return &Metrics{
		Registry:          reg,
		OperationDuration: opDuration,
		OperationTotal:    opTotal,
		TransferBytes:     transferBytes,
		FramesSent:        framesSent,
		ErrorsTotal:       errorsTotal,
	}
}
