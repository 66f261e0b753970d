package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "am43"

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"node", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "method", "path", "status"},
	)
	codecOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "codec",
			Name:      "operations_total",
			Help:      "Envelope encode and decode operations.",
		},
		[]string{"op", "direction", "type", "result"},
	)
	codecBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "codec",
			Name:      "envelope_bytes",
			Help:      "Size of envelopes handled by the codec.",
			Buckets:   []float64{5, 8, 12, 16, 24, 32, 64, 128, 260},
		},
		[]string{"op"},
	)
	confirmations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "codec",
			Name:      "confirmations_total",
			Help:      "Acknowledgements built in answer to decoded messages.",
		},
		[]string{"type", "success"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, codecOperations, codecBytes, confirmations)
	})
}

func RecordHTTPRequest(node, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(node, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(node, method, path, statusLabel).Observe(duration.Seconds())
}

// RecordCodec counts one codec call. result is "ok" or an error kind name;
// size is skipped when zero.
func RecordCodec(op, direction, msgType, result string, size int) {
	RegisterMetrics()
	codecOperations.WithLabelValues(op, direction, msgType, result).Inc()
	if size > 0 {
		codecBytes.WithLabelValues(op).Observe(float64(size))
	}
}

func RecordConfirmation(msgType string, success bool) {
	RegisterMetrics()
	confirmations.WithLabelValues(msgType, strconv.FormatBool(success)).Inc()
}
