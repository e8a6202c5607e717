// AngelaMos | 2026
// metrics.go

package metrics

import (
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	OutboxTasks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outbox_tasks_total",
			Help: "Background tasks finished by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	OutboxQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "outbox_queue_depth",
			Help: "Background tasks waiting for a worker",
		},
	)
)

const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
	OutcomeDropped   = "dropped"
	OutcomeSkipped   = "skipped"
)

var uuidSegment = regexp.MustCompile(
	`/[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}(/|$)`,
)

func init() {
	prometheus.MustRegister(RequestDuration, RequestTotal, OutboxTasks, OutboxQueueDepth)
}

// NormalizePath replaces uuid segments with {id}.
func NormalizePath(path string) string {
	return uuidSegment.ReplaceAllString(path, "/{id}$1")
}

func RecordRequest(method, path string, statusCode int, elapsed time.Duration) {
	path = NormalizePath(path)
	status := strconv.Itoa(statusCode)
	RequestDuration.WithLabelValues(method, path, status).Observe(elapsed.Seconds())
	RequestTotal.WithLabelValues(method, path, status).Inc()
}

func RecordTask(kind, outcome string) {
	OutboxTasks.WithLabelValues(kind, outcome).Inc()
}

func SetQueueDepth(n int) {
	OutboxQueueDepth.Set(float64(n))
}

func Handler() http.Handler {
	return promhttp.Handler()
}
