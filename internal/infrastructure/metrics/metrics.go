package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backoffice_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "backoffice_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	// Auditoría
	AuditLogsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backoffice_audit_logs_total",
			Help: "Audit log entries written",
		},
		[]string{"action"}, // CREATE|UPDATE|DELETE
	)
	LivePublishFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "backoffice_audit_publish_failures_total",
			Help: "Audit log entries that could not be published to the live channel",
		},
	)

	// Host de medios
	MediaOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backoffice_media_operations_total",
			Help: "Media host operations",
		},
		[]string{"op", "result"}, // upload|delete, ok|error
	)
	OrphanCleanups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backoffice_media_orphan_cleanups_total",
			Help: "Best-effort deletions of media uploaded by a rolled back operation",
		},
		[]string{"result"},
	)
)

// Handler para el endpoint /metrics.
var Handler = promhttp.Handler

var once sync.Once

// Init registra los colectores en el registry por defecto; es seguro llamarlo varias veces.
func Init() {
	once.Do(func() {
		prometheus.MustRegister(
			RequestsTotal,
			RequestDuration,
			AuditLogsTotal,
			LivePublishFailures,
			MediaOperations,
			OrphanCleanups,
		)
	})
}

// Result etiqueta ok/error según err.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
