// Package metrics provides Prometheus instrumentation for listingdesk.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	enabled bool

	// HTTP metrics
	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec

	// Widget metrics
	listFetchTotal       *prometheus.CounterVec
	publishWorkflowTotal *prometheus.CounterVec
	uploadTotal          *prometheus.CounterVec
	contactCreateTotal   *prometheus.CounterVec
	statusUpdateTotal    *prometheus.CounterVec
	activeSessions       *prometheus.GaugeVec
)

// Init initializes the metrics system.
func Init(enabledFlag bool, svcName string) {
	enabled = enabledFlag
	if !enabled {
		return
	}
	service := prometheus.Labels{"service": svcName}

	// HTTP request counter
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "http_requests_total",
			Help:        "Total number of HTTP requests",
			ConstLabels: service,
		},
		[]string{"method", "path", "status"},
	)

	// HTTP request duration histogram
	httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request latency in seconds",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: service,
		},
		[]string{"method", "path"},
	)

	listFetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "list_fetch_total",
			Help: "Total number of filtered list fetches",
		},
		[]string{"view", "status"},
	)

	publishWorkflowTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "publish_workflow_total",
			Help: "Total number of portal publish workflows by final state",
		},
		[]string{"action", "state", "reason"},
	)

	uploadTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_upload_total",
			Help: "Total number of media files uploaded",
		},
		[]string{"status"},
	)

	contactCreateTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contact_create_total",
			Help: "Total number of contact submissions by outcome",
		},
		[]string{"result"},
	)

	statusUpdateTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listing_status_update_total",
			Help: "Total number of listing sub-status updates",
		},
		[]string{"status"},
	)

	activeSessions = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "widget_sessions_active",
			Help: "Number of live widget sessions",
		},
		[]string{"widget"},
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	if !enabled {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})
	}
	return promhttp.Handler()
}

// Enabled returns whether metrics are enabled.
func Enabled() bool {
	return enabled
}
