// Package metrics exposes the portal's Prometheus counters.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	// MetricPageViews counts rendered pages and API reads by page.
	MetricPageViews = "dmp_page_views_total"
	// MetricGateDenials counts requests turned away by an access gate.
	MetricGateDenials = "dmp_gate_denials_total"
	// MetricFileUploads counts simulated file transfers by outcome.
	MetricFileUploads = "dmp_file_uploads_total"
	// MetricSubmissions counts completed form submissions by form.
	MetricSubmissions = "dmp_submissions_total"
	// MetricSessions tracks live sessions.
	MetricSessions = "dmp_sessions"
)

// Registry holds every portal collector plus the Go runtime collectors.
var Registry = prometheus.NewRegistry()

var (
	pageViews = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricPageViews,
			Help: "Total number of page views by page and role",
		},
		[]string{"page", "role"},
	)

	gateDenials = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricGateDenials,
			Help: "Total number of access gate denials by page and role",
		},
		[]string{"page", "role"},
	)

	fileUploads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricFileUploads,
			Help: "Total number of simulated file transfers by final status",
		},
		[]string{"status"},
	)

	submissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricSubmissions,
			Help: "Total number of completed submissions by form and outcome",
		},
		[]string{"form", "outcome"},
	)

	sessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: MetricSessions,
			Help: "Number of live portal sessions",
		},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		pageViews,
		gateDenials,
		fileUploads,
		submissions,
		sessions,
	)
}

// PageView records a view of page by role.
func PageView(page, role string) {
	pageViews.WithLabelValues(page, role).Inc()
}

// GateDenied records a denied request.
func GateDenied(page, role string) {
	gateDenials.WithLabelValues(page, role).Inc()
}

// FileUpload records the final status of a simulated transfer.
func FileUpload(status string) {
	fileUploads.WithLabelValues(status).Inc()
}

// Submission records a finished form submission.
func Submission(form, outcome string) {
	submissions.WithLabelValues(form, outcome).Inc()
}

// SetSessions sets the live session gauge.
func SetSessions(n int) {
	sessions.Set(float64(n))
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}
