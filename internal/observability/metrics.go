package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds Prometheus collectors for the HTTP surface and the triage pipeline.
type Metrics struct {
	RequestsTotal          *prometheus.CounterVec
	RequestErrorsTotal     *prometheus.CounterVec
	RequestDuration        *prometheus.HistogramVec
	ClassificationsTotal   *prometheus.CounterVec
	ClassifierDuration     prometheus.Histogram
	SubmissionsTotal       *prometheus.CounterVec
	StatusTransitionsTotal *prometheus.CounterVec
	AssignmentsTotal       *prometheus.CounterVec
}

// NewMetrics registers and returns metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "triage_http_requests_total",
			Help: "HTTP requests by route, method and status.",
		}, []string{"path", "method", "status"}),
		RequestErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "triage_http_request_errors_total",
			Help: "HTTP requests that ended in an error envelope, by error code.",
		}, []string{"path", "method", "code"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "triage_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms .. ~10s
		}, []string{"path", "method"}),
		ClassificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "triage_classifications_total",
			Help: "Classifier outcomes; anything but ok fell back or defaulted.",
		}, []string{"result"}),
		ClassifierDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "triage_classifier_duration_seconds",
			Help:    "Wall time of a classification including retries.",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 7), // 0.25s .. 16s
		}),
		SubmissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "triage_submissions_total",
			Help: "Issue submissions by result.",
		}, []string{"result"}),
		StatusTransitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "triage_status_transitions_total",
			Help: "Status transitions by target status.",
		}, []string{"status"}),
		AssignmentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "triage_department_assignments_total",
			Help: "Department assignments by result.",
		}, []string{"result"}),
	}

	reg.MustRegister(
		m.RequestsTotal,
		m.RequestErrorsTotal,
		m.RequestDuration,
		m.ClassificationsTotal,
		m.ClassifierDuration,
		m.SubmissionsTotal,
		m.StatusTransitionsTotal,
		m.AssignmentsTotal,
	)
	return m
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(path, method, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(path, method).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.RequestErrorsTotal.WithLabelValues(path, method, code).Inc()
}

// RecordClassification counts one classifier outcome.
func (m *Metrics) RecordClassification(result string, duration time.Duration) {
	if m == nil {
		return
	}
	m.ClassificationsTotal.WithLabelValues(result).Inc()
	m.ClassifierDuration.Observe(duration.Seconds())
}

// RecordSubmission counts one intake attempt.
func (m *Metrics) RecordSubmission(result string) {
	if m == nil {
		return
	}
	m.SubmissionsTotal.WithLabelValues(result).Inc()
}

// RecordTransition counts one status change.
func (m *Metrics) RecordTransition(status string) {
	if m == nil {
		return
	}
	m.StatusTransitionsTotal.WithLabelValues(status).Inc()
}

// RecordAssignment counts one department assignment attempt.
func (m *Metrics) RecordAssignment(result string) {
	if m == nil {
		return
	}
	m.AssignmentsTotal.WithLabelValues(result).Inc()
}
