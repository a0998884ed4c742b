package facegrab

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for acquisition runs.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Registry        *prometheus.Registry
	RunsTotal       *prometheus.CounterVec
	PagesTotal      prometheus.Counter
	CandidatesTotal *prometheus.CounterVec
	AcceptedTotal   prometheus.Counter
	FetchDuration   prometheus.Histogram
	ErrorsTotal     *prometheus.CounterVec
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	runs := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "facegrab_runs_total",
			Help: "Completed acquisition runs by stop reason.",
		},
		[]string{"stop"},
	)
	pages := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "facegrab_pages_total",
			Help: "Search result pages requested.",
		},
	)
	candidates := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "facegrab_candidates_total",
			Help: "Candidates processed by verdict (accepted or rejection reason).",
		},
		[]string{"verdict"},
	)
	accepted := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "facegrab_accepted_total",
			Help: "Images written to disk.",
		},
	)
	fetchDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "facegrab_fetch_duration_seconds",
			Help:    "Candidate download latency.",
			Buckets: prometheus.DefBuckets,
		},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "facegrab_errors_total",
			Help: "Errors by type.",
		},
		[]string{"error_type"},
	)

	registry.MustRegister(runs, pages, candidates, accepted, fetchDuration, errorsTotal)

	return &Metrics{
		Registry:        registry,
		RunsTotal:       runs,
		PagesTotal:      pages,
		CandidatesTotal: candidates,
		AcceptedTotal:   accepted,
		FetchDuration:   fetchDuration,
		ErrorsTotal:     errorsTotal,
	}
}

// IncRun counts a finished run.
func (m *Metrics) IncRun(stop StopReason) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(string(stop)).Inc()
}

// IncPage counts a search page request.
func (m *Metrics) IncPage() {
	if m == nil {
		return
	}
	m.PagesTotal.Inc()
}

// IncAccepted counts an accepted candidate.
func (m *Metrics) IncAccepted() {
	if m == nil {
		return
	}
	m.CandidatesTotal.WithLabelValues("accepted").Inc()
	m.AcceptedTotal.Inc()
}

// IncRejected counts a rejected candidate.
func (m *Metrics) IncRejected(reason Reason) {
	if m == nil {
		return
	}
	m.CandidatesTotal.WithLabelValues(string(reason)).Inc()
}

// ObserveFetch records a download duration.
func (m *Metrics) ObserveFetch(d time.Duration) {
	if m == nil {
		return
	}
	m.FetchDuration.Observe(d.Seconds())
}

// IncError counts err under its ErrorTypeLabel.
func (m *Metrics) IncError(err error) {
	if m == nil || err == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(ErrorTypeLabel(err)).Inc()
}
