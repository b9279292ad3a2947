package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Render outcomes used as the result label.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	OccurrencesCreated prometheus.Counter
	ReportsRendered    *prometheus.CounterVec
	RenderDuration     prometheus.Histogram
	Exports            *prometheus.CounterVec
}

// New creates the metrics and registers them with reg. A nil reg uses the
// default registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		OccurrencesCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "urbfisc_occurrences_created_total",
			Help: "Total number of occurrences registered",
		}),
		ReportsRendered: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "urbfisc_reports_rendered_total",
			Help: "Service orders rendered, by result",
		}, []string{"result"}),
		RenderDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "urbfisc_report_render_seconds",
			Help:    "Time spent laying out a service order",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1},
		}),
		Exports: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "urbfisc_exports_total",
			Help: "Spreadsheet exports served, by format",
		}, []string{"format"}),
	}
}

// IncrementOccurrencesCreated increments the created counter by 1
func (m *Metrics) IncrementOccurrencesCreated() {
	m.OccurrencesCreated.Inc()
}

// ObserveRender records one render attempt.
func (m *Metrics) ObserveRender(ok bool, elapsed time.Duration) {
	result := ResultOK
	if !ok {
		result = ResultError
	}
	m.ReportsRendered.WithLabelValues(result).Inc()
	m.RenderDuration.Observe(elapsed.Seconds())
}

// IncrementExports counts one export in the given format ("xlsx", "csv").
func (m *Metrics) IncrementExports(format string) {
	m.Exports.WithLabelValues(format).Inc()
}
