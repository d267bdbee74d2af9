// Package metrics exposes Prometheus instruments for the analyser.
//
// A Metrics value owns its own registry so tests and multiple servers in one
// process do not collide. All methods are safe on a nil *Metrics.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JonMunkholm/moderation/internal/core"
)

const namespace = "moderation"

// Analysis kinds.
const (
	KindAnalyze = "analyze"
	KindCompare = "compare"
)

// Metrics holds the collectors.
type Metrics struct {
	registry *prometheus.Registry

	analyses        *prometheus.CounterVec
	analysisSeconds *prometheus.HistogramVec
	rows            prometheus.Counter
	coercedCells    prometheus.Counter
	comparisonRows  *prometheus.CounterVec
	classifications *prometheus.CounterVec
	classifySeconds prometheus.Histogram
}

// New creates and registers all collectors, plus the Go runtime and process
// collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Analysis requests by kind and result code.",
		}, []string{"kind", "code"}),
		analysisSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "Time spent decoding and analysing uploads.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		rows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_analysed_total",
			Help:      "Spreadsheet data rows summarised.",
		}),
		coercedCells: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coerced_cells_total",
			Help:      "Numeric cells that failed to parse and counted as zero.",
		}),
		comparisonRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "comparison_rows_total",
			Help:      "Joined comparison rows by outcome.",
		}, []string{"outcome"}),
		classifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classifications_total",
			Help:      "Classifier calls by result.",
		}, []string{"result"}),
		classifySeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "classify_duration_seconds",
			Help:      "Latency of a single classifier call.",
			Buckets:   []float64{.0001, .001, .01, .1, .5, 1, 2.5, 5, 10},
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.analyses,
		m.analysisSeconds,
		m.rows,
		m.coercedCells,
		m.comparisonRows,
		m.classifications,
		m.classifySeconds,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveAnalysis records one finished request. code is the user-facing
// error code, or "ok".
func (m *Metrics) ObserveAnalysis(kind string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	code := "ok"
	if err != nil {
		code = core.MapError(err).Code
	}
	m.analyses.WithLabelValues(kind, code).Inc()
	m.analysisSeconds.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// ObserveSummary records the size of a summarised table.
func (m *Metrics) ObserveSummary(s *core.Summary) {
	if m == nil || s == nil {
		return
	}
	m.rows.Add(float64(s.TotalRows))
	m.coercedCells.Add(float64(s.CoercedCells()))
}

// ObserveComparison records joined rows by outcome.
func (m *Metrics) ObserveComparison(r *core.ComparisonResult) {
	if m == nil || r == nil {
		return
	}
	m.comparisonRows.WithLabelValues(string(core.Match)).Add(float64(r.MatchCount))
	m.comparisonRows.WithLabelValues(string(core.Mismatch)).Add(float64(r.MismatchCount))
}

// RegisterLimiter exports the analysis limiter's occupancy as gauges.
func (m *Metrics) RegisterLimiter(l *core.AnalysisLimiter) {
	if m == nil || l == nil {
		return
	}
	m.registry.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "analyses_in_flight",
			Help:      "Analyses currently holding a limiter slot.",
		}, func() float64 { return float64(l.ActiveCount()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "analysis_slots",
			Help:      "Maximum concurrent analyses.",
		}, func() float64 { return float64(l.MaxConcurrent()) }),
	)
}

// Classifier wraps c so every call is counted and timed.
func (m *Metrics) Classifier(c core.Classifier) core.Classifier {
	if m == nil || c == nil {
		return c
	}
	return core.ClassifierFunc(func(ctx context.Context, text string) (string, error) {
		start := time.Now()
		label, err := c.Classify(ctx, text)
		m.classifySeconds.Observe(time.Since(start).Seconds())

		result := "ok"
		if err != nil {
			result = "error"
		}
		m.classifications.WithLabelValues(result).Inc()
		return label, err
	})
}
