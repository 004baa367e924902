// Package metrics exposes run counters in the Prometheus exposition format.
// The tool exits after one pass, so metrics are written to a node-exporter
// textfile instead of being served.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Nao-Mk2/access-log-top/internal/aggregator"
	"github.com/Nao-Mk2/access-log-top/internal/model"
)

const namespace = "access_log_top"

// Line outcomes used as the "outcome" label of LinesTotal.
const (
	OutcomeParsed  = "parsed"
	OutcomeMatched = "matched"
	OutcomeSkipped = "skipped"
)

// Handler holds the run metrics of one process.
type Handler struct {
	LinesTotal      *prometheus.CounterVec
	BatchesTotal    prometheus.Counter
	DistinctKeys    *prometheus.GaugeVec
	CategoryTotal   *prometheus.GaugeVec
	RunDuration     prometheus.Gauge
	LastRunUnixtime prometheus.Gauge

	reg *prometheus.Registry
}

// New registers the run metrics on a private registry.
func New() *Handler {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Handler{
		LinesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lines_total",
			Help:      "Input lines by outcome",
		}, []string{"outcome"}),
		BatchesTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_total",
			Help:      "Line batches processed by workers",
		}),
		DistinctKeys: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "distinct_keys",
			Help:      "Distinct keys per category at the end of the run",
		}, []string{"category"}),
		CategoryTotal: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "category_observations",
			Help:      "Observations per category at the end of the run",
		}, []string{"category"}),
		RunDuration: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of the last run",
		}),
		LastRunUnixtime: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Start time of the last run",
		}),
		reg: reg,
	}
}

// Registry returns the registry the metrics live on.
func (h *Handler) Registry() *prometheus.Registry {
	return h.reg
}

// ObserveBatch adds the line counters of one processed batch.
func (h *Handler) ObserveBatch(s model.RunStats) {
	h.BatchesTotal.Inc()
	h.LinesTotal.WithLabelValues(OutcomeParsed).Add(float64(s.Parsed))
	h.LinesTotal.WithLabelValues(OutcomeMatched).Add(float64(s.Matched))
	h.LinesTotal.WithLabelValues(OutcomeSkipped).Add(float64(s.Skipped))
}

// ObserveRun records the final table sizes and timing of a finished run.
func (h *Handler) ObserveRun(a *aggregator.Aggregator, s model.RunStats) {
	for _, c := range model.Categories() {
		t := a.Table(c)
		h.DistinctKeys.WithLabelValues(string(c)).Set(float64(t.Len()))
		h.CategoryTotal.WithLabelValues(string(c)).Set(float64(t.Total()))
	}
	h.RunDuration.Set(s.Elapsed.Seconds())
	if !s.Started.IsZero() {
		h.LastRunUnixtime.Set(float64(s.Started.UnixNano()) / 1e9)
	}
}

// WriteTextfile writes every metric to path atomically.
func (h *Handler) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, h.reg)
}
