// Package metrics counts what happened during an extraction run and can
// dump the counters in the Prometheus text exposition format, e.g. for the
// node_exporter textfile collector.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/nao1215/caselift/internal/model"
)

const namespace = "caselift"

// Result label values.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// Recorder holds the run's collectors on a private registry.
type Recorder struct {
	registry *prometheus.Registry

	// FetchAttempts counts HTTP attempts by result.
	FetchAttempts *prometheus.CounterVec

	// InferenceAttempts counts model calls by result and status code.
	InferenceAttempts *prometheus.CounterVec

	// Recoveries counts JSON recovery outcomes by strategy.
	Recoveries *prometheus.CounterVec

	// Links counts processed links by status.
	Links *prometheus.CounterVec

	// LinkDuration observes per-link processing time.
	LinkDuration prometheus.Histogram

	// WorkbookRows is the number of data rows in the workbook after the run.
	WorkbookRows prometheus.Gauge

	// TruncatedCells counts values cut to the xlsx cell limit.
	TruncatedCells prometheus.Counter
}

// New creates a Recorder with its own registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		FetchAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fetch_attempts_total",
				Help:      "Total number of HTTP fetch attempts",
			},
			[]string{"result"},
		),
		InferenceAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "inference_attempts_total",
				Help:      "Total number of model calls",
			},
			[]string{"result", "status"},
		),
		Recoveries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "json_recovery_total",
				Help:      "JSON recovery outcomes by strategy",
			},
			[]string{"strategy"},
		),
		Links: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "links_total",
				Help:      "Processed links by outcome",
			},
			[]string{"status"},
		),
		LinkDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "link_duration_seconds",
				Help:      "Time spent processing a single link",
				Buckets:   []float64{1, 2, 5, 10, 20, 30, 60, 120, 300},
			},
		),
		WorkbookRows: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "workbook_rows",
				Help:      "Data rows in the output workbook after the run",
			},
		),
		TruncatedCells: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "truncated_cells_total",
				Help:      "Cell values truncated to the xlsx limit",
			},
		),
	}
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveFetch records one fetch attempt.
func (r *Recorder) ObserveFetch(_ string, _ int, err error) {
	r.FetchAttempts.WithLabelValues(result(err)).Inc()
}

// ObserveInference records one model call. statusCode is 0 when unknown.
func (r *Recorder) ObserveInference(statusCode int, err error) {
	status := "none"
	if statusCode != 0 {
		status = strconv.Itoa(statusCode)
	}
	r.InferenceAttempts.WithLabelValues(result(err), status).Inc()
}

// ObserveRecovery records which recovery strategy handled an answer.
func (r *Recorder) ObserveRecovery(strategy string) {
	r.Recoveries.WithLabelValues(strategy).Inc()
}

// ObserveLink records a link outcome.
func (r *Recorder) ObserveLink(o model.LinkOutcome) {
	r.Links.WithLabelValues(string(o.Status)).Inc()
	r.LinkDuration.Observe(o.Duration.Seconds())
}

// SetWorkbookRows records the final row count.
func (r *Recorder) SetWorkbookRows(n int) {
	r.WorkbookRows.Set(float64(n))
}

// AddTruncatedCells records values cut by the sink.
func (r *Recorder) AddTruncatedCells(n int) {
	if n > 0 {
		r.TruncatedCells.Add(float64(n))
	}
}

// WriteTextfile writes all metrics to path atomically.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}

func result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultSuccess
}
