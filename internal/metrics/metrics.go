// Package metrics exposes Prometheus counters for dataset scans.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Clark-Hu/certavg/internal/domain"
)

const namespace = "certavg"

// Recorder owns a private registry so several recorders can coexist in tests.
// A nil *Recorder is valid and records nothing.
type Recorder struct {
	registry *prometheus.Registry
	rows     prometheus.Counter
	skipped  *prometheus.CounterVec
	scans    *prometheus.CounterVec
	duration prometheus.Histogram
}

// New builds a Recorder with Go runtime and process collectors registered.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	r := &Recorder{
		registry: reg,
		rows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_scanned_total",
			Help:      "Data rows read from datasets.",
		}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_skipped_total",
			Help:      "Data rows left out of an average, by reason.",
		}, []string{"reason"}),
		scans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scans_total",
			Help:      "Completed dataset scans, by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scan_duration_seconds",
			Help:      "Wall time of a dataset scan.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(
		r.rows,
		r.skipped,
		r.scans,
		r.duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// RowScanned counts one data row.
func (r *Recorder) RowScanned() {
	if r == nil {
		return
	}
	r.rows.Inc()
}

// RowSkipped counts one dropped data row.
func (r *Recorder) RowSkipped(reason domain.SkipReason) {
	if r == nil {
		return
	}
	r.skipped.WithLabelValues(string(reason)).Inc()
}

// ScanFinished records the outcome label and duration of a scan.
func (r *Recorder) ScanFinished(outcome string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.scans.WithLabelValues(outcome).Inc()
	r.duration.Observe(elapsed.Seconds())
}
