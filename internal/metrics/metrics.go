// Package metrics exports Prometheus collectors for the stage pipeline. A
// Recorder implements stage.Observer so stages report into it directly.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"streamer/internal/stage"
)

const namespace = "streamer"

// Recorder owns a private registry and the pipeline collectors.
type Recorder struct {
	registry *prometheus.Registry

	transitions   *prometheus.CounterVec
	status        *prometheus.GaugeVec
	exceptions    *prometheus.CounterVec
	generation    *prometheus.HistogramVec
	queueDepth    *prometheus.GaugeVec
	pendingErrors *prometheus.GaugeVec
	ticks         *prometheus.CounterVec
	artifacts     *prometheus.CounterVec
}

// New registers the pipeline collectors plus Go runtime and process
// collectors on a fresh registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		transitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "stage",
				Name:      "transitions_total",
				Help:      "Total number of stage status transitions",
			},
			[]string{"stage", "from", "to"},
		),
		status: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "stage",
				Name:      "status",
				Help:      "Current stage status (1 for the active status, 0 otherwise)",
			},
			[]string{"stage", "status"},
		),
		exceptions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "stage",
				Name:      "exceptions_total",
				Help:      "Total number of exceptions recorded by type",
			},
			[]string{"stage", "type", "category"},
		),
		generation: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "stage",
				Name:      "generation_duration_seconds",
				Help:      "Duration of generator calls in seconds",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"stage", "result"},
		),
		queueDepth: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "stage",
				Name:      "queue_depth",
				Help:      "Items waiting in a stage queue",
			},
			[]string{"stage", "queue"},
		),
		pendingErrors: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "stage",
				Name:      "pending_exceptions",
				Help:      "Exceptions awaiting acknowledgement",
			},
			[]string{"stage"},
		),
		ticks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "stage",
				Name:      "ticks_total",
				Help:      "Total number of stage ticks",
			},
			[]string{"stage"},
		),
		artifacts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "pipeline",
				Name:      "artifacts_total",
				Help:      "Total number of artifacts produced by kind",
			},
			[]string{"stage", "kind"},
		),
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// StatusChanged implements stage.Observer.
func (r *Recorder) StatusChanged(name string, from, to stage.Status) {
	r.transitions.WithLabelValues(name, from.String(), to.String()).Inc()
	r.setStatus(name, to)
}

// ExceptionRecorded implements stage.Observer.
func (r *Recorder) ExceptionRecorded(name string, exc stage.Exception) {
	r.exceptions.WithLabelValues(name, exc.Type.String(), string(exc.Type.Category())).Inc()
}

// GenerationObserved implements stage.Observer.
func (r *Recorder) GenerationObserved(name string, elapsed time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.generation.WithLabelValues(name, result).Observe(elapsed.Seconds())
}

// TickObserved implements stage.Observer.
func (r *Recorder) TickObserved(snap stage.Snapshot) {
	r.ticks.WithLabelValues(snap.Name).Inc()
	r.queueDepth.WithLabelValues(snap.Name, "input").Set(float64(snap.Inputs))
	r.queueDepth.WithLabelValues(snap.Name, "output").Set(float64(snap.Outputs))
	r.queueDepth.WithLabelValues(snap.Name, "stop").Set(float64(snap.Stops))
	r.pendingErrors.WithLabelValues(snap.Name).Set(float64(snap.Exceptions))
	r.setStatus(snap.Name, snap.Status)
}

// ArtifactProduced counts a generated output.
func (r *Recorder) ArtifactProduced(name, kind string) {
	r.artifacts.WithLabelValues(name, kind).Inc()
}

func (r *Recorder) setStatus(name string, current stage.Status) {
	for _, s := range stage.Statuses() {
		value := 0.0
		if s == current {
			value = 1
		}
		r.status.WithLabelValues(name, s.String()).Set(value)
	}
}

var _ stage.Observer = (*Recorder)(nil)
