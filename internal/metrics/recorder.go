// Package metrics exports run outcomes as Prometheus textfile metrics and
// CloudWatch custom metrics.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pankaj-dahiya-devops/dp-remediate/internal/models"
)

const namespace = "dpr"

// Recorder accumulates run outcomes in a private Prometheus registry.
type Recorder struct {
	registry *prometheus.Registry

	resourcesTotal     *prometheus.CounterVec
	targetFailures     *prometheus.CounterVec
	lastRunTimestamp   prometheus.Gauge
	lastRunDurationSec prometheus.Gauge
}

// NewRecorder returns a Recorder with its collectors registered.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		resourcesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "resources_total",
				Help:      "Resources processed, by kind and terminal status",
			},
			[]string{"kind", "status"},
		),
		targetFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "target_failures_total",
				Help:      "Targets whose listing failed",
			},
			[]string{"kind"},
		),
		lastRunTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished",
		}),
		lastRunDurationSec: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_duration_seconds",
			Help:      "Wall-clock duration of the last run",
		}),
	}
	r.registry.MustRegister(r.resourcesTotal, r.targetFailures, r.lastRunTimestamp, r.lastRunDurationSec)
	return r
}

// Observe adds every outcome and target error in report to the counters.
func (r *Recorder) Observe(report *models.RunReport) {
	for _, o := range report.Outcomes {
		r.resourcesTotal.WithLabelValues(string(o.Resource.Kind), string(o.Status)).Inc()
	}
	for _, te := range report.TargetErrors {
		r.targetFailures.WithLabelValues(string(te.Kind)).Inc()
	}
	if !report.FinishedAt.IsZero() {
		r.lastRunTimestamp.Set(float64(report.FinishedAt.Unix()))
		r.lastRunDurationSec.Set(report.FinishedAt.Sub(report.StartedAt).Seconds())
	}
}

// Registry exposes the underlying registry as a Gatherer.
func (r *Recorder) Registry() prometheus.Gatherer {
	return r.registry
}

// WriteTextfile writes the registry in text exposition format to path, for
// the node exporter textfile collector. The write is atomic.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile %s: %w", path, err)
	}
	return nil
}
