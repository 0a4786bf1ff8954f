// Package metrics exports Prometheus metrics for supervised tasks.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds the per-task metric vectors. All vectors are labelled by task label.
type Collector struct {
	// Attempts counts every invocation of a task function.
	Attempts *prometheus.CounterVec

	// Failures counts attempts that returned an error.
	Failures *prometheus.CounterVec

	// Panics counts attempts that panicked.
	Panics *prometheus.CounterVec

	// Completed counts tasks that finished successfully.
	Completed *prometheus.CounterVec

	// Running tracks tasks currently under supervision.
	Running *prometheus.GaugeVec

	// Backoff observes the delays applied between attempts.
	Backoff *prometheus.HistogramVec
}

// New creates a Collector and registers it on reg.
// A nil reg registers on prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Collector{
		Attempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "apptask_attempts_total",
				Help: "Total number of task attempts",
			},
			[]string{"task"},
		),
		Failures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "apptask_failures_total",
				Help: "Total number of failed task attempts",
			},
			[]string{"task"},
		),
		Panics: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "apptask_panics_total",
				Help: "Total number of task attempts that panicked",
			},
			[]string{"task"},
		),
		Completed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "apptask_completed_total",
				Help: "Total number of tasks that finished successfully",
			},
			[]string{"task"},
		),
		Running: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "apptask_running_tasks",
				Help: "Number of tasks currently supervised",
			},
			[]string{"task"},
		),
		Backoff: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "apptask_backoff_seconds",
				Help:    "Backoff delay applied after a failed attempt",
				Buckets: []float64{0, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
			},
			[]string{"task"},
		),
	}
}

// TaskStarted marks a task as supervised.
func (c *Collector) TaskStarted(label string) {
	c.Running.WithLabelValues(label).Inc()
}

// TaskStopped marks a task as no longer supervised.
func (c *Collector) TaskStopped(label string) {
	c.Running.WithLabelValues(label).Dec()
}

// AttemptStarted counts one attempt.
func (c *Collector) AttemptStarted(label string) {
	c.Attempts.WithLabelValues(label).Inc()
}

// AttemptFailed counts a failed attempt and the delay chosen for it.
func (c *Collector) AttemptFailed(label string, delay time.Duration) {
	c.Failures.WithLabelValues(label).Inc()
	c.Backoff.WithLabelValues(label).Observe(delay.Seconds())
}

// AttemptPanicked counts a crashed attempt.
func (c *Collector) AttemptPanicked(label string) {
	c.Panics.WithLabelValues(label).Inc()
}

// TaskCompleted counts a successfully finished task.
func (c *Collector) TaskCompleted(label string) {
	c.Completed.WithLabelValues(label).Inc()
}
