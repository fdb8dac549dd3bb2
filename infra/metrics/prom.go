// Package metrics provides the Prometheus and InfluxDB solve sinks.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/IRENA-FlexTool/FlexTool/core/metrics"
)

// PromSink exports solve counters and durations.
type PromSink struct {
	solves   *prometheus.CounterVec
	duration *prometheus.HistogramVec
	steps    *prometheus.CounterVec
	runs     *prometheus.CounterVec
	lastRun  prometheus.Gauge
}

// NewPromSink registers on the default registerer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers on reg, reusing collectors registered by
// an earlier sink. A nil reg selects the default registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		solves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flextool_solves_total",
			Help: "Solve instances executed",
		}, []string{"parent", "solver", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "flextool_solve_duration_seconds",
			Help:    "Wall time of one solve instance including data writing",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
		}, []string{"solver"}),
		steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flextool_solve_steps_total",
			Help: "Timesteps handled by solve instances",
		}, []string{"parent", "kind"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flextool_runs_total",
			Help: "Completed runs",
		}, []string{"status"}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "flextool_last_run_duration_seconds",
			Help: "Duration of the most recent run",
		}),
	}
	var err error
	if s.solves, err = register(reg, s.solves); err != nil {
		return nil, err
	}
	if s.duration, err = register(reg, s.duration); err != nil {
		return nil, err
	}
	if s.steps, err = register(reg, s.steps); err != nil {
		return nil, err
	}
	if s.runs, err = register(reg, s.runs); err != nil {
		return nil, err
	}
	if s.lastRun, err = register(reg, s.lastRun); err != nil {
		return nil, err
	}
	return s, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordSolve counts the instance and observes its duration.
func (s *PromSink) RecordSolve(r coremetrics.SolveResult) error {
	s.solves.WithLabelValues(r.Parent, r.Solver, r.Status).Inc()
	s.duration.WithLabelValues(r.Solver).Observe(r.Duration.Seconds())
	s.steps.WithLabelValues(r.Parent, "active").Add(float64(r.ActiveSteps))
	s.steps.WithLabelValues(r.Parent, "realized").Add(float64(r.RealizedSteps))
	return nil
}

// RecordRun counts the run by outcome.
func (s *PromSink) RecordRun(sum coremetrics.RunSummary) error {
	status := "ok"
	if sum.Failed > 0 {
		status = "failed"
	}
	s.runs.WithLabelValues(status).Inc()
	s.lastRun.Set(sum.Duration.Seconds())
	return nil
}

// SolvesCounter exposes flextool_solves_total.
func (s *PromSink) SolvesCounter() *prometheus.CounterVec { return s.solves }

// RunsCounter exposes flextool_runs_total.
func (s *PromSink) RunsCounter() *prometheus.CounterVec { return s.runs }
