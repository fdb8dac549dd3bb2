// Package app wires configuration, inputs and infrastructure into a solve
// run.
package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/IRENA-FlexTool/FlexTool/config"
	"github.com/IRENA-FlexTool/FlexTool/core/events"
	coremetrics "github.com/IRENA-FlexTool/FlexTool/core/metrics"
	"github.com/IRENA-FlexTool/FlexTool/core/model"
	"github.com/IRENA-FlexTool/FlexTool/core/runlog"
	"github.com/IRENA-FlexTool/FlexTool/core/runner"
	"github.com/IRENA-FlexTool/FlexTool/core/solve"
	"github.com/IRENA-FlexTool/FlexTool/core/timeline"
	"github.com/IRENA-FlexTool/FlexTool/infra/chart"
	"github.com/IRENA-FlexTool/FlexTool/infra/input"
	"github.com/IRENA-FlexTool/FlexTool/infra/logger"
	"github.com/IRENA-FlexTool/FlexTool/infra/metrics"
	"github.com/IRENA-FlexTool/FlexTool/infra/mqtt"
	"github.com/IRENA-FlexTool/FlexTool/infra/postprocess"
	"github.com/IRENA-FlexTool/FlexTool/infra/solvedata"
	"github.com/IRENA-FlexTool/FlexTool/infra/solver"
	"github.com/IRENA-FlexTool/FlexTool/internal/eventbus"
)

// Service holds the validated plan of one input directory.
type Service struct {
	cfg  *config.Config
	log  logger.Logger
	cat  *model.Catalog
	reg  *timeline.Registry
	plan *solve.Plan

	// Solver overrides the external solver adapter.
	Solver runner.Solver
}

// New loads the inputs and builds the plan. Configuration errors surface here,
// before any solver runs.
func New(cfg *config.Config) (*Service, error) {
	log := logger.New("service")
	tables, err := input.NewLoader(cfg.Paths.Input, logger.New("input")).Load()
	if err != nil {
		return nil, fmt.Errorf("load inputs: %w", err)
	}
	reg, err := tables.Registry()
	if err != nil {
		return nil, fmt.Errorf("timelines: %w", err)
	}
	plan, err := solve.BuildPlan(reg, tables.Catalog, logger.New("plan"))
	if err != nil {
		return nil, fmt.Errorf("plan: %w", err)
	}
	log.Infof("model %s: %d solves, %d instances", plan.Model, len(plan.Order), len(plan.Instances))
	return &Service{cfg: cfg, log: log, cat: tables.Catalog, reg: reg, plan: plan}, nil
}

// Plan returns the resolved plan.
func (s *Service) Plan() *solve.Plan { return s.plan }

// RenderChart writes the plan chart to w.
func (s *Service) RenderChart(w io.Writer) error { return chart.RenderPlan(s.plan, w) }

// Run executes the plan and post-processes rolling results. It blocks until
// the run ends or ctx is cancelled.
func (s *Service) Run(ctx context.Context) (runner.Result, error) {
	sink, err := coremetrics.NewSink(s.cfg.Metrics.Sinks)
	if err != nil {
		return runner.Result{}, fmt.Errorf("metrics: %w", err)
	}
	defer coremetrics.Close(sink)
	store, err := runlog.NewStore(s.cfg.RunLogConfig())
	if err != nil {
		return runner.Result{}, fmt.Errorf("run log: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			s.log.Warnf("run log close: %v", err)
		}
	}()

	bgCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if s.cfg.Metrics.PromAddr != "" {
		go func() {
			if err := metrics.StartPromServer(bgCtx, s.cfg.Metrics.PromAddr, nil); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	bus := eventbus.NewTyped[events.SolveEvent](s.cfg.EventBuffer)
	waits := []<-chan struct{}{metrics.StartEventCollector(bgCtx, bus, sink, logger.New("metrics"))}
	if s.cfg.Progress.Enabled {
		pub, err := mqtt.NewProgressPublisher(s.cfg.Progress, logger.New("progress"))
		if err != nil {
			// Progress reporting is optional; the run goes on without it.
			s.log.Warnf("progress publisher: %v", err)
		} else {
			defer pub.Close()
			done := make(chan struct{})
			sub := bus.Subscribe()
			go func() {
				defer close(done)
				pub.Listen(bgCtx, sub)
			}()
			waits = append(waits, done)
		}
	}

	slv := s.Solver
	if slv == nil {
		a, err := solver.NewAdapter(s.cfg.Solver, nil, logger.New("solver"))
		if err != nil {
			return runner.Result{}, err
		}
		slv = a
	}
	w := solvedata.NewWriter(s.cfg.Paths, s.reg, s.cat, logger.New("solve-data"))
	r, err := runner.New(w, slv, s.cat,
		runner.WithStore(store),
		runner.WithBus(bus),
		runner.WithLogger(logger.New("runner")))
	if err != nil {
		return runner.Result{}, err
	}
	res, runErr := r.Run(ctx, s.plan)

	// Closing the bus lets subscribers drain the final events.
	bus.Close()
	for _, done := range waits {
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			s.log.Warnf("event subscriber did not stop in time")
		}
	}
	if d := bus.Dropped(); d > 0 {
		s.log.Warnf("%d run events dropped", d)
	}
	if runErr != nil {
		return res, runErr
	}

	if s.plan.HasRolling(s.cat) && s.cfg.Postprocess.IsEnabled() {
		if err := Postprocess(s.cfg); err != nil {
			return res, err
		}
	}
	return res, nil
}

// Postprocess aggregates the per-step result tables into per-period tables.
func Postprocess(cfg *config.Config) error {
	return postprocess.NewPeriodic(cfg.Paths.Output, cfg.Postprocess.Groups, logger.New("postprocess")).Run()
}
