// Package runner executes a solve plan one instance at a time.
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/IRENA-FlexTool/FlexTool/core/events"
	"github.com/IRENA-FlexTool/FlexTool/core/logger"
	"github.com/IRENA-FlexTool/FlexTool/core/model"
	"github.com/IRENA-FlexTool/FlexTool/core/monitoring"
	"github.com/IRENA-FlexTool/FlexTool/core/runlog"
	"github.com/IRENA-FlexTool/FlexTool/core/solve"
	"github.com/IRENA-FlexTool/FlexTool/internal/eventbus"
)

// ErrEmptyPlan is returned when a plan has no instances to execute.
var ErrEmptyPlan = errors.New("plan has no solve instances")

// Writer prepares the solve data of one instance.
type Writer interface {
	Write(inst model.SolveInstance, history []model.PeriodYears, pos model.RunPosition) error
}

// Solver runs the optimization of the current solve data.
type Solver interface {
	Solve(ctx context.Context, instance string, opts model.SolverOptions) error
}

// Result summarises an executed run.
type Result struct {
	RunID    string
	Executed int
	Total    int
	Duration time.Duration
}

// Runner drives the writer and solver over every instance of a plan.
type Runner struct {
	writer Writer
	solver Solver
	cat    *model.Catalog
	store  runlog.Store
	bus    *eventbus.TypedBus[events.SolveEvent]
	log    logger.Logger
	now    func() time.Time
	newID  func() string
}

// Option customises a Runner.
type Option func(*Runner)

// WithStore records every executed instance in s.
func WithStore(s runlog.Store) Option { return func(r *Runner) { r.store = s } }

// WithBus publishes lifecycle events on b.
func WithBus(b *eventbus.TypedBus[events.SolveEvent]) Option {
	return func(r *Runner) { r.bus = b }
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option { return func(r *Runner) { r.log = l } }

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(r *Runner) { r.now = now } }

// WithRunID replaces the UUID generator.
func WithRunID(f func() string) Option { return func(r *Runner) { r.newID = f } }

// New returns a Runner. cat provides the solver options of every parent
// solve.
func New(w Writer, s Solver, cat *model.Catalog, opts ...Option) (*Runner, error) {
	if w == nil || s == nil || cat == nil {
		return nil, errors.New("runner needs a writer, a solver and a catalog")
	}
	r := &Runner{
		writer: w,
		solver: s,
		cat:    cat,
		store:  runlog.NopStore{},
		log:    logger.NopLogger{},
		now:    time.Now,
		newID:  func() string { return uuid.NewString() },
	}
	for _, o := range opts {
		o(r)
	}
	return r, nil
}

// Run executes the instances of plan in order and stops at the first error.
// Instance k+1 starts only after instance k's solve finished.
func (r *Runner) Run(ctx context.Context, plan *solve.Plan) (Result, error) {
	if plan == nil || len(plan.Instances) == 0 {
		return Result{}, ErrEmptyPlan
	}
	res := Result{RunID: r.newID(), Total: len(plan.Instances)}
	start := r.now()
	r.publish(events.SolveEvent{Kind: events.RunStarted, RunID: res.RunID, Total: res.Total, Time: start})
	r.log.Infof("run %s: %d solve instances of model %s", res.RunID, res.Total, plan.Model)

	var runErr error
	for i, inst := range plan.Instances {
		if err := ctx.Err(); err != nil {
			runErr = fmt.Errorf("run cancelled before %s: %w", inst.Name, err)
			break
		}
		res.Executed++
		if err := r.runOne(ctx, plan, res.RunID, i, inst); err != nil {
			runErr = err
			break
		}
	}
	res.Duration = r.now().Sub(start)

	end := events.SolveEvent{Kind: events.RunFinished, RunID: res.RunID, Index: res.Executed, Total: res.Total, Duration: res.Duration, Time: r.now()}
	if runErr != nil {
		end.Err = runErr.Error()
		r.log.Errorf("run %s failed after %d of %d instances: %v", res.RunID, res.Executed, res.Total, runErr)
		monitoring.CaptureException(runErr, monitoring.Tags{"module": "runner", "run_id": res.RunID})
	} else {
		r.log.Infof("run %s finished in %s", res.RunID, res.Duration)
	}
	r.publish(end)
	return res, runErr
}

func (r *Runner) runOne(ctx context.Context, plan *solve.Plan, runID string, i int, inst model.SolveInstance) error {
	var opts model.SolverOptions
	if spec, ok := r.cat.Solve(inst.Parent); ok {
		opts = spec.Solver
	}
	started := r.now()
	ev := events.SolveEvent{
		RunID:         runID,
		Index:         i,
		Total:         len(plan.Instances),
		Instance:      inst.Name,
		Parent:        inst.Parent,
		Solver:        opts.Solver,
		ActiveSteps:   inst.Active.Len(),
		RealizedSteps: inst.Realized.Len(),
	}
	startEv := ev
	startEv.Kind, startEv.Time = events.SolveStarted, started
	r.publish(startEv)
	r.log.Infof("solve %d/%d: %s", i+1, len(plan.Instances), inst.Name)

	pos := model.RunPosition{First: i == 0, Last: i == len(plan.Instances)-1}
	err := r.writer.Write(inst, plan.History[inst.Parent], pos)
	if err != nil {
		err = fmt.Errorf("write solve data for %s: %w", inst.Name, err)
	} else if err = r.solver.Solve(ctx, inst.Name, opts); err != nil {
		err = fmt.Errorf("solve %s: %w", inst.Name, err)
	}

	rec := runlog.Record{
		RunID:         runID,
		Index:         i,
		Instance:      inst.Name,
		Parent:        inst.Parent,
		Solver:        opts.Solver,
		Status:        runlog.StatusOK,
		Started:       started,
		Duration:      r.now().Sub(started),
		ActiveSteps:   ev.ActiveSteps,
		RealizedSteps: ev.RealizedSteps,
	}
	if err != nil {
		rec.Status, rec.Error = runlog.StatusFailed, err.Error()
	}
	// A cancelled run still records its last instance.
	if serr := r.store.Append(context.WithoutCancel(ctx), rec); serr != nil {
		r.log.Warnf("run log: %v", serr)
	}

	ev.Kind, ev.Duration, ev.Time = events.SolveFinished, rec.Duration, r.now()
	ev.Err = rec.Error
	r.publish(ev)
	return err
}

func (r *Runner) publish(ev events.SolveEvent) {
	if r.bus != nil {
		r.bus.Publish(ev)
	}
}
