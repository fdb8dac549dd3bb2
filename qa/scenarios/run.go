package scenarios

import (
	"context"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/IRENA-FlexTool/FlexTool/core/events"
	"github.com/IRENA-FlexTool/FlexTool/core/logger"
	"github.com/IRENA-FlexTool/FlexTool/core/model"
	"github.com/IRENA-FlexTool/FlexTool/core/runner"
	"github.com/IRENA-FlexTool/FlexTool/core/solve"
	"github.com/IRENA-FlexTool/FlexTool/infra/metrics"
	"github.com/IRENA-FlexTool/FlexTool/infra/solvedata"
	"github.com/IRENA-FlexTool/FlexTool/infra/solver"
	"github.com/IRENA-FlexTool/FlexTool/internal/eventbus"
)

// scriptedSolver fails on one instance and succeeds otherwise.
type scriptedSolver struct {
	failOn string
	calls  int
}

func (s *scriptedSolver) Solve(_ context.Context, instance string, _ model.SolverOptions) error {
	s.calls++
	if instance == s.failOn {
		return fmt.Errorf("%w: %s", solver.ErrInfeasible, instance)
	}
	return nil
}

// RunScenario builds the plan of sc, checks it against the expectations and
// executes it with real solve data files and a scripted solver.
func RunScenario(t *testing.T, sc *Scenario) {
	t.Helper()
	reg, err := sc.Registry()
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	cat := sc.Catalog()
	plan, err := solve.BuildPlan(reg, cat, logger.NopLogger{})
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	checkPlan(t, sc, plan)

	promReg := prometheus.NewRegistry()
	sink, err := metrics.NewPromSinkWithRegistry(promReg)
	if err != nil {
		t.Fatalf("prom sink: %v", err)
	}
	bus := eventbus.NewTyped[events.SolveEvent](4 * len(plan.Instances))
	done := metrics.StartEventCollector(context.Background(), bus, sink, logger.NopLogger{})

	dir := t.TempDir()
	w := solvedata.NewWriter(solvedata.Paths{
		SolveData: dir + "/solve_data",
		Input:     dir + "/input",
		Output:    dir + "/output",
	}, reg, cat, nil)
	slv := &scriptedSolver{failOn: sc.FailOn}
	r, err := runner.New(w, slv, cat, runner.WithBus(bus))
	if err != nil {
		t.Fatalf("runner: %v", err)
	}
	res, runErr := r.Run(context.Background(), plan)
	bus.Close()
	<-done

	if sc.Expected.Failed != (runErr != nil) {
		t.Fatalf("expected failure %v, got %v", sc.Expected.Failed, runErr)
	}
	if res.Executed != sc.Expected.Executed {
		t.Fatalf("expected %d executed instances, got %d", sc.Expected.Executed, res.Executed)
	}
	if slv.calls != res.Executed {
		t.Fatalf("solver called %d times for %d instances", slv.calls, res.Executed)
	}
	status := "ok"
	if sc.Expected.Failed {
		status = "failed"
	}
	if got := testutil.ToFloat64(sink.RunsCounter().WithLabelValues(status)); got != 1 {
		t.Fatalf("expected one %s run, got %v", status, got)
	}
	if got := testutil.CollectAndCount(sink.SolvesCounter()); got == 0 {
		t.Fatal("no solve metrics recorded")
	}
}

func checkPlan(t *testing.T, sc *Scenario, plan *solve.Plan) {
	t.Helper()
	want := sc.Expected.Instances
	if len(plan.Instances) != len(want) {
		t.Fatalf("expected %d instances, got %d", len(want), len(plan.Instances))
	}
	for i, inst := range plan.Instances {
		w := want[i]
		if inst.Name != w.Name {
			t.Fatalf("instance %d: expected %s, got %s", i, w.Name, inst.Name)
		}
		if w.Parent != "" && inst.Parent != w.Parent {
			t.Fatalf("%s: expected parent %s, got %s", inst.Name, w.Parent, inst.Parent)
		}
		if w.Active != nil && !equal(stepIDs(inst.Active), w.Active) {
			t.Fatalf("%s: expected active %v, got %v", inst.Name, w.Active, stepIDs(inst.Active))
		}
		if w.Realized != nil && !equal(stepIDs(inst.Realized), w.Realized) {
			t.Fatalf("%s: expected realized %v, got %v", inst.Name, w.Realized, stepIDs(inst.Realized))
		}
	}
	for name, periods := range sc.Expected.History {
		var got []string
		for _, py := range plan.History[name] {
			got = append(got, py.Period)
		}
		if !equal(got, periods) {
			t.Fatalf("history of %s: expected %v, got %v", name, periods, got)
		}
	}
}

func stepIDs(at model.ActiveTime) []string {
	var out []string
	for _, s := range at.Flatten() {
		out = append(out, s.Step)
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
