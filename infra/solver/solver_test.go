package solver

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IRENA-FlexTool/FlexTool/core/model"
)

type call struct {
	name string
	args []string
}

// fakeExec records calls and writes the files a real tool would produce.
type fakeExec struct {
	dir      string
	calls    []call
	mps      string
	solution string
	cplexXML string
	failOn   string
}

func (f *fakeExec) Run(_ context.Context, dir, name string, args ...string) error {
	f.calls = append(f.calls, call{name: name, args: args})
	if f.failOn != "" && name == f.failOn {
		return errors.New("exit status 1")
	}
	write := func(file, body string) error {
		return os.WriteFile(filepath.Join(dir, file), []byte(body), 0o644)
	}
	joined := strings.Join(args, " ")
	switch {
	case strings.Contains(joined, "--wfreemps"):
		return write(mpsFile, f.mps)
	case strings.Contains(joined, "--cbg"):
		return write(glpsolSolution, f.solution)
	case name == "highs":
		return write(solutionFile, f.solution)
	case strings.Contains(joined, "write "+cplexSolution) && f.cplexXML != "":
		return write(cplexSolution, f.cplexXML)
	}
	return nil
}

func newAdapter(t *testing.T, f *fakeExec, extra ...string) *Adapter {
	t.Helper()
	f.dir = t.TempDir()
	a, err := NewAdapter(Config{WorkDir: f.dir, ExtraArgs: extra}, f, nil)
	require.NoError(t, err)
	return a
}

func TestGlpsolChain(t *testing.T) {
	f := &fakeExec{solution: "Status: OPTIMAL"}
	a := newAdapter(t, f, "--tmlim", "10")
	require.NoError(t, a.Solve(context.Background(), "s", model.SolverOptions{Solver: "glpsol"}))
	require.Len(t, f.calls, 1)
	assert.Equal(t, "glpsol", f.calls[0].name)
	assert.Equal(t, []string{"--model", "flexModel3.mod", "-d", "FlexTool3_base_sets.dat", "--cbg", "-w", glpsolSolution, "--tmlim", "10"}, f.calls[0].args)
}

func TestGlpsolInfeasible(t *testing.T) {
	f := &fakeExec{solution: "Status: INFEASIBLE (FINAL)"}
	a := newAdapter(t, f)
	err := a.Solve(context.Background(), "s", model.SolverOptions{Solver: "glpsol"})
	assert.ErrorIs(t, err, ErrInfeasible)
}

func TestHighsChainDefaults(t *testing.T) {
	f := &fakeExec{mps: "Columns:    12", solution: "Model status: Optimal"}
	a := newAdapter(t, f)
	require.NoError(t, a.Solve(context.Background(), "s", model.SolverOptions{}))
	require.Len(t, f.calls, 3)
	assert.Equal(t, []string{"--check", "--model", "flexModel3.mod", "-d", "FlexTool3_base_sets.dat", "--wfreemps", mpsFile}, f.calls[0].args)
	assert.Equal(t, "highs", f.calls[1].name)
	assert.Equal(t, []string{mpsFile, "--options_file=highs.opt", "--presolve=on", "--solver=choose", "--parallel=off"}, f.calls[1].args)
	assert.Equal(t, []string{"--model", "flexModel3.mod", "-d", "FlexTool3_base_sets.dat", "-r", solutionFile}, f.calls[2].args)
}

func TestHighsOptionsAndInfeasible(t *testing.T) {
	f := &fakeExec{mps: "Columns:    3", solution: "INFEASIBLE"}
	a := newAdapter(t, f)
	opts := model.SolverOptions{Solver: "highs", HighsPresolve: "off", HighsMethod: "ipm", HighsParallel: "on"}
	err := a.Solve(context.Background(), "s", opts)
	assert.ErrorIs(t, err, ErrInfeasible)
	assert.Contains(t, f.calls[1].args, "--presolve=off")
	assert.Contains(t, f.calls[1].args, "--solver=ipm")
	assert.Contains(t, f.calls[1].args, "--parallel=on")
	assert.Len(t, f.calls, 2)
}

func TestEmptyProblemHasNoColumns(t *testing.T) {
	f := &fakeExec{mps: "* Columns:    0\n"}
	a := newAdapter(t, f)
	err := a.Solve(context.Background(), "s", model.SolverOptions{Solver: "highs"})
	assert.ErrorIs(t, err, ErrNoColumns)
}

func TestCplexChainWithPrecommand(t *testing.T) {
	f := &fakeExec{mps: "Columns:    2", cplexXML: optimalXML}
	a := newAdapter(t, f)
	opts := model.SolverOptions{Solver: "cplex", Precommand: "srun -n 1", Arguments: []string{"set threads 2"}}
	require.NoError(t, a.Solve(context.Background(), "s", opts))
	require.Len(t, f.calls, 3)
	assert.Equal(t, "srun", f.calls[1].name)
	assert.Equal(t, []string{"-n", "1", "cplex", "-c", "read " + mpsFile, "set threads 2", "opt", "write " + cplexSolution, "quit"}, f.calls[1].args)
	b, err := os.ReadFile(filepath.Join(f.dir, solutionFile))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(b), "s bas 3 2 f f 12.5\n"))
}

func TestCplexWithoutSolutionIsInfeasible(t *testing.T) {
	f := &fakeExec{mps: "Columns:    2"}
	a := newAdapter(t, f)
	err := a.Solve(context.Background(), "s", model.SolverOptions{Solver: "cplex"})
	assert.ErrorIs(t, err, ErrInfeasible)
}

func TestUnknownSolver(t *testing.T) {
	f := &fakeExec{}
	a := newAdapter(t, f)
	err := a.Solve(context.Background(), "s", model.SolverOptions{Solver: "gurobi"})
	assert.ErrorIs(t, err, ErrUnknownSolver)
	assert.Contains(t, err.Error(), "cplex, glpsol, highs")
	assert.Empty(t, f.calls)
}

func TestProcessFailure(t *testing.T) {
	f := &fakeExec{failOn: "highs", mps: "Columns:    1"}
	a := newAdapter(t, f)
	err := a.Solve(context.Background(), "s", model.SolverOptions{Solver: "highs"})
	assert.ErrorIs(t, err, ErrSolverFailed)
}
