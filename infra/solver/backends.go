package solver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

const (
	glpsolSolution = "glpsol_solution.txt"
	mpsFile        = "flexModel3.mps"
	solutionFile   = "flexModel3.sol"
	cplexSolution  = "flexModel3_cplex.sol"
)

type glpsolBackend struct{ a *Adapter }

func (g glpsolBackend) Solve(ctx context.Context, req Request) error {
	a := g.a
	if err := a.run(ctx, "glpsol", a.cfg.Glpsol, a.modelArgs("--cbg", "-w", glpsolSolution)...); err != nil {
		return err
	}
	// The solvers exit cleanly on infeasible problems.
	bad, err := a.contains(glpsolSolution, "INFEASIBLE")
	if err != nil {
		return fmt.Errorf("read glpsol solution: %w", err)
	}
	if bad {
		return fmt.Errorf("%w: %s", ErrInfeasible, req.Instance)
	}
	return nil
}

type highsBackend struct{ a *Adapter }

func (h highsBackend) Solve(ctx context.Context, req Request) error {
	a := h.a
	if err := writeMPS(ctx, a); err != nil {
		return err
	}
	o := req.Options
	args := []string{
		mpsFile,
		"--options_file=" + a.cfg.HighsOptionsFile,
		"--presolve=" + orDefault(o.HighsPresolve, "on"),
		"--solver=" + orDefault(o.HighsMethod, "choose"),
		"--parallel=" + orDefault(o.HighsParallel, "off"),
	}
	if err := a.run(ctx, "highs", a.cfg.Highs, args...); err != nil {
		return err
	}
	bad, err := a.contains(solutionFile, "INFEASIBLE")
	if err != nil {
		return fmt.Errorf("read highs solution: %w", err)
	}
	if bad {
		return fmt.Errorf("%w: %s", ErrInfeasible, req.Instance)
	}
	return readSolution(ctx, a)
}

type cplexBackend struct{ a *Adapter }

func (c cplexBackend) Solve(ctx context.Context, req Request) error {
	a := c.a
	if err := writeMPS(ctx, a); err != nil {
		return err
	}
	args := []string{"-c", "read " + mpsFile}
	args = append(args, req.Options.Arguments...)
	args = append(args, "opt", "write "+cplexSolution, "quit")
	args = append(args, a.cfg.ExtraArgs...)

	name := a.cfg.Cplex
	if pre := strings.Fields(req.Options.Precommand); len(pre) > 0 {
		name = pre[0]
		args = append(append(pre[1:len(pre):len(pre)], a.cfg.Cplex), args...)
	}
	if err := a.run(ctx, "cplex", name, args...); err != nil {
		return err
	}
	if err := ConvertCPLEXFile(a.path(cplexSolution), a.path(solutionFile)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: cplex wrote no solution for %s, check cplex.log", ErrInfeasible, req.Instance)
		}
		return err
	}
	return readSolution(ctx, a)
}

// writeMPS lets glpsol translate the model into an MPS problem file.
func writeMPS(ctx context.Context, a *Adapter) error {
	args := append([]string{"--check"}, a.modelArgs("--wfreemps", mpsFile)...)
	if err := a.run(ctx, "glpsol mps", a.cfg.Glpsol, args...); err != nil {
		return err
	}
	empty, err := a.contains(mpsFile, "Columns:    0")
	if err != nil {
		return fmt.Errorf("read mps: %w", err)
	}
	if empty {
		return fmt.Errorf("%w: check that the model has nodes", ErrNoColumns)
	}
	return nil
}

// readSolution lets glpsol write the result files from the solution.
func readSolution(ctx context.Context, a *Adapter) error {
	return a.run(ctx, "glpsol results", a.cfg.Glpsol, a.modelArgs("-r", solutionFile)...)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
