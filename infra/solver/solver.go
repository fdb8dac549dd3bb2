// Package solver runs the external optimization tool chain for one solve
// instance.
package solver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/IRENA-FlexTool/FlexTool/core/factory"
	"github.com/IRENA-FlexTool/FlexTool/core/logger"
	"github.com/IRENA-FlexTool/FlexTool/core/model"
)

var (
	// ErrSolverFailed is returned when a solver process exits with an error.
	ErrSolverFailed = errors.New("solver failed")
	// ErrInfeasible is returned when the solution reports an infeasible problem.
	ErrInfeasible = errors.New("model is infeasible")
	// ErrNoColumns is returned when the generated problem has no columns.
	ErrNoColumns = errors.New("problem has no columns")
	// ErrUnknownSolver is returned for unsupported solver names.
	ErrUnknownSolver = errors.New("unknown solver")
)

// DefaultSolver is used when a solve does not name one.
const DefaultSolver = "highs"

// Config locates the model files and the executables.
type Config struct {
	WorkDir          string `json:"work_dir"`
	ModelFile        string `json:"model_file"`
	DataFile         string `json:"data_file"`
	Glpsol           string `json:"glpsol"`
	Highs            string `json:"highs"`
	HighsOptionsFile string `json:"highs_options_file"`
	Cplex            string `json:"cplex"`
	// ExtraArgs are appended to every glpsol and cplex call.
	ExtraArgs []string `json:"extra_args"`
}

// SetDefaults applies the file names used by the FlexTool model.
func (c *Config) SetDefaults() {
	if c.WorkDir == "" {
		c.WorkDir = "."
	}
	if c.ModelFile == "" {
		c.ModelFile = "flexModel3.mod"
	}
	if c.DataFile == "" {
		c.DataFile = "FlexTool3_base_sets.dat"
	}
	if c.Glpsol == "" {
		c.Glpsol = "glpsol"
	}
	if c.Highs == "" {
		c.Highs = "highs"
	}
	if c.HighsOptionsFile == "" {
		c.HighsOptionsFile = "highs.opt"
	}
	if c.Cplex == "" {
		c.Cplex = "cplex"
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.ModelFile == "" || c.DataFile == "" {
		return fmt.Errorf("solver model_file and data_file are required")
	}
	return nil
}

// Request describes one solver invocation.
type Request struct {
	Instance string
	Options  model.SolverOptions
}

// Executor runs a command in a directory.
type Executor interface {
	Run(ctx context.Context, dir, name string, args ...string) error
}

// ExecExecutor runs commands with os/exec, streaming their output to the
// process output.
type ExecExecutor struct{}

// Run starts the command and waits for it.
func (ExecExecutor) Run(ctx context.Context, dir, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// Backend solves the model currently described by the solve data.
type Backend interface {
	Solve(ctx context.Context, req Request) error
}

// Adapter selects the backend of every request.
type Adapter struct {
	cfg      Config
	exec     Executor
	log      logger.Logger
	backends *factory.Registry[Backend]
}

// NewAdapter registers the glpsol, highs and cplex backends. A nil executor
// runs real processes.
func NewAdapter(cfg Config, ex Executor, log logger.Logger) (*Adapter, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if ex == nil {
		ex = ExecExecutor{}
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	a := &Adapter{cfg: cfg, exec: ex, log: log, backends: factory.NewRegistry[Backend]()}
	for name, b := range map[string]Backend{
		"glpsol": glpsolBackend{a},
		"highs":  highsBackend{a},
		"cplex":  cplexBackend{a},
	} {
		b := b
		if err := a.backends.Register(name, func(map[string]any) (Backend, error) { return b, nil }); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Solve runs the tool chain of the solver named in opts for instance.
func (a *Adapter) Solve(ctx context.Context, instance string, opts model.SolverOptions) error {
	req := Request{Instance: instance, Options: opts}
	name := opts.Solver
	if name == "" {
		a.log.Warnf("no solver defined for %s, defaulting to %s", req.Instance, DefaultSolver)
		name = DefaultSolver
	}
	b, err := a.backends.Create(factory.ModuleConfig{Type: name})
	if err != nil {
		return fmt.Errorf("%w %q: supported options are %s", ErrUnknownSolver, name, strings.Join(a.backends.Names(), ", "))
	}
	a.log.Infof("solving %s with %s", req.Instance, name)
	return b.Solve(ctx, req)
}

func (a *Adapter) run(ctx context.Context, step, name string, args ...string) error {
	a.log.Debugw("solver step", map[string]any{"step": step, "cmd": name, "args": strings.Join(args, " ")})
	if err := a.exec.Run(ctx, a.cfg.WorkDir, name, args...); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSolverFailed, step, err)
	}
	return nil
}

func (a *Adapter) path(name string) string { return filepath.Join(a.cfg.WorkDir, name) }

func (a *Adapter) modelArgs(extra ...string) []string {
	args := []string{"--model", a.cfg.ModelFile, "-d", a.cfg.DataFile}
	args = append(args, extra...)
	return append(args, a.cfg.ExtraArgs...)
}

// contains reports whether the file in the work directory holds marker.
func (a *Adapter) contains(file, marker string) (bool, error) {
	b, err := os.ReadFile(a.path(file))
	if err != nil {
		return false, err
	}
	return bytes.Contains(b, []byte(marker)), nil
}
