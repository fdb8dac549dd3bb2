package model

import "sort"

// Mode selects how a solve is decomposed in time.
type Mode string

const (
	// ModeSingle solves the whole active window at once.
	ModeSingle Mode = "single_solve"
	// ModeRolling splits the active window into overlapping rolls.
	ModeRolling Mode = "rolling_window"
)

// RollingTimes are the rolling-horizon parameters of a solve.
type RollingTimes struct {
	// Start is the step the first roll is anchored to. Empty means the first
	// active step.
	Start    string  `json:"rolling_start_time"`
	Jump     float64 `json:"rolling_solve_jump"`
	Horizon  float64 `json:"rolling_solve_horizon"`
	Duration float64 `json:"rolling_duration"`
}

// SolverOptions configure the external solver of a solve.
type SolverOptions struct {
	Solver        string   `json:"solver"`
	Precommand    string   `json:"precommand"`
	Arguments     []string `json:"arguments"`
	HighsPresolve string   `json:"highs_presolve"`
	HighsMethod   string   `json:"highs_method"`
	HighsParallel string   `json:"highs_parallel"`
}

// PeriodYears is the number of years a period represents.
type PeriodYears struct {
	Period string  `json:"period"`
	Years  float64 `json:"years"`
}

// SolveSpec is the declarative definition of a solve.
type SolveSpec struct {
	Name     string          `json:"name"`
	Mode     Mode            `json:"mode"`
	Bindings []PeriodBinding `json:"bindings"`
	Includes []string        `json:"includes"`
	Rolling  RollingTimes    `json:"rolling"`
	Solver   SolverOptions   `json:"solver"`

	InvestPeriods         []string      `json:"invest_periods"`
	RealizedPeriods       []string      `json:"realized_periods"`
	InvestRealizedPeriods []string      `json:"invest_realized_periods"`
	FixStoragePeriods     []string      `json:"fix_storage_periods"`
	YearsRepresented      []PeriodYears `json:"years_represented"`
}

// IsRolling reports whether the solve uses a rolling window.
func (s *SolveSpec) IsRolling() bool { return s.Mode == ModeRolling }

// CarriedPeriods lists the realized, invest-realized and fix-storage periods
// in that order. Later solves inherit the history of these periods.
func (s *SolveSpec) CarriedPeriods() []string {
	out := make([]string, 0, len(s.RealizedPeriods)+len(s.InvestRealizedPeriods)+len(s.FixStoragePeriods))
	out = append(out, s.RealizedPeriods...)
	out = append(out, s.InvestRealizedPeriods...)
	return append(out, s.FixStoragePeriods...)
}

// SolveInstance is one concrete execution of a solve.
type SolveInstance struct {
	Name string `json:"name"`
	// Parent is the solve definition the instance inherits its parameters from.
	Parent     string     `json:"parent"`
	Active     ActiveTime `json:"active"`
	Jumps      []StepJump `json:"jumps"`
	Realized   ActiveTime `json:"realized"`
	FixStorage ActiveTime `json:"fix_storage"`
}

// RunPosition marks the first and last instance of a run.
type RunPosition struct {
	First bool
	Last  bool
}

// Model lists the top-level solves in execution order.
type Model struct {
	Name   string   `json:"name"`
	Solves []string `json:"solves"`
}

// Include is a row of the solve inclusion table.
type Include struct {
	Solve    string `json:"solve"`
	Included string `json:"included"`
}

// Catalog gathers every solve definition of a run.
type Catalog struct {
	Models   []Model               `json:"models"`
	Solves   map[string]*SolveSpec `json:"solves"`
	Includes []Include             `json:"includes"`
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{Solves: make(map[string]*SolveSpec)}
}

// Solve returns the named spec.
func (c *Catalog) Solve(name string) (*SolveSpec, bool) {
	s, ok := c.Solves[name]
	return s, ok
}

// Ensure returns the named spec, creating a single-solve spec when missing.
func (c *Catalog) Ensure(name string) *SolveSpec {
	if s, ok := c.Solves[name]; ok {
		return s
	}
	s := &SolveSpec{Name: name, Mode: ModeSingle}
	c.Solves[name] = s
	return s
}

// Names returns every solve name sorted alphabetically.
func (c *Catalog) Names() []string {
	out := make([]string, 0, len(c.Solves))
	for n := range c.Solves {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// AddInclude records an inclusion edge on the table and on the parent spec.
func (c *Catalog) AddInclude(solve, included string) {
	c.Includes = append(c.Includes, Include{Solve: solve, Included: included})
	p := c.Ensure(solve)
	p.Includes = append(p.Includes, included)
	c.Ensure(included)
}
