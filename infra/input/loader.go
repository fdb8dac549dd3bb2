// Package input reads the tabular solve definitions exported by the model
// front end.
package input

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/IRENA-FlexTool/FlexTool/core/logger"
	"github.com/IRENA-FlexTool/FlexTool/core/model"
	"github.com/IRENA-FlexTool/FlexTool/core/timeline"
)

// File names inside the input directory.
const (
	TimelineFile          = "timeline.csv"
	TimeblocksFile        = "timeblocks.csv"
	TimeblockTimelineFile = "timeblocks__timeline.csv"
	TimeblocksInUseFile   = "timeblocks_in_use.csv"
	SolveModeFile         = "solve_mode.csv"
	RollingTimesFile      = "solve__rolling_times.csv"
	IncludeSolveFile      = "solve__include_solve.csv"
	InvestPeriodFile      = "solve__invest_period.csv"
	RealizedPeriodFile    = "solve__realized_period.csv"
	InvestRealizedFile    = "solve__invest_realized_period.csv"
	FixStoragePeriodFile  = "solve__fix_storage_period.csv"
	YearsRepresentedFile  = "solve__period__years_represented.csv"
	ModelSolveFile        = "model__solve.csv"
	SolverFile            = "solver.csv"
	SolverPrecommandFile  = "solver_precommand.csv"
	SolverArgumentsFile   = "solver_arguments.csv"
)

var required = map[string]bool{
	TimelineFile:          true,
	TimeblocksFile:        true,
	TimeblockTimelineFile: true,
	TimeblocksInUseFile:   true,
	ModelSolveFile:        true,
}

// Tables is the parsed content of an input directory.
type Tables struct {
	Timelines  []model.Timeline
	Timeblocks []model.Timeblock
	// Bindings maps a timeblock to its timeline. The first row wins.
	Bindings map[string]string
	Catalog  *model.Catalog
}

// Registry builds the timeline registry of the tables.
func (t *Tables) Registry() (*timeline.Registry, error) {
	return timeline.NewRegistry(t.Timelines, t.Timeblocks, t.Bindings)
}

// Loader reads Tables from a directory.
type Loader struct {
	dir string
	log logger.Logger
}

// NewLoader returns a loader for dir.
func NewLoader(dir string, log logger.Logger) *Loader {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Loader{dir: dir, log: log}
}

// Load reads every table. Optional tables that do not exist are treated as
// empty.
func (l *Loader) Load() (*Tables, error) {
	t := &Tables{Bindings: make(map[string]string), Catalog: model.NewCatalog()}
	steps := []struct {
		file string
		cols int
		fn   func(t *Tables, row []string) error
	}{
		{TimelineFile, 3, addTimelineStep},
		{TimeblocksFile, 3, addBlock},
		{TimeblockTimelineFile, 2, addBinding},
		{TimeblocksInUseFile, 3, addSolveBinding},
		{SolveModeFile, 3, func(t *Tables, r []string) error { addSolveMode(t, r, l.log); return nil }},
		{RollingTimesFile, 3, addRollingTime},
		{IncludeSolveFile, 2, func(t *Tables, r []string) error { t.Catalog.AddInclude(r[0], r[1]); return nil }},
		{InvestPeriodFile, 2, periodSet(func(s *model.SolveSpec) *[]string { return &s.InvestPeriods })},
		{RealizedPeriodFile, 2, periodSet(func(s *model.SolveSpec) *[]string { return &s.RealizedPeriods })},
		{InvestRealizedFile, 2, periodSet(func(s *model.SolveSpec) *[]string { return &s.InvestRealizedPeriods })},
		{FixStoragePeriodFile, 2, periodSet(func(s *model.SolveSpec) *[]string { return &s.FixStoragePeriods })},
		{YearsRepresentedFile, 3, addYears},
		{ModelSolveFile, 2, addModelSolve},
		{SolverFile, 2, func(t *Tables, r []string) error { t.Catalog.Ensure(r[0]).Solver.Solver = r[1]; return nil }},
		{SolverPrecommandFile, 2, func(t *Tables, r []string) error { t.Catalog.Ensure(r[0]).Solver.Precommand = r[1]; return nil }},
		{SolverArgumentsFile, 2, func(t *Tables, r []string) error {
			s := t.Catalog.Ensure(r[0])
			s.Solver.Arguments = append(s.Solver.Arguments, r[1])
			return nil
		}},
	}
	for _, st := range steps {
		rows, err := l.read(st.file, st.cols)
		if err != nil {
			return nil, err
		}
		for i, r := range rows {
			if err := st.fn(t, r); err != nil {
				return nil, fmt.Errorf("%s row %d: %w", st.file, i+1, err)
			}
		}
	}
	l.log.Infof("loaded %d timelines, %d timeblocks and %d solves from %s",
		len(t.Timelines), len(t.Timeblocks), len(t.Catalog.Solves), l.dir)
	return t, nil
}

func (l *Loader) read(name string, cols int) ([][]string, error) {
	path := filepath.Join(l.dir, name)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required[name] {
			l.log.Debugf("optional input %s missing", name)
			return nil, nil
		}
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer func() { _ = f.Close() }()
	return ReadRows(f, name, cols)
}

// ReadRows reads a headed CSV table and returns its data rows. Every row must
// have at least cols fields.
func ReadRows(r io.Reader, name string, cols int) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	if _, err := cr.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s header: %w", name, err)
	}
	var rows [][]string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		if len(rec) < cols {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("%s line %d: expected %d columns, got %d", name, line, cols, len(rec))
		}
		for i := range rec {
			rec[i] = strings.TrimSpace(rec[i])
		}
		rows = append(rows, rec)
	}
	return rows, nil
}

func parseFloat(field, v string) (float64, error) {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s %q: %w", field, v, err)
	}
	return f, nil
}

func addTimelineStep(t *Tables, r []string) error {
	d, err := parseFloat("duration", r[2])
	if err != nil {
		return err
	}
	step := model.Step{ID: r[1], Duration: d}
	for i := range t.Timelines {
		if t.Timelines[i].Name == r[0] {
			t.Timelines[i].Steps = append(t.Timelines[i].Steps, step)
			return nil
		}
	}
	t.Timelines = append(t.Timelines, model.Timeline{Name: r[0], Steps: []model.Step{step}})
	return nil
}

func addBlock(t *Tables, r []string) error {
	n, err := parseFloat("length", r[2])
	if err != nil {
		return err
	}
	blk := model.Block{Start: r[1], Length: n}
	for i := range t.Timeblocks {
		if t.Timeblocks[i].Name == r[0] {
			t.Timeblocks[i].Blocks = append(t.Timeblocks[i].Blocks, blk)
			return nil
		}
	}
	t.Timeblocks = append(t.Timeblocks, model.Timeblock{Name: r[0], Blocks: []model.Block{blk}})
	return nil
}

func addBinding(t *Tables, r []string) error {
	if _, ok := t.Bindings[r[0]]; !ok {
		t.Bindings[r[0]] = r[1]
	}
	return nil
}

func addSolveBinding(t *Tables, r []string) error {
	s := t.Catalog.Ensure(r[0])
	s.Bindings = append(s.Bindings, model.PeriodBinding{Period: r[1], Timeblock: r[2]})
	return nil
}

// addSolveMode reads rows of (parameter, solve, value). Any mode other than
// rolling_window is a single solve.
func addSolveMode(t *Tables, r []string, log logger.Logger) {
	s := t.Catalog.Ensure(r[1])
	switch r[0] {
	case "solve_mode":
		switch model.Mode(r[2]) {
		case model.ModeRolling:
			s.Mode = model.ModeRolling
		case model.ModeSingle, "":
			s.Mode = model.ModeSingle
		default:
			log.Warnf("solve %s: unknown solve mode %q, solving it as %s", r[1], r[2], model.ModeSingle)
			s.Mode = model.ModeSingle
		}
	case "highs_presolve":
		s.Solver.HighsPresolve = r[2]
	case "highs_method":
		s.Solver.HighsMethod = r[2]
	case "highs_parallel":
		s.Solver.HighsParallel = r[2]
	}
}

// addRollingTime reads rows of (solve, parameter, value).
func addRollingTime(t *Tables, r []string) error {
	s := t.Catalog.Ensure(r[0])
	var err error
	switch r[1] {
	case "rolling_start_time":
		s.Rolling.Start = r[2]
	case "rolling_duration":
		s.Rolling.Duration, err = parseFloat(r[1], r[2])
	case "rolling_solve_horizon":
		s.Rolling.Horizon, err = parseFloat(r[1], r[2])
	case "rolling_solve_jump":
		s.Rolling.Jump, err = parseFloat(r[1], r[2])
	}
	return err
}

func periodSet(field func(*model.SolveSpec) *[]string) func(*Tables, []string) error {
	return func(t *Tables, r []string) error {
		p := field(t.Catalog.Ensure(r[0]))
		*p = append(*p, r[1])
		return nil
	}
}

func addYears(t *Tables, r []string) error {
	y, err := parseFloat("years", r[2])
	if err != nil {
		return err
	}
	s := t.Catalog.Ensure(r[0])
	s.YearsRepresented = append(s.YearsRepresented, model.PeriodYears{Period: r[1], Years: y})
	return nil
}

func addModelSolve(t *Tables, r []string) error {
	t.Catalog.Ensure(r[1])
	for i := range t.Catalog.Models {
		if t.Catalog.Models[i].Name == r[0] {
			t.Catalog.Models[i].Solves = append(t.Catalog.Models[i].Solves, r[1])
			return nil
		}
	}
	t.Catalog.Models = append(t.Catalog.Models, model.Model{Name: r[0], Solves: []string{r[1]}})
	return nil
}
