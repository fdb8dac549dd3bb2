// Package solvedata writes the per-instance files the optimization model
// reads before every solve.
package solvedata

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/IRENA-FlexTool/FlexTool/core/logger"
	"github.com/IRENA-FlexTool/FlexTool/core/model"
	"github.com/IRENA-FlexTool/FlexTool/core/timeline"
)

// Paths locates the directories the writer fills.
type Paths struct {
	SolveData string `json:"solve_data"`
	Input     string `json:"input"`
	Output    string `json:"output"`
}

// SetDefaults fills empty directories with the model's conventional layout.
func (p *Paths) SetDefaults() {
	if p.SolveData == "" {
		p.SolveData = "solve_data"
	}
	if p.Input == "" {
		p.Input = "input"
	}
	if p.Output == "" {
		p.Output = "output"
	}
}

// Writer produces the solve data of one instance at a time.
type Writer struct {
	paths Paths
	reg   *timeline.Registry
	cat   *model.Catalog
	log   logger.Logger
}

// NewWriter returns a Writer. Directories are created on first use.
func NewWriter(paths Paths, reg *timeline.Registry, cat *model.Catalog, log logger.Logger) *Writer {
	paths.SetDefaults()
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Writer{paths: paths, reg: reg, cat: cat, log: log}
}

// Write replaces the solve data with the files of inst. history is the period
// history of the instance's parent solve.
func (w *Writer) Write(inst model.SolveInstance, history []model.PeriodYears, pos model.RunPosition) error {
	parent, ok := w.cat.Solve(inst.Parent)
	if !ok {
		return fmt.Errorf("instance %s: unknown parent solve %s", inst.Name, inst.Parent)
	}
	for _, dir := range []string{w.paths.SolveData, w.paths.Input} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	files := []struct {
		name   string
		header []string
		rows   [][]string
	}{
		{"steps_in_timeline.csv", []string{"period", "step"}, w.timelineRows(parent)},
		{"steps_in_use.csv", []string{"period", "step", "step_duration"}, activeRows(inst.Active)},
		{"step_previous.csv", []string{"period", "time", "previous", "previous_within_block", "previous_period", "previous_within_solve", "jump"}, jumpRows(inst.Jumps)},
		{"period_with_history.csv", []string{"period", "param"}, periodYearRows(history)},
		{"invest_realized_periods_of_current_solve.csv", []string{"period"}, single(parent.InvestRealizedPeriods)},
		{"invest_periods_of_current_solve.csv", []string{"period"}, single(parent.InvestPeriods)},
		{"p_years_represented.csv", []string{"period", "years_from_solve", "p_years_from_solve", "p_years_represented"}, yearsRepresentedRows(parent.YearsRepresented)},
		{"p_discount_years.csv", []string{"period", "param"}, periodYearRows(parent.YearsRepresented)},
		{"solve_current.csv", []string{"solve"}, [][]string{{inst.Name}}},
		{"first_timesteps.csv", []string{"period", "step"}, edgeRows(inst.Active, true)},
		{"last_timesteps.csv", []string{"period", "step"}, edgeRows(inst.Active, false)},
		{"realized_dispatch.csv", []string{"period", "step"}, stepRows(inst.Realized, parent.RealizedPeriods)},
		{"fix_storage_timesteps.csv", []string{"period", "step"}, stepRows(inst.FixStorage, parent.FixStoragePeriods)},
	}
	for _, f := range files {
		if err := writeCSV(filepath.Join(w.paths.SolveData, f.name), f.header, f.rows); err != nil {
			return fmt.Errorf("instance %s: %w", inst.Name, err)
		}
	}
	if err := writeCSV(filepath.Join(w.paths.Input, "p_model.csv"), []string{"modelParam", "p_model"}, [][]string{
		{"solveFirst", flag(pos.First)},
		{"solveLast", flag(pos.Last)},
	}); err != nil {
		return err
	}
	if pos.First {
		if err := w.writeInitialState(); err != nil {
			return err
		}
	}
	w.log.Debugw("solve data written", map[string]any{"instance": inst.Name, "parent": inst.Parent, "steps": inst.Active.Len()})
	return nil
}

// writeInitialState writes the header-only investment, storage and cost
// files the first solve starts from.
func (w *Writer) writeInitialState() error {
	if err := os.MkdirAll(w.paths.Output, 0o755); err != nil {
		return err
	}
	headers := map[string]string{
		filepath.Join(w.paths.SolveData, "p_entity_invested.csv"):                 "entity,p_entity_invested",
		filepath.Join(w.paths.SolveData, "p_entity_divested.csv"):                 "entity,p_entity_divested",
		filepath.Join(w.paths.SolveData, "p_entity_period_existing_capacity.csv"): "entity,period,p_entity_period_existing_capacity,p_entity_period_invested_capacity",
		filepath.Join(w.paths.SolveData, "fix_storage_price.csv"):                 "node, period, step, ndt_fix_storage_price",
		filepath.Join(w.paths.SolveData, "fix_storage_quantity.csv"):              "node, period, step, ndt_fix_storage_quantity",
		filepath.Join(w.paths.Output, "costs_discounted.csv"):                     "param_costs,costs_discounted",
	}
	for path, h := range headers {
		if err := os.WriteFile(path, []byte(h+"\n"), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) timelineRows(parent *model.SolveSpec) [][]string {
	var rows [][]string
	for _, b := range parent.Bindings {
		name, ok := w.reg.TimelineOf(b.Timeblock)
		if !ok {
			continue
		}
		tl, _ := w.reg.Timeline(name)
		for _, s := range tl.Steps {
			rows = append(rows, []string{b.Period, s.ID})
		}
	}
	return rows
}

func writeCSV(path string, header []string, rows [][]string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	cw := csv.NewWriter(f)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

func activeRows(at model.ActiveTime) [][]string {
	var rows [][]string
	for _, r := range at.Flatten() {
		rows = append(rows, []string{r.Period, r.Step, formatFloat(r.Duration)})
	}
	return rows
}

func jumpRows(jumps []model.StepJump) [][]string {
	rows := make([][]string, len(jumps))
	for i, j := range jumps {
		rows[i] = []string{j.Period, j.Step, j.Previous, j.PreviousWithinBlock, j.PreviousPeriod, j.PreviousWithinSolve, strconv.Itoa(j.Jump)}
	}
	return rows
}

// periodYearRows lists each period with the years elapsed before it.
func periodYearRows(recs []model.PeriodYears) [][]string {
	var rows [][]string
	elapsed := 0.0
	for _, r := range recs {
		rows = append(rows, []string{r.Period, formatFloat(elapsed)})
		elapsed += r.Years
	}
	return rows
}

// yearsRepresentedRows expands every period into one row per represented
// year; a period shorter than a year yields a single fractional row.
func yearsRepresentedRows(recs []model.PeriodYears) [][]string {
	var rows [][]string
	count := 0.0
	for _, r := range recs {
		n := int(math.Max(1, r.Years))
		cover := math.Min(1, r.Years)
		for i := 0; i < n; i++ {
			c := formatFloat(count)
			rows = append(rows, []string{r.Period, "y" + c, c, formatFloat(cover)})
			count += cover
		}
	}
	return rows
}

func edgeRows(at model.ActiveTime, first bool) [][]string {
	var rows [][]string
	for _, p := range at {
		if len(p.Steps) == 0 {
			continue
		}
		s := p.Steps[len(p.Steps)-1]
		if first {
			s = p.Steps[0]
		}
		rows = append(rows, []string{p.Period, s.Step})
	}
	return rows
}

func stepRows(at model.ActiveTime, periods []string) [][]string {
	keep := make(map[string]bool, len(periods))
	for _, p := range periods {
		keep[p] = true
	}
	var rows [][]string
	for _, r := range at.Flatten() {
		if keep[r.Period] {
			rows = append(rows, []string{r.Period, r.Step})
		}
	}
	return rows
}

func single(values []string) [][]string {
	rows := make([][]string, len(values))
	for i, v := range values {
		rows[i] = []string{v}
	}
	return rows
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
