package solve

import (
	"fmt"

	"github.com/IRENA-FlexTool/FlexTool/core/logger"
	"github.com/IRENA-FlexTool/FlexTool/core/model"
	"github.com/IRENA-FlexTool/FlexTool/core/rolling"
	"github.com/IRENA-FlexTool/FlexTool/core/timeline"
)

// Plan is the complete, ordered schedule of a run.
type Plan struct {
	Model     string
	Order     []string
	Instances []model.SolveInstance
	// History holds the period history of every solve, keyed by solve name.
	History map[string][]model.PeriodYears
}

// HasRolling reports whether any instance belongs to a rolling solve.
func (p *Plan) HasRolling(cat *model.Catalog) bool {
	for _, inst := range p.Instances {
		if spec, ok := cat.Solve(inst.Parent); ok && spec.IsRolling() {
			return true
		}
	}
	return false
}

// BuildPlan checks the whole configuration and resolves every top-level solve
// of the single model. Nothing is executed, so configuration errors surface
// before the first solver call.
func BuildPlan(reg *timeline.Registry, cat *model.Catalog, log logger.Logger) (*Plan, error) {
	switch {
	case len(cat.Models) == 0:
		return nil, ErrNoModel
	case len(cat.Models) > 1:
		names := make([]string, len(cat.Models))
		for i, m := range cat.Models {
			names[i] = m.Name
		}
		return nil, fmt.Errorf("%w: %v", ErrMultipleModels, names)
	}
	m := cat.Models[0]
	if len(m.Solves) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoSolves, m.Name)
	}
	b, err := NewBuilder(reg, cat, log)
	if err != nil {
		return nil, err
	}
	order := ExecutionOrder(m.Solves, cat)
	for _, name := range order {
		spec, ok := cat.Solve(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownSolve, name)
		}
		if !spec.IsRolling() {
			continue
		}
		p := rolling.Params{Jump: spec.Rolling.Jump, Horizon: spec.Rolling.Horizon, Duration: spec.Rolling.Duration}
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("solve %s: %w", name, err)
		}
	}

	plan := &Plan{Model: m.Name, Order: order}
	for _, name := range m.Solves {
		inst, err := b.Resolve(name, "", nil, 0)
		if err != nil {
			return nil, err
		}
		plan.Instances = append(plan.Instances, inst...)
	}
	plan.History = PeriodHistory(order, cat)
	return plan, nil
}
