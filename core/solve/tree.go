// Package solve turns solve definitions into the ordered list of instances a
// run executes.
package solve

import (
	"fmt"

	"github.com/IRENA-FlexTool/FlexTool/core/logger"
	"github.com/IRENA-FlexTool/FlexTool/core/model"
	"github.com/IRENA-FlexTool/FlexTool/core/rolling"
	"github.com/IRENA-FlexTool/FlexTool/core/timeline"
)

// Builder resolves solve definitions against a timeline registry.
type Builder struct {
	reg *timeline.Registry
	cat *model.Catalog
	log logger.Logger
}

// NewBuilder validates the inclusion graph and returns a Builder.
func NewBuilder(reg *timeline.Registry, cat *model.Catalog, log logger.Logger) (*Builder, error) {
	if reg == nil || cat == nil {
		return nil, fmt.Errorf("solve builder requires a registry and a catalog")
	}
	if err := ValidateIncludes(cat); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Builder{reg: reg, cat: cat, log: log}, nil
}

// Resolve returns the instances of a solve and of everything it includes,
// each instance directly followed by the instances of its children.
//
// prefix is the name of the enclosing instance, empty at the top level.
// anchor and durationCap constrain a rolling solve to the part of time its
// parent commits; a zero durationCap falls back to the solve's own duration.
func (b *Builder) Resolve(name, prefix string, anchor *rolling.Anchor, durationCap float64) ([]model.SolveInstance, error) {
	spec, ok := b.cat.Solve(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSolve, name)
	}
	full, err := timeline.Compose(b.reg, name, spec.Bindings)
	if err != nil {
		return nil, err
	}
	if spec.IsRolling() {
		return b.resolveRolling(spec, composedName(prefix, name), full, anchor, durationCap)
	}

	out := []model.SolveInstance{{
		Name:       name,
		Parent:     name,
		Active:     full,
		Jumps:      timeline.BuildJumps(full),
		Realized:   full,
		FixStorage: full,
	}}
	for _, child := range spec.Includes {
		sub, err := b.Resolve(child, name, nil, 0)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		out = append(out, sub...)
	}
	return out, nil
}

func (b *Builder) resolveRolling(spec *model.SolveSpec, composed string, full model.ActiveTime, anchor *rolling.Anchor, durationCap float64) ([]model.SolveInstance, error) {
	params := rolling.Params{
		Jump:     spec.Rolling.Jump,
		Horizon:  spec.Rolling.Horizon,
		Duration: durationCap,
		Anchor:   anchor,
	}
	if params.Duration == 0 {
		params.Duration = spec.Rolling.Duration
	}
	if params.Anchor == nil && spec.Rolling.Start != "" {
		params.Anchor = &rolling.Anchor{Step: spec.Rolling.Start}
	}
	rolls, err := rolling.Partition(composed, full, params)
	if err != nil {
		return nil, err
	}
	b.log.Debugw("rolling partition", map[string]any{
		"solve":   spec.Name,
		"rolls":   len(rolls),
		"jump":    params.Jump,
		"horizon": params.Horizon,
	})

	var out []model.SolveInstance
	for _, r := range rolls {
		out = append(out, model.SolveInstance{
			Name:       r.Name,
			Parent:     spec.Name,
			Active:     r.Active,
			Jumps:      r.Jumps,
			Realized:   r.Realized,
			FixStorage: r.Realized,
		})
		if len(spec.Includes) == 0 {
			continue
		}
		first, _ := r.Active.First()
		at := &rolling.Anchor{Period: first.Period, Step: first.Step}
		for _, child := range spec.Includes {
			sub, err := b.Resolve(child, r.Name, at, spec.Rolling.Jump)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", r.Name, err)
			}
			out = append(out, sub...)
		}
	}
	return out, nil
}

func composedName(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "_" + name
}
