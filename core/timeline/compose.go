package timeline

import (
	"fmt"
	"math"

	"github.com/IRENA-FlexTool/FlexTool/core/model"
)

// Compose expands the period bindings of a solve into its active window.
// Every block of a bound timeblock contributes ceil(length) consecutive steps
// of the timeblock's timeline; blocks mapped to the same period are appended
// in binding order.
func Compose(reg *Registry, solve string, bindings []model.PeriodBinding) (model.ActiveTime, error) {
	var at model.ActiveTime
	slot := make(map[string]int)
	for _, b := range bindings {
		steps, err := expand(reg, b.Timeblock)
		if err != nil {
			return nil, fmt.Errorf("solve %s period %s: %w", solve, b.Period, err)
		}
		i, ok := slot[b.Period]
		if !ok {
			i = len(at)
			slot[b.Period] = i
			at = append(at, model.PeriodSteps{Period: b.Period})
		}
		at[i].Steps = append(at[i].Steps, steps...)
	}
	if at.Len() == 0 {
		return nil, fmt.Errorf("%w: %s", ErrDisconnectedTimeline, solve)
	}
	for _, p := range at {
		for j := 1; j < len(p.Steps); j++ {
			prev, cur := p.Steps[j-1], p.Steps[j]
			if cur.Index <= prev.Index {
				return nil, fmt.Errorf("%w: solve %s period %s at %s", ErrNonMonotonic, solve, p.Period, cur.Step)
			}
		}
	}
	return at, nil
}

func expand(reg *Registry, timeblock string) ([]model.ActiveStep, error) {
	tb, ok := reg.Timeblock(timeblock)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTimeblock, timeblock)
	}
	name, ok := reg.TimelineOf(timeblock)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnboundTimeblock, timeblock)
	}
	tl, _ := reg.Timeline(name)
	var out []model.ActiveStep
	for _, blk := range tb.Blocks {
		start, ok := reg.StepIndex(name, blk.Start)
		if !ok {
			return nil, fmt.Errorf("%w: %s in %s", ErrStepNotFound, blk.Start, name)
		}
		n := int(math.Ceil(blk.Length))
		if start+n > len(tl.Steps) {
			return nil, fmt.Errorf("%w: %s needs %d steps from %s", ErrBlockOutOfRange, timeblock, n, blk.Start)
		}
		for k := start; k < start+n; k++ {
			s := tl.Steps[k]
			out = append(out, model.ActiveStep{Step: s.ID, Index: k, Duration: s.Duration, Timeline: name})
		}
	}
	return out, nil
}
