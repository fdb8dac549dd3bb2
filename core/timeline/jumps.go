package timeline

import "github.com/IRENA-FlexTool/FlexTool/core/model"

// BuildJumps returns the cyclic predecessor table of a window, one entry per
// active step in window order.
//
// Inside a period a step points at the preceding step and records the index
// gap as its jump. A gap larger than one, or a switch to another timeline,
// starts a new block whose first step wraps, within the block, to the block's
// last step. A jump across timelines counts as one. The first step of a period
// points at the last step of the previous period, the first period wrapping to
// the last one.
func BuildJumps(at model.ActiveTime) []model.StepJump {
	out := make([]model.StepJump, 0, at.Len())
	for pi, p := range at {
		if len(p.Steps) == 0 {
			continue
		}
		prevPeriod := previousPeriod(at, pi)
		blockEnd := blockEnds(p.Steps)
		last := p.Steps[len(p.Steps)-1]
		for j, s := range p.Steps {
			e := model.StepJump{Period: p.Period, Step: s.Step}
			if j == 0 {
				tail := prevPeriod.Steps[len(prevPeriod.Steps)-1]
				e.Previous = last.Step
				e.PreviousWithinBlock = p.Steps[blockEnd[0]].Step
				e.PreviousPeriod = prevPeriod.Period
				e.PreviousWithinSolve = tail.Step
				e.Jump = boundaryJump(tail, s)
			} else {
				prev := p.Steps[j-1]
				e.Previous = prev.Step
				e.PreviousWithinBlock = prev.Step
				e.PreviousPeriod = p.Period
				e.PreviousWithinSolve = prev.Step
				e.Jump = s.Index - prev.Index
				if startsBlock(prev, s) {
					e.PreviousWithinBlock = p.Steps[blockEnd[j]].Step
					e.Jump = boundaryJump(prev, s)
				}
			}
			out = append(out, e)
		}
	}
	return out
}

func startsBlock(prev, cur model.ActiveStep) bool {
	return cur.Timeline != prev.Timeline || cur.Index-prev.Index > 1
}

// blockEnds maps the first position of every block to the block's last
// position.
func blockEnds(steps []model.ActiveStep) map[int]int {
	ends := make(map[int]int)
	start := 0
	for j := 1; j <= len(steps); j++ {
		if j == len(steps) || startsBlock(steps[j-1], steps[j]) {
			ends[start] = j - 1
			start = j
		}
	}
	return ends
}

// previousPeriod returns the nearest earlier non-empty period, cycling to the
// end of the window.
func previousPeriod(at model.ActiveTime, i int) model.PeriodSteps {
	for k := 1; k <= len(at); k++ {
		p := at[(i-k+len(at))%len(at)]
		if len(p.Steps) > 0 {
			return p
		}
	}
	return at[i]
}

func boundaryJump(prev, cur model.ActiveStep) int {
	if prev.Timeline == cur.Timeline && cur.Index > prev.Index {
		return cur.Index - prev.Index
	}
	return 1
}
