package model

// Step is a single entry of a timeline.
type Step struct {
	ID       string  `json:"id"`
	Duration float64 `json:"duration"`
}

// Timeline is an ordered chronology of steps.
type Timeline struct {
	Name  string `json:"name"`
	Steps []Step `json:"steps"`
}

// Block is a contiguous excerpt of a timeline. Fractional lengths are rounded up.
type Block struct {
	Start  string  `json:"start"`
	Length float64 `json:"length"`
}

// Timeblock groups the blocks sampled from the timeline it is bound to.
type Timeblock struct {
	Name   string  `json:"name"`
	Blocks []Block `json:"blocks"`
}

// PeriodBinding assigns a timeblock to a model period within a solve.
type PeriodBinding struct {
	Period    string `json:"period"`
	Timeblock string `json:"timeblock"`
}

// ActiveStep is a timeline step selected for a solve.
type ActiveStep struct {
	Step     string  `json:"step"`
	Index    int     `json:"index"`
	Duration float64 `json:"duration"`
	Timeline string  `json:"timeline"`
}

// PeriodSteps holds the ordered active steps of one period.
type PeriodSteps struct {
	Period string       `json:"period"`
	Steps  []ActiveStep `json:"steps"`
}

// ActiveTime is the active window of a solve: periods in declaration order,
// each with its steps in timeline order.
type ActiveTime []PeriodSteps

// PeriodStep is one row of a flattened ActiveTime.
type PeriodStep struct {
	Period string
	ActiveStep
}

// Len returns the number of steps over all periods.
func (a ActiveTime) Len() int {
	n := 0
	for _, p := range a {
		n += len(p.Steps)
	}
	return n
}

// Periods returns the period names in order.
func (a ActiveTime) Periods() []string {
	out := make([]string, len(a))
	for i, p := range a {
		out[i] = p.Period
	}
	return out
}

// Period returns the steps of the named period.
func (a ActiveTime) Period(name string) ([]ActiveStep, bool) {
	for _, p := range a {
		if p.Period == name {
			return p.Steps, true
		}
	}
	return nil, false
}

// First returns the first step of the window.
func (a ActiveTime) First() (PeriodStep, bool) {
	for _, p := range a {
		if len(p.Steps) > 0 {
			return PeriodStep{Period: p.Period, ActiveStep: p.Steps[0]}, true
		}
	}
	return PeriodStep{}, false
}

// Flatten lists every step of the window in order.
func (a ActiveTime) Flatten() []PeriodStep {
	out := make([]PeriodStep, 0, a.Len())
	for _, p := range a {
		for _, s := range p.Steps {
			out = append(out, PeriodStep{Period: p.Period, ActiveStep: s})
		}
	}
	return out
}

// Group rebuilds an ActiveTime from flattened rows. Consecutive rows of the
// same period are merged; the returned value does not share memory with rows.
func Group(rows []PeriodStep) ActiveTime {
	var out ActiveTime
	for _, r := range rows {
		if n := len(out); n > 0 && out[n-1].Period == r.Period {
			out[n-1].Steps = append(out[n-1].Steps, r.ActiveStep)
			continue
		}
		out = append(out, PeriodSteps{Period: r.Period, Steps: []ActiveStep{r.ActiveStep}})
	}
	return out
}

// StepJump links a step to its predecessors for intertemporal constraints.
type StepJump struct {
	Period              string `json:"period"`
	Step                string `json:"step"`
	Previous            string `json:"previous"`
	PreviousWithinBlock string `json:"previous_within_block"`
	PreviousPeriod      string `json:"previous_period"`
	PreviousWithinSolve string `json:"previous_within_solve"`
	Jump                int    `json:"jump"`
}
