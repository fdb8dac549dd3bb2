// Package rolling splits an active window into overlapping rolling solves.
package rolling

import (
	"errors"
	"fmt"
	"math"

	"github.com/IRENA-FlexTool/FlexTool/core/model"
	"github.com/IRENA-FlexTool/FlexTool/core/timeline"
)

var (
	// ErrMalformedRolling is returned for non-positive or inconsistent rolling parameters.
	ErrMalformedRolling = errors.New("malformed rolling parameters")
	// ErrAnchorNotFound is returned when the start anchor is not part of the window.
	ErrAnchorNotFound = errors.New("rolling start not found in active window")
)

// Anchor designates the step the first roll starts at. An empty Period
// matches the first occurrence of Step in any period.
type Anchor struct {
	Period string
	Step   string
}

// Params control a partition. Jump, Horizon and Duration are expressed in
// step duration units; a zero Duration rolls over the whole window.
type Params struct {
	Jump     float64
	Horizon  float64
	Duration float64
	Anchor   *Anchor
}

// Validate rejects parameters the partitioner cannot work with. A horizon
// shorter than the jump is rejected as the realized window would outgrow the
// active one.
func (p Params) Validate() error {
	switch {
	case !(p.Jump > 0) || math.IsInf(p.Jump, 0):
		return fmt.Errorf("%w: jump %v", ErrMalformedRolling, p.Jump)
	case !(p.Horizon > 0) || math.IsInf(p.Horizon, 0):
		return fmt.Errorf("%w: horizon %v", ErrMalformedRolling, p.Horizon)
	case p.Horizon < p.Jump:
		return fmt.Errorf("%w: horizon %v shorter than jump %v", ErrMalformedRolling, p.Horizon, p.Jump)
	case p.Duration < 0 || math.IsNaN(p.Duration):
		return fmt.Errorf("%w: duration %v", ErrMalformedRolling, p.Duration)
	}
	return nil
}

// Roll is one rolling solve of a partition.
type Roll struct {
	Name     string
	Active   model.ActiveTime
	Realized model.ActiveTime
	Jumps    []model.StepJump
}

// Partition walks the window once and cuts it into rolls named
// <name>_roll_<k>. A roll starts every time the elapsed duration since the
// previous start reaches the jump; its active window ends once the horizon is
// covered and its realized window ends where the next roll starts. The jump
// and horizon counters carry their residual over and are both decremented by
// the jump, so consecutive active windows overlap by horizon-jump.
func Partition(name string, at model.ActiveTime, p Params) ([]Roll, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	flat := at.Flatten()
	first, err := startPosition(flat, p.Anchor)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	starts := []int{first}
	var jumpEnds, horizonEnds []int
	d := flat[first].Duration
	elapsed, horizon, jump := d, d, d
	stop := len(flat)
	for i := first + 1; i < len(flat); i++ {
		if p.Duration > 0 && elapsed >= p.Duration {
			stop = i
			break
		}
		if jump >= p.Jump {
			jumpEnds = append(jumpEnds, i)
			starts = append(starts, i)
			jump -= p.Jump
		}
		if horizon >= p.Horizon {
			horizonEnds = append(horizonEnds, i)
			horizon -= p.Jump
		}
		d = flat[i].Duration
		elapsed += d
		horizon += d
		jump += d
	}
	// Rolls still open when the walk ends close at the stop position.
	for len(jumpEnds) < len(starts) {
		jumpEnds = append(jumpEnds, stop)
	}
	for len(horizonEnds) < len(starts) {
		horizonEnds = append(horizonEnds, stop)
	}

	rolls := make([]Roll, len(starts))
	for k, s := range starts {
		active := model.Group(flat[s:max(horizonEnds[k], s+1)])
		rolls[k] = Roll{
			Name:     fmt.Sprintf("%s_roll_%d", name, k),
			Active:   active,
			Realized: model.Group(flat[s:max(jumpEnds[k], s+1)]),
			Jumps:    timeline.BuildJumps(active),
		}
	}
	return rolls, nil
}

func startPosition(flat []model.PeriodStep, a *Anchor) (int, error) {
	if len(flat) == 0 {
		return 0, fmt.Errorf("%w: empty window", ErrAnchorNotFound)
	}
	if a == nil || a.Step == "" {
		return 0, nil
	}
	for i, s := range flat {
		if s.Step == a.Step && (a.Period == "" || s.Period == a.Period) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %s %s", ErrAnchorNotFound, a.Period, a.Step)
}
