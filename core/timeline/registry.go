package timeline

import (
	"fmt"
	"math"

	"github.com/IRENA-FlexTool/FlexTool/core/model"
)

// Registry holds the timelines and timeblocks of a run. It is built once and
// only read afterwards.
type Registry struct {
	order      []string
	timelines  map[string]model.Timeline
	positions  map[string]map[string]int
	timeblocks map[string]model.Timeblock
	bindings   map[string]string
}

// NewRegistry validates and indexes the given definitions. bindings maps a
// timeblock to its timeline.
func NewRegistry(timelines []model.Timeline, timeblocks []model.Timeblock, bindings map[string]string) (*Registry, error) {
	r := &Registry{
		timelines:  make(map[string]model.Timeline, len(timelines)),
		positions:  make(map[string]map[string]int, len(timelines)),
		timeblocks: make(map[string]model.Timeblock, len(timeblocks)),
		bindings:   make(map[string]string, len(bindings)),
	}
	for _, tl := range timelines {
		pos := make(map[string]int, len(tl.Steps))
		for i, s := range tl.Steps {
			if _, dup := pos[s.ID]; dup {
				return nil, fmt.Errorf("%w: %s in %s", ErrDuplicateStep, s.ID, tl.Name)
			}
			if !(s.Duration > 0) || math.IsInf(s.Duration, 0) {
				return nil, fmt.Errorf("%w: %s/%s has %v", ErrInvalidDuration, tl.Name, s.ID, s.Duration)
			}
			pos[s.ID] = i
		}
		if _, ok := r.timelines[tl.Name]; !ok {
			r.order = append(r.order, tl.Name)
		}
		r.timelines[tl.Name] = tl
		r.positions[tl.Name] = pos
	}
	for _, tb := range timeblocks {
		for _, b := range tb.Blocks {
			if !(b.Length > 0) {
				return nil, fmt.Errorf("%w: %s starting at %s", ErrInvalidLength, tb.Name, b.Start)
			}
		}
		r.timeblocks[tb.Name] = tb
	}
	for tb, tl := range bindings {
		if _, ok := r.timelines[tl]; !ok {
			return nil, fmt.Errorf("%w: %s bound to %s", ErrUnknownTimeline, tb, tl)
		}
		r.bindings[tb] = tl
	}
	return r, nil
}

// Timelines returns the timeline names in load order.
func (r *Registry) Timelines() []string {
	return append([]string(nil), r.order...)
}

// Timeline returns the named timeline.
func (r *Registry) Timeline(name string) (model.Timeline, bool) {
	tl, ok := r.timelines[name]
	return tl, ok
}

// Timeblock returns the named timeblock.
func (r *Registry) Timeblock(name string) (model.Timeblock, bool) {
	tb, ok := r.timeblocks[name]
	return tb, ok
}

// TimelineOf returns the timeline a timeblock is bound to.
func (r *Registry) TimelineOf(timeblock string) (string, bool) {
	tl, ok := r.bindings[timeblock]
	return tl, ok
}

// StepIndex returns the position of step within the timeline.
func (r *Registry) StepIndex(timeline, step string) (int, bool) {
	pos, ok := r.positions[timeline]
	if !ok {
		return 0, false
	}
	i, ok := pos[step]
	return i, ok
}
