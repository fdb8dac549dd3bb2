package metrics

import (
	"time"

	"github.com/IRENA-FlexTool/FlexTool/core/factory"
)

// SolveResult is the outcome of one solve instance.
type SolveResult struct {
	RunID         string
	Instance      string
	Parent        string
	Solver        string
	Status        string
	Duration      time.Duration
	ActiveSteps   int
	RealizedSteps int
	Time          time.Time
}

// RunSummary closes a run.
type RunSummary struct {
	RunID     string
	Instances int
	Failed    int
	Duration  time.Duration
	Time      time.Time
}

// Sink records solve outcomes.
type Sink interface {
	RecordSolve(r SolveResult) error
}

// RunRecorder is implemented by sinks that also keep run summaries.
type RunRecorder interface {
	RecordRun(s RunSummary) error
}

// NopSink records nothing.
type NopSink struct{}

func (NopSink) RecordSolve(SolveResult) error { return nil }
func (NopSink) RecordRun(RunSummary) error    { return nil }

// Config lists the configured sinks and the Prometheus listen address.
type Config struct {
	Sinks    []factory.ModuleConfig `json:"sinks"`
	PromAddr string                 `json:"prom_addr"`
}

var sinks = factory.NewRegistry[Sink]()

// RegisterSink adds a sink factory under name.
func RegisterSink(name string, f factory.Factory[Sink]) error {
	return sinks.Register(name, f)
}

// NewSink builds the configured sinks. No configuration yields a NopSink.
func NewSink(cfgs []factory.ModuleConfig) (Sink, error) {
	switch len(cfgs) {
	case 0:
		return NopSink{}, nil
	case 1:
		return sinks.Create(cfgs[0])
	}
	out := make([]Sink, len(cfgs))
	for i, c := range cfgs {
		s, err := sinks.Create(c)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return NewMultiSink(out...), nil
}
