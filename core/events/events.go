// Package events defines the run lifecycle events published while a plan
// executes.
package events

import (
	"fmt"
	"time"
)

// Kind identifies a lifecycle step.
type Kind int

const (
	RunStarted Kind = iota
	SolveStarted
	SolveFinished
	RunFinished
)

func (k Kind) String() string {
	switch k {
	case RunStarted:
		return "run_started"
	case SolveStarted:
		return "solve_started"
	case SolveFinished:
		return "solve_finished"
	case RunFinished:
		return "run_finished"
	}
	return "unknown"
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText decodes a kind name.
func (k *Kind) UnmarshalText(b []byte) error {
	for c := RunStarted; c <= RunFinished; c++ {
		if c.String() == string(b) {
			*k = c
			return nil
		}
	}
	return fmt.Errorf("unknown event kind %q", b)
}

// SolveEvent reports progress of one run. Instance fields are empty for run
// level events; on RunFinished, Index counts the executed instances.
type SolveEvent struct {
	Kind     Kind          `json:"event"`
	RunID    string        `json:"run_id"`
	Index    int           `json:"index"`
	Total    int           `json:"total"`
	Instance string        `json:"instance,omitempty"`
	Parent   string        `json:"parent,omitempty"`
	Solver   string        `json:"solver,omitempty"`
	Err      string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
	Time     time.Time     `json:"time"`

	ActiveSteps   int `json:"active_steps,omitempty"`
	RealizedSteps int `json:"realized_steps,omitempty"`
}

// Failed reports whether the event carries an error.
func (e SolveEvent) Failed() bool { return e.Err != "" }
