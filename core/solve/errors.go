package solve

import "errors"

var (
	// ErrUnknownSolve is returned when a solve name has no definition.
	ErrUnknownSolve = errors.New("unknown solve")
	// ErrIncludeCycle is returned when solves include each other.
	ErrIncludeCycle = errors.New("solve inclusion cycle")
	// ErrNoModel is returned when no model lists any solve.
	ErrNoModel = errors.New("no model defined")
	// ErrNoSolves is returned when the model has an empty solve list.
	ErrNoSolves = errors.New("no solves in model")
	// ErrMultipleModels is returned when more than one model is declared.
	ErrMultipleModels = errors.New("more than one model is not supported")
)
