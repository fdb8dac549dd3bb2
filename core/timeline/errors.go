package timeline

import "errors"

// ErrConfiguration is the root of every timeline configuration error. Callers
// treat it as fatal for the whole run.
var ErrConfiguration = errors.New("timeline configuration error")

var (
	ErrDisconnectedTimeline = wrap("solve could not connect to any timeline")
	ErrUnknownTimeline      = wrap("unknown timeline")
	ErrUnknownTimeblock     = wrap("unknown timeblock")
	ErrUnboundTimeblock     = wrap("timeblock is not bound to a timeline")
	ErrStepNotFound         = wrap("step not found in timeline")
	ErrBlockOutOfRange      = wrap("block runs past the end of its timeline")
	ErrNonMonotonic         = wrap("step indices are not increasing within period")
	ErrDuplicateStep        = wrap("duplicate step in timeline")
	ErrInvalidDuration      = wrap("step duration must be positive")
	ErrInvalidLength        = wrap("block length must be positive")
)

type configError struct{ msg string }

func (e *configError) Error() string { return e.msg }

func (e *configError) Unwrap() error { return ErrConfiguration }

func wrap(msg string) error { return &configError{msg: msg} }
