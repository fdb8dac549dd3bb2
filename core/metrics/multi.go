package metrics

import "errors"

// MultiSink forwards to several sinks.
type MultiSink struct {
	Sinks []Sink
}

// NewMultiSink returns a MultiSink over sinks.
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordSolve forwards to every sink and joins their errors.
func (m *MultiSink) RecordSolve(r SolveResult) error {
	var errs []error
	for _, s := range m.Sinks {
		if err := s.RecordSolve(r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RecordRun forwards to the sinks implementing RunRecorder.
func (m *MultiSink) RecordRun(sum RunSummary) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(RunRecorder); ok {
			if err := rec.RecordRun(sum); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink holding resources.
func (m *MultiSink) Close() {
	for _, s := range m.Sinks {
		Close(s)
	}
}

// Close releases s when it has a Close method.
func Close(s Sink) {
	switch c := s.(type) {
	case interface{ Close() error }:
		_ = c.Close()
	case interface{ Close() }:
		c.Close()
	}
}
