package metrics

import (
	"errors"
	"testing"

	"github.com/IRENA-FlexTool/FlexTool/core/factory"
)

type recordSink struct {
	solves int
	err    error
}

func (r *recordSink) RecordSolve(SolveResult) error {
	r.solves++
	return r.err
}

type runSink struct {
	recordSink
	runs int
}

func (r *runSink) RecordRun(RunSummary) error {
	r.runs++
	return nil
}

func TestMultiSinkForwards(t *testing.T) {
	a := &recordSink{}
	b := &runSink{}
	m := NewMultiSink(a, b)
	if err := m.RecordSolve(SolveResult{Instance: "invest"}); err != nil {
		t.Fatalf("record solve: %v", err)
	}
	if err := m.RecordRun(RunSummary{Instances: 1}); err != nil {
		t.Fatalf("record run: %v", err)
	}
	if a.solves != 1 || b.solves != 1 || b.runs != 1 {
		t.Fatalf("not forwarded: %d %d %d", a.solves, b.solves, b.runs)
	}
}

func TestMultiSinkJoinsErrors(t *testing.T) {
	boom := errors.New("boom")
	ok := &recordSink{}
	m := NewMultiSink(&recordSink{err: boom}, ok)
	if err := m.RecordSolve(SolveResult{}); !errors.Is(err, boom) {
		t.Fatalf("expected boom got %v", err)
	}
	if ok.solves != 1 {
		t.Fatalf("second sink skipped after first error")
	}
}

func TestNewSink(t *testing.T) {
	if err := RegisterSink("test-record", func(map[string]any) (Sink, error) { return &recordSink{}, nil }); err != nil {
		t.Fatalf("register: %v", err)
	}
	s, err := NewSink(nil)
	if err != nil {
		t.Fatalf("empty: %v", err)
	}
	if _, ok := s.(NopSink); !ok {
		t.Fatalf("expected NopSink got %T", s)
	}
	s, err = NewSink([]factory.ModuleConfig{{Type: "test-record"}})
	if err != nil {
		t.Fatalf("single: %v", err)
	}
	if _, ok := s.(*recordSink); !ok {
		t.Fatalf("expected recordSink got %T", s)
	}
	s, err = NewSink([]factory.ModuleConfig{{Type: "test-record"}, {Type: "test-record"}})
	if err != nil {
		t.Fatalf("multi: %v", err)
	}
	if m, ok := s.(*MultiSink); !ok || len(m.Sinks) != 2 {
		t.Fatalf("expected MultiSink of 2 got %T", s)
	}
	if _, err := NewSink([]factory.ModuleConfig{{Type: "missing"}}); !errors.Is(err, factory.ErrUnknownType) {
		t.Fatalf("expected unknown type got %v", err)
	}
}

type closingSink struct {
	recordSink
	closed bool
}

func (c *closingSink) Close() { c.closed = true }

func TestMultiSinkClose(t *testing.T) {
	a, b := &closingSink{}, &recordSink{}
	NewMultiSink(a, b).Close()
	if !a.closed {
		t.Fatal("expected closable sink to be closed")
	}
	Close(NopSink{})
}
