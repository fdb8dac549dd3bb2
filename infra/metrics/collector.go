package metrics

import (
	"context"

	"github.com/IRENA-FlexTool/FlexTool/core/events"
	"github.com/IRENA-FlexTool/FlexTool/core/logger"
	coremetrics "github.com/IRENA-FlexTool/FlexTool/core/metrics"
	"github.com/IRENA-FlexTool/FlexTool/core/runlog"
	"github.com/IRENA-FlexTool/FlexTool/internal/eventbus"
)

// StartEventCollector feeds finished solves and runs from bus into sink
// until ctx ends or the bus closes. The returned channel is closed when the
// collector stops.
func StartEventCollector(ctx context.Context, bus *eventbus.TypedBus[events.SolveEvent], sink coremetrics.Sink, log logger.Logger) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || sink == nil {
		close(done)
		return done
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	sub := bus.Subscribe()
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				if err := record(sink, ev); err != nil {
					log.Warnf("metrics: %s %s: %v", ev.Kind, ev.Instance, err)
				}
			}
		}
	}()
	return done
}

func record(sink coremetrics.Sink, ev events.SolveEvent) error {
	switch ev.Kind {
	case events.SolveFinished:
		status := runlog.StatusOK
		if ev.Failed() {
			status = runlog.StatusFailed
		}
		return sink.RecordSolve(coremetrics.SolveResult{
			RunID:         ev.RunID,
			Instance:      ev.Instance,
			Parent:        ev.Parent,
			Solver:        ev.Solver,
			Status:        status,
			Duration:      ev.Duration,
			ActiveSteps:   ev.ActiveSteps,
			RealizedSteps: ev.RealizedSteps,
			Time:          ev.Time,
		})
	case events.RunFinished:
		rec, ok := sink.(coremetrics.RunRecorder)
		if !ok {
			return nil
		}
		failed := 0
		if ev.Failed() {
			failed = 1
		}
		return rec.RecordRun(coremetrics.RunSummary{
			RunID:     ev.RunID,
			Instances: ev.Index,
			Failed:    failed,
			Duration:  ev.Duration,
			Time:      ev.Time,
		})
	}
	return nil
}
