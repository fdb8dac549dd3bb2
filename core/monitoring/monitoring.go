// Package monitoring forwards fatal run errors to an error tracker.
package monitoring

import (
	"sync"
	"time"
)

// Tags annotate a captured error, e.g. run id and solve instance.
type Tags map[string]string

// Monitor reports errors and panics.
type Monitor interface {
	CaptureException(err error, tags Tags)
	Recover()
	Flush(timeout time.Duration)
}

// NopMonitor drops everything.
type NopMonitor struct{}

func (NopMonitor) CaptureException(error, Tags) {}
func (NopMonitor) Recover()                     {}
func (NopMonitor) Flush(time.Duration)          {}

var (
	mu      sync.RWMutex
	current Monitor = NopMonitor{}
)

// Init installs m as the process monitor. nil is ignored.
func Init(m Monitor) {
	if m == nil {
		return
	}
	mu.Lock()
	current = m
	mu.Unlock()
}

// Current returns the installed monitor.
func Current() Monitor {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// CaptureException reports err with tags.
func CaptureException(err error, tags Tags) {
	if err == nil {
		return
	}
	Current().CaptureException(err, tags)
}

// Recover reports a panic and re-panics. Use it deferred.
func Recover() { Current().Recover() }

// Flush waits for buffered reports.
func Flush(d time.Duration) { Current().Flush(d) }
