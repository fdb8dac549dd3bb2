// Package runlog keeps a durable record of every solve instance a run
// executed.
package runlog

import (
	"context"
	"time"

	"github.com/IRENA-FlexTool/FlexTool/core/factory"
)

// Status of a recorded instance.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Record is one executed solve instance.
type Record struct {
	RunID         string        `json:"run_id"`
	Index         int           `json:"index"`
	Instance      string        `json:"instance"`
	Parent        string        `json:"parent"`
	Solver        string        `json:"solver"`
	Status        string        `json:"status"`
	Error         string        `json:"error,omitempty"`
	Started       time.Time     `json:"started"`
	Duration      time.Duration `json:"duration"`
	ActiveSteps   int           `json:"active_steps"`
	RealizedSteps int           `json:"realized_steps"`
}

// Query filters records. Zero fields match everything.
type Query struct {
	RunID  string
	Parent string
	Status string
	Since  time.Time
}

// Match reports whether r passes every filter of q.
func (q Query) Match(r Record) bool {
	switch {
	case q.RunID != "" && r.RunID != q.RunID:
		return false
	case q.Parent != "" && r.Parent != q.Parent:
		return false
	case q.Status != "" && r.Status != q.Status:
		return false
	case !q.Since.IsZero() && r.Started.Before(q.Since):
		return false
	}
	return true
}

// Store persists run records.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}

// NopStore discards records.
type NopStore struct{}

func (NopStore) Append(context.Context, Record) error           { return nil }
func (NopStore) Query(context.Context, Query) ([]Record, error) { return nil, nil }
func (NopStore) Close() error                                   { return nil }

// StoreConfig holds the settings shared by the file and database stores.
type StoreConfig struct {
	Path       string `json:"path"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAgeDays int    `json:"max_age_days"`
}

var stores = factory.NewRegistry[Store]()

func init() {
	_ = stores.Register("jsonl", func(conf map[string]any) (Store, error) {
		var c StoreConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewJSONLStore(c.Path)
	})
	_ = stores.Register("jsonl_rotating", func(conf map[string]any) (Store, error) {
		c := StoreConfig{MaxSizeMB: 10, MaxBackups: 3, MaxAgeDays: 28}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewRotatingJSONLStore(c.Path, c.MaxSizeMB, c.MaxBackups, c.MaxAgeDays)
	})
	_ = stores.Register("sqlite", func(conf map[string]any) (Store, error) {
		var c StoreConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewSQLiteStore(c.Path)
	})
}

// NewStore builds the store named by cfg.Type. An empty type disables the
// run log.
func NewStore(cfg factory.ModuleConfig) (Store, error) {
	if cfg.Type == "" {
		return NopStore{}, nil
	}
	return stores.Create(cfg)
}
