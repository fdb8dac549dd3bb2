package metrics

import (
	"context"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/IRENA-FlexTool/FlexTool/core/logger"
	coremetrics "github.com/IRENA-FlexTool/FlexTool/core/metrics"
)

// InfluxConfig addresses an InfluxDB v2 bucket.
type InfluxConfig struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
}

// InfluxSink writes solve outcomes as points.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a sink for cfg. The URL may include the write path.
func NewInfluxSink(cfg InfluxConfig, log logger.Logger) *InfluxSink {
	if log == nil {
		log = logger.NopLogger{}
	}
	base := strings.TrimSuffix(cfg.URL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.Token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{client: client, writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket), log: log}
}

// NewInfluxSinkWithFallback returns a NopSink when the instance fails its
// health check.
func NewInfluxSinkWithFallback(cfg InfluxConfig, log logger.Logger) coremetrics.Sink {
	sink := NewInfluxSink(cfg, log)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	switch {
	case err != nil:
		sink.log.Errorf("influx health check: %v", err)
	case health.Status != "pass":
		sink.log.Errorf("influx health status: %s", health.Status)
	default:
		return sink
	}
	sink.client.Close()
	return coremetrics.NopSink{}
}

// SolvePoint is the point written for r.
func SolvePoint(r coremetrics.SolveResult) *write.Point {
	return write.NewPointWithMeasurement("solve_instance").
		AddTag("run_id", r.RunID).
		AddTag("parent", r.Parent).
		AddTag("solver", r.Solver).
		AddTag("status", r.Status).
		AddField("instance", r.Instance).
		AddField("duration_s", r.Duration.Seconds()).
		AddField("active_steps", r.ActiveSteps).
		AddField("realized_steps", r.RealizedSteps).
		SetTime(r.Time)
}

// RunPoint is the point written for a run summary.
func RunPoint(s coremetrics.RunSummary) *write.Point {
	return write.NewPointWithMeasurement("run_summary").
		AddTag("run_id", s.RunID).
		AddField("instances", s.Instances).
		AddField("failed", s.Failed).
		AddField("duration_s", s.Duration.Seconds()).
		SetTime(s.Time)
}

func (s *InfluxSink) RecordSolve(r coremetrics.SolveResult) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, SolvePoint(r))
}

func (s *InfluxSink) RecordRun(sum coremetrics.RunSummary) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, RunPoint(sum))
}

// Close releases the HTTP client.
func (s *InfluxSink) Close() { s.client.Close() }
