package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/IRENA-FlexTool/FlexTool/core/metrics"
)

func TestInfluxSinkWritesSolvePoint(t *testing.T) {
	var mu sync.Mutex
	var bodies []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		mu.Lock()
		bodies = append(bodies, strings.TrimSpace(string(data)))
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := NewInfluxSink(InfluxConfig{URL: srv.URL + "/api/v2/write", Token: "tok", Org: "org", Bucket: "b"}, nil)
	defer sink.Close()
	now := time.Unix(1700000000, 0)
	res := coremetrics.SolveResult{RunID: "r1", Instance: "invest_dispatch_roll_0", Parent: "dispatch", Solver: "highs", Status: "ok", Duration: 1500 * time.Millisecond, ActiveSteps: 6, RealizedSteps: 4, Time: now}
	if err := sink.RecordSolve(res); err != nil {
		t.Fatalf("record: %v", err)
	}
	sum := coremetrics.RunSummary{RunID: "r1", Instances: 3, Duration: 2 * time.Second, Time: now}
	if err := sink.RecordRun(sum); err != nil {
		t.Fatalf("record run: %v", err)
	}
	want := []string{
		strings.TrimSpace(write.PointToLineProtocol(SolvePoint(res), time.Nanosecond)),
		strings.TrimSpace(write.PointToLineProtocol(RunPoint(sum), time.Nanosecond)),
	}
	mu.Lock()
	defer mu.Unlock()
	if len(bodies) != 2 || bodies[0] != want[0] || bodies[1] != want[1] {
		t.Fatalf("unexpected bodies %q", bodies)
	}
	if !strings.HasPrefix(bodies[0], "solve_instance,") {
		t.Fatalf("unexpected measurement: %s", bodies[0])
	}
}

func TestInfluxFallbackOnFailedHealth(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()
	sink := NewInfluxSinkWithFallback(InfluxConfig{URL: srv.URL, Token: "t", Org: "o", Bucket: "b"}, nil)
	if _, ok := sink.(coremetrics.NopSink); !ok {
		t.Fatalf("expected NopSink got %T", sink)
	}
	if !called {
		t.Fatalf("health endpoint not called")
	}
}

func TestInfluxFallbackKeepsHealthySink(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"influxdb","message":"ready for queries and writes","status":"pass","checks":[]}`))
	}))
	defer srv.Close()
	sink := NewInfluxSinkWithFallback(InfluxConfig{URL: srv.URL, Token: "t", Org: "o", Bucket: "b"}, nil)
	s, ok := sink.(*InfluxSink)
	if !ok {
		t.Fatalf("expected InfluxSink got %T", sink)
	}
	s.Close()
}
