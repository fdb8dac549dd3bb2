package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/IRENA-FlexTool/FlexTool/infra/postprocess"
)

func writeConfig(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

//nolint:gocyclo
func TestLoad(t *testing.T) {
	path := writeConfig(t, "config.yaml", `paths:
  input: "case/input"
  solve_data: "case/solve_data"
  output: "case/output"
solver:
  work_dir: "case"
  highs: "/opt/highs/bin/highs"
  extra_args: ["--tmlim", "600"]
metrics:
  prom_addr: ":9100"
  sinks:
    - type: "prometheus"
    - type: "influx"
      conf:
        url: "http://localhost:8086"
        bucket: "flextool"
run_log:
  type: "sqlite"
progress:
  enabled: true
  broker: "tcp://localhost:1883"
  topic_prefix: "ft"
sentry:
  environment: "test"
  server_name: "node-1"
postprocess:
  enabled: false
logging:
  level: "debug"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"paths.input", cfg.Paths.Input, "case/input"},
		{"paths.output", cfg.Paths.Output, "case/output"},
		{"solver.work_dir", cfg.Solver.WorkDir, "case"},
		{"solver.highs", cfg.Solver.Highs, "/opt/highs/bin/highs"},
		{"solver.glpsol default", cfg.Solver.Glpsol, "glpsol"},
		{"solver.extra_args", len(cfg.Solver.ExtraArgs), 2},
		{"metrics.prom_addr", cfg.Metrics.PromAddr, ":9100"},
		{"metrics.sinks", len(cfg.Metrics.Sinks), 2},
		{"metrics.influx.bucket", cfg.Metrics.Sinks[1].Conf["bucket"], "flextool"},
		{"run_log.type", cfg.RunLog.Type, "sqlite"},
		{"run_log.path", cfg.RunLog.Conf["path"], filepath.Join("case/output", "solve_runs.db")},
		{"progress.broker", cfg.Progress.Broker, "tcp://localhost:1883"},
		{"progress.status", cfg.Progress.StatusTopic(), "ft/status"},
		{"sentry.server_name", cfg.Sentry.ServerName, "node-1"},
		{"postprocess.enabled", cfg.Postprocess.IsEnabled(), false},
		{"postprocess.groups", len(cfg.Postprocess.Groups), len(postprocess.DefaultGroups())},
		{"logging.level", cfg.Logging.Level, "debug"},
		{"event_buffer", cfg.EventBuffer, 64},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Fatalf("%s: expected %v, got %v", c.name, c.want, c.got)
		}
	}
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Paths.Input != "input" || cfg.Paths.SolveData != "solve_data" {
		t.Fatalf("unexpected paths %+v", cfg.Paths)
	}
	if cfg.RunLog.Type != "jsonl" || cfg.RunLog.Conf["path"] != filepath.Join("output", "solve_runs.jsonl") {
		t.Fatalf("unexpected run log %+v", cfg.RunLog)
	}
	if !cfg.Postprocess.IsEnabled() {
		t.Fatal("postprocess should default to enabled")
	}
	if cfg.Solver.ModelFile != "flexModel3.mod" {
		t.Fatalf("unexpected model file %s", cfg.Solver.ModelFile)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, "config.json", `{"paths": {"input": "a"}}`)
	t.Setenv("K_PATHS__INPUT", "b")
	t.Setenv("K_SOLVER__GLPSOL", "/usr/local/bin/glpsol")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Paths.Input != "b" {
		t.Fatalf("expected env override, got %s", cfg.Paths.Input)
	}
	if cfg.Solver.Glpsol != "/usr/local/bin/glpsol" {
		t.Fatalf("expected glpsol override, got %s", cfg.Solver.Glpsol)
	}
}

func TestRunLogNone(t *testing.T) {
	path := writeConfig(t, "config.yaml", "run_log:\n  type: none\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.RunLogConfig().Type != "" {
		t.Fatalf("expected disabled run log, got %+v", cfg.RunLogConfig())
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"format":    "ignored",
		"level":     "logging:\n  level: loud\n",
		"sentry":    "sentry:\n  traces_sample_rate: 2\n",
		"method":    "postprocess:\n  groups:\n    - key: node__period\n      method: median\n",
		"duplicate": "postprocess:\n  groups:\n    - {key: a, method: sum}\n    - {key: a, method: mean}\n",
		"progress":  "progress:\n  enabled: true\n",
	}
	for name, data := range cases {
		file := "config.yaml"
		if name == "format" {
			file = "config.toml"
		}
		if _, err := Load(writeConfig(t, file, data)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}
