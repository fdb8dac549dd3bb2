package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/IRENA-FlexTool/FlexTool/core/factory"
	coremetrics "github.com/IRENA-FlexTool/FlexTool/core/metrics"
	"github.com/IRENA-FlexTool/FlexTool/infra/logger"
	"github.com/IRENA-FlexTool/FlexTool/infra/mqtt"
	"github.com/IRENA-FlexTool/FlexTool/infra/solvedata"
	"github.com/IRENA-FlexTool/FlexTool/infra/solver"
)

type Config struct {
	Paths       solvedata.Paths      `json:"paths"`
	Solver      solver.Config        `json:"solver"`
	Metrics     coremetrics.Config   `json:"metrics"`
	RunLog      factory.ModuleConfig `json:"run_log"`
	Progress    mqtt.Config          `json:"progress"`
	Sentry      SentryConfig         `json:"sentry"`
	Postprocess PostprocessConfig    `json:"postprocess"`
	Logging     logger.Config        `json:"logging"`
	// EventBuffer is the channel capacity of every run event subscriber.
	EventBuffer int `json:"event_buffer"`
}

// Load reads path, applies K_ prefixed environment overrides and fills
// defaults. An empty path uses defaults and environment only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("K_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults fills every section.
func (c *Config) SetDefaults() {
	c.Paths.SetDefaults()
	c.Solver.SetDefaults()
	c.Progress.SetDefaults()
	c.Logging.SetDefaults()
	c.Postprocess.SetDefaults()
	if c.RunLog.Type == "" {
		c.RunLog.Type = "jsonl"
	}
	if c.RunLog.Type != "none" {
		if c.RunLog.Conf == nil {
			c.RunLog.Conf = map[string]any{}
		}
		if _, ok := c.RunLog.Conf["path"]; !ok {
			c.RunLog.Conf["path"] = defaultRunLogPath(c.RunLog.Type, c.Paths.Output)
		}
	}
	if c.EventBuffer == 0 {
		c.EventBuffer = 64
	}
}

func defaultRunLogPath(kind, output string) string {
	if kind == "sqlite" {
		return filepath.Join(output, "solve_runs.db")
	}
	return filepath.Join(output, "solve_runs.jsonl")
}

// RunLogConfig returns the run log module. The type "none" disables it.
func (c *Config) RunLogConfig() factory.ModuleConfig {
	if c.RunLog.Type == "none" {
		return factory.ModuleConfig{}
	}
	return c.RunLog
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.Solver.Validate(); err != nil {
		return fmt.Errorf("solver: %w", err)
	}
	if err := c.Progress.Validate(); err != nil {
		return fmt.Errorf("progress: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return err
	}
	if err := c.Sentry.Validate(); err != nil {
		return err
	}
	if err := c.Postprocess.Validate(); err != nil {
		return err
	}
	if c.EventBuffer < 0 {
		return fmt.Errorf("event_buffer must not be negative")
	}
	return nil
}
