// Package logger provides the zerolog implementation of core/logger.Logger.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	corelogger "github.com/IRENA-FlexTool/FlexTool/core/logger"
)

// Logger is the core logging interface.
type Logger = corelogger.Logger

// Config selects level, format and an optional log file.
type Config struct {
	Level string `json:"level"`
	// Format is console or json. Empty picks console when APP_ENV=dev.
	Format     string `json:"format"`
	File       string `json:"file"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
}

// SetDefaults sets the info level.
func (c *Config) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.MaxSizeMB == 0 {
		c.MaxSizeMB = 20
	}
}

// Validate checks level and format names.
func (c Config) Validate() error {
	if _, err := zerolog.ParseLevel(c.Level); err != nil {
		return fmt.Errorf("logging level: %w", err)
	}
	switch c.Format {
	case "", "console", "json":
		return nil
	}
	return fmt.Errorf("logging format %q must be console or json", c.Format)
}

var (
	mu   sync.RWMutex
	base io.Writer = os.Stderr
	lvl            = zerolog.InfoLevel
	fmtC           = strings.ToLower(os.Getenv("APP_ENV")) == "dev"
)

// Configure sets the output shared by loggers created afterwards.
func Configure(cfg Config) error {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}
	l, _ := zerolog.ParseLevel(cfg.Level)
	var w io.Writer = os.Stderr
	if cfg.File != "" {
		w = io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
		})
	}
	mu.Lock()
	defer mu.Unlock()
	base, lvl = w, l
	switch cfg.Format {
	case "console":
		fmtC = true
	case "json":
		fmtC = false
	}
	return nil
}

// ZerologLogger implements Logger with rs/zerolog.
type ZerologLogger struct {
	log zerolog.Logger
}

// New returns a logger tagged with component.
func New(component string) Logger {
	mu.RLock()
	w, l, console := base, lvl, fmtC
	mu.RUnlock()
	return NewWithWriter(component, w, l, console)
}

// NewWithWriter builds a logger on an explicit writer.
func NewWithWriter(component string, w io.Writer, level zerolog.Level, console bool) *ZerologLogger {
	if console {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	z := zerolog.New(w).Level(level).With().Timestamp().Str("component", component).Logger()
	return &ZerologLogger{log: z}
}

func (l *ZerologLogger) Debugf(format string, args ...any) {
	l.log.Debug().Msgf(format, args...)
}

func (l *ZerologLogger) Debugw(msg string, fields map[string]any) {
	ev := l.log.Debug()
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}
	ev.Msg(msg)
}

func (l *ZerologLogger) Infof(format string, args ...any) {
	l.log.Info().Msgf(format, args...)
}

func (l *ZerologLogger) Warnf(format string, args ...any) {
	l.log.Warn().Msgf(format, args...)
}

func (l *ZerologLogger) Errorf(format string, args ...any) {
	l.log.Error().Msgf(format, args...)
}
