// Package config loads workspace settings for the kanbn binaries.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileName is the workspace config file, relative to the workspace root.
const FileName = "kanbn.yaml"

const (
	DefaultBoardPath     = ".kanbn"
	DefaultColumn        = "Backlog"
	DefaultLogLevel      = "warn"
	DefaultLogFormat     = "text"
	DefaultTraceExporter = "none"
)

// Environment overrides.
const (
	EnvBoardPath     = "KANBN_PATH"
	EnvDefaultColumn = "KANBN_DEFAULT_COLUMN"
	EnvLogLevel      = "KANBN_LOG_LEVEL"
	EnvLogFormat     = "KANBN_LOG_FORMAT"
	EnvTraceExporter = "KANBN_TRACE_EXPORTER"
	EnvTraceEndpoint = "KANBN_TRACE_ENDPOINT"
)

// TraceConfig selects where service spans go.
type TraceConfig struct {
	Exporter string `yaml:"exporter"`
	Endpoint string `yaml:"endpoint,omitempty"`
}

// Config stores workspace defaults. Board options (started/completed
// columns, workload weights) live in the board index, not here.
type Config struct {
	BoardPath     string      `yaml:"board_path"`
	DefaultColumn string      `yaml:"default_column"`
	LogLevel      string      `yaml:"log_level"`
	LogFormat     string      `yaml:"log_format"`
	Trace         TraceConfig `yaml:"trace"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		BoardPath:     DefaultBoardPath,
		DefaultColumn: DefaultColumn,
		LogLevel:      DefaultLogLevel,
		LogFormat:     DefaultLogFormat,
		Trace:         TraceConfig{Exporter: DefaultTraceExporter},
	}
}

// Load reads <root>/kanbn.yaml over the defaults and applies environment
// overrides. A missing file is not an error.
func Load(root string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filepath.Join(root, FileName))
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg.applyEnv(os.LookupEnv)
	cfg.fillDefaults()
	return cfg, nil
}

// Save writes cfg to <root>/kanbn.yaml.
func Save(root string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(filepath.Join(root, FileName), data, 0600)
}

// Init writes a default kanbn.yaml under root that points at boardPath. An
// existing file is left alone. It reports whether a file was written.
func Init(root, boardPath string) (bool, error) {
	_, err := os.Stat(filepath.Join(root, FileName))
	switch {
	case err == nil:
		return false, nil
	case !os.IsNotExist(err):
		return false, fmt.Errorf("failed to stat config: %w", err)
	}
	cfg := Default()
	if strings.TrimSpace(boardPath) != "" {
		cfg.BoardPath = filepath.ToSlash(boardPath)
	}
	if err := Save(root, cfg); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	set(EnvBoardPath, &c.BoardPath)
	set(EnvDefaultColumn, &c.DefaultColumn)
	set(EnvLogLevel, &c.LogLevel)
	set(EnvLogFormat, &c.LogFormat)
	set(EnvTraceExporter, &c.Trace.Exporter)
	set(EnvTraceEndpoint, &c.Trace.Endpoint)
}

func (c *Config) fillDefaults() {
	if c.BoardPath == "" {
		c.BoardPath = DefaultBoardPath
	}
	if c.DefaultColumn == "" {
		c.DefaultColumn = DefaultColumn
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = DefaultLogFormat
	}
	if c.Trace.Exporter == "" {
		c.Trace.Exporter = DefaultTraceExporter
	}
}

// ResolveBoardPath returns the board directory for root. An explicit path
// wins over the configured one; relative paths are joined onto root.
func (c *Config) ResolveBoardPath(root, explicit string) string {
	path := explicit
	if path == "" {
		path = c.BoardPath
	}
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(root, path)
}

// ParseLevel maps debug|info|warn|error onto slog levels.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q (supported: debug, info, warn, error)", s)
	}
}

// NewLogger builds a slog logger writing to w in the configured format.
func NewLogger(cfg *Config, w io.Writer) (*slog.Logger, error) {
	if cfg == nil {
		cfg = Default()
	}
	level, err := ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch strings.ToLower(cfg.LogFormat) {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	case "text", "":
		handler = slog.NewTextHandler(w, opts)
	default:
		return nil, fmt.Errorf("unknown log format %q (supported: text, json)", cfg.LogFormat)
	}
	return slog.New(handler), nil
}
