package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Build-time variables injected via -ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// Config holds all agent configuration. Values come from the optional
// YAML config file, then HWMON_* environment variables, then CLI flags,
// each layer overriding the previous one.
type Config struct {
	// AgentID identifies this agent in collector payloads. When not
	// configured a persisted ID is generated under DataDir.
	AgentID string `yaml:"agent_id"`

	// DataDir holds persistent agent state (identity, last inventory).
	DataDir string `yaml:"data_dir"`

	// Bind is the address the HTTP server listens on.
	Bind string `yaml:"bind"`

	// Port is the HTTP server port.
	Port int `yaml:"port"`

	// Interval is the sampling cadence.
	Interval time.Duration `yaml:"interval"`

	// ClientBuffer is the per-websocket-consumer snapshot buffer.
	ClientBuffer int `yaml:"client_buffer"`

	// MaxMissedTicks is how many consecutive full-buffer ticks a
	// consumer may accumulate before it is dropped.
	MaxMissedTicks int `yaml:"max_missed_ticks"`

	// CollectorURL enables the remote publisher when non-empty.
	CollectorURL string `yaml:"collector_url"`

	// CollectorKey is sent as the X-API-Key header to the collector.
	CollectorKey string `yaml:"collector_key"`

	// DisableGPU skips the GPU probe entirely.
	DisableGPU bool `yaml:"disable_gpu"`

	// Debug enables verbose logging.
	Debug bool `yaml:"debug"`
}

// Default returns a Config populated with sensible defaults.
func Default() *Config {
	return &Config{
		DataDir:        defaultDataDir(),
		Bind:           "0.0.0.0",
		Port:           8000,
		Interval:       time.Second,
		ClientBuffer:   4,
		MaxMissedTicks: 8,
	}
}

// Load builds the configuration: defaults, then the YAML file at path
// (missing file is fine when path is the default location), then
// environment overrides. Returns an error for malformed values since
// a bad interval or port must stop startup, not be silently patched.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// No config file, environment and flags still apply.
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if v := os.Getenv("HWMON_BIND"); v != "" {
		cfg.Bind = v
	}
	if v := os.Getenv("HWMON_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("HWMON_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("HWMON_PORT: %w", err)
		}
		cfg.Port = port
	}
	if v := os.Getenv("HWMON_INTERVAL"); v != "" {
		interval, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("HWMON_INTERVAL: %w", err)
		}
		cfg.Interval = interval
	}
	if v := os.Getenv("HWMON_COLLECTOR_URL"); v != "" {
		cfg.CollectorURL = v
	}
	if v := os.Getenv("HWMON_COLLECTOR_KEY"); v != "" {
		cfg.CollectorKey = v
	}
	if os.Getenv("HWMON_DISABLE_GPU") == "true" {
		cfg.DisableGPU = true
	}
	if os.Getenv("HWMON_DEBUG") == "true" {
		cfg.Debug = true
	}

	return cfg, cfg.Validate()
}

// Validate checks the ranges of every tunable. Load calls it, and
// callers that override fields afterwards should call it again.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.Interval < 100*time.Millisecond {
		return fmt.Errorf("interval %s too small (minimum 100ms)", c.Interval)
	}
	if c.ClientBuffer < 1 {
		return fmt.Errorf("client_buffer must be at least 1")
	}
	if c.MaxMissedTicks < 1 {
		return fmt.Errorf("max_missed_ticks must be at least 1")
	}
	return nil
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".hwmon"
	}
	return home + "/.hwmon"
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Bind, c.Port)
}

// NewLogger creates the structured logger used across the agent.
func NewLogger(cfg *Config) *slog.Logger {
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}
