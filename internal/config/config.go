// Package config loads and validates the optional texmill YAML file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values for the build pipeline and server.
const (
	DefaultHost       = "0.0.0.0"
	DefaultPort       = 9080
	DefaultCommand    = "pdflatex"
	DefaultBibCommand = "bibtex"
	DefaultMaxPasses  = 5
	DefaultTimeout    = 60 * time.Second
	DefaultMaxOutput  = 1 << 20 // 1 MB per pass
	DefaultStoreCache = 16
	DefaultDebounce   = 300 * time.Millisecond
)

// DefaultArgs are the engine flags used when none are configured. They keep
// the engine non-interactive so a broken document cannot stall a pass.
var DefaultArgs = []string{"-interaction=nonstopmode", "-halt-on-error"}

// Config holds the parsed texmill configuration.
// All fields are optional; zero values represent defaults.
type Config struct {
	Server ServerConfig `yaml:"server"`
	LaTeX  LaTeXConfig  `yaml:"latex"`
	Store  StoreConfig  `yaml:"store"`
	Watch  WatchConfig  `yaml:"watch"`
	Log    LogConfig    `yaml:"log"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// LaTeXConfig controls how the typesetting and bibliography tools run.
type LaTeXConfig struct {
	Command      string   `yaml:"command"`     // typesetting engine, e.g. pdflatex, xelatex
	BibCommand   string   `yaml:"bib_command"` // bibliography tool, e.g. bibtex, biber
	Args         []string `yaml:"args"`        // engine flags inserted before the entry file
	RawMaxPasses int      `yaml:"max_passes"`  // ceiling on typeset passes per build
	RawTimeout   string   `yaml:"timeout"`     // per-invocation, e.g. "60s", "2m"
	RawMaxOutput int      `yaml:"max_output"`  // captured output cap in bytes
}

// StoreConfig controls build record retention.
type StoreConfig struct {
	Dir      string `yaml:"dir"`   // empty: lazily created temp directory
	RawCache int    `yaml:"cache"` // in-memory LRU entries
}

// WatchConfig controls the recompile-on-change mode.
type WatchConfig struct {
	RawDebounce string `yaml:"debounce"` // e.g. "300ms"
}

// LogConfig controls logging output.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// Addr returns the host:port the HTTP server binds to.
func (c *Config) Addr() string {
	host := c.Server.Host
	if host == "" {
		host = DefaultHost
	}
	port := c.Server.Port
	if port == 0 {
		port = DefaultPort
	}
	return fmt.Sprintf("%s:%d", host, port)
}

// Command returns the configured typesetting engine or the default.
func (c *Config) Command() string {
	if c.LaTeX.Command != "" {
		return c.LaTeX.Command
	}
	return DefaultCommand
}

// BibCommand returns the configured bibliography tool or the default.
func (c *Config) BibCommand() string {
	if c.LaTeX.BibCommand != "" {
		return c.LaTeX.BibCommand
	}
	return DefaultBibCommand
}

// Args returns the configured engine flags or the defaults.
func (c *Config) Args() []string {
	if len(c.LaTeX.Args) > 0 {
		return c.LaTeX.Args
	}
	return DefaultArgs
}

// MaxPasses returns the configured typeset pass ceiling or the default.
func (c *Config) MaxPasses() int {
	if c.LaTeX.RawMaxPasses > 0 {
		return c.LaTeX.RawMaxPasses
	}
	return DefaultMaxPasses
}

// Timeout returns the configured per-invocation timeout or the default.
func (c *Config) Timeout() time.Duration {
	if d, ok := parseDuration(c.LaTeX.RawTimeout); ok {
		return d
	}
	return DefaultTimeout
}

// MaxOutputBytes returns the configured per-pass output cap or the default.
func (c *Config) MaxOutputBytes() int {
	if c.LaTeX.RawMaxOutput > 0 {
		return c.LaTeX.RawMaxOutput
	}
	return DefaultMaxOutput
}

// StoreCache returns the configured LRU capacity or the default.
func (c *Config) StoreCache() int {
	if c.Store.RawCache > 0 {
		return c.Store.RawCache
	}
	return DefaultStoreCache
}

// Debounce returns the configured watch debounce interval or the default.
func (c *Config) Debounce() time.Duration {
	if d, ok := parseDuration(c.Watch.RawDebounce); ok {
		return d
	}
	return DefaultDebounce
}

// LogLevel returns the configured slog level, defaulting to info.
func (c *Config) LogLevel() slog.Level {
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// parseDuration accepts Go duration strings ("90s", "2m") and, for
// compatibility with bare environment values, plain integer seconds.
func parseDuration(raw string) (time.Duration, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d, true
	}
	if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second, true
	}
	return 0, false
}

// Load reads the config file at path. A missing file is not an error: the
// returned Config carries defaults only. Environment variables with the
// TEXMILL_ prefix override file values in both cases.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Defaults + environment only.
	case err != nil:
		return nil, fmt.Errorf("reading %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

// applyEnv overlays TEXMILL_* environment variables onto cfg. Unset or
// malformed values leave the existing setting untouched.
func applyEnv(cfg *Config) {
	if v := os.Getenv("TEXMILL_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("TEXMILL_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("TEXMILL_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("TEXMILL_LATEX_COMMAND"); v != "" {
		cfg.LaTeX.Command = v
	}
	if v := os.Getenv("TEXMILL_BIBTEX_COMMAND"); v != "" {
		cfg.LaTeX.BibCommand = v
	}
	if v := os.Getenv("TEXMILL_MAX_PASSES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.LaTeX.RawMaxPasses = n
		}
	}
	if v := os.Getenv("TEXMILL_TIMEOUT"); v != "" {
		cfg.LaTeX.RawTimeout = v
	}
}
