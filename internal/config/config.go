// Package config loads the palined configuration file.
//
// Example:
//
//	log_level: info
//	module_idle_time: 20s
//	line:
//	  delimiter: "\n"
//	  buffer_limit: 65536
//	modules:
//	  - name: module-null-source
//	    argument: source_name=null rate=8000 channels=1
//	  - name: module-wav-recorder
//	    argument: source=null file=/tmp/null.wav
package config

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
	"github.com/somdoron/pulseaudio/ioline"
)

// Config is the daemon configuration.
type Config struct {
	LogLevel       string         `yaml:"log_level"`
	ModuleIdleTime string         `yaml:"module_idle_time"`
	Line           LineConfig     `yaml:"line"`
	Modules        []ModuleConfig `yaml:"modules"`
}

// LineConfig tunes the control line channel.
type LineConfig struct {
	Delimiter   string `yaml:"delimiter"`
	BufferLimit int    `yaml:"buffer_limit"`
}

// ModuleConfig is a module loaded at startup.
type ModuleConfig struct {
	Name     string `yaml:"name"`
	Argument string `yaml:"argument"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		LogLevel:       "info",
		ModuleIdleTime: "20s",
		Line: LineConfig{
			Delimiter:   "\n",
			BufferLimit: ioline.BufferLimit,
		},
	}
}

// Load reads and validates the file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes data over Default, and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every field that is parsed lazily.
func (c *Config) Validate() error {
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if _, err := c.IdleTime(); err != nil {
		return err
	}
	if len(c.Line.Delimiter) != 1 {
		return fmt.Errorf("line.delimiter must be a single byte, got %q", c.Line.Delimiter)
	}
	if c.Line.BufferLimit < 0 {
		return fmt.Errorf("line.buffer_limit must not be negative")
	}
	for i, m := range c.Modules {
		if m.Name == "" {
			return fmt.Errorf("modules[%d]: missing name", i)
		}
	}
	return nil
}

// IdleTime parses ModuleIdleTime, empty means the core default.
func (c *Config) IdleTime() (time.Duration, error) {
	if c.ModuleIdleTime == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.ModuleIdleTime)
	if err != nil {
		return 0, fmt.Errorf("module_idle_time: %w", err)
	}
	return d, nil
}

// LineOptions returns the ioline configuration, logging to logger.
func (c *Config) LineOptions(logger *logiface.Logger[logiface.Event]) ioline.Config {
	cfg := ioline.Config{
		BufferLimit: c.Line.BufferLimit,
		Logger:      logger,
	}
	if len(c.Line.Delimiter) == 1 {
		cfg.Delimiter = c.Line.Delimiter[0]
	}
	return cfg
}

// ParseLevel maps a syslog style level name to a logiface.Level.
func ParseLevel(s string) (logiface.Level, error) {
	switch s {
	case "disabled", "off":
		return logiface.LevelDisabled, nil
	case "emerg":
		return logiface.LevelEmergency, nil
	case "alert":
		return logiface.LevelAlert, nil
	case "crit":
		return logiface.LevelCritical, nil
	case "err", "error":
		return logiface.LevelError, nil
	case "warning", "warn":
		return logiface.LevelWarning, nil
	case "notice":
		return logiface.LevelNotice, nil
	case "info", "":
		return logiface.LevelInformational, nil
	case "debug":
		return logiface.LevelDebug, nil
	case "trace":
		return logiface.LevelTrace, nil
	}
	return logiface.LevelDisabled, fmt.Errorf("unknown log level %q", s)
}

// NewLogger returns a JSON logger writing to w.
func NewLogger(w io.Writer, level logiface.Level) *logiface.Logger[logiface.Event] {
	return stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(w)),
		stumpy.L.WithLevel(level),
	).Logger()
}
