package scriptlog

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/wayneeseguin/scriptlog/pkg/backends"
	"github.com/wayneeseguin/scriptlog/pkg/features"
	"github.com/wayneeseguin/scriptlog/pkg/formatters"
	"github.com/wayneeseguin/scriptlog/pkg/types"
)

// CorrelationAuto in Config.CorrelationID generates a fresh id at startup.
const CorrelationAuto = "auto"

// Config contains all configuration options for a Logger.
type Config struct {
	// Core settings
	LogName  string `mapstructure:"log_name" yaml:"log_name"`   // File base name, without ".log"
	LogPath  string `mapstructure:"log_path" yaml:"log_path"`   // Directory of the log file, "~" is expanded
	LogLevel string `mapstructure:"log_level" yaml:"log_level"` // Minimum level name
	Format   string `mapstructure:"format" yaml:"format"`       // text or json

	// Formatting settings
	NoLogInfo       bool   `mapstructure:"no_log_info" yaml:"no_log_info"`
	TimestampFormat string `mapstructure:"timestamp_format" yaml:"timestamp_format"`

	// Rotation settings
	Rotation    string `mapstructure:"rotation" yaml:"rotation"`
	LogCountMax int    `mapstructure:"log_count_max" yaml:"log_count_max"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`

	// Write reliability
	RetryCount   int           `mapstructure:"retry_count" yaml:"retry_count"`
	RetryDelay   time.Duration `mapstructure:"retry_delay" yaml:"retry_delay"`
	MinFreeSpace uint64        `mapstructure:"min_free_space" yaml:"min_free_space"`
	DisableFile  bool          `mapstructure:"disable_file" yaml:"disable_file"`

	Buffer   BufferConfig   `mapstructure:"buffer" yaml:"buffer"`
	Console  ConsoleConfig  `mapstructure:"console" yaml:"console"`
	EventLog EventLogConfig `mapstructure:"event_log" yaml:"event_log"`

	// SampleRate keeps one record in every SampleRate; 0 and 1 keep all.
	SampleRate int `mapstructure:"sample_rate" yaml:"sample_rate"`

	CorrelationID        string   `mapstructure:"correlation_id" yaml:"correlation_id"`
	Enrichers            []string `mapstructure:"enrichers" yaml:"enrichers"`
	EnvironmentVariables []string `mapstructure:"environment_variables" yaml:"environment_variables"`
}

// BufferConfig controls in-memory batching of file writes.
type BufferConfig struct {
	Enabled       bool          `mapstructure:"enabled" yaml:"enabled"`
	Size          int           `mapstructure:"size" yaml:"size"`
	FlushInterval time.Duration `mapstructure:"flush_interval" yaml:"flush_interval"`
	Capacity      int           `mapstructure:"capacity" yaml:"capacity"` // 0 means ten times Size
}

// ConsoleConfig controls the console destination.
type ConsoleConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Level   string `mapstructure:"level" yaml:"level"` // empty accepts everything past the logger gate
	Color   string `mapstructure:"color" yaml:"color"` // auto, always or never
}

// EventLogConfig controls the OS event log destination.
type EventLogConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Source  string `mapstructure:"source" yaml:"source"`
	Level   string `mapstructure:"level" yaml:"level"`
}

// DefaultConfig returns a Config with sensible defaults: INFO level text
// lines in ./{program}.log, no rotation, five kept backups.
func DefaultConfig() *Config {
	return &Config{
		LogName:     defaultLogName(),
		LogPath:     ".",
		LogLevel:    types.LevelInfo.String(),
		Format:      formatters.FormatText,
		LogCountMax: backends.DefaultMaxCount,
		RetryCount:  backends.DefaultRetryCount,
		RetryDelay:  backends.DefaultRetryDelay,
		Buffer: BufferConfig{
			Size:          100,
			FlushInterval: 5 * time.Second,
		},
		SampleRate: 1,
		Console: ConsoleConfig{
			Color: "auto",
		},
		EventLog: EventLogConfig{
			Level: backends.DefaultEventLogLevel.String(),
		},
	}
}

func defaultLogName() string {
	exe, err := os.Executable()
	if err != nil {
		return "scriptlog"
	}
	name := strings.TrimSuffix(filepath.Base(exe), filepath.Ext(exe))
	if ValidateLogName(name) != nil {
		return "scriptlog"
	}
	return name
}

// ValidateLogName rejects names that cannot be used as a file base name.
func ValidateLogName(name string) error {
	switch name {
	case "":
		return errors.Wrap(ErrInvalidLogName, "empty")
	case ".", "..":
		return errors.Wrapf(ErrInvalidLogName, "%q is reserved", name)
	}
	for _, r := range name {
		if r < 0x20 || r == 0x7f || strings.ContainsRune(`<>:"/\|?*`, r) {
			return errors.Wrapf(ErrInvalidLogName, "%q contains %q", name, r)
		}
	}
	return nil
}

// Validate checks every setting and returns all problems found.
func (c *Config) Validate() error {
	var result *multierror.Error

	if err := ValidateLogName(c.LogName); err != nil {
		result = multierror.Append(result, err)
	}
	if _, err := types.ParseLevel(c.LogLevel); err != nil {
		result = multierror.Append(result, errors.Wrap(err, "log_level"))
	}
	if _, err := formatters.New(c.Format, formatters.DefaultFormatOptions()); err != nil {
		result = multierror.Append(result, errors.Wrap(err, "format"))
	}
	if _, err := features.ParseRotationSpec(c.Rotation); err != nil {
		result = multierror.Append(result, err)
	}

	counts := []struct {
		name  string
		value int
	}{
		{"log_count_max", c.LogCountMax},
		{"retry_count", c.RetryCount},
		{"sample_rate", c.SampleRate},
		{"buffer.size", c.Buffer.Size},
		{"buffer.capacity", c.Buffer.Capacity},
	}
	for _, n := range counts {
		if n.value < 0 {
			result = multierror.Append(result, errors.Errorf("%s must be >= 0, got %d", n.name, n.value))
		}
	}
	if c.RetryDelay < 0 {
		result = multierror.Append(result, errors.Errorf("retry_delay must be >= 0, got %s", c.RetryDelay))
	}
	if c.Buffer.FlushInterval < 0 {
		result = multierror.Append(result, errors.Errorf("buffer.flush_interval must be >= 0, got %s", c.Buffer.FlushInterval))
	}

	if c.Console.Level != "" {
		if _, err := types.ParseLevel(c.Console.Level); err != nil {
			result = multierror.Append(result, errors.Wrap(err, "console.level"))
		}
	}
	switch strings.ToLower(c.Console.Color) {
	case "", "auto", "always", "never", "true", "false":
	default:
		result = multierror.Append(result, errors.Errorf("console.color must be auto, always or never, got %q", c.Console.Color))
	}
	if c.EventLog.Level != "" {
		if _, err := types.ParseLevel(c.EventLog.Level); err != nil {
			result = multierror.Append(result, errors.Wrap(err, "event_log.level"))
		}
	}

	for _, name := range c.Enrichers {
		if _, err := features.NewEnricher(name, c.EnvironmentVariables); err != nil {
			result = multierror.Append(result, err)
		}
	}

	if err := result.ErrorOrNil(); err != nil {
		return configError("validate", err)
	}
	return nil
}

// level returns the parsed LogLevel. Validate must have passed.
func (c *Config) level() types.Level {
	l, err := types.ParseLevel(c.LogLevel)
	if err != nil {
		return types.LevelInfo
	}
	return l
}

func optionalLevel(s string, fallback types.Level) types.Level {
	if s == "" {
		return fallback
	}
	l, err := types.ParseLevel(s)
	if err != nil {
		return fallback
	}
	return l
}
