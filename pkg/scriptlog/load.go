package scriptlog

import (
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides, e.g. SCRIPTLOG_LOG_LEVEL
// or SCRIPTLOG_BUFFER_ENABLED.
const EnvPrefix = "SCRIPTLOG"

// ConfigName is the base name searched for when LoadConfig gets no path.
const ConfigName = "scriptlog"

// SetDefaults registers every default value on v so that environment
// variables are picked up for keys missing from the config file.
func SetDefaults(v *viper.Viper) {
	defaults := DefaultConfig()

	// Core defaults
	v.SetDefault("log_name", defaults.LogName)
	v.SetDefault("log_path", defaults.LogPath)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("format", defaults.Format)
	v.SetDefault("no_log_info", defaults.NoLogInfo)
	v.SetDefault("timestamp_format", defaults.TimestampFormat)

	// Rotation defaults
	v.SetDefault("rotation", defaults.Rotation)
	v.SetDefault("log_count_max", defaults.LogCountMax)
	v.SetDefault("compress", defaults.Compress)

	// Write defaults
	v.SetDefault("retry_count", defaults.RetryCount)
	v.SetDefault("retry_delay", defaults.RetryDelay)
	v.SetDefault("min_free_space", defaults.MinFreeSpace)
	v.SetDefault("disable_file", defaults.DisableFile)

	// Buffer defaults
	v.SetDefault("buffer.enabled", defaults.Buffer.Enabled)
	v.SetDefault("buffer.size", defaults.Buffer.Size)
	v.SetDefault("buffer.flush_interval", defaults.Buffer.FlushInterval)
	v.SetDefault("buffer.capacity", defaults.Buffer.Capacity)

	// Destination defaults
	v.SetDefault("console.enabled", defaults.Console.Enabled)
	v.SetDefault("console.level", defaults.Console.Level)
	v.SetDefault("console.color", defaults.Console.Color)
	v.SetDefault("event_log.enabled", defaults.EventLog.Enabled)
	v.SetDefault("event_log.source", defaults.EventLog.Source)
	v.SetDefault("event_log.level", defaults.EventLog.Level)

	// Pipeline defaults
	v.SetDefault("sample_rate", defaults.SampleRate)
	v.SetDefault("correlation_id", defaults.CorrelationID)
	v.SetDefault("enrichers", defaults.Enrichers)
	v.SetDefault("environment_variables", defaults.EnvironmentVariables)
}

// ConfigDir returns the per-user config directory, ~/.config/scriptlog.
func ConfigDir() string {
	home, err := homedir.Dir()
	if err != nil {
		return ".scriptlog"
	}
	return filepath.Join(home, ".config", "scriptlog")
}

// NewViper returns a viper instance with defaults and SCRIPTLOG_ environment
// overrides registered.
func NewViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// LoadConfig reads path (YAML, JSON or TOML by extension) on top of the
// defaults and environment. With an empty path, scriptlog.* is looked up in
// the working directory and ConfigDir; a missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	v := NewViper()
	if err := ReadConfigFile(v, path); err != nil {
		return nil, err
	}
	return Unmarshal(v)
}

// ReadConfigFile loads path into v, or searches the default locations when
// path is empty.
func ReadConfigFile(v *viper.Viper, path string) error {
	if path != "" {
		expanded, err := homedir.Expand(path)
		if err != nil {
			return configError("load", errors.Wrapf(err, "expand %s", path))
		}
		v.SetConfigFile(expanded)
		if err := v.ReadInConfig(); err != nil {
			return configError("load", errors.Wrapf(err, "read %s", expanded))
		}
		return nil
	}

	v.SetConfigName(ConfigName)
	v.AddConfigPath(".")
	v.AddConfigPath(ConfigDir())
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return configError("load", errors.Wrap(err, "read config"))
		}
	}
	return nil
}

// Unmarshal decodes v into a Config, expands LogPath and validates it.
func Unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, configError("load", errors.Wrap(err, "decode config"))
	}

	expanded, err := homedir.Expand(cfg.LogPath)
	if err != nil {
		return nil, configError("load", errors.Wrapf(err, "expand log_path %s", cfg.LogPath))
	}
	cfg.LogPath = expanded

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
