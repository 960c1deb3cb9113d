package scriptlog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wayneeseguin/scriptlog/pkg/types"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.Equal(t, 5, cfg.LogCountMax)
	assert.Equal(t, 3, cfg.RetryCount)
	assert.Equal(t, 100*time.Millisecond, cfg.RetryDelay)
}

func TestValidateLogName(t *testing.T) {
	tests := []struct {
		name  string
		valid bool
	}{
		{"backup", true},
		{"nightly-job.v2", true},
		{"", false},
		{".", false},
		{"..", false},
		{"a/b", false},
		{`a\b`, false},
		{"a:b", false},
		{"what?", false},
		{"star*", false},
		{"tab\there", false},
		{"pipe|", false},
		{`"quoted"`, false},
		{"<angle>", false},
	}

	for _, tt := range tests {
		err := ValidateLogName(tt.name)
		if tt.valid {
			assert.NoError(t, err, tt.name)
		} else {
			assert.ErrorIs(t, err, ErrInvalidLogName, tt.name)
		}
	}
}

func TestConfig_ValidateCollectsAllProblems(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogCountMax = -1
	cfg.RetryDelay = -time.Second
	cfg.Console.Color = "rainbow"
	cfg.EventLog.Level = "nope"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Equal(t, types.KindConfiguration, KindOf(err))
	assert.Contains(t, err.Error(), "log_count_max")
	assert.Contains(t, err.Error(), "retry_delay")
	assert.Contains(t, err.Error(), "console.color")
	assert.Contains(t, err.Error(), "event_log.level")
}

func writeConfig(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
}

func TestLoadConfig_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scriptlog.yaml")
	writeConfig(t, path, `
log_name: backup
log_path: /var/log/scripts
log_level: debug
rotation: 10M
log_count_max: 7
compress: true
retry_delay: 250ms
buffer:
  enabled: true
  size: 20
console:
  enabled: true
  color: never
enrichers: [machine, process]
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "backup", cfg.LogName)
	assert.Equal(t, "/var/log/scripts", cfg.LogPath)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "10M", cfg.Rotation)
	assert.Equal(t, 7, cfg.LogCountMax)
	assert.True(t, cfg.Compress)
	assert.Equal(t, 250*time.Millisecond, cfg.RetryDelay)
	assert.True(t, cfg.Buffer.Enabled)
	assert.Equal(t, 20, cfg.Buffer.Size)
	assert.Equal(t, 5*time.Second, cfg.Buffer.FlushInterval)
	assert.True(t, cfg.Console.Enabled)
	assert.Equal(t, []string{"machine", "process"}, cfg.Enrichers)
	assert.Equal(t, 3, cfg.RetryCount)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scriptlog.yaml")
	writeConfig(t, path, "log_name: backup\nlog_level: info\n")

	t.Setenv("SCRIPTLOG_LOG_LEVEL", "ERROR")
	t.Setenv("SCRIPTLOG_BUFFER_SIZE", "42")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "ERROR", cfg.LogLevel)
	assert.Equal(t, 42, cfg.Buffer.Size)
}

func TestLoadConfig_ExpandsHome(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scriptlog.yaml")
	writeConfig(t, path, "log_name: backup\nlog_path: ~/logs\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.NotContains(t, cfg.LogPath, "~")
	assert.Equal(t, "logs", filepath.Base(cfg.LogPath))
}

func TestLoadConfig_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadConfig(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.Equal(t, types.KindConfiguration, KindOf(err))

	bad := filepath.Join(dir, "bad.yaml")
	writeConfig(t, bad, "log_name: backup\nrotation: sometimes\n")
	_, err = LoadConfig(bad)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidRotationSpec)
}

func TestWatchConfig_AppliesRuntimeSettings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scriptlog.yaml")
	writeConfig(t, path, "log_name: app\nlog_level: INFO\n")

	cfg := testConfig()
	cfg.DisableFile = true
	l, _ := newTestLogger(t, cfg)

	w, err := WatchConfig(path, l)
	require.NoError(t, err)
	defer w.Close()

	writeConfig(t, path, "log_name: app\nlog_level: DEBUG\nsample_rate: 4\n")

	assert.Eventually(t, func() bool {
		return l.Level() == types.LevelDebug
	}, 5*time.Second, 20*time.Millisecond)
	assert.Eventually(t, func() bool {
		return l.Config().SampleRate == 4
	}, 5*time.Second, 20*time.Millisecond)
}

func TestWatchConfig_InvalidFileKeepsSettings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scriptlog.yaml")
	writeConfig(t, path, "log_name: app\n")

	rec := &errorRecorder{}
	cfg := testConfig()
	cfg.DisableFile = true
	l, _ := newTestLogger(t, cfg, WithErrorHandler(rec.handle))

	w, err := WatchConfig(path, l)
	require.NoError(t, err)
	defer w.Close()

	reloaded := make(chan error, 16)
	w.SetOnReload(func(_ *Config, err error) { reloaded <- err })

	writeConfig(t, path, "log_name: app\nlog_level: SHOUTY\n")

	// The truncate and the write may arrive as separate events.
	timeout := time.After(5 * time.Second)
	for failed := false; !failed; {
		select {
		case err := <-reloaded:
			failed = err != nil
		case <-timeout:
			t.Fatal("no failed reload observed")
		}
	}
	assert.Equal(t, types.LevelInfo, l.Level())
	require.NotEmpty(t, rec.all())
	assert.Equal(t, types.KindConfiguration, rec.all()[0].Kind)
}
