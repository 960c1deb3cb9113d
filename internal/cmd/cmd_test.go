package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// executeCommand runs a fresh command tree with args and returns captured output
func executeCommand(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

// setupConfig writes a config file pointing at a temp log directory.
func setupConfig(t *testing.T, extra string) (configPath, logDir string) {
	t.Helper()
	dir := t.TempDir()
	logDir = filepath.Join(dir, "logs")
	configPath = filepath.Join(dir, "scriptlog.yaml")
	body := "log_name: job\nlog_path: " + logDir + "\nretry_delay: 0s\n" + extra
	require.NoError(t, os.WriteFile(configPath, []byte(body), 0600))
	return configPath, logDir
}

func logLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func TestRootCommand(t *testing.T) {
	root := NewRootCommand()
	assert.Equal(t, "scriptlog", root.Use)

	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"write", "rotate", "config"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

func TestWriteCommand_AppendsRecord(t *testing.T) {
	cfg, logDir := setupConfig(t, "")

	_, err := executeCommand(t, "", "--config", cfg, "write", "--level", "success",
		"--property", "host=db1", "-P", "step=dump", "dump", "finished")
	require.NoError(t, err)

	lines := logLines(t, filepath.Join(logDir, "job.log"))
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "started")
	assert.True(t, strings.HasSuffix(lines[1], "[SUCCESS] dump finished host=db1 step=dump"), lines[1])
}

func TestWriteCommand_ReadsStdin(t *testing.T) {
	cfg, logDir := setupConfig(t, "no_log_info: true\n")

	_, err := executeCommand(t, "first\nsecond\n", "--config", cfg, "write", "--level", "debug")
	require.NoError(t, err)

	lines := logLines(t, filepath.Join(logDir, "job.log"))
	assert.Equal(t, []string{"first", "second"}, lines[1:])
}

func TestWriteCommand_FlagsOverrideConfig(t *testing.T) {
	cfg, logDir := setupConfig(t, "")

	_, err := executeCommand(t, "", "--config", cfg, "--name", "other", "--format", "json", "write", "hi")
	require.NoError(t, err)

	lines := logLines(t, filepath.Join(logDir, "other.log"))
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], `"message":"hi"`)
}

func TestWriteCommand_Console(t *testing.T) {
	cfg, _ := setupConfig(t, "no_log_info: true\nconsole:\n  color: never\n")

	out, err := executeCommand(t, "", "--config", cfg, "--console", "write", "to the terminal")
	require.NoError(t, err)
	assert.Equal(t, "to the terminal\n", out)
}

func TestWriteCommand_Errors(t *testing.T) {
	cfg, _ := setupConfig(t, "")

	tests := []struct {
		name string
		args []string
	}{
		{"bad level", []string{"write", "--level", "loud", "x"}},
		{"bad property", []string{"write", "--property", "novalue", "x"}},
		{"bad rotation", []string{"--rotation", "sometimes", "write", "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := executeCommand(t, "", append([]string{"--config", cfg}, tt.args...)...)
			assert.Error(t, err)
		})
	}
}

func TestRotateCommand(t *testing.T) {
	cfg, logDir := setupConfig(t, "log_count_max: 2\n")

	_, err := executeCommand(t, "", "--config", cfg, "write", "one")
	require.NoError(t, err)

	out, err := executeCommand(t, "", "--config", cfg, "rotate")
	require.NoError(t, err)
	assert.Contains(t, out, "rotated")

	_, err = os.Stat(filepath.Join(logDir, "job.1.log"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(logDir, "job.log"))
	assert.True(t, os.IsNotExist(err))
}

func TestConfigCommand(t *testing.T) {
	cfg, logDir := setupConfig(t, "rotation: daily\n")

	out, err := executeCommand(t, "", "--config", cfg, "config")
	require.NoError(t, err)

	var shown map[string]interface{}
	require.NoError(t, yaml.Unmarshal([]byte(out), &shown))
	assert.Equal(t, "job", shown["log_name"])
	assert.Equal(t, logDir, shown["log_path"])
	assert.Equal(t, "daily", shown["rotation"])
	assert.Equal(t, "INFO", shown["log_level"])

	out, err = executeCommand(t, "", "--config", cfg, "config", "path")
	require.NoError(t, err)
	assert.Equal(t, cfg+"\n", out)
}
