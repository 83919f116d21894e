package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "eqlog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(EnvConfigFile, "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, New(), cfg)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
log_dir: /games/eq/Logs
window: 45s
publish_interval: 500ms
poll: true
pattern_files:
  - runes.yaml
  - procs.yaml
metrics_addr: ":9090"
log_level: debug
log_file: /tmp/eqlog.log
log_compress: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/games/eq/Logs", cfg.LogDir)
	assert.Equal(t, 45*time.Second, cfg.Window)
	assert.Equal(t, 500*time.Millisecond, cfg.PublishInterval)
	assert.True(t, cfg.Poll)
	assert.Equal(t, []string{"runes.yaml", "procs.yaml"}, cfg.PatternFiles)
	assert.Equal(t, ":9090", cfg.MetricsAddr)
	assert.Equal(t, slog.LevelDebug, cfg.Level())
	assert.Equal(t, "/tmp/eqlog.log", cfg.LogFile)
	assert.True(t, cfg.LogCompress)
	// Unset keys keep their defaults.
	assert.Equal(t, 3, cfg.LogMaxBackups)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "window: 45s\nlog_level: warn\n")
	t.Setenv("EQLOG_WINDOW", "1m")
	t.Setenv("EQLOG_LOG_MAX_BACKUPS", "7")
	t.Setenv("EQLOG_POLL", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, time.Minute, cfg.Window)
	assert.Equal(t, 7, cfg.LogMaxBackups)
	assert.True(t, cfg.Poll)
	assert.Equal(t, slog.LevelWarn, cfg.Level())
}

func TestLoad_ConfigFromEnv(t *testing.T) {
	path := writeConfig(t, "metrics_addr: localhost:2112\n")
	t.Setenv(EnvConfigFile, path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "localhost:2112", cfg.MetricsAddr)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"negative window", "window: -1s\n", "window must be positive"},
		{"zero interval", "publish_interval: 0s\n", "publish_interval must be positive"},
		{"bad level", "log_level: loud\n", "invalid log_level"},
		{"bad rotation", "log_max_age_days: -1\n", "non-negative"},
		{"bad yaml", "window: [\n", "load config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("ERROR")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelError, lvl)

	_, err = ParseLevel("verbose")
	require.Error(t, err)
}
