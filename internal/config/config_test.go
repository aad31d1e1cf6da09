package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielemils/new-alice/internal/config"
)

func TestLoadDefaultsExpandPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	require.NoError(t, err)
	assert.NotEmpty(t, resolved)
	assert.False(t, exists)

	assert.Equal(t, filepath.Join(tempHome, "Music", "alice"), cfg.Paths.OutputDir)
	assert.Equal(t, filepath.Join(tempHome, ".local", "share", "alice"), cfg.Paths.StateDir)
	assert.NotEmpty(t, cfg.Paths.TempDir)
	assert.Equal(t, 100*time.Millisecond, cfg.PollInterval())
	assert.Equal(t, 5*time.Second, cfg.TerminateGrace())
	assert.Equal(t, filepath.Join(cfg.Paths.StateDir, "history.db"), cfg.HistoryPath())
	assert.Equal(t, filepath.Join(cfg.Paths.StateDir, "alice.lock"), cfg.LockPath())

	settings := cfg.EffectSettings()
	assert.InDelta(t, 40, settings.Frequency, 1e-9)
	assert.True(t, settings.ChunkIntoHours)

	require.NoError(t, cfg.EnsureDirectories())
	for _, dir := range []string{cfg.Paths.OutputDir, cfg.Paths.StateDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestLoadCustomPath(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	path := filepath.Join(dir, "alice.toml")
	body := `
[paths]
output_dir = "` + filepath.Join(dir, "out") + `"

[effects]
noise = true
frequency = 33.5

[sox]
binary = "/opt/sox/bin/sox"
poll_interval_ms = 250

[logging]
format = "JSON"
level = "Warning"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, resolved, exists, err := config.Load(path)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, path, resolved)
	assert.Equal(t, filepath.Join(dir, "out"), cfg.Paths.OutputDir)
	assert.True(t, cfg.Effects.Noise)
	assert.InDelta(t, 33.5, cfg.Effects.Frequency, 1e-9)
	assert.Equal(t, "/opt/sox/bin/sox", cfg.Sox.Binary)
	assert.Equal(t, 250*time.Millisecond, cfg.PollInterval())
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	path := filepath.Join(dir, "alice.toml")
	require.NoError(t, os.WriteFile(path, []byte("[sox]\nbinary = \"sox-from-file\"\n"), 0o644))
	t.Setenv("ALICE_SOX_BINARY", "sox-from-env")
	t.Setenv("ALICE_COMPRESSOR", "false")

	cfg, _, _, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sox-from-env", cfg.Sox.Binary)
	assert.False(t, cfg.Effects.Compressor)
}

func TestValidateRejectsOutOfRangeValues(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cases := map[string]string{
		"frequency": "[effects]\nfrequency = 75.0\n",
		"poll":      "[sox]\npoll_interval_ms = 5000\n",
		"textfile":  "[metrics]\ntextfile = \"/tmp/alice.txt\"\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "alice.toml")
			require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
			_, _, _, err := config.Load(path)
			assert.Error(t, err)
		})
	}
}

func TestValidationMessageUsesTomlKeys(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.OutputDir = "/music"
	cfg.Paths.TempDir = "/tmp"
	cfg.Sox.PollIntervalMS = 1
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sox.poll_interval_ms")
}

func TestCreateSampleProducesLoadableConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	require.NoError(t, config.CreateSample(path))

	cfg, _, exists, err := config.Load(path)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, "sox", cfg.Sox.Binary)
	assert.Empty(t, cfg.Metrics.Textfile)
}
