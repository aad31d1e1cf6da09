package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/sethvargo/go-envconfig"

	"github.com/danielemils/new-alice/internal/effects"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	OutputDir string `toml:"output_dir" env:"ALICE_OUTPUT_DIR, overwrite"`
	TempDir   string `toml:"temp_dir" env:"ALICE_TEMP_DIR, overwrite"`
	LogDir    string `toml:"log_dir" env:"ALICE_LOG_DIR, overwrite"`
	StateDir  string `toml:"state_dir" env:"ALICE_STATE_DIR, overwrite" validate:"required"`
}

// Effects holds the default effect settings used when the command line does
// not override them.
type Effects struct {
	Noise          bool    `toml:"noise" env:"ALICE_NOISE, overwrite"`
	Compressor     bool    `toml:"compressor" env:"ALICE_COMPRESSOR, overwrite"`
	Frequency      float64 `toml:"frequency" env:"ALICE_FREQUENCY, overwrite" validate:"gte=30,lte=50"`
	ChunkIntoHours bool    `toml:"chunk_into_hours" env:"ALICE_CHUNK_INTO_HOURS, overwrite"`
}

// Sox contains configuration for the SoX executable.
type Sox struct {
	Binary                string `toml:"binary" env:"ALICE_SOX_BINARY, overwrite" validate:"required"`
	PollIntervalMS        int    `toml:"poll_interval_ms" validate:"min=10,max=1000"`
	TerminateGraceSeconds int    `toml:"terminate_grace_seconds" validate:"min=1,max=60"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format     string `toml:"format" env:"ALICE_LOG_FORMAT, overwrite" validate:"oneof=console json"`
	Level      string `toml:"level" env:"ALICE_LOG_LEVEL, overwrite" validate:"oneof=debug info warn error"`
	MaxSizeMB  int    `toml:"max_size_mb" validate:"min=1"`
	MaxBackups int    `toml:"max_backups" validate:"min=0"`
	MaxAgeDays int    `toml:"max_age_days" validate:"min=0"`
}

// Metrics contains configuration for the node-exporter textfile sink.
type Metrics struct {
	Textfile string `toml:"textfile" env:"ALICE_METRICS_TEXTFILE, overwrite"`
}

// Config encapsulates all configuration values for Alice.
//
// Configuration sections by subsystem:
//   - Paths: output, scratch, log, and state directories
//   - Effects: default effect settings for new jobs
//   - Sox: executable and process supervision timing
//   - Logging: log format, level, and rotation
//   - Metrics: optional Prometheus textfile output
type Config struct {
	Paths   Paths   `toml:"paths"`
	Effects Effects `toml:"effects"`
	Sox     Sox     `toml:"sox"`
	Logging Logging `toml:"logging"`
	Metrics Metrics `toml:"metrics"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/alice/config.toml")
}

// Load locates, parses, and validates a configuration file. Environment
// variables prefixed with ALICE_ override file values. The returned config has
// all path fields expanded.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		return nil, "", false, fmt.Errorf("environment overrides: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("alice.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories a conversion run writes to.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputDir, c.Paths.TempDir, c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// EffectSettings returns the configured defaults as a clamped settings record.
func (c *Config) EffectSettings() effects.Settings {
	return effects.NewSettings(c.Effects.Noise, c.Effects.Compressor, c.Effects.Frequency, c.Effects.ChunkIntoHours)
}

// PollInterval is how often a running SoX process is checked.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Sox.PollIntervalMS) * time.Millisecond
}

// TerminateGrace is how long a terminated process may take to exit before it
// is killed.
func (c *Config) TerminateGrace() time.Duration {
	return time.Duration(c.Sox.TerminateGraceSeconds) * time.Second
}

// HistoryPath is the location of the job history database.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.Paths.StateDir, "history.db")
}

// LockPath is the single-instance lock held while converting.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "alice.lock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// ExpandPath exposes the path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
