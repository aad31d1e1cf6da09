package config

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
)

var structValidator = validator.New()

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := structValidator.Struct(c); err != nil {
		return describeValidation(err)
	}
	if err := c.validateEffects(); err != nil {
		return err
	}
	if err := c.validatePaths(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateEffects() error {
	if math.IsNaN(c.Effects.Frequency) {
		return errors.New("effects.frequency must be a number")
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.OutputDir == "" {
		return errors.New("paths.output_dir must be set")
	}
	if filepath.Clean(c.Paths.OutputDir) == filepath.Clean(c.Paths.TempDir) {
		return errors.New("paths.temp_dir must differ from paths.output_dir")
	}
	textfile := strings.TrimSpace(c.Metrics.Textfile)
	if textfile != "" && !strings.HasSuffix(textfile, ".prom") {
		return errors.New("metrics.textfile must end in .prom")
	}
	return nil
}

// describeValidation turns validator field errors into section.key messages.
func describeValidation(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("validate config: %w", err)
	}
	first := fieldErrs[0]
	key := tomlKey(first.Namespace())
	if first.Param() != "" {
		return fmt.Errorf("%s fails %s=%s (got %v)", key, first.Tag(), first.Param(), first.Value())
	}
	return fmt.Errorf("%s fails %s (got %v)", key, first.Tag(), first.Value())
}

var tomlKeys = map[string]string{
	"Paths":                 "paths",
	"Effects":               "effects",
	"Sox":                   "sox",
	"Logging":               "logging",
	"Metrics":               "metrics",
	"StateDir":              "state_dir",
	"Frequency":             "frequency",
	"Binary":                "binary",
	"PollIntervalMS":        "poll_interval_ms",
	"TerminateGraceSeconds": "terminate_grace_seconds",
	"Format":                "format",
	"Level":                 "level",
	"MaxSizeMB":             "max_size_mb",
	"MaxBackups":            "max_backups",
	"MaxAgeDays":            "max_age_days",
}

func tomlKey(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 0 && parts[0] == "Config" {
		parts = parts[1:]
	}
	for i, part := range parts {
		if key, ok := tomlKeys[part]; ok {
			parts[i] = key
		}
	}
	return strings.Join(parts, ".")
}
