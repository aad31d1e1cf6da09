// Package effects defines the per-job effect settings record.
//
// Settings are clamped when constructed so every consumer (the estimator, the
// SoX command builder, the tag normalizer) can trust the values without
// re-validating them at the point of use.
package effects

import (
	"fmt"
	"math"
)

// SettingsVersion identifies the layout of Settings. Bump it when fields change.
const SettingsVersion = 1

const (
	// MinFrequency is the lowest tremolo frequency accepted, in Hz.
	MinFrequency = 30.0
	// MaxFrequency is the highest tremolo frequency accepted, in Hz.
	MaxFrequency = 50.0
	// DefaultFrequency is used when no usable frequency is supplied.
	DefaultFrequency = 40.0
)

// Settings controls which effects are applied to every file in a job.
type Settings struct {
	Version        int     `json:"version" toml:"-"`
	Noise          bool    `json:"noise" toml:"noise"`
	Compressor     bool    `json:"compressor" toml:"compressor"`
	Frequency      float64 `json:"frequency" toml:"frequency"`
	ChunkIntoHours bool    `json:"chunk_into_hours" toml:"chunk_into_hours"`
}

// NewSettings builds a Settings record with the frequency clamped to
// [MinFrequency, MaxFrequency].
func NewSettings(noise, compressor bool, frequency float64, chunkIntoHours bool) Settings {
	return Settings{
		Version:        SettingsVersion,
		Noise:          noise,
		Compressor:     compressor,
		Frequency:      ClampFrequency(frequency),
		ChunkIntoHours: chunkIntoHours,
	}
}

// Default returns the settings a fresh install starts with.
func Default() Settings {
	return NewSettings(true, true, DefaultFrequency, true)
}

// Normalized returns a copy of s with the version stamped and the frequency clamped.
func (s Settings) Normalized() Settings {
	return NewSettings(s.Noise, s.Compressor, s.Frequency, s.ChunkIntoHours)
}

// ClampFrequency bounds value to the accepted tremolo range. NaN maps to DefaultFrequency.
func ClampFrequency(value float64) float64 {
	if math.IsNaN(value) {
		return DefaultFrequency
	}
	return math.Max(MinFrequency, math.Min(MaxFrequency, value))
}

// FrequencyArg formats the tremolo frequency for the SoX command line.
func (s Settings) FrequencyArg() string {
	return fmt.Sprintf("%g", s.Frequency)
}

// String renders a compact summary for logs.
func (s Settings) String() string {
	return fmt.Sprintf("noise=%t compressor=%t frequency=%g chunk=%t", s.Noise, s.Compressor, s.Frequency, s.ChunkIntoHours)
}
