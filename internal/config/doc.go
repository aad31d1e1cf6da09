// Package config loads, normalizes, and validates Alice configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and applies ALICE_* environment overrides. The
// Config type centralizes every knob the CLI and conversion engine need so
// output, scratch, and state directories are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
