// Package config loads, normalizes, and validates mediakeep configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// EXIFTOOL_PATH. The Config type centralizes every knob the CLI and the write
// pipeline need so catalog location, tool lookup, and writer tuning are
// discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
