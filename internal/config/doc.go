// Package config loads, normalizes, and validates outtake configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the OUTTAKE_LOG_LEVEL environment
// fallback. The Config type centralizes every knob the CLI and the relocation
// pipeline need: where the relocation journal and log files live, which digest
// verifies copies, and how log output is shaped.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
