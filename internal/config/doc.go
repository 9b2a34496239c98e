// Package config loads, normalizes, and validates bibleref configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, loads an optional .env file, and honours
// environment overrides such as BIBLEREF_VAULT_DIR. The Config type centralizes
// every knob the daemon and CLI need, so vault and state locations, reference
// field names, and notification settings are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, a normalized tag prefix, and clear validation errors.
package config
