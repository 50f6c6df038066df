// Package config loads, normalizes, and validates stemset configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files. The Config type centralizes every knob the
// CLI needs: artifact directories, external tool names, retry and timeout
// settings, and separation backend models.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths and clear validation errors.
package config
