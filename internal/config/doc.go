// Package config loads, normalizes, and validates the TOML configuration
// file. Defaults apply first, file values override them, and a handful of
// secrets fall back to environment variables.
package config
