// Package config loads, validates, and normalizes the TOML configuration for
// the locaudit daemon and CLI.
package config
