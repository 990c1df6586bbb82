// Package config loads, normalizes, and validates reeler configuration.
//
// Configuration lives in a TOML file (default ~/.config/reeler/config.toml)
// with sections per subsystem: paths, capture, encode, notifications, and
// logging. Load applies defaults first, then file overrides, then expands
// paths and validates ranges so downstream code never re-checks them.
package config
