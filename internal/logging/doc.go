// Package logging assembles structured slog loggers used across reeler
// components.
//
// It owns the configurable console/JSON handlers, centralizes level and
// output plumbing, and exposes attribute helpers so component code tags log
// lines with session IDs and event types in a consistent shape. The package
// also provides a no-op logger for tests and wiring code that cannot fail.
package logging
