// Package logging assembles structured slog loggers and formatting helpers
// used across locaudit services.
//
// It centralizes level and output plumbing for the console/JSON handlers and
// exposes context-aware helpers so stage code automatically tags log lines
// with audit IDs, stages, and correlation IDs. The package also provides a
// no-op logger for tests and wiring code that cannot fail.
package logging
