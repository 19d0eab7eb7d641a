// Package logging assembles structured slog loggers and formatting helpers used
// across mvs commands and servers.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so request handlers and the
// compiler can tag log lines with request, story, and scene identifiers. The
// package also provides a no-op logger for tests and wiring code that cannot
// fail.
package logging
