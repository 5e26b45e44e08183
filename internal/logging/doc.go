// Package logging assembles structured slog loggers and formatting helpers used
// across cinelog components.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so sync workers automatically
// tag log lines with run IDs, entry IDs, and file paths. The package also
// provides a no-op logger for tests and wiring code that cannot fail.
package logging
