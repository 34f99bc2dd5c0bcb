// Package logging assembles structured slog loggers and formatting helpers used
// across callprep.
//
// It owns the console/JSON handlers, centralizes level and output plumbing,
// and exposes context-aware helpers so lifecycle code can tag log lines with
// call handles, stages, and correlation IDs. The console handler folds those
// into a "Call <handle> (stage)" subject. Credential fields are masked by both
// handlers. A no-op logger is provided for tests and wiring code that cannot fail.
package logging
