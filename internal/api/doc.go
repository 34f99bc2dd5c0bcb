// Package api defines wire-format types and converters for the daemon HTTP
// API. It translates registry entries and stored reports into DTOs that the
// CLI and other consumers can render without importing internal models.
//
// JSON keys are snake_case. Timestamps use RFC3339 with milliseconds in UTC.
package api
