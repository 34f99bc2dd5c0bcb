// Package notifications delivers call lifecycle events via ntfy.
//
// The default implementation publishes to the topic URL configured in
// config.toml and degrades to a no-op when no topic is set. Completion and
// failure events can be switched off individually.
package notifications
