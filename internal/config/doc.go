// Package config loads, normalizes, and validates callprep configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// VAPI_API_KEY, ANTHROPIC_API_KEY and DATABASE_PATH. The Config type
// centralizes every knob the daemon and CLI need so credentials, storage
// locations and polling cadence are discovered in one pass.
//
// Missing credentials are reported at load time wrapped in
// services.ErrConfiguration; nothing downstream re-checks them.
package config
