// Package daemon coordinates the long-running callprep process.
//
// It wires configuration, the report store, the lifecycle runner and the
// progress registry into a single lifecycle with flock-based locking to
// prevent multiple instances, and serves the HTTP API used to start calls,
// follow their progress and browse stored reports.
//
// Keep orchestration logic here: the call lifecycle itself lives in the
// lifecycle package while the daemon focuses on startup, shutdown and the
// HTTP surface.
package daemon
