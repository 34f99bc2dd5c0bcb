// Package progress holds the in-memory registry of live call lifecycles.
//
// Observers poll entries by external call handle while the lifecycle
// orchestrator mutates them. All access goes through one mutex, updates are
// applied through mutator functions, and status changes are checked against
// the monotonic order initiated -> in_progress -> {completed, failed, error}.
// The registry is bounded; terminal entries are evicted first, least recently
// updated first.
package progress
