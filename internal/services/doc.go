// Package services defines shared utilities consumed by the call lifecycle and
// the remote service integrations.
//
// Key responsibilities:
//   - Context helpers that stamp call handles, stage names, and correlation
//     identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent terminal statuses (failed vs error).
//
// Integrations live in subpackages (vapi, llm, gemini) and report failures
// through these markers so the orchestrator can classify them uniformly.
package services
