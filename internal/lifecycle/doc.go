// Package lifecycle drives one prep call from dial to persisted report.
//
// The Orchestrator places the call, polls the call service until the call
// ends, fetches the transcript, summarizes it, writes the markdown report and
// records it in the store. Every step is mirrored into the progress registry
// so observers can follow along. Run blocks the caller until the lifecycle is
// terminal; Launch returns as soon as the call is placed and hands the rest to
// the Runner, a small worker pool that recovers panics into error entries.
//
// Errors after the call is placed never escape a detached lifecycle: they end
// up as the terminal progress entry. The synchronous mode also returns them.
package lifecycle
