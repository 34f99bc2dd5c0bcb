// Package summary turns call transcripts into meeting preparation summaries
// and formats the persisted report document.
//
// Summarizer is the contract the lifecycle depends on. The concrete backend
// (Anthropic, OpenRouter or Gemini) is chosen from configuration by
// NewFromConfig; each backend only needs to complete a system/user prompt
// pair. FormatReport is pure and ParseSummary recovers the summary it
// embedded byte for byte.
package summary
