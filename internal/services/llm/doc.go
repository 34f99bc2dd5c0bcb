// Package llm provides HTTP clients for hosted language models used to
// summarize call transcripts.
//
// Two wire formats are supported:
//   - AnthropicClient: the Anthropic messages API (x-api-key, anthropic-version).
//   - Client: OpenAI-style chat completions as served by OpenRouter.
//
// Both expose Complete(ctx, systemPrompt, userPrompt) returning plain text.
//
// # Retry Behaviour
//
// Requests are retried on HTTP 408/429/5xx and network timeouts with
// exponential backoff (base 1s, max 10s). The attempt count comes from
// summarizer.retry_attempts. Context cancellation aborts retries immediately.
// Errors are tagged with services.ErrProvider; a missing API key is
// services.ErrConfiguration.
package llm
