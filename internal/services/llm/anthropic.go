package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"callprep/internal/services"
)

const (
	// DefaultAnthropicURL is the messages endpoint used when none is configured.
	DefaultAnthropicURL = "https://api.anthropic.com/v1/messages"
	anthropicVersion    = "2023-06-01"
)

// AnthropicClient wraps the Anthropic messages API.
type AnthropicClient struct {
	transport
	cfg Config
}

// NewAnthropicClient constructs a messages API client.
func NewAnthropicClient(cfg Config, opts ...Option) *AnthropicClient {
	client := &AnthropicClient{
		transport: newTransport(cfg.TimeoutSeconds),
		cfg:       cfg.normalized(DefaultAnthropicURL),
	}
	for _, opt := range opts {
		opt(&client.transport)
	}
	return client
}

type messagesRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Error      *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends the prompts to the messages API and returns the concatenated text blocks.
func (c *AnthropicClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if c.cfg.APIKey == "" {
		return "", services.Wrap(services.ErrConfiguration, "summarizing", "anthropic", "api key required", nil)
	}
	if strings.TrimSpace(userPrompt) == "" {
		return "", services.Wrap(services.ErrValidation, "summarizing", "anthropic", "user prompt required", nil)
	}
	payload := messagesRequest{
		Model:     c.cfg.Model,
		MaxTokens: c.cfg.MaxTokens,
		System:    strings.TrimSpace(systemPrompt),
		Messages:  []anthropicMessage{{Role: "user", Content: strings.TrimSpace(userPrompt)}},
	}
	content, err := c.withRetry(ctx, "anthropic complete", func() (string, error) {
		return c.sendOnce(ctx, payload)
	})
	if err != nil {
		return "", services.Wrap(services.ErrProvider, "summarizing", "anthropic", "messages request", err)
	}
	return content, nil
}

func (c *AnthropicClient) sendOnce(ctx context.Context, payload messagesRequest) (string, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("x-api-key", c.cfg.APIKey)
	req.Header.Set("anthropic-version", anthropicVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http error (timeout=%s): %w", c.timeoutDuration(), err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		retryAfter, _ := parseRetryAfter(resp.Header.Get("Retry-After"))
		return "", &httpStatusError{StatusCode: resp.StatusCode, Body: string(body), RetryAfter: retryAfter}
	}

	var parsed messagesResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("api error (%s): %s", parsed.Error.Type, strings.TrimSpace(parsed.Error.Message))
	}
	var parts []string
	for _, block := range parsed.Content {
		if block.Type == "text" && strings.TrimSpace(block.Text) != "" {
			parts = append(parts, block.Text)
		}
	}
	if len(parts) == 0 {
		return "", &emptyContentError{Op: "anthropic complete", StopReason: parsed.StopReason, Snippet: summarizePayloadSnippet(string(body))}
	}
	return strings.TrimSpace(strings.Join(parts, "")), nil
}
