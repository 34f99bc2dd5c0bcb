// Package gemini summarizes text with Google's Gemini models through the
// google.golang.org/genai SDK.
package gemini

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/genai"

	"callprep/internal/services"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.5-flash"

// Config captures the Gemini settings. APIKey may hold several comma-separated
// keys; the client rotates to the next one when a key is rate limited.
type Config struct {
	APIKey string
	Model  string
}

// Generator produces text for a prompt with one API key.
type Generator interface {
	Generate(ctx context.Context, apiKey, model, prompt string) (string, error)
}

// Client wraps Gemini content generation.
type Client struct {
	keys      []string
	mu        sync.Mutex
	current   int
	model     string
	generator Generator
}

// Option customizes the client.
type Option func(*Client)

// WithGenerator replaces the SDK-backed generator (useful for tests).
func WithGenerator(g Generator) Option {
	return func(c *Client) {
		if g != nil {
			c.generator = g
		}
	}
}

// NewClient constructs a Gemini client.
func NewClient(cfg Config, opts ...Option) *Client {
	client := &Client{
		keys:      splitKeys(cfg.APIKey),
		model:     strings.TrimSpace(cfg.Model),
		generator: sdkGenerator{},
	}
	if client.model == "" {
		client.model = DefaultModel
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

func splitKeys(raw string) []string {
	var keys []string
	for _, key := range strings.Split(raw, ",") {
		if key = strings.TrimSpace(key); key != "" {
			keys = append(keys, key)
		}
	}
	return keys
}

// Complete generates a reply for the prompts. Gemini takes a single text
// prompt here, so the system prompt is prepended to the user prompt.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if len(c.keys) == 0 {
		return "", services.Wrap(services.ErrConfiguration, "summarizing", "gemini", "api key required", nil)
	}
	prompt := strings.TrimSpace(userPrompt)
	if prompt == "" {
		return "", services.Wrap(services.ErrValidation, "summarizing", "gemini", "user prompt required", nil)
	}
	if system := strings.TrimSpace(systemPrompt); system != "" {
		prompt = system + "\n\n" + prompt
	}

	var lastErr error
	for range c.keys {
		text, err := c.generator.Generate(ctx, c.currentKey(), c.model, prompt)
		if err == nil {
			if strings.TrimSpace(text) == "" {
				return "", services.Wrap(services.ErrProvider, "summarizing", "gemini", "empty response", nil)
			}
			return strings.TrimSpace(text), nil
		}
		if !isRateLimited(err) {
			return "", services.Wrap(services.ErrProvider, "summarizing", "gemini", "generate content", err)
		}
		lastErr = err
		c.rotateKey()
	}
	return "", services.Wrap(services.ErrProvider, "summarizing", "gemini", "all api keys rate limited", lastErr)
}

func (c *Client) currentKey() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.keys[c.current]
}

func (c *Client) rotateKey() {
	c.mu.Lock()
	c.current = (c.current + 1) % len(c.keys)
	c.mu.Unlock()
}

func isRateLimited(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "429") || strings.Contains(msg, "quota") || strings.Contains(msg, "RESOURCE_EXHAUSTED")
}

type sdkGenerator struct{}

func (sdkGenerator) Generate(ctx context.Context, apiKey, model, prompt string) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", fmt.Errorf("create client: %w", err)
	}
	result, err := client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		return "", err
	}
	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return "", nil
	}
	var text strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			text.WriteString(part.Text)
		}
	}
	return text.String(), nil
}
