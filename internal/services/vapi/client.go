package vapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"callprep/internal/config"
	"callprep/internal/services"
)

const (
	// DefaultBaseURL is the public Vapi API endpoint.
	DefaultBaseURL     = "https://api.vapi.ai"
	defaultHTTPTimeout = 30 * time.Second
	maxErrorBody       = 512
)

// Config captures the runtime settings for the call service.
type Config struct {
	APIKey             string
	BaseURL            string
	PhoneNumberID      string
	OperatorName       string
	AssistantName      string
	AssistantModel     string
	VoiceID            string
	MaxDurationSeconds int
	TimeoutSeconds     int
}

// ConfigFrom maps the [vapi] configuration section onto client settings.
func ConfigFrom(v config.Vapi) Config {
	return Config{
		APIKey:             v.APIKey,
		BaseURL:            v.BaseURL,
		PhoneNumberID:      v.PhoneNumberID,
		OperatorName:       v.OperatorName,
		AssistantName:      v.AssistantName,
		AssistantModel:     v.AssistantModel,
		VoiceID:            v.VoiceID,
		MaxDurationSeconds: v.MaxDurationSeconds,
		TimeoutSeconds:     v.RequestTimeout,
	}
}

// Client is a Vapi API client.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs a client, filling unset fields with the stock
// assistant settings.
func NewClient(cfg Config, opts ...Option) *Client {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.PhoneNumberID = strings.TrimSpace(cfg.PhoneNumberID)
	if strings.TrimSpace(cfg.OperatorName) == "" {
		cfg.OperatorName = "Marc"
	}
	if strings.TrimSpace(cfg.AssistantName) == "" {
		cfg.AssistantName = "Alex"
	}
	if strings.TrimSpace(cfg.AssistantModel) == "" {
		cfg.AssistantModel = "gpt-4"
	}
	if strings.TrimSpace(cfg.VoiceID) == "" {
		cfg.VoiceID = "21m00Tcm4TlvDq8ikWAM"
	}
	if cfg.MaxDurationSeconds <= 0 {
		cfg.MaxDurationSeconds = 300
	}
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{cfg: cfg, httpClient: &http.Client{Timeout: timeout}}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// PhoneNumber is an outbound line registered with the account.
type PhoneNumber struct {
	ID     string `json:"id"`
	Number string `json:"number"`
	Name   string `json:"name,omitempty"`
}

// CallStatus is the result of one status poll.
type CallStatus struct {
	Status      string
	EndedReason string
	Raw         json.RawMessage
}

// ListPhoneNumbers returns the outbound lines available to the account.
func (c *Client) ListPhoneNumbers(ctx context.Context) ([]PhoneNumber, error) {
	body, status, err := c.do(ctx, http.MethodGet, "/phone-number", nil)
	if err != nil {
		return nil, services.Wrap(services.ErrProvider, "initiating", "list phone numbers", "request failed", err)
	}
	if status != http.StatusOK {
		return nil, services.Wrap(services.ErrProvider, "initiating", "list phone numbers", statusDetail(status, body), nil)
	}
	var numbers []PhoneNumber
	if err := json.Unmarshal(body, &numbers); err != nil {
		return nil, services.Wrap(services.ErrProvider, "initiating", "list phone numbers", "decode response", err)
	}
	return numbers, nil
}

// ResolvePhoneNumberID returns the configured outbound line, or the first
// line on the account when none is configured.
func (c *Client) ResolvePhoneNumberID(ctx context.Context) (string, error) {
	if c.cfg.PhoneNumberID != "" {
		return c.cfg.PhoneNumberID, nil
	}
	numbers, err := c.ListPhoneNumbers(ctx)
	if err != nil {
		return "", err
	}
	for _, number := range numbers {
		if strings.TrimSpace(number.ID) != "" {
			return number.ID, nil
		}
	}
	return "", services.Wrap(services.ErrConfiguration, "initiating", "select phone number",
		"no phone numbers found in the Vapi account; buy or import one at https://dashboard.vapi.ai/phone-numbers or set vapi.phone_number_id", nil)
}

// StartCall places the outbound call and returns its handle.
func (c *Client) StartCall(ctx context.Context, req services.CallRequest) (string, error) {
	if c.cfg.APIKey == "" {
		return "", services.Wrap(services.ErrConfiguration, "initiating", "start call", "vapi api key is missing", nil)
	}
	req = req.Normalized()
	if err := req.Validate(); err != nil {
		return "", err
	}
	phoneNumberID, err := c.ResolvePhoneNumberID(ctx)
	if err != nil {
		return "", err
	}

	payload, err := json.Marshal(c.callPayload(phoneNumberID, req))
	if err != nil {
		return "", services.Wrap(services.ErrProvider, "initiating", "start call", "encode payload", err)
	}
	body, status, err := c.do(ctx, http.MethodPost, "/call/phone", payload)
	if err != nil {
		return "", services.Wrap(services.ErrProvider, "initiating", "start call", "request failed", err)
	}
	if status != http.StatusCreated {
		return "", services.Wrap(services.ErrProvider, "initiating", "start call", statusDetail(status, body), nil)
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		return "", services.Wrap(services.ErrProvider, "initiating", "start call", "decode response", err)
	}
	if strings.TrimSpace(created.ID) == "" {
		return "", services.Wrap(services.ErrProvider, "initiating", "start call", "response has no call id", nil)
	}
	return created.ID, nil
}

// GetStatus fetches the current call payload.
func (c *Client) GetStatus(ctx context.Context, handle string) (CallStatus, error) {
	body, status, err := c.do(ctx, http.MethodGet, "/call/"+handle, nil)
	if err != nil {
		return CallStatus{}, services.Wrap(services.ErrProvider, "polling", "get call status", "request failed", err)
	}
	if status != http.StatusOK {
		return CallStatus{}, services.Wrap(services.ErrProvider, "polling", "get call status", statusDetail(status, body), nil)
	}
	var parsed struct {
		Status      string `json:"status"`
		EndedReason string `json:"endedReason"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return CallStatus{}, services.Wrap(services.ErrProvider, "polling", "get call status", "decode response", err)
	}
	return CallStatus{Status: parsed.Status, EndedReason: parsed.EndedReason, Raw: json.RawMessage(body)}, nil
}

// GetTranscript fetches the call payload and resolves its transcript.
func (c *Client) GetTranscript(ctx context.Context, handle string) (string, bool, error) {
	status, err := c.GetStatus(ctx, handle)
	if err != nil {
		return "", false, err
	}
	return c.TranscriptFromPayload(ctx, status.Raw)
}

// TranscriptFromPayload resolves the transcript from an already fetched call
// payload, consulting the transcript URL only when the payload itself has
// nothing. Each source is decoded on its own so a malformed field only
// disqualifies that source.
func (c *Client) TranscriptFromPayload(ctx context.Context, raw json.RawMessage) (string, bool, error) {
	var payload map[string]json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &payload) != nil {
		return "", false, nil
	}

	if transcript := rawString(payload["transcript"]); transcript != "" {
		return transcript, true, nil
	}

	var messages []map[string]json.RawMessage
	if json.Unmarshal(payload["messages"], &messages) == nil && len(messages) > 0 {
		lines := make([]string, 0, len(messages))
		for _, msg := range messages {
			role := "unknown"
			if r := rawString(msg["role"]); r != "" {
				role = r
			}
			content := rawString(msg["content"])
			if content == "" {
				content = rawString(msg["message"])
			}
			lines = append(lines, role+": "+content)
		}
		return strings.Join(lines, "\n"), true, nil
	}

	var artifact map[string]json.RawMessage
	if json.Unmarshal(payload["artifact"], &artifact) == nil {
		if url := strings.TrimSpace(rawString(artifact["transcriptUrl"])); url != "" {
			return c.fetchTranscriptURL(ctx, url)
		}
	}
	return "", false, nil
}

// rawString returns the value when raw holds a JSON string and "" otherwise.
func rawString(raw json.RawMessage) string {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}

func (c *Client) fetchTranscriptURL(ctx context.Context, url string) (string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", false, nil
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", false, services.Wrap(services.ErrProvider, "reporting", "fetch transcript", "request failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", false, nil
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", false, services.Wrap(services.ErrProvider, "reporting", "fetch transcript", "read body", err)
	}
	if len(body) == 0 {
		return "", false, nil
	}
	return string(body), true, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, int, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read body: %w", err)
	}
	return body, resp.StatusCode, nil
}

func statusDetail(status int, body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) > maxErrorBody {
		text = text[:maxErrorBody] + "..."
	}
	if text == "" {
		return fmt.Sprintf("http %d", status)
	}
	return fmt.Sprintf("http %d - %s", status, text)
}
