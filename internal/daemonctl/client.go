package daemonctl

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"

	"callprep/internal/api"
	"callprep/internal/config"
	"callprep/internal/services"
)

// ErrDaemonNotRunning indicates the daemon API is unavailable.
var ErrDaemonNotRunning = errors.New("daemon not running")

// ErrCallNotFound indicates the daemon does not track the requested handle.
var ErrCallNotFound = errors.New("call not found")

// Client talks to a running callprepd over its HTTP API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient returns a client for the daemon listening on bind.
func NewClient(bind, token string) *Client {
	base := strings.TrimRight(strings.TrimSpace(bind), "/")
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	return &Client{
		baseURL:    base,
		token:      strings.TrimSpace(token),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// FromConfig returns a client for the daemon described by cfg.
func FromConfig(cfg *config.Config) (*Client, error) {
	if cfg == nil || strings.TrimSpace(cfg.API.Bind) == "" {
		return nil, fmt.Errorf("%w: api.bind is not configured", ErrDaemonNotRunning)
	}
	return NewClient(cfg.API.Bind, cfg.API.Token), nil
}

// Status retrieves the daemon status.
func (c *Client) Status(ctx context.Context) (*api.DaemonStatus, error) {
	var resp api.DaemonStatus
	if err := c.do(ctx, http.MethodGet, "/api/status", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// StartCall places a detached call through the daemon.
func (c *Client) StartCall(ctx context.Context, req services.CallRequest) (*api.CallAccepted, error) {
	var resp api.CallAccepted
	if err := c.do(ctx, http.MethodPost, "/api/calls", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CallStatus returns the progress entry for handle.
func (c *Client) CallStatus(ctx context.Context, handle string) (*api.CallProgress, error) {
	var resp api.CallProgress
	if err := c.do(ctx, http.MethodGet, "/api/call-status/"+url.PathEscape(handle), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Preview returns the assistant introduction for an attendee and meeting.
func (c *Client) Preview(ctx context.Context, attendee, meeting string) (*api.PreviewResponse, error) {
	query := url.Values{"name": {attendee}, "meeting": {meeting}}
	var resp api.PreviewResponse
	if err := c.do(ctx, http.MethodGet, "/api/preview?"+query.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// WaitForCall polls the daemon until handle reaches a terminal status.
func (c *Client) WaitForCall(ctx context.Context, handle string, interval time.Duration) (*api.CallProgress, error) {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		entry, err := c.CallStatus(ctx, handle)
		if err != nil {
			return nil, err
		}
		switch entry.Status {
		case "completed", "failed", "error":
			return entry, nil
		}
		select {
		case <-ctx.Done():
			return entry, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isDaemonUnavailable(err) {
			return fmt.Errorf("%w: %v", ErrDaemonNotRunning, err)
		}
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr api.ErrorResponse
		_ = json.Unmarshal(data, &apiErr)
		if resp.StatusCode == http.StatusNotFound && apiErr.Status == "unknown" {
			return ErrCallNotFound
		}
		message := strings.TrimSpace(apiErr.Error)
		if message == "" {
			message = strings.TrimSpace(string(data))
		}
		return fmt.Errorf("daemon returned %d: %s", resp.StatusCode, message)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func isDaemonUnavailable(err error) bool {
	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ENOENT)
}
