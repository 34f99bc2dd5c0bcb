package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"callprep/internal/config"
)

const userAgent = "callprep/0.1.0"

// Service defines the notification surface exposed to the call lifecycle.
type Service interface {
	NotifyCallCompleted(ctx context.Context, attendee, reportPath string) error
	NotifyCallFailed(ctx context.Context, attendee, reason string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:      topic,
		client:        &http.Client{Timeout: timeout},
		callCompleted: cfg.Notifications.CallCompleted,
		callFailed:    cfg.Notifications.CallFailed,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint      string
	client        *http.Client
	callCompleted bool
	callFailed    bool
}

func (n *ntfyService) NotifyCallCompleted(ctx context.Context, attendee, reportPath string) error {
	if !n.callCompleted {
		return nil
	}
	attendee = strings.TrimSpace(attendee)
	message := fmt.Sprintf("📞 Prep call complete: %s", attendee)
	if reportPath = strings.TrimSpace(reportPath); reportPath != "" {
		message = fmt.Sprintf("%s\nReport: %s", message, reportPath)
	}
	return n.send(ctx, payload{
		title:   "callprep - Call Complete",
		message: message,
		tags:    []string{"callprep", "call", "completed"},
	})
}

func (n *ntfyService) NotifyCallFailed(ctx context.Context, attendee, reason string) error {
	if !n.callFailed {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("❌ Prep call failed")
	if attendee = strings.TrimSpace(attendee); attendee != "" {
		builder.WriteString(" for ")
		builder.WriteString(attendee)
	}
	builder.WriteString(": ")
	if reason = strings.TrimSpace(reason); reason != "" {
		builder.WriteString(reason)
	} else {
		builder.WriteString("unknown")
	}
	return n.send(ctx, payload{
		title:    "callprep - Call Failed",
		message:  builder.String(),
		tags:     []string{"callprep", "call", "failed"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "callprep - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"callprep", "test"},
		priority: "low",
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyCallCompleted(context.Context, string, string) error { return nil }
func (noopService) NotifyCallFailed(context.Context, string, string) error    { return nil }
func (noopService) TestNotification(context.Context) error                    { return nil }
