package lifecycle

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"callprep/internal/config"
	"callprep/internal/notifications"
	"callprep/internal/progress"
	"callprep/internal/report"
	"callprep/internal/services"
	"callprep/internal/services/vapi"
	"callprep/internal/store"
	"callprep/internal/summary"
)

const (
	// DefaultPollInterval is the delay between call status polls.
	DefaultPollInterval = 5 * time.Second
	// DefaultPollTimeout bounds how long a call may take to end.
	DefaultPollTimeout = 300 * time.Second
)

// Lifecycle stage names used for log context and error detail.
const (
	stageInitiating  = "initiating"
	stagePolling     = "polling"
	stageReporting   = "reporting"
	stageSummarizing = "summarizing"
	stagePersisting  = "persisting"
)

var (
	successStatuses = map[string]struct{}{"ended": {}, "completed": {}}
	failureStatuses = map[string]struct{}{"failed": {}, "busy": {}, "no-answer": {}}
)

// CallService is the subset of the call service client the lifecycle needs.
type CallService interface {
	StartCall(ctx context.Context, req services.CallRequest) (string, error)
	GetStatus(ctx context.Context, handle string) (vapi.CallStatus, error)
	TranscriptFromPayload(ctx context.Context, raw json.RawMessage) (string, bool, error)
}

// ReportWriter stores rendered report documents. Remove discards a document
// whose store row could not be created.
type ReportWriter interface {
	Write(ctx context.Context, file report.File) (string, error)
	Remove(ctx context.Context, location string) error
}

// ReportStore records finished calls.
type ReportStore interface {
	Create(ctx context.Context, report *store.Report) (int64, error)
}

// Dependencies wires the collaborators of an Orchestrator. Notifier, Logger
// and Runner are optional; Launch requires a Runner.
type Dependencies struct {
	Calls      CallService
	Summarizer summary.Summarizer
	Writer     ReportWriter
	Store      ReportStore
	Registry   *progress.Registry
	Notifier   notifications.Service
	Logger     *slog.Logger
	Runner     *Runner
}

// Options tunes polling. Zero values fall back to the defaults.
type Options struct {
	PollInterval time.Duration
	PollTimeout  time.Duration
	// Now overrides the clock used for report timestamps.
	Now func() time.Time
}

// OptionsFromConfig reads the [lifecycle] section.
func OptionsFromConfig(cfg *config.Config) Options {
	if cfg == nil {
		return Options{}
	}
	return Options{PollInterval: cfg.PollInterval(), PollTimeout: cfg.PollTimeout()}
}

func (o Options) withDefaults() Options {
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.PollTimeout <= 0 {
		o.PollTimeout = DefaultPollTimeout
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Outcome is the terminal state of one lifecycle.
type Outcome struct {
	Handle       string          `json:"handle"`
	Status       progress.Status `json:"status"`
	CallStatus   string          `json:"call_status,omitempty"`
	Transcript   string          `json:"transcript,omitempty"`
	Summary      string          `json:"summary,omitempty"`
	ReportID     int64           `json:"report_id,omitempty"`
	ReportPath   string          `json:"report_path,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
}

// PersistenceError is returned when the summary was produced but the report
// file or store row could not be written. No report file is left behind;
// Summary holds the text so it can be recovered by hand.
type PersistenceError struct {
	Summary string
	Err     error
}

func (e *PersistenceError) Error() string {
	if e == nil || e.Err == nil {
		return "persist report"
	}
	return "persist report: " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
