package lifecycle_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"callprep/internal/lifecycle"
	"callprep/internal/progress"
	"callprep/internal/report"
	"callprep/internal/services"
	"callprep/internal/services/vapi"
	"callprep/internal/store"
	"callprep/internal/summary"
)

var janeDoe = services.CallRequest{
	AttendeeName:       "Jane Doe",
	PhoneNumber:        "+15550123",
	MeetingDescription: "Q4 Planning",
}

const janeTranscript = "assistant: Hi, is this Jane Doe?\nuser: Yes.\nassistant: What are your main goals for this meeting?\nuser: Agree on the Q4 roadmap."

// fakeCalls plays back a scripted sequence of remote statuses. The last
// status repeats once the script runs out.
type fakeCalls struct {
	mu         sync.Mutex
	handle     string
	startErr   error
	statuses   []string
	statusErr  error
	transcript string
	polls      int
	resolver   *vapi.Client
}

func newFakeCalls(statuses ...string) *fakeCalls {
	return &fakeCalls{
		handle:     "call_123",
		statuses:   statuses,
		transcript: janeTranscript,
		resolver:   vapi.NewClient(vapi.Config{}),
	}
}

func (f *fakeCalls) StartCall(context.Context, services.CallRequest) (string, error) {
	if f.startErr != nil {
		return "", f.startErr
	}
	return f.handle, nil
}

func (f *fakeCalls) GetStatus(_ context.Context, handle string) (vapi.CallStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.polls++
	if f.statusErr != nil {
		return vapi.CallStatus{}, f.statusErr
	}
	idx := f.polls - 1
	if idx >= len(f.statuses) {
		idx = len(f.statuses) - 1
	}
	status := f.statuses[idx]
	raw, _ := json.Marshal(map[string]string{"id": handle, "status": status, "transcript": f.transcript})
	return vapi.CallStatus{Status: status, Raw: raw}, nil
}

func (f *fakeCalls) TranscriptFromPayload(ctx context.Context, raw json.RawMessage) (string, bool, error) {
	return f.resolver.TranscriptFromPayload(ctx, raw)
}

func (f *fakeCalls) pollCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.polls
}

type fakeSummarizer struct {
	mu      sync.Mutex
	text    string
	err     error
	panics  bool
	calls   int
	release chan struct{}
}

func (s *fakeSummarizer) Summarize(ctx context.Context, transcript, attendee, meeting string) (summary.Result, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.release != nil {
		select {
		case <-s.release:
		case <-ctx.Done():
			return summary.Result{}, ctx.Err()
		}
	}
	if s.panics {
		panic("summarizer exploded")
	}
	if s.err != nil {
		return summary.Result{}, s.err
	}
	return summary.Result{Summary: s.text}, nil
}

func (s *fakeSummarizer) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type failingWriter struct{}

func (failingWriter) Write(context.Context, report.File) (string, error) {
	return "", services.Wrap(services.ErrPersistence, "reporting", "write report", "disk full", errors.New("no space left on device"))
}

func (failingWriter) Remove(context.Context, string) error { return nil }

type failingStore struct{}

func (failingStore) Create(context.Context, *store.Report) (int64, error) {
	return 0, services.Wrap(services.ErrPersistence, "persisting", "create report", "", errors.New("database is locked"))
}

type fakeStore struct {
	mu      sync.Mutex
	reports []*store.Report
}

func (s *fakeStore) Create(_ context.Context, r *store.Report) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, r)
	return int64(len(s.reports)), nil
}

func (s *fakeStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reports)
}

type memWriter struct {
	mu      sync.Mutex
	files   []report.File
	removed []string
}

func (w *memWriter) Write(_ context.Context, file report.File) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.files = append(w.files, file)
	return "meeting-notes/" + report.FileName(file.Timestamp, file.AttendeeName), nil
}

func (w *memWriter) Remove(_ context.Context, location string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.removed = append(w.removed, location)
	return nil
}

type recordingNotifier struct {
	mu        sync.Mutex
	completed []string
	failed    []string
}

func (n *recordingNotifier) NotifyCallCompleted(_ context.Context, attendee, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.completed = append(n.completed, attendee)
	return nil
}

func (n *recordingNotifier) NotifyCallFailed(_ context.Context, _ string, reason string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failed = append(n.failed, reason)
	return nil
}

func (n *recordingNotifier) TestNotification(context.Context) error { return nil }

type harness struct {
	calls      *fakeCalls
	summarizer *fakeSummarizer
	store      *fakeStore
	writer     *memWriter
	notifier   *recordingNotifier
	registry   *progress.Registry
	deps       lifecycle.Dependencies
	opts       lifecycle.Options
}

func newHarness(t *testing.T, statuses ...string) *harness {
	t.Helper()
	h := &harness{
		calls:      newFakeCalls(statuses...),
		summarizer: &fakeSummarizer{text: "- Goals: agree on the Q4 roadmap"},
		store:      &fakeStore{},
		writer:     &memWriter{},
		notifier:   &recordingNotifier{},
		registry:   progress.NewRegistry(16),
	}
	h.deps = lifecycle.Dependencies{
		Calls:      h.calls,
		Summarizer: h.summarizer,
		Writer:     h.writer,
		Store:      h.store,
		Registry:   h.registry,
		Notifier:   h.notifier,
	}
	h.opts = lifecycle.Options{PollInterval: 5 * time.Millisecond, PollTimeout: 2 * time.Second}
	return h
}

func (h *harness) orchestrator() *lifecycle.Orchestrator {
	return lifecycle.New(h.deps, h.opts)
}
