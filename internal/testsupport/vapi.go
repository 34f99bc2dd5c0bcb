package testsupport

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// VapiServer fakes the call service API. Every placed call walks through
// Statuses on successive polls, repeating the last one.
type VapiServer struct {
	*httptest.Server

	mu         sync.Mutex
	Statuses   []string
	Transcript string
	StartCode  int
	calls      map[string]int
	requests   []map[string]any
}

// NewVapiServer starts a fake call service and registers cleanup.
func NewVapiServer(t testing.TB, statuses ...string) *VapiServer {
	t.Helper()
	if len(statuses) == 0 {
		statuses = []string{"ringing", "ended"}
	}
	fake := &VapiServer{
		Statuses:   statuses,
		Transcript: "assistant: Hi, is this Jane Doe?\nuser: Yes, go ahead.",
		StartCode:  http.StatusCreated,
		calls:      make(map[string]int),
	}
	fake.Server = httptest.NewServer(http.HandlerFunc(fake.handle))
	t.Cleanup(fake.Close)
	return fake
}

// Requests returns the decoded bodies of every call placement.
func (f *VapiServer) Requests() []map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]map[string]any(nil), f.requests...)
}

// SetStatuses replaces the status sequence for calls polled afterwards.
func (f *VapiServer) SetStatuses(statuses ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Statuses = statuses
}

// RejectCalls makes every later call placement answer with code.
func (f *VapiServer) RejectCalls(code int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.StartCode = code
}

func (f *VapiServer) handle(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/phone-number":
		_ = json.NewEncoder(w).Encode([]map[string]string{{"id": "test-line", "number": "+15550000"}})
	case r.Method == http.MethodPost && r.URL.Path == "/call/phone":
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.requests = append(f.requests, body)
		if f.StartCode != http.StatusCreated {
			w.WriteHeader(f.StartCode)
			_, _ = w.Write([]byte(`{"message":"rejected"}`))
			return
		}
		handle := "call_" + strings.Repeat("x", len(f.requests))
		f.calls[handle] = 0
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]string{"id": handle})
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/call/"):
		handle := strings.TrimPrefix(r.URL.Path, "/call/")
		polls, ok := f.calls[handle]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		f.calls[handle] = polls + 1
		idx := polls
		if idx >= len(f.Statuses) {
			idx = len(f.Statuses) - 1
		}
		payload := map[string]any{"id": handle, "status": f.Statuses[idx]}
		if f.Statuses[idx] == "ended" || f.Statuses[idx] == "completed" {
			payload["transcript"] = f.Transcript
		}
		_ = json.NewEncoder(w).Encode(payload)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}
