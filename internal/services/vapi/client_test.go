package vapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"callprep/internal/services"
	"callprep/internal/services/vapi"
)

var janeRequest = services.CallRequest{
	AttendeeName:       "Jane Doe",
	PhoneNumber:        "+15550123",
	MeetingDescription: "Q4 Planning",
}

func TestStartCallUsesFirstPhoneNumberWhenUnset(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer vapi-key" {
			t.Errorf("Authorization = %q", got)
		}
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/phone-number":
			_ = json.NewEncoder(w).Encode([]map[string]string{
				{"id": "line-1", "number": "+15550000"},
				{"id": "line-2", "number": "+15550001"},
			})
		case r.Method == http.MethodPost && r.URL.Path == "/call/phone":
			if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
				t.Errorf("decode body: %v", err)
			}
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(map[string]string{"id": "call_1"})
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := vapi.NewClient(vapi.Config{APIKey: "vapi-key", BaseURL: server.URL})
	handle, err := client.StartCall(context.Background(), janeRequest)
	if err != nil {
		t.Fatalf("StartCall: %v", err)
	}
	if handle != "call_1" {
		t.Fatalf("unexpected handle %q", handle)
	}

	if captured["phoneNumberId"] != "line-1" {
		t.Fatalf("expected first line, got %v", captured["phoneNumberId"])
	}
	customer := captured["customer"].(map[string]any)
	if customer["number"] != "+15550123" || customer["name"] != "Jane Doe" {
		t.Fatalf("unexpected customer %v", customer)
	}
	assistant := captured["assistant"].(map[string]any)
	if assistant["firstMessage"] != "Hi, is this Jane Doe?" {
		t.Fatalf("unexpected first message %v", assistant["firstMessage"])
	}
	if assistant["recordingEnabled"] != true || assistant["maxDurationSeconds"] != float64(300) {
		t.Fatalf("unexpected assistant settings %v", assistant)
	}
	if assistant["endCallMessage"] != "Thank you for your time. Goodbye!" {
		t.Fatalf("unexpected end call message %v", assistant["endCallMessage"])
	}
	model := assistant["model"].(map[string]any)
	if model["provider"] != "openai" || model["model"] != "gpt-4" {
		t.Fatalf("unexpected model %v", model)
	}
	prompt := model["messages"].([]any)[0].(map[string]any)["content"].(string)
	for _, want := range []string{"You are Alex", "working for Marc", "Hi Jane Doe, this is Alex", "meeting about Q4 Planning"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("system prompt missing %q", want)
		}
	}
	voice := assistant["voice"].(map[string]any)
	if voice["provider"] != "11labs" || voice["voiceId"] != "21m00Tcm4TlvDq8ikWAM" {
		t.Fatalf("unexpected voice %v", voice)
	}
}

func TestStartCallConfiguredLineSkipsLookup(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/phone-number" {
			t.Error("phone numbers should not be listed when a line is configured")
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"call_2"}`))
	}))
	defer server.Close()

	client := vapi.NewClient(vapi.Config{APIKey: "k", BaseURL: server.URL, PhoneNumberID: "line-9"})
	if _, err := client.StartCall(context.Background(), janeRequest); err != nil {
		t.Fatalf("StartCall: %v", err)
	}
}

func TestStartCallNoPhoneNumbersIsConfigurationError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/call/phone" {
			t.Error("call should not be placed without a line")
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := vapi.NewClient(vapi.Config{APIKey: "k", BaseURL: server.URL})
	_, err := client.StartCall(context.Background(), janeRequest)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestStartCallNon201IsProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":"call_3"}`))
	}))
	defer server.Close()

	client := vapi.NewClient(vapi.Config{APIKey: "k", BaseURL: server.URL, PhoneNumberID: "line"})
	_, err := client.StartCall(context.Background(), janeRequest)
	if !errors.Is(err, services.ErrProvider) {
		t.Fatalf("expected provider error, got %v", err)
	}
	if !strings.Contains(err.Error(), "http 200") {
		t.Fatalf("expected status in error, got %q", err.Error())
	}
}

func TestStartCallValidatesRequest(t *testing.T) {
	client := vapi.NewClient(vapi.Config{APIKey: "k", BaseURL: "http://127.0.0.1:0"})
	_, err := client.StartCall(context.Background(), services.CallRequest{AttendeeName: "Jane"})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestGetStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/call/call_1" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"id":"call_1","status":"in-progress"}`))
	}))
	defer server.Close()

	client := vapi.NewClient(vapi.Config{APIKey: "k", BaseURL: server.URL})
	status, err := client.GetStatus(context.Background(), "call_1")
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if status.Status != "in-progress" || len(status.Raw) == 0 {
		t.Fatalf("unexpected status %+v", status)
	}

	if _, err := client.GetStatus(context.Background(), "missing"); !errors.Is(err, services.ErrProvider) {
		t.Fatalf("expected provider error for 404, got %v", err)
	}
}

func TestTranscriptFieldShortCircuitsOtherSources(t *testing.T) {
	var urlHits atomic.Int32
	transcriptServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		urlHits.Add(1)
		t.Error("transcript URL must not be fetched when the transcript field is present")
		_, _ = w.Write([]byte("from url"))
	}))
	defer transcriptServer.Close()

	payload := map[string]any{
		"status":     "ended",
		"transcript": "agent: hi\nuser: hello",
		"messages":   []any{map[string]any{"role": "bot", "content": "from messages"}},
		"artifact":   map[string]any{"transcriptUrl": transcriptServer.URL},
	}
	raw, _ := json.Marshal(payload)

	client := vapi.NewClient(vapi.Config{APIKey: "k"})
	got, ok, err := client.TranscriptFromPayload(context.Background(), raw)
	if err != nil || !ok {
		t.Fatalf("expected transcript, got ok=%v err=%v", ok, err)
	}
	if got != "agent: hi\nuser: hello" {
		t.Fatalf("unexpected transcript %q", got)
	}
	if urlHits.Load() != 0 {
		t.Fatal("transcript URL was consulted")
	}
}

func TestTranscriptReconstructedFromMessages(t *testing.T) {
	raw := []byte(`{
		"status": "ended",
		"messages": [
			{"role": "assistant", "content": "Hi, is this Jane?"},
			{"role": "user", "content": "Yes, speaking."},
			{"content": "no role here"},
			{"role": "user", "content": "Goodbye"}
		],
		"artifact": {"transcriptUrl": "http://127.0.0.1:0/never"}
	}`)
	client := vapi.NewClient(vapi.Config{APIKey: "k"})
	got, ok, err := client.TranscriptFromPayload(context.Background(), raw)
	if err != nil || !ok {
		t.Fatalf("expected transcript, got ok=%v err=%v", ok, err)
	}
	want := "assistant: Hi, is this Jane?\nuser: Yes, speaking.\nunknown: no role here\nuser: Goodbye"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestTranscriptToleratesMalformedFields(t *testing.T) {
	client := vapi.NewClient(vapi.Config{APIKey: "k"})

	raw := []byte(`{"messages":[{"role":"bot","content":["a"],"message":"hi"}]}`)
	got, ok, err := client.TranscriptFromPayload(context.Background(), raw)
	if err != nil || !ok || got != "bot: hi" {
		t.Fatalf("unexpected result %q ok=%v err=%v", got, ok, err)
	}

	raw = []byte(`{"transcript":42,"messages":[{"role":"user","content":"hello"}],"artifact":"oops"}`)
	got, ok, err = client.TranscriptFromPayload(context.Background(), raw)
	if err != nil || !ok || got != "user: hello" {
		t.Fatalf("bad transcript field should fall through to messages, got %q ok=%v err=%v", got, ok, err)
	}
}

func TestTranscriptFetchedFromArtifactURL(t *testing.T) {
	transcriptServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("agent: hi\nuser: hello"))
	}))
	defer transcriptServer.Close()

	client := vapi.NewClient(vapi.Config{APIKey: "k"})
	raw := []byte(`{"status":"ended","artifact":{"transcriptUrl":"` + transcriptServer.URL + `/t.txt"}}`)
	got, ok, err := client.TranscriptFromPayload(context.Background(), raw)
	if err != nil || !ok || got != "agent: hi\nuser: hello" {
		t.Fatalf("unexpected result %q ok=%v err=%v", got, ok, err)
	}

	raw = []byte(`{"status":"ended","artifact":{"transcriptUrl":"` + transcriptServer.URL + `/missing"}}`)
	got, ok, err = client.TranscriptFromPayload(context.Background(), raw)
	if err != nil || ok || got != "" {
		t.Fatalf("expected absent transcript for non-200, got %q ok=%v err=%v", got, ok, err)
	}
}

func TestTranscriptAbsent(t *testing.T) {
	client := vapi.NewClient(vapi.Config{APIKey: "k"})
	got, ok, err := client.TranscriptFromPayload(context.Background(), []byte(`{"status":"ended","transcript":""}`))
	if err != nil || ok || got != "" {
		t.Fatalf("expected absent transcript, got %q ok=%v err=%v", got, ok, err)
	}
}

func TestTranscriptURLTransportFailureIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	deadURL := server.URL
	server.Close()

	client := vapi.NewClient(vapi.Config{APIKey: "k"})
	_, _, err := client.TranscriptFromPayload(context.Background(), []byte(`{"artifact":{"transcriptUrl":"`+deadURL+`"}}`))
	if !errors.Is(err, services.ErrProvider) {
		t.Fatalf("expected provider error, got %v", err)
	}
}

func TestGetTranscriptFetchesStatusPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ended","transcript":"agent: hi"}`))
	}))
	defer server.Close()

	client := vapi.NewClient(vapi.Config{APIKey: "k", BaseURL: server.URL})
	got, ok, err := client.GetTranscript(context.Background(), "call_1")
	if err != nil || !ok || got != "agent: hi" {
		t.Fatalf("unexpected result %q ok=%v err=%v", got, ok, err)
	}
}

func TestAssistantIntroUsesConfiguredNames(t *testing.T) {
	client := vapi.NewClient(vapi.Config{OperatorName: "Dana", AssistantName: "Sam"})
	intro := client.AssistantIntro("Jane Doe", "Q4 Planning")
	for _, want := range []string{
		"Sam will introduce itself as follows:",
		"Hi Jane Doe, this is Sam, Dana's meeting preparation assistant.",
		"meeting about Q4 Planning",
		"1. What are your main goals for this meeting?",
		"The call will be recorded",
	} {
		if !strings.Contains(intro, want) {
			t.Fatalf("intro missing %q:\n%s", want, intro)
		}
	}
}
