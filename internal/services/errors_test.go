package services_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"callprep/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrProvider, "reporting", "summarize", "request failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrProvider) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"reporting", "summarize", "request failed", "boom"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapWithoutDetail(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrProvider) {
		t.Fatalf("expected default marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestFailureStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"timeout", services.Wrap(services.ErrTimeout, "polling", "", "timeout after 1s", nil), services.OutcomeFailed},
		{"transcript", services.Wrap(services.ErrDataUnavailable, "reporting", "", "transcript unavailable", nil), services.OutcomeFailed},
		{"poll provider", services.Wrap(services.ErrCallFailed, "polling", "get status", "", fmt.Errorf("%w: 500", services.ErrProvider)), services.OutcomeFailed},
		{"summarizer", services.Wrap(services.ErrProvider, "reporting", "summarize", "", nil), services.OutcomeError},
		{"persistence", services.Wrap(services.ErrPersistence, "persisting", "", "", nil), services.OutcomeError},
		{"unknown", errors.New("panic"), services.OutcomeError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := services.FailureStatus(tt.err); got != tt.want {
				t.Fatalf("FailureStatus = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCallRequestValidate(t *testing.T) {
	valid := services.CallRequest{AttendeeName: " Jane Doe ", PhoneNumber: "+15550123", MeetingDescription: "Q4 Planning"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid request, got %v", err)
	}
	if got := valid.Normalized().AttendeeName; got != "Jane Doe" {
		t.Fatalf("expected trimmed name, got %q", got)
	}

	err := services.CallRequest{AttendeeName: "Jane", PhoneNumber: "  "}.Validate()
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !strings.Contains(err.Error(), "missing phone, meeting") {
		t.Fatalf("expected missing fields in message, got %q", err.Error())
	}
}
