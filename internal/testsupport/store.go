package testsupport

import (
	"context"
	"testing"
	"time"

	"callprep/internal/config"
	"callprep/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// SeedReport inserts a finished call for the attendee and returns it.
func SeedReport(t testing.TB, st *store.Store, handle, attendee, meeting string, at time.Time) *store.Report {
	t.Helper()

	report := &store.Report{
		Handle:             handle,
		AttendeeName:       attendee,
		PhoneNumber:        "+15550100",
		MeetingDescription: meeting,
		CallTimestamp:      at,
		CallStatus:         "ended",
		Transcript:         "assistant: Hi\nuser: Hello",
		Summary:            "- Goals: none mentioned",
	}
	if _, err := st.Create(context.Background(), report); err != nil {
		t.Fatalf("store.Create: %v", err)
	}
	return report
}
