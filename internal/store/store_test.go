package store_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"callprep/internal/services"
	"callprep/internal/store"
)

func openStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.OpenPath(filepath.Join(t.TempDir(), "state", "calls.db"))
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seed(t *testing.T, s *store.Store, handle, name, meeting, status string, ts time.Time) int64 {
	t.Helper()
	id, err := s.Create(context.Background(), &store.Report{
		Handle:             handle,
		AttendeeName:       name,
		PhoneNumber:        "+15550123",
		MeetingDescription: meeting,
		CallTimestamp:      ts,
		CallStatus:         status,
		Transcript:         "agent: hi\nuser: hello",
		Summary:            "summary for " + name,
		ReportFilePath:     "meeting-notes/" + handle + ".md",
	})
	if err != nil {
		t.Fatalf("Create %s: %v", handle, err)
	}
	return id
}

func TestCreateAndFetch(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	ts := time.Date(2025, 3, 4, 10, 30, 0, 0, time.UTC)
	id := seed(t, s, "call_1", "Jane Doe", "Q4 Planning", "ended", ts)
	if id == 0 {
		t.Fatal("expected id to be assigned")
	}

	got, err := s.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got == nil || got.Handle != "call_1" || got.Transcript != "agent: hi\nuser: hello" {
		t.Fatalf("unexpected report: %#v", got)
	}
	if !got.CallTimestamp.Equal(ts) {
		t.Fatalf("timestamp round trip: got %v want %v", got.CallTimestamp, ts)
	}
	if got.CreatedAt.IsZero() {
		t.Fatal("expected created_at")
	}

	byHandle, err := s.GetByHandle(ctx, "call_1")
	if err != nil {
		t.Fatalf("GetByHandle: %v", err)
	}
	if byHandle == nil || byHandle.ID != id {
		t.Fatalf("unexpected report by handle: %#v", byHandle)
	}

	missing, err := s.GetByID(ctx, id+100)
	if err != nil || missing != nil {
		t.Fatalf("expected nil, nil for missing id, got %#v, %v", missing, err)
	}
}

func TestCreateRejectsDuplicateHandle(t *testing.T) {
	s := openStore(t)
	seed(t, s, "call_1", "Jane Doe", "Q4 Planning", "ended", time.Now())
	_, err := s.Create(context.Background(), &store.Report{Handle: "call_1", AttendeeName: "Again", CallStatus: "ended"})
	if !errors.Is(err, services.ErrPersistence) {
		t.Fatalf("expected persistence error for duplicate handle, got %v", err)
	}
}

func TestCreateRequiresHandle(t *testing.T) {
	s := openStore(t)
	_, err := s.Create(context.Background(), &store.Report{AttendeeName: "Jane"})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSearchScenario(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	now := time.Now()
	jane := seed(t, s, "call_1", "Jane Doe", "Q4 Planning", "ended", now.Add(-time.Hour))
	john := seed(t, s, "call_2", "John Smith", "q4 budget review", "ended", now)
	seed(t, s, "call_3", "Ada Lovelace", "Roadmap 100% sync", "failed", now.Add(-2*time.Hour))

	results, err := s.Search(ctx, "jane")
	if err != nil {
		t.Fatalf("Search jane: %v", err)
	}
	if len(results) != 1 || results[0].ID != jane {
		t.Fatalf("expected only Jane Doe, got %#v", results)
	}

	results, err = s.Search(ctx, "Q4")
	if err != nil {
		t.Fatalf("Search Q4: %v", err)
	}
	if len(results) != 2 || results[0].ID != john || results[1].ID != jane {
		t.Fatalf("expected John then Jane for Q4, got %#v", results)
	}

	results, err = s.Search(ctx, "%")
	if err != nil {
		t.Fatalf("Search %%: %v", err)
	}
	if len(results) != 1 || results[0].AttendeeName != "Ada Lovelace" {
		t.Fatalf("expected literal %% match only, got %#v", results)
	}

	results, err = s.Search(ctx, "   ")
	if err != nil || len(results) != 0 {
		t.Fatalf("expected empty search to return nothing, got %#v, %v", results, err)
	}
}

func TestListRecentOrdersNewestFirst(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	for i, handle := range []string{"call_a", "call_b", "call_c"} {
		seed(t, s, handle, "Attendee", "Sync", "ended", base.Add(time.Duration(i)*time.Hour))
	}

	reports, err := s.ListRecent(ctx, 2, 0)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(reports) != 2 || reports[0].Handle != "call_c" || reports[1].Handle != "call_b" {
		t.Fatalf("unexpected order: %#v", reports)
	}

	reports, err = s.ListRecent(ctx, 2, 2)
	if err != nil {
		t.Fatalf("ListRecent offset: %v", err)
	}
	if len(reports) != 1 || reports[0].Handle != "call_a" {
		t.Fatalf("unexpected page: %#v", reports)
	}
}

func TestDeleteAndStats(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	now := time.Now()
	seed(t, s, "call_1", "Jane Doe", "Q4 Planning", "ended", now)
	seed(t, s, "call_2", "John Smith", "Budget", "completed", now.Add(-30*24*time.Hour))
	failed := seed(t, s, "call_3", "Ada", "Roadmap", "failed", now.Add(-time.Hour))

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Total != 3 || stats.Successful != 2 || stats.Recent != 2 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	deleted, err := s.Delete(ctx, failed)
	if err != nil || !deleted {
		t.Fatalf("Delete: %v, %v", deleted, err)
	}
	deleted, err = s.Delete(ctx, failed)
	if err != nil || deleted {
		t.Fatalf("expected second delete to report false, got %v, %v", deleted, err)
	}

	stats, err = s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Total != 2 {
		t.Fatalf("expected 2 after delete, got %+v", stats)
	}
}

func TestCheckHealth(t *testing.T) {
	s := openStore(t)
	seed(t, s, "call_1", "Jane Doe", "Q4 Planning", "ended", time.Now())

	health, err := s.CheckHealth(context.Background())
	if err != nil {
		t.Fatalf("CheckHealth: %v", err)
	}
	if !health.DatabaseExists || !health.DatabaseReadable || !health.TableExists || !health.IntegrityCheck {
		t.Fatalf("unexpected health: %+v", health)
	}
	if health.SchemaVersion != 1 || health.TotalReports != 1 || len(health.MissingColumns) != 0 {
		t.Fatalf("unexpected health details: %+v", health)
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calls.db")
	s, err := store.OpenPath(path)
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	seed(t, s, "call_1", "Jane Doe", "Q4 Planning", "ended", time.Now())
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := store.OpenPath(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	got, err := reopened.GetByHandle(context.Background(), "call_1")
	if err != nil || got == nil {
		t.Fatalf("expected report after reopen, got %#v, %v", got, err)
	}
	if reopened.Path() != path {
		t.Fatalf("unexpected path %q", reopened.Path())
	}
}

func TestOpenPathRequiresPath(t *testing.T) {
	if _, err := store.OpenPath(" "); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
