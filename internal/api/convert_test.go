package api

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"callprep/internal/progress"
	"callprep/internal/store"
)

func TestFromProgressCopiesReportID(t *testing.T) {
	id := int64(7)
	started := time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)
	p := progress.Progress{
		Handle:       "call_1",
		Status:       progress.StatusCompleted,
		AttendeeName: "Jane Doe",
		ReportID:     &id,
		StartedAt:    started,
	}
	dto := FromProgress(p)
	id = 99
	if dto.ReportID == nil || *dto.ReportID != 7 {
		t.Fatalf("report id not copied: %v", dto.ReportID)
	}
	if dto.StartedAt != "2025-03-04T10:00:00.000Z" || dto.UpdatedAt != "" {
		t.Fatalf("unexpected timestamps %q %q", dto.StartedAt, dto.UpdatedAt)
	}
	if !ParseTime(dto.StartedAt).Equal(started) {
		t.Fatalf("ParseTime did not reverse %q", dto.StartedAt)
	}
}

func TestFailedProgressSerializesError(t *testing.T) {
	dto := FromProgress(progress.Progress{Handle: "call_2", Status: progress.StatusFailed, ErrorMessage: "call busy"})
	raw, err := json.Marshal(dto)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(raw), `"error":"call busy"`) || strings.Contains(string(raw), "report_id") {
		t.Fatalf("unexpected payload %s", raw)
	}
}

func TestFromReportsSkipsNil(t *testing.T) {
	out := FromReports([]*store.Report{nil, {ID: 3, Handle: "call_3"}})
	if len(out) != 1 || out[0].ID != 3 {
		t.Fatalf("unexpected conversion %+v", out)
	}
	if got := FromReports(nil); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}
