package api

import (
	"time"

	"callprep/internal/progress"
	"callprep/internal/store"
)

// FromProgress converts a registry entry to its API representation.
func FromProgress(p progress.Progress) CallProgress {
	dto := CallProgress{
		Handle:             p.Handle,
		Status:             string(p.Status),
		AttendeeName:       p.AttendeeName,
		PhoneNumber:        p.PhoneNumber,
		MeetingDescription: p.MeetingDescription,
		CallStatus:         p.CallStatus,
		ErrorMessage:       p.ErrorMessage,
		ReportPath:         p.ReportPath,
		Summary:            p.Summary,
		StartedAt:          formatTime(p.StartedAt),
		UpdatedAt:          formatTime(p.UpdatedAt),
	}
	if p.ReportID != nil {
		id := *p.ReportID
		dto.ReportID = &id
	}
	return dto
}

// FromReport converts a stored report to its API representation.
func FromReport(r *store.Report) Report {
	if r == nil {
		return Report{}
	}
	return Report{
		ID:                 r.ID,
		Handle:             r.Handle,
		AttendeeName:       r.AttendeeName,
		PhoneNumber:        r.PhoneNumber,
		MeetingDescription: r.MeetingDescription,
		CallTimestamp:      formatTime(r.CallTimestamp),
		CallStatus:         r.CallStatus,
		Transcript:         r.Transcript,
		Summary:            r.Summary,
		ReportFilePath:     r.ReportFilePath,
		CreatedAt:          formatTime(r.CreatedAt),
	}
}

// FromReports converts a slice of reports, never returning nil.
func FromReports(reports []*store.Report) []Report {
	out := make([]Report, 0, len(reports))
	for _, r := range reports {
		if r == nil {
			continue
		}
		out = append(out, FromReport(r))
	}
	return out
}

// FromStats converts store counts.
func FromStats(s store.Stats) StatsResponse {
	return StatsResponse{Total: s.Total, Successful: s.Successful, Recent: s.Recent}
}

// ParseTime reverses the timestamp format used in payloads. It returns the
// zero time for empty or malformed values.
func ParseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	ts, err := time.Parse(dateTimeFormat, value)
	if err != nil {
		return time.Time{}
	}
	return ts
}

func formatTime(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}
	return ts.UTC().Format(dateTimeFormat)
}
