package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// CallProgress describes a tracked call lifecycle in a transport-friendly format.
type CallProgress struct {
	Handle             string `json:"call_id"`
	Status             string `json:"status"`
	AttendeeName       string `json:"attendee_name"`
	PhoneNumber        string `json:"phone_number"`
	MeetingDescription string `json:"meeting_description"`
	CallStatus         string `json:"call_status,omitempty"`
	ErrorMessage       string `json:"error,omitempty"`
	ReportID           *int64 `json:"report_id,omitempty"`
	ReportPath         string `json:"report_path,omitempty"`
	Summary            string `json:"summary,omitempty"`
	StartedAt          string `json:"started_at,omitempty"`
	UpdatedAt          string `json:"updated_at,omitempty"`
}

// CallAccepted is returned when a detached call has been placed.
type CallAccepted struct {
	Handle string `json:"call_id"`
	Status string `json:"status"`
}

// Report describes a persisted call report.
type Report struct {
	ID                 int64  `json:"id"`
	Handle             string `json:"call_id"`
	AttendeeName       string `json:"attendee_name"`
	PhoneNumber        string `json:"phone_number"`
	MeetingDescription string `json:"meeting_description"`
	CallTimestamp      string `json:"call_timestamp,omitempty"`
	CallStatus         string `json:"call_status"`
	Transcript         string `json:"transcript,omitempty"`
	Summary            string `json:"summary,omitempty"`
	ReportFilePath     string `json:"report_file_path,omitempty"`
	CreatedAt          string `json:"created_at,omitempty"`
}

// ReportListResponse wraps a page of reports.
type ReportListResponse struct {
	Reports []Report `json:"calls"`
	Limit   int      `json:"limit,omitempty"`
	Offset  int      `json:"offset,omitempty"`
}

// StatsResponse aggregates report counts.
type StatsResponse struct {
	Total      int `json:"total_calls"`
	Successful int `json:"successful_calls"`
	Recent     int `json:"recent_calls"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running          bool   `json:"running"`
	PID              int    `json:"pid"`
	DatabasePath     string `json:"database_path"`
	LockFilePath     string `json:"lock_file_path"`
	ReportsDir       string `json:"reports_dir"`
	ActiveLifecycles int    `json:"active_calls"`
	TrackedCalls     int    `json:"tracked_calls"`
	PendingTasks     int    `json:"pending_tasks"`
}

// PreviewResponse carries the assistant introduction shown before dialing.
type PreviewResponse struct {
	AttendeeName       string `json:"attendee_name"`
	MeetingDescription string `json:"meeting_description"`
	Intro              string `json:"intro"`
}

// DeleteResponse reports the outcome of a report deletion.
type DeleteResponse struct {
	ID      int64 `json:"id"`
	Deleted bool  `json:"deleted"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Status string `json:"status,omitempty"`
	Error  string `json:"error"`
}
