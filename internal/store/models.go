package store

import "time"

// Report is the durable record of one successful call.
type Report struct {
	ID                 int64     `json:"id"`
	Handle             string    `json:"call_id"`
	AttendeeName       string    `json:"attendee_name"`
	PhoneNumber        string    `json:"phone_number"`
	MeetingDescription string    `json:"meeting_description"`
	CallTimestamp      time.Time `json:"call_timestamp"`
	CallStatus         string    `json:"call_status"`
	Transcript         string    `json:"transcript"`
	Summary            string    `json:"summary"`
	ReportFilePath     string    `json:"report_file_path"`
	CreatedAt          time.Time `json:"created_at"`
}

// Stats aggregates report counts.
type Stats struct {
	Total      int `json:"total_calls"`
	Successful int `json:"successful_calls"`
	Recent     int `json:"recent_calls"`
}

// DatabaseHealth captures diagnostic information about the report database.
type DatabaseHealth struct {
	DBPath           string   `json:"db_path"`
	DatabaseExists   bool     `json:"database_exists"`
	DatabaseReadable bool     `json:"database_readable"`
	SchemaVersion    int      `json:"schema_version"`
	TableExists      bool     `json:"table_exists"`
	MissingColumns   []string `json:"missing_columns,omitempty"`
	IntegrityCheck   bool     `json:"integrity_check"`
	TotalReports     int      `json:"total_reports"`
	Error            string   `json:"error,omitempty"`
}

// SuccessStatuses are the remote call statuses counted as successful calls.
var SuccessStatuses = []string{"completed", "ended"}

// RecentWindow is the look-back period for Stats.Recent.
const RecentWindow = 7 * 24 * time.Hour

// DefaultListLimit is used when ListRecent receives a non-positive limit.
const DefaultListLimit = 50
