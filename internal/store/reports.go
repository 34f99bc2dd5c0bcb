package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"callprep/internal/services"
)

const reportColumns = "id, call_id, attendee_name, phone_number, meeting_description, call_timestamp, call_status, transcript, summary, report_file_path, created_at"

// timestampLayout is fixed-width so stored values compare lexically.
const timestampLayout = "2006-01-02T15:04:05.000000Z"

func formatTimestamp(ts time.Time) string {
	return ts.UTC().Format(timestampLayout)
}

func parseTimestamp(raw sql.NullString) time.Time {
	if !raw.Valid || raw.String == "" {
		return time.Time{}
	}
	if ts, err := time.Parse(timestampLayout, raw.String); err == nil {
		return ts
	}
	if ts, err := time.Parse(time.RFC3339Nano, raw.String); err == nil {
		return ts.UTC()
	}
	return time.Time{}
}

func scanReport(scanner interface{ Scan(dest ...any) error }) (*Report, error) {
	var (
		report     Report
		callTS     sql.NullString
		transcript sql.NullString
		summary    sql.NullString
		filePath   sql.NullString
		createdRaw sql.NullString
	)
	if err := scanner.Scan(
		&report.ID,
		&report.Handle,
		&report.AttendeeName,
		&report.PhoneNumber,
		&report.MeetingDescription,
		&callTS,
		&report.CallStatus,
		&transcript,
		&summary,
		&filePath,
		&createdRaw,
	); err != nil {
		return nil, err
	}
	report.CallTimestamp = parseTimestamp(callTS)
	report.Transcript = transcript.String
	report.Summary = summary.String
	report.ReportFilePath = filePath.String
	report.CreatedAt = parseTimestamp(createdRaw)
	return &report, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

// Create inserts a report and returns its assigned id. The report's ID and
// CreatedAt fields are filled in on success.
func (s *Store) Create(ctx context.Context, report *Report) (int64, error) {
	if report == nil {
		return 0, services.Wrap(services.ErrValidation, "store", "create", "report is nil", nil)
	}
	if strings.TrimSpace(report.Handle) == "" {
		return 0, services.Wrap(services.ErrValidation, "store", "create", "call handle is required", nil)
	}
	now := s.now().UTC()
	if report.CallTimestamp.IsZero() {
		report.CallTimestamp = now
	}

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO calls (
            call_id, attendee_name, phone_number, meeting_description,
            call_timestamp, call_status, transcript, summary, report_file_path, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.Handle,
		report.AttendeeName,
		report.PhoneNumber,
		report.MeetingDescription,
		formatTimestamp(report.CallTimestamp),
		report.CallStatus,
		nullableString(report.Transcript),
		nullableString(report.Summary),
		nullableString(report.ReportFilePath),
		formatTimestamp(now),
	)
	if err != nil {
		return 0, services.Wrap(services.ErrPersistence, "store", "create", "insert report", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, services.Wrap(services.ErrPersistence, "store", "create", "last insert id", err)
	}
	report.ID = id
	report.CreatedAt = now
	return id, nil
}

// GetByID fetches a report by identifier. It returns nil, nil when absent.
func (s *Store) GetByID(ctx context.Context, id int64) (*Report, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+reportColumns+` FROM calls WHERE id = ?`, id)
	report, err := scanReport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get report: %w", err)
	}
	return report, nil
}

// GetByHandle fetches the report produced by an external call handle.
func (s *Store) GetByHandle(ctx context.Context, handle string) (*Report, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+reportColumns+` FROM calls WHERE call_id = ?`, handle)
	report, err := scanReport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get report by handle: %w", err)
	}
	return report, nil
}

// ListRecent returns reports ordered by call timestamp, newest first.
func (s *Store) ListRecent(ctx context.Context, limit, offset int) ([]*Report, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.query(ctx,
		`SELECT `+reportColumns+` FROM calls ORDER BY call_timestamp DESC, id DESC LIMIT ? OFFSET ?`,
		limit, offset,
	)
}

// Search matches text case-insensitively against attendee names and meeting
// descriptions.
func (s *Store) Search(ctx context.Context, text string) ([]*Report, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return []*Report{}, nil
	}
	pattern := "%" + escapeLike(strings.ToLower(text)) + "%"
	return s.query(ctx,
		`SELECT `+reportColumns+` FROM calls
         WHERE lower(attendee_name) LIKE ? ESCAPE '\' OR lower(meeting_description) LIKE ? ESCAPE '\'
         ORDER BY call_timestamp DESC, id DESC`,
		pattern, pattern,
	)
}

func escapeLike(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(value)
}

// Delete removes a report. It reports whether a row existed.
func (s *Store) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM calls WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete report: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// Stats returns total, successful and recent report counts.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	ctx = ensureContext(ctx)
	cutoff := formatTimestamp(s.now().Add(-RecentWindow))
	var stats Stats
	err := s.db.QueryRowContext(ctx,
		`SELECT
            COUNT(1),
            COALESCE(SUM(CASE WHEN call_status IN (?, ?) THEN 1 ELSE 0 END), 0),
            COALESCE(SUM(CASE WHEN call_timestamp >= ? THEN 1 ELSE 0 END), 0)
         FROM calls`,
		SuccessStatuses[0], SuccessStatuses[1], cutoff,
	).Scan(&stats.Total, &stats.Successful, &stats.Recent)
	if err != nil {
		return Stats{}, fmt.Errorf("report stats: %w", err)
	}
	return stats, nil
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]*Report, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer rows.Close()

	reports := make([]*Report, 0)
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		reports = append(reports, report)
	}
	return reports, rows.Err()
}
