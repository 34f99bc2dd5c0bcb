package daemon

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"callprep/internal/api"
	"callprep/internal/logging"
	"callprep/internal/progress"
	"callprep/internal/services"
	"callprep/internal/store"
)

func (s *apiServer) handleStartCall(w http.ResponseWriter, r *http.Request) {
	var req services.CallRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := decoder.Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	req = req.Normalized()
	if err := req.Validate(); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	handle, err := s.daemon.StartCall(r.Context(), req)
	if err != nil {
		status := statusForError(err)
		if status >= http.StatusInternalServerError {
			logging.ErrorWithContext(s.logger, "call request failed", "api_call_failed",
				logging.Error(err),
				logging.String("attendee", req.AttendeeName),
			)
		}
		s.writeError(w, status, err.Error())
		return
	}
	s.writeJSON(w, http.StatusAccepted, api.CallAccepted{Handle: handle, Status: string(progress.StatusInitiated)})
}

func (s *apiServer) handleCallStatus(w http.ResponseWriter, r *http.Request) {
	entry, ok := s.daemon.CallProgress(r.PathValue("handle"))
	if !ok {
		s.writeJSON(w, http.StatusNotFound, api.ErrorResponse{Status: "unknown", Error: "Call not found"})
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromProgress(entry))
}

func (s *apiServer) handleListReports(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", store.DefaultListLimit)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid offset")
		return
	}
	reports, err := s.daemon.store.ListRecent(r.Context(), limit, offset)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.ReportListResponse{Reports: api.FromReports(reports), Limit: limit, Offset: offset})
}

func (s *apiServer) handleGetReport(w http.ResponseWriter, r *http.Request) {
	id, ok := s.reportID(w, r)
	if !ok {
		return
	}
	report, err := s.daemon.store.GetByID(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if report == nil {
		s.writeError(w, http.StatusNotFound, "call not found")
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromReport(report))
}

func (s *apiServer) handleDeleteReport(w http.ResponseWriter, r *http.Request) {
	id, ok := s.reportID(w, r)
	if !ok {
		return
	}
	deleted, err := s.daemon.store.Delete(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !deleted {
		s.writeError(w, http.StatusNotFound, "call not found")
		return
	}
	s.logger.Info("report deleted", logging.Int64("report_id", id))
	s.writeJSON(w, http.StatusOK, api.DeleteResponse{ID: id, Deleted: true})
}

func (s *apiServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	var (
		reports []*store.Report
		err     error
	)
	if query == "" {
		reports, err = s.daemon.store.ListRecent(r.Context(), store.DefaultListLimit, 0)
	} else {
		reports, err = s.daemon.store.Search(r.Context(), query)
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.ReportListResponse{Reports: api.FromReports(reports)})
}

func (s *apiServer) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.daemon.store.Stats(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromStats(stats))
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := s.daemon.Status()
	s.writeJSON(w, http.StatusOK, api.DaemonStatus{
		Running:          status.Running,
		PID:              status.PID,
		DatabasePath:     status.DatabasePath,
		LockFilePath:     status.LockFilePath,
		ReportsDir:       status.ReportsDir,
		ActiveLifecycles: status.ActiveLifecycles,
		TrackedCalls:     status.TrackedCalls,
		PendingTasks:     status.PendingTasks,
	})
}

func (s *apiServer) handlePreview(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	meeting := strings.TrimSpace(r.URL.Query().Get("meeting"))
	if name == "" || meeting == "" {
		s.writeError(w, http.StatusBadRequest, "name and meeting are required")
		return
	}
	s.writeJSON(w, http.StatusOK, api.PreviewResponse{
		AttendeeName:       name,
		MeetingDescription: meeting,
		Intro:              s.daemon.Preview(name, meeting),
	})
}

func (s *apiServer) handleTestNotification(w http.ResponseWriter, r *http.Request) {
	sent, message, err := s.daemon.TestNotification(r.Context())
	if err != nil {
		s.writeError(w, http.StatusBadGateway, message+": "+err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"sent": sent, "message": message})
}

func (s *apiServer) reportID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		s.writeError(w, http.StatusBadRequest, "invalid call id")
		return 0, false
	}
	return id, true
}

func queryInt(r *http.Request, key string, fallback int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, errors.New("invalid " + key)
	}
	return value, nil
}

// statusForError maps lifecycle start errors to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, progress.ErrDuplicateHandle):
		return http.StatusConflict
	case errors.Is(err, services.ErrConfiguration):
		return http.StatusServiceUnavailable
	case errors.Is(err, services.ErrProvider):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
