package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/seduc-pe/academic-hub/internal/application/query"
	"github.com/seduc-pe/academic-hub/internal/application/workspace"
	"github.com/seduc-pe/academic-hub/internal/domain/calendar"
	"github.com/seduc-pe/academic-hub/internal/domain/session"
	"github.com/seduc-pe/academic-hub/internal/domain/shared"
	"github.com/seduc-pe/academic-hub/internal/infrastructure/export"
	"github.com/seduc-pe/academic-hub/pkg/logger"
	"github.com/seduc-pe/academic-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot serves the root endpoint with basic API information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"name":    "Academic Hub API",
		"version": "v1",
		"endpoints": map[string]string{
			"health":   "/health",
			"profiles": "/api/v1/profiles",
			"sessions": "/api/v1/sessions",
		},
	})
}

// handleHealth handles the health check endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Ready {
			writeJSON(w, http.StatusServiceUnavailable, status)
			return
		}
		writeJSON(w, http.StatusOK, status)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"uptime":  s.Uptime().Round(time.Second).String(),
		"version": "v1",
	})
}

// handleReady handles the readiness probe endpoint (for Kubernetes).
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Ready {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not_ready",
				"reason": status.Message,
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleLive handles the liveness probe endpoint (for Kubernetes).
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// handleMetrics returns basic server metrics as JSON.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	metrics := map[string]interface{}{
		"uptime_seconds": s.Uptime().Seconds(),
		"running":        s.IsRunning(),
	}
	if s.deps.Workspaces != nil {
		metrics["sessions"] = s.deps.Workspaces.Len()
	}
	if s.deps.Metrics != nil {
		metrics["events"] = s.deps.Metrics()
	}

	writeJSON(w, http.StatusOK, metrics)
}

// ══════════════════════════════════════════════════════════════════════════════
// SESSION HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// SessionDTO describes a live session.
type SessionDTO struct {
	ID        string             `json:"id"`
	Profile   session.Profile    `json:"profile"`
	Menu      []session.MenuItem `json:"menu"`
	CreatedAt time.Time          `json:"created_at"`
}

func sessionDTO(ws *workspace.Workspace) SessionDTO {
	return SessionDTO{
		ID:        ws.ID(),
		Profile:   ws.Session.Profile(),
		Menu:      ws.Session.Menu(),
		CreatedAt: ws.Session.CreatedAt(),
	}
}

// workspace resolves the {sid} path value and checks that the active profile
// can open section. An empty section skips the check.
func (s *Server) workspace(w http.ResponseWriter, r *http.Request, section string) (*workspace.Workspace, bool) {
	ws, err := s.deps.Workspaces.Get(r.PathValue("sid"))
	if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	if section != "" {
		if err := ws.Require(section); err != nil {
			s.writeError(w, r, fmt.Errorf("%w: %v", errForbidden, err))
			return nil, false
		}
	}
	return ws, true
}

// handleListProfiles handles GET /api/v1/profiles
func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, session.Profiles())
}

// handleCreateSession handles POST /api/v1/sessions
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	profile, err := session.ParseProfile(req.Profile)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ws := s.deps.Workspaces.Create(profile)
	w.Header().Set("Location", "/api/v1/sessions/"+ws.ID())
	writeJSON(w, http.StatusCreated, sessionDTO(ws))
}

// handleGetSession handles GET /api/v1/sessions/{sid}
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.workspace(w, r, "")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sessionDTO(ws))
}

// handleDeleteSession handles DELETE /api/v1/sessions/{sid}
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Workspaces.Delete(r.PathValue("sid")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSwitchProfile handles PUT /api/v1/sessions/{sid}/profile
func (s *Server) handleSwitchProfile(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.workspace(w, r, "")
	if !ok {
		return
	}
	var req SwitchProfileRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if _, err := ws.SwitchProfile(req.Profile); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionDTO(ws))
}

// handleTeacherDashboard handles GET /api/v1/sessions/{sid}/dashboard
// Teachers see their own classes; the secretariat passes ?teacher_id=.
func (s *Server) handleTeacherDashboard(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.workspace(w, r, "dashboard")
	if !ok {
		return
	}
	if s.deps.TeacherDashboardHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Dashboard handler not configured")
		return
	}

	q := query.GetTeacherDashboardQuery{
		TeacherID:     ws.Session.Profile().TeacherID,
		ActivityLimit: getQueryParamInt(r, "limit", 10),
	}
	if raw := r.URL.Query().Get("teacher_id"); raw != "" && ws.Session.Profile().Role == session.RoleMaster {
		id, err := shared.ParseID(raw)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		q.TeacherID = id
	}

	result, err := s.deps.TeacherDashboardHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// CALENDAR HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleListBlockedDays handles GET /api/v1/sessions/{sid}/calendar/blocked-days
// Optional ?month=YYYY-MM narrows the list.
func (s *Server) handleListBlockedDays(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.workspace(w, r, ""); !ok {
		return
	}

	days := s.deps.Calendar.List()
	if raw := r.URL.Query().Get("month"); raw != "" {
		month, err := parseMonth(raw)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		filtered := make([]calendar.BlockedDay, 0, len(days))
		for _, d := range days {
			if d.Date.Year() == month.Year() && d.Date.Month() == month.Month() {
				filtered = append(filtered, d)
			}
		}
		days = filtered
	}
	writeJSON(w, http.StatusOK, days)
}

// handleAddBlockedDay handles POST /api/v1/sessions/{sid}/calendar/blocked-days
func (s *Server) handleAddBlockedDay(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.workspace(w, r, "calendar"); !ok {
		return
	}
	var req BlockedDayRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	date, err := timeutil.ParseDate(req.Date)
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	day, err := s.deps.Calendar.Add(r.Context(), date, req.Reason)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, day)
}

// handleRemoveBlockedDays handles DELETE /api/v1/sessions/{sid}/calendar/blocked-days/{date}
// Every block on the date is removed.
func (s *Server) handleRemoveBlockedDays(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.workspace(w, r, "calendar"); !ok {
		return
	}
	date, err := timeutil.ParseDate(r.PathValue("date"))
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	removed, err := s.deps.Calendar.Remove(r.Context(), date)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"date":    timeutil.FormatDateStr(date),
		"removed": removed,
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// REPORT HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// periodParams reads ?class_group_id=&from=&to= shared by the reports.
func periodParams(r *http.Request) (shared.ID, time.Time, time.Time, error) {
	var (
		id       shared.ID
		from, to time.Time
		err      error
	)
	params := r.URL.Query()
	if raw := params.Get("class_group_id"); raw != "" {
		if id, err = shared.ParseID(raw); err != nil {
			return 0, from, to, err
		}
	}
	if raw := params.Get("from"); raw != "" {
		if from, err = timeutil.ParseDate(raw); err != nil {
			return 0, from, to, fmt.Errorf("%w: %v", errBadRequest, err)
		}
	}
	if raw := params.Get("to"); raw != "" {
		if to, err = timeutil.ParseDate(raw); err != nil {
			return 0, from, to, fmt.Errorf("%w: %v", errBadRequest, err)
		}
	}
	return id, from, to, nil
}

func (s *Server) attendanceReport(w http.ResponseWriter, r *http.Request) (*query.GetAttendanceReportResult, bool) {
	if _, ok := s.workspace(w, r, "reports"); !ok {
		return nil, false
	}
	if s.deps.AttendanceReportHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Report handler not configured")
		return nil, false
	}
	id, from, to, err := periodParams(r)
	if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}

	result, err := s.deps.AttendanceReportHandler.Handle(r.Context(), query.GetAttendanceReportQuery{
		ClassGroupID: id,
		From:         from,
		To:           to,
	})
	if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	return result, true
}

// handleAttendanceReport handles GET /api/v1/sessions/{sid}/reports/attendance
func (s *Server) handleAttendanceReport(w http.ResponseWriter, r *http.Request) {
	if result, ok := s.attendanceReport(w, r); ok {
		writeJSON(w, http.StatusOK, result)
	}
}

// handleAttendanceReportExport handles GET /api/v1/sessions/{sid}/reports/attendance/export
func (s *Server) handleAttendanceReportExport(w http.ResponseWriter, r *http.Request) {
	if !s.exportAllowed(w, r) {
		return
	}
	result, ok := s.attendanceReport(w, r)
	if !ok {
		return
	}
	wb, err := export.AttendanceReport(result)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeWorkbook(w, r, wb)
}

// handleLessonHistory handles GET /api/v1/sessions/{sid}/reports/lessons
// Open to the secretariat and to teachers.
func (s *Server) handleLessonHistory(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.workspace(w, r, "")
	if !ok {
		return
	}
	if ws.Require("reports") != nil {
		if err := ws.Require("diary"); err != nil {
			s.writeError(w, r, fmt.Errorf("%w: %v", errForbidden, err))
			return
		}
	}
	if s.deps.LessonHistoryHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Lesson history handler not configured")
		return
	}
	id, from, to, err := periodParams(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.deps.LessonHistoryHandler.Handle(r.Context(), query.GetLessonHistoryQuery{
		ClassGroupID: id,
		From:         from,
		To:           to,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// EXPORT HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// exportAllowed checks the export toggle for the session.
func (s *Server) exportAllowed(w http.ResponseWriter, r *http.Request) bool {
	if s.deps.ExportEnabled == nil {
		return true
	}
	ws, ok := s.workspace(w, r, "")
	if !ok {
		return false
	}
	if !s.deps.ExportEnabled(ws.ID(), ws.Session.Profile().Key) {
		writeJSONError(w, http.StatusForbidden, "export_disabled", "Spreadsheet export is disabled")
		return false
	}
	return true
}

// writeWorkbook streams an .xlsx download.
func (s *Server) writeWorkbook(w http.ResponseWriter, r *http.Request, wb *export.Workbook) {
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, wb.Filename()))
	w.WriteHeader(http.StatusOK)
	if _, err := wb.WriteTo(w); err != nil {
		logger.FromContext(r.Context()).Error("workbook write failed",
			logger.String("file", wb.Filename()), logger.Err(err))
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// PARAMETER HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// getQueryParamInt extracts an integer query parameter with a default value.
func getQueryParamInt(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}

	var result int
	if _, err := fmt.Sscanf(value, "%d", &result); err != nil {
		return defaultValue
	}
	return result
}

// parseMonth parses YYYY-MM into the first day of that month.
func parseMonth(raw string) (time.Time, error) {
	t, err := time.Parse("2006-01", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid month %q", errBadRequest, raw)
	}
	return timeutil.Date(t.Year(), t.Month(), 1), nil
}
