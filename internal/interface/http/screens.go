package http

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/seduc-pe/academic-hub/internal/application/cascade"
	"github.com/seduc-pe/academic-hub/internal/application/workspace"
	"github.com/seduc-pe/academic-hub/internal/domain/attendance"
	"github.com/seduc-pe/academic-hub/internal/domain/shared"
	"github.com/seduc-pe/academic-hub/internal/infrastructure/export"
	"github.com/seduc-pe/academic-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// SCREENS
// ══════════════════════════════════════════════════════════════════════════════

// selector is the cascade surface every screen shares.
type selector interface {
	Load(ctx context.Context) error
	Select(ctx context.Context, level cascade.Level, id shared.ID) error
	Hydrate(ctx context.Context, classGroupID shared.ID) error
}

// screen binds one workflow of a workspace to the generic endpoints.
type screen struct {
	selector
	view   func() any
	submit func(ctx context.Context) (any, error)
}

func screenOf(ws *workspace.Workspace, name string) (screen, bool) {
	switch name {
	case "diary":
		return screen{
			selector: ws.Diary,
			view:     func() any { return ws.Diary.View() },
			submit: func(ctx context.Context) (any, error) {
				res, err := ws.Diary.Submit(ctx)
				if err != nil {
					return nil, err
				}
				return res, nil
			},
		}, true
	case "evaluation":
		return screen{
			selector: ws.Evaluation,
			view:     func() any { return ws.Evaluation.View() },
			submit: func(ctx context.Context) (any, error) {
				res, err := ws.Evaluation.Submit(ctx)
				if err != nil {
					return nil, err
				}
				return res, nil
			},
		}, true
	case "frequency":
		return screen{
			selector: ws.Frequency,
			view:     func() any { return ws.Frequency.View() },
			submit: func(ctx context.Context) (any, error) {
				report, err := ws.Frequency.Submit(ctx)
				if err != nil && len(report.SavedDays) == 0 {
					return nil, err
				}
				return report, err
			},
		}, true
	default:
		return screen{}, false
	}
}

// screen resolves {sid} and {screen}; the screen name doubles as the menu section.
func (s *Server) screen(w http.ResponseWriter, r *http.Request) (screen, bool) {
	name := r.PathValue("screen")
	ws, ok := s.workspace(w, r, name)
	if !ok {
		return screen{}, false
	}
	sc, ok := screenOf(ws, name)
	if !ok {
		writeJSONError(w, http.StatusNotFound, "not_found", "unknown screen "+name)
		return screen{}, false
	}
	return sc, true
}

// handleScreenView handles GET /api/v1/sessions/{sid}/{screen}
func (s *Server) handleScreenView(w http.ResponseWriter, r *http.Request) {
	if sc, ok := s.screen(w, r); ok {
		writeJSON(w, http.StatusOK, sc.view())
	}
}

// handleScreenLoad handles POST /api/v1/sessions/{sid}/{screen}/load
// It fetches the school list, the root of every cascade.
func (s *Server) handleScreenLoad(w http.ResponseWriter, r *http.Request) {
	sc, ok := s.screen(w, r)
	if !ok {
		return
	}
	if err := sc.Load(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sc.view())
}

// handleScreenSelect handles POST /api/v1/sessions/{sid}/{screen}/select
func (s *Server) handleScreenSelect(w http.ResponseWriter, r *http.Request) {
	sc, ok := s.screen(w, r)
	if !ok {
		return
	}
	var req SelectRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	level, err := cascade.ParseLevel(req.Level)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := sc.Select(r.Context(), level, shared.ID(req.ID)); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sc.view())
}

// handleScreenHydrate handles POST /api/v1/sessions/{sid}/{screen}/hydrate
// A deep link carries only the class group; school and lists are restored from it.
func (s *Server) handleScreenHydrate(w http.ResponseWriter, r *http.Request) {
	sc, ok := s.screen(w, r)
	if !ok {
		return
	}
	var req HydrateRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := sc.Hydrate(r.Context(), shared.ID(req.ClassGroupID)); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sc.view())
}

// handleScreenSubmit handles POST /api/v1/sessions/{sid}/{screen}/submit
func (s *Server) handleScreenSubmit(w http.ResponseWriter, r *http.Request) {
	sc, ok := s.screen(w, r)
	if !ok {
		return
	}
	result, err := sc.submit(r.Context())
	if err != nil {
		if result == nil {
			s.writeError(w, r, err)
			return
		}
		// Partial save: report what was stored along with the failure.
		status, code := statusFor(err)
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(status)
		writeBody(w, JSONResponse{
			Success: false,
			Data:    result,
			Error:   &APIError{Code: code, Message: err.Error()},
		})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// CLASS DIARY
// ══════════════════════════════════════════════════════════════════════════════

// handleDiaryDate handles PUT /api/v1/sessions/{sid}/diary/date
func (s *Server) handleDiaryDate(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.workspace(w, r, "diary")
	if !ok {
		return
	}
	var req DateRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	date, err := timeutil.ParseDate(req.Date)
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	if err := ws.Diary.SetDate(date); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ws.Diary.View())
}

// handleDiaryField handles PUT /api/v1/sessions/{sid}/diary/fields
func (s *Server) handleDiaryField(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.workspace(w, r, "diary")
	if !ok {
		return
	}
	var req DiaryFieldRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := ws.Diary.SetField(req.Name, req.Value); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ws.Diary.View())
}

// handleDiaryCycle handles POST /api/v1/sessions/{sid}/diary/attendance/{student}/cycle
func (s *Server) handleDiaryCycle(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.workspace(w, r, "diary")
	if !ok {
		return
	}
	studentID, err := pathID(r, "student")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	entry, err := ws.Diary.Cycle(studentID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// handleDiaryStatus handles PUT /api/v1/sessions/{sid}/diary/attendance/{student}
func (s *Server) handleDiaryStatus(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.workspace(w, r, "diary")
	if !ok {
		return
	}
	studentID, err := pathID(r, "student")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req AttendanceStatusRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	status, err := attendance.ParseStatus(req.Status)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	entry, err := ws.Diary.SetStatus(studentID, status)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Justification != nil {
		if entry, err = ws.Diary.SetJustification(studentID, *req.Justification); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, entry)
}

// ══════════════════════════════════════════════════════════════════════════════
// EVALUATION
// ══════════════════════════════════════════════════════════════════════════════

// handleEvaluationField handles PUT /api/v1/sessions/{sid}/evaluation/fields
func (s *Server) handleEvaluationField(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.workspace(w, r, "evaluation")
	if !ok {
		return
	}
	var req EvaluationFieldRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := ws.Evaluation.SetField(req.Name, req.Value); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ws.Evaluation.View())
}

// handleEvaluationFlag handles POST /api/v1/sessions/{sid}/evaluation/flags/{flag}/toggle
func (s *Server) handleEvaluationFlag(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.workspace(w, r, "evaluation")
	if !ok {
		return
	}
	flag := r.PathValue("flag")
	on, err := ws.Evaluation.ToggleAttitudinalFlag(flag)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"flag": flag, "enabled": on})
}

// ══════════════════════════════════════════════════════════════════════════════
// FREQUENCY SHEET
// ══════════════════════════════════════════════════════════════════════════════

// handleFrequencyMonth handles PUT /api/v1/sessions/{sid}/frequency/month
func (s *Server) handleFrequencyMonth(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.workspace(w, r, "frequency")
	if !ok {
		return
	}
	var req MonthRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	month, err := parseMonth(req.Month)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := ws.Frequency.SetMonth(r.Context(), month); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ws.Frequency.View())
}

// handleFrequencyCycle handles POST /api/v1/sessions/{sid}/frequency/marks/{student}/{day}/cycle
func (s *Server) handleFrequencyCycle(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.workspace(w, r, "frequency")
	if !ok {
		return
	}
	studentID, err := pathID(r, "student")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	day, err := strconv.Atoi(r.PathValue("day"))
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: invalid day %q", errBadRequest, r.PathValue("day")))
		return
	}

	status, err := ws.Frequency.Cycle(studentID, day)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"student_id": studentID,
		"day":        day,
		"status":     status,
		"code":       status.Code(),
	})
}

// handleFrequencyExport handles GET /api/v1/sessions/{sid}/frequency/export
func (s *Server) handleFrequencyExport(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.workspace(w, r, "frequency")
	if !ok || !s.exportAllowed(w, r) {
		return
	}
	snap := ws.Frequency.Grid()
	if snap == nil {
		s.writeError(w, r, shared.MissingContext("http", "FrequencyExport", "select a class group first"))
		return
	}
	wb, err := export.FrequencyGrid(snap)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeWorkbook(w, r, wb)
}
