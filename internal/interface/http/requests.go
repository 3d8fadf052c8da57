package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/seduc-pe/academic-hub/internal/domain/shared"
	"github.com/seduc-pe/academic-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST DTOs
// ══════════════════════════════════════════════════════════════════════════════

// CreateSessionRequest opens a session.
type CreateSessionRequest struct {
	Profile string `json:"profile" validate:"required"`
}

// SwitchProfileRequest changes the active profile of a session.
type SwitchProfileRequest struct {
	Profile string `json:"profile" validate:"required"`
}

// SelectRequest picks an entry of one cascade level. ID 0 deselects it.
type SelectRequest struct {
	Level string `json:"level" validate:"required,oneof=school class_group subject student"`
	ID    int64  `json:"id" validate:"gte=0"`
}

// HydrateRequest opens a screen directly on a class group.
type HydrateRequest struct {
	ClassGroupID int64 `json:"class_group_id" validate:"required,gt=0"`
}

// DateRequest carries an ISO date (YYYY-MM-DD).
type DateRequest struct {
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
}

// MonthRequest carries a month as YYYY-MM.
type MonthRequest struct {
	Month string `json:"month" validate:"required,datetime=2006-01"`
}

// DiaryFieldRequest writes one lesson plan field.
type DiaryFieldRequest struct {
	Name  string `json:"name" validate:"required"`
	Value string `json:"value"`
}

// AttendanceStatusRequest sets a student's daily status, optionally with
// the justification text.
type AttendanceStatusRequest struct {
	Status        string  `json:"status" validate:"required,oneof=present absent justified"`
	Justification *string `json:"justification,omitempty"`
}

// EvaluationFieldRequest writes one evaluation field. Value is kept raw:
// strings, numbers, null and score arrays are all valid for some field.
type EvaluationFieldRequest struct {
	Name  string `json:"name" validate:"required"`
	Value any    `json:"value"`
}

// BlockedDayRequest blocks a date on the school calendar.
type BlockedDayRequest struct {
	Date   string `json:"date" validate:"required,datetime=2006-01-02"`
	Reason string `json:"reason" validate:"required,max=200"`
}

// ══════════════════════════════════════════════════════════════════════════════
// DECODING AND VALIDATION
// ══════════════════════════════════════════════════════════════════════════════

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

var (
	// errBadRequest marks malformed bodies and path values.
	errBadRequest = errors.New("bad request")

	// errForbidden marks sections outside the active profile's menu.
	errForbidden = errors.New("forbidden")
)

// decode reads a JSON body into dst and validates it.
func decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is empty", errBadRequest)
		}
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return validate.Struct(dst)
}

// pathID parses a numeric path value.
func pathID(r *http.Request, name string) (shared.ID, error) {
	id, err := shared.ParseID(r.PathValue(name))
	if err != nil || !id.IsValid() {
		return 0, fmt.Errorf("%w: invalid %s %q", errBadRequest, name, r.PathValue(name))
	}
	return id, nil
}

// validationDetails maps each failed field to the rule it broke.
func validationDetails(ve validator.ValidationErrors) map[string]string {
	details := make(map[string]string, len(ve))
	for _, fe := range ve {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		details[fe.Field()] = rule
	}
	return details
}

// ══════════════════════════════════════════════════════════════════════════════
// ERROR MAPPING
// ══════════════════════════════════════════════════════════════════════════════

// statusFor maps an error to its HTTP status and error code.
func statusFor(err error) (int, string) {
	var ve validator.ValidationErrors
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, errForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.As(err, &ve), shared.IsValidation(err):
		return http.StatusUnprocessableEntity, "validation_failed"
	case shared.IsMissingContext(err):
		return http.StatusBadRequest, "missing_context"
	case shared.IsSuperseded(err):
		return http.StatusConflict, "superseded"
	case errors.Is(err, shared.ErrBusy):
		return http.StatusConflict, "busy"
	case shared.IsInvalidOperation(err):
		return http.StatusConflict, "invalid_operation"
	case errors.Is(err, shared.ErrAlreadyExists):
		return http.StatusConflict, "already_exists"
	case shared.IsNotFound(err):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, shared.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	case shared.IsProviderFailure(err):
		return http.StatusBadGateway, "provider_failure"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// writeError answers with the status matching err. Server-side failures are
// logged; rejected operations only at debug level.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	log := logger.FromContext(r.Context())

	if status >= http.StatusInternalServerError {
		log.Error("request failed", logger.String("path", r.URL.Path), logger.Err(err))
	} else {
		log.Debug("request rejected", logger.String("path", r.URL.Path), logger.String("code", code), logger.Err(err))
	}

	if status == http.StatusInternalServerError {
		writeJSONError(w, status, code, "An unexpected error occurred")
		return
	}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		writeJSONErrorWithDetails(w, status, code, "Request validation failed", validationDetails(ve))
		return
	}
	writeJSONError(w, status, code, err.Error())
}
