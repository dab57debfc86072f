package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	apperrors "github.com/trinhly333/worksheet/pkg/errors"
	"github.com/trinhly333/worksheet/pkg/logger"
	"github.com/trinhly333/worksheet/pkg/validator"
)

// Response is the JSON envelope every endpoint answers with.
type Response struct {
	Data  any            `json:"data,omitempty"`
	Error *ErrorResponse `json:"error,omitempty"`
}

type ErrorResponse struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteData wraps v in the envelope's data field.
func WriteData(w http.ResponseWriter, status int, v any) {
	WriteJSON(w, status, Response{Data: v})
}

// WriteError renders err in the envelope. AppErrors keep their own code and
// status; bare sentinels are mapped, anything else becomes a 500. 5xx
// responses are logged through the request-scoped logger when present.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback *slog.Logger) {
	l := logger.FromContext(r.Context())
	if l == slog.Default() && fallback != nil {
		l = fallback
	}
	requestID := logger.CorrelationIDFromContext(r.Context())

	status, body := errorBody(err)
	body.RequestID = requestID

	if status >= http.StatusInternalServerError {
		l.ErrorContext(r.Context(), "request failed",
			slog.String("error", err.Error()),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", status),
		)
	}

	WriteJSON(w, status, Response{Error: body})
}

func errorBody(err error) (int, *ErrorResponse) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Status, &ErrorResponse{Code: appErr.Code, Message: appErr.Message}
	}

	status := apperrors.HTTPStatus(err)
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		return status, &ErrorResponse{Code: "NOT_FOUND", Message: "resource not found"}
	case errors.Is(err, apperrors.ErrAlreadyExists):
		return status, &ErrorResponse{Code: "ALREADY_EXISTS", Message: "resource already exists"}
	case errors.Is(err, apperrors.ErrConflict):
		return status, &ErrorResponse{Code: "CONFLICT", Message: "resource state conflict"}
	case errors.Is(err, apperrors.ErrInvalidInput):
		return status, &ErrorResponse{Code: "INVALID_INPUT", Message: err.Error()}
	case errors.Is(err, apperrors.ErrServiceUnavail):
		return status, &ErrorResponse{Code: "SERVICE_UNAVAILABLE", Message: "service temporarily unavailable"}
	}
	return http.StatusInternalServerError, &ErrorResponse{Code: "INTERNAL_ERROR", Message: "an internal error occurred"}
}

// WriteValidationError renders a 400 with per-field messages when err came from the validator.
func WriteValidationError(w http.ResponseWriter, err error) {
	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		WriteJSON(w, http.StatusBadRequest, Response{
			Error: &ErrorResponse{
				Code:    "VALIDATION_ERROR",
				Message: "request validation failed",
				Fields:  valErr.Fields(),
			},
		})
		return
	}

	WriteJSON(w, http.StatusBadRequest, Response{
		Error: &ErrorResponse{Code: "INVALID_INPUT", Message: err.Error()},
	})
}

// ParseUUID writes a 400 and returns false when param is not a UUID.
func ParseUUID(w http.ResponseWriter, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(param)
	if err != nil {
		WriteJSON(w, http.StatusBadRequest, Response{
			Error: &ErrorResponse{Code: "INVALID_PARAMETER", Message: "invalid UUID: " + param},
		})
		return uuid.Nil, false
	}
	return id, true
}
