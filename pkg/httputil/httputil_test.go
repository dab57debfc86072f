package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/trinhly333/worksheet/pkg/errors"
	"github.com/trinhly333/worksheet/pkg/logger"
	"github.com/trinhly333/worksheet/pkg/validator"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestWriteData(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteData(rec, http.StatusCreated, map[string]string{"order_number": "WS12345678"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	resp := decode(t, rec)
	assert.Nil(t, resp.Error)
	assert.Equal(t, "WS12345678", resp.Data.(map[string]any)["order_number"])
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"app error keeps its code", apperrors.Unprocessable("DISCOUNT_EXPIRED", "expired"), http.StatusUnprocessableEntity, "DISCOUNT_EXPIRED"},
		{"wrapped app error", fmt.Errorf("apply: %w", apperrors.Conflict("stale")), http.StatusConflict, "CONFLICT"},
		{"not found sentinel", fmt.Errorf("get: %w", apperrors.ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{"conflict sentinel", apperrors.ErrConflict, http.StatusConflict, "CONFLICT"},
		{"unavailable sentinel", apperrors.ErrServiceUnavail, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)

			WriteError(rec, req, tt.err, testLogger())

			assert.Equal(t, tt.status, rec.Code)
			resp := decode(t, rec)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

func TestWriteError_InternalHidesDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("pq: password leaked"), testLogger())

	resp := decode(t, rec)
	assert.NotContains(t, resp.Error.Message, "password")
}

func TestWriteError_IncludesRequestID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(logger.WithCorrelationID(context.Background(), "corr-1"))
	rec := httptest.NewRecorder()

	WriteError(rec, req, apperrors.ErrNotFound, testLogger())

	assert.Equal(t, "corr-1", decode(t, rec).Error.RequestID)
}

func TestWriteValidationError(t *testing.T) {
	type body struct {
		Code string `json:"code" validate:"required"`
	}
	rec := httptest.NewRecorder()
	WriteValidationError(rec, validator.Validate(body{}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decode(t, rec)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	assert.Equal(t, "is required", resp.Error.Fields["code"])

	rec = httptest.NewRecorder()
	WriteValidationError(rec, errors.New("decode request body: EOF"))
	assert.Equal(t, "INVALID_INPUT", decode(t, rec).Error.Code)
}

func TestParseUUID(t *testing.T) {
	rec := httptest.NewRecorder()
	_, ok := ParseUUID(rec, "not-a-uuid")
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_PARAMETER", decode(t, rec).Error.Code)

	rec = httptest.NewRecorder()
	id, ok := ParseUUID(rec, "4f6f1c7e-0a61-4c4b-9b4e-2f1a0e7c9d11")
	assert.True(t, ok)
	assert.Equal(t, "4f6f1c7e-0a61-4c4b-9b4e-2f1a0e7c9d11", id.String())
}
