package errors

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestStatusToErrorType(t *testing.T) {
	tests := []struct {
		status int
		want   ErrorType
	}{
		{http.StatusBadRequest, ErrorTypeValidation},
		{http.StatusUnauthorized, ErrorTypeUnauthorized},
		{http.StatusForbidden, ErrorTypeForbidden},
		{http.StatusNotFound, ErrorTypeNotFound},
		{http.StatusMethodNotAllowed, ErrorTypeMethodNotAllowed},
		{http.StatusConflict, ErrorTypeConflict},
		{http.StatusRequestEntityTooLarge, ErrorTypeValidation},
		{http.StatusUnprocessableEntity, ErrorTypeValidation},
		{http.StatusTeapot, ErrorTypeValidation},
		{http.StatusTooManyRequests, ErrorTypeRateLimit},
		{http.StatusInternalServerError, ErrorTypeInternal},
		{http.StatusBadGateway, ErrorTypeExternal},
		{http.StatusServiceUnavailable, ErrorTypeUnavailable},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			assert.Equal(t, string(tt.want), statusToErrorType(tt.status))
		})
	}
}

func TestHandleStatus_MethodNotAllowed(t *testing.T) {
	h := NewErrorHandler(zaptest.NewLogger(t), false)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/health", nil)

	h.HandleStatus(rec, req, http.StatusMethodNotAllowed, "method not allowed")

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Error)
	assert.Equal(t, string(ErrorTypeMethodNotAllowed), body.Type)
	assert.Equal(t, "method not allowed", body.Message)
}

func TestHandle_AppErrorKeepsItsStatus(t *testing.T) {
	h := NewErrorHandler(zaptest.NewLogger(t), false)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/projects/p1", nil)

	h.Handle(rec, req, NewForbiddenError("not your project"))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, string(ErrorTypeForbidden), body.Type)
}
