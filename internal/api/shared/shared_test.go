package shared

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/phrazzld/bootui/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondWithJSON(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		data         interface{}
		expectedBody string
	}{
		{
			name:         "successful response",
			status:       http.StatusOK,
			data:         map[string]interface{}{"installed": true},
			expectedBody: `{"installed":true}`,
		},
		{
			name:         "nil response",
			status:       http.StatusOK,
			data:         nil,
			expectedBody: `null`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			w := httptest.NewRecorder()

			RespondWithJSON(w, req, tc.status, tc.data)

			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			assert.JSONEq(t, tc.expectedBody, w.Body.String())
		})
	}
}

func TestRespondWithError(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/version", nil)
	req = req.WithContext(WithTraceID(req.Context(), "trace-123"))
	w := httptest.NewRecorder()

	RespondWithError(w, req, http.StatusUnauthorized, "Invalid token")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Invalid token", resp.Error)
	assert.Equal(t, "trace-123", resp.TraceID)
}

func TestRespondWithErrorAndLog(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	req := httptest.NewRequest(http.MethodPost, "/v1/install", nil)
	req = req.WithContext(logger.WithLogger(req.Context(), l))
	w := httptest.NewRecorder()

	cause := errors.New("write /var/lib/bootui/version: password=hunter22")
	RespondWithErrorAndLog(w, req, http.StatusInternalServerError, "Install failed", cause)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "hunter22")
	assert.Contains(t, w.Body.String(), "Install failed")

	logged := buf.String()
	assert.Contains(t, logged, `"level":"ERROR"`)
	assert.Contains(t, logged, "[REDACTED_CREDENTIAL]")
	assert.NotContains(t, logged, "hunter22")
	assert.NotContains(t, logged, "/var/lib/bootui")
}

func TestTraceAndSubject(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "", GetTraceID(ctx))

	ctx = SetTraceID(ctx)
	assert.Len(t, GetTraceID(ctx), 36)

	_, ok := GetSubject(ctx)
	assert.False(t, ok)
	ctx = WithSubject(ctx, "worker")
	subject, ok := GetSubject(ctx)
	assert.True(t, ok)
	assert.Equal(t, "worker", subject)
}

func TestDecodeAndValidate(t *testing.T) {
	type installRequest struct {
		Build string `json:"build" validate:"required"`
	}

	t.Run("valid body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"build":"9.3.0"}`))
		var body installRequest
		require.NoError(t, DecodeJSON(httptest.NewRecorder(), req, &body))
		assert.NoError(t, ValidateRequest(&body))
		assert.Equal(t, "9.3.0", body.Build)
	})

	t.Run("unknown field", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"build":"9.3.0","x":1}`))
		var body installRequest
		assert.Error(t, DecodeJSON(httptest.NewRecorder(), req, &body))
	})

	t.Run("missing field", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
		var body installRequest
		require.NoError(t, DecodeJSON(httptest.NewRecorder(), req, &body))
		assert.Error(t, ValidateRequest(&body))
	})
}
