package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cortex-platform/gateway/auth"
)

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var envelope ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	return envelope
}

func TestWriteJSON(t *testing.T) {
	t.Run("writes status, content type and body", func(t *testing.T) {
		rec := httptest.NewRecorder()

		err := WriteJSON(rec, http.StatusCreated, map[string]string{"id": "42"})

		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		assert.JSONEq(t, `{"id":"42"}`, rec.Body.String())
	})

	t.Run("nil data writes headers only", func(t *testing.T) {
		rec := httptest.NewRecorder()

		err := WriteJSON(rec, http.StatusNoContent, nil)

		require.NoError(t, err)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Empty(t, rec.Body.String())
	})
}

func TestWriteAuthError(t *testing.T) {
	t.Run("authentication error is 401 with its code", func(t *testing.T) {
		rec := httptest.NewRecorder()

		err := WriteAuthError(rec, auth.ErrTokenExpired)

		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		envelope := decodeEnvelope(t, rec)
		assert.Equal(t, "token_expired", envelope.Error.Code)
		assert.NotEmpty(t, envelope.Error.Message)
		assert.Empty(t, envelope.Error.Detail)
	})

	t.Run("authorization error is 403", func(t *testing.T) {
		rec := httptest.NewRecorder()

		err := WriteAuthError(rec, auth.NewError(auth.CodeInsufficientPermissions, "Required roles (any of): admin", nil))

		require.NoError(t, err)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		envelope := decodeEnvelope(t, rec)
		assert.Equal(t, "insufficient_permissions", envelope.Error.Code)
	})

	t.Run("wrapped cause lands in detail", func(t *testing.T) {
		rec := httptest.NewRecorder()
		authErr := auth.NewError(auth.CodeTokenInvalid, "invalid token", assert.AnError)

		err := WriteAuthError(rec, authErr)

		require.NoError(t, err)
		envelope := decodeEnvelope(t, rec)
		assert.Equal(t, assert.AnError.Error(), envelope.Error.Detail)
	})
}

func TestErrorWriters(t *testing.T) {
	cases := []struct {
		name       string
		write      func(w http.ResponseWriter) error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{
			name:       "not found with custom message",
			write:      func(w http.ResponseWriter) error { return WriteNotFound(w, "Service not found") },
			wantStatus: http.StatusNotFound,
			wantCode:   "not_found",
			wantMsg:    "Service not found",
		},
		{
			name:       "not found default message",
			write:      func(w http.ResponseWriter) error { return WriteNotFound(w, "") },
			wantStatus: http.StatusNotFound,
			wantCode:   "not_found",
			wantMsg:    "Resource not found",
		},
		{
			name:       "service unavailable",
			write:      func(w http.ResponseWriter) error { return WriteServiceUnavailable(w, "") },
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   "service_unavailable",
			wantMsg:    "Service unavailable",
		},
		{
			name:       "gateway timeout",
			write:      func(w http.ResponseWriter) error { return WriteGatewayTimeout(w, "") },
			wantStatus: http.StatusGatewayTimeout,
			wantCode:   "gateway_timeout",
			wantMsg:    "Service timeout",
		},
		{
			name:       "internal server error",
			write:      func(w http.ResponseWriter) error { return WriteInternalServerError(w, "") },
			wantStatus: http.StatusInternalServerError,
			wantCode:   "internal_error",
			wantMsg:    "Internal server error",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()

			require.NoError(t, tc.write(rec))

			assert.Equal(t, tc.wantStatus, rec.Code)
			envelope := decodeEnvelope(t, rec)
			assert.Equal(t, tc.wantCode, envelope.Error.Code)
			assert.Equal(t, tc.wantMsg, envelope.Error.Message)
		})
	}
}
