package response

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/digitallifelessons/lifelessons-server/internal/errors"
	"github.com/digitallifelessons/lifelessons-server/internal/store"
)

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorBody {
	t.Helper()
	var body ErrorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestJSON(t *testing.T) {
	w := httptest.NewRecorder()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	JSON(w, http.StatusOK, map[string]string{"message": "test"}, logger)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"message":"test"}`, w.Body.String())
}

func TestJSON_NilLogger(t *testing.T) {
	w := httptest.NewRecorder()
	JSON(w, http.StatusCreated, []int{1, 2}, nil)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `[1,2]`, w.Body.String())
}

func TestError(t *testing.T) {
	w := httptest.NewRecorder()
	Unauthorized(w, "authentication required", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, ErrorBody{Code: "UNAUTHORIZED", Message: "authentication required"}, decodeError(t, w))

	w = httptest.NewRecorder()
	TooManyRequests(w, "slow down", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "RATE_LIMITED", decodeError(t, w).Code)
}

func TestHandleError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{
			name:    "domain error",
			err:     domainerrors.Forbidden("Forbidden access"),
			status:  http.StatusForbidden,
			code:    "FORBIDDEN",
			message: "Forbidden access",
		},
		{
			name:    "wrapped domain error",
			err:     errors.Join(errors.New("ctx"), domainerrors.NotFound("User not found")),
			status:  http.StatusNotFound,
			code:    "NOT_FOUND",
			message: "User not found",
		},
		{
			name:    "store error",
			err:     store.ErrAlreadyExists.WithMessage("duplicate"),
			status:  http.StatusConflict,
			code:    "CONFLICT",
			message: "duplicate",
		},
		{
			name:    "unknown error",
			err:     errors.New("disk on fire"),
			status:  http.StatusInternalServerError,
			code:    "INTERNAL",
			message: "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			HandleError(w, tt.err, nil)

			assert.Equal(t, tt.status, w.Code)
			body := decodeError(t, w)
			assert.Equal(t, tt.code, body.Code)
			assert.Equal(t, tt.message, body.Message)
		})
	}
}

func TestHandleError_KeepsDetails(t *testing.T) {
	w := httptest.NewRecorder()
	HandleError(w, domainerrors.ValidationWithDetails("validation failed", map[string]string{"text": "is required"}), nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"code":"VALIDATION","message":"validation failed","details":{"text":"is required"}}`, w.Body.String())
}
