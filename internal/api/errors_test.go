package api

import (
	"errors"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/digitallifelessons/lifelessons-server/internal/errors"
)

func TestErrorResponse_StoreFailureSurfacesCause(t *testing.T) {
	ts := setupTestServer(t)
	require.NoError(t, ts.store.Close())

	resp := ts.api.Get("/lessons/public")
	require.Equal(t, http.StatusInternalServerError, resp.Code)

	body := decode[APIError](t, resp.Body.Bytes())
	assert.Equal(t, "INTERNAL", body.Code)
	assert.Contains(t, body.Message, "count lessons")
	assert.Contains(t, body.Message, "database is closed")
}

func TestNewError_Mapping(t *testing.T) {
	RegisterErrorHandler()

	t.Run("domain error", func(t *testing.T) {
		err := huma.NewError(http.StatusInternalServerError, "unexpected error occurred",
			domainerrors.Upstream(errors.New("card_declined"), "stripe checkout failed"))
		apiErr, ok := err.(*APIError)
		require.True(t, ok)
		assert.Equal(t, http.StatusInternalServerError, apiErr.GetStatus())
		assert.Equal(t, "stripe checkout failed: card_declined", apiErr.Message)
	})

	t.Run("plain error keeps cause", func(t *testing.T) {
		err := huma.NewError(http.StatusInternalServerError, "unexpected error occurred", errors.New("disk full"))
		apiErr, ok := err.(*APIError)
		require.True(t, ok)
		assert.Equal(t, "unexpected error occurred: disk full", apiErr.Message)
	})

	t.Run("no cause", func(t *testing.T) {
		err := huma.NewError(http.StatusInternalServerError, "boom")
		assert.Equal(t, "boom", err.Error())
	})

	t.Run("unprocessable becomes bad request", func(t *testing.T) {
		err := huma.NewError(http.StatusUnprocessableEntity, "validation failed")
		assert.Equal(t, http.StatusBadRequest, err.GetStatus())
	})
}
