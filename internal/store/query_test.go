package store

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPage(t *testing.T) {
	tests := []struct {
		page, limit        int
		wantOffset, wantSz int
	}{
		{0, 0, 0, DefaultLimit},
		{1, 10, 0, 10},
		{3, 10, 20, 10},
		{2, 500, MaxLimit, MaxLimit},
		{-4, -1, 0, DefaultLimit},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("page=%d,limit=%d", tt.page, tt.limit), func(t *testing.T) {
			offset, size := Page(tt.page, tt.limit)
			assert.Equal(t, tt.wantOffset, offset)
			assert.Equal(t, tt.wantSz, size)
		})
	}
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 0, TotalPages(0, 20))
	assert.Equal(t, 1, TotalPages(20, 20))
	assert.Equal(t, 2, TotalPages(21, 20))
	assert.Equal(t, 0, TotalPages(5, 0))
}

func TestError_IsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("get lesson: %w", ErrNotFound.WithMessage("Lesson not found"))

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrAlreadyExists))

	var storeErr *Error
	assert.True(t, errors.As(err, &storeErr))
	assert.Equal(t, http.StatusNotFound, storeErr.HTTPCode())
	assert.Equal(t, "Lesson not found", storeErr.Message)
}
