package validation_test

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/digitallifelessons/lifelessons-server/internal/errors"
	"github.com/digitallifelessons/lifelessons-server/internal/id"
	"github.com/digitallifelessons/lifelessons-server/internal/validation"
)

type reportRequest struct {
	LessonID string `json:"lessonId" validate:"required,entityid=lsn"`
	Reporter string `json:"reporterEmail" validate:"required,email"`
	Reason   string `json:"reason" validate:"notblank,max=500"`
}

func validReport() reportRequest {
	return reportRequest{
		LessonID: id.MustGenerate(id.PrefixLesson),
		Reporter: "reader@example.com",
		Reason:   "Spam",
	}
}

func TestValidator_ValidateSuccess(t *testing.T) {
	v := validation.New()
	assert.NoError(t, v.Validate(validReport()))
}

func TestValidator_ValidateErrors(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name      string
		mutate    func(r *reportRequest)
		wantField string
		wantMsg   string
	}{
		{
			name:      "missing lesson id",
			mutate:    func(r *reportRequest) { r.LessonID = "" },
			wantField: "lessonId",
			wantMsg:   "is required",
		},
		{
			name:      "wrong id prefix",
			mutate:    func(r *reportRequest) { r.LessonID = id.MustGenerate(id.PrefixComment) },
			wantField: "lessonId",
			wantMsg:   "is not a valid id",
		},
		{
			name:      "invalid email",
			mutate:    func(r *reportRequest) { r.Reporter = "not-an-email" },
			wantField: "reporterEmail",
			wantMsg:   "must be a valid email address",
		},
		{
			name:      "blank reason",
			mutate:    func(r *reportRequest) { r.Reason = "   " },
			wantField: "reason",
			wantMsg:   "is required",
		},
		{
			name:      "reason too long",
			mutate:    func(r *reportRequest) { r.Reason = strings.Repeat("x", 501) },
			wantField: "reason",
			wantMsg:   "must not exceed 500 characters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validReport()
			tt.mutate(&req)

			err := v.Validate(req)
			require.Error(t, err)

			var domainErr *domainerrors.Error
			require.True(t, errors.As(err, &domainErr))
			assert.Equal(t, http.StatusBadRequest, domainErr.HTTPStatus())

			details, ok := domainErr.Details.(map[string]string)
			require.True(t, ok)
			assert.Equal(t, tt.wantMsg, details[tt.wantField])
		})
	}
}

func TestValidator_Var(t *testing.T) {
	v := validation.New()

	assert.NoError(t, v.Var("email", "a@example.com", "required,email"))

	err := v.Var("email", "nope", "required,email")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domainerrors.ErrValidation))
}

func TestValidator_JSONFieldNames(t *testing.T) {
	v := validation.New()

	req := validReport()
	req.Reporter = ""

	err := v.Validate(req)
	require.Error(t, err)

	var domainErr *domainerrors.Error
	require.True(t, errors.As(err, &domainErr))
	details := domainErr.Details.(map[string]string)
	assert.Contains(t, details, "reporterEmail")
	assert.NotContains(t, details, "Reporter")
}
