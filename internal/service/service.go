// Package service holds the business rules between the HTTP handlers and
// the content store: authorization, defaults, validation and events.
package service

import (
	"errors"
	"log/slog"

	domainerrors "github.com/digitallifelessons/lifelessons-server/internal/errors"
	"github.com/digitallifelessons/lifelessons-server/internal/id"
	"github.com/digitallifelessons/lifelessons-server/internal/store"
	"github.com/digitallifelessons/lifelessons-server/internal/validation"
)

// Listing sizes for the fixed home-page sections.
const (
	sectionSize         = 6
	topContributorsSize = 10
)

// Deps are the collaborators shared by every service.
type Deps struct {
	Store     store.Store
	Events    store.EventEmitter
	Validator *validation.Validator
	Logger    *slog.Logger
}

func (d Deps) withDefaults() Deps {
	if d.Events == nil {
		d.Events = store.NewNoopEmitter()
	}
	if d.Validator == nil {
		d.Validator = validation.New()
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return d
}

// requireLessonID rejects malformed lesson ids before they reach the store.
func requireLessonID(lessonID string) error {
	if !id.Valid(id.PrefixLesson, lessonID) {
		return domainerrors.ValidationWithDetails("Invalid lesson id", map[string]string{"id": "is not a valid id"})
	}
	return nil
}

// lessonNotFound turns a store miss into the user-facing 404.
func lessonNotFound(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return domainerrors.NotFound("Lesson not found").WithCause(err)
	}
	return err
}

// userNotFound turns a store miss into the user-facing 404.
func userNotFound(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return domainerrors.NotFound("User not found").WithCause(err)
	}
	return err
}

func ptr[T any](v T) *T { return &v }

