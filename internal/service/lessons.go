package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/digitallifelessons/lifelessons-server/internal/domain"
	domainerrors "github.com/digitallifelessons/lifelessons-server/internal/errors"
	"github.com/digitallifelessons/lifelessons-server/internal/id"
	"github.com/digitallifelessons/lifelessons-server/internal/search"
	"github.com/digitallifelessons/lifelessons-server/internal/sse"
	"github.com/digitallifelessons/lifelessons-server/internal/store"
	"github.com/digitallifelessons/lifelessons-server/internal/util"
	"github.com/digitallifelessons/lifelessons-server/internal/validation"
)

// LessonSearcher finds lesson ids matching free text.
type LessonSearcher interface {
	Search(ctx context.Context, q search.Query) ([]string, error)
}

// LessonService handles lesson reads and writes.
type LessonService struct {
	store     store.Store
	searcher  LessonSearcher
	policy    *Policy
	events    store.EventEmitter
	validator *validation.Validator
	logger    *slog.Logger
}

// NewLessonService creates a new lesson service. A nil searcher makes
// public search use the store's substring match.
func NewLessonService(deps Deps, searcher LessonSearcher) *LessonService {
	deps = deps.withDefaults()
	return &LessonService{
		store:     deps.Store,
		searcher:  searcher,
		policy:    NewPolicy(deps.Store),
		events:    deps.Events,
		validator: deps.Validator,
		logger:    deps.Logger,
	}
}

// CreateLessonRequest is the body of a new lesson.
type CreateLessonRequest struct {
	Title       string             `json:"title" validate:"required,notblank,max=200"`
	Description string             `json:"description" validate:"required,notblank,max=20000"`
	Category    string             `json:"category" validate:"required,notblank,max=100"`
	Emotion     string             `json:"emotion" validate:"required,notblank,max=100"`
	Image       string             `json:"image" validate:"omitempty,url,max=2048"`
	Privacy     domain.Privacy     `json:"privacy" validate:"omitempty,oneof=Public Private"`
	AccessLevel domain.AccessLevel `json:"accessLevel" validate:"omitempty,oneof=Free Premium"`
}

// UpdateLessonRequest is a partial lesson update; nil fields are unchanged.
type UpdateLessonRequest struct {
	Title       *string             `json:"title,omitempty" validate:"omitempty,notblank,max=200"`
	Description *string             `json:"description,omitempty" validate:"omitempty,notblank,max=20000"`
	Category    *string             `json:"category,omitempty" validate:"omitempty,notblank,max=100"`
	Emotion     *string             `json:"emotion,omitempty" validate:"omitempty,notblank,max=100"`
	Image       *string             `json:"image,omitempty" validate:"omitempty,max=2048"`
	Privacy     *domain.Privacy     `json:"privacy,omitempty" validate:"omitempty,oneof=Public Private"`
	AccessLevel *domain.AccessLevel `json:"accessLevel,omitempty" validate:"omitempty,oneof=Free Premium"`
}

// PublicQuery filters the public lesson listing.
type PublicQuery struct {
	Category string
	Emotion  string
	Search   string
	Sort     string
	Page     int
	Limit    int
}

// AdminQuery filters the admin lesson listing.
type AdminQuery struct {
	Privacy  domain.Privacy
	Featured *bool
	Page     int
	Limit    int
}

// LessonPage is one page of a lesson listing.
type LessonPage struct {
	Lessons    []*domain.Lesson `json:"lessons"`
	Total      int              `json:"total"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
	TotalPages int              `json:"totalPages"`
}

// Create stores a lesson authored by the caller. Author fields come from the
// caller's user record, never from the request.
func (s *LessonService) Create(ctx context.Context, callerEmail string, req CreateLessonRequest) (*domain.Lesson, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	author, err := s.policy.Caller(ctx, callerEmail)
	if err != nil {
		return nil, err
	}
	if author == nil {
		return nil, domainerrors.NotFound("User not found")
	}

	if req.Privacy == "" {
		req.Privacy = domain.PrivacyPublic
	}
	if req.AccessLevel == "" {
		req.AccessLevel = domain.AccessFree
	}
	if req.AccessLevel == domain.AccessPremium && !author.CanPublishPremium() {
		return nil, domainerrors.Forbidden("Premium lessons require a premium account")
	}

	lessonID, err := id.Generate(id.PrefixLesson)
	if err != nil {
		return nil, fmt.Errorf("generate lesson ID: %w", err)
	}

	now := time.Now().UTC()
	lesson := &domain.Lesson{
		ID:          lessonID,
		AuthorEmail: author.Email,
		AuthorName:  author.DisplayName,
		AuthorImage: author.PhotoURL,
		Title:       req.Title,
		Description: util.SanitizeHTML(req.Description),
		Category:    req.Category,
		Emotion:     req.Emotion,
		Image:       req.Image,
		Privacy:     req.Privacy,
		AccessLevel: req.AccessLevel,
		Likes:       []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.CreateLesson(ctx, lesson); err != nil {
		return nil, fmt.Errorf("create lesson: %w", err)
	}

	s.logger.Info("lesson created",
		"lesson_id", lesson.ID,
		"author", lesson.AuthorEmail,
		"privacy", lesson.Privacy,
	)
	s.events.Emit(sse.NewLessonCreatedEvent(lesson))

	return lesson, nil
}

// View returns a lesson and counts the view. Private lessons are reported
// missing to everyone but their author and admins, and their views are not
// counted for anyone else.
func (s *LessonService) View(ctx context.Context, callerEmail, lessonID string) (*domain.Lesson, error) {
	if err := requireLessonID(lessonID); err != nil {
		return nil, err
	}

	lesson, err := s.store.GetLesson(ctx, lessonID)
	if err != nil {
		return nil, lessonNotFound(err)
	}
	if !lesson.IsPublic() && !lesson.VisibleTo(util.NormalizeEmail(callerEmail), s.policy.IsAdmin(ctx, callerEmail)) {
		return nil, domainerrors.NotFound("Lesson not found")
	}

	lesson, err = s.store.IncrementLessonViews(ctx, lessonID)
	if err != nil {
		return nil, lessonNotFound(err)
	}
	return lesson, nil
}

// ListMine returns the caller's lessons. Admins may list another author's
// lessons, or every lesson when authorEmail is empty.
func (s *LessonService) ListMine(ctx context.Context, callerEmail, authorEmail string) ([]*domain.Lesson, error) {
	q := store.LessonQuery{Sort: domain.SortNewest, AuthorEmail: util.NormalizeEmail(callerEmail)}

	isAdmin := s.policy.IsAdmin(ctx, callerEmail)
	switch {
	case authorEmail == "" && isAdmin:
		q.AuthorEmail = ""
	case authorEmail == "":
	case RequireSelf(callerEmail, authorEmail) == nil:
	case isAdmin:
		q.AuthorEmail = util.NormalizeEmail(authorEmail)
	default:
		return nil, domainerrors.Forbidden("Forbidden access")
	}

	lessons, _, err := s.store.ListLessons(ctx, q)
	return lessons, err
}

// ListPublic returns a page of public lessons. Free-text search goes through
// the search index and falls back to the store's substring match when the
// index is unavailable.
func (s *LessonService) ListPublic(ctx context.Context, pq PublicQuery) (*LessonPage, error) {
	offset, limit := store.Page(pq.Page, pq.Limit)
	q := store.LessonQuery{
		Privacy: domain.PrivacyPublic,
		Sort:    domain.ParseLessonSort(pq.Sort),
		Offset:  offset,
		Limit:   limit,
	}
	if !util.IsAllOrEmpty(pq.Category) {
		q.Category = pq.Category
	}
	if !util.IsAllOrEmpty(pq.Emotion) {
		q.Emotion = pq.Emotion
	}

	if pq.Search != "" {
		q.Search = pq.Search
		if s.searcher != nil {
			ids, err := s.searcher.Search(ctx, search.Query{
				Text:     pq.Search,
				Category: q.Category,
				Emotion:  q.Emotion,
			})
			if err != nil {
				s.logger.Warn("search index unavailable, using substring match", "error", err)
			} else {
				q.Search = ""
				q.IDs = ids
			}
		}
	}

	lessons, total, err := s.store.ListLessons(ctx, q)
	if err != nil {
		return nil, err
	}

	return &LessonPage{
		Lessons:    lessons,
		Total:      total,
		Page:       offset/limit + 1,
		Limit:      limit,
		TotalPages: store.TotalPages(total, limit),
	}, nil
}

// Featured returns the newest featured public lessons.
func (s *LessonService) Featured(ctx context.Context) ([]*domain.Lesson, error) {
	lessons, _, err := s.store.ListLessons(ctx, store.LessonQuery{
		Privacy:  domain.PrivacyPublic,
		Featured: ptr(true),
		Sort:     domain.SortNewest,
		Limit:    sectionSize,
	})
	return lessons, err
}

// MostSaved returns the public lessons with the most favorites.
func (s *LessonService) MostSaved(ctx context.Context) ([]*domain.Lesson, error) {
	lessons, _, err := s.store.ListLessons(ctx, store.LessonQuery{
		Privacy: domain.PrivacyPublic,
		Sort:    domain.SortMostSaved,
		Limit:   sectionSize,
	})
	return lessons, err
}

// ByAuthor returns an author's lessons, newest first. Private lessons are
// included only for the author and admins.
func (s *LessonService) ByAuthor(ctx context.Context, callerEmail, authorEmail string) ([]*domain.Lesson, error) {
	q := store.LessonQuery{
		AuthorEmail: util.NormalizeEmail(authorEmail),
		Privacy:     domain.PrivacyPublic,
		Sort:        domain.SortNewest,
	}
	if RequireSelf(callerEmail, authorEmail) == nil || s.policy.IsAdmin(ctx, callerEmail) {
		q.Privacy = ""
	}

	lessons, _, err := s.store.ListLessons(ctx, q)
	return lessons, err
}

// Similar returns public lessons sharing the category or the emotion.
func (s *LessonService) Similar(ctx context.Context, category, emotion, excludeID string) ([]*domain.Lesson, error) {
	if excludeID != "" {
		if err := requireLessonID(excludeID); err != nil {
			return nil, err
		}
	}

	similar := &store.SimilarTo{}
	if !util.IsAllOrEmpty(category) {
		similar.Category = category
	}
	if !util.IsAllOrEmpty(emotion) {
		similar.Emotion = emotion
	}

	lessons, _, err := s.store.ListLessons(ctx, store.LessonQuery{
		Privacy:   domain.PrivacyPublic,
		Similar:   similar,
		ExcludeID: excludeID,
		Sort:      domain.SortNewest,
		Limit:     sectionSize,
	})
	return lessons, err
}

// Update applies a partial update. Author or admin only.
func (s *LessonService) Update(ctx context.Context, callerEmail, lessonID string, req UpdateLessonRequest) (*domain.Lesson, error) {
	if err := requireLessonID(lessonID); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	lesson, err := s.store.GetLesson(ctx, lessonID)
	if err != nil {
		return nil, lessonNotFound(err)
	}
	if err := s.policy.RequireOwnerOrAdmin(ctx, callerEmail, lesson.AuthorEmail); err != nil {
		return nil, err
	}

	if req.AccessLevel != nil && *req.AccessLevel == domain.AccessPremium && lesson.AccessLevel != domain.AccessPremium {
		caller, err := s.policy.Caller(ctx, callerEmail)
		if err != nil {
			return nil, err
		}
		if caller == nil || !caller.CanPublishPremium() {
			return nil, domainerrors.Forbidden("Premium lessons require a premium account")
		}
	}

	update := domain.LessonUpdate{
		Title:       req.Title,
		Category:    req.Category,
		Emotion:     req.Emotion,
		Image:       req.Image,
		Privacy:     req.Privacy,
		AccessLevel: req.AccessLevel,
	}
	if req.Description != nil {
		update.Description = ptr(util.SanitizeHTML(*req.Description))
	}
	if update.Empty() {
		return lesson, nil
	}

	return s.apply(ctx, lessonID, update)
}

// SetPrivacy changes a lesson's privacy. Author or admin only.
func (s *LessonService) SetPrivacy(ctx context.Context, callerEmail, lessonID string, privacy domain.Privacy) (*domain.Lesson, error) {
	return s.Update(ctx, callerEmail, lessonID, UpdateLessonRequest{Privacy: &privacy})
}

// SetAccessLevel changes a lesson's access level. Author or admin only.
func (s *LessonService) SetAccessLevel(ctx context.Context, callerEmail, lessonID string, level domain.AccessLevel) (*domain.Lesson, error) {
	return s.Update(ctx, callerEmail, lessonID, UpdateLessonRequest{AccessLevel: &level})
}

// Delete removes a lesson with its comments, favorites, reports and likes.
// Author or admin only.
func (s *LessonService) Delete(ctx context.Context, callerEmail, lessonID string) error {
	if err := requireLessonID(lessonID); err != nil {
		return err
	}

	lesson, err := s.store.GetLesson(ctx, lessonID)
	if err != nil {
		return lessonNotFound(err)
	}
	if err := s.policy.RequireOwnerOrAdmin(ctx, callerEmail, lesson.AuthorEmail); err != nil {
		return err
	}

	if err := s.store.DeleteLesson(ctx, lessonID); err != nil {
		return lessonNotFound(err)
	}

	s.logger.Info("lesson deleted", "lesson_id", lessonID, "by", util.NormalizeEmail(callerEmail))
	s.events.Emit(sse.NewLessonDeletedEvent(lessonID))
	return nil
}

// AdminList returns a page of all lessons. Admin only.
func (s *LessonService) AdminList(ctx context.Context, callerEmail string, aq AdminQuery) (*LessonPage, error) {
	if _, err := s.policy.RequireAdmin(ctx, callerEmail); err != nil {
		return nil, err
	}
	if aq.Privacy != "" && !aq.Privacy.Valid() {
		return nil, domainerrors.ValidationWithDetails("validation failed", map[string]string{
			"privacy": "must be one of: Public Private",
		})
	}

	offset, limit := store.Page(aq.Page, aq.Limit)
	lessons, total, err := s.store.ListLessons(ctx, store.LessonQuery{
		Privacy:  aq.Privacy,
		Featured: aq.Featured,
		Sort:     domain.SortNewest,
		Offset:   offset,
		Limit:    limit,
	})
	if err != nil {
		return nil, err
	}

	return &LessonPage{
		Lessons:    lessons,
		Total:      total,
		Page:       offset/limit + 1,
		Limit:      limit,
		TotalPages: store.TotalPages(total, limit),
	}, nil
}

// SetFeatured marks a lesson as featured or not. Admin only.
func (s *LessonService) SetFeatured(ctx context.Context, callerEmail, lessonID string, featured bool) (*domain.Lesson, error) {
	if err := requireLessonID(lessonID); err != nil {
		return nil, err
	}
	if _, err := s.policy.RequireAdmin(ctx, callerEmail); err != nil {
		return nil, err
	}
	return s.apply(ctx, lessonID, domain.LessonUpdate{IsFeatured: &featured})
}

func (s *LessonService) apply(ctx context.Context, lessonID string, update domain.LessonUpdate) (*domain.Lesson, error) {
	lesson, err := s.store.UpdateLesson(ctx, lessonID, update)
	if err != nil {
		return nil, lessonNotFound(err)
	}

	s.logger.Info("lesson updated", "lesson_id", lessonID)
	s.events.Emit(sse.NewLessonUpdatedEvent(lesson))
	return lesson, nil
}
