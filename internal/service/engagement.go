package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/digitallifelessons/lifelessons-server/internal/domain"
	domainerrors "github.com/digitallifelessons/lifelessons-server/internal/errors"
	"github.com/digitallifelessons/lifelessons-server/internal/id"
	"github.com/digitallifelessons/lifelessons-server/internal/sse"
	"github.com/digitallifelessons/lifelessons-server/internal/store"
	"github.com/digitallifelessons/lifelessons-server/internal/util"
	"github.com/digitallifelessons/lifelessons-server/internal/validation"
)

// EngagementService handles likes, comments, favorites and reports.
type EngagementService struct {
	store     store.Store
	policy    *Policy
	events    store.EventEmitter
	validator *validation.Validator
	logger    *slog.Logger
}

// NewEngagementService creates a new engagement service.
func NewEngagementService(deps Deps) *EngagementService {
	deps = deps.withDefaults()
	return &EngagementService{
		store:     deps.Store,
		policy:    NewPolicy(deps.Store),
		events:    deps.Events,
		validator: deps.Validator,
		logger:    deps.Logger,
	}
}

// CommentRequest is the body of a new comment.
type CommentRequest struct {
	Text string `json:"text" validate:"required,notblank,max=2000"`
}

// ReportRequest flags a lesson.
type ReportRequest struct {
	LessonID string `json:"lessonId" validate:"required,entityid=lsn"`
	Reason   string `json:"reason" validate:"required,notblank,max=500"`
}

// FavoriteResult is the outcome of adding a favorite.
type FavoriteResult struct {
	Created  bool
	Favorite *domain.Favorite
}

// ToggleLike flips the like of userID on a lesson. An empty userID likes as
// the caller.
func (s *EngagementService) ToggleLike(ctx context.Context, callerEmail, lessonID, userID string) (*domain.LikeResult, error) {
	if err := requireLessonID(lessonID); err != nil {
		return nil, err
	}

	userID = strings.TrimSpace(userID)
	if userID == "" {
		userID = util.NormalizeEmail(callerEmail)
	}

	res, err := s.store.ToggleLike(ctx, lessonID, userID)
	if err != nil {
		return nil, lessonNotFound(err)
	}

	s.events.Emit(sse.NewLessonLikedEvent(lessonID, res.LikesCount))
	return res, nil
}

// ListComments returns a lesson's comments, newest first.
func (s *EngagementService) ListComments(ctx context.Context, lessonID string) ([]*domain.Comment, error) {
	if err := requireLessonID(lessonID); err != nil {
		return nil, err
	}
	return s.store.ListComments(ctx, lessonID)
}

// AddComment posts a comment as the caller. Markup is stripped from the text.
func (s *EngagementService) AddComment(ctx context.Context, callerEmail, lessonID string, req CommentRequest) (*domain.Comment, error) {
	if err := requireLessonID(lessonID); err != nil {
		return nil, err
	}
	req.Text = strings.TrimSpace(util.StripHTML(req.Text))
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	commentID, err := id.Generate(id.PrefixComment)
	if err != nil {
		return nil, fmt.Errorf("generate comment ID: %w", err)
	}

	comment := &domain.Comment{
		ID:          commentID,
		LessonID:    lessonID,
		AuthorEmail: util.NormalizeEmail(callerEmail),
		Text:        req.Text,
		CreatedAt:   time.Now().UTC(),
	}
	author, err := s.policy.Caller(ctx, callerEmail)
	if err != nil {
		return nil, err
	}
	if author != nil {
		comment.AuthorName = author.DisplayName
		comment.AuthorImage = author.PhotoURL
	}

	if err := s.store.CreateComment(ctx, comment); err != nil {
		return nil, lessonNotFound(err)
	}

	s.events.Emit(sse.NewCommentCreatedEvent(comment))
	return comment, nil
}

// AddFavorite saves a lesson for the caller. Saving twice is a no-op.
func (s *EngagementService) AddFavorite(ctx context.Context, callerEmail, lessonID string) (*FavoriteResult, error) {
	if err := requireLessonID(lessonID); err != nil {
		return nil, err
	}

	favID, err := id.Generate(id.PrefixFavorite)
	if err != nil {
		return nil, fmt.Errorf("generate favorite ID: %w", err)
	}

	fav := &domain.Favorite{
		ID:        favID,
		LessonID:  lessonID,
		UserEmail: util.NormalizeEmail(callerEmail),
		CreatedAt: time.Now().UTC(),
	}
	created, err := s.store.AddFavorite(ctx, fav)
	if err != nil {
		return nil, lessonNotFound(err)
	}
	if !created {
		return &FavoriteResult{Created: false}, nil
	}

	s.logger.Debug("favorite added", "lesson_id", lessonID, "user", fav.UserEmail)
	return &FavoriteResult{Created: true, Favorite: fav}, nil
}

// ListFavorites returns a user's favorites. Self or admin only.
func (s *EngagementService) ListFavorites(ctx context.Context, callerEmail, userEmail string) ([]*domain.Favorite, error) {
	if RequireSelf(callerEmail, userEmail) != nil {
		if _, err := s.policy.RequireAdmin(ctx, callerEmail); err != nil {
			return nil, domainerrors.Forbidden("Forbidden access")
		}
	}
	return s.store.ListFavoritesByUser(ctx, userEmail)
}

// RemoveFavorite deletes the caller's favorite. It reports whether one existed.
func (s *EngagementService) RemoveFavorite(ctx context.Context, callerEmail, lessonID string) (bool, error) {
	if err := requireLessonID(lessonID); err != nil {
		return false, err
	}
	return s.store.RemoveFavorite(ctx, lessonID, callerEmail)
}

// Report flags a lesson as the caller.
func (s *EngagementService) Report(ctx context.Context, callerEmail string, req ReportRequest) (*domain.Report, error) {
	req.Reason = strings.TrimSpace(util.StripHTML(req.Reason))
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	reportID, err := id.Generate(id.PrefixReport)
	if err != nil {
		return nil, fmt.Errorf("generate report ID: %w", err)
	}

	report := &domain.Report{
		ID:            reportID,
		LessonID:      req.LessonID,
		ReporterEmail: util.NormalizeEmail(callerEmail),
		Reason:        req.Reason,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.store.CreateReport(ctx, report); err != nil {
		return nil, lessonNotFound(err)
	}

	s.logger.Info("lesson reported", "lesson_id", report.LessonID, "reporter", report.ReporterEmail)
	s.events.Emit(sse.NewReportCreatedEvent(report))
	return report, nil
}
