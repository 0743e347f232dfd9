package service

import (
	"context"
	"log/slog"

	"github.com/digitallifelessons/lifelessons-server/internal/domain"
	"github.com/digitallifelessons/lifelessons-server/internal/sse"
	"github.com/digitallifelessons/lifelessons-server/internal/store"
)

// ModerationService backs the admin dashboard. Every method is admin only.
type ModerationService struct {
	store  store.Store
	policy *Policy
	events store.EventEmitter
	logger *slog.Logger
}

// NewModerationService creates a new moderation service.
func NewModerationService(deps Deps) *ModerationService {
	deps = deps.withDefaults()
	return &ModerationService{
		store:  deps.Store,
		policy: NewPolicy(deps.Store),
		events: deps.Events,
		logger: deps.Logger,
	}
}

// ReportedLessons returns unresolved reports grouped by lesson.
func (s *ModerationService) ReportedLessons(ctx context.Context, callerEmail string) ([]*domain.ReportedLesson, error) {
	if _, err := s.policy.RequireAdmin(ctx, callerEmail); err != nil {
		return nil, err
	}
	return s.store.ListReportedLessons(ctx)
}

// IgnoreReports resolves a lesson's open reports without touching the lesson.
func (s *ModerationService) IgnoreReports(ctx context.Context, callerEmail, lessonID string) (int, error) {
	if err := requireLessonID(lessonID); err != nil {
		return 0, err
	}
	if _, err := s.policy.RequireAdmin(ctx, callerEmail); err != nil {
		return 0, err
	}

	n, err := s.store.ResolveReports(ctx, lessonID, domain.ReportIgnored)
	if err != nil {
		return 0, err
	}

	s.logger.Info("reports ignored", "lesson_id", lessonID, "count", n)
	s.events.Emit(sse.NewReportResolvedEvent(lessonID, domain.ReportIgnored, n))
	return n, nil
}

// DeleteReportedLesson removes a reported lesson with all its reports.
func (s *ModerationService) DeleteReportedLesson(ctx context.Context, callerEmail, lessonID string) error {
	if err := requireLessonID(lessonID); err != nil {
		return err
	}
	if _, err := s.policy.RequireAdmin(ctx, callerEmail); err != nil {
		return err
	}

	if _, err := s.store.GetLesson(ctx, lessonID); err != nil {
		return lessonNotFound(err)
	}

	n, err := s.store.ResolveReports(ctx, lessonID, domain.ReportDeleted)
	if err != nil {
		return err
	}
	if err := s.store.DeleteLesson(ctx, lessonID); err != nil {
		return lessonNotFound(err)
	}

	s.logger.Info("reported lesson deleted", "lesson_id", lessonID, "reports", n)
	s.events.Emit(sse.NewReportResolvedEvent(lessonID, domain.ReportDeleted, n))
	s.events.Emit(sse.NewLessonDeletedEvent(lessonID))
	return nil
}

// Stats returns the dashboard totals.
func (s *ModerationService) Stats(ctx context.Context, callerEmail string) (*domain.Stats, error) {
	if _, err := s.policy.RequireAdmin(ctx, callerEmail); err != nil {
		return nil, err
	}
	return s.store.Stats(ctx)
}
