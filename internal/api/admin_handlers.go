package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/danielgtaylor/huma/v2"

	"github.com/digitallifelessons/lifelessons-server/internal/domain"
	domainerrors "github.com/digitallifelessons/lifelessons-server/internal/errors"
	"github.com/digitallifelessons/lifelessons-server/internal/payment"
	"github.com/digitallifelessons/lifelessons-server/internal/service"
)

func (s *Server) registerAdminRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "adminListLessons",
		Method:      http.MethodGet,
		Path:        "/admin/lessons",
		Summary:     "List all lessons",
		Description: "Returns a page of every lesson, optionally filtered by privacy or featured flag",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAdminListLessons)

	huma.Register(s.api, huma.Operation{
		OperationID: "adminSetFeatured",
		Method:      http.MethodPatch,
		Path:        "/admin/lessons/{id}/featured",
		Summary:     "Feature lesson",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAdminSetFeatured)

	huma.Register(s.api, huma.Operation{
		OperationID: "adminReportedLessons",
		Method:      http.MethodGet,
		Path:        "/admin/reported-lessons",
		Summary:     "Reported lessons",
		Description: "Returns unresolved reports grouped per lesson, most reported first",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAdminReportedLessons)

	huma.Register(s.api, huma.Operation{
		OperationID: "adminIgnoreReports",
		Method:      http.MethodPatch,
		Path:        "/admin/reported-lessons/{lessonId}/ignore",
		Summary:     "Ignore reports",
		Description: "Resolves a lesson's open reports and keeps the lesson",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAdminIgnoreReports)

	huma.Register(s.api, huma.Operation{
		OperationID: "adminDeleteReportedLesson",
		Method:      http.MethodDelete,
		Path:        "/admin/reported-lessons/{lessonId}",
		Summary:     "Delete reported lesson",
		Description: "Deletes the lesson with its reports, comments and favorites",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAdminDeleteReportedLesson)

	huma.Register(s.api, huma.Operation{
		OperationID: "adminSetRole",
		Method:      http.MethodPatch,
		Path:        "/admin/users/{email}/role",
		Summary:     "Set user role",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAdminSetRole)

	huma.Register(s.api, huma.Operation{
		OperationID: "adminStats",
		Method:      http.MethodGet,
		Path:        "/admin/stats",
		Summary:     "Dashboard totals",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAdminStats)

	huma.Register(s.api, huma.Operation{
		OperationID: "adminListPayments",
		Method:      http.MethodGet,
		Path:        "/admin/payments",
		Summary:     "Checkout ledger",
		Description: "Returns recorded checkout sessions, newest first",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAdminListPayments)
}

// === Request/Response Types ===

// AdminListLessonsInput filters the admin lesson listing.
type AdminListLessonsInput struct {
	Privacy  string `query:"privacy" doc:"Public or Private"`
	Featured string `query:"featured" doc:"true or false"`
	Page     int    `query:"page" minimum:"0" doc:"Page number, from 1"`
	Limit    int    `query:"limit" minimum:"0" doc:"Page size (default 20, max 100)"`
}

// SetFeaturedInput sets the featured flag.
type SetFeaturedInput struct {
	ID   string `path:"id" doc:"Lesson ID"`
	Body struct {
		IsFeatured bool `json:"isFeatured" doc:"Featured flag"`
	}
}

// ReportedLessonsOutput wraps the moderation queue.
type ReportedLessonsOutput struct {
	Body []*domain.ReportedLesson
}

// ReportedLessonInput identifies a reported lesson.
type ReportedLessonInput struct {
	LessonID string `path:"lessonId" doc:"Lesson ID"`
}

// ResolveReportsResponse is the outcome of ignoring reports.
type ResolveReportsResponse struct {
	Message  string `json:"message"`
	Resolved int    `json:"resolved" doc:"Number of reports resolved"`
}

// ResolveReportsOutput wraps the ignore outcome.
type ResolveReportsOutput struct {
	Body ResolveReportsResponse
}

// SetRoleInput sets a user's role.
type SetRoleInput struct {
	Email string `path:"email" doc:"User email"`
	Body  struct {
		Role string `json:"role" enum:"user,admin" doc:"New role"`
	}
}

// StatsOutput wraps the dashboard totals.
type StatsOutput struct {
	Body *domain.Stats
}

// ListPaymentsInput filters the checkout ledger.
type ListPaymentsInput struct {
	Status string `query:"status" doc:"pending or settled"`
	Email  string `query:"email" doc:"Only this customer's checkouts"`
}

// PaymentsOutput wraps ledger records.
type PaymentsOutput struct {
	Body []*domain.CheckoutSession
}

// === Handlers ===

func (s *Server) handleAdminListLessons(ctx context.Context, input *AdminListLessonsInput) (*LessonPageOutput, error) {
	email, err := requireEmail(ctx)
	if err != nil {
		return nil, err
	}

	q := service.AdminQuery{
		Privacy: domain.Privacy(input.Privacy),
		Page:    input.Page,
		Limit:   input.Limit,
	}
	if input.Featured != "" {
		featured, err := strconv.ParseBool(input.Featured)
		if err != nil {
			return nil, domainerrors.ValidationWithDetails("validation failed", map[string]string{
				"featured": "must be true or false",
			})
		}
		q.Featured = &featured
	}

	page, err := s.services.Lessons.AdminList(ctx, email, q)
	if err != nil {
		return nil, err
	}
	return &LessonPageOutput{Body: page}, nil
}

func (s *Server) handleAdminSetFeatured(ctx context.Context, input *SetFeaturedInput) (*LessonOutput, error) {
	email, err := requireEmail(ctx)
	if err != nil {
		return nil, err
	}

	lesson, err := s.services.Lessons.SetFeatured(ctx, email, input.ID, input.Body.IsFeatured)
	if err != nil {
		return nil, err
	}
	return &LessonOutput{Body: lesson}, nil
}

func (s *Server) handleAdminReportedLessons(ctx context.Context, _ *struct{}) (*ReportedLessonsOutput, error) {
	email, err := requireEmail(ctx)
	if err != nil {
		return nil, err
	}

	reported, err := s.services.Moderation.ReportedLessons(ctx, email)
	if err != nil {
		return nil, err
	}
	return &ReportedLessonsOutput{Body: reported}, nil
}

func (s *Server) handleAdminIgnoreReports(ctx context.Context, input *ReportedLessonInput) (*ResolveReportsOutput, error) {
	email, err := requireEmail(ctx)
	if err != nil {
		return nil, err
	}

	n, err := s.services.Moderation.IgnoreReports(ctx, email, input.LessonID)
	if err != nil {
		return nil, err
	}
	return &ResolveReportsOutput{Body: ResolveReportsResponse{Message: "Reports ignored", Resolved: n}}, nil
}

func (s *Server) handleAdminDeleteReportedLesson(ctx context.Context, input *ReportedLessonInput) (*MessageOutput, error) {
	email, err := requireEmail(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Moderation.DeleteReportedLesson(ctx, email, input.LessonID); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Lesson and reports deleted"}}, nil
}

func (s *Server) handleAdminSetRole(ctx context.Context, input *SetRoleInput) (*UserOutput, error) {
	email, err := requireEmail(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.services.Users.SetRole(ctx, email, input.Email, domain.Role(input.Body.Role))
	if err != nil {
		return nil, err
	}
	return &UserOutput{Body: user}, nil
}

func (s *Server) handleAdminStats(ctx context.Context, _ *struct{}) (*StatsOutput, error) {
	email, err := requireEmail(ctx)
	if err != nil {
		return nil, err
	}

	stats, err := s.services.Moderation.Stats(ctx, email)
	if err != nil {
		return nil, err
	}
	return &StatsOutput{Body: stats}, nil
}

func (s *Server) handleAdminListPayments(ctx context.Context, input *ListPaymentsInput) (*PaymentsOutput, error) {
	email, err := requireEmail(ctx)
	if err != nil {
		return nil, err
	}

	payments, err := s.services.Payments.ListPayments(ctx, email, payment.LedgerFilter{
		Status: domain.CheckoutStatus(input.Status),
		Email:  input.Email,
	})
	if err != nil {
		return nil, err
	}
	return &PaymentsOutput{Body: payments}, nil
}
