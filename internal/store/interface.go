// Package store defines the persistence interface for the Digital Life Lessons server.
package store

import (
	"context"

	"github.com/digitallifelessons/lifelessons-server/internal/domain"
)

// Store defines the interface for all persistence operations.
type Store interface {
	// Lifecycle
	Ping(ctx context.Context) error
	Close() error
	SetSearchIndexer(indexer SearchIndexer)

	// Users
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	ListUsers(ctx context.Context) ([]*domain.User, error)
	// UpdateUserProfile updates the profile and copies it onto every lesson
	// the user authored. Lessons are untouched when the user does not exist.
	UpdateUserProfile(ctx context.Context, email string, update domain.ProfileUpdate) (*domain.User, error)
	SetUserPremium(ctx context.Context, email string, premium bool) (*domain.User, error)
	SetUserRole(ctx context.Context, email string, role domain.Role) (*domain.User, error)

	// Lessons
	CreateLesson(ctx context.Context, lesson *domain.Lesson) error
	GetLesson(ctx context.Context, id string) (*domain.Lesson, error)
	ListLessons(ctx context.Context, q LessonQuery) ([]*domain.Lesson, int, error)
	UpdateLesson(ctx context.Context, id string, update domain.LessonUpdate) (*domain.Lesson, error)
	// IncrementLessonViews adds one view and returns the updated lesson.
	IncrementLessonViews(ctx context.Context, id string) (*domain.Lesson, error)
	// ToggleLike adds userID to the like set when absent and removes it when present.
	ToggleLike(ctx context.Context, lessonID, userID string) (*domain.LikeResult, error)
	// DeleteLesson removes the lesson with its comments, favorites, reports and likes.
	DeleteLesson(ctx context.Context, id string) error

	// Comments
	CreateComment(ctx context.Context, comment *domain.Comment) error
	ListComments(ctx context.Context, lessonID string) ([]*domain.Comment, error)

	// Favorites
	// AddFavorite returns false without writing when the pair already exists.
	AddFavorite(ctx context.Context, fav *domain.Favorite) (bool, error)
	// RemoveFavorite returns false when nothing was deleted.
	RemoveFavorite(ctx context.Context, lessonID, userEmail string) (bool, error)
	ListFavoritesByUser(ctx context.Context, userEmail string) ([]*domain.Favorite, error)

	// Reports
	CreateReport(ctx context.Context, report *domain.Report) error
	ResolveReports(ctx context.Context, lessonID string, action domain.ReportAction) (int, error)
	ListReportedLessons(ctx context.Context) ([]*domain.ReportedLesson, error)

	// Aggregates
	TopContributors(ctx context.Context, limit int) ([]*domain.Contributor, error)
	Stats(ctx context.Context) (*domain.Stats, error)
}
