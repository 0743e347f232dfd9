package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/digitallifelessons/lifelessons-server/internal/domain"
	"github.com/digitallifelessons/lifelessons-server/internal/service"
)

func (s *Server) registerLessonRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listMyLessons",
		Method:      http.MethodGet,
		Path:        "/lessons",
		Summary:     "List my lessons",
		Description: "Returns the caller's lessons. Admins may pass any email, or none for every lesson.",
		Tags:        []string{"Lessons"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListMyLessons)

	huma.Register(s.api, huma.Operation{
		OperationID: "listPublicLessons",
		Method:      http.MethodGet,
		Path:        "/lessons/public",
		Summary:     "Browse public lessons",
		Description: "Returns a filtered, searched, sorted page of public lessons",
		Tags:        []string{"Lessons"},
	}, s.handleListPublicLessons)

	huma.Register(s.api, huma.Operation{
		OperationID: "featuredLessons",
		Method:      http.MethodGet,
		Path:        "/lessons/featured",
		Summary:     "Featured lessons",
		Description: "Returns the newest featured public lessons",
		Tags:        []string{"Lessons"},
	}, s.handleFeaturedLessons)

	huma.Register(s.api, huma.Operation{
		OperationID: "mostSavedLessons",
		Method:      http.MethodGet,
		Path:        "/lessons/most-saved",
		Summary:     "Most saved lessons",
		Description: "Returns the public lessons with the most favorites",
		Tags:        []string{"Lessons"},
	}, s.handleMostSavedLessons)

	huma.Register(s.api, huma.Operation{
		OperationID: "lessonsByAuthor",
		Method:      http.MethodGet,
		Path:        "/lessons/user/{email}",
		Summary:     "Lessons by author",
		Description: "Returns an author's lessons. Private lessons are included for the author and admins.",
		Tags:        []string{"Lessons"},
	}, s.handleLessonsByAuthor)

	huma.Register(s.api, huma.Operation{
		OperationID: "similarLessons",
		Method:      http.MethodGet,
		Path:        "/lessons/similar",
		Summary:     "Similar lessons",
		Description: "Returns public lessons sharing the category or the emotion",
		Tags:        []string{"Lessons"},
	}, s.handleSimilarLessons)

	huma.Register(s.api, huma.Operation{
		OperationID: "getLesson",
		Method:      http.MethodGet,
		Path:        "/lessons/{id}",
		Summary:     "Get lesson",
		Description: "Returns a lesson and counts the view",
		Tags:        []string{"Lessons"},
	}, s.handleGetLesson)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createLesson",
		Method:        http.MethodPost,
		Path:          "/lessons",
		Summary:       "Create lesson",
		Description:   "Publishes a lesson authored by the caller",
		Tags:          []string{"Lessons"},
		DefaultStatus: http.StatusCreated,
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleCreateLesson)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateLesson",
		Method:      http.MethodPut,
		Path:        "/lessons/{id}",
		Summary:     "Update lesson",
		Description: "Partially updates a lesson. Author or admin only.",
		Tags:        []string{"Lessons"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateLesson)

	huma.Register(s.api, huma.Operation{
		OperationID: "setLessonPrivacy",
		Method:      http.MethodPatch,
		Path:        "/lessons/privacy/{id}",
		Summary:     "Set lesson privacy",
		Tags:        []string{"Lessons"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSetLessonPrivacy)

	huma.Register(s.api, huma.Operation{
		OperationID: "setLessonAccess",
		Method:      http.MethodPatch,
		Path:        "/lessons/access/{id}",
		Summary:     "Set lesson access level",
		Description: "Premium access requires a premium or admin caller",
		Tags:        []string{"Lessons"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSetLessonAccess)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteLesson",
		Method:      http.MethodDelete,
		Path:        "/lessons/{id}",
		Summary:     "Delete lesson",
		Description: "Deletes a lesson with its comments, favorites and reports. Author or admin only.",
		Tags:        []string{"Lessons"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteLesson)
}

// === Request/Response Types ===

// LessonIDInput identifies a lesson by path id.
type LessonIDInput struct {
	ID string `path:"id" doc:"Lesson ID"`
}

// LessonOutput wraps a single lesson.
type LessonOutput struct {
	Body *domain.Lesson
}

// LessonsOutput wraps a lesson list.
type LessonsOutput struct {
	Body []*domain.Lesson
}

// LessonPageOutput wraps a page of lessons.
type LessonPageOutput struct {
	Body *service.LessonPage
}

// MessageResponse is a plain outcome message.
type MessageResponse struct {
	Message string `json:"message" doc:"Outcome"`
}

// MessageOutput wraps an outcome message.
type MessageOutput struct {
	Body MessageResponse
}

// ListMyLessonsInput filters the caller's lessons.
type ListMyLessonsInput struct {
	Email string `query:"email" doc:"Author email; must be the caller unless admin"`
}

// ListPublicLessonsInput filters the public listing.
type ListPublicLessonsInput struct {
	Category string `query:"category" doc:"Exact category; 'All' or empty for any"`
	Emotion  string `query:"emotion" doc:"Exact emotional tone; 'All' or empty for any"`
	Search   string `query:"search" maxLength:"200" doc:"Case-insensitive text over title and description"`
	Sort     string `query:"sort" doc:"newest (default), oldest, mostViewed or mostSaved"`
	Page     int    `query:"page" minimum:"0" doc:"Page number, from 1"`
	Limit    int    `query:"limit" minimum:"0" doc:"Page size (default 20, max 100)"`
}

// SimilarLessonsInput describes the lesson to match.
type SimilarLessonsInput struct {
	Category string `query:"category" doc:"Category to match"`
	Emotion  string `query:"emotion" doc:"Emotional tone to match"`
	Exclude  string `query:"exclude" doc:"Lesson ID to leave out"`
}

// CreateLessonRequest is the body of a new lesson.
type CreateLessonRequest struct {
	Title       string `json:"title" minLength:"1" maxLength:"200" doc:"Title"`
	Description string `json:"description" minLength:"1" maxLength:"20000" doc:"Body; basic HTML is kept, scripts are removed"`
	Category    string `json:"category" minLength:"1" maxLength:"100" doc:"Category"`
	Emotion     string `json:"emotion" minLength:"1" maxLength:"100" doc:"Emotional tone"`
	Image       string `json:"image,omitempty" maxLength:"2048" doc:"Cover image URL"`
	Privacy     string `json:"privacy,omitempty" enum:"Public,Private" doc:"Visibility (default Public)"`
	AccessLevel string `json:"accessLevel,omitempty" enum:"Free,Premium" doc:"Access level (default Free)"`
}

// CreateLessonInput wraps a new lesson.
type CreateLessonInput struct {
	Body CreateLessonRequest
}

// UpdateLessonRequest is a partial lesson update.
type UpdateLessonRequest struct {
	Title       *string `json:"title,omitempty" minLength:"1" maxLength:"200"`
	Description *string `json:"description,omitempty" minLength:"1" maxLength:"20000"`
	Category    *string `json:"category,omitempty" minLength:"1" maxLength:"100"`
	Emotion     *string `json:"emotion,omitempty" minLength:"1" maxLength:"100"`
	Image       *string `json:"image,omitempty" maxLength:"2048"`
	Privacy     *string `json:"privacy,omitempty" enum:"Public,Private"`
	AccessLevel *string `json:"accessLevel,omitempty" enum:"Free,Premium"`
}

// UpdateLessonInput wraps a lesson update.
type UpdateLessonInput struct {
	ID   string `path:"id" doc:"Lesson ID"`
	Body UpdateLessonRequest
}

// SetPrivacyInput sets a lesson's privacy.
type SetPrivacyInput struct {
	ID   string `path:"id" doc:"Lesson ID"`
	Body struct {
		Privacy string `json:"privacy" enum:"Public,Private" doc:"Visibility"`
	}
}

// SetAccessInput sets a lesson's access level.
type SetAccessInput struct {
	ID   string `path:"id" doc:"Lesson ID"`
	Body struct {
		AccessLevel string `json:"accessLevel" enum:"Free,Premium" doc:"Access level"`
	}
}

// === Handlers ===

func (s *Server) handleListMyLessons(ctx context.Context, input *ListMyLessonsInput) (*LessonsOutput, error) {
	email, err := requireEmail(ctx)
	if err != nil {
		return nil, err
	}

	lessons, err := s.services.Lessons.ListMine(ctx, email, input.Email)
	if err != nil {
		return nil, err
	}
	return &LessonsOutput{Body: lessons}, nil
}

func (s *Server) handleListPublicLessons(ctx context.Context, input *ListPublicLessonsInput) (*LessonPageOutput, error) {
	page, err := s.services.Lessons.ListPublic(ctx, service.PublicQuery{
		Category: input.Category,
		Emotion:  input.Emotion,
		Search:   input.Search,
		Sort:     input.Sort,
		Page:     input.Page,
		Limit:    input.Limit,
	})
	if err != nil {
		return nil, err
	}
	return &LessonPageOutput{Body: page}, nil
}

func (s *Server) handleFeaturedLessons(ctx context.Context, _ *struct{}) (*LessonsOutput, error) {
	lessons, err := s.services.Lessons.Featured(ctx)
	if err != nil {
		return nil, err
	}
	return &LessonsOutput{Body: lessons}, nil
}

func (s *Server) handleMostSavedLessons(ctx context.Context, _ *struct{}) (*LessonsOutput, error) {
	lessons, err := s.services.Lessons.MostSaved(ctx)
	if err != nil {
		return nil, err
	}
	return &LessonsOutput{Body: lessons}, nil
}

func (s *Server) handleLessonsByAuthor(ctx context.Context, input *EmailPathInput) (*LessonsOutput, error) {
	lessons, err := s.services.Lessons.ByAuthor(ctx, optionalEmail(ctx), input.Email)
	if err != nil {
		return nil, err
	}
	return &LessonsOutput{Body: lessons}, nil
}

func (s *Server) handleSimilarLessons(ctx context.Context, input *SimilarLessonsInput) (*LessonsOutput, error) {
	lessons, err := s.services.Lessons.Similar(ctx, input.Category, input.Emotion, input.Exclude)
	if err != nil {
		return nil, err
	}
	return &LessonsOutput{Body: lessons}, nil
}

func (s *Server) handleGetLesson(ctx context.Context, input *LessonIDInput) (*LessonOutput, error) {
	lesson, err := s.services.Lessons.View(ctx, optionalEmail(ctx), input.ID)
	if err != nil {
		return nil, err
	}
	return &LessonOutput{Body: lesson}, nil
}

func (s *Server) handleCreateLesson(ctx context.Context, input *CreateLessonInput) (*LessonOutput, error) {
	email, err := requireEmail(ctx)
	if err != nil {
		return nil, err
	}

	lesson, err := s.services.Lessons.Create(ctx, email, service.CreateLessonRequest{
		Title:       input.Body.Title,
		Description: input.Body.Description,
		Category:    input.Body.Category,
		Emotion:     input.Body.Emotion,
		Image:       input.Body.Image,
		Privacy:     domain.Privacy(input.Body.Privacy),
		AccessLevel: domain.AccessLevel(input.Body.AccessLevel),
	})
	if err != nil {
		return nil, err
	}
	return &LessonOutput{Body: lesson}, nil
}

func (s *Server) handleUpdateLesson(ctx context.Context, input *UpdateLessonInput) (*LessonOutput, error) {
	email, err := requireEmail(ctx)
	if err != nil {
		return nil, err
	}

	b := input.Body
	req := service.UpdateLessonRequest{
		Title:       b.Title,
		Description: b.Description,
		Category:    b.Category,
		Emotion:     b.Emotion,
		Image:       b.Image,
	}
	if b.Privacy != nil {
		req.Privacy = ptr(domain.Privacy(*b.Privacy))
	}
	if b.AccessLevel != nil {
		req.AccessLevel = ptr(domain.AccessLevel(*b.AccessLevel))
	}

	lesson, err := s.services.Lessons.Update(ctx, email, input.ID, req)
	if err != nil {
		return nil, err
	}
	return &LessonOutput{Body: lesson}, nil
}

func (s *Server) handleSetLessonPrivacy(ctx context.Context, input *SetPrivacyInput) (*LessonOutput, error) {
	email, err := requireEmail(ctx)
	if err != nil {
		return nil, err
	}

	lesson, err := s.services.Lessons.SetPrivacy(ctx, email, input.ID, domain.Privacy(input.Body.Privacy))
	if err != nil {
		return nil, err
	}
	return &LessonOutput{Body: lesson}, nil
}

func (s *Server) handleSetLessonAccess(ctx context.Context, input *SetAccessInput) (*LessonOutput, error) {
	email, err := requireEmail(ctx)
	if err != nil {
		return nil, err
	}

	lesson, err := s.services.Lessons.SetAccessLevel(ctx, email, input.ID, domain.AccessLevel(input.Body.AccessLevel))
	if err != nil {
		return nil, err
	}
	return &LessonOutput{Body: lesson}, nil
}

func (s *Server) handleDeleteLesson(ctx context.Context, input *LessonIDInput) (*MessageOutput, error) {
	email, err := requireEmail(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Lessons.Delete(ctx, email, input.ID); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Lesson deleted"}}, nil
}

func ptr[T any](v T) *T { return &v }
