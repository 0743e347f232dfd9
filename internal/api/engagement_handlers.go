package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/digitallifelessons/lifelessons-server/internal/domain"
	"github.com/digitallifelessons/lifelessons-server/internal/service"
)

func (s *Server) registerEngagementRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "toggleLike",
		Method:      http.MethodPost,
		Path:        "/lessons/{id}/like",
		Summary:     "Toggle like",
		Description: "Likes the lesson, or removes the like when already present",
		Tags:        []string{"Engagement"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleToggleLike)

	huma.Register(s.api, huma.Operation{
		OperationID: "listComments",
		Method:      http.MethodGet,
		Path:        "/lessons/{id}/comments",
		Summary:     "List comments",
		Description: "Returns a lesson's comments, newest first",
		Tags:        []string{"Engagement"},
	}, s.handleListComments)

	huma.Register(s.api, huma.Operation{
		OperationID:   "addComment",
		Method:        http.MethodPost,
		Path:          "/lessons/{id}/comments",
		Summary:       "Add comment",
		Tags:          []string{"Engagement"},
		DefaultStatus: http.StatusCreated,
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleAddComment)

	huma.Register(s.api, huma.Operation{
		OperationID:   "addFavorite",
		Method:        http.MethodPost,
		Path:          "/lessons/{id}/favorite",
		Summary:       "Save lesson",
		Description:   "Adds the lesson to the caller's favorites. Saving twice is a no-op.",
		Tags:          []string{"Engagement"},
		DefaultStatus: http.StatusOK,
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleAddFavorite)

	huma.Register(s.api, huma.Operation{
		OperationID: "listFavorites",
		Method:      http.MethodGet,
		Path:        "/favorites/user/{email}",
		Summary:     "List favorites",
		Description: "Returns a user's saved lessons. Self or admin only.",
		Tags:        []string{"Engagement"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListFavorites)

	huma.Register(s.api, huma.Operation{
		OperationID: "removeFavorite",
		Method:      http.MethodDelete,
		Path:        "/favorites/{lessonId}",
		Summary:     "Unsave lesson",
		Tags:        []string{"Engagement"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleRemoveFavorite)

	huma.Register(s.api, huma.Operation{
		OperationID:   "reportLesson",
		Method:        http.MethodPost,
		Path:          "/lessons/report",
		Summary:       "Report lesson",
		Description:   "Flags a lesson for moderation",
		Tags:          []string{"Engagement"},
		DefaultStatus: http.StatusCreated,
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleReportLesson)
}

// === Request/Response Types ===

// LikeRequest optionally names who is liking.
type LikeRequest struct {
	UserID string `json:"userId,omitempty" maxLength:"320" doc:"Liker id; defaults to the caller's email"`
}

// ToggleLikeInput wraps a like toggle.
type ToggleLikeInput struct {
	ID   string       `path:"id" doc:"Lesson ID"`
	Body *LikeRequest `required:"false"`
}

// LikeResponse is the state after a toggle.
type LikeResponse struct {
	Success    bool `json:"success"`
	IsLiked    bool `json:"isLiked" doc:"Whether the liker now likes the lesson"`
	LikesCount int  `json:"likesCount" doc:"Current number of likes"`
}

// LikeOutput wraps the like state.
type LikeOutput struct {
	Body LikeResponse
}

// CommentsOutput wraps a comment list.
type CommentsOutput struct {
	Body []*domain.Comment
}

// AddCommentInput wraps a new comment.
type AddCommentInput struct {
	ID   string `path:"id" doc:"Lesson ID"`
	Body struct {
		Text string `json:"text" minLength:"1" maxLength:"2000" doc:"Comment text"`
	}
}

// CommentOutput wraps a comment.
type CommentOutput struct {
	Body *domain.Comment
}

// FavoriteResponse is the outcome of saving a lesson.
type FavoriteResponse struct {
	Message  string           `json:"message"`
	Favorite *domain.Favorite `json:"favorite,omitempty"`
}

// FavoriteOutput wraps the save outcome.
type FavoriteOutput struct {
	Status int
	Body   FavoriteResponse
}

// FavoritesOutput wraps a favorite list.
type FavoritesOutput struct {
	Body []*domain.Favorite
}

// RemoveFavoriteInput identifies the favorite to remove.
type RemoveFavoriteInput struct {
	LessonID string `path:"lessonId" doc:"Lesson ID"`
}

// RemoveFavoriteResponse is the outcome of unsaving a lesson.
type RemoveFavoriteResponse struct {
	Message string `json:"message"`
	Removed bool   `json:"removed" doc:"False when the lesson was not saved"`
}

// RemoveFavoriteOutput wraps the unsave outcome.
type RemoveFavoriteOutput struct {
	Body RemoveFavoriteResponse
}

// ReportLessonInput wraps a report.
type ReportLessonInput struct {
	Body struct {
		LessonID string `json:"lessonId" minLength:"1" doc:"Reported lesson"`
		Reason   string `json:"reason" minLength:"1" maxLength:"500" doc:"Why the lesson is reported"`
	}
}

// ReportOutput wraps a stored report.
type ReportOutput struct {
	Body *domain.Report
}

// === Handlers ===

func (s *Server) handleToggleLike(ctx context.Context, input *ToggleLikeInput) (*LikeOutput, error) {
	email, err := requireEmail(ctx)
	if err != nil {
		return nil, err
	}

	var userID string
	if input.Body != nil {
		userID = input.Body.UserID
	}

	res, err := s.services.Engagement.ToggleLike(ctx, email, input.ID, userID)
	if err != nil {
		return nil, err
	}
	return &LikeOutput{Body: LikeResponse{Success: true, IsLiked: res.IsLiked, LikesCount: res.LikesCount}}, nil
}

func (s *Server) handleListComments(ctx context.Context, input *LessonIDInput) (*CommentsOutput, error) {
	comments, err := s.services.Engagement.ListComments(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &CommentsOutput{Body: comments}, nil
}

func (s *Server) handleAddComment(ctx context.Context, input *AddCommentInput) (*CommentOutput, error) {
	email, err := requireEmail(ctx)
	if err != nil {
		return nil, err
	}

	comment, err := s.services.Engagement.AddComment(ctx, email, input.ID, service.CommentRequest{Text: input.Body.Text})
	if err != nil {
		return nil, err
	}
	return &CommentOutput{Body: comment}, nil
}

func (s *Server) handleAddFavorite(ctx context.Context, input *LessonIDInput) (*FavoriteOutput, error) {
	email, err := requireEmail(ctx)
	if err != nil {
		return nil, err
	}

	res, err := s.services.Engagement.AddFavorite(ctx, email, input.ID)
	if err != nil {
		return nil, err
	}

	if !res.Created {
		return &FavoriteOutput{Status: http.StatusOK, Body: FavoriteResponse{Message: "Already favorite"}}, nil
	}
	return &FavoriteOutput{
		Status: http.StatusCreated,
		Body:   FavoriteResponse{Message: "Added to favorites", Favorite: res.Favorite},
	}, nil
}

func (s *Server) handleListFavorites(ctx context.Context, input *EmailPathInput) (*FavoritesOutput, error) {
	email, err := requireEmail(ctx)
	if err != nil {
		return nil, err
	}

	favorites, err := s.services.Engagement.ListFavorites(ctx, email, input.Email)
	if err != nil {
		return nil, err
	}
	return &FavoritesOutput{Body: favorites}, nil
}

func (s *Server) handleRemoveFavorite(ctx context.Context, input *RemoveFavoriteInput) (*RemoveFavoriteOutput, error) {
	email, err := requireEmail(ctx)
	if err != nil {
		return nil, err
	}

	removed, err := s.services.Engagement.RemoveFavorite(ctx, email, input.LessonID)
	if err != nil {
		return nil, err
	}

	msg := "Removed from favorites"
	if !removed {
		msg = "Not a favorite"
	}
	return &RemoveFavoriteOutput{Body: RemoveFavoriteResponse{Message: msg, Removed: removed}}, nil
}

func (s *Server) handleReportLesson(ctx context.Context, input *ReportLessonInput) (*ReportOutput, error) {
	email, err := requireEmail(ctx)
	if err != nil {
		return nil, err
	}

	report, err := s.services.Engagement.Report(ctx, email, service.ReportRequest{
		LessonID: input.Body.LessonID,
		Reason:   input.Body.Reason,
	})
	if err != nil {
		return nil, err
	}
	return &ReportOutput{Body: report}, nil
}
