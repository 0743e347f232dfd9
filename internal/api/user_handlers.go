package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/digitallifelessons/lifelessons-server/internal/domain"
	"github.com/digitallifelessons/lifelessons-server/internal/service"
)

func (s *Server) registerUserRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listUsers",
		Method:      http.MethodGet,
		Path:        "/users",
		Summary:     "List users",
		Description: "Returns every user. Admin only.",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListUsers)

	huma.Register(s.api, huma.Operation{
		OperationID: "topContributors",
		Method:      http.MethodGet,
		Path:        "/users/top-contributors",
		Summary:     "Top contributors",
		Description: "Returns the authors with the most public lessons",
		Tags:        []string{"Users"},
	}, s.handleTopContributors)

	huma.Register(s.api, huma.Operation{
		OperationID: "getUser",
		Method:      http.MethodGet,
		Path:        "/user/{email}",
		Summary:     "Get user",
		Description: "Returns one user by email",
		Tags:        []string{"Users"},
	}, s.handleGetUser)

	huma.Register(s.api, huma.Operation{
		OperationID:   "upsertUser",
		Method:        http.MethodPost,
		Path:          "/user",
		Summary:       "Register user",
		Description:   "Creates the caller's user record on first sign-in. Existing records are returned unchanged.",
		Tags:          []string{"Users"},
		DefaultStatus: http.StatusOK,
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleUpsertUser)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateProfile",
		Method:      http.MethodPut,
		Path:        "/user/{email}",
		Summary:     "Update profile",
		Description: "Updates the caller's display name and photo and copies them onto their lessons",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateProfile)

	huma.Register(s.api, huma.Operation{
		OperationID: "setUserPremium",
		Method:      http.MethodPatch,
		Path:        "/user/premium/{email}",
		Summary:     "Set premium",
		Description: "Sets a user's premium flag without payment. Admin only.",
		Tags:        []string{"Users", "Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSetUserPremium)
}

// === Request/Response Types ===

// EmailPathInput identifies a user by path email.
type EmailPathInput struct {
	Email string `path:"email" doc:"User email"`
}

// UserOutput wraps a single user.
type UserOutput struct {
	Body *domain.User
}

// UsersOutput wraps a user list.
type UsersOutput struct {
	Body []*domain.User
}

// ContributorsOutput wraps the leaderboard.
type ContributorsOutput struct {
	Body []*domain.Contributor
}

// UpsertUserRequest is the sign-in profile.
type UpsertUserRequest struct {
	Email       string `json:"email,omitempty" format:"email" doc:"Must match the verified caller when present"`
	DisplayName string `json:"displayName,omitempty" maxLength:"100" doc:"Display name"`
	PhotoURL    string `json:"photoURL,omitempty" maxLength:"2048" doc:"Avatar URL"`
}

// UpsertUserInput wraps the sign-in profile.
type UpsertUserInput struct {
	Body UpsertUserRequest
}

// UserMessageResponse carries a user with a status message.
type UserMessageResponse struct {
	Message string       `json:"message" doc:"Outcome"`
	User    *domain.User `json:"user" doc:"User record"`
}

// UpsertUserOutput wraps the upsert outcome.
type UpsertUserOutput struct {
	Status int
	Body   UserMessageResponse
}

// UpdateProfileRequest is the editable profile.
type UpdateProfileRequest struct {
	DisplayName string `json:"displayName" minLength:"1" maxLength:"100" doc:"Display name"`
	PhotoURL    string `json:"photoURL,omitempty" maxLength:"2048" doc:"Avatar URL"`
}

// UpdateProfileInput wraps a profile update.
type UpdateProfileInput struct {
	Email string `path:"email" doc:"User email"`
	Body  UpdateProfileRequest
}

// UserMessageOutput wraps a user with a status message.
type UserMessageOutput struct {
	Body UserMessageResponse
}

// SetPremiumRequest sets the premium flag.
type SetPremiumRequest struct {
	IsPremium *bool `json:"isPremium,omitempty" doc:"Premium flag (default true)"`
}

// SetPremiumInput wraps a premium update.
type SetPremiumInput struct {
	Email string `path:"email" doc:"User email"`
	Body  *SetPremiumRequest `required:"false"`
}

// === Handlers ===

func (s *Server) handleListUsers(ctx context.Context, _ *struct{}) (*UsersOutput, error) {
	email, err := requireEmail(ctx)
	if err != nil {
		return nil, err
	}

	users, err := s.services.Users.List(ctx, email)
	if err != nil {
		return nil, err
	}
	return &UsersOutput{Body: users}, nil
}

func (s *Server) handleTopContributors(ctx context.Context, _ *struct{}) (*ContributorsOutput, error) {
	contributors, err := s.services.Users.TopContributors(ctx)
	if err != nil {
		return nil, err
	}
	return &ContributorsOutput{Body: contributors}, nil
}

func (s *Server) handleGetUser(ctx context.Context, input *EmailPathInput) (*UserOutput, error) {
	user, err := s.services.Users.Get(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	return &UserOutput{Body: user}, nil
}

func (s *Server) handleUpsertUser(ctx context.Context, input *UpsertUserInput) (*UpsertUserOutput, error) {
	ident, err := requireIdentity(ctx)
	if err != nil {
		return nil, err
	}

	req := service.UpsertUserRequest{
		Email:       input.Body.Email,
		DisplayName: input.Body.DisplayName,
		PhotoURL:    input.Body.PhotoURL,
	}
	// The identity provider's profile fills in what the client left out.
	if req.DisplayName == "" {
		req.DisplayName = ident.Name
	}
	if req.PhotoURL == "" {
		req.PhotoURL = ident.Picture
	}

	user, created, err := s.services.Users.Upsert(ctx, ident.Email, req)
	if err != nil {
		return nil, err
	}

	if !created {
		return &UpsertUserOutput{
			Status: http.StatusOK,
			Body:   UserMessageResponse{Message: "user exists", User: user},
		}, nil
	}
	return &UpsertUserOutput{
		Status: http.StatusCreated,
		Body:   UserMessageResponse{Message: "user created", User: user},
	}, nil
}

func (s *Server) handleUpdateProfile(ctx context.Context, input *UpdateProfileInput) (*UserMessageOutput, error) {
	email, err := requireEmail(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.services.Users.UpdateProfile(ctx, email, input.Email, service.UpdateProfileRequest{
		DisplayName: input.Body.DisplayName,
		PhotoURL:    input.Body.PhotoURL,
	})
	if err != nil {
		return nil, err
	}
	return &UserMessageOutput{
		Body: UserMessageResponse{Message: "Profile & lessons updated successfully", User: user},
	}, nil
}

func (s *Server) handleSetUserPremium(ctx context.Context, input *SetPremiumInput) (*UserMessageOutput, error) {
	email, err := requireEmail(ctx)
	if err != nil {
		return nil, err
	}

	premium := true
	if input.Body != nil && input.Body.IsPremium != nil {
		premium = *input.Body.IsPremium
	}

	user, err := s.services.Users.SetPremium(ctx, email, input.Email, premium)
	if err != nil {
		return nil, err
	}
	return &UserMessageOutput{
		Body: UserMessageResponse{Message: "User premium status updated successfully", User: user},
	}, nil
}
