package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/digitallifelessons/lifelessons-server/internal/domain"
	domainerrors "github.com/digitallifelessons/lifelessons-server/internal/errors"
	"github.com/digitallifelessons/lifelessons-server/internal/id"
	"github.com/digitallifelessons/lifelessons-server/internal/sse"
	"github.com/digitallifelessons/lifelessons-server/internal/store"
	"github.com/digitallifelessons/lifelessons-server/internal/util"
	"github.com/digitallifelessons/lifelessons-server/internal/validation"
)

// UserService manages user records and the public leaderboard.
type UserService struct {
	store     store.Store
	policy    *Policy
	events    store.EventEmitter
	validator *validation.Validator
	logger    *slog.Logger
}

// NewUserService creates a new user service.
func NewUserService(deps Deps) *UserService {
	deps = deps.withDefaults()
	return &UserService{
		store:     deps.Store,
		policy:    NewPolicy(deps.Store),
		events:    deps.Events,
		validator: deps.Validator,
		logger:    deps.Logger,
	}
}

// UpsertUserRequest carries the profile sent on first sign-in.
type UpsertUserRequest struct {
	Email       string `json:"email" validate:"omitempty,email"`
	DisplayName string `json:"displayName" validate:"max=100"`
	PhotoURL    string `json:"photoURL" validate:"omitempty,url,max=2048"`
}

// UpdateProfileRequest carries the editable profile fields.
type UpdateProfileRequest struct {
	DisplayName string `json:"displayName" validate:"required,notblank,max=100"`
	PhotoURL    string `json:"photoURL" validate:"omitempty,url,max=2048"`
}

// List returns every user. Admin only.
func (s *UserService) List(ctx context.Context, callerEmail string) ([]*domain.User, error) {
	if _, err := s.policy.RequireAdmin(ctx, callerEmail); err != nil {
		return nil, err
	}
	return s.store.ListUsers(ctx)
}

// Get returns the user with email.
func (s *UserService) Get(ctx context.Context, email string) (*domain.User, error) {
	u, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, userNotFound(err)
	}
	return u, nil
}

// Upsert creates the caller's record unless it already exists. The record
// is keyed by the verified email; a different email in the body is refused.
// Existing records are returned unchanged with created == false.
func (s *UserService) Upsert(ctx context.Context, callerEmail string, req UpsertUserRequest) (*domain.User, bool, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, false, err
	}
	if req.Email != "" {
		if err := RequireSelf(callerEmail, req.Email); err != nil {
			return nil, false, err
		}
	}

	existing, err := s.store.GetUserByEmail(ctx, callerEmail)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, false, err
	}

	userID, err := id.Generate(id.PrefixUser)
	if err != nil {
		return nil, false, fmt.Errorf("generate user ID: %w", err)
	}
	user := domain.NewUser(userID, callerEmail, req.DisplayName, req.PhotoURL)

	if err := s.store.CreateUser(ctx, user); err != nil {
		// A concurrent first sign-in won the insert.
		if errors.Is(err, store.ErrAlreadyExists) {
			existing, getErr := s.store.GetUserByEmail(ctx, callerEmail)
			if getErr != nil {
				return nil, false, getErr
			}
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("user created", "user_id", user.ID, "email", user.Email)
	return user, true, nil
}

// UpdateProfile changes the caller's own profile and re-syncs the author
// fields on their lessons. Unknown users are a 404 with no lesson writes.
func (s *UserService) UpdateProfile(ctx context.Context, callerEmail, email string, req UpdateProfileRequest) (*domain.User, error) {
	if err := RequireSelf(callerEmail, email); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.store.UpdateUserProfile(ctx, email, domain.ProfileUpdate{
		DisplayName: req.DisplayName,
		PhotoURL:    req.PhotoURL,
	})
	if err != nil {
		return nil, userNotFound(err)
	}

	s.logger.Info("profile updated", "email", user.Email)
	return user, nil
}

// SetPremium sets the premium flag directly, bypassing payment. Admin only.
func (s *UserService) SetPremium(ctx context.Context, callerEmail, email string, premium bool) (*domain.User, error) {
	admin, err := s.policy.RequireAdmin(ctx, callerEmail)
	if err != nil {
		return nil, err
	}

	user, err := s.store.SetUserPremium(ctx, email, premium)
	if err != nil {
		return nil, userNotFound(err)
	}

	s.logger.Info("premium set by admin",
		"email", user.Email,
		"premium", premium,
		"admin", admin.Email,
	)
	if premium {
		s.events.Emit(sse.NewPremiumActivatedEvent(user.Email))
	}
	return user, nil
}

// SetRole changes a user's role. Admin only.
func (s *UserService) SetRole(ctx context.Context, callerEmail, email string, role domain.Role) (*domain.User, error) {
	admin, err := s.policy.RequireAdmin(ctx, callerEmail)
	if err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, domainerrors.ValidationWithDetails("validation failed", map[string]string{
			"role": "must be one of: user admin",
		})
	}
	if util.NormalizeEmail(email) == admin.Email && role != domain.RoleAdmin {
		return nil, domainerrors.Conflict("Admins cannot remove their own admin role")
	}

	user, err := s.store.SetUserRole(ctx, email, role)
	if err != nil {
		return nil, userNotFound(err)
	}

	s.logger.Info("role changed", "email", user.Email, "role", role, "admin", admin.Email)
	return user, nil
}

// TopContributors returns the public leaderboard.
func (s *UserService) TopContributors(ctx context.Context) ([]*domain.Contributor, error) {
	return s.store.TopContributors(ctx, topContributorsSize)
}
