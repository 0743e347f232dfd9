package service

import (
	"context"
	"errors"

	"github.com/digitallifelessons/lifelessons-server/internal/domain"
	domainerrors "github.com/digitallifelessons/lifelessons-server/internal/errors"
	"github.com/digitallifelessons/lifelessons-server/internal/store"
	"github.com/digitallifelessons/lifelessons-server/internal/util"
)

// Policy decides whether a verified caller may act as a resource owner or
// as an administrator. Every check expects an email that already passed
// identity verification.
type Policy struct {
	store store.Store
}

// NewPolicy creates a policy backed by the user store.
func NewPolicy(st store.Store) *Policy {
	return &Policy{store: st}
}

// RequireSelf fails with 403 unless the caller owns the resource.
func RequireSelf(verifiedEmail, ownerEmail string) error {
	caller := util.NormalizeEmail(verifiedEmail)
	if caller == "" || caller != util.NormalizeEmail(ownerEmail) {
		return domainerrors.Forbidden("Forbidden access")
	}
	return nil
}

// Caller loads the caller's user record. A caller without one gets nil and
// no error: identity lives with the provider, the record may not exist yet.
func (p *Policy) Caller(ctx context.Context, verifiedEmail string) (*domain.User, error) {
	if verifiedEmail == "" {
		return nil, nil
	}
	u, err := p.store.GetUserByEmail(ctx, verifiedEmail)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return u, err
}

// IsAdmin reports whether the caller has the admin role. Lookup failures
// count as not admin.
func (p *Policy) IsAdmin(ctx context.Context, verifiedEmail string) bool {
	u, err := p.Caller(ctx, verifiedEmail)
	return err == nil && u != nil && u.IsAdmin()
}

// RequireAdmin returns the caller's record when it exists with the admin role.
func (p *Policy) RequireAdmin(ctx context.Context, verifiedEmail string) (*domain.User, error) {
	u, err := p.Caller(ctx, verifiedEmail)
	if err != nil {
		return nil, err
	}
	if u == nil || !u.IsAdmin() {
		return nil, domainerrors.Forbidden("Admin access required")
	}
	return u, nil
}

// RequireOwnerOrAdmin passes the resource owner and admins.
func (p *Policy) RequireOwnerOrAdmin(ctx context.Context, verifiedEmail, ownerEmail string) error {
	if RequireSelf(verifiedEmail, ownerEmail) == nil {
		return nil
	}
	if _, err := p.RequireAdmin(ctx, verifiedEmail); err != nil {
		return domainerrors.Forbidden("Only the author or an admin can modify this lesson")
	}
	return nil
}
