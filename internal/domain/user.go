// Package domain holds the entities shared by the store, services and API.
package domain

import (
	"time"

	"github.com/digitallifelessons/lifelessons-server/internal/util"
)

// Role represents the user's permission level in the system.
type Role string

const (
	// RoleUser is the default role for every new account.
	RoleUser Role = "user"
	// RoleAdmin grants moderation and dashboard access.
	RoleAdmin Role = "admin"
)

// Valid reports whether r is a recognized role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User is an account keyed by email. Identity lives with the external
// provider; this record only carries profile, role and entitlement.
type User struct {
	ID          string    `json:"_id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	PhotoURL    string    `json:"photoURL"`
	Role        Role      `json:"role"`
	IsPremium   bool      `json:"isPremium"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// NewUser returns a user with the default role and no premium entitlement.
func NewUser(userID, email, displayName, photoURL string) *User {
	now := time.Now().UTC()
	return &User{
		ID:          userID,
		Email:       util.NormalizeEmail(email),
		DisplayName: displayName,
		PhotoURL:    photoURL,
		Role:        RoleUser,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// IsAdmin returns true if the user has administrative privileges.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CanPublishPremium reports whether the user may mark lessons as Premium.
func (u *User) CanPublishPremium() bool {
	return u.IsPremium || u.IsAdmin()
}

// Touch updates the UpdatedAt timestamp.
func (u *User) Touch() {
	u.UpdatedAt = time.Now().UTC()
}

// ProfileUpdate carries the editable profile fields. They are copied onto
// every lesson the user authored.
type ProfileUpdate struct {
	DisplayName string
	PhotoURL    string
}
