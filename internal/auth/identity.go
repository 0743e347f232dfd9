// Package auth verifies bearer tokens issued by the external identity provider.
//
// The server never issues sessions of its own. Every protected request
// carries a provider token; a Verifier turns it into an Identity whose email
// is the only identity the rest of the server trusts.
package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/digitallifelessons/lifelessons-server/internal/util"
)

// ErrInvalidToken is returned for tokens that are malformed, expired,
// signed by the wrong key or missing required claims.
var ErrInvalidToken = errors.New("invalid token")

// Identity is the verified caller.
type Identity struct {
	Email   string
	Subject string
	Name    string
	Picture string
}

// Verifier checks a bearer token and returns the identity it carries.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// BearerToken extracts the token from an Authorization header value.
// It returns false when the header is empty or uses another scheme.
func BearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// normalizeIdentity lower-cases the email and rejects identities without one.
func normalizeIdentity(ident *Identity) (*Identity, error) {
	ident.Email = util.NormalizeEmail(ident.Email)
	if ident.Email == "" {
		return nil, errors.Join(ErrInvalidToken, errors.New("token has no email claim"))
	}
	return ident, nil
}
