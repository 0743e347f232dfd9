package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/digitallifelessons/lifelessons-server/internal/auth"
	domainerrors "github.com/digitallifelessons/lifelessons-server/internal/errors"
)

// ctxKey is the type for context keys to avoid collisions.
type ctxKey string

// authStateKey is the context key for the result of bearer verification.
const authStateKey ctxKey = "authState"

// authState is what authMiddleware learned about the request's credentials.
type authState struct {
	identity *auth.Identity
	err      error
}

var errMalformedAuthorization = errors.New("malformed authorization header")

// authMiddleware verifies the bearer token, when one is sent, and records
// the outcome in the request context. It never rejects a request itself:
// protected operations call requireIdentity, public ones ignore the result
// or use optionalEmail.
func authMiddleware(verifier auth.Verifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			var state authState
			token, ok := auth.BearerToken(header)
			switch {
			case !ok:
				state.err = errMalformedAuthorization
			case verifier == nil:
				state.err = auth.ErrInvalidToken
			default:
				state.identity, state.err = verifier.Verify(r.Context(), token)
			}

			if state.err != nil && !errors.Is(state.err, auth.ErrInvalidToken) && !errors.Is(state.err, errMalformedAuthorization) {
				logger.Warn("token verification failed", "path", r.URL.Path, "error", state.err)
			}

			ctx := context.WithValue(r.Context(), authStateKey, state)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// requireIdentity returns the verified caller or a 401.
func requireIdentity(ctx context.Context) (*auth.Identity, error) {
	state, _ := ctx.Value(authStateKey).(authState)
	if state.identity == nil || state.err != nil {
		return nil, domainerrors.Unauthorized("Unauthorized access")
	}
	return state.identity, nil
}

// requireEmail returns the verified caller's email or a 401.
func requireEmail(ctx context.Context) (string, error) {
	ident, err := requireIdentity(ctx)
	if err != nil {
		return "", err
	}
	return ident.Email, nil
}

// optionalEmail returns the verified caller's email, or "" for anonymous
// callers and callers whose token did not verify.
func optionalEmail(ctx context.Context) string {
	state, _ := ctx.Value(authStateKey).(authState)
	if state.identity == nil || state.err != nil {
		return ""
	}
	return state.identity.Email
}
