package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"aidanwoods.dev/go-paseto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testIssuer   = "test-identity"
	testAudience = "test-api"
)

func newTestIssuer(t *testing.T, ttl time.Duration) *Issuer {
	t.Helper()
	return NewIssuer(paseto.NewV4AsymmetricSecretKey(), testIssuer, testAudience, ttl)
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer   abc  ", "abc", true},
		{"Basic abc", "", false},
		{"Bearer", "", false},
		{"Bearer ", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := BearerToken(tt.header)
		assert.Equal(t, tt.ok, ok, tt.header)
		assert.Equal(t, tt.want, got, tt.header)
	}
}

func TestPasetoVerifier_RoundTrip(t *testing.T) {
	issuer := newTestIssuer(t, time.Hour)
	verifier := NewPasetoVerifier(issuer.PublicKey(), testIssuer, testAudience)

	token, err := issuer.Issue(Identity{Email: " Ann@Example.COM ", Subject: "sub-1", Name: "Ann"})
	require.NoError(t, err)

	ident, err := verifier.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", ident.Email)
	assert.Equal(t, "sub-1", ident.Subject)
	assert.Equal(t, "Ann", ident.Name)
	assert.Empty(t, ident.Picture)
}

func TestPasetoVerifier_Rejects(t *testing.T) {
	issuer := newTestIssuer(t, time.Hour)
	good, err := issuer.Issue(Identity{Email: "ann@example.com"})
	require.NoError(t, err)

	noEmail, err := issuer.Issue(Identity{Subject: "sub"})
	require.NoError(t, err)

	other := newTestIssuer(t, time.Hour)
	foreign, err := other.Issue(Identity{Email: "ann@example.com"})
	require.NoError(t, err)

	tests := []struct {
		name     string
		verifier *PasetoVerifier
		token    string
	}{
		{"garbage", NewPasetoVerifier(issuer.PublicKey(), testIssuer, testAudience), "not-a-token"},
		{"wrong key", NewPasetoVerifier(issuer.PublicKey(), testIssuer, testAudience), foreign},
		{"wrong issuer", NewPasetoVerifier(issuer.PublicKey(), "someone-else", testAudience), good},
		{"wrong audience", NewPasetoVerifier(issuer.PublicKey(), testIssuer, "other-api"), good},
		{"no email", NewPasetoVerifier(issuer.PublicKey(), testIssuer, testAudience), noEmail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.verifier.Verify(context.Background(), tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestPasetoVerifier_Expired(t *testing.T) {
	issuer := newTestIssuer(t, time.Minute)
	verifier := NewPasetoVerifier(issuer.PublicKey(), testIssuer, testAudience)

	token, err := issuer.Issue(Identity{Email: "ann@example.com"})
	require.NoError(t, err)

	verifier.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = verifier.Verify(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestLoadOrGenerateKeyPair(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "keys")

	first, err := LoadOrGenerateKeyPair(dir)
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(dir, "identity.key"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	second, err := LoadOrGenerateKeyPair(dir)
	require.NoError(t, err)
	assert.Equal(t, first.ExportHex(), second.ExportHex())

	pub, err := ParsePublicKey(first.Public().ExportHex())
	require.NoError(t, err)
	assert.Equal(t, first.Public().ExportHex(), pub.ExportHex())
}

func TestLoadOrGenerateKeyPair_Corrupt(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "identity.key"), []byte("zz"), 0o600))

	_, err := LoadOrGenerateKeyPair(dir)
	assert.Error(t, err)
}

func TestUserinfoVerifier(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.Header.Get("Authorization") {
		case "Bearer good":
			_, _ = w.Write([]byte(`{"sub":"g-1","email":"Ann@Example.com","email_verified":true,"name":"Ann","picture":"a.png"}`))
		case "Bearer unverified":
			_, _ = w.Write([]byte(`{"sub":"g-2","email":"bob@example.com","email_verified":false}`))
		case "Bearer no-email":
			_, _ = w.Write([]byte(`{"sub":"g-3"}`))
		case "Bearer boom":
			w.WriteHeader(http.StatusBadGateway)
		default:
			w.WriteHeader(http.StatusUnauthorized)
		}
	}))
	defer srv.Close()

	v := NewUserinfoVerifier(srv.URL, srv.Client())
	ctx := context.Background()

	ident, err := v.Verify(ctx, "good")
	require.NoError(t, err)
	assert.Equal(t, &Identity{Email: "ann@example.com", Subject: "g-1", Name: "Ann", Picture: "a.png"}, ident)

	for _, token := range []string{"unverified", "no-email", "revoked"} {
		_, err := v.Verify(ctx, token)
		assert.ErrorIs(t, err, ErrInvalidToken, token)
	}

	_, err = v.Verify(ctx, "boom")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidToken)
}

type countingVerifier struct {
	calls atomic.Int32
	err   error
}

func (c *countingVerifier) Verify(_ context.Context, token string) (*Identity, error) {
	c.calls.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	return &Identity{Email: token + "@example.com"}, nil
}

func TestCachingVerifier(t *testing.T) {
	next := &countingVerifier{}
	c := NewCachingVerifier(next, time.Minute)
	now := time.Now()
	c.now = func() time.Time { return now }
	ctx := context.Background()

	for range 3 {
		ident, err := c.Verify(ctx, "ann")
		require.NoError(t, err)
		assert.Equal(t, "ann@example.com", ident.Email)
	}
	assert.Equal(t, int32(1), next.calls.Load())
	assert.Equal(t, 1, c.Len())

	// Callers mutating the result must not corrupt the cache.
	ident, _ := c.Verify(ctx, "ann")
	ident.Email = "mallory@example.com"
	ident, _ = c.Verify(ctx, "ann")
	assert.Equal(t, "ann@example.com", ident.Email)

	now = now.Add(2 * time.Minute)
	_, err := c.Verify(ctx, "ann")
	require.NoError(t, err)
	assert.Equal(t, int32(2), next.calls.Load())
}

func TestCachingVerifier_DoesNotCacheFailures(t *testing.T) {
	next := &countingVerifier{err: ErrInvalidToken}
	c := NewCachingVerifier(next, time.Minute)

	for range 2 {
		_, err := c.Verify(context.Background(), "bad")
		assert.True(t, errors.Is(err, ErrInvalidToken))
	}
	assert.Equal(t, int32(2), next.calls.Load())
	assert.Zero(t, c.Len())
}

func TestCachingVerifier_Bounded(t *testing.T) {
	c := NewCachingVerifier(&countingVerifier{}, time.Minute)
	c.maxSize = 2

	for _, tok := range []string{"a", "b", "c"} {
		_, err := c.Verify(context.Background(), tok)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, c.Len())
}

func TestCachingVerifier_Disabled(t *testing.T) {
	next := &countingVerifier{}
	c := NewCachingVerifier(next, 0)

	for range 2 {
		_, err := c.Verify(context.Background(), "ann")
		require.NoError(t, err)
	}
	assert.Equal(t, int32(2), next.calls.Load())
	assert.Zero(t, c.Len())
}
