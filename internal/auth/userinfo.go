package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
)

// maxUserinfoBytes bounds the provider response we are willing to decode.
const maxUserinfoBytes = 1 << 20

// UserinfoVerifier treats the bearer as an OAuth2 access token and resolves
// it through the provider's OpenID userinfo endpoint.
type UserinfoVerifier struct {
	endpoint   string
	httpClient *http.Client
}

// NewUserinfoVerifier creates a verifier for endpoint. A nil client uses
// http.DefaultClient.
func NewUserinfoVerifier(endpoint string, client *http.Client) *UserinfoVerifier {
	if client == nil {
		client = http.DefaultClient
	}
	return &UserinfoVerifier{endpoint: endpoint, httpClient: client}
}

type userinfoResponse struct {
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified *bool  `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// Verify calls the userinfo endpoint with token. A non-200 answer means the
// provider rejected the token.
func (v *UserinfoVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, v.httpClient)
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
	}))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build userinfo request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("userinfo request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, errors.Join(ErrInvalidToken, fmt.Errorf("userinfo returned %d", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("userinfo returned unexpected status %d", resp.StatusCode)
	}

	var info userinfoResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxUserinfoBytes)).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode userinfo: %w", err)
	}

	if info.EmailVerified != nil && !*info.EmailVerified {
		return nil, errors.Join(ErrInvalidToken, errors.New("email not verified"))
	}

	return normalizeIdentity(&Identity{
		Email:   info.Email,
		Subject: info.Subject,
		Name:    info.Name,
		Picture: info.Picture,
	})
}
