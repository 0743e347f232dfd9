package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/require"

	"github.com/digitallifelessons/lifelessons-server/internal/auth"
	"github.com/digitallifelessons/lifelessons-server/internal/domain"
	"github.com/digitallifelessons/lifelessons-server/internal/payment"
	"github.com/digitallifelessons/lifelessons-server/internal/service"
	"github.com/digitallifelessons/lifelessons-server/internal/sse"
	"github.com/digitallifelessons/lifelessons-server/internal/store/sqlite"
)

const (
	testIssuer   = "lifelessons-test"
	testAudience = "lifelessons-api"
)

// testServer wraps the API server with the collaborators tests reach into.
type testServer struct {
	*Server
	api       humatest.TestAPI
	store     *sqlite.Store
	issuer    *auth.Issuer
	processor *payment.FakeProcessor
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	tmpDir := t.TempDir()
	logger := slog.New(slog.DiscardHandler)

	st, err := sqlite.Open(filepath.Join(tmpDir, "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	ledger, err := payment.OpenLedger(filepath.Join(tmpDir, "ledger"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ledger.Close() })

	secretKey, err := auth.LoadOrGenerateKeyPair(tmpDir)
	require.NoError(t, err)
	issuer := auth.NewIssuer(secretKey, testIssuer, testAudience, time.Hour)
	verifier := auth.NewPasetoVerifier(issuer.PublicKey(), testIssuer, testAudience)

	sseManager := sse.NewManager(logger)
	deps := service.Deps{Store: st, Events: sseManager, Logger: logger}
	processor := payment.NewFakeProcessor()

	srv := NewServer(Options{
		Store: st,
		Services: &Services{
			Users:      service.NewUserService(deps),
			Lessons:    service.NewLessonService(deps, nil),
			Engagement: service.NewEngagementService(deps),
			Moderation: service.NewModerationService(deps),
			Payments: service.NewPaymentService(deps, processor, ledger, service.PaymentOptions{
				SiteDomain: "http://localhost:5173",
				PriceCents: 1500,
			}),
		},
		Verifier:   verifier,
		SSEManager: sseManager,
		Logger:     logger,
	})

	return &testServer{
		Server:    srv,
		api:       humatest.Wrap(t, srv.api),
		store:     st,
		issuer:    issuer,
		processor: processor,
	}
}

// authHeader signs a token for email and returns it as a humatest header arg.
func (ts *testServer) authHeader(t *testing.T, email string) string {
	t.Helper()
	token, err := ts.issuer.Issue(auth.Identity{Email: email, Subject: "sub-" + email, Name: "Name of " + email})
	require.NoError(t, err)
	return "Authorization: Bearer " + token
}

// signUp registers email through the API and returns its auth header.
func (ts *testServer) signUp(t *testing.T, email string) string {
	t.Helper()
	header := ts.authHeader(t, email)
	resp := ts.api.Post("/user", header, map[string]any{})
	require.Contains(t, []int{http.StatusOK, http.StatusCreated}, resp.Code, resp.Body.String())
	return header
}

func (ts *testServer) signUpAdmin(t *testing.T, email string) string {
	t.Helper()
	header := ts.signUp(t, email)
	_, err := ts.store.SetUserRole(context.Background(), email, domain.RoleAdmin)
	require.NoError(t, err)
	return header
}

// createLesson publishes a lesson through the API.
func (ts *testServer) createLesson(t *testing.T, header string, body map[string]any) *domain.Lesson {
	t.Helper()
	req := map[string]any{
		"title":       "Patience pays",
		"description": "Waiting taught me more than rushing ever did.",
		"category":    "Personal Growth",
		"emotion":     "Gratitude",
	}
	for k, v := range body {
		req[k] = v
	}

	resp := ts.api.Post("/lessons", header, req)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	var lesson domain.Lesson
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &lesson))
	return &lesson
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(body, &v))
	return v
}
