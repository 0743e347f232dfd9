package service

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/digitallifelessons/lifelessons-server/internal/domain"
	domainerrors "github.com/digitallifelessons/lifelessons-server/internal/errors"
	"github.com/digitallifelessons/lifelessons-server/internal/id"
	"github.com/digitallifelessons/lifelessons-server/internal/sse"
	"github.com/digitallifelessons/lifelessons-server/internal/store/sqlite"
)

// recordingEmitter keeps every emitted event for assertions.
type recordingEmitter struct {
	mu     sync.Mutex
	events []sse.Event
}

func (r *recordingEmitter) Emit(event any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := event.(sse.Event); ok {
		r.events = append(r.events, e)
	}
}

func (r *recordingEmitter) types() []sse.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]sse.EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type testEnv struct {
	store  *sqlite.Store
	events *recordingEmitter
	deps   Deps
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	events := &recordingEmitter{}
	return &testEnv{
		store:  st,
		events: events,
		deps: Deps{
			Store:  st,
			Events: events,
			Logger: slog.New(slog.DiscardHandler),
		},
	}
}

func (e *testEnv) user(t *testing.T, email string) *domain.User {
	t.Helper()
	u := domain.NewUser(id.MustGenerate(id.PrefixUser), email, "Name of "+email, "https://img.example.com/u.png")
	require.NoError(t, e.store.CreateUser(context.Background(), u))
	return u
}

func (e *testEnv) admin(t *testing.T, email string) *domain.User {
	t.Helper()
	e.user(t, email)
	u, err := e.store.SetUserRole(context.Background(), email, domain.RoleAdmin)
	require.NoError(t, err)
	return u
}

func (e *testEnv) lesson(t *testing.T, author *domain.User, mutate ...func(*CreateLessonRequest)) *domain.Lesson {
	t.Helper()
	req := CreateLessonRequest{
		Title:       "Patience pays",
		Description: "Waiting taught me more than rushing ever did.",
		Category:    "Personal Growth",
		Emotion:     "Gratitude",
	}
	for _, m := range mutate {
		m(&req)
	}
	l, err := NewLessonService(e.deps, nil).Create(context.Background(), author.Email, req)
	require.NoError(t, err)
	return l
}

func requireCode(t *testing.T, err error, code domainerrors.Code) {
	t.Helper()
	require.Error(t, err)
	var de *domainerrors.Error
	require.ErrorAs(t, err, &de)
	require.Equal(t, code, de.Code, "error: %v", err)
}

func errMessage(err error) string {
	var de *domainerrors.Error
	if errors.As(err, &de) {
		return de.Message
	}
	return err.Error()
}
