package sqlite

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/digitallifelessons/lifelessons-server/internal/domain"
	"github.com/digitallifelessons/lifelessons-server/internal/id"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	s, err := Open(dbPath, logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func makeTestUser(t *testing.T, s *Store, email string) *domain.User {
	t.Helper()
	u := domain.NewUser(id.MustGenerate(id.PrefixUser), email, "Name of "+email, "https://img.example.com/"+email)
	if err := s.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return u
}

// lessonSeq spaces creation times so ordering assertions are deterministic.
var (
	lessonSeqMu sync.Mutex
	lessonSeq   = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
)

func makeTestLesson(t *testing.T, s *Store, author *domain.User, mutate ...func(*domain.Lesson)) *domain.Lesson {
	t.Helper()

	lessonSeqMu.Lock()
	lessonSeq = lessonSeq.Add(time.Minute)
	created := lessonSeq
	lessonSeqMu.Unlock()

	l := &domain.Lesson{
		ID:          id.MustGenerate(id.PrefixLesson),
		AuthorEmail: author.Email,
		AuthorName:  author.DisplayName,
		AuthorImage: author.PhotoURL,
		Title:       "Patience pays",
		Description: "Waiting taught me more than rushing ever did.",
		Category:    "Personal Growth",
		Emotion:     "Gratitude",
		Privacy:     domain.PrivacyPublic,
		AccessLevel: domain.AccessFree,
		CreatedAt:   created,
		UpdatedAt:   created,
	}
	for _, m := range mutate {
		m(l)
	}
	if err := s.CreateLesson(context.Background(), l); err != nil {
		t.Fatalf("create lesson: %v", err)
	}
	return l
}

func countRows(t *testing.T, s *Store, query string, args ...any) int {
	t.Helper()
	var n int
	if err := s.db.QueryRow(query, args...).Scan(&n); err != nil {
		t.Fatalf("count %q: %v", query, err)
	}
	return n
}

func TestOpen(t *testing.T) {
	s := newTestStore(t)

	var journalMode string
	if err := s.db.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		t.Fatalf("query journal_mode: %v", err)
	}
	if journalMode != "wal" {
		t.Errorf("expected wal, got %s", journalMode)
	}

	// Every pooled connection must enforce foreign keys.
	ctx := context.Background()
	conns := make([]*sql.Conn, 0, 3)
	for range 3 {
		c, err := s.db.Conn(ctx)
		if err != nil {
			t.Fatalf("acquire conn: %v", err)
		}
		conns = append(conns, c)
	}
	for i, c := range conns {
		var fk int
		if err := c.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&fk); err != nil {
			t.Fatalf("query foreign_keys: %v", err)
		}
		if fk != 1 {
			t.Errorf("conn %d: expected foreign_keys=1, got %d", i, fk)
		}
		c.Close()
	}

	for _, table := range []string{"users", "lessons", "lesson_likes", "comments", "favorites", "reports"} {
		var name string
		err := s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s not found: %v", table, err)
		}
	}

	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("ping: %v", err)
	}
}

func TestOpen_Reopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reopen.db")

	s1, err := Open(path, nil)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	makeTestUser(t, s1, "keep@example.com")
	s1.Close()

	s2, err := Open(path, nil)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	defer s2.Close()

	if _, err := s2.GetUserByEmail(context.Background(), "keep@example.com"); err != nil {
		t.Errorf("user lost across reopen: %v", err)
	}
}

func TestFormatTime_SortsLexically(t *testing.T) {
	a := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	b := a.Add(500 * time.Millisecond)
	if !(formatTime(a) < formatTime(b)) {
		t.Errorf("expected %s < %s", formatTime(a), formatTime(b))
	}

	parsed, err := parseTime(formatTime(b))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !parsed.Equal(b) {
		t.Errorf("round trip: got %v, want %v", parsed, b)
	}
}

func TestEscapeLike(t *testing.T) {
	if got := escapeLike(`100%_done\`); got != `100\%\_done\\` {
		t.Errorf("escapeLike = %q", got)
	}
}
