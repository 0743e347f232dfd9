package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/digitallifelessons/lifelessons-server/internal/domain"
	"github.com/digitallifelessons/lifelessons-server/internal/id"
	"github.com/digitallifelessons/lifelessons-server/internal/store"
)

func addReport(t *testing.T, s *Store, lessonID, email, reason string) {
	t.Helper()
	err := s.CreateReport(context.Background(), &domain.Report{
		ID:            id.MustGenerate(id.PrefixReport),
		LessonID:      lessonID,
		ReporterEmail: email,
		Reason:        reason,
		CreatedAt:     time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("create report: %v", err)
	}
}

func TestReportedLessons_GroupAndResolve(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	author := makeTestUser(t, s, "author@example.com")
	quiet := makeTestLesson(t, s, author)
	loud := makeTestLesson(t, s, author)

	addReport(t, s, quiet.ID, "a@example.com", "Off topic")
	addReport(t, s, loud.ID, "a@example.com", "Spam")
	addReport(t, s, loud.ID, "b@example.com", "Harassment")

	reported, err := s.ListReportedLessons(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(reported) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(reported))
	}
	if reported[0].LessonID != loud.ID || reported[0].ReportCount != 2 {
		t.Errorf("most reported first: got %+v", reported[0])
	}
	if reported[0].Lesson == nil || reported[0].Lesson.ID != loud.ID {
		t.Error("lesson not attached")
	}
	if len(reported[0].Reasons) != 2 || reported[0].Reasons[0] != "Spam" {
		t.Errorf("reasons = %v", reported[0].Reasons)
	}

	n, err := s.ResolveReports(ctx, loud.ID, domain.ReportIgnored)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if n != 2 {
		t.Errorf("resolved %d, want 2", n)
	}

	// Already resolved reports stay put.
	if n, _ := s.ResolveReports(ctx, loud.ID, domain.ReportIgnored); n != 0 {
		t.Errorf("second resolve changed %d rows", n)
	}

	reported, err = s.ListReportedLessons(ctx)
	if err != nil {
		t.Fatalf("list after resolve: %v", err)
	}
	if len(reported) != 1 || reported[0].LessonID != quiet.ID {
		t.Errorf("expected only the unresolved lesson, got %+v", reported)
	}

	var action string
	if err := s.db.QueryRow("SELECT action FROM reports WHERE lesson_id = ? LIMIT 1", loud.ID).Scan(&action); err != nil {
		t.Fatalf("read action: %v", err)
	}
	if action != string(domain.ReportIgnored) {
		t.Errorf("action = %q", action)
	}
}

func TestCreateReport_UnknownLesson(t *testing.T) {
	s := newTestStore(t)
	err := s.CreateReport(context.Background(), &domain.Report{
		ID:            id.MustGenerate(id.PrefixReport),
		LessonID:      "lsn-missing",
		ReporterEmail: "a@example.com",
		Reason:        "Spam",
		CreatedAt:     time.Now(),
	})
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestTopContributors(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	ann := makeTestUser(t, s, "ann@example.com")
	bob := makeTestUser(t, s, "bob@example.com")
	if _, err := s.SetUserPremium(ctx, bob.Email, true); err != nil {
		t.Fatalf("premium: %v", err)
	}

	makeTestLesson(t, s, ann, func(l *domain.Lesson) { l.Views = 3 })
	makeTestLesson(t, s, bob, func(l *domain.Lesson) { l.Views = 10 })
	makeTestLesson(t, s, bob, func(l *domain.Lesson) { l.Views = 5 })
	makeTestLesson(t, s, bob, func(l *domain.Lesson) { l.Privacy = domain.PrivacyPrivate; l.Views = 100 })

	top, err := s.TopContributors(ctx, 10)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("expected 2 contributors, got %d", len(top))
	}

	first := top[0]
	if first.Email != bob.Email || first.LessonsCount != 2 || first.TotalViews != 15 || !first.IsPremium {
		t.Errorf("unexpected leader: %+v", first)
	}
	if top[1].Email != ann.Email || top[1].IsPremium {
		t.Errorf("unexpected runner-up: %+v", top[1])
	}

	limited, err := s.TopContributors(ctx, 1)
	if err != nil {
		t.Fatalf("top limited: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("limit ignored: %d", len(limited))
	}
}

func TestStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	ann := makeTestUser(t, s, "ann@example.com")
	makeTestUser(t, s, "bob@example.com")
	if _, err := s.SetUserRole(ctx, ann.Email, domain.RoleAdmin); err != nil {
		t.Fatalf("role: %v", err)
	}

	l := makeTestLesson(t, s, ann, func(l *domain.Lesson) { l.AccessLevel = domain.AccessPremium })
	makeTestLesson(t, s, ann, func(l *domain.Lesson) { l.Privacy = domain.PrivacyPrivate })
	addComment(t, s, l.ID, "bob@example.com", "nice")
	addFavorite(t, s, l.ID, "bob@example.com")
	addReport(t, s, l.ID, "bob@example.com", "Spam")

	st, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	want := domain.Stats{
		Users:             2,
		Admins:            1,
		Lessons:           2,
		PublicLessons:     1,
		PremiumLessons:    1,
		Comments:          1,
		Favorites:         1,
		UnresolvedReports: 1,
	}
	if *st != want {
		t.Errorf("stats = %+v, want %+v", *st, want)
	}
}
