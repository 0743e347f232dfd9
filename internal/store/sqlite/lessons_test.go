package sqlite

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/digitallifelessons/lifelessons-server/internal/domain"
	"github.com/digitallifelessons/lifelessons-server/internal/store"
)

// recordingIndexer captures index calls.
type recordingIndexer struct {
	mu      sync.Mutex
	indexed map[string]*domain.Lesson
	deleted []string
}

func newRecordingIndexer() *recordingIndexer {
	return &recordingIndexer{indexed: make(map[string]*domain.Lesson)}
}

func (r *recordingIndexer) IndexLesson(_ context.Context, l *domain.Lesson) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *l
	r.indexed[l.ID] = &cp
	return nil
}

func (r *recordingIndexer) DeleteLesson(_ context.Context, lessonID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.indexed, lessonID)
	r.deleted = append(r.deleted, lessonID)
	return nil
}

func TestCreateAndGetLesson(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	author := makeTestUser(t, s, "author@example.com")

	created := makeTestLesson(t, s, author)

	got, err := s.GetLesson(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != created.Title || got.Category != created.Category {
		t.Errorf("fields mismatch: %+v", got)
	}
	if got.Views != 0 || got.LikesCount != 0 || got.FavoritesCount != 0 || got.IsFeatured {
		t.Errorf("counters not zeroed: %+v", got)
	}
	if got.Likes == nil || len(got.Likes) != 0 {
		t.Errorf("likes should be empty non-nil, got %v", got.Likes)
	}
	if !got.CreatedAt.Equal(created.CreatedAt) {
		t.Errorf("created_at = %v, want %v", got.CreatedAt, created.CreatedAt)
	}

	_, err = s.GetLesson(ctx, "lsn-doesnotexist")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListLessons_FiltersAndSorts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	ann := makeTestUser(t, s, "ann@example.com")
	bob := makeTestUser(t, s, "bob@example.com")

	oldest := makeTestLesson(t, s, ann, func(l *domain.Lesson) {
		l.Title = "Career lesson"
		l.Category = "Career"
		l.Views = 50
	})
	private := makeTestLesson(t, s, ann, func(l *domain.Lesson) {
		l.Privacy = domain.PrivacyPrivate
	})
	mid := makeTestLesson(t, s, bob, func(l *domain.Lesson) {
		l.Title = "Mindset shift"
		l.Emotion = "Hope"
		l.FavoritesCount = 9
	})
	newest := makeTestLesson(t, s, bob, func(l *domain.Lesson) {
		l.Description = "Failing at 100% effort"
		l.IsFeatured = true
	})

	public := domain.PrivacyPublic
	tests := []struct {
		name    string
		query   store.LessonQuery
		wantIDs []string
	}{
		{"public newest first", store.LessonQuery{Privacy: public}, []string{newest.ID, mid.ID, oldest.ID}},
		{"oldest first", store.LessonQuery{Privacy: public, Sort: domain.SortOldest}, []string{oldest.ID, mid.ID, newest.ID}},
		{"most viewed", store.LessonQuery{Privacy: public, Sort: domain.SortMostViewed}, []string{oldest.ID, newest.ID, mid.ID}},
		{"most saved", store.LessonQuery{Privacy: public, Sort: domain.SortMostSaved}, []string{mid.ID, newest.ID, oldest.ID}},
		{"author includes private", store.LessonQuery{AuthorEmail: "ANN@example.com"}, []string{private.ID, oldest.ID}},
		{"category", store.LessonQuery{Privacy: public, Category: "Career"}, []string{oldest.ID}},
		{"emotion", store.LessonQuery{Emotion: "Hope"}, []string{mid.ID}},
		{"search title case-insensitive", store.LessonQuery{Search: "MINDSET"}, []string{mid.ID}},
		{"search literal percent", store.LessonQuery{Search: "100%"}, []string{newest.ID}},
		{"featured", store.LessonQuery{Featured: ptr(true)}, []string{newest.ID}},
		{"ids", store.LessonQuery{IDs: []string{oldest.ID, newest.ID}}, []string{newest.ID, oldest.ID}},
		{"empty ids match nothing", store.LessonQuery{IDs: []string{}}, []string{}},
		{"similar excludes self", store.LessonQuery{
			Privacy:   public,
			ExcludeID: oldest.ID,
			Similar:   &store.SimilarTo{Category: "Career", Emotion: "Hope"},
		}, []string{mid.ID}},
		{"similar without keys matches nothing", store.LessonQuery{Similar: &store.SimilarTo{}}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lessons, total, err := s.ListLessons(ctx, tt.query)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if total != len(tt.wantIDs) {
				t.Errorf("total = %d, want %d", total, len(tt.wantIDs))
			}
			got := make([]string, 0, len(lessons))
			for _, l := range lessons {
				got = append(got, l.ID)
			}
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("got %v, want %v", got, tt.wantIDs)
			}
			for i := range got {
				if got[i] != tt.wantIDs[i] {
					t.Errorf("position %d: got %s, want %s", i, got[i], tt.wantIDs[i])
				}
			}
		})
	}
}

func TestListLessons_Pagination(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	author := makeTestUser(t, s, "prolific@example.com")
	for range 5 {
		makeTestLesson(t, s, author)
	}

	offset, size := store.Page(2, 2)
	page, total, err := s.ListLessons(ctx, store.LessonQuery{Offset: offset, Limit: size})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 5 {
		t.Errorf("total = %d, want 5", total)
	}
	if len(page) != 2 {
		t.Errorf("page size = %d, want 2", len(page))
	}

	rest, _, err := s.ListLessons(ctx, store.LessonQuery{Offset: 4})
	if err != nil {
		t.Fatalf("list offset only: %v", err)
	}
	if len(rest) != 1 {
		t.Errorf("offset without limit: got %d, want 1", len(rest))
	}
}

func TestUpdateLesson(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	idx := newRecordingIndexer()
	s.SetSearchIndexer(idx)

	author := makeTestUser(t, s, "author@example.com")
	lesson := makeTestLesson(t, s, author)

	title := "Rewritten"
	premium := domain.AccessPremium
	updated, err := s.UpdateLesson(ctx, lesson.ID, domain.LessonUpdate{Title: &title, AccessLevel: &premium})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != "Rewritten" || updated.AccessLevel != domain.AccessPremium {
		t.Errorf("update not applied: %+v", updated)
	}
	if updated.Category != lesson.Category {
		t.Errorf("untouched field changed: %s", updated.Category)
	}
	if !updated.UpdatedAt.After(lesson.UpdatedAt) {
		t.Error("updated_at not advanced")
	}
	if idx.indexed[lesson.ID].Title != "Rewritten" {
		t.Error("index not refreshed after update")
	}

	_, err = s.UpdateLesson(ctx, "lsn-missing", domain.LessonUpdate{Title: &title})
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestIncrementLessonViews(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	author := makeTestUser(t, s, "author@example.com")
	lesson := makeTestLesson(t, s, author)

	for want := int64(1); want <= 2; want++ {
		l, err := s.IncrementLessonViews(ctx, lesson.ID)
		if err != nil {
			t.Fatalf("increment: %v", err)
		}
		if l.Views != want {
			t.Errorf("views = %d, want %d", l.Views, want)
		}
	}

	if _, err := s.IncrementLessonViews(ctx, "lsn-missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteLesson_Cascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	idx := newRecordingIndexer()
	s.SetSearchIndexer(idx)

	author := makeTestUser(t, s, "author@example.com")
	reader := makeTestUser(t, s, "reader@example.com")
	lesson := makeTestLesson(t, s, author)
	keep := makeTestLesson(t, s, author)

	addComment(t, s, lesson.ID, reader.Email, "Great")
	addFavorite(t, s, lesson.ID, reader.Email)
	addFavorite(t, s, keep.ID, reader.Email)
	addReport(t, s, lesson.ID, reader.Email, "Spam")
	if _, err := s.ToggleLike(ctx, lesson.ID, reader.Email); err != nil {
		t.Fatalf("like: %v", err)
	}

	if err := s.DeleteLesson(ctx, lesson.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := s.GetLesson(ctx, lesson.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("lesson still present: %v", err)
	}
	for _, table := range []string{"comments", "favorites", "reports", "lesson_likes"} {
		if n := countRows(t, s, "SELECT COUNT(*) FROM "+table+" WHERE lesson_id = ?", lesson.ID); n != 0 {
			t.Errorf("%s: %d orphaned rows", table, n)
		}
	}
	if n := countRows(t, s, "SELECT COUNT(*) FROM favorites WHERE lesson_id = ?", keep.ID); n != 1 {
		t.Errorf("unrelated favorite removed")
	}
	if _, ok := idx.indexed[lesson.ID]; ok {
		t.Error("deleted lesson still indexed")
	}

	if err := s.DeleteLesson(ctx, lesson.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("second delete: expected ErrNotFound, got %v", err)
	}
}

func TestForeignKeyCascadeOnRawDelete(t *testing.T) {
	s := newTestStore(t)
	author := makeTestUser(t, s, "author@example.com")
	lesson := makeTestLesson(t, s, author)
	addComment(t, s, lesson.ID, author.Email, "self-comment")

	if _, err := s.db.Exec("DELETE FROM lessons WHERE id = ?", lesson.ID); err != nil {
		t.Fatalf("raw delete: %v", err)
	}
	if n := countRows(t, s, "SELECT COUNT(*) FROM comments WHERE lesson_id = ?", lesson.ID); n != 0 {
		t.Errorf("comment survived cascade")
	}
}

func ptr[T any](v T) *T { return &v }
