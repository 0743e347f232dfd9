package search

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digitallifelessons/lifelessons-server/internal/domain"
)

// setupTestIndex creates a temporary search index for testing.
func setupTestIndex(t *testing.T) (*SearchIndex, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "search-test-*")
	require.NoError(t, err)

	index, err := NewSearchIndex(Options{
		DataPath: tmpDir,
		Logger:   nil,
	})
	require.NoError(t, err)

	cleanup := func() {
		_ = index.Close()
		_ = os.RemoveAll(tmpDir)
	}

	return index, cleanup
}

func lesson(id, title, description string) *domain.Lesson {
	return &domain.Lesson{
		ID:          id,
		Title:       title,
		Description: description,
		Category:    "Personal Growth",
		Emotion:     "Gratitude",
		Privacy:     domain.PrivacyPublic,
		CreatedAt:   time.Now(),
	}
}

func TestNewSearchIndex(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestNewSearchIndex_RebuildsOnVersionChange(t *testing.T) {
	dir := t.TempDir()

	index, err := NewSearchIndex(Options{DataPath: dir})
	require.NoError(t, err)
	require.NoError(t, index.IndexLesson(context.Background(), lesson("lsn-1", "Old", "")))
	require.NoError(t, index.Close())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "lessons.version"), []byte("0"), 0o644))

	index, err = NewSearchIndex(Options{DataPath: dir})
	require.NoError(t, err)
	defer index.Close()

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count, "outdated index should be recreated empty")
}

func TestSearchIndex_IndexAndDeleteLesson(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, index.IndexLesson(ctx, lesson("lsn-1", "Patience", "")))
	// Reindexing the same lesson replaces the document.
	require.NoError(t, index.IndexLesson(ctx, lesson("lsn-1", "Patience, again", "")))

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	require.NoError(t, index.DeleteLesson(ctx, "lsn-1"))

	count, err = index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestSearchIndex_Reindex_Batch(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	lessons := make([]*domain.Lesson, 0, 3)
	for _, id := range []string{"lsn-1", "lsn-2", "lsn-3"} {
		lessons = append(lessons, lesson(id, "Title "+id, ""))
	}
	require.NoError(t, index.Reindex(context.Background(), lessons))

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)
}

func TestSearchIndex_Search(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, index.Reindex(ctx, []*domain.Lesson{
		lesson("lsn-mindset", "Mindset shift", "How failing changed my outlook."),
		lesson("lsn-html", "Rich text", "<p>Be <strong>kind</strong> to strangers</p>"),
		lesson("lsn-percent", "Effort", "Giving 100% every day burned me out."),
		lesson("lsn-other", "Patience pays", "Waiting taught me more than rushing."),
	}))

	tests := []struct {
		name  string
		query Query
		want  []string
	}{
		{"title word", Query{Text: "mindset"}, []string{"lsn-mindset"}},
		{"case insensitive", Query{Text: "MINDSET SHIFT"}, []string{"lsn-mindset"}},
		{"stemmed description", Query{Text: "fail"}, []string{"lsn-mindset"}},
		{"substring inside word", Query{Text: "ndse"}, []string{"lsn-mindset"}},
		{"literal punctuation", Query{Text: "100% every"}, []string{"lsn-percent"}},
		{"html stripped", Query{Text: "kind to strangers"}, []string{"lsn-html"}},
		{"no match", Query{Text: "zebra"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ids, err := index.Search(ctx, tt.query)
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, ids)
		})
	}
}

func TestSearchIndex_Search_Filters(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()
	ctx := context.Background()

	career := lesson("lsn-career", "First job lessons", "")
	career.Category = "Career"
	hope := lesson("lsn-hope", "First love lessons", "")
	hope.Emotion = "Hope"

	require.NoError(t, index.Reindex(ctx, []*domain.Lesson{career, hope}))

	ids, err := index.Search(ctx, Query{Text: "first", Category: "Career"})
	require.NoError(t, err)
	assert.Equal(t, []string{"lsn-career"}, ids)

	ids, err = index.Search(ctx, Query{Text: "lessons", Emotion: "hope"})
	require.NoError(t, err)
	assert.Equal(t, []string{"lsn-hope"}, ids)

	ids, err = index.Search(ctx, Query{Text: "lessons", Category: "All"})
	require.NoError(t, err)
	assert.Len(t, ids, 2)

	ids, err = index.Search(ctx, Query{Text: "lessons", Limit: 1})
	require.NoError(t, err)
	assert.Len(t, ids, 1)
}

func TestSearchIndex_Search_ReturnsEveryBatch(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()
	ctx := context.Background()

	prev := searchBatchSize
	searchBatchSize = 2
	t.Cleanup(func() { searchBatchSize = prev })

	lessons := make([]*domain.Lesson, 0, 5)
	for _, id := range []string{"lsn-1", "lsn-2", "lsn-3", "lsn-4", "lsn-5"} {
		lessons = append(lessons, lesson(id, "Kindness "+id, ""))
	}
	require.NoError(t, index.Reindex(ctx, lessons))

	ids, err := index.Search(ctx, Query{Text: "kindness"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"lsn-1", "lsn-2", "lsn-3", "lsn-4", "lsn-5"}, ids)

	ids, err = index.Search(ctx, Query{Text: "kindness", Limit: 3})
	require.NoError(t, err)
	assert.Len(t, ids, 3)
}

func TestSearchIndex_Rebuild(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	require.NoError(t, index.IndexLesson(context.Background(), lesson("lsn-1", "Before", "")))
	require.NoError(t, index.Rebuild())

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestLessonToDocument(t *testing.T) {
	l := lesson("lsn-1", "Title", "<p>Hello <em>world</em></p>")
	l.Category = "Personal Growth"
	l.Emotion = "Sérénité"

	doc := LessonToDocument(l)
	assert.Equal(t, "personal-growth", doc.Category)
	assert.Equal(t, "serenite", doc.Emotion)
	assert.NotContains(t, doc.Description, "<p>")

	m := doc.ToMap()
	assert.Equal(t, "title", m["title_lc"])
	assert.Contains(t, m["description_lc"], "hello")
}
