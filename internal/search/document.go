// Package search provides full-text lesson search using Bleve.
// The index answers which lessons match; filtering, ordering and paging
// stay with the store.
package search

import (
	"strings"

	"github.com/digitallifelessons/lifelessons-server/internal/domain"
	"github.com/digitallifelessons/lifelessons-server/internal/util"
)

// LessonDocument is the indexed form of a lesson.
type LessonDocument struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Author      string `json:"author"`
	Category    string `json:"category"` // slug
	Emotion     string `json:"emotion"`  // slug
	Privacy     string `json:"privacy"`

	CreatedAt int64 `json:"created_at"` // Unix millis
}

// ToMap converts the document to a map whose keys match the index mapping.
// The *_lc fields hold lowercased single-line copies of the text for
// literal substring matching.
func (d *LessonDocument) ToMap() map[string]any {
	m := map[string]any{
		"id":             d.ID,
		"title":          d.Title,
		"title_lc":       foldText(d.Title),
		"description":    d.Description,
		"description_lc": foldText(d.Description),
		"privacy":        d.Privacy,
		"created_at":     d.CreatedAt,
	}
	if d.Author != "" {
		m["author"] = d.Author
	}
	if d.Category != "" {
		m["category"] = d.Category
	}
	if d.Emotion != "" {
		m["emotion"] = d.Emotion
	}
	return m
}

// LessonToDocument converts a lesson for indexing. Rich-text descriptions
// are reduced to plain text first.
func LessonToDocument(l *domain.Lesson) *LessonDocument {
	return &LessonDocument{
		ID:          l.ID,
		Title:       l.Title,
		Description: util.PlainText(l.Description),
		Author:      l.AuthorName,
		Category:    util.Slugify(l.Category),
		Emotion:     util.Slugify(l.Emotion),
		Privacy:     string(l.Privacy),
		CreatedAt:   l.CreatedAt.UnixMilli(),
	}
}

// foldText lowercases s and collapses whitespace runs to single spaces.
func foldText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
