package store

import (
	"context"

	"github.com/digitallifelessons/lifelessons-server/internal/domain"
)

// EventEmitter is the interface for emitting SSE events.
// Services use it to broadcast changes without depending on SSE implementation details.
type EventEmitter interface {
	Emit(event any)
}

// NoopEmitter is a no-op implementation of EventEmitter for testing.
type NoopEmitter struct{}

// Emit implements EventEmitter.Emit as a no-op.
func (NoopEmitter) Emit(_ any) {}

// NewNoopEmitter creates a new no-op emitter for testing.
func NewNoopEmitter() EventEmitter {
	return NoopEmitter{}
}

// SearchIndexer is the interface for updating the search index.
// Stores call it after lesson writes commit so every writer, including the
// seed tool, keeps search in sync.
type SearchIndexer interface {
	IndexLesson(ctx context.Context, lesson *domain.Lesson) error
	DeleteLesson(ctx context.Context, lessonID string) error
}

// NoopSearchIndexer is a no-op implementation for testing.
type NoopSearchIndexer struct{}

// IndexLesson is a no-op.
func (NoopSearchIndexer) IndexLesson(context.Context, *domain.Lesson) error { return nil }

// DeleteLesson is a no-op.
func (NoopSearchIndexer) DeleteLesson(context.Context, string) error { return nil }

// NewNoopSearchIndexer creates a new no-op search indexer for testing.
func NewNoopSearchIndexer() SearchIndexer {
	return NoopSearchIndexer{}
}
