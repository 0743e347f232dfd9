package store

import "github.com/digitallifelessons/lifelessons-server/internal/domain"

// Listing limits.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// LessonQuery filters, sorts and pages a lesson listing.
// Zero-valued fields do not filter.
type LessonQuery struct {
	AuthorEmail string
	Privacy     domain.Privacy
	Category    string
	Emotion     string
	// Search is a case-insensitive substring match over title and description.
	Search string
	// IDs restricts the result to these lessons. A non-nil empty slice matches nothing.
	IDs       []string
	ExcludeID string
	// Similar matches lessons sharing the category OR the emotion.
	Similar  *SimilarTo
	Featured *bool
	Sort     domain.LessonSort
	Offset   int
	// Limit of zero means no limit.
	Limit int
}

// SimilarTo is the OR filter used for related lessons.
type SimilarTo struct {
	Category string
	Emotion  string
}

// Page converts a 1-based page and a limit into offset and limit,
// applying the default and maximum page size.
func Page(page, limit int) (offset, size int) {
	if page < 1 {
		page = 1
	}
	switch {
	case limit <= 0:
		limit = DefaultLimit
	case limit > MaxLimit:
		limit = MaxLimit
	}
	return (page - 1) * limit, limit
}

// TotalPages returns how many pages of size hold total items.
func TotalPages(total, size int) int {
	if size <= 0 || total <= 0 {
		return 0
	}
	return (total + size - 1) / size
}
