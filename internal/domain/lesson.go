package domain

import (
	"slices"
	"time"
)

// Privacy controls who can see a lesson.
type Privacy string

const (
	PrivacyPublic  Privacy = "Public"
	PrivacyPrivate Privacy = "Private"
)

// Valid reports whether p is a recognized privacy value.
func (p Privacy) Valid() bool {
	return p == PrivacyPublic || p == PrivacyPrivate
}

// AccessLevel gates lesson content behind the premium entitlement.
type AccessLevel string

const (
	AccessFree    AccessLevel = "Free"
	AccessPremium AccessLevel = "Premium"
)

// Valid reports whether a is a recognized access level.
func (a AccessLevel) Valid() bool {
	return a == AccessFree || a == AccessPremium
}

// Lesson is a user-authored piece of content.
// LikesCount always equals len(Likes); Views only ever grows.
type Lesson struct {
	ID             string      `json:"_id"`
	AuthorEmail    string      `json:"authorEmail"`
	AuthorName     string      `json:"authorName"`
	AuthorImage    string      `json:"authorImage"`
	Title          string      `json:"title"`
	Description    string      `json:"description"`
	Category       string      `json:"category"`
	Emotion        string      `json:"emotion"`
	Image          string      `json:"image,omitempty"`
	Privacy        Privacy     `json:"privacy"`
	AccessLevel    AccessLevel `json:"accessLevel"`
	Views          int64       `json:"views"`
	LikesCount     int         `json:"likesCount"`
	Likes          []string    `json:"likes"`
	FavoritesCount int         `json:"favoritesCount"`
	IsFeatured     bool        `json:"isFeatured"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

// IsPublic returns true if anyone may read the lesson.
func (l *Lesson) IsPublic() bool {
	return l.Privacy == PrivacyPublic
}

// VisibleTo reports whether the viewer may read the lesson.
// Private lessons are visible to their author and to admins.
func (l *Lesson) VisibleTo(viewerEmail string, viewerIsAdmin bool) bool {
	return l.IsPublic() || viewerIsAdmin || (viewerEmail != "" && viewerEmail == l.AuthorEmail)
}

// LikedBy reports whether userID is in the like set.
func (l *Lesson) LikedBy(userID string) bool {
	return slices.Contains(l.Likes, userID)
}

// Touch updates the UpdatedAt timestamp.
func (l *Lesson) Touch() {
	l.UpdatedAt = time.Now().UTC()
}

// LessonUpdate is a partial update; nil fields are left unchanged.
type LessonUpdate struct {
	Title       *string
	Description *string
	Category    *string
	Emotion     *string
	Image       *string
	Privacy     *Privacy
	AccessLevel *AccessLevel
	IsFeatured  *bool
}

// Empty reports whether the update changes nothing.
func (u LessonUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && u.Category == nil && u.Emotion == nil &&
		u.Image == nil && u.Privacy == nil && u.AccessLevel == nil && u.IsFeatured == nil
}

// Apply copies the set fields onto l.
func (u LessonUpdate) Apply(l *Lesson) {
	if u.Title != nil {
		l.Title = *u.Title
	}
	if u.Description != nil {
		l.Description = *u.Description
	}
	if u.Category != nil {
		l.Category = *u.Category
	}
	if u.Emotion != nil {
		l.Emotion = *u.Emotion
	}
	if u.Image != nil {
		l.Image = *u.Image
	}
	if u.Privacy != nil {
		l.Privacy = *u.Privacy
	}
	if u.AccessLevel != nil {
		l.AccessLevel = *u.AccessLevel
	}
	if u.IsFeatured != nil {
		l.IsFeatured = *u.IsFeatured
	}
}

// LessonSort orders lesson listings.
type LessonSort string

const (
	SortNewest     LessonSort = "newest"
	SortOldest     LessonSort = "oldest"
	SortMostViewed LessonSort = "mostViewed"
	SortMostSaved  LessonSort = "mostSaved"
)

// ParseLessonSort maps a query value to a sort, defaulting to newest.
func ParseLessonSort(s string) LessonSort {
	switch LessonSort(s) {
	case SortOldest, SortMostViewed, SortMostSaved:
		return LessonSort(s)
	default:
		return SortNewest
	}
}
