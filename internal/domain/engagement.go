package domain

import "time"

// Comment is a reader's reply on a lesson. Deleted with its lesson.
type Comment struct {
	ID          string    `json:"_id"`
	LessonID    string    `json:"lessonId"`
	AuthorEmail string    `json:"authorEmail"`
	AuthorName  string    `json:"authorName"`
	AuthorImage string    `json:"authorImage"`
	Text        string    `json:"text"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Favorite is a saved lesson. At most one per (lesson, user).
// Lesson is a snapshot taken when the favorite was created.
type Favorite struct {
	ID        string    `json:"_id"`
	LessonID  string    `json:"lessonId"`
	UserEmail string    `json:"userEmail"`
	Lesson    *Lesson   `json:"lesson,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// LikeResult is the state after a like toggle.
type LikeResult struct {
	IsLiked    bool
	LikesCount int
}
