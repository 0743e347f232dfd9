// Package sse implements Server-Sent Events for real-time lesson activity.
package sse

import (
	"time"

	"github.com/digitallifelessons/lifelessons-server/internal/domain"
)

// EventType represents the type of SSE Event.
type EventType string

const (
	// EventLessonCreated is sent when a lesson is published.
	EventLessonCreated EventType = "lesson.created"
	// EventLessonUpdated is sent when a lesson's content or flags change.
	EventLessonUpdated EventType = "lesson.updated"
	// EventLessonDeleted is sent when a lesson is removed.
	EventLessonDeleted EventType = "lesson.deleted"
	// EventLessonLiked is sent when a lesson's like count changes.
	EventLessonLiked EventType = "lesson.liked"

	// EventCommentCreated is sent when a comment is added.
	EventCommentCreated EventType = "comment.created"

	// EventReportCreated is sent when a lesson is reported. Admin only.
	EventReportCreated EventType = "report.created"
	// EventReportResolved is sent when reports are resolved. Admin only.
	EventReportResolved EventType = "report.resolved"

	// EventPremiumActivated is sent to a user whose premium entitlement was granted.
	EventPremiumActivated EventType = "user.premium_activated"

	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"
)

// Event represents an SSE event to be sent to clients.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Type      EventType `json:"type"`

	// UserEmail limits delivery to one user (plus admins for private
	// lesson events). Empty means broadcast.
	UserEmail string `json:"-"`
}

// LessonEventData is the payload for lesson create and update events.
type LessonEventData struct {
	Lesson *domain.Lesson `json:"lesson"`
}

// LessonDeletedEventData is the payload for lesson delete events.
type LessonDeletedEventData struct {
	LessonID  string    `json:"lessonId"`
	DeletedAt time.Time `json:"deletedAt"`
}

// LessonLikedEventData is the payload for like toggles.
type LessonLikedEventData struct {
	LessonID   string `json:"lessonId"`
	LikesCount int    `json:"likesCount"`
}

// CommentEventData is the payload for comment events.
type CommentEventData struct {
	Comment *domain.Comment `json:"comment"`
}

// ReportEventData is the payload for report events.
type ReportEventData struct {
	LessonID string              `json:"lessonId"`
	Reason   string              `json:"reason,omitempty"`
	Action   domain.ReportAction `json:"action,omitempty"`
	Resolved int                 `json:"resolved,omitempty"`
}

// PremiumEventData is the payload for premium activation.
type PremiumEventData struct {
	Email     string `json:"email"`
	IsPremium bool   `json:"isPremium"`
}

// HeartbeatEventData is the payload for keepalive events.
type HeartbeatEventData struct {
	ServerTime time.Time `json:"serverTime"`
}

func newEvent(t EventType, data any) Event {
	return Event{Type: t, Data: data, Timestamp: time.Now()}
}

// NewLessonCreatedEvent creates a lesson.created event. Private lessons
// are only delivered to their author and admins.
func NewLessonCreatedEvent(l *domain.Lesson) Event {
	return scopeToLesson(newEvent(EventLessonCreated, LessonEventData{Lesson: l}), l)
}

// NewLessonUpdatedEvent creates a lesson.updated event.
func NewLessonUpdatedEvent(l *domain.Lesson) Event {
	return scopeToLesson(newEvent(EventLessonUpdated, LessonEventData{Lesson: l}), l)
}

// NewLessonDeletedEvent creates a lesson.deleted event.
func NewLessonDeletedEvent(lessonID string) Event {
	return newEvent(EventLessonDeleted, LessonDeletedEventData{LessonID: lessonID, DeletedAt: time.Now()})
}

// NewLessonLikedEvent creates a lesson.liked event.
func NewLessonLikedEvent(lessonID string, likesCount int) Event {
	return newEvent(EventLessonLiked, LessonLikedEventData{LessonID: lessonID, LikesCount: likesCount})
}

// NewCommentCreatedEvent creates a comment.created event.
func NewCommentCreatedEvent(c *domain.Comment) Event {
	return newEvent(EventCommentCreated, CommentEventData{Comment: c})
}

// NewReportCreatedEvent creates an admin-only report.created event.
func NewReportCreatedEvent(r *domain.Report) Event {
	return newEvent(EventReportCreated, ReportEventData{LessonID: r.LessonID, Reason: r.Reason})
}

// NewReportResolvedEvent creates an admin-only report.resolved event.
func NewReportResolvedEvent(lessonID string, action domain.ReportAction, resolved int) Event {
	return newEvent(EventReportResolved, ReportEventData{LessonID: lessonID, Action: action, Resolved: resolved})
}

// NewPremiumActivatedEvent creates an event delivered only to email.
func NewPremiumActivatedEvent(email string) Event {
	e := newEvent(EventPremiumActivated, PremiumEventData{Email: email, IsPremium: true})
	e.UserEmail = email
	return e
}

// NewHeartbeatEvent creates a keepalive event.
func NewHeartbeatEvent() Event {
	return newEvent(EventHeartbeat, HeartbeatEventData{ServerTime: time.Now()})
}

func scopeToLesson(e Event, l *domain.Lesson) Event {
	if !l.IsPublic() {
		e.UserEmail = l.AuthorEmail
	}
	return e
}
