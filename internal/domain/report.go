package domain

import "time"

// ReportAction records how a moderator resolved a report.
type ReportAction string

const (
	ReportIgnored ReportAction = "ignored"
	ReportDeleted ReportAction = "deleted"
)

// Report flags a lesson for moderation.
type Report struct {
	ID            string       `json:"_id"`
	LessonID      string       `json:"lessonId"`
	ReporterEmail string       `json:"reporterEmail"`
	Reason        string       `json:"reason"`
	Resolved      bool         `json:"resolved"`
	Action        ReportAction `json:"action,omitempty"`
	CreatedAt     time.Time    `json:"createdAt"`
	ResolvedAt    *time.Time   `json:"resolvedAt,omitempty"`
}

// ReportedLesson groups the unresolved reports of one lesson.
type ReportedLesson struct {
	LessonID    string    `json:"_id"`
	ReportCount int       `json:"reportCount"`
	Reasons     []string  `json:"reasons"`
	Reporters   []string  `json:"reporters"`
	LastReport  time.Time `json:"lastReportedAt"`
	Lesson      *Lesson   `json:"lesson,omitempty"`
}
