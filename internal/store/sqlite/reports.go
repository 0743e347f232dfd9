package sqlite

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/digitallifelessons/lifelessons-server/internal/domain"
	"github.com/digitallifelessons/lifelessons-server/internal/store"
)

// CreateReport inserts a report.
// Returns store.ErrNotFound if the lesson does not exist.
func (s *Store) CreateReport(ctx context.Context, r *domain.Report) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reports (id, lesson_id, reporter_email, reason, resolved, action, created_at)
		VALUES (?, ?, ?, ?, 0, '', ?)`,
		r.ID, r.LessonID, r.ReporterEmail, r.Reason, formatTime(r.CreatedAt))
	switch {
	case isForeignKeyViolation(err):
		return store.ErrNotFound.WithMessage("Lesson not found")
	case isUniqueViolation(err):
		return store.ErrAlreadyExists
	}
	return err
}

// ResolveReports marks every unresolved report of the lesson as resolved
// with action and returns how many changed.
func (s *Store) ResolveReports(ctx context.Context, lessonID string, action domain.ReportAction) (int, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE reports SET resolved = 1, action = ?, resolved_at = ?
		WHERE lesson_id = ? AND resolved = 0`,
		string(action), formatTime(time.Now()), lessonID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// ListReportedLessons groups unresolved reports by lesson, most reported
// first, with each lesson attached.
func (s *Store) ListReportedLessons(ctx context.Context) ([]*domain.ReportedLesson, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT lesson_id, reporter_email, reason, created_at FROM reports
		WHERE resolved = 0
		ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	groups := make(map[string]*domain.ReportedLesson)
	for rows.Next() {
		var lessonID, reporter, reason, createdAt string
		if err := rows.Scan(&lessonID, &reporter, &reason, &createdAt); err != nil {
			return nil, err
		}
		at, err := parseTime(createdAt)
		if err != nil {
			return nil, err
		}

		g := groups[lessonID]
		if g == nil {
			g = &domain.ReportedLesson{LessonID: lessonID, Reasons: []string{}, Reporters: []string{}}
			groups[lessonID] = g
		}
		g.ReportCount++
		g.Reasons = append(g.Reasons, reason)
		g.Reporters = append(g.Reporters, reporter)
		g.LastReport = at
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	result := make([]*domain.ReportedLesson, 0, len(groups))
	ids := make([]string, 0, len(groups))
	for id, g := range groups {
		result = append(result, g)
		ids = append(ids, id)
	}

	if len(ids) > 0 {
		lessons, _, err := s.ListLessons(ctx, store.LessonQuery{IDs: ids})
		if err != nil {
			return nil, fmt.Errorf("load reported lessons: %w", err)
		}
		for _, l := range lessons {
			groups[l.ID].Lesson = l
		}
	}

	slices.SortFunc(result, func(a, b *domain.ReportedLesson) int {
		if c := cmp.Compare(b.ReportCount, a.ReportCount); c != 0 {
			return c
		}
		return b.LastReport.Compare(a.LastReport)
	})

	return result, nil
}
