package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/digitallifelessons/lifelessons-server/internal/domain"
	"github.com/digitallifelessons/lifelessons-server/internal/store"
)

// lessonColumns is the ordered list of columns selected in lesson queries.
// Must match the scan order in scanLesson.
const lessonColumns = `id, author_email, author_name, author_image, title, description,
	category, emotion, image, privacy, access_level, views, likes_count,
	favorites_count, is_featured, created_at, updated_at`

// scanLesson scans a lesson row. Likes are loaded separately by attachLikes.
func scanLesson(scanner interface{ Scan(dest ...any) error }) (*domain.Lesson, error) {
	var (
		l           domain.Lesson
		privacy     string
		accessLevel string
		isFeatured  int
		createdAt   string
		updatedAt   string
	)

	err := scanner.Scan(
		&l.ID,
		&l.AuthorEmail,
		&l.AuthorName,
		&l.AuthorImage,
		&l.Title,
		&l.Description,
		&l.Category,
		&l.Emotion,
		&l.Image,
		&privacy,
		&accessLevel,
		&l.Views,
		&l.LikesCount,
		&l.FavoritesCount,
		&isFeatured,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	l.Privacy = domain.Privacy(privacy)
	l.AccessLevel = domain.AccessLevel(accessLevel)
	l.IsFeatured = isFeatured != 0
	l.Likes = []string{}

	if l.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if l.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}

	return &l, nil
}

// attachLikes loads the like sets of lessons with a single query.
func attachLikes(ctx context.Context, q querier, lessons ...*domain.Lesson) error {
	if len(lessons) == 0 {
		return nil
	}

	byID := make(map[string]*domain.Lesson, len(lessons))
	args := make([]any, 0, len(lessons))
	for _, l := range lessons {
		byID[l.ID] = l
		args = append(args, l.ID)
	}

	rows, err := q.QueryContext(ctx, `
		SELECT lesson_id, user_id FROM lesson_likes
		WHERE lesson_id IN (`+placeholders(len(args))+`)
		ORDER BY created_at, user_id`, args...)
	if err != nil {
		return fmt.Errorf("load likes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var lessonID, userID string
		if err := rows.Scan(&lessonID, &userID); err != nil {
			return err
		}
		if l := byID[lessonID]; l != nil {
			l.Likes = append(l.Likes, userID)
		}
	}
	return rows.Err()
}

// CreateLesson inserts a lesson and its initial like set.
func (s *Store) CreateLesson(ctx context.Context, lesson *domain.Lesson) error {
	if lesson.Likes == nil {
		lesson.Likes = []string{}
	}
	lesson.LikesCount = len(lesson.Likes)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO lessons (`+lessonColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		lesson.ID,
		lesson.AuthorEmail,
		lesson.AuthorName,
		lesson.AuthorImage,
		lesson.Title,
		lesson.Description,
		lesson.Category,
		lesson.Emotion,
		lesson.Image,
		string(lesson.Privacy),
		string(lesson.AccessLevel),
		lesson.Views,
		lesson.LikesCount,
		lesson.FavoritesCount,
		boolToInt(lesson.IsFeatured),
		formatTime(lesson.CreatedAt),
		formatTime(lesson.UpdatedAt),
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	if err != nil {
		return err
	}

	now := formatTime(time.Now())
	for _, userID := range lesson.Likes {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO lesson_likes (lesson_id, user_id, created_at) VALUES (?, ?, ?)`,
			lesson.ID, userID, now); err != nil {
			return fmt.Errorf("insert like: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	s.indexLesson(ctx, lesson)
	return nil
}

// GetLesson retrieves a lesson with its like set.
// Returns store.ErrNotFound if the lesson does not exist.
func (s *Store) GetLesson(ctx context.Context, id string) (*domain.Lesson, error) {
	return getLesson(ctx, s.db, id)
}

func getLesson(ctx context.Context, q querier, id string) (*domain.Lesson, error) {
	row := q.QueryRowContext(ctx, `SELECT `+lessonColumns+` FROM lessons WHERE id = ?`, id)

	l, err := scanLesson(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := attachLikes(ctx, q, l); err != nil {
		return nil, err
	}
	return l, nil
}

// lessonWhere builds the WHERE clause for q. ok is false when q cannot match anything.
func lessonWhere(q store.LessonQuery) (clause string, args []any, ok bool) {
	var conds []string

	if q.AuthorEmail != "" {
		conds = append(conds, "author_email = ?")
		args = append(args, q.AuthorEmail)
	}
	if q.Privacy != "" {
		conds = append(conds, "privacy = ?")
		args = append(args, string(q.Privacy))
	}
	if q.Category != "" {
		conds = append(conds, "category = ?")
		args = append(args, q.Category)
	}
	if q.Emotion != "" {
		conds = append(conds, "emotion = ?")
		args = append(args, q.Emotion)
	}
	if q.Search != "" {
		pattern := "%" + escapeLike(q.Search) + "%"
		conds = append(conds, `(title LIKE ? ESCAPE '\' OR description LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern)
	}
	if q.IDs != nil {
		if len(q.IDs) == 0 {
			return "", nil, false
		}
		// One JSON argument keeps large search results under SQLite's
		// bound-parameter limit.
		ids, _ := json.Marshal(q.IDs) // []string always marshals
		conds = append(conds, "id IN (SELECT value FROM json_each(?))")
		args = append(args, string(ids))
	}
	if q.ExcludeID != "" {
		conds = append(conds, "id <> ?")
		args = append(args, q.ExcludeID)
	}
	if q.Similar != nil {
		var or []string
		if q.Similar.Category != "" {
			or = append(or, "category = ?")
			args = append(args, q.Similar.Category)
		}
		if q.Similar.Emotion != "" {
			or = append(or, "emotion = ?")
			args = append(args, q.Similar.Emotion)
		}
		if len(or) == 0 {
			return "", nil, false
		}
		conds = append(conds, "("+strings.Join(or, " OR ")+")")
	}
	if q.Featured != nil {
		conds = append(conds, "is_featured = ?")
		args = append(args, boolToInt(*q.Featured))
	}

	if len(conds) == 0 {
		return "", args, true
	}
	return " WHERE " + strings.Join(conds, " AND "), args, true
}

func lessonOrder(sort domain.LessonSort) string {
	switch sort {
	case domain.SortOldest:
		return " ORDER BY created_at ASC, id ASC"
	case domain.SortMostViewed:
		return " ORDER BY views DESC, created_at DESC, id DESC"
	case domain.SortMostSaved:
		return " ORDER BY favorites_count DESC, created_at DESC, id DESC"
	default:
		return " ORDER BY created_at DESC, id DESC"
	}
}

// ListLessons returns one page of lessons matching q and the total match count.
func (s *Store) ListLessons(ctx context.Context, q store.LessonQuery) ([]*domain.Lesson, int, error) {
	where, args, ok := lessonWhere(q)
	if !ok {
		return []*domain.Lesson{}, 0, nil
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM lessons`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count lessons: %w", err)
	}

	query := `SELECT ` + lessonColumns + ` FROM lessons` + where + lessonOrder(q.Sort)
	switch {
	case q.Limit > 0:
		query += " LIMIT ? OFFSET ?"
		args = append(args, q.Limit, q.Offset)
	case q.Offset > 0:
		query += " LIMIT -1 OFFSET ?"
		args = append(args, q.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list lessons: %w", err)
	}
	defer rows.Close()

	lessons := make([]*domain.Lesson, 0)
	for rows.Next() {
		l, err := scanLesson(rows)
		if err != nil {
			return nil, 0, err
		}
		lessons = append(lessons, l)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if err := attachLikes(ctx, s.db, lessons...); err != nil {
		return nil, 0, err
	}
	return lessons, total, nil
}

// UpdateLesson applies a partial update.
// Returns store.ErrNotFound if the lesson does not exist.
func (s *Store) UpdateLesson(ctx context.Context, id string, update domain.LessonUpdate) (*domain.Lesson, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	lesson, err := getLesson(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if update.Empty() {
		return lesson, nil
	}

	update.Apply(lesson)
	lesson.Touch()

	if _, err := tx.ExecContext(ctx, `
		UPDATE lessons SET
			title = ?, description = ?, category = ?, emotion = ?, image = ?,
			privacy = ?, access_level = ?, is_featured = ?, updated_at = ?
		WHERE id = ?`,
		lesson.Title,
		lesson.Description,
		lesson.Category,
		lesson.Emotion,
		lesson.Image,
		string(lesson.Privacy),
		string(lesson.AccessLevel),
		boolToInt(lesson.IsFeatured),
		formatTime(lesson.UpdatedAt),
		id,
	); err != nil {
		return nil, fmt.Errorf("update lesson: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.indexLesson(ctx, lesson)
	return lesson, nil
}

// IncrementLessonViews adds one view and returns the lesson after the increment.
func (s *Store) IncrementLessonViews(ctx context.Context, id string) (*domain.Lesson, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE lessons SET views = views + 1 WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, store.ErrNotFound
	}
	return s.GetLesson(ctx, id)
}

// DeleteLesson removes the lesson and everything that references it.
// Children go first so a failure leaves the lesson, never orphans.
func (s *Store) DeleteLesson(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"comments", "favorites", "reports", "lesson_likes"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE lesson_id = ?`, id); err != nil {
			return fmt.Errorf("delete %s: %w", table, err)
		}
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM lessons WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete lesson: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	if err := s.searchIndexer.DeleteLesson(ctx, id); err != nil {
		s.logger.Warn("failed to remove lesson from search index", "lesson_id", id, "error", err)
	}
	return nil
}

// indexLesson pushes a committed lesson to the search index. Failures are
// logged; search falls back to the database.
func (s *Store) indexLesson(ctx context.Context, lesson *domain.Lesson) {
	if err := s.searchIndexer.IndexLesson(ctx, lesson); err != nil {
		s.logger.Warn("failed to index lesson", "lesson_id", lesson.ID, "error", err)
	}
}

// reindexAuthor refreshes the index entries of every lesson by email.
func (s *Store) reindexAuthor(ctx context.Context, email string) {
	lessons, _, err := s.ListLessons(ctx, store.LessonQuery{AuthorEmail: email})
	if err != nil {
		s.logger.Warn("failed to load lessons for reindex", "author_email", email, "error", err)
		return
	}
	for _, l := range lessons {
		s.indexLesson(ctx, l)
	}
}
