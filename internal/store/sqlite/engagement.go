package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/digitallifelessons/lifelessons-server/internal/domain"
	"github.com/digitallifelessons/lifelessons-server/internal/store"
)

// lessonExists returns store.ErrNotFound when the lesson is absent.
func lessonExists(ctx context.Context, q querier, lessonID string) error {
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM lessons WHERE id = ?`, lessonID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

// ToggleLike flips userID's membership in the lesson's like set.
// The counter is recomputed from the set inside the same transaction.
func (s *Store) ToggleLike(ctx context.Context, lessonID, userID string) (*domain.LikeResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := lessonExists(ctx, tx, lessonID); err != nil {
		return nil, err
	}

	res, err := tx.ExecContext(ctx,
		`DELETE FROM lesson_likes WHERE lesson_id = ? AND user_id = ?`, lessonID, userID)
	if err != nil {
		return nil, fmt.Errorf("unlike: %w", err)
	}

	liked := false
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO lesson_likes (lesson_id, user_id, created_at) VALUES (?, ?, ?)`,
			lessonID, userID, formatTime(time.Now())); err != nil {
			return nil, fmt.Errorf("like: %w", err)
		}
		liked = true
	}

	var count int
	if err := tx.QueryRowContext(ctx, `
		UPDATE lessons
		SET likes_count = (SELECT COUNT(*) FROM lesson_likes WHERE lesson_id = ?)
		WHERE id = ?
		RETURNING likes_count`, lessonID, lessonID).Scan(&count); err != nil {
		return nil, fmt.Errorf("update likes count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &domain.LikeResult{IsLiked: liked, LikesCount: count}, nil
}

// commentColumns must match the scan order in scanComment.
const commentColumns = `id, lesson_id, author_email, author_name, author_image, text, created_at`

func scanComment(scanner interface{ Scan(dest ...any) error }) (*domain.Comment, error) {
	var (
		c         domain.Comment
		createdAt string
	)
	if err := scanner.Scan(&c.ID, &c.LessonID, &c.AuthorEmail, &c.AuthorName, &c.AuthorImage, &c.Text, &createdAt); err != nil {
		return nil, err
	}
	var err error
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateComment inserts a comment.
// Returns store.ErrNotFound if the lesson does not exist.
func (s *Store) CreateComment(ctx context.Context, c *domain.Comment) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO comments (`+commentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.LessonID, c.AuthorEmail, c.AuthorName, c.AuthorImage, c.Text, formatTime(c.CreatedAt))
	switch {
	case isForeignKeyViolation(err):
		return store.ErrNotFound.WithMessage("Lesson not found")
	case isUniqueViolation(err):
		return store.ErrAlreadyExists
	}
	return err
}

// ListComments returns a lesson's comments, newest first.
func (s *Store) ListComments(ctx context.Context, lessonID string) ([]*domain.Comment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+commentColumns+` FROM comments
		WHERE lesson_id = ?
		ORDER BY created_at DESC, id DESC`, lessonID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := make([]*domain.Comment, 0)
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// AddFavorite saves the lesson for the user with a snapshot of the lesson
// and bumps the lesson's counter. An existing favorite is left untouched
// and reported with created == false.
func (s *Store) AddFavorite(ctx context.Context, fav *domain.Favorite) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	lesson, err := getLesson(ctx, tx, fav.LessonID)
	if err != nil {
		return false, err
	}
	fav.Lesson = lesson

	snapshot, err := json.Marshal(lesson)
	if err != nil {
		return false, fmt.Errorf("marshal lesson snapshot: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO favorites (id, lesson_id, user_email, snapshot, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (lesson_id, user_email) DO NOTHING`,
		fav.ID, fav.LessonID, fav.UserEmail, string(snapshot), formatTime(fav.CreatedAt))
	if err != nil {
		return false, fmt.Errorf("insert favorite: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return false, nil
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE lessons SET favorites_count = favorites_count + 1 WHERE id = ?`, fav.LessonID); err != nil {
		return false, fmt.Errorf("increment favorites: %w", err)
	}

	return true, tx.Commit()
}

// RemoveFavorite deletes the user's favorite. The lesson's counter is
// decremented only when a row was actually deleted.
func (s *Store) RemoveFavorite(ctx context.Context, lessonID, userEmail string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`DELETE FROM favorites WHERE lesson_id = ? AND user_email = ?`, lessonID, userEmail)
	if err != nil {
		return false, fmt.Errorf("delete favorite: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return false, nil
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE lessons SET favorites_count = MAX(favorites_count - 1, 0) WHERE id = ?`, lessonID); err != nil {
		return false, fmt.Errorf("decrement favorites: %w", err)
	}

	return true, tx.Commit()
}

// ListFavoritesByUser returns the user's favorites, newest first.
func (s *Store) ListFavoritesByUser(ctx context.Context, userEmail string) ([]*domain.Favorite, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, lesson_id, user_email, snapshot, created_at FROM favorites
		WHERE user_email = ?
		ORDER BY created_at DESC, id DESC`, userEmail)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	favorites := make([]*domain.Favorite, 0)
	for rows.Next() {
		var (
			f         domain.Favorite
			snapshot  string
			createdAt string
		)
		if err := rows.Scan(&f.ID, &f.LessonID, &f.UserEmail, &snapshot, &createdAt); err != nil {
			return nil, err
		}
		if f.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		var lesson domain.Lesson
		if err := json.Unmarshal([]byte(snapshot), &lesson); err != nil {
			return nil, fmt.Errorf("unmarshal favorite snapshot: %w", err)
		}
		f.Lesson = &lesson
		favorites = append(favorites, &f)
	}
	return favorites, rows.Err()
}
