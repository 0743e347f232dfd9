package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/digitallifelessons/lifelessons-server/internal/domain"
	"github.com/digitallifelessons/lifelessons-server/internal/store"
)

// userColumns is the ordered list of columns selected in user queries.
// Must match the scan order in scanUser.
const userColumns = `id, email, display_name, photo_url, role, is_premium, created_at, updated_at`

// scanUser scans a sql.Row (or sql.Rows via its Scan method) into a domain.User.
func scanUser(scanner interface{ Scan(dest ...any) error }) (*domain.User, error) {
	var (
		u         domain.User
		role      string
		isPremium int
		createdAt string
		updatedAt string
	)

	err := scanner.Scan(
		&u.ID,
		&u.Email,
		&u.DisplayName,
		&u.PhotoURL,
		&role,
		&isPremium,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	u.Role = domain.Role(role)
	u.IsPremium = isPremium != 0

	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if u.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}

	return &u, nil
}

// CreateUser inserts a new user.
// Returns store.ErrAlreadyExists if the ID or email is taken.
func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	if user.Role == "" {
		user.Role = domain.RoleUser
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Email,
		user.DisplayName,
		user.PhotoURL,
		string(user.Role),
		boolToInt(user.IsPremium),
		formatTime(user.CreatedAt),
		formatTime(user.UpdatedAt),
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	return err
}

// GetUserByEmail retrieves a user by case-insensitive email.
// Returns store.ErrNotFound if the user does not exist.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return getUserByEmail(ctx, s.db, email)
}

func getUserByEmail(ctx context.Context, q querier, email string) (*domain.User, error) {
	row := q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)

	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// ListUsers returns all users, oldest first.
func (s *Store) ListUsers(ctx context.Context) ([]*domain.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]*domain.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UpdateUserProfile sets the display name and photo and copies them onto
// the user's lessons in one transaction. Nothing is written when the user
// does not exist.
func (s *Store) UpdateUserProfile(ctx context.Context, email string, update domain.ProfileUpdate) (*domain.User, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE users SET display_name = ?, photo_url = ?, updated_at = ?
		WHERE email = ?`,
		update.DisplayName, update.PhotoURL, formatTime(time.Now()), email)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, store.ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE lessons SET author_name = ?, author_image = ?
		WHERE author_email = ?`,
		update.DisplayName, update.PhotoURL, email); err != nil {
		return nil, fmt.Errorf("sync authored lessons: %w", err)
	}

	user, err := getUserByEmail(ctx, tx, email)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.reindexAuthor(ctx, email)
	return user, nil
}

// SetUserPremium sets the premium entitlement.
func (s *Store) SetUserPremium(ctx context.Context, email string, premium bool) (*domain.User, error) {
	return s.updateUserField(ctx, email, "is_premium", boolToInt(premium))
}

// SetUserRole sets the user's role.
func (s *Store) SetUserRole(ctx context.Context, email string, role domain.Role) (*domain.User, error) {
	if !role.Valid() {
		return nil, store.ErrInvalidInput.WithMessage("invalid role")
	}
	return s.updateUserField(ctx, email, "role", string(role))
}

// updateUserField sets one column. column is always a constant from this file.
func (s *Store) updateUserField(ctx context.Context, email, column string, value any) (*domain.User, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET `+column+` = ?, updated_at = ? WHERE email = ?`,
		value, formatTime(time.Now()), email)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, store.ErrNotFound
	}
	return s.GetUserByEmail(ctx, email)
}
