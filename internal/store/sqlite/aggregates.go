package sqlite

import (
	"context"

	"github.com/digitallifelessons/lifelessons-server/internal/domain"
)

// TopContributors aggregates public lessons per author, most prolific first.
func (s *Store) TopContributors(ctx context.Context, limit int) ([]*domain.Contributor, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			l.author_email,
			MAX(l.author_name),
			MAX(l.author_image),
			COUNT(*)               AS lessons_count,
			SUM(l.views)           AS total_views,
			SUM(l.likes_count)     AS total_likes,
			COALESCE(MAX(u.is_premium), 0)
		FROM lessons l
		LEFT JOIN users u ON u.email = l.author_email
		WHERE l.privacy = 'Public'
		GROUP BY l.author_email
		ORDER BY lessons_count DESC, total_views DESC, l.author_email
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contributors := make([]*domain.Contributor, 0)
	for rows.Next() {
		var (
			c         domain.Contributor
			isPremium int
		)
		if err := rows.Scan(&c.Email, &c.Name, &c.Image, &c.LessonsCount, &c.TotalViews, &c.TotalLikes, &isPremium); err != nil {
			return nil, err
		}
		c.IsPremium = isPremium != 0
		contributors = append(contributors, &c)
	}
	return contributors, rows.Err()
}

// Stats returns the admin dashboard totals.
func (s *Store) Stats(ctx context.Context) (*domain.Stats, error) {
	var st domain.Stats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM users WHERE is_premium = 1),
			(SELECT COUNT(*) FROM users WHERE role = 'admin'),
			(SELECT COUNT(*) FROM lessons),
			(SELECT COUNT(*) FROM lessons WHERE privacy = 'Public'),
			(SELECT COUNT(*) FROM lessons WHERE access_level = 'Premium'),
			(SELECT COUNT(*) FROM lessons WHERE is_featured = 1),
			(SELECT COUNT(*) FROM comments),
			(SELECT COUNT(*) FROM favorites),
			(SELECT COUNT(*) FROM reports WHERE resolved = 0)`).Scan(
		&st.Users,
		&st.PremiumUsers,
		&st.Admins,
		&st.Lessons,
		&st.PublicLessons,
		&st.PremiumLessons,
		&st.FeaturedLessons,
		&st.Comments,
		&st.Favorites,
		&st.UnresolvedReports,
	)
	if err != nil {
		return nil, err
	}
	return &st, nil
}
