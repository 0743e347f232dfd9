package mongo

import (
	"time"

	"github.com/digitallifelessons/lifelessons-server/internal/domain"
)

// Field names follow the collection layout of the earlier deployment, but
// _id holds this server's prefixed string ids. Documents keyed by ObjectId
// decode with the hex form as their id, which request validation rejects,
// so the database must be populated by this server.

type userDoc struct {
	ID          string    `bson:"_id"`
	Email       string    `bson:"email"`
	DisplayName string    `bson:"displayName"`
	PhotoURL    string    `bson:"photoURL"`
	Role        string    `bson:"role"`
	IsPremium   bool      `bson:"isPremium"`
	CreatedAt   time.Time `bson:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt"`
}

func toUserDoc(u *domain.User) userDoc {
	return userDoc{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		PhotoURL:    u.PhotoURL,
		Role:        string(u.Role),
		IsPremium:   u.IsPremium,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func (d userDoc) toDomain() *domain.User {
	role := domain.Role(d.Role)
	if role == "" {
		role = domain.RoleUser
	}
	return &domain.User{
		ID:          d.ID,
		Email:       d.Email,
		DisplayName: d.DisplayName,
		PhotoURL:    d.PhotoURL,
		Role:        role,
		IsPremium:   d.IsPremium,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

type lessonDoc struct {
	ID             string    `bson:"_id"`
	AuthorEmail    string    `bson:"authorEmail"`
	AuthorName     string    `bson:"authorName"`
	AuthorImage    string    `bson:"authorImage"`
	Title          string    `bson:"title"`
	Description    string    `bson:"description"`
	Category       string    `bson:"category"`
	Emotion        string    `bson:"emotion"`
	Image          string    `bson:"image,omitempty"`
	Privacy        string    `bson:"privacy"`
	AccessLevel    string    `bson:"accessLevel"`
	Views          int64     `bson:"views"`
	LikesCount     int       `bson:"likesCount"`
	Likes          []string  `bson:"likes"`
	FavoritesCount int       `bson:"favoritesCount"`
	IsFeatured     bool      `bson:"isFeatured"`
	CreatedAt      time.Time `bson:"createdAt"`
	UpdatedAt      time.Time `bson:"updatedAt"`
}

func toLessonDoc(l *domain.Lesson) lessonDoc {
	likes := l.Likes
	if likes == nil {
		likes = []string{}
	}
	return lessonDoc{
		ID:             l.ID,
		AuthorEmail:    l.AuthorEmail,
		AuthorName:     l.AuthorName,
		AuthorImage:    l.AuthorImage,
		Title:          l.Title,
		Description:    l.Description,
		Category:       l.Category,
		Emotion:        l.Emotion,
		Image:          l.Image,
		Privacy:        string(l.Privacy),
		AccessLevel:    string(l.AccessLevel),
		Views:          l.Views,
		LikesCount:     len(likes),
		Likes:          likes,
		FavoritesCount: l.FavoritesCount,
		IsFeatured:     l.IsFeatured,
		CreatedAt:      l.CreatedAt,
		UpdatedAt:      l.UpdatedAt,
	}
}

func (d lessonDoc) toDomain() *domain.Lesson {
	likes := d.Likes
	if likes == nil {
		likes = []string{}
	}
	return &domain.Lesson{
		ID:             d.ID,
		AuthorEmail:    d.AuthorEmail,
		AuthorName:     d.AuthorName,
		AuthorImage:    d.AuthorImage,
		Title:          d.Title,
		Description:    d.Description,
		Category:       d.Category,
		Emotion:        d.Emotion,
		Image:          d.Image,
		Privacy:        domain.Privacy(d.Privacy),
		AccessLevel:    domain.AccessLevel(d.AccessLevel),
		Views:          d.Views,
		LikesCount:     d.LikesCount,
		Likes:          likes,
		FavoritesCount: d.FavoritesCount,
		IsFeatured:     d.IsFeatured,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

type commentDoc struct {
	ID          string    `bson:"_id"`
	LessonID    string    `bson:"lessonId"`
	AuthorEmail string    `bson:"authorEmail"`
	AuthorName  string    `bson:"authorName"`
	AuthorImage string    `bson:"authorImage"`
	Text        string    `bson:"text"`
	CreatedAt   time.Time `bson:"createdAt"`
}

func (d commentDoc) toDomain() *domain.Comment {
	return &domain.Comment{
		ID:          d.ID,
		LessonID:    d.LessonID,
		AuthorEmail: d.AuthorEmail,
		AuthorName:  d.AuthorName,
		AuthorImage: d.AuthorImage,
		Text:        d.Text,
		CreatedAt:   d.CreatedAt,
	}
}

type favoriteDoc struct {
	ID        string     `bson:"_id"`
	LessonID  string     `bson:"lessonId"`
	UserEmail string     `bson:"userEmail"`
	Lesson    *lessonDoc `bson:"lesson,omitempty"`
	CreatedAt time.Time  `bson:"createdAt"`
}

func (d favoriteDoc) toDomain() *domain.Favorite {
	f := &domain.Favorite{
		ID:        d.ID,
		LessonID:  d.LessonID,
		UserEmail: d.UserEmail,
		CreatedAt: d.CreatedAt,
	}
	if d.Lesson != nil {
		f.Lesson = d.Lesson.toDomain()
	}
	return f
}

type reportDoc struct {
	ID            string     `bson:"_id"`
	LessonID      string     `bson:"lessonId"`
	ReporterEmail string     `bson:"reporterEmail"`
	Reason        string     `bson:"reason"`
	Resolved      bool       `bson:"resolved"`
	Action        string     `bson:"action,omitempty"`
	CreatedAt     time.Time  `bson:"createdAt"`
	ResolvedAt    *time.Time `bson:"resolvedAt,omitempty"`
}
