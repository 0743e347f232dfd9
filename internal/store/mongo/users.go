package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/digitallifelessons/lifelessons-server/internal/domain"
	"github.com/digitallifelessons/lifelessons-server/internal/store"
	"github.com/digitallifelessons/lifelessons-server/internal/util"
)

// CreateUser inserts a new user.
// Returns store.ErrAlreadyExists if the ID or email is taken.
func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	if user.Role == "" {
		user.Role = domain.RoleUser
	}
	user.Email = util.NormalizeEmail(user.Email)

	_, err := s.users.InsertOne(ctx, toUserDoc(user))
	if mongo.IsDuplicateKeyError(err) {
		return store.ErrAlreadyExists
	}
	return err
}

// GetUserByEmail retrieves a user by case-insensitive email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var doc userDoc
	err := s.users.FindOne(ctx, bson.M{"email": util.NormalizeEmail(email)}).Decode(&doc)
	if err != nil {
		return nil, notFound(err)
	}
	return doc.toDomain(), nil
}

// ListUsers returns all users, oldest first.
func (s *Store) ListUsers(ctx context.Context) ([]*domain.User, error) {
	cur, err := s.users.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}

	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	users := make([]*domain.User, 0, len(docs))
	for _, d := range docs {
		users = append(users, d.toDomain())
	}
	return users, nil
}

// UpdateUserProfile updates the user first and fans out to lessons only
// when the user matched.
func (s *Store) UpdateUserProfile(ctx context.Context, email string, update domain.ProfileUpdate) (*domain.User, error) {
	email = util.NormalizeEmail(email)

	user, err := s.updateUser(ctx, email, bson.M{
		"displayName": update.DisplayName,
		"photoURL":    update.PhotoURL,
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.lessons.UpdateMany(ctx,
		bson.M{"authorEmail": email},
		bson.M{"$set": bson.M{"authorName": update.DisplayName, "authorImage": update.PhotoURL}},
	); err != nil {
		s.logger.Error("profile updated but lesson sync failed", "email", email, "error", err)
		return nil, fmt.Errorf("sync authored lessons: %w", err)
	}

	s.reindexAuthor(ctx, email)
	return user, nil
}

// SetUserPremium sets the premium entitlement.
func (s *Store) SetUserPremium(ctx context.Context, email string, premium bool) (*domain.User, error) {
	return s.updateUser(ctx, util.NormalizeEmail(email), bson.M{"isPremium": premium})
}

// SetUserRole sets the user's role.
func (s *Store) SetUserRole(ctx context.Context, email string, role domain.Role) (*domain.User, error) {
	if !role.Valid() {
		return nil, store.ErrInvalidInput.WithMessage("invalid role")
	}
	return s.updateUser(ctx, util.NormalizeEmail(email), bson.M{"role": string(role)})
}

func (s *Store) updateUser(ctx context.Context, email string, set bson.M) (*domain.User, error) {
	set["updatedAt"] = time.Now().UTC()

	var doc userDoc
	err := s.users.FindOneAndUpdate(ctx,
		bson.M{"email": email},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return nil, notFound(err)
	}
	return doc.toDomain(), nil
}
