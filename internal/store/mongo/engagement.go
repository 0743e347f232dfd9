package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/digitallifelessons/lifelessons-server/internal/domain"
	"github.com/digitallifelessons/lifelessons-server/internal/store"
	"github.com/digitallifelessons/lifelessons-server/internal/util"
)

func (s *Store) lessonExists(ctx context.Context, lessonID string) error {
	n, err := s.lessons.CountDocuments(ctx, bson.M{"_id": lessonID}, options.Count().SetLimit(1))
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound.WithMessage("Lesson not found")
	}
	return nil
}

// ToggleLike flips userID's membership in the like set with one pipeline
// update, so the set and its counter always move together.
func (s *Store) ToggleLike(ctx context.Context, lessonID, userID string) (*domain.LikeResult, error) {
	likes := bson.M{"$ifNull": bson.A{"$likes", bson.A{}}}
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"likes": bson.M{"$cond": bson.A{
				bson.M{"$in": bson.A{userID, likes}},
				bson.M{"$filter": bson.M{
					"input": likes,
					"cond":  bson.M{"$ne": bson.A{"$$this", userID}},
				}},
				bson.M{"$concatArrays": bson.A{likes, bson.A{userID}}},
			}},
		}}},
		{{Key: "$set", Value: bson.M{"likesCount": bson.M{"$size": "$likes"}}}},
	}

	var doc lessonDoc
	err := s.lessons.FindOneAndUpdate(ctx,
		bson.M{"_id": lessonID},
		pipeline,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return nil, notFound(err)
	}

	lesson := doc.toDomain()
	return &domain.LikeResult{IsLiked: lesson.LikedBy(userID), LikesCount: lesson.LikesCount}, nil
}

// CreateComment inserts a comment on an existing lesson.
func (s *Store) CreateComment(ctx context.Context, c *domain.Comment) error {
	if err := s.lessonExists(ctx, c.LessonID); err != nil {
		return err
	}

	_, err := s.comments.InsertOne(ctx, commentDoc{
		ID:          c.ID,
		LessonID:    c.LessonID,
		AuthorEmail: util.NormalizeEmail(c.AuthorEmail),
		AuthorName:  c.AuthorName,
		AuthorImage: c.AuthorImage,
		Text:        c.Text,
		CreatedAt:   c.CreatedAt,
	})
	if mongo.IsDuplicateKeyError(err) {
		return store.ErrAlreadyExists
	}
	return err
}

// ListComments returns a lesson's comments, newest first.
func (s *Store) ListComments(ctx context.Context, lessonID string) ([]*domain.Comment, error) {
	cur, err := s.comments.Find(ctx, bson.M{"lessonId": lessonID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}))
	if err != nil {
		return nil, err
	}

	var docs []commentDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	comments := make([]*domain.Comment, 0, len(docs))
	for _, d := range docs {
		comments = append(comments, d.toDomain())
	}
	return comments, nil
}

// AddFavorite stores the favorite with a lesson snapshot, then bumps the
// counter. The unique (lessonId, userEmail) index makes a repeat a no-op.
func (s *Store) AddFavorite(ctx context.Context, fav *domain.Favorite) (bool, error) {
	lesson, err := s.GetLesson(ctx, fav.LessonID)
	if err != nil {
		return false, err
	}
	fav.Lesson = lesson
	fav.UserEmail = util.NormalizeEmail(fav.UserEmail)

	snapshot := toLessonDoc(lesson)
	_, err = s.favorites.InsertOne(ctx, favoriteDoc{
		ID:        fav.ID,
		LessonID:  fav.LessonID,
		UserEmail: fav.UserEmail,
		Lesson:    &snapshot,
		CreatedAt: fav.CreatedAt,
	})
	if mongo.IsDuplicateKeyError(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("insert favorite: %w", err)
	}

	if _, err := s.lessons.UpdateOne(ctx,
		bson.M{"_id": fav.LessonID},
		bson.M{"$inc": bson.M{"favoritesCount": 1}},
	); err != nil {
		s.logger.Error("favorite saved but counter not incremented", "lesson_id", fav.LessonID, "error", err)
		return true, fmt.Errorf("increment favorites: %w", err)
	}
	return true, nil
}

// RemoveFavorite deletes the favorite and decrements the counter only when
// a document was deleted. The counter never goes below zero.
func (s *Store) RemoveFavorite(ctx context.Context, lessonID, userEmail string) (bool, error) {
	res, err := s.favorites.DeleteOne(ctx, bson.M{
		"lessonId":  lessonID,
		"userEmail": util.NormalizeEmail(userEmail),
	})
	if err != nil {
		return false, fmt.Errorf("delete favorite: %w", err)
	}
	if res.DeletedCount == 0 {
		return false, nil
	}

	if _, err := s.lessons.UpdateOne(ctx,
		bson.M{"_id": lessonID, "favoritesCount": bson.M{"$gt": 0}},
		bson.M{"$inc": bson.M{"favoritesCount": -1}},
	); err != nil {
		s.logger.Error("favorite removed but counter not decremented", "lesson_id", lessonID, "error", err)
		return true, fmt.Errorf("decrement favorites: %w", err)
	}
	return true, nil
}

// ListFavoritesByUser returns the user's favorites, newest first.
func (s *Store) ListFavoritesByUser(ctx context.Context, userEmail string) ([]*domain.Favorite, error) {
	cur, err := s.favorites.Find(ctx, bson.M{"userEmail": util.NormalizeEmail(userEmail)},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}))
	if err != nil {
		return nil, err
	}

	var docs []favoriteDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	favorites := make([]*domain.Favorite, 0, len(docs))
	for _, d := range docs {
		favorites = append(favorites, d.toDomain())
	}
	return favorites, nil
}
