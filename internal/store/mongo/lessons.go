package mongo

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/digitallifelessons/lifelessons-server/internal/domain"
	"github.com/digitallifelessons/lifelessons-server/internal/store"
	"github.com/digitallifelessons/lifelessons-server/internal/util"
)

// CreateLesson inserts a lesson.
func (s *Store) CreateLesson(ctx context.Context, lesson *domain.Lesson) error {
	lesson.AuthorEmail = util.NormalizeEmail(lesson.AuthorEmail)
	if lesson.Likes == nil {
		lesson.Likes = []string{}
	}
	lesson.LikesCount = len(lesson.Likes)

	_, err := s.lessons.InsertOne(ctx, toLessonDoc(lesson))
	if mongo.IsDuplicateKeyError(err) {
		return store.ErrAlreadyExists
	}
	if err != nil {
		return err
	}

	s.indexLesson(ctx, lesson)
	return nil
}

// GetLesson retrieves a lesson by ID.
func (s *Store) GetLesson(ctx context.Context, id string) (*domain.Lesson, error) {
	var doc lessonDoc
	if err := s.lessons.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return nil, notFound(err)
	}
	return doc.toDomain(), nil
}

// lessonFilter builds the filter for q. ok is false when q cannot match anything.
func lessonFilter(q store.LessonQuery) (filter bson.D, ok bool) {
	filter = bson.D{}

	if q.AuthorEmail != "" {
		filter = append(filter, bson.E{Key: "authorEmail", Value: util.NormalizeEmail(q.AuthorEmail)})
	}
	if q.Privacy != "" {
		filter = append(filter, bson.E{Key: "privacy", Value: string(q.Privacy)})
	}
	if q.Category != "" {
		filter = append(filter, bson.E{Key: "category", Value: q.Category})
	}
	if q.Emotion != "" {
		filter = append(filter, bson.E{Key: "emotion", Value: q.Emotion})
	}
	if q.Search != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(q.Search), Options: "i"}
		filter = append(filter, bson.E{Key: "$or", Value: bson.A{
			bson.M{"title": re},
			bson.M{"description": re},
		}})
	}

	idCond := bson.M{}
	if q.IDs != nil {
		if len(q.IDs) == 0 {
			return nil, false
		}
		idCond["$in"] = q.IDs
	}
	if q.ExcludeID != "" {
		idCond["$ne"] = q.ExcludeID
	}
	if len(idCond) > 0 {
		filter = append(filter, bson.E{Key: "_id", Value: idCond})
	}

	if q.Similar != nil {
		var or bson.A
		if q.Similar.Category != "" {
			or = append(or, bson.M{"category": q.Similar.Category})
		}
		if q.Similar.Emotion != "" {
			or = append(or, bson.M{"emotion": q.Similar.Emotion})
		}
		if len(or) == 0 {
			return nil, false
		}
		// $or may already be taken by Search.
		filter = append(filter, bson.E{Key: "$and", Value: bson.A{bson.M{"$or": or}}})
	}
	if q.Featured != nil {
		filter = append(filter, bson.E{Key: "isFeatured", Value: *q.Featured})
	}

	return filter, true
}

func lessonSort(sort domain.LessonSort) bson.D {
	switch sort {
	case domain.SortOldest:
		return bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}
	case domain.SortMostViewed:
		return bson.D{{Key: "views", Value: -1}, {Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}
	case domain.SortMostSaved:
		return bson.D{{Key: "favoritesCount", Value: -1}, {Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}
	default:
		return bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}
	}
}

// ListLessons returns one page of lessons matching q and the total match count.
func (s *Store) ListLessons(ctx context.Context, q store.LessonQuery) ([]*domain.Lesson, int, error) {
	filter, ok := lessonFilter(q)
	if !ok {
		return []*domain.Lesson{}, 0, nil
	}

	total, err := s.lessons.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count lessons: %w", err)
	}

	opts := options.Find().SetSort(lessonSort(q.Sort))
	if q.Offset > 0 {
		opts.SetSkip(int64(q.Offset))
	}
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}

	cur, err := s.lessons.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list lessons: %w", err)
	}

	var docs []lessonDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, err
	}

	lessons := make([]*domain.Lesson, 0, len(docs))
	for _, d := range docs {
		lessons = append(lessons, d.toDomain())
	}
	return lessons, int(total), nil
}

// UpdateLesson applies a partial update.
func (s *Store) UpdateLesson(ctx context.Context, id string, update domain.LessonUpdate) (*domain.Lesson, error) {
	if update.Empty() {
		return s.GetLesson(ctx, id)
	}

	set := bson.M{"updatedAt": time.Now().UTC()}
	if update.Title != nil {
		set["title"] = *update.Title
	}
	if update.Description != nil {
		set["description"] = *update.Description
	}
	if update.Category != nil {
		set["category"] = *update.Category
	}
	if update.Emotion != nil {
		set["emotion"] = *update.Emotion
	}
	if update.Image != nil {
		set["image"] = *update.Image
	}
	if update.Privacy != nil {
		set["privacy"] = string(*update.Privacy)
	}
	if update.AccessLevel != nil {
		set["accessLevel"] = string(*update.AccessLevel)
	}
	if update.IsFeatured != nil {
		set["isFeatured"] = *update.IsFeatured
	}

	lesson, err := s.findOneAndUpdateLesson(ctx, id, bson.M{"$set": set})
	if err != nil {
		return nil, err
	}

	s.indexLesson(ctx, lesson)
	return lesson, nil
}

// IncrementLessonViews adds one view and returns the lesson after the increment.
func (s *Store) IncrementLessonViews(ctx context.Context, id string) (*domain.Lesson, error) {
	return s.findOneAndUpdateLesson(ctx, id, bson.M{"$inc": bson.M{"views": 1}})
}

func (s *Store) findOneAndUpdateLesson(ctx context.Context, id string, update any) (*domain.Lesson, error) {
	var doc lessonDoc
	err := s.lessons.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return nil, notFound(err)
	}
	return doc.toDomain(), nil
}

// DeleteLesson removes the lesson's comments, favorites and reports, then
// the lesson itself.
func (s *Store) DeleteLesson(ctx context.Context, id string) error {
	if _, err := s.GetLesson(ctx, id); err != nil {
		return err
	}

	for _, coll := range []*mongo.Collection{s.comments, s.favorites, s.reports} {
		if _, err := coll.DeleteMany(ctx, bson.M{"lessonId": id}); err != nil {
			return fmt.Errorf("delete from %s: %w", coll.Name(), err)
		}
	}

	res, err := s.lessons.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete lesson: %w", err)
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}

	if err := s.searchIndexer.DeleteLesson(ctx, id); err != nil {
		s.logger.Warn("failed to remove lesson from search index", "lesson_id", id, "error", err)
	}
	return nil
}

func (s *Store) indexLesson(ctx context.Context, lesson *domain.Lesson) {
	if err := s.searchIndexer.IndexLesson(ctx, lesson); err != nil {
		s.logger.Warn("failed to index lesson", "lesson_id", lesson.ID, "error", err)
	}
}

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
