// Package mongo implements store.Store on MongoDB using the collection
// layout of the DigitalLifeLessons database.
//
// Standalone deployments have no multi-document transactions. Writes that
// touch several collections are ordered so an interruption never leaves an
// orphan: children are removed before their lesson, counters move after the
// primary write, and like toggles are a single document update.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/digitallifelessons/lifelessons-server/internal/store"
)

// DefaultDatabase is the database name used when none is configured.
const DefaultDatabase = "DigitalLifeLessons"

// Collection names.
const (
	usersCollection     = "userCollection"
	lessonsCollection   = "lessonCollection"
	commentsCollection  = "commentCollection"
	favoritesCollection = "favoriteCollection"
	reportsCollection   = "reportCollection"
)

// Store provides MongoDB-backed persistence.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	logger *slog.Logger

	users     *mongo.Collection
	lessons   *mongo.Collection
	comments  *mongo.Collection
	favorites *mongo.Collection
	reports   *mongo.Collection

	searchIndexer store.SearchIndexer
}

var _ store.Store = (*Store)(nil)

// Open connects to uri, selects database and ensures the indexes exist.
func Open(ctx context.Context, uri, database string, logger *slog.Logger) (*Store, error) {
	if database == "" {
		database = DefaultDatabase
	}
	if logger == nil {
		logger = slog.Default()
	}

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(10*time.Second))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	db := client.Database(database)
	s := &Store{
		client:        client,
		db:            db,
		logger:        logger,
		users:         db.Collection(usersCollection),
		lessons:       db.Collection(lessonsCollection),
		comments:      db.Collection(commentsCollection),
		favorites:     db.Collection(favoritesCollection),
		reports:       db.Collection(reportsCollection),
		searchIndexer: store.NewNoopSearchIndexer(),
	}

	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	logger.Info("MongoDB store opened", "database", database)
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	indexes := map[*mongo.Collection][]mongo.IndexModel{
		s.users: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		s.lessons: {
			{Keys: bson.D{{Key: "authorEmail", Value: 1}}},
			{Keys: bson.D{{Key: "privacy", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "isFeatured", Value: 1}}},
		},
		s.comments: {
			{Keys: bson.D{{Key: "lessonId", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		s.favorites: {
			{Keys: bson.D{{Key: "lessonId", Value: 1}, {Key: "userEmail", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "userEmail", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		s.reports: {
			{Keys: bson.D{{Key: "lessonId", Value: 1}, {Key: "resolved", Value: 1}}},
		},
	}

	for coll, models := range indexes {
		if _, err := coll.Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll.Name(), err)
		}
	}
	return nil
}

// Ping checks the connection to the primary.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// SetSearchIndexer sets the indexer notified after lesson writes.
func (s *Store) SetSearchIndexer(indexer store.SearchIndexer) {
	s.searchIndexer = indexer
}

// notFound maps mongo.ErrNoDocuments to store.ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.ErrNotFound
	}
	return err
}
