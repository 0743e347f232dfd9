package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/digitallifelessons/lifelessons-server/internal/domain"
	"github.com/digitallifelessons/lifelessons-server/internal/store"
	"github.com/digitallifelessons/lifelessons-server/internal/util"
)

// CreateReport inserts a report against an existing lesson.
func (s *Store) CreateReport(ctx context.Context, r *domain.Report) error {
	if err := s.lessonExists(ctx, r.LessonID); err != nil {
		return err
	}

	_, err := s.reports.InsertOne(ctx, reportDoc{
		ID:            r.ID,
		LessonID:      r.LessonID,
		ReporterEmail: util.NormalizeEmail(r.ReporterEmail),
		Reason:        r.Reason,
		CreatedAt:     r.CreatedAt,
	})
	if mongo.IsDuplicateKeyError(err) {
		return store.ErrAlreadyExists
	}
	return err
}

// ResolveReports marks the lesson's unresolved reports as resolved.
func (s *Store) ResolveReports(ctx context.Context, lessonID string, action domain.ReportAction) (int, error) {
	res, err := s.reports.UpdateMany(ctx,
		bson.M{"lessonId": lessonID, "resolved": bson.M{"$ne": true}},
		bson.M{"$set": bson.M{
			"resolved":   true,
			"action":     string(action),
			"resolvedAt": time.Now().UTC(),
		}},
	)
	if err != nil {
		return 0, err
	}
	return int(res.ModifiedCount), nil
}

type reportGroup struct {
	LessonID    string    `bson:"_id"`
	ReportCount int       `bson:"reportCount"`
	Reasons     []string  `bson:"reasons"`
	Reporters   []string  `bson:"reporters"`
	LastReport  time.Time `bson:"lastReportedAt"`
}

// ListReportedLessons groups unresolved reports by lesson, most reported
// first, with each lesson attached.
func (s *Store) ListReportedLessons(ctx context.Context) ([]*domain.ReportedLesson, error) {
	cur, err := s.reports.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"resolved": bson.M{"$ne": true}}}},
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}}},
		{{Key: "$group", Value: bson.M{
			"_id":            "$lessonId",
			"reportCount":    bson.M{"$sum": 1},
			"reasons":        bson.M{"$push": "$reason"},
			"reporters":      bson.M{"$push": "$reporterEmail"},
			"lastReportedAt": bson.M{"$max": "$createdAt"},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "reportCount", Value: -1}, {Key: "lastReportedAt", Value: -1}}}},
	})
	if err != nil {
		return nil, err
	}

	var groups []reportGroup
	if err := cur.All(ctx, &groups); err != nil {
		return nil, err
	}

	result := make([]*domain.ReportedLesson, 0, len(groups))
	byID := make(map[string]*domain.ReportedLesson, len(groups))
	ids := make([]string, 0, len(groups))
	for _, g := range groups {
		rl := &domain.ReportedLesson{
			LessonID:    g.LessonID,
			ReportCount: g.ReportCount,
			Reasons:     g.Reasons,
			Reporters:   g.Reporters,
			LastReport:  g.LastReport,
		}
		result = append(result, rl)
		byID[g.LessonID] = rl
		ids = append(ids, g.LessonID)
	}

	if len(ids) > 0 {
		lessons, _, err := s.ListLessons(ctx, store.LessonQuery{IDs: ids})
		if err != nil {
			return nil, fmt.Errorf("load reported lessons: %w", err)
		}
		for _, l := range lessons {
			byID[l.ID].Lesson = l
		}
	}

	return result, nil
}
