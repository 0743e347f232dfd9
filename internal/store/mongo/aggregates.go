package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/digitallifelessons/lifelessons-server/internal/domain"
)

type contributorDoc struct {
	Email        string `bson:"_id"`
	Name         string `bson:"name"`
	Image        string `bson:"image"`
	LessonsCount int    `bson:"lessonsCount"`
	TotalViews   int64  `bson:"totalViews"`
	TotalLikes   int    `bson:"totalLikes"`
	IsPremium    bool   `bson:"isPremium"`
}

// TopContributors aggregates public lessons per author, most prolific first.
func (s *Store) TopContributors(ctx context.Context, limit int) ([]*domain.Contributor, error) {
	cur, err := s.lessons.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"privacy": string(domain.PrivacyPublic)}}},
		{{Key: "$group", Value: bson.M{
			"_id":          "$authorEmail",
			"name":         bson.M{"$first": "$authorName"},
			"image":        bson.M{"$first": "$authorImage"},
			"lessonsCount": bson.M{"$sum": 1},
			"totalViews":   bson.M{"$sum": "$views"},
			"totalLikes":   bson.M{"$sum": "$likesCount"},
		}}},
		{{Key: "$sort", Value: bson.D{
			{Key: "lessonsCount", Value: -1},
			{Key: "totalViews", Value: -1},
			{Key: "_id", Value: 1},
		}}},
		{{Key: "$limit", Value: limit}},
		{{Key: "$lookup", Value: bson.M{
			"from":         usersCollection,
			"localField":   "_id",
			"foreignField": "email",
			"as":           "user",
		}}},
		{{Key: "$set", Value: bson.M{
			"isPremium": bson.M{"$ifNull": bson.A{bson.M{"$arrayElemAt": bson.A{"$user.isPremium", 0}}, false}},
		}}},
		{{Key: "$project", Value: bson.M{"user": 0}}},
	})
	if err != nil {
		return nil, err
	}

	var docs []contributorDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	contributors := make([]*domain.Contributor, 0, len(docs))
	for _, d := range docs {
		contributors = append(contributors, &domain.Contributor{
			Email:        d.Email,
			Name:         d.Name,
			Image:        d.Image,
			LessonsCount: d.LessonsCount,
			TotalViews:   d.TotalViews,
			TotalLikes:   d.TotalLikes,
			IsPremium:    d.IsPremium,
		})
	}
	return contributors, nil
}

// Stats returns the admin dashboard totals.
func (s *Store) Stats(ctx context.Context) (*domain.Stats, error) {
	var st domain.Stats

	type count struct {
		coll   *mongo.Collection
		filter bson.M
		dst    *int
	}
	for _, c := range []count{
		{s.users, bson.M{}, &st.Users},
		{s.users, bson.M{"isPremium": true}, &st.PremiumUsers},
		{s.users, bson.M{"role": string(domain.RoleAdmin)}, &st.Admins},
		{s.lessons, bson.M{}, &st.Lessons},
		{s.lessons, bson.M{"privacy": string(domain.PrivacyPublic)}, &st.PublicLessons},
		{s.lessons, bson.M{"accessLevel": string(domain.AccessPremium)}, &st.PremiumLessons},
		{s.lessons, bson.M{"isFeatured": true}, &st.FeaturedLessons},
		{s.comments, bson.M{}, &st.Comments},
		{s.favorites, bson.M{}, &st.Favorites},
		{s.reports, bson.M{"resolved": bson.M{"$ne": true}}, &st.UnresolvedReports},
	} {
		n, err := c.coll.CountDocuments(ctx, c.filter)
		if err != nil {
			return nil, err
		}
		*c.dst = int(n)
	}
	return &st, nil
}
