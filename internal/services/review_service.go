package services

import (
	"context"
	"math"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/satohidetada/my-flea-app/internal/lifecycle"
	"github.com/satohidetada/my-flea-app/internal/models"
	"github.com/satohidetada/my-flea-app/internal/utils"
)

// IReviewService reads the reviews users received.
type IReviewService interface {
	ListReviews(ctx context.Context, userID utils.SixID, limit int) ([]*models.Review, error)
	Summary(ctx context.Context, userID utils.SixID) (*models.ReviewSummary, error)
}

type reviewService struct {
	db *mongo.Database
}

// NewReviewService creates a new ReviewService.
func NewReviewService(database *mongo.Database) IReviewService {
	return &reviewService{db: database}
}

// ListReviews returns reviews about userID, newest first.
func (s *reviewService) ListReviews(ctx context.Context, userID utils.SixID, limit int) ([]*models.Review, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(pageSize(limit)))
	cur, err := s.db.Collection(reviewsCollection).Find(ctx, bson.M{"target_user_id": userID}, opts)
	if err != nil {
		return nil, lifecycle.Upstream("list reviews", err)
	}
	reviews := []*models.Review{}
	if err := cur.All(ctx, &reviews); err != nil {
		return nil, lifecycle.Upstream("decode reviews", err)
	}
	return reviews, nil
}

// Summary returns the review count and the average rating rounded to one decimal.
func (s *reviewService) Summary(ctx context.Context, userID utils.SixID) (*models.ReviewSummary, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"target_user_id": userID}}},
		{{Key: "$group", Value: bson.M{
			"_id":     nil,
			"count":   bson.M{"$sum": 1},
			"average": bson.M{"$avg": "$rating"},
		}}},
	}
	cur, err := s.db.Collection(reviewsCollection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, lifecycle.Upstream("aggregate reviews", err)
	}
	var rows []models.ReviewSummary
	if err := cur.All(ctx, &rows); err != nil {
		return nil, lifecycle.Upstream("decode review summary", err)
	}
	if len(rows) == 0 {
		return &models.ReviewSummary{}, nil
	}
	summary := rows[0]
	summary.Average = math.Round(summary.Average*10) / 10
	return &summary, nil
}
