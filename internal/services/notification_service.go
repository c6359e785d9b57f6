package services

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/satohidetada/my-flea-app/internal/lifecycle"
	"github.com/satohidetada/my-flea-app/internal/models"
	"github.com/satohidetada/my-flea-app/internal/utils"
)

// INotificationService reads and acknowledges a user's inbox.
type INotificationService interface {
	ListNotifications(ctx context.Context, actor models.Actor, unreadOnly bool, limit int) ([]*models.Notification, error)
	UnreadCount(ctx context.Context, actor models.Actor) (int64, error)
	MarkRead(ctx context.Context, actor models.Actor, notificationID utils.SixID) error
	MarkAllRead(ctx context.Context, actor models.Actor) (int64, error)
}

type notificationService struct {
	db *mongo.Database
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(database *mongo.Database) INotificationService {
	return &notificationService{db: database}
}

func (s *notificationService) ListNotifications(ctx context.Context, actor models.Actor, unreadOnly bool, limit int) ([]*models.Notification, error) {
	filter := bson.M{"user_id": actor.ID}
	if unreadOnly {
		filter["is_read"] = false
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(pageSize(limit)))
	cur, err := s.db.Collection(notificationsCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, lifecycle.Upstream("list notifications", err)
	}
	notes := []*models.Notification{}
	if err := cur.All(ctx, &notes); err != nil {
		return nil, lifecycle.Upstream("decode notifications", err)
	}
	return notes, nil
}

func (s *notificationService) UnreadCount(ctx context.Context, actor models.Actor) (int64, error) {
	n, err := s.db.Collection(notificationsCollection).CountDocuments(ctx, bson.M{"user_id": actor.ID, "is_read": false})
	if err != nil {
		return 0, lifecycle.Upstream("count notifications", err)
	}
	return n, nil
}

// MarkRead flips a notification from unread to read. Marking an already read
// notification does nothing; someone else's notification is not found.
func (s *notificationService) MarkRead(ctx context.Context, actor models.Actor, notificationID utils.SixID) error {
	coll := s.db.Collection(notificationsCollection)
	res, err := coll.UpdateOne(ctx,
		bson.M{"_id": notificationID, "user_id": actor.ID, "is_read": false},
		bson.M{"$set": bson.M{"is_read": true, "read_at": now()}},
	)
	if err != nil {
		return lifecycle.Upstream("mark notification read", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	count, err := coll.CountDocuments(ctx, bson.M{"_id": notificationID, "user_id": actor.ID})
	if err != nil {
		return lifecycle.Upstream("find notification", err)
	}
	if count == 0 {
		return record("mark_read", lifecycle.Errorf(lifecycle.ErrNotFound, "notification %s not found", notificationID.String()))
	}
	return nil
}

// MarkAllRead marks every unread notification of actor as read and returns how many changed.
func (s *notificationService) MarkAllRead(ctx context.Context, actor models.Actor) (int64, error) {
	res, err := s.db.Collection(notificationsCollection).UpdateMany(ctx,
		bson.M{"user_id": actor.ID, "is_read": false},
		bson.M{"$set": bson.M{"is_read": true, "read_at": now()}},
	)
	if err != nil {
		return 0, lifecycle.Upstream("mark notifications read", err)
	}
	return res.ModifiedCount, nil
}
