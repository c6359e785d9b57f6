package notify

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/satohidetada/my-flea-app/internal/db"
	"github.com/satohidetada/my-flea-app/internal/models"
)

// MongoSink appends notifications to the recipients' inbox collection.
type MongoSink struct {
	coll *mongo.Collection
}

// NewMongoSink creates a MongoSink writing to the notifications collection.
func NewMongoSink(database *mongo.Database) *MongoSink {
	return &MongoSink{coll: database.Collection(db.NotificationsCollection)}
}

// Deliver inserts the notification. A notification that is already stored
// counts as delivered, which makes retried deliveries harmless.
func (s *MongoSink) Deliver(ctx context.Context, n *models.Notification) error {
	if _, err := s.coll.InsertOne(ctx, n); err != nil {
		if db.IsMongoDuplicateKeyError(err) {
			return nil
		}
		return fmt.Errorf("failed to store notification %s: %w", n.ID.String(), err)
	}
	return nil
}
