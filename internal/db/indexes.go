package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names.
const (
	ItemsCollection         = "items"
	ChatsCollection         = "chats"
	MessagesCollection      = "messages"
	ReviewsCollection       = "reviews"
	LikesCollection         = "likes"
	CommentsCollection      = "comments"
	NotificationsCollection = "notifications"
	UsersCollection         = "users"
)

// indexSpecs lists the indexes every deployment needs. The unique ones carry
// lifecycle guarantees: one like per user and item, one review per party and chat,
// one message per sequence number.
var indexSpecs = map[string][]mongo.IndexModel{
	ItemsCollection: {
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}},
		{Keys: bson.D{{Key: "seller_id", Value: 1}, {Key: "created_at", Value: -1}}},
	},
	ChatsCollection: {
		{Keys: bson.D{{Key: "seller_id", Value: 1}, {Key: "updated_at", Value: -1}}},
		{Keys: bson.D{{Key: "buyer_id", Value: 1}, {Key: "updated_at", Value: -1}}},
	},
	MessagesCollection: {
		{Keys: bson.D{{Key: "chat_id", Value: 1}, {Key: "seq", Value: 1}}, Options: options.Index().SetUnique(true)},
	},
	ReviewsCollection: {
		{Keys: bson.D{{Key: "chat_id", Value: 1}, {Key: "author_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "target_user_id", Value: 1}, {Key: "created_at", Value: -1}}},
	},
	LikesCollection: {
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "item_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "item_id", Value: 1}}},
	},
	CommentsCollection: {
		{Keys: bson.D{{Key: "item_id", Value: 1}, {Key: "created_at", Value: 1}}},
	},
	NotificationsCollection: {
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "is_read", Value: 1}}},
	},
}

// EnsureIndexes creates all indexes. It is idempotent and safe to call on every start.
// Collections are created explicitly because transactions cannot create them
// on older servers.
func EnsureIndexes(ctx context.Context, database *mongo.Database, log logrus.FieldLogger) error {
	existing, err := database.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}
	have := make(map[string]bool, len(existing))
	for _, name := range existing {
		have[name] = true
	}

	for _, name := range []string{
		ItemsCollection, ChatsCollection, MessagesCollection, ReviewsCollection,
		LikesCollection, CommentsCollection, NotificationsCollection, UsersCollection,
	} {
		if !have[name] {
			if err := database.CreateCollection(ctx, name); err != nil && !isNamespaceExists(err) {
				return fmt.Errorf("failed to create collection %s: %w", name, err)
			}
		}
		if models, ok := indexSpecs[name]; ok {
			if _, err := database.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
				return fmt.Errorf("failed to create indexes on %s: %w", name, err)
			}
		}
	}
	log.Info("MongoDB indexes ensured")
	return nil
}

func isNamespaceExists(err error) bool {
	var cmdErr mongo.CommandError
	return errors.As(err, &cmdErr) && cmdErr.Code == 48 // NamespaceExists
}
