package services

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/satohidetada/my-flea-app/internal/db"
	"github.com/satohidetada/my-flea-app/internal/lifecycle"
	"github.com/satohidetada/my-flea-app/internal/metrics"
	"github.com/satohidetada/my-flea-app/internal/models"
	"github.com/satohidetada/my-flea-app/internal/utils"
)

const (
	itemsCollection         = db.ItemsCollection
	chatsCollection         = db.ChatsCollection
	messagesCollection      = db.MessagesCollection
	reviewsCollection       = db.ReviewsCollection
	likesCollection         = db.LikesCollection
	commentsCollection      = db.CommentsCollection
	notificationsCollection = db.NotificationsCollection
	usersCollection         = db.UsersCollection
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// pageSize clamps a requested page size.
func pageSize(limit int) int {
	if limit <= 0 {
		return defaultPageSize
	}
	if limit > maxPageSize {
		return maxPageSize
	}
	return limit
}

// now returns the current time at the millisecond precision BSON stores, so
// values returned to callers equal what a later read returns.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// record counts a failed operation and passes the error through.
func record(op string, err error) error {
	if err != nil {
		metrics.OperationError(op, lifecycle.KindOf(err))
	}
	return err
}

// itemStatusCond matches stored items whose normalized status is status,
// including records written before the status field existed.
func itemStatusCond(status models.ItemStatus) bson.A {
	cond := bson.A{bson.M{"status": status}}
	switch status {
	case models.ItemStatusOnSale:
		cond = append(cond, bson.M{"status": bson.M{"$in": bson.A{nil, ""}}, "is_sold": bson.M{"$ne": true}})
	case models.ItemStatusSold:
		cond = append(cond, bson.M{"status": bson.M{"$in": bson.A{nil, ""}}, "is_sold": true})
	}
	return cond
}

// chatStatusCond matches stored chats whose normalized status is status.
func chatStatusCond(status models.ChatStatus) bson.M {
	if status == models.ChatStatusActive {
		return bson.M{"status": bson.M{"$in": bson.A{nil, "", "open", string(models.ChatStatusActive)}}}
	}
	return bson.M{"status": status}
}

// findItem loads and normalizes an item. Pass a mongo.SessionContext to read
// inside a transaction.
func findItem(ctx context.Context, database *mongo.Database, id utils.SixID) (*models.Item, error) {
	var rec models.ItemRecord
	err := database.Collection(itemsCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, lifecycle.Errorf(lifecycle.ErrNotFound, "item %s not found", id.String())
		}
		return nil, lifecycle.Upstream("find item "+id.String(), err)
	}
	item, err := rec.Normalize()
	if err != nil {
		return nil, lifecycle.Upstream("decode item", err)
	}
	return item, nil
}

// findChat loads and normalizes a chat.
func findChat(ctx context.Context, database *mongo.Database, id utils.SixID) (*models.Chat, error) {
	var rec models.ChatRecord
	err := database.Collection(chatsCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, lifecycle.Errorf(lifecycle.ErrNotFound, "chat %s not found", id.String())
		}
		return nil, lifecycle.Upstream("find chat "+id.String(), err)
	}
	chat, err := rec.Normalize()
	if err != nil {
		return nil, lifecycle.Upstream("decode chat", err)
	}
	return chat, nil
}

// decodeItems drains a cursor of item records.
func decodeItems(ctx context.Context, cur *mongo.Cursor) ([]*models.Item, error) {
	defer cur.Close(ctx)
	items := []*models.Item{}
	for cur.Next(ctx) {
		var rec models.ItemRecord
		if err := cur.Decode(&rec); err != nil {
			return nil, lifecycle.Upstream("decode item", err)
		}
		item, err := rec.Normalize()
		if err != nil {
			return nil, lifecycle.Upstream("decode item", err)
		}
		items = append(items, item)
	}
	if err := cur.Err(); err != nil {
		return nil, lifecycle.Upstream("iterate items", err)
	}
	return items, nil
}

// pageCursor is the position after the last returned document in a
// newest-first listing: "<created_at unix nanos>_<id>".
type pageCursor struct {
	CreatedAt time.Time
	ID        utils.SixID
}

func (c pageCursor) String() string {
	return strconv.FormatInt(c.CreatedAt.UnixNano(), 10) + "_" + c.ID.String()
}

func parsePageCursor(s string) (*pageCursor, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, "_")
	if len(parts) != 2 {
		return nil, lifecycle.Errorf(lifecycle.ErrValidation, "malformed cursor")
	}
	nanos, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return nil, lifecycle.Errorf(lifecycle.ErrValidation, "malformed cursor")
	}
	id, err := utils.ParseSixID(parts[1])
	if err != nil {
		return nil, lifecycle.Errorf(lifecycle.ErrValidation, "malformed cursor")
	}
	return &pageCursor{CreatedAt: time.Unix(0, nanos).UTC(), ID: id}, nil
}

// after restricts a newest-first query to documents past the cursor.
func (c *pageCursor) after() bson.M {
	return bson.M{"$or": bson.A{
		bson.M{"created_at": bson.M{"$lt": c.CreatedAt}},
		bson.M{"created_at": c.CreatedAt, "_id": bson.M{"$lt": c.ID}},
	}}
}

// wrapStoreErr classifies an error returned from inside a transaction.
// Lifecycle errors pass through; anything else is an upstream failure.
func wrapStoreErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if lifecycle.KindOf(err) != "internal" {
		return err
	}
	return lifecycle.Upstream(op, err)
}
