package services

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/satohidetada/my-flea-app/internal/cache"
	"github.com/satohidetada/my-flea-app/internal/db"
	"github.com/satohidetada/my-flea-app/internal/lifecycle"
	"github.com/satohidetada/my-flea-app/internal/models"
	"github.com/satohidetada/my-flea-app/internal/utils"
)

// ILikeService defines the interface for likes.
type ILikeService interface {
	ToggleLike(ctx context.Context, actor models.Actor, itemID utils.SixID) (*models.LikeState, error)
	IsLiked(ctx context.Context, actor models.Actor, itemID utils.SixID) (bool, error)
	ListLikedItems(ctx context.Context, actor models.Actor) ([]*models.Item, error)
}

// likeService implements ILikeService.
type likeService struct {
	db    *mongo.Database
	cache cache.ItemCache
	log   logrus.FieldLogger
}

// NewLikeService creates a new LikeService.
func NewLikeService(database *mongo.Database, itemCache cache.ItemCache, log logrus.FieldLogger) ILikeService {
	return &likeService{db: database, cache: itemCache, log: log}
}

// ToggleLike flips actor's like on an item. The like record and the item's
// counter change in one transaction, so the counter always equals the number
// of like records. Likes never touch the item status.
func (s *likeService) ToggleLike(ctx context.Context, actor models.Actor, itemID utils.SixID) (*models.LikeState, error) {
	var state *models.LikeState
	err := db.WithTransaction(ctx, s.db, func(sc mongo.SessionContext) error {
		if _, err := findItem(sc, s.db, itemID); err != nil {
			return err
		}

		likes := s.db.Collection(likesCollection)
		items := s.db.Collection(itemsCollection)
		key := bson.M{"user_id": actor.ID, "item_id": itemID}

		res, err := likes.DeleteOne(sc, key)
		if err != nil {
			return err
		}
		liked := res.DeletedCount == 0

		if liked {
			like := &models.Like{
				Base:      models.Base{ID: utils.NewSixID()},
				UserID:    actor.ID,
				ItemID:    itemID,
				CreatedAt: now(),
			}
			if _, err := likes.InsertOne(sc, like); err != nil {
				if db.IsMongoDuplicateKeyError(err) {
					return lifecycle.Errorf(lifecycle.ErrConflict, "like changed concurrently")
				}
				return err
			}
			if _, err := items.UpdateOne(sc, bson.M{"_id": itemID}, bson.M{"$inc": bson.M{"like_count": 1}}); err != nil {
				return err
			}
		} else {
			filter := bson.M{"_id": itemID, "like_count": bson.M{"$gt": 0}}
			if _, err := items.UpdateOne(sc, filter, bson.M{"$inc": bson.M{"like_count": -1}}); err != nil {
				return err
			}
		}

		var counter struct {
			LikeCount int64 `bson:"like_count"`
		}
		opts := options.FindOne().SetProjection(bson.M{"like_count": 1})
		if err := items.FindOne(sc, bson.M{"_id": itemID}, opts).Decode(&counter); err != nil {
			return err
		}
		if counter.LikeCount < 0 {
			counter.LikeCount = 0
		}
		state = &models.LikeState{ItemID: itemID, Liked: liked, LikeCount: counter.LikeCount}
		return nil
	})
	if err != nil {
		return nil, record("toggle_like", wrapStoreErr("toggle like", err))
	}

	invalidateItems(ctx, s.cache, s.log, itemID)
	return state, nil
}

// IsLiked reports whether actor likes the item.
func (s *likeService) IsLiked(ctx context.Context, actor models.Actor, itemID utils.SixID) (bool, error) {
	err := s.db.Collection(likesCollection).FindOne(ctx, bson.M{"user_id": actor.ID, "item_id": itemID}).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, lifecycle.Upstream("find like", err)
	}
	return true, nil
}

// ListLikedItems returns the items actor liked, most recently liked first.
// Items deleted since are left out.
func (s *likeService) ListLikedItems(ctx context.Context, actor models.Actor) ([]*models.Item, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(maxPageSize)
	cur, err := s.db.Collection(likesCollection).Find(ctx, bson.M{"user_id": actor.ID}, opts)
	if err != nil {
		return nil, lifecycle.Upstream("list likes", err)
	}
	var likes []models.Like
	if err := cur.All(ctx, &likes); err != nil {
		return nil, lifecycle.Upstream("decode likes", err)
	}
	if len(likes) == 0 {
		return []*models.Item{}, nil
	}

	ids := make(bson.A, len(likes))
	for i, like := range likes {
		ids[i] = like.ItemID
	}
	itemCur, err := s.db.Collection(itemsCollection).Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, lifecycle.Upstream("list liked items", err)
	}
	found, err := decodeItems(ctx, itemCur)
	if err != nil {
		return nil, err
	}

	byID := make(map[utils.SixID]*models.Item, len(found))
	for _, item := range found {
		byID[item.ID] = item
	}
	items := make([]*models.Item, 0, len(found))
	for _, like := range likes {
		if item, ok := byID[like.ItemID]; ok {
			items = append(items, item)
		}
	}
	return items, nil
}
