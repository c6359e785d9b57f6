package services

import (
	"context"
	"regexp"

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

// ItemQuery filters a search. Zero values mean "any".
type ItemQuery struct {
	Text     string
	Status   models.ItemStatus
	SellerID *utils.SixID
	MinPrice *int64
	MaxPrice *int64
	Limit    int
	Cursor   string
}

// IItemService defines the interface for item-related operations.
type IItemService interface {
	CreateItem(ctx context.Context, actor models.Actor, in lifecycle.ItemInput) (*models.Item, error)
	GetItem(ctx context.Context, itemID utils.SixID) (*models.Item, error)
	SearchItems(ctx context.Context, q ItemQuery) ([]*models.Item, string, error)
	ListItemsBySeller(ctx context.Context, sellerID utils.SixID, limit int, cursor string) ([]*models.Item, string, error)
	EditItem(ctx context.Context, actor models.Actor, itemID utils.SixID, patch lifecycle.ItemPatch) (*models.Item, error)
	DeleteItem(ctx context.Context, actor models.Actor, itemID utils.SixID) error
}

// itemService implements IItemService.
type itemService struct {
	db    *mongo.Database
	cache cache.ItemCache
	log   logrus.FieldLogger
}

// NewItemService creates a new ItemService. A nil cache disables caching.
func NewItemService(database *mongo.Database, itemCache cache.ItemCache, log logrus.FieldLogger) IItemService {
	if itemCache == nil {
		itemCache = cache.NoopItemCache{}
	}
	return &itemService{db: database, cache: itemCache, log: log}
}

// CreateItem lists a new item for sale.
func (s *itemService) CreateItem(ctx context.Context, actor models.Actor, in lifecycle.ItemInput) (*models.Item, error) {
	in, err := in.Normalize()
	if err != nil {
		return nil, record("create_item", err)
	}

	ts := now()
	var item *models.Item
	err = db.Try(func() error {
		item = &models.Item{
			ID:          utils.NewSixID(),
			SellerID:    actor.ID,
			SellerName:  actor.Name(),
			Name:        in.Name,
			Price:       in.Price,
			Description: in.Description,
			ImageURLs:   in.ImageURLs,
			Status:      models.ItemStatusOnSale,
			CreatedAt:   ts,
			UpdatedAt:   ts,
		}
		_, insertErr := s.db.Collection(itemsCollection).InsertOne(ctx, item)
		return insertErr
	})
	if err != nil {
		return nil, record("create_item", lifecycle.Upstream("insert item", err))
	}

	s.log.WithFields(logrus.Fields{"item_id": item.ID.String(), "actor_id": actor.ID.String()}).Info("Item listed")
	return item, nil
}

// GetItem returns an item, reading through the cache.
func (s *itemService) GetItem(ctx context.Context, itemID utils.SixID) (*models.Item, error) {
	if item, found, err := s.cache.Get(ctx, itemID); err != nil {
		s.log.WithError(err).WithField("item_id", itemID.String()).Warn("Item cache read failed")
	} else if found {
		return item, nil
	}

	item, err := findItem(ctx, s.db, itemID)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, item); err != nil {
		s.log.WithError(err).WithField("item_id", itemID.String()).Warn("Item cache write failed")
	}
	return item, nil
}

// SearchItems lists items newest first. The returned cursor is empty on the last page.
func (s *itemService) SearchItems(ctx context.Context, q ItemQuery) ([]*models.Item, string, error) {
	and := bson.A{}

	if q.Text != "" {
		pattern := containsFold(q.Text)
		and = append(and, bson.M{"$or": bson.A{
			bson.M{"name": pattern},
			bson.M{"description": pattern},
		}})
	}
	if q.Status != "" {
		if _, err := models.ParseItemStatus(string(q.Status)); err != nil {
			return nil, "", lifecycle.Errorf(lifecycle.ErrValidation, "%v", err)
		}
		and = append(and, bson.M{"$or": itemStatusCond(q.Status)})
	}
	if q.SellerID != nil {
		and = append(and, bson.M{"seller_id": *q.SellerID})
	}
	if q.MinPrice != nil || q.MaxPrice != nil {
		price := bson.M{}
		if q.MinPrice != nil {
			price["$gte"] = *q.MinPrice
		}
		if q.MaxPrice != nil {
			price["$lte"] = *q.MaxPrice
		}
		and = append(and, bson.M{"price": price})
	}

	cursor, err := parsePageCursor(q.Cursor)
	if err != nil {
		return nil, "", err
	}
	if cursor != nil {
		and = append(and, cursor.after())
	}

	filter := bson.M{}
	if len(and) > 0 {
		filter["$and"] = and
	}

	limit := pageSize(q.Limit)
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit + 1))

	cur, err := s.db.Collection(itemsCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, "", lifecycle.Upstream("search items", err)
	}
	items, err := decodeItems(ctx, cur)
	if err != nil {
		return nil, "", err
	}

	next := ""
	if len(items) > limit {
		items = items[:limit]
		last := items[limit-1]
		next = pageCursor{CreatedAt: last.CreatedAt, ID: last.ID}.String()
	}
	return items, next, nil
}

// ListItemsBySeller lists a seller's items in every status, newest first.
func (s *itemService) ListItemsBySeller(ctx context.Context, sellerID utils.SixID, limit int, cursor string) ([]*models.Item, string, error) {
	return s.SearchItems(ctx, ItemQuery{SellerID: &sellerID, Limit: limit, Cursor: cursor})
}

// EditItem applies a partial update. Only the seller may edit, and only while
// the item is on sale.
func (s *itemService) EditItem(ctx context.Context, actor models.Actor, itemID utils.SixID, patch lifecycle.ItemPatch) (*models.Item, error) {
	patch, err := patch.Normalize()
	if err != nil {
		return nil, record("edit_item", err)
	}

	var updated *models.Item
	err = db.WithTransaction(ctx, s.db, func(sc mongo.SessionContext) error {
		item, err := findItem(sc, s.db, itemID)
		if err != nil {
			return err
		}
		if err := lifecycle.CheckSellerEdit(actor, item); err != nil {
			return err
		}

		patch.Apply(item)
		item.UpdatedAt = now()

		filter := bson.M{"_id": itemID, "seller_id": actor.ID, "$or": itemStatusCond(models.ItemStatusOnSale)}
		update := bson.M{
			"$set": bson.M{
				"name":        item.Name,
				"price":       item.Price,
				"description": item.Description,
				"image_urls":  item.ImageURLs,
				"status":      models.ItemStatusOnSale,
				"updated_at":  item.UpdatedAt,
			},
			"$unset": bson.M{"image_url": "", "is_sold": ""},
		}
		res, err := s.db.Collection(itemsCollection).UpdateOne(sc, filter, update)
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			return lifecycle.Errorf(lifecycle.ErrConflict, "item %s changed during the edit", itemID.String())
		}
		updated = item
		return nil
	})
	if err != nil {
		return nil, record("edit_item", wrapStoreErr("edit item", err))
	}

	s.invalidate(ctx, itemID)
	s.log.WithFields(logrus.Fields{"item_id": itemID.String(), "actor_id": actor.ID.String()}).Info("Item edited")
	return updated, nil
}

// DeleteItem removes an item with its likes and comments. Items that have been
// sold keep their record because the chat and reviews refer to it.
func (s *itemService) DeleteItem(ctx context.Context, actor models.Actor, itemID utils.SixID) error {
	err := db.WithTransaction(ctx, s.db, func(sc mongo.SessionContext) error {
		item, err := findItem(sc, s.db, itemID)
		if err != nil {
			return err
		}
		if err := lifecycle.CheckSellerEdit(actor, item); err != nil {
			return err
		}

		filter := bson.M{"_id": itemID, "seller_id": actor.ID, "$or": itemStatusCond(models.ItemStatusOnSale)}
		res, err := s.db.Collection(itemsCollection).DeleteOne(sc, filter)
		if err != nil {
			return err
		}
		if res.DeletedCount == 0 {
			return lifecycle.Errorf(lifecycle.ErrConflict, "item %s changed during the delete", itemID.String())
		}
		if _, err := s.db.Collection(likesCollection).DeleteMany(sc, bson.M{"item_id": itemID}); err != nil {
			return err
		}
		if _, err := s.db.Collection(commentsCollection).DeleteMany(sc, bson.M{"item_id": itemID}); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return record("delete_item", wrapStoreErr("delete item", err))
	}

	s.invalidate(ctx, itemID)
	s.log.WithFields(logrus.Fields{"item_id": itemID.String(), "actor_id": actor.ID.String()}).Info("Item deleted")
	return nil
}

func (s *itemService) invalidate(ctx context.Context, ids ...utils.SixID) {
	invalidateItems(ctx, s.cache, s.log, ids...)
}

// invalidateItems drops cached items after a committed write. A failure only
// leaves a stale entry until its TTL expires.
func invalidateItems(ctx context.Context, c cache.ItemCache, log logrus.FieldLogger, ids ...utils.SixID) {
	if c == nil {
		return
	}
	if err := c.Invalidate(context.WithoutCancel(ctx), ids...); err != nil {
		log.WithError(err).Warn("Item cache invalidation failed")
	}
}

// containsFold builds a case-insensitive substring match for user text.
func containsFold(text string) bson.M {
	return bson.M{"$regex": regexp.QuoteMeta(text), "$options": "i"}
}
