package services

import (
	"context"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/satohidetada/my-flea-app/internal/cache"
	"github.com/satohidetada/my-flea-app/internal/db"
	"github.com/satohidetada/my-flea-app/internal/lifecycle"
	"github.com/satohidetada/my-flea-app/internal/metrics"
	"github.com/satohidetada/my-flea-app/internal/models"
	"github.com/satohidetada/my-flea-app/internal/notify"
	"github.com/satohidetada/my-flea-app/internal/utils"
)

// ITransactionService drives an item from sale to completion: purchase,
// the post-sale chat, and the two reviews that close it.
type ITransactionService interface {
	InitiatePurchase(ctx context.Context, actor models.Actor, itemID utils.SixID) (*models.Chat, error)
	SubmitReview(ctx context.Context, actor models.Actor, chatID utils.SixID, rating int, comment string) (*models.Review, error)
	GetChat(ctx context.Context, actor models.Actor, chatID utils.SixID) (*models.Chat, error)
	ListChats(ctx context.Context, actor models.Actor) ([]*models.Chat, error)
}

// transactionService implements ITransactionService.
type transactionService struct {
	db       *mongo.Database
	notifier *notify.Notifier
	cache    cache.ItemCache
	log      logrus.FieldLogger
}

// NewTransactionService creates a new TransactionService.
func NewTransactionService(database *mongo.Database, notifier *notify.Notifier, itemCache cache.ItemCache, log logrus.FieldLogger) ITransactionService {
	return &transactionService{db: database, notifier: notifier, cache: itemCache, log: log}
}

// InitiatePurchase marks the item sold to actor and opens the chat, atomically.
// When two buyers race, exactly one wins; the other gets a conflict.
func (s *transactionService) InitiatePurchase(ctx context.Context, actor models.Actor, itemID utils.SixID) (*models.Chat, error) {
	var (
		item       *models.Item
		chat       *models.Chat
		from, next models.ItemStatus
	)
	err := db.WithTransaction(ctx, s.db, func(sc mongo.SessionContext) error {
		var err error
		item, err = findItem(sc, s.db, itemID)
		if err != nil {
			return err
		}
		if err := lifecycle.CheckPurchase(actor, item); err != nil {
			return err
		}
		from = item.Status
		if next, err = lifecycle.NextItemStatus(from); err != nil {
			return err
		}

		ts := now()
		buyerID := actor.ID
		res, err := s.db.Collection(itemsCollection).UpdateOne(sc,
			bson.M{"_id": itemID, "$or": itemStatusCond(from)},
			bson.M{
				"$set": bson.M{
					"status":     next,
					"buyer_id":   buyerID,
					"sold_at":    ts,
					"updated_at": ts,
				},
				"$unset": bson.M{"is_sold": ""},
			})
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			return lifecycle.Errorf(lifecycle.ErrConflict, "item %s is no longer available", itemID.String())
		}
		item.Status = next
		item.BuyerID = &buyerID
		item.SoldAt = &ts
		item.UpdatedAt = ts

		chat = &models.Chat{
			ID:        item.ID,
			ItemID:    item.ID,
			ItemName:  item.Name,
			ItemImage: item.CoverImage(),
			SellerID:  item.SellerID,
			BuyerID:   actor.ID,
			Status:    models.ChatStatusActive,
			CreatedAt: ts,
			UpdatedAt: ts,
		}
		if _, err := s.db.Collection(chatsCollection).InsertOne(sc, chat); err != nil {
			if db.IsMongoDuplicateKeyError(err) {
				return lifecycle.Errorf(lifecycle.ErrConflict, "item %s already has a transaction", itemID.String())
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, record("initiate_purchase", wrapStoreErr("purchase item", err))
	}

	metrics.Transition("item", string(from), string(next))
	s.log.WithFields(logrus.Fields{
		"item_id":  itemID.String(),
		"chat_id":  chat.ID.String(),
		"actor_id": actor.ID.String(),
	}).Info("Item purchased")

	invalidateItems(ctx, s.cache, s.log, itemID)
	s.notifier.Notify(ctx,
		notify.ItemSold(item, actor, chat.ID),
		notify.PurchaseConfirmed(item, actor, chat.ID),
	)
	return chat, nil
}

// SubmitReview records actor's review of the other party and advances the chat.
// The buyer reviews first; the seller's review closes the chat and completes the item.
func (s *transactionService) SubmitReview(ctx context.Context, actor models.Actor, chatID utils.SixID, rating int, comment string) (*models.Review, error) {
	if err := lifecycle.ValidateRating(rating); err != nil {
		return nil, record("submit_review", err)
	}
	comment, err := lifecycle.ValidateReviewComment(comment)
	if err != nil {
		return nil, record("submit_review", err)
	}

	var (
		review *models.Review
		step   *lifecycle.ReviewStep
	)
	err = db.WithTransaction(ctx, s.db, func(sc mongo.SessionContext) error {
		chat, err := findChat(sc, s.db, chatID)
		if err != nil {
			return err
		}
		step, err = lifecycle.PlanReview(actor, chat)
		if err != nil {
			return err
		}

		ts := now()
		filter := chatStatusCond(step.From)
		filter["_id"] = chatID
		res, err := s.db.Collection(chatsCollection).UpdateOne(sc, filter, bson.M{
			"$set": bson.M{"status": step.Next, "updated_at": ts},
		})
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			return lifecycle.Errorf(lifecycle.ErrConflict, "chat %s changed during the review", chatID.String())
		}

		review = &models.Review{
			Base:         models.Base{ID: utils.NewSixID()},
			ChatID:       chatID,
			TargetUserID: step.Target,
			AuthorID:     actor.ID,
			AuthorName:   actor.Name(),
			AuthorRole:   step.Role,
			Rating:       rating,
			Comment:      comment,
			ItemID:       step.ItemID,
			ItemName:     chat.ItemName,
			CreatedAt:    ts,
		}
		if _, err := s.db.Collection(reviewsCollection).InsertOne(sc, review); err != nil {
			if db.IsMongoDuplicateKeyError(err) {
				return lifecycle.Errorf(lifecycle.ErrInvalidState, "you have already reviewed this transaction")
			}
			return err
		}

		if step.CloseChat {
			res, err := s.db.Collection(itemsCollection).UpdateOne(sc,
				bson.M{"_id": step.ItemID, "$or": itemStatusCond(step.ItemFrom)},
				bson.M{
					"$set":   bson.M{"status": step.ItemNext, "completed_at": ts, "updated_at": ts},
					"$unset": bson.M{"is_sold": ""},
				})
			if err != nil {
				return err
			}
			if res.MatchedCount == 0 {
				return lifecycle.Errorf(lifecycle.ErrInvalidState, "item %s is not %s", step.ItemID.String(), step.ItemFrom)
			}
		}
		return nil
	})
	if err != nil {
		return nil, record("submit_review", wrapStoreErr("submit review", err))
	}

	metrics.Transition("chat", string(step.From), string(step.Next))
	entry := s.log.WithFields(logrus.Fields{
		"chat_id":  chatID.String(),
		"actor_id": actor.ID.String(),
		"role":     step.Role,
	})
	if step.CloseChat {
		metrics.Transition("item", string(step.ItemFrom), string(step.ItemNext))
		invalidateItems(ctx, s.cache, s.log, step.ItemID)
		entry.Info("Transaction completed")
	} else {
		entry.Info("Review submitted")
	}

	s.notifier.Notify(ctx, notify.ReviewReceived(review))
	return review, nil
}

// GetChat returns a chat to one of its parties.
func (s *transactionService) GetChat(ctx context.Context, actor models.Actor, chatID utils.SixID) (*models.Chat, error) {
	chat, err := findChat(ctx, s.db, chatID)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.CheckChatMember(actor, chat); err != nil {
		return nil, record("get_chat", err)
	}
	return chat, nil
}

// ListChats returns the chats actor is a party to, most recently active first.
func (s *transactionService) ListChats(ctx context.Context, actor models.Actor) ([]*models.Chat, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"seller_id": actor.ID},
		bson.M{"buyer_id": actor.ID},
	}}
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}}).SetLimit(maxPageSize)

	cur, err := s.db.Collection(chatsCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, lifecycle.Upstream("list chats", err)
	}
	defer cur.Close(ctx)

	chats := []*models.Chat{}
	for cur.Next(ctx) {
		var rec models.ChatRecord
		if err := cur.Decode(&rec); err != nil {
			return nil, lifecycle.Upstream("decode chat", err)
		}
		chat, err := rec.Normalize()
		if err != nil {
			s.log.WithError(err).WithField("chat_id", rec.ID.String()).Warn("Skipping unreadable chat")
			continue
		}
		chats = append(chats, chat)
	}
	if err := cur.Err(); err != nil {
		return nil, lifecycle.Upstream("iterate chats", err)
	}
	return chats, nil
}
