package services

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/satohidetada/my-flea-app/internal/db"
	"github.com/satohidetada/my-flea-app/internal/lifecycle"
	"github.com/satohidetada/my-flea-app/internal/models"
	"github.com/satohidetada/my-flea-app/internal/notify"
	"github.com/satohidetada/my-flea-app/internal/utils"
)

const maxComments = 200

// ICommentService defines the interface for public item comments.
type ICommentService interface {
	AddComment(ctx context.Context, actor models.Actor, itemID utils.SixID, text string) (*models.Comment, error)
	ListComments(ctx context.Context, itemID utils.SixID) ([]*models.Comment, error)
}

type commentService struct {
	db       *mongo.Database
	notifier *notify.Notifier
	log      logrus.FieldLogger
}

// NewCommentService creates a new CommentService.
func NewCommentService(database *mongo.Database, notifier *notify.Notifier, log logrus.FieldLogger) ICommentService {
	return &commentService{db: database, notifier: notifier, log: log}
}

// AddComment posts a public comment while the item is on sale. The seller is
// notified unless they wrote it.
func (s *commentService) AddComment(ctx context.Context, actor models.Actor, itemID utils.SixID, text string) (*models.Comment, error) {
	text, err := lifecycle.ValidateCommentText(text)
	if err != nil {
		return nil, record("add_comment", err)
	}
	photoURL := s.senderPhoto(ctx, actor.ID)

	var (
		item    *models.Item
		comment *models.Comment
	)
	err = db.WithTransaction(ctx, s.db, func(sc mongo.SessionContext) error {
		var err error
		if item, err = findItem(sc, s.db, itemID); err != nil {
			return err
		}
		if err := lifecycle.CheckComment(item); err != nil {
			return err
		}
		comment = &models.Comment{
			Base:        models.Base{ID: utils.NewSixID()},
			ItemID:      itemID,
			SenderID:    actor.ID,
			SenderName:  actor.Name(),
			SenderPhoto: photoURL,
			Text:        text,
			CreatedAt:   now(),
		}
		_, err = s.db.Collection(commentsCollection).InsertOne(sc, comment)
		return err
	})
	if err != nil {
		return nil, record("add_comment", wrapStoreErr("add comment", err))
	}

	if actor.ID != item.SellerID {
		s.notifier.Notify(ctx, notify.CommentPosted(item, actor))
	}
	return comment, nil
}

// ListComments returns an item's comments, oldest first.
func (s *commentService) ListComments(ctx context.Context, itemID utils.SixID) ([]*models.Comment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}).SetLimit(maxComments)
	cur, err := s.db.Collection(commentsCollection).Find(ctx, bson.M{"item_id": itemID}, opts)
	if err != nil {
		return nil, lifecycle.Upstream("list comments", err)
	}
	comments := []*models.Comment{}
	if err := cur.All(ctx, &comments); err != nil {
		return nil, lifecycle.Upstream("decode comments", err)
	}
	return comments, nil
}

// senderPhoto looks up the commenter's profile photo. A missing profile just
// means no photo.
func (s *commentService) senderPhoto(ctx context.Context, userID utils.SixID) string {
	var user models.User
	opts := options.FindOne().SetProjection(bson.M{"photo_url": 1})
	if err := s.db.Collection(usersCollection).FindOne(ctx, bson.M{"_id": userID}, opts).Decode(&user); err != nil {
		if !errors.Is(err, mongo.ErrNoDocuments) {
			s.log.WithError(err).WithField("user_id", userID.String()).Warn("Failed to load commenter profile")
		}
		return ""
	}
	return user.PhotoURL
}
