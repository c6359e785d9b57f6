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

const (
	defaultMessagePage = 100
	maxMessagePage     = 500
	imagePreview       = "[画像]"
)

// IMessageService defines the interface for chat messages.
type IMessageService interface {
	SendMessage(ctx context.Context, actor models.Actor, chatID utils.SixID, content lifecycle.MessageContent) (*models.Message, error)
	ListMessages(ctx context.Context, actor models.Actor, chatID utils.SixID, afterSeq int64, limit int) ([]*models.Message, error)
}

// messageService implements IMessageService.
type messageService struct {
	db       *mongo.Database
	notifier *notify.Notifier
	log      logrus.FieldLogger
}

// NewMessageService creates a new MessageService.
func NewMessageService(database *mongo.Database, notifier *notify.Notifier, log logrus.FieldLogger) IMessageService {
	return &messageService{db: database, notifier: notifier, log: log}
}

// SendMessage appends a message to an open chat. The chat's message counter is
// bumped in the same transaction and becomes the message's sequence number,
// so the stored order is the order the store committed them in.
func (s *messageService) SendMessage(ctx context.Context, actor models.Actor, chatID utils.SixID, content lifecycle.MessageContent) (*models.Message, error) {
	content, err := content.Normalize()
	if err != nil {
		return nil, record("send_message", err)
	}

	var (
		chat *models.Chat
		msg  *models.Message
	)
	err = db.WithTransaction(ctx, s.db, func(sc mongo.SessionContext) error {
		current, err := findChat(sc, s.db, chatID)
		if err != nil {
			return err
		}
		if err := lifecycle.CheckSendMessage(actor, current); err != nil {
			return err
		}

		ts := now()
		preview := content.Text
		if preview == "" {
			preview = imagePreview
		}

		var rec models.ChatRecord
		err = s.db.Collection(chatsCollection).FindOneAndUpdate(sc,
			bson.M{"_id": chatID, "status": bson.M{"$ne": models.ChatStatusClosed}},
			bson.M{
				"$inc": bson.M{"message_count": 1},
				"$set": bson.M{"updated_at": ts, "last_message": preview},
			},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&rec)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return lifecycle.Errorf(lifecycle.ErrInvalidState, "chat %s is closed", chatID.String())
			}
			return err
		}
		if chat, err = rec.Normalize(); err != nil {
			return err
		}

		msg = &models.Message{
			ID:         utils.NewMessageID(ts),
			ChatID:     chatID,
			Seq:        chat.MessageCount,
			SenderID:   actor.ID,
			SenderName: actor.Name(),
			Text:       content.Text,
			ImageURL:   content.ImageURL,
			CreatedAt:  ts,
		}
		_, err = s.db.Collection(messagesCollection).InsertOne(sc, msg)
		return err
	})
	if err != nil {
		return nil, record("send_message", wrapStoreErr("send message", err))
	}

	s.log.WithFields(logrus.Fields{
		"chat_id":  chatID.String(),
		"actor_id": actor.ID.String(),
		"seq":      msg.Seq,
	}).Debug("Message sent")

	s.notifier.Notify(ctx, notify.MessageReceived(chat, actor))
	return msg, nil
}

// ListMessages returns messages with a sequence number above afterSeq in
// ascending order. Only the chat's parties may read it.
func (s *messageService) ListMessages(ctx context.Context, actor models.Actor, chatID utils.SixID, afterSeq int64, limit int) ([]*models.Message, error) {
	chat, err := findChat(ctx, s.db, chatID)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.CheckChatMember(actor, chat); err != nil {
		return nil, record("list_messages", err)
	}

	if limit <= 0 {
		limit = defaultMessagePage
	} else if limit > maxMessagePage {
		limit = maxMessagePage
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "seq", Value: 1}, {Key: "created_at", Value: 1}}).
		SetLimit(int64(limit))

	cur, err := s.db.Collection(messagesCollection).Find(ctx, bson.M{"chat_id": chatID, "seq": bson.M{"$gt": afterSeq}}, opts)
	if err != nil {
		return nil, lifecycle.Upstream("list messages", err)
	}
	messages := []*models.Message{}
	if err := cur.All(ctx, &messages); err != nil {
		return nil, lifecycle.Upstream("decode messages", err)
	}
	for _, m := range messages {
		m.Normalize()
	}
	return messages, nil
}
