package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/satohidetada/my-flea-app/internal/db"
	"github.com/satohidetada/my-flea-app/internal/lifecycle"
	"github.com/satohidetada/my-flea-app/internal/logger"
	"github.com/satohidetada/my-flea-app/internal/models"
	"github.com/satohidetada/my-flea-app/internal/notify"
	"github.com/satohidetada/my-flea-app/internal/utils"
)

// captureSink records delivered notifications and can be told to fail.
type captureSink struct {
	mu   sync.Mutex
	got  []*models.Notification
	fail error
}

func (s *captureSink) Deliver(ctx context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.got = append(s.got, n)
	return nil
}

func (s *captureSink) byType(t models.NotificationType) []*models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Notification
	for _, n := range s.got {
		if n.Type == t {
			out = append(out, n)
		}
	}
	return out
}

type fixture struct {
	db       *mongo.Database
	sink     *captureSink
	items    IItemService
	tx       ITransactionService
	messages IMessageService
	likes    ILikeService
	comments ICommentService
	notes    INotificationService
	reviews  IReviewService
	users    IUserService

	seller, buyer, other models.Actor
}

func newFixture(t *testing.T, dbName string) *fixture {
	t.Helper()
	database := utils.SetupTestDB(t, dbName,
		itemsCollection, chatsCollection, messagesCollection, reviewsCollection,
		likesCollection, commentsCollection, notificationsCollection, usersCollection)
	log := logger.Discard()
	require.NoError(t, db.EnsureIndexes(context.Background(), database, log))

	sink := &captureSink{}
	notifier := notify.NewNotifier(notify.NewCompositeSink(sink, notify.NewMongoSink(database)), log)
	reviews := NewReviewService(database)

	return &fixture{
		db:       database,
		sink:     sink,
		items:    NewItemService(database, nil, log),
		tx:       NewTransactionService(database, notifier, nil, log),
		messages: NewMessageService(database, notifier, log),
		likes:    NewLikeService(database, nil, log),
		comments: NewCommentService(database, notifier, log),
		notes:    NewNotificationService(database),
		reviews:  reviews,
		users:    NewUserService(database, reviews, log),
		seller:   models.Actor{ID: utils.NewSixID(), DisplayName: "Seller"},
		buyer:    models.Actor{ID: utils.NewSixID(), DisplayName: "Buyer"},
		other:    models.Actor{ID: utils.NewSixID(), DisplayName: "Other"},
	}
}

func (f *fixture) listChair(t *testing.T) *models.Item {
	t.Helper()
	item, err := f.items.CreateItem(context.Background(), f.seller, lifecycle.ItemInput{
		Name:        "Chair",
		Price:       3000,
		Description: "Wooden chair",
		ImageURLs:   []string{"https://img.example.com/chair.jpg"},
	})
	require.NoError(t, err)
	return item
}

func (f *fixture) purchase(t *testing.T, item *models.Item) *models.Chat {
	t.Helper()
	chat, err := f.tx.InitiatePurchase(context.Background(), f.buyer, item.ID)
	require.NoError(t, err)
	return chat
}
