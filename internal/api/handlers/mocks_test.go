package handlers_test

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"

	"github.com/satohidetada/my-flea-app/internal/api/middleware"
	"github.com/satohidetada/my-flea-app/internal/lifecycle"
	"github.com/satohidetada/my-flea-app/internal/models"
	"github.com/satohidetada/my-flea-app/internal/services"
	"github.com/satohidetada/my-flea-app/internal/storage"
	"github.com/satohidetada/my-flea-app/internal/utils"
)

// --- Mocks ---

// MockItemService
type MockItemService struct {
	mock.Mock
}

func (m *MockItemService) CreateItem(ctx context.Context, actor models.Actor, in lifecycle.ItemInput) (*models.Item, error) {
	args := m.Called(ctx, actor, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Item), args.Error(1)
}
func (m *MockItemService) GetItem(ctx context.Context, itemID utils.SixID) (*models.Item, error) {
	args := m.Called(ctx, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Item), args.Error(1)
}
func (m *MockItemService) SearchItems(ctx context.Context, q services.ItemQuery) ([]*models.Item, string, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.String(1), args.Error(2)
	}
	return args.Get(0).([]*models.Item), args.String(1), args.Error(2)
}
func (m *MockItemService) ListItemsBySeller(ctx context.Context, sellerID utils.SixID, limit int, cursor string) ([]*models.Item, string, error) {
	args := m.Called(ctx, sellerID, limit, cursor)
	if args.Get(0) == nil {
		return nil, args.String(1), args.Error(2)
	}
	return args.Get(0).([]*models.Item), args.String(1), args.Error(2)
}
func (m *MockItemService) EditItem(ctx context.Context, actor models.Actor, itemID utils.SixID, patch lifecycle.ItemPatch) (*models.Item, error) {
	args := m.Called(ctx, actor, itemID, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Item), args.Error(1)
}
func (m *MockItemService) DeleteItem(ctx context.Context, actor models.Actor, itemID utils.SixID) error {
	args := m.Called(ctx, actor, itemID)
	return args.Error(0)
}

// MockTransactionService
type MockTransactionService struct {
	mock.Mock
}

func (m *MockTransactionService) InitiatePurchase(ctx context.Context, actor models.Actor, itemID utils.SixID) (*models.Chat, error) {
	args := m.Called(ctx, actor, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Chat), args.Error(1)
}
func (m *MockTransactionService) SubmitReview(ctx context.Context, actor models.Actor, chatID utils.SixID, rating int, comment string) (*models.Review, error) {
	args := m.Called(ctx, actor, chatID, rating, comment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Review), args.Error(1)
}
func (m *MockTransactionService) GetChat(ctx context.Context, actor models.Actor, chatID utils.SixID) (*models.Chat, error) {
	args := m.Called(ctx, actor, chatID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Chat), args.Error(1)
}
func (m *MockTransactionService) ListChats(ctx context.Context, actor models.Actor) ([]*models.Chat, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Chat), args.Error(1)
}

// MockMessageService
type MockMessageService struct {
	mock.Mock
}

func (m *MockMessageService) SendMessage(ctx context.Context, actor models.Actor, chatID utils.SixID, content lifecycle.MessageContent) (*models.Message, error) {
	args := m.Called(ctx, actor, chatID, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}
func (m *MockMessageService) ListMessages(ctx context.Context, actor models.Actor, chatID utils.SixID, afterSeq int64, limit int) ([]*models.Message, error) {
	args := m.Called(ctx, actor, chatID, afterSeq, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Message), args.Error(1)
}

// MockLikeService
type MockLikeService struct {
	mock.Mock
}

func (m *MockLikeService) ToggleLike(ctx context.Context, actor models.Actor, itemID utils.SixID) (*models.LikeState, error) {
	args := m.Called(ctx, actor, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LikeState), args.Error(1)
}
func (m *MockLikeService) IsLiked(ctx context.Context, actor models.Actor, itemID utils.SixID) (bool, error) {
	args := m.Called(ctx, actor, itemID)
	return args.Bool(0), args.Error(1)
}
func (m *MockLikeService) ListLikedItems(ctx context.Context, actor models.Actor) ([]*models.Item, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Item), args.Error(1)
}

// MockCommentService
type MockCommentService struct {
	mock.Mock
}

func (m *MockCommentService) AddComment(ctx context.Context, actor models.Actor, itemID utils.SixID, text string) (*models.Comment, error) {
	args := m.Called(ctx, actor, itemID, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Comment), args.Error(1)
}
func (m *MockCommentService) ListComments(ctx context.Context, itemID utils.SixID) ([]*models.Comment, error) {
	args := m.Called(ctx, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Comment), args.Error(1)
}

// MockReviewService
type MockReviewService struct {
	mock.Mock
}

func (m *MockReviewService) ListReviews(ctx context.Context, userID utils.SixID, limit int) ([]*models.Review, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Review), args.Error(1)
}
func (m *MockReviewService) Summary(ctx context.Context, userID utils.SixID) (*models.ReviewSummary, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ReviewSummary), args.Error(1)
}

// MockUserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) FindByID(ctx context.Context, userID utils.SixID) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *MockUserService) GetProfile(ctx context.Context, userID utils.SixID) (*models.Profile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}
func (m *MockUserService) UpdateProfile(ctx context.Context, actor models.Actor, patch models.ProfilePatch) (*models.Profile, error) {
	args := m.Called(ctx, actor, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

// MockNotificationService
type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) ListNotifications(ctx context.Context, actor models.Actor, unreadOnly bool, limit int) ([]*models.Notification, error) {
	args := m.Called(ctx, actor, unreadOnly, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Notification), args.Error(1)
}
func (m *MockNotificationService) UnreadCount(ctx context.Context, actor models.Actor) (int64, error) {
	args := m.Called(ctx, actor)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockNotificationService) MarkRead(ctx context.Context, actor models.Actor, notificationID utils.SixID) error {
	args := m.Called(ctx, actor, notificationID)
	return args.Error(0)
}
func (m *MockNotificationService) MarkAllRead(ctx context.Context, actor models.Actor) (int64, error) {
	args := m.Called(ctx, actor)
	return args.Get(0).(int64), args.Error(1)
}

// MockBlobStore
type MockBlobStore struct {
	mock.Mock
}

func (m *MockBlobStore) PutBase64Image(ctx context.Context, ownerID utils.SixID, encoded, contentType string) (string, error) {
	args := m.Called(ctx, ownerID, encoded, contentType)
	return args.String(0), args.Error(1)
}
func (m *MockBlobStore) GeneratePresignedPutURL(ctx context.Context, ownerID utils.SixID, contentType string) (*storage.PresignedUpload, error) {
	args := m.Called(ctx, ownerID, contentType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.PresignedUpload), args.Error(1)
}

// --- Helpers ---

// withActor stands in for AuthMiddleware in handler tests.
func withActor(actor models.Actor) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextKeyActor, actor)
		c.Next()
	}
}

func newActor(name string) models.Actor {
	return models.Actor{ID: utils.NewSixID(), DisplayName: name}
}
