package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satohidetada/my-flea-app/internal/models"
	"github.com/satohidetada/my-flea-app/internal/utils"
)

type parties struct {
	seller, buyer, stranger models.Actor
}

func newParties() parties {
	return parties{
		seller:   models.Actor{ID: utils.NewSixID(), DisplayName: "S"},
		buyer:    models.Actor{ID: utils.NewSixID(), DisplayName: "B"},
		stranger: models.Actor{ID: utils.NewSixID(), DisplayName: "C"},
	}
}

func newChat(p parties, status models.ChatStatus) *models.Chat {
	id := utils.NewSixID()
	return &models.Chat{ID: id, ItemID: id, SellerID: p.seller.ID, BuyerID: p.buyer.ID, Status: status}
}

func TestCanTransitionItem(t *testing.T) {
	assert.True(t, CanTransitionItem(models.ItemStatusOnSale, models.ItemStatusSold))
	assert.True(t, CanTransitionItem(models.ItemStatusSold, models.ItemStatusCompleted))

	assert.False(t, CanTransitionItem(models.ItemStatusOnSale, models.ItemStatusCompleted))
	assert.False(t, CanTransitionItem(models.ItemStatusSold, models.ItemStatusOnSale))
	for _, to := range []models.ItemStatus{models.ItemStatusOnSale, models.ItemStatusSold, models.ItemStatusCompleted} {
		assert.False(t, CanTransitionItem(models.ItemStatusCompleted, to), "completed is terminal")
	}
}

func TestCanTransitionChat(t *testing.T) {
	assert.True(t, CanTransitionChat(models.ChatStatusActive, models.ChatStatusBuyerReviewed))
	assert.True(t, CanTransitionChat(models.ChatStatusBuyerReviewed, models.ChatStatusClosed))

	assert.False(t, CanTransitionChat(models.ChatStatusActive, models.ChatStatusClosed))
	for _, to := range []models.ChatStatus{models.ChatStatusActive, models.ChatStatusBuyerReviewed, models.ChatStatusClosed} {
		assert.False(t, CanTransitionChat(models.ChatStatusClosed, to), "closed is terminal")
	}
}

func TestNextStatus(t *testing.T) {
	item := models.ItemStatusOnSale
	var seen []models.ItemStatus
	for {
		next, err := NextItemStatus(item)
		if err != nil {
			assert.ErrorIs(t, err, ErrInvalidState)
			break
		}
		assert.True(t, CanTransitionItem(item, next))
		seen = append(seen, next)
		item = next
	}
	assert.Equal(t, []models.ItemStatus{models.ItemStatusSold, models.ItemStatusCompleted}, seen)

	next, err := NextChatStatus(models.ChatStatusActive)
	require.NoError(t, err)
	assert.Equal(t, models.ChatStatusBuyerReviewed, next)
	_, err = NextChatStatus(models.ChatStatusClosed)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestCheckPurchase(t *testing.T) {
	p := newParties()
	item := &models.Item{ID: utils.NewSixID(), SellerID: p.seller.ID, Status: models.ItemStatusOnSale}

	assert.NoError(t, CheckPurchase(p.buyer, item))
	assert.ErrorIs(t, CheckPurchase(p.seller, item), ErrPermissionDenied)

	item.Status = models.ItemStatusSold
	assert.ErrorIs(t, CheckPurchase(p.buyer, item), ErrConflict)
	item.Status = models.ItemStatusCompleted
	assert.ErrorIs(t, CheckPurchase(p.stranger, item), ErrConflict)
}

func TestCheckSellerEdit(t *testing.T) {
	p := newParties()
	item := &models.Item{ID: utils.NewSixID(), SellerID: p.seller.ID, Status: models.ItemStatusOnSale}

	assert.NoError(t, CheckSellerEdit(p.seller, item))
	assert.ErrorIs(t, CheckSellerEdit(p.buyer, item), ErrPermissionDenied)

	item.Status = models.ItemStatusSold
	assert.ErrorIs(t, CheckSellerEdit(p.seller, item), ErrInvalidState)
	assert.ErrorIs(t, CheckSellerEdit(p.buyer, item), ErrPermissionDenied, "ownership is checked first")
}

func TestCheckComment(t *testing.T) {
	item := &models.Item{ID: utils.NewSixID(), Status: models.ItemStatusOnSale}
	assert.NoError(t, CheckComment(item))
	item.Status = models.ItemStatusSold
	assert.ErrorIs(t, CheckComment(item), ErrInvalidState)
}

func TestCheckSendMessage(t *testing.T) {
	p := newParties()

	for _, status := range []models.ChatStatus{models.ChatStatusActive, models.ChatStatusBuyerReviewed} {
		chat := newChat(p, status)
		assert.NoError(t, CheckSendMessage(p.seller, chat))
		assert.NoError(t, CheckSendMessage(p.buyer, chat))
		assert.ErrorIs(t, CheckSendMessage(p.stranger, chat), ErrPermissionDenied)
	}

	closed := newChat(p, models.ChatStatusClosed)
	assert.ErrorIs(t, CheckSendMessage(p.seller, closed), ErrInvalidState)
	assert.ErrorIs(t, CheckSendMessage(p.buyer, closed), ErrInvalidState)
	assert.ErrorIs(t, CheckSendMessage(p.stranger, closed), ErrPermissionDenied)
}

func TestPlanReview_Ordering(t *testing.T) {
	p := newParties()
	chat := newChat(p, models.ChatStatusActive)

	_, err := PlanReview(p.seller, chat)
	assert.ErrorIs(t, err, ErrInvalidState, "seller cannot review first")

	step, err := PlanReview(p.buyer, chat)
	require.NoError(t, err)
	assert.Equal(t, models.ReviewRoleBuyer, step.Role)
	assert.Equal(t, models.ChatStatusBuyerReviewed, step.Next)
	assert.Equal(t, p.seller.ID, step.Target)
	assert.False(t, step.CloseChat)
	assert.Empty(t, step.ItemNext)

	chat.Status = step.Next
	_, err = PlanReview(p.buyer, chat)
	assert.ErrorIs(t, err, ErrInvalidState, "buyer cannot review twice")

	step, err = PlanReview(p.seller, chat)
	require.NoError(t, err)
	assert.Equal(t, models.ReviewRoleSeller, step.Role)
	assert.Equal(t, models.ChatStatusClosed, step.Next)
	assert.Equal(t, p.buyer.ID, step.Target)
	assert.True(t, step.CloseChat)
	assert.Equal(t, chat.ItemID, step.ItemID)
	assert.True(t, CanTransitionItem(step.ItemFrom, step.ItemNext))
	assert.Equal(t, models.ItemStatusCompleted, step.ItemNext)

	chat.Status = step.Next
	_, err = PlanReview(p.seller, chat)
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = PlanReview(p.buyer, chat)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestPlanReview_Stranger(t *testing.T) {
	p := newParties()
	_, err := PlanReview(p.stranger, newChat(p, models.ChatStatusActive))
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestPlanReview_ItemFallsBackToChatID(t *testing.T) {
	p := newParties()
	chat := newChat(p, models.ChatStatusActive)
	chat.ItemID = utils.SixID{}

	step, err := PlanReview(p.buyer, chat)
	require.NoError(t, err)
	assert.Equal(t, chat.ID, step.ItemID)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, "conflict", KindOf(Errorf(ErrConflict, "item %s sold", "X")))
	assert.Equal(t, "permission_denied", KindOf(Errorf(ErrPermissionDenied, "no")))
	assert.Equal(t, "invalid_state", KindOf(Errorf(ErrInvalidState, "no")))
	assert.Equal(t, "validation_error", KindOf(Errorf(ErrValidation, "no")))
	assert.Equal(t, "not_found", KindOf(Errorf(ErrNotFound, "no")))
	assert.Equal(t, "upstream_failure", KindOf(Upstream("insert", assert.AnError)))
	assert.Equal(t, "internal", KindOf(assert.AnError))
	assert.Equal(t, "", KindOf(nil))

	err := Upstream("insert", assert.AnError)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, Errorf(ErrConflict, "item %s sold", "X").Error(), "conflict: item X sold")
}
