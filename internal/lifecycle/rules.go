package lifecycle

import (
	"github.com/satohidetada/my-flea-app/internal/models"
	"github.com/satohidetada/my-flea-app/internal/utils"
)

var itemTransitions = map[models.ItemStatus]models.ItemStatus{
	models.ItemStatusOnSale: models.ItemStatusSold,
	models.ItemStatusSold:   models.ItemStatusCompleted,
}

var chatTransitions = map[models.ChatStatus]models.ChatStatus{
	models.ChatStatusActive:        models.ChatStatusBuyerReviewed,
	models.ChatStatusBuyerReviewed: models.ChatStatusClosed,
}

// CanTransitionItem reports whether from -> to is a legal item transition.
// Statuses only ever move forward; completed is terminal.
func CanTransitionItem(from, to models.ItemStatus) bool {
	next, ok := itemTransitions[from]
	return ok && next == to
}

// CanTransitionChat reports whether from -> to is a legal chat transition.
// Closed is terminal.
func CanTransitionChat(from, to models.ChatStatus) bool {
	next, ok := chatTransitions[from]
	return ok && next == to
}

// NextItemStatus returns the status an item moves to from from.
func NextItemStatus(from models.ItemStatus) (models.ItemStatus, error) {
	next, ok := itemTransitions[from]
	if !ok {
		return "", Errorf(ErrInvalidState, "item status %s is terminal", from)
	}
	return next, nil
}

// NextChatStatus returns the status a chat moves to from from.
func NextChatStatus(from models.ChatStatus) (models.ChatStatus, error) {
	next, ok := chatTransitions[from]
	if !ok {
		return "", Errorf(ErrInvalidState, "chat status %s is terminal", from)
	}
	return next, nil
}

// CheckPurchase validates that actor may buy item right now.
func CheckPurchase(actor models.Actor, item *models.Item) error {
	if item.SellerID == actor.ID {
		return Errorf(ErrPermissionDenied, "sellers cannot purchase their own item")
	}
	if item.Status != models.ItemStatusOnSale {
		return Errorf(ErrConflict, "item %s is no longer available", item.ID)
	}
	return nil
}

// CheckSellerEdit validates that actor may edit or delete item.
func CheckSellerEdit(actor models.Actor, item *models.Item) error {
	if item.SellerID != actor.ID {
		return Errorf(ErrPermissionDenied, "only the seller can modify item %s", item.ID)
	}
	if item.Status != models.ItemStatusOnSale {
		return Errorf(ErrInvalidState, "item %s is %s and can no longer be modified", item.ID, item.Status)
	}
	return nil
}

// CheckComment validates that the item still accepts public comments.
func CheckComment(item *models.Item) error {
	if item.Status != models.ItemStatusOnSale {
		return Errorf(ErrInvalidState, "item %s is %s and no longer accepts comments", item.ID, item.Status)
	}
	return nil
}

// CheckChatMember rejects anyone who is not the seller or the buyer.
func CheckChatMember(actor models.Actor, chat *models.Chat) error {
	if !chat.IsParty(actor.ID) {
		return Errorf(ErrPermissionDenied, "not a party to chat %s", chat.ID)
	}
	return nil
}

// CheckSendMessage validates that actor may append to chat.
// Membership is checked before state so outsiders learn nothing about the chat.
func CheckSendMessage(actor models.Actor, chat *models.Chat) error {
	if err := CheckChatMember(actor, chat); err != nil {
		return err
	}
	if chat.Status == models.ChatStatusClosed {
		return Errorf(ErrInvalidState, "chat %s is closed", chat.ID)
	}
	return nil
}

// ReviewStep is the planned effect of a review.
type ReviewStep struct {
	Role      models.ReviewRole
	From      models.ChatStatus
	Next      models.ChatStatus
	Target    utils.SixID
	ItemID    utils.SixID
	CloseChat bool // the item moves from ItemFrom to ItemNext with the chat
	ItemFrom  models.ItemStatus
	ItemNext  models.ItemStatus
}

// PlanReview decides what a review by actor does to chat. The buyer reviews
// first while the chat is active; the seller reviews second and closes it.
func PlanReview(actor models.Actor, chat *models.Chat) (*ReviewStep, error) {
	if err := CheckChatMember(actor, chat); err != nil {
		return nil, err
	}

	step := &ReviewStep{
		From:   chat.Status,
		Target: chat.Counterpart(actor.ID),
		ItemID: chat.ItemID,
	}
	if step.ItemID.IsZero() {
		step.ItemID = chat.ID
	}

	switch {
	case actor.ID == chat.BuyerID && chat.Status == models.ChatStatusActive:
		step.Role = models.ReviewRoleBuyer
	case actor.ID == chat.SellerID && chat.Status == models.ChatStatusBuyerReviewed:
		step.Role = models.ReviewRoleSeller
	case chat.Status == models.ChatStatusClosed:
		return nil, Errorf(ErrInvalidState, "chat %s is closed", chat.ID)
	case actor.ID == chat.SellerID:
		return nil, Errorf(ErrInvalidState, "the seller can review only after the buyer has reviewed")
	default:
		return nil, Errorf(ErrInvalidState, "the buyer has already reviewed this transaction")
	}

	next, err := NextChatStatus(chat.Status)
	if err != nil {
		return nil, err
	}
	step.Next = next
	if next == models.ChatStatusClosed {
		step.CloseChat = true
		step.ItemFrom = models.ItemStatusSold
		if step.ItemNext, err = NextItemStatus(step.ItemFrom); err != nil {
			return nil, err
		}
	}
	return step, nil
}
