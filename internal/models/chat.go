package models

import (
	"fmt"
	"time"

	"github.com/satohidetada/my-flea-app/internal/utils"
)

// ChatStatus tracks the post-sale conversation and review progress.
type ChatStatus string

const (
	ChatStatusActive        ChatStatus = "active"
	ChatStatusBuyerReviewed ChatStatus = "buyer_reviewed"
	ChatStatusClosed        ChatStatus = "closed"
)

// ParseChatStatus validates a status string.
func ParseChatStatus(s string) (ChatStatus, error) {
	switch ChatStatus(s) {
	case ChatStatusActive, ChatStatusBuyerReviewed, ChatStatusClosed:
		return ChatStatus(s), nil
	}
	return "", fmt.Errorf("unknown chat status %q", s)
}

// Chat is the transaction record between the seller and the buyer of one item.
// Its ID is the item's ID.
type Chat struct {
	ID           utils.SixID `bson:"_id" json:"id"`
	ItemID       utils.SixID `bson:"item_id" json:"item_id"`
	ItemName     string      `bson:"item_name" json:"item_name"`
	ItemImage    string      `bson:"item_image,omitempty" json:"item_image,omitempty"`
	SellerID     utils.SixID `bson:"seller_id" json:"seller_id"`
	BuyerID      utils.SixID `bson:"buyer_id" json:"buyer_id"`
	Status       ChatStatus  `bson:"status" json:"status"`
	MessageCount int64       `bson:"message_count" json:"message_count"`
	LastMessage  string      `bson:"last_message,omitempty" json:"last_message,omitempty"`
	CreatedAt    time.Time   `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time   `bson:"updated_at" json:"updated_at"`
}

// ChatRecord is the stored shape of a chat. Early chats used an open/closed
// pair and some have no status at all.
type ChatRecord struct {
	Chat `bson:",inline"`
}

// Normalize converts a stored record into the canonical Chat.
func (r *ChatRecord) Normalize() (*Chat, error) {
	chat := r.Chat
	switch string(chat.Status) {
	case "", "open":
		chat.Status = ChatStatusActive
	default:
		if _, err := ParseChatStatus(string(chat.Status)); err != nil {
			return nil, fmt.Errorf("chat %s: %w", chat.ID, err)
		}
	}
	if chat.ItemID.IsZero() {
		chat.ItemID = chat.ID
	}
	return &chat, nil
}

// IsParty reports whether the user is the seller or the buyer.
func (c *Chat) IsParty(userID utils.SixID) bool {
	return userID == c.SellerID || userID == c.BuyerID
}

// Counterpart returns the other party of the chat.
func (c *Chat) Counterpart(userID utils.SixID) utils.SixID {
	if userID == c.SellerID {
		return c.BuyerID
	}
	return c.SellerID
}
