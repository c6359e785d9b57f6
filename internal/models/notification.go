package models

import (
	"time"

	"github.com/satohidetada/my-flea-app/internal/utils"
)

// NotificationType tags what happened.
type NotificationType string

const (
	NotificationItemSold          NotificationType = "item_sold"
	NotificationPurchaseConfirmed NotificationType = "purchase_confirmed"
	NotificationReviewReceived    NotificationType = "review_received"
	NotificationComment           NotificationType = "comment"
	NotificationMessage           NotificationType = "message"
)

// Notification is an inbox entry. Only IsRead/ReadAt ever change after creation.
type Notification struct {
	Base      `bson:",inline"`
	UserID    utils.SixID      `bson:"user_id" json:"user_id"`
	Type      NotificationType `bson:"type" json:"type"`
	Title     string           `bson:"title" json:"title"`
	Body      string           `bson:"body" json:"body"`
	Link      string           `bson:"link" json:"link"`
	IsRead    bool             `bson:"is_read" json:"is_read"`
	ReadAt    *time.Time       `bson:"read_at,omitempty" json:"read_at,omitempty"`
	CreatedAt time.Time        `bson:"created_at" json:"created_at"`
}
