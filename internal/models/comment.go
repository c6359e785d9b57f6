package models

import (
	"time"

	"github.com/satohidetada/my-flea-app/internal/utils"
)

// Comment is a public question or answer on an item page.
type Comment struct {
	Base        `bson:",inline"`
	ItemID      utils.SixID `bson:"item_id" json:"item_id"`
	SenderID    utils.SixID `bson:"sender_id" json:"sender_id"`
	SenderName  string      `bson:"sender_name" json:"sender_name"`
	SenderPhoto string      `bson:"sender_photo,omitempty" json:"sender_photo,omitempty"`
	Text        string      `bson:"text" json:"text"`
	CreatedAt   time.Time   `bson:"created_at" json:"created_at"`
}
