package models

import (
	"time"

	"github.com/satohidetada/my-flea-app/internal/utils"
)

// Message is one append-only entry in a chat. Seq is assigned by the store
// inside the append transaction and defines the order of the chat.
type Message struct {
	ID         string      `bson:"_id" json:"id"` // ULID
	ChatID     utils.SixID `bson:"chat_id" json:"chat_id"`
	Seq        int64       `bson:"seq" json:"seq"`
	SenderID   utils.SixID `bson:"sender_id" json:"sender_id"`
	SenderName string      `bson:"sender_name" json:"sender_name"`
	Text       string      `bson:"text,omitempty" json:"text,omitempty"`
	ImageURL   string      `bson:"image_url,omitempty" json:"image_url,omitempty"`
	CreatedAt  time.Time   `bson:"created_at" json:"created_at"`
}

// Normalize fills CreatedAt from the id for rows stored without a timestamp.
func (m *Message) Normalize() {
	if !m.CreatedAt.IsZero() {
		return
	}
	if ts, err := utils.MessageIDTime(m.ID); err == nil {
		m.CreatedAt = ts
	}
}
