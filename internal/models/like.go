package models

import (
	"time"

	"github.com/satohidetada/my-flea-app/internal/utils"
)

// Like marks an item as a user's favorite. Its existence is the signal.
type Like struct {
	Base      `bson:",inline"`
	UserID    utils.SixID `bson:"user_id" json:"user_id"`
	ItemID    utils.SixID `bson:"item_id" json:"item_id"`
	CreatedAt time.Time   `bson:"created_at" json:"created_at"`
}

// LikeState is the result of toggling a like.
type LikeState struct {
	ItemID    utils.SixID `json:"item_id"`
	Liked     bool        `json:"liked"`
	LikeCount int64       `json:"like_count"`
}
