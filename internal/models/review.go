package models

import (
	"time"

	"github.com/satohidetada/my-flea-app/internal/utils"
)

// ReviewRole says which side of the transaction wrote the review.
type ReviewRole string

const (
	ReviewRoleBuyer  ReviewRole = "buyer"
	ReviewRoleSeller ReviewRole = "seller"
)

// Review is a rating left by one party about the other. Reviews are never
// modified after creation.
type Review struct {
	Base         `bson:",inline"`
	ChatID       utils.SixID `bson:"chat_id" json:"chat_id"`
	TargetUserID utils.SixID `bson:"target_user_id" json:"target_user_id"`
	AuthorID     utils.SixID `bson:"author_id" json:"author_id"`
	AuthorName   string      `bson:"author_name" json:"author_name"`
	AuthorRole   ReviewRole  `bson:"author_role" json:"author_role"`
	Rating       int         `bson:"rating" json:"rating"`
	Comment      string      `bson:"comment,omitempty" json:"comment,omitempty"`
	ItemID       utils.SixID `bson:"item_id" json:"item_id"`
	ItemName     string      `bson:"item_name" json:"item_name"`
	CreatedAt    time.Time   `bson:"created_at" json:"created_at"`
}

// ReviewSummary aggregates the reviews a user received.
type ReviewSummary struct {
	Count   int64   `bson:"count" json:"count"`
	Average float64 `bson:"average" json:"average"`
}
