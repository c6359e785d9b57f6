package models

import (
	"fmt"
	"time"

	"github.com/satohidetada/my-flea-app/internal/utils"
)

// ItemStatus is the single source of truth for where an item is in its lifecycle.
type ItemStatus string

const (
	ItemStatusOnSale    ItemStatus = "on_sale"
	ItemStatusSold      ItemStatus = "sold"
	ItemStatusCompleted ItemStatus = "completed"
)

// ParseItemStatus validates a status string.
func ParseItemStatus(s string) (ItemStatus, error) {
	switch ItemStatus(s) {
	case ItemStatusOnSale, ItemStatusSold, ItemStatusCompleted:
		return ItemStatus(s), nil
	}
	return "", fmt.Errorf("unknown item status %q", s)
}

// Item is the canonical form of a listed product.
type Item struct {
	ID          utils.SixID  `bson:"_id" json:"id"`
	SellerID    utils.SixID  `bson:"seller_id" json:"seller_id"`
	SellerName  string       `bson:"seller_name" json:"seller_name"`
	Name        string       `bson:"name" json:"name"`
	Price       int64        `bson:"price" json:"price"` // whole currency units
	Description string       `bson:"description" json:"description"`
	ImageURLs   []string     `bson:"image_urls" json:"image_urls"`
	Status      ItemStatus   `bson:"status" json:"status"`
	BuyerID     *utils.SixID `bson:"buyer_id,omitempty" json:"buyer_id,omitempty"`
	LikeCount   int64        `bson:"like_count" json:"like_count"`
	CreatedAt   time.Time    `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time    `bson:"updated_at" json:"updated_at"`
	SoldAt      *time.Time   `bson:"sold_at,omitempty" json:"sold_at,omitempty"`
	CompletedAt *time.Time   `bson:"completed_at,omitempty" json:"completed_at,omitempty"`
}

// ItemRecord is the stored shape of an item. Besides the canonical fields it
// carries fields written by older clients: a single image_url and an is_sold
// flag that predates the status field.
type ItemRecord struct {
	Item           `bson:",inline"`
	LegacyImageURL string `bson:"image_url,omitempty"`
	LegacyIsSold   *bool  `bson:"is_sold,omitempty"`
}

// Normalize converts a stored record into the canonical Item.
func (r *ItemRecord) Normalize() (*Item, error) {
	item := r.Item

	if item.Status == "" {
		if r.LegacyIsSold != nil && *r.LegacyIsSold {
			item.Status = ItemStatusSold
		} else {
			item.Status = ItemStatusOnSale
		}
	} else if _, err := ParseItemStatus(string(item.Status)); err != nil {
		return nil, fmt.Errorf("item %s: %w", item.ID, err)
	}

	if len(item.ImageURLs) == 0 && r.LegacyImageURL != "" {
		item.ImageURLs = []string{r.LegacyImageURL}
	}
	if item.ImageURLs == nil {
		item.ImageURLs = []string{}
	}
	if item.LikeCount < 0 {
		item.LikeCount = 0
	}
	return &item, nil
}

// CoverImage returns the first image, which listings show as the thumbnail.
func (i *Item) CoverImage() string {
	if len(i.ImageURLs) == 0 {
		return ""
	}
	return i.ImageURLs[0]
}
