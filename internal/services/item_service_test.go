package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/satohidetada/my-flea-app/internal/lifecycle"
	"github.com/satohidetada/my-flea-app/internal/models"
	"github.com/satohidetada/my-flea-app/internal/utils"
)

func TestItemService_CreateValidates(t *testing.T) {
	f := newFixture(t, "testdb_item_create")
	_, err := f.items.CreateItem(context.Background(), f.seller, lifecycle.ItemInput{Name: "", Price: 100})
	assert.ErrorIs(t, err, lifecycle.ErrValidation)

	item := f.listChair(t)
	assert.Equal(t, f.seller.ID, item.SellerID)
	assert.Equal(t, "Seller", item.SellerName)
	assert.Equal(t, int64(0), item.LikeCount)
}

func TestItemService_Edit(t *testing.T) {
	f := newFixture(t, "testdb_item_edit")
	ctx := context.Background()
	item := f.listChair(t)

	price := int64(2500)
	updated, err := f.items.EditItem(ctx, f.seller, item.ID, lifecycle.ItemPatch{Price: &price})
	require.NoError(t, err)
	assert.Equal(t, int64(2500), updated.Price)
	assert.Equal(t, "Chair", updated.Name)

	stored, err := f.items.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2500), stored.Price)

	_, err = f.items.EditItem(ctx, f.buyer, item.ID, lifecycle.ItemPatch{Price: &price})
	assert.ErrorIs(t, err, lifecycle.ErrPermissionDenied)

	_, err = f.items.EditItem(ctx, f.seller, utils.NewSixID(), lifecycle.ItemPatch{Price: &price})
	assert.ErrorIs(t, err, lifecycle.ErrNotFound)

	_, err = f.items.EditItem(ctx, f.seller, item.ID, lifecycle.ItemPatch{})
	assert.ErrorIs(t, err, lifecycle.ErrValidation)

	f.purchase(t, item)
	_, err = f.items.EditItem(ctx, f.seller, item.ID, lifecycle.ItemPatch{Price: &price})
	assert.ErrorIs(t, err, lifecycle.ErrInvalidState)
}

func TestItemService_Delete(t *testing.T) {
	f := newFixture(t, "testdb_item_delete")
	ctx := context.Background()
	item := f.listChair(t)

	_, err := f.likes.ToggleLike(ctx, f.buyer, item.ID)
	require.NoError(t, err)
	_, err = f.comments.AddComment(ctx, f.buyer, item.ID, "still available?")
	require.NoError(t, err)

	assert.ErrorIs(t, f.items.DeleteItem(ctx, f.buyer, item.ID), lifecycle.ErrPermissionDenied)
	require.NoError(t, f.items.DeleteItem(ctx, f.seller, item.ID))

	_, err = f.items.GetItem(ctx, item.ID)
	assert.ErrorIs(t, err, lifecycle.ErrNotFound)
	likes, err := f.db.Collection(likesCollection).CountDocuments(ctx, bson.M{"item_id": item.ID})
	require.NoError(t, err)
	assert.Zero(t, likes)
	comments, err := f.db.Collection(commentsCollection).CountDocuments(ctx, bson.M{"item_id": item.ID})
	require.NoError(t, err)
	assert.Zero(t, comments)
}

func TestItemService_DeleteAfterSaleForbidden(t *testing.T) {
	f := newFixture(t, "testdb_item_delete_sold")
	item := f.listChair(t)
	f.purchase(t, item)

	assert.ErrorIs(t, f.items.DeleteItem(context.Background(), f.seller, item.ID), lifecycle.ErrInvalidState)
}

func TestItemService_Search(t *testing.T) {
	f := newFixture(t, "testdb_item_search")
	ctx := context.Background()

	for _, in := range []lifecycle.ItemInput{
		{Name: "Oak table", Price: 8000, ImageURLs: []string{"https://img.example.com/t.jpg"}},
		{Name: "Desk lamp", Price: 1500, Description: "LED", ImageURLs: []string{"https://img.example.com/l.jpg"}},
		{Name: "Floor lamp", Price: 4000, ImageURLs: []string{"https://img.example.com/f.jpg"}},
	} {
		_, err := f.items.CreateItem(ctx, f.seller, in)
		require.NoError(t, err)
	}
	sold := f.listChair(t)
	f.purchase(t, sold)

	lamps, _, err := f.items.SearchItems(ctx, ItemQuery{Text: "LAMP"})
	require.NoError(t, err)
	assert.Len(t, lamps, 2)

	cheap := int64(2000)
	got, _, err := f.items.SearchItems(ctx, ItemQuery{MaxPrice: &cheap})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Desk lamp", got[0].Name)

	onSale, _, err := f.items.SearchItems(ctx, ItemQuery{Status: models.ItemStatusOnSale})
	require.NoError(t, err)
	assert.Len(t, onSale, 3)

	_, _, err = f.items.SearchItems(ctx, ItemQuery{Status: "reserved"})
	assert.ErrorIs(t, err, lifecycle.ErrValidation)

	_, _, err = f.items.SearchItems(ctx, ItemQuery{Cursor: "garbage"})
	assert.ErrorIs(t, err, lifecycle.ErrValidation)
}

func TestItemService_Pagination(t *testing.T) {
	f := newFixture(t, "testdb_item_pagination")
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		f.listChair(t)
	}

	seen := map[utils.SixID]bool{}
	cursor := ""
	pages := 0
	for {
		page, next, err := f.items.ListItemsBySeller(ctx, f.seller.ID, 2, cursor)
		require.NoError(t, err)
		for _, item := range page {
			assert.False(t, seen[item.ID], "no item appears twice")
			seen[item.ID] = true
		}
		pages++
		if next == "" {
			break
		}
		cursor = next
	}
	assert.Len(t, seen, 5)
	assert.Equal(t, 3, pages)
}
