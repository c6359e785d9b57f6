package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/satohidetada/my-flea-app/internal/lifecycle"
	"github.com/satohidetada/my-flea-app/internal/models"
	"github.com/satohidetada/my-flea-app/internal/utils"
)

func TestLikeService_Toggle(t *testing.T) {
	f := newFixture(t, "testdb_like_toggle")
	ctx := context.Background()
	item := f.listChair(t)

	state, err := f.likes.ToggleLike(ctx, f.buyer, item.ID)
	require.NoError(t, err)
	assert.True(t, state.Liked)
	assert.Equal(t, int64(1), state.LikeCount)

	liked, err := f.likes.IsLiked(ctx, f.buyer, item.ID)
	require.NoError(t, err)
	assert.True(t, liked)

	state, err = f.likes.ToggleLike(ctx, f.other, item.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), state.LikeCount)

	state, err = f.likes.ToggleLike(ctx, f.buyer, item.ID)
	require.NoError(t, err)
	assert.False(t, state.Liked)
	assert.Equal(t, int64(1), state.LikeCount)

	liked, err = f.likes.IsLiked(ctx, f.buyer, item.ID)
	require.NoError(t, err)
	assert.False(t, liked)

	_, err = f.likes.ToggleLike(ctx, f.buyer, utils.NewSixID())
	assert.ErrorIs(t, err, lifecycle.ErrNotFound)
}

func TestLikeService_CounterMatchesRecords(t *testing.T) {
	f := newFixture(t, "testdb_like_counter")
	ctx := context.Background()
	item := f.listChair(t)

	users := make([]models.Actor, 6)
	for i := range users {
		users[i] = models.Actor{ID: utils.NewSixID()}
	}

	// Every user toggles three times concurrently: each ends up liking the item.
	var wg sync.WaitGroup
	for _, u := range users {
		wg.Add(1)
		go func(u models.Actor) {
			defer wg.Done()
			for i := 0; i < 3; i++ {
				_, err := f.likes.ToggleLike(ctx, u, item.ID)
				assert.NoError(t, err)
			}
		}(u)
	}
	wg.Wait()

	records, err := f.db.Collection(likesCollection).CountDocuments(ctx, bson.M{"item_id": item.ID})
	require.NoError(t, err)
	stored, err := f.items.GetItem(ctx, item.ID)
	require.NoError(t, err)

	assert.Equal(t, int64(len(users)), records)
	assert.Equal(t, records, stored.LikeCount)
}

func TestLikeService_DoesNotTouchStatus(t *testing.T) {
	f := newFixture(t, "testdb_like_status")
	ctx := context.Background()
	item := f.listChair(t)
	f.purchase(t, item)

	state, err := f.likes.ToggleLike(ctx, f.other, item.ID)
	require.NoError(t, err)
	assert.True(t, state.Liked)

	stored, err := f.items.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ItemStatusSold, stored.Status)
}

func TestLikeService_ListLikedItems(t *testing.T) {
	f := newFixture(t, "testdb_like_list")
	ctx := context.Background()
	first := f.listChair(t)
	second := f.listChair(t)

	_, err := f.likes.ToggleLike(ctx, f.buyer, first.ID)
	require.NoError(t, err)
	_, err = f.likes.ToggleLike(ctx, f.buyer, second.ID)
	require.NoError(t, err)

	items, err := f.likes.ListLikedItems(ctx, f.buyer)
	require.NoError(t, err)
	require.Len(t, items, 2)

	require.NoError(t, f.items.DeleteItem(ctx, f.seller, second.ID))
	items, err = f.likes.ListLikedItems(ctx, f.buyer)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, first.ID, items[0].ID)

	empty, err := f.likes.ListLikedItems(ctx, f.other)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
