package repository

import (
	"context"
	"testing"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrCreateActiveByUserID_Idempotent(t *testing.T) {
	db := newTestDB(t)
	r := NewCartGormRepository(db)
	ctx := context.Background()

	first, err := r.GetOrCreateActiveByUserID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, model.CartStatusActive, first.Status)

	//2回目は同じカートが返る
	second, err := r.GetOrCreateActiveByUserID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, db.Model(&model.Cart{}).Where("user_id = ?", 1).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

// CHECKED_OUT後の取得では新しいカートが作られる
func TestGetOrCreateActiveByUserID_AfterCheckout(t *testing.T) {
	db := newTestDB(t)
	r := NewCartGormRepository(db)
	ctx := context.Background()

	first, err := r.GetOrCreateActiveByUserID(ctx, 1)
	require.NoError(t, err)
	require.NoError(t, r.UpdateStatus(ctx, first.ID, model.CartStatusCheckedOut))

	_, err = r.FindActiveByUserID(ctx, 1)
	assert.ErrorIs(t, err, repo.ErrNotFound)

	next, err := r.GetOrCreateActiveByUserID(ctx, 1)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, next.ID)
}

func TestUpsertByCartAndProduct_AddsQuantity(t *testing.T) {
	db := newTestDB(t)
	r := NewCartGormRepository(db)
	ctx := context.Background()
	p := seedProduct(t, db, "Keyboard", "40.00", 10, true)

	cart, err := r.GetOrCreateActiveByUserID(ctx, 1)
	require.NoError(t, err)

	price := decimal.RequireFromString("40.00")
	require.NoError(t, r.UpsertByCartAndProduct(ctx, cart.ID, p.ID, 2, price))
	require.NoError(t, r.UpsertByCartAndProduct(ctx, cart.ID, p.ID, 3, price))

	items, err := r.ListByCartID(ctx, cart.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int64(5), items[0].Quantity)
	assert.True(t, items[0].UnitPriceSnapshot.Equal(price))
}

func TestUpsertByCartAndProduct_InvalidQuantity(t *testing.T) {
	db := newTestDB(t)
	r := NewCartGormRepository(db)

	err := r.UpsertByCartAndProduct(context.Background(), 1, 1, 0, decimal.Zero)
	assert.Error(t, err)
}

func TestClear_RemovesItemsKeepsCart(t *testing.T) {
	db := newTestDB(t)
	r := NewCartGormRepository(db)
	ctx := context.Background()
	p := seedProduct(t, db, "Keyboard", "40.00", 10, true)

	cart, err := r.GetOrCreateActiveByUserID(ctx, 1)
	require.NoError(t, err)
	require.NoError(t, r.UpsertByCartAndProduct(ctx, cart.ID, p.ID, 2, decimal.RequireFromString("40.00")))

	require.NoError(t, r.Clear(ctx, cart.ID))

	items, err := r.ListByCartID(ctx, cart.ID)
	require.NoError(t, err)
	assert.Empty(t, items)

	//カート自体は残る
	var got model.Cart
	require.NoError(t, db.First(&got, cart.ID).Error)
}

func TestClear_UnknownCart(t *testing.T) {
	db := newTestDB(t)
	r := NewCartGormRepository(db)

	err := r.Clear(context.Background(), 999)
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestIsOwnedByUser(t *testing.T) {
	db := newTestDB(t)
	r := NewCartGormRepository(db)
	ctx := context.Background()
	p := seedProduct(t, db, "Keyboard", "40.00", 10, true)

	cart, err := r.GetOrCreateActiveByUserID(ctx, 1)
	require.NoError(t, err)
	require.NoError(t, r.UpsertByCartAndProduct(ctx, cart.ID, p.ID, 1, decimal.RequireFromString("40.00")))

	items, err := r.ListByCartID(ctx, cart.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)

	owned, err := r.IsOwnedByUser(ctx, items[0].ID, 1)
	require.NoError(t, err)
	assert.True(t, owned)

	owned, err = r.IsOwnedByUser(ctx, items[0].ID, 2)
	require.NoError(t, err)
	assert.False(t, owned)
}

func TestUpdateSnapshotPrice(t *testing.T) {
	db := newTestDB(t)
	r := NewCartGormRepository(db)
	ctx := context.Background()
	p := seedProduct(t, db, "Keyboard", "40.00", 10, true)

	cart, err := r.GetOrCreateActiveByUserID(ctx, 1)
	require.NoError(t, err)
	require.NoError(t, r.UpsertByCartAndProduct(ctx, cart.ID, p.ID, 1, decimal.RequireFromString("40.00")))

	items, err := r.ListByCartID(ctx, cart.ID)
	require.NoError(t, err)

	newPrice := decimal.RequireFromString("35.00")
	require.NoError(t, r.UpdateSnapshotPrice(ctx, items[0].ID, newPrice))

	got, err := r.FindByID(ctx, items[0].ID)
	require.NoError(t, err)
	assert.True(t, got.UnitPriceSnapshot.Equal(newPrice))
}
