package repository

import (
	"context"

	"app/internal/domain/model"
)

type WishlistRepository interface {
	// 既に入っていれば何もしない
	Add(ctx context.Context, userID int64, productID int64) error
	Remove(ctx context.Context, userID int64, productID int64) error
	ListByUserID(ctx context.Context, userID int64) ([]model.WishlistItem, error)
}
