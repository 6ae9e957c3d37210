package repository

import (
	"context"

	"app/internal/domain/model"
)

type PaymentMethodRepository interface {
	Create(ctx context.Context, pm model.PaymentMethod) (model.PaymentMethod, error)
	ListByUserID(ctx context.Context, userID int64) ([]model.PaymentMethod, error)
	FindByID(ctx context.Context, id int64) (model.PaymentMethod, error)
	DeleteByID(ctx context.Context, id int64) error
	IsOwnedByUser(ctx context.Context, id int64, userID int64) (bool, error)
	SetDefault(ctx context.Context, userID int64, id int64) error
}
