package repository

import (
	"context"

	"app/internal/domain/model"
)

// statusHistoryは追記専用
type OrderStatusHistoryRepository interface {
	Append(ctx context.Context, h model.OrderStatusHistory) error
	ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderStatusHistory, error)
}
