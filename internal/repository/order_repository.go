package repository

import (
	"context"
	"time"

	"app/internal/domain/model"

	"github.com/shopspring/decimal"
)

type AdminOrderListFilter struct {
	Page   int
	Limit  int
	Status string
	UserID *int64
	From   *time.Time
	To     *time.Time
}

type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error)
	Create(ctx context.Context, order model.Order) (int64, error)
	UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error
	SetTrackingNumber(ctx context.Context, orderID int64, trackingNumber string) error
	SetActualDelivery(ctx context.Context, orderID int64, deliveredAt time.Time) error
	// 返金時は返金額も残す
	UpdatePaymentStatus(ctx context.Context, orderID int64, status model.PaymentStatus, refundAmount *decimal.Decimal) error
	//管理者用の注文一覧
	ListAdmin(ctx context.Context, f AdminOrderListFilter) ([]model.Order, int64, error)
}
