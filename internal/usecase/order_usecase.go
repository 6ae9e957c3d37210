package usecase

import (
	"context"
	"net/http"
	"time"

	"app/internal/domain/model"
	"app/internal/events"
	repo "app/internal/repository"

	"github.com/rs/zerolog"
)

type OrderUsecase struct {
	tx        repo.TransactionManager
	publisher events.Publisher
	logger    zerolog.Logger
}

func NewOrderUsecase(tx repo.TransactionManager, publisher events.Publisher, logger zerolog.Logger) *OrderUsecase {
	return &OrderUsecase{tx: tx, publisher: publisher, logger: logger}
}

type OrderItemOutput struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	ImageURL  string `json:"image_url,omitempty"`
	Price     string `json:"price"`
	Quantity  int64  `json:"quantity"`
}

type StatusHistoryOutput struct {
	Status    string    `json:"status"`
	Note      string    `json:"note,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type OrderOutput struct {
	ID                int64                 `json:"id"`
	OrderNumber       string                `json:"order_number"`
	UserID            int64                 `json:"user_id"`
	Status            string                `json:"status"`
	ItemsPrice        string                `json:"items_price"`
	TaxPrice          string                `json:"tax_price"`
	ShippingPrice     string                `json:"shipping_price"`
	DiscountAmount    string                `json:"discount_amount"`
	TotalPrice        string                `json:"total_price"`
	PaymentMethod     string                `json:"payment_method"`
	PaymentStatus     string                `json:"payment_status"`
	TrackingNumber    string                `json:"tracking_number,omitempty"`
	EstimatedDelivery *time.Time            `json:"estimated_delivery,omitempty"`
	ActualDelivery    *time.Time            `json:"actual_delivery,omitempty"`
	CreatedAt         time.Time             `json:"created_at"`
	Items             []OrderItemOutput     `json:"items"`
	StatusHistory     []StatusHistoryOutput `json:"status_history,omitempty"`
}

func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID int64, page int, limit int) ([]OrderOutput, int64, error) {
	if userID <= 0 {
		return nil, 0, NewHTTPError(http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var outs []OrderOutput
	var total int64

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, n, err := r.Orders().ListByUserID(ctx, userID, page, limit)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}
		total = n

		outs = make([]OrderOutput, 0, len(orders))
		for _, o := range orders {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
			}
			outs = append(outs, toOrderOutput(o, items, nil))
		}
		return nil
	})

	if err != nil {
		return nil, 0, err
	}
	return outs, total, nil
}

func (u *OrderUsecase) GetMyOrderDetail(ctx context.Context, userID int64, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, CodeNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}
		//他人の注文は「存在しない扱い」にする
		if o.UserID != userID {
			return NewHTTPError(http.StatusNotFound, CodeNotFound, "not found")
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}

		history, err := r.StatusHistory().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}

		out = toOrderOutput(o, items, history)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// 本人によるキャンセル。processing/confirmedの間だけ許可し、在庫を戻す。
func (u *OrderUsecase) CancelMyOrder(ctx context.Context, userID int64, orderID int64, note string) error {
	if userID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid id")
	}

	var cancelled model.Order

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, CodeNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}
		if o.UserID != userID {
			return NewHTTPError(http.StatusNotFound, CodeNotFound, "not found")
		}

		if !o.CanBeCancelled() {
			return NewHTTPError(http.StatusBadRequest, CodeConflict, "order can no longer be cancelled")
		}

		if err := restoreStock(ctx, r, orderID); err != nil {
			return err
		}

		if err := r.Orders().UpdateStatus(ctx, orderID, model.OrderStatusCancelled); err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}

		if note == "" {
			note = "Cancelled by customer"
		}
		if err := r.StatusHistory().Append(ctx, model.OrderStatusHistory{
			OrderID:   orderID,
			Status:    model.OrderStatusCancelled,
			Note:      note,
			CreatedAt: time.Now(),
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}

		cancelled = o
		return nil
	})
	if err != nil {
		return err
	}

	if err := u.publisher.PublishOrderEvent(ctx, events.OrderEvent{
		Type:        events.EventOrderCancelled,
		OrderID:     orderID,
		OrderNumber: cancelled.OrderNumber,
		UserID:      userID,
		TotalPrice:  cancelled.TotalPrice.StringFixed(2),
		Status:      string(model.OrderStatusCancelled),
		OccurredAt:  time.Now().Format(time.RFC3339),
	}); err != nil {
		u.logger.Warn().Err(err).Int64("order_id", orderID).Msg("order.cancelled publish failed")
	}

	return nil
}

// 注文明細の数量ぶん在庫を戻す（キャンセル・返金で共通）
func restoreStock(ctx context.Context, r repo.TxRepos, orderID int64) error {
	items, err := r.OrderItems().ListByOrderID(ctx, orderID)
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
	}

	for _, it := range items {
		if err := r.Inventory().IncreaseStock(ctx, it.ProductID, it.Quantity); err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}
	}
	return nil
}

func toOrderOutput(o model.Order, items []model.OrderItem, history []model.OrderStatusHistory) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			ProductID: it.ProductID,
			Name:      it.ProductNameSnapshot,
			ImageURL:  it.ProductImageSnapshot,
			Price:     it.UnitPriceSnapshot.StringFixed(2),
			Quantity:  it.Quantity,
		})
	}

	var outHistory []StatusHistoryOutput
	for _, h := range history {
		outHistory = append(outHistory, StatusHistoryOutput{
			Status:    string(h.Status),
			Note:      h.Note,
			Timestamp: h.CreatedAt,
		})
	}

	return OrderOutput{
		ID:                o.ID,
		OrderNumber:       o.OrderNumber,
		UserID:            o.UserID,
		Status:            string(o.Status),
		ItemsPrice:        o.ItemsPrice.StringFixed(2),
		TaxPrice:          o.TaxPrice.StringFixed(2),
		ShippingPrice:     o.ShippingPrice.StringFixed(2),
		DiscountAmount:    o.DiscountAmount.StringFixed(2),
		TotalPrice:        o.TotalPrice.StringFixed(2),
		PaymentMethod:     o.PaymentMethod,
		PaymentStatus:     string(o.PaymentStatus),
		TrackingNumber:    o.TrackingNumber,
		EstimatedDelivery: o.EstimatedDelivery,
		ActualDelivery:    o.ActualDelivery,
		CreatedAt:         o.CreatedAt,
		Items:             outItems,
		StatusHistory:     outHistory,
	}
}
