package usecase

import (
	"context"
	"net/http"
	"strings"
	"time"

	"app/internal/domain/model"
	"app/internal/events"
	repo "app/internal/repository"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type AdminOrderUsecase struct {
	tx        repo.TransactionManager
	auditRepo repo.AuditLogRepository
	publisher events.Publisher
	logger    zerolog.Logger
}

func NewAdminOrderUsecase(
	tx repo.TransactionManager,
	auditRepo repo.AuditLogRepository,
	publisher events.Publisher,
	logger zerolog.Logger,
) *AdminOrderUsecase {
	return &AdminOrderUsecase{tx: tx, auditRepo: auditRepo, publisher: publisher, logger: logger}
}

type AdminUpdateOrderStatusInput struct {
	Status         string
	Note           string
	TrackingNumber string
}

type AdminRefundInput struct {
	Amount string
	Note   string
}

// 注文一覧
func (u *AdminOrderUsecase) List(ctx context.Context, f repo.AdminOrderListFilter) ([]OrderOutput, int64, error) {
	if f.Page < 1 {
		return nil, 0, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid page")
	}
	if f.Limit < 1 || f.Limit > 100 {
		return nil, 0, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid limit")
	}
	if f.Status != "" && !model.IsValidOrderStatus(f.Status) {
		return nil, 0, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid status")
	}

	var outs []OrderOutput
	var total int64

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, n, err := r.Orders().ListAdmin(ctx, f)
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

// ステータス更新。
// 非終端同士の遷移は順序を強制しない（管理側の巻き戻し運用を認める）。
// 終端からの遷移は拒否。cancelledへの遷移は在庫を戻す。
func (u *AdminOrderUsecase) UpdateStatus(ctx context.Context, actorAdminUserID int64, orderID int64, in AdminUpdateOrderStatusInput) error {
	if actorAdminUserID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid id")
	}

	newStatus := strings.TrimSpace(in.Status)
	if !model.IsValidOrderStatus(newStatus) {
		return NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid status")
	}
	target := model.OrderStatus(newStatus)

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, CodeNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}

		// すでに同じなら何もしない（200）
		if o.Status == target {
			return nil
		}
		// 終端からは動かせない
		if o.Status.IsTerminal() {
			return NewHTTPError(http.StatusBadRequest, CodeConflict, "order is in a terminal state")
		}

		if target == model.OrderStatusCancelled {
			//キャンセルはprocessing/confirmedの間だけ。在庫を戻す。
			if !o.CanBeCancelled() {
				return NewHTTPError(http.StatusBadRequest, CodeConflict, "order can no longer be cancelled")
			}
			if err := restoreStock(ctx, r, orderID); err != nil {
				return err
			}
		}

		now := time.Now()

		if err := r.Orders().UpdateStatus(ctx, orderID, target); err != nil {
			if err == repo.ErrNotFound {
				return NewHTTPError(http.StatusNotFound, CodeNotFound, "not found")
			}
			return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}

		if in.TrackingNumber != "" {
			if err := r.Orders().SetTrackingNumber(ctx, orderID, in.TrackingNumber); err != nil {
				return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
			}
		}
		if target == model.OrderStatusDelivered {
			if err := r.Orders().SetActualDelivery(ctx, orderID, now); err != nil {
				return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
			}
		}

		if err := r.StatusHistory().Append(ctx, model.OrderStatusHistory{
			OrderID:   orderID,
			Status:    target,
			Note:      in.Note,
			CreatedAt: now,
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}

		//監査ログ（UPDATE_ORDER_STATUS）
		beforeJSON := `{"status":"` + string(o.Status) + `"}`
		afterJSON := `{"status":"` + newStatus + `"}`
		if err := u.auditRepo.Create(ctx, model.AuditLog{
			ActorUserID:  actorAdminUserID,
			Action:       model.AuditActionUpdateOrderStatus,
			ResourceType: model.AuditResourceOrder,
			ResourceID:   orderID,
			BeforeJSON:   beforeJSON,
			AfterJSON:    afterJSON,
			CreatedAt:    now,
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}

		return nil
	})
}

// 返金。支払いをrefundedにし、注文をreturnedへ遷移させて在庫を戻す。
// 要求額が注文合計を超える返金は受け付けない。
func (u *AdminOrderUsecase) Refund(ctx context.Context, actorAdminUserID int64, orderID int64, in AdminRefundInput) error {
	if actorAdminUserID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid id")
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(in.Amount))
	if err != nil || amount.LessThanOrEqual(decimal.Zero) {
		return NewHTTPError(http.StatusBadRequest, CodeInvalidRefund, "invalid refund amount")
	}

	var refunded model.Order

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, CodeNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}

		//二重の在庫戻しを防ぐ
		if o.Status.IsTerminal() {
			return NewHTTPError(http.StatusBadRequest, CodeConflict, "order is in a terminal state")
		}
		if o.PaymentStatus == model.PaymentStatusRefunded {
			return NewHTTPError(http.StatusBadRequest, CodeConflict, "order already refunded")
		}
		if amount.GreaterThan(o.TotalPrice) {
			return NewHTTPError(http.StatusBadRequest, CodeInvalidRefund, "refund amount exceeds order total")
		}

		if err := restoreStock(ctx, r, orderID); err != nil {
			return err
		}

		if err := r.Orders().UpdatePaymentStatus(ctx, orderID, model.PaymentStatusRefunded, &amount); err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}
		if err := r.Orders().UpdateStatus(ctx, orderID, model.OrderStatusReturned); err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}

		now := time.Now()
		note := in.Note
		if note == "" {
			note = "Refunded " + amount.StringFixed(2)
		}
		if err := r.StatusHistory().Append(ctx, model.OrderStatusHistory{
			OrderID:   orderID,
			Status:    model.OrderStatusReturned,
			Note:      note,
			CreatedAt: now,
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}

		//監査ログ（REFUND_ORDER）
		beforeJSON := `{"payment_status":"` + string(o.PaymentStatus) + `"}`
		afterJSON := `{"payment_status":"refunded","amount":"` + amount.StringFixed(2) + `"}`
		if err := u.auditRepo.Create(ctx, model.AuditLog{
			ActorUserID:  actorAdminUserID,
			Action:       model.AuditActionRefundOrder,
			ResourceType: model.AuditResourceOrder,
			ResourceID:   orderID,
			BeforeJSON:   beforeJSON,
			AfterJSON:    afterJSON,
			CreatedAt:    now,
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}

		refunded = o
		return nil
	})
	if err != nil {
		return err
	}

	if err := u.publisher.PublishOrderEvent(ctx, events.OrderEvent{
		Type:        events.EventOrderRefunded,
		OrderID:     orderID,
		OrderNumber: refunded.OrderNumber,
		UserID:      refunded.UserID,
		TotalPrice:  amount.StringFixed(2),
		Status:      string(model.OrderStatusReturned),
		OccurredAt:  time.Now().Format(time.RFC3339),
	}); err != nil {
		u.logger.Warn().Err(err).Int64("order_id", orderID).Msg("order.refunded publish failed")
	}

	return nil
}
