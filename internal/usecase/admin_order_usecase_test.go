package usecase_test

import (
	"context"
	"testing"

	"app/internal/domain/model"
	"app/internal/events"
	repo "app/internal/repository"
	"app/internal/usecase"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type adminOrderFixture struct {
	tx        *TxManagerMock
	orders    *OrderRepoMock
	items     *OrderItemRepoMock
	history   *StatusHistoryRepoMock
	inventory *InventoryRepoMock
	audit     *AuditRepoMock
	publisher *PublisherMock

	uc *usecase.AdminOrderUsecase
}

func newAdminOrderFixture() *adminOrderFixture {
	f := &adminOrderFixture{
		tx:        new(TxManagerMock),
		orders:    new(OrderRepoMock),
		items:     new(OrderItemRepoMock),
		history:   new(StatusHistoryRepoMock),
		inventory: new(InventoryRepoMock),
		audit:     new(AuditRepoMock),
		publisher: new(PublisherMock),
	}
	f.tx.Repos = &TxReposMock{
		orders:        f.orders,
		orderItems:    f.items,
		statusHistory: f.history,
		inventory:     f.inventory,
	}
	f.uc = usecase.NewAdminOrderUsecase(f.tx, f.audit, f.publisher, zerolog.Nop())
	return f
}

func TestAdminList_InvalidStatusRejected(t *testing.T) {
	f := newAdminOrderFixture()

	_, _, err := f.uc.List(context.Background(), repo.AdminOrderListFilter{
		Page: 1, Limit: 20, Status: "exploded",
	})

	he, _ := usecase.AsHTTPError(err)
	assert.Equal(t, usecase.CodeValidation, he.Code)
	f.tx.AssertNotCalled(t, "WithinTx", mock.Anything)
}

func TestAdminList_InvalidPaging(t *testing.T) {
	f := newAdminOrderFixture()

	_, _, err := f.uc.List(context.Background(), repo.AdminOrderListFilter{Page: 0, Limit: 20})
	assertErrContains(t, err, "invalid page")

	_, _, err = f.uc.List(context.Background(), repo.AdminOrderListFilter{Page: 1, Limit: 1000})
	assertErrContains(t, err, "invalid limit")
}

func TestAdminUpdateStatus_SameStatusIsNoop(t *testing.T) {
	f := newAdminOrderFixture()

	f.tx.On("WithinTx", mock.Anything).Return(nil)
	f.orders.On("FindByID", mock.Anything, int64(9)).Return(model.Order{
		ID: 9, Status: model.OrderStatusShipped,
	}, nil)

	err := f.uc.UpdateStatus(context.Background(), 7, 9, usecase.AdminUpdateOrderStatusInput{
		Status: "shipped",
	})

	assert.NoError(t, err)
	f.orders.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	f.history.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	f.audit.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAdminUpdateStatus_TerminalOrderRejected(t *testing.T) {
	f := newAdminOrderFixture()

	f.tx.On("WithinTx", mock.Anything).Return(nil)
	f.orders.On("FindByID", mock.Anything, int64(9)).Return(model.Order{
		ID: 9, Status: model.OrderStatusDelivered,
	}, nil)

	err := f.uc.UpdateStatus(context.Background(), 7, 9, usecase.AdminUpdateOrderStatusInput{
		Status: "shipped",
	})

	assertErrContains(t, err, "order is in a terminal state")
	he, _ := usecase.AsHTTPError(err)
	assert.Equal(t, usecase.CodeConflict, he.Code)
}

// 非終端同士なら巻き戻しも許す（shipped -> confirmed）
func TestAdminUpdateStatus_BackwardsTransitionAllowed(t *testing.T) {
	f := newAdminOrderFixture()

	f.tx.On("WithinTx", mock.Anything).Return(nil)
	f.orders.On("FindByID", mock.Anything, int64(9)).Return(model.Order{
		ID: 9, Status: model.OrderStatusShipped,
	}, nil)
	f.orders.On("UpdateStatus", mock.Anything, int64(9), model.OrderStatusConfirmed).Return(nil)
	f.history.On("Append", mock.Anything, mock.Anything).Return(nil)
	f.audit.On("Create", mock.Anything, mock.MatchedBy(func(a model.AuditLog) bool {
		return a.Action == model.AuditActionUpdateOrderStatus &&
			a.ResourceID == 9 &&
			a.BeforeJSON == `{"status":"shipped"}` &&
			a.AfterJSON == `{"status":"confirmed"}`
	})).Return(nil)

	err := f.uc.UpdateStatus(context.Background(), 7, 9, usecase.AdminUpdateOrderStatusInput{
		Status: "confirmed",
	})

	assert.NoError(t, err)
	f.audit.AssertExpectations(t)
}

func TestAdminUpdateStatus_CancelRestoresStock(t *testing.T) {
	f := newAdminOrderFixture()

	f.tx.On("WithinTx", mock.Anything).Return(nil)
	f.orders.On("FindByID", mock.Anything, int64(9)).Return(model.Order{
		ID: 9, Status: model.OrderStatusProcessing,
	}, nil)
	f.items.On("ListByOrderID", mock.Anything, int64(9)).Return([]model.OrderItem{
		{ProductID: 100, Quantity: 3},
	}, nil)
	f.inventory.On("IncreaseStock", mock.Anything, int64(100), int64(3)).Return(nil)
	f.orders.On("UpdateStatus", mock.Anything, int64(9), model.OrderStatusCancelled).Return(nil)
	f.history.On("Append", mock.Anything, mock.MatchedBy(func(h model.OrderStatusHistory) bool {
		return h.Status == model.OrderStatusCancelled
	})).Return(nil)
	f.audit.On("Create", mock.Anything, mock.Anything).Return(nil)

	err := f.uc.UpdateStatus(context.Background(), 7, 9, usecase.AdminUpdateOrderStatusInput{
		Status: "cancelled",
	})

	assert.NoError(t, err)
	f.inventory.AssertExpectations(t)
}

// shippedからのcancelledは管理者でも不可
func TestAdminUpdateStatus_CancelShippedRejected(t *testing.T) {
	f := newAdminOrderFixture()

	f.tx.On("WithinTx", mock.Anything).Return(nil)
	f.orders.On("FindByID", mock.Anything, int64(9)).Return(model.Order{
		ID: 9, Status: model.OrderStatusShipped,
	}, nil)

	err := f.uc.UpdateStatus(context.Background(), 7, 9, usecase.AdminUpdateOrderStatusInput{
		Status: "cancelled",
	})

	assertErrContains(t, err, "order can no longer be cancelled")
	f.inventory.AssertNotCalled(t, "IncreaseStock", mock.Anything, mock.Anything, mock.Anything)
}

func TestAdminUpdateStatus_DeliveredSetsActualDelivery(t *testing.T) {
	f := newAdminOrderFixture()

	f.tx.On("WithinTx", mock.Anything).Return(nil)
	f.orders.On("FindByID", mock.Anything, int64(9)).Return(model.Order{
		ID: 9, Status: model.OrderStatusOutForDelivery,
	}, nil)
	f.orders.On("UpdateStatus", mock.Anything, int64(9), model.OrderStatusDelivered).Return(nil)
	f.orders.On("SetActualDelivery", mock.Anything, int64(9), mock.Anything).Return(nil)
	f.history.On("Append", mock.Anything, mock.Anything).Return(nil)
	f.audit.On("Create", mock.Anything, mock.Anything).Return(nil)

	err := f.uc.UpdateStatus(context.Background(), 7, 9, usecase.AdminUpdateOrderStatusInput{
		Status: "delivered",
	})

	assert.NoError(t, err)
	f.orders.AssertExpectations(t)
}

func TestAdminUpdateStatus_TrackingNumberStored(t *testing.T) {
	f := newAdminOrderFixture()

	f.tx.On("WithinTx", mock.Anything).Return(nil)
	f.orders.On("FindByID", mock.Anything, int64(9)).Return(model.Order{
		ID: 9, Status: model.OrderStatusConfirmed,
	}, nil)
	f.orders.On("UpdateStatus", mock.Anything, int64(9), model.OrderStatusShipped).Return(nil)
	f.orders.On("SetTrackingNumber", mock.Anything, int64(9), "JP123456789").Return(nil)
	f.history.On("Append", mock.Anything, mock.Anything).Return(nil)
	f.audit.On("Create", mock.Anything, mock.Anything).Return(nil)

	err := f.uc.UpdateStatus(context.Background(), 7, 9, usecase.AdminUpdateOrderStatusInput{
		Status:         "shipped",
		TrackingNumber: "JP123456789",
	})

	assert.NoError(t, err)
	f.orders.AssertExpectations(t)
}

func TestAdminRefund_InvalidAmount(t *testing.T) {
	f := newAdminOrderFixture()

	err := f.uc.Refund(context.Background(), 7, 9, usecase.AdminRefundInput{Amount: "abc"})
	assertErrContains(t, err, "invalid refund amount")

	err = f.uc.Refund(context.Background(), 7, 9, usecase.AdminRefundInput{Amount: "0"})
	assertErrContains(t, err, "invalid refund amount")

	err = f.uc.Refund(context.Background(), 7, 9, usecase.AdminRefundInput{Amount: "-5.00"})
	assertErrContains(t, err, "invalid refund amount")

	f.tx.AssertNotCalled(t, "WithinTx", mock.Anything)
}

// deliveredは終端なので返金も拒否
func TestAdminRefund_TerminalOrderRejected(t *testing.T) {
	f := newAdminOrderFixture()

	f.tx.On("WithinTx", mock.Anything).Return(nil)
	f.orders.On("FindByID", mock.Anything, int64(9)).Return(model.Order{
		ID: 9, Status: model.OrderStatusDelivered, TotalPrice: price("54.00"),
		PaymentStatus: model.PaymentStatusCompleted,
	}, nil)

	err := f.uc.Refund(context.Background(), 7, 9, usecase.AdminRefundInput{Amount: "100.00"})

	assertErrContains(t, err, "order is in a terminal state")
}

func TestAdminRefund_ExceedsOrderTotal(t *testing.T) {
	f := newAdminOrderFixture()

	f.tx.On("WithinTx", mock.Anything).Return(nil)
	f.orders.On("FindByID", mock.Anything, int64(9)).Return(model.Order{
		ID: 9, Status: model.OrderStatusShipped, TotalPrice: price("54.00"),
		PaymentStatus: model.PaymentStatusCompleted,
	}, nil)

	err := f.uc.Refund(context.Background(), 7, 9, usecase.AdminRefundInput{Amount: "100.00"})

	assertErrContains(t, err, "refund amount exceeds order total")
	he, _ := usecase.AsHTTPError(err)
	assert.Equal(t, usecase.CodeInvalidRefund, he.Code)
	f.inventory.AssertNotCalled(t, "IncreaseStock", mock.Anything, mock.Anything, mock.Anything)
}

func TestAdminRefund_AlreadyRefunded(t *testing.T) {
	f := newAdminOrderFixture()

	f.tx.On("WithinTx", mock.Anything).Return(nil)
	f.orders.On("FindByID", mock.Anything, int64(9)).Return(model.Order{
		ID: 9, Status: model.OrderStatusShipped, TotalPrice: price("54.00"),
		PaymentStatus: model.PaymentStatusRefunded,
	}, nil)

	err := f.uc.Refund(context.Background(), 7, 9, usecase.AdminRefundInput{Amount: "54.00"})

	assertErrContains(t, err, "order already refunded")
}

func TestAdminRefund_FullFlow(t *testing.T) {
	f := newAdminOrderFixture()

	f.tx.On("WithinTx", mock.Anything).Return(nil)
	f.orders.On("FindByID", mock.Anything, int64(9)).Return(model.Order{
		ID: 9, UserID: 3, OrderNumber: "ORD-20260831-abcd1234",
		Status: model.OrderStatusShipped, TotalPrice: price("54.00"),
		PaymentStatus: model.PaymentStatusCompleted,
	}, nil)
	f.items.On("ListByOrderID", mock.Anything, int64(9)).Return([]model.OrderItem{
		{ProductID: 100, Quantity: 1},
	}, nil)
	f.inventory.On("IncreaseStock", mock.Anything, int64(100), int64(1)).Return(nil)
	f.orders.On("UpdatePaymentStatus", mock.Anything, int64(9), model.PaymentStatusRefunded,
		mock.MatchedBy(func(a *decimal.Decimal) bool { return a != nil && a.Equal(price("54.00")) }),
	).Return(nil)
	f.orders.On("UpdateStatus", mock.Anything, int64(9), model.OrderStatusReturned).Return(nil)
	f.history.On("Append", mock.Anything, mock.MatchedBy(func(h model.OrderStatusHistory) bool {
		return h.Status == model.OrderStatusReturned && h.Note == "Refunded 54.00"
	})).Return(nil)
	f.audit.On("Create", mock.Anything, mock.MatchedBy(func(a model.AuditLog) bool {
		return a.Action == model.AuditActionRefundOrder &&
			a.ResourceID == 9 &&
			a.AfterJSON == `{"payment_status":"refunded","amount":"54.00"}`
	})).Return(nil)
	f.publisher.On("PublishOrderEvent", mock.Anything, mock.MatchedBy(func(ev events.OrderEvent) bool {
		return ev.Type == events.EventOrderRefunded &&
			ev.OrderID == 9 &&
			ev.UserID == 3 &&
			ev.TotalPrice == "54.00" &&
			ev.Status == "returned"
	})).Return(nil)

	err := f.uc.Refund(context.Background(), 7, 9, usecase.AdminRefundInput{Amount: "54.00"})

	assert.NoError(t, err)
	f.orders.AssertExpectations(t)
	f.inventory.AssertExpectations(t)
	f.audit.AssertExpectations(t)
	f.publisher.AssertExpectations(t)
}
