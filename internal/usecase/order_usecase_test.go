package usecase_test

import (
	"context"
	"testing"

	"app/internal/domain/model"
	"app/internal/events"
	repo "app/internal/repository"
	"app/internal/usecase"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type orderFixture struct {
	tx        *TxManagerMock
	orders    *OrderRepoMock
	items     *OrderItemRepoMock
	history   *StatusHistoryRepoMock
	inventory *InventoryRepoMock
	publisher *PublisherMock

	uc *usecase.OrderUsecase
}

func newOrderFixture() *orderFixture {
	f := &orderFixture{
		tx:        new(TxManagerMock),
		orders:    new(OrderRepoMock),
		items:     new(OrderItemRepoMock),
		history:   new(StatusHistoryRepoMock),
		inventory: new(InventoryRepoMock),
		publisher: new(PublisherMock),
	}
	f.tx.Repos = &TxReposMock{
		orders:        f.orders,
		orderItems:    f.items,
		statusHistory: f.history,
		inventory:     f.inventory,
	}
	f.uc = usecase.NewOrderUsecase(f.tx, f.publisher, zerolog.Nop())
	return f
}

func TestGetMyOrderDetail_NotFound(t *testing.T) {
	f := newOrderFixture()

	f.tx.On("WithinTx", mock.Anything).Return(nil)
	f.orders.On("FindByID", mock.Anything, int64(9)).Return(model.Order{}, repo.ErrNotFound)

	_, err := f.uc.GetMyOrderDetail(context.Background(), 1, 9)

	he, _ := usecase.AsHTTPError(err)
	assert.Equal(t, usecase.CodeNotFound, he.Code)
}

// 他人の注文は404として扱う（存在を漏らさない）
func TestGetMyOrderDetail_OtherUsersOrder(t *testing.T) {
	f := newOrderFixture()

	f.tx.On("WithinTx", mock.Anything).Return(nil)
	f.orders.On("FindByID", mock.Anything, int64(9)).Return(model.Order{ID: 9, UserID: 2}, nil)

	_, err := f.uc.GetMyOrderDetail(context.Background(), 1, 9)

	he, _ := usecase.AsHTTPError(err)
	assert.Equal(t, usecase.CodeNotFound, he.Code)
	f.items.AssertNotCalled(t, "ListByOrderID", mock.Anything, mock.Anything)
}

func TestGetMyOrderDetail_Found(t *testing.T) {
	f := newOrderFixture()

	o := model.Order{
		ID:          9,
		UserID:      1,
		OrderNumber: "ORD-20260831-abcd1234",
		Status:      model.OrderStatusShipped,
		ItemsPrice:  price("40.00"),
		TotalPrice:  price("54.00"),
	}

	f.tx.On("WithinTx", mock.Anything).Return(nil)
	f.orders.On("FindByID", mock.Anything, int64(9)).Return(o, nil)
	f.items.On("ListByOrderID", mock.Anything, int64(9)).Return([]model.OrderItem{
		{ProductID: 100, ProductNameSnapshot: "Keyboard", UnitPriceSnapshot: price("40.00"), Quantity: 1},
	}, nil)
	f.history.On("ListByOrderID", mock.Anything, int64(9)).Return([]model.OrderStatusHistory{
		{OrderID: 9, Status: model.OrderStatusProcessing, Note: "Order placed"},
		{OrderID: 9, Status: model.OrderStatusShipped},
	}, nil)

	out, err := f.uc.GetMyOrderDetail(context.Background(), 1, 9)

	assert.NoError(t, err)
	assert.Equal(t, "ORD-20260831-abcd1234", out.OrderNumber)
	assert.Equal(t, "54.00", out.TotalPrice)
	assert.Len(t, out.Items, 1)
	assert.Equal(t, "40.00", out.Items[0].Price)
	assert.Len(t, out.StatusHistory, 2)
}

func TestListMyOrders_ClampsPaging(t *testing.T) {
	f := newOrderFixture()

	f.tx.On("WithinTx", mock.Anything).Return(nil)
	//page<1とlimit>100はデフォルトに丸める
	f.orders.On("ListByUserID", mock.Anything, int64(1), 1, 20).Return([]model.Order{}, int64(0), nil)

	outs, total, err := f.uc.ListMyOrders(context.Background(), 1, 0, 500)

	assert.NoError(t, err)
	assert.Empty(t, outs)
	assert.Equal(t, int64(0), total)
	f.orders.AssertExpectations(t)
}

func TestCancelMyOrder_RestoresStockAndPublishes(t *testing.T) {
	f := newOrderFixture()

	o := model.Order{
		ID:          9,
		UserID:      1,
		OrderNumber: "ORD-20260831-abcd1234",
		Status:      model.OrderStatusProcessing,
		TotalPrice:  price("54.00"),
	}

	f.tx.On("WithinTx", mock.Anything).Return(nil)
	f.orders.On("FindByID", mock.Anything, int64(9)).Return(o, nil)
	f.items.On("ListByOrderID", mock.Anything, int64(9)).Return([]model.OrderItem{
		{ProductID: 100, Quantity: 2},
		{ProductID: 200, Quantity: 1},
	}, nil)
	f.inventory.On("IncreaseStock", mock.Anything, int64(100), int64(2)).Return(nil)
	f.inventory.On("IncreaseStock", mock.Anything, int64(200), int64(1)).Return(nil)
	f.orders.On("UpdateStatus", mock.Anything, int64(9), model.OrderStatusCancelled).Return(nil)
	f.history.On("Append", mock.Anything, mock.MatchedBy(func(h model.OrderStatusHistory) bool {
		return h.OrderID == 9 && h.Status == model.OrderStatusCancelled && h.Note == "Cancelled by customer"
	})).Return(nil)
	f.publisher.On("PublishOrderEvent", mock.Anything, mock.MatchedBy(func(ev events.OrderEvent) bool {
		return ev.Type == events.EventOrderCancelled && ev.OrderID == 9 && ev.TotalPrice == "54.00"
	})).Return(nil)

	err := f.uc.CancelMyOrder(context.Background(), 1, 9, "")

	assert.NoError(t, err)
	f.inventory.AssertExpectations(t)
	f.history.AssertExpectations(t)
	f.publisher.AssertExpectations(t)
}

func TestCancelMyOrder_ShippedOrderRejected(t *testing.T) {
	f := newOrderFixture()

	f.tx.On("WithinTx", mock.Anything).Return(nil)
	f.orders.On("FindByID", mock.Anything, int64(9)).Return(model.Order{
		ID: 9, UserID: 1, Status: model.OrderStatusShipped,
	}, nil)

	err := f.uc.CancelMyOrder(context.Background(), 1, 9, "")

	assertErrContains(t, err, "order can no longer be cancelled")
	he, _ := usecase.AsHTTPError(err)
	assert.Equal(t, usecase.CodeConflict, he.Code)

	f.inventory.AssertNotCalled(t, "IncreaseStock", mock.Anything, mock.Anything, mock.Anything)
	f.orders.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestCancelMyOrder_CustomNoteKept(t *testing.T) {
	f := newOrderFixture()

	f.tx.On("WithinTx", mock.Anything).Return(nil)
	f.orders.On("FindByID", mock.Anything, int64(9)).Return(model.Order{
		ID: 9, UserID: 1, Status: model.OrderStatusConfirmed, TotalPrice: price("10.00"),
	}, nil)
	f.items.On("ListByOrderID", mock.Anything, int64(9)).Return([]model.OrderItem{}, nil)
	f.orders.On("UpdateStatus", mock.Anything, int64(9), model.OrderStatusCancelled).Return(nil)
	f.history.On("Append", mock.Anything, mock.MatchedBy(func(h model.OrderStatusHistory) bool {
		return h.Note == "ordered by mistake"
	})).Return(nil)
	f.publisher.On("PublishOrderEvent", mock.Anything, mock.Anything).Return(nil)

	err := f.uc.CancelMyOrder(context.Background(), 1, 9, "ordered by mistake")

	assert.NoError(t, err)
	f.history.AssertExpectations(t)
}
