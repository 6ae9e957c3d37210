package payment

import (
	"context"
	"errors"
	"strings"
	"time"

	"app/internal/domain/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
)

var ErrUnavailable = errors.New("payment processor unavailable")

// 外部プロセッサのモック実装。
// 代引きは即時成功（pending）、それ以外はブレーカー越しにモック課金する。
type MockGateway struct {
	cb *gobreaker.CircuitBreaker
}

func NewMockGateway() *MockGateway {
	st := gobreaker.Settings{
		Name:    "payment-processor",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}
	return &MockGateway{cb: gobreaker.NewCircuitBreaker(st)}
}

func (g *MockGateway) Process(ctx context.Context, method string, amount decimal.Decimal, details Details) (Result, error) {
	if method == model.PaymentMethodCashOnDelivery {
		//代引きは配達時決済なのでpendingのまま成功させる
		return Result{
			Success:       true,
			TransactionID: "COD-" + uuid.NewString(),
			Status:        string(model.PaymentStatusPending),
		}, nil
	}

	res, err := g.cb.Execute(func() (interface{}, error) {
		return g.charge(ctx, method, amount, details)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return Result{}, ErrUnavailable
		}
		return Result{}, err
	}

	return res.(Result), nil
}

// モック課金。下4桁が0000のカードだけ拒否扱いにする。
func (g *MockGateway) charge(ctx context.Context, method string, amount decimal.Decimal, details Details) (Result, error) {
	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	default:
	}

	if amount.LessThanOrEqual(decimal.Zero) {
		return Result{
			Success: false,
			Status:  string(model.PaymentStatusFailed),
			Message: "invalid charge amount",
		}, nil
	}

	if isCardMethod(method) && strings.HasSuffix(details.CardNumber, "0000") {
		return Result{
			Success: false,
			Status:  string(model.PaymentStatusFailed),
			Message: "card declined",
		}, nil
	}

	return Result{
		Success:       true,
		TransactionID: "TXN-" + uuid.NewString(),
		Status:        string(model.PaymentStatusCompleted),
	}, nil
}

func isCardMethod(method string) bool {
	return method == model.PaymentMethodCreditCard || method == model.PaymentMethodDebitCard
}
