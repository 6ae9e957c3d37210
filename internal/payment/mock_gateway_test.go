package payment

import (
	"context"
	"strings"
	"testing"

	"app/internal/domain/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func amount(s string) decimal.Decimal {
	v, _ := decimal.NewFromString(s)
	return v
}

func TestProcess_CashOnDelivery_PendingWithoutCharge(t *testing.T) {
	g := NewMockGateway()

	res, err := g.Process(context.Background(), model.PaymentMethodCashOnDelivery, amount("54.00"), Details{})

	assert.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, string(model.PaymentStatusPending), res.Status)
	assert.True(t, strings.HasPrefix(res.TransactionID, "COD-"))
}

func TestProcess_Card_Success(t *testing.T) {
	g := NewMockGateway()

	res, err := g.Process(context.Background(), model.PaymentMethodCreditCard, amount("54.00"), Details{
		CardNumber: "4242424242424242",
	})

	assert.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, string(model.PaymentStatusCompleted), res.Status)
	assert.True(t, strings.HasPrefix(res.TransactionID, "TXN-"))
}

// 下4桁0000のテストカードは拒否される（エラーではなく失敗の結果を返す）
func TestProcess_Card_Declined(t *testing.T) {
	g := NewMockGateway()

	res, err := g.Process(context.Background(), model.PaymentMethodCreditCard, amount("54.00"), Details{
		CardNumber: "4242424242420000",
	})

	assert.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, string(model.PaymentStatusFailed), res.Status)
	assert.Equal(t, "card declined", res.Message)
}

// 拒否カードでもwalletなら通る（カード番号は見ない）
func TestProcess_NonCardMethod_IgnoresCardNumber(t *testing.T) {
	g := NewMockGateway()

	res, err := g.Process(context.Background(), model.PaymentMethodPaypal, amount("54.00"), Details{
		CardNumber: "4242424242420000",
	})

	assert.NoError(t, err)
	assert.True(t, res.Success)
}

func TestProcess_ZeroAmount_Declined(t *testing.T) {
	g := NewMockGateway()

	res, err := g.Process(context.Background(), model.PaymentMethodCreditCard, decimal.Zero, Details{
		CardNumber: "4242424242424242",
	})

	assert.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "invalid charge amount", res.Message)
}

// プロセッサ側エラーが5連続でブレーカーが開き、以降はErrUnavailable
func TestProcess_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	g := NewMockGateway()

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	for i := 0; i < 5; i++ {
		_, err := g.Process(cancelled, model.PaymentMethodCreditCard, amount("54.00"), Details{
			CardNumber: "4242424242424242",
		})
		assert.Error(t, err)
	}

	_, err := g.Process(context.Background(), model.PaymentMethodCreditCard, amount("54.00"), Details{
		CardNumber: "4242424242424242",
	})
	assert.ErrorIs(t, err, ErrUnavailable)

	//代引きはブレーカーを経由しないので生きている
	res, err := g.Process(context.Background(), model.PaymentMethodCashOnDelivery, amount("54.00"), Details{})
	assert.NoError(t, err)
	assert.True(t, res.Success)
}

// 決済拒否はエラーではないのでブレーカーは開かない
func TestProcess_DeclinesDoNotTripBreaker(t *testing.T) {
	g := NewMockGateway()

	for i := 0; i < 10; i++ {
		res, err := g.Process(context.Background(), model.PaymentMethodCreditCard, amount("54.00"), Details{
			CardNumber: "4242424242420000",
		})
		assert.NoError(t, err)
		assert.False(t, res.Success)
	}

	res, err := g.Process(context.Background(), model.PaymentMethodCreditCard, amount("54.00"), Details{
		CardNumber: "4242424242424242",
	})
	assert.NoError(t, err)
	assert.True(t, res.Success)
}
