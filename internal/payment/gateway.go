package payment

import (
	"context"

	"github.com/shopspring/decimal"
)

// 決済入力。カード系以外ではCardNumber等は空でよい。
type Details struct {
	CardNumber string `json:"card_number,omitempty"`
	CardHolder string `json:"card_holder,omitempty"`
	ExpMonth   int    `json:"exp_month,omitempty"`
	ExpYear    int    `json:"exp_year,omitempty"`
	CVV        string `json:"cvv,omitempty"`
	Email      string `json:"email,omitempty"`
}

type Result struct {
	Success       bool
	TransactionID string
	// pending / completed / failed
	Status  string
	Message string
}

// 決済処理の窓口。checkoutはこの結果を見てから永続化に進む。
type Gateway interface {
	Process(ctx context.Context, method string, amount decimal.Decimal, details Details) (Result, error)
}
