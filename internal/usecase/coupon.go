package usecase

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
)

type Coupon struct {
	Code string
	//固定額の値引き
	Discount decimal.Decimal
	//この小計以上でないと使えない
	MinItemsPrice decimal.Decimal
}

// クーポンは固定テーブル。管理画面からの追加は対象外。
var couponTable = map[string]Coupon{
	"WELCOME10": {Code: "WELCOME10", Discount: decimal.NewFromInt(10), MinItemsPrice: decimal.NewFromInt(50)},
	"SAVE25":    {Code: "SAVE25", Discount: decimal.NewFromInt(25), MinItemsPrice: decimal.NewFromInt(150)},
	"FREESHIP5": {Code: "FREESHIP5", Discount: decimal.NewFromInt(5), MinItemsPrice: decimal.NewFromInt(20)},
}

// コード検証。小計が条件未満なら使えない。
func resolveCoupon(code string, itemsPrice decimal.Decimal) (decimal.Decimal, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return decimal.Zero, nil
	}

	c, ok := couponTable[code]
	if !ok {
		return decimal.Zero, NewHTTPError(http.StatusBadRequest, CodeInvalidCoupon, "unknown coupon code")
	}
	if itemsPrice.LessThan(c.MinItemsPrice) {
		return decimal.Zero, NewHTTPError(http.StatusBadRequest, CodeInvalidCoupon,
			"order does not meet the coupon minimum of "+c.MinItemsPrice.StringFixed(2))
	}

	return c.Discount, nil
}
