package usecase

import "github.com/shopspring/decimal"

// 税率10%
var taxRate = decimal.NewFromFloat(0.10)

// 小計がこの額以上なら送料無料（ちょうど100も無料）
var freeShippingThreshold = decimal.NewFromInt(100)

var flatShippingFee = decimal.NewFromInt(10)

type PriceBreakdown struct {
	ItemsPrice     decimal.Decimal
	TaxPrice       decimal.Decimal
	ShippingPrice  decimal.Decimal
	DiscountAmount decimal.Decimal
	TotalPrice     decimal.Decimal
}

// 小計から税・送料・合計を確定する。税は小数2桁で丸める。
func computeTotals(itemsPrice decimal.Decimal, discount decimal.Decimal) PriceBreakdown {
	tax := itemsPrice.Mul(taxRate).Round(2)

	shipping := flatShippingFee
	if itemsPrice.GreaterThanOrEqual(freeShippingThreshold) {
		shipping = decimal.Zero
	}

	total := itemsPrice.Add(tax).Add(shipping).Sub(discount)

	return PriceBreakdown{
		ItemsPrice:     itemsPrice,
		TaxPrice:       tax,
		ShippingPrice:  shipping,
		DiscountAmount: discount,
		TotalPrice:     total,
	}
}
