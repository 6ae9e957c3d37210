package usecase

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestComputeTotals_BelowFreeShipping(t *testing.T) {
	// 40.00 → 税4.00 + 送料10 = 54.00
	b := computeTotals(d("40.00"), decimal.Zero)

	assert.True(t, b.TaxPrice.Equal(d("4.00")), "tax=%s", b.TaxPrice)
	assert.True(t, b.ShippingPrice.Equal(d("10")), "shipping=%s", b.ShippingPrice)
	assert.True(t, b.TotalPrice.Equal(d("54.00")), "total=%s", b.TotalPrice)
}

func TestComputeTotals_ExactlyAtThreshold_FreeShipping(t *testing.T) {
	// ちょうど100.00は送料無料
	b := computeTotals(d("100.00"), decimal.Zero)

	assert.True(t, b.ShippingPrice.IsZero(), "shipping=%s", b.ShippingPrice)
	assert.True(t, b.TotalPrice.Equal(d("110.00")), "total=%s", b.TotalPrice)
}

func TestComputeTotals_JustBelowThreshold_ChargesShipping(t *testing.T) {
	b := computeTotals(d("99.99"), decimal.Zero)

	assert.True(t, b.ShippingPrice.Equal(d("10")), "shipping=%s", b.ShippingPrice)
	// 99.99 + 10.00(tax, 9.999→丸め) + 10 = 119.99
	assert.True(t, b.TaxPrice.Equal(d("10.00")), "tax=%s", b.TaxPrice)
	assert.True(t, b.TotalPrice.Equal(d("119.99")), "total=%s", b.TotalPrice)
}

func TestComputeTotals_DiscountReducesTotal(t *testing.T) {
	b := computeTotals(d("200.00"), d("25"))

	assert.True(t, b.DiscountAmount.Equal(d("25")))
	// 200 + 20 + 0 - 25 = 195
	assert.True(t, b.TotalPrice.Equal(d("195.00")), "total=%s", b.TotalPrice)
}

func TestResolveCoupon_EmptyCode_NoDiscount(t *testing.T) {
	discount, err := resolveCoupon("", d("500"))
	assert.NoError(t, err)
	assert.True(t, discount.IsZero())
}

func TestResolveCoupon_UnknownCode(t *testing.T) {
	_, err := resolveCoupon("NOPE", d("500"))
	assertCouponErr(t, err, "unknown coupon code")
}

func TestResolveCoupon_CaseInsensitive(t *testing.T) {
	discount, err := resolveCoupon("welcome10", d("60"))
	assert.NoError(t, err)
	assert.True(t, discount.Equal(d("10")))
}

func TestResolveCoupon_BelowMinimum(t *testing.T) {
	_, err := resolveCoupon("SAVE25", d("149.99"))
	assertCouponErr(t, err, "minimum")
}

func TestResolveCoupon_ExactlyAtMinimum(t *testing.T) {
	discount, err := resolveCoupon("SAVE25", d("150.00"))
	assert.NoError(t, err)
	assert.True(t, discount.Equal(d("25")))
}

func assertCouponErr(t *testing.T, err error, substr string) {
	t.Helper()
	if assert.Error(t, err) {
		he, ok := AsHTTPError(err)
		if assert.True(t, ok) {
			assert.Equal(t, CodeInvalidCoupon, he.Code)
			assert.Contains(t, he.Message, substr)
		}
	}
}
