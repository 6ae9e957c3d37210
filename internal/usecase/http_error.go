package usecase

import (
	"errors"
	"fmt"
)

// 業務エラーコード。handlerがそのままレスポンスに載せる。
const (
	CodeEmptyCart            = "EMPTY_CART"
	CodeProductGone          = "PRODUCT_GONE"
	CodeProductInactive      = "PRODUCT_INACTIVE"
	CodeInsufficientStock    = "INSUFFICIENT_STOCK"
	CodeInvalidAddress       = "INVALID_ADDRESS"
	CodeInvalidPaymentMethod = "INVALID_PAYMENT_METHOD"
	CodeInvalidCoupon        = "INVALID_COUPON"
	CodePaymentDeclined      = "PAYMENT_DECLINED"
	CodeInvalidRefund        = "INVALID_REFUND"
	CodeValidation           = "VALIDATION"
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeForbidden            = "FORBIDDEN"
	CodeNotFound             = "NOT_FOUND"
	CodeConflict             = "CONFLICT"
	CodeInternal             = "INTERNAL"
)

type HTTPError struct {
	Status  int
	Code    string
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
}

func NewHTTPError(status int, code string, message string) error {
	return &HTTPError{
		Status:  status,
		Code:    code,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}
