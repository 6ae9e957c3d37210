package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusProcessing     OrderStatus = "processing"
	OrderStatusConfirmed      OrderStatus = "confirmed"
	OrderStatusShipped        OrderStatus = "shipped"
	OrderStatusOutForDelivery OrderStatus = "out_for_delivery"
	OrderStatusDelivered      OrderStatus = "delivered"
	OrderStatusCancelled      OrderStatus = "cancelled"
	OrderStatusReturned       OrderStatus = "returned"
)

// 終端ステータスかどうか
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusDelivered, OrderStatusCancelled, OrderStatusReturned:
		return true
	}
	return false
}

func IsValidOrderStatus(s string) bool {
	switch OrderStatus(s) {
	case OrderStatusProcessing, OrderStatusConfirmed, OrderStatusShipped,
		OrderStatusOutForDelivery, OrderStatusDelivered,
		OrderStatusCancelled, OrderStatusReturned:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// 対応している支払い方法
const (
	PaymentMethodCreditCard     = "credit_card"
	PaymentMethodDebitCard      = "debit_card"
	PaymentMethodPaypal         = "paypal"
	PaymentMethodStripe         = "stripe"
	PaymentMethodCashOnDelivery = "cash_on_delivery"
)

func IsValidPaymentMethod(m string) bool {
	switch m {
	case PaymentMethodCreditCard, PaymentMethodDebitCard,
		PaymentMethodPaypal, PaymentMethodStripe, PaymentMethodCashOnDelivery:
		return true
	}
	return false
}

type Order struct {
	ID          int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderNumber string `gorm:"type:varchar(40);not null;uniqueIndex" json:"order_number"`
	UserID      int64  `gorm:"not null;index" json:"user_id"`

	Status OrderStatus `gorm:"type:varchar(20);not null;index" json:"status"`

	//金額内訳。作成時に確定し、以後再計算しない。
	ItemsPrice     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"items_price"`
	TaxPrice       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"tax_price"`
	ShippingPrice  decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"shipping_price"`
	DiscountAmount decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"discount_amount"`
	TotalPrice     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total_price"`
	CouponCode     string          `gorm:"type:varchar(40)" json:"coupon_code,omitempty"`

	//支払い情報
	PaymentMethod string        `gorm:"type:varchar(30);not null" json:"payment_method"`
	PaymentStatus PaymentStatus `gorm:"type:varchar(20);not null" json:"payment_status"`
	TransactionID string        `gorm:"type:varchar(64)" json:"transaction_id,omitempty"`
	PaidAt        *time.Time    `json:"paid_at,omitempty"`
	RefundAmount  *decimal.Decimal `gorm:"type:numeric(12,2)" json:"refund_amount,omitempty"`

	//配送先スナップショット（住所レコードへの参照は持たない）
	ShipName       string `gorm:"type:varchar(255);not null" json:"ship_name"`
	ShipPostalCode string `gorm:"type:varchar(20);not null" json:"ship_postal_code"`
	ShipPrefecture string `gorm:"type:varchar(100);not null" json:"ship_prefecture"`
	ShipCity       string `gorm:"type:varchar(255);not null" json:"ship_city"`
	ShipLine1      string `gorm:"type:varchar(255);not null" json:"ship_line1"`
	ShipLine2      string `gorm:"type:varchar(255)" json:"ship_line2"`
	ShipPhone      string `gorm:"type:varchar(30)" json:"ship_phone"`

	OrderNotes string `gorm:"type:varchar(500)" json:"order_notes,omitempty"`

	TrackingNumber    string     `gorm:"type:varchar(64)" json:"tracking_number,omitempty"`
	EstimatedDelivery *time.Time `json:"estimated_delivery,omitempty"`
	ActualDelivery    *time.Time `json:"actual_delivery,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// キャンセル可能なのはprocessing/confirmedの間だけ
func (o *Order) CanBeCancelled() bool {
	return o.Status == OrderStatusProcessing || o.Status == OrderStatusConfirmed
}
