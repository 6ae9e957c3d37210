package model

import "time"

type PaymentMethodType string

const (
	PaymentMethodTypeCard   PaymentMethodType = "card"
	PaymentMethodTypeBank   PaymentMethodType = "bank"
	PaymentMethodTypeWallet PaymentMethodType = "wallet"
)

// ユーザーの支払い手段。Typeごとに必須項目が変わる。
// card: Brand/Last4/ExpMonth/ExpYear
// bank: BankName/AccountLast4
// wallet: WalletProvider/WalletEmail
type PaymentMethod struct {
	ID     int64             `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID int64             `gorm:"not null;index" json:"user_id"`
	Type   PaymentMethodType `gorm:"type:varchar(20);not null" json:"type"`
	Label  string            `gorm:"type:varchar(100)" json:"label"`

	//card
	Brand    string `gorm:"type:varchar(30)" json:"brand,omitempty"`
	Last4    string `gorm:"type:varchar(4)" json:"last4,omitempty"`
	ExpMonth int    `json:"exp_month,omitempty"`
	ExpYear  int    `json:"exp_year,omitempty"`

	//bank
	BankName     string `gorm:"type:varchar(100)" json:"bank_name,omitempty"`
	AccountLast4 string `gorm:"type:varchar(4)" json:"account_last4,omitempty"`

	//wallet
	WalletProvider string `gorm:"type:varchar(30)" json:"wallet_provider,omitempty"`
	WalletEmail    string `gorm:"type:varchar(255)" json:"wallet_email,omitempty"`

	IsDefault bool      `gorm:"not null;default:false" json:"is_default"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
