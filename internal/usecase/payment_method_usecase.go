package usecase

import (
	"context"
	"net/http"
	"strings"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"
)

// PaymentMethodUsecase は保存済み支払い手段の業務ロジックです。
// カード番号そのものは預からず、表示用の情報だけ保存する。
type PaymentMethodUsecase struct {
	pmRepo repo.PaymentMethodRepository
}

func NewPaymentMethodUsecase(pmRepo repo.PaymentMethodRepository) *PaymentMethodUsecase {
	return &PaymentMethodUsecase{pmRepo: pmRepo}
}

type CreatePaymentMethodInput struct {
	Type  string `json:"type"`
	Label string `json:"label"`

	Brand    string `json:"brand"`
	Last4    string `json:"last4"`
	ExpMonth int    `json:"exp_month"`
	ExpYear  int    `json:"exp_year"`

	BankName     string `json:"bank_name"`
	AccountLast4 string `json:"account_last4"`

	WalletProvider string `json:"wallet_provider"`
	WalletEmail    string `json:"wallet_email"`

	IsDefault bool `json:"is_default"`
}

func isLast4(s string) bool {
	if len(s) != 4 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Typeごとの必須項目チェック。
func (in *CreatePaymentMethodInput) validate() error {
	switch model.PaymentMethodType(in.Type) {
	case model.PaymentMethodTypeCard:
		if in.Brand == "" || !isLast4(in.Last4) {
			return NewHTTPError(http.StatusBadRequest, CodeValidation, "brand and last4 are required for card")
		}
		if in.ExpMonth < 1 || in.ExpMonth > 12 {
			return NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid exp_month")
		}
		if in.ExpYear < time.Now().Year() {
			return NewHTTPError(http.StatusBadRequest, CodeValidation, "card is expired")
		}
	case model.PaymentMethodTypeBank:
		if strings.TrimSpace(in.BankName) == "" || !isLast4(in.AccountLast4) {
			return NewHTTPError(http.StatusBadRequest, CodeValidation, "bank_name and account_last4 are required for bank")
		}
	case model.PaymentMethodTypeWallet:
		if in.WalletProvider == "" || !strings.Contains(in.WalletEmail, "@") {
			return NewHTTPError(http.StatusBadRequest, CodeValidation, "wallet_provider and wallet_email are required for wallet")
		}
	default:
		return NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid type")
	}
	return nil
}

func (u *PaymentMethodUsecase) List(ctx context.Context, userID int64) ([]model.PaymentMethod, error) {
	if userID <= 0 {
		return nil, NewHTTPError(http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
	}
	pms, err := u.pmRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
	}
	return pms, nil
}

func (u *PaymentMethodUsecase) Create(ctx context.Context, userID int64, in CreatePaymentMethodInput) (model.PaymentMethod, error) {
	if userID <= 0 {
		return model.PaymentMethod{}, NewHTTPError(http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
	}
	if err := in.validate(); err != nil {
		return model.PaymentMethod{}, err
	}

	pm := model.PaymentMethod{
		UserID: userID,
		Type:   model.PaymentMethodType(in.Type),
		Label:  strings.TrimSpace(in.Label),
	}

	//Typeに関係ない項目は捨てる
	switch pm.Type {
	case model.PaymentMethodTypeCard:
		pm.Brand = in.Brand
		pm.Last4 = in.Last4
		pm.ExpMonth = in.ExpMonth
		pm.ExpYear = in.ExpYear
	case model.PaymentMethodTypeBank:
		pm.BankName = strings.TrimSpace(in.BankName)
		pm.AccountLast4 = in.AccountLast4
	case model.PaymentMethodTypeWallet:
		pm.WalletProvider = in.WalletProvider
		pm.WalletEmail = strings.TrimSpace(strings.ToLower(in.WalletEmail))
	}

	created, err := u.pmRepo.Create(ctx, pm)
	if err != nil {
		return model.PaymentMethod{}, NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
	}

	if in.IsDefault {
		if err := u.pmRepo.SetDefault(ctx, userID, created.ID); err != nil {
			return model.PaymentMethod{}, NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}
		created.IsDefault = true
	}
	return created, nil
}

func (u *PaymentMethodUsecase) Delete(ctx context.Context, userID, id int64) error {
	if userID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
	}
	if id <= 0 {
		return NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid id")
	}

	owned, err := u.pmRepo.IsOwnedByUser(ctx, id, userID)
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
	}
	if !owned {
		return NewHTTPError(http.StatusNotFound, CodeNotFound, "not found")
	}

	if err := u.pmRepo.DeleteByID(ctx, id); err != nil {
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, CodeNotFound, "not found")
		}
		return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
	}
	return nil
}

func (u *PaymentMethodUsecase) SetDefault(ctx context.Context, userID, id int64) error {
	if userID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
	}
	if id <= 0 {
		return NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid id")
	}

	owned, err := u.pmRepo.IsOwnedByUser(ctx, id, userID)
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
	}
	if !owned {
		return NewHTTPError(http.StatusNotFound, CodeNotFound, "not found")
	}

	if err := u.pmRepo.SetDefault(ctx, userID, id); err != nil {
		return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
	}
	return nil
}
