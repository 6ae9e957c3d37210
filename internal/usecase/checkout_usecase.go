package usecase

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"app/internal/domain/model"
	"app/internal/events"
	"app/internal/payment"
	repo "app/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// 注文確定（checkout）の業務ロジック。
// カート検証 → 価格確定 → 決済 → 1トランザクションでの永続化、の順で進める。
// 決済が通るまでDBには一切書かない。
type CheckoutUsecase struct {
	tx        repo.TransactionManager
	carts     repo.CartRepository
	cartItems repo.CartItemRepository
	products  repo.ProductRepository
	addresses repo.AddressRepository
	gateway   payment.Gateway
	publisher events.Publisher
	logger    zerolog.Logger
}

func NewCheckoutUsecase(
	tx repo.TransactionManager,
	carts repo.CartRepository,
	cartItems repo.CartItemRepository,
	products repo.ProductRepository,
	addresses repo.AddressRepository,
	gateway payment.Gateway,
	publisher events.Publisher,
	logger zerolog.Logger,
) *CheckoutUsecase {
	return &CheckoutUsecase{
		tx:        tx,
		carts:     carts,
		cartItems: cartItems,
		products:  products,
		addresses: addresses,
		gateway:   gateway,
		publisher: publisher,
		logger:    logger,
	}
}

// 新規住所を直接指定する場合の入力
type NewAddressInput struct {
	Name       string `json:"name"`
	PostalCode string `json:"postal_code"`
	Prefecture string `json:"prefecture"`
	City       string `json:"city"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	Phone      string `json:"phone"`
}

type PlaceOrderInput struct {
	//保存済み住所のID。NewAddressと排他。
	ShippingAddressID int64
	NewAddress        *NewAddressInput

	PaymentMethod  string
	PaymentDetails payment.Details

	CouponCode string
	OrderNotes string
}

type PlacedOrderOutput struct {
	OrderID           int64     `json:"id"`
	OrderNumber       string    `json:"order_number"`
	TotalPrice        string    `json:"total_price"`
	Status            string    `json:"status"`
	PaymentStatus     string    `json:"payment_status"`
	EstimatedDelivery time.Time `json:"estimated_delivery"`
}

// 検証済みの1明細。決済額の計算と注文スナップショットの素。
type checkoutLine struct {
	product  model.Product
	quantity int64
	//クーポン適用前の実売単価（ライブ価格）
	unitPrice decimal.Decimal
}

const orderNotesMaxLen = 500

// 納期目安は注文から7日後
const estimatedDeliveryDays = 7

func (u *CheckoutUsecase) PlaceOrder(ctx context.Context, userID int64, in PlaceOrderInput) (PlacedOrderOutput, error) {
	if userID <= 0 {
		return PlacedOrderOutput{}, NewHTTPError(http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
	}
	if len(in.OrderNotes) > orderNotesMaxLen {
		return PlacedOrderOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "order notes too long")
	}

	//前提チェック（ここまで副作用なし）
	lines, err := u.validateCart(ctx, userID)
	if err != nil {
		return PlacedOrderOutput{}, err
	}

	ship, err := u.resolveShipping(ctx, userID, in)
	if err != nil {
		return PlacedOrderOutput{}, err
	}

	if !model.IsValidPaymentMethod(in.PaymentMethod) {
		return PlacedOrderOutput{}, NewHTTPError(http.StatusBadRequest, CodeInvalidPaymentMethod, "unsupported payment method")
	}

	//価格確定。カートのスナップショットではなくライブ価格で計算する。
	itemsPrice := decimal.Zero
	for _, l := range lines {
		itemsPrice = itemsPrice.Add(l.unitPrice.Mul(decimal.NewFromInt(l.quantity)))
	}

	discount, err := resolveCoupon(in.CouponCode, itemsPrice)
	if err != nil {
		return PlacedOrderOutput{}, err
	}

	breakdown := computeTotals(itemsPrice, discount)

	//決済。拒否されたら何も書かずに終了。
	payRes, err := u.gateway.Process(ctx, in.PaymentMethod, breakdown.TotalPrice, in.PaymentDetails)
	if err != nil {
		u.logger.Error().Err(err).Int64("user_id", userID).Msg("payment processor error")
		return PlacedOrderOutput{}, NewHTTPError(http.StatusBadRequest, CodePaymentDeclined, "payment could not be processed")
	}
	if !payRes.Success {
		msg := payRes.Message
		if msg == "" {
			msg = "payment declined"
		}
		return PlacedOrderOutput{}, NewHTTPError(http.StatusBadRequest, CodePaymentDeclined, msg)
	}

	now := time.Now()
	order := model.Order{
		OrderNumber:    newOrderNumber(now),
		UserID:         userID,
		Status:         model.OrderStatusProcessing,
		ItemsPrice:     breakdown.ItemsPrice,
		TaxPrice:       breakdown.TaxPrice,
		ShippingPrice:  breakdown.ShippingPrice,
		DiscountAmount: breakdown.DiscountAmount,
		TotalPrice:     breakdown.TotalPrice,
		CouponCode:     strings.ToUpper(strings.TrimSpace(in.CouponCode)),
		PaymentMethod:  in.PaymentMethod,
		PaymentStatus:  model.PaymentStatus(payRes.Status),
		TransactionID:  payRes.TransactionID,
		ShipName:       ship.Name,
		ShipPostalCode: ship.PostalCode,
		ShipPrefecture: ship.Prefecture,
		ShipCity:       ship.City,
		ShipLine1:      ship.Line1,
		ShipLine2:      ship.Line2,
		ShipPhone:      ship.Phone,
		OrderNotes:     in.OrderNotes,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if order.PaymentStatus == model.PaymentStatusCompleted {
		order.PaidAt = &now
	}
	eta := now.AddDate(0, 0, estimatedDeliveryDays)
	order.EstimatedDelivery = &eta

	var orderID int64

	//注文作成・在庫減算・カートクリアは1トランザクション。
	//途中で失敗したら全部巻き戻る（注文だけ残る、は起きない）。
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		//カートはtx内で取り直す（確定済みカートの二重注文はここで空になる）
		cart, err := r.Carts().FindActiveByUserID(ctx, userID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusBadRequest, CodeEmptyCart, "cart is empty")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}

		orderItems := make([]model.OrderItem, 0, len(lines))
		for _, l := range lines {
			//在庫チェックと減算は1文（条件付きUPDATE）。競合しても負在庫にならない。
			ok, err := r.Inventory().DecreaseStockIfEnough(ctx, l.product.ID, l.quantity)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
			}
			if !ok {
				live, err := r.Products().FindByID(ctx, l.product.ID)
				available := int64(0)
				if err == nil {
					available = live.Stock
				}
				return NewHTTPError(http.StatusBadRequest, CodeInsufficientStock,
					fmt.Sprintf("Only %d items available for %s", available, l.product.Name))
			}

			orderItems = append(orderItems, model.OrderItem{
				ProductID:            l.product.ID,
				ProductNameSnapshot:  l.product.Name,
				ProductImageSnapshot: l.product.ImageURL,
				UnitPriceSnapshot:    l.unitPrice,
				Quantity:             l.quantity,
				CreatedAt:            now,
			})
		}

		id, err := r.Orders().Create(ctx, order)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}
		orderID = id

		if err := r.OrderItems().CreateBulk(ctx, orderID, orderItems); err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}

		if err := r.StatusHistory().Append(ctx, model.OrderStatusHistory{
			OrderID:   orderID,
			Status:    model.OrderStatusProcessing,
			Note:      "Order placed",
			CreatedAt: now,
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}

		//カートをCHECKED_OUTにして明細をクリア（再注文防止）
		if err := r.Carts().UpdateStatus(ctx, cart.ID, model.CartStatusCheckedOut); err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}
		if err := r.Carts().Clear(ctx, cart.ID); err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}

		return nil
	})
	if err != nil {
		return PlacedOrderOutput{}, err
	}

	//イベント発行はコミット後のベストエフォート。失敗はログで拾う。
	if err := u.publisher.PublishOrderEvent(ctx, events.OrderEvent{
		Type:        events.EventOrderPlaced,
		OrderID:     orderID,
		OrderNumber: order.OrderNumber,
		UserID:      userID,
		TotalPrice:  order.TotalPrice.StringFixed(2),
		Status:      string(order.Status),
		OccurredAt:  now.Format(time.RFC3339),
	}); err != nil {
		u.logger.Warn().Err(err).Int64("order_id", orderID).Msg("order.placed publish failed")
	}

	return PlacedOrderOutput{
		OrderID:           orderID,
		OrderNumber:       order.OrderNumber,
		TotalPrice:        order.TotalPrice.StringFixed(2),
		Status:            string(order.Status),
		PaymentStatus:     string(order.PaymentStatus),
		EstimatedDelivery: eta,
	}, nil
}

// カートの存在・商品の生存・在庫の事前チェック。
// 失敗モードごとに別のエラーコードを返す（この順序は仕様）。
func (u *CheckoutUsecase) validateCart(ctx context.Context, userID int64) ([]checkoutLine, error) {
	cart, err := u.carts.FindActiveByUserID(ctx, userID)
	if err == repo.ErrNotFound {
		return nil, NewHTTPError(http.StatusBadRequest, CodeEmptyCart, "cart is empty")
	}
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
	}

	items, err := u.cartItems.ListByCartID(ctx, cart.ID)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
	}
	if len(items) == 0 {
		return nil, NewHTTPError(http.StatusBadRequest, CodeEmptyCart, "cart is empty")
	}

	lines := make([]checkoutLine, 0, len(items))
	for _, it := range items {
		p, err := u.products.FindByID(ctx, it.ProductID)
		if err == repo.ErrNotFound {
			return nil, NewHTTPError(http.StatusBadRequest, CodeProductGone,
				fmt.Sprintf("product %d is no longer available", it.ProductID))
		}
		if err != nil {
			return nil, NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}
		if !p.IsActive {
			return nil, NewHTTPError(http.StatusBadRequest, CodeProductInactive,
				fmt.Sprintf("%s is not available for purchase", p.Name))
		}
		if p.Stock < it.Quantity {
			return nil, NewHTTPError(http.StatusBadRequest, CodeInsufficientStock,
				fmt.Sprintf("Only %d items available for %s", p.Stock, p.Name))
		}

		lines = append(lines, checkoutLine{
			product:   p,
			quantity:  it.Quantity,
			unitPrice: p.EffectivePrice(),
		})
	}

	return lines, nil
}

// 保存済み住所（所有チェックあり）か、インラインの新規住所を解決する。
func (u *CheckoutUsecase) resolveShipping(ctx context.Context, userID int64, in PlaceOrderInput) (NewAddressInput, error) {
	if in.NewAddress != nil {
		a := *in.NewAddress
		if a.Name == "" || a.PostalCode == "" || a.Prefecture == "" || a.City == "" || a.Line1 == "" {
			return NewAddressInput{}, NewHTTPError(http.StatusBadRequest, CodeInvalidAddress, "missing required address fields")
		}
		return a, nil
	}

	if in.ShippingAddressID <= 0 {
		return NewAddressInput{}, NewHTTPError(http.StatusBadRequest, CodeInvalidAddress, "shipping address is required")
	}

	addr, err := u.addresses.FindByID(ctx, in.ShippingAddressID)
	if err == repo.ErrNotFound {
		return NewAddressInput{}, NewHTTPError(http.StatusBadRequest, CodeInvalidAddress, "shipping address not found")
	}
	if err != nil {
		return NewAddressInput{}, NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
	}
	//他人の住所は使えない
	if addr.UserID != userID {
		return NewAddressInput{}, NewHTTPError(http.StatusBadRequest, CodeInvalidAddress, "shipping address not found")
	}

	return NewAddressInput{
		Name:       addr.Name,
		PostalCode: addr.PostalCode,
		Prefecture: addr.Prefecture,
		City:       addr.City,
		Line1:      addr.Line1,
		Line2:      addr.Line2,
		Phone:      addr.Phone,
	}, nil
}

// ORD-20260831-ab12cd34 形式
func newOrderNumber(now time.Time) string {
	suffix := strings.Split(uuid.NewString(), "-")[0]
	return fmt.Sprintf("ORD-%s-%s", now.Format("20060102"), suffix)
}
