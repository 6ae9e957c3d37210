package handler

import (
	"net/http"

	"app/internal/config"
	"app/internal/middleware"
	"app/internal/payment"
	"app/internal/repository"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /orders のHTTP（注文確定・履歴・キャンセル）
type OrderHandler struct {
	checkoutUC *usecase.CheckoutUsecase
	orderUC    *usecase.OrderUsecase
}

// DI
func NewOrderHandler(checkoutUC *usecase.CheckoutUsecase, orderUC *usecase.OrderUsecase) *OrderHandler {
	return &OrderHandler{checkoutUC: checkoutUC, orderUC: orderUC}
}

type newAddressRequest struct {
	Name       string `json:"name"`
	PostalCode string `json:"postal_code"`
	Prefecture string `json:"prefecture"`
	City       string `json:"city"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	Phone      string `json:"phone"`
}

type paymentDetailsRequest struct {
	CardNumber string `json:"card_number"`
	CardHolder string `json:"card_holder"`
	ExpMonth   int    `json:"exp_month"`
	ExpYear    int    `json:"exp_year"`
	CVV        string `json:"cvv"`
	Email      string `json:"email"`
}

type PlaceOrderRequest struct {
	ShippingAddressID int64                  `json:"shipping_address_id"`
	NewAddress        *newAddressRequest     `json:"new_address"`
	PaymentMethod     string                 `json:"payment_method"`
	PaymentDetails    *paymentDetailsRequest `json:"payment_details"`
	CouponCode        string                 `json:"coupon_code"`
	OrderNotes        string                 `json:"order_notes"`
}

type PlaceOrderResponse struct {
	Success bool                      `json:"success"`
	Order   usecase.PlacedOrderOutput `json:"order"`
}

type OrderListResponse struct {
	Items []usecase.OrderOutput `json:"items"`
	Total int64                 `json:"total"`
	Page  int                   `json:"page"`
	Limit int                   `json:"limit"`
}

type CancelOrderRequest struct {
	Note string `json:"note"`
}

func (h *OrderHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	g := e.Group("/orders")
	g.Use(middleware.AuthJWT(cfg))
	g.Use(middleware.TokenVersionGuard(userRepo))

	g.POST("", h.placeOrder)
	g.GET("", h.listOrders)
	g.GET("/:id", h.getOrder)
	g.POST("/:id/cancel", h.cancelOrder)
}

func (h *OrderHandler) placeOrder(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	var req PlaceOrderRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	in := usecase.PlaceOrderInput{
		ShippingAddressID: req.ShippingAddressID,
		PaymentMethod:     req.PaymentMethod,
		CouponCode:        req.CouponCode,
		OrderNotes:        req.OrderNotes,
	}
	if req.NewAddress != nil {
		in.NewAddress = &usecase.NewAddressInput{
			Name:       req.NewAddress.Name,
			PostalCode: req.NewAddress.PostalCode,
			Prefecture: req.NewAddress.Prefecture,
			City:       req.NewAddress.City,
			Line1:      req.NewAddress.Line1,
			Line2:      req.NewAddress.Line2,
			Phone:      req.NewAddress.Phone,
		}
	}
	if req.PaymentDetails != nil {
		in.PaymentDetails = payment.Details{
			CardNumber: req.PaymentDetails.CardNumber,
			CardHolder: req.PaymentDetails.CardHolder,
			ExpMonth:   req.PaymentDetails.ExpMonth,
			ExpYear:    req.PaymentDetails.ExpYear,
			CVV:        req.PaymentDetails.CVV,
			Email:      req.PaymentDetails.Email,
		}
	}

	out, err := h.checkoutUC.PlaceOrder(c.Request().Context(), userID, in)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, PlaceOrderResponse{Success: true, Order: out})
}

func (h *OrderHandler) listOrders(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	page := queryInt(c, "page", 1)
	limit := queryInt(c, "limit", 20)

	items, total, err := h.orderUC.ListMyOrders(c.Request().Context(), userID, page, limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, OrderListResponse{Items: items, Total: total, Page: page, Limit: limit})
}

func (h *OrderHandler) getOrder(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	orderID, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "invalid id")
	}

	out, err := h.orderUC.GetMyOrderDetail(c.Request().Context(), userID, orderID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) cancelOrder(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	orderID, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "invalid id")
	}

	var req CancelOrderRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	if err := h.orderUC.CancelMyOrder(c.Request().Context(), userID, orderID, req.Note); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "order cancelled"})
}
