package usecase

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"github.com/shopspring/decimal"
)

// ProductUsecase は商品カタログと在庫管理の業務ロジックです。
type ProductUsecase struct {
	productRepo   repo.ProductRepository
	inventoryRepo repo.InventoryRepository
	auditRepo     repo.AuditLogRepository
}

func NewProductUsecase(
	productRepo repo.ProductRepository,
	inventoryRepo repo.InventoryRepository,
	auditRepo repo.AuditLogRepository,
) *ProductUsecase {
	return &ProductUsecase{
		productRepo:   productRepo,
		inventoryRepo: inventoryRepo,
		auditRepo:     auditRepo,
	}
}

type ProductResponse struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	Price         string `json:"price"`
	DiscountPrice string `json:"discount_price,omitempty"`
	ImageURL      string `json:"image_url,omitempty"`
	Stock         int64  `json:"stock"`
	IsActive      bool   `json:"is_active"`
}

type ProductListInput struct {
	Page     int
	Limit    int
	Q        string
	MinPrice string
	MaxPrice string
	Sort     string
}

type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}

type CreateProductInput struct {
	Name          string
	Description   string
	Price         string
	DiscountPrice string
	ImageURL      string
	Stock         int64
	IsActive      bool
}

type UpdateProductInput struct {
	Name          *string
	Description   *string
	Price         *string
	DiscountPrice *string
	ImageURL      *string
	IsActive      *bool
}

type SetStockInput struct {
	Stock  int64
	Reason string
}

// List は公開中の商品一覧（検索・価格帯・並び替え・ページング）。
func (u *ProductUsecase) List(ctx context.Context, in ProductListInput) (ProductListResponse, error) {
	if in.Page < 1 {
		in.Page = 1
	}
	if in.Limit < 1 || in.Limit > 100 {
		in.Limit = 20
	}

	q := repo.ProductListQuery{
		Page:  in.Page,
		Limit: in.Limit,
		Q:     strings.TrimSpace(in.Q),
		Sort:  in.Sort,
	}

	if in.MinPrice != "" {
		v, err := decimal.NewFromString(in.MinPrice)
		if err != nil || v.IsNegative() {
			return ProductListResponse{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid min_price")
		}
		q.MinPrice = &v
	}
	if in.MaxPrice != "" {
		v, err := decimal.NewFromString(in.MaxPrice)
		if err != nil || v.IsNegative() {
			return ProductListResponse{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid max_price")
		}
		q.MaxPrice = &v
	}

	switch q.Sort {
	case "", "new", "price_asc", "price_desc":
	default:
		return ProductListResponse{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid sort")
	}

	products, total, err := u.productRepo.ListPublic(ctx, q)
	if err != nil {
		return ProductListResponse{}, NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
	}

	items := make([]ProductResponse, 0, len(products))
	for i := range products {
		items = append(items, toProductResponse(&products[i]))
	}

	return ProductListResponse{Items: items, Total: total, Page: in.Page, Limit: in.Limit}, nil
}

// GetDetail は商品詳細。非公開商品は一般ユーザーには見せない。
func (u *ProductUsecase) GetDetail(ctx context.Context, id int64) (ProductResponse, error) {
	if id <= 0 {
		return ProductResponse{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid id")
	}

	p, err := u.productRepo.FindByID(ctx, id)
	if err == repo.ErrNotFound {
		return ProductResponse{}, NewHTTPError(http.StatusNotFound, CodeNotFound, "not found")
	}
	if err != nil {
		return ProductResponse{}, NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
	}
	if !p.IsActive {
		return ProductResponse{}, NewHTTPError(http.StatusNotFound, CodeNotFound, "not found")
	}

	return toProductResponse(&p), nil
}

// Create は商品登録（管理者）。
func (u *ProductUsecase) Create(ctx context.Context, in CreateProductInput) (ProductResponse, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return ProductResponse{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "name is required")
	}
	if in.Stock < 0 {
		return ProductResponse{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid stock")
	}

	price, err := decimal.NewFromString(in.Price)
	if err != nil || price.IsNegative() {
		return ProductResponse{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid price")
	}

	p := model.Product{
		Name:        name,
		Description: in.Description,
		Price:       price,
		ImageURL:    in.ImageURL,
		Stock:       in.Stock,
		IsActive:    in.IsActive,
	}

	if in.DiscountPrice != "" {
		dp, err := decimal.NewFromString(in.DiscountPrice)
		if err != nil || dp.IsNegative() {
			return ProductResponse{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid discount_price")
		}
		p.DiscountPrice = &dp
	}

	created, err := u.productRepo.Create(ctx, p)
	if err != nil {
		return ProductResponse{}, NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
	}
	return toProductResponse(&created), nil
}

// Update は商品更新（管理者・部分更新）。在庫はここでは触らない。
func (u *ProductUsecase) Update(ctx context.Context, id int64, in UpdateProductInput) (ProductResponse, error) {
	if id <= 0 {
		return ProductResponse{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid id")
	}

	p, err := u.productRepo.FindByID(ctx, id)
	if err == repo.ErrNotFound {
		return ProductResponse{}, NewHTTPError(http.StatusNotFound, CodeNotFound, "not found")
	}
	if err != nil {
		return ProductResponse{}, NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return ProductResponse{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "name is required")
		}
		p.Name = name
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Price != nil {
		price, err := decimal.NewFromString(*in.Price)
		if err != nil || price.IsNegative() {
			return ProductResponse{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid price")
		}
		p.Price = price
	}
	if in.DiscountPrice != nil {
		if *in.DiscountPrice == "" {
			//空文字でセール解除
			p.DiscountPrice = nil
		} else {
			dp, err := decimal.NewFromString(*in.DiscountPrice)
			if err != nil || dp.IsNegative() {
				return ProductResponse{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid discount_price")
			}
			p.DiscountPrice = &dp
		}
	}
	if in.ImageURL != nil {
		p.ImageURL = *in.ImageURL
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}

	if err := u.productRepo.Update(ctx, p); err != nil {
		return ProductResponse{}, NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
	}
	return toProductResponse(&p), nil
}

// Delete は商品の論理削除（管理者）。
func (u *ProductUsecase) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid id")
	}
	if err := u.productRepo.SoftDelete(ctx, id); err != nil {
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, CodeNotFound, "not found")
		}
		return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
	}
	return nil
}

// SetStock は在庫を絶対値で設定し、調整履歴と監査ログを残す（管理者）。
func (u *ProductUsecase) SetStock(ctx context.Context, adminUserID int64, id int64, in SetStockInput) (ProductResponse, error) {
	if id <= 0 {
		return ProductResponse{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid id")
	}
	if in.Stock < 0 {
		return ProductResponse{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid stock")
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		reason = "manual adjustment"
	}

	p, err := u.productRepo.FindByID(ctx, id)
	if err == repo.ErrNotFound {
		return ProductResponse{}, NewHTTPError(http.StatusNotFound, CodeNotFound, "not found")
	}
	if err != nil {
		return ProductResponse{}, NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
	}

	before := p.Stock
	if err := u.inventoryRepo.SetStock(ctx, id, in.Stock); err != nil {
		return ProductResponse{}, NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
	}

	if err := u.inventoryRepo.CreateAdjustment(ctx, model.InventoryAdjustment{
		ProductID:   id,
		AdminUserID: adminUserID,
		Delta:       in.Stock - before,
		Reason:      reason,
	}); err != nil {
		return ProductResponse{}, NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
	}

	beforeJSON, _ := json.Marshal(map[string]int64{"stock": before})
	afterJSON, _ := json.Marshal(map[string]any{"stock": in.Stock, "reason": reason})
	if err := u.auditRepo.Create(ctx, model.AuditLog{
		ActorUserID:  adminUserID,
		Action:       model.AuditActionUpdateStock,
		ResourceType: model.AuditResourceProduct,
		ResourceID:   id,
		BeforeJSON:   string(beforeJSON),
		AfterJSON:    string(afterJSON),
	}); err != nil {
		return ProductResponse{}, NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
	}

	p.Stock = in.Stock
	return toProductResponse(&p), nil
}

func toProductResponse(p *model.Product) ProductResponse {
	resp := ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.StringFixed(2),
		ImageURL:    p.ImageURL,
		Stock:       p.Stock,
		IsActive:    p.IsActive,
	}
	if p.DiscountPrice != nil {
		resp.DiscountPrice = p.DiscountPrice.StringFixed(2)
	}
	return resp
}
