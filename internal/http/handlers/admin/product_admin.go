package admin

import (
	"github.com/nike-storefront/internal/http/handlers/shared"
	"github.com/nike-storefront/internal/http/response"
	"github.com/nike-storefront/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// CreateProductRequest 创建商品请求
type CreateProductRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Gender      string `json:"gender"`
	Brand       string `json:"brand"`
	ImageURL    string `json:"image_url"`
	IsPublished *bool  `json:"is_published"`
}

// CreateVariantRequest 创建规格请求，金额使用字符串十进制
type CreateVariantRequest struct {
	SKU       string           `json:"sku" binding:"required"`
	Color     string           `json:"color"`
	Size      string           `json:"size"`
	Price     decimal.Decimal  `json:"price" binding:"required"`
	SalePrice *decimal.Decimal `json:"sale_price"`
	InStock   int              `json:"in_stock"`
}

// UpdateVariantPriceRequest 改价请求；sale_price 为空表示取消促销
type UpdateVariantPriceRequest struct {
	Price     decimal.Decimal  `json:"price" binding:"required"`
	SalePrice *decimal.Decimal `json:"sale_price"`
}

// ListProducts 管理端商品列表（含未上架）
func (h *Handler) ListProducts(c *gin.Context) {
	page, pageSize := shared.NormalizePagination(
		shared.QueryInt(c, "page", 1),
		shared.QueryInt(c, "page_size", h.Config.Order.DefaultPageSize),
	)
	products, total, err := h.ProductService.ListAdmin(c.Request.Context(), service.ProductQuery{
		Page:     page,
		PageSize: pageSize,
		Search:   c.Query("search"),
	})
	if err != nil {
		respondServiceError(c, err, "product fetch failed")
		return
	}
	response.SuccessWithPage(c, products, response.NewPagination(page, pageSize, total))
}

// GetProduct 管理端商品详情
func (h *Handler) GetProduct(c *gin.Context) {
	id, ok := shared.ParseIDParam(c, "id")
	if !ok {
		return
	}
	product, err := h.ProductService.GetAdmin(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "product fetch failed")
		return
	}
	response.Success(c, product)
}

// CreateProduct 创建商品
func (h *Handler) CreateProduct(c *gin.Context) {
	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request")
		return
	}
	product, err := h.ProductService.CreateProduct(c.Request.Context(), service.CreateProductInput{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Gender:      req.Gender,
		Brand:       req.Brand,
		ImageURL:    req.ImageURL,
		IsPublished: req.IsPublished,
	})
	if err != nil {
		respondServiceError(c, err, "product create failed")
		return
	}
	response.Success(c, product)
}

// CreateVariant 为商品新增规格
func (h *Handler) CreateVariant(c *gin.Context) {
	productID, ok := shared.ParseIDParam(c, "id")
	if !ok {
		return
	}
	var req CreateVariantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request")
		return
	}
	variant, err := h.ProductService.CreateVariant(c.Request.Context(), productID, service.CreateVariantInput{
		SKU:       req.SKU,
		Color:     req.Color,
		Size:      req.Size,
		Price:     req.Price,
		SalePrice: req.SalePrice,
		InStock:   req.InStock,
	})
	if err != nil {
		respondServiceError(c, err, "variant create failed")
		return
	}
	response.Success(c, variant)
}

// UpdateVariantPrice 规格改价，已下单订单的成交价不受影响
func (h *Handler) UpdateVariantPrice(c *gin.Context) {
	variantID, ok := shared.ParseIDParam(c, "id")
	if !ok {
		return
	}
	var req UpdateVariantPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request")
		return
	}
	variant, err := h.ProductService.UpdateVariantPrice(c.Request.Context(), variantID, req.Price, req.SalePrice)
	if err != nil {
		respondServiceError(c, err, "variant update failed")
		return
	}
	response.Success(c, variant)
}
