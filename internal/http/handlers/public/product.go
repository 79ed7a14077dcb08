package public

import (
	"github.com/nike-storefront/internal/http/handlers/shared"
	"github.com/nike-storefront/internal/http/response"
	"github.com/nike-storefront/internal/service"

	"github.com/gin-gonic/gin"
)

// ListProducts 商品列表
func (h *Handler) ListProducts(c *gin.Context) {
	page, pageSize := shared.NormalizePagination(
		shared.QueryInt(c, "page", 1),
		shared.QueryInt(c, "page_size", h.Config.Order.DefaultPageSize),
	)
	products, total, err := h.ProductService.ListPublic(c.Request.Context(), service.ProductQuery{
		Page:       page,
		PageSize:   pageSize,
		Search:     c.Query("search"),
		Categories: shared.QueryList(c, "category"),
		Genders:    shared.QueryList(c, "gender"),
		Colors:     shared.QueryList(c, "color"),
		Sizes:      shared.QueryList(c, "size"),
		PriceMin:   c.Query("price_min"),
		PriceMax:   c.Query("price_max"),
		Sort:       c.Query("sort"),
	})
	if err != nil {
		respondServiceError(c, err, "product fetch failed")
		return
	}
	response.SuccessWithPage(c, products, response.NewPagination(page, pageSize, total))
}

// GetProduct 商品详情，附带推荐商品
func (h *Handler) GetProduct(c *gin.Context) {
	id, ok := shared.ParseIDParam(c, "id")
	if !ok {
		return
	}
	detail, err := h.ProductService.GetDetail(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "product fetch failed")
		return
	}
	response.Success(c, detail)
}
