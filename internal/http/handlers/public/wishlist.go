package public

import (
	"github.com/nike-storefront/internal/http/handlers/shared"
	"github.com/nike-storefront/internal/http/response"

	"github.com/gin-gonic/gin"
)

// WishlistRequest 收藏请求
type WishlistRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
}

// ListWishlist 收藏列表
func (h *Handler) ListWishlist(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	items, err := h.WishlistService.List(c.Request.Context(), uid)
	if err != nil {
		respondServiceError(c, err, "wishlist fetch failed")
		return
	}
	response.Success(c, items)
}

// AddWishlist 收藏商品，重复收藏幂等
func (h *Handler) AddWishlist(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req WishlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request")
		return
	}
	item, err := h.WishlistService.Add(c.Request.Context(), uid, req.ProductID)
	if err != nil {
		respondServiceError(c, err, "wishlist update failed")
		return
	}
	response.Success(c, item)
}

// RemoveWishlist 取消收藏
func (h *Handler) RemoveWishlist(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	productID, ok := shared.ParseIDParam(c, "product_id")
	if !ok {
		return
	}
	if err := h.WishlistService.Remove(c.Request.Context(), uid, productID); err != nil {
		respondServiceError(c, err, "wishlist update failed")
		return
	}
	response.Success(c, gin.H{"removed": true})
}
