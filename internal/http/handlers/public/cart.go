package public

import (
	"github.com/nike-storefront/internal/http/handlers/shared"
	"github.com/nike-storefront/internal/http/response"
	"github.com/nike-storefront/internal/models"
	"github.com/nike-storefront/internal/service"

	"github.com/gin-gonic/gin"
)

// AddCartItemRequest 加购请求
type AddCartItemRequest struct {
	VariantID uint `json:"variant_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required"`
}

// UpdateCartItemRequest 修改数量请求
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"required"`
}

// GetCart 获取购物车；身份不可用时返回空购物车
func (h *Handler) GetCart(c *gin.Context) {
	identity, err := shared.CurrentIdentity(c)
	if err != nil {
		shared.RequestLog(c).Warnw("cart_identity_unavailable", "error", err)
		identity = service.Identity{}
	}
	view, err := h.CartService.GetCartView(c.Request.Context(), identity.Owner)
	if err != nil {
		respondServiceError(c, err, "cart fetch failed")
		return
	}
	response.Success(c, view)
}

// AddCartItem 加购
func (h *Handler) AddCartItem(c *gin.Context) {
	var req AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request")
		return
	}
	cart, ok := h.ownerCart(c)
	if !ok {
		return
	}
	if err := h.CartService.AddItem(c.Request.Context(), cart.ID, req.VariantID, req.Quantity); err != nil {
		respondServiceError(c, err, "cart update failed")
		return
	}
	h.respondCartView(c, cart.Owner())
}

// UpdateCartItem 修改购物车行数量
func (h *Handler) UpdateCartItem(c *gin.Context) {
	lineID, ok := shared.ParseIDParam(c, "id")
	if !ok {
		return
	}
	var req UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request")
		return
	}
	cart, ok := h.ownerCart(c)
	if !ok {
		return
	}
	if err := h.CartService.UpdateQuantity(c.Request.Context(), cart.ID, lineID, req.Quantity); err != nil {
		respondServiceError(c, err, "cart update failed")
		return
	}
	h.respondCartView(c, cart.Owner())
}

// RemoveCartItem 删除购物车行
func (h *Handler) RemoveCartItem(c *gin.Context) {
	lineID, ok := shared.ParseIDParam(c, "id")
	if !ok {
		return
	}
	cart, ok := h.ownerCart(c)
	if !ok {
		return
	}
	if err := h.CartService.RemoveLine(c.Request.Context(), cart.ID, lineID); err != nil {
		respondServiceError(c, err, "cart update failed")
		return
	}
	h.respondCartView(c, cart.Owner())
}

// ClearCart 清空购物车
func (h *Handler) ClearCart(c *gin.Context) {
	cart, ok := h.ownerCart(c)
	if !ok {
		return
	}
	if err := h.CartService.ClearCart(c.Request.Context(), cart.ID); err != nil {
		respondServiceError(c, err, "cart update failed")
		return
	}
	h.respondCartView(c, cart.Owner())
}

// ownerCart 取当前身份的购物车，不存在时创建
func (h *Handler) ownerCart(c *gin.Context) (*models.Cart, bool) {
	identity, err := shared.CurrentIdentity(c)
	if err != nil {
		respondServiceError(c, err, "guest session unavailable")
		return nil, false
	}
	cart, err := h.CartService.GetOrCreateCart(c.Request.Context(), identity.Owner)
	if err != nil {
		respondServiceError(c, err, "cart fetch failed")
		return nil, false
	}
	return cart, true
}

func (h *Handler) respondCartView(c *gin.Context, owner models.Owner) {
	view, err := h.CartService.GetCartView(c.Request.Context(), owner)
	if err != nil {
		respondServiceError(c, err, "cart fetch failed")
		return
	}
	response.Success(c, view)
}
