package public

import (
	"github.com/nike-storefront/internal/http/handlers/shared"
	"github.com/nike-storefront/internal/http/response"
	"github.com/nike-storefront/internal/models"

	"github.com/gin-gonic/gin"
)

// ListMyOrders 当前用户订单历史
func (h *Handler) ListMyOrders(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	page, pageSize := shared.NormalizePagination(
		shared.QueryInt(c, "page", 1),
		shared.QueryInt(c, "page_size", h.Config.Order.DefaultPageSize),
	)
	orders, total, err := h.OrderService.ListOrdersByUser(c.Request.Context(), uid, c.Query("status"), page, pageSize)
	if err != nil {
		respondServiceError(c, err, "order fetch failed")
		return
	}
	response.SuccessWithPage(c, orders, response.NewPagination(page, pageSize, total))
}

// GetMyOrder 当前用户订单详情
func (h *Handler) GetMyOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, ok := shared.ParseIDParam(c, "id")
	if !ok {
		return
	}
	order, err := h.OrderService.GetOrderForOwner(c.Request.Context(), orderID, models.UserOwner(uid))
	if err != nil {
		respondServiceError(c, err, "order fetch failed")
		return
	}
	response.Success(c, order)
}

// CancelMyOrder 用户取消订单
func (h *Handler) CancelMyOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	h.cancelOrder(c, models.UserOwner(uid))
}

// CancelGuestOrder 访客凭 cookie 取消订单
func (h *Handler) CancelGuestOrder(c *gin.Context) {
	identity, err := shared.CurrentIdentity(c)
	if err != nil {
		respondServiceError(c, err, "guest session unavailable")
		return
	}
	h.cancelOrder(c, identity.Owner)
}

func (h *Handler) cancelOrder(c *gin.Context, requester models.Owner) {
	orderID, ok := shared.ParseIDParam(c, "id")
	if !ok {
		return
	}
	order, err := h.OrderService.CancelOrder(c.Request.Context(), orderID, requester)
	if err != nil {
		respondServiceError(c, err, "order cancel failed")
		return
	}
	response.Success(c, order)
}
