package admin

import (
	"strings"

	"github.com/nike-storefront/internal/http/handlers/shared"
	"github.com/nike-storefront/internal/http/response"
	"github.com/nike-storefront/internal/repository"

	"github.com/gin-gonic/gin"
)

// UpdateOrderStatusRequest 订单状态流转请求
type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// ListOrders 管理端订单列表
func (h *Handler) ListOrders(c *gin.Context) {
	page, pageSize := shared.NormalizePagination(
		shared.QueryInt(c, "page", 1),
		shared.QueryInt(c, "page_size", h.Config.Order.DefaultPageSize),
	)
	filter := repository.OrderListFilter{
		Page:     page,
		PageSize: pageSize,
		Status:   strings.TrimSpace(c.Query("status")),
		Keyword:  strings.TrimSpace(c.Query("keyword")),
	}
	if raw := shared.QueryInt(c, "user_id", 0); raw > 0 {
		filter.UserID = uint(raw)
	}
	orders, total, err := h.OrderService.ListOrdersForAdmin(c.Request.Context(), filter)
	if err != nil {
		respondServiceError(c, err, "order fetch failed")
		return
	}
	response.SuccessWithPage(c, orders, response.NewPagination(page, pageSize, total))
}

// GetOrder 管理端订单详情
func (h *Handler) GetOrder(c *gin.Context) {
	orderID, ok := shared.ParseIDParam(c, "id")
	if !ok {
		return
	}
	order, err := h.OrderService.GetOrderForAdmin(c.Request.Context(), orderID)
	if err != nil {
		respondServiceError(c, err, "order fetch failed")
		return
	}
	response.Success(c, order)
}

// UpdateOrderStatus 管理端订单状态流转
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	orderID, ok := shared.ParseIDParam(c, "id")
	if !ok {
		return
	}
	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request")
		return
	}
	order, err := h.OrderService.UpdateOrderStatus(c.Request.Context(), orderID, req.Status)
	if err != nil {
		respondServiceError(c, err, "order update failed")
		return
	}
	adminID, _ := c.Get(shared.ContextKeyAdminID)
	shared.RequestLog(c).Infow("admin_order_status_updated",
		"admin_id", adminID,
		"order_id", order.ID,
		"status", order.Status,
	)
	response.Success(c, order)
}
