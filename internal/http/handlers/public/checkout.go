package public

import (
	"strings"

	"github.com/nike-storefront/internal/http/handlers/shared"
	"github.com/nike-storefront/internal/http/response"
	"github.com/nike-storefront/internal/models"
	"github.com/nike-storefront/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateCheckoutSessionRequest 创建结算会话请求
type CreateCheckoutSessionRequest struct {
	Email string `json:"email"`
}

// CreateCheckoutSession 为当前购物车创建 Stripe Checkout 会话
func (h *Handler) CreateCheckoutSession(c *gin.Context) {
	var req CreateCheckoutSessionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "invalid request")
			return
		}
	}
	identity, err := shared.CurrentIdentity(c)
	if err != nil {
		respondServiceError(c, err, "guest session unavailable")
		return
	}
	email := strings.TrimSpace(req.Email)
	if identity.Owner.IsUser() {
		// 已登录但仍携带访客 cookie：先并入访客购物车
		h.mergeGuestCart(c, identity.Owner.ID())
		if value, ok := c.Get(shared.ContextKeyUserEmail); ok && email == "" {
			email, _ = value.(string)
		}
	}

	result, err := h.CheckoutService.CreateCheckoutSession(c.Request.Context(), service.CheckoutInput{
		Owner:         identity.Owner,
		CustomerEmail: email,
	})
	if err != nil {
		respondServiceError(c, err, "checkout failed")
		return
	}
	response.Success(c, gin.H{
		"session_id": result.SessionID,
		"url":        result.URL,
	})
}

// CheckoutSuccess 支付成功页：落单后返回订单详情，重复访问视为成功
func (h *Handler) CheckoutSuccess(c *gin.Context) {
	sessionID := strings.TrimSpace(c.Query("session_id"))
	if sessionID == "" {
		response.BadRequest(c, "session_id is required")
		return
	}
	result, err := h.OrderService.CreateOrder(c.Request.Context(), sessionID, h.successOwnerHint(c))
	if err != nil {
		respondServiceError(c, err, "order create failed")
		return
	}
	view, err := h.OrderService.GetOrder(c.Request.Context(), sessionID)
	if err != nil {
		respondServiceError(c, err, "order fetch failed")
		return
	}
	msg := "success"
	if result.AlreadyExisted {
		msg = "order already processed"
	}
	response.SuccessWithMsg(c, msg, gin.H{
		"order":             view.Order,
		"items":             view.Items,
		"degraded":          view.Degraded,
		"already_processed": result.AlreadyExisted,
	})
}

// GetOrderBySession 按支付会话查询订单
func (h *Handler) GetOrderBySession(c *gin.Context) {
	sessionID := strings.TrimSpace(c.Param("session_id"))
	view, err := h.OrderService.GetOrder(c.Request.Context(), sessionID)
	if err != nil {
		respondServiceError(c, err, "order fetch failed")
		return
	}
	response.Success(c, view)
}

// successOwnerHint 成功页上的请求身份作为订单归属提示
func (h *Handler) successOwnerHint(c *gin.Context) *models.Owner {
	identity, err := shared.CurrentIdentity(c)
	if err != nil || !identity.Owner.Valid() || identity.Minted {
		return nil
	}
	owner := identity.Owner
	return &owner
}
