package public

import (
	"time"

	"github.com/nike-storefront/internal/http/handlers/shared"
	"github.com/nike-storefront/internal/http/response"
	"github.com/nike-storefront/internal/models"
	"github.com/nike-storefront/internal/service"

	"github.com/gin-gonic/gin"
)

// RegisterRequest 注册请求
type RegisterRequest struct {
	Email       string `json:"email" binding:"required"`
	Password    string `json:"password" binding:"required"`
	DisplayName string `json:"display_name"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email      string `json:"email" binding:"required"`
	Password   string `json:"password" binding:"required"`
	RememberMe bool   `json:"remember_me"`
}

// UpdateProfileRequest 更新资料请求
type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name"`
	Image       *string `json:"image"`
}

// ChangePasswordRequest 修改密码请求
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// AuthResponse 登录/注册响应
type AuthResponse struct {
	User         *models.User `json:"user"`
	Token        string       `json:"token"`
	ExpiresAt    time.Time    `json:"expires_at"`
	MergedCartID uint         `json:"merged_cart_id,omitempty"`
}

// Register 注册并合并访客购物车
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request")
		return
	}
	result, err := h.UserAuthService.Register(c.Request.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		respondServiceError(c, err, "register failed")
		return
	}
	h.respondAuthResult(c, result)
}

// Login 登录并合并访客购物车
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request")
		return
	}
	result, err := h.UserAuthService.Login(c.Request.Context(), req.Email, req.Password, req.RememberMe)
	attempt := service.LoginAttempt{
		Email:     req.Email,
		Err:       err,
		ClientIP:  c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		RequestID: c.GetString("request_id"),
	}
	if result != nil && result.User != nil {
		attempt.UserID = result.User.ID
	}
	h.LoginLogService.Record(c.Request.Context(), attempt)
	if err != nil {
		respondServiceError(c, err, "login failed")
		return
	}
	h.respondAuthResult(c, result)
}

// Logout 登出：清除访客 cookie，令牌由客户端丢弃
func (h *Handler) Logout(c *gin.Context) {
	shared.ClearGuestCookie(c, h.Config.Guest)
	response.Success(c, gin.H{"logged_out": true})
}

func (h *Handler) respondAuthResult(c *gin.Context, result *service.AuthResult) {
	mergedCartID := h.mergeGuestCart(c, result.User.ID)
	response.Success(c, AuthResponse{
		User:         result.User,
		Token:        result.Token,
		ExpiresAt:    result.ExpiresAt,
		MergedCartID: mergedCartID,
	})
}

// mergeGuestCart 请求携带有效访客 cookie 时把访客购物车并入用户购物车并清除 cookie。
// 合并失败不影响登录结果，访客数据保留到下次登录再试。
func (h *Handler) mergeGuestCart(c *gin.Context, userID uint) uint {
	token := shared.GuestToken(c, h.Config.Guest)
	if token == "" || userID == 0 {
		return 0
	}
	ctx := c.Request.Context()
	guest, err := h.SessionService.LookupGuest(ctx, token)
	if err != nil {
		shared.RequestLog(c).Warnw("guest_cart_merge_lookup_failed", "user_id", userID, "error", err)
		return 0
	}
	if guest == nil {
		shared.ClearGuestCookie(c, h.Config.Guest)
		return 0
	}
	cartID, err := h.CartService.MergeGuestIntoUser(ctx, models.GuestOwner(guest.ID), models.UserOwner(userID))
	if err != nil {
		shared.RequestLog(c).Warnw("guest_cart_merge_failed", "user_id", userID, "guest_id", guest.ID, "error", err)
		return 0
	}
	if err := h.SessionService.InvalidateGuest(ctx, guest.ID); err != nil {
		shared.RequestLog(c).Warnw("guest_invalidate_failed", "guest_id", guest.ID, "error", err)
	}
	shared.ClearGuestCookie(c, h.Config.Guest)
	return cartID
}

// GetProfile 当前用户资料
func (h *Handler) GetProfile(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	user, err := h.UserAuthService.GetUserByID(c.Request.Context(), uid)
	if err != nil {
		respondServiceError(c, err, "profile fetch failed")
		return
	}
	response.Success(c, user)
}

// UpdateProfile 更新资料
func (h *Handler) UpdateProfile(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request")
		return
	}
	user, err := h.UserAuthService.UpdateProfile(c.Request.Context(), uid, req.DisplayName, req.Image)
	if err != nil {
		respondServiceError(c, err, "profile update failed")
		return
	}
	response.Success(c, user)
}

// ChangePassword 修改密码，旧令牌随即失效
func (h *Handler) ChangePassword(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request")
		return
	}
	if err := h.UserAuthService.ChangePassword(c.Request.Context(), uid, req.OldPassword, req.NewPassword); err != nil {
		respondServiceError(c, err, "password change failed")
		return
	}
	response.Success(c, gin.H{"changed": true})
}
