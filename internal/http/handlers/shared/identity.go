package shared

import (
	"net/http"
	"strings"
	"time"

	"github.com/nike-storefront/internal/config"
	"github.com/nike-storefront/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	// ContextKeyUserID 已登录用户 ID
	ContextKeyUserID = "user_id"
	// ContextKeyUserEmail 已登录用户邮箱
	ContextKeyUserEmail = "user_email"
	// ContextKeyAdminID 管理员 ID
	ContextKeyAdminID = "admin_id"
	// ContextKeyIdentity 解析后的请求身份
	ContextKeyIdentity = "identity"
	// ContextKeyIdentityErr 身份解析失败原因
	ContextKeyIdentityErr = "identity_error"

	defaultGuestCookieName = "guest_session"
)

// GuestCookieName 访客 cookie 名称
func GuestCookieName(cfg config.GuestConfig) string {
	if name := strings.TrimSpace(cfg.CookieName); name != "" {
		return name
	}
	return defaultGuestCookieName
}

// GuestToken 读取访客 cookie
func GuestToken(c *gin.Context, cfg config.GuestConfig) string {
	token, err := c.Cookie(GuestCookieName(cfg))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(token)
}

// SetGuestCookie 下发访客 cookie：HttpOnly + SameSite=Strict，Max-Age 与会话有效期一致
func SetGuestCookie(c *gin.Context, cfg config.GuestConfig, token string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())
	if maxAge <= 0 {
		maxAge = int(cfg.TTL().Seconds())
	}
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(GuestCookieName(cfg), token, maxAge, "/", cfg.CookieDomain, cfg.CookieSecure, true)
}

// ClearGuestCookie 清除访客 cookie
func ClearGuestCookie(c *gin.Context, cfg config.GuestConfig) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(GuestCookieName(cfg), "", -1, "/", cfg.CookieDomain, cfg.CookieSecure, true)
}

// OptionalUserID 读取已登录用户 ID，未登录返回 0
func OptionalUserID(c *gin.Context) uint {
	value, ok := c.Get(ContextKeyUserID)
	if !ok {
		return 0
	}
	if id, ok := value.(uint); ok {
		return id
	}
	return 0
}

// CurrentIdentity 读取身份中间件写入的请求身份；解析失败时返回对应错误
func CurrentIdentity(c *gin.Context) (service.Identity, error) {
	if value, ok := c.Get(ContextKeyIdentity); ok {
		if identity, ok := value.(service.Identity); ok && identity.Owner.Valid() {
			return identity, nil
		}
	}
	if value, ok := c.Get(ContextKeyIdentityErr); ok {
		if err, ok := value.(error); ok && err != nil {
			return service.Identity{}, err
		}
	}
	return service.Identity{}, service.ErrGuestSessionUnavailable
}
