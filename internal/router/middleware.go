package router

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/nike-storefront/internal/authz"
	"github.com/nike-storefront/internal/config"
	"github.com/nike-storefront/internal/http/handlers/shared"
	"github.com/nike-storefront/internal/http/response"
	"github.com/nike-storefront/internal/logger"
	"github.com/nike-storefront/internal/metrics"
	"github.com/nike-storefront/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const requestIDKey = "request_id"
const requestIDHeader = "X-Request-ID"
const adminIsSuperContextKey = "admin_is_super"
const adminUsernameContextKey = "username"

// CORSMiddleware 跨域中间件
func CORSMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	return cors.New(buildCORSConfig(cfg))
}

func buildCORSConfig(cfg config.CORSConfig) cors.Config {
	out := cors.Config{
		AllowMethods:     cfg.AllowedMethods,
		AllowHeaders:     cfg.AllowedHeaders,
		AllowCredentials: cfg.AllowCredentials,
		ExposeHeaders:    []string{requestIDHeader},
		MaxAge:           time.Duration(cfg.MaxAge) * time.Second,
	}
	if len(out.AllowMethods) == 0 {
		out.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	}
	if len(out.AllowHeaders) == 0 {
		out.AllowHeaders = []string{
			"Origin",
			"Content-Type",
			"Content-Length",
			"Accept-Encoding",
			"Authorization",
			"Cache-Control",
			"X-Requested-With",
			requestIDHeader,
		}
	}

	origins := make([]string, 0, len(cfg.AllowedOrigins))
	wildcard := len(cfg.AllowedOrigins) == 0
	for _, origin := range cfg.AllowedOrigins {
		origin = strings.TrimSpace(origin)
		if origin == "*" {
			wildcard = true
			continue
		}
		if origin != "" {
			origins = append(origins, origin)
		}
	}
	switch {
	case wildcard && cfg.AllowCredentials:
		// 携带凭证时不能返回 *，回显请求来源
		out.AllowOriginFunc = func(string) bool { return true }
	case wildcard:
		out.AllowAllOrigins = true
	default:
		out.AllowOrigins = origins
		out.AllowOriginFunc = func(origin string) bool {
			for _, allowed := range origins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		}
	}
	return out
}

// RequestIDMiddleware 请求 ID 中间件
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Writer.Header().Set(requestIDHeader, requestID)
		c.Next()
	}
}

// LoggerMiddleware 结构化请求日志中间件
func LoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.L()
	}
	sugar := logger.Sugar()
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log := sugar.With(
			"request_id", getRequestID(c),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		)
		if len(c.Errors) > 0 {
			log.Errorw("request", "errors", c.Errors.String())
			return
		}
		log.Infow("request")
	}
}

// MetricsMiddleware 记录请求计数与耗时，route 使用路由模板避免高基数
func MetricsMiddleware(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		m.ObserveRequest(c.Request.Method, c.FullPath(), strconv.Itoa(c.Writer.Status()), time.Since(start).Seconds())
	}
}

func getRequestID(c *gin.Context) string {
	value, ok := c.Get(requestIDKey)
	if !ok {
		return ""
	}
	if requestID, ok := value.(string); ok {
		return requestID
	}
	return ""
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
	if authHeader == "" {
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

func abortUnauthorized(c *gin.Context, msg string) {
	response.Unauthorized(c, msg)
	c.Abort()
}

// AdminJWTAuthMiddleware 管理员 JWT 鉴权中间件
func AdminJWTAuthMiddleware(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if authService == nil {
			abortUnauthorized(c, "token invalid")
			return
		}
		tokenString, ok := bearerToken(c)
		if !ok {
			abortUnauthorized(c, "authorization header missing or invalid")
			return
		}
		claims, err := authService.ParseJWT(tokenString)
		if err != nil {
			abortUnauthorized(c, "token invalid")
			return
		}
		isSuper, err := authService.ValidateClaims(c.Request.Context(), claims)
		if err != nil {
			logger.Debugw("admin_token_rejected", "admin_id", claims.AdminID, "error", err)
			abortUnauthorized(c, "token revoked")
			return
		}

		c.Set(shared.ContextKeyAdminID, claims.AdminID)
		c.Set(adminUsernameContextKey, claims.Username)
		c.Set(adminIsSuperContextKey, isSuper)
		c.Next()
	}
}

// AdminRBACMiddleware 管理端 RBAC 鉴权中间件
func AdminRBACMiddleware(authzService *authz.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if authzService == nil {
			logger.Errorw("admin_rbac_service_unavailable")
			abortUnauthorized(c, "unauthorized")
			return
		}

		if isSuper, ok := c.Get(adminIsSuperContextKey); ok {
			if superValue, typeOK := isSuper.(bool); typeOK && superValue {
				c.Next()
				return
			}
		}

		var adminID uint
		if raw, exists := c.Get(shared.ContextKeyAdminID); exists {
			adminID, _ = raw.(uint)
		}
		if adminID == 0 {
			abortUnauthorized(c, "unauthorized")
			return
		}

		resource := c.FullPath()
		if strings.TrimSpace(resource) == "" {
			resource = c.Request.URL.Path
		}

		allowed, err := authzService.EnforceAdmin(adminID, resource, c.Request.Method)
		if err != nil {
			logger.Errorw("admin_rbac_enforce_failed",
				"admin_id", adminID,
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"error", err,
			)
			abortUnauthorized(c, "unauthorized")
			return
		}
		if !allowed {
			logger.Warnw("admin_rbac_permission_denied",
				"admin_id", adminID,
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"resource", authz.NormalizeObject(resource),
			)
			response.Forbidden(c, "forbidden")
			c.Abort()
			return
		}

		c.Next()
	}
}

// UserJWTAuthMiddleware 用户 JWT 鉴权中间件
func UserJWTAuthMiddleware(userAuth *service.UserAuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userAuth == nil {
			abortUnauthorized(c, "token invalid")
			return
		}
		tokenString, ok := bearerToken(c)
		if !ok {
			abortUnauthorized(c, "authorization header missing or invalid")
			return
		}
		claims, err := userAuth.ParseUserJWT(tokenString)
		if err != nil {
			abortUnauthorized(c, "token invalid")
			return
		}
		if err := userAuth.ValidateClaims(c.Request.Context(), claims); err != nil {
			if errors.Is(err, service.ErrUserDisabled) {
				abortUnauthorized(c, "user disabled")
				return
			}
			abortUnauthorized(c, "token revoked")
			return
		}
		c.Set(shared.ContextKeyUserID, claims.UserID)
		c.Set(shared.ContextKeyUserEmail, claims.Email)
		c.Next()
	}
}

// OptionalUserJWTMiddleware 可选用户鉴权：token 有效时写入用户身份，否则按访客处理
func OptionalUserJWTMiddleware(userAuth *service.UserAuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok || userAuth == nil {
			c.Next()
			return
		}
		claims, err := userAuth.ParseUserJWT(tokenString)
		if err == nil {
			err = userAuth.ValidateClaims(c.Request.Context(), claims)
		}
		if err != nil {
			logger.Debugw("optional_user_token_ignored", "error", err)
			c.Next()
			return
		}
		c.Set(shared.ContextKeyUserID, claims.UserID)
		c.Set(shared.ContextKeyUserEmail, claims.Email)
		c.Next()
	}
}

// GuestIdentityMiddleware 解析请求身份：已登录用户直接使用，否则复用或签发访客会话
// 解析失败时不中断请求，由处理器决定降级方式
func GuestIdentityMiddleware(sessions *service.SessionService, cfg config.GuestConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if sessions == nil {
			c.Set(shared.ContextKeyIdentityErr, service.ErrGuestSessionUnavailable)
			c.Next()
			return
		}
		identity, err := sessions.ResolveIdentity(c.Request.Context(), shared.OptionalUserID(c), shared.GuestToken(c, cfg))
		if err != nil {
			shared.RequestLog(c).Warnw("guest_identity_resolve_failed", "error", err)
			c.Set(shared.ContextKeyIdentityErr, err)
			c.Next()
			return
		}
		if identity.Minted {
			shared.SetGuestCookie(c, cfg, identity.GuestToken, identity.ExpiresAt)
		}
		c.Set(shared.ContextKeyIdentity, identity)
		c.Next()
	}
}
