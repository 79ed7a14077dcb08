package router

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/nike-storefront/internal/authz"
	"github.com/nike-storefront/internal/config"
	adminhandlers "github.com/nike-storefront/internal/http/handlers/admin"
	publichandlers "github.com/nike-storefront/internal/http/handlers/public"
	"github.com/nike-storefront/internal/http/response"
	"github.com/nike-storefront/internal/logger"
	"github.com/nike-storefront/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	r := gin.New()

	// 初始化 Handler（按前台/后台分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "nk"
	}
	redisClient := c.Cache.Client()
	loginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		Message:       "too many login attempts, retry in %d seconds",
	}
	registerRule := loginRule
	registerRule.Prefix = fmt.Sprintf("%s:rate:register", redisPrefix)
	adminLoginRule := loginRule
	adminLoginRule.Prefix = fmt.Sprintf("%s:rate:admin_login", redisPrefix)

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(logger.Z()))
	r.Use(MetricsMiddleware(c.Metrics))
	r.Use(CORSMiddleware(cfg.CORS))

	apiV1 := r.Group("/api/v1")
	{
		// 商品目录
		apiV1.GET("/products", publicHandler.ListProducts)
		apiV1.GET("/products/:id", publicHandler.GetProduct)
		apiV1.GET("/products/:id/reviews", publicHandler.ListProductReviews)
		apiV1.POST("/products/:id/reviews", UserJWTAuthMiddleware(c.UserAuthService), publicHandler.CreateProductReview)

		// 支付回调不携带身份
		apiV1.POST("/payments/webhook/stripe", publicHandler.StripeWebhook)
		apiV1.GET("/orders/session/:session_id", publicHandler.GetOrderBySession)

		// 访客或用户身份（可选登录 + 访客 cookie）
		shopper := apiV1.Group("")
		shopper.Use(OptionalUserJWTMiddleware(c.UserAuthService), GuestIdentityMiddleware(c.SessionService, cfg.Guest))
		{
			shopper.GET("/cart", publicHandler.GetCart)
			shopper.POST("/cart/items", publicHandler.AddCartItem)
			shopper.PATCH("/cart/items/:id", publicHandler.UpdateCartItem)
			shopper.DELETE("/cart/items/:id", publicHandler.RemoveCartItem)
			shopper.DELETE("/cart", publicHandler.ClearCart)
			shopper.POST("/checkout/session", publicHandler.CreateCheckoutSession)
			shopper.GET("/checkout/success", publicHandler.CheckoutSuccess)
			shopper.POST("/orders/:id/cancel", publicHandler.CancelGuestOrder)
		}

		// 用户认证接口
		auth := apiV1.Group("/auth")
		{
			auth.POST("/register", RateLimitMiddleware(redisClient, registerRule, KeyByIP), publicHandler.Register)
			auth.POST("/login", RateLimitMiddleware(redisClient, loginRule, KeyByIPAndJSONField("email")), publicHandler.Login)
			auth.POST("/logout", publicHandler.Logout)
		}

		// 用户接口（需鉴权）
		user := apiV1.Group("/me")
		user.Use(UserJWTAuthMiddleware(c.UserAuthService))
		{
			user.GET("/profile", publicHandler.GetProfile)
			user.PUT("/profile", publicHandler.UpdateProfile)
			user.PUT("/password", publicHandler.ChangePassword)
			user.GET("/login-logs", publicHandler.ListMyLoginLogs)
			user.GET("/orders", publicHandler.ListMyOrders)
			user.GET("/orders/:id", publicHandler.GetMyOrder)
			user.POST("/orders/:id/cancel", publicHandler.CancelMyOrder)
			user.GET("/addresses", publicHandler.ListAddresses)
			user.POST("/addresses", publicHandler.CreateAddress)
			user.PUT("/addresses/:id", publicHandler.UpdateAddress)
			user.DELETE("/addresses/:id", publicHandler.DeleteAddress)
			user.GET("/wishlist", publicHandler.ListWishlist)
			user.POST("/wishlist", publicHandler.AddWishlist)
			user.DELETE("/wishlist/:product_id", publicHandler.RemoveWishlist)
		}

		// 后台接口
		admin := apiV1.Group("/admin")
		{
			admin.POST("/login", RateLimitMiddleware(redisClient, adminLoginRule, KeyByIPAndJSONField("username")), adminHandler.Login)

			authorized := admin.Group("")
			authorized.Use(AdminJWTAuthMiddleware(c.AuthService))
			authorized.GET("/me", adminHandler.GetMe)

			rbac := authorized.Group("")
			rbac.Use(AdminRBACMiddleware(c.AuthzService))
			{
				rbac.GET("/orders", adminHandler.ListOrders)
				rbac.GET("/orders/:id", adminHandler.GetOrder)
				rbac.PATCH("/orders/:id/status", adminHandler.UpdateOrderStatus)

				rbac.GET("/products", adminHandler.ListProducts)
				rbac.GET("/products/:id", adminHandler.GetProduct)
				rbac.POST("/products", adminHandler.CreateProduct)
				rbac.POST("/products/:id/variants", adminHandler.CreateVariant)
				rbac.PATCH("/variants/:id/price", adminHandler.UpdateVariantPrice)

				rbac.GET("/user-login-logs", adminHandler.ListUserLoginLogs)

				rbac.GET("/authz/roles", adminHandler.ListRoles)
				rbac.POST("/authz/roles/:role/policies", adminHandler.GrantRolePolicy)
				rbac.DELETE("/authz/roles/:role", adminHandler.DeleteRole)
				rbac.GET("/authz/admins/:id/roles", adminHandler.GetAdminRoles)
				rbac.PUT("/authz/admins/:id/roles", adminHandler.SetAdminRoles)
				rbac.GET("/authz/permissions", func(ctx *gin.Context) {
					response.Success(ctx, buildAdminPermissionCatalog(r))
				})
			}
		}
	}

	// 健康检查
	r.GET("/health", healthHandler(c))
	if cfg.Metrics.Enabled {
		path := strings.TrimSpace(cfg.Metrics.Path)
		if path == "" {
			path = "/metrics"
		}
		r.GET(path, gin.WrapH(c.Metrics.Handler()))
	}

	return r
}

func healthHandler(c *provider.Container) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		checkCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
		defer cancel()

		status := gin.H{"status": "ok", "database": "ok", "redis": "disabled"}
		healthy := true
		if sqlDB, err := c.DB.DB(); err != nil || sqlDB.PingContext(checkCtx) != nil {
			status["database"] = "down"
			healthy = false
		}
		if c.Cache.Enabled() {
			status["redis"] = "ok"
			if err := c.Cache.Ping(checkCtx); err != nil {
				status["redis"] = "down"
				healthy = false
			}
		}
		if !healthy {
			status["status"] = "degraded"
			ctx.JSON(http.StatusServiceUnavailable, status)
			return
		}
		ctx.JSON(http.StatusOK, status)
	}
}

type adminPermissionCatalogItem struct {
	Module     string `json:"module"`
	Method     string `json:"method"`
	Object     string `json:"object"`
	Permission string `json:"permission"`
}

func buildAdminPermissionCatalog(engine *gin.Engine) []adminPermissionCatalogItem {
	if engine == nil {
		return []adminPermissionCatalogItem{}
	}

	routes := engine.Routes()
	seen := make(map[string]struct{}, len(routes))
	items := make([]adminPermissionCatalogItem, 0, len(routes))

	for _, item := range routes {
		method := strings.ToUpper(strings.TrimSpace(item.Method))
		if method == "" || method == "OPTIONS" || method == "HEAD" {
			continue
		}
		if !strings.HasPrefix(item.Path, "/api/v1/admin/") {
			continue
		}
		if item.Path == "/api/v1/admin/login" {
			continue
		}
		object := authz.NormalizeObject(item.Path)
		permission := method + ":" + object
		if _, exists := seen[permission]; exists {
			continue
		}
		seen[permission] = struct{}{}
		items = append(items, adminPermissionCatalogItem{
			Module:     deriveAdminPermissionModule(object),
			Method:     method,
			Object:     object,
			Permission: permission,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Module == items[j].Module {
			if items[i].Object == items[j].Object {
				return items[i].Method < items[j].Method
			}
			return items[i].Object < items[j].Object
		}
		return items[i].Module < items[j].Module
	})

	return items
}

func deriveAdminPermissionModule(object string) string {
	normalized := strings.TrimPrefix(strings.TrimSpace(object), "/")
	if normalized == "" {
		return "system"
	}
	segments := strings.Split(normalized, "/")
	if len(segments) <= 1 {
		return segments[0]
	}
	if segments[0] != "admin" {
		return segments[0]
	}
	if segments[1] == "authz" {
		return "authz"
	}
	return segments[1]
}
