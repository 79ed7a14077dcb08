package admin

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nike-storefront/internal/cache"
	"github.com/nike-storefront/internal/config"
	"github.com/nike-storefront/internal/constants"
	"github.com/nike-storefront/internal/http/handlers/shared"
	"github.com/nike-storefront/internal/models"
	"github.com/nike-storefront/internal/provider"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type envelope struct {
	StatusCode int             `json:"status_code"`
	Msg        string          `json:"msg"`
	Data       json.RawMessage `json:"data"`
}

type adminFixture struct {
	db     *gorm.DB
	c      *provider.Container
	router *gin.Engine
}

func newAdminFixture(t *testing.T) *adminFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dsn := fmt.Sprintf("file:admin_handler_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, models.AutoMigrate(db))
	t.Cleanup(func() { _ = sqlDB.Close() })

	cfg := &config.Config{JWT: config.JWTConfig{SecretKey: "admin-test-secret", ExpireHours: 1}}
	container, err := provider.NewContainer(cfg, provider.Deps{DB: db, Cache: cache.NewStore(nil)})
	require.NoError(t, err)

	h := New(container)
	r := gin.New()
	r.POST("/admin/login", h.Login)
	authed := r.Group("/admin", func(c *gin.Context) {
		c.Set(shared.ContextKeyAdminID, uint(1))
		c.Set("username", "root")
		c.Next()
	})
	authed.GET("/me", h.GetMe)
	authed.GET("/orders", h.ListOrders)
	authed.GET("/orders/:id", h.GetOrder)
	authed.PATCH("/orders/:id/status", h.UpdateOrderStatus)
	authed.GET("/products", h.ListProducts)
	authed.GET("/products/:id", h.GetProduct)
	authed.POST("/products", h.CreateProduct)
	authed.POST("/products/:id/variants", h.CreateVariant)
	authed.PATCH("/variants/:id/price", h.UpdateVariantPrice)
	authed.GET("/user-login-logs", h.ListUserLoginLogs)
	authed.GET("/authz/roles", h.ListRoles)
	authed.POST("/authz/roles/:role/policies", h.GrantRolePolicy)
	authed.DELETE("/authz/roles/:role", h.DeleteRole)
	authed.GET("/authz/admins/:id/roles", h.GetAdminRoles)
	authed.PUT("/authz/admins/:id/roles", h.SetAdminRoles)

	return &adminFixture{db: db, c: container, router: r}
}

func (f *adminFixture) do(t *testing.T, method, target string, body interface{}) envelope {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func (f *adminFixture) seedOrder(t *testing.T, sessionID, status string) *models.Order {
	t.Helper()
	uid := uint(7)
	order := &models.Order{
		OrderNo:         "NK" + sessionID,
		UserID:          &uid,
		StripeSessionID: sessionID,
		Status:          status,
		Currency:        "usd",
		SubtotalAmount:  models.MustMoney("210.00"),
		DeliveryFee:     models.MustMoney("2.00"),
		TotalAmount:     models.MustMoney("212.00"),
	}
	require.NoError(t, f.db.Create(order).Error)
	return order
}

func TestAdminLogin(t *testing.T) {
	f := newAdminFixture(t)
	_, _, err := models.SeedDefaultAdmin(f.db, "root", "Sup3r-secret")
	require.NoError(t, err)

	resp := f.do(t, http.MethodPost, "/admin/login", gin.H{"username": "root", "password": "Sup3r-secret"})
	require.Equal(t, 0, resp.StatusCode, resp.Msg)
	var data struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.NotEmpty(t, data.Token)

	resp = f.do(t, http.MethodPost, "/admin/login", gin.H{"username": "root", "password": "wrong"})
	assert.Equal(t, 401, resp.StatusCode)

	resp = f.do(t, http.MethodPost, "/admin/login", gin.H{"username": "root"})
	assert.Equal(t, 400, resp.StatusCode)
}

func TestAdminOrderLifecycle(t *testing.T) {
	f := newAdminFixture(t)
	paid := f.seedOrder(t, "cs_admin_1", constants.OrderStatusPaid)
	f.seedOrder(t, "cs_admin_2", constants.OrderStatusPending)

	resp := f.do(t, http.MethodGet, "/admin/orders?status=paid", nil)
	require.Equal(t, 0, resp.StatusCode)
	var orders []models.Order
	require.NoError(t, json.Unmarshal(resp.Data, &orders))
	require.Len(t, orders, 1)
	assert.Equal(t, paid.ID, orders[0].ID)

	resp = f.do(t, http.MethodGet, fmt.Sprintf("/admin/orders/%d", paid.ID), nil)
	require.Equal(t, 0, resp.StatusCode)

	resp = f.do(t, http.MethodPatch, fmt.Sprintf("/admin/orders/%d/status", paid.ID), gin.H{"status": "shipped"})
	require.Equal(t, 0, resp.StatusCode, resp.Msg)
	var shipped models.Order
	require.NoError(t, json.Unmarshal(resp.Data, &shipped))
	assert.Equal(t, constants.OrderStatusShipped, shipped.Status)
	assert.NotNil(t, shipped.ShippedAt)

	resp = f.do(t, http.MethodPatch, fmt.Sprintf("/admin/orders/%d/status", paid.ID), gin.H{"status": "cancelled"})
	assert.Equal(t, 4003, resp.StatusCode, "shipped orders cannot be cancelled")

	resp = f.do(t, http.MethodPatch, fmt.Sprintf("/admin/orders/%d/status", paid.ID), gin.H{"status": "refunded"})
	assert.Equal(t, 400, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/admin/orders/999", nil)
	assert.Equal(t, 404, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/admin/orders/abc", nil)
	assert.Equal(t, 400, resp.StatusCode)
}

func TestAdminCatalogManagement(t *testing.T) {
	f := newAdminFixture(t)

	resp := f.do(t, http.MethodPost, "/admin/products", gin.H{"name": "Pegasus 41", "category": "running", "gender": "women"})
	require.Equal(t, 0, resp.StatusCode, resp.Msg)
	var product models.Product
	require.NoError(t, json.Unmarshal(resp.Data, &product))
	require.NotZero(t, product.ID)

	resp = f.do(t, http.MethodPost, fmt.Sprintf("/admin/products/%d/variants", product.ID), gin.H{
		"sku": "PEG41-BLK-38", "color": "black", "size": "38", "price": "130.00", "sale_price": "110.00", "in_stock": 5,
	})
	require.Equal(t, 0, resp.StatusCode, resp.Msg)
	var variant models.ProductVariant
	require.NoError(t, json.Unmarshal(resp.Data, &variant))
	require.NotNil(t, variant.SalePrice)
	assert.Equal(t, "110.00", variant.SalePrice.String())

	resp = f.do(t, http.MethodPatch, fmt.Sprintf("/admin/variants/%d/price", variant.ID), gin.H{"price": "125.00"})
	require.Equal(t, 0, resp.StatusCode, resp.Msg)
	var repriced models.ProductVariant
	require.NoError(t, json.Unmarshal(resp.Data, &repriced))
	assert.Equal(t, "125.00", repriced.Price.String())
	assert.Nil(t, repriced.SalePrice)

	resp = f.do(t, http.MethodPatch, fmt.Sprintf("/admin/variants/%d/price", variant.ID), gin.H{"price": "100.00", "sale_price": "120.00"})
	assert.Equal(t, 400, resp.StatusCode, "sale price above list price is rejected")

	resp = f.do(t, http.MethodGet, "/admin/products", nil)
	require.Equal(t, 0, resp.StatusCode)
	assert.Contains(t, string(resp.Data), "Pegasus 41")

	resp = f.do(t, http.MethodGet, fmt.Sprintf("/admin/products/%d", product.ID), nil)
	require.Equal(t, 0, resp.StatusCode)

	resp = f.do(t, http.MethodPost, "/admin/products/999/variants", gin.H{"sku": "X-1", "price": "10.00"})
	assert.Equal(t, 404, resp.StatusCode)
}

func TestAdminRoleManagement(t *testing.T) {
	f := newAdminFixture(t)

	resp := f.do(t, http.MethodPost, "/admin/authz/roles/pricing/policies", gin.H{"object": "/admin/variants/:id/price", "action": "PATCH"})
	require.Equal(t, 0, resp.StatusCode, resp.Msg)

	resp = f.do(t, http.MethodPut, "/admin/authz/admins/3/roles", gin.H{"roles": []string{"pricing", "fulfillment"}})
	require.Equal(t, 0, resp.StatusCode, resp.Msg)

	resp = f.do(t, http.MethodGet, "/admin/authz/admins/3/roles", nil)
	require.Equal(t, 0, resp.StatusCode)
	var roles []string
	require.NoError(t, json.Unmarshal(resp.Data, &roles))
	assert.ElementsMatch(t, []string{"pricing", "fulfillment"}, roles)

	allowed, err := f.c.AuthzService.EnforceAdmin(3, "/api/v1/admin/variants/8/price", http.MethodPatch)
	require.NoError(t, err)
	assert.True(t, allowed)

	resp = f.do(t, http.MethodDelete, "/admin/authz/roles/merchandiser", nil)
	assert.Equal(t, 400, resp.StatusCode, "builtin roles are immutable")

	resp = f.do(t, http.MethodDelete, "/admin/authz/roles/pricing", nil)
	require.Equal(t, 0, resp.StatusCode, resp.Msg)
	allowed, err = f.c.AuthzService.EnforceAdmin(3, "/api/v1/admin/variants/8/price", http.MethodPatch)
	require.NoError(t, err)
	assert.False(t, allowed)

	resp = f.do(t, http.MethodGet, "/admin/authz/roles", nil)
	require.Equal(t, 0, resp.StatusCode)
	assert.Contains(t, string(resp.Data), "fulfillment")
}

func TestAdminListUserLoginLogs(t *testing.T) {
	f := newAdminFixture(t)
	require.NoError(t, f.db.Create(&models.UserLoginLog{UserID: 4, Email: "a@example.com", Status: constants.LoginLogStatusSuccess}).Error)
	require.NoError(t, f.db.Create(&models.UserLoginLog{Email: "a@example.com", Status: constants.LoginLogStatusFailed, FailReason: constants.LoginFailReasonInvalidPassword}).Error)
	require.NoError(t, f.db.Create(&models.UserLoginLog{UserID: 5, Email: "b@example.com", Status: constants.LoginLogStatusSuccess}).Error)

	resp := f.do(t, http.MethodGet, "/admin/user-login-logs?email=A@example.com&status=failed", nil)
	require.Equal(t, 0, resp.StatusCode)
	var logs []models.UserLoginLog
	require.NoError(t, json.Unmarshal(resp.Data, &logs))
	require.Len(t, logs, 1)
	assert.Equal(t, constants.LoginFailReasonInvalidPassword, logs[0].FailReason)
}

func TestAdminMe(t *testing.T) {
	f := newAdminFixture(t)
	require.NoError(t, f.c.AuthzService.SetAdminRoles(1, []string{"readonly_auditor"}))

	resp := f.do(t, http.MethodGet, "/admin/me", nil)
	require.Equal(t, 0, resp.StatusCode)
	assert.Contains(t, string(resp.Data), "readonly_auditor")
	assert.Contains(t, string(resp.Data), "root")
}
