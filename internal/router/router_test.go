package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nike-storefront/internal/cache"
	"github.com/nike-storefront/internal/config"
	"github.com/nike-storefront/internal/metrics"
	"github.com/nike-storefront/internal/models"
	"github.com/nike-storefront/internal/provider"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouterTest(t *testing.T) (*gin.Engine, *provider.Container) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := setupRouterTestDB(t)
	cfg := &config.Config{
		Metrics: config.MetricsConfig{Enabled: true},
		Guest:   config.GuestConfig{CookieName: "gs"},
	}
	container, err := provider.NewContainer(cfg, provider.Deps{
		DB:      db,
		Cache:   cache.NewStore(nil),
		Metrics: metrics.New(prometheus.NewRegistry()),
	})
	require.NoError(t, err)
	return SetupRouter(cfg, container), container
}

func TestHealthReportsDatabase(t *testing.T) {
	r, _ := setupRouterTest(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "disabled", body["redis"])
}

func TestCartRouteMintsGuestCookie(t *testing.T) {
	r, _ := setupRouterTest(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, decodeStatusCode(t, w))

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "gs", cookies[0].Name)
}

func TestProductRoutesArePublic(t *testing.T) {
	r, container := setupRouterTest(t)
	product := &models.Product{Name: "Air Zoom", Category: "running", Gender: "men", IsPublished: true}
	require.NoError(t, container.DB.Create(product).Error)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))
	assert.Equal(t, 0, decodeStatusCode(t, w))
	assert.Contains(t, w.Body.String(), "Air Zoom")
	assert.Empty(t, w.Result().Cookies(), "catalog routes should not mint guests")
}

func TestAdminRoutesRequireToken(t *testing.T) {
	r, _ := setupRouterTest(t)

	for _, target := range []string{"/api/v1/admin/orders", "/api/v1/admin/me", "/api/v1/admin/authz/permissions"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, 401, decodeStatusCode(t, w), target)
	}
}

func TestMeRoutesRequireToken(t *testing.T) {
	r, _ := setupRouterTest(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/me/orders", nil))
	assert.Equal(t, 401, decodeStatusCode(t, w))
}

func TestMetricsEndpointExposed(t *testing.T) {
	r, _ := setupRouterTest(t)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "http_requests_total"))
}

func TestBuildAdminPermissionCatalog(t *testing.T) {
	r, _ := setupRouterTest(t)

	items := buildAdminPermissionCatalog(r)
	require.NotEmpty(t, items)
	seen := map[string]string{}
	for _, item := range items {
		seen[item.Permission] = item.Module
		assert.NotEqual(t, "/admin/login", item.Object)
	}
	assert.Equal(t, "variants", seen["PATCH:/admin/variants/:id/price"])
	assert.Equal(t, "orders", seen["PATCH:/admin/orders/:id/status"])
	assert.Equal(t, "authz", seen["PUT:/admin/authz/admins/:id/roles"])
}

func TestDeriveAdminPermissionModule(t *testing.T) {
	cases := map[string]string{
		"":                         "system",
		"/admin":                   "admin",
		"/admin/products/:id":      "products",
		"/admin/authz/roles/:role": "authz",
		"/metrics":                 "metrics",
	}
	for object, want := range cases {
		assert.Equal(t, want, deriveAdminPermissionModule(object), object)
	}
}
