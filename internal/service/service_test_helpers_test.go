package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/nike-storefront/internal/models"
	paystripe "github.com/nike-storefront/internal/payment/stripe"
	"github.com/nike-storefront/internal/queue"
	"github.com/nike-storefront/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:service_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, models.AutoMigrate(db))
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func seedVariant(t *testing.T, db *gorm.DB, name, sku, price, sale string) *models.ProductVariant {
	t.Helper()
	product := &models.Product{Name: name, Category: "shoes", Gender: "unisex", IsPublished: true}
	require.NoError(t, db.Create(product).Error)
	variant := &models.ProductVariant{ProductID: product.ID, SKU: sku, Color: "black", Size: "42", Price: models.MustMoney(price), InStock: 20}
	if sale != "" {
		sp := models.MustMoney(sale)
		variant.SalePrice = &sp
	}
	require.NoError(t, db.Omit("Product").Create(variant).Error)
	return variant
}

func seedGuest(t *testing.T, db *gorm.DB, token string) *models.Guest {
	t.Helper()
	guest := &models.Guest{SessionToken: token, ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, db.Create(guest).Error)
	return guest
}

// fakeGateway 内存支付渠道
type fakeGateway struct {
	mu        sync.Mutex
	sessions  map[string]*paystripe.Session
	created   []paystripe.CheckoutParams
	getErr    error
	createErr error
	getCalls  int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{sessions: map[string]*paystripe.Session{}}
}

func (g *fakeGateway) put(session *paystripe.Session) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sessions[session.ID] = session
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, params paystripe.CheckoutParams) (*paystripe.Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.created = append(g.created, params)
	id := fmt.Sprintf("cs_test_%d", len(g.created))
	session := &paystripe.Session{
		ID:            id,
		URL:           "https://checkout.stripe.test/" + id,
		PaymentStatus: "unpaid",
		Status:        "open",
		Currency:      params.Currency,
		CustomerEmail: params.CustomerEmail,
		Metadata:      params.Metadata,
	}
	g.sessions[id] = session
	return session, nil
}

func (g *fakeGateway) GetCheckoutSession(_ context.Context, id string) (*paystripe.Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.getCalls++
	if g.getErr != nil {
		return nil, g.getErr
	}
	session, ok := g.sessions[id]
	if !ok {
		return nil, paystripe.ErrSessionNotFound
	}
	copied := *session
	return &copied, nil
}

type serviceFixture struct {
	db       *gorm.DB
	carts    repository.CartRepository
	guests   repository.GuestRepository
	orders   repository.OrderRepository
	products repository.ProductRepository
	gateway  *fakeGateway
	cart     *CartService
	order    *OrderService
	checkout *CheckoutService
	session  *SessionService
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	db := setupServiceTestDB(t)
	f := &serviceFixture{
		db:       db,
		carts:    repository.NewCartRepository(db),
		guests:   repository.NewGuestRepository(db),
		orders:   repository.NewOrderRepository(db),
		products: repository.NewProductRepository(db),
		gateway:  newFakeGateway(),
	}
	queueClient, err := queue.NewClient(nil)
	require.NoError(t, err)
	fee := decimal.RequireFromString("2.00")
	f.cart = NewCartService(f.carts, f.guests, f.products, fee, "usd", nil)
	f.order = NewOrderService(f.orders, f.carts, f.gateway, queueClient, nil, OrderServiceOptions{
		DeliveryFee:     fee,
		Currency:        "usd",
		ProviderTimeout: time.Second,
	})
	f.checkout = NewCheckoutService(f.cart, f.gateway, nil, CheckoutOptions{
		SuccessURL:       "https://shop.test/checkout/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:        "https://shop.test/cart",
		AllowedCountries: []string{"US", "CA"},
	})
	f.session = NewSessionService(f.guests, 7*24*time.Hour)
	return f
}

// paidSession 登记一个已支付且指向购物车的会话
func (f *serviceFixture) paidSession(id string, cartID uint, meta map[string]string) {
	metadata := map[string]string{"cart_id": fmt.Sprintf("%d", cartID)}
	for k, v := range meta {
		metadata[k] = v
	}
	f.gateway.put(&paystripe.Session{
		ID:            id,
		PaymentStatus: paystripe.PaymentStatusPaid,
		Status:        "complete",
		Currency:      "usd",
		CustomerEmail: "buyer@example.com",
		Metadata:      metadata,
	})
}
