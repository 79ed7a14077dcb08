package provider

import (
	"github.com/nike-storefront/internal/authz"
	"github.com/nike-storefront/internal/cache"
	"github.com/nike-storefront/internal/config"
	"github.com/nike-storefront/internal/metrics"
	"github.com/nike-storefront/internal/queue"
	"github.com/nike-storefront/internal/repository"
	"github.com/nike-storefront/internal/service"

	"gorm.io/gorm"
)

// Deps 容器的外部依赖，由启动流程创建后注入
type Deps struct {
	DB          *gorm.DB
	Cache       *cache.Store
	QueueClient *queue.Client
	Gateway     service.PaymentGateway
	Webhook     service.WebhookVerifier
	Metrics     *metrics.Metrics
}

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	DB          *gorm.DB
	Cache       *cache.Store
	QueueClient *queue.Client
	Metrics     *metrics.Metrics

	// Repositories
	AdminRepo    repository.AdminRepository
	UserRepo     repository.UserRepository
	GuestRepo    repository.GuestRepository
	ProductRepo  repository.ProductRepository
	CartRepo     repository.CartRepository
	OrderRepo    repository.OrderRepository
	AddressRepo  repository.AddressRepository
	WishlistRepo repository.WishlistRepository
	LoginLogRepo repository.UserLoginLogRepository
	ReviewRepo   repository.ReviewRepository

	// Services
	AuthzService    *authz.Service
	AuthService     *service.AuthService
	UserAuthService *service.UserAuthService
	SessionService  *service.SessionService
	ProductService  *service.ProductService
	CartService     *service.CartService
	CheckoutService *service.CheckoutService
	OrderService    *service.OrderService
	WebhookService  *service.WebhookService
	AddressService  *service.AddressService
	WishlistService *service.WishlistService
	EmailService    *service.EmailService
	LoginLogService *service.LoginLogService
	ReviewService   *service.ReviewService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config, deps Deps) (*Container, error) {
	c := &Container{
		Config:      cfg,
		DB:          deps.DB,
		Cache:       deps.Cache,
		QueueClient: deps.QueueClient,
		Metrics:     deps.Metrics,
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	if err := c.initServices(deps); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Container) initRepositories() {
	db := c.DB
	c.AdminRepo = repository.NewAdminRepository(db)
	c.UserRepo = repository.NewUserRepository(db)
	c.GuestRepo = repository.NewGuestRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.CartRepo = repository.NewCartRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.AddressRepo = repository.NewAddressRepository(db)
	c.WishlistRepo = repository.NewWishlistRepository(db)
	c.LoginLogRepo = repository.NewUserLoginLogRepository(db)
	c.ReviewRepo = repository.NewReviewRepository(db)
}

func (c *Container) initServices(deps Deps) error {
	authzService, err := authz.NewService(c.DB)
	if err != nil {
		return err
	}
	c.AuthzService = authzService

	cfg := c.Config
	currency := cfg.Order.Currency
	if currency == "" {
		currency = cfg.Stripe.Currency
	}
	deliveryFee := cfg.Order.DeliveryFeeAmount()

	c.EmailService = service.NewEmailService(&cfg.Email)
	c.AuthService = service.NewAuthService(cfg.JWT, c.AdminRepo, c.Cache)
	c.UserAuthService = service.NewUserAuthService(cfg.UserJWT, cfg.Security.PasswordPolicy, c.UserRepo, c.Cache)
	c.SessionService = service.NewSessionService(c.GuestRepo, cfg.Guest.TTL()).WithMetrics(c.Metrics)
	c.ProductService = service.NewProductService(c.ProductRepo, c.Cache)
	c.CartService = service.NewCartService(c.CartRepo, c.GuestRepo, c.ProductRepo, deliveryFee, currency, c.Metrics)
	c.CheckoutService = service.NewCheckoutService(c.CartService, deps.Gateway, c.Metrics, service.CheckoutOptions{
		SuccessURL:       cfg.Stripe.SuccessURL,
		CancelURL:        cfg.Stripe.CancelURL,
		AllowedCountries: cfg.Stripe.AllowedCountries,
		ProviderTimeout:  cfg.Stripe.RequestTimeout(),
	})
	c.OrderService = service.NewOrderService(c.OrderRepo, c.CartRepo, deps.Gateway, c.QueueClient, c.Metrics, service.OrderServiceOptions{
		DeliveryFee:     deliveryFee,
		Currency:        currency,
		ProviderTimeout: cfg.Stripe.RequestTimeout(),
	})
	c.WebhookService = service.NewWebhookService(deps.Webhook, c.OrderService, c.Metrics)
	c.AddressService = service.NewAddressService(c.AddressRepo)
	c.WishlistService = service.NewWishlistService(c.WishlistRepo, c.ProductRepo)
	c.LoginLogService = service.NewLoginLogService(c.LoginLogRepo)
	c.ReviewService = service.NewReviewService(c.ReviewRepo, c.ProductRepo)
	return nil
}
