package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/nike-storefront/internal/constants"
	"github.com/nike-storefront/internal/logger"
	"github.com/nike-storefront/internal/metrics"
	"github.com/nike-storefront/internal/models"
	paystripe "github.com/nike-storefront/internal/payment/stripe"
	"github.com/nike-storefront/internal/queue"
	"github.com/nike-storefront/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderServiceOptions 订单服务参数
type OrderServiceOptions struct {
	DeliveryFee     decimal.Decimal
	Currency        string
	ProviderTimeout time.Duration
}

// OrderService 订单服务：以支付会话 ID 为幂等键把购物车落为订单
type OrderService struct {
	orderRepo       repository.OrderRepository
	cartRepo        repository.CartRepository
	gateway         PaymentGateway
	queueClient     *queue.Client
	metrics         *metrics.Metrics
	deliveryFee     decimal.Decimal
	currency        string
	providerTimeout time.Duration
	now             func() time.Time
}

// NewOrderService 创建订单服务
func NewOrderService(orderRepo repository.OrderRepository, cartRepo repository.CartRepository, gateway PaymentGateway, queueClient *queue.Client, m *metrics.Metrics, opts OrderServiceOptions) *OrderService {
	timeout := opts.ProviderTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	currency := strings.ToLower(strings.TrimSpace(opts.Currency))
	if currency == "" {
		currency = "usd"
	}
	return &OrderService{
		orderRepo:       orderRepo,
		cartRepo:        cartRepo,
		gateway:         gateway,
		queueClient:     queueClient,
		metrics:         m,
		deliveryFee:     opts.DeliveryFee.Round(2),
		currency:        currency,
		providerTimeout: timeout,
		now:             time.Now,
	}
}

// CreateOrderResult 下单结果
type CreateOrderResult struct {
	Order *models.Order
	// AlreadyExisted 为 true 表示该支付会话此前已生成订单，本次未做任何写入
	AlreadyExisted bool
}

// OrderView 订单详情视图
type OrderView struct {
	Order *models.Order      `json:"order"`
	Items []models.OrderItem `json:"items"`
	// Degraded 为 true 表示订单行读取失败，仅返回订单本身
	Degraded bool `json:"degraded"`
}

// CreateOrder 以支付会话 ID 幂等创建订单。
// 同一会话无论被成功页还是 webhook 调用多少次，都只会产生一个订单。
func (s *OrderService) CreateOrder(ctx context.Context, paymentSessionID string, hint *models.Owner) (*CreateOrderResult, error) {
	sessionID := strings.TrimSpace(paymentSessionID)
	if sessionID == "" {
		return nil, ErrInvalidIdentifier
	}

	existing, err := s.orderRepo.GetByStripeSessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return s.duplicate(existing), nil
	}

	session, err := s.fetchSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !paystripe.IsPaid(session) {
		return nil, ErrPaymentNotCompleted
	}
	cartID, ok := parseMetadataID(session.Metadata, constants.CheckoutMetaCartID)
	if !ok {
		return nil, ErrCartMissingOrEmpty
	}

	var (
		created *models.Order
		winner  *models.Order
	)
	err = s.orderRepo.Transaction(ctx, func(tx *gorm.DB) error {
		orders := s.orderRepo.WithTx(tx)
		carts := s.cartRepo.WithTx(tx)

		found, err := orders.GetByStripeSessionID(ctx, sessionID)
		if err != nil {
			return err
		}
		if found != nil {
			winner = found
			return nil
		}

		cart, err := carts.GetByID(ctx, cartID)
		if err != nil {
			return err
		}
		if cart == nil {
			return ErrCartMissingOrEmpty
		}
		items, err := carts.ListItemsWithVariant(ctx, cart.ID)
		if err != nil {
			return err
		}
		order, orderItems := s.buildOrder(sessionID, session, cart, items, hint)
		if len(orderItems) == 0 {
			return ErrCartMissingOrEmpty
		}
		if expected, mismatch := orderTotalMismatch(order, session); mismatch {
			// 购物车在支付后被改动或商品下架，以购物车快照落单，留待人工核对
			logger.Warnw("order_total_mismatch",
				"session_id", sessionID,
				"cart_id", cart.ID,
				"expected", expected.StringFixed(2),
				"actual", order.TotalAmount.String(),
				"skipped_lines", len(items)-len(orderItems),
			)
		}
		if err := orders.Create(ctx, order, orderItems); err != nil {
			return err
		}
		if _, err := carts.ClearItems(ctx, cart.ID); err != nil {
			return err
		}
		created = order
		return nil
	})

	switch {
	case err == nil:
	case repository.IsUniqueViolation(err), errors.Is(err, ErrCartMissingOrEmpty):
		// 并发提交已经落单（唯一约束冲突或购物车已被清空），以胜出者为准
		found, lookupErr := s.orderRepo.GetByStripeSessionID(ctx, sessionID)
		if lookupErr != nil {
			return nil, lookupErr
		}
		if found == nil {
			return nil, err
		}
		return s.duplicate(found), nil
	default:
		return nil, err
	}
	if winner != nil {
		return s.duplicate(winner), nil
	}

	s.metrics.OrderCreated("created")
	s.enqueueConfirmation(created.ID)
	return &CreateOrderResult{Order: created}, nil
}

func (s *OrderService) duplicate(order *models.Order) *CreateOrderResult {
	s.metrics.OrderCreated("duplicate")
	return &CreateOrderResult{Order: order, AlreadyExisted: true}
}

func (s *OrderService) fetchSession(ctx context.Context, sessionID string) (*paystripe.Session, error) {
	if s.gateway == nil {
		return nil, ErrPaymentProviderUnavailable
	}
	callCtx, cancel := context.WithTimeout(ctx, s.providerTimeout)
	defer cancel()
	session, err := s.gateway.GetCheckoutSession(callCtx, sessionID)
	if err != nil {
		mapped := mapGatewayError(err, ErrInvalidIdentifier)
		if IsRetryable(mapped) {
			s.metrics.ProviderError("retrieve_session")
		}
		return nil, mapped
	}
	if session == nil {
		return nil, ErrPaymentProviderUnavailable
	}
	return session, nil
}

// buildOrder 根据购物车快照生成订单与订单行；价格在此刻冻结
func (s *OrderService) buildOrder(sessionID string, session *paystripe.Session, cart *models.Cart, items []models.CartItem, hint *models.Owner) (*models.Order, []models.OrderItem) {
	now := s.now()
	orderItems := make([]models.OrderItem, 0, len(items))
	subtotal := decimal.Zero
	for _, item := range items {
		variant := item.Variant
		if variant == nil || item.Quantity <= 0 {
			continue
		}
		unit := variant.UnitPrice()
		subtotal = subtotal.Add(unit.Mul(decimal.NewFromInt(int64(item.Quantity))))
		orderItem := models.OrderItem{
			ProductVariantID: variant.ID,
			SKU:              variant.SKU,
			Color:            variant.Color,
			Size:             variant.Size,
			Quantity:         item.Quantity,
			PriceAtPurchase:  models.NewMoneyFromDecimal(unit),
			CreatedAt:        now,
		}
		if variant.Product != nil {
			orderItem.ProductName = variant.Product.Name
		}
		orderItems = append(orderItems, orderItem)
	}

	owner := resolveOrderOwner(hint, session.Metadata, cart)
	userID, guestID := owner.Columns()
	currency := strings.ToLower(strings.TrimSpace(session.Currency))
	if currency == "" {
		currency = s.currency
	}
	order := &models.Order{
		OrderNo:         generateOrderNo(),
		UserID:          userID,
		GuestID:         guestID,
		StripeSessionID: sessionID,
		Status:          constants.OrderStatusPaid,
		Currency:        currency,
		SubtotalAmount:  models.NewMoneyFromDecimal(subtotal),
		DeliveryFee:     models.NewMoneyFromDecimal(s.deliveryFee),
		TotalAmount:     models.NewMoneyFromDecimal(subtotal.Add(s.deliveryFee)),
		CustomerEmail:   strings.TrimSpace(session.CustomerEmail),
		PaidAt:          &now,
	}
	return order, orderItems
}

// orderTotalMismatch 比较订单金额与渠道实收金额；渠道未返回金额时不做比较
func orderTotalMismatch(order *models.Order, session *paystripe.Session) (decimal.Decimal, bool) {
	if session == nil || session.AmountTotal <= 0 {
		return decimal.Zero, false
	}
	expected := paystripe.FromMinorAmount(session.AmountTotal, order.Currency)
	return expected, !expected.Equal(order.TotalAmount.Decimal)
}

// resolveOrderOwner 订单归属：调用方身份优先，其次为会话 metadata，最后为购物车归属
func resolveOrderOwner(hint *models.Owner, metadata map[string]string, cart *models.Cart) models.Owner {
	if hint != nil && hint.Valid() {
		return *hint
	}
	if id, ok := parseMetadataID(metadata, constants.CheckoutMetaUserID); ok {
		return models.UserOwner(id)
	}
	if id, ok := parseMetadataID(metadata, constants.CheckoutMetaGuestID); ok {
		return models.GuestOwner(id)
	}
	return cart.Owner()
}

func parseMetadataID(metadata map[string]string, key string) (uint, bool) {
	raw := strings.TrimSpace(metadata[key])
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// GetOrder 按支付会话 ID 查询订单；订单行读取失败时降级返回订单本身
func (s *OrderService) GetOrder(ctx context.Context, paymentSessionID string) (*OrderView, error) {
	sessionID := strings.TrimSpace(paymentSessionID)
	if sessionID == "" {
		return nil, ErrInvalidIdentifier
	}
	order, err := s.orderRepo.GetByStripeSessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	items, err := s.orderRepo.ListItems(ctx, order.ID)
	if err != nil {
		return &OrderView{Order: order, Items: []models.OrderItem{}, Degraded: true}, nil
	}
	order.Items = items
	return &OrderView{Order: order, Items: items}, nil
}

// CancelOrder 取消订单，仅 pending / paid 状态可取消
func (s *OrderService) CancelOrder(ctx context.Context, orderID uint, requester models.Owner) (*models.Order, error) {
	if orderID == 0 {
		return nil, ErrInvalidIdentifier
	}
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if !order.Owner().Equal(requester) {
		return nil, ErrNotAuthorized
	}
	if !isCancellable(order.Status) {
		return nil, ErrOrderNotCancellable
	}
	now := s.now()
	ok, err := s.orderRepo.UpdateStatus(ctx, order.ID, cancellableStatuses(), constants.OrderStatusCancelled, map[string]interface{}{
		"canceled_at": now,
		"updated_at":  now,
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrOrderNotCancellable
	}
	s.enqueueStatusEmail(order.ID, constants.OrderStatusCancelled)
	return s.orderRepo.GetByID(ctx, order.ID)
}

// ListOrdersByUser 用户订单历史
func (s *OrderService) ListOrdersByUser(ctx context.Context, userID uint, status string, page, pageSize int) ([]models.Order, int64, error) {
	if userID == 0 {
		return nil, 0, ErrInvalidIdentifier
	}
	status = normalizeOrderStatus(status)
	if status != "" && !IsValidOrderStatus(status) {
		return nil, 0, ErrInvalidOrderStatus
	}
	return s.orderRepo.ListByUser(ctx, repository.OrderListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   userID,
		Status:   status,
	})
}

// GetOrderForOwner 获取属于调用方的订单；他人订单按不存在处理
func (s *OrderService) GetOrderForOwner(ctx context.Context, orderID uint, owner models.Owner) (*models.Order, error) {
	if orderID == 0 {
		return nil, ErrInvalidIdentifier
	}
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil || !order.Owner().Equal(owner) {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// ListOrdersForAdmin 管理端订单列表
func (s *OrderService) ListOrdersForAdmin(ctx context.Context, filter repository.OrderListFilter) ([]models.Order, int64, error) {
	filter.Status = normalizeOrderStatus(filter.Status)
	if filter.Status != "" && !IsValidOrderStatus(filter.Status) {
		return nil, 0, ErrInvalidOrderStatus
	}
	return s.orderRepo.ListAdmin(ctx, filter)
}

// GetOrderForAdmin 管理端订单详情
func (s *OrderService) GetOrderForAdmin(ctx context.Context, orderID uint) (*models.Order, error) {
	if orderID == 0 {
		return nil, ErrInvalidIdentifier
	}
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// UpdateOrderStatus 管理端推进订单状态
func (s *OrderService) UpdateOrderStatus(ctx context.Context, orderID uint, target string) (*models.Order, error) {
	target = normalizeOrderStatus(target)
	if !IsValidOrderStatus(target) {
		return nil, ErrInvalidOrderStatus
	}
	order, err := s.GetOrderForAdmin(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status == target {
		return order, nil
	}
	from, ok := orderStatusPredecessors[target]
	if !ok {
		return nil, ErrOrderStatusTransition
	}
	now := s.now()
	updates := map[string]interface{}{"updated_at": now}
	if column := statusTimestampColumn(target); column != "" {
		updates[column] = now
	}
	updated, err := s.orderRepo.UpdateStatus(ctx, order.ID, from, target, updates)
	if err != nil {
		return nil, err
	}
	if !updated {
		if target == constants.OrderStatusCancelled {
			return nil, ErrOrderNotCancellable
		}
		return nil, ErrOrderStatusTransition
	}
	s.enqueueStatusEmail(order.ID, target)
	return s.orderRepo.GetByID(ctx, order.ID)
}

func (s *OrderService) enqueueConfirmation(orderID uint) {
	if err := s.queueClient.EnqueueOrderConfirmationEmail(queue.OrderConfirmationEmailPayload{OrderID: orderID}); err != nil {
		logger.Warnw("order_confirmation_email_enqueue_failed", "order_id", orderID, "error", err)
	}
}

func (s *OrderService) enqueueStatusEmail(orderID uint, status string) {
	if err := s.queueClient.EnqueueOrderStatusEmail(queue.OrderStatusEmailPayload{OrderID: orderID, Status: status}); err != nil {
		logger.Warnw("order_status_email_enqueue_failed", "order_id", orderID, "status", status, "error", err)
	}
}

func generateOrderNo() string {
	now := time.Now().Format("20060102150405")
	return fmt.Sprintf("NK%s%s", now, randNumeric(6))
}

func randNumeric(length int) string {
	var b strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			b.WriteString("0")
			continue
		}
		b.WriteString(strconv.FormatInt(n.Int64(), 10))
	}
	return b.String()
}
