package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/nike-storefront/internal/constants"
	"github.com/nike-storefront/internal/models"
	paystripe "github.com/nike-storefront/internal/payment/stripe"
	"github.com/nike-storefront/internal/queue"
	"github.com/nike-storefront/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// orderFixture 准备一个含 A×1(100.00) 与 B×2(55.00) 的用户购物车
func orderFixture(t *testing.T) (*serviceFixture, *models.Cart, models.Owner) {
	t.Helper()
	f := newServiceFixture(t)
	ctx := context.Background()
	a := seedVariant(t, f.db, "Air Force 1", "AF1-42", "100.00", "")
	b := seedVariant(t, f.db, "Revolution 7", "RV7-42", "70.00", "55.00")
	owner := models.UserOwner(21)
	cart, err := f.cart.GetOrCreateCart(ctx, owner)
	require.NoError(t, err)
	require.NoError(t, f.cart.AddItem(ctx, cart.ID, a.ID, 1))
	require.NoError(t, f.cart.AddItem(ctx, cart.ID, b.ID, 2))
	return f, cart, owner
}

func TestCreateOrderComputesTotalAndClearsCart(t *testing.T) {
	f, cart, owner := orderFixture(t)
	ctx := context.Background()
	f.paidSession("cs_paid_1", cart.ID, map[string]string{"user_id": "21"})

	result, err := f.order.CreateOrder(ctx, "cs_paid_1", nil)
	require.NoError(t, err)
	require.False(t, result.AlreadyExisted)
	order := result.Order
	assert.Equal(t, "212.00", order.TotalAmount.String())
	assert.Equal(t, "210.00", order.SubtotalAmount.String())
	assert.Equal(t, "2.00", order.DeliveryFee.String())
	assert.Equal(t, constants.OrderStatusPaid, order.Status)
	assert.NotNil(t, order.PaidAt)
	assert.True(t, order.Owner().Equal(owner))
	assert.Equal(t, "buyer@example.com", order.CustomerEmail)

	view, err := f.order.GetOrder(ctx, "cs_paid_1")
	require.NoError(t, err)
	assert.False(t, view.Degraded)
	require.Len(t, view.Items, 2)

	items, err := f.carts.ListItems(ctx, cart.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
	kept, err := f.carts.GetByID(ctx, cart.ID)
	require.NoError(t, err)
	assert.NotNil(t, kept, "cart row stays after commit")
}

func TestCreateOrderIsIdempotent(t *testing.T) {
	f, cart, _ := orderFixture(t)
	ctx := context.Background()
	f.paidSession("cs_idem", cart.ID, nil)

	first, err := f.order.CreateOrder(ctx, "cs_idem", nil)
	require.NoError(t, err)
	second, err := f.order.CreateOrder(ctx, "cs_idem", nil)
	require.NoError(t, err)
	assert.True(t, second.AlreadyExisted)
	assert.Equal(t, first.Order.ID, second.Order.ID)

	var count int64
	require.NoError(t, f.db.Model(&models.Order{}).Where("stripe_session_id = ?", "cs_idem").Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestCreateOrderConcurrentCallsProduceOneOrder(t *testing.T) {
	f, cart, _ := orderFixture(t)
	ctx := context.Background()
	f.paidSession("cs_race", cart.ID, nil)

	const n = 6
	results := make([]*CreateOrderResult, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.order.CreateOrder(ctx, "cs_race", nil)
		}(i)
	}
	wg.Wait()

	created := 0
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, results[0].Order.ID, results[i].Order.ID)
		if !results[i].AlreadyExisted {
			created++
		}
	}
	assert.Equal(t, 1, created)

	var count int64
	require.NoError(t, f.db.Model(&models.Order{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
	var lines int64
	require.NoError(t, f.db.Model(&models.OrderItem{}).Count(&lines).Error)
	assert.EqualValues(t, 2, lines)
}

func TestCreateOrderFailureModes(t *testing.T) {
	f, cart, _ := orderFixture(t)
	ctx := context.Background()

	_, err := f.order.CreateOrder(ctx, "  ", nil)
	assert.ErrorIs(t, err, ErrInvalidIdentifier)

	_, err = f.order.CreateOrder(ctx, "cs_unknown", nil)
	assert.ErrorIs(t, err, ErrInvalidIdentifier)

	f.gateway.put(&paystripe.Session{
		ID:            "cs_unpaid",
		PaymentStatus: "unpaid",
		Metadata:      map[string]string{"cart_id": fmt.Sprintf("%d", cart.ID)},
	})
	_, err = f.order.CreateOrder(ctx, "cs_unpaid", nil)
	assert.ErrorIs(t, err, ErrPaymentNotCompleted)

	f.paidSession("cs_no_cart", 0, nil)
	_, err = f.order.CreateOrder(ctx, "cs_no_cart", nil)
	assert.ErrorIs(t, err, ErrCartMissingOrEmpty)

	empty, err := f.cart.GetOrCreateCart(ctx, models.UserOwner(300))
	require.NoError(t, err)
	f.paidSession("cs_empty", empty.ID, nil)
	_, err = f.order.CreateOrder(ctx, "cs_empty", nil)
	assert.ErrorIs(t, err, ErrCartMissingOrEmpty)

	f.gateway.getErr = errors.New("connection reset")
	_, err = f.order.CreateOrder(ctx, "cs_anything", nil)
	assert.ErrorIs(t, err, ErrPaymentProviderUnavailable)
	assert.True(t, IsRetryable(err))
}

func TestCreateOrderOwnerResolution(t *testing.T) {
	f, cart, _ := orderFixture(t)
	ctx := context.Background()
	f.paidSession("cs_hint", cart.ID, map[string]string{"user_id": "21"})

	hint := models.GuestOwner(5)
	result, err := f.order.CreateOrder(ctx, "cs_hint", &hint)
	require.NoError(t, err)
	assert.True(t, result.Order.Owner().Equal(hint))

	assert.True(t, resolveOrderOwner(nil, map[string]string{"guest_id": "8"}, cart).Equal(models.GuestOwner(8)))
	assert.True(t, resolveOrderOwner(nil, nil, cart).Equal(cart.Owner()))
}

func TestOrderPriceSnapshotIsImmutable(t *testing.T) {
	f, cart, _ := orderFixture(t)
	ctx := context.Background()
	f.paidSession("cs_snapshot", cart.ID, nil)
	result, err := f.order.CreateOrder(ctx, "cs_snapshot", nil)
	require.NoError(t, err)

	items, err := f.orders.ListItems(ctx, result.Order.ID)
	require.NoError(t, err)
	for _, item := range items {
		sale := models.MustMoney("1.00")
		_, err := f.products.UpdateVariantPrice(ctx, item.ProductVariantID, models.MustMoney("999.00"), &sale)
		require.NoError(t, err)
	}

	view, err := f.order.GetOrder(ctx, "cs_snapshot")
	require.NoError(t, err)
	prices := map[string]string{}
	for _, item := range view.Items {
		prices[item.SKU] = item.PriceAtPurchase.String()
	}
	assert.Equal(t, map[string]string{"AF1-42": "100.00", "RV7-42": "55.00"}, prices)
	assert.Equal(t, "212.00", view.Order.TotalAmount.String())
}

// failingItemsRepo 订单行读取总是失败
type failingItemsRepo struct {
	repository.OrderRepository
}

func (r failingItemsRepo) ListItems(context.Context, uint) ([]models.OrderItem, error) {
	return nil, errors.New("order_items unavailable")
}

func TestGetOrderDegradesWhenItemsFail(t *testing.T) {
	f, cart, _ := orderFixture(t)
	ctx := context.Background()
	f.paidSession("cs_degraded", cart.ID, nil)
	_, err := f.order.CreateOrder(ctx, "cs_degraded", nil)
	require.NoError(t, err)

	queueClient, err := queue.NewClient(nil)
	require.NoError(t, err)
	svc := NewOrderService(failingItemsRepo{f.orders}, f.carts, f.gateway, queueClient, nil, OrderServiceOptions{DeliveryFee: decimal.RequireFromString("2.00")})
	view, err := svc.GetOrder(ctx, "cs_degraded")
	require.NoError(t, err)
	assert.True(t, view.Degraded)
	assert.Empty(t, view.Items)
	assert.Equal(t, "212.00", view.Order.TotalAmount.String())

	_, err = svc.GetOrder(ctx, "cs_missing")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestCancelOrderGuards(t *testing.T) {
	f, cart, owner := orderFixture(t)
	ctx := context.Background()
	f.paidSession("cs_cancel", cart.ID, nil)
	result, err := f.order.CreateOrder(ctx, "cs_cancel", nil)
	require.NoError(t, err)
	orderID := result.Order.ID

	_, err = f.order.CancelOrder(ctx, 9999, owner)
	assert.ErrorIs(t, err, ErrOrderNotFound)

	_, err = f.order.CancelOrder(ctx, orderID, models.UserOwner(999))
	assert.ErrorIs(t, err, ErrNotAuthorized)

	cancelled, err := f.order.CancelOrder(ctx, orderID, owner)
	require.NoError(t, err)
	assert.Equal(t, constants.OrderStatusCancelled, cancelled.Status)
	assert.NotNil(t, cancelled.CanceledAt)

	_, err = f.order.CancelOrder(ctx, orderID, owner)
	assert.ErrorIs(t, err, ErrOrderNotCancellable)
}

func TestCancelOrderRejectedAfterShipping(t *testing.T) {
	f, cart, owner := orderFixture(t)
	ctx := context.Background()
	f.paidSession("cs_ship", cart.ID, nil)
	result, err := f.order.CreateOrder(ctx, "cs_ship", nil)
	require.NoError(t, err)

	shipped, err := f.order.UpdateOrderStatus(ctx, result.Order.ID, constants.OrderStatusShipped)
	require.NoError(t, err)
	assert.NotNil(t, shipped.ShippedAt)

	_, err = f.order.CancelOrder(ctx, result.Order.ID, owner)
	assert.ErrorIs(t, err, ErrOrderNotCancellable)
}

func TestUpdateOrderStatusTransitions(t *testing.T) {
	f, cart, _ := orderFixture(t)
	ctx := context.Background()
	f.paidSession("cs_admin", cart.ID, nil)
	result, err := f.order.CreateOrder(ctx, "cs_admin", nil)
	require.NoError(t, err)
	id := result.Order.ID

	_, err = f.order.UpdateOrderStatus(ctx, id, "lost")
	assert.ErrorIs(t, err, ErrInvalidOrderStatus)
	_, err = f.order.UpdateOrderStatus(ctx, id, constants.OrderStatusDelivered)
	assert.ErrorIs(t, err, ErrOrderStatusTransition)
	_, err = f.order.UpdateOrderStatus(ctx, id, constants.OrderStatusPending)
	assert.ErrorIs(t, err, ErrOrderStatusTransition)

	_, err = f.order.UpdateOrderStatus(ctx, id, constants.OrderStatusShipped)
	require.NoError(t, err)
	delivered, err := f.order.UpdateOrderStatus(ctx, id, constants.OrderStatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, constants.OrderStatusDelivered, delivered.Status)
	assert.NotNil(t, delivered.DeliveredAt)

	_, err = f.order.UpdateOrderStatus(ctx, id, constants.OrderStatusCancelled)
	assert.ErrorIs(t, err, ErrOrderNotCancellable)
}

func TestOwnerScopedOrderQueries(t *testing.T) {
	f, cart, owner := orderFixture(t)
	ctx := context.Background()
	f.paidSession("cs_history", cart.ID, nil)
	result, err := f.order.CreateOrder(ctx, "cs_history", nil)
	require.NoError(t, err)

	orders, total, err := f.order.ListOrdersByUser(ctx, owner.ID(), "", 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, orders, 1)
	assert.Len(t, orders[0].Items, 2)

	_, _, err = f.order.ListOrdersByUser(ctx, owner.ID(), "bogus", 1, 10)
	assert.ErrorIs(t, err, ErrInvalidOrderStatus)

	got, err := f.order.GetOrderForOwner(ctx, result.Order.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, result.Order.ID, got.ID)
	_, err = f.order.GetOrderForOwner(ctx, result.Order.ID, models.UserOwner(1000))
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestOrderTotalMismatch(t *testing.T) {
	order := &models.Order{Currency: "usd", TotalAmount: models.MustMoney("212.00")}

	_, mismatch := orderTotalMismatch(order, &paystripe.Session{})
	assert.False(t, mismatch, "amount not reported by provider")

	_, mismatch = orderTotalMismatch(order, &paystripe.Session{AmountTotal: 21200})
	assert.False(t, mismatch)

	expected, mismatch := orderTotalMismatch(order, &paystripe.Session{AmountTotal: 31200})
	assert.True(t, mismatch)
	assert.Equal(t, "312.00", expected.StringFixed(2))
}

func TestCreateOrderSkipsRemovedVariantAndStillCommits(t *testing.T) {
	f, cart, _ := orderFixture(t)
	ctx := context.Background()
	items, err := f.carts.ListItems(ctx, cart.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	// 支付后其中一款被删除，渠道金额仍为完整购物车 212.00
	require.NoError(t, f.db.Unscoped().Delete(&models.ProductVariant{}, items[1].ProductVariantID).Error)

	f.paidSession("cs_mismatch", cart.ID, map[string]string{"user_id": "21"})
	session, err := f.gateway.GetCheckoutSession(ctx, "cs_mismatch")
	require.NoError(t, err)
	session.AmountTotal = 21200
	f.gateway.put(session)

	result, err := f.order.CreateOrder(ctx, "cs_mismatch", nil)
	require.NoError(t, err)
	view, err := f.order.GetOrder(ctx, "cs_mismatch")
	require.NoError(t, err)
	assert.Len(t, view.Items, 1)
	expected, mismatch := orderTotalMismatch(result.Order, session)
	assert.True(t, mismatch)
	assert.Equal(t, "212.00", expected.StringFixed(2))
	assert.NotEqual(t, "212.00", result.Order.TotalAmount.String())
}
