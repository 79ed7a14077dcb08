package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/nike-storefront/internal/constants"
	"github.com/nike-storefront/internal/metrics"
	"github.com/nike-storefront/internal/models"
	paystripe "github.com/nike-storefront/internal/payment/stripe"
)

const deliveryFeeLineName = "Delivery Fee"

// CheckoutOptions 结算参数
type CheckoutOptions struct {
	SuccessURL       string
	CancelURL        string
	AllowedCountries []string
	ProviderTimeout  time.Duration
}

// CheckoutInput 结算入参
type CheckoutInput struct {
	Owner         models.Owner
	CustomerEmail string
}

// CheckoutSessionResult 结算会话
type CheckoutSessionResult struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

// CheckoutService 把购物车转换为托管结算页会话
type CheckoutService struct {
	cartService *CartService
	gateway     PaymentGateway
	metrics     *metrics.Metrics
	opts        CheckoutOptions
}

// NewCheckoutService 创建结算服务
func NewCheckoutService(cartService *CartService, gateway PaymentGateway, m *metrics.Metrics, opts CheckoutOptions) *CheckoutService {
	if opts.ProviderTimeout <= 0 {
		opts.ProviderTimeout = 10 * time.Second
	}
	return &CheckoutService{
		cartService: cartService,
		gateway:     gateway,
		metrics:     m,
		opts:        opts,
	}
}

// CreateCheckoutSession 基于当前购物车创建结算会话，metadata 记录购物车与身份供下单回查
func (s *CheckoutService) CreateCheckoutSession(ctx context.Context, in CheckoutInput) (*CheckoutSessionResult, error) {
	if !in.Owner.Valid() {
		return nil, ErrInvalidIdentifier
	}
	if s.gateway == nil {
		return nil, ErrPaymentProviderUnavailable
	}
	view, err := s.cartService.GetCartView(ctx, in.Owner)
	if err != nil {
		return nil, err
	}
	if view.Empty() {
		return nil, ErrCartMissingOrEmpty
	}

	params, err := buildCheckoutParams(view, in, s.opts)
	if err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, s.opts.ProviderTimeout)
	defer cancel()
	session, err := s.gateway.CreateCheckoutSession(callCtx, params)
	if err != nil {
		mapped := mapGatewayError(err, ErrInvalidLineAmount)
		if IsRetryable(mapped) {
			s.metrics.ProviderError("create_session")
		}
		return nil, mapped
	}
	if session == nil || session.ID == "" {
		return nil, ErrPaymentProviderUnavailable
	}
	return &CheckoutSessionResult{SessionID: session.ID, URL: session.URL}, nil
}

func buildCheckoutParams(view *CartView, in CheckoutInput, opts CheckoutOptions) (paystripe.CheckoutParams, error) {
	currency := view.Currency
	items := make([]paystripe.LineItem, 0, len(view.Lines)+1)
	for _, line := range view.Lines {
		amount, err := paystripe.ToMinorAmount(line.UnitPrice.Decimal, currency)
		if err != nil || amount <= 0 {
			return paystripe.CheckoutParams{}, ErrInvalidLineAmount
		}
		desc := strings.TrimSpace(strings.Join(nonEmpty(line.Color, line.Size), " / "))
		items = append(items, paystripe.LineItem{
			Name:        line.ProductName,
			Description: desc,
			ImageURL:    line.ImageURL,
			UnitAmount:  amount,
			Quantity:    int64(line.Quantity),
		})
	}
	if view.DeliveryFee.Decimal.IsPositive() {
		fee, err := paystripe.ToMinorAmount(view.DeliveryFee.Decimal, currency)
		if err != nil {
			return paystripe.CheckoutParams{}, errors.Join(ErrInvalidLineAmount, err)
		}
		items = append(items, paystripe.LineItem{Name: deliveryFeeLineName, UnitAmount: fee, Quantity: 1})
	}

	metadata := map[string]string{
		constants.CheckoutMetaCartID:      strconv.FormatUint(uint64(view.CartID), 10),
		constants.CheckoutMetaTotalAmount: view.Total.String(),
	}
	if in.Owner.IsUser() {
		metadata[constants.CheckoutMetaUserID] = strconv.FormatUint(uint64(in.Owner.ID()), 10)
	} else {
		metadata[constants.CheckoutMetaGuestID] = strconv.FormatUint(uint64(in.Owner.ID()), 10)
	}

	return paystripe.CheckoutParams{
		LineItems:        items,
		Currency:         currency,
		SuccessURL:       opts.SuccessURL,
		CancelURL:        opts.CancelURL,
		CustomerEmail:    strings.TrimSpace(in.CustomerEmail),
		AllowedCountries: opts.AllowedCountries,
		Metadata:         metadata,
	}, nil
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
