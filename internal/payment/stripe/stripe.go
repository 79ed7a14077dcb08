package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/nike-storefront/internal/config"
	"github.com/nike-storefront/internal/constants"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	stripeapi "github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/webhook"
)

var (
	ErrConfigInvalid       = errors.New("stripe config invalid")
	ErrProviderUnavailable = errors.New("stripe unavailable")
	ErrSessionNotFound     = errors.New("stripe checkout session not found")
	ErrRequestInvalid      = errors.New("stripe request invalid")
	ErrSignatureInvalid    = errors.New("stripe signature invalid")
	ErrPayloadInvalid      = errors.New("stripe webhook payload invalid")
)

const (
	// PaymentStatusPaid Checkout Session 已支付
	PaymentStatusPaid = "paid"
	// PaymentStatusNoPaymentRequired 零金额会话
	PaymentStatusNoPaymentRequired = "no_payment_required"
)

var zeroDecimalCurrencies = map[string]struct{}{
	"BIF": {},
	"CLP": {},
	"DJF": {},
	"GNF": {},
	"JPY": {},
	"KMF": {},
	"KRW": {},
	"MGA": {},
	"PYG": {},
	"RWF": {},
	"UGX": {},
	"VND": {},
	"VUV": {},
	"XAF": {},
	"XOF": {},
	"XPF": {},
}

// Session 与渠道无关的 Checkout Session 视图
type Session struct {
	ID            string
	URL           string
	PaymentStatus string
	Status        string
	CustomerEmail string
	Currency      string
	AmountTotal   int64
	Metadata      map[string]string
}

// LineItem 结算行，金额为最小货币单位
type LineItem struct {
	Name        string
	Description string
	ImageURL    string
	UnitAmount  int64
	Quantity    int64
}

// CheckoutParams 创建 Checkout Session 的参数
type CheckoutParams struct {
	LineItems        []LineItem
	Currency         string
	SuccessURL       string
	CancelURL        string
	CustomerEmail    string
	AllowedCountries []string
	Metadata         map[string]string
}

// WebhookEvent 已验签的 webhook 事件；仅 checkout.session.* 事件携带 Session
type WebhookEvent struct {
	ID      string
	Type    string
	Session *Session
}

// IsPaid 会话是否已完成支付
func IsPaid(s *Session) bool {
	if s == nil {
		return false
	}
	return s.PaymentStatus == PaymentStatusPaid || s.PaymentStatus == PaymentStatusNoPaymentRequired
}

// sessionAPI stripe-go 的最小调用面，便于测试替换
type sessionAPI interface {
	Create(ctx context.Context, params *stripeapi.CheckoutSessionCreateParams) (*stripeapi.CheckoutSession, error)
	Retrieve(ctx context.Context, id string, params *stripeapi.CheckoutSessionRetrieveParams) (*stripeapi.CheckoutSession, error)
}

// Client Stripe 客户端，所有出站调用经过熔断器
type Client struct {
	api           sessionAPI
	breaker       *gobreaker.CircuitBreaker[*stripeapi.CheckoutSession]
	webhookSecret string
}

// NewClient 创建 Stripe 客户端
func NewClient(cfg config.StripeConfig) (*Client, error) {
	key := strings.TrimSpace(cfg.SecretKey)
	if key == "" {
		return nil, fmt.Errorf("%w: secret_key is required", ErrConfigInvalid)
	}
	sc := stripeapi.NewClient(key)
	return newClient(sc.V1CheckoutSessions, cfg), nil
}

func newClient(api sessionAPI, cfg config.StripeConfig) *Client {
	return &Client{
		api:           api,
		breaker:       newBreaker(cfg.Breaker),
		webhookSecret: strings.TrimSpace(cfg.WebhookSecret),
	}
}

func newBreaker(cfg config.CircuitBreakerConfig) *gobreaker.CircuitBreaker[*stripeapi.CheckoutSession] {
	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	maxRequests := cfg.MaxRequests
	if maxRequests == 0 {
		maxRequests = 1
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return gobreaker.NewCircuitBreaker[*stripeapi.CheckoutSession](gobreaker.Settings{
		Name:        "stripe",
		MaxRequests: maxRequests,
		Interval:    time.Duration(cfg.IntervalSeconds) * time.Second,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			// 4xx 属于调用方问题，不计入熔断
			return err == nil || isClientError(err)
		},
	})
}

// CreateCheckoutSession 创建托管结算页会话
func (c *Client) CreateCheckoutSession(ctx context.Context, in CheckoutParams) (*Session, error) {
	currency := strings.ToLower(strings.TrimSpace(in.Currency))
	if currency == "" || len(in.LineItems) == 0 {
		return nil, fmt.Errorf("%w: currency and line items are required", ErrRequestInvalid)
	}
	params := &stripeapi.CheckoutSessionCreateParams{
		Mode:       stripeapi.String(string(stripeapi.CheckoutSessionModePayment)),
		SuccessURL: stripeapi.String(in.SuccessURL),
		CancelURL:  stripeapi.String(in.CancelURL),
		Metadata:   in.Metadata,
	}
	if email := strings.TrimSpace(in.CustomerEmail); email != "" {
		params.CustomerEmail = stripeapi.String(email)
	}
	if len(in.AllowedCountries) > 0 {
		params.ShippingAddressCollection = &stripeapi.CheckoutSessionCreateShippingAddressCollectionParams{
			AllowedCountries: stripeapi.StringSlice(in.AllowedCountries),
		}
	}
	for _, item := range in.LineItems {
		if item.UnitAmount <= 0 || item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: line item %q has no amount", ErrRequestInvalid, item.Name)
		}
		product := &stripeapi.CheckoutSessionCreateLineItemPriceDataProductDataParams{
			Name: stripeapi.String(item.Name),
		}
		if item.Description != "" {
			product.Description = stripeapi.String(item.Description)
		}
		if item.ImageURL != "" {
			product.Images = stripeapi.StringSlice([]string{item.ImageURL})
		}
		params.LineItems = append(params.LineItems, &stripeapi.CheckoutSessionCreateLineItemParams{
			Quantity: stripeapi.Int64(item.Quantity),
			PriceData: &stripeapi.CheckoutSessionCreateLineItemPriceDataParams{
				Currency:    stripeapi.String(currency),
				UnitAmount:  stripeapi.Int64(item.UnitAmount),
				ProductData: product,
			},
		})
	}

	cs, err := c.breaker.Execute(func() (*stripeapi.CheckoutSession, error) {
		return c.api.Create(ctx, params)
	})
	if err != nil {
		return nil, mapError(err)
	}
	return toSession(cs), nil
}

// GetCheckoutSession 查询会话
func (c *Client) GetCheckoutSession(ctx context.Context, sessionID string) (*Session, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session id is required", ErrRequestInvalid)
	}
	cs, err := c.breaker.Execute(func() (*stripeapi.CheckoutSession, error) {
		return c.api.Retrieve(ctx, sessionID, &stripeapi.CheckoutSessionRetrieveParams{})
	})
	if err != nil {
		return nil, mapError(err)
	}
	return toSession(cs), nil
}

// VerifyWebhook 校验签名并解析事件
func (c *Client) VerifyWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	if c.webhookSecret == "" {
		return nil, fmt.Errorf("%w: webhook_secret is required", ErrConfigInvalid)
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, c.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
	}
	out := &WebhookEvent{ID: event.ID, Type: string(event.Type)}
	if strings.HasPrefix(out.Type, "checkout.session.") && event.Data != nil {
		var cs stripeapi.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPayloadInvalid, err)
		}
		out.Session = toSession(&cs)
	}
	return out, nil
}

// IsCheckoutCompletion 事件是否表示 Checkout 支付完成
func IsCheckoutCompletion(eventType string) bool {
	switch eventType {
	case constants.StripeEventCheckoutCompleted, constants.StripeEventCheckoutAsyncPaymentSucceed:
		return true
	default:
		return false
	}
}

func toSession(cs *stripeapi.CheckoutSession) *Session {
	if cs == nil {
		return nil
	}
	out := &Session{
		ID:            cs.ID,
		URL:           cs.URL,
		PaymentStatus: string(cs.PaymentStatus),
		Status:        string(cs.Status),
		CustomerEmail: cs.CustomerEmail,
		Currency:      string(cs.Currency),
		AmountTotal:   cs.AmountTotal,
		Metadata:      map[string]string{},
	}
	for k, v := range cs.Metadata {
		out.Metadata[k] = v
	}
	if out.CustomerEmail == "" && cs.CustomerDetails != nil {
		out.CustomerEmail = cs.CustomerDetails.Email
	}
	return out
}

func isClientError(err error) bool {
	var stripeErr *stripeapi.Error
	if errors.As(err, &stripeErr) {
		return stripeErr.HTTPStatusCode >= 400 && stripeErr.HTTPStatusCode < 500 &&
			stripeErr.HTTPStatusCode != http.StatusTooManyRequests
	}
	return false
}

func mapError(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: circuit open", ErrProviderUnavailable)
	}
	var stripeErr *stripeapi.Error
	if errors.As(err, &stripeErr) {
		switch {
		case stripeErr.HTTPStatusCode == http.StatusNotFound:
			return fmt.Errorf("%w: %s", ErrSessionNotFound, stripeErr.Msg)
		case isClientError(err):
			return fmt.Errorf("%w: %s", ErrRequestInvalid, stripeErr.Msg)
		}
	}
	return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
}

// ToMinorAmount 金额转为最小货币单位
func ToMinorAmount(amount decimal.Decimal, currency string) (int64, error) {
	if amount.IsNegative() {
		return 0, fmt.Errorf("%w: amount must not be negative", ErrRequestInvalid)
	}
	minor := amount.Shift(int32(currencyScale(currency)))
	if !minor.Equal(minor.Truncate(0)) {
		return 0, fmt.Errorf("%w: amount precision is invalid", ErrRequestInvalid)
	}
	return minor.IntPart(), nil
}

// FromMinorAmount 最小货币单位转为金额
func FromMinorAmount(minor int64, currency string) decimal.Decimal {
	return decimal.New(minor, -int32(currencyScale(currency)))
}

func currencyScale(currency string) int {
	if _, ok := zeroDecimalCurrencies[strings.ToUpper(strings.TrimSpace(currency))]; ok {
		return 0
	}
	return 2
}
