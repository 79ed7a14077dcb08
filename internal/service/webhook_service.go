package service

import (
	"context"
	"errors"

	"github.com/nike-storefront/internal/constants"
	"github.com/nike-storefront/internal/logger"
	"github.com/nike-storefront/internal/metrics"
	paystripe "github.com/nike-storefront/internal/payment/stripe"
)

// WebhookVerifier 验签并解析支付渠道回调
type WebhookVerifier interface {
	VerifyWebhook(payload []byte, signature string) (*paystripe.WebhookEvent, error)
}

// WebhookResult 回调处理结果
type WebhookResult struct {
	EventID   string
	EventType string
	Order     *CreateOrderResult
}

// WebhookService Stripe 回调处理
type WebhookService struct {
	verifier WebhookVerifier
	orders   *OrderService
	metrics  *metrics.Metrics
}

// NewWebhookService 创建回调服务
func NewWebhookService(verifier WebhookVerifier, orders *OrderService, m *metrics.Metrics) *WebhookService {
	return &WebhookService{verifier: verifier, orders: orders, metrics: m}
}

// HandleStripeEvent 验签后按事件类型分发；支付完成事件落单，其余事件仅记录
func (s *WebhookService) HandleStripeEvent(ctx context.Context, payload []byte, signature string) (*WebhookResult, error) {
	if s.verifier == nil {
		return nil, ErrPaymentProviderUnavailable
	}
	event, err := s.verifier.VerifyWebhook(payload, signature)
	if err != nil {
		s.metrics.WebhookReceived("unknown", "rejected")
		if errors.Is(err, paystripe.ErrSignatureInvalid) || errors.Is(err, paystripe.ErrPayloadInvalid) {
			logger.Warnw("stripe_webhook_rejected", "error", err)
			return nil, ErrWebhookSignatureInvalid
		}
		logger.Errorw("stripe_webhook_verify_failed", "error", err)
		return nil, ErrPaymentProviderUnavailable
	}
	result := &WebhookResult{EventID: event.ID, EventType: event.Type}

	switch {
	case paystripe.IsCheckoutCompletion(event.Type):
		if event.Session == nil || event.Session.ID == "" {
			s.metrics.WebhookReceived(event.Type, "rejected")
			return nil, ErrWebhookSignatureInvalid
		}
		created, err := s.orders.CreateOrder(ctx, event.Session.ID, nil)
		if err != nil {
			if errors.Is(err, ErrPaymentNotCompleted) {
				// 异步支付方式在 completed 事件时可能尚未到账，等待 async_payment_succeeded
				logger.Infow("stripe_webhook_payment_pending", "event_id", event.ID, "session_id", event.Session.ID)
				s.metrics.WebhookReceived(event.Type, "pending")
				return result, nil
			}
			logger.Warnw("stripe_webhook_create_order_failed",
				"event_id", event.ID,
				"session_id", event.Session.ID,
				"retryable", IsRetryable(err),
				"error", err,
			)
			s.metrics.WebhookReceived(event.Type, "failed")
			if IsRetryable(err) {
				return nil, err
			}
			// 非重试类错误返回 200，避免渠道无限重投
			return result, nil
		}
		result.Order = created
		logger.Infow("stripe_webhook_order_committed",
			"event_id", event.ID,
			"session_id", event.Session.ID,
			"order_id", created.Order.ID,
			"already_existed", created.AlreadyExisted,
		)
		s.metrics.WebhookReceived(event.Type, "processed")
	case event.Type == constants.StripeEventCheckoutAsyncPaymentFailed:
		sessionID := ""
		if event.Session != nil {
			sessionID = event.Session.ID
		}
		logger.Warnw("stripe_webhook_async_payment_failed", "event_id", event.ID, "session_id", sessionID)
		s.metrics.WebhookReceived(event.Type, "logged")
	default:
		logger.Infow("stripe_webhook_event_ignored", "event_id", event.ID, "event_type", event.Type)
		s.metrics.WebhookReceived(event.Type, "ignored")
	}
	return result, nil
}
