package service

import (
	"context"
	"errors"
	"fmt"

	paystripe "github.com/nike-storefront/internal/payment/stripe"
)

// PaymentGateway 支付渠道能力
type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, params paystripe.CheckoutParams) (*paystripe.Session, error)
	GetCheckoutSession(ctx context.Context, sessionID string) (*paystripe.Session, error)
}

// mapGatewayError 把渠道错误归类为业务错误，invalid 为请求被渠道拒绝时返回的校验错误
func mapGatewayError(err error, invalid error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, paystripe.ErrSessionNotFound):
		return fmt.Errorf("%w: %v", ErrInvalidIdentifier, err)
	case errors.Is(err, paystripe.ErrRequestInvalid):
		return fmt.Errorf("%w: %v", invalid, err)
	default:
		return fmt.Errorf("%w: %v", ErrPaymentProviderUnavailable, err)
	}
}
