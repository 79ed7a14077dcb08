package service

import (
	"errors"
)

// Kind 业务错误分类，适配层据此映射响应码
type Kind string

const (
	KindValidation          Kind = "validation"
	KindNotFound            Kind = "not_found"
	KindUnauthorized        Kind = "unauthorized"
	KindForbidden           Kind = "forbidden"
	KindConflict            Kind = "conflict"
	KindPaymentNotCompleted Kind = "payment_not_completed"
	KindCartMissingOrEmpty  Kind = "cart_missing_or_empty"
	KindOrderNotCancellable Kind = "order_not_cancellable"
	KindTransient           Kind = "transient"
)

// Error 带分类的业务错误
type Error struct {
	kind Kind
	msg  string
}

func newError(kind Kind, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

func (e *Error) Error() string {
	return e.msg
}

// Kind 错误分类
func (e *Error) Kind() Kind {
	return e.kind
}

// KindOf 返回错误分类，未识别的错误按 transient 处理
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.kind
	}
	return KindTransient
}

// IsRetryable 调用方是否可以重试
func IsRetryable(err error) bool {
	return err != nil && KindOf(err) == KindTransient
}

var (
	ErrInvalidIdentifier          = newError(KindValidation, "invalid identifier")
	ErrInvalidQuantity            = newError(KindValidation, "quantity must be a positive integer")
	ErrInvalidEmail               = newError(KindValidation, "invalid email")
	ErrWeakPassword               = newError(KindValidation, "password does not satisfy policy")
	ErrInvalidOrderStatus         = newError(KindValidation, "invalid order status")
	ErrInvalidProduct             = newError(KindValidation, "invalid product")
	ErrInvalidPrice               = newError(KindValidation, "invalid price")
	ErrInvalidAddress             = newError(KindValidation, "invalid address")
	ErrInvalidLineAmount          = newError(KindValidation, "line amount must be positive")
	ErrInvalidRating              = newError(KindValidation, "rating must be between 1 and 5")
	ErrInvalidReview              = newError(KindValidation, "review comment is required")
	ErrWebhookSignatureInvalid    = newError(KindValidation, "webhook signature invalid")
	ErrOrderNotFound              = newError(KindNotFound, "order not found")
	ErrCartItemNotFound           = newError(KindNotFound, "cart item not found")
	ErrVariantNotFound            = newError(KindNotFound, "product variant not found")
	ErrProductNotFound            = newError(KindNotFound, "product not found")
	ErrAddressNotFound            = newError(KindNotFound, "address not found")
	ErrUserNotFound               = newError(KindNotFound, "user not found")
	ErrInvalidCredentials         = newError(KindUnauthorized, "invalid credentials")
	ErrUserDisabled               = newError(KindUnauthorized, "user disabled")
	ErrInvalidToken               = newError(KindUnauthorized, "invalid token")
	ErrNotAuthorized              = newError(KindForbidden, "not authorized")
	ErrEmailExists                = newError(KindConflict, "email already registered")
	ErrSKUExists                  = newError(KindConflict, "sku already exists")
	ErrOrderStatusTransition      = newError(KindConflict, "order status transition not allowed")
	ErrPaymentNotCompleted        = newError(KindPaymentNotCompleted, "payment not completed")
	ErrCartMissingOrEmpty         = newError(KindCartMissingOrEmpty, "cart missing or empty")
	ErrOrderNotCancellable        = newError(KindOrderNotCancellable, "order can no longer be cancelled")
	ErrGuestSessionUnavailable    = newError(KindTransient, "guest session unavailable")
	ErrPaymentProviderUnavailable = newError(KindTransient, "payment provider unavailable")
	ErrEmailServiceNotConfigured  = newError(KindTransient, "email service not configured")
	ErrEmailRecipientRejected     = newError(KindValidation, "email recipient rejected")
)

// ErrEmailServiceDisabled 邮件未启用，消费端据此跳过发送
var ErrEmailServiceDisabled = errors.New("email service disabled")
