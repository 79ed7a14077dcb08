package shared

import (
	"errors"

	"github.com/nike-storefront/internal/http/response"
	"github.com/nike-storefront/internal/logger"
	"github.com/nike-storefront/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLog 提供携带 request_id 的日志实例。
func RequestLog(c *gin.Context) *zap.SugaredLogger {
	if c == nil {
		return logger.S()
	}
	if requestID, ok := c.Get("request_id"); ok {
		if id, ok := requestID.(string); ok && id != "" {
			return logger.SW("request_id", id)
		}
	}
	return logger.S()
}

// RespondError 返回错误响应，并在有原始错误时记录日志。
func RespondError(c *gin.Context, code int, msg string, err error) {
	appErr := response.WrapError(code, msg, err)
	if err != nil {
		RequestLog(c).Errorw("handler_error",
			"code", appErr.Code,
			"message", appErr.Message,
			"error", err,
		)
	}
	response.Error(c, appErr.Code, appErr.Message)
}

// transientErrorCodes 可重试错误中具备独立业务码的类型
var transientErrorCodes = []struct {
	target error
	code   int
}{
	{target: service.ErrPaymentProviderUnavailable, code: response.CodePaymentProviderUnavailable},
	{target: service.ErrGuestSessionUnavailable, code: response.CodeGuestSessionUnavailable},
}

// ServiceErrorCode 按错误分类映射业务响应码
func ServiceErrorCode(err error) int {
	switch service.KindOf(err) {
	case service.KindValidation:
		return response.CodeBadRequest
	case service.KindNotFound:
		return response.CodeNotFound
	case service.KindUnauthorized:
		return response.CodeUnauthorized
	case service.KindForbidden:
		return response.CodeForbidden
	case service.KindConflict:
		return response.CodeConflict
	case service.KindPaymentNotCompleted:
		return response.CodePaymentNotCompleted
	case service.KindCartMissingOrEmpty:
		return response.CodeCartMissingOrEmpty
	case service.KindOrderNotCancellable:
		return response.CodeOrderNotCancellable
	}
	for _, rule := range transientErrorCodes {
		if errors.Is(err, rule.target) {
			return rule.code
		}
	}
	return response.CodeInternal
}

// ServiceErrorMessage 对外文案：业务错误取其固定文案，其余错误一律返回 fallback
func ServiceErrorMessage(err error, fallbackMsg string) string {
	var svcErr *service.Error
	if errors.As(err, &svcErr) {
		return svcErr.Error()
	}
	return fallbackMsg
}

// RespondServiceError 将业务错误转换为统一响应；未分类错误只记录日志，对外返回 fallback 文案
func RespondServiceError(c *gin.Context, err error, fallbackMsg string) {
	code := ServiceErrorCode(err)
	var svcErr *service.Error
	if errors.As(err, &svcErr) {
		if code == response.CodeInternal || service.IsRetryable(err) {
			RespondError(c, code, svcErr.Error(), err)
			return
		}
		response.Error(c, code, svcErr.Error())
		return
	}
	RespondError(c, response.CodeInternal, fallbackMsg, err)
}
