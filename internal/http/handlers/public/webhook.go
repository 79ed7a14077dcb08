package public

import (
	"io"
	"net/http"

	"github.com/nike-storefront/internal/http/handlers/shared"
	"github.com/nike-storefront/internal/http/response"
	"github.com/nike-storefront/internal/service"

	"github.com/gin-gonic/gin"
)

const maxWebhookBodyBytes = 64 << 10

// StripeWebhook Stripe 回调：验签失败返回 400，可重试错误返回 500 以触发渠道重投
func (h *Handler) StripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBodyBytes))
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, response.CodeBadRequest, "invalid payload")
		return
	}
	result, err := h.WebhookService.HandleStripeEvent(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		if service.IsRetryable(err) {
			shared.RequestLog(c).Errorw("stripe_webhook_retryable_failure", "error", err)
			response.ErrorWithStatus(c, http.StatusInternalServerError, shared.ServiceErrorCode(err),
				shared.ServiceErrorMessage(err, "webhook processing failed"))
			return
		}
		shared.RequestLog(c).Warnw("stripe_webhook_bad_request", "error", err)
		response.ErrorWithStatus(c, http.StatusBadRequest, response.CodeBadRequest,
			shared.ServiceErrorMessage(err, "invalid webhook"))
		return
	}
	response.Success(c, gin.H{
		"received":   true,
		"event_id":   result.EventID,
		"event_type": result.EventType,
	})
}
