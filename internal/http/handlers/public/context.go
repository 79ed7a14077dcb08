package public

import (
	"github.com/nike-storefront/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
)

func getUserID(c *gin.Context) (uint, bool) {
	return shared.GetContextUint(c, shared.ContextKeyUserID)
}

func respondServiceError(c *gin.Context, err error, fallbackMsg string) {
	shared.RespondServiceError(c, err, fallbackMsg)
}
