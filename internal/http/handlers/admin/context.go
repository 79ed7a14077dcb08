package admin

import (
	"github.com/nike-storefront/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
)

func getAdminID(c *gin.Context) (uint, bool) {
	return shared.GetContextUint(c, shared.ContextKeyAdminID)
}

func respondServiceError(c *gin.Context, err error, fallbackMsg string) {
	shared.RespondServiceError(c, err, fallbackMsg)
}
