package public

import (
	"github.com/nike-storefront/internal/http/handlers/shared"
	"github.com/nike-storefront/internal/http/response"

	"github.com/gin-gonic/gin"
)

// ListMyLoginLogs 当前用户登录记录
func (h *Handler) ListMyLoginLogs(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	page, pageSize := shared.NormalizePagination(shared.QueryInt(c, "page", 1), shared.QueryInt(c, "page_size", 20))
	logs, total, err := h.LoginLogService.ListForUser(c.Request.Context(), uid, page, pageSize)
	if err != nil {
		respondServiceError(c, err, "login log fetch failed")
		return
	}
	response.SuccessWithPage(c, logs, response.NewPagination(page, pageSize, total))
}
