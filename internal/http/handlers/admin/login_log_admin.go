package admin

import (
	"github.com/nike-storefront/internal/http/handlers/shared"
	"github.com/nike-storefront/internal/http/response"
	"github.com/nike-storefront/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListUserLoginLogs 管理端用户登录日志
func (h *Handler) ListUserLoginLogs(c *gin.Context) {
	page, pageSize := shared.NormalizePagination(shared.QueryInt(c, "page", 1), shared.QueryInt(c, "page_size", 20))
	filter := repository.UserLoginLogListFilter{
		Page:     page,
		PageSize: pageSize,
		Email:    c.Query("email"),
		Status:   c.Query("status"),
	}
	if uid := shared.QueryInt(c, "user_id", 0); uid > 0 {
		filter.UserID = uint(uid)
	}
	logs, total, err := h.LoginLogService.ListForAdmin(c.Request.Context(), filter)
	if err != nil {
		respondServiceError(c, err, "login log fetch failed")
		return
	}
	response.SuccessWithPage(c, logs, response.NewPagination(page, pageSize, total))
}
