package admin

import (
	"github.com/nike-storefront/internal/http/handlers/shared"
	"github.com/nike-storefront/internal/http/response"

	"github.com/gin-gonic/gin"
)

// GrantPolicyRequest 授权请求
type GrantPolicyRequest struct {
	Object string `json:"object" binding:"required"`
	Action string `json:"action" binding:"required"`
}

// SetAdminRolesRequest 设置管理员角色请求
type SetAdminRolesRequest struct {
	Roles []string `json:"roles"`
}

// ListRoles 角色列表
func (h *Handler) ListRoles(c *gin.Context) {
	roles, err := h.AuthzService.ListRoles()
	if err != nil {
		shared.RespondError(c, response.CodeInternal, "role fetch failed", err)
		return
	}
	response.Success(c, roles)
}

// GrantRolePolicy 为角色授予接口权限
func (h *Handler) GrantRolePolicy(c *gin.Context) {
	var req GrantPolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request")
		return
	}
	if err := h.AuthzService.GrantRolePolicy(c.Param("role"), req.Object, req.Action); err != nil {
		shared.RespondError(c, response.CodeBadRequest, err.Error(), nil)
		return
	}
	operatorID := c.GetUint(shared.ContextKeyAdminID)
	shared.RequestLog(c).Infow("admin_authz_policy_granted",
		"operator_id", operatorID,
		"role", c.Param("role"),
		"object", req.Object,
		"action", req.Action,
	)
	response.Success(c, gin.H{"granted": true})
}

// DeleteRole 删除自定义角色
func (h *Handler) DeleteRole(c *gin.Context) {
	if err := h.AuthzService.DeleteRole(c.Param("role")); err != nil {
		shared.RespondError(c, response.CodeBadRequest, err.Error(), nil)
		return
	}
	operatorID := c.GetUint(shared.ContextKeyAdminID)
	shared.RequestLog(c).Infow("admin_authz_role_deleted", "operator_id", operatorID, "role", c.Param("role"))
	response.Success(c, gin.H{"deleted": true})
}

// GetAdminRoles 查询管理员角色
func (h *Handler) GetAdminRoles(c *gin.Context) {
	adminID, ok := shared.ParseIDParam(c, "id")
	if !ok {
		return
	}
	roles, err := h.AuthzService.GetAdminRoles(adminID)
	if err != nil {
		shared.RespondError(c, response.CodeInternal, "role fetch failed", err)
		return
	}
	response.Success(c, roles)
}

// SetAdminRoles 覆盖设置管理员角色
func (h *Handler) SetAdminRoles(c *gin.Context) {
	adminID, ok := shared.ParseIDParam(c, "id")
	if !ok {
		return
	}
	var req SetAdminRolesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request")
		return
	}
	if err := h.AuthzService.SetAdminRoles(adminID, req.Roles); err != nil {
		shared.RespondError(c, response.CodeBadRequest, err.Error(), nil)
		return
	}
	operatorID := c.GetUint(shared.ContextKeyAdminID)
	shared.RequestLog(c).Infow("admin_authz_roles_updated", "operator_id", operatorID, "admin_id", adminID, "roles", req.Roles)
	response.Success(c, gin.H{"roles": req.Roles})
}
