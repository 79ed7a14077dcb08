package public

import (
	"github.com/nike-storefront/internal/http/handlers/shared"
	"github.com/nike-storefront/internal/http/response"
	"github.com/nike-storefront/internal/service"

	"github.com/gin-gonic/gin"
)

// AddressRequest 地址请求
type AddressRequest struct {
	Type       string `json:"type" binding:"required"`
	Line1      string `json:"line1" binding:"required"`
	Line2      string `json:"line2"`
	City       string `json:"city" binding:"required"`
	State      string `json:"state"`
	Country    string `json:"country" binding:"required"`
	PostalCode string `json:"postal_code" binding:"required"`
	IsDefault  bool   `json:"is_default"`
}

func (r AddressRequest) toInput() service.AddressInput {
	return service.AddressInput{
		Type:       r.Type,
		Line1:      r.Line1,
		Line2:      r.Line2,
		City:       r.City,
		State:      r.State,
		Country:    r.Country,
		PostalCode: r.PostalCode,
		IsDefault:  r.IsDefault,
	}
}

// ListAddresses 地址列表
func (h *Handler) ListAddresses(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	addresses, err := h.AddressService.List(c.Request.Context(), uid)
	if err != nil {
		respondServiceError(c, err, "address fetch failed")
		return
	}
	response.Success(c, addresses)
}

// CreateAddress 新增地址
func (h *Handler) CreateAddress(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req AddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request")
		return
	}
	address, err := h.AddressService.Create(c.Request.Context(), uid, req.toInput())
	if err != nil {
		respondServiceError(c, err, "address create failed")
		return
	}
	response.Success(c, address)
}

// UpdateAddress 更新地址
func (h *Handler) UpdateAddress(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	addressID, ok := shared.ParseIDParam(c, "id")
	if !ok {
		return
	}
	var req AddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request")
		return
	}
	address, err := h.AddressService.Update(c.Request.Context(), uid, addressID, req.toInput())
	if err != nil {
		respondServiceError(c, err, "address update failed")
		return
	}
	response.Success(c, address)
}

// DeleteAddress 删除地址
func (h *Handler) DeleteAddress(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	addressID, ok := shared.ParseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.AddressService.Delete(c.Request.Context(), uid, addressID); err != nil {
		respondServiceError(c, err, "address delete failed")
		return
	}
	response.Success(c, gin.H{"deleted": true})
}
