package public

import (
	"github.com/nike-storefront/internal/constants"
	"github.com/nike-storefront/internal/http/handlers/shared"
	"github.com/nike-storefront/internal/http/response"
	"github.com/nike-storefront/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateReviewRequest 发表评价请求
type CreateReviewRequest struct {
	Rating  int    `json:"rating" binding:"required"`
	Comment string `json:"comment" binding:"required"`
}

// ListProductReviews 商品评价列表及平均分
func (h *Handler) ListProductReviews(c *gin.Context) {
	productID, ok := shared.ParseIDParam(c, "id")
	if !ok {
		return
	}
	page, pageSize := shared.NormalizePagination(
		shared.QueryInt(c, "page", 1),
		shared.QueryInt(c, "page_size", constants.ReviewDefaultPageSize),
	)
	reviews, err := h.ReviewService.ListForProduct(c.Request.Context(), productID, page, pageSize)
	if err != nil {
		respondServiceError(c, err, "review fetch failed")
		return
	}
	response.Success(c, reviews)
}

// CreateProductReview 登录用户评价商品
func (h *Handler) CreateProductReview(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	productID, ok := shared.ParseIDParam(c, "id")
	if !ok {
		return
	}
	var req CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request")
		return
	}
	review, err := h.ReviewService.Create(c.Request.Context(), uid, productID, service.CreateReviewInput{
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		respondServiceError(c, err, "review create failed")
		return
	}
	shared.RequestLog(c).Infow("product_review_created", "user_id", uid, "product_id", productID, "rating", review.Rating)
	response.Success(c, review)
}
