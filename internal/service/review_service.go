package service

import (
	"context"
	"strings"

	"github.com/nike-storefront/internal/constants"
	"github.com/nike-storefront/internal/models"
	"github.com/nike-storefront/internal/repository"

	"github.com/shopspring/decimal"
)

// ReviewService 商品评价服务
type ReviewService struct {
	repo        repository.ReviewRepository
	productRepo repository.ProductRepository
}

// NewReviewService 创建评价服务
func NewReviewService(repo repository.ReviewRepository, productRepo repository.ProductRepository) *ReviewService {
	return &ReviewService{repo: repo, productRepo: productRepo}
}

// ProductReviews 商品评价列表与汇总，无评价时平均分为 0
type ProductReviews struct {
	Reviews       []models.Review `json:"reviews"`
	Count         int64           `json:"count"`
	AverageRating decimal.Decimal `json:"average_rating"`
}

// CreateReviewInput 发表评价输入
type CreateReviewInput struct {
	Rating  int
	Comment string
}

// ListForProduct 已上架商品的评价
func (s *ReviewService) ListForProduct(ctx context.Context, productID uint, page, pageSize int) (*ProductReviews, error) {
	if err := s.ensurePublished(ctx, productID); err != nil {
		return nil, err
	}
	if pageSize <= 0 {
		pageSize = constants.ReviewDefaultPageSize
	}
	reviews, err := s.repo.ListByProduct(ctx, productID, page, pageSize)
	if err != nil {
		return nil, err
	}
	summary, err := s.repo.Summary(ctx, productID)
	if err != nil {
		return nil, err
	}
	if reviews == nil {
		reviews = []models.Review{}
	}
	return &ProductReviews{
		Reviews:       reviews,
		Count:         summary.Count,
		AverageRating: decimal.NewFromFloat(summary.Average).Round(1),
	}, nil
}

// Create 登录用户发表评价
func (s *ReviewService) Create(ctx context.Context, userID, productID uint, input CreateReviewInput) (*models.Review, error) {
	if userID == 0 {
		return nil, ErrInvalidIdentifier
	}
	if input.Rating < constants.ReviewRatingMin || input.Rating > constants.ReviewRatingMax {
		return nil, ErrInvalidRating
	}
	comment := strings.TrimSpace(input.Comment)
	if comment == "" || len([]rune(comment)) > constants.ReviewCommentMaxLength {
		return nil, ErrInvalidReview
	}
	if err := s.ensurePublished(ctx, productID); err != nil {
		return nil, err
	}
	review := &models.Review{
		ProductID: productID,
		UserID:    userID,
		Rating:    input.Rating,
		Comment:   comment,
	}
	if err := s.repo.Create(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

func (s *ReviewService) ensurePublished(ctx context.Context, productID uint) error {
	if productID == 0 {
		return ErrInvalidIdentifier
	}
	product, err := s.productRepo.GetByID(ctx, productID, true)
	if err != nil {
		return err
	}
	if product == nil {
		return ErrProductNotFound
	}
	return nil
}
