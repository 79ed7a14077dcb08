package repository

import (
	"context"

	"github.com/nike-storefront/internal/models"

	"gorm.io/gorm"
)

// ReviewRepository 商品评价数据访问接口
type ReviewRepository interface {
	Create(ctx context.Context, review *models.Review) error
	ListByProduct(ctx context.Context, productID uint, page, pageSize int) ([]models.Review, error)
	Summary(ctx context.Context, productID uint) (ReviewSummary, error)
	WithTx(tx *gorm.DB) ReviewRepository
}

// ReviewSummary 评价汇总
type ReviewSummary struct {
	Count   int64
	Average float64
}

// GormReviewRepository GORM 实现
type GormReviewRepository struct {
	db *gorm.DB
}

// NewReviewRepository 创建评价仓库
func NewReviewRepository(db *gorm.DB) *GormReviewRepository {
	return &GormReviewRepository{db: db}
}

// WithTx 绑定事务
func (r *GormReviewRepository) WithTx(tx *gorm.DB) ReviewRepository {
	if tx == nil {
		return r
	}
	return &GormReviewRepository{db: tx}
}

// Create 新增评价
func (r *GormReviewRepository) Create(ctx context.Context, review *models.Review) error {
	return r.db.WithContext(ctx).Create(review).Error
}

// ListByProduct 商品评价列表，最新在前，附带作者昵称
func (r *GormReviewRepository) ListByProduct(ctx context.Context, productID uint, page, pageSize int) ([]models.Review, error) {
	query := r.db.WithContext(ctx).Model(&models.Review{}).
		Select("reviews.*, users.display_name AS author_name").
		Joins("LEFT JOIN users ON users.id = reviews.user_id").
		Where("reviews.product_id = ?", productID).
		Order("reviews.created_at DESC").Order("reviews.id DESC")
	var reviews []models.Review
	if err := applyPagination(query, page, pageSize).Find(&reviews).Error; err != nil {
		return nil, err
	}
	return reviews, nil
}

// Summary 评价数量与平均分
func (r *GormReviewRepository) Summary(ctx context.Context, productID uint) (ReviewSummary, error) {
	var row struct {
		Count   int64
		Average float64
	}
	err := r.db.WithContext(ctx).Model(&models.Review{}).
		Select("COUNT(*) AS count, COALESCE(AVG(rating), 0) AS average").
		Where("product_id = ?", productID).
		Scan(&row).Error
	if err != nil {
		return ReviewSummary{}, err
	}
	return ReviewSummary{Count: row.Count, Average: row.Average}, nil
}
