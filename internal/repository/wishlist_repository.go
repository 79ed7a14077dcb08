package repository

import (
	"context"

	"github.com/nike-storefront/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WishlistRepository 收藏夹数据访问接口
type WishlistRepository interface {
	ListByUser(ctx context.Context, userID uint) ([]models.Wishlist, error)
	Add(ctx context.Context, userID, productID uint) (*models.Wishlist, error)
	Remove(ctx context.Context, userID, productID uint) (bool, error)
}

// GormWishlistRepository GORM 实现
type GormWishlistRepository struct {
	db *gorm.DB
}

// NewWishlistRepository 创建收藏夹仓库
func NewWishlistRepository(db *gorm.DB) *GormWishlistRepository {
	return &GormWishlistRepository{db: db}
}

// ListByUser 获取用户收藏（含商品与规格）
func (r *GormWishlistRepository) ListByUser(ctx context.Context, userID uint) ([]models.Wishlist, error) {
	var items []models.Wishlist
	err := r.db.WithContext(ctx).
		Preload("Product").
		Preload("Product.Variants").
		Where("user_id = ?", userID).
		Order("id desc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// Add 收藏商品，重复收藏返回已有记录
func (r *GormWishlistRepository) Add(ctx context.Context, userID, productID uint) (*models.Wishlist, error) {
	db := r.db.WithContext(ctx)
	item := &models.Wishlist{UserID: userID, ProductID: productID}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Omit("Product").Create(item).Error; err != nil {
		return nil, err
	}
	var existing models.Wishlist
	if err := db.Where("user_id = ? AND product_id = ?", userID, productID).First(&existing).Error; err != nil {
		return nil, err
	}
	return &existing, nil
}

// Remove 取消收藏，返回是否命中
func (r *GormWishlistRepository) Remove(ctx context.Context, userID, productID uint) (bool, error) {
	result := r.db.WithContext(ctx).Where("user_id = ? AND product_id = ?", userID, productID).Delete(&models.Wishlist{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
