package repository

import (
	"context"
	"time"

	"github.com/nike-storefront/internal/models"

	"gorm.io/gorm"
)

// GuestRepository 访客会话数据访问接口
type GuestRepository interface {
	Create(ctx context.Context, guest *models.Guest) error
	GetByToken(ctx context.Context, token string) (*models.Guest, error)
	DeleteExpiredByToken(ctx context.Context, token string, now time.Time) (int64, error)
	DeleteByID(ctx context.Context, id uint) error
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
	WithTx(tx *gorm.DB) GuestRepository
}

// GormGuestRepository GORM 实现
type GormGuestRepository struct {
	db *gorm.DB
}

// NewGuestRepository 创建访客仓库
func NewGuestRepository(db *gorm.DB) *GormGuestRepository {
	return &GormGuestRepository{db: db}
}

// WithTx 绑定事务
func (r *GormGuestRepository) WithTx(tx *gorm.DB) GuestRepository {
	if tx == nil {
		return r
	}
	return &GormGuestRepository{db: tx}
}

// Create 创建访客会话
func (r *GormGuestRepository) Create(ctx context.Context, guest *models.Guest) error {
	return r.db.WithContext(ctx).Create(guest).Error
}

// GetByToken 根据令牌获取访客
func (r *GormGuestRepository) GetByToken(ctx context.Context, token string) (*models.Guest, error) {
	var guest models.Guest
	if err := r.db.WithContext(ctx).Where("session_token = ?", token).First(&guest).Error; err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &guest, nil
}

// DeleteExpiredByToken 删除该令牌对应的过期访客及其购物车
func (r *GormGuestRepository) DeleteExpiredByToken(ctx context.Context, token string, now time.Time) (int64, error) {
	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		expired := tx.Model(&models.Guest{}).Select("id").Where("session_token = ? AND expires_at <= ?", token, now)
		if err := deleteGuestCarts(tx, expired); err != nil {
			return err
		}
		result := tx.Where("session_token = ? AND expires_at <= ?", token, now).Delete(&models.Guest{})
		deleted = result.RowsAffected
		return result.Error
	})
	return deleted, err
}

// DeleteByID 删除访客
func (r *GormGuestRepository) DeleteByID(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Guest{}, id).Error
}

// PurgeExpired 批量清理过期访客及其购物车，并回收访客已不存在的遗留购物车
func (r *GormGuestRepository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	var purged int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		expired := tx.Model(&models.Guest{}).Select("id").Where("expires_at <= ?", now)
		if err := deleteGuestCarts(tx, expired); err != nil {
			return err
		}
		orphaned := tx.Model(&models.Cart{}).Select("id").
			Where("guest_id IS NOT NULL AND guest_id NOT IN (?)", tx.Model(&models.Guest{}).Select("id"))
		if err := tx.Where("cart_id IN (?)", orphaned).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("guest_id IS NOT NULL AND guest_id NOT IN (?)", tx.Model(&models.Guest{}).Select("id")).
			Delete(&models.Cart{}).Error; err != nil {
			return err
		}
		result := tx.Where("expires_at <= ?", now).Delete(&models.Guest{})
		purged = result.RowsAffected
		return result.Error
	})
	return purged, err
}

// deleteGuestCarts 删除 guestIDs 子查询命中的访客购物车及其明细
func deleteGuestCarts(tx *gorm.DB, guestIDs *gorm.DB) error {
	carts := tx.Model(&models.Cart{}).Select("id").Where("guest_id IN (?)", guestIDs)
	if err := tx.Where("cart_id IN (?)", carts).Delete(&models.CartItem{}).Error; err != nil {
		return err
	}
	return tx.Where("guest_id IN (?)", guestIDs).Delete(&models.Cart{}).Error
}
