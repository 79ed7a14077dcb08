package repository

import (
	"context"
	"errors"
	"time"

	"github.com/nike-storefront/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrInvalidOwner 归属身份无效
var ErrInvalidOwner = errors.New("invalid cart owner")

// CartRepository 购物车数据访问接口
type CartRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Cart, error)
	GetByOwner(ctx context.Context, owner models.Owner) (*models.Cart, error)
	CreateIfAbsent(ctx context.Context, owner models.Owner) (*models.Cart, error)
	Reassign(ctx context.Context, cartID uint, owner models.Owner) error
	Delete(ctx context.Context, cartID uint) error
	AddQuantity(ctx context.Context, cartID, variantID uint, delta int) error
	GetItem(ctx context.Context, cartID, itemID uint) (*models.CartItem, error)
	ListItems(ctx context.Context, cartID uint) ([]models.CartItem, error)
	ListItemsWithVariant(ctx context.Context, cartID uint) ([]models.CartItem, error)
	SetItemQuantity(ctx context.Context, cartID, itemID uint, quantity int) (bool, error)
	DeleteItem(ctx context.Context, cartID, itemID uint) (bool, error)
	ClearItems(ctx context.Context, cartID uint) (int64, error)
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) CartRepository
}

// GormCartRepository GORM 实现
type GormCartRepository struct {
	db *gorm.DB
}

// NewCartRepository 创建购物车仓库
func NewCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

// Transaction 执行事务
func (r *GormCartRepository) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(fn)
}

// WithTx 绑定事务
func (r *GormCartRepository) WithTx(tx *gorm.DB) CartRepository {
	if tx == nil {
		return r
	}
	return &GormCartRepository{db: tx}
}

func ownerScope(owner models.Owner) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if owner.IsUser() {
			return db.Where("user_id = ?", owner.ID())
		}
		return db.Where("guest_id = ?", owner.ID())
	}
}

// GetByID 根据 ID 获取购物车
func (r *GormCartRepository) GetByID(ctx context.Context, id uint) (*models.Cart, error) {
	var cart models.Cart
	if err := r.db.WithContext(ctx).First(&cart, id).Error; err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &cart, nil
}

// GetByOwner 根据归属身份获取购物车
func (r *GormCartRepository) GetByOwner(ctx context.Context, owner models.Owner) (*models.Cart, error) {
	if !owner.Valid() {
		return nil, ErrInvalidOwner
	}
	var cart models.Cart
	if err := r.db.WithContext(ctx).Scopes(ownerScope(owner)).First(&cart).Error; err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &cart, nil
}

// CreateIfAbsent 为身份创建购物车，并发插入冲突时以已存在的行为准
func (r *GormCartRepository) CreateIfAbsent(ctx context.Context, owner models.Owner) (*models.Cart, error) {
	if !owner.Valid() {
		return nil, ErrInvalidOwner
	}
	userID, guestID := owner.Columns()
	cart := &models.Cart{UserID: userID, GuestID: guestID}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(cart).Error; err != nil {
		return nil, err
	}
	return r.GetByOwner(ctx, owner)
}

// Reassign 变更购物车归属
func (r *GormCartRepository) Reassign(ctx context.Context, cartID uint, owner models.Owner) error {
	if !owner.Valid() {
		return ErrInvalidOwner
	}
	userID, guestID := owner.Columns()
	return r.db.WithContext(ctx).Model(&models.Cart{}).Where("id = ?", cartID).Updates(map[string]interface{}{
		"user_id":    userID,
		"guest_id":   guestID,
		"updated_at": time.Now(),
	}).Error
}

// Delete 删除购物车及其全部行
func (r *GormCartRepository) Delete(ctx context.Context, cartID uint) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error; err != nil {
		return err
	}
	return db.Delete(&models.Cart{}, cartID).Error
}

// AddQuantity 原子累加数量，行不存在时插入
func (r *GormCartRepository) AddQuantity(ctx context.Context, cartID, variantID uint, delta int) error {
	now := time.Now()
	item := &models.CartItem{
		CartID:           cartID,
		ProductVariantID: variantID,
		Quantity:         delta,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "cart_id"}, {Name: "product_variant_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity":   gorm.Expr("cart_items.quantity + excluded.quantity"),
			"updated_at": now,
		}),
	}).Create(item).Error
}

// GetItem 获取购物车中的某一行
func (r *GormCartRepository) GetItem(ctx context.Context, cartID, itemID uint) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).Where("id = ? AND cart_id = ?", itemID, cartID).First(&item).Error
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// ListItems 获取购物车行
func (r *GormCartRepository) ListItems(ctx context.Context, cartID uint) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := r.db.WithContext(ctx).Where("cart_id = ?", cartID).Order("id asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// ListItemsWithVariant 获取购物车行并预加载规格与商品
func (r *GormCartRepository) ListItemsWithVariant(ctx context.Context, cartID uint) ([]models.CartItem, error) {
	var items []models.CartItem
	err := r.db.WithContext(ctx).
		Preload("Variant").
		Preload("Variant.Product").
		Where("cart_id = ?", cartID).
		Order("id asc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// SetItemQuantity 设置行数量，返回是否命中
func (r *GormCartRepository) SetItemQuantity(ctx context.Context, cartID, itemID uint, quantity int) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.CartItem{}).
		Where("id = ? AND cart_id = ?", itemID, cartID).
		Updates(map[string]interface{}{"quantity": quantity, "updated_at": time.Now()})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// DeleteItem 删除购物车行，返回是否命中
func (r *GormCartRepository) DeleteItem(ctx context.Context, cartID, itemID uint) (bool, error) {
	result := r.db.WithContext(ctx).Where("id = ? AND cart_id = ?", itemID, cartID).Delete(&models.CartItem{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ClearItems 清空购物车
func (r *GormCartRepository) ClearItems(ctx context.Context, cartID uint) (int64, error) {
	result := r.db.WithContext(ctx).Where("cart_id = ?", cartID).Delete(&models.CartItem{})
	return result.RowsAffected, result.Error
}
