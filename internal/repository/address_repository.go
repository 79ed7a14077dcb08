package repository

import (
	"context"

	"github.com/nike-storefront/internal/models"

	"gorm.io/gorm"
)

// AddressRepository 地址数据访问接口
type AddressRepository interface {
	ListByUser(ctx context.Context, userID uint) ([]models.Address, error)
	GetForUser(ctx context.Context, userID, id uint) (*models.Address, error)
	Create(ctx context.Context, address *models.Address) error
	Update(ctx context.Context, address *models.Address) error
	Delete(ctx context.Context, userID, id uint) (bool, error)
	ClearDefault(ctx context.Context, userID uint, addressType string, exceptID uint) error
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) AddressRepository
}

// GormAddressRepository GORM 实现
type GormAddressRepository struct {
	db *gorm.DB
}

// NewAddressRepository 创建地址仓库
func NewAddressRepository(db *gorm.DB) *GormAddressRepository {
	return &GormAddressRepository{db: db}
}

// Transaction 执行事务
func (r *GormAddressRepository) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(fn)
}

// WithTx 绑定事务
func (r *GormAddressRepository) WithTx(tx *gorm.DB) AddressRepository {
	if tx == nil {
		return r
	}
	return &GormAddressRepository{db: tx}
}

// ListByUser 获取用户地址，默认地址在前
func (r *GormAddressRepository) ListByUser(ctx context.Context, userID uint) ([]models.Address, error) {
	var addresses []models.Address
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("is_default desc, id asc").Find(&addresses).Error
	if err != nil {
		return nil, err
	}
	return addresses, nil
}

// GetForUser 获取属于用户的地址
func (r *GormAddressRepository) GetForUser(ctx context.Context, userID, id uint) (*models.Address, error) {
	var address models.Address
	if err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&address).Error; err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &address, nil
}

// Create 创建地址
func (r *GormAddressRepository) Create(ctx context.Context, address *models.Address) error {
	return r.db.WithContext(ctx).Create(address).Error
}

// Update 更新地址
func (r *GormAddressRepository) Update(ctx context.Context, address *models.Address) error {
	return r.db.WithContext(ctx).Save(address).Error
}

// Delete 删除地址，返回是否命中
func (r *GormAddressRepository) Delete(ctx context.Context, userID, id uint) (bool, error) {
	result := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.Address{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ClearDefault 取消同类型其他地址的默认标记
func (r *GormAddressRepository) ClearDefault(ctx context.Context, userID uint, addressType string, exceptID uint) error {
	query := r.db.WithContext(ctx).Model(&models.Address{}).
		Where("user_id = ? AND type = ? AND is_default = ?", userID, addressType, true)
	if exceptID != 0 {
		query = query.Where("id <> ?", exceptID)
	}
	return query.Update("is_default", false).Error
}
