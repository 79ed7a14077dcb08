package repository

import (
	"context"
	"strings"

	"github.com/nike-storefront/internal/models"

	"gorm.io/gorm"
)

// UserLoginLogListFilter 管理端登录日志筛选
type UserLoginLogListFilter struct {
	Page     int
	PageSize int
	UserID   uint
	Email    string
	Status   string
}

// UserLoginLogRepository 用户登录日志数据访问接口
type UserLoginLogRepository interface {
	Create(ctx context.Context, log *models.UserLoginLog) error
	ListAdmin(ctx context.Context, filter UserLoginLogListFilter) ([]models.UserLoginLog, int64, error)
	ListByUser(ctx context.Context, userID uint, page, pageSize int) ([]models.UserLoginLog, int64, error)
}

// GormUserLoginLogRepository GORM 实现
type GormUserLoginLogRepository struct {
	db *gorm.DB
}

// NewUserLoginLogRepository 创建用户登录日志仓库
func NewUserLoginLogRepository(db *gorm.DB) *GormUserLoginLogRepository {
	return &GormUserLoginLogRepository{db: db}
}

// Create 创建登录日志
func (r *GormUserLoginLogRepository) Create(ctx context.Context, log *models.UserLoginLog) error {
	if log == nil {
		return nil
	}
	return r.db.WithContext(ctx).Create(log).Error
}

// ListAdmin 管理端查询登录日志
func (r *GormUserLoginLogRepository) ListAdmin(ctx context.Context, filter UserLoginLogListFilter) ([]models.UserLoginLog, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.UserLoginLog{})
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if email := strings.ToLower(strings.TrimSpace(filter.Email)); email != "" {
		query = query.Where("email = ?", email)
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("status = ?", status)
	}
	return listLoginLogs(query, filter.Page, filter.PageSize)
}

// ListByUser 用户侧查询自己的登录日志
func (r *GormUserLoginLogRepository) ListByUser(ctx context.Context, userID uint, page, pageSize int) ([]models.UserLoginLog, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.UserLoginLog{}).Where("user_id = ?", userID)
	return listLoginLogs(query, page, pageSize)
}

func listLoginLogs(query *gorm.DB, page, pageSize int) ([]models.UserLoginLog, int64, error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var logs []models.UserLoginLog
	if err := applyPagination(query, page, pageSize).Order("id desc").Find(&logs).Error; err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}
