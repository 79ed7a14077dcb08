package models

import (
	"time"

	"gorm.io/gorm"
)

// User 用户表
type User struct {
	ID           uint           `gorm:"primarykey" json:"id"`              // 主键
	Email        string         `gorm:"uniqueIndex;not null" json:"email"` // 邮箱
	PasswordHash string         `gorm:"not null" json:"-"`                 // 密码哈希（不返回给前端）
	DisplayName  string         `gorm:"default:''" json:"display_name"`    // 昵称
	Image        string         `gorm:"type:varchar(512)" json:"image"`    // 头像
	Status       string         `gorm:"default:'active'" json:"status"`    // 账号状态
	TokenVersion uint64         `gorm:"not null;default:0" json:"-"`       // Token 版本（用于全量失效）
	LastLoginAt  *time.Time     `json:"last_login_at"`                     // 最后登录时间
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`           // 创建时间
	UpdatedAt    time.Time      `json:"updated_at"`                        // 更新时间
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`                    // 软删除时间
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}

// Admin 管理员表，角色保存在 casbin_rule
type Admin struct {
	ID           uint       `gorm:"primarykey" json:"id"`                         // 主键
	Username     string     `gorm:"uniqueIndex;not null" json:"username"`         // 管理员账号
	PasswordHash string     `gorm:"not null" json:"-"`                            // 密码哈希
	TokenVersion uint64     `gorm:"not null;default:0" json:"-"`                  // Token 版本
	IsSuper      bool       `gorm:"not null;default:false;index" json:"is_super"` // 超级管理员免权限校验
	LastLoginAt  *time.Time `json:"last_login_at"`                                // 最后登录时间
	CreatedAt    time.Time  `gorm:"index" json:"created_at"`                      // 创建时间
	UpdatedAt    time.Time  `json:"updated_at"`                                   // 更新时间
}

// TableName 指定表名
func (Admin) TableName() string {
	return "admins"
}

// Guest 匿名访客会话
type Guest struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	SessionToken string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"-"`
	ExpiresAt    time.Time `gorm:"index;not null" json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName 指定表名
func (Guest) TableName() string {
	return "guests"
}

// Expired 是否已过期
func (g *Guest) Expired(now time.Time) bool {
	return g == nil || !g.ExpiresAt.After(now)
}
