package models

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ErrDefaultAdminPasswordRequired 首次初始化管理员时未提供密码
var ErrDefaultAdminPasswordRequired = errors.New("default admin password is required")

// SeedDefaultAdmin 初始化默认管理员账号
// 已存在任意管理员时不做任何修改，返回 created=false
func SeedDefaultAdmin(db *gorm.DB, username, password string) (*Admin, bool, error) {
	var count int64
	if err := db.Model(&Admin{}).Count(&count).Error; err != nil {
		return nil, false, err
	}
	if count > 0 {
		return nil, false, nil
	}

	username = strings.TrimSpace(username)
	if username == "" {
		username = "admin"
	}
	if strings.TrimSpace(password) == "" {
		return nil, false, ErrDefaultAdminPasswordRequired
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, false, err
	}
	admin := &Admin{
		Username:     username,
		PasswordHash: string(hash),
		IsSuper:      true,
	}
	if err := db.Create(admin).Error; err != nil {
		return nil, false, err
	}
	return admin, true, nil
}
