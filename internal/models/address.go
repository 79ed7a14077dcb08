package models

import "time"

// Address 用户地址
type Address struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	Type       string    `gorm:"type:varchar(16);not null" json:"type"` // billing / shipping
	Line1      string    `gorm:"type:varchar(255);not null" json:"line1"`
	Line2      string    `gorm:"type:varchar(255)" json:"line2"`
	City       string    `gorm:"type:varchar(120);not null" json:"city"`
	State      string    `gorm:"type:varchar(120);not null" json:"state"`
	Country    string    `gorm:"type:varchar(120);not null" json:"country"`
	PostalCode string    `gorm:"type:varchar(20);not null" json:"postal_code"`
	IsDefault  bool      `gorm:"not null;default:false" json:"is_default"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName 指定表名
func (Address) TableName() string {
	return "addresses"
}

// Wishlist 收藏夹
type Wishlist struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_wishlists_user_product,priority:1" json:"user_id"`
	ProductID uint      `gorm:"not null;uniqueIndex:idx_wishlists_user_product,priority:2" json:"product_id"`
	CreatedAt time.Time `json:"added_at"`

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

// TableName 指定表名
func (Wishlist) TableName() string {
	return "wishlists"
}
