package models

import "time"

// Cart 购物车，user_id 与 guest_id 有且仅有一个非空
type Cart struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	UserID    *uint     `gorm:"uniqueIndex" json:"user_id,omitempty"`
	GuestID   *uint     `gorm:"uniqueIndex" json:"guest_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Items []CartItem `gorm:"foreignKey:CartID" json:"items,omitempty"`
}

// TableName 指定表名
func (Cart) TableName() string {
	return "carts"
}

// Owner 购物车归属身份
func (c *Cart) Owner() Owner {
	if c == nil {
		return Owner{}
	}
	return OwnerFromColumns(c.UserID, c.GuestID)
}

// CartItem 购物车行，(cart_id, product_variant_id) 唯一
type CartItem struct {
	ID               uint      `gorm:"primarykey" json:"id"`
	CartID           uint      `gorm:"not null;uniqueIndex:idx_cart_items_cart_variant,priority:1" json:"cart_id"`
	ProductVariantID uint      `gorm:"not null;uniqueIndex:idx_cart_items_cart_variant,priority:2" json:"product_variant_id"`
	Quantity         int       `gorm:"not null;default:1" json:"quantity"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`

	Variant *ProductVariant `gorm:"foreignKey:ProductVariantID" json:"variant,omitempty"`
}

// TableName 指定表名
func (CartItem) TableName() string {
	return "cart_items"
}
