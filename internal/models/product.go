package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product 商品表
type Product struct {
	ID          uint           `gorm:"primarykey" json:"id"`                         // 主键
	Name        string         `gorm:"type:varchar(255);not null;index" json:"name"` // 名称
	Description string         `gorm:"type:text" json:"description"`                 // 描述
	Category    string         `gorm:"type:varchar(64);index" json:"category"`       // 分类（shoes/clothing/accessories）
	Gender      string         `gorm:"type:varchar(16);index" json:"gender"`         // 适用性别（men/women/unisex/kids）
	Brand       string         `gorm:"type:varchar(64);default:'Nike'" json:"brand"` // 品牌
	ImageURL    string         `gorm:"type:varchar(512)" json:"image_url"`           // 主图
	IsPublished bool           `gorm:"default:true;index" json:"is_published"`       // 是否上架
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                      // 创建时间
	UpdatedAt   time.Time      `json:"updated_at"`                                   // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                               // 软删除时间

	Variants []ProductVariant `gorm:"foreignKey:ProductID" json:"variants,omitempty"`
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}

// ProductVariant 商品规格（颜色 + 尺码）
type ProductVariant struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	ProductID uint      `gorm:"not null;index" json:"product_id"`
	SKU       string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"sku"`
	Color     string    `gorm:"type:varchar(32);index" json:"color"`
	Size      string    `gorm:"type:varchar(16);index" json:"size"`
	Price     Money     `gorm:"type:decimal(20,2);not null;default:0" json:"price"`
	SalePrice *Money    `gorm:"type:decimal(20,2)" json:"sale_price"`
	InStock   int       `gorm:"not null;default:0" json:"in_stock"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

// TableName 指定表名
func (ProductVariant) TableName() string {
	return "product_variants"
}

// UnitPrice 实际成交单价：有效促销价优先，否则为标价
func (v *ProductVariant) UnitPrice() decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}
	if v.SalePrice != nil && v.SalePrice.Decimal.IsPositive() {
		return v.SalePrice.Decimal.Round(2)
	}
	return v.Price.Decimal.Round(2)
}

// OnSale 是否有有效促销价
func (v *ProductVariant) OnSale() bool {
	return v != nil && v.SalePrice != nil && v.SalePrice.Decimal.IsPositive()
}
