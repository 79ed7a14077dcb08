package models

import "time"

// Order 订单表，stripe_session_id 唯一，作为下单幂等键
type Order struct {
	ID                uint       `gorm:"primarykey" json:"id"`                                            // 主键
	OrderNo           string     `gorm:"type:varchar(32);uniqueIndex;not null" json:"order_no"`           // 订单编号
	UserID            *uint      `gorm:"index" json:"user_id,omitempty"`                                  // 用户ID
	GuestID           *uint      `gorm:"index" json:"guest_id,omitempty"`                                 // 访客ID
	StripeSessionID   string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"stripe_session_id"` // 支付会话ID
	Status            string     `gorm:"type:varchar(20);index;not null" json:"status"`                   // 订单状态
	Currency          string     `gorm:"type:varchar(8);not null" json:"currency"`                        // 币种
	SubtotalAmount    Money      `gorm:"type:decimal(20,2);not null;default:0" json:"subtotal_amount"`    // 商品小计
	DeliveryFee       Money      `gorm:"type:decimal(20,2);not null;default:0" json:"delivery_fee"`       // 配送费
	TotalAmount       Money      `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"`       // 实付金额
	CustomerEmail     string     `gorm:"type:varchar(255);index" json:"customer_email,omitempty"`         // 下单邮箱
	ShippingAddressID *uint      `json:"shipping_address_id,omitempty"`                                   // 收货地址
	BillingAddressID  *uint      `json:"billing_address_id,omitempty"`                                    // 账单地址
	PaidAt            *time.Time `json:"paid_at"`                                                         // 支付时间
	ShippedAt         *time.Time `json:"shipped_at"`                                                      // 发货时间
	DeliveredAt       *time.Time `json:"delivered_at"`                                                    // 签收时间
	CanceledAt        *time.Time `json:"canceled_at"`                                                     // 取消时间
	CreatedAt         time.Time  `gorm:"index" json:"created_at"`                                         // 创建时间
	UpdatedAt         time.Time  `json:"updated_at"`                                                      // 更新时间

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items"` // 订单项
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}

// Owner 订单归属身份
func (o *Order) Owner() Owner {
	if o == nil {
		return Owner{}
	}
	return OwnerFromColumns(o.UserID, o.GuestID)
}

// OrderItem 订单项，下单时的快照，创建后不再修改
type OrderItem struct {
	ID               uint      `gorm:"primarykey" json:"id"`
	OrderID          uint      `gorm:"not null;index" json:"order_id"`
	ProductVariantID uint      `gorm:"not null;index" json:"product_variant_id"`
	ProductName      string    `gorm:"type:varchar(255);not null" json:"product_name"`
	SKU              string    `gorm:"type:varchar(64)" json:"sku"`
	Color            string    `gorm:"type:varchar(32)" json:"color"`
	Size             string    `gorm:"type:varchar(16)" json:"size"`
	Quantity         int       `gorm:"not null" json:"quantity"`
	PriceAtPurchase  Money     `gorm:"type:decimal(20,2);not null" json:"price_at_purchase"`
	CreatedAt        time.Time `json:"created_at"`
}

// TableName 指定表名
func (OrderItem) TableName() string {
	return "order_items"
}
