package service

import (
	"github.com/nike-storefront/internal/models"

	"github.com/shopspring/decimal"
)

// CartLine 购物车行视图
type CartLine struct {
	ID          uint         `json:"id"`
	VariantID   uint         `json:"variant_id"`
	ProductID   uint         `json:"product_id"`
	ProductName string       `json:"product_name"`
	SKU         string       `json:"sku"`
	Color       string       `json:"color"`
	Size        string       `json:"size"`
	ImageURL    string       `json:"image_url"`
	Quantity    int          `json:"quantity"`
	InStock     int          `json:"in_stock"`
	ListPrice   models.Money `json:"list_price"`
	UnitPrice   models.Money `json:"unit_price"`
	OnSale      bool         `json:"on_sale"`
	LineTotal   models.Money `json:"line_total"`
}

// CartView 购物车汇总视图
type CartView struct {
	CartID      uint         `json:"cart_id"`
	Lines       []CartLine   `json:"lines"`
	ItemCount   int          `json:"item_count"`
	Currency    string       `json:"currency"`
	Subtotal    models.Money `json:"subtotal"`
	DeliveryFee models.Money `json:"delivery_fee"`
	Total       models.Money `json:"total"`
}

// Empty 是否没有任何行
func (v *CartView) Empty() bool {
	return v == nil || len(v.Lines) == 0
}

// buildCartView 按成交单价计算行小计与总额；空购物车不收配送费
func buildCartView(cartID uint, items []models.CartItem, deliveryFee decimal.Decimal, currency string) *CartView {
	view := &CartView{
		CartID:   cartID,
		Lines:    make([]CartLine, 0, len(items)),
		Currency: currency,
	}
	subtotal := decimal.Zero
	for _, item := range items {
		variant := item.Variant
		if variant == nil {
			continue
		}
		unit := variant.UnitPrice()
		lineTotal := unit.Mul(decimal.NewFromInt(int64(item.Quantity)))
		line := CartLine{
			ID:        item.ID,
			VariantID: variant.ID,
			ProductID: variant.ProductID,
			SKU:       variant.SKU,
			Color:     variant.Color,
			Size:      variant.Size,
			Quantity:  item.Quantity,
			InStock:   variant.InStock,
			ListPrice: models.NewMoneyFromDecimal(variant.Price.Decimal),
			UnitPrice: models.NewMoneyFromDecimal(unit),
			OnSale:    variant.OnSale(),
			LineTotal: models.NewMoneyFromDecimal(lineTotal),
		}
		if variant.Product != nil {
			line.ProductName = variant.Product.Name
			line.ImageURL = variant.Product.ImageURL
		}
		view.Lines = append(view.Lines, line)
		view.ItemCount += item.Quantity
		subtotal = subtotal.Add(lineTotal)
	}
	fee := decimal.Zero
	if len(view.Lines) > 0 {
		fee = deliveryFee
	}
	view.Subtotal = models.NewMoneyFromDecimal(subtotal)
	view.DeliveryFee = models.NewMoneyFromDecimal(fee)
	view.Total = models.NewMoneyFromDecimal(subtotal.Add(fee))
	return view
}
