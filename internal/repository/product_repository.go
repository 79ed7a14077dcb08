package repository

import (
	"context"
	"strings"

	"github.com/nike-storefront/internal/constants"
	"github.com/nike-storefront/internal/models"

	"gorm.io/gorm"
)

// variantUnitPriceExpr 规格成交单价：有效促销价优先
const variantUnitPriceExpr = "CASE WHEN product_variants.sale_price IS NOT NULL AND product_variants.sale_price > 0 THEN product_variants.sale_price ELSE product_variants.price END"

// ProductRepository 商品数据访问接口
type ProductRepository interface {
	List(ctx context.Context, filter ProductListFilter) ([]models.Product, int64, error)
	GetByID(ctx context.Context, id uint, onlyPublished bool) (*models.Product, error)
	ListRecommended(ctx context.Context, product *models.Product, limit int) ([]models.Product, error)
	GetVariant(ctx context.Context, id uint) (*models.ProductVariant, error)
	CreateProduct(ctx context.Context, product *models.Product) error
	CreateVariant(ctx context.Context, variant *models.ProductVariant) error
	UpdateVariantPrice(ctx context.Context, id uint, price models.Money, salePrice *models.Money) (bool, error)
	WithTx(tx *gorm.DB) ProductRepository
}

// GormProductRepository GORM 实现
type GormProductRepository struct {
	db *gorm.DB
}

// NewProductRepository 创建商品仓库
func NewProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// WithTx 绑定事务
func (r *GormProductRepository) WithTx(tx *gorm.DB) ProductRepository {
	if tx == nil {
		return r
	}
	return &GormProductRepository{db: tx}
}

// List 商品列表
func (r *GormProductRepository) List(ctx context.Context, filter ProductListFilter) ([]models.Product, int64, error) {
	db := r.db.WithContext(ctx)
	query := db.Model(&models.Product{})
	if filter.OnlyPublished {
		query = query.Where("products.is_published = ?", true)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		condition, argCount := buildLikeCondition(db, []string{"products.name", "products.description"})
		query = query.Where(condition, repeatLikeArgs("%"+strings.ToLower(search)+"%", argCount)...)
	}
	if categories := normalizeValues(filter.Categories); len(categories) > 0 {
		query = query.Where("products.category IN ?", categories)
	}
	if genders := normalizeValues(filter.Genders); len(genders) > 0 {
		query = query.Where("products.gender IN ?", genders)
	}

	variants := db.Model(&models.ProductVariant{}).Select("1").Where("product_variants.product_id = products.id")
	hasVariantFilter := false
	if colors := normalizeValues(filter.Colors); len(colors) > 0 {
		variants = variants.Where("product_variants.color IN ?", colors)
		hasVariantFilter = true
	}
	if sizes := normalizeValues(filter.Sizes); len(sizes) > 0 {
		variants = variants.Where("product_variants.size IN ?", sizes)
		hasVariantFilter = true
	}
	if priceMin := strings.TrimSpace(filter.PriceMin); priceMin != "" {
		variants = variants.Where(variantUnitPriceExpr+" >= CAST(? AS NUMERIC)", priceMin)
		hasVariantFilter = true
	}
	if priceMax := strings.TrimSpace(filter.PriceMax); priceMax != "" {
		variants = variants.Where(variantUnitPriceExpr+" <= CAST(? AS NUMERIC)", priceMax)
		hasVariantFilter = true
	}
	if hasVariantFilter {
		query = query.Where("EXISTS (?)", variants)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	minPrice := "(SELECT MIN(" + variantUnitPriceExpr + ") FROM product_variants WHERE product_variants.product_id = products.id)"
	switch filter.Sort {
	case constants.ProductSortPriceAsc:
		query = query.Order(minPrice + " ASC").Order("products.id DESC")
	case constants.ProductSortPriceDesc:
		query = query.Order(minPrice + " DESC").Order("products.id DESC")
	default:
		query = query.Order("products.created_at DESC").Order("products.id DESC")
	}

	var products []models.Product
	query = applyPagination(query, filter.Page, filter.PageSize)
	if err := query.Preload("Variants", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("id ASC")
	}).Find(&products).Error; err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// GetByID 获取商品详情（含规格）
func (r *GormProductRepository) GetByID(ctx context.Context, id uint, onlyPublished bool) (*models.Product, error) {
	query := r.db.WithContext(ctx).Preload("Variants", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("id ASC")
	})
	if onlyPublished {
		query = query.Where("is_published = ?", true)
	}
	var product models.Product
	if err := query.First(&product, id).Error; err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

// ListRecommended 同分类或同性别的其他已上架商品，最新在前
func (r *GormProductRepository) ListRecommended(ctx context.Context, product *models.Product, limit int) ([]models.Product, error) {
	if product == nil || limit <= 0 {
		return nil, nil
	}
	var products []models.Product
	err := r.db.WithContext(ctx).
		Where("is_published = ? AND id <> ?", true, product.ID).
		Where("((category = ? AND category <> '') OR (gender = ? AND gender <> ''))", product.Category, product.Gender).
		Order("created_at DESC").Order("id DESC").
		Limit(limit).
		Preload("Variants", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("id ASC")
		}).
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

// GetVariant 获取规格（含所属商品）
func (r *GormProductRepository) GetVariant(ctx context.Context, id uint) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	if err := r.db.WithContext(ctx).Preload("Product").First(&variant, id).Error; err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &variant, nil
}

// CreateProduct 创建商品
func (r *GormProductRepository) CreateProduct(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// CreateVariant 创建规格
func (r *GormProductRepository) CreateVariant(ctx context.Context, variant *models.ProductVariant) error {
	return r.db.WithContext(ctx).Omit("Product").Create(variant).Error
}

// UpdateVariantPrice 更新规格价格，salePrice 为 nil 时清除促销价
func (r *GormProductRepository) UpdateVariantPrice(ctx context.Context, id uint, price models.Money, salePrice *models.Money) (bool, error) {
	updates := map[string]interface{}{
		"price":      price,
		"sale_price": nil,
	}
	if salePrice != nil {
		updates["sale_price"] = *salePrice
	}
	result := r.db.WithContext(ctx).Model(&models.ProductVariant{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func normalizeValues(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
