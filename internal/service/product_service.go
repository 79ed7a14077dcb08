package service

import (
	"context"
	"strings"

	"github.com/nike-storefront/internal/cache"
	"github.com/nike-storefront/internal/constants"
	"github.com/nike-storefront/internal/logger"
	"github.com/nike-storefront/internal/models"
	"github.com/nike-storefront/internal/repository"

	"github.com/shopspring/decimal"
)

// ProductService 商品业务服务
type ProductService struct {
	repo  repository.ProductRepository
	store *cache.Store
}

// NewProductService 创建商品服务
func NewProductService(repo repository.ProductRepository, store *cache.Store) *ProductService {
	return &ProductService{repo: repo, store: store}
}

// ProductQuery 商品列表查询
type ProductQuery struct {
	Page       int
	PageSize   int
	Search     string
	Categories []string
	Genders    []string
	Colors     []string
	Sizes      []string
	PriceMin   string
	PriceMax   string
	Sort       string
}

// CreateProductInput 创建商品输入
type CreateProductInput struct {
	Name        string
	Description string
	Category    string
	Gender      string
	Brand       string
	ImageURL    string
	IsPublished *bool
}

// CreateVariantInput 创建规格输入
type CreateVariantInput struct {
	SKU       string
	Color     string
	Size      string
	Price     decimal.Decimal
	SalePrice *decimal.Decimal
	InStock   int
}

// ListPublic 获取公开商品列表
func (s *ProductService) ListPublic(ctx context.Context, q ProductQuery) ([]models.Product, int64, error) {
	priceMin, err := normalizePriceBound(q.PriceMin)
	if err != nil {
		return nil, 0, err
	}
	priceMax, err := normalizePriceBound(q.PriceMax)
	if err != nil {
		return nil, 0, err
	}
	sort := strings.ToLower(strings.TrimSpace(q.Sort))
	switch sort {
	case "", constants.ProductSortNewest, constants.ProductSortPriceAsc, constants.ProductSortPriceDesc:
	default:
		sort = constants.ProductSortNewest
	}
	return s.repo.List(ctx, repository.ProductListFilter{
		Page:          q.Page,
		PageSize:      q.PageSize,
		Search:        q.Search,
		Categories:    q.Categories,
		Genders:       q.Genders,
		Colors:        q.Colors,
		Sizes:         q.Sizes,
		PriceMin:      priceMin,
		PriceMax:      priceMax,
		Sort:          sort,
		OnlyPublished: true,
	})
}

// ListAdmin 后台商品列表，包含未上架商品
func (s *ProductService) ListAdmin(ctx context.Context, q ProductQuery) ([]models.Product, int64, error) {
	return s.repo.List(ctx, repository.ProductListFilter{
		Page:     q.Page,
		PageSize: q.PageSize,
		Search:   q.Search,
		Sort:     constants.ProductSortNewest,
	})
}

// GetAdmin 后台商品详情
func (s *ProductService) GetAdmin(ctx context.Context, id uint) (*models.Product, error) {
	if id == 0 {
		return nil, ErrInvalidIdentifier
	}
	product, err := s.repo.GetByID(ctx, id, false)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// GetPublic 获取公开商品详情，命中缓存时不查库
func (s *ProductService) GetPublic(ctx context.Context, id uint) (*models.Product, error) {
	if id == 0 {
		return nil, ErrInvalidIdentifier
	}
	var cached models.Product
	if hit, err := s.store.GetJSON(ctx, cache.ProductDetailKey(id), &cached); err == nil && hit {
		return &cached, nil
	}
	product, err := s.repo.GetByID(ctx, id, true)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	_ = s.store.SetJSON(ctx, cache.ProductDetailKey(id), product, cache.ProductDetailTTL)
	return product, nil
}

// ProductDetail 商品详情及推荐商品
type ProductDetail struct {
	*models.Product
	Recommended []models.Product `json:"recommended"`
}

// GetDetail 商品详情页数据；推荐查询失败时只返回商品本身
func (s *ProductService) GetDetail(ctx context.Context, id uint) (*ProductDetail, error) {
	product, err := s.GetPublic(ctx, id)
	if err != nil {
		return nil, err
	}
	detail := &ProductDetail{Product: product, Recommended: []models.Product{}}
	recommended, err := s.repo.ListRecommended(ctx, product, constants.ProductRecommendLimit)
	if err != nil {
		logger.Warnw("product_recommend_failed", "product_id", id, "error", err)
		return detail, nil
	}
	if recommended != nil {
		detail.Recommended = recommended
	}
	return detail, nil
}

// CreateProduct 创建商品
func (s *ProductService) CreateProduct(ctx context.Context, input CreateProductInput) (*models.Product, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrInvalidProduct
	}
	published := true
	if input.IsPublished != nil {
		published = *input.IsPublished
	}
	product := &models.Product{
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		Category:    strings.ToLower(strings.TrimSpace(input.Category)),
		Gender:      strings.ToLower(strings.TrimSpace(input.Gender)),
		Brand:       strings.TrimSpace(input.Brand),
		ImageURL:    strings.TrimSpace(input.ImageURL),
		IsPublished: published,
	}
	if product.Brand == "" {
		product.Brand = "Nike"
	}
	if err := s.repo.CreateProduct(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// CreateVariant 为商品新增规格
func (s *ProductService) CreateVariant(ctx context.Context, productID uint, input CreateVariantInput) (*models.ProductVariant, error) {
	if productID == 0 {
		return nil, ErrInvalidIdentifier
	}
	sku := strings.ToUpper(strings.TrimSpace(input.SKU))
	if sku == "" || input.InStock < 0 {
		return nil, ErrInvalidProduct
	}
	price, sale, err := validateVariantPrice(input.Price, input.SalePrice)
	if err != nil {
		return nil, err
	}
	product, err := s.repo.GetByID(ctx, productID, false)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	variant := &models.ProductVariant{
		ProductID: productID,
		SKU:       sku,
		Color:     strings.ToLower(strings.TrimSpace(input.Color)),
		Size:      strings.TrimSpace(input.Size),
		Price:     price,
		SalePrice: sale,
		InStock:   input.InStock,
	}
	if err := s.repo.CreateVariant(ctx, variant); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, ErrSKUExists
		}
		return nil, err
	}
	_ = s.store.InvalidateProduct(ctx, productID)
	return variant, nil
}

// UpdateVariantPrice 调整规格价格；salePrice 为空时取消促销。已下单的价格快照不受影响
func (s *ProductService) UpdateVariantPrice(ctx context.Context, variantID uint, price decimal.Decimal, salePrice *decimal.Decimal) (*models.ProductVariant, error) {
	if variantID == 0 {
		return nil, ErrInvalidIdentifier
	}
	listPrice, sale, err := validateVariantPrice(price, salePrice)
	if err != nil {
		return nil, err
	}
	ok, err := s.repo.UpdateVariantPrice(ctx, variantID, listPrice, sale)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrVariantNotFound
	}
	variant, err := s.repo.GetVariant(ctx, variantID)
	if err != nil {
		return nil, err
	}
	if variant == nil {
		return nil, ErrVariantNotFound
	}
	_ = s.store.InvalidateProduct(ctx, variant.ProductID)
	return variant, nil
}

func validateVariantPrice(price decimal.Decimal, salePrice *decimal.Decimal) (models.Money, *models.Money, error) {
	if price.IsNegative() {
		return models.Money{}, nil, ErrInvalidPrice
	}
	listPrice := models.NewMoneyFromDecimal(price)
	if salePrice == nil {
		return listPrice, nil, nil
	}
	if salePrice.IsNegative() || salePrice.GreaterThanOrEqual(price) {
		return models.Money{}, nil, ErrInvalidPrice
	}
	sale := models.NewMoneyFromDecimal(*salePrice)
	return listPrice, &sale, nil
}

func normalizePriceBound(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", nil
	}
	value, err := decimal.NewFromString(trimmed)
	if err != nil || value.IsNegative() {
		return "", ErrInvalidPrice
	}
	return value.Round(2).StringFixed(2), nil
}
