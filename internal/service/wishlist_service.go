package service

import (
	"context"

	"github.com/nike-storefront/internal/models"
	"github.com/nike-storefront/internal/repository"
)

// WishlistService 收藏夹
type WishlistService struct {
	repo        repository.WishlistRepository
	productRepo repository.ProductRepository
}

// NewWishlistService 创建收藏夹服务
func NewWishlistService(repo repository.WishlistRepository, productRepo repository.ProductRepository) *WishlistService {
	return &WishlistService{repo: repo, productRepo: productRepo}
}

// List 收藏列表
func (s *WishlistService) List(ctx context.Context, userID uint) ([]models.Wishlist, error) {
	if userID == 0 {
		return nil, ErrInvalidIdentifier
	}
	return s.repo.ListByUser(ctx, userID)
}

// Add 收藏商品，重复收藏返回已有记录
func (s *WishlistService) Add(ctx context.Context, userID, productID uint) (*models.Wishlist, error) {
	if userID == 0 || productID == 0 {
		return nil, ErrInvalidIdentifier
	}
	product, err := s.productRepo.GetByID(ctx, productID, true)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	return s.repo.Add(ctx, userID, productID)
}

// Remove 取消收藏
func (s *WishlistService) Remove(ctx context.Context, userID, productID uint) error {
	ok, err := s.repo.Remove(ctx, userID, productID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrProductNotFound
	}
	return nil
}
