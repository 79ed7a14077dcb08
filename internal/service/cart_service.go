package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/nike-storefront/internal/metrics"
	"github.com/nike-storefront/internal/models"
	"github.com/nike-storefront/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// 合并方式
const (
	MergeModeNone  = "none"
	MergeModeReown = "reown"
	MergeModeFold  = "fold"
)

const mergeReownSavepoint = "cart_merge_reown"

// CartService 购物车服务
type CartService struct {
	cartRepo    repository.CartRepository
	guestRepo   repository.GuestRepository
	productRepo repository.ProductRepository
	deliveryFee decimal.Decimal
	currency    string
	metrics     *metrics.Metrics
}

// NewCartService 创建购物车服务
func NewCartService(cartRepo repository.CartRepository, guestRepo repository.GuestRepository, productRepo repository.ProductRepository, deliveryFee decimal.Decimal, currency string, m *metrics.Metrics) *CartService {
	return &CartService{
		cartRepo:    cartRepo,
		guestRepo:   guestRepo,
		productRepo: productRepo,
		deliveryFee: deliveryFee.Round(2),
		currency:    strings.ToLower(strings.TrimSpace(currency)),
		metrics:     m,
	}
}

// GetOrCreateCart 获取身份的购物车，不存在时创建；并发创建收敛到同一行
func (s *CartService) GetOrCreateCart(ctx context.Context, owner models.Owner) (*models.Cart, error) {
	if !owner.Valid() {
		return nil, ErrInvalidIdentifier
	}
	cart, err := s.cartRepo.GetByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	if cart != nil {
		return cart, nil
	}
	return s.cartRepo.CreateIfAbsent(ctx, owner)
}

// AddItem 向购物车加入规格，已存在的行原子累加数量
func (s *CartService) AddItem(ctx context.Context, cartID, variantID uint, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	if cartID == 0 || variantID == 0 {
		return ErrInvalidIdentifier
	}
	variant, err := s.productRepo.GetVariant(ctx, variantID)
	if err != nil {
		return err
	}
	if variant == nil || (variant.Product != nil && !variant.Product.IsPublished) {
		return ErrVariantNotFound
	}
	cart, err := s.cartRepo.GetByID(ctx, cartID)
	if err != nil {
		return err
	}
	if cart == nil {
		return ErrCartMissingOrEmpty
	}
	return s.cartRepo.AddQuantity(ctx, cartID, variantID, quantity)
}

// UpdateQuantity 设置行数量
func (s *CartService) UpdateQuantity(ctx context.Context, cartID, lineID uint, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	ok, err := s.cartRepo.SetItemQuantity(ctx, cartID, lineID, quantity)
	if err != nil {
		return err
	}
	if !ok {
		return ErrCartItemNotFound
	}
	return nil
}

// RemoveLine 删除购物车行
func (s *CartService) RemoveLine(ctx context.Context, cartID, lineID uint) error {
	ok, err := s.cartRepo.DeleteItem(ctx, cartID, lineID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrCartItemNotFound
	}
	return nil
}

// ClearCart 清空购物车，保留购物车本身
func (s *CartService) ClearCart(ctx context.Context, cartID uint) error {
	_, err := s.cartRepo.ClearItems(ctx, cartID)
	return err
}

// GetCartView 获取购物车视图；身份尚无购物车时返回空视图
func (s *CartService) GetCartView(ctx context.Context, owner models.Owner) (*CartView, error) {
	if !owner.Valid() {
		return buildCartView(0, nil, s.deliveryFee, s.currency), nil
	}
	cart, err := s.cartRepo.GetByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return buildCartView(0, nil, s.deliveryFee, s.currency), nil
	}
	return s.cartViewByID(ctx, s.cartRepo, cart.ID)
}

func (s *CartService) cartViewByID(ctx context.Context, repo repository.CartRepository, cartID uint) (*CartView, error) {
	items, err := repo.ListItemsWithVariant(ctx, cartID)
	if err != nil {
		return nil, err
	}
	return buildCartView(cartID, items, s.deliveryFee, s.currency), nil
}

// MergeGuestIntoUser 登录时把访客购物车并入用户购物车，整个过程在一个事务内完成。
// 用户尚无购物车时直接转移归属，否则逐行累加后删除访客购物车；两种情况都会删除访客记录。
// 返回用户购物车 ID，访客没有购物车时返回用户已有购物车 ID 或 0。
func (s *CartService) MergeGuestIntoUser(ctx context.Context, guest, user models.Owner) (uint, error) {
	if !guest.IsGuest() || !guest.Valid() || !user.IsUser() || !user.Valid() {
		return 0, ErrInvalidIdentifier
	}

	var cartID uint
	mode := MergeModeNone
	err := s.cartRepo.Transaction(ctx, func(tx *gorm.DB) error {
		carts := s.cartRepo.WithTx(tx)
		guests := s.guestRepo.WithTx(tx)

		guestCart, err := carts.GetByOwner(ctx, guest)
		if err != nil {
			return err
		}
		userCart, err := carts.GetByOwner(ctx, user)
		if err != nil {
			return err
		}
		if guestCart == nil {
			if userCart != nil {
				cartID = userCart.ID
			}
			return nil
		}

		if userCart == nil {
			if err := tx.SavePoint(mergeReownSavepoint).Error; err != nil {
				return err
			}
			err := carts.Reassign(ctx, guestCart.ID, user)
			if err == nil {
				cartID = guestCart.ID
				mode = MergeModeReown
				return guests.DeleteByID(ctx, guest.ID())
			}
			if !repository.IsUniqueViolation(err) {
				return err
			}
			// 并发请求已为用户建好购物车，回退为逐行合并
			if err := tx.RollbackTo(mergeReownSavepoint).Error; err != nil {
				return err
			}
			userCart, err = carts.GetByOwner(ctx, user)
			if err != nil {
				return err
			}
			if userCart == nil {
				return fmt.Errorf("user cart vanished during merge")
			}
		}

		items, err := carts.ListItems(ctx, guestCart.ID)
		if err != nil {
			return err
		}
		for _, item := range items {
			if err := carts.AddQuantity(ctx, userCart.ID, item.ProductVariantID, item.Quantity); err != nil {
				return err
			}
		}
		if err := carts.Delete(ctx, guestCart.ID); err != nil {
			return err
		}
		cartID = userCart.ID
		mode = MergeModeFold
		return guests.DeleteByID(ctx, guest.ID())
	})
	if err != nil {
		return 0, err
	}
	s.metrics.CartMerged(mode)
	return cartID, nil
}
