package service

import (
	"context"
	"strings"

	"github.com/nike-storefront/internal/constants"
	"github.com/nike-storefront/internal/models"
	"github.com/nike-storefront/internal/repository"

	"gorm.io/gorm"
)

// AddressService 用户地址簿
type AddressService struct {
	repo repository.AddressRepository
}

// NewAddressService 创建地址服务
func NewAddressService(repo repository.AddressRepository) *AddressService {
	return &AddressService{repo: repo}
}

// AddressInput 地址输入
type AddressInput struct {
	Type       string
	Line1      string
	Line2      string
	City       string
	State      string
	Country    string
	PostalCode string
	IsDefault  bool
}

// List 用户地址列表
func (s *AddressService) List(ctx context.Context, userID uint) ([]models.Address, error) {
	if userID == 0 {
		return nil, ErrInvalidIdentifier
	}
	return s.repo.ListByUser(ctx, userID)
}

// Create 新增地址；设为默认时同类型其他地址取消默认
func (s *AddressService) Create(ctx context.Context, userID uint, input AddressInput) (*models.Address, error) {
	if userID == 0 {
		return nil, ErrInvalidIdentifier
	}
	address, err := buildAddress(input)
	if err != nil {
		return nil, err
	}
	address.UserID = userID
	err = s.repo.Transaction(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, address); err != nil {
			return err
		}
		if address.IsDefault {
			return repo.ClearDefault(ctx, userID, address.Type, address.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return address, nil
}

// Update 修改地址
func (s *AddressService) Update(ctx context.Context, userID, addressID uint, input AddressInput) (*models.Address, error) {
	next, err := buildAddress(input)
	if err != nil {
		return nil, err
	}
	var updated *models.Address
	err = s.repo.Transaction(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := repo.GetForUser(ctx, userID, addressID)
		if err != nil {
			return err
		}
		if current == nil {
			return ErrAddressNotFound
		}
		current.Type = next.Type
		current.Line1 = next.Line1
		current.Line2 = next.Line2
		current.City = next.City
		current.State = next.State
		current.Country = next.Country
		current.PostalCode = next.PostalCode
		current.IsDefault = next.IsDefault
		if err := repo.Update(ctx, current); err != nil {
			return err
		}
		if current.IsDefault {
			if err := repo.ClearDefault(ctx, userID, current.Type, current.ID); err != nil {
				return err
			}
		}
		updated = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete 删除地址
func (s *AddressService) Delete(ctx context.Context, userID, addressID uint) error {
	ok, err := s.repo.Delete(ctx, userID, addressID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrAddressNotFound
	}
	return nil
}

func buildAddress(input AddressInput) (*models.Address, error) {
	addressType := strings.ToLower(strings.TrimSpace(input.Type))
	if addressType != constants.AddressTypeBilling && addressType != constants.AddressTypeShipping {
		return nil, ErrInvalidAddress
	}
	address := &models.Address{
		Type:       addressType,
		Line1:      strings.TrimSpace(input.Line1),
		Line2:      strings.TrimSpace(input.Line2),
		City:       strings.TrimSpace(input.City),
		State:      strings.TrimSpace(input.State),
		Country:    strings.ToUpper(strings.TrimSpace(input.Country)),
		PostalCode: strings.TrimSpace(input.PostalCode),
		IsDefault:  input.IsDefault,
	}
	if address.Line1 == "" || address.City == "" || address.State == "" || address.Country == "" || address.PostalCode == "" {
		return nil, ErrInvalidAddress
	}
	return address, nil
}
