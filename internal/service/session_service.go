package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nike-storefront/internal/metrics"
	"github.com/nike-storefront/internal/models"
	"github.com/nike-storefront/internal/repository"

	"github.com/google/uuid"
)

// Identity 当前请求的归属身份
type Identity struct {
	Owner      models.Owner
	GuestToken string
	// Minted 为 true 时适配层需要下发新的访客 cookie
	Minted    bool
	ExpiresAt time.Time
}

// SessionService 访客会话解析
type SessionService struct {
	guestRepo repository.GuestRepository
	ttl       time.Duration
	metrics   *metrics.Metrics
	newToken  func() (string, error)
	now       func() time.Time
}

// NewSessionService 创建访客会话服务
func NewSessionService(guestRepo repository.GuestRepository, ttl time.Duration) *SessionService {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &SessionService{
		guestRepo: guestRepo,
		ttl:       ttl,
		newToken:  newGuestToken,
		now:       time.Now,
	}
}

// WithMetrics 绑定指标采集
func (s *SessionService) WithMetrics(m *metrics.Metrics) *SessionService {
	s.metrics = m
	return s
}

func newGuestToken() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// TTL 访客会话有效期
func (s *SessionService) TTL() time.Duration {
	return s.ttl
}

// ResolveIdentity 解析请求身份：已登录用户优先，其次为有效访客令牌，否则签发新访客
func (s *SessionService) ResolveIdentity(ctx context.Context, userID uint, guestToken string) (Identity, error) {
	if userID != 0 {
		return Identity{Owner: models.UserOwner(userID)}, nil
	}

	guest, err := s.LookupGuest(ctx, guestToken)
	if err != nil {
		return Identity{}, err
	}
	if guest != nil {
		return Identity{
			Owner:      models.GuestOwner(guest.ID),
			GuestToken: guest.SessionToken,
			ExpiresAt:  guest.ExpiresAt,
		}, nil
	}
	return s.mint(ctx)
}

// LookupGuest 查找有效访客，不签发；过期记录在此处惰性删除
func (s *SessionService) LookupGuest(ctx context.Context, token string) (*models.Guest, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, nil
	}
	now := s.now()
	if _, err := s.guestRepo.DeleteExpiredByToken(ctx, token, now); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGuestSessionUnavailable, err)
	}
	guest, err := s.guestRepo.GetByToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGuestSessionUnavailable, err)
	}
	if guest == nil || guest.Expired(now) {
		return nil, nil
	}
	return guest, nil
}

func (s *SessionService) mint(ctx context.Context) (Identity, error) {
	token, err := s.newToken()
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrGuestSessionUnavailable, err)
	}
	guest := &models.Guest{
		SessionToken: token,
		ExpiresAt:    s.now().Add(s.ttl),
	}
	if err := s.guestRepo.Create(ctx, guest); err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrGuestSessionUnavailable, err)
	}
	s.metrics.GuestMinted()
	return Identity{
		Owner:      models.GuestOwner(guest.ID),
		GuestToken: token,
		Minted:     true,
		ExpiresAt:  guest.ExpiresAt,
	}, nil
}

// InvalidateGuest 删除访客记录
func (s *SessionService) InvalidateGuest(ctx context.Context, guestID uint) error {
	if guestID == 0 {
		return nil
	}
	return s.guestRepo.DeleteByID(ctx, guestID)
}

// PurgeExpired 清理所有过期访客及其购物车
func (s *SessionService) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	n, err := s.guestRepo.PurgeExpired(ctx, now)
	if err != nil {
		return 0, err
	}
	s.metrics.GuestsPurged(n)
	return n, nil
}
