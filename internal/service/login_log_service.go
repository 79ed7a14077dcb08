package service

import (
	"context"
	"errors"
	"strings"

	"github.com/nike-storefront/internal/constants"
	"github.com/nike-storefront/internal/logger"
	"github.com/nike-storefront/internal/models"
	"github.com/nike-storefront/internal/repository"
)

// LoginAttempt 一次登录尝试的请求上下文
type LoginAttempt struct {
	Email     string
	UserID    uint
	Err       error
	ClientIP  string
	UserAgent string
	RequestID string
}

// LoginLogService 用户登录日志
type LoginLogService struct {
	repo repository.UserLoginLogRepository
}

// NewLoginLogService 创建登录日志服务
func NewLoginLogService(repo repository.UserLoginLogRepository) *LoginLogService {
	return &LoginLogService{repo: repo}
}

// Record 记录登录结果；写入失败只记日志，不影响登录流程
func (s *LoginLogService) Record(ctx context.Context, attempt LoginAttempt) {
	if s == nil || s.repo == nil {
		return
	}
	entry := &models.UserLoginLog{
		UserID:    attempt.UserID,
		Email:     strings.ToLower(strings.TrimSpace(attempt.Email)),
		Status:    constants.LoginLogStatusSuccess,
		ClientIP:  truncate(attempt.ClientIP, 64),
		UserAgent: truncate(attempt.UserAgent, 512),
		RequestID: truncate(attempt.RequestID, 64),
	}
	if attempt.Err != nil {
		entry.Status = constants.LoginLogStatusFailed
		entry.FailReason = loginFailReason(attempt.Err)
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		logger.Warnw("user_login_log_write_failed", "email", entry.Email, "error", err)
	}
}

// ListForUser 用户查看自己的登录记录
func (s *LoginLogService) ListForUser(ctx context.Context, userID uint, page, pageSize int) ([]models.UserLoginLog, int64, error) {
	if userID == 0 {
		return nil, 0, ErrInvalidIdentifier
	}
	return s.repo.ListByUser(ctx, userID, page, pageSize)
}

// ListForAdmin 管理端查询登录记录
func (s *LoginLogService) ListForAdmin(ctx context.Context, filter repository.UserLoginLogListFilter) ([]models.UserLoginLog, int64, error) {
	return s.repo.ListAdmin(ctx, filter)
}

func loginFailReason(err error) string {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return constants.LoginFailReasonInvalidPassword
	case errors.Is(err, ErrUserDisabled):
		return constants.LoginFailReasonUserDisabled
	default:
		return constants.LoginFailReasonInternal
	}
}

func truncate(value string, limit int) string {
	value = strings.TrimSpace(value)
	if len(value) <= limit {
		return value
	}
	return value[:limit]
}
