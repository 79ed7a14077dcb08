package worker

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/nike-storefront/internal/logger"
	"github.com/nike-storefront/internal/models"
	"github.com/nike-storefront/internal/provider"
	"github.com/nike-storefront/internal/queue"
	"github.com/nike-storefront/internal/service"

	"github.com/hibiken/asynq"
)

// orderMailer 订单邮件发送能力
type orderMailer interface {
	Enabled() bool
	SendOrderConfirmation(toEmail string, input service.OrderEmailInput) error
	SendOrderStatusEmail(toEmail string, input service.OrderEmailInput) error
}

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
	mailer orderMailer
	now    func() time.Time
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	consumer := &Consumer{
		Container: c,
		now:       time.Now,
	}
	if c != nil && c.EmailService != nil {
		consumer.mailer = c.EmailService
	}
	return consumer
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskOrderConfirmationEmail, c.handleOrderConfirmationEmail)
	mux.HandleFunc(queue.TaskOrderStatusEmail, c.handleOrderStatusEmail)
	mux.HandleFunc(queue.TaskGuestPurgeExpired, c.handleGuestPurge)
}

func (c *Consumer) handleOrderConfirmationEmail(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_order_confirmation_email_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.OrderConfirmationEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_confirmation_email_unmarshal_failed", "error", err)
		return errors.Join(err, asynq.SkipRetry)
	}
	order, receiver, err := c.loadOrderRecipient(ctx, payload.OrderID, "worker_order_confirmation_email")
	if err != nil || order == nil {
		return err
	}
	if err := c.mailer.SendOrderConfirmation(receiver, service.NewOrderEmailInput(order)); err != nil {
		return c.handleSendError("worker_order_confirmation_email_send_failed", order, receiver, err)
	}
	logger.Infow("worker_order_confirmation_email_sent", "order_id", order.ID, "order_no", order.OrderNo)
	return nil
}

func (c *Consumer) handleOrderStatusEmail(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_order_status_email_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.OrderStatusEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_status_email_unmarshal_failed", "error", err)
		return errors.Join(err, asynq.SkipRetry)
	}
	order, receiver, err := c.loadOrderRecipient(ctx, payload.OrderID, "worker_order_status_email")
	if err != nil || order == nil {
		return err
	}
	input := service.NewOrderEmailInput(order)
	if status := strings.TrimSpace(payload.Status); status != "" {
		input.Status = status
	}
	if err := c.mailer.SendOrderStatusEmail(receiver, input); err != nil {
		return c.handleSendError("worker_order_status_email_send_failed", order, receiver, err)
	}
	return nil
}

// loadOrderRecipient 加载订单与收件人；返回 nil 订单表示跳过
func (c *Consumer) loadOrderRecipient(ctx context.Context, orderID uint, event string) (*models.Order, string, error) {
	if orderID == 0 {
		logger.Debugw(event+"_skip_invalid_payload", "order_id", orderID)
		return nil, "", nil
	}
	if c.mailer == nil || !c.mailer.Enabled() {
		logger.Debugw(event+"_skip_email_disabled", "order_id", orderID)
		return nil, "", nil
	}
	order, err := c.OrderRepo.GetByID(ctx, orderID)
	if err != nil {
		logger.Warnw(event+"_fetch_order_failed", "order_id", orderID, "error", err)
		return nil, "", err
	}
	if order == nil {
		logger.Debugw(event+"_skip_order_not_found", "order_id", orderID)
		return nil, "", nil
	}
	receiver, err := c.resolveRecipient(ctx, order)
	if err != nil {
		logger.Warnw(event+"_fetch_user_failed", "order_id", order.ID, "error", err)
		return nil, "", err
	}
	if receiver == "" {
		logger.Debugw(event+"_skip_empty_receiver", "order_id", order.ID, "order_no", order.OrderNo)
		return nil, "", nil
	}
	return order, receiver, nil
}

// resolveRecipient 用户订单优先使用账户邮箱，访客订单使用支付时填写的邮箱
func (c *Consumer) resolveRecipient(ctx context.Context, order *models.Order) (string, error) {
	if order.UserID != nil && *order.UserID != 0 && c.UserRepo != nil {
		user, err := c.UserRepo.GetByID(ctx, *order.UserID)
		if err != nil {
			return "", err
		}
		if user != nil && strings.TrimSpace(user.Email) != "" {
			return strings.TrimSpace(user.Email), nil
		}
	}
	return strings.TrimSpace(order.CustomerEmail), nil
}

func (c *Consumer) handleSendError(event string, order *models.Order, receiver string, err error) error {
	if errors.Is(err, service.ErrEmailServiceDisabled) {
		return nil
	}
	logger.Warnw(event,
		"order_id", order.ID,
		"order_no", order.OrderNo,
		"receiver_email", receiver,
		"error", err,
	)
	if service.KindOf(err) == service.KindValidation {
		return errors.Join(err, asynq.SkipRetry)
	}
	return err
}

func (c *Consumer) handleGuestPurge(ctx context.Context, _ *asynq.Task) error {
	if c == nil || c.SessionService == nil {
		logger.Debugw("worker_guest_purge_skip_nil")
		return nil
	}
	purged, err := c.SessionService.PurgeExpired(ctx, c.now())
	if err != nil {
		logger.Warnw("worker_guest_purge_failed", "error", err)
		return err
	}
	if purged > 0 {
		logger.Infow("worker_guest_purge_done", "purged", purged)
	}
	return nil
}
