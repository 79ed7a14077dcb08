package worker

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/nike-storefront/internal/config"
	"github.com/nike-storefront/internal/models"
	"github.com/nike-storefront/internal/provider"
	"github.com/nike-storefront/internal/queue"
	"github.com/nike-storefront/internal/repository"
	"github.com/nike-storefront/internal/service"

	"github.com/glebarez/sqlite"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"
)

type sentMail struct {
	kind  string
	to    string
	input service.OrderEmailInput
}

type fakeMailer struct {
	enabled bool
	err     error
	sent    []sentMail
}

func (m *fakeMailer) Enabled() bool { return m.enabled }

func (m *fakeMailer) SendOrderConfirmation(to string, input service.OrderEmailInput) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{kind: "confirmation", to: to, input: input})
	return nil
}

func (m *fakeMailer) SendOrderStatusEmail(to string, input service.OrderEmailInput) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{kind: "status", to: to, input: input})
	return nil
}

func setupWorkerTest(t *testing.T) (*gorm.DB, *Consumer, *fakeMailer) {
	t.Helper()
	dsn := fmt.Sprintf("file:worker_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db failed: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	guestRepo := repository.NewGuestRepository(db)
	container := &provider.Container{
		Config:         &config.Config{},
		DB:             db,
		OrderRepo:      repository.NewOrderRepository(db),
		UserRepo:       repository.NewUserRepository(db),
		GuestRepo:      guestRepo,
		SessionService: service.NewSessionService(guestRepo, time.Hour),
	}
	mailer := &fakeMailer{enabled: true}
	consumer := NewConsumer(container)
	consumer.mailer = mailer
	return db, consumer, mailer
}

func seedOrder(t *testing.T, db *gorm.DB, userID *uint, email string) *models.Order {
	t.Helper()
	order := &models.Order{
		OrderNo:         fmt.Sprintf("NK%d", time.Now().UnixNano()),
		UserID:          userID,
		StripeSessionID: fmt.Sprintf("cs_worker_%d", time.Now().UnixNano()),
		Status:          "paid",
		Currency:        "usd",
		SubtotalAmount:  models.MustMoney("210.00"),
		DeliveryFee:     models.MustMoney("2.00"),
		TotalAmount:     models.MustMoney("212.00"),
		CustomerEmail:   email,
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	return order
}

func mustTask(t *testing.T) func(*asynq.Task, error) *asynq.Task {
	return func(task *asynq.Task, err error) *asynq.Task {
		t.Helper()
		if err != nil {
			t.Fatalf("build task failed: %v", err)
		}
		return task
	}
}

func TestConfirmationEmailUsesAccountEmail(t *testing.T) {
	db, consumer, mailer := setupWorkerTest(t)
	user := &models.User{Email: "member@example.com", PasswordHash: "x"}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	order := seedOrder(t, db, &user.ID, "checkout@example.com")

	task := mustTask(t)(queue.NewOrderConfirmationEmailTask(queue.OrderConfirmationEmailPayload{OrderID: order.ID}))
	if err := consumer.handleOrderConfirmationEmail(context.Background(), task); err != nil {
		t.Fatalf("handle confirmation failed: %v", err)
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("expected one mail, got %d", len(mailer.sent))
	}
	got := mailer.sent[0]
	if got.kind != "confirmation" || got.to != "member@example.com" {
		t.Fatalf("unexpected mail: %+v", got)
	}
	if got.input.Total.String() != "212.00" || got.input.IsGuest {
		t.Fatalf("unexpected mail input: %+v", got.input)
	}
}

func TestStatusEmailFallsBackToCustomerEmail(t *testing.T) {
	db, consumer, mailer := setupWorkerTest(t)
	order := seedOrder(t, db, nil, "guest@example.com")

	task := mustTask(t)(queue.NewOrderStatusEmailTask(queue.OrderStatusEmailPayload{OrderID: order.ID, Status: "cancelled"}))
	if err := consumer.handleOrderStatusEmail(context.Background(), task); err != nil {
		t.Fatalf("handle status email failed: %v", err)
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("expected one mail, got %d", len(mailer.sent))
	}
	got := mailer.sent[0]
	if got.to != "guest@example.com" || got.input.Status != "cancelled" || !got.input.IsGuest {
		t.Fatalf("unexpected mail: %+v", got)
	}
}

func TestEmailTasksSkipped(t *testing.T) {
	db, consumer, mailer := setupWorkerTest(t)
	ctx := context.Background()
	noReceiver := seedOrder(t, db, nil, "")

	cases := []struct {
		name    string
		payload queue.OrderConfirmationEmailPayload
	}{
		{name: "missing order", payload: queue.OrderConfirmationEmailPayload{OrderID: 99999}},
		{name: "zero id", payload: queue.OrderConfirmationEmailPayload{}},
		{name: "empty receiver", payload: queue.OrderConfirmationEmailPayload{OrderID: noReceiver.ID}},
	}
	for _, tc := range cases {
		task := mustTask(t)(queue.NewOrderConfirmationEmailTask(tc.payload))
		if err := consumer.handleOrderConfirmationEmail(ctx, task); err != nil {
			t.Fatalf("%s: expected skip, got %v", tc.name, err)
		}
	}

	mailer.enabled = false
	order := seedOrder(t, db, nil, "guest@example.com")
	task := mustTask(t)(queue.NewOrderConfirmationEmailTask(queue.OrderConfirmationEmailPayload{OrderID: order.ID}))
	if err := consumer.handleOrderConfirmationEmail(ctx, task); err != nil {
		t.Fatalf("disabled email should skip, got %v", err)
	}
	if len(mailer.sent) != 0 {
		t.Fatalf("expected no mail sent, got %d", len(mailer.sent))
	}
}

func TestEmailSendErrors(t *testing.T) {
	db, consumer, mailer := setupWorkerTest(t)
	ctx := context.Background()
	order := seedOrder(t, db, nil, "guest@example.com")
	task := mustTask(t)(queue.NewOrderConfirmationEmailTask(queue.OrderConfirmationEmailPayload{OrderID: order.ID}))

	mailer.err = service.ErrEmailServiceNotConfigured
	if err := consumer.handleOrderConfirmationEmail(ctx, task); err == nil || errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("transient error should be retried, got %v", err)
	}

	mailer.err = service.ErrInvalidEmail
	if err := consumer.handleOrderConfirmationEmail(ctx, task); !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("validation error should skip retry, got %v", err)
	}

	bad := asynq.NewTask(queue.TaskOrderConfirmationEmail, []byte("{"))
	if err := consumer.handleOrderConfirmationEmail(ctx, bad); !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("malformed payload should skip retry, got %v", err)
	}
}

func TestGuestPurgeRemovesExpiredGuests(t *testing.T) {
	db, consumer, _ := setupWorkerTest(t)
	now := time.Now()
	expired := &models.Guest{SessionToken: "expired-token", ExpiresAt: now.Add(-time.Hour)}
	live := &models.Guest{SessionToken: "live-token", ExpiresAt: now.Add(time.Hour)}
	if err := db.Create(expired).Error; err != nil {
		t.Fatalf("create expired guest failed: %v", err)
	}
	if err := db.Create(live).Error; err != nil {
		t.Fatalf("create live guest failed: %v", err)
	}
	consumer.now = func() time.Time { return now }

	if err := consumer.handleGuestPurge(context.Background(), queue.NewGuestPurgeTask()); err != nil {
		t.Fatalf("purge failed: %v", err)
	}
	var remaining []models.Guest
	if err := db.Find(&remaining).Error; err != nil {
		t.Fatalf("list guests failed: %v", err)
	}
	if len(remaining) != 1 || remaining[0].SessionToken != "live-token" {
		t.Fatalf("unexpected remaining guests: %+v", remaining)
	}
}

func TestGuestPurgeCronDefault(t *testing.T) {
	if got := guestPurgeCron(config.GuestConfig{}); got != defaultGuestPurgeCron {
		t.Fatalf("want default cron, got %q", got)
	}
	if got := guestPurgeCron(config.GuestConfig{PurgeCron: " */10 * * * * "}); got != "*/10 * * * *" {
		t.Fatalf("unexpected cron: %q", got)
	}
}
