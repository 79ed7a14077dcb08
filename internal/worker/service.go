package worker

import (
	"context"
	"errors"
	"strings"

	"github.com/nike-storefront/internal/config"
	"github.com/nike-storefront/internal/logger"
	"github.com/nike-storefront/internal/queue"

	"github.com/hibiken/asynq"
)

const defaultGuestPurgeCron = "@hourly"

// Service 异步队列服务：任务消费 + 定时任务调度
type Service struct {
	name      string
	server    *asynq.Server
	scheduler *asynq.Scheduler
	mux       *asynq.ServeMux
	consumer  *Consumer
}

// NewService 创建异步队列服务
func NewService(cfg *config.QueueConfig, guestCfg config.GuestConfig, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)

	scheduler := asynq.NewScheduler(queue.BuildRedisOpt(cfg), nil)
	spec := guestPurgeCron(guestCfg)
	if _, err := scheduler.Register(spec, queue.NewGuestPurgeTask(), asynq.Queue(queue.DefaultQueue)); err != nil {
		return nil, err
	}
	logger.Infow("worker_guest_purge_scheduled", "cron", spec)

	return &Service{
		name:      "worker",
		server:    server,
		scheduler: scheduler,
		mux:       mux,
		consumer:  consumer,
	}, nil
}

func guestPurgeCron(cfg config.GuestConfig) string {
	if spec := strings.TrimSpace(cfg.PurgeCron); spec != "" {
		return spec
	}
	return defaultGuestPurgeCron
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动服务
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	if s.scheduler != nil {
		if err := s.scheduler.Start(); err != nil {
			return err
		}
	}
	_ = ctx
	return s.server.Run(s.mux)
}

// Stop 停止服务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	_ = ctx
	if s.scheduler != nil {
		s.scheduler.Shutdown()
	}
	s.server.Shutdown()
	return nil
}
