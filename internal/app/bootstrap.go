package app

import (
	"errors"
	"fmt"

	"github.com/nike-storefront/internal/cache"
	"github.com/nike-storefront/internal/config"
	"github.com/nike-storefront/internal/logger"
	"github.com/nike-storefront/internal/metrics"
	"github.com/nike-storefront/internal/models"
	paystripe "github.com/nike-storefront/internal/payment/stripe"
	"github.com/nike-storefront/internal/provider"
	"github.com/nike-storefront/internal/queue"
	"github.com/nike-storefront/internal/router"
	"github.com/nike-storefront/internal/worker"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// openDeps 创建容器依赖（数据库、缓存、队列、支付渠道、指标）
func openDeps(cfg *config.Config) (provider.Deps, func(), error) {
	db, err := models.OpenDB(models.DBOptions{
		Driver: cfg.Database.Driver,
		DSN:    cfg.Database.DSN,
		Pool: models.DBPoolConfig{
			MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
			MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
			ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
			ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
		},
	})
	if err != nil {
		return provider.Deps{}, nil, fmt.Errorf("open database: %w", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		_ = models.CloseDB(db)
		return provider.Deps{}, nil, fmt.Errorf("migrate database: %w", err)
	}
	if admin, created, err := models.SeedDefaultAdmin(db, cfg.Admin.DefaultUsername, cfg.Admin.DefaultPassword); err != nil {
		if errors.Is(err, models.ErrDefaultAdminPasswordRequired) {
			logger.Warnw("default_admin_skipped", "reason", "password not configured")
		} else {
			logger.Warnw("default_admin_seed_failed", "error", err)
		}
	} else if created {
		logger.Infow("default_admin_created", "username", admin.Username)
	}

	store := cache.NewStore(&cfg.Redis)
	queueClient, err := queue.NewClient(&cfg.Queue)
	if err != nil {
		_ = store.Close()
		_ = models.CloseDB(db)
		return provider.Deps{}, nil, fmt.Errorf("init queue client: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	deps := provider.Deps{
		DB:          db,
		Cache:       store,
		QueueClient: queueClient,
		Metrics:     metrics.New(reg),
	}
	// 未配置 Stripe 时保持接口为 nil，结账与下单返回支付渠道不可用
	if stripeClient, err := paystripe.NewClient(cfg.Stripe); err != nil {
		logger.Warnw("stripe_client_disabled", "error", err)
	} else {
		deps.Gateway = stripeClient
		deps.Webhook = stripeClient
	}

	cleanup := func() {
		if err := queueClient.Close(); err != nil {
			logger.Warnw("queue_client_close_failed", "error", err)
		}
		if err := store.Close(); err != nil {
			logger.Warnw("cache_close_failed", "error", err)
		}
		if err := models.CloseDB(db); err != nil {
			logger.Warnw("database_close_failed", "error", err)
		}
	}
	return deps, cleanup, nil
}

// BuildRunner 构建服务运行器
func BuildRunner(cfg *config.Config, mode string) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if mode != ModeAll && mode != ModeAPI && mode != ModeWorker {
		return nil, fmt.Errorf("unknown mode: %s", mode)
	}

	deps, cleanup, err := openDeps(cfg)
	if err != nil {
		return nil, err
	}
	container, err := provider.NewContainer(cfg, deps)
	if err != nil {
		cleanup()
		return nil, err
	}

	var services []Service

	// 初始化 HTTP 服务
	if mode == ModeAll || mode == ModeAPI {
		engine := router.SetupRouter(cfg, container)
		addr := cfg.Server.Host + ":" + cfg.Server.Port
		services = append(services, NewHTTPService(addr, engine))
	}

	// 初始化 Worker 服务
	if mode == ModeAll || mode == ModeWorker {
		if !cfg.Queue.Enabled {
			logger.Warnw("worker_disabled", "reason", "queue not enabled")
		} else {
			consumer := worker.NewConsumer(container)
			workerService, err := worker.NewService(&cfg.Queue, cfg.Guest, consumer)
			if err != nil {
				cleanup()
				return nil, err
			}
			services = append(services, workerService)
		}
	}

	if len(services) == 0 {
		cleanup()
		return nil, errors.New("no services initialized (check mode and config)")
	}

	runner := NewRunner(services...)
	runner.onStop = cleanup
	return runner, nil
}

// Run 应用启动入口
func Run(opts Options) error {
	opts = normalizeOptions(opts)
	if opts.Config == nil {
		return errors.New("config is nil")
	}

	runner, err := BuildRunner(opts.Config, opts.Mode)
	if err != nil {
		return err
	}

	addr := opts.Config.Server.Host + ":" + opts.Config.Server.Port
	opts.Logger.Infow("app_start", "addr", addr, "mode", opts.Mode)
	return RunWithOptions(runner, opts)
}
