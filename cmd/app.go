package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"igdb_mirror_v1_202610/internal/config"
	"igdb_mirror_v1_202610/internal/controller"
	"igdb_mirror_v1_202610/internal/metrics"
	"igdb_mirror_v1_202610/internal/middleware"
	"igdb_mirror_v1_202610/internal/model"
	"igdb_mirror_v1_202610/internal/repository"
	"igdb_mirror_v1_202610/internal/router"
	"igdb_mirror_v1_202610/internal/service"
	"igdb_mirror_v1_202610/internal/task"
	"igdb_mirror_v1_202610/pkg/database"
	"igdb_mirror_v1_202610/pkg/lock"
	"igdb_mirror_v1_202610/pkg/logger"
	"igdb_mirror_v1_202610/pkg/net"
)

// ==================== 依赖容器 ====================

// App 依赖容器
type App struct {
	Config *config.Config
	DB     *gorm.DB
	Repos  *Repositories

	Dispatcher net.Dispatcher
	Locker     lock.Locker
	Tokens     *service.TokenManager
	Sync       *service.SyncService
	Catalog    *service.CatalogService
	Tasks      *task.TaskManager

	closers []func() error
}

// Repositories 仓库集合
type Repositories struct {
	Catalog   *repository.CatalogRepositories
	Platforms repository.UserPlatformRepository
	Games     repository.GameRepository
	Runs      repository.SyncRunRepository
}

// ==================== 初始化函数 ====================

// buildApp 加载配置并组装全部依赖
func buildApp(cfgPath string) (*App, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	l, err := logger.Init(logger.Config{
		Level:       cfg.Log.Level,
		Encoding:    cfg.Log.Encoding,
		Development: cfg.Log.Development,
	})
	if err != nil {
		return nil, fmt.Errorf("初始化日志失败: %w", err)
	}

	app := &App{Config: cfg}
	app.closers = append(app.closers, func() error {
		_ = l.Sync()
		return nil
	})

	// -------- 数据库 --------
	db, err := database.InitDB(database.Options{
		Driver:       cfg.Database.Driver,
		DSN:          cfg.Database.DSN,
		MaxIdleConns: cfg.Database.MaxIdleConns,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		LogLevel:     cfg.Database.LogLevel,
	}, model.AllModels()...)
	if err != nil {
		return nil, err
	}
	if err := middleware.RegisterAuditCallbacks(db); err != nil {
		return nil, fmt.Errorf("注册审计回调失败: %w", err)
	}
	app.DB = db

	// -------- Repo 层 --------
	app.Repos = &Repositories{
		Catalog:   repository.NewCatalogRepositories(db),
		Platforms: repository.NewUserPlatformRepository(db),
		Games:     repository.NewGameRepository(db),
		Runs:      repository.NewSyncRunRepository(db),
	}

	// -------- 基础设施 --------
	app.Dispatcher = newDispatcher(cfg.IGDB)

	locker, err := newLocker(cfg.Redis)
	if err != nil {
		return nil, err
	}
	app.Locker = locker
	if closer, ok := locker.(interface{ Close() error }); ok {
		app.closers = append(app.closers, closer.Close)
	}

	middleware.SetJWTConfig(&middleware.JWTConfig{
		SecretKey:      cfg.Auth.JWTSecret,
		AccessTokenTTL: middleware.DefaultJWTConfig().AccessTokenTTL,
		Issuer:         cfg.Auth.Issuer,
	})

	// -------- 业务服务 --------
	app.Tokens = service.NewTokenManager(service.TokenConfig{
		ClientID:     cfg.IGDB.ClientID,
		ClientSecret: cfg.IGDB.ClientSecret,
		TokenURL:     cfg.IGDB.TokenURL,
	}, app.Dispatcher.HTTPClient())

	client := service.NewCatalogClient(cfg.IGDB.BaseURL, cfg.IGDB.ClientID, app.Tokens, app.Dispatcher)
	fetcher := service.NewFetcher(client, service.FetcherConfig{
		PageSize: cfg.IGDB.PageSize,
		Delay:    cfg.IGDB.RequestDelay,
	})

	scopes := service.NewScopeService(app.Repos.Platforms, app.Repos.Games)
	registry := service.NewKindRegistry(app.Repos.Catalog, scopes)

	app.Sync = service.NewSyncService(fetcher, registry, app.Repos.Runs, scopes, locker, service.SyncConfig{
		SubBatchSize:      cfg.Sync.SubBatchSize,
		UpdateConcurrency: cfg.Sync.UpdateConcurrency,
		LockTTL:           cfg.Sync.LockTTL,
		MaxWarnings:       cfg.Sync.MaxWarnings,
	})
	app.Catalog = service.NewCatalogService(registry, service.NewResolver(app.Repos.Catalog), app.Repos.Platforms, app.Repos.Games)

	// -------- 定时任务 --------
	deps := &task.TaskManagerDeps{SyncService: app.Sync}
	if cfg.IGDB.HasCredentials() {
		deps.Tokens = app.Tokens
	} else {
		zap.S().Warn("[App] 未配置 IGDB_CLIENT_ID / IGDB_CLIENT_SECRET，同步将以凭证缺失失败")
	}

	taskCfg := task.DefaultConfig()
	taskCfg.CatalogEnabled = cfg.Tasks.CatalogEnabled
	taskCfg.CatalogSchedule = cfg.Tasks.CatalogSchedule
	taskCfg.TokenEnabled = cfg.Tasks.TokenEnabled
	taskCfg.TokenSchedule = cfg.Tasks.TokenSchedule
	app.Tasks = task.NewTaskManager(deps, taskCfg)

	return app, nil
}

// Router 组装 HTTP 路由
func (a *App) Router() *gin.Engine {
	var tokens service.TokenProvider
	if a.Config.IGDB.HasCredentials() {
		tokens = a.Tokens
	}

	ctls := &router.Controllers{
		Sync:    controller.NewSyncController(a.Tasks, a.Sync),
		Catalog: controller.NewCatalogController(a.Catalog),
		Token:   controller.NewTokenController(tokens, a.Tasks),
	}
	return router.SetupRouter(ctls, router.Options{
		Mode:     a.Config.Server.Mode,
		Cooldown: a.Config.Sync.Cooldown,
	})
}

// Close 释放资源
func (a *App) Close() {
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			zap.S().Warnf("[App] 释放资源失败: %v", err)
		}
	}
}

// newDispatcher 上游调度器，请求与熔断状态写入监控
func newDispatcher(cfg config.IGDBConfig) net.Dispatcher {
	return net.NewDispatcher(net.DispatcherConfig{
		Timeout:         cfg.Timeout,
		RatePerSecond:   cfg.RatePerSec,
		ProxyURL:        cfg.ProxyURL,
		BreakerName:     "igdb",
		BreakerFailures: cfg.BreakerFailures,
		BreakerTimeout:  cfg.BreakerTimeout,
		Observer: func(url string, status int, duration time.Duration) {
			metrics.RecordUpstreamRequest(endpointOf(cfg.BaseURL, url), status, duration)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			zap.S().Warnf("[Dispatcher] 熔断器 %s: %s -> %s", name, from, to)
			metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
		},
	})
}

// newLocker Redis 未配置时使用进程内锁 (单实例部署)
func newLocker(cfg config.RedisConfig) (lock.Locker, error) {
	if cfg.Addr == "" {
		return lock.NewMemoryLocker(), nil
	}
	locker, err := lock.NewRedisLocker(lock.RedisConfig{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err != nil {
		return nil, err
	}
	zap.S().Infof("[App] 使用 Redis 任务锁 (%s)", cfg.Addr)
	return locker, nil
}

// endpointOf 监控标签只保留 endpoint 名
func endpointOf(baseURL, url string) string {
	endpoint := strings.TrimPrefix(url, baseURL)
	endpoint = strings.Trim(endpoint, "/")
	if endpoint == "" {
		return "unknown"
	}
	return endpoint
}
