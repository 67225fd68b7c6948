package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"igdb_mirror_v1_202610/internal/controller"
	"igdb_mirror_v1_202610/internal/middleware"
)

// Controllers 控制器集合
type Controllers struct {
	Sync    *controller.SyncController
	Catalog *controller.CatalogController
	Token   *controller.TokenController
}

// Options 路由选项
type Options struct {
	Mode     string        // debug / release / test
	Cooldown time.Duration // 手动同步冷却间隔
	Limiter  *middleware.SyncRateLimiter
}

// SetupRouter 创建 gin 引擎并注册所有路由
func SetupRouter(ctls *Controllers, opts Options) *gin.Engine {
	if opts.Mode != "" {
		gin.SetMode(opts.Mode)
	}
	if opts.Limiter == nil {
		opts.Limiter = middleware.GetLimiter()
	}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	InitRoutes(r, ctls, opts)
	return r
}

// InitRoutes 注册所有路由
func InitRoutes(r *gin.Engine, ctls *Controllers, opts Options) {
	// 1. 运维
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 2. API 路由组
	api := r.Group("/api/v1")
	{
		// sync 同步管理 (写操作需管理员)
		sync := api.Group("/sync")
		{
			// GET /api/v1/sync/kinds
			sync.GET("/kinds", ctls.Sync.ListKinds)
			sync.GET("/runs", ctls.Sync.ListRuns)
			sync.GET("/status", ctls.Sync.Status)

			admin := sync.Group("", middleware.AdminAuth(), middleware.AuditContext())
			// POST /api/v1/sync/all?full=
			admin.POST("/all", middleware.GlobalSyncRateLimit(opts.Limiter, opts.Cooldown), ctls.Sync.SyncAll)
			// POST /api/v1/sync/:kind?platform_id=&full=
			admin.POST("/:kind", middleware.SyncRateLimit(opts.Limiter, opts.Cooldown), ctls.Sync.SyncKind)
		}

		// token 上游凭证
		token := api.Group("/token", middleware.AdminAuth())
		{
			token.GET("", ctls.Token.Inspect)
			token.DELETE("", ctls.Token.Clear)
			token.POST("/refresh", ctls.Token.Refresh)
		}

		// catalog 只读查询
		catalog := api.Group("/catalog")
		{
			catalog.GET("/games", ctls.Catalog.ListGames)
			catalog.GET("/user_platforms", ctls.Catalog.ListUserPlatforms)
			catalog.GET("/platforms/:igdb_id", ctls.Catalog.GetPlatform)
			catalog.GET("/:kind/:igdb_id", ctls.Catalog.GetRecord)
		}
	}
}
