package api

import (
	"context"
	"fmt"
	"time"

	catalogHandler "recipe-matcher/internal/api/handlers/catalog"
	"recipe-matcher/internal/api/handlers/feedback"
	"recipe-matcher/internal/api/handlers/health"
	historyHandler "recipe-matcher/internal/api/handlers/history"
	matchHandler "recipe-matcher/internal/api/handlers/match"
	"recipe-matcher/internal/api/middleware"
	"recipe-matcher/internal/core/catalog"
	"recipe-matcher/internal/core/shopping"
	"recipe-matcher/internal/infrastructure/config"
	"recipe-matcher/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// 請求體大小預設上限 (10MB)
	defaultMaxBodySize = 10 << 20
	// 整體請求超時
	defaultRequestTimeout = 120 * time.Second
)

// Dependencies 路由所需的服務
type Dependencies struct {
	Shopping     *shopping.Service
	Catalog      *catalog.Catalog
	Deduplicator *middleware.Deduplicator
}

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, deps Dependencies) *gin.Engine {
	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	if !cfg.App.Debug && gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// 基礎中間件；requestid 需在 Logger 之前
	router.Use(middleware.Recovery())
	router.Use(requestid.New())
	router.Use(middleware.Logger())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	maxBodySize := cfg.Server.MaxBodySize
	if maxBodySize <= 0 {
		maxBodySize = defaultMaxBodySize
	}
	router.Use(middleware.BodySizeLimit(maxBodySize))
	router.Use(requestTimeout(defaultRequestTimeout))

	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}

	healthH := health.NewHandler(cfg, deps.Shopping.Engine(), deps.Shopping.History())
	router.GET("/health", healthH.HealthCheck)
	router.GET("/ready", healthH.ReadinessCheck)
	router.GET("/live", healthH.LivenessCheck)

	matchH := matchHandler.NewHandler(deps.Shopping, deps.Catalog, cfg.App.Debug)
	catalogH := catalogHandler.NewHandler(deps.Catalog)
	historyH := historyHandler.NewHandler(deps.Shopping.History())

	dedup := deps.Deduplicator
	if dedup == nil {
		dedup = middleware.NewDeduplicator(cfg.DedupWindow)
	}

	api := router.Group("/api/v1")
	{
		api.POST("/match", matchH.HandleMatch)

		api.GET("/products", catalogH.HandleProducts)
		api.GET("/recipes", catalogH.HandleRecipes)
		api.GET("/recipes/:id", catalogH.HandleRecipe)
		api.POST("/recipes/:id/match", matchH.HandleRecipeMatch)

		historyGroup := api.Group("/history")
		{
			historyGroup.GET("", historyH.HandleStats)
			historyGroup.DELETE("", historyH.HandleClearAll)
			historyGroup.GET("/:ingredient", historyH.HandleGet)
			historyGroup.PUT("/:ingredient", historyH.HandleSelect)
			historyGroup.POST("/:ingredient/cart", historyH.HandleAddToCart)
			historyGroup.DELETE("/:ingredient", historyH.HandleClear)
		}

		api.POST("/feedback", dedup.Handler(), feedback.HandleFeedback)
	}

	common.LogInfo("Router setup completed successfully",
		zap.Bool("model_configured", deps.Shopping.Engine().Configured()),
		zap.Bool("history_enabled", deps.Shopping.History() != nil),
		zap.Int("products", len(deps.Catalog.Products())),
		zap.Int("recipes", len(deps.Catalog.Recipes())),
		zap.Int64("max_body_size", maxBodySize),
	)

	return router
}

// requestTimeout 為每個請求設定超時，超時後返回 504
func requestTimeout(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		if ctx.Err() == context.DeadlineExceeded && !c.Writer.Written() {
			common.LogError("Request timeout",
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", requestid.Get(c)),
				zap.Duration("timeout", timeout),
			)
			common.WriteError(c, common.ErrGatewayTimeout.Wrap(fmt.Errorf("exceeded %s", timeout)))
		}
	}
}
