package api

import (
	"context"
	"net/http"
	"time"

	"recipe-parser/internal/api/handlers/health"
	recipeHandler "recipe-parser/internal/api/handlers/recipe"
	"recipe-parser/internal/api/middleware"
	"recipe-parser/internal/core/ai/cache"
	"recipe-parser/internal/core/ai/service"
	"recipe-parser/internal/core/image"
	recipeService "recipe-parser/internal/core/recipe"
	"recipe-parser/internal/core/recipe/aiextract"
	"recipe-parser/internal/core/recipe/heuristic"
	"recipe-parser/internal/core/sanitizer"
	"recipe-parser/internal/infrastructure/config"
	"recipe-parser/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// 單次請求上限：抓取 15 秒加上推論時間
	timeoutDuration = 120 * time.Second
	// 請求體大小限制 (15MB)，照片以 base64 傳入約放大 4/3
	maxBodySize = 15 << 20
)

// NewPipeline 依設定組裝萃取流程，store 可為 nil
func NewPipeline(cfg *config.Config, store cache.Store) *recipeService.Pipeline {
	aiService := service.NewService(cfg, store)
	extractor := aiextract.NewClient(aiService, cfg.Extraction.MaxHTMLChars)

	if !extractor.Configured() {
		common.LogWarn("OPENROUTER_API_KEY 未設定，僅能使用結構化資料與啟發式解析")
	}

	return recipeService.NewPipeline(
		sanitizer.New(),
		heuristic.NewChain(),
		extractor,
		recipeService.NewHTTPFetcher(cfg.Fetch),
		image.NewService(cfg.Image.MaxSizeBytes),
	)
}

// SetupRouter 設置路由，ctx 結束時停止背景清理
func SetupRouter(ctx context.Context, cfg *config.Config, store cache.Store) (*gin.Engine, error) {
	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	status := health.ExtractorStatus{
		AIConfigured: cfg.OpenRouter.Configured(),
		Model:        cfg.OpenRouter.Model,
	}
	if store != nil {
		status.CacheBackend = cfg.Cache.Backend
	}

	dedup := middleware.NewDeduplicator(cfg.DedupWindow)
	go dedup.Run(ctx)

	router := NewRouter(cfg, NewPipeline(cfg, store), status, dedup)

	common.LogInfo("Router setup completed successfully",
		zap.Bool("ai_configured", status.AIConfigured),
		zap.String("cache_backend", status.CacheBackend),
		zap.Duration("timeout", timeoutDuration),
		zap.Int64("max_body_size", maxBodySize),
	)
	return router, nil
}

// NewRouter 掛載中間件與路由，dedup 可為 nil
func NewRouter(cfg *config.Config, parser recipeHandler.Parser, status health.ExtractorStatus, dedup *middleware.Deduplicator) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Recovery())
	router.Use(requestid.New())
	router.Use(middleware.Logger())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	router.Use(middleware.BodySizeLimit(maxBodySize))

	// 請求超時
	router.Use(func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeoutDuration)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		if ctx.Err() == context.DeadlineExceeded && !c.Writer.Written() {
			common.LogError("Request timeout",
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", requestid.Get(c)),
				zap.Duration("timeout", timeoutDuration),
			)
			c.AbortWithStatusJSON(http.StatusGatewayTimeout, common.ErrorResponse{
				Error:   common.ErrCodeRequestTimeout,
				Details: "request timed out after " + timeoutDuration.String(),
			})
		}
	})

	healthHandler := health.NewHandler(cfg.App.Version, status)
	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/ready", healthHandler.ReadinessCheck)
	router.GET("/live", healthHandler.LivenessCheck)

	api := router.Group("/api/v1")
	if cfg.RateLimit.Enabled && cfg.RateLimit.Requests > 0 && cfg.RateLimit.Window > 0 {
		api.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}
	if dedup != nil {
		api.Use(dedup.Middleware())
	}

	parseHandler := recipeHandler.NewHandler(parser)
	recipeGroup := api.Group("/recipe")
	{
		// 網址解析，回傳扁平格式
		recipeGroup.POST("/parse", parseHandler.HandleParseURL)

		// 原始 HTML 與照片，回傳完整解析結果
		recipeGroup.POST("/parse/html", parseHandler.HandleParseHTML)
		recipeGroup.POST("/parse/image", parseHandler.HandleParseImage)
	}

	return router
}
