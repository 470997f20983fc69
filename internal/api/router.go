package api

import (
	"time"

	"smart-fridge/internal/api/handlers/fridge"
	"smart-fridge/internal/api/handlers/health"
	"smart-fridge/internal/api/handlers/history"
	"smart-fridge/internal/api/handlers/ingredient"
	"smart-fridge/internal/api/handlers/recipe"
	"smart-fridge/internal/api/middleware"
	"smart-fridge/internal/core/ai/queue"
	fridgeService "smart-fridge/internal/core/fridge"
	historyService "smart-fridge/internal/core/history"
	"smart-fridge/internal/core/image"
	ingredientService "smart-fridge/internal/core/ingredient"
	recipeService "smart-fridge/internal/core/recipe"
	"smart-fridge/internal/infrastructure/config"
	"smart-fridge/internal/infrastructure/store"
	"smart-fridge/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Services 路由使用的服務
type Services struct {
	Analyzer *ingredientService.Analyzer
	Fridge   *fridgeService.Service
	History  *historyService.Service
	Recipes  *recipeService.Service
	Images   *image.Service
	Queue    *queue.Manager
	Store    store.KV
}

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, svc Services) *gin.Engine {
	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
		zap.String("route_prefix", cfg.Server.RoutePrefix),
	)

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(middleware.Recovery())
	router.Use(requestid.New())
	router.Use(middleware.RequestContext())
	router.Use(middleware.Logger())

	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders: []string{"Content-Length", "X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}))

	router.Use(middleware.BodySizeLimit(cfg.Server.MaxBodyBytes))
	router.Use(middleware.Timeout(cfg.Server.RequestTimeout))
	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}

	prefix := router.Group(cfg.Server.RoutePrefix)

	healthHandler := newHealthHandler(cfg.App.Version, svc)
	prefix.GET("/health", healthHandler.HealthCheck)
	prefix.GET("/ready", healthHandler.ReadinessCheck)
	prefix.GET("/live", healthHandler.LivenessCheck)

	api := prefix.Group("")
	api.Use(middleware.Auth(cfg.Auth))

	// 會呼叫模型的端點才做重複請求過濾
	dedup := middleware.Deduplication(cfg.DedupWindow)

	ingredientHandler := ingredient.NewHandler(svc.Analyzer, svc.Images, svc.Fridge)
	api.POST("/analyze-ingredient", dedup, ingredientHandler.HandleAnalyzeImage)
	api.POST("/analyze-text", dedup, ingredientHandler.HandleAnalyzeText)
	api.POST("/ingredient-info", dedup, ingredientHandler.HandleLookup)

	historyHandler := history.NewHandler(svc.History)
	api.POST("/ingredients", historyHandler.HandleSave)
	api.GET("/ingredients/recent", historyHandler.HandleRecent)
	api.GET("/ingredients/:id", historyHandler.HandleGet)
	api.DELETE("/ingredients/:id", historyHandler.HandleDelete)

	fridgeHandler := fridge.NewHandler(svc.Fridge)
	api.GET("/fridge/ingredients", fridgeHandler.HandleList)
	api.POST("/fridge/ingredients", fridgeHandler.HandleAdd)
	api.PUT("/fridge/ingredients/:id", fridgeHandler.HandleUpdate)
	api.DELETE("/fridge/ingredients/:id", fridgeHandler.HandleDelete)

	recipeHandler := recipe.NewHandler(svc.Recipes, cfg.Model.RecipeTimeout*time.Duration(max(cfg.Cache.PreloadCount, 1)))
	api.POST("/recipes/recommend", dedup, recipeHandler.HandleRecommend)
	api.POST("/recipes/detail", recipeHandler.HandleDetail)

	common.LogInfo("Router setup completed successfully",
		zap.Bool("auth_enabled", cfg.Auth.Enabled),
		zap.Bool("rate_limit_enabled", cfg.RateLimit.Enabled),
		zap.Duration("request_timeout", cfg.Server.RequestTimeout),
		zap.Int64("max_body_size", cfg.Server.MaxBodyBytes),
	)

	return router
}

// newHealthHandler 只把非 nil 的服務交給健康檢查
func newHealthHandler(version string, svc Services) *health.Handler {
	var (
		q health.QueueReporter
		c health.CacheReporter
		s health.Pinger
	)
	if svc.Queue != nil {
		q = svc.Queue
	}
	if svc.Recipes != nil {
		c = svc.Recipes
	}
	if svc.Store != nil {
		s = svc.Store
	}
	return health.NewHandler(version, q, c, s)
}
