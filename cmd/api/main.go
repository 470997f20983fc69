package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"smart-fridge/internal/api"
	"smart-fridge/internal/core/ai/openai"
	"smart-fridge/internal/core/ai/queue"
	"smart-fridge/internal/core/fridge"
	"smart-fridge/internal/core/history"
	"smart-fridge/internal/core/image"
	"smart-fridge/internal/core/ingredient"
	"smart-fridge/internal/core/recipe"
	"smart-fridge/internal/infrastructure/config"
	"smart-fridge/internal/infrastructure/store"
	"smart-fridge/internal/pkg/common"

	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// 載入設定（含 .env）
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化 logger（需在載入 config 後）
	if err := common.InitLogger(cfg.LogLevel, cfg.LogDir); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	common.LogInfo("載入設定",
		zap.String("store_driver", cfg.Store.Driver),
		zap.String("vision_model", cfg.Model.VisionModel),
		zap.String("recipe_model", cfg.Model.RecipeModel),
		zap.Bool("api_key_configured", cfg.Model.APIKey != ""),
	)

	ctx := context.Background()
	kv, err := store.Open(ctx, cfg.Store)
	if err != nil {
		common.LogFatal("Failed to open store", zap.String("driver", cfg.Store.Driver), zap.Error(err))
	}
	defer kv.Close()

	// 所有模型呼叫都經過隊列限制併發
	queueManager := queue.NewManager(cfg.Queue)
	defer queueManager.Close()
	model := queueManager.Wrap(openai.NewClient(cfg.Model))

	images := image.NewService(cfg.Image)
	recipes := recipe.NewService(model, cfg.Model, cfg.Cache)
	defer recipes.Close()

	router := api.SetupRouter(cfg, api.Services{
		Analyzer: ingredient.NewAnalyzer(model, cfg.Model),
		Fridge:   fridge.NewService(fridge.NewKVRepository(kv)),
		History:  history.NewService(kv, images),
		Recipes:  recipes,
		Images:   images,
		Queue:    queueManager,
		Store:    kv,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		common.LogInfo(common.MsgStartup,
			zap.String("version", cfg.App.Version),
			zap.String("env", cfg.App.Env),
			zap.Int("port", cfg.Server.Port),
			zap.String("route_prefix", cfg.Server.RoutePrefix),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// 等待中斷信號
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		common.LogError("Failed to start server", zap.Error(err))
		return
	}

	common.LogInfo(common.MsgShutdown)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		common.LogError("Server forced to shutdown", zap.Error(err))
		return
	}

	common.LogInfo(common.MsgExited)
}
