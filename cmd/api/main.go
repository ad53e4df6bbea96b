package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"recipe-matcher/internal/api"
	"recipe-matcher/internal/api/middleware"
	"recipe-matcher/internal/core/ai"
	"recipe-matcher/internal/core/catalog"
	"recipe-matcher/internal/core/history"
	"recipe-matcher/internal/core/match"
	"recipe-matcher/internal/core/shopping"
	"recipe-matcher/internal/infrastructure/config"
	"recipe-matcher/internal/pkg/common"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化 logger（需在載入 config 後）
	if err := common.InitLogger(cfg.LogLevel); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	common.LogInfo("載入設定",
		zap.String("match_provider", cfg.Match.Provider),
		zap.String("openrouter_model", cfg.OpenRouter.Model),
		zap.String("history_backend", cfg.History.Backend),
	)

	ctx := context.Background()

	modelProvider, err := ai.NewProvider(ctx, cfg)
	if err != nil {
		common.LogFatal("Failed to initialize model provider", zap.Error(err))
	}
	if modelProvider != nil {
		defer modelProvider.Close()
	}

	hist, err := history.NewManager(ctx, cfg.History)
	if err != nil {
		common.LogFatal("Failed to initialize match history", zap.Error(err))
	}
	if hist != nil {
		defer hist.Close()
	}

	cat, err := catalog.Load(cfg.Catalog)
	if err != nil {
		common.LogFatal("Failed to load catalog", zap.Error(err))
	}

	engine := match.NewEngine(modelProvider, match.EngineOptions{
		BasicIngredients:   cfg.Match.BasicIngredients,
		DefaultTemperature: cfg.Match.Temperature,
		MaxTokens:          cfg.ModelMaxTokens(),
	})
	svc := shopping.NewService(engine, hist, cfg.Match)

	dedup := middleware.NewDeduplicator(cfg.DedupWindow)
	defer dedup.Stop()

	router := api.SetupRouter(cfg, api.Dependencies{
		Shopping:     svc,
		Catalog:      cat,
		Deduplicator: dedup,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		common.LogInfo("啟動應用",
			zap.String("version", cfg.App.Version),
			zap.String("env", cfg.App.Env),
			zap.Bool("debug", cfg.App.Debug),
			zap.Int("port", cfg.Server.Port),
		)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			common.LogFatal("Failed to start server", zap.Error(err))
		}
	}()

	// 等待中斷信號
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	common.LogInfo("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		common.LogError("Server forced to shutdown", zap.Error(err))
		return
	}

	common.LogInfo("Server exited")
}
