package ai

import (
	"context"
	"fmt"

	"recipe-matcher/internal/core/ai/gemini"
	"recipe-matcher/internal/core/ai/openrouter"
	"recipe-matcher/internal/core/ai/provider"
	"recipe-matcher/internal/infrastructure/config"
	"recipe-matcher/internal/pkg/common"

	"go.uber.org/zap"
)

// NewProvider 依設定建立比對用的生成模型
// 未設定金鑰時返回 nil, nil，比對請求會得到 service unavailable
func NewProvider(ctx context.Context, cfg *config.Config) (provider.Provider, error) {
	switch cfg.Match.Provider {
	case config.ProviderGemini:
		if cfg.Gemini.APIKey == "" {
			common.LogWarn("Gemini API key is not configured, matching is disabled")
			return nil, nil
		}
		client, err := gemini.NewClient(ctx, cfg.Gemini)
		if err != nil {
			return nil, fmt.Errorf("failed to create gemini provider: %w", err)
		}
		common.LogInfo("生成模型已初始化",
			zap.String("provider", config.ProviderGemini),
			zap.String("model", client.GetModel()),
		)
		return client, nil

	case config.ProviderOpenRouter, "":
		if !cfg.OpenRouter.Enabled || cfg.OpenRouter.APIKey == "" {
			common.LogWarn("OpenRouter API key is not configured, matching is disabled")
			return nil, nil
		}
		client, err := openrouter.NewClient(cfg.OpenRouter)
		if err != nil {
			return nil, fmt.Errorf("failed to create openrouter provider: %w", err)
		}
		common.LogInfo("生成模型已初始化",
			zap.String("provider", config.ProviderOpenRouter),
			zap.String("model", client.GetModel()),
			zap.String("api_key", cfg.OpenRouter.APIKey),
		)
		return client, nil

	default:
		return nil, fmt.Errorf("unsupported match provider %q", cfg.Match.Provider)
	}
}
