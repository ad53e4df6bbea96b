// Package main 提供 matchctl 命令列工具：食材比對、整份食譜比對、商品去重與手動搜尋
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"recipe-matcher/internal/core/ai"
	"recipe-matcher/internal/core/catalog"
	"recipe-matcher/internal/core/history"
	"recipe-matcher/internal/core/match"
	"recipe-matcher/internal/core/shopping"
	"recipe-matcher/internal/infrastructure/config"
	"recipe-matcher/internal/pkg/common"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	productsPath string
	recipesPath  string
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:   "matchctl",
	Short: "Ingredient to product matching tool",
	Long:  "matchctl matches recipe ingredients against a grocery product catalog, deduplicates product data and searches products from the command line.",
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if !verbose {
			return nil
		}
		return common.InitConsoleLogger("debug", os.Stderr)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&productsPath, "products", "", "Path to products JSON file (default from config)")
	rootCmd.PersistentFlags().StringVar(&recipesPath, "recipes", "", "Path to recipes JSON file (default from config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Write debug logs to stderr")
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig 載入設定並套用命令列覆寫
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if productsPath != "" {
		cfg.Catalog.ProductsPath = productsPath
	}
	if recipesPath != "" {
		cfg.Catalog.RecipesPath = recipesPath
	}
	return cfg, nil
}

// newService 依設定建立比對服務，返回的 cleanup 需在結束時呼叫
func newService(ctx context.Context, cfg *config.Config) (*shopping.Service, func(), error) {
	modelProvider, err := ai.NewProvider(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	hist, err := history.NewManager(ctx, cfg.History)
	if err != nil {
		if modelProvider != nil {
			_ = modelProvider.Close()
		}
		return nil, nil, err
	}

	engine := match.NewEngine(modelProvider, match.EngineOptions{
		BasicIngredients:   cfg.Match.BasicIngredients,
		DefaultTemperature: cfg.Match.Temperature,
		MaxTokens:          cfg.ModelMaxTokens(),
	})

	cleanup := func() {
		if hist != nil {
			_ = hist.Close()
		}
		if modelProvider != nil {
			_ = modelProvider.Close()
		}
	}
	return shopping.NewService(engine, hist, cfg.Match), cleanup, nil
}

func loadCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	return catalog.Load(cfg.Catalog)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
