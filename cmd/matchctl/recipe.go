package main

import (
	"fmt"
	"os"

	"recipe-matcher/internal/pkg/common"

	"github.com/spf13/cobra"
)

var recipeCmd = &cobra.Command{
	Use:   "recipe",
	Short: "Match every ingredient of a recipe",
	Long:  "Matches all ingredients of a recipe from the recipes file concurrently, using match.workers goroutines.",
	RunE:  runRecipe,
}

var (
	recipeID         string
	recipeUseHistory bool
)

func init() {
	recipeCmd.Flags().StringVar(&recipeID, "id", "", "Recipe id (required)")
	recipeCmd.Flags().BoolVar(&recipeUseHistory, "history", false, "Reuse and update match history")

	if err := recipeCmd.MarkFlagRequired("id"); err != nil {
		panic(fmt.Sprintf("failed to mark id flag as required: %v", err))
	}

	rootCmd.AddCommand(recipeCmd)
}

func runRecipe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cat, err := loadCatalog(cfg)
	if err != nil {
		return err
	}

	recipe, ok := cat.Recipe(recipeID)
	if !ok {
		return fmt.Errorf("recipe %q not found in %s", recipeID, cfg.Catalog.RecipesPath)
	}

	ctx := common.WithRequestID(cmd.Context(), common.GenerateUUID())
	svc, cleanup, err := newService(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	rm, err := svc.MatchRecipe(ctx, recipe, cat.Products(), nil, recipeUseHistory)
	if err != nil {
		return fmt.Errorf("failed to match recipe %q: %w", recipeID, err)
	}
	for i := range rm.Results {
		if rm.Results[i].Result != nil {
			rm.Results[i].Result.ModelResponse = nil
		}
	}
	return writeJSON(os.Stdout, rm)
}
