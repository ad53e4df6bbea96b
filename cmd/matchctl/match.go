package main

import (
	"fmt"
	"os"

	"recipe-matcher/internal/core/match"
	"recipe-matcher/internal/pkg/common"

	"github.com/spf13/cobra"
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Match one ingredient against the product catalog",
	RunE:  runMatch,
}

var (
	matchName          string
	matchAmount        string
	matchRecipe        string
	matchDetails       string
	matchMaxCandidates int
	matchTemperature   float64
	matchUseHistory    bool
	matchShowRaw       bool
)

func init() {
	matchCmd.Flags().StringVarP(&matchName, "name", "n", "", "Ingredient name (required)")
	matchCmd.Flags().StringVar(&matchAmount, "amount", "", "Ingredient amount")
	matchCmd.Flags().StringVar(&matchRecipe, "recipe-name", "", "Recipe the ingredient belongs to")
	matchCmd.Flags().StringVar(&matchDetails, "details", "", "Extra notes for the model")
	matchCmd.Flags().IntVar(&matchMaxCandidates, "max-candidates", 0, "Maximum candidates sent to the model (1-20)")
	matchCmd.Flags().Float64Var(&matchTemperature, "temperature", match.DefaultTemperature, "Model temperature")
	matchCmd.Flags().BoolVar(&matchUseHistory, "history", false, "Reuse and update match history")
	matchCmd.Flags().BoolVar(&matchShowRaw, "raw", false, "Include the raw model response")

	if err := matchCmd.MarkFlagRequired("name"); err != nil {
		panic(fmt.Sprintf("failed to mark name flag as required: %v", err))
	}

	rootCmd.AddCommand(matchCmd)
}

func runMatch(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cat, err := loadCatalog(cfg)
	if err != nil {
		return err
	}

	ctx := common.WithRequestID(cmd.Context(), common.GenerateUUID())
	svc, cleanup, err := newService(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	opts := &match.Options{}
	if cmd.Flags().Changed("max-candidates") {
		opts.MaxCandidates = common.IntPtr(matchMaxCandidates)
	}
	if cmd.Flags().Changed("temperature") {
		opts.Temperature = common.Float64Ptr(matchTemperature)
	}

	result, err := svc.MatchIngredient(ctx, &match.Request{
		Ingredient: &common.Ingredient{
			Name:       matchName,
			Amount:     matchAmount,
			RecipeName: matchRecipe,
			Details:    matchDetails,
		},
		Products: cat.Products(),
		Options:  opts,
	}, matchUseHistory)
	if err != nil {
		return fmt.Errorf("failed to match %q: %w", matchName, err)
	}

	if !matchShowRaw {
		result.ModelResponse = nil
	}
	return writeJSON(os.Stdout, result)
}
