package match

import (
	"context"
	"fmt"

	"recipe-matcher/internal/core/ai/provider"
	"recipe-matcher/internal/pkg/common"

	"go.uber.org/zap"
)

// EngineOptions 比對引擎設定
type EngineOptions struct {
	Synonyms           *SynonymTable
	BasicIngredients   []string
	DefaultTemperature float64
	MaxTokens          int
}

// Engine 食材到商品的比對引擎
// 不保存任何請求之間的狀態，可同時被多個 goroutine 使用
type Engine struct {
	reranker    *Reranker
	synonyms    *SynonymTable
	staples     []string
	temperature float64
}

// NewEngine 創建比對引擎；p 為 nil 時比對請求返回 service unavailable
func NewEngine(p provider.Provider, opts EngineOptions) *Engine {
	synonyms := opts.Synonyms
	if synonyms == nil {
		synonyms = DefaultSynonyms()
	}
	staples := opts.BasicIngredients
	if staples == nil {
		staples = DefaultBasicIngredients
	}
	temperature := opts.DefaultTemperature
	if temperature <= 0 {
		temperature = DefaultTemperature
	}
	return &Engine{
		reranker:    NewReranker(p, opts.MaxTokens),
		synonyms:    synonyms,
		staples:     append([]string(nil), staples...),
		temperature: temperature,
	}
}

// Configured 是否已設定生成模型
func (e *Engine) Configured() bool {
	return e.reranker.Configured()
}

// IsBasicIngredient 依引擎設定判斷是否為基本食材
func (e *Engine) IsBasicIngredient(name string) bool {
	return IsBasicIngredient(name, e.staples)
}

// Candidates 執行預篩選，返回排序後的候選商品
func (e *Engine) Candidates(ctx context.Context, name string, products []common.Product, maxCandidates int) ([]ScoredProduct, error) {
	return Prefilter(ctx, NewQuery(name, e.synonyms), products, maxCandidates)
}

// Match 執行完整比對流程：驗證、基本食材、預篩選、提示、模型排序、正規化
func (e *Engine) Match(ctx context.Context, req *Request) (*MatchResult, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}
	ingredient := *req.Ingredient

	if e.IsBasicIngredient(ingredient.Name) {
		common.LogDebug("基本食材，跳過比對", zap.String("ingredient", ingredient.Name))
		return emptyResult(ingredient), nil
	}

	var opts Options
	if req.Options != nil {
		opts = *req.Options
	}
	maxCandidates := ClampMaxCandidates(opts.MaxCandidates)
	temperature := e.temperature
	if opts.Temperature != nil {
		temperature = *opts.Temperature
	}

	candidates, err := e.Candidates(ctx, ingredient.Name, req.Products, maxCandidates)
	if err != nil {
		return nil, fmt.Errorf("prefilter canceled: %w", err)
	}
	common.LogDebug("預篩選完成",
		zap.String("ingredient", ingredient.Name),
		zap.Int("products", len(req.Products)),
		zap.Int("candidates", len(candidates)),
	)
	if len(candidates) == 0 {
		return nil, common.NewNoCandidatesError(ingredient.Name)
	}

	answer, err := e.reranker.Rerank(ctx, BuildContext(ingredient), BuildCandidateList(candidates), RerankOptions{
		Temperature:   temperature,
		MaxCandidates: maxCandidates,
	})
	if err != nil {
		return nil, err
	}

	result := Normalize(ingredient, answer, candidates)
	result.ModelResponse = answer.Raw
	if result.Fallback {
		common.LogInfo("模型未給出高信心結果，改用預篩選第一名",
			zap.String("ingredient", ingredient.Name),
			zap.String("product_id", result.BestMatch.ID),
		)
	}
	return result, nil
}
