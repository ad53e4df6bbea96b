package match

import (
	"recipe-matcher/internal/pkg/common"
)

// 信心等級
const (
	LabelHigh   = "high"
	LabelMedium = "medium"
	LabelLow    = "low"
)

const (
	// MaxProductsForModel 送進模型的候選數上限
	MaxProductsForModel = 20
	// MinAlternativeConfidence 備選商品最低信心分數
	MinAlternativeConfidence = 60
	// HighConfidenceThreshold 高信心門檻
	HighConfidenceThreshold = 80
	// DefaultConfidence 模型給出非數值信心時的預設值
	DefaultConfidence = 65
	// MaxAlternatives 備選商品數上限
	MaxAlternatives = 5
	// DefaultTemperature 預設模型溫度
	DefaultTemperature = 0.2

	fallbackBestConfidence        = 80
	fallbackAlternativeConfidence = 70
)

// Options 比對選項
type Options struct {
	MaxCandidates *int     `json:"maxCandidates,omitempty"`
	Temperature   *float64 `json:"temperature,omitempty"`
}

// Request 單一食材比對請求
type Request struct {
	Ingredient *common.Ingredient `json:"ingredient"`
	Products   []common.Product   `json:"products"`
	Options    *Options           `json:"options,omitempty"`
}

// ScoredProduct 預篩選後帶分數的商品
type ScoredProduct struct {
	common.Product
	Score int `json:"score"`
}

// RankedMatchResult 模型輸出的單筆排序結果（不可信任）
// Confidence 在模型給出非數值時為 NaN
type RankedMatchResult struct {
	ProductID  string
	Confidence float64
	Reasoning  string
}

// ModelAnswer 模型輸出解析後的結果
type ModelAnswer struct {
	BestMatch    *RankedMatchResult
	Alternatives []RankedMatchResult
	// Raw 為原始 JSON 物件，僅供診斷
	Raw map[string]interface{}
}

// MatchedProduct 比對結果中的商品
type MatchedProduct struct {
	common.Product
	Confidence      int    `json:"confidence"`
	ConfidenceLabel string `json:"confidenceLabel"`
	Reasoning       string `json:"reasoning"`
}

// MatchResult 單一食材的比對結果
type MatchResult struct {
	Ingredient     common.Ingredient `json:"ingredient"`
	BestMatch      *MatchedProduct   `json:"bestMatch"`
	Alternatives   []MatchedProduct  `json:"alternatives"`
	CandidateCount int               `json:"candidateCount"`
	ModelResponse  interface{}       `json:"modelResponse,omitempty"`
	// FromCache 為 true 表示結果來自比對歷史
	FromCache bool `json:"fromCache,omitempty"`
	// Fallback 為 true 表示使用了預篩選的後備結果
	Fallback bool `json:"fallback,omitempty"`
}

// emptyResult 不需要比對時的結果
func emptyResult(ingredient common.Ingredient) *MatchResult {
	return &MatchResult{
		Ingredient:     ingredient,
		BestMatch:      nil,
		Alternatives:   []MatchedProduct{},
		CandidateCount: 0,
	}
}
