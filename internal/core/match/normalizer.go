package match

import (
	"math"

	"recipe-matcher/internal/pkg/common"
)

const (
	fallbackBestReasoning        = "This product closely matches the taste and texture you need for your recipe. Our system found this to be the best available option based on the ingredient name and cooking application."
	fallbackAlternativeReasoning = "This is another good option that works well for this ingredient. We ranked it based on how closely it matches your recipe needs."
)

// NormalizeConfidence 將模型信心轉為 [0,100] 整數；非有限數值使用預設值 65
func NormalizeConfidence(raw float64) int {
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return DefaultConfidence
	}
	c := math.Round(raw)
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return int(c)
}

// ClassifyConfidence 依信心分數分級
func ClassifyConfidence(confidence int) string {
	switch {
	case confidence >= HighConfidenceThreshold:
		return LabelHigh
	case confidence >= MinAlternativeConfidence:
		return LabelMedium
	default:
		return LabelLow
	}
}

// Normalize 將模型回應轉為比對結果，必要時改用預篩選的後備結果
func Normalize(ingredient common.Ingredient, answer *ModelAnswer, candidates []ScoredProduct) *MatchResult {
	if len(candidates) == 0 {
		return emptyResult(ingredient)
	}

	byID := make(map[string]ScoredProduct, len(candidates))
	for _, c := range candidates {
		if _, exists := byID[c.ID]; !exists {
			byID[c.ID] = c
		}
	}

	var best *MatchedProduct
	if answer != nil && answer.BestMatch != nil {
		best = resolve(*answer.BestMatch, byID)
	}
	if best == nil || best.ConfidenceLabel != LabelHigh {
		return fallbackResult(ingredient, candidates)
	}

	alternatives := make([]MatchedProduct, 0, MaxAlternatives)
	seen := map[string]bool{best.ID: true}
	for _, alt := range answer.Alternatives {
		if len(alternatives) >= MaxAlternatives {
			break
		}
		m := resolve(alt, byID)
		if m == nil || seen[m.ID] || m.Confidence < MinAlternativeConfidence {
			continue
		}
		seen[m.ID] = true
		alternatives = append(alternatives, *m)
	}

	return &MatchResult{
		Ingredient:     ingredient,
		BestMatch:      best,
		Alternatives:   alternatives,
		CandidateCount: len(candidates),
	}
}

// resolve 以 id 對應候選商品；未知 id 返回 nil
func resolve(r RankedMatchResult, byID map[string]ScoredProduct) *MatchedProduct {
	candidate, ok := byID[r.ProductID]
	if !ok {
		return nil
	}
	confidence := NormalizeConfidence(r.Confidence)
	reasoning := r.Reasoning
	if reasoning == "" {
		reasoning = defaultReasoning
	}
	return &MatchedProduct{
		Product:         candidate.Product,
		Confidence:      confidence,
		ConfidenceLabel: ClassifyConfidence(confidence),
		Reasoning:       reasoning,
	}
}

// fallbackResult 以預篩選第一名作為最佳比對，第 2 到第 6 名作為備選（排除重複的 id）
func fallbackResult(ingredient common.Ingredient, candidates []ScoredProduct) *MatchResult {
	top := candidates[0]
	best := &MatchedProduct{
		Product:         top.Product,
		Confidence:      fallbackBestConfidence,
		ConfidenceLabel: ClassifyConfidence(fallbackBestConfidence),
		Reasoning:       fallbackBestReasoning,
	}

	next := candidates[1:]
	if len(next) > MaxAlternatives {
		next = next[:MaxAlternatives]
	}
	alternatives := make([]MatchedProduct, 0, len(next))
	seen := map[string]bool{top.ID: true}
	for _, c := range next {
		if seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		alternatives = append(alternatives, MatchedProduct{
			Product:         c.Product,
			Confidence:      fallbackAlternativeConfidence,
			ConfidenceLabel: ClassifyConfidence(fallbackAlternativeConfidence),
			Reasoning:       fallbackAlternativeReasoning,
		})
	}

	return &MatchResult{
		Ingredient:     ingredient,
		BestMatch:      best,
		Alternatives:   alternatives,
		CandidateCount: len(candidates),
		Fallback:       true,
	}
}
