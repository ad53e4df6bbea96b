package match

import (
	"fmt"
	"strings"

	"recipe-matcher/internal/core/ai/provider"
	"recipe-matcher/internal/pkg/common"
)

// PromptCandidate 送進模型的候選商品
type PromptCandidate struct {
	Rank     int      `json:"rank"`
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Category string   `json:"category,omitempty"`
	Price    *float64 `json:"price,omitempty"`
	Score    int      `json:"score"`
}

const systemPrompt = `You are a grocery shopping assistant that matches recipe ingredients to store products.

Select the single best product for the ingredient and up to 5 alternatives.
Rules:
- Only use product ids from the provided candidate list.
- Give every selection a confidence between 0 and 100 and a short reasoning.
- Prefer fresh or raw products over processed ones unless the ingredient asks otherwise.
- Consider the amount and the recipe when judging size and form.
- Alternatives with confidence below 60 must be excluded.
- Do not repeat the best match in the alternatives.

Respond with JSON only, using exactly this shape:
{
  "bestMatch": {"productId": "string", "confidence": 0, "reasoning": "string"},
  "alternatives": [
    {"productId": "string", "confidence": 0, "reasoning": "string"}
  ]
}`

// BuildContext 將食材資訊整理成上下文行
func BuildContext(ingredient common.Ingredient) []string {
	lines := []string{"Ingredient name: " + strings.TrimSpace(ingredient.Name)}
	if v := strings.TrimSpace(ingredient.Amount); v != "" {
		lines = append(lines, "Amount: "+v)
	}
	if v := strings.TrimSpace(ingredient.RecipeName); v != "" {
		lines = append(lines, "Recipe: "+v)
	}
	if v := strings.TrimSpace(ingredient.Details); v != "" {
		lines = append(lines, "Notes: "+v)
	}
	return lines
}

// BuildCandidateList 依預篩選順序建立候選清單，rank 從 1 開始
func BuildCandidateList(scored []ScoredProduct) []PromptCandidate {
	candidates := make([]PromptCandidate, 0, len(scored))
	for i, sp := range scored {
		candidates = append(candidates, PromptCandidate{
			Rank:     i + 1,
			ID:       sp.ID,
			Name:     sp.DisplayName(),
			Category: sp.Category,
			Price:    sp.Price,
			Score:    sp.Score,
		})
	}
	return candidates
}

// BuildMessages 組合系統與使用者訊息
func BuildMessages(contextLines []string, candidates []PromptCandidate) ([]provider.Message, error) {
	list, err := common.ToIndentedJSON(candidates)
	if err != nil {
		return nil, fmt.Errorf("failed to encode candidates: %w", err)
	}

	var b strings.Builder
	b.WriteString(strings.Join(contextLines, "\n"))
	b.WriteString("\n\nCandidate products (ranked by lexical relevance):\n")
	b.WriteString(list)
	b.WriteString("\n\nReturn the JSON object now.")

	return []provider.Message{
		{Role: provider.RoleSystem, Content: systemPrompt},
		{Role: provider.RoleUser, Content: b.String()},
	}, nil
}
