package match

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"recipe-matcher/internal/core/ai/provider"
	"recipe-matcher/internal/pkg/common"

	"go.uber.org/zap"
)

// defaultReasoning 模型未提供理由時使用
const defaultReasoning = "No reasoning provided."

// RerankOptions 重新排序選項
type RerankOptions struct {
	Temperature   float64
	MaxCandidates int
}

// Reranker 呼叫生成模型對候選商品重新排序
type Reranker struct {
	provider  provider.Provider
	maxTokens int
}

// NewReranker 創建重新排序器；p 為 nil 時所有請求返回 service unavailable
func NewReranker(p provider.Provider, maxTokens int) *Reranker {
	return &Reranker{provider: p, maxTokens: maxTokens}
}

// Configured 是否已設定生成模型
func (r *Reranker) Configured() bool {
	return r != nil && r.provider != nil
}

// Rerank 送出候選清單並解析模型回應；只呼叫一次模型，不重試
func (r *Reranker) Rerank(ctx context.Context, contextLines []string, candidates []PromptCandidate, opts RerankOptions) (*ModelAnswer, error) {
	if !r.Configured() {
		return nil, common.NewServiceUnavailableError(
			"Matching service unavailable. Model API key is not configured.", nil)
	}

	if opts.MaxCandidates > 0 && len(candidates) > opts.MaxCandidates {
		candidates = candidates[:opts.MaxCandidates]
	}

	messages, err := BuildMessages(contextLines, candidates)
	if err != nil {
		return nil, err
	}

	req := &provider.Request{
		Messages:    messages,
		MaxTokens:   r.maxTokens,
		Temperature: opts.Temperature,
		JSONMode:    true,
	}

	start := time.Now()
	resp, err := r.provider.Generate(ctx, req)
	common.LogModelCall(r.provider.GetModel(), time.Since(start), err, common.RequestIDFromContext(ctx))
	if err != nil {
		return nil, classifyProviderError(err)
	}

	answer, err := parseModelAnswer(resp.Content)
	if err != nil {
		return nil, common.ErrUpstreamResponse.Wrap(err)
	}
	return answer, nil
}

// classifyProviderError 將模型錯誤對應到服務錯誤類型
func classifyProviderError(err error) error {
	switch {
	case errors.Is(err, context.Canceled):
		return err
	case errors.Is(err, provider.ErrUnavailable), errors.Is(err, context.DeadlineExceeded):
		return common.ErrServiceUnavailable.Wrap(err)
	default:
		// 包含 *provider.UpstreamError（非 2xx 狀態）
		return common.NewUpstreamResponseError("Matching model request failed", err)
	}
}

// parseModelAnswer 解析並驗證模型輸出
// 無法解析或根節點不是物件時返回錯誤；個別欄位不合法時視為不存在
func parseModelAnswer(content string) (*ModelAnswer, error) {
	jsonText, ok := common.ExtractJSONObject(content)
	if !ok {
		return nil, fmt.Errorf("no JSON object in model response")
	}

	var raw interface{}
	if err := common.ParseJSON(jsonText, &raw); err != nil {
		return nil, fmt.Errorf("invalid JSON in model response: %w", err)
	}
	root, ok := raw.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("model response root is not an object")
	}

	violations, err := validateAnswer(jsonText)
	if err != nil {
		return nil, fmt.Errorf("failed to validate model response: %w", err)
	}
	if !violations.empty() {
		common.LogWarn("模型回應不符合格式，忽略不合法欄位",
			zap.Strings("violations", violations.messages),
		)
	}

	answer := &ModelAnswer{Raw: root}

	if !violations.bestMatch {
		if entry, ok := decodeRanked(root["bestMatch"]); ok {
			answer.BestMatch = &entry
		}
	}

	if !violations.allAlternatives {
		if items, ok := root["alternatives"].([]interface{}); ok {
			for i, item := range items {
				if violations.alternatives[i] {
					continue
				}
				if entry, ok := decodeRanked(item); ok {
					answer.Alternatives = append(answer.Alternatives, entry)
				}
			}
		}
	}

	return answer, nil
}

// decodeRanked 寬鬆解析單筆結果；productId 必須是非空字串
func decodeRanked(v interface{}) (RankedMatchResult, bool) {
	obj, ok := v.(map[string]interface{})
	if !ok {
		return RankedMatchResult{}, false
	}
	id, ok := obj["productId"].(string)
	if !ok || strings.TrimSpace(id) == "" {
		return RankedMatchResult{}, false
	}

	reasoning, ok := obj["reasoning"].(string)
	if !ok || strings.TrimSpace(reasoning) == "" {
		reasoning = defaultReasoning
	}

	return RankedMatchResult{
		ProductID:  id,
		Confidence: decodeConfidence(obj["confidence"]),
		Reasoning:  reasoning,
	}, true
}

// decodeConfidence 數字或數字字串轉為 float64，其他型別返回 NaN
func decodeConfidence(v interface{}) float64 {
	switch c := v.(type) {
	case json.Number:
		f, err := c.Float64()
		if err != nil {
			return math.NaN()
		}
		return f
	case float64:
		return c
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(c), 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}
