package match

import (
	"context"
	"errors"
	"math"
	"net/http"
	"testing"
	"time"

	"recipe-matcher/internal/core/ai/provider"
	"recipe-matcher/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockProvider 測試用的模型提供者
type mockProvider struct {
	GenerateFunc func(ctx context.Context, req *provider.Request) (*provider.Response, error)

	calls   int
	lastReq *provider.Request
}

func (m *mockProvider) Generate(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	m.calls++
	m.lastReq = req
	return m.GenerateFunc(ctx, req)
}

func (m *mockProvider) GetModel() string           { return "mock-model" }
func (m *mockProvider) GetTimeout() time.Duration { return time.Second }
func (m *mockProvider) Close() error               { return nil }

func respondWith(content string) *mockProvider {
	return &mockProvider{
		GenerateFunc: func(ctx context.Context, req *provider.Request) (*provider.Response, error) {
			return &provider.Response{Content: content, Model: "mock-model"}, nil
		},
	}
}

func failWith(err error) *mockProvider {
	return &mockProvider{
		GenerateFunc: func(ctx context.Context, req *provider.Request) (*provider.Response, error) {
			return nil, err
		},
	}
}

func TestParseModelAnswer_Valid(t *testing.T) {
	content := "Here you go:\n```json\n" + `{
  "bestMatch": {"productId": "p1", "confidence": 91, "reasoning": "exact"},
  "alternatives": [
    {"productId": "p2", "confidence": "72", "reasoning": "close"},
    {"productId": "p3", "confidence": "high"}
  ]
}` + "\n```"

	answer, err := parseModelAnswer(content)
	require.NoError(t, err)

	require.NotNil(t, answer.BestMatch)
	assert.Equal(t, "p1", answer.BestMatch.ProductID)
	assert.Equal(t, 91.0, answer.BestMatch.Confidence)
	assert.Equal(t, "exact", answer.BestMatch.Reasoning)

	require.Len(t, answer.Alternatives, 2)
	assert.Equal(t, 72.0, answer.Alternatives[0].Confidence)
	assert.True(t, math.IsNaN(answer.Alternatives[1].Confidence))
	assert.Equal(t, defaultReasoning, answer.Alternatives[1].Reasoning)
	assert.Contains(t, answer.Raw, "bestMatch")
}

func TestParseModelAnswer_Unusable(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"no JSON", "I could not find a match."},
		{"array root", "[1, 2, 3]"},
		{"array of answers", `[{"bestMatch": {"productId": "p1", "confidence": 95}}]`},
		{"fenced array of answers", "```json\n" + `[{"bestMatch": {"productId": "p1", "confidence": 95}}]` + "\n```"},
		{"broken JSON", `{"bestMatch": {"productId": "p1",}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseModelAnswer(tt.content)
			assert.Error(t, err)
		})
	}
}

func TestParseModelAnswer_DropsInvalidFields(t *testing.T) {
	t.Run("bestMatch with numeric id", func(t *testing.T) {
		answer, err := parseModelAnswer(`{"bestMatch": {"productId": 12, "confidence": 90}, "alternatives": [{"productId": "p2", "confidence": 70}]}`)
		require.NoError(t, err)
		assert.Nil(t, answer.BestMatch)
		require.Len(t, answer.Alternatives, 1)
		assert.Equal(t, "p2", answer.Alternatives[0].ProductID)
	})

	t.Run("one bad alternative", func(t *testing.T) {
		answer, err := parseModelAnswer(`{"bestMatch": {"productId": "p1", "confidence": 90}, "alternatives": [{"productId": "p2"}, {"confidence": 70}, {"productId": "p4"}]}`)
		require.NoError(t, err)
		require.NotNil(t, answer.BestMatch)
		require.Len(t, answer.Alternatives, 2)
		assert.Equal(t, "p2", answer.Alternatives[0].ProductID)
		assert.Equal(t, "p4", answer.Alternatives[1].ProductID)
	})

	t.Run("alternatives not an array", func(t *testing.T) {
		answer, err := parseModelAnswer(`{"bestMatch": {"productId": "p1", "confidence": 90}, "alternatives": "none"}`)
		require.NoError(t, err)
		require.NotNil(t, answer.BestMatch)
		assert.Empty(t, answer.Alternatives)
	})

	t.Run("null fields", func(t *testing.T) {
		answer, err := parseModelAnswer(`{"bestMatch": null, "alternatives": null}`)
		require.NoError(t, err)
		assert.Nil(t, answer.BestMatch)
		assert.Empty(t, answer.Alternatives)
	})
}

func TestReranker_NotConfigured(t *testing.T) {
	r := NewReranker(nil, 100)
	assert.False(t, r.Configured())

	_, err := r.Rerank(context.Background(), nil, nil, RerankOptions{})
	status, code := common.HTTPStatusOf(err)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, common.ErrCodeServiceUnavailable, code)
	assert.Contains(t, err.Error(), "Model API key is not configured")
}

func TestReranker_SendsJSONModeRequest(t *testing.T) {
	mock := respondWith(`{"bestMatch": {"productId": "p1", "confidence": 88}}`)
	r := NewReranker(mock, 512)

	candidates := []PromptCandidate{{Rank: 1, ID: "p1", Name: "Tofu"}, {Rank: 2, ID: "p2", Name: "Soy Milk"}}
	answer, err := r.Rerank(context.Background(), []string{"Ingredient name: tofu"}, candidates, RerankOptions{
		Temperature:   0.4,
		MaxCandidates: 1,
	})
	require.NoError(t, err)
	require.NotNil(t, answer.BestMatch)

	assert.Equal(t, 1, mock.calls)
	assert.True(t, mock.lastReq.JSONMode)
	assert.Equal(t, 512, mock.lastReq.MaxTokens)
	assert.Equal(t, 0.4, mock.lastReq.Temperature)
	assert.NotContains(t, mock.lastReq.Messages[1].Content, "Soy Milk")
}

func TestReranker_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		mock       *mockProvider
		wantStatus int
	}{
		{"unavailable", failWith(provider.Unavailable(errors.New("dial tcp"))), http.StatusServiceUnavailable},
		{"deadline", failWith(context.DeadlineExceeded), http.StatusServiceUnavailable},
		{"upstream status", failWith(&provider.UpstreamError{Provider: "openrouter", StatusCode: 400, Body: "bad"}), http.StatusBadGateway},
		{"unusable content", respondWith("sorry, no JSON today"), http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReranker(tt.mock, 100)
			_, err := r.Rerank(context.Background(), nil, nil, RerankOptions{})
			require.Error(t, err)

			status, _ := common.HTTPStatusOf(err)
			assert.Equal(t, tt.wantStatus, status)
		})
	}
}

func TestReranker_CanceledPassesThrough(t *testing.T) {
	r := NewReranker(failWith(context.Canceled), 100)

	_, err := r.Rerank(context.Background(), nil, nil, RerankOptions{})
	assert.ErrorIs(t, err, context.Canceled)

	var ce *common.CustomError
	assert.False(t, errors.As(err, &ce))
}
