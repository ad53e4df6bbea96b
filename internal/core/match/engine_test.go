package match

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"recipe-matcher/internal/core/ai/provider"
	"recipe-matcher/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chickenProducts() []common.Product {
	return []common.Product{
		{ID: "p1", Name: "Chicken Breast", Price: common.Float64Ptr(8.99)},
		{ID: "p2", Name: "Boneless Chicken Breast Fillet"},
		{ID: "p3", Name: "Chicken Thighs"},
		{ID: "p4", Name: "Fuji Apple"},
	}
}

func chickenRequest() *Request {
	return &Request{
		Ingredient: &common.Ingredient{Name: "Chicken Breast", Amount: "1 lb"},
		Products:   chickenProducts(),
	}
}

func TestEngine_ValidationErrors(t *testing.T) {
	engine := NewEngine(respondWith("{}"), EngineOptions{})

	tests := []struct {
		name    string
		req     *Request
		message string
	}{
		{"nil request", nil, "Request body must be an object"},
		{"missing ingredient", &Request{Products: chickenProducts()}, "Ingredient name is required"},
		{"blank ingredient name", &Request{Ingredient: &common.Ingredient{Name: "  "}, Products: chickenProducts()}, "Ingredient name is required"},
		{"no products", &Request{Ingredient: &common.Ingredient{Name: "tofu"}}, "Products array is required and must not be empty"},
		{"product without id", &Request{Ingredient: &common.Ingredient{Name: "tofu"}, Products: []common.Product{{Name: "Tofu"}}}, `Each product must include "id" and "name" fields`},
		{"product without name", &Request{Ingredient: &common.Ingredient{Name: "tofu"}, Products: []common.Product{{ID: "p1"}}}, `Each product must include "id" and "name" fields`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.Match(context.Background(), tt.req)
			require.Error(t, err)
			assert.True(t, common.IsValidationError(err))
			assert.Equal(t, tt.message, err.Error())
		})
	}
}

func TestEngine_ProductNameOnlyIsValid(t *testing.T) {
	req := &Request{
		Ingredient: &common.Ingredient{Name: "tofu"},
		Products:   []common.Product{{ID: "p1", ProductName: "Tofu"}},
	}
	assert.NoError(t, ValidateRequest(req))
}

func TestEngine_BasicIngredientSkipsModel(t *testing.T) {
	mock := respondWith("{}")
	engine := NewEngine(mock, EngineOptions{})

	got, err := engine.Match(context.Background(), &Request{
		Ingredient: &common.Ingredient{Name: "Sea Salt"},
		Products:   []common.Product{{ID: "s1", Name: "Sea Salt"}},
	})
	require.NoError(t, err)

	assert.Nil(t, got.BestMatch)
	assert.Empty(t, got.Alternatives)
	assert.Equal(t, 0, got.CandidateCount)
	assert.Equal(t, 0, mock.calls)
}

func TestEngine_BasicIngredientsFromOptions(t *testing.T) {
	engine := NewEngine(respondWith("{}"), EngineOptions{BasicIngredients: []string{"ice"}})

	assert.True(t, engine.IsBasicIngredient("Crushed Ice"))
	assert.False(t, engine.IsBasicIngredient("salt"))
}

func TestEngine_NoCandidates(t *testing.T) {
	mock := respondWith("{}")
	engine := NewEngine(mock, EngineOptions{})

	_, err := engine.Match(context.Background(), &Request{
		Ingredient: &common.Ingredient{Name: "saffron"},
		Products:   chickenProducts(),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrNoCandidates)

	status, _ := common.HTTPStatusOf(err)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, 0, mock.calls)
}

func TestEngine_HighConfidenceMatch(t *testing.T) {
	mock := respondWith(`{
  "bestMatch": {"productId": "p1", "confidence": 95, "reasoning": "Same cut"},
  "alternatives": [
    {"productId": "p2", "confidence": 85, "reasoning": "Fillet"},
    {"productId": "p4", "confidence": 90, "reasoning": "not a candidate"},
    {"productId": "p3", "confidence": 40, "reasoning": "Different cut"}
  ]
}`)
	engine := NewEngine(mock, EngineOptions{})

	got, err := engine.Match(context.Background(), chickenRequest())
	require.NoError(t, err)

	require.NotNil(t, got.BestMatch)
	assert.Equal(t, "p1", got.BestMatch.ID)
	assert.Equal(t, 8.99, got.BestMatch.PriceValue())
	assert.Equal(t, LabelHigh, got.BestMatch.ConfidenceLabel)
	require.Len(t, got.Alternatives, 1)
	assert.Equal(t, "p2", got.Alternatives[0].ID)
	assert.Equal(t, 3, got.CandidateCount)
	assert.False(t, got.Fallback)
	assert.NotNil(t, got.ModelResponse)

	require.Equal(t, 1, mock.calls)
	assert.Equal(t, DefaultTemperature, mock.lastReq.Temperature)
	user := mock.lastReq.Messages[1].Content
	assert.Contains(t, user, "Amount: 1 lb")
	assert.NotContains(t, user, "Fuji Apple")
	assert.Less(t, strings.Index(user, `"id": "p1"`), strings.Index(user, `"id": "p2"`))
}

func TestEngine_OptionsOverrideDefaults(t *testing.T) {
	mock := respondWith(`{"bestMatch": {"productId": "p1", "confidence": 90}}`)
	engine := NewEngine(mock, EngineOptions{DefaultTemperature: 0.7})

	req := chickenRequest()
	req.Options = &Options{MaxCandidates: common.IntPtr(2), Temperature: common.Float64Ptr(0)}

	got, err := engine.Match(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 2, got.CandidateCount)
	assert.Equal(t, 0.0, mock.lastReq.Temperature)
	assert.NotContains(t, mock.lastReq.Messages[1].Content, "Chicken Thighs")
}

func TestEngine_FallsBackWhenModelUnsure(t *testing.T) {
	mock := respondWith(`{"bestMatch": {"productId": "p3", "confidence": 55}, "alternatives": []}`)
	engine := NewEngine(mock, EngineOptions{})

	got, err := engine.Match(context.Background(), chickenRequest())
	require.NoError(t, err)

	assert.True(t, got.Fallback)
	assert.Equal(t, "p1", got.BestMatch.ID)
	assert.Equal(t, 80, got.BestMatch.Confidence)
	require.Len(t, got.Alternatives, 2)
	assert.Equal(t, "p2", got.Alternatives[0].ID)
	assert.Equal(t, "p3", got.Alternatives[1].ID)
}

func TestEngine_NotConfigured(t *testing.T) {
	engine := NewEngine(nil, EngineOptions{})
	assert.False(t, engine.Configured())

	_, err := engine.Match(context.Background(), chickenRequest())
	status, code := common.HTTPStatusOf(err)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, common.ErrCodeServiceUnavailable, code)

	// 基本食材不需要模型
	got, err := engine.Match(context.Background(), &Request{
		Ingredient: &common.Ingredient{Name: "water"},
		Products:   chickenProducts(),
	})
	require.NoError(t, err)
	assert.Nil(t, got.BestMatch)
}

func TestEngine_ModelFailures(t *testing.T) {
	tests := []struct {
		name       string
		mock       *mockProvider
		wantStatus int
	}{
		{"provider unavailable", failWith(provider.ErrUnavailable), http.StatusServiceUnavailable},
		{"upstream error", failWith(&provider.UpstreamError{Provider: "openrouter", StatusCode: 500}), http.StatusBadGateway},
		{"garbage output", respondWith("not json"), http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := NewEngine(tt.mock, EngineOptions{})
			_, err := engine.Match(context.Background(), chickenRequest())
			status, _ := common.HTTPStatusOf(err)
			assert.Equal(t, tt.wantStatus, status)
		})
	}
}

func TestEngine_CanceledContext(t *testing.T) {
	mock := respondWith("{}")
	engine := NewEngine(mock, EngineOptions{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.Match(ctx, chickenRequest())
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 0, mock.calls)
}

func TestEngine_Candidates(t *testing.T) {
	engine := NewEngine(nil, EngineOptions{Synonyms: NewSynonymTable(nil, nil)})

	got, err := engine.Candidates(context.Background(), "chicken breast", chickenProducts(), 20)
	require.NoError(t, err)

	// 沒有同義詞時 "Chicken Thighs" 只命中 token
	require.Len(t, got, 3)
	assert.Equal(t, "p1", got[0].ID)
	assert.Equal(t, ScoreExact, got[0].Score)
	assert.Equal(t, "p2", got[1].ID)
	assert.Equal(t, ScorePhrase, got[1].Score)
	assert.Equal(t, "p3", got[2].ID)
	assert.Equal(t, ScoreWord, got[2].Score)
}
