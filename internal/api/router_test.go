package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"recipe-matcher/internal/api/middleware"
	"recipe-matcher/internal/core/ai/provider"
	"recipe-matcher/internal/core/catalog"
	"recipe-matcher/internal/core/history"
	"recipe-matcher/internal/core/match"
	"recipe-matcher/internal/core/shopping"
	"recipe-matcher/internal/infrastructure/config"
	"recipe-matcher/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// fixedProvider 每次返回相同內容的模型
type fixedProvider struct {
	content string
}

func (p *fixedProvider) Generate(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	return &provider.Response{Content: p.content, Model: "fixed"}, nil
}

func (p *fixedProvider) GetModel() string           { return "fixed" }
func (p *fixedProvider) GetTimeout() time.Duration { return time.Second }
func (p *fixedProvider) Close() error               { return nil }

const tofuAnswer = `{"bestMatch": {"productId": "p1", "confidence": 93, "reasoning": "Firm tofu"}, "alternatives": [{"productId": "p2", "confidence": 72, "reasoning": "Softer"}]}`

type routerOptions struct {
	provider    provider.Provider
	history     bool
	rateLimit   int
	maxBodySize int64
}

func testConfig(opts routerOptions) *config.Config {
	return &config.Config{
		App:    config.AppConfig{Version: "test", Env: "test"},
		Server: config.ServerConfig{MaxBodySize: opts.maxBodySize},
		Match:  config.MatchConfig{Provider: config.ProviderOpenRouter, Workers: 2},
		RateLimit: config.RateLimitConfig{
			Enabled:  opts.rateLimit > 0,
			Requests: opts.rateLimit,
			Window:   time.Minute,
		},
		DedupWindow: time.Minute,
	}
}

func newTestRouter(t *testing.T, opts routerOptions) *gin.Engine {
	t.Helper()
	cfg := testConfig(opts)

	var hist *history.Manager
	if opts.history {
		hist = history.NewManagerWithStore(
			history.NewMemoryStore(config.HistoryConfig{MaxSize: 100, TTL: time.Hour}),
			config.HistoryBackendMemory,
		)
		t.Cleanup(func() { _ = hist.Close() })
	}

	cat := catalog.New(
		[]common.Product{
			{ID: "p1", Name: "Firm Tofu", Price: common.Float64Ptr(2.49)},
			{ID: "p2", Name: "Silken Tofu", Price: common.Float64Ptr(1.99)},
			{ID: "p3", Name: "White Miso"},
		},
		[]common.Recipe{{
			ID:   "r1",
			Name: "Tofu Soup",
			Ingredients: []common.RecipeIngredient{
				{ID: "r1-1", Name: "tofu", Amount: "1 block"},
				{ID: "r1-2", Name: "water", Amount: "2 cups"},
			},
		}},
	)

	engine := match.NewEngine(opts.provider, match.EngineOptions{})
	svc := shopping.NewService(engine, hist, cfg.Match)

	dedup := newDedup(t, cfg)
	return SetupRouter(cfg, Dependencies{Shopping: svc, Catalog: cat, Deduplicator: dedup})
}

func newDedup(t *testing.T, cfg *config.Config) *middleware.Deduplicator {
	t.Helper()
	d := middleware.NewDeduplicator(cfg.DedupWindow)
	t.Cleanup(d.Stop)
	return d
}

func doJSON(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, _ := json.Marshal(b)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func tofuRequest() gin.H {
	return gin.H{
		"ingredient": gin.H{"name": "Tofu", "amount": "1 block"},
		"products": []gin.H{
			{"id": "p1", "name": "Firm Tofu", "price": 2.49},
			{"id": "p2", "name": "Silken Tofu"},
			{"id": "p3", "name": "White Miso"},
		},
	}
}

func TestHealthEndpoints(t *testing.T) {
	router := newTestRouter(t, routerOptions{provider: &fixedProvider{content: tofuAnswer}, history: true})

	w := doJSON(router, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, true, body["matching"].(map[string]interface{})["configured"])
	assert.NotNil(t, body["history"])

	assert.Equal(t, http.StatusOK, doJSON(router, http.MethodGet, "/live", nil).Code)
	assert.Equal(t, http.StatusOK, doJSON(router, http.MethodGet, "/ready", nil).Code)

	unconfigured := newTestRouter(t, routerOptions{})
	w = doJSON(unconfigured, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "not_ready", decode(t, w)["status"])
}

func TestHandleMatch_Success(t *testing.T) {
	router := newTestRouter(t, routerOptions{provider: &fixedProvider{content: tofuAnswer}})

	w := doJSON(router, http.MethodPost, "/api/v1/match", tofuRequest())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode(t, w)
	best := body["bestMatch"].(map[string]interface{})
	assert.Equal(t, "p1", best["id"])
	assert.Equal(t, float64(93), best["confidence"])
	assert.Equal(t, "high", best["confidenceLabel"])
	assert.Equal(t, float64(2), body["candidateCount"])
	assert.Len(t, body["alternatives"], 1)
	assert.NotContains(t, body, "modelResponse")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestHandleMatch_Errors(t *testing.T) {
	router := newTestRouter(t, routerOptions{provider: &fixedProvider{content: tofuAnswer}})

	tests := []struct {
		name       string
		body       interface{}
		wantStatus int
		wantCode   string
		wantError  string
	}{
		{"not an object", `[1, 2]`, http.StatusBadRequest, common.ErrCodeValidation, "Request body must be an object"},
		{"missing ingredient", gin.H{"products": []gin.H{{"id": "p1", "name": "Tofu"}}}, http.StatusBadRequest, common.ErrCodeValidation, "Ingredient name is required"},
		{"empty products", gin.H{"ingredient": gin.H{"name": "tofu"}, "products": []gin.H{}}, http.StatusBadRequest, common.ErrCodeValidation, "Products array is required and must not be empty"},
		{"product without id", gin.H{"ingredient": gin.H{"name": "tofu"}, "products": []gin.H{{"name": "Tofu"}}}, http.StatusBadRequest, common.ErrCodeValidation, `Each product must include "id" and "name" fields`},
		{"no candidates", gin.H{"ingredient": gin.H{"name": "saffron"}, "products": []gin.H{{"id": "p1", "name": "Tofu"}}}, http.StatusNotFound, common.ErrCodeNoCandidates, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(router, http.MethodPost, "/api/v1/match", tt.body)
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())

			body := decode(t, w)
			assert.Equal(t, tt.wantCode, body["code"])
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, body["error"])
			}
		})
	}
}

func TestHandleMatch_BasicIngredient(t *testing.T) {
	router := newTestRouter(t, routerOptions{})

	w := doJSON(router, http.MethodPost, "/api/v1/match", gin.H{
		"ingredient": gin.H{"name": "Salt"},
		"products":   []gin.H{{"id": "s1", "name": "Sea Salt"}},
	})
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Nil(t, body["bestMatch"])
	assert.Equal(t, float64(0), body["candidateCount"])
}

func TestHandleMatch_NotConfigured(t *testing.T) {
	router := newTestRouter(t, routerOptions{})

	w := doJSON(router, http.MethodPost, "/api/v1/match", tofuRequest())
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "Matching service unavailable. Model API key is not configured.", decode(t, w)["error"])
}

func TestHandleMatch_UnusableModelOutput(t *testing.T) {
	router := newTestRouter(t, routerOptions{provider: &fixedProvider{content: "I am not JSON"}})

	w := doJSON(router, http.MethodPost, "/api/v1/match", tofuRequest())
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, common.ErrCodeUpstreamResponse, decode(t, w)["code"])
}

func TestHistoryEndpoints(t *testing.T) {
	router := newTestRouter(t, routerOptions{provider: &fixedProvider{content: tofuAnswer}, history: true})

	w := doJSON(router, http.MethodGet, "/api/v1/history/tofu", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(router, http.MethodPost, "/api/v1/match?history=true", tofuRequest())
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodGet, "/api/v1/history/tofu", nil)
	require.Equal(t, http.StatusOK, w.Code)
	entry := decode(t, w)
	assert.Equal(t, "p1", entry["productId"])
	assert.Equal(t, false, entry["addedToCart"])

	w = doJSON(router, http.MethodPost, "/api/v1/match?history=true", tofuRequest())
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["fromCache"])

	w = doJSON(router, http.MethodPost, "/api/v1/history/tofu/cart", gin.H{"productId": "p1"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["addedToCart"])

	w = doJSON(router, http.MethodPost, "/api/v1/history/tofu/cart", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(router, http.MethodPut, "/api/v1/history/tofu", gin.H{
		"product": gin.H{"id": "p2", "name": "Silken Tofu", "confidence": 72},
	})
	require.Equal(t, http.StatusOK, w.Code)
	entry = decode(t, w)
	assert.Equal(t, "p2", entry["productId"])
	assert.Equal(t, "medium", entry["confidenceLabel"])
	assert.Equal(t, false, entry["addedToCart"])

	w = doJSON(router, http.MethodPut, "/api/v1/history/tofu", gin.H{"product": gin.H{"confidence": 72}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(router, http.MethodGet, "/api/v1/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["size"])

	assert.Equal(t, http.StatusNoContent, doJSON(router, http.MethodDelete, "/api/v1/history/tofu", nil).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(router, http.MethodGet, "/api/v1/history/tofu", nil).Code)
	assert.Equal(t, http.StatusNoContent, doJSON(router, http.MethodDelete, "/api/v1/history", nil).Code)
}

func TestHistoryEndpoints_Disabled(t *testing.T) {
	router := newTestRouter(t, routerOptions{provider: &fixedProvider{content: tofuAnswer}})

	w := doJSON(router, http.MethodGet, "/api/v1/history/tofu", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "Match history is disabled", decode(t, w)["error"])
}

func TestCatalogEndpoints(t *testing.T) {
	router := newTestRouter(t, routerOptions{})

	w := doJSON(router, http.MethodGet, "/api/v1/products", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(3), decode(t, w)["total"])

	w = doJSON(router, http.MethodGet, "/api/v1/products?q=tofu&limit=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, float64(1), body["total"])
	assert.Equal(t, "tofu", body["query"])

	w = doJSON(router, http.MethodGet, "/api/v1/products?q=tofu&limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(router, http.MethodGet, "/api/v1/recipes", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["total"])

	w = doJSON(router, http.MethodGet, "/api/v1/recipes/r1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Tofu Soup", decode(t, w)["name"])

	assert.Equal(t, http.StatusNotFound, doJSON(router, http.MethodGet, "/api/v1/recipes/nope", nil).Code)
}

func TestHandleRecipeMatch(t *testing.T) {
	router := newTestRouter(t, routerOptions{provider: &fixedProvider{content: tofuAnswer}})

	w := doJSON(router, http.MethodPost, "/api/v1/recipes/r1/match", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode(t, w)
	assert.Equal(t, "r1", body["recipeId"])
	assert.Equal(t, float64(1), body["matched"])
	assert.Equal(t, float64(1), body["noMatch"])
	results := body["results"].([]interface{})
	require.Len(t, results, 2)
	assert.Equal(t, shopping.StatusMatched, results[0].(map[string]interface{})["status"])
	assert.Equal(t, shopping.StatusNoMatch, results[1].(map[string]interface{})["status"])

	w = doJSON(router, http.MethodPost, "/api/v1/recipes/r1/match", gin.H{"options": gin.H{"maxCandidates": 1}})
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, http.StatusNotFound, doJSON(router, http.MethodPost, "/api/v1/recipes/nope/match", nil).Code)
}

func TestHandleFeedback(t *testing.T) {
	router := newTestRouter(t, routerOptions{})

	fb := gin.H{
		"ingredientName":      "tofu",
		"bestMatchProductId":  "p1",
		"bestMatchConfidence": 93,
		"userFeedback":        "thumbs_up",
	}

	w := doJSON(router, http.MethodPost, "/api/v1/feedback", fb)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	assert.Equal(t, "recorded", decode(t, w)["status"])

	w = doJSON(router, http.MethodPost, "/api/v1/feedback", fb)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	w = doJSON(router, http.MethodPost, "/api/v1/feedback", gin.H{"ingredientName": "tofu", "userFeedback": "meh"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(router, http.MethodPost, "/api/v1/feedback", gin.H{"ingredientName": "tofu", "userFeedback": "selected_alternative"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(router, http.MethodPost, "/api/v1/feedback", gin.H{"ingredientName": "tofu", "userFeedback": "selected_alternative", "selectedProductId": "p2"})
	assert.Equal(t, http.StatusAccepted, w.Code)
}

func TestRateLimitAndBodySize(t *testing.T) {
	router := newTestRouter(t, routerOptions{rateLimit: 2})

	assert.Equal(t, http.StatusOK, doJSON(router, http.MethodGet, "/live", nil).Code)
	assert.Equal(t, http.StatusOK, doJSON(router, http.MethodGet, "/live", nil).Code)
	w := doJSON(router, http.MethodGet, "/live", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	small := newTestRouter(t, routerOptions{maxBodySize: 16})
	w = doJSON(small, http.MethodPost, "/api/v1/match", strings.Repeat("x", 64))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestRequestTimeout(t *testing.T) {
	router := gin.New()
	router.Use(requestTimeout(20 * time.Millisecond))
	router.GET("/slow", func(c *gin.Context) {
		<-c.Request.Context().Done()
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/slow", nil))

	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	body := decode(t, w)
	assert.Equal(t, common.ErrCodeGatewayTimeout, body["code"])
	assert.Equal(t, "Request timeout", body["error"])
	assert.Equal(t, "exceeded 20ms", body["details"])
}
