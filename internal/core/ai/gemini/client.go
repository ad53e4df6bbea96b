package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"recipe-matcher/internal/core/ai/provider"
	"recipe-matcher/internal/infrastructure/config"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// Client Google Gemini 客戶端，實作 provider.Provider
type Client struct {
	client    *genai.Client
	model     string
	maxTokens int
	timeout   time.Duration
}

// NewClient 創建 Gemini 客戶端
func NewClient(ctx context.Context, cfg config.GeminiConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &Client{
		client:    client,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		timeout:   timeout,
	}, nil
}

// Generate 將 system 訊息作為 SystemInstruction，其餘訊息合併為使用者輸入
func (c *Client) Generate(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	model := c.client.GenerativeModel(c.model)
	model.SetTemperature(float32(req.Temperature))

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.maxTokens
	}
	if maxTokens > 0 {
		model.SetMaxOutputTokens(int32(maxTokens))
	}
	if req.JSONMode {
		model.ResponseMIMEType = "application/json"
	}

	var system []string
	var parts []genai.Part
	for _, msg := range req.Messages {
		if msg.Role == provider.RoleSystem {
			system = append(system, msg.Content)
			continue
		}
		parts = append(parts, genai.Text(msg.Content))
	}
	if len(system) > 0 {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(strings.Join(system, "\n\n"))},
		}
	}

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, classifyError(err)
	}

	text, err := extractText(resp)
	if err != nil {
		return nil, provider.Unavailable(err)
	}

	out := &provider.Response{
		Content: text,
		Model:   c.model,
	}
	if resp.UsageMetadata != nil {
		out.Usage = provider.Usage{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
		}
	}
	return out, nil
}

// classifyError 將 Gemini API 錯誤轉為 provider 錯誤
func classifyError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		upstream := &provider.UpstreamError{Provider: "gemini", StatusCode: apiErr.Code, Body: apiErr.Message}
		if provider.IsUnavailableStatus(apiErr.Code) {
			return provider.Unavailable(upstream)
		}
		return upstream
	}
	return provider.Unavailable(fmt.Errorf("failed to generate content: %w", err))
}

// extractText 取出第一個候選的所有文字片段
func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", provider.ErrEmptyResponse
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", provider.ErrEmptyResponse
	}

	var texts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			texts = append(texts, string(text))
		}
	}
	joined := strings.TrimSpace(strings.Join(texts, ""))
	if joined == "" {
		return "", provider.ErrEmptyResponse
	}
	return joined, nil
}

// GetModel 獲取模型名稱
func (c *Client) GetModel() string {
	return c.model
}

// GetTimeout 獲取請求超時時間
func (c *Client) GetTimeout() time.Duration {
	return c.timeout
}

// Close 關閉客戶端
func (c *Client) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}
