package health

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"recipe-matcher/internal/core/history"
	"recipe-matcher/internal/infrastructure/config"
	"recipe-matcher/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HealthResponse 健康檢查響應
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime"`
	Matching  MatchingStatus         `json:"matching"`
	History   *history.Stats         `json:"history,omitempty"`
}

// MatchingStatus 比對服務狀態
type MatchingStatus struct {
	Configured bool   `json:"configured"`
	Provider   string `json:"provider"`
	Workers    int    `json:"workers"`
}

// Checker 判斷生成模型是否已設定
type Checker interface {
	Configured() bool
}

// Handler 健康檢查處理器
type Handler struct {
	cfg     *config.Config
	engine  Checker
	history *history.Manager
}

// NewHandler 創建健康檢查處理器；hist 可為 nil
func NewHandler(cfg *config.Config, engine Checker, hist *history.Manager) *Handler {
	return &Handler{cfg: cfg, engine: engine, history: hist}
}

// HealthCheck 健康檢查
func (h *Handler) HealthCheck(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   h.cfg.App.Version,
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
		Matching: MatchingStatus{
			Configured: h.engine.Configured(),
			Provider:   h.cfg.Match.Provider,
			Workers:    h.cfg.Match.Workers,
		},
	}

	if h.history != nil {
		if stats, err := h.history.Stats(c.Request.Context()); err == nil {
			response.History = &stats
		} else {
			common.LogWarn("無法取得比對歷史統計", zap.Error(err))
		}
	}

	common.LogDebug("Health check request",
		zap.String("client_ip", c.ClientIP()),
		zap.String("path", c.Request.URL.Path),
	)

	c.JSON(http.StatusOK, response)
}

// ReadinessCheck 就緒檢查：生成模型已設定且比對歷史可連線
func (h *Handler) ReadinessCheck(c *gin.Context) {
	checks := gin.H{"model": h.engine.Configured()}
	ready := h.engine.Configured()

	if h.history != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.history.Ping(ctx); err != nil {
			common.LogWarn("比對歷史無法連線", zap.Error(err))
			checks["history"] = false
			ready = false
		} else {
			checks["history"] = true
		}
	}

	if !ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "checks": checks})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "checks": checks})
}

// LivenessCheck 存活檢查
func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}
