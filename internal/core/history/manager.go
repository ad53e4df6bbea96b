package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"recipe-matcher/internal/core/match"
	"recipe-matcher/internal/infrastructure/config"
	"recipe-matcher/internal/pkg/common"

	"go.uber.org/zap"
)

// Manager 比對歷史操作
type Manager struct {
	store   Store
	backend string
	now     func() time.Time
}

// NewManager 依設定建立比對歷史；停用時返回 nil
func NewManager(ctx context.Context, cfg config.HistoryConfig) (*Manager, error) {
	if !cfg.Enabled {
		common.LogInfo("Match history disabled")
		return nil, nil
	}

	switch cfg.Backend {
	case config.HistoryBackendRedis:
		store, err := NewRedisStore(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return NewManagerWithStore(store, cfg.Backend), nil
	case config.HistoryBackendMemory, "":
		return NewManagerWithStore(NewMemoryStore(cfg), config.HistoryBackendMemory), nil
	default:
		return nil, fmt.Errorf("unsupported history backend %q", cfg.Backend)
	}
}

// NewManagerWithStore 使用指定的儲存建立
func NewManagerWithStore(store Store, backend string) *Manager {
	return &Manager{store: store, backend: backend, now: time.Now}
}

// Backend 儲存後端名稱
func (m *Manager) Backend() string {
	return m.backend
}

// Lookup 取得食材的比對歷史
func (m *Manager) Lookup(ctx context.Context, ingredientName string) (*Entry, error) {
	key := Key(ingredientName)
	entry, err := m.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			common.LogHistoryMiss(m.backend, key)
		}
		return nil, err
	}
	common.LogHistoryHit(m.backend, key)
	return entry, nil
}

// Save 保存比對結果，最多保留 5 個備選
func (m *Manager) Save(ctx context.Context, ingredientName string, best match.MatchedProduct, alternatives []match.MatchedProduct) (*Entry, error) {
	key := Key(ingredientName)

	alts := alternatives
	if len(alts) > match.MaxAlternatives {
		alts = alts[:match.MaxAlternatives]
	}
	entryAlts := make([]AlternativeEntry, 0, len(alts))
	for _, alt := range alts {
		entryAlts = append(entryAlts, AlternativeEntry{
			ProductID:   alt.ID,
			ProductName: alt.DisplayName(),
			Confidence:  alt.Confidence,
		})
	}

	entry := &Entry{IngredientName: key, Alternatives: entryAlts}
	m.applyProduct(entry, best)

	if err := m.store.Put(ctx, key, entry); err != nil {
		return nil, err
	}
	common.LogDebug("比對歷史已儲存",
		zap.String("ingredient", key),
		zap.String("product_id", best.ID),
	)
	return entry, nil
}

// MarkAddedToCart 標記已加入購物車；只有商品仍是目前的最佳比對時才更新
func (m *Manager) MarkAddedToCart(ctx context.Context, ingredientName, productID string) (*Entry, error) {
	key := Key(ingredientName)
	entry, err := m.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if entry.ProductID != productID {
		return entry, nil
	}

	entry.AddedToCart = true
	if err := m.store.Put(ctx, key, entry); err != nil {
		return nil, err
	}
	common.LogDebug("比對歷史已標記加入購物車", zap.String("ingredient", key))
	return entry, nil
}

// SelectProduct 使用者改選其他商品；會重置加入購物車狀態
func (m *Manager) SelectProduct(ctx context.Context, ingredientName string, product match.MatchedProduct) (*Entry, error) {
	key := Key(ingredientName)
	entry, err := m.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	m.applyProduct(entry, product)
	if err := m.store.Put(ctx, key, entry); err != nil {
		return nil, err
	}
	common.LogDebug("比對歷史已更新",
		zap.String("ingredient", key),
		zap.String("product_id", product.ID),
	)
	return entry, nil
}

// Clear 刪除單一食材的歷史
func (m *Manager) Clear(ctx context.Context, ingredientName string) error {
	return m.store.Invalidate(ctx, Key(ingredientName))
}

// ClearAll 清空所有歷史
func (m *Manager) ClearAll(ctx context.Context) error {
	return m.store.Clear(ctx)
}

// Stats 取得統計
func (m *Manager) Stats(ctx context.Context) (Stats, error) {
	return m.store.Stats(ctx)
}

// Ping 檢查儲存是否可用
func (m *Manager) Ping(ctx context.Context) error {
	if p, ok := m.store.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Close 關閉儲存
func (m *Manager) Close() error {
	return m.store.Close()
}

func (m *Manager) applyProduct(entry *Entry, product match.MatchedProduct) {
	entry.ProductID = product.ID
	entry.ProductName = product.DisplayName()
	entry.ProductPrice = nil
	if product.Price != nil {
		entry.ProductPrice = common.Float64Ptr(*product.Price)
	}
	entry.ProductImage = product.Image
	entry.Confidence = product.Confidence
	entry.ConfidenceLabel = product.ConfidenceLabel
	entry.Reasoning = product.Reasoning
	entry.Timestamp = m.now().UTC()
	entry.AddedToCart = false
}
