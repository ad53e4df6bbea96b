package history

import (
	"context"
	"errors"
	"time"

	"recipe-matcher/internal/core/match"
)

// ErrNotFound 比對歷史中沒有該食材
var ErrNotFound = errors.New("match history entry not found")

// AlternativeEntry 歷史中保存的備選商品
type AlternativeEntry struct {
	ProductID   string `json:"productId"`
	ProductName string `json:"productName"`
	Confidence  int    `json:"confidence"`
}

// Entry 單一食材的比對歷史
type Entry struct {
	IngredientName  string             `json:"ingredientName"`
	ProductID       string             `json:"productId"`
	ProductName     string             `json:"productName"`
	ProductPrice    *float64           `json:"productPrice,omitempty"`
	ProductImage    string             `json:"productImage"`
	Confidence      int                `json:"confidence"`
	ConfidenceLabel string             `json:"confidenceLabel"`
	Reasoning       string             `json:"reasoning"`
	Timestamp       time.Time          `json:"timestamp"`
	AddedToCart     bool               `json:"addedToCart"`
	Alternatives    []AlternativeEntry `json:"alternatives"`
}

// Stats 儲存統計
type Stats struct {
	Backend   string  `json:"backend"`
	Size      int     `json:"size"`
	MaxSize   int     `json:"maxSize,omitempty"`
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	Evictions int64   `json:"evictions"`
	HitRatio  float64 `json:"hitRatio"`
}

// Store 以正規化食材名稱為鍵的比對歷史儲存
type Store interface {
	// Get 取得歷史，不存在時返回 ErrNotFound
	Get(ctx context.Context, key string) (*Entry, error)
	Put(ctx context.Context, key string, entry *Entry) error
	Invalidate(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Stats(ctx context.Context) (Stats, error)
	Close() error
}

// Key 將食材名稱轉為歷史鍵
func Key(ingredientName string) string {
	return match.NormalizeName(ingredientName)
}

func hitRatio(hits, misses int64) float64 {
	if hits+misses == 0 {
		return 0
	}
	return float64(hits) / float64(hits+misses)
}
