package history

import (
	"context"
	"sync"
	"time"

	"recipe-matcher/internal/infrastructure/config"
	"recipe-matcher/internal/pkg/common"

	"go.uber.org/zap"
)

// MemoryStore 記憶體比對歷史，支援 TTL、容量上限與 LRU 淘汰
type MemoryStore struct {
	mu      sync.Mutex
	store   map[string]memoryEntry
	maxSize int
	ttl     time.Duration
	stats   memoryStats
	now     func() time.Time

	stop      chan struct{}
	closeOnce sync.Once
}

// memoryEntry 歷史條目
type memoryEntry struct {
	entry       Entry
	expiresAt   time.Time
	lastAccess  time.Time
	accessCount int
}

// memoryStats 統計
type memoryStats struct {
	hits      int64
	misses    int64
	evictions int64
}

// NewMemoryStore 創建記憶體儲存並啟動過期清理協程
func NewMemoryStore(cfg config.HistoryConfig) *MemoryStore {
	s := &MemoryStore{
		store:   make(map[string]memoryEntry),
		maxSize: cfg.MaxSize,
		ttl:     cfg.TTL,
		now:     time.Now,
		stop:    make(chan struct{}),
	}

	if cfg.CleanupInterval > 0 {
		go s.startCleanup(cfg.CleanupInterval)
	}

	common.LogInfo("比對歷史已初始化",
		zap.String("backend", config.HistoryBackendMemory),
		zap.Int("最大容量", cfg.MaxSize),
		zap.Duration("存活時間", cfg.TTL),
		zap.Duration("清理間隔", cfg.CleanupInterval),
	)
	return s
}

// Get 取得歷史
func (s *MemoryStore) Get(ctx context.Context, key string) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, exists := s.store[key]
	if !exists {
		s.stats.misses++
		return nil, ErrNotFound
	}

	now := s.now()
	if s.expired(item, now) {
		delete(s.store, key)
		s.stats.evictions++
		s.stats.misses++
		common.LogDebug("比對歷史已過期", zap.String("鍵", key))
		return nil, ErrNotFound
	}

	item.lastAccess = now
	item.accessCount++
	s.store[key] = item
	s.stats.hits++

	entry := cloneEntry(item.entry)
	return &entry, nil
}

// Put 寫入歷史；容量已滿時先清理過期項目，再以 LRU 淘汰
func (s *MemoryStore) Put(ctx context.Context, key string, entry *Entry) error {
	if entry == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.store[key]; !exists && s.maxSize > 0 && len(s.store) >= s.maxSize {
		if evicted := s.cleanup(); evicted > 0 {
			common.LogDebug("比對歷史清理執行", zap.Int("清理數量", evicted))
		}
		for len(s.store) >= s.maxSize {
			s.evictLRU()
		}
	}

	now := s.now()
	item := memoryEntry{
		entry:      cloneEntry(*entry),
		lastAccess: now,
	}
	if s.ttl > 0 {
		item.expiresAt = now.Add(s.ttl)
	}
	s.store[key] = item
	return nil
}

// Invalidate 刪除單一歷史
func (s *MemoryStore) Invalidate(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.store, key)
	return nil
}

// Clear 清空所有歷史
func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store = make(map[string]memoryEntry)
	return nil
}

// Stats 取得統計
func (s *MemoryStore) Stats(ctx context.Context) (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Stats{
		Backend:   config.HistoryBackendMemory,
		Size:      len(s.store),
		MaxSize:   s.maxSize,
		Hits:      s.stats.hits,
		Misses:    s.stats.misses,
		Evictions: s.stats.evictions,
		HitRatio:  hitRatio(s.stats.hits, s.stats.misses),
	}, nil
}

// Close 停止清理協程並清空歷史
func (s *MemoryStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stop)

		s.mu.Lock()
		defer s.mu.Unlock()
		s.store = make(map[string]memoryEntry)
		common.LogInfo("比對歷史已關閉",
			zap.Int64("命中次數", s.stats.hits),
			zap.Int64("未命中次數", s.stats.misses),
			zap.Int64("淘汰次數", s.stats.evictions),
		)
	})
	return nil
}

// startCleanup 定期清理過期歷史
func (s *MemoryStore) startCleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.mu.Lock()
			count := s.cleanup()
			size := len(s.store)
			s.mu.Unlock()
			if count > 0 {
				common.LogInfo("Cleaned up expired history entries",
					zap.Int("count", count),
					zap.Int("remaining_size", size),
				)
			}
		case <-s.stop:
			return
		}
	}
}

// cleanup 清理過期項目，呼叫端需持有鎖
func (s *MemoryStore) cleanup() int {
	now := s.now()
	count := 0
	for key, item := range s.store {
		if s.expired(item, now) {
			delete(s.store, key)
			count++
			s.stats.evictions++
		}
	}
	return count
}

// evictLRU 淘汰訪問次數最少、最久未訪問的項目，呼叫端需持有鎖
func (s *MemoryStore) evictLRU() {
	var oldestKey string
	var oldestAccess time.Time
	var lowestAccessCount int

	for key, item := range s.store {
		if oldestKey == "" ||
			item.accessCount < lowestAccessCount ||
			(item.accessCount == lowestAccessCount && item.lastAccess.Before(oldestAccess)) {
			oldestKey = key
			oldestAccess = item.lastAccess
			lowestAccessCount = item.accessCount
		}
	}

	if oldestKey != "" {
		delete(s.store, oldestKey)
		s.stats.evictions++
		common.LogDebug("比對歷史已淘汰(LRU)", zap.String("鍵", oldestKey))
	}
}

func (s *MemoryStore) expired(item memoryEntry, now time.Time) bool {
	return !item.expiresAt.IsZero() && now.After(item.expiresAt)
}

func cloneEntry(e Entry) Entry {
	e.Alternatives = append([]AlternativeEntry(nil), e.Alternatives...)
	if e.ProductPrice != nil {
		price := *e.ProductPrice
		e.ProductPrice = &price
	}
	return e
}
