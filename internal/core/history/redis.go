package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"

	"recipe-matcher/internal/infrastructure/config"
	"recipe-matcher/internal/pkg/common"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// redisKeyPrefix Redis 鍵前綴
const redisKeyPrefix = "match:history:"

// RedisStore 以 Redis 保存比對歷史，值為 JSON
type RedisStore struct {
	client *redis.Client
	config config.HistoryConfig

	hits   int64
	misses int64
}

// NewRedisStore 連線 Redis 並建立儲存
func NewRedisStore(ctx context.Context, cfg config.HistoryConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// 測試連接
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	common.LogInfo("比對歷史已初始化",
		zap.String("backend", config.HistoryBackendRedis),
		zap.String("addr", cfg.Redis.Addr),
		zap.Duration("存活時間", cfg.TTL),
	)
	return NewRedisStoreWithClient(client, cfg), nil
}

// NewRedisStoreWithClient 使用既有的 client 建立儲存
func NewRedisStoreWithClient(client *redis.Client, cfg config.HistoryConfig) *RedisStore {
	return &RedisStore{client: client, config: cfg}
}

// Get 取得歷史
func (s *RedisStore) Get(ctx context.Context, key string) (*Entry, error) {
	data, err := s.client.Get(ctx, s.redisKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			atomic.AddInt64(&s.misses, 1)
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get history: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal history: %w", err)
	}
	atomic.AddInt64(&s.hits, 1)
	return &entry, nil
}

// Put 寫入歷史
func (s *RedisStore) Put(ctx context.Context, key string, entry *Entry) error {
	if entry == nil {
		return nil
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}
	if err := s.client.Set(ctx, s.redisKey(key), data, s.config.TTL).Err(); err != nil {
		return fmt.Errorf("failed to set history: %w", err)
	}
	return nil
}

// Invalidate 刪除單一歷史
func (s *RedisStore) Invalidate(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.redisKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete history: %w", err)
	}
	return nil
}

// Clear 以 SCAN 找出所有歷史鍵後刪除
func (s *RedisStore) Clear(ctx context.Context) error {
	keys, err := s.scanKeys(ctx)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

// Stats 取得統計
func (s *RedisStore) Stats(ctx context.Context) (Stats, error) {
	keys, err := s.scanKeys(ctx)
	if err != nil {
		return Stats{}, err
	}
	hits, misses := atomic.LoadInt64(&s.hits), atomic.LoadInt64(&s.misses)
	return Stats{
		Backend:  config.HistoryBackendRedis,
		Size:     len(keys),
		Hits:     hits,
		Misses:   misses,
		HitRatio: hitRatio(hits, misses),
	}, nil
}

// Ping 檢查 Redis 連線
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close 關閉連線
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) scanKeys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, redisKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan history keys: %w", err)
	}
	return keys, nil
}

// redisKey 生成 Redis 鍵
func (s *RedisStore) redisKey(key string) string {
	return redisKeyPrefix + key
}
