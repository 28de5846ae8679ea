package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Zemon-tech/ZEMON/internal/metrics"
)

// RedisCache はRedisをバックエンドとするCache実装。
// 値はJSONエンコードして格納する。
type RedisCache struct {
	client  *redis.Client
	logger  *slog.Logger
	metrics metrics.MetricsCollector
}

// NewRedisCache はRedis接続を確立してRedisCacheを生成する。
// 起動時にPingで到達性を確認し、失敗した場合はエラーを返す。
func NewRedisCache(ctx context.Context, addr, password string, db int, logger *slog.Logger, collector metrics.MetricsCollector) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisCache{
		client:  client,
		logger:  logger,
		metrics: collector,
	}, nil
}

// Close はRedis接続を閉じる。
func (r *RedisCache) Close() error {
	return r.client.Close()
}

// Get はキーに対応する値をdestへJSONデコードする。
func (r *RedisCache) Get(ctx context.Context, key string, dest any) bool {
	val, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			r.logger.Warn("cache get failed", "key", key, "error", err)
		}
		r.metrics.RecordCacheMiss(resourceOf(key))
		return false
	}

	if err := json.Unmarshal(val, dest); err != nil {
		// デコード不能なエントリは破損とみなして除去する
		r.logger.Warn("cache entry corrupted", "key", key, "error", err)
		r.client.Del(ctx, key)
		r.metrics.RecordCacheMiss(resourceOf(key))
		return false
	}

	r.metrics.RecordCacheHit(resourceOf(key))
	return true
}

// GetMany は複数キーの値をMGETで一括取得する。
// 結果はkeysと同じ長さ・同じ順序で、ミスしたキーの位置はnilになる。
func (r *RedisCache) GetMany(ctx context.Context, keys []string) [][]byte {
	results := make([][]byte, len(keys))
	if len(keys) == 0 {
		return results
	}

	vals, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		r.logger.Warn("cache mget failed", "keys", keys, "error", err)
		for _, key := range keys {
			r.metrics.RecordCacheMiss(resourceOf(key))
		}
		return results
	}

	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			r.metrics.RecordCacheMiss(resourceOf(keys[i]))
			continue
		}
		results[i] = []byte(s)
		r.metrics.RecordCacheHit(resourceOf(keys[i]))
	}

	return results
}

// Set は値をJSONエンコードしてTTL付きで保存する。
func (r *RedisCache) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		r.logger.Warn("cache set marshal failed", "key", key, "error", err)
		return
	}

	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		r.logger.Warn("cache set failed", "key", key, "error", err)
	}
}

// Delete は指定されたキーを削除する。
func (r *RedisCache) Delete(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		r.logger.Warn("cache delete failed", "keys", keys, "error", err)
	}
}

// DeleteByPattern はグロブパターンに一致するキーをすべて削除する。
// KEYSではなくSCANを使用し、本番Redisのブロッキングを避ける。
func (r *RedisCache) DeleteByPattern(ctx context.Context, pattern string) {
	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			r.logger.Warn("cache scan failed", "pattern", pattern, "error", err)
			return
		}

		if len(keys) > 0 {
			if err := r.client.Del(ctx, keys...).Err(); err != nil {
				r.logger.Warn("cache delete failed", "pattern", pattern, "error", err)
				return
			}
		}

		cursor = next
		if cursor == 0 {
			return
		}
	}
}

// resourceOf はキーの先頭セグメントをメトリクスのリソースラベルとして返す。
func resourceOf(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return key
}
