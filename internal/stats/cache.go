// Package stats は終了済みゲームの平均試行回数の統計を提供する。
// 統計は固定キーでキャッシュされ、読み取りは決して再計算を起こさない。
package stats

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// cacheKey は統計文字列を保持する固定のキャッシュキー。
const cacheKey = "pushluck:avg_attempts"

// Cache は統計文字列の保存と参照のインターフェース。
type Cache interface {
	// Read は最後にキャッシュされた統計文字列を返す。
	// 一度も計算されていない場合は空文字列を返す。再計算は行わない。
	Read(ctx context.Context) (string, error)

	// Write は統計文字列を上書き保存する。有効期限は設けない。
	Write(ctx context.Context, value string) error
}

// RedisCache はRedisを使用したCache実装。
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache はRedisCacheを生成する。
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// Read は最後にキャッシュされた統計文字列を返す。未計算の場合は空文字列。
func (c *RedisCache) Read(ctx context.Context) (string, error) {
	value, err := c.client.Get(ctx, cacheKey).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read stats cache: %w", err)
	}
	return value, nil
}

// Write は統計文字列を上書き保存する。次のRefreshまで保持される。
func (c *RedisCache) Write(ctx context.Context, value string) error {
	if err := c.client.Set(ctx, cacheKey, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to write stats cache: %w", err)
	}
	return nil
}

// compile-time interface check
var _ Cache = (*RedisCache)(nil)
