package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// 持有者一致才删除
var releaseScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	else
		return 0
	end
`)

// RedisConfig Redis 锁配置
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// RedisLocker 分布式锁 (多实例部署)
type RedisLocker struct {
	client    *redis.Client
	keyPrefix string
}

var _ Locker = (*RedisLocker)(nil)

// NewRedisLocker 创建 Redis 锁并检查连通性
func NewRedisLocker(cfg RedisConfig) (*RedisLocker, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     10,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("连接 Redis 失败: %w", err)
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "igdb-mirror:lock"
	}
	return &RedisLocker{client: client, keyPrefix: prefix}, nil
}

func (l *RedisLocker) key(key string) string {
	return l.keyPrefix + ":" + key
}

func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	owner := uuid.NewString()
	fullKey := l.key(key)

	ok, err := l.client.SetNX(ctx, fullKey, owner, ttl).Result()
	if err != nil {
		return func() {}, false, err
	}
	if !ok {
		return func() {}, false, nil
	}

	release := func() {
		// 释放不跟随调用方 ctx，避免取消后锁残留到 ttl
		rctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := releaseScript.Run(rctx, l.client, []string{fullKey}, owner).Err(); err != nil {
			zap.S().Warnf("[Lock] 释放锁失败 key=%s: %v", fullKey, err)
		}
	}
	return release, true, nil
}

func (l *RedisLocker) Held(ctx context.Context, key string) (bool, error) {
	n, err := l.client.Exists(ctx, l.key(key)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Close 关闭连接
func (l *RedisLocker) Close() error {
	return l.client.Close()
}
