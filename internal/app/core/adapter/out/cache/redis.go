package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/JoeShih716/go-mem-account/internal/app/core/domain"
	"github.com/JoeShih716/go-mem-account/internal/app/core/usecase"
	"github.com/JoeShih716/go-mem-account/pkg/logger"
)

// RedisCache 以 Redis 保存貸款試算結果 (JSON)
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	log    logrus.FieldLogger
}

// RedisOptions Redis 連線設定
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	// TTL: 0 表示不過期
	TTL time.Duration
}

// NewRedisCache 建立 RedisCache，不會立即連線
func NewRedisCache(opts RedisOptions, log logrus.FieldLogger) *RedisCache {
	if log == nil {
		log = logger.Discard()
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	return &RedisCache{
		client: rdb,
		ttl:    opts.TTL,
		log:    log,
	}
}

// Ping 檢查連線
func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Get 讀取快取；找不到、連線失敗或內容無法解析時都視為未命中
func (r *RedisCache) Get(ctx context.Context, key string) (domain.Quote, bool) {
	val, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.log.WithError(err).WithField("key", key).Warn("redis get failed")
		}
		return domain.Quote{}, false
	}
	var q domain.Quote
	if err := json.Unmarshal(val, &q); err != nil {
		r.log.WithError(err).WithField("key", key).Warn("invalid cached quote")
		return domain.Quote{}, false
	}
	return q, true
}

// Set 寫入快取
func (r *RedisCache) Set(ctx context.Context, key string, quote domain.Quote) error {
	val, err := json.Marshal(quote)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, val, r.ttl).Err()
}

// Close 關閉連線
func (r *RedisCache) Close() error {
	return r.client.Close()
}

var _ usecase.QuoteCache = (*RedisCache)(nil)
