package eventx

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore 基于Redis的存档存储
type RedisStore struct {
	client RedisClient
	prefix string
	ttl    time.Duration
}

// RedisClient Redis客户端接口
// 这是一个接口，允许使用不同的Redis客户端实现；键不存在时Get返回 redis.Nil
type RedisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	Close() error
}

// RedisStoreOptions Redis存储选项
type RedisStoreOptions struct {
	Prefix string        // 键前缀
	TTL    time.Duration // 过期时间，0表示永不过期
}

// NewRedisStore 创建新的Redis存储
func NewRedisStore(client RedisClient, opts *RedisStoreOptions) *RedisStore {
	if opts == nil {
		opts = &RedisStoreOptions{
			Prefix: DefaultSaveDataKeyPrefix,
		}
	}

	prefix := opts.Prefix
	if prefix == "" {
		prefix = DefaultSaveDataKeyPrefix
	}

	ttl := opts.TTL
	if ttl < 0 {
		ttl = 0
	}

	return &RedisStore{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

// Save 保存数据
func (s *RedisStore) Save(key string, data []byte) error {
	ctx := context.Background()
	if err := s.client.Set(ctx, s.prefix+key, string(data), s.ttl); err != nil {
		return wrapError(err, "failed to save data to redis")
	}
	return nil
}

// Load 加载数据
func (s *RedisStore) Load(key string) ([]byte, error) {
	ctx := context.Background()

	data, err := s.client.Get(ctx, s.prefix+key)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrKeyNotFound
		}
		return nil, wrapError(err, "failed to get data from redis")
	}

	return []byte(data), nil
}

// Delete 删除数据
func (s *RedisStore) Delete(key string) error {
	ctx := context.Background()

	if err := s.client.Del(ctx, s.prefix+key); err != nil {
		return wrapError(err, "failed to delete data from redis")
	}

	return nil
}

// Close 关闭Redis连接
func (s *RedisStore) Close() error {
	return s.client.Close()
}
