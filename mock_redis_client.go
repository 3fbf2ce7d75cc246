package eventx

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// MockRedisClient 是Redis客户端的内存模拟实现，用于测试与示例
type MockRedisClient struct {
	data     map[string]string
	ttls     map[string]time.Duration
	getError error
	setError error
	delError error
	closed   bool
	mu       sync.Mutex
}

// NewMockRedisClient 创建一个新的模拟Redis客户端
func NewMockRedisClient() *MockRedisClient {
	return &MockRedisClient{
		data: make(map[string]string),
		ttls: make(map[string]time.Duration),
	}
}

// Set 设置键值对，value按字符串保存
func (m *MockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.setError != nil {
		return m.setError
	}
	switch v := value.(type) {
	case string:
		m.data[key] = v
	case []byte:
		m.data[key] = string(v)
	default:
		m.data[key] = fmt.Sprint(v)
	}
	m.ttls[key] = expiration
	return nil
}

// Get 获取键对应的值，键不存在时返回 redis.Nil
func (m *MockRedisClient) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.getError != nil {
		return "", m.getError
	}
	value, ok := m.data[key]
	if !ok {
		return "", redis.Nil
	}
	return value, nil
}

// Del 删除键
func (m *MockRedisClient) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.delError != nil {
		return m.delError
	}
	for _, key := range keys {
		delete(m.data, key)
		delete(m.ttls, key)
	}
	return nil
}

// Close 关闭连接
func (m *MockRedisClient) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	return nil
}

// Value 直接读取保存的原始值
func (m *MockRedisClient) Value(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.data[key]
	return v, ok
}

// TTL 返回最后一次Set使用的过期时间
func (m *MockRedisClient) TTL(key string) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.ttls[key]
}

// WithGetError 设置Get操作的错误
func (m *MockRedisClient) WithGetError(err error) *MockRedisClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getError = err
	return m
}

// WithSetError 设置Set操作的错误
func (m *MockRedisClient) WithSetError(err error) *MockRedisClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setError = err
	return m
}

// WithDelError 设置Del操作的错误
func (m *MockRedisClient) WithDelError(err error) *MockRedisClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delError = err
	return m
}
