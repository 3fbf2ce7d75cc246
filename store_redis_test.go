package eventx

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStore(t *testing.T) {
	client := NewMockRedisClient()
	store := NewRedisStore(client, &RedisStoreOptions{
		Prefix: "test:",
		TTL:    time.Hour,
	})

	// 测试保存
	require.NoError(t, store.Save(KeyPlayAudio, []byte("1")))

	raw, ok := client.Value("test:" + KeyPlayAudio)
	require.True(t, ok)
	assert.Equal(t, "1", raw)
	assert.Equal(t, time.Hour, client.TTL("test:"+KeyPlayAudio))

	// 测试加载
	data, err := store.Load(KeyPlayAudio)
	require.NoError(t, err)
	assert.Equal(t, "1", string(data))

	// 测试删除
	require.NoError(t, store.Delete(KeyPlayAudio))
	_, err = store.Load(KeyPlayAudio)
	assert.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, store.Close())
}

func TestRedisStoreDefaults(t *testing.T) {
	client := NewMockRedisClient()

	store := NewRedisStore(client, nil)
	require.NoError(t, store.Save("k", []byte("v")))
	_, ok := client.Value(DefaultSaveDataKeyPrefix + "k")
	assert.True(t, ok)
	assert.Equal(t, time.Duration(0), client.TTL(DefaultSaveDataKeyPrefix+"k"))

	// 负数TTL视为永不过期
	store = NewRedisStore(client, &RedisStoreOptions{TTL: -time.Second})
	assert.Equal(t, DefaultSaveDataKeyPrefix, store.prefix)
	assert.Equal(t, time.Duration(0), store.ttl)
}

func TestRedisStoreErrors(t *testing.T) {
	errSet := errors.New("set refused")
	errGet := errors.New("get refused")
	errDel := errors.New("del refused")

	client := NewMockRedisClient().
		WithSetError(errSet).
		WithGetError(errGet).
		WithDelError(errDel)
	store := NewRedisStore(client, nil)

	err := store.Save("k", []byte("v"))
	assert.ErrorIs(t, err, errSet)
	assert.Contains(t, err.Error(), "failed to save data to redis")

	_, err = store.Load("k")
	assert.ErrorIs(t, err, errGet)
	assert.NotErrorIs(t, err, ErrKeyNotFound)

	err = store.Delete("k")
	assert.ErrorIs(t, err, errDel)
}
