package eventx

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore(t *testing.T) {
	// 创建临时目录
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "save", "data.json")

	// 创建文件存储
	store, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	// 键不存在
	if _, err := store.Load(KeyPlayAudio); err != ErrKeyNotFound {
		t.Errorf("Load missing key: got %v, want %v", err, ErrKeyNotFound)
	}

	// 测试保存
	if err := store.Save(KeyPlayAudio, []byte("1")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Save("player", []byte(`{"name":"bob","level":3}`)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// 验证文件是否创建
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Fatalf("Save data file not created: %s", path)
	}

	// 测试加载
	data, err := store.Load(KeyPlayAudio)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if string(data) != "1" {
		t.Errorf("Load mismatch: got %s, want 1", data)
	}

	// 重新打开后数据仍在
	reopened, err := NewFileStore(path)
	require.NoError(t, err)

	data, err = reopened.Load("player")
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"bob","level":3}`, string(data))
	assert.Equal(t, []string{KeyPlayAudio, "player"}, reopened.Keys())

	// 测试删除
	require.NoError(t, reopened.Delete(KeyPlayAudio))
	require.NoError(t, reopened.Delete("missing"))
	_, err = reopened.Load(KeyPlayAudio)
	assert.ErrorIs(t, err, ErrKeyNotFound)

	// 删除也会持久化
	again, err := NewFileStore(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"player"}, again.Keys())

	// 不残留临时文件
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestFileStoreOverwrite(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "data.json"))
	require.NoError(t, err)

	require.NoError(t, store.Save(KeyStopBgm, []byte("0")))
	require.NoError(t, store.Save(KeyStopBgm, []byte("1")))

	data, err := store.Load(KeyStopBgm)
	require.NoError(t, err)
	assert.Equal(t, "1", string(data))
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0644))

	_, err := NewFileStore(path)
	assert.Error(t, err)
}

func TestFileStoreEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	store, err := NewFileStore(path)
	require.NoError(t, err)
	assert.Empty(t, store.Keys())
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.Load("missing")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	input := []byte("1")
	require.NoError(t, store.Save(KeyStopEffect, input))

	// 保存与读取均复制数据
	input[0] = '0'
	data, err := store.Load(KeyStopEffect)
	require.NoError(t, err)
	assert.Equal(t, "1", string(data))

	data[0] = '9'
	data, err = store.Load(KeyStopEffect)
	require.NoError(t, err)
	assert.Equal(t, "1", string(data))

	require.NoError(t, store.Delete(KeyStopEffect))
	require.NoError(t, store.Delete(KeyStopEffect))
	_, err = store.Load(KeyStopEffect)
	assert.ErrorIs(t, err, ErrKeyNotFound)
}
