package eventx

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// FileStore 基于单个JSON文件的存档存储
// 键中的"."会被解析为层级，同一前缀下不要同时保存叶子值与子键
type FileStore struct {
	path string
	k    *koanf.Koanf
	mu   sync.RWMutex
}

// NewFileStore 创建新的文件存储，文件不存在时在首次写入时创建
func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	s := &FileStore{
		path: path,
		k:    koanf.New("."),
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, wrapError(err, "failed to read save data file")
	}
	if len(raw) > 0 {
		if err := s.k.Load(rawbytes.Provider(raw), json.Parser()); err != nil {
			return nil, wrapError(err, "failed to parse save data file")
		}
	}

	return s, nil
}

// Save 保存数据
func (s *FileStore) Save(key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.k.Set(key, string(data)); err != nil {
		return wrapError(err, "failed to set save data")
	}
	return s.flush()
}

// Load 加载数据
func (s *FileStore) Load(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.k.Exists(key) {
		return nil, ErrKeyNotFound
	}
	return []byte(s.k.String(key)), nil
}

// Delete 删除数据
func (s *FileStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.k.Exists(key) {
		return nil
	}
	s.k.Delete(key)
	return s.flush()
}

// Keys 返回全部存档键
func (s *FileStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.k.Keys()
}

// flush 先写临时文件再重命名，避免写入中断导致文件损坏；调用方持有写锁
func (s *FileStore) flush() error {
	data, err := s.k.Marshal(json.Parser())
	if err != nil {
		return wrapError(err, "failed to marshal save data")
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return wrapError(err, "failed to write save data")
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return wrapError(err, "failed to replace save data file")
	}

	return nil
}

// MemoryStore 基于内存的存档存储
type MemoryStore struct {
	data map[string][]byte
	mu   sync.RWMutex
}

// NewMemoryStore 创建新的内存存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string][]byte),
	}
}

// Save 保存数据
func (s *MemoryStore) Save(key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf := make([]byte, len(data))
	copy(buf, data)
	s.data[key] = buf
	return nil
}

// Load 加载数据
func (s *MemoryStore) Load(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.data[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	return buf, nil
}

// Delete 删除数据
func (s *MemoryStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, key)
	return nil
}
