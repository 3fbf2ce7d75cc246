package eventx

import (
	"bytes"
	"encoding/json"
	"errors"
)

// 音频偏好设置的存档键
const (
	KeyPlayAudio  = "is_playAudio"
	KeyStopBgm    = "is_stopBgm"
	KeyStopEffect = "is_stopEffect"
)

var jsonNull = []byte("null")

// SaveData 本地存档服务
// 值以JSON保存在Store中，每次成功写入后通过调度器分发 EventSaveDataChanged
type SaveData struct {
	store      Store
	dispatcher *Dispatcher
	logger     Logger
}

// NewSaveData 创建存档服务，dispatcher可为nil（不分发变更事件）
func NewSaveData(store Store, dispatcher *Dispatcher) *SaveData {
	s := &SaveData{
		store:      store,
		dispatcher: dispatcher,
		logger:     NewDefaultLogger(),
	}
	if dispatcher != nil {
		s.logger = dispatcher.Logger()
	}
	return s
}

// Set 保存值；无法编码为JSON的值保存为null
func (s *SaveData) Set(key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		s.logger.Warn("Save data value not encodable, storing null", "key", key, "error", err)
		data = jsonNull
		value = nil
	}

	if err := s.store.Save(key, data); err != nil {
		return NewStorageError(key, err)
	}

	if s.dispatcher != nil {
		s.dispatcher.Emit(EventSaveDataChanged, key, value)
	}
	return nil
}

// Get 读取值到dst
// 键不存在、值为null或无法解码时返回false且不修改dst，调用方应预先填好默认值
func (s *SaveData) Get(key string, dst any) (bool, error) {
	data, err := s.store.Load(key)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return false, nil
		}
		return false, NewStorageError(key, err)
	}

	if len(data) == 0 || bytes.Equal(bytes.TrimSpace(data), jsonNull) {
		return false, nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		s.logger.Debug("Save data value not decodable, using default", "key", key, "error", err)
		return false, nil
	}
	return true, nil
}

// Delete 删除值
func (s *SaveData) Delete(key string) error {
	if err := s.store.Delete(key); err != nil {
		return NewStorageError(key, err)
	}
	return nil
}

// SetBool 以1/0保存布尔值
func (s *SaveData) SetBool(key string, value bool) error {
	v := 0
	if value {
		v = 1
	}
	return s.Set(key, v)
}

// Bool 读取以1/0保存的布尔值，缺省为false
func (s *SaveData) Bool(key string) bool {
	var v int
	ok, err := s.Get(key, &v)
	if err != nil {
		s.logger.Warn("Failed to read save data", "key", key, "error", err)
		return false
	}
	return ok && v == 1
}

// SetVoiceState 保存是否播放音乐/音效
func (s *SaveData) SetVoiceState(play bool) error {
	return s.SetBool(KeyPlayAudio, play)
}

// VoiceState 是否播放音乐/音效
func (s *SaveData) VoiceState() bool {
	return s.Bool(KeyPlayAudio)
}

// SetStopBgm 保存是否停止背景音乐
func (s *SaveData) SetStopBgm(stop bool) error {
	return s.SetBool(KeyStopBgm, stop)
}

// StopBgm 是否停止背景音乐
func (s *SaveData) StopBgm() bool {
	return s.Bool(KeyStopBgm)
}

// SetStopEffect 保存是否停止音效
func (s *SaveData) SetStopEffect(stop bool) error {
	return s.SetBool(KeyStopEffect, stop)
}

// StopEffect 是否停止音效
func (s *SaveData) StopEffect() bool {
	return s.Bool(KeyStopEffect)
}
