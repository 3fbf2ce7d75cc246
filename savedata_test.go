package eventx

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type playerProfile struct {
	Name  string `json:"name"`
	Level int    `json:"level"`
}

func TestSaveDataSetGet(t *testing.T) {
	d, _ := newTestDispatcher(t)
	save := NewSaveData(NewMemoryStore(), d)

	require.NoError(t, save.Set("profile", playerProfile{Name: "bob", Level: 3}))

	var got playerProfile
	ok, err := save.Get("profile", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, playerProfile{Name: "bob", Level: 3}, got)

	// 键不存在时保留默认值
	fallback := playerProfile{Name: "guest"}
	ok, err = save.Get("missing", &fallback)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "guest", fallback.Name)

	require.NoError(t, save.Delete("profile"))
	ok, err = save.Get("profile", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSaveDataNullAndUndecodable(t *testing.T) {
	store := NewMemoryStore()
	save := NewSaveData(store, nil)

	require.NoError(t, store.Save("null", []byte("null")))
	require.NoError(t, store.Save("garbage", []byte("not json")))
	require.NoError(t, store.Save("empty", nil))

	for _, key := range []string{"null", "garbage", "empty"} {
		v := 7
		ok, err := save.Get(key, &v)
		require.NoError(t, err, key)
		assert.False(t, ok, key)
		assert.Equal(t, 7, v, key)
	}
}

func TestSaveDataUnencodableValue(t *testing.T) {
	d, _ := newTestDispatcher(t)
	store := NewMemoryStore()
	save := NewSaveData(store, d)

	var changed []Args
	require.NoError(t, d.On(EventSaveDataChanged, NewHandler(func(args Args) error {
		changed = append(changed, args)
		return nil
	}), nil))

	// 无法编码的值保存为null
	require.NoError(t, save.Set("ch", make(chan int)))

	raw, err := store.Load("ch")
	require.NoError(t, err)
	assert.Equal(t, "null", string(raw))

	require.Len(t, changed, 1)
	assert.Equal(t, Args{"ch", nil}, changed[0])
}

func TestSaveDataEmitsChange(t *testing.T) {
	d, _ := newTestDispatcher(t)
	save := NewSaveData(NewMemoryStore(), d)
	scope := NewScope(d)
	defer scope.Close()

	var keys []string
	var values []any
	require.NoError(t, scope.On(EventSaveDataChanged, NewHandler(func(args Args) error {
		key, _ := args.String(0)
		keys = append(keys, key)
		values = append(values, args.At(1))
		return nil
	})))

	require.NoError(t, save.SetStopBgm(true))
	require.NoError(t, save.Set("score", 120))

	assert.Equal(t, []string{KeyStopBgm, "score"}, keys)
	assert.Equal(t, []any{1, 120}, values)
}

func TestSaveDataStorageErrors(t *testing.T) {
	d, _ := newTestDispatcher(t)
	errSet := errors.New("set refused")
	errGet := errors.New("get refused")
	client := NewMockRedisClient().WithSetError(errSet).WithGetError(errGet)
	save := NewSaveData(NewRedisStore(client, nil), d)

	emitted := false
	require.NoError(t, d.On(EventSaveDataChanged, NewHandler(func(Args) error {
		emitted = true
		return nil
	}), nil))

	// 写入失败不分发变更事件
	err := save.Set(KeyPlayAudio, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStorageFailure)
	assert.ErrorIs(t, err, errSet)
	assert.Equal(t, TypeStorage, GetErrorType(err))
	assert.False(t, emitted)

	var v int
	ok, err := save.Get(KeyPlayAudio, &v)
	assert.False(t, ok)
	assert.ErrorIs(t, err, errGet)

	// 读取失败时布尔值取默认值
	assert.False(t, save.VoiceState())
}

func TestSaveDataAudioSettings(t *testing.T) {
	store := NewMemoryStore()
	save := NewSaveData(store, nil)

	// 默认值均为false
	assert.False(t, save.VoiceState())
	assert.False(t, save.StopBgm())
	assert.False(t, save.StopEffect())

	require.NoError(t, save.SetVoiceState(true))
	require.NoError(t, save.SetStopBgm(true))
	require.NoError(t, save.SetStopEffect(false))

	assert.True(t, save.VoiceState())
	assert.True(t, save.StopBgm())
	assert.False(t, save.StopEffect())

	// 以1/0保存
	raw, err := store.Load(KeyPlayAudio)
	require.NoError(t, err)
	assert.Equal(t, "1", string(raw))
	raw, err = store.Load(KeyStopEffect)
	require.NoError(t, err)
	assert.Equal(t, "0", string(raw))

	require.NoError(t, save.SetVoiceState(false))
	assert.False(t, save.VoiceState())
}

func TestSaveDataFileStorePersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "save.json")

	store, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, NewSaveData(store, nil).SetStopEffect(true))

	reopened, err := NewFileStore(path)
	require.NoError(t, err)
	save := NewSaveData(reopened, nil)
	assert.True(t, save.StopEffect())
	assert.False(t, save.StopBgm())
}
