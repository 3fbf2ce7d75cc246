package eventx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"
)

func TestModuleLifecycle(t *testing.T) {
	var d *Dispatcher
	opts := DefaultOptions().WithName("fx").WithLogger(NewZapLogger(zap.NewNop()))

	app := fxtest.New(t,
		Module(opts),
		fx.Populate(&d),
	)
	app.RequireStart()

	require.NotNil(t, d)
	assert.Equal(t, "fx", d.Name())
	assert.False(t, d.IsClosed())

	require.NoError(t, d.On("tick", NewHandler(func(Args) error { return nil }), nil))

	// 应用停止时关闭调度器
	app.RequireStop()
	assert.True(t, d.IsClosed())
	assert.False(t, d.Has("tick"))
}

func TestModuleInvalidOptions(t *testing.T) {
	app := fx.New(
		fx.NopLogger,
		Module(DefaultOptions().WithLogLevel("bogus")),
	)
	require.Error(t, app.Err())
	assert.Contains(t, app.Err().Error(), "invalid log level")
}
