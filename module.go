package eventx

import (
	"context"

	"go.uber.org/fx"
)

// Result Fx 模块输出结果
type Result struct {
	fx.Out

	Dispatcher *Dispatcher
}

// Module 返回 Fx 模块
// 调度器随应用启动创建，应用停止时关闭
func Module(opts *Options) fx.Option {
	return fx.Module("eventx",
		fx.Provide(func() (Result, error) {
			d, err := NewDispatcher(opts)
			if err != nil {
				return Result{}, err
			}
			return Result{Dispatcher: d}, nil
		}),
		fx.Invoke(registerLifecycle),
	)
}

// lifecycleInput 生命周期输入参数
type lifecycleInput struct {
	fx.In
	LC         fx.Lifecycle
	Dispatcher *Dispatcher
}

// registerLifecycle 注册生命周期
func registerLifecycle(input lifecycleInput) {
	input.LC.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			input.Dispatcher.Logger().Info("Dispatcher started", "dispatcher", input.Dispatcher.Name())
			return nil
		},
		OnStop: func(_ context.Context) error {
			input.Dispatcher.Close()
			return nil
		},
	})
}
