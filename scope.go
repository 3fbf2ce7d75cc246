package eventx

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/multierr"
)

// Scope 组件侧的订阅作用域
// Scope自身作为所有者注册订阅，Close时恰好调用一次ClearOwner，再按后进先出顺序执行Defer登记的清理函数
type Scope struct {
	id         uuid.UUID
	dispatcher *Dispatcher
	cleanups   []func() error
	closed     bool
	mu         sync.Mutex
}

// NewScope 创建绑定到调度器的作用域
func NewScope(d *Dispatcher) *Scope {
	return &Scope{
		id:         uuid.New(),
		dispatcher: d,
	}
}

// ID 返回作用域标识
func (s *Scope) ID() uuid.UUID {
	return s.id
}

// String 返回作用域描述
func (s *Scope) String() string {
	return "scope-" + s.id.String()
}

// Dispatcher 返回作用域绑定的调度器
func (s *Scope) Dispatcher() *Dispatcher {
	return s.dispatcher
}

// On 以作用域为所有者注册事件回调
func (s *Scope) On(event string, handler *Handler) error {
	return s.register(event, handler, s.dispatcher.On)
}

// Once 以作用域为所有者注册一次性事件回调
func (s *Scope) Once(event string, handler *Handler) error {
	return s.register(event, handler, s.dispatcher.Once)
}

// register 持有作用域锁完成注册，Close只能发生在注册之前或之后
func (s *Scope) register(event string, handler *Handler, fn func(string, *Handler, Owner) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return NewPreconditionError(event, ErrScopeClosed)
	}
	return fn(event, handler, s)
}

// Off 注销作用域下的事件回调
func (s *Scope) Off(event string, handler *Handler) error {
	return s.dispatcher.Off(event, handler, s)
}

// Emit 通过绑定的调度器分发事件
func (s *Scope) Emit(event string, args ...any) {
	s.dispatcher.Emit(event, args...)
}

// Events 返回作用域当前订阅的事件
func (s *Scope) Events() []string {
	return s.dispatcher.OwnerEvents(s)
}

// Defer 登记关闭时执行的清理函数
// 作用域已关闭时立即执行并返回其错误
func (s *Scope) Defer(fn func() error) error {
	if fn == nil {
		return nil
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return fn()
	}
	s.cleanups = append(s.cleanups, fn)
	s.mu.Unlock()
	return nil
}

// IsClosed 判断作用域是否已关闭
func (s *Scope) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close 释放作用域持有的全部订阅并执行清理函数，重复调用无副作用
// 清理函数的panic会被捕获为错误，保证订阅总能被释放
func (s *Scope) Close() (err error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	cleanups := s.cleanups
	s.cleanups = nil
	s.mu.Unlock()

	s.dispatcher.ClearOwner(s)

	for i := len(cleanups) - 1; i >= 0; i-- {
		err = multierr.Append(err, runCleanup(cleanups[i]))
	}
	return err
}

// runCleanup 执行单个清理函数并把panic转换为错误
func runCleanup(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = NewError(TypeInternal, SeverityError, "scope cleanup panicked").WithContext("panic", r)
		}
	}()
	return fn()
}
