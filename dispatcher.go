package eventx

import (
	"context"
	"reflect"
	"slices"
)

// NewDispatcher 创建新的事件调度器
// opts为nil时使用默认选项；调度器不再需要时应调用Close
func NewDispatcher(opts *Options) (*Dispatcher, error) {
	if opts == nil {
		opts = DefaultOptions()
	} else {
		opts = opts.Clone()
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	logger, err := opts.buildLogger()
	if err != nil {
		return nil, err
	}

	d := &Dispatcher{
		name:     opts.Name,
		events:   make(map[string][]*listener),
		guard:    make(map[listenerKey]*listener),
		owners:   make(map[Owner]map[string]int),
		opts:     opts,
		logger:   logger,
		reporter: opts.Reporter,
	}

	d.errorHandler = opts.ErrorHandler
	if d.errorHandler == nil {
		d.errorHandler = NewDefaultErrorHandler(logger)
	}
	if opts.EnableMetrics {
		d.metrics = newMetrics()
	}

	d.logger.Debug("Dispatcher created", "dispatcher", d.name)
	return d, nil
}

// Name 返回调度器名称
func (d *Dispatcher) Name() string {
	return d.name
}

// Logger 返回调度器使用的日志记录器
func (d *Dispatcher) Logger() Logger {
	return d.logger
}

// Close 关闭调度器并清空所有订阅
// 关闭后注册返回 ErrDispatcherClosed，Emit不再分发
func (d *Dispatcher) Close() {
	if d.closed.Swap(true) {
		return
	}
	d.ClearAll()
	d.logger.Debug("Dispatcher closed", "dispatcher", d.name)
}

// IsClosed 判断调度器是否已关闭
func (d *Dispatcher) IsClosed() bool {
	return d.closed.Load()
}

// Has 判断事件是否有订阅者
func (d *Dispatcher) Has(event string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	return len(d.events[event]) > 0
}

// ListenerCount 返回事件的订阅记录数
func (d *Dispatcher) ListenerCount(event string) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return len(d.events[event])
}

// Events 返回当前有订阅者的事件名称（已排序）
func (d *Dispatcher) Events() []string {
	d.mu.Lock()
	names := make([]string, 0, len(d.events))
	for name := range d.events {
		names = append(names, name)
	}
	d.mu.Unlock()

	slices.Sort(names)
	return names
}

// OwnerEvents 返回所有者当前订阅的事件名称（已排序）
func (d *Dispatcher) OwnerEvents(owner Owner) []string {
	if !comparableOwner(owner) || owner == nil {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	set := d.owners[owner]
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// OwnerCount 返回当前持有订阅的所有者数量
func (d *Dispatcher) OwnerCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return len(d.owners)
}

// ListenerCounts 返回每个事件的订阅记录数
func (d *Dispatcher) ListenerCounts() map[string]int {
	d.mu.Lock()
	defer d.mu.Unlock()

	counts := make(map[string]int, len(d.events))
	for name, list := range d.events {
		counts[name] = len(list)
	}
	return counts
}

// GetMetrics 获取指标信息，未启用指标时返回空表
func (d *Dispatcher) GetMetrics() map[string]interface{} {
	return d.metrics.getSnapshot()
}

// report 将错误交给报告器与错误处理器
func (d *Dispatcher) report(err error) {
	if d.reporter != nil {
		d.reporter.ReportError(err)
	}
	d.errorHandler.HandleError(context.Background(), err)
}

// refreshGauges 更新指标中的订阅数量，调用方持有锁
func (d *Dispatcher) refreshGauges() {
	d.metrics.setGauges(d.size, len(d.owners))
}

// comparableOwner 判断所有者能否作为索引键
// 类型可比较的值仍可能在接口字段中持有切片等不可哈希的值，需实际哈希一次
func comparableOwner(owner Owner) (ok bool) {
	if owner == nil {
		return true
	}
	if !reflect.TypeOf(owner).Comparable() {
		return false
	}

	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	probe := make(map[Owner]struct{}, 1)
	probe[owner] = struct{}{}
	return len(probe) == 1
}
