package eventx

// On 注册事件回调
// 相同的(事件, 回调, 所有者)重复注册时忽略并报告警告，返回nil
func (d *Dispatcher) On(event string, handler *Handler, owner Owner) error {
	return d.register(event, handler, owner, false)
}

// Once 注册一次性事件回调，回调触发一次后自动移除
func (d *Dispatcher) Once(event string, handler *Handler, owner Owner) error {
	return d.register(event, handler, owner, true)
}

// Off 注销事件回调
// owner为nil时只移除无所有者的注册，与带所有者的注册互不影响；未找到时静默返回
func (d *Dispatcher) Off(event string, handler *Handler, owner Owner) error {
	if err := validate(event, handler, owner); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if l, ok := d.guard[listenerKey{event: event, handler: handler, owner: owner}]; ok {
		d.removeLocked(l)
		d.refreshGauges()
	}
	return nil
}

// Emit 分发事件
// 分发前对订阅列表做快照：回调中新增的订阅不会收到本轮事件，本轮中被移除的订阅仍会被调用。
// 每个回调的失败被单独捕获并报告，不影响后续回调；一次性订阅无论成功与否在本轮结束后移除
func (d *Dispatcher) Emit(event string, args ...any) {
	if d.closed.Load() {
		return
	}

	d.mu.Lock()
	live := d.events[event]
	if len(live) == 0 {
		d.mu.Unlock()
		return
	}
	snap := globalSnapshotPool.get(live)
	d.mu.Unlock()
	defer globalSnapshotPool.put(snap)

	d.metrics.recordEmit()

	var fired []*listener
	for _, l := range snap.items {
		if l.once {
			// 嵌套的同名Emit可能已经触发过该记录
			d.mu.Lock()
			already := l.fired
			l.fired = true
			d.mu.Unlock()
			if already {
				continue
			}
			fired = append(fired, l)
		}
		d.invoke(event, l, Args(args))
	}

	if len(fired) == 0 {
		return
	}

	d.mu.Lock()
	for _, l := range fired {
		if d.removeLocked(l) {
			d.metrics.recordOnceRemoval()
		}
	}
	d.refreshGauges()
	d.mu.Unlock()
}

// ClearEvent 移除事件的全部订阅
func (d *Dispatcher) ClearEvent(event string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	list, ok := d.events[event]
	if !ok {
		return
	}

	for _, l := range list {
		delete(d.guard, l.key())
		d.releaseOwnerLocked(l)
	}
	d.size -= len(list)
	delete(d.events, event)
	d.refreshGauges()
}

// ClearOwner 移除所有者在全部事件下的订阅
// 组件销毁时必须调用一次，之后该所有者不应再被使用
func (d *Dispatcher) ClearOwner(owner Owner) {
	if owner == nil || !comparableOwner(owner) {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	set, ok := d.owners[owner]
	if !ok {
		return
	}

	for event := range set {
		list := d.events[event]
		kept := list[:0]
		for _, l := range list {
			if l.owner == owner {
				delete(d.guard, l.key())
				d.size--
				continue
			}
			kept = append(kept, l)
		}
		clear(list[len(kept):])

		if len(kept) == 0 {
			delete(d.events, event)
		} else {
			d.events[event] = kept
		}
	}

	delete(d.owners, owner)
	d.metrics.recordOwnerClear()
	d.refreshGauges()
}

// ClearAll 清空全部索引，仅用于进程级的重置
func (d *Dispatcher) ClearAll() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.events = make(map[string][]*listener)
	d.guard = make(map[listenerKey]*listener)
	d.owners = make(map[Owner]map[string]int)
	d.size = 0
	d.refreshGauges()
}

// register 向三个索引中写入订阅记录
func (d *Dispatcher) register(event string, handler *Handler, owner Owner, once bool) error {
	if err := validate(event, handler, owner); err != nil {
		return err
	}

	duplicate, err := d.insert(event, handler, owner, once)
	if err != nil {
		return err
	}
	if duplicate {
		d.metrics.recordDuplicate()
		if d.opts.WarnOnDuplicate {
			d.report(NewDuplicateError(event, handler, once))
		}
	}
	return nil
}

// insert 在锁内写入记录，已存在相同记录时返回true且不做修改
func (d *Dispatcher) insert(event string, handler *Handler, owner Owner, once bool) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed.Load() {
		return false, NewPreconditionError(event, ErrDispatcherClosed)
	}

	key := listenerKey{event: event, handler: handler, owner: owner}
	if _, exists := d.guard[key]; exists {
		return true, nil
	}

	l := &listener{event: event, handler: handler, owner: owner, once: once}
	d.events[event] = append(d.events[event], l)
	d.guard[key] = l
	d.size++
	if owner != nil {
		set, ok := d.owners[owner]
		if !ok {
			set = make(map[string]int)
			d.owners[owner] = set
		}
		set[event]++
	}
	d.refreshGauges()
	return false, nil
}

// removeLocked 从三个索引中移除指定记录，调用方持有锁
// 记录已不在去重索引中（已被移除或被新记录替代）时返回false
func (d *Dispatcher) removeLocked(l *listener) bool {
	key := l.key()
	if d.guard[key] != l {
		return false
	}
	delete(d.guard, key)

	list := d.events[l.event]
	for i, item := range list {
		if item == l {
			last := len(list) - 1
			copy(list[i:], list[i+1:])
			list[last] = nil
			list = list[:last]
			break
		}
	}
	if len(list) == 0 {
		delete(d.events, l.event)
	} else {
		d.events[l.event] = list
	}
	d.size--

	d.releaseOwnerLocked(l)
	return true
}

// releaseOwnerLocked 减少所有者在记录所属事件下的计数，调用方持有锁
func (d *Dispatcher) releaseOwnerLocked(l *listener) {
	if l.owner == nil {
		return
	}
	set, ok := d.owners[l.owner]
	if !ok {
		return
	}
	if set[l.event]--; set[l.event] <= 0 {
		delete(set, l.event)
	}
	if len(set) == 0 {
		delete(d.owners, l.owner)
	}
}

// invoke 调用单个回调并隔离其失败
func (d *Dispatcher) invoke(event string, l *listener, args Args) {
	defer func() {
		if r := recover(); r != nil {
			err := NewCallbackError(event, l.handler, l.owner != nil, nil, r)
			d.metrics.recordFailure(err, true)
			d.report(err)
		}
	}()

	if err := l.handler.fn(args); err != nil {
		cbErr := NewCallbackError(event, l.handler, l.owner != nil, err, nil)
		d.metrics.recordFailure(cbErr, false)
		d.report(cbErr)
		return
	}
	d.metrics.recordDelivery()
}

// validate 检查调用参数
func validate(event string, handler *Handler, owner Owner) error {
	if event == "" {
		return NewPreconditionError(event, ErrEmptyEventName)
	}
	if !handler.valid() {
		return NewPreconditionError(event, ErrNilHandler)
	}
	if !comparableOwner(owner) {
		return NewPreconditionError(event, ErrInvalidOwner)
	}
	return nil
}
