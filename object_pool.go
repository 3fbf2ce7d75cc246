package eventx

import (
	"sync"
	"sync/atomic"
)

// snapshot 一轮分发使用的订阅记录快照
type snapshot struct {
	items []*listener
}

// reset 清空快照，释放对订阅记录的引用
func (s *snapshot) reset() {
	clear(s.items)
	s.items = s.items[:0]
}

// SnapshotPool 快照缓冲区对象池，减少每次Emit的内存分配
type SnapshotPool struct {
	pool   sync.Pool
	gets   uint64
	puts   uint64
	drops  uint64
	maxCap int
}

// NewSnapshotPool 创建快照缓冲区对象池
func NewSnapshotPool(initialCap, maxCap int) *SnapshotPool {
	if initialCap <= 0 {
		initialCap = DefaultSnapshotCapacity
	}
	if maxCap < initialCap {
		maxCap = MaxPooledSnapshotSize
	}
	p := &SnapshotPool{maxCap: maxCap}
	p.pool.New = func() interface{} {
		return &snapshot{items: make([]*listener, 0, initialCap)}
	}
	return p
}

// 全局快照池实例
var globalSnapshotPool = NewSnapshotPool(DefaultSnapshotCapacity, MaxPooledSnapshotSize)

// get 从池中获取快照并复制live中的记录
func (p *SnapshotPool) get(live []*listener) *snapshot {
	atomic.AddUint64(&p.gets, 1)
	s := p.pool.Get().(*snapshot)
	s.items = append(s.items[:0], live...)
	return s
}

// put 将快照返回池中，容量过大的缓冲区直接丢弃
func (p *SnapshotPool) put(s *snapshot) {
	if s == nil {
		return
	}
	s.reset()
	if cap(s.items) > p.maxCap {
		atomic.AddUint64(&p.drops, 1)
		return
	}
	atomic.AddUint64(&p.puts, 1)
	p.pool.Put(s)
}

// Stats 获取对象池统计
func (p *SnapshotPool) Stats() map[string]uint64 {
	return map[string]uint64{
		"gets":  atomic.LoadUint64(&p.gets),
		"puts":  atomic.LoadUint64(&p.puts),
		"drops": atomic.LoadUint64(&p.drops),
	}
}
