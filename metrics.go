package eventx

import (
	"fmt"
	"sync/atomic"
	"time"
)

// newMetrics 创建新的指标收集器
func newMetrics() *Metrics {
	return &Metrics{
		startTime: time.Now(),
	}
}

// recordEmit 记录一轮分发
func (m *Metrics) recordEmit() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.Emits, 1)
	atomic.StoreInt64(&m.LastEmit, time.Now().UnixNano())
}

// recordDelivery 记录一次成功的回调
func (m *Metrics) recordDelivery() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.Deliveries, 1)
}

// recordFailure 记录一次回调失败
func (m *Metrics) recordFailure(err error, panicked bool) {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.Failures, 1)
	atomic.StoreInt64(&m.LastFailure, time.Now().UnixNano())
	if panicked {
		atomic.AddUint64(&m.PanicsRecovered, 1)
	}

	code := GetErrorCode(err)
	if code == "" {
		code = "unknown"
	}
	counter, _ := m.errorTypes.LoadOrStore(code, new(uint64))
	atomic.AddUint64(counter.(*uint64), 1)
}

// recordDuplicate 记录被拒绝的重复注册
func (m *Metrics) recordDuplicate() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.DuplicatesRejected, 1)
}

// recordOnceRemoval 记录一次性订阅的自动移除
func (m *Metrics) recordOnceRemoval() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.OnceRemovals, 1)
}

// recordOwnerClear 记录所有者批量清理
func (m *Metrics) recordOwnerClear() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.OwnerClears, 1)
}

// setGauges 更新订阅记录数与所有者数
func (m *Metrics) setGauges(listeners, owners int) {
	if m == nil {
		return
	}
	atomic.StoreInt64(&m.ActiveListeners, int64(listeners))
	atomic.StoreInt64(&m.ActiveOwners, int64(owners))
}

// getSnapshot 获取指标快照，返回格式化的指标信息
func (m *Metrics) getSnapshot() map[string]interface{} {
	if m == nil {
		return map[string]interface{}{}
	}

	errorStats := make(map[string]uint64)
	m.errorTypes.Range(func(key, value interface{}) bool {
		errorStats[key.(string)] = atomic.LoadUint64(value.(*uint64))
		return true
	})

	emits := atomic.LoadUint64(&m.Emits)

	return map[string]interface{}{
		"emits":               emits,
		"deliveries":          atomic.LoadUint64(&m.Deliveries),
		"failures":            atomic.LoadUint64(&m.Failures),
		"panics_recovered":    atomic.LoadUint64(&m.PanicsRecovered),
		"duplicates_rejected": atomic.LoadUint64(&m.DuplicatesRejected),
		"once_removals":       atomic.LoadUint64(&m.OnceRemovals),
		"owner_clears":        atomic.LoadUint64(&m.OwnerClears),
		"active_listeners":    atomic.LoadInt64(&m.ActiveListeners),
		"active_owners":       atomic.LoadInt64(&m.ActiveOwners),
		"error_types":         errorStats,
		"last_emit":           formatUnixNano(atomic.LoadInt64(&m.LastEmit)),
		"last_failure":        formatUnixNano(atomic.LoadInt64(&m.LastFailure)),
		"uptime":              time.Since(m.startTime).String(),
		"emit_rate":           calculateRate(emits, m.startTime),
	}
}

// formatUnixNano 格式化纳秒时间戳，0表示从未发生
func formatUnixNano(ts int64) string {
	if ts == 0 {
		return ""
	}
	return time.Unix(0, ts).Format(time.RFC3339)
}

// calculateRate 计算每秒速率
func calculateRate(count uint64, since time.Time) string {
	duration := time.Since(since).Seconds()
	if duration == 0 {
		return "0/s"
	}
	rate := float64(count) / duration
	return fmt.Sprintf("%.2f/s", rate)
}
