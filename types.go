package eventx

import (
	"math"
	"reflect"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// 默认配置常量
const (
	DefaultDispatcherName    = "default"          // 默认调度器名称
	DefaultSnapshotCapacity  = 8                  // 快照缓冲区初始容量
	MaxPooledSnapshotSize    = 1024               // 超过该容量的快照缓冲区不回收
	DefaultSaveDataKeyPrefix = "eventx:savedata:" // Redis存档键前缀
	DefaultLogMaxSizeMB      = 10                 // 日志文件默认最大尺寸(MB)
	DefaultLogMaxBackups     = 3                  // 日志文件默认保留数量
)

// 内置事件名称
const (
	EventSaveDataChanged = "savedata:changed" // 存档数据已修改，参数: key, value
)

// Owner 订阅者所有者标识
// 只用于相等比较与批量清理，调度器从不调用其方法。必须是可比较的值（指针、ID等），nil表示无所有者
type Owner = any

// Callback 事件回调函数类型
// 返回错误或发生panic均视为回调失败，失败只会被报告，不影响同一轮中的其他回调
type Callback func(args Args) error

// Handler 回调句柄
// 以指针身份参与去重与注销，同一个Handler可以注册到不同事件或不同所有者下
type Handler struct {
	fn   Callback // 回调函数
	name string   // 描述，用于日志
}

// NewHandler 创建回调句柄
func NewHandler(fn Callback) *Handler {
	return &Handler{fn: fn}
}

// NewNamedHandler 创建带描述的回调句柄
func NewNamedHandler(name string, fn Callback) *Handler {
	return &Handler{fn: fn, name: name}
}

// Name 返回回调描述，未设置时使用函数符号名
func (h *Handler) Name() string {
	if h == nil {
		return "<nil>"
	}
	if h.name != "" {
		return h.name
	}
	if h.fn == nil {
		return "<nil>"
	}
	if f := runtime.FuncForPC(reflect.ValueOf(h.fn).Pointer()); f != nil {
		return f.Name()
	}
	return "<unknown>"
}

// Call 直接调用回调
func (h *Handler) Call(args Args) error {
	return h.fn(args)
}

// valid 检查句柄是否可用
func (h *Handler) valid() bool {
	return h != nil && h.fn != nil
}

// Args 事件参数列表
// 同一轮分发中所有回调共享同一个Args，回调不应修改它
type Args []any

// Len 返回参数个数
func (a Args) Len() int {
	return len(a)
}

// At 返回第i个参数，越界时返回nil
func (a Args) At(i int) any {
	if i < 0 || i >= len(a) {
		return nil
	}
	return a[i]
}

// String 读取字符串参数
func (a Args) String(i int) (string, bool) {
	v, ok := a.At(i).(string)
	return v, ok
}

// Bool 读取布尔参数
func (a Args) Bool(i int) (bool, bool) {
	v, ok := a.At(i).(bool)
	return v, ok
}

// Int 读取整数参数，接受所有有符号与无符号整数类型
// 超出int64范围的无符号值返回false
func (a Args) Int(i int) (int64, bool) {
	switch v := a.At(i).(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		if uint64(v) > math.MaxInt64 {
			return 0, false
		}
		return int64(v), true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		if v > math.MaxInt64 {
			return 0, false
		}
		return int64(v), true
	default:
		return 0, false
	}
}

// Float 读取浮点参数，整数会被转换
func (a Args) Float(i int) (float64, bool) {
	switch v := a.At(i).(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint64:
		return float64(v), true
	default:
		if n, ok := a.Int(i); ok {
			return float64(n), true
		}
		return 0, false
	}
}

// listener 订阅记录
type listener struct {
	event   string   // 所属事件名称
	handler *Handler // 回调句柄
	owner   Owner    // 所有者，可为nil
	once    bool     // 是否一次性
	fired   bool     // 一次性记录是否已触发（受调度器锁保护）
}

// listenerKey 去重索引的复合键
type listenerKey struct {
	event   string
	handler *Handler
	owner   Owner
}

func (l *listener) key() listenerKey {
	return listenerKey{event: l.event, handler: l.handler, owner: l.owner}
}

// Dispatcher 事件调度器
// 维护事件表、去重索引与所有者索引三个结构，三者在同一把锁下一起修改
type Dispatcher struct {
	name         string                    // 调度器名称
	events       map[string][]*listener    // 事件表，按注册顺序保存订阅记录
	guard        map[listenerKey]*listener // 去重索引
	owners       map[Owner]map[string]int  // 所有者索引，值为该所有者在各事件下的记录数
	size         int                       // 订阅记录总数
	mu           sync.Mutex                // 保护以上三个索引，回调执行期间不持有
	closed       atomic.Bool               // 是否已关闭
	opts         *Options                  // 配置选项
	logger       Logger                    // 日志记录器
	errorHandler ErrorHandler              // 错误处理器
	reporter     ErrorReporter             // 错误报告器
	metrics      *Metrics                  // 指标收集器
}

// Metrics 指标收集器
type Metrics struct {
	Emits              uint64 // 分发轮数（有订阅者的emit）
	Deliveries         uint64 // 成功执行的回调次数
	Failures           uint64 // 回调失败次数（含panic）
	PanicsRecovered    uint64 // 回调panic次数
	DuplicatesRejected uint64 // 被拒绝的重复注册次数
	OnceRemovals       uint64 // 一次性订阅的自动移除次数
	OwnerClears        uint64 // 所有者批量清理次数
	ActiveListeners    int64  // 当前订阅记录数
	ActiveOwners       int64  // 当前所有者数
	LastEmit           int64  // 最后分发时间(Unix纳秒时间戳，原子操作安全)
	LastFailure        int64  // 最后失败时间(Unix纳秒时间戳，原子操作安全)
	startTime          time.Time
	errorTypes         sync.Map // 按错误类型统计的失败次数
}

// LogOptions 日志配置
type LogOptions struct {
	Level      string // 日志级别: debug/info/warn/error
	File       string // 日志文件路径，为空时输出到slog默认处理器
	MaxSizeMB  int    // 单个日志文件最大尺寸(MB)
	MaxBackups int    // 保留的旧日志文件数量
	MaxAgeDays int    // 旧日志文件保留天数
	Compress   bool   // 是否压缩旧日志
}

// Options 调度器配置选项
type Options struct {
	Name            string        // 调度器名称，出现在日志与指标中
	Logger          Logger        // 日志记录器，为nil时根据Log创建
	ErrorHandler    ErrorHandler  // 回调失败与重复注册的处理器
	Reporter        ErrorReporter // 错误报告器，可为nil
	EnableMetrics   bool          // 是否收集指标
	WarnOnDuplicate bool          // 重复注册时是否输出警告
	Log             *LogOptions   // 日志配置
}

// Store 存档存储接口
type Store interface {
	Save(key string, data []byte) error
	Load(key string) ([]byte, error) // 键不存在时返回 ErrKeyNotFound
	Delete(key string) error
}
