package eventx

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// 基础错误定义
var (
	ErrEmptyEventName    = errors.New("event name is empty")
	ErrNilHandler        = errors.New("handler is nil")
	ErrInvalidOwner      = errors.New("owner is not comparable")
	ErrDuplicateListener = errors.New("listener already registered")
	ErrDispatcherClosed  = errors.New("dispatcher closed")
	ErrScopeClosed       = errors.New("scope closed")
	ErrCallbackFailed    = errors.New("callback failed")
	ErrCallbackPanic     = errors.New("callback panicked")
	ErrInvalidOptions    = errors.New("invalid options")
	ErrInvalidConfig     = errors.New("invalid configuration")
	ErrStorageFailure    = errors.New("storage operation failed")
	ErrKeyNotFound       = errors.New("key not found")
)

// ErrorSeverity 错误严重程度
type ErrorSeverity string

const (
	SeverityInfo     ErrorSeverity = "info"     // 信息级别（可忽略）
	SeverityWarning  ErrorSeverity = "warning"  // 警告级别（需关注）
	SeverityError    ErrorSeverity = "error"    // 错误级别（需处理）
	SeverityCritical ErrorSeverity = "critical" // 严重级别（需立即处理）
)

// ErrorType 错误类型
type ErrorType string

const (
	TypeRegistration  ErrorType = "registration"  // 注册/注销相关错误
	TypeDispatch      ErrorType = "dispatch"      // 分发过程中的回调错误
	TypeConfiguration ErrorType = "configuration" // 配置相关错误
	TypeStorage       ErrorType = "storage"       // 存储相关错误
	TypeInternal      ErrorType = "internal"      // 内部错误
)

// 错误代码
const (
	CodePrecondition = "precondition" // 调用参数不合法
	CodeDuplicate    = "duplicate"    // 重复注册
	CodeCallback     = "callback"     // 回调返回错误
	CodePanic        = "panic"        // 回调panic
)

// EventError 统一的错误结构
type EventError struct {
	Type      ErrorType      `json:"type"`              // 错误类型
	Severity  ErrorSeverity  `json:"severity"`          // 错误严重程度
	Code      string         `json:"code,omitempty"`    // 错误代码
	Message   string         `json:"message"`           // 错误消息
	Event     string         `json:"event,omitempty"`   // 相关事件
	Key       string         `json:"key,omitempty"`     // 相关存档键
	Timestamp time.Time      `json:"timestamp"`         // 错误发生时间
	Context   map[string]any `json:"context,omitempty"` // 额外上下文信息
	Cause     error          `json:"-"`                 // 底层原因（不序列化）
}

// Error 实现error接口
func (e *EventError) Error() string {
	var parts []string

	if e.Event != "" {
		parts = append(parts, fmt.Sprintf("event=%s", e.Event))
	}
	if e.Key != "" {
		parts = append(parts, fmt.Sprintf("key=%s", e.Key))
	}
	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("code=%s", e.Code))
	}

	contextStr := ""
	if len(parts) > 0 {
		contextStr = " (" + strings.Join(parts, ", ") + ")"
	}

	message := fmt.Sprintf("[%s:%s] %s%s", e.Type, e.Severity, e.Message, contextStr)

	if e.Cause != nil {
		message += ": " + e.Cause.Error()
	}

	return message
}

// Unwrap 返回底层错误
func (e *EventError) Unwrap() error {
	return e.Cause
}

// Is 检查错误类型
func (e *EventError) Is(target error) bool {
	if t, ok := target.(*EventError); ok {
		return e.Type == t.Type && e.Code == t.Code
	}
	return errors.Is(e.Cause, target)
}

// WithContext 添加上下文信息
func (e *EventError) WithContext(key string, value any) *EventError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// WithEvent 设置相关事件
func (e *EventError) WithEvent(event string) *EventError {
	e.Event = event
	return e
}

// WithKey 设置相关存档键
func (e *EventError) WithKey(key string) *EventError {
	e.Key = key
	return e
}

// IsCritical 判断是否为严重错误
func (e *EventError) IsCritical() bool {
	return e.Severity == SeverityCritical
}

// IsRecoverable 判断是否为可恢复错误
func (e *EventError) IsRecoverable() bool {
	return e.Severity == SeverityInfo || e.Severity == SeverityWarning
}

// NewError 创建新的错误
func NewError(errType ErrorType, severity ErrorSeverity, message string) *EventError {
	return &EventError{
		Type:      errType,
		Severity:  severity,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// NewPreconditionError 创建参数校验错误，直接返回给调用方
func NewPreconditionError(event string, cause error) *EventError {
	return &EventError{
		Type:      TypeRegistration,
		Severity:  SeverityError,
		Code:      CodePrecondition,
		Message:   "invalid argument",
		Event:     event,
		Cause:     cause,
		Timestamp: time.Now(),
	}
}

// NewDuplicateError 创建重复注册错误，只报告不返回
func NewDuplicateError(event string, handler *Handler, once bool) *EventError {
	err := &EventError{
		Type:      TypeRegistration,
		Severity:  SeverityWarning,
		Code:      CodeDuplicate,
		Message:   "duplicate registration ignored",
		Event:     event,
		Cause:     ErrDuplicateListener,
		Timestamp: time.Now(),
	}
	return err.WithContext("handler", handler.Name()).WithContext("once", once)
}

// NewCallbackError 创建回调失败错误
// cause为回调返回的错误；recovered非nil时表示回调发生了panic
func NewCallbackError(event string, handler *Handler, owned bool, cause error, recovered any) *EventError {
	err := &EventError{
		Type:      TypeDispatch,
		Severity:  SeverityError,
		Code:      CodeCallback,
		Message:   "callback failed",
		Event:     event,
		Timestamp: time.Now(),
	}
	if recovered != nil {
		err.Code = CodePanic
		err.Message = "callback panicked"
		err.Cause = fmt.Errorf("%w: %v", ErrCallbackPanic, recovered)
		err.WithContext("panic", recovered)
	} else {
		err.Cause = fmt.Errorf("%w: %w", ErrCallbackFailed, cause)
	}
	return err.WithContext("handler", handler.Name()).WithContext("owned", owned)
}

// NewConfigError 创建配置错误
func NewConfigError(message string, cause error) *EventError {
	return &EventError{
		Type:      TypeConfiguration,
		Severity:  SeverityCritical,
		Message:   message,
		Cause:     cause,
		Timestamp: time.Now(),
	}
}

// NewStorageError 创建存储错误
func NewStorageError(key string, cause error) *EventError {
	return &EventError{
		Type:      TypeStorage,
		Severity:  SeverityError,
		Message:   "save data operation failed",
		Key:       key,
		Cause:     fmt.Errorf("%w: %w", ErrStorageFailure, cause),
		Timestamp: time.Now(),
	}
}

// wrapError 用指定的格式封装错误
func wrapError(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// ValidationErrors 配置验证错误集合
type ValidationErrors struct {
	Errors []error `json:"errors"`
}

func (ve *ValidationErrors) Error() string {
	if len(ve.Errors) == 0 {
		return "no validation errors"
	}
	if len(ve.Errors) == 1 {
		return fmt.Sprintf("validation error: %v", ve.Errors[0])
	}

	var messages []string
	for i, err := range ve.Errors {
		messages = append(messages, fmt.Sprintf("%d. %v", i+1, err))
	}
	return fmt.Sprintf("validation errors:\n%s", strings.Join(messages, "\n"))
}

func (ve *ValidationErrors) Unwrap() []error {
	return ve.Errors
}

func (ve *ValidationErrors) Add(err error) {
	if err != nil {
		ve.Errors = append(ve.Errors, err)
	}
}

func (ve *ValidationErrors) HasErrors() bool {
	return len(ve.Errors) > 0
}

// NewValidationErrors 创建验证错误集合
func NewValidationErrors() *ValidationErrors {
	return &ValidationErrors{
		Errors: make([]error, 0),
	}
}

// IsPrecondition 判断是否为调用参数错误
func IsPrecondition(err error) bool {
	return errors.Is(err, ErrEmptyEventName) ||
		errors.Is(err, ErrNilHandler) ||
		errors.Is(err, ErrInvalidOwner)
}

// IsDuplicate 判断是否为重复注册
func IsDuplicate(err error) bool {
	return errors.Is(err, ErrDuplicateListener)
}

// GetErrorCode 获取错误代码
func GetErrorCode(err error) string {
	var e *EventError
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// GetErrorType 获取错误类型
func GetErrorType(err error) ErrorType {
	var e *EventError
	if errors.As(err, &e) {
		return e.Type
	}
	return TypeInternal
}

// GetErrorSeverity 获取错误严重程度
func GetErrorSeverity(err error) ErrorSeverity {
	var e *EventError
	if errors.As(err, &e) {
		return e.Severity
	}
	return SeverityError
}
