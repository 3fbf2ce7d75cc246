package eventx

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrorHandler 错误处理器接口
type ErrorHandler interface {
	HandleError(ctx context.Context, err error) bool // 返回true表示错误已处理，false表示需要继续传播
}

// DefaultErrorHandler 默认错误处理器，按严重程度写日志
type DefaultErrorHandler struct {
	logger Logger
}

// NewDefaultErrorHandler 创建默认错误处理器
func NewDefaultErrorHandler(logger Logger) *DefaultErrorHandler {
	if logger == nil {
		logger = NewDefaultLogger()
	}
	return &DefaultErrorHandler{
		logger: logger,
	}
}

// HandleError 处理错误
func (h *DefaultErrorHandler) HandleError(ctx context.Context, err error) bool {
	if err == nil {
		return true
	}

	var eventErr *EventError
	if errors.As(err, &eventErr) {
		return h.handleEventError(ctx, eventErr)
	}

	h.logger.Error("Unhandled error", "error", err)
	return false
}

// handleEventError 处理 EventError 类型的错误
func (h *DefaultErrorHandler) handleEventError(_ context.Context, err *EventError) bool {
	switch err.Severity {
	case SeverityInfo:
		h.logger.Info("Event info",
			"type", err.Type,
			"message", err.Message,
			"event", err.Event)
		return true

	case SeverityWarning:
		h.logger.Warn("Event warning",
			"type", err.Type,
			"message", err.Message,
			"event", err.Event,
			"context", err.Context)
		return true

	case SeverityError:
		h.logger.Error("Event error",
			"type", err.Type,
			"message", err.Message,
			"event", err.Event,
			"key", err.Key,
			"context", err.Context,
			"cause", err.Cause)
		// 回调失败已被隔离，视为已处理
		return err.Type == TypeDispatch

	case SeverityCritical:
		h.logger.Error("Event critical error",
			"type", err.Type,
			"message", err.Message,
			"context", err.Context,
			"cause", err.Cause)
		return false

	default:
		h.logger.Error("Unknown severity event error", "error", err)
		return false
	}
}

// ErrorReporter 错误报告接口
type ErrorReporter interface {
	ReportError(err error)
	GetErrorStats() map[string]interface{}
}

// InMemoryErrorReporter 内存错误报告器
type InMemoryErrorReporter struct {
	errors []error
	stats  map[string]int
	mu     sync.Mutex
}

// NewInMemoryErrorReporter 创建内存错误报告器
func NewInMemoryErrorReporter() *InMemoryErrorReporter {
	return &InMemoryErrorReporter{
		errors: make([]error, 0),
		stats:  make(map[string]int),
	}
}

// ReportError 报告错误
func (r *InMemoryErrorReporter) ReportError(err error) {
	if err == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.errors = append(r.errors, err)

	var eventErr *EventError
	if errors.As(err, &eventErr) {
		r.stats[fmt.Sprintf("type_%s", eventErr.Type)]++
		r.stats[fmt.Sprintf("severity_%s", eventErr.Severity)]++
		if eventErr.Code != "" {
			r.stats[fmt.Sprintf("code_%s", eventErr.Code)]++
		}
	} else {
		r.stats["unknown_type"]++
	}
}

// Errors 返回已报告错误的副本
func (r *InMemoryErrorReporter) Errors() []error {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]error, len(r.errors))
	copy(out, r.errors)
	return out
}

// GetErrorStats 获取错误统计
func (r *InMemoryErrorReporter) GetErrorStats() map[string]interface{} {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats := make(map[string]interface{})
	stats["total_errors"] = len(r.errors)

	for key, count := range r.stats {
		stats[key] = count
	}

	return stats
}

// Reset 清空已报告的错误
func (r *InMemoryErrorReporter) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.errors = r.errors[:0]
	r.stats = make(map[string]int)
}

// GetRecentErrors 获取最近的错误
func (r *InMemoryErrorReporter) GetRecentErrors(limit int) []error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if limit <= 0 || len(r.errors) == 0 {
		return nil
	}

	start := 0
	if len(r.errors) > limit {
		start = len(r.errors) - limit
	}

	out := make([]error, len(r.errors)-start)
	copy(out, r.errors[start:])
	return out
}

// CountErrorsBySeverity 按严重程度统计错误
func CountErrorsBySeverity(errs []error) map[ErrorSeverity]int {
	counts := make(map[ErrorSeverity]int)
	for _, err := range errs {
		counts[GetErrorSeverity(err)]++
	}
	return counts
}

// FormatErrorSummary 格式化错误摘要
func FormatErrorSummary(errs []error) string {
	if len(errs) == 0 {
		return "No errors"
	}

	counts := CountErrorsBySeverity(errs)
	summary := fmt.Sprintf("Total: %d errors", len(errs))

	if critical := counts[SeverityCritical]; critical > 0 {
		summary += fmt.Sprintf(", Critical: %d", critical)
	}
	if errCount := counts[SeverityError]; errCount > 0 {
		summary += fmt.Sprintf(", Error: %d", errCount)
	}
	if warnings := counts[SeverityWarning]; warnings > 0 {
		summary += fmt.Sprintf(", Warning: %d", warnings)
	}
	if info := counts[SeverityInfo]; info > 0 {
		summary += fmt.Sprintf(", Info: %d", info)
	}

	return summary
}
