package eventx

import (
	"fmt"
	"log/slog"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger 日志接口
type Logger interface {
	Debug(msg string, args ...any)
	Debugf(format string, args ...any)
	Info(msg string, args ...any)
	Infof(format string, args ...any)
	Warn(msg string, args ...any)
	Warnf(format string, args ...any)
	Error(msg string, args ...any)
	Errorf(format string, args ...any)
}

// defaultLogger 默认日志记录器
type defaultLogger struct {
	*slog.Logger
}

// NewDefaultLogger 创建使用slog默认处理器的日志记录器
func NewDefaultLogger() Logger {
	return NewSlogLogger(slog.Default())
}

// NewSlogLogger 包装指定的slog日志记录器
func NewSlogLogger(l *slog.Logger) Logger {
	if l == nil {
		l = slog.Default()
	}
	return &defaultLogger{Logger: l}
}

// NewFileLogger 创建写入滚动日志文件的JSON日志记录器
func NewFileLogger(opts *LogOptions) (Logger, error) {
	if opts == nil || opts.File == "" {
		return nil, NewConfigError("log file path is required", ErrInvalidConfig)
	}
	level, err := parseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	maxSize := opts.MaxSizeMB
	if maxSize <= 0 {
		maxSize = DefaultLogMaxSizeMB
	}

	writer := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    maxSize,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   opts.Compress,
	}

	handler := slog.NewJSONHandler(writer, &slog.HandlerOptions{Level: level})
	return &defaultLogger{Logger: slog.New(handler)}, nil
}

func (l *defaultLogger) Debug(msg string, args ...any) {
	l.Logger.Debug(msg, args...)
}

func (l *defaultLogger) Debugf(format string, args ...any) {
	l.Logger.Debug(sprintf(format, args...))
}

func (l *defaultLogger) Info(msg string, args ...any) {
	l.Logger.Info(msg, args...)
}

func (l *defaultLogger) Infof(format string, args ...any) {
	l.Logger.Info(sprintf(format, args...))
}

func (l *defaultLogger) Warn(msg string, args ...any) {
	l.Logger.Warn(msg, args...)
}

func (l *defaultLogger) Warnf(format string, args ...any) {
	l.Logger.Warn(sprintf(format, args...))
}

func (l *defaultLogger) Error(msg string, args ...any) {
	l.Logger.Error(msg, args...)
}

func (l *defaultLogger) Errorf(format string, args ...any) {
	l.Logger.Error(sprintf(format, args...))
}

// zapLogger zap日志适配器
type zapLogger struct {
	sugar *zap.SugaredLogger
}

// NewZapLogger 将zap日志记录器适配为Logger
// args按slog风格的键值对传入，对应zap的 *w 方法
func NewZapLogger(l *zap.Logger) Logger {
	if l == nil {
		l = zap.NewNop()
	}
	return &zapLogger{sugar: l.Sugar()}
}

func (l *zapLogger) Debug(msg string, args ...any) {
	l.sugar.Debugw(msg, args...)
}

func (l *zapLogger) Debugf(format string, args ...any) {
	l.sugar.Debugf(format, args...)
}

func (l *zapLogger) Info(msg string, args ...any) {
	l.sugar.Infow(msg, args...)
}

func (l *zapLogger) Infof(format string, args ...any) {
	l.sugar.Infof(format, args...)
}

func (l *zapLogger) Warn(msg string, args ...any) {
	l.sugar.Warnw(msg, args...)
}

func (l *zapLogger) Warnf(format string, args ...any) {
	l.sugar.Warnf(format, args...)
}

func (l *zapLogger) Error(msg string, args ...any) {
	l.sugar.Errorw(msg, args...)
}

func (l *zapLogger) Errorf(format string, args ...any) {
	l.sugar.Errorf(format, args...)
}

// parseLevel 解析日志级别，空字符串视为info
func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if strings.TrimSpace(s) == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, NewConfigError(fmt.Sprintf("invalid log level %q", s), ErrInvalidConfig)
	}
	return level, nil
}

// sprintf 格式化字符串
func sprintf(format string, args ...any) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}
