package eventx

import (
	"fmt"
	"os"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// 配置文件中的键
const (
	configKeyName            = "name"
	configKeyEnableMetrics   = "enable_metrics"
	configKeyWarnOnDuplicate = "warn_on_duplicate"
	configKeyLogLevel        = "log.level"
	configKeyLogFile         = "log.file"
	configKeyLogMaxSize      = "log.max_size_mb"
	configKeyLogMaxBackups   = "log.max_backups"
	configKeyLogMaxAge       = "log.max_age_days"
	configKeyLogCompress     = "log.compress"
)

// DefaultOptions 返回默认选项
func DefaultOptions() *Options {
	return &Options{
		Name:            DefaultDispatcherName,
		EnableMetrics:   true,
		WarnOnDuplicate: true,
		Log: &LogOptions{
			Level:      "info",
			MaxSizeMB:  DefaultLogMaxSizeMB,
			MaxBackups: DefaultLogMaxBackups,
		},
	}
}

// Validate 验证选项，并为缺省字段填充默认值
func (o *Options) Validate() error {
	errs := NewValidationErrors()

	if o.Name == "" {
		o.Name = DefaultDispatcherName
	}

	if o.Log == nil {
		o.Log = DefaultOptions().Log
	} else {
		if _, err := parseLevel(o.Log.Level); err != nil {
			errs.Add(err)
		}
		if o.Log.MaxSizeMB < 0 {
			errs.Add(fmt.Errorf("%w: invalid log max size: %d", ErrInvalidOptions, o.Log.MaxSizeMB))
		}
		if o.Log.MaxBackups < 0 {
			errs.Add(fmt.Errorf("%w: invalid log max backups: %d", ErrInvalidOptions, o.Log.MaxBackups))
		}
		if o.Log.MaxAgeDays < 0 {
			errs.Add(fmt.Errorf("%w: invalid log max age: %d", ErrInvalidOptions, o.Log.MaxAgeDays))
		}
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

// Clone 克隆选项
func (o *Options) Clone() *Options {
	clone := *o

	if o.Log != nil {
		logOpts := *o.Log
		clone.Log = &logOpts
	}

	return &clone
}

// WithName 设置调度器名称
func (o *Options) WithName(name string) *Options {
	o.Name = name
	return o
}

// WithLogger 设置日志记录器
func (o *Options) WithLogger(logger Logger) *Options {
	o.Logger = logger
	return o
}

// WithErrorHandler 设置错误处理器
func (o *Options) WithErrorHandler(handler ErrorHandler) *Options {
	o.ErrorHandler = handler
	return o
}

// WithReporter 设置错误报告器
func (o *Options) WithReporter(reporter ErrorReporter) *Options {
	o.Reporter = reporter
	return o
}

// WithMetrics 设置是否收集指标
func (o *Options) WithMetrics(enabled bool) *Options {
	o.EnableMetrics = enabled
	return o
}

// WithDuplicateWarning 设置重复注册时是否输出警告
func (o *Options) WithDuplicateWarning(enabled bool) *Options {
	o.WarnOnDuplicate = enabled
	return o
}

// WithLogFile 设置滚动日志文件
func (o *Options) WithLogFile(path string, maxSizeMB, maxBackups int) *Options {
	if o.Log == nil {
		o.Log = DefaultOptions().Log
	}
	o.Log.File = path
	o.Log.MaxSizeMB = maxSizeMB
	o.Log.MaxBackups = maxBackups
	return o
}

// WithLogLevel 设置日志级别
func (o *Options) WithLogLevel(level string) *Options {
	if o.Log == nil {
		o.Log = DefaultOptions().Log
	}
	o.Log.Level = level
	return o
}

// buildLogger 根据配置创建日志记录器
func (o *Options) buildLogger() (Logger, error) {
	if o.Logger != nil {
		return o.Logger, nil
	}
	if o.Log != nil && o.Log.File != "" {
		return NewFileLogger(o.Log)
	}
	return NewDefaultLogger(), nil
}

// LoadOptions 从JSON配置文件加载选项，未出现的键保持默认值
func LoadOptions(path string) (*Options, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, NewConfigError("failed to read config file", err)
	}
	return ParseOptions(raw)
}

// ParseOptions 解析JSON格式的配置内容
func ParseOptions(raw []byte) (*Options, error) {
	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(raw), json.Parser()); err != nil {
		return nil, NewConfigError("failed to parse config", err)
	}

	opts := DefaultOptions()
	if k.Exists(configKeyName) {
		opts.Name = k.String(configKeyName)
	}
	if k.Exists(configKeyEnableMetrics) {
		opts.EnableMetrics = k.Bool(configKeyEnableMetrics)
	}
	if k.Exists(configKeyWarnOnDuplicate) {
		opts.WarnOnDuplicate = k.Bool(configKeyWarnOnDuplicate)
	}
	if k.Exists(configKeyLogLevel) {
		opts.Log.Level = k.String(configKeyLogLevel)
	}
	if k.Exists(configKeyLogFile) {
		opts.Log.File = k.String(configKeyLogFile)
	}
	if k.Exists(configKeyLogMaxSize) {
		opts.Log.MaxSizeMB = k.Int(configKeyLogMaxSize)
	}
	if k.Exists(configKeyLogMaxBackups) {
		opts.Log.MaxBackups = k.Int(configKeyLogMaxBackups)
	}
	if k.Exists(configKeyLogMaxAge) {
		opts.Log.MaxAgeDays = k.Int(configKeyLogMaxAge)
	}
	if k.Exists(configKeyLogCompress) {
		opts.Log.Compress = k.Bool(configKeyLogCompress)
	}

	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return opts, nil
}
