package xassetsink

import (
	"log/slog"
	"time"
)

// 默认值。
const (
	DefaultPrefix   = "xassets"
	DefaultAttempts = 3
	DefaultDelay    = 50 * time.Millisecond
)

// Option 定义 Sink 可选配置函数类型。
type Option func(*options)

type options struct {
	prefix   string
	attempts int
	delay    time.Duration
	logger   *slog.Logger
}

func defaultOptions() *options {
	return &options{
		prefix:   DefaultPrefix,
		attempts: DefaultAttempts,
		delay:    DefaultDelay,
		logger:   slog.Default(),
	}
}

// WithPrefix 设置键前缀，默认 "xassets"。空字符串将被忽略。
func WithPrefix(prefix string) Option {
	return func(o *options) {
		if prefix != "" {
			o.prefix = prefix
		}
	}
}

// WithAttempts 设置单次写入的最大尝试次数（含首次），默认 3。
func WithAttempts(n int) Option {
	return func(o *options) {
		o.attempts = n
	}
}

// WithDelay 设置重试的初始退避时间，默认 50ms。
func WithDelay(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.delay = d
		}
	}
}

// WithLogger 设置日志记录器，默认使用 slog.Default()。传入 nil 将被忽略。
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}
