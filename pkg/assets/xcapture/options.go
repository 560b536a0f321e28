package xcapture

import (
	"log/slog"

	"github.com/google/uuid"
)

// Option 定义 Listener 可选配置函数类型。
type Option func(*options)

type options struct {
	logger         *slog.Logger
	retryCacheSize int
	marker         func() string
}

func defaultOptions() *options {
	return &options{
		logger: slog.Default(),
		marker: uuid.NewString,
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

// WithRetryCacheSize 设置已重试元素集合的容量。
// 默认 0 表示不设上限、条目永不移除；正数时使用 LRU 淘汰最久未访问的元素。
func WithRetryCacheSize(n int) Option {
	return func(o *options) {
		o.retryCacheSize = n
	}
}

// WithMarker 设置重试标记值的生成函数，默认生成 UUID。传入 nil 将被忽略。
func WithMarker(fn func() string) Option {
	return func(o *options) {
		if fn != nil {
			o.marker = fn
		}
	}
}
