package xpage

import (
	"log/slog"
	"net/url"

	"github.com/omeyang/xassets/pkg/assets/xcapture"
)

// DefaultConcurrency 默认的最大并发探测数。
const DefaultConcurrency = 8

// Option 定义 Page 可选配置函数类型。
type Option func(*options)

type options struct {
	logger       *slog.Logger
	concurrency  int
	base         *url.URL
	listenerOpts []xcapture.Option
}

func defaultOptions() *options {
	return &options{
		logger:      slog.Default(),
		concurrency: DefaultConcurrency,
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

// WithConcurrency 设置最大并发探测数，默认 DefaultConcurrency。
// 元素加载与背景图探测共享这一上限。
func WithConcurrency(n int) Option {
	return func(o *options) {
		o.concurrency = n
	}
}

// WithBaseURL 设置解析相对资源地址的基准 URL。
// 未设置时相对地址原样交给 Prober，引擎会把它们视为不在重试范围内。
func WithBaseURL(base *url.URL) Option {
	return func(o *options) {
		o.base = base
	}
}

// WithListenerOptions 透传 xcapture.Listener 的配置。
func WithListenerOptions(opts ...xcapture.Option) Option {
	return func(o *options) {
		o.listenerOpts = append(o.listenerOpts, opts...)
	}
}
