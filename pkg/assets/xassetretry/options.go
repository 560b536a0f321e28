package xassetretry

import (
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// DefaultMaxRetryCount 未配置时的最大重试次数。
const DefaultMaxRetryCount = 3

// Option 定义 Engine 可选配置函数类型。
type Option func(*options)

type options struct {
	maxRetryCount int
	domains       *DomainMap
	onRetry       RetryHook
	onSuccess     PathHook
	onFail        PathHook
	store         *Store
	logger        *slog.Logger
	meterProvider metric.MeterProvider
	err           error
}

func defaultOptions() *options {
	return &options{
		maxRetryCount: DefaultMaxRetryCount,
		onRetry:       identityHook,
		onSuccess:     noopPathHook,
		onFail:        noopPathHook,
		logger:        slog.Default(),
		meterProvider: otel.GetMeterProvider(),
	}
}

// WithMaxRetryCount 设置最大重试次数，默认 3。负数在 New 时返回 ErrInvalidMaxRetryCount。
func WithMaxRetryCount(n int) Option {
	return func(o *options) {
		o.maxRetryCount = n
	}
}

// WithDomainMap 以映射形式设置域名映射。
// 映射非法时错误在 New 中返回。
func WithDomainMap(m map[string]string) Option {
	return func(o *options) {
		d, err := NewDomainMap(m)
		if err != nil {
			o.err = err
			return
		}
		o.domains = d
	}
}

// WithDomainRing 以环形列表形式设置域名映射，见 NewDomainRing。
func WithDomainRing(hosts []string) Option {
	return func(o *options) {
		d, err := NewDomainRing(hosts)
		if err != nil {
			o.err = err
			return
		}
		o.domains = d
	}
}

// WithDomains 直接设置已构建的 DomainMap。传入 nil 将被忽略。
func WithDomains(d *DomainMap) Option {
	return func(o *options) {
		if d != nil {
			o.domains = d
		}
	}
}

// WithOnRetry 设置重试钩子，默认原样使用候选 URL。传入 nil 将被忽略。
func WithOnRetry(h RetryHook) Option {
	return func(o *options) {
		if h != nil {
			o.onRetry = h
		}
	}
}

// WithOnSuccess 设置重试后加载成功的回调。传入 nil 将被忽略。
func WithOnSuccess(h PathHook) Option {
	return func(o *options) {
		if h != nil {
			o.onSuccess = h
		}
	}
}

// WithOnFail 设置预算耗尽时的回调。传入 nil 将被忽略。
func WithOnFail(h PathHook) Option {
	return func(o *options) {
		if h != nil {
			o.onFail = h
		}
	}
}

// WithStore 注入 Collector Store。多个 Engine 共享同一 Store 时共享计数。
// 默认每个 Engine 创建独立的 Store。传入 nil 将被忽略。
func WithStore(s *Store) Option {
	return func(o *options) {
		if s != nil {
			o.store = s
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

// WithMeterProvider 设置 MeterProvider，默认使用 otel 全局 MeterProvider。传入 nil 将被忽略。
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) {
		if mp != nil {
			o.meterProvider = mp
		}
	}
}
