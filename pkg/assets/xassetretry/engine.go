package xassetretry

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Engine 重试决策引擎。
//
// 同一个 Engine 注入给所有投递机制（xcapture、xbgimg），保证决策逻辑只有一份。
// Engine 并发安全：Collector 的计数在锁内原子完成，用户钩子在锁外执行。
type Engine struct {
	maxRetryCount int
	analyzer      *Analyzer
	store         *Store
	onRetry       RetryHook
	onSuccess     PathHook
	onFail        PathHook
	logger        *slog.Logger
	metrics       *engineMetrics
}

// New 创建 Engine。
//
// 未设置域名映射时使用空映射，此时所有 URL 都不在重试范围内。
func New(opts ...Option) (*Engine, error) {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	if o.err != nil {
		return nil, o.err
	}
	if o.maxRetryCount < 0 {
		return nil, ErrInvalidMaxRetryCount
	}
	if o.store == nil {
		o.store = NewStore()
	}

	m, err := newEngineMetrics(o.meterProvider)
	if err != nil {
		return nil, err
	}

	return &Engine{
		maxRetryCount: o.maxRetryCount,
		analyzer:      NewAnalyzer(o.domains, o.store),
		store:         o.store,
		onRetry:       o.onRetry,
		onSuccess:     o.onSuccess,
		onFail:        o.onFail,
		logger:        o.logger,
		metrics:       m,
	}, nil
}

// MaxRetryCount 返回最大重试次数。
func (e *Engine) MaxRetryCount() int {
	return e.maxRetryCount
}

// Analyzer 返回引擎使用的 Analyzer。
func (e *Engine) Analyzer() *Analyzer {
	return e.analyzer
}

// Store 返回引擎使用的 Store。
func (e *Engine) Store() *Store {
	return e.store
}

// Snapshot 返回所有源域名的记录快照。
func (e *Engine) Snapshot() map[string]Stats {
	return e.store.Snapshot()
}

// OnFailure 处理一次加载失败并给出处理动作。
//
// 只有 OnRetry 钩子返回非法结果时才返回错误（ErrInvalidHookResult），
// 此时计数与失败记录已经生效。URL 格式错误等情况一律降级为忽略。
func (e *Engine) OnFailure(ctx context.Context, rawURL string) (Outcome, error) {
	domain, collector, ok := e.analyzer.Resolve(rawURL)
	if !ok {
		return Outcome{Action: ActionIgnore, Reason: ReasonOutOfScope}, nil
	}

	stats := collector.recordFailure(rawURL)
	e.metrics.recordFailure(ctx, collector.Domain())
	isFinalRetry := stats.RetryCount > e.maxRetryCount

	if isFinalRetry {
		path := e.path(rawURL)
		e.onFail(ctx, path)
		return e.finish(ctx, rawURL, Outcome{
			Action: ActionTerminal,
			Reason: ReasonExhausted,
			Path:   path,
			Domain: domain,
		}), nil
	}

	replacement, ok := e.analyzer.Domains().Replacement(domain)
	if !ok {
		return e.finish(ctx, rawURL, Outcome{
			Action: ActionIgnore,
			Reason: ReasonNoMapping,
			Domain: domain,
		}), nil
	}

	// Resolve 成功时 Split 必然成功
	split, _ := e.analyzer.Split(rawURL)
	newURL := split.Join(replacement)

	result := e.onRetry(ctx, newURL, rawURL, stats)
	switch {
	case !result.IsValid():
		e.logger.LogAttrs(ctx, slog.LevelError, "xassetretry: invalid onRetry result",
			slog.String("url", rawURL),
			slog.String("candidate", newURL),
		)
		return Outcome{}, invalidHookError(rawURL)
	case result.IsVeto():
		return e.finish(ctx, rawURL, Outcome{
			Action: ActionIgnore,
			Reason: ReasonVetoed,
			Domain: domain,
		}), nil
	default:
		return e.finish(ctx, rawURL, Outcome{
			Action: ActionRetry,
			Reason: ReasonSubstituted,
			URL:    result.URL(),
			Domain: domain,
		}), nil
	}
}

// OnSuccess 处理一次加载成功。
//
// 只有 hasRetried 为 true 时才记录并回调：首次加载即成功不属于需要上报的结果。
func (e *Engine) OnSuccess(ctx context.Context, rawURL string, hasRetried bool) {
	if !hasRetried {
		return
	}
	_, collector, ok := e.analyzer.Resolve(rawURL)
	if !ok {
		return
	}
	collector.recordSuccess(rawURL)
	e.metrics.recordSuccess(ctx, collector.Domain())

	path := e.path(rawURL)
	e.logger.LogAttrs(ctx, slog.LevelDebug, "xassetretry: asset loaded after retry",
		slog.String("url", rawURL),
		slog.String("domain", collector.Domain()),
	)
	trace.SpanFromContext(ctx).AddEvent("xassets.retry.success",
		trace.WithAttributes(attribute.String("url", rawURL)))
	e.onSuccess(ctx, path)
}

// path 返回 rawURL 的稳定路径标识。
func (e *Engine) path(rawURL string) string {
	s, ok := e.analyzer.Split(rawURL)
	if !ok {
		return ""
	}
	return s.Path
}

// finish 记录指标、日志和 span 事件后返回 o。
func (e *Engine) finish(ctx context.Context, rawURL string, o Outcome) Outcome {
	e.metrics.recordOutcome(ctx, o)

	level := slog.LevelDebug
	if o.Action == ActionTerminal {
		level = slog.LevelWarn
	}
	e.logger.LogAttrs(ctx, level, "xassetretry: failure handled",
		slog.String("url", rawURL),
		slog.String("domain", o.Domain),
		slog.String("action", o.Action.String()),
		slog.String("reason", o.Reason.String()),
		slog.String("retry_url", o.URL),
	)
	trace.SpanFromContext(ctx).AddEvent("xassets.retry.decision", trace.WithAttributes(
		attribute.String("url", rawURL),
		attribute.String("action", o.Action.String()),
		attribute.String("reason", o.Reason.String()),
	))
	return o
}
