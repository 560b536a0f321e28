package xcapture

import (
	"context"
	"log/slog"
	"sync"

	"github.com/omeyang/xassets/pkg/assets/xassetretry"
)

// Listener 全局捕获式的重试投递机制。
//
// 一个 Listener 只能 Attach 一次，对应一个页面会话。
type Listener struct {
	engine   *xassetretry.Engine
	cache    retryCache
	logger   *slog.Logger
	marker   func() string
	mu       sync.Mutex
	attached bool
}

// New 创建 Listener。
func New(engine *xassetretry.Engine, opts ...Option) (*Listener, error) {
	if engine == nil {
		return nil, xassetretry.ErrNilEngine
	}
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	cache, err := newRetryCache(o.retryCacheSize)
	if err != nil {
		return nil, err
	}
	return &Listener{
		engine: engine,
		cache:  cache,
		logger: o.logger,
		marker: o.marker,
	}, nil
}

// Attach 在 src 上注册错误与加载监听。重复调用返回 ErrAlreadyAttached。
func (l *Listener) Attach(src Source) error {
	if src == nil {
		return ErrNilSource
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.attached {
		return ErrAlreadyAttached
	}
	l.attached = true
	src.OnResourceFailure(l.HandleError)
	src.OnResourceLoad(l.HandleLoad)
	return nil
}

// RetriedElements 返回已自动重试过的元素数量。
func (l *Listener) RetriedElements() int {
	return l.cache.len()
}

// HandleError 处理一次资源加载失败。
//
// 非 img/script/link、没有资源地址或带 AttrIgnore 的元素被忽略。
// 只有 OnRetry 钩子返回非法结果时返回错误。
func (l *Listener) HandleError(ctx context.Context, el Element) error {
	if el == nil || !el.Kind().Eligible() {
		return nil
	}
	src := el.SourceURL()
	if src == "" {
		return nil
	}
	if _, ignored := el.Attr(AttrIgnore); ignored {
		return nil
	}

	outcome, err := l.engine.OnFailure(ctx, src)
	if err != nil {
		return err
	}
	if !outcome.IsRetry() {
		return nil
	}

	if !l.cache.markOnce(el.ID()) {
		l.logger.LogAttrs(ctx, slog.LevelDebug, "xcapture: element already retried",
			slog.String("id", el.ID()),
			slog.String("url", src),
		)
		return nil
	}
	el.SetAttr(AttrRetryID, l.marker())
	el.SetSourceURL(outcome.URL)
	l.logger.LogAttrs(ctx, slog.LevelInfo, "xcapture: retrying asset",
		slog.String("kind", el.Kind().String()),
		slog.String("from", src),
		slog.String("to", outcome.URL),
	)
	return nil
}

// HandleLoad 处理一次资源加载成功，仅上报带重试标记的元素。
func (l *Listener) HandleLoad(ctx context.Context, el Element) error {
	if el == nil || !el.Kind().Eligible() {
		return nil
	}
	src := el.SourceURL()
	if src == "" {
		return nil
	}
	if v, ok := el.Attr(AttrRetryID); !ok || v == "" {
		return nil
	}
	l.engine.OnSuccess(ctx, src, true)
	return nil
}
