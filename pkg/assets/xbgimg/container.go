package xbgimg

import (
	"context"
	"log/slog"
	"maps"
	"strings"
	"sync"

	"github.com/omeyang/xassets/pkg/assets/xassetretry"
	"github.com/omeyang/xassets/pkg/assets/xprobe"
)

// Phase 容器所处的加载阶段。
type Phase uint8

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseSucceeded
	PhaseFailed
	PhaseUnmounted
)

// String 返回阶段名称。
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseSucceeded:
		return "succeeded"
	case PhaseFailed:
		return "failed"
	case PhaseUnmounted:
		return "unmounted"
	default:
		return "unknown"
	}
}

// Props 容器的输入。
type Props struct {
	// ImgSrc 声明的背景图地址
	ImgSrc string
	// Style 其他样式，渲染时原样保留，background-image 会被覆盖
	Style map[string]string
	// Attrs 其他展示属性，原样透传
	Attrs map[string]string
	// Children 子节点，原样透传
	Children []any
}

// State 容器状态快照。
type State struct {
	Phase       Phase
	DeclaredURL string
	ActiveURL   string
	HasRetried  bool
}

// Node 容器的渲染结果。
type Node struct {
	Style    map[string]string
	Attrs    map[string]string
	Children []any
}

// Container 背景图容器的探测式重试。
//
// 背景图加载失败不会产生事件，Container 在背景图声明的同时用 Prober
// 对 activeURL 发起一次带外探测，根据结果决定是否切换域名重试。
// 探测不阻塞渲染：Render 始终返回以 activeURL 为背景的节点。
//
// 所有方法并发安全。Unmount 之后到达的探测结果会被丢弃，不会再修改 Collector
// 或触发回调。引擎钩子中可以调用 State、Render，但不能同步调用 Mount、Update、
// Unmount：它们会等待正在进行的引擎调用结束。
type Container struct {
	engine *xassetretry.Engine
	prober xprobe.Prober
	logger *slog.Logger

	// cbMu 串行化探测结果的处理与生命周期变更，顺序为 cbMu → mu
	cbMu sync.Mutex

	mu         sync.Mutex
	props      Props
	declared   string
	active     string
	hasRetried bool
	mounted    bool
	phase      Phase
	gen        uint64 // 每次重置或卸载递增，过期的探测结果据此丢弃
	baseCtx    context.Context
	cancel     context.CancelFunc
	done       chan struct{}
	err        error

	wg sync.WaitGroup
}

// New 创建 Container，此时处于 PhaseIdle，调用 Mount 后开始探测。
func New(engine *xassetretry.Engine, prober xprobe.Prober, props Props, opts ...Option) (*Container, error) {
	if engine == nil {
		return nil, xassetretry.ErrNilEngine
	}
	if prober == nil {
		return nil, ErrNilProber
	}
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	done := make(chan struct{})
	close(done)
	return &Container{
		engine:   engine,
		prober:   prober,
		logger:   o.logger,
		props:    props,
		declared: props.ImgSrc,
		done:     done,
	}, nil
}

// Mount 挂载容器并开始探测声明的地址。ctx 在卸载前一直作为探测的父上下文。
func (c *Container) Mount(ctx context.Context) error {
	c.cbMu.Lock()
	defer c.cbMu.Unlock()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase == PhaseUnmounted {
		return ErrUnmounted
	}
	if c.mounted {
		return ErrAlreadyMounted
	}
	c.mounted = true
	c.baseCtx, c.cancel = context.WithCancel(ctx)
	c.resetLocked(c.props.ImgSrc)
	return nil
}

// Update 更新 Props。ImgSrc 变化时重置重试状态并重新探测。
func (c *Container) Update(props Props) error {
	c.cbMu.Lock()
	defer c.cbMu.Unlock()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase == PhaseUnmounted {
		return ErrUnmounted
	}
	changed := props.ImgSrc != c.declared
	c.props = props
	if !changed {
		return nil
	}
	if !c.mounted {
		c.declared = props.ImgSrc
		return nil
	}
	c.resetLocked(props.ImgSrc)
	return nil
}

// Unmount 卸载容器，取消进行中的探测。之后到达的探测结果不会再触发任何回调。
// 正在处理的探测结果会先处理完。
func (c *Container) Unmount() {
	c.cbMu.Lock()
	defer c.cbMu.Unlock()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase == PhaseUnmounted {
		return
	}
	c.gen++
	c.phase = PhaseUnmounted
	if c.cancel != nil {
		c.cancel()
	}
	c.settleLocked()
}

// State 返回当前状态快照。
func (c *Container) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		Phase:       c.phase,
		DeclaredURL: c.declared,
		ActiveURL:   c.active,
		HasRetried:  c.hasRetried,
	}
}

// Done 返回在当前探测链结束（成功、失败或卸载）时关闭的 channel。
// 重置后返回新的 channel。
func (c *Container) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.done
}

// Wait 阻塞直到所有已发起的探测 goroutine 退出。通常在 Unmount 之后调用。
func (c *Container) Wait() {
	c.wg.Wait()
}

// Err 返回最近一次探测链中引擎报告的错误（OnRetry 钩子返回非法结果）。
func (c *Container) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Render 返回渲染节点：样式合并 background-image，属性与子节点原样透传。
func (c *Container) Render() Node {
	c.mu.Lock()
	defer c.mu.Unlock()

	style := maps.Clone(c.props.Style)
	if style == nil {
		style = make(map[string]string, 1)
	}
	img := c.active
	if img == "" {
		img = c.declared
	}
	if img != "" {
		style["background-image"] = cssURL(img)
	}
	return Node{
		Style:    style,
		Attrs:    maps.Clone(c.props.Attrs),
		Children: c.props.Children,
	}
}

// resetLocked 回到初始状态并探测 src。调用方需持有锁。
func (c *Container) resetLocked(src string) {
	c.gen++
	c.declared = src
	c.active = src
	c.hasRetried = false
	c.err = nil
	c.settleLocked()
	if src == "" {
		c.phase = PhaseIdle
		return
	}
	c.done = make(chan struct{})
	c.startLocked(src)
}

// startLocked 以当前代次发起探测。调用方需持有锁。
func (c *Container) startLocked(src string) {
	c.phase = PhaseLoading
	gen := c.gen
	ctx := c.baseCtx
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		err := c.prober.Probe(ctx, src)
		c.complete(ctx, gen, src, err)
	}()
}

// complete 处理探测结果。代次不匹配或已卸载时丢弃。
//
// 从校验代次到引擎调用返回期间持有 cbMu，卸载与重置只能发生在这之前或之后；
// 引擎回调在 mu 之外执行。
func (c *Container) complete(ctx context.Context, gen uint64, src string, probeErr error) {
	if probeErr != nil {
		c.logger.LogAttrs(ctx, slog.LevelDebug, "xbgimg: probe failed",
			slog.String("url", src),
			slog.String("error", probeErr.Error()),
		)
	}

	c.cbMu.Lock()
	defer c.cbMu.Unlock()

	c.mu.Lock()
	if gen != c.gen || c.phase != PhaseLoading {
		c.mu.Unlock()
		return
	}
	hasRetried := c.hasRetried
	c.mu.Unlock()

	if probeErr == nil {
		c.engine.OnSuccess(ctx, src, hasRetried)
		c.mu.Lock()
		defer c.mu.Unlock()
		c.phase = PhaseSucceeded
		c.settleLocked()
		return
	}

	outcome, err := c.engine.OnFailure(ctx, src)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.err = err
		c.phase = PhaseFailed
		c.logger.LogAttrs(ctx, slog.LevelError, "xbgimg: retry aborted",
			slog.String("url", src),
			slog.String("error", err.Error()),
		)
		c.settleLocked()
		return
	}
	if !outcome.IsRetry() {
		c.phase = PhaseFailed
		c.settleLocked()
		return
	}

	c.active = outcome.URL
	c.hasRetried = true
	c.startLocked(outcome.URL)
}

// settleLocked 关闭 done（幂等）。调用方需持有锁。
func (c *Container) settleLocked() {
	select {
	case <-c.done:
	default:
		close(c.done)
	}
}

// cssEscaper 转义双引号字符串中的特殊字符，换行直接去掉。
var cssEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", "", "\r", "")

// cssURL 将地址包装为 CSS url() 值。
func cssURL(src string) string {
	return `url("` + cssEscaper.Replace(src) + `")`
}
