package xpage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/omeyang/xassets/pkg/assets/xassetretry"
	"github.com/omeyang/xassets/pkg/assets/xbgimg"
	"github.com/omeyang/xassets/pkg/assets/xcapture"
	"github.com/omeyang/xassets/pkg/assets/xprobe"
)

// AssetResult 单个资源元素的加载结果。
type AssetResult struct {
	ID       string   `json:"id"`
	Kind     string   `json:"kind"`
	Declared string   `json:"declared"`
	Final    string   `json:"final"`
	Attempts []string `json:"attempts"`
	Loaded   bool     `json:"loaded"`
	Retried  bool     `json:"retried"`
}

// Report 一次 Run 的结果。
type Report struct {
	Assets []AssetResult `json:"assets"`
	// Stats 运行结束时引擎 Store 的快照，键为源域名
	Stats map[string]xassetretry.Stats `json:"stats"`
}

// Loaded 返回最终加载成功的资源数。
func (r *Report) Loaded() int {
	n := 0
	for _, a := range r.Assets {
		if a.Loaded {
			n++
		}
	}
	return n
}

// Failed 返回最终加载失败的资源数。
func (r *Report) Failed() int {
	return len(r.Assets) - r.Loaded()
}

// loadEvent 一次探测结果，由 worker 发往事件循环。
type loadEvent struct {
	el  *element
	url string
	err error
}

// Page 以 HTML 文档为宿主，同时驱动两种投递机制：
// img/script/link 经 xcapture.Listener 处理，内联背景图交给 xbgimg.Container。
//
// 资源加载由 Prober 并发执行，加载结果在单个事件循环 goroutine 中依次派发，
// 与浏览器事件循环一致：同一时刻只有一个处理函数在运行。
type Page struct {
	doc         *goquery.Document
	engine      *xassetretry.Engine
	prober      xprobe.Prober
	listener    *xcapture.Listener
	dispatcher  *xcapture.Dispatcher
	elements    []*element
	backgrounds []*background
	logger      *slog.Logger

	mu  sync.Mutex
	ran bool
}

// background 带内联背景图的元素。
type background struct {
	sel       *goquery.Selection
	container *xbgimg.Container
	// state 卸载前的最终状态
	state xbgimg.State
}

// New 解析 r 中的 HTML 文档并创建 Page。
func New(r io.Reader, engine *xassetretry.Engine, prober xprobe.Prober, opts ...Option) (*Page, error) {
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
	if o.concurrency <= 0 {
		return nil, ErrInvalidConcurrency
	}

	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("xpage: parse document: %w", err)
	}

	listener, err := xcapture.New(engine, append([]xcapture.Option{xcapture.WithLogger(o.logger)}, o.listenerOpts...)...)
	if err != nil {
		return nil, err
	}
	dispatcher := xcapture.NewDispatcher()
	if err := listener.Attach(dispatcher); err != nil {
		return nil, err
	}

	limited := &limitedProber{sem: semaphore.NewWeighted(int64(o.concurrency)), next: prober}
	p := &Page{
		doc:        doc,
		engine:     engine,
		prober:     limited,
		listener:   listener,
		dispatcher: dispatcher,
		elements:   collectElements(doc, o.base),
		logger:     o.logger,
	}
	if err := p.collectBackgrounds(o); err != nil {
		return nil, err
	}
	return p, nil
}

// collectBackgrounds 为每个内联 background-image: url(...) 创建容器。
func (p *Page) collectBackgrounds(o *options) error {
	var errs []error
	p.doc.Find("[style]").Each(func(_ int, sel *goquery.Selection) {
		style, _ := sel.Attr("style")
		decls := parseStyle(style)
		src, ok := cssURLValue(decls[backgroundImage])
		if !ok {
			return
		}
		delete(decls, backgroundImage)
		c, err := xbgimg.New(p.engine, p.prober, xbgimg.Props{
			ImgSrc: resolve(o.base, src),
			Style:  decls,
		}, xbgimg.WithLogger(o.logger))
		if err != nil {
			errs = append(errs, err)
			return
		}
		p.backgrounds = append(p.backgrounds, &background{sel: sel, container: c})
	})
	return errors.Join(errs...)
}

// Listener 返回页面使用的全局捕获监听器。
func (p *Page) Listener() *xcapture.Listener {
	return p.listener
}

// Run 加载页面中的全部资源，直到每个资源都有最终结果或 ctx 结束。
//
// Run 只能调用一次，重复调用返回 ErrAlreadyRun。返回的错误合并了
// 处理函数报告的错误（如 OnRetry 钩子返回非法结果）与 ctx 的错误；
// 即使返回错误，Report 也反映了已完成部分的结果。
func (p *Page) Run(ctx context.Context) (*Report, error) {
	p.mu.Lock()
	if p.ran {
		p.mu.Unlock()
		return nil, ErrAlreadyRun
	}
	p.ran = true
	p.mu.Unlock()

	bgCtx, cancelBg := context.WithCancel(ctx)
	defer cancelBg()
	for _, bg := range p.backgrounds {
		if err := bg.container.Mount(bgCtx); err != nil {
			return nil, err
		}
	}

	errs := []error{p.loop(ctx)}
	errs = append(errs, p.settleBackgrounds(ctx)...)

	return p.report(), errors.Join(errs...)
}

// loop 事件循环：派发探测结果，并为被重新设置地址的元素发起新的探测。
func (p *Page) loop(ctx context.Context) error {
	events := make(chan loadEvent)
	g, gctx := errgroup.WithContext(ctx)

	pending := 0
	start := func(el *element) {
		pending++
		raw := el.src
		el.attempts = append(el.attempts, raw)
		g.Go(func() error {
			err := p.prober.Probe(gctx, raw)
			select {
			case events <- loadEvent{el: el, url: raw, err: err}:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	}
	for _, el := range p.elements {
		start(el)
	}

	var errs []error
	for pending > 0 {
		select {
		case ev := <-events:
			pending--
			if err := p.dispatch(ctx, ev); err != nil {
				errs = append(errs, err)
			}
			if ev.el.reload {
				ev.el.reload = false
				start(ev.el)
			}
		case <-ctx.Done():
			errs = append(errs, ctx.Err())
			pending = 0
		}
	}
	if err := g.Wait(); err != nil && !errors.Is(err, ctx.Err()) {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// dispatch 把一次探测结果交给监听器。
func (p *Page) dispatch(ctx context.Context, ev loadEvent) error {
	el := ev.el
	if ev.err == nil {
		el.loaded = true
		return p.dispatcher.Load(ctx, el)
	}
	el.loaded = false
	p.logger.LogAttrs(ctx, slog.LevelDebug, "xpage: asset failed",
		slog.String("id", el.id),
		slog.String("url", ev.url),
		slog.String("error", ev.err.Error()),
	)
	return p.dispatcher.Fail(ctx, el)
}

// settleBackgrounds 等待背景图容器结束，把渲染结果写回文档后卸载。
func (p *Page) settleBackgrounds(ctx context.Context) []error {
	var errs []error
	for _, bg := range p.backgrounds {
		select {
		case <-bg.container.Done():
		case <-ctx.Done():
		}
		bg.state = bg.container.State()
		node := bg.container.Render()
		bg.sel.SetAttr("style", formatStyle(node.Style))
		if err := bg.container.Err(); err != nil {
			errs = append(errs, err)
		}
		bg.container.Unmount()
		bg.container.Wait()
	}
	return errs
}

// report 汇总元素与容器的结果。
func (p *Page) report() *Report {
	r := &Report{Stats: p.engine.Snapshot()}
	for _, el := range p.elements {
		_, retried := el.Attr(xcapture.AttrRetryID)
		r.Assets = append(r.Assets, AssetResult{
			ID:       el.id,
			Kind:     el.kind.String(),
			Declared: el.declared,
			Final:    el.src,
			Attempts: append([]string(nil), el.attempts...),
			Loaded:   el.loaded,
			Retried:  retried,
		})
	}
	for i, bg := range p.backgrounds {
		st := bg.state
		final := st.ActiveURL
		if final == "" {
			final = st.DeclaredURL
		}
		r.Assets = append(r.Assets, AssetResult{
			ID:       fmt.Sprintf("background#%d", i),
			Kind:     "background",
			Declared: st.DeclaredURL,
			Final:    final,
			Loaded:   st.Phase == xbgimg.PhaseSucceeded,
			Retried:  st.HasRetried,
		})
	}
	return r
}

// HTML 返回当前文档，包含重试改写后的资源地址和重试标记。
func (p *Page) HTML() (string, error) {
	return p.doc.Html()
}

// limitedProber 以信号量限制并发探测数。
type limitedProber struct {
	sem  *semaphore.Weighted
	next xprobe.Prober
}

func (l *limitedProber) Probe(ctx context.Context, raw string) error {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer l.sem.Release(1)
	return l.next.Probe(ctx, raw)
}
