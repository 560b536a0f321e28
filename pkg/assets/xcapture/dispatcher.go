package xcapture

import (
	"context"
	"errors"
	"sync"
)

// 确保 *Dispatcher 实现 Source 接口
var _ Source = (*Dispatcher)(nil)

// Dispatcher Source 的同步实现。
//
// Fail/Load 在调用方 goroutine 中依次调用已注册的处理函数，
// 单线程事件循环的宿主应只在循环内调用它们。
type Dispatcher struct {
	mu     sync.RWMutex
	onFail []Handler
	onLoad []Handler
}

// NewDispatcher 创建 Dispatcher。
func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// OnResourceFailure 注册失败处理函数。传入 nil 将被忽略。
func (d *Dispatcher) OnResourceFailure(h Handler) {
	if h == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onFail = append(d.onFail, h)
}

// OnResourceLoad 注册加载处理函数。传入 nil 将被忽略。
func (d *Dispatcher) OnResourceLoad(h Handler) {
	if h == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onLoad = append(d.onLoad, h)
}

// Fail 派发一次加载失败，返回所有处理函数错误的合并。
func (d *Dispatcher) Fail(ctx context.Context, el Element) error {
	d.mu.RLock()
	handlers := d.onFail
	d.mu.RUnlock()
	return dispatch(ctx, handlers, el)
}

// Load 派发一次加载成功，返回所有处理函数错误的合并。
func (d *Dispatcher) Load(ctx context.Context, el Element) error {
	d.mu.RLock()
	handlers := d.onLoad
	d.mu.RUnlock()
	return dispatch(ctx, handlers, el)
}

func dispatch(ctx context.Context, handlers []Handler, el Element) error {
	var errs []error
	for _, h := range handlers {
		if err := h(ctx, el); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
