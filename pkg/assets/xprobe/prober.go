package xprobe

import (
	"context"
	"net/url"
	"strings"
	"sync"
)

// Prober 资源探测接口。返回 nil 表示资源加载成功。
//
// 实现必须响应 ctx 取消。
type Prober interface {
	Probe(ctx context.Context, url string) error
}

// Func 函数适配器。
type Func func(ctx context.Context, url string) error

// Probe 调用 f。
func (f Func) Probe(ctx context.Context, raw string) error {
	return f(ctx, raw)
}

// Static 按 URL 查表的 Prober，并发安全。
//
// 表中值为 nil 表示成功；不在表中的 URL 返回 ErrNotFound。
type Static struct {
	mu      sync.Mutex
	results map[string]error
	calls   []string
}

// NewStatic 创建 Static。results 会被复制。
func NewStatic(results map[string]error) *Static {
	s := &Static{results: make(map[string]error, len(results))}
	for k, v := range results {
		s.results[k] = v
	}
	return s
}

// Set 设置 raw 的探测结果。
func (s *Static) Set(raw string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[raw] = err
}

// Probe 返回表中记录的结果。
func (s *Static) Probe(ctx context.Context, raw string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, raw)
	err, ok := s.results[raw]
	if !ok {
		return ErrNotFound
	}
	return err
}

// Calls 返回按调用顺序记录的探测地址。
func (s *Static) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

// DownHosts 返回一个 Prober：主机在 hosts 中的 URL 返回 ErrHostDown，其余交给 next。
func DownHosts(next Prober, hosts ...string) Prober {
	down := make(map[string]struct{}, len(hosts))
	for _, h := range hosts {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			down[h] = struct{}{}
		}
	}
	return Func(func(ctx context.Context, raw string) error {
		if host := hostOf(raw); host != "" {
			if _, ok := down[host]; ok {
				return ErrHostDown
			}
		}
		return next.Probe(ctx, raw)
	})
}

func hostOf(raw string) string {
	if strings.HasPrefix(raw, "//") {
		raw = "http:" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
