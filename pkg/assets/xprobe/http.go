package xprobe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultTimeout 单次探测的默认超时时间。
	DefaultTimeout = 10 * time.Second

	// maxDrainBytes 探测成功后最多读取并丢弃的响应体字节数，便于连接复用。
	maxDrainBytes = 64 << 10
)

// 确保 *HTTPProber 实现 Prober 接口
var _ Prober = (*HTTPProber)(nil)

// HTTPProber 通过 HTTP 请求探测资源。
type HTTPProber struct {
	client  *http.Client
	method  string
	timeout time.Duration
	header  http.Header
}

// HTTPOption 定义 HTTPProber 可选配置函数类型。
type HTTPOption func(*HTTPProber)

// WithClient 设置 http.Client，默认 http.DefaultClient。传入 nil 将被忽略。
func WithClient(c *http.Client) HTTPOption {
	return func(p *HTTPProber) {
		if c != nil {
			p.client = c
		}
	}
}

// WithMethod 设置请求方法，默认 GET。部分 CDN 不支持 HEAD，按需切换。
func WithMethod(method string) HTTPOption {
	return func(p *HTTPProber) {
		if m := strings.ToUpper(strings.TrimSpace(method)); m != "" {
			p.method = m
		}
	}
}

// WithTimeout 设置单次探测超时，<= 0 时使用 DefaultTimeout。
func WithTimeout(d time.Duration) HTTPOption {
	return func(p *HTTPProber) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithHeader 添加请求头。
func WithHeader(key, value string) HTTPOption {
	return func(p *HTTPProber) {
		p.header.Add(key, value)
	}
}

// NewHTTPProber 创建 HTTPProber。
func NewHTTPProber(opts ...HTTPOption) *HTTPProber {
	p := &HTTPProber{
		client:  http.DefaultClient,
		method:  http.MethodGet,
		timeout: DefaultTimeout,
		header:  make(http.Header),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// Probe 请求 url，2xx 视为成功，其余状态码返回 *StatusError。
// 协议相对 URL 按 https 请求。
func (p *HTTPProber) Probe(ctx context.Context, url string) error {
	if url == "" {
		return ErrEmptyURL
	}
	if strings.HasPrefix(url, "//") {
		url = "https:" + url
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, p.method, url, nil)
	if err != nil {
		return fmt.Errorf("xprobe: build request: %w", err)
	}
	for k, vs := range p.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("xprobe: %s %s: %w", p.method, url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{URL: url, StatusCode: resp.StatusCode}
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes))
	return nil
}
