package xassetretry

import (
	"context"
	"fmt"
)

// hookKind HookResult 的标签。零值表示非法结果。
type hookKind uint8

const (
	hookInvalid hookKind = iota
	hookSubstitute
	hookVeto
)

// HookResult OnRetry 钩子的返回值。
//
// 只能通过 Substitute 或 Veto 构造；零值 HookResult 视为非法结果，
// Engine 会返回 ErrInvalidHookResult。
type HookResult struct {
	kind hookKind
	url  string
}

// Substitute 使用 url 进行本次重试。
func Substitute(url string) HookResult {
	return HookResult{kind: hookSubstitute, url: url}
}

// Veto 放弃本次重试。计数与失败记录已经发生，不会回滚。
func Veto() HookResult {
	return HookResult{kind: hookVeto}
}

// URL 返回 Substitute 携带的 URL。
func (r HookResult) URL() string {
	return r.url
}

// IsVeto 报告是否为 Veto。
func (r HookResult) IsVeto() bool {
	return r.kind == hookVeto
}

// IsValid 报告结果是否由 Substitute 或 Veto 构造。
func (r HookResult) IsValid() bool {
	return r.kind == hookSubstitute || r.kind == hookVeto
}

// RetryHook 重试钩子。
//
// newURL 是已完成域名替换的候选 URL，oldURL 是失败的 URL，
// stats 是本次失败计入后的 Collector 快照。
type RetryHook func(ctx context.Context, newURL, oldURL string, stats Stats) HookResult

// PathHook OnSuccess/OnFail 回调，path 为 SplitURL.Path。
type PathHook func(ctx context.Context, path string)

// DynamicRetryHook 返回值类型不固定的重试钩子，用于对接脚本或配置驱动的回调。
type DynamicRetryHook func(ctx context.Context, newURL, oldURL string, stats Stats) any

// AdaptDynamicHook 将 DynamicRetryHook 转换为 RetryHook。
//
// 返回 nil 视为 Veto，返回 string 视为 Substitute，
// 其他类型转换为非法结果，由 Engine 报告 ErrInvalidHookResult。
func AdaptDynamicHook(h DynamicRetryHook) RetryHook {
	if h == nil {
		return nil
	}
	return func(ctx context.Context, newURL, oldURL string, stats Stats) HookResult {
		switch v := h(ctx, newURL, oldURL, stats).(type) {
		case nil:
			return Veto()
		case string:
			return Substitute(v)
		default:
			return HookResult{}
		}
	}
}

// identityHook 默认的 OnRetry：原样使用候选 URL。
func identityHook(_ context.Context, newURL, _ string, _ Stats) HookResult {
	return Substitute(newURL)
}

func noopPathHook(context.Context, string) {}

// invalidHookError 包装 ErrInvalidHookResult，附带出错的 URL。
func invalidHookError(oldURL string) error {
	return fmt.Errorf("%w: url %q", ErrInvalidHookResult, oldURL)
}
