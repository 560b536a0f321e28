package xassetretry

import "errors"

var (
	// ErrInvalidDomain 域名映射中存在空的源域名或备用域名。
	ErrInvalidDomain = errors.New("xassetretry: domain must not be empty")

	// ErrInvalidMaxRetryCount 最大重试次数为负数。
	ErrInvalidMaxRetryCount = errors.New("xassetretry: max retry count must not be negative")

	// ErrInvalidHookResult OnRetry 钩子既没有返回 Substitute 也没有返回 Veto。
	// 这是调用方的编程错误，引擎不会吞掉它。
	ErrInvalidHookResult = errors.New("xassetretry: onRetry must return a substitute url or a veto")

	// ErrNilEngine 传入的 Engine 为 nil
	ErrNilEngine = errors.New("xassetretry: engine cannot be nil")
)
