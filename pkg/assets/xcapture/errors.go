package xcapture

import "errors"

var (
	// ErrNilSource 传入的 Source 为 nil
	ErrNilSource = errors.New("xcapture: source cannot be nil")

	// ErrAlreadyAttached Listener 已经注册过监听
	ErrAlreadyAttached = errors.New("xcapture: listener already attached")

	// ErrInvalidRetryCacheSize 重试缓存容量为负数
	ErrInvalidRetryCacheSize = errors.New("xcapture: retry cache size must not be negative")
)
