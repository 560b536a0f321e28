package xassetsink

import "errors"

var (
	// ErrNilClient 传入的 Redis 客户端为 nil
	ErrNilClient = errors.New("xassetsink: redis client cannot be nil")

	// ErrInvalidAttempts 写入尝试次数必须为正数
	ErrInvalidAttempts = errors.New("xassetsink: attempts must be positive")
)
