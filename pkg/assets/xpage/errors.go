package xpage

import "errors"

var (
	// ErrNilProber 传入的 Prober 为 nil
	ErrNilProber = errors.New("xpage: prober cannot be nil")

	// ErrInvalidConcurrency 并发数必须为正数
	ErrInvalidConcurrency = errors.New("xpage: concurrency must be positive")

	// ErrAlreadyRun Page 只能 Run 一次
	ErrAlreadyRun = errors.New("xpage: page already run")
)
