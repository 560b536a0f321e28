package xprobe

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyURL 探测地址为空
	ErrEmptyURL = errors.New("xprobe: url cannot be empty")

	// ErrNotFound Static 中没有该 URL
	ErrNotFound = errors.New("xprobe: url not found")

	// ErrHostDown DownHosts 拦截的主机
	ErrHostDown = errors.New("xprobe: host is down")
)

// StatusError HTTP 探测返回了非 2xx 状态码。
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("xprobe: %s returned status %d", e.URL, e.StatusCode)
}
