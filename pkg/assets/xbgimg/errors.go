package xbgimg

import "errors"

var (
	// ErrNilProber 传入的 Prober 为 nil
	ErrNilProber = errors.New("xbgimg: prober cannot be nil")

	// ErrAlreadyMounted 容器已经挂载
	ErrAlreadyMounted = errors.New("xbgimg: container already mounted")

	// ErrUnmounted 容器已经卸载
	ErrUnmounted = errors.New("xbgimg: container unmounted")
)
