package xassetconf

import "errors"

var (
	// ErrEmptyPath 配置文件路径为空
	ErrEmptyPath = errors.New("xassetconf: empty config path")

	// ErrUnsupportedFormat 不支持的配置格式
	ErrUnsupportedFormat = errors.New("xassetconf: unsupported config format")

	// ErrLoadFailed 读取配置文件失败
	ErrLoadFailed = errors.New("xassetconf: failed to load config")

	// ErrParseFailed 解析配置失败
	ErrParseFailed = errors.New("xassetconf: failed to parse config")

	// ErrInvalidConfig 配置值不合法
	ErrInvalidConfig = errors.New("xassetconf: invalid config")

	// ErrNilCallback 监视回调为 nil
	ErrNilCallback = errors.New("xassetconf: watch callback cannot be nil")
)
