package xassetconf

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/omeyang/xassets/pkg/assets/xassetretry"
)

// Format 配置文件格式。
type Format string

// 支持的配置格式。
const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// 默认值。
const (
	DefaultConcurrency = 8
	DefaultTimeout     = 10 * time.Second
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "text"
	DefaultSinkPrefix  = "xassets"
)

// keyDelim koanf 键分隔符。域名本身含 "."，不能用默认的 "." 作分隔符。
const keyDelim = "/"

// LogConfig 日志配置。
type LogConfig struct {
	// Level debug、info、warn、error 之一
	Level string `koanf:"level"`
	// Format text 或 json
	Format string `koanf:"format"`
}

// SinkConfig Redis 结果上报配置。Addr 为空表示不上报。
type SinkConfig struct {
	Addr   string `koanf:"addr"`
	Prefix string `koanf:"prefix"`
}

// Config 资源重试配置。
type Config struct {
	MaxRetryCount int           `koanf:"max_retry_count"`
	Concurrency   int           `koanf:"concurrency"`
	Timeout       time.Duration `koanf:"timeout"`
	Log           LogConfig     `koanf:"log"`
	Sink          SinkConfig    `koanf:"sink"`

	// DomainMap 映射形式的 domain，与 DomainRing 互斥
	DomainMap map[string]string `koanf:"-"`
	// DomainRing 列表形式的 domain
	DomainRing []string `koanf:"-"`
}

// Default 返回全部字段取默认值的配置，不含任何域名映射。
func Default() *Config {
	return &Config{
		MaxRetryCount: xassetretry.DefaultMaxRetryCount,
		Concurrency:   DefaultConcurrency,
		Timeout:       DefaultTimeout,
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Sink: SinkConfig{Prefix: DefaultSinkPrefix},
	}
}

// Load 从文件加载配置，按扩展名识别格式。
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	format, err := detectFormat(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	return Parse(data, format)
}

// Parse 解析配置数据并校验。空数据得到 Default()。
func Parse(data []byte, format Format) (*Config, error) {
	var parser koanf.Parser
	switch format {
	case FormatYAML:
		parser = yaml.Parser()
	case FormatJSON:
		parser = json.Parser()
	default:
		return nil, ErrUnsupportedFormat
	}

	k := koanf.New(keyDelim)
	if len(data) > 0 {
		if err := k.Load(rawbytes.Provider(data), parser); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrParseFailed, err)
		}
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParseFailed, err)
	}
	if err := cfg.decodeDomain(k.Get("domain")); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decodeDomain 按 domain 的形态填充 DomainMap 或 DomainRing。
func (c *Config) decodeDomain(raw any) error {
	switch v := raw.(type) {
	case nil:
		return nil
	case map[string]any:
		m := make(map[string]string, len(v))
		for from, to := range v {
			s, ok := to.(string)
			if !ok {
				return fmt.Errorf("%w: domain %q maps to non-string %T", ErrInvalidConfig, from, to)
			}
			m[from] = s
		}
		c.DomainMap = m
	case []any:
		ring := make([]string, 0, len(v))
		for i, h := range v {
			s, ok := h.(string)
			if !ok {
				return fmt.Errorf("%w: domain[%d] is non-string %T", ErrInvalidConfig, i, h)
			}
			ring = append(ring, s)
		}
		c.DomainRing = ring
	default:
		return fmt.Errorf("%w: domain must be a map or a list, got %T", ErrInvalidConfig, raw)
	}
	return nil
}

// Validate 校验配置值。
func (c *Config) Validate() error {
	if c.MaxRetryCount < 0 {
		return fmt.Errorf("%w: max_retry_count must not be negative", ErrInvalidConfig)
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("%w: concurrency must be positive", ErrInvalidConfig)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive", ErrInvalidConfig)
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: unknown log format %q", ErrInvalidConfig, c.Log.Format)
	}
	if c.DomainMap != nil && c.DomainRing != nil {
		return fmt.Errorf("%w: domain map and ring are mutually exclusive", ErrInvalidConfig)
	}
	if _, err := c.Domains(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Domains 构建配置中的域名映射。未配置时返回空映射。
func (c *Config) Domains() (*xassetretry.DomainMap, error) {
	if c.DomainRing != nil {
		return xassetretry.NewDomainRing(c.DomainRing)
	}
	return xassetretry.NewDomainMap(c.DomainMap)
}

// EngineOptions 返回与配置对应的 xassetretry.Option。
// 钩子、日志等运行期依赖由调用方追加。
func (c *Config) EngineOptions() []xassetretry.Option {
	opts := []xassetretry.Option{xassetretry.WithMaxRetryCount(c.MaxRetryCount)}
	if c.DomainRing != nil {
		return append(opts, xassetretry.WithDomainRing(c.DomainRing))
	}
	return append(opts, xassetretry.WithDomainMap(c.DomainMap))
}

// LogLevel 返回 Log.Level 对应的 slog.Level。
func (c *Config) LogLevel() slog.Level {
	l, err := parseLevel(c.Log.Level)
	if err != nil {
		return slog.LevelInfo
	}
	return l
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("%w: unknown log level %q", ErrInvalidConfig, s)
	}
	return l, nil
}

// detectFormat 根据文件扩展名检测配置格式。
func detectFormat(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown extension %s", ErrUnsupportedFormat, ext)
	}
}
