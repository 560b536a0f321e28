package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/omeyang/xassets/pkg/assets/xassetconf"
)

// 日志文件轮转参数。
const (
	logMaxSizeMB  = 100
	logMaxBackups = 5
	logMaxAgeDays = 7
)

// loadConfig 读取 --config 指定的配置文件（未指定时取默认值），再用全局 flag 覆盖。
func loadConfig(cmd *cli.Command) (*xassetconf.Config, error) {
	cfg := xassetconf.Default()
	if path := cmd.String("config"); path != "" {
		loaded, err := xassetconf.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := applyFlags(cmd, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyFlags 把全局 flag 覆盖到 cfg 并重新校验。
func applyFlags(cmd *cli.Command, cfg *xassetconf.Config) error {
	domains := cmd.StringSlice("domain")
	ring := cmd.StringSlice("ring")
	if len(domains) > 0 && len(ring) > 0 {
		return &usageError{msg: "--domain 与 --ring 不能同时使用"}
	}
	if len(domains) > 0 {
		m, err := parseDomainFlags(domains)
		if err != nil {
			return err
		}
		cfg.DomainMap, cfg.DomainRing = m, nil
	}
	if len(ring) > 0 {
		cfg.DomainMap, cfg.DomainRing = nil, ring
	}
	if n := cmd.Int("max-retry"); n >= 0 {
		cfg.MaxRetryCount = n
	}
	if v := cmd.String("log-level"); v != "" {
		cfg.Log.Level = v
	}
	if v := cmd.String("log-format"); v != "" {
		cfg.Log.Format = v
	}
	if err := cfg.Validate(); err != nil {
		return &usageError{msg: err.Error()}
	}
	return nil
}

// parseDomainFlags 解析 from=to 形式的映射。
func parseDomainFlags(values []string) (map[string]string, error) {
	m := make(map[string]string, len(values))
	for _, v := range values {
		from, to, ok := strings.Cut(v, "=")
		if !ok || strings.TrimSpace(from) == "" || strings.TrimSpace(to) == "" {
			return nil, &usageError{msg: fmt.Sprintf("--domain 需要 from=to 形式，得到 %q", v)}
		}
		m[strings.TrimSpace(from)] = strings.TrimSpace(to)
	}
	return m, nil
}

// newLogger 按配置创建日志记录器。path 非空时写入轮转文件，返回的 closer 需要在退出前关闭。
func newLogger(cfg *xassetconf.Config, path string, stderr io.Writer) (*slog.Logger, io.Closer) {
	w := stderr
	var closer io.Closer = nopCloser{}
	if path != "" {
		lj := &lumberjack.Logger{
			Filename:   path,
			MaxSize:    logMaxSizeMB,
			MaxBackups: logMaxBackups,
			MaxAge:     logMaxAgeDays,
		}
		w, closer = lj, lj
	}
	if w == nil {
		w = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: cfg.LogLevel()}
	var h slog.Handler
	if strings.EqualFold(cfg.Log.Format, "json") {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h), closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
